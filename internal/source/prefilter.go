package source

import (
	"bytes"
	"context"
	"errors"
	"os"
	"os/exec"
	"strings"
	"time"

	domainErrors "github.com/thomas-vilte/gemscout/internal/errors"
	"github.com/thomas-vilte/gemscout/internal/logger"
	"github.com/thomas-vilte/gemscout/internal/models"
	"github.com/thomas-vilte/gemscout/internal/regex"
)

const (
	DefaultPrefilterTimeout = 120 * time.Second
	waitDelay               = 2 * time.Second
)

// PrefilterSource runs an external scanner and reads the candidate array it
// prints between the __REPO_JSON__ and __END_JSON__ markers. The tier is
// passed as the last argument.
type PrefilterSource struct {
	command []string
	env     []string
	timeout time.Duration
}

type PrefilterOption func(*PrefilterSource)

func WithTimeout(d time.Duration) PrefilterOption {
	return func(s *PrefilterSource) {
		if d > 0 {
			s.timeout = d
		}
	}
}

// WithEnv adds KEY=VALUE pairs to the scanner environment.
func WithEnv(kv ...string) PrefilterOption {
	return func(s *PrefilterSource) {
		s.env = append(s.env, kv...)
	}
}

func NewPrefilterSource(command []string, opts ...PrefilterOption) *PrefilterSource {
	s := &PrefilterSource{
		command: append([]string(nil), command...),
		timeout: DefaultPrefilterTimeout,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *PrefilterSource) Name() string {
	return "prefilter"
}

func (s *PrefilterSource) Candidates(ctx context.Context, tier string) ([]models.Candidate, error) {
	if len(s.command) == 0 || s.command[0] == "" {
		return nil, domainErrors.ErrExternalSourceUnavailable.
			WithError(errors.New("no pre-filter command configured")).
			WithSuggestion("Pass --prefilter-cmd or set prefilter_command in config.json")
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	start := time.Now()
	args := append(append([]string(nil), s.command[1:]...), tier)
	cmd := exec.CommandContext(ctx, s.command[0], args...)
	cmd.Env = append(os.Environ(), s.env...)
	// Children of the scanner may keep the pipes open after it is killed.
	cmd.WaitDelay = waitDelay

	var stdout bytes.Buffer
	var stderr strings.Builder
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		appErr := domainErrors.ErrExternalSourceUnavailable.WithError(err).
			WithContext("command", s.command[0]).
			WithContext("stderr", strings.TrimSpace(stderr.String()))
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			appErr = appErr.WithContext("timeout", s.timeout.String())
		}
		return nil, appErr
	}

	candidates, err := ParsePayload(ctx, stdout.String())
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "pre-filter finished",
		"tier", tier,
		"candidates", len(candidates),
		logger.Since(start))
	return candidates, nil
}

// ParsePayload extracts the candidate array from scanner output. Output
// without the markers yields no candidates and no error.
func ParsePayload(ctx context.Context, output string) ([]models.Candidate, error) {
	m := regex.PrefilterPayload.FindStringSubmatch(output)
	if m == nil {
		logger.Warn(ctx, "pre-filter printed no candidate payload")
		return []models.Candidate{}, nil
	}

	payload := strings.TrimSpace(m[1])
	if payload == "" {
		return []models.Candidate{}, nil
	}

	candidates, err := decodeCandidates(ctx, []byte(payload))
	if err != nil {
		return nil, domainErrors.ErrExternalSourceUnavailable.WithError(err)
	}
	return candidates, nil
}
