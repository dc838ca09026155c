package source

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	domainErrors "github.com/thomas-vilte/gemscout/internal/errors"
	"github.com/thomas-vilte/gemscout/internal/logger"
	"github.com/thomas-vilte/gemscout/internal/models"
	"github.com/thomas-vilte/gemscout/internal/regex"
)

// Source emits the candidates of one popularity tier.
type Source interface {
	Name() string
	Candidates(ctx context.Context, tier string) ([]models.Candidate, error)
}

// FileSource reads a JSON array of candidates. The tier is ignored.
type FileSource struct {
	path string
}

func NewFileSource(path string) *FileSource {
	return &FileSource{path: path}
}

func (s *FileSource) Name() string {
	return "file"
}

func (s *FileSource) Candidates(ctx context.Context, _ string) ([]models.Candidate, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil, domainErrors.ErrExternalSourceUnavailable.WithError(err).WithContext("path", s.path)
	}
	candidates, err := decodeCandidates(ctx, data)
	if err != nil {
		return nil, domainErrors.ErrExternalSourceUnavailable.WithError(err).WithContext("path", s.path)
	}
	return candidates, nil
}

// decodeCandidates parses a JSON array and drops entries that cannot be
// analyzed. Only a payload that is not an array fails.
func decodeCandidates(ctx context.Context, data []byte) ([]models.Candidate, error) {
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("error decoding candidates: %w", err)
	}

	candidates := make([]models.Candidate, 0, len(raw))
	for i, element := range raw {
		var c models.Candidate
		if err := json.Unmarshal(element, &c); err != nil {
			logger.Warn(ctx, "skipping malformed candidate",
				"index", i,
				"error", domainErrors.ErrInvalidCandidate.WithError(err))
			continue
		}
		c.FullName = strings.TrimSpace(c.FullName)
		if !regex.FullName.MatchString(c.FullName) {
			logger.Warn(ctx, "skipping candidate without a valid full name",
				"index", i,
				"error", domainErrors.ErrInvalidCandidate.WithContext("full_name", c.FullName))
			continue
		}
		candidates = append(candidates, c)
	}
	return candidates, nil
}
