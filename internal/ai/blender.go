package ai

import (
	"context"
	"errors"
	"time"

	"github.com/codeGROOVE-dev/retry"

	"github.com/thomas-vilte/gemscout/internal/config"
	domainErrors "github.com/thomas-vilte/gemscout/internal/errors"
	"github.com/thomas-vilte/gemscout/internal/logger"
	"github.com/thomas-vilte/gemscout/internal/models"
	"github.com/thomas-vilte/gemscout/internal/scoring"
	"github.com/thomas-vilte/gemscout/internal/vcs"
)

const (
	DefaultTimeout  = 60 * time.Second
	defaultAttempts = 3
	defaultDelay    = 2 * time.Second
	defaultMaxDelay = 10 * time.Second
)

// Blender asks a reviewer for a qualitative review and folds it into a
// heuristic verdict.
type Blender struct {
	reviewer Reviewer
	keys     *KeyPool
	cache    ResponseCache
	policy   config.Policy
	lang     string
	timeout  time.Duration
	attempts uint
	delay    time.Duration
	maxDelay time.Duration
}

type Option func(*Blender)

func WithCache(c ResponseCache) Option {
	return func(b *Blender) {
		b.cache = c
	}
}

// WithTimeout bounds each reviewer call.
func WithTimeout(d time.Duration) Option {
	return func(b *Blender) {
		if d > 0 {
			b.timeout = d
		}
	}
}

// WithRetry sets the attempt count and the first backoff delay.
func WithRetry(attempts uint, delay time.Duration) Option {
	return func(b *Blender) {
		if attempts > 0 {
			b.attempts = attempts
		}
		b.delay = delay
		if delay*4 < b.maxDelay {
			b.maxDelay = delay * 4
		}
	}
}

// WithLanguage selects the prompt locale.
func WithLanguage(lang string) Option {
	return func(b *Blender) {
		b.lang = lang
	}
}

func NewBlender(reviewer Reviewer, keys *KeyPool, policy config.Policy, opts ...Option) *Blender {
	b := &Blender{
		reviewer: reviewer,
		keys:     keys,
		policy:   policy,
		lang:     config.LangEN,
		timeout:  DefaultTimeout,
		attempts: defaultAttempts,
		delay:    defaultDelay,
		maxDelay: defaultMaxDelay,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// MaybeBlend returns the verdict with the AI review folded in. Rejected
// verdicts, verdicts below the AI gate and verdicts already reviewed are
// returned untouched, and so is every verdict whose review fails.
func (b *Blender) MaybeBlend(ctx context.Context, result models.AnalysisResult, profile vcs.RepoProfile) models.AnalysisResult {
	if b == nil || b.reviewer == nil || profile == nil {
		return result
	}
	if result.Rejected() || result.AIReview != nil {
		return result
	}
	if result.TotalScore < b.policy.Thresholds.AIGate {
		logger.Debug(ctx, "below AI gate, skipping review",
			"score", result.TotalScore,
			"gate", b.policy.Thresholds.AIGate)
		return result
	}

	prompt, err := BuildReviewPrompt(b.lang, NewReviewRequest(profile))
	if err != nil {
		logger.Warn(ctx, "could not build review prompt", "error", err)
		return result
	}

	review, usage, err := b.Review(ctx, prompt)
	if err != nil {
		logger.Warn(ctx, "AI review unavailable, keeping heuristic verdict", "error", err)
		return result
	}

	quality := AIQuality(review, b.policy.Blend.Dimension)
	total := Blend(result.TotalScore, quality, b.policy.Blend)
	rec, prio := scoring.Recommend(total, b.policy.Thresholds)

	attrs := []any{
		"heuristic", result.TotalScore,
		"ai_quality", models.Round2(quality),
		"final", total,
		"recommendation", rec,
		"used_defaults", review.UsedDefaults,
	}
	if usage != nil {
		attrs = append(attrs, "tokens", usage.TotalTokens, "cache_hit", usage.CacheHit)
	}
	logger.Info(ctx, "AI review blended", attrs...)

	return result.WithAIReview(total, rec, prio, review)
}

// Review sends the prompt through the reviewer with key rotation and
// exponential backoff. Answers are served from the cache when possible.
func (b *Blender) Review(ctx context.Context, prompt string) (models.AIReview, *models.TokenUsage, error) {
	if b.keys.Len() == 0 {
		return models.AIReview{}, nil, domainErrors.ErrCredentialExhausted
	}

	var key string
	if b.cache != nil {
		key = b.cache.Key(b.reviewer.Name(), b.reviewer.Model(), prompt)
		if text, ok := b.cached(ctx, key); ok {
			review := ParseReview(text)
			review.Provider = b.reviewer.Name()
			return review, &models.TokenUsage{Model: b.reviewer.Model(), CacheHit: true}, nil
		}
	}

	start := time.Now()
	var (
		text  string
		usage *models.TokenUsage
	)
	err := retry.Do(
		func() error {
			key, err := b.keys.Next()
			if err != nil {
				return err
			}
			callCtx, cancel := context.WithTimeout(ctx, b.timeout)
			defer cancel()

			out, u, err := b.reviewer.Generate(callCtx, key, prompt)
			if err != nil {
				return err
			}
			text, usage = out, u
			return nil
		},
		retry.Context(ctx),
		retry.Attempts(b.attempts),
		retry.DelayType(retry.BackOffDelay),
		retry.Delay(b.delay),
		retry.MaxDelay(b.maxDelay),
		retry.OnRetry(func(n uint, err error) {
			logger.Warn(ctx, "AI review attempt failed, retrying",
				"provider", b.reviewer.Name(),
				"attempt", n+1,
				"error", err)
		}),
		retry.LastErrorOnly(true),
		retry.RetryIf(func(err error) bool {
			return !errors.Is(err, domainErrors.ErrCredentialExhausted) && ctx.Err() == nil
		}),
	)
	if err != nil {
		return models.AIReview{}, nil, err
	}

	if usage == nil {
		usage = &models.TokenUsage{}
	}
	usage.Model = b.reviewer.Model()
	usage.DurationMs = time.Since(start).Milliseconds()

	review := ParseReview(text)
	review.Provider = b.reviewer.Name()
	if review.UsedDefaults {
		logger.Warn(ctx, "AI review incomplete, neutral scores substituted",
			"error", domainErrors.ErrMalformedAIResponse.WithContext("provider", b.reviewer.Name()))
	}

	if key != "" && !review.UsedDefaults {
		if err := b.cache.Remember(key, text); err != nil {
			logger.Debug(ctx, "could not cache AI review", "error", err)
		}
	}

	return review, usage, nil
}

func (b *Blender) cached(ctx context.Context, key string) (string, bool) {
	text, found, err := b.cache.Answer(key)
	if err != nil {
		logger.Debug(ctx, "AI review cache read failed", "error", err)
		return "", false
	}
	return text, found
}

// AIQuality normalizes each 1..10 dimension to 0..100 and applies the weights.
func AIQuality(r models.AIReview, w config.AIDimensions) float64 {
	norm := func(v int) float64 {
		return float64(v-1) / 9 * 100
	}
	return norm(r.Architecture)*w.Architecture +
		norm(r.Documentation)*w.Documentation +
		norm(r.Testing)*w.Testing +
		norm(r.Practices)*w.Practices +
		norm(r.Innovation)*w.Innovation
}

// Blend combines the heuristic total with the AI quality, rounded to 2 decimals.
func Blend(heuristic, quality float64, w config.Blend) float64 {
	return models.Round2(models.Clamp(heuristic*w.Heuristic+quality*w.AI, 0, 100))
}
