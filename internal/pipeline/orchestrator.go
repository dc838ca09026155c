package pipeline

import (
	"context"
	"fmt"
	"runtime/debug"
	"time"

	"github.com/google/uuid"

	domainErrors "github.com/thomas-vilte/gemscout/internal/errors"
	"github.com/thomas-vilte/gemscout/internal/logger"
	"github.com/thomas-vilte/gemscout/internal/models"
	"github.com/thomas-vilte/gemscout/internal/regex"
	"github.com/thomas-vilte/gemscout/internal/scoring"
	"github.com/thomas-vilte/gemscout/internal/source"
	"github.com/thomas-vilte/gemscout/internal/vcs"
)

// Collector completes the partial bundle gathered during pre-screening.
type Collector interface {
	Complete(ctx context.Context, candidate models.Candidate, partial models.InsightsBundle) models.InsightsBundle
}

// Analyzer is the heuristic verdict policy.
type Analyzer interface {
	PreScreen(ctx context.Context, candidate models.Candidate) ([]string, models.InsightsBundle)
	Analyze(ctx context.Context, candidate models.Candidate, b models.InsightsBundle) models.AnalysisResult
	Reject(candidate models.Candidate, b models.InsightsBundle, flags []string) models.AnalysisResult
}

// Blender folds an AI review into a verdict.
type Blender interface {
	MaybeBlend(ctx context.Context, result models.AnalysisResult, profile vcs.RepoProfile) models.AnalysisResult
}

// VerdictStore persists verdicts and serves the ones still valid for a head commit.
type VerdictStore interface {
	Reusable(ctx context.Context, repo, sha, key string) (models.AnalysisResult, bool, error)
	Save(ctx context.Context, runID string, result models.AnalysisResult) (int64, error)
}

// Orchestrator runs candidates through pre-screening, collection, scoring,
// AI blending and persistence, one at a time.
type Orchestrator struct {
	source     source.Source
	collector  Collector
	analyzer   Analyzer
	classifier scoring.ProductionClassifier
	blender    Blender
	store      VerdictStore
	reuseKey   string
	now        func() time.Time
	newRunID   func() string
}

type Option func(*Orchestrator)

func WithBlender(b Blender) Option {
	return func(o *Orchestrator) {
		o.blender = b
	}
}

func WithStore(s VerdictStore) Option {
	return func(o *Orchestrator) {
		o.store = s
	}
}

// WithReuseKey stamps verdicts with the policy and AI mode they were computed
// under. A stored verdict is reused only when its key matches.
func WithReuseKey(key string) Option {
	return func(o *Orchestrator) {
		o.reuseKey = key
	}
}

func WithClock(now func() time.Time) Option {
	return func(o *Orchestrator) {
		if now != nil {
			o.now = now
		}
	}
}

func WithRunID(newRunID func() string) Option {
	return func(o *Orchestrator) {
		if newRunID != nil {
			o.newRunID = newRunID
		}
	}
}

func NewOrchestrator(src source.Source, collector Collector, analyzer Analyzer, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		source:    src,
		collector: collector,
		analyzer:  analyzer,
		now:       time.Now,
		newRunID:  uuid.NewString,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Run analyzes the candidates of a tier until maxApproved approvals are
// collected (0 means no limit). Source failures yield an empty batch and a
// failing candidate never stops the run.
func (o *Orchestrator) Run(ctx context.Context, tier string, maxApproved int) models.BatchResult {
	runID := o.newRunID()
	ctx = logger.With(ctx, "run_id", runID)

	batch := models.BatchResult{
		RunID:     runID,
		Tier:      tier,
		Approvals: []models.AnalysisResult{},
		Reviews:   []models.AnalysisResult{},
		StartedAt: o.now(),
	}

	var candidates []models.Candidate
	if o.source != nil {
		var err error
		candidates, err = o.source.Candidates(ctx, tier)
		if err != nil {
			logger.Warn(ctx, "candidate source unavailable, nothing to analyze",
				"source", o.source.Name(),
				"tier", tier,
				"error", err)
			candidates = nil
		}
	}
	logger.Info(ctx, "run started", "tier", tier, "candidates", len(candidates), "max_approved", maxApproved)

	for _, candidate := range candidates {
		if maxApproved > 0 && batch.Approved >= maxApproved {
			logger.Info(ctx, "approval target reached", "approved", batch.Approved)
			break
		}
		if ctx.Err() != nil {
			logger.Warn(ctx, "run cancelled", "error", ctx.Err())
			break
		}

		batch.Scanned++
		result, err := o.analyzeSafely(ctx, runID, candidate, nil)
		if err != nil {
			batch.Failed++
			logger.Error(ctx, "candidate analysis failed", err, "repo", candidate.FullName)
			continue
		}

		switch result.Recommendation {
		case models.RecommendApprove:
			batch.Approved++
			batch.Approvals = append(batch.Approvals, result)
		case models.RecommendReview:
			batch.Review++
			batch.Reviews = append(batch.Reviews, result)
		default:
			batch.Rejected++
		}
	}

	batch.FinishedAt = o.now()
	logger.Info(ctx, "run finished",
		"scanned", batch.Scanned,
		"approved", batch.Approved,
		"review", batch.Review,
		"rejected", batch.Rejected,
		"failed", batch.Failed)
	return batch
}

// Evaluate analyzes a single candidate outside of a batch.
func (o *Orchestrator) Evaluate(ctx context.Context, candidate models.Candidate) (models.AnalysisResult, error) {
	return o.EvaluateWithProfile(ctx, candidate, nil)
}

// EvaluateWithProfile analyzes a single candidate and hands profile to the AI
// review instead of the one derived from the collected metrics. A nil profile
// behaves like Evaluate.
func (o *Orchestrator) EvaluateWithProfile(ctx context.Context, candidate models.Candidate, profile vcs.RepoProfile) (models.AnalysisResult, error) {
	runID := o.newRunID()
	return o.analyzeSafely(logger.With(ctx, "run_id", runID), runID, candidate, profile)
}

func (o *Orchestrator) analyzeSafely(ctx context.Context, runID string, candidate models.Candidate, profile vcs.RepoProfile) (result models.AnalysisResult, err error) {
	defer func() {
		if r := recover(); r != nil {
			logger.Debug(ctx, "recovered panic", "stack", string(debug.Stack()))
			err = domainErrors.ErrCandidateAnalysis.
				WithError(fmt.Errorf("panic: %v", r)).
				WithContext("repo", candidate.FullName)
		}
	}()
	return o.analyze(ctx, runID, candidate, profile)
}

func (o *Orchestrator) analyze(ctx context.Context, runID string, candidate models.Candidate, profile vcs.RepoProfile) (models.AnalysisResult, error) {
	if !regex.FullName.MatchString(candidate.FullName) {
		return models.AnalysisResult{}, domainErrors.ErrCandidateAnalysis.
			WithError(domainErrors.ErrInvalidCandidate).
			WithContext("repo", candidate.FullName)
	}

	ctx = logger.With(ctx, "repo", candidate.FullName)
	start := time.Now()

	flags, probed := o.analyzer.PreScreen(ctx, candidate)
	if len(flags) > 0 {
		result := o.analyzer.Reject(candidate, probed, flags).
			WithCommit(probed.HeadSHA.Value).
			WithReuseKey(o.reuseKey)
		o.persist(ctx, runID, result)
		logger.Info(ctx, "candidate rejected", "red_flags", flags, logger.Since(start))
		return result, nil
	}

	if o.store != nil && probed.HeadSHA.OK() && probed.HeadSHA.Value != "" {
		reused, ok, err := o.store.Reusable(ctx, candidate.FullName, probed.HeadSHA.Value, o.reuseKey)
		if err != nil {
			logger.Warn(ctx, "verdict lookup failed, analyzing again", "error", err)
		} else if ok {
			logger.Info(ctx, "head commit unchanged, reusing stored verdict",
				"commit_sha", probed.HeadSHA.Value,
				"recommendation", reused.Recommendation,
				logger.Since(start))
			return reused, nil
		}
	}

	bundle := o.collector.Complete(ctx, candidate, probed)
	if failures := bundle.Failures(); len(failures) > 0 {
		logger.Debug(ctx, "metrics defaulted", "failures", failures)
	}

	result := o.analyzer.Analyze(ctx, candidate, bundle)

	production := o.classifier.Classify(candidate, &bundle)
	result = result.WithProduction(production)
	logger.Info(ctx, "production readiness",
		"classification", production.Classification,
		"production_score", production.Score,
		"activity_score", production.ActivityScore)

	if o.blender != nil && !result.Rejected() {
		if profile == nil {
			profile = vcs.ProfileFromInsights(candidate, bundle)
		}
		result = o.blender.MaybeBlend(ctx, result, profile)
	}
	result = result.WithReuseKey(o.reuseKey)

	o.persist(ctx, runID, result)
	logger.Info(ctx, "candidate analyzed",
		"total_score", result.TotalScore,
		"recommendation", result.Recommendation,
		logger.Since(start))
	return result, nil
}

// persist saves the verdict; a store failure is logged and the verdict kept.
func (o *Orchestrator) persist(ctx context.Context, runID string, result models.AnalysisResult) {
	if o.store == nil {
		return
	}
	if _, err := o.store.Save(ctx, runID, result); err != nil {
		logger.Warn(ctx, "could not persist verdict", "error", err)
	}
}
