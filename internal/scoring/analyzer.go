package scoring

import (
	"context"
	"time"

	"github.com/thomas-vilte/gemscout/internal/config"
	"github.com/thomas-vilte/gemscout/internal/logger"
	"github.com/thomas-vilte/gemscout/internal/models"
)

// Prober runs the cheap lookups the red-flag gate needs.
type Prober interface {
	Probe(ctx context.Context, candidate models.Candidate) models.InsightsBundle
}

// Analyzer turns a candidate and its insights into a verdict using a
// scoring policy.
type Analyzer struct {
	policy config.Policy
	prober Prober
	now    func() time.Time
}

type Option func(*Analyzer)

func WithClock(now func() time.Time) Option {
	return func(a *Analyzer) {
		if now != nil {
			a.now = now
		}
	}
}

func NewAnalyzer(policy config.Policy, prober Prober, opts ...Option) *Analyzer {
	a := &Analyzer{
		policy: policy,
		prober: prober,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

func (a *Analyzer) Policy() config.Policy {
	return a.policy
}

// PreScreen evaluates the red flags from a partial bundle so a candidate can
// be vetoed before the full metric collection. The partial bundle is returned
// for reuse by the collector.
func (a *Analyzer) PreScreen(ctx context.Context, candidate models.Candidate) ([]string, models.InsightsBundle) {
	var probed models.InsightsBundle
	if a.prober != nil {
		probed = a.prober.Probe(ctx, candidate)
	}
	flags := RedFlags(candidate, probed, a.now(), a.policy.RedFlags)
	if len(flags) > 0 {
		logger.Info(ctx, "candidate vetoed by red flags", "red_flag", flags)
	}
	return flags, probed
}

// Analyze produces the heuristic verdict. Any red flag short-circuits to a
// REJECT result without sub-scores.
func (a *Analyzer) Analyze(ctx context.Context, candidate models.Candidate, b models.InsightsBundle) models.AnalysisResult {
	now := a.now()

	if flags := RedFlags(candidate, b, now, a.policy.RedFlags); len(flags) > 0 {
		return a.Reject(candidate, b, flags)
	}

	scores := models.SubScores{
		CommitActivity:      CommitActivity(b.RecentCommits, now),
		CodeQuality:         CodeQuality(candidate, b),
		DeveloperEngagement: DeveloperEngagement(b),
		ProjectMaturity:     ProjectMaturity(candidate, b, now),
	}
	total := Total(scores, a.policy.Weights)
	rec, prio := Recommend(total, a.policy.Thresholds)

	logger.Info(ctx, "heuristic analysis complete",
		"total_score", total,
		"recommendation", rec,
		"failed", len(b.Failures()))

	return models.AnalysisResult{
		Repo:           candidate.FullName,
		TotalScore:     total,
		HeuristicScore: total,
		Recommendation: rec,
		Priority:       prio,
		Scores:         &scores,
		RedFlags:       []string{},
		Metadata:       candidate.Metadata(),
		CommitSHA:      b.HeadSHA.Value,
		AnalyzedAt:     now,
	}
}

// Reject builds the red-flag verdict.
func (a *Analyzer) Reject(candidate models.Candidate, b models.InsightsBundle, flags []string) models.AnalysisResult {
	return models.AnalysisResult{
		Repo:           candidate.FullName,
		Recommendation: models.RecommendReject,
		Priority:       models.PriorityLow,
		RedFlags:       append([]string{}, flags...),
		Metadata:       candidate.Metadata(),
		CommitSHA:      b.HeadSHA.Value,
		AnalyzedAt:     a.now(),
	}
}

// Total weighs the sub-scores, rounded to two decimals.
func Total(s models.SubScores, w config.Weights) float64 {
	total := s.CommitActivity*w.CommitActivity +
		s.CodeQuality*w.CodeQuality +
		s.DeveloperEngagement*w.DeveloperEngagement +
		s.ProjectMaturity*w.ProjectMaturity
	return models.Round2(models.Clamp(total, 0, 100))
}

// Recommend maps a total onto the recommendation bands.
func Recommend(total float64, t config.Thresholds) (models.Recommendation, models.Priority) {
	switch {
	case total >= t.Approve:
		return models.RecommendApprove, models.PriorityHigh
	case total >= t.Review:
		return models.RecommendReview, models.PriorityMedium
	default:
		return models.RecommendReject, models.PriorityLow
	}
}
