package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/thomas-vilte/gemscout/internal/config"
	domainErrors "github.com/thomas-vilte/gemscout/internal/errors"
	"github.com/thomas-vilte/gemscout/internal/models"
	"github.com/thomas-vilte/gemscout/internal/scoring"
	"github.com/thomas-vilte/gemscout/internal/source"
	"github.com/thomas-vilte/gemscout/internal/vcs"
)

var fixedNow = time.Date(2025, 6, 30, 12, 0, 0, 0, time.UTC)

func daysAgo(n int) time.Time {
	return fixedNow.AddDate(0, 0, -n)
}

func candidate(name string) models.Candidate {
	return models.Candidate{
		FullName:  name,
		Language:  "Go",
		Stars:     420,
		Forks:     31,
		License:   &models.License{Key: "mit"},
		CreatedAt: daysAgo(800),
		UpdatedAt: daysAgo(5),
		PushedAt:  daysAgo(5),
	}
}

func probed(sha string) models.InsightsBundle {
	return models.InsightsBundle{
		HeadSHA: models.Measured(sha),
		Readme:  models.Measured(models.ReadmeInfo{Present: true, SizeBytes: 4000, Excerpt: "# Rocket"}),
		Issues: models.Measured(models.IssueStats{
			OpenCount: 5, OpenSampled: 5, OpenResponded: 5,
		}),
	}
}

func complete(sha string) models.InsightsBundle {
	b := probed(sha)
	var commits []models.CommitSample
	for i := 0; i < 50; i++ {
		commits = append(commits, models.CommitSample{
			Message: "Implement exponential retry policy for the upload client",
			Author:  fmt.Sprintf("dev-%d", i%5),
			Date:    daysAgo(10),
		})
	}
	b.RecentCommits = models.Measured(commits)
	b.Issues = models.Measured(models.IssueStats{
		OpenCount: 5, OpenSampled: 5, OpenResponded: 5,
		ClosedSampled: 30, ClosedRatio: 1, AvgResponseDays: 0.5, HasResponseTime: true,
	})
	b.PullRequests = models.Measured(models.PullRequestStats{Sampled: 20, Merged: 20, External: 20, MergeRatio: 1, ExternalRatio: 1})
	b.Releases = models.Measured(models.ReleaseStats{Count: 12, RecentCount: 4, LatestTag: "v2.1.0", LatestDate: daysAgo(10), HasSemver: true, LatestMajor: 2})
	b.Layout = models.Measured(models.RepoLayout{
		Entries: []models.Entry{
			{Name: ".github", Dir: true}, {Name: "src", Dir: true}, {Name: "tests", Dir: true}, {Name: "docs", Dir: true},
			{Name: "examples", Dir: true}, {Name: "CONTRIBUTING.md"}, {Name: "CHANGELOG.md"},
			{Name: "go.mod"}, {Name: "go.sum"},
		},
		WorkflowCount:  2,
		DocsEntryCount: 3,
	})
	return b
}

func named(name string) interface{} {
	return mock.MatchedBy(func(c models.Candidate) bool { return c.FullName == name })
}

type fixture struct {
	source    *source.MockSource
	collector *MockCollector
	blender   *MockBlender
	store     *MockVerdictStore
	orch      *Orchestrator
}

func newFixture(withStore bool, extra ...Option) *fixture {
	f := &fixture{
		source:    new(source.MockSource),
		collector: new(MockCollector),
		blender:   new(MockBlender),
		store:     new(MockVerdictStore),
	}
	analyzer := scoring.NewAnalyzer(config.DefaultPolicy(), f.collector, scoring.WithClock(func() time.Time { return fixedNow }))
	opts := []Option{
		WithBlender(f.blender),
		WithClock(func() time.Time { return fixedNow }),
		WithRunID(func() string { return "run-1" }),
	}
	if withStore {
		opts = append(opts, WithStore(f.store))
	}
	f.orch = NewOrchestrator(f.source, f.collector, analyzer, append(opts, extra...)...)
	return f
}

// passThrough makes the blender return the verdict it receives.
func (f *fixture) passThrough() {
	f.blender.On("MaybeBlend", mock.Anything, mock.Anything, mock.Anything).
		Return(func(_ context.Context, r models.AnalysisResult, _ vcs.RepoProfile) models.AnalysisResult { return r })
}

func TestOrchestrator_Run(t *testing.T) {
	ctx := context.Background()

	t.Run("should return an empty batch without candidates", func(t *testing.T) {
		f := newFixture(false)
		f.source.On("Candidates", mock.Anything, "small").Return([]models.Candidate{}, nil)

		batch := f.orch.Run(ctx, "small", 0)

		assert.Equal(t, "run-1", batch.RunID)
		assert.Equal(t, "small", batch.Tier)
		assert.Zero(t, batch.Scanned)
		assert.Zero(t, batch.Failed)
		assert.NotNil(t, batch.Approvals)
		assert.Empty(t, batch.Publishable())
	})

	t.Run("should survive an unavailable source", func(t *testing.T) {
		f := newFixture(false)
		f.source.On("Candidates", mock.Anything, "small").
			Return(nil, domainErrors.ErrExternalSourceUnavailable.WithError(errors.New("exit status 1")))

		batch := f.orch.Run(ctx, "small", 0)

		assert.Zero(t, batch.Scanned)
		assert.Zero(t, batch.Failed)
	})

	t.Run("should approve healthy candidates and reject red flags", func(t *testing.T) {
		f := newFixture(true)
		unlicensed := candidate("dev/unlicensed")
		unlicensed.License = nil
		f.source.On("Candidates", mock.Anything, "small").Return([]models.Candidate{candidate("acme/rocket"), unlicensed}, nil)
		f.collector.On("Probe", mock.Anything, named("acme/rocket")).Return(probed("abc"))
		f.collector.On("Probe", mock.Anything, named("dev/unlicensed")).Return(probed("def"))
		f.collector.On("Complete", mock.Anything, named("acme/rocket"), mock.Anything).Return(complete("abc"))
		f.store.On("Reusable", mock.Anything, "acme/rocket", "abc", "").Return(models.AnalysisResult{}, false, nil)
		f.store.On("Save", mock.Anything, "run-1", mock.Anything).Return(int64(1), nil)
		f.passThrough()

		batch := f.orch.Run(ctx, "small", 0)

		assert.Equal(t, 2, batch.Scanned)
		assert.Equal(t, 1, batch.Approved)
		assert.Equal(t, 1, batch.Rejected)
		require.Len(t, batch.Approvals, 1)
		approved := batch.Approvals[0]
		assert.Equal(t, "acme/rocket", approved.Repo)
		assert.Equal(t, "abc", approved.CommitSHA)
		require.NotNil(t, approved.Production)
		assert.NotEmpty(t, approved.Production.Classification)

		f.collector.AssertNotCalled(t, "Complete", mock.Anything, named("dev/unlicensed"), mock.Anything)
		f.blender.AssertNumberOfCalls(t, "MaybeBlend", 1)
		f.store.AssertNumberOfCalls(t, "Save", 2)
		f.store.AssertCalled(t, "Save", mock.Anything, "run-1", mock.MatchedBy(func(r models.AnalysisResult) bool {
			return r.Repo == "dev/unlicensed" && r.Recommendation == models.RecommendReject &&
				r.Scores == nil && len(r.RedFlags) == 1 && r.RedFlags[0] == "No license found"
		}))
	})

	t.Run("should bucket by the blended recommendation", func(t *testing.T) {
		f := newFixture(false)
		f.source.On("Candidates", mock.Anything, "small").Return([]models.Candidate{candidate("acme/rocket")}, nil)
		f.collector.On("Probe", mock.Anything, mock.Anything).Return(probed("abc"))
		f.collector.On("Complete", mock.Anything, mock.Anything, mock.Anything).Return(complete("abc"))
		blended := models.AnalysisResult{Repo: "acme/rocket", TotalScore: 70.88, Recommendation: models.RecommendReview, RedFlags: []string{}}
		f.blender.On("MaybeBlend", mock.Anything, mock.Anything, mock.Anything).Return(blended)

		batch := f.orch.Run(ctx, "small", 0)

		assert.Equal(t, 1, batch.Review)
		assert.Zero(t, batch.Approved)
		assert.Equal(t, []models.AnalysisResult{blended}, batch.Reviews)
	})

	t.Run("should reuse the stored verdict for an unchanged commit", func(t *testing.T) {
		f := newFixture(true)
		stored := models.AnalysisResult{Repo: "acme/rocket", TotalScore: 81, Recommendation: models.RecommendApprove, CommitSHA: "abc", RedFlags: []string{}}
		f.source.On("Candidates", mock.Anything, "small").Return([]models.Candidate{candidate("acme/rocket")}, nil)
		f.collector.On("Probe", mock.Anything, mock.Anything).Return(probed("abc"))
		f.store.On("Reusable", mock.Anything, "acme/rocket", "abc", "").Return(stored, true, nil)

		batch := f.orch.Run(ctx, "small", 0)

		assert.Equal(t, []models.AnalysisResult{stored}, batch.Approvals)
		f.collector.AssertNotCalled(t, "Complete", mock.Anything, mock.Anything, mock.Anything)
		f.blender.AssertNotCalled(t, "MaybeBlend", mock.Anything, mock.Anything, mock.Anything)
		f.store.AssertNotCalled(t, "Save", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("should analyze again when the stored verdict is for another commit", func(t *testing.T) {
		f := newFixture(true)
		f.source.On("Candidates", mock.Anything, "small").Return([]models.Candidate{candidate("acme/rocket")}, nil)
		f.collector.On("Probe", mock.Anything, mock.Anything).Return(probed("new"))
		f.collector.On("Complete", mock.Anything, mock.Anything, mock.Anything).Return(complete("new"))
		f.store.On("Reusable", mock.Anything, "acme/rocket", "new", "").Return(models.AnalysisResult{}, false, nil)
		f.store.On("Save", mock.Anything, "run-1", mock.Anything).Return(int64(2), nil)
		f.passThrough()

		batch := f.orch.Run(ctx, "small", 0)

		assert.Equal(t, 1, batch.Approved)
		f.collector.AssertNumberOfCalls(t, "Complete", 1)
		f.store.AssertNumberOfCalls(t, "Save", 1)
	})

	t.Run("should look verdicts up and stamp them with the reuse key", func(t *testing.T) {
		f := newFixture(true, WithReuseKey("3f2a91c0d4e5/none"))
		f.source.On("Candidates", mock.Anything, "small").Return([]models.Candidate{candidate("acme/rocket")}, nil)
		f.collector.On("Probe", mock.Anything, mock.Anything).Return(probed("abc"))
		f.collector.On("Complete", mock.Anything, mock.Anything, mock.Anything).Return(complete("abc"))
		f.store.On("Reusable", mock.Anything, "acme/rocket", "abc", "3f2a91c0d4e5/none").Return(models.AnalysisResult{}, false, nil)
		f.store.On("Save", mock.Anything, "run-1", mock.Anything).Return(int64(3), nil)
		f.passThrough()

		batch := f.orch.Run(ctx, "small", 0)

		require.Len(t, batch.Approvals, 1)
		assert.Equal(t, "3f2a91c0d4e5/none", batch.Approvals[0].ReuseKey)
		f.collector.AssertNumberOfCalls(t, "Complete", 1)
		f.store.AssertCalled(t, "Save", mock.Anything, "run-1", mock.MatchedBy(func(r models.AnalysisResult) bool {
			return r.ReuseKey == "3f2a91c0d4e5/none"
		}))
	})

	t.Run("should isolate a panicking candidate", func(t *testing.T) {
		f := newFixture(false)
		f.source.On("Candidates", mock.Anything, "small").
			Return([]models.Candidate{candidate("bad/apple"), candidate("acme/rocket")}, nil)
		f.collector.On("Probe", mock.Anything, mock.Anything).Return(probed("abc"))
		f.collector.On("Complete", mock.Anything, named("bad/apple"), mock.Anything).
			Run(func(mock.Arguments) { panic("nil map") }).Return(models.InsightsBundle{})
		f.collector.On("Complete", mock.Anything, named("acme/rocket"), mock.Anything).Return(complete("abc"))
		f.passThrough()

		batch := f.orch.Run(ctx, "small", 0)

		assert.Equal(t, 2, batch.Scanned)
		assert.Equal(t, 1, batch.Failed)
		assert.Equal(t, 1, batch.Approved)
	})

	t.Run("should count invalid candidates as failed", func(t *testing.T) {
		f := newFixture(false)
		f.source.On("Candidates", mock.Anything, "small").Return([]models.Candidate{{FullName: "not-a-repo"}}, nil)

		batch := f.orch.Run(ctx, "small", 0)

		assert.Equal(t, 1, batch.Scanned)
		assert.Equal(t, 1, batch.Failed)
		f.collector.AssertNotCalled(t, "Probe", mock.Anything, mock.Anything)
	})

	t.Run("should stop at the approval target", func(t *testing.T) {
		f := newFixture(false)
		f.source.On("Candidates", mock.Anything, "small").
			Return([]models.Candidate{candidate("a/one"), candidate("b/two"), candidate("c/three")}, nil)
		f.collector.On("Probe", mock.Anything, mock.Anything).Return(probed("abc"))
		f.collector.On("Complete", mock.Anything, mock.Anything, mock.Anything).Return(complete("abc"))
		f.passThrough()

		batch := f.orch.Run(ctx, "small", 2)

		assert.Equal(t, 2, batch.Scanned)
		assert.Equal(t, 2, batch.Approved)
		f.collector.AssertNotCalled(t, "Probe", mock.Anything, named("c/three"))
	})

	t.Run("should keep the verdict when saving fails", func(t *testing.T) {
		f := newFixture(true)
		f.source.On("Candidates", mock.Anything, "small").Return([]models.Candidate{candidate("acme/rocket")}, nil)
		f.collector.On("Probe", mock.Anything, mock.Anything).Return(probed("abc"))
		f.collector.On("Complete", mock.Anything, mock.Anything, mock.Anything).Return(complete("abc"))
		f.store.On("Reusable", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(models.AnalysisResult{}, false, errors.New("locked"))
		f.store.On("Save", mock.Anything, mock.Anything, mock.Anything).Return(int64(0), domainErrors.ErrStore)
		f.passThrough()

		batch := f.orch.Run(ctx, "small", 0)

		assert.Equal(t, 1, batch.Approved)
		assert.Zero(t, batch.Failed)
	})

	t.Run("should stop when the context is cancelled", func(t *testing.T) {
		f := newFixture(false)
		f.source.On("Candidates", mock.Anything, "small").Return([]models.Candidate{candidate("acme/rocket")}, nil)
		cancelled, cancel := context.WithCancel(ctx)
		cancel()

		batch := f.orch.Run(cancelled, "small", 0)

		assert.Zero(t, batch.Scanned)
	})
}

func TestOrchestrator_Evaluate(t *testing.T) {
	f := newFixture(false)
	f.collector.On("Probe", mock.Anything, mock.Anything).Return(probed("abc"))
	f.collector.On("Complete", mock.Anything, mock.Anything, mock.Anything).Return(complete("abc"))
	f.passThrough()

	result, err := f.orch.Evaluate(context.Background(), candidate("acme/rocket"))

	require.NoError(t, err)
	assert.Equal(t, models.RecommendApprove, result.Recommendation)
	assert.GreaterOrEqual(t, result.TotalScore, 75.0)
	assert.LessOrEqual(t, result.TotalScore, 100.0)
}

func TestOrchestrator_EvaluateWithProfile(t *testing.T) {
	t.Run("should hand the given profile to the AI review", func(t *testing.T) {
		f := newFixture(false)
		f.collector.On("Probe", mock.Anything, mock.Anything).Return(probed("abc"))
		f.collector.On("Complete", mock.Anything, mock.Anything, mock.Anything).Return(complete("abc"))
		live := vcs.ProfileFromInsights(candidate("acme/rocket"), models.InsightsBundle{
			Readme: models.Measured(models.ReadmeInfo{Present: true, Excerpt: "# Rocket, fetched live"}),
		})
		f.blender.On("MaybeBlend", mock.Anything, mock.Anything, live).
			Return(func(_ context.Context, r models.AnalysisResult, _ vcs.RepoProfile) models.AnalysisResult { return r })

		_, err := f.orch.EvaluateWithProfile(context.Background(), candidate("acme/rocket"), live)

		require.NoError(t, err)
		f.blender.AssertCalled(t, "MaybeBlend", mock.Anything, mock.Anything, live)
	})

	t.Run("should derive the profile from the metrics without one", func(t *testing.T) {
		f := newFixture(false)
		f.collector.On("Probe", mock.Anything, mock.Anything).Return(probed("abc"))
		f.collector.On("Complete", mock.Anything, mock.Anything, mock.Anything).Return(complete("abc"))
		f.blender.On("MaybeBlend", mock.Anything, mock.Anything, mock.MatchedBy(func(p vcs.RepoProfile) bool {
			return p.FullName() == "acme/rocket" && p.ReadmeExcerpt() == "# Rocket"
		})).Return(func(_ context.Context, r models.AnalysisResult, _ vcs.RepoProfile) models.AnalysisResult { return r })

		_, err := f.orch.EvaluateWithProfile(context.Background(), candidate("acme/rocket"), nil)

		require.NoError(t, err)
		f.blender.AssertNumberOfCalls(t, "MaybeBlend", 1)
	})
}

func TestWriteExport(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "results.json")
	batch := models.BatchResult{
		Approvals: []models.AnalysisResult{{Repo: "a/1", Recommendation: models.RecommendApprove, RedFlags: []string{}}},
		Reviews:   []models.AnalysisResult{{Repo: "b/2", Recommendation: models.RecommendReview, RedFlags: []string{}}},
	}

	require.NoError(t, WriteExport(path, batch))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var got []map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &got))
	require.Len(t, got, 2)
	assert.Equal(t, "a/1", got[0]["repo"])
	assert.Equal(t, "REVIEW", got[1]["recommendation"])
	assert.Contains(t, got[0], "red_flags")
}
