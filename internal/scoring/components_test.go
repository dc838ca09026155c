package scoring

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/thomas-vilte/gemscout/internal/models"
)

func TestCommitActivity(t *testing.T) {
	t.Run("should score zero below ten sampled commits", func(t *testing.T) {
		sample := models.Measured(commits(9, 3, "Implement exponential retry policy for the upload client", 1))
		assert.Zero(t, CommitActivity(sample, fixedNow))
	})

	t.Run("should score zero when the lookup failed", func(t *testing.T) {
		sample := models.Defaulted([]models.CommitSample{}, errors.New("timeout"))
		assert.Zero(t, CommitActivity(sample, fixedNow))
	})

	t.Run("should score zero when nothing is recent", func(t *testing.T) {
		sample := models.Measured(commits(20, 5, "Implement exponential retry policy for the upload client", 400))
		assert.Zero(t, CommitActivity(sample, fixedNow))
	})

	t.Run("should combine frequency, hygiene, messages and diversity", func(t *testing.T) {
		// 1/week -> 6, no low-signal -> 30, 38 chars -> 15.2, 5 authors -> 20
		sample := models.Measured(commits(26, 5, "Implement the retry policy for uploads", 3))
		assert.Equal(t, 71.2, CommitActivity(sample, fixedNow))
	})

	t.Run("should penalize low-signal messages", func(t *testing.T) {
		sample := append(
			commits(5, 1, "wip: testing things in the parser module now ok", 2),
			commits(5, 1, "Refactor the tokenizer into smaller reusable parts", 2)...,
		)
		score := CommitActivity(models.Measured(sample), fixedNow)
		// freq 10/26/5*30 = 2.31, hygiene 15, messages 48.5/50*20 = 19.4, one author 4
		assert.InDelta(t, 40.71, score, 0.001)
	})
}

func TestCodeQuality(t *testing.T) {
	t.Run("should award full points to a complete repository", func(t *testing.T) {
		assert.Equal(t, 100.0, CodeQuality(healthyCandidate(), healthyBundle()))
	})

	t.Run("should fall back to other CI configs", func(t *testing.T) {
		b := healthyBundle()
		b.Layout = models.Measured(models.RepoLayout{Entries: []models.Entry{{Name: ".travis.yml"}}})
		c := healthyCandidate()
		c.Language = ""
		// readme 25 + license 15 + ci 15
		assert.Equal(t, 55.0, CodeQuality(c, b))
	})

	t.Run("should count only measured metrics", func(t *testing.T) {
		b := healthyBundle()
		b.Readme = models.Defaulted(models.ReadmeInfo{}, errors.New("boom"))
		b.Layout = models.Defaulted(models.RepoLayout{}, errors.New("boom"))
		assert.Equal(t, 15.0, CodeQuality(healthyCandidate(), b))
	})

	t.Run("should scale README size", func(t *testing.T) {
		b := healthyBundle()
		b.Readme = models.Measured(models.ReadmeInfo{Present: true, SizeBytes: 1000})
		b.Layout = models.Measured(models.RepoLayout{})
		c := healthyCandidate()
		c.License = nil
		assert.Equal(t, 12.5, CodeQuality(c, b))
	})
}

func TestPackaging(t *testing.T) {
	layout := func(names ...string) models.RepoLayout {
		var l models.RepoLayout
		for _, n := range names {
			l.Entries = append(l.Entries, models.Entry{Name: n})
		}
		return l
	}

	tests := []struct {
		language string
		layout   models.RepoLayout
		want     float64
	}{
		{"Python", layout("pyproject.toml", "requirements.txt", "tox.ini"), 15},
		{"Python", layout("setup.py"), 5},
		{"TypeScript", layout("package.json", "tsconfig.json"), 10},
		{"JavaScript", layout("package.json", ".eslintrc.js", "tsconfig.json"), 15},
		{"Rust", layout("Cargo.toml", "Cargo.lock"), 15},
		{"Go", layout("go.mod"), 10},
		{"Java", layout(), 5},
		{"Haskell", layout("stack.yaml"), 0},
	}
	for _, tt := range tests {
		t.Run(tt.language, func(t *testing.T) {
			assert.Equal(t, tt.want, packaging(tt.language, tt.layout))
		})
	}
}

func TestDeveloperEngagement(t *testing.T) {
	t.Run("should award full points", func(t *testing.T) {
		assert.Equal(t, 100.0, DeveloperEngagement(healthyBundle()))
	})

	t.Run("should bucket the response time", func(t *testing.T) {
		tests := map[float64]float64{0.2: 25, 1: 20, 2.9: 20, 3: 15, 6.5: 15, 7: 10, 13.9: 10, 14: 0, 30: 0}
		for avg, want := range tests {
			assert.Equal(t, want, responseBucket(avg), "avg=%v", avg)
		}
	})

	t.Run("should skip issue points without closed issues", func(t *testing.T) {
		b := healthyBundle()
		b.Issues = models.Measured(models.IssueStats{AvgResponseDays: 0.1, HasResponseTime: true, ClosedRatio: 1})
		assert.Equal(t, 50.0, DeveloperEngagement(b))
	})

	t.Run("should ignore failed pull request lookups", func(t *testing.T) {
		b := healthyBundle()
		b.PullRequests = models.Defaulted(models.PullRequestStats{}, errors.New("boom"))
		assert.Equal(t, 50.0, DeveloperEngagement(b))
	})
}

func TestProjectMaturity(t *testing.T) {
	t.Run("should award full points", func(t *testing.T) {
		assert.Equal(t, 100.0, ProjectMaturity(healthyCandidate(), healthyBundle(), fixedNow))
	})

	t.Run("should give fewer points to v0 releases", func(t *testing.T) {
		b := healthyBundle()
		b.Releases = models.Measured(models.ReleaseStats{Count: 1, LatestMajor: 0, HasSemver: true, LatestDate: daysAgo(200)})
		b.Layout = models.Measured(models.RepoLayout{})
		assert.Equal(t, 40.0, ProjectMaturity(healthyCandidate(), b, fixedNow))
	})

	t.Run("should score age and recency bands", func(t *testing.T) {
		b := models.InsightsBundle{}
		c := healthyCandidate()
		c.CreatedAt = daysAgo(120)
		c.UpdatedAt = daysAgo(100)
		// age >90 -> 5, updated <180 -> 5
		assert.Equal(t, 10.0, ProjectMaturity(c, b, fixedNow))
	})

	t.Run("should ignore non semver tags", func(t *testing.T) {
		b := models.InsightsBundle{Releases: models.Measured(models.ReleaseStats{Count: 3, LatestMajor: -1, LatestDate: daysAgo(400)})}
		c := models.Candidate{}
		assert.Equal(t, 10.0, ProjectMaturity(c, b, fixedNow))
	})
}
