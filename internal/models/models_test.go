package models

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCandidate_UnmarshalLicense(t *testing.T) {
	t.Run("object form", func(t *testing.T) {
		var c Candidate
		err := json.Unmarshal([]byte(`{"full_name":"acme/rocket","license":{"key":"mit","name":"MIT License","spdx_id":"MIT"}}`), &c)
		require.NoError(t, err)
		assert.True(t, c.HasLicense())
		assert.Equal(t, "MIT", c.License.SPDXID)
	})

	t.Run("string form", func(t *testing.T) {
		var c Candidate
		err := json.Unmarshal([]byte(`{"full_name":"acme/rocket","license":"Apache-2.0"}`), &c)
		require.NoError(t, err)
		assert.True(t, c.HasLicense())
		assert.Equal(t, "Apache-2.0", c.License.Name)
	})

	t.Run("null license", func(t *testing.T) {
		var c Candidate
		err := json.Unmarshal([]byte(`{"full_name":"acme/rocket","license":null}`), &c)
		require.NoError(t, err)
		assert.False(t, c.HasLicense())
	})
}

func TestCandidate_OwnerAndName(t *testing.T) {
	c := Candidate{FullName: "acme/rocket"}
	assert.Equal(t, "acme", c.Owner())
	assert.Equal(t, "rocket", c.Name())

	bare := Candidate{FullName: "rocket"}
	assert.Equal(t, "rocket", bare.Name())
}

func TestMetric(t *testing.T) {
	ok := Measured(42)
	assert.True(t, ok.OK())
	assert.Equal(t, 42, ok.Value)

	failed := Defaulted(0, errors.New("rate limited"))
	assert.False(t, failed.OK())
	assert.Equal(t, "rate limited", failed.Reason)

	unknown := Defaulted(0, nil)
	assert.False(t, unknown.OK())

	var never Metric[ReadmeInfo]
	assert.False(t, never.OK())
	assert.Empty(t, never.Reason)

	empty := Measured(ReadmeInfo{})
	assert.True(t, empty.OK())
	assert.False(t, empty.Value.Present)
}

func TestInsightsBundle_Failures(t *testing.T) {
	b := InsightsBundle{
		Contributors: Measured(ContributorStats{Count: 3}),
		Releases:     Defaulted(ReleaseStats{}, errors.New("404")),
	}
	failures := b.Failures()
	assert.Contains(t, failures, "releases")
	assert.NotContains(t, failures, "contributors")
}

func TestRepoLayout(t *testing.T) {
	l := RepoLayout{Entries: []Entry{
		{Name: "src", Dir: true},
		{Name: "CONTRIBUTING.md"},
		{Name: "test_helpers.py"},
	}}
	assert.True(t, l.HasDir("src", "lib"))
	assert.False(t, l.HasDir("CONTRIBUTING.md"))
	assert.True(t, l.HasFile("contributing.md"))
	assert.True(t, l.AnyNameContains("test"))
}

func TestAnalysisResult_WithAIReviewDoesNotMutate(t *testing.T) {
	original := AnalysisResult{
		Repo:           "acme/rocket",
		TotalScore:     64.5,
		Recommendation: RecommendReview,
		Priority:       PriorityMedium,
		Scores:         &SubScores{CommitActivity: 70},
		RedFlags:       []string{},
	}

	blended := original.WithAIReview(80, RecommendApprove, PriorityHigh, AIReview{Architecture: 9, KeyStrengths: []string{"fast"}})
	blended.Scores.CommitActivity = 1

	assert.Equal(t, 64.5, original.TotalScore)
	assert.Nil(t, original.AIReview)
	assert.Equal(t, 70.0, original.Scores.CommitActivity)
	assert.Equal(t, RecommendApprove, blended.Recommendation)
	require.NotNil(t, blended.AIReview)
	assert.Equal(t, 9, blended.AIReview.Architecture)
}

func TestRound2AndClamp(t *testing.T) {
	assert.Equal(t, 64.5, Round2(64.499999))
	assert.Equal(t, 70.88, Round2(70.875))
	assert.Equal(t, 100.0, Clamp(140, 0, 100))
	assert.Equal(t, 0.0, Clamp(-3, 0, 100))
}

func TestBatchResult_Publishable(t *testing.T) {
	b := BatchResult{
		Approvals: []AnalysisResult{{Repo: "a/1"}},
		Reviews:   []AnalysisResult{{Repo: "b/2"}, {Repo: "c/3"}},
	}
	got := b.Publishable()
	require.Len(t, got, 3)
	assert.Equal(t, "a/1", got[0].Repo)
}
