package ai

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/thomas-vilte/gemscout/internal/cache"
	"github.com/thomas-vilte/gemscout/internal/config"
	"github.com/thomas-vilte/gemscout/internal/models"
	"github.com/thomas-vilte/gemscout/internal/scoring"
)

const perfectAnswer = `{"architecture": 10, "documentation": 10, "testing": 10, "practices": 10, "innovation": 10,
	"key_strengths": ["tiny"], "improvements": [], "assessment": "Excellent."}`

func heuristicResult(total float64) models.AnalysisResult {
	rec, prio := scoring.Recommend(total, config.DefaultPolicy().Thresholds)
	return models.AnalysisResult{
		Repo:           "acme/rocket",
		TotalScore:     total,
		HeuristicScore: total,
		Recommendation: rec,
		Priority:       prio,
		Scores:         &models.SubScores{CommitActivity: 70, CodeQuality: 60, DeveloperEngagement: 50, ProjectMaturity: 80},
		RedFlags:       []string{},
	}
}

func newTestBlender(reviewer Reviewer, keys []string, opts ...Option) *Blender {
	opts = append([]Option{WithRetry(3, time.Millisecond)}, opts...)
	return NewBlender(reviewer, NewKeyPool(keys), config.DefaultPolicy(), opts...)
}

func TestBlend(t *testing.T) {
	t.Run("should blend 64.5 with quality 90 into a REVIEW 70.88", func(t *testing.T) {
		policy := config.DefaultPolicy()

		total := Blend(64.5, 90, policy.Blend)
		rec, prio := scoring.Recommend(total, policy.Thresholds)

		assert.Equal(t, 70.88, total)
		assert.Equal(t, models.RecommendReview, rec)
		assert.Equal(t, models.PriorityMedium, prio)
	})

	t.Run("should stay within bounds", func(t *testing.T) {
		w := config.DefaultPolicy().Blend
		assert.Equal(t, 100.0, Blend(100, 100, w))
		assert.Equal(t, 0.0, Blend(0, 0, w))
	})
}

func TestAIQuality(t *testing.T) {
	dims := config.DefaultPolicy().Blend.Dimension

	t.Run("should normalize 1..10 onto 0..100", func(t *testing.T) {
		top := models.AIReview{Architecture: 10, Documentation: 10, Testing: 10, Practices: 10, Innovation: 10}
		bottom := models.AIReview{Architecture: 1, Documentation: 1, Testing: 1, Practices: 1, Innovation: 1}

		assert.InDelta(t, 100, AIQuality(top, dims), 1e-9)
		assert.InDelta(t, 0, AIQuality(bottom, dims), 1e-9)
		assert.InDelta(t, 44.44, AIQuality(models.NeutralReview(), dims), 0.01)
	})

	t.Run("should weight architecture highest", func(t *testing.T) {
		r := models.AIReview{Architecture: 10, Documentation: 1, Testing: 1, Practices: 1, Innovation: 1}
		assert.InDelta(t, 25, AIQuality(r, dims), 1e-9)
	})
}

func TestBlender_MaybeBlend(t *testing.T) {
	ctx := context.Background()
	profile := testProfile("# Rocket", []string{"Add router"})

	t.Run("should fold the review into the verdict", func(t *testing.T) {
		reviewer := new(MockReviewer)
		reviewer.On("Generate", mock.Anything, "k1", mock.Anything).
			Return(perfectAnswer, &models.TokenUsage{TotalTokens: 300}, nil).Once()
		original := heuristicResult(64.5)

		got := newTestBlender(reviewer, []string{"k1"}).MaybeBlend(ctx, original, profile)

		require.NotNil(t, got.AIReview)
		assert.InDelta(t, 73.38, got.TotalScore, 0.011)
		assert.Equal(t, 64.5, got.HeuristicScore)
		assert.Equal(t, models.RecommendReview, got.Recommendation)
		assert.Equal(t, "mock", got.AIReview.Provider)
		assert.Equal(t, []string{"tiny"}, got.AIReview.KeyStrengths)
		assert.Nil(t, original.AIReview)
		assert.Equal(t, 64.5, original.TotalScore)
		reviewer.AssertExpectations(t)
	})

	t.Run("should skip below the AI gate", func(t *testing.T) {
		reviewer := new(MockReviewer)
		original := heuristicResult(49.9)

		got := newTestBlender(reviewer, []string{"k1"}).MaybeBlend(ctx, original, profile)

		assert.Equal(t, 49.9, got.TotalScore)
		assert.Nil(t, got.AIReview)
		reviewer.AssertNotCalled(t, "Generate", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("should review exactly at the gate", func(t *testing.T) {
		reviewer := new(MockReviewer)
		reviewer.On("Generate", mock.Anything, mock.Anything, mock.Anything).Return(perfectAnswer, nil, nil).Once()

		got := newTestBlender(reviewer, []string{"k1"}).MaybeBlend(ctx, heuristicResult(50), profile)

		assert.NotNil(t, got.AIReview)
		reviewer.AssertExpectations(t)
	})

	t.Run("should never review a rejected verdict", func(t *testing.T) {
		reviewer := new(MockReviewer)
		rejected := models.AnalysisResult{
			Repo:           "acme/rocket",
			TotalScore:     90,
			Recommendation: models.RecommendReject,
			RedFlags:       []string{"No license found"},
		}

		got := newTestBlender(reviewer, []string{"k1"}).MaybeBlend(ctx, rejected, profile)

		assert.Equal(t, rejected, got)
		reviewer.AssertNotCalled(t, "Generate", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("should substitute neutral scores for malformed answers", func(t *testing.T) {
		reviewer := new(MockReviewer)
		reviewer.On("Generate", mock.Anything, mock.Anything, mock.Anything).
			Return("Sorry, I can't rate this.", nil, nil).Once()

		got := newTestBlender(reviewer, []string{"k1"}).MaybeBlend(ctx, heuristicResult(64.5), profile)

		require.NotNil(t, got.AIReview)
		assert.True(t, got.AIReview.UsedDefaults)
		assert.Equal(t, 5, got.AIReview.Architecture)
		assert.Equal(t, 5, got.AIReview.Innovation)
		// 64.5*0.75 + 44.44*0.25
		assert.InDelta(t, 59.49, got.TotalScore, 0.011)
		assert.Equal(t, models.RecommendReject, got.Recommendation)
	})

	t.Run("should keep the verdict when every attempt fails", func(t *testing.T) {
		reviewer := new(MockReviewer)
		reviewer.On("Generate", mock.Anything, mock.Anything, mock.Anything).
			Return("", nil, errors.New("quota exceeded")).Times(3)
		original := heuristicResult(64.5)

		got := newTestBlender(reviewer, []string{"k1", "k2", "k3"}).MaybeBlend(ctx, original, profile)

		assert.Equal(t, original, got)
		reviewer.AssertNumberOfCalls(t, "Generate", 3)
		reviewer.AssertCalled(t, "Generate", mock.Anything, "k1", mock.Anything)
		reviewer.AssertCalled(t, "Generate", mock.Anything, "k2", mock.Anything)
		reviewer.AssertCalled(t, "Generate", mock.Anything, "k3", mock.Anything)
	})

	t.Run("should rotate to the next key after a failure", func(t *testing.T) {
		reviewer := new(MockReviewer)
		reviewer.On("Generate", mock.Anything, "k1", mock.Anything).Return("", nil, errors.New("invalid api key")).Once()
		reviewer.On("Generate", mock.Anything, "k2", mock.Anything).Return(perfectAnswer, nil, nil).Once()

		got := newTestBlender(reviewer, []string{"k1", "k2"}).MaybeBlend(ctx, heuristicResult(80), profile)

		require.NotNil(t, got.AIReview)
		reviewer.AssertExpectations(t)
	})

	t.Run("should treat an empty key pool as no review", func(t *testing.T) {
		reviewer := new(MockReviewer)
		original := heuristicResult(80)

		got := newTestBlender(reviewer, nil).MaybeBlend(ctx, original, profile)

		assert.Equal(t, original, got)
		reviewer.AssertNotCalled(t, "Generate", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("should be a no-op on a nil blender", func(t *testing.T) {
		var b *Blender
		original := heuristicResult(80)
		assert.Equal(t, original, b.MaybeBlend(ctx, original, profile))
	})
}

func TestBlender_Review(t *testing.T) {
	ctx := context.Background()

	t.Run("should serve repeated prompts from the cache", func(t *testing.T) {
		c, err := cache.Open(t.TempDir(), time.Hour)
		require.NoError(t, err)
		reviewer := new(MockReviewer)
		reviewer.On("Generate", mock.Anything, mock.Anything, "prompt").
			Return(perfectAnswer, &models.TokenUsage{TotalTokens: 120}, nil).Once()
		b := newTestBlender(reviewer, []string{"k1"}, WithCache(c))

		first, usage1, err := b.Review(ctx, "prompt")
		require.NoError(t, err)
		second, usage2, err := b.Review(ctx, "prompt")
		require.NoError(t, err)

		assert.Equal(t, first.Architecture, second.Architecture)
		assert.False(t, usage1.CacheHit)
		assert.Equal(t, "mock-model", usage1.Model)
		assert.True(t, usage2.CacheHit)
		reviewer.AssertNumberOfCalls(t, "Generate", 1)
	})

	t.Run("should not cache neutral reviews", func(t *testing.T) {
		c, err := cache.Open(t.TempDir(), time.Hour)
		require.NoError(t, err)
		reviewer := new(MockReviewer)
		reviewer.On("Generate", mock.Anything, mock.Anything, mock.Anything).Return("nope", nil, nil).Twice()
		b := newTestBlender(reviewer, []string{"k1"}, WithCache(c))

		_, _, err = b.Review(ctx, "prompt")
		require.NoError(t, err)
		_, usage, err := b.Review(ctx, "prompt")
		require.NoError(t, err)

		assert.False(t, usage.CacheHit)
		reviewer.AssertNumberOfCalls(t, "Generate", 2)
	})

	t.Run("should bound each call with the timeout", func(t *testing.T) {
		reviewer := new(MockReviewer)
		reviewer.On("Generate", mock.Anything, mock.Anything, mock.Anything).
			Run(func(args mock.Arguments) {
				callCtx := args.Get(0).(context.Context)
				_, ok := callCtx.Deadline()
				assert.True(t, ok)
			}).
			Return(perfectAnswer, nil, nil).Once()

		_, _, err := newTestBlender(reviewer, []string{"k1"}, WithTimeout(time.Second)).Review(ctx, "prompt")

		require.NoError(t, err)
	})
}
