package pipeline

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/thomas-vilte/gemscout/internal/models"
	"github.com/thomas-vilte/gemscout/internal/vcs"
)

type MockCollector struct {
	mock.Mock
}

func (m *MockCollector) Probe(ctx context.Context, candidate models.Candidate) models.InsightsBundle {
	args := m.Called(ctx, candidate)
	return args.Get(0).(models.InsightsBundle)
}

func (m *MockCollector) Complete(ctx context.Context, candidate models.Candidate, partial models.InsightsBundle) models.InsightsBundle {
	args := m.Called(ctx, candidate, partial)
	return args.Get(0).(models.InsightsBundle)
}

type MockBlender struct {
	mock.Mock
}

func (m *MockBlender) MaybeBlend(ctx context.Context, result models.AnalysisResult, profile vcs.RepoProfile) models.AnalysisResult {
	args := m.Called(ctx, result, profile)
	if fn, ok := args.Get(0).(func(context.Context, models.AnalysisResult, vcs.RepoProfile) models.AnalysisResult); ok {
		return fn(ctx, result, profile)
	}
	return args.Get(0).(models.AnalysisResult)
}

type MockVerdictStore struct {
	mock.Mock
}

func (m *MockVerdictStore) Reusable(ctx context.Context, repo, sha, key string) (models.AnalysisResult, bool, error) {
	args := m.Called(ctx, repo, sha, key)
	return args.Get(0).(models.AnalysisResult), args.Bool(1), args.Error(2)
}

func (m *MockVerdictStore) Save(ctx context.Context, runID string, result models.AnalysisResult) (int64, error) {
	args := m.Called(ctx, runID, result)
	return args.Get(0).(int64), args.Error(1)
}
