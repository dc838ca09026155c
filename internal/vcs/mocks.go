package vcs

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/thomas-vilte/gemscout/internal/models"
)

type MockMetricsClient struct {
	mock.Mock
}

func (m *MockMetricsClient) Repository(ctx context.Context, owner, repo string) (RepoSnapshot, error) {
	args := m.Called(ctx, owner, repo)
	return args.Get(0).(RepoSnapshot), args.Error(1)
}

func (m *MockMetricsClient) HeadCommit(ctx context.Context, owner, repo string) (string, error) {
	args := m.Called(ctx, owner, repo)
	return args.String(0), args.Error(1)
}

func (m *MockMetricsClient) Contributors(ctx context.Context, owner, repo string, limit int) ([]string, error) {
	args := m.Called(ctx, owner, repo, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

func (m *MockMetricsClient) WeeklyCommitCounts(ctx context.Context, owner, repo string) ([]int, error) {
	args := m.Called(ctx, owner, repo)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]int), args.Error(1)
}

func (m *MockMetricsClient) RecentCommits(ctx context.Context, owner, repo string, since time.Time, limit int) ([]models.CommitSample, error) {
	args := m.Called(ctx, owner, repo, since, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.CommitSample), args.Error(1)
}

func (m *MockMetricsClient) Issues(ctx context.Context, owner, repo, state string, limit int) ([]IssueSample, error) {
	args := m.Called(ctx, owner, repo, state, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]IssueSample), args.Error(1)
}

func (m *MockMetricsClient) FirstCommentAt(ctx context.Context, owner, repo string, number int) (time.Time, error) {
	args := m.Called(ctx, owner, repo, number)
	return args.Get(0).(time.Time), args.Error(1)
}

func (m *MockMetricsClient) PullRequests(ctx context.Context, owner, repo string, limit int) ([]PullSample, error) {
	args := m.Called(ctx, owner, repo, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]PullSample), args.Error(1)
}

func (m *MockMetricsClient) Releases(ctx context.Context, owner, repo string, limit int) ([]ReleaseSample, error) {
	args := m.Called(ctx, owner, repo, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]ReleaseSample), args.Error(1)
}

func (m *MockMetricsClient) CommunityProfile(ctx context.Context, owner, repo string) (CommunityProfile, error) {
	args := m.Called(ctx, owner, repo)
	return args.Get(0).(CommunityProfile), args.Error(1)
}

func (m *MockMetricsClient) Participation(ctx context.Context, owner, repo string) (ParticipationStats, error) {
	args := m.Called(ctx, owner, repo)
	return args.Get(0).(ParticipationStats), args.Error(1)
}

func (m *MockMetricsClient) Readme(ctx context.Context, owner, repo string) (string, error) {
	args := m.Called(ctx, owner, repo)
	return args.String(0), args.Error(1)
}

func (m *MockMetricsClient) ListDir(ctx context.Context, owner, repo, path string) ([]models.Entry, error) {
	args := m.Called(ctx, owner, repo, path)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Entry), args.Error(1)
}
