package github

import (
	"context"

	"github.com/google/go-github/v80/github"
	"github.com/stretchr/testify/mock"
)

func response(args mock.Arguments, i int) *github.Response {
	if args.Get(i) == nil {
		return nil
	}
	return args.Get(i).(*github.Response)
}

type MockPRService struct {
	mock.Mock
}

func (m *MockPRService) List(ctx context.Context, owner, repo string, opts *github.PullRequestListOptions) ([]*github.PullRequest, *github.Response, error) {
	args := m.Called(ctx, owner, repo, opts)
	if args.Get(0) == nil {
		return nil, response(args, 1), args.Error(2)
	}
	return args.Get(0).([]*github.PullRequest), response(args, 1), args.Error(2)
}

type MockIssuesService struct {
	mock.Mock
}

func (m *MockIssuesService) ListByRepo(ctx context.Context, owner, repo string, opts *github.IssueListByRepoOptions) ([]*github.Issue, *github.Response, error) {
	args := m.Called(ctx, owner, repo, opts)
	if args.Get(0) == nil {
		return nil, response(args, 1), args.Error(2)
	}
	return args.Get(0).([]*github.Issue), response(args, 1), args.Error(2)
}

func (m *MockIssuesService) ListComments(ctx context.Context, owner, repo string, number int, opts *github.IssueListCommentsOptions) ([]*github.IssueComment, *github.Response, error) {
	args := m.Called(ctx, owner, repo, number, opts)
	if args.Get(0) == nil {
		return nil, response(args, 1), args.Error(2)
	}
	return args.Get(0).([]*github.IssueComment), response(args, 1), args.Error(2)
}

type MockRepoService struct {
	mock.Mock
}

func (m *MockRepoService) Get(ctx context.Context, owner, repo string) (*github.Repository, *github.Response, error) {
	args := m.Called(ctx, owner, repo)
	if args.Get(0) == nil {
		return nil, response(args, 1), args.Error(2)
	}
	return args.Get(0).(*github.Repository), response(args, 1), args.Error(2)
}

func (m *MockRepoService) ListCommits(ctx context.Context, owner, repo string, opts *github.CommitsListOptions) ([]*github.RepositoryCommit, *github.Response, error) {
	args := m.Called(ctx, owner, repo, opts)
	if args.Get(0) == nil {
		return nil, response(args, 1), args.Error(2)
	}
	return args.Get(0).([]*github.RepositoryCommit), response(args, 1), args.Error(2)
}

func (m *MockRepoService) ListContributors(ctx context.Context, owner, repo string, opts *github.ListContributorsOptions) ([]*github.Contributor, *github.Response, error) {
	args := m.Called(ctx, owner, repo, opts)
	if args.Get(0) == nil {
		return nil, response(args, 1), args.Error(2)
	}
	return args.Get(0).([]*github.Contributor), response(args, 1), args.Error(2)
}

func (m *MockRepoService) ListCommitActivity(ctx context.Context, owner, repo string) ([]*github.WeeklyCommitActivity, *github.Response, error) {
	args := m.Called(ctx, owner, repo)
	if args.Get(0) == nil {
		return nil, response(args, 1), args.Error(2)
	}
	return args.Get(0).([]*github.WeeklyCommitActivity), response(args, 1), args.Error(2)
}

func (m *MockRepoService) ListParticipation(ctx context.Context, owner, repo string) (*github.RepositoryParticipation, *github.Response, error) {
	args := m.Called(ctx, owner, repo)
	if args.Get(0) == nil {
		return nil, response(args, 1), args.Error(2)
	}
	return args.Get(0).(*github.RepositoryParticipation), response(args, 1), args.Error(2)
}

func (m *MockRepoService) ListReleases(ctx context.Context, owner, repo string, opts *github.ListOptions) ([]*github.RepositoryRelease, *github.Response, error) {
	args := m.Called(ctx, owner, repo, opts)
	if args.Get(0) == nil {
		return nil, response(args, 1), args.Error(2)
	}
	return args.Get(0).([]*github.RepositoryRelease), response(args, 1), args.Error(2)
}

func (m *MockRepoService) GetCommunityHealthMetrics(ctx context.Context, owner, repo string) (*github.CommunityHealthMetrics, *github.Response, error) {
	args := m.Called(ctx, owner, repo)
	if args.Get(0) == nil {
		return nil, response(args, 1), args.Error(2)
	}
	return args.Get(0).(*github.CommunityHealthMetrics), response(args, 1), args.Error(2)
}

func (m *MockRepoService) GetReadme(ctx context.Context, owner, repo string, opts *github.RepositoryContentGetOptions) (*github.RepositoryContent, *github.Response, error) {
	args := m.Called(ctx, owner, repo, opts)
	if args.Get(0) == nil {
		return nil, response(args, 1), args.Error(2)
	}
	return args.Get(0).(*github.RepositoryContent), response(args, 1), args.Error(2)
}

func (m *MockRepoService) GetContents(ctx context.Context, owner, repo, path string, opts *github.RepositoryContentGetOptions) (*github.RepositoryContent, []*github.RepositoryContent, *github.Response, error) {
	args := m.Called(ctx, owner, repo, path, opts)
	var file *github.RepositoryContent
	if args.Get(0) != nil {
		file = args.Get(0).(*github.RepositoryContent)
	}
	var dir []*github.RepositoryContent
	if args.Get(1) != nil {
		dir = args.Get(1).([]*github.RepositoryContent)
	}
	return file, dir, response(args, 2), args.Error(3)
}

type MockSearchService struct {
	mock.Mock
}

func (m *MockSearchService) Repositories(ctx context.Context, query string, opts *github.SearchOptions) (*github.RepositoriesSearchResult, *github.Response, error) {
	args := m.Called(ctx, query, opts)
	if args.Get(0) == nil {
		return nil, response(args, 1), args.Error(2)
	}
	return args.Get(0).(*github.RepositoriesSearchResult), response(args, 1), args.Error(2)
}
