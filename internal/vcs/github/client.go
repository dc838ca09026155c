package github

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/google/go-github/v80/github"
	"golang.org/x/oauth2"
	"golang.org/x/time/rate"

	domainErrors "github.com/thomas-vilte/gemscout/internal/errors"
	"github.com/thomas-vilte/gemscout/internal/models"
	"github.com/thomas-vilte/gemscout/internal/vcs"
)

var _ vcs.MetricsClient = (*GitHubClient)(nil)

type PullRequestsService interface {
	List(ctx context.Context, owner, repo string, opts *github.PullRequestListOptions) ([]*github.PullRequest, *github.Response, error)
}

type IssuesService interface {
	ListByRepo(ctx context.Context, owner, repo string, opts *github.IssueListByRepoOptions) ([]*github.Issue, *github.Response, error)
	ListComments(ctx context.Context, owner, repo string, number int, opts *github.IssueListCommentsOptions) ([]*github.IssueComment, *github.Response, error)
}

type RepositoriesService interface {
	Get(ctx context.Context, owner, repo string) (*github.Repository, *github.Response, error)
	ListCommits(ctx context.Context, owner, repo string, opts *github.CommitsListOptions) ([]*github.RepositoryCommit, *github.Response, error)
	ListContributors(ctx context.Context, owner, repo string, opts *github.ListContributorsOptions) ([]*github.Contributor, *github.Response, error)
	ListCommitActivity(ctx context.Context, owner, repo string) ([]*github.WeeklyCommitActivity, *github.Response, error)
	ListParticipation(ctx context.Context, owner, repo string) (*github.RepositoryParticipation, *github.Response, error)
	ListReleases(ctx context.Context, owner, repo string, opts *github.ListOptions) ([]*github.RepositoryRelease, *github.Response, error)
	GetCommunityHealthMetrics(ctx context.Context, owner, repo string) (*github.CommunityHealthMetrics, *github.Response, error)
	GetReadme(ctx context.Context, owner, repo string, opts *github.RepositoryContentGetOptions) (*github.RepositoryContent, *github.Response, error)
	GetContents(ctx context.Context, owner, repo, path string, opts *github.RepositoryContentGetOptions) (*github.RepositoryContent, []*github.RepositoryContent, *github.Response, error)
}

type SearchService interface {
	Repositories(ctx context.Context, query string, opts *github.SearchOptions) (*github.RepositoriesSearchResult, *github.Response, error)
}

type GitHubClient struct {
	prService     PullRequestsService
	issuesService IssuesService
	repoService   RepositoriesService
	searchService SearchService
	limiter       *rate.Limiter
	httpClient    *http.Client
}

const maxPerPage = 100

// NewGitHubClient builds a client authenticated with token (anonymous when
// empty). Requests are throttled to requestsPerSecond; zero disables throttling.
func NewGitHubClient(token string, requestsPerSecond float64) *GitHubClient {
	var httpClient *http.Client
	if token != "" {
		ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})
		httpClient = oauth2.NewClient(context.Background(), ts)
	}

	client := github.NewClient(httpClient)
	return &GitHubClient{
		prService:     client.PullRequests,
		issuesService: client.Issues,
		repoService:   client.Repositories,
		searchService: client.Search,
		limiter:       newLimiter(requestsPerSecond),
		httpClient:    httpClient,
	}
}

func NewGitHubClientWithServices(
	prService PullRequestsService,
	issuesService IssuesService,
	repoService RepositoriesService,
	searchService SearchService,
) *GitHubClient {
	return &GitHubClient{
		prService:     prService,
		issuesService: issuesService,
		repoService:   repoService,
		searchService: searchService,
		limiter:       newLimiter(0),
		httpClient:    &http.Client{},
	}
}

func newLimiter(rps float64) *rate.Limiter {
	if rps <= 0 {
		return rate.NewLimiter(rate.Inf, 1)
	}
	burst := int(rps)
	if burst < 1 {
		burst = 1
	}
	return rate.NewLimiter(rate.Limit(rps), burst)
}

func (ghc *GitHubClient) wait(ctx context.Context) error {
	if err := ghc.limiter.Wait(ctx); err != nil {
		return domainErrors.ErrGitHubRateLimit.WithError(err).WithContext("operation", "local throttle")
	}
	return nil
}

func (ghc *GitHubClient) Repository(ctx context.Context, owner, repo string) (vcs.RepoSnapshot, error) {
	if err := ghc.wait(ctx); err != nil {
		return vcs.RepoSnapshot{}, err
	}
	r, resp, err := ghc.repoService.Get(ctx, owner, repo)
	if err != nil {
		err = mapError(err, resp, "get repository", owner, repo)
		if errors.Is(err, domainErrors.ErrResourceNotFound) {
			return vcs.RepoSnapshot{}, domainErrors.ErrRepositoryNotFound.WithError(err).WithContext("repo", owner+"/"+repo)
		}
		return vcs.RepoSnapshot{}, err
	}
	return vcs.RepoSnapshot{
		Candidate:  CandidateFromRepository(r),
		OpenIssues: r.GetOpenIssuesCount(),
	}, nil
}

func (ghc *GitHubClient) HeadCommit(ctx context.Context, owner, repo string) (string, error) {
	if err := ghc.wait(ctx); err != nil {
		return "", err
	}
	commits, resp, err := ghc.repoService.ListCommits(ctx, owner, repo, &github.CommitsListOptions{
		ListOptions: github.ListOptions{PerPage: 1},
	})
	if err != nil {
		return "", mapError(err, resp, "get head commit", owner, repo)
	}
	if len(commits) == 0 {
		return "", nil
	}
	return commits[0].GetSHA(), nil
}

func (ghc *GitHubClient) Contributors(ctx context.Context, owner, repo string, limit int) ([]string, error) {
	if err := ghc.wait(ctx); err != nil {
		return nil, err
	}
	contributors, resp, err := ghc.repoService.ListContributors(ctx, owner, repo, &github.ListContributorsOptions{
		ListOptions: github.ListOptions{PerPage: perPage(limit)},
	})
	if err != nil {
		return nil, mapError(err, resp, "list contributors", owner, repo)
	}

	logins := make([]string, 0, len(contributors))
	for _, c := range contributors {
		if c.GetLogin() == "" {
			continue
		}
		logins = append(logins, c.GetLogin())
		if len(logins) == limit {
			break
		}
	}
	return logins, nil
}

func (ghc *GitHubClient) WeeklyCommitCounts(ctx context.Context, owner, repo string) ([]int, error) {
	if err := ghc.wait(ctx); err != nil {
		return nil, err
	}
	weeks, resp, err := ghc.repoService.ListCommitActivity(ctx, owner, repo)
	if err != nil {
		return nil, mapError(err, resp, "list commit activity", owner, repo)
	}

	totals := make([]int, 0, len(weeks))
	for _, w := range weeks {
		totals = append(totals, w.GetTotal())
	}
	return totals, nil
}

func (ghc *GitHubClient) RecentCommits(ctx context.Context, owner, repo string, since time.Time, limit int) ([]models.CommitSample, error) {
	if err := ghc.wait(ctx); err != nil {
		return nil, err
	}
	commits, resp, err := ghc.repoService.ListCommits(ctx, owner, repo, &github.CommitsListOptions{
		Since:       since,
		ListOptions: github.ListOptions{PerPage: perPage(limit)},
	})
	if err != nil {
		return nil, mapError(err, resp, "list commits", owner, repo)
	}

	samples := make([]models.CommitSample, 0, len(commits))
	for _, c := range commits {
		author := c.GetAuthor().GetLogin()
		if author == "" {
			author = c.GetCommit().GetAuthor().GetName()
		}
		samples = append(samples, models.CommitSample{
			Message: c.GetCommit().GetMessage(),
			Author:  author,
			Date:    c.GetCommit().GetAuthor().GetDate().Time,
		})
		if len(samples) == limit {
			break
		}
	}
	return samples, nil
}

func (ghc *GitHubClient) Issues(ctx context.Context, owner, repo, state string, limit int) ([]vcs.IssueSample, error) {
	if err := ghc.wait(ctx); err != nil {
		return nil, err
	}
	issues, resp, err := ghc.issuesService.ListByRepo(ctx, owner, repo, &github.IssueListByRepoOptions{
		State:     state,
		Sort:      "created",
		Direction: "desc",
		// pull requests share the endpoint, so over-fetch before filtering them out
		ListOptions: github.ListOptions{PerPage: maxPerPage},
	})
	if err != nil {
		return nil, mapError(err, resp, "list issues", owner, repo)
	}

	samples := make([]vcs.IssueSample, 0, limit)
	for _, issue := range issues {
		if issue.IsPullRequest() {
			continue
		}
		samples = append(samples, vcs.IssueSample{
			Number:    issue.GetNumber(),
			Comments:  issue.GetComments(),
			CreatedAt: issue.GetCreatedAt().Time,
			ClosedAt:  issue.GetClosedAt().Time,
		})
		if len(samples) == limit {
			break
		}
	}
	return samples, nil
}

func (ghc *GitHubClient) FirstCommentAt(ctx context.Context, owner, repo string, number int) (time.Time, error) {
	if err := ghc.wait(ctx); err != nil {
		return time.Time{}, err
	}
	comments, resp, err := ghc.issuesService.ListComments(ctx, owner, repo, number, &github.IssueListCommentsOptions{
		Sort:        github.Ptr("created"),
		Direction:   github.Ptr("asc"),
		ListOptions: github.ListOptions{PerPage: 1},
	})
	if err != nil {
		return time.Time{}, mapError(err, resp, "list issue comments", owner, repo)
	}
	if len(comments) == 0 {
		return time.Time{}, nil
	}
	return comments[0].GetCreatedAt().Time, nil
}

func (ghc *GitHubClient) PullRequests(ctx context.Context, owner, repo string, limit int) ([]vcs.PullSample, error) {
	if err := ghc.wait(ctx); err != nil {
		return nil, err
	}
	prs, resp, err := ghc.prService.List(ctx, owner, repo, &github.PullRequestListOptions{
		State:       "all",
		ListOptions: github.ListOptions{PerPage: perPage(limit)},
	})
	if err != nil {
		return nil, mapError(err, resp, "list pull requests", owner, repo)
	}

	samples := make([]vcs.PullSample, 0, len(prs))
	for _, pr := range prs {
		samples = append(samples, vcs.PullSample{
			Number:   pr.GetNumber(),
			Author:   pr.GetUser().GetLogin(),
			Merged:   pr.MergedAt != nil,
			MergedAt: pr.GetMergedAt().Time,
		})
		if len(samples) == limit {
			break
		}
	}
	return samples, nil
}

func (ghc *GitHubClient) Releases(ctx context.Context, owner, repo string, limit int) ([]vcs.ReleaseSample, error) {
	if err := ghc.wait(ctx); err != nil {
		return nil, err
	}
	releases, resp, err := ghc.repoService.ListReleases(ctx, owner, repo, &github.ListOptions{PerPage: perPage(limit)})
	if err != nil {
		return nil, mapError(err, resp, "list releases", owner, repo)
	}

	samples := make([]vcs.ReleaseSample, 0, len(releases))
	for _, r := range releases {
		if r.GetDraft() {
			continue
		}
		published := r.GetPublishedAt().Time
		if published.IsZero() {
			published = r.GetCreatedAt().Time
		}
		samples = append(samples, vcs.ReleaseSample{Tag: r.GetTagName(), PublishedAt: published})
		if len(samples) == limit {
			break
		}
	}
	return samples, nil
}

func (ghc *GitHubClient) CommunityProfile(ctx context.Context, owner, repo string) (vcs.CommunityProfile, error) {
	if err := ghc.wait(ctx); err != nil {
		return vcs.CommunityProfile{}, err
	}
	metrics, resp, err := ghc.repoService.GetCommunityHealthMetrics(ctx, owner, repo)
	if err != nil {
		return vcs.CommunityProfile{}, mapError(err, resp, "get community profile", owner, repo)
	}

	files := metrics.GetFiles()
	return vcs.CommunityProfile{
		HealthPercentage: metrics.GetHealthPercentage(),
		HasCodeOfConduct: files.GetCodeOfConduct() != nil,
		HasContributing:  files.GetContributing() != nil,
		HasLicense:       files.GetLicense() != nil,
		HasReadme:        files.GetReadme() != nil,
	}, nil
}

func (ghc *GitHubClient) Participation(ctx context.Context, owner, repo string) (vcs.ParticipationStats, error) {
	if err := ghc.wait(ctx); err != nil {
		return vcs.ParticipationStats{}, err
	}
	p, resp, err := ghc.repoService.ListParticipation(ctx, owner, repo)
	if err != nil {
		return vcs.ParticipationStats{}, mapError(err, resp, "list participation", owner, repo)
	}
	if p == nil {
		return vcs.ParticipationStats{}, nil
	}
	return vcs.ParticipationStats{All: p.All, Owner: p.Owner}, nil
}

func (ghc *GitHubClient) Readme(ctx context.Context, owner, repo string) (string, error) {
	if err := ghc.wait(ctx); err != nil {
		return "", err
	}
	file, resp, err := ghc.repoService.GetReadme(ctx, owner, repo, nil)
	if err != nil {
		return "", mapError(err, resp, "get readme", owner, repo)
	}
	content, err := file.GetContent()
	if err != nil {
		return "", domainErrors.ErrTransientMetric.WithError(err).WithContext("operation", "decode readme")
	}
	return content, nil
}

func (ghc *GitHubClient) ListDir(ctx context.Context, owner, repo, path string) ([]models.Entry, error) {
	if err := ghc.wait(ctx); err != nil {
		return nil, err
	}
	_, dir, resp, err := ghc.repoService.GetContents(ctx, owner, repo, path, nil)
	if err != nil {
		return nil, mapError(err, resp, "list contents", owner, repo)
	}

	entries := make([]models.Entry, 0, len(dir))
	for _, item := range dir {
		entries = append(entries, models.Entry{Name: item.GetName(), Dir: item.GetType() == "dir"})
	}
	return entries, nil
}

// CandidateFromRepository converts the API representation into a candidate.
func CandidateFromRepository(r *github.Repository) models.Candidate {
	c := models.Candidate{
		FullName:      r.GetFullName(),
		Description:   r.GetDescription(),
		Stars:         r.GetStargazersCount(),
		Forks:         r.GetForksCount(),
		OpenIssues:    r.GetOpenIssuesCount(),
		Watchers:      r.GetWatchersCount(),
		Language:      r.GetLanguage(),
		Topics:        append([]string(nil), r.Topics...),
		HasWiki:       r.GetHasWiki(),
		HasPages:      r.GetHasPages(),
		SizeKB:        r.GetSize(),
		Archived:      r.GetArchived(),
		DefaultBranch: r.GetDefaultBranch(),
		CreatedAt:     r.GetCreatedAt().Time,
		UpdatedAt:     r.GetUpdatedAt().Time,
		PushedAt:      r.GetPushedAt().Time,
	}
	if l := r.GetLicense(); l != nil {
		c.License = &models.License{Key: l.GetKey(), Name: l.GetName(), SPDXID: l.GetSPDXID()}
	}
	return c
}

func perPage(limit int) int {
	if limit <= 0 || limit > maxPerPage {
		return maxPerPage
	}
	return limit
}

// mapError translates go-github failures into the domain error taxonomy.
func mapError(err error, resp *github.Response, operation, owner, repo string) error {
	full := fmt.Sprintf("%s/%s", owner, repo)

	var rateErr *github.RateLimitError
	var abuseErr *github.AbuseRateLimitError
	var acceptedErr *github.AcceptedError
	switch {
	case errors.As(err, &rateErr):
		return domainErrors.ErrGitHubRateLimit.WithError(err).
			WithContext("operation", operation).
			WithContext("repo", full).
			WithContext("reset", rateErr.Rate.Reset.Time)
	case errors.As(err, &abuseErr):
		return domainErrors.ErrGitHubRateLimit.WithError(err).
			WithContext("operation", operation).
			WithContext("repo", full).
			WithContext("retry_after", abuseErr.GetRetryAfter())
	case errors.As(err, &acceptedErr):
		return domainErrors.ErrStatsComputing.WithError(err).
			WithContext("operation", operation).
			WithContext("repo", full)
	}

	if resp != nil {
		switch resp.StatusCode {
		case http.StatusTooManyRequests:
			return domainErrors.ErrGitHubRateLimit.WithError(err).
				WithContext("retry_after", resp.Header.Get("Retry-After")).
				WithContext("operation", operation).
				WithContext("repo", full)
		case http.StatusUnauthorized:
			return domainErrors.ErrGitHubTokenInvalid.WithError(err).
				WithContext("operation", operation)
		case http.StatusNotFound:
			return domainErrors.ErrResourceNotFound.WithError(err).
				WithContext("operation", operation).
				WithContext("repo", full)
		case http.StatusAccepted:
			return domainErrors.ErrStatsComputing.WithError(err).
				WithContext("operation", operation).
				WithContext("repo", full)
		}
	}

	return domainErrors.ErrTransientMetric.WithError(err).
		WithContext("operation", operation).
		WithContext("repo", full)
}
