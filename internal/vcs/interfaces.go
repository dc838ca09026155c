package vcs

import (
	"context"
	"time"

	"github.com/thomas-vilte/gemscout/internal/models"
)

// MetricsClient defines the read-only lookups used to build an insights bundle.
// Every method is independent so a failure in one never prevents the others.
type MetricsClient interface {
	// Repository gets the repository metadata as a candidate plus its open issue count.
	Repository(ctx context.Context, owner, repo string) (RepoSnapshot, error)
	// HeadCommit gets the SHA of the latest commit on the default branch.
	HeadCommit(ctx context.Context, owner, repo string) (string, error)
	// Contributors lists contributor logins, most active first.
	Contributors(ctx context.Context, owner, repo string, limit int) ([]string, error)
	// WeeklyCommitCounts returns the commit totals of the last 52 weeks, oldest first.
	WeeklyCommitCounts(ctx context.Context, owner, repo string) ([]int, error)
	// RecentCommits lists commits made after since, newest first.
	RecentCommits(ctx context.Context, owner, repo string, since time.Time, limit int) ([]models.CommitSample, error)
	// Issues lists issues (pull requests excluded) in the given state, newest first.
	Issues(ctx context.Context, owner, repo, state string, limit int) ([]IssueSample, error)
	// FirstCommentAt gets the creation time of the first comment of an issue.
	FirstCommentAt(ctx context.Context, owner, repo string, number int) (time.Time, error)
	// PullRequests lists pull requests in any state, newest first.
	PullRequests(ctx context.Context, owner, repo string, limit int) ([]PullSample, error)
	// Releases lists published releases, newest first.
	Releases(ctx context.Context, owner, repo string, limit int) ([]ReleaseSample, error)
	// CommunityProfile gets the community health metrics.
	CommunityProfile(ctx context.Context, owner, repo string) (CommunityProfile, error)
	// Participation gets the weekly commit counts of everyone and of the owner.
	Participation(ctx context.Context, owner, repo string) (ParticipationStats, error)
	// Readme gets the decoded README content.
	Readme(ctx context.Context, owner, repo string) (string, error)
	// ListDir lists the entries of a directory; an empty path is the repository root.
	ListDir(ctx context.Context, owner, repo, path string) ([]models.Entry, error)
}

// RepoProfile is the subset of repository facts handed to an AI reviewer.
type RepoProfile interface {
	FullName() string
	Description() string
	Language() string
	Stars() int
	Forks() int
	Topics() []string
	HasLicense() bool
	HasWiki() bool
	// ReadmeExcerpt is the leading part of the README, empty when unknown.
	ReadmeExcerpt() string
	// CommitMessages is a sample of recent commit messages.
	CommitMessages() []string
}

type RepoSnapshot struct {
	Candidate  models.Candidate
	OpenIssues int
}

type IssueSample struct {
	Number    int
	Comments  int
	CreatedAt time.Time
	ClosedAt  time.Time
}

type PullSample struct {
	Number   int
	Author   string
	Merged   bool
	MergedAt time.Time
}

type ReleaseSample struct {
	Tag         string
	PublishedAt time.Time
}

type CommunityProfile struct {
	HealthPercentage int
	HasCodeOfConduct bool
	HasContributing  bool
	HasLicense       bool
	HasReadme        bool
}

type ParticipationStats struct {
	All   []int
	Owner []int
}
