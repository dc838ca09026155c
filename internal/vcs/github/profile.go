package github

import (
	"context"

	"github.com/thomas-vilte/gemscout/internal/logger"
	"github.com/thomas-vilte/gemscout/internal/models"
	"github.com/thomas-vilte/gemscout/internal/vcs"
)

var _ vcs.RepoProfile = (*LiveProfile)(nil)

const excerptLimit = 4000

// LiveProfile is a RepoProfile fetched straight from the API, used when a
// repository is analyzed without a prior candidate record.
type LiveProfile struct {
	candidate models.Candidate
	readme    string
	commits   []string
}

// FetchProfile loads the repository, its README and a sample of commit
// messages. Only the repository lookup is mandatory.
func (ghc *GitHubClient) FetchProfile(ctx context.Context, owner, repo string) (*LiveProfile, error) {
	snapshot, err := ghc.Repository(ctx, owner, repo)
	if err != nil {
		return nil, err
	}

	p := &LiveProfile{candidate: snapshot.Candidate}

	readme, err := ghc.Readme(ctx, owner, repo)
	if err != nil {
		logger.Debug(ctx, "readme unavailable for profile", "repo", snapshot.Candidate.FullName, "error", err)
	} else {
		p.readme = vcs.Excerpt(readme, excerptLimit)
	}

	commits, err := ghc.RecentCommits(ctx, owner, repo, snapshot.Candidate.PushedAt.AddDate(0, -6, 0), 20)
	if err != nil {
		logger.Debug(ctx, "commits unavailable for profile", "repo", snapshot.Candidate.FullName, "error", err)
	}
	for _, c := range commits {
		p.commits = append(p.commits, c.Message)
	}

	return p, nil
}

// Candidate returns the repository metadata behind the profile.
func (p *LiveProfile) Candidate() models.Candidate { return p.candidate }

func (p *LiveProfile) FullName() string         { return p.candidate.FullName }
func (p *LiveProfile) Description() string      { return p.candidate.Description }
func (p *LiveProfile) Language() string         { return p.candidate.Language }
func (p *LiveProfile) Stars() int               { return p.candidate.Stars }
func (p *LiveProfile) Forks() int               { return p.candidate.Forks }
func (p *LiveProfile) Topics() []string         { return p.candidate.Topics }
func (p *LiveProfile) HasLicense() bool         { return p.candidate.HasLicense() }
func (p *LiveProfile) HasWiki() bool            { return p.candidate.HasWiki }
func (p *LiveProfile) ReadmeExcerpt() string    { return p.readme }
func (p *LiveProfile) CommitMessages() []string { return p.commits }
