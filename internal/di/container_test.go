package di

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	gh "github.com/google/go-github/v80/github"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/thomas-vilte/gemscout/internal/ai"
	"github.com/thomas-vilte/gemscout/internal/commands"
	"github.com/thomas-vilte/gemscout/internal/config"
	domainErrors "github.com/thomas-vilte/gemscout/internal/errors"
	"github.com/thomas-vilte/gemscout/internal/models"
	"github.com/thomas-vilte/gemscout/internal/vcs"
	"github.com/thomas-vilte/gemscout/internal/vcs/github"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	return &config.Config{
		Language:             config.LangEN,
		AIProvider:           config.AIGemini,
		AIModels:             map[config.AI]config.Model{},
		LookupTimeoutSeconds: 5,
		AITimeoutSeconds:     5,
		CacheTTLHours:        1,
		DataDir:              t.TempDir(),
		GitHubToken:          "ghp_test",
	}
}

func TestContainer_GitHub(t *testing.T) {
	t.Run("should require a token", func(t *testing.T) {
		cfg := testConfig(t)
		cfg.GitHubToken = ""

		_, err := NewContainer(cfg).GitHub()

		assert.ErrorIs(t, err, domainErrors.ErrTokenMissing)
	})

	t.Run("should reuse the client", func(t *testing.T) {
		c := NewContainer(testConfig(t))

		first, err := c.GitHub()
		require.NoError(t, err)
		second, err := c.GitHub()
		require.NoError(t, err)

		assert.Same(t, first, second)
	})
}

func TestContainer_Blender(t *testing.T) {
	policy := config.DefaultPolicy()

	t.Run("should fail without credentials", func(t *testing.T) {
		_, err := NewContainer(testConfig(t)).Blender("", policy)

		assert.ErrorIs(t, err, domainErrors.ErrCredentialExhausted)
	})

	t.Run("should build the configured provider", func(t *testing.T) {
		cfg := testConfig(t)
		cfg.AnthropicKeys = []string{"k1", "k2"}

		blender, err := NewContainer(cfg).Blender(config.AIAnthropic, policy)

		require.NoError(t, err)
		assert.NotNil(t, blender)
	})

	t.Run("should use registered reviewers", func(t *testing.T) {
		cfg := testConfig(t)
		cfg.GeminiKeys = []string{"k1"}
		c := &Container{config: cfg, reviewers: map[config.AI]ReviewerFactory{}}
		var built config.Model
		require.NoError(t, c.RegisterReviewer(config.AIGemini, func(m config.Model) ai.Reviewer {
			built = m
			return new(ai.MockReviewer)
		}))

		_, err := c.Blender("", policy)

		require.NoError(t, err)
		assert.Equal(t, config.DefaultModelForAI(config.AIGemini), built)
	})

	t.Run("should reject duplicate registrations", func(t *testing.T) {
		c := NewContainer(testConfig(t))

		err := c.RegisterReviewer(config.AIGemini, nil)

		assert.EqualError(t, err, "reviewer 'gemini' already registered")
	})

	t.Run("should reject unknown providers", func(t *testing.T) {
		_, err := NewContainer(testConfig(t)).Blender("openai", policy)

		assert.EqualError(t, err, "unsupported AI provider: openai")
	})
}

func TestContainer_Source(t *testing.T) {
	tests := []struct {
		name   string
		opts   commands.Options
		source string
	}{
		{name: "file", opts: commands.Options{Source: commands.SourceFile, Input: "c.json"}, source: "file"},
		{name: "search", opts: commands.Options{Source: commands.SourceSearch}, source: "search"},
		{name: "prefilter", opts: commands.Options{Source: commands.SourcePrefilter, PrefilterCmd: []string{"true"}}, source: "prefilter"},
		{name: "default", opts: commands.Options{}, source: "prefilter"},
	}
	for _, tt := range tests {
		t.Run("should build the "+tt.name+" source", func(t *testing.T) {
			src, err := NewContainer(testConfig(t)).Source(tt.opts)

			require.NoError(t, err)
			assert.Equal(t, tt.source, src.Name())
		})
	}

	t.Run("should reject unknown sources", func(t *testing.T) {
		_, err := NewContainer(testConfig(t)).Source(commands.Options{Source: "ftp"})

		assert.Error(t, err)
	})
}

func TestContainer_Runner(t *testing.T) {
	t.Run("should run an empty file source end to end", func(t *testing.T) {
		cfg := testConfig(t)
		input := filepath.Join(t.TempDir(), "candidates.json")
		require.NoError(t, os.WriteFile(input, []byte("[]"), 0644))
		c := NewContainer(cfg)
		t.Cleanup(func() { _ = c.Close() })

		runner, err := c.Runner(context.Background(), commands.Options{Source: commands.SourceFile, Input: input})
		require.NoError(t, err)
		batch := runner.Run(context.Background(), "small", 0)

		assert.Zero(t, batch.Scanned)
		assert.NotEmpty(t, batch.RunID)
		assert.FileExists(t, cfg.StorePath())
	})

	t.Run("should fail on an invalid policy file", func(t *testing.T) {
		policy := filepath.Join(t.TempDir(), "policy.yaml")
		require.NoError(t, os.WriteFile(policy, []byte("weights:\n  commit_activity: 0.9\n"), 0644))

		_, err := NewContainer(testConfig(t)).Runner(context.Background(), commands.Options{PolicyPath: policy})

		assert.Error(t, err)
	})
}

func TestContainer_History(t *testing.T) {
	c := NewContainer(testConfig(t))
	t.Cleanup(func() { _ = c.Close() })

	s, err := c.History(context.Background())
	require.NoError(t, err)
	records, err := s.History(context.Background(), "", 10)

	require.NoError(t, err)
	assert.Empty(t, records)
}

type evaluatorFunc func(ctx context.Context, candidate models.Candidate, profile vcs.RepoProfile) (models.AnalysisResult, error)

func (f evaluatorFunc) EvaluateWithProfile(ctx context.Context, candidate models.Candidate, profile vcs.RepoProfile) (models.AnalysisResult, error) {
	return f(ctx, candidate, profile)
}

func TestRepoEvaluator(t *testing.T) {
	newClient := func() (*github.GitHubClient, *github.MockRepoService) {
		repo := new(github.MockRepoService)
		return github.NewGitHubClientWithServices(new(github.MockPRService), new(github.MockIssuesService), repo, new(github.MockSearchService)), repo
	}

	t.Run("should evaluate the fetched candidate with its live profile", func(t *testing.T) {
		client, repo := newClient()
		repo.On("Get", mock.Anything, "acme", "rocket").Return(&gh.Repository{
			FullName: gh.Ptr("acme/rocket"),
			PushedAt: &gh.Timestamp{Time: time.Now()},
		}, nil, nil)
		repo.On("GetReadme", mock.Anything, "acme", "rocket", mock.Anything).Return(&gh.RepositoryContent{
			Content: gh.Ptr("# Rocket\n\nA fast launcher."),
		}, nil, nil)
		repo.On("ListCommits", mock.Anything, "acme", "rocket", mock.Anything).Return(nil, nil, errors.New("empty"))

		var seen models.Candidate
		var seenProfile vcs.RepoProfile
		e := &repoEvaluator{github: client, orchestrator: evaluatorFunc(func(_ context.Context, c models.Candidate, p vcs.RepoProfile) (models.AnalysisResult, error) {
			seen = c
			seenProfile = p
			return models.AnalysisResult{Repo: c.FullName, Recommendation: models.RecommendReview}, nil
		})}

		result, err := e.EvaluateRepo(context.Background(), "acme/rocket")

		require.NoError(t, err)
		assert.Equal(t, "acme/rocket", seen.FullName)
		assert.Equal(t, models.RecommendReview, result.Recommendation)
		require.NotNil(t, seenProfile)
		assert.Equal(t, "acme/rocket", seenProfile.FullName())
		assert.Contains(t, seenProfile.ReadmeExcerpt(), "A fast launcher.")
	})

	t.Run("should reject names without owner", func(t *testing.T) {
		client, _ := newClient()
		e := &repoEvaluator{github: client}

		_, err := e.EvaluateRepo(context.Background(), "rocket")

		assert.ErrorIs(t, err, domainErrors.ErrInvalidCandidate)
	})
}
