package di

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/thomas-vilte/gemscout/internal/ai"
	"github.com/thomas-vilte/gemscout/internal/ai/anthropic"
	"github.com/thomas-vilte/gemscout/internal/ai/gemini"
	"github.com/thomas-vilte/gemscout/internal/cache"
	"github.com/thomas-vilte/gemscout/internal/commands"
	"github.com/thomas-vilte/gemscout/internal/commands/analyze"
	"github.com/thomas-vilte/gemscout/internal/commands/history"
	"github.com/thomas-vilte/gemscout/internal/commands/run"
	"github.com/thomas-vilte/gemscout/internal/config"
	domainErrors "github.com/thomas-vilte/gemscout/internal/errors"
	"github.com/thomas-vilte/gemscout/internal/insights"
	"github.com/thomas-vilte/gemscout/internal/logger"
	"github.com/thomas-vilte/gemscout/internal/models"
	"github.com/thomas-vilte/gemscout/internal/pipeline"
	"github.com/thomas-vilte/gemscout/internal/registry"
	"github.com/thomas-vilte/gemscout/internal/scoring"
	"github.com/thomas-vilte/gemscout/internal/source"
	"github.com/thomas-vilte/gemscout/internal/store"
	"github.com/thomas-vilte/gemscout/internal/vcs"
	"github.com/thomas-vilte/gemscout/internal/vcs/github"
)

// searchLimit caps how many repositories the search source returns per run.
const searchLimit = 100

// ReviewerFactory builds a reviewer for a model.
type ReviewerFactory func(model config.Model) ai.Reviewer

// Container builds the pipeline pieces from the configuration. Shared
// resources (GitHub client, verdict store) are created once.
type Container struct {
	config    *config.Config
	reviewers map[config.AI]ReviewerFactory

	mu     sync.Mutex
	github *github.GitHubClient
	store  *store.SQLiteStore
}

func NewContainer(cfg *config.Config) *Container {
	c := &Container{
		config:    cfg,
		reviewers: make(map[config.AI]ReviewerFactory),
	}
	_ = c.RegisterReviewer(config.AIGemini, func(m config.Model) ai.Reviewer { return gemini.NewReviewer(string(m)) })
	_ = c.RegisterReviewer(config.AIAnthropic, func(m config.Model) ai.Reviewer { return anthropic.NewReviewer(string(m)) })
	return c
}

// RegisterReviewer adds a provider; registering a name twice is an error.
func (c *Container) RegisterReviewer(name config.AI, factory ReviewerFactory) error {
	if _, exists := c.reviewers[name]; exists {
		return fmt.Errorf("reviewer '%s' already registered", name)
	}
	c.reviewers[name] = factory
	return nil
}

// Policy loads the scoring policy from path, or from the configured one.
func (c *Container) Policy(path string) (config.Policy, error) {
	if path == "" {
		path = c.config.PolicyPath
	}
	return config.LoadPolicy(path)
}

// GitHub returns the shared client. A token is required: anonymous access
// cannot sustain the metrics lookups of a run.
func (c *Container) GitHub() (*github.GitHubClient, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.github != nil {
		return c.github, nil
	}
	if c.config.GitHubToken == "" {
		return nil, domainErrors.ErrTokenMissing
	}
	c.github = github.NewGitHubClient(c.config.GitHubToken, c.config.RequestsPerSecond)
	return c.github, nil
}

// Store opens the verdict store on first use.
func (c *Container) Store() (*store.SQLiteStore, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.store != nil {
		return c.store, nil
	}
	s, err := store.Open(c.config.StorePath())
	if err != nil {
		return nil, err
	}
	c.store = s
	return s, nil
}

// Blender builds the AI review blender for a provider, or the configured
// one when empty.
func (c *Container) Blender(provider config.AI, policy config.Policy) (*ai.Blender, error) {
	if provider == "" {
		provider = c.config.AIProvider
	}
	factory, ok := c.reviewers[provider]
	if !ok {
		return nil, fmt.Errorf("unsupported AI provider: %s", provider)
	}

	keys := ai.NewKeyPool(c.config.Keys(provider))
	if keys.Len() == 0 {
		return nil, domainErrors.ErrCredentialExhausted.WithContext("provider", string(provider))
	}

	opts := []ai.Option{
		ai.WithTimeout(c.config.AITimeout()),
		ai.WithLanguage(c.config.Language),
	}
	if cc, err := cache.Open(c.config.CacheDir(), c.config.CacheTTL()); err == nil {
		opts = append(opts, ai.WithCache(cc))
	}

	return ai.NewBlender(factory(c.config.Model(provider)), keys, policy, opts...), nil
}

// Source builds the candidate source selected by opts.
func (c *Container) Source(opts commands.Options) (source.Source, error) {
	switch opts.Source {
	case commands.SourceFile:
		return source.NewFileSource(opts.Input), nil
	case commands.SourceSearch:
		gh, err := c.GitHub()
		if err != nil {
			return nil, err
		}
		return github.NewSearchSource(gh, searchLimit), nil
	case commands.SourcePrefilter, "":
		cmd := opts.PrefilterCmd
		if len(cmd) == 0 {
			cmd = c.config.PrefilterCommand
		}
		return source.NewPrefilterSource(cmd, source.WithEnv("GITHUB_TOKEN="+c.config.GitHubToken)), nil
	default:
		return nil, fmt.Errorf("unknown source: %s", opts.Source)
	}
}

// Orchestrator wires a pipeline for the given options. A missing AI setup
// disables the review with a warning instead of failing the run.
func (c *Container) Orchestrator(ctx context.Context, opts commands.Options) (*pipeline.Orchestrator, error) {
	policy, err := c.Policy(opts.PolicyPath)
	if err != nil {
		return nil, err
	}
	gh, err := c.GitHub()
	if err != nil {
		return nil, err
	}
	src, err := c.Source(opts)
	if err != nil {
		return nil, err
	}

	collector := insights.NewCollector(gh,
		insights.WithLookupTimeout(c.config.LookupTimeout()),
		insights.WithParallelism(c.config.LookupParallelism),
		insights.WithAdoption(registry.NewClient(nil)))
	analyzer := scoring.NewAnalyzer(policy, collector)

	var pipelineOpts []pipeline.Option
	aiMode := "none"
	if !opts.NoAI {
		blender, err := c.Blender(opts.Provider, policy)
		if err != nil {
			logger.Warn(ctx, "AI review disabled", "error", err)
		} else {
			pipelineOpts = append(pipelineOpts, pipeline.WithBlender(blender))
			aiMode = c.aiMode(opts.Provider)
		}
	}
	pipelineOpts = append(pipelineOpts, pipeline.WithReuseKey(policy.Fingerprint()+"/"+aiMode))

	if s, err := c.Store(); err != nil {
		logger.Warn(ctx, "verdict store unavailable, results will not be kept", "error", err)
	} else {
		pipelineOpts = append(pipelineOpts, pipeline.WithStore(s))
	}

	return pipeline.NewOrchestrator(src, collector, analyzer, pipelineOpts...), nil
}

// aiMode names the provider and model a review runs with.
func (c *Container) aiMode(provider config.AI) string {
	if provider == "" {
		provider = c.config.AIProvider
	}
	return fmt.Sprintf("%s:%s", provider, c.config.Model(provider))
}

// Runner adapts Orchestrator to the run command.
func (c *Container) Runner(ctx context.Context, opts commands.Options) (run.Runner, error) {
	o, err := c.Orchestrator(ctx, opts)
	if err != nil {
		return nil, err
	}
	return o, nil
}

// Evaluator adapts Orchestrator to the analyze command.
func (c *Container) Evaluator(ctx context.Context, opts commands.Options) (analyze.Evaluator, error) {
	o, err := c.Orchestrator(ctx, opts)
	if err != nil {
		return nil, err
	}
	gh, err := c.GitHub()
	if err != nil {
		return nil, err
	}
	return &repoEvaluator{github: gh, orchestrator: o}, nil
}

// History adapts the verdict store to the history command.
func (c *Container) History(context.Context) (history.Store, error) {
	return c.Store()
}

func (c *Container) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.store == nil {
		return nil
	}
	err := c.store.Close()
	c.store = nil
	return err
}

type profileFetcher interface {
	FetchProfile(ctx context.Context, owner, repo string) (*github.LiveProfile, error)
}

type candidateEvaluator interface {
	EvaluateWithProfile(ctx context.Context, candidate models.Candidate, profile vcs.RepoProfile) (models.AnalysisResult, error)
}

type repoEvaluator struct {
	github       profileFetcher
	orchestrator candidateEvaluator
}

func (e *repoEvaluator) EvaluateRepo(ctx context.Context, fullName string) (models.AnalysisResult, error) {
	owner, repo, ok := strings.Cut(fullName, "/")
	if !ok {
		return models.AnalysisResult{}, domainErrors.ErrInvalidCandidate.WithContext("repo", fullName)
	}
	profile, err := e.github.FetchProfile(ctx, owner, repo)
	if err != nil {
		return models.AnalysisResult{}, err
	}
	logger.Debug(ctx, "repository profile loaded",
		"repo", profile.FullName(),
		"readme_bytes", len(profile.ReadmeExcerpt()),
		"commits", len(profile.CommitMessages()))
	return e.orchestrator.EvaluateWithProfile(ctx, profile.Candidate(), profile)
}
