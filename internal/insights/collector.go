package insights

import (
	"context"
	"errors"
	"math"
	"strconv"
	"strings"
	"time"

	"golang.org/x/mod/semver"
	"golang.org/x/sync/errgroup"

	domainErrors "github.com/thomas-vilte/gemscout/internal/errors"
	"github.com/thomas-vilte/gemscout/internal/logger"
	"github.com/thomas-vilte/gemscout/internal/models"
	"github.com/thomas-vilte/gemscout/internal/regex"
	"github.com/thomas-vilte/gemscout/internal/vcs"
)

const (
	DefaultLookupTimeout = 30 * time.Second
	DefaultParallelism   = 1

	contributorLimit   = 100
	topContributors    = 5
	diverseAbove       = 5
	commitSampleLimit  = 50
	openIssueLimit     = 100
	openIssueSample    = 20
	closedIssueLimit   = 30
	responseSample     = 10
	pullRequestLimit   = 20
	releaseLimit       = 50
	readmeExcerptLimit = 4000
	collaborativeBelow = 0.8

	workflowsDir = ".github/workflows"
	docsDir      = "docs"
)

// Collector gathers the per-candidate InsightsBundle. Every lookup runs under
// its own deadline and degrades to a neutral default on failure.
type Collector struct {
	client      vcs.MetricsClient
	adoption    AdoptionLookup
	timeout     time.Duration
	parallelism int
	now         func() time.Time
}

// AdoptionLookup reads package registry counters for a candidate.
type AdoptionLookup interface {
	Adoption(ctx context.Context, candidate models.Candidate) (models.PackageAdoption, error)
}

type Option func(*Collector)

// WithLookupTimeout bounds every individual lookup.
func WithLookupTimeout(d time.Duration) Option {
	return func(c *Collector) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithParallelism caps how many lookups of one candidate run at once. The
// default of 1 runs them one after another in declaration order.
func WithParallelism(n int) Option {
	return func(c *Collector) {
		if n > 0 {
			c.parallelism = n
		}
	}
}

// WithAdoption enables the package registry lookup.
func WithAdoption(a AdoptionLookup) Option {
	return func(c *Collector) {
		c.adoption = a
	}
}

// WithClock replaces the wall clock, used by tests.
func WithClock(now func() time.Time) Option {
	return func(c *Collector) {
		if now != nil {
			c.now = now
		}
	}
}

func NewCollector(client vcs.MetricsClient, opts ...Option) *Collector {
	c := &Collector{
		client:      client,
		timeout:     DefaultLookupTimeout,
		parallelism: DefaultParallelism,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Collect runs every lookup for the candidate.
func (c *Collector) Collect(ctx context.Context, candidate models.Candidate) models.InsightsBundle {
	return c.Complete(ctx, candidate, c.Probe(ctx, candidate))
}

// Probe runs only the lookups needed by the red-flag gate (README and open
// issues) plus the head commit used to reuse stored verdicts.
func (c *Collector) Probe(ctx context.Context, candidate models.Candidate) models.InsightsBundle {
	owner, name := candidate.Owner(), candidate.Name()

	b := models.InsightsBundle{
		Repo:        candidate.FullName,
		CollectedAt: c.now(),
	}
	b.HeadSHA = lookup(ctx, c, "head_sha", "", func(ctx context.Context) (string, error) {
		return c.client.HeadCommit(ctx, owner, name)
	})
	b.Readme = lookup(ctx, c, "readme", models.ReadmeInfo{}, func(ctx context.Context) (models.ReadmeInfo, error) {
		content, err := c.client.Readme(ctx, owner, name)
		if errors.Is(err, domainErrors.ErrResourceNotFound) {
			return models.ReadmeInfo{}, nil
		}
		if err != nil {
			return models.ReadmeInfo{}, err
		}
		return models.ReadmeInfo{
			Present:   true,
			SizeBytes: len(content),
			Excerpt:   vcs.Excerpt(content, readmeExcerptLimit),
		}, nil
	})
	b.Issues = lookup(ctx, c, "open_issues", models.IssueStats{}, func(ctx context.Context) (models.IssueStats, error) {
		open, err := c.client.Issues(ctx, owner, name, "open", openIssueLimit)
		if err != nil {
			return models.IssueStats{}, err
		}
		stats := openIssueStats(open)
		stats.OpenCount = c.openIssueCount(ctx, candidate, len(open))
		return stats, nil
	})
	return b
}

// Complete fills the lookups Probe skipped. The probed metrics are kept as is.
func (c *Collector) Complete(ctx context.Context, candidate models.Candidate, partial models.InsightsBundle) models.InsightsBundle {
	owner, name := candidate.Owner(), candidate.Name()
	now := c.now()
	start := time.Now()

	b := partial
	b.Repo = candidate.FullName
	if b.CollectedAt.IsZero() {
		b.CollectedAt = now
	}

	// Each lookup writes its own field of b. With a limit of 1, Go blocks until
	// the previous lookup returns.
	var g errgroup.Group
	g.SetLimit(c.parallelism)

	g.Go(func() error {
		b.Contributors = lookup(ctx, c, "contributors", models.ContributorStats{}, func(ctx context.Context) (models.ContributorStats, error) {
			logins, err := c.client.Contributors(ctx, owner, name, contributorLimit)
			if err != nil {
				return models.ContributorStats{}, err
			}
			top := logins
			if len(top) > topContributors {
				top = top[:topContributors]
			}
			return models.ContributorStats{
				Count:   len(logins),
				Diverse: len(logins) > diverseAbove,
				Top:     append([]string(nil), top...),
			}, nil
		})
		return nil
	})

	g.Go(func() error {
		b.Activity = lookup(ctx, c, "commit_activity", models.CommitActivity{}, func(ctx context.Context) (models.CommitActivity, error) {
			weeks, err := c.client.WeeklyCommitCounts(ctx, owner, name)
			if err != nil {
				return models.CommitActivity{}, err
			}
			return commitActivity(weeks), nil
		})
		return nil
	})

	g.Go(func() error {
		b.RecentCommits = lookup(ctx, c, "recent_commits", []models.CommitSample{}, func(ctx context.Context) ([]models.CommitSample, error) {
			return c.client.RecentCommits(ctx, owner, name, time.Time{}, commitSampleLimit)
		})
		return nil
	})

	g.Go(func() error {
		b.Issues = c.closedIssues(ctx, owner, name, now, b.Issues)
		return nil
	})

	g.Go(func() error {
		b.PullRequests = lookup(ctx, c, "pull_requests", models.PullRequestStats{}, func(ctx context.Context) (models.PullRequestStats, error) {
			pulls, err := c.client.PullRequests(ctx, owner, name, pullRequestLimit)
			if err != nil {
				return models.PullRequestStats{}, err
			}
			return pullRequestStats(pulls, owner, now), nil
		})
		return nil
	})

	g.Go(func() error {
		b.Releases = lookup(ctx, c, "releases", models.ReleaseStats{LatestMajor: -1}, func(ctx context.Context) (models.ReleaseStats, error) {
			releases, err := c.client.Releases(ctx, owner, name, releaseLimit)
			if err != nil {
				return models.ReleaseStats{}, err
			}
			return releaseStats(releases, now), nil
		})
		return nil
	})

	g.Go(func() error {
		b.Community = lookup(ctx, c, "community", models.CommunityHealth{}, func(ctx context.Context) (models.CommunityHealth, error) {
			p, err := c.client.CommunityProfile(ctx, owner, name)
			if err != nil {
				return models.CommunityHealth{}, err
			}
			return models.CommunityHealth{
				HealthRatio:      models.Clamp(float64(p.HealthPercentage)/100, 0, 1),
				HasCodeOfConduct: p.HasCodeOfConduct,
				HasContributing:  p.HasContributing,
				HasLicense:       p.HasLicense,
				HasReadme:        p.HasReadme,
			}, nil
		})
		return nil
	})

	g.Go(func() error {
		b.Participation = lookup(ctx, c, "participation", models.Participation{OwnerRatio: 1}, func(ctx context.Context) (models.Participation, error) {
			p, err := c.client.Participation(ctx, owner, name)
			if err != nil {
				return models.Participation{}, err
			}
			return participation(p), nil
		})
		return nil
	})

	g.Go(func() error {
		b.Layout = c.layout(ctx, owner, name)
		return nil
	})

	if c.adoption != nil {
		g.Go(func() error {
			b.Adoption = lookup(ctx, c, "adoption", models.PackageAdoption{}, func(ctx context.Context) (models.PackageAdoption, error) {
				return c.adoption.Adoption(ctx, candidate)
			})
			return nil
		})
	}

	_ = g.Wait()

	failed := b.Failures()
	logger.Debug(ctx, "insights collected", "failed", len(failed), logger.Since(start))
	return b
}

func (c *Collector) closedIssues(ctx context.Context, owner, name string, now time.Time, open models.Metric[models.IssueStats]) models.Metric[models.IssueStats] {
	closed := lookup(ctx, c, "closed_issues", []vcs.IssueSample{}, func(ctx context.Context) ([]vcs.IssueSample, error) {
		return c.client.Issues(ctx, owner, name, "closed", closedIssueLimit)
	})

	stats := open.Value
	stats.ClosedSampled = len(closed.Value)
	stats.ClosedLastMonth = 0
	monthAgo := now.AddDate(0, 0, -30)
	for _, issue := range closed.Value {
		if issue.ClosedAt.After(monthAgo) {
			stats.ClosedLastMonth++
		}
	}
	if total := stats.ClosedSampled + stats.OpenCount; total > 0 {
		stats.ClosedRatio = models.Clamp(float64(stats.ClosedSampled)/float64(total), 0, 1)
	}
	stats.AvgResponseDays, stats.HasResponseTime = c.responseDays(ctx, owner, name, closed.Value)

	switch {
	case open.Reason != "":
		return models.Metric[models.IssueStats]{Value: stats, Reason: open.Reason}
	case closed.Reason != "":
		return models.Metric[models.IssueStats]{Value: stats, Reason: closed.Reason}
	case !open.OK():
		return models.Metric[models.IssueStats]{Value: stats}
	}
	return models.Measured(stats)
}

// openIssueCount returns the repository's total open issues. The sample is
// exact below the lookup limit; a full sample needs the repository counter.
func (c *Collector) openIssueCount(ctx context.Context, candidate models.Candidate, sampled int) int {
	if candidate.OpenIssues > 0 {
		return max(candidate.OpenIssues, sampled)
	}
	if sampled < openIssueLimit {
		return sampled
	}
	snapshot, err := c.client.Repository(ctx, candidate.Owner(), candidate.Name())
	if err != nil {
		logger.Warn(ctx, "open issue count unavailable, using the sample size", "error", err)
		return sampled
	}
	return max(snapshot.OpenIssues, sampled)
}

// responseDays averages the delay to the first comment over the most recent
// closed issues that received comments. A failed comment lookup skips that issue.
func (c *Collector) responseDays(ctx context.Context, owner, name string, closed []vcs.IssueSample) (float64, bool) {
	if len(closed) > responseSample {
		closed = closed[:responseSample]
	}

	var total float64
	var measured int
	for _, issue := range closed {
		if issue.Comments == 0 {
			continue
		}
		first := lookup(ctx, c, "first_comment", time.Time{}, func(ctx context.Context) (time.Time, error) {
			return c.client.FirstCommentAt(ctx, owner, name, issue.Number)
		})
		if !first.OK() || first.Value.IsZero() {
			continue
		}
		total += math.Max(0, first.Value.Sub(issue.CreatedAt).Hours()/24)
		measured++
	}
	if measured == 0 {
		return 0, false
	}
	return total / float64(measured), true
}

func (c *Collector) layout(ctx context.Context, owner, name string) models.Metric[models.RepoLayout] {
	root := lookup(ctx, c, "layout", []models.Entry{}, func(ctx context.Context) ([]models.Entry, error) {
		return c.client.ListDir(ctx, owner, name, "")
	})
	if !root.OK() {
		return models.Metric[models.RepoLayout]{Value: models.RepoLayout{}, Reason: root.Reason}
	}

	layout := models.RepoLayout{Entries: root.Value}
	if layout.HasDir(".github") {
		layout.WorkflowCount = c.countDir(ctx, owner, name, workflowsDir)
	}
	if layout.HasDir(docsDir) {
		layout.DocsEntryCount = c.countDir(ctx, owner, name, docsDir)
	}
	return models.Measured(layout)
}

// countDir treats a missing directory as empty.
func (c *Collector) countDir(ctx context.Context, owner, name, path string) int {
	entries := lookup(ctx, c, path, []models.Entry{}, func(ctx context.Context) ([]models.Entry, error) {
		entries, err := c.client.ListDir(ctx, owner, name, path)
		if errors.Is(err, domainErrors.ErrResourceNotFound) {
			return []models.Entry{}, nil
		}
		return entries, err
	})
	return len(entries.Value)
}

// lookup runs fn under the per-lookup deadline. On failure it logs a
// transient metric error and returns def as a defaulted metric.
func lookup[T any](ctx context.Context, c *Collector, metric string, def T, fn func(context.Context) (T, error)) models.Metric[T] {
	lookupCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	v, err := fn(lookupCtx)
	if err != nil {
		transient := domainErrors.ErrTransientMetric.WithError(err).WithContext("metric", metric)
		logger.Warn(ctx, "metric lookup failed, using default", "metric", metric, "error", err)
		return models.Defaulted(def, transient)
	}
	return models.Measured(v)
}

func openIssueStats(open []vcs.IssueSample) models.IssueStats {
	sample := open
	if len(sample) > openIssueSample {
		sample = sample[:openIssueSample]
	}
	stats := models.IssueStats{
		OpenCount:   len(open),
		OpenSampled: len(sample),
	}
	for _, issue := range sample {
		if issue.Comments > 0 {
			stats.OpenResponded++
		}
	}
	return stats
}

func commitActivity(weeks []int) models.CommitActivity {
	if len(weeks) == 0 {
		return models.CommitActivity{}
	}

	var total int
	for _, w := range weeks {
		total += max(w, 0)
	}
	activity := models.CommitActivity{
		WeeklyAverage: models.Round2(float64(total) / float64(len(weeks))),
	}
	if len(weeks) >= 4 {
		activity.LastMonth = sum(weeks[len(weeks)-4:])
	}
	if len(weeks) >= 8 {
		activity.Increasing = activity.LastMonth > sum(weeks[len(weeks)-8:len(weeks)-4])
	}
	return activity
}

func pullRequestStats(pulls []vcs.PullSample, owner string, now time.Time) models.PullRequestStats {
	stats := models.PullRequestStats{Sampled: len(pulls)}
	if len(pulls) == 0 {
		return stats
	}

	monthAgo := now.AddDate(0, 0, -30)
	for _, pr := range pulls {
		if pr.Merged {
			stats.Merged++
			if pr.MergedAt.After(monthAgo) {
				stats.MergedLastMonth++
			}
		}
		if !strings.EqualFold(pr.Author, owner) {
			stats.External++
		}
	}
	stats.MergeRatio = models.Clamp(float64(stats.Merged)/float64(stats.Sampled), 0, 1)
	stats.ExternalRatio = models.Clamp(float64(stats.External)/float64(stats.Sampled), 0, 1)
	return stats
}

func releaseStats(releases []vcs.ReleaseSample, now time.Time) models.ReleaseStats {
	stats := models.ReleaseStats{Count: len(releases), LatestMajor: -1}
	if len(releases) == 0 {
		return stats
	}

	yearAgo := now.AddDate(-1, 0, 0)
	for _, r := range releases {
		if r.PublishedAt.After(yearAgo) {
			stats.RecentCount++
		}
	}
	latest := releases[0]
	stats.LatestTag = latest.Tag
	stats.LatestDate = latest.PublishedAt
	stats.LatestMajor = SemverMajor(latest.Tag)
	stats.HasSemver = stats.LatestMajor >= 0
	return stats
}

// SemverMajor returns the major version of a release tag such as "v1.2.3" or
// "2.0.0-rc.1", or -1 when the tag does not start with a semantic version.
func SemverMajor(tag string) int {
	m := regex.SemVer.FindStringSubmatchIndex(tag)
	if m == nil || m[0] != 0 {
		return -1
	}
	v := "v" + strings.TrimPrefix(tag[m[0]:m[1]], "v")
	if !semver.IsValid(v) {
		return -1
	}
	major, err := strconv.Atoi(strings.TrimPrefix(semver.Major(v), "v"))
	if err != nil {
		return -1
	}
	return major
}

func participation(p vcs.ParticipationStats) models.Participation {
	all, owner := sum(p.All), sum(p.Owner)
	ratio := 1.0
	if all > 0 {
		ratio = models.Clamp(float64(owner)/float64(all), 0, 1)
	}
	return models.Participation{
		OwnerRatio:    ratio,
		Collaborative: ratio < collaborativeBelow,
	}
}

func sum(values []int) int {
	total := 0
	for _, v := range values {
		total += max(v, 0)
	}
	return total
}
