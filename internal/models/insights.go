package models

import (
	"strings"
	"time"
)

// Metric carries either a measured value or a documented default together
// with the reason the lookup failed. Consumers check OK instead of unwinding errors.
// The zero Metric was never looked up and is not OK.
type Metric[T any] struct {
	Value    T
	Reason   string
	measured bool
}

// Measured wraps a successfully collected value.
func Measured[T any](v T) Metric[T] {
	return Metric[T]{Value: v, measured: true}
}

// Defaulted wraps the neutral default used after a failed lookup.
func Defaulted[T any](def T, reason error) Metric[T] {
	m := Metric[T]{Value: def, Reason: "unknown failure"}
	if reason != nil {
		m.Reason = reason.Error()
	}
	return m
}

// OK reports whether the value was actually measured.
func (m Metric[T]) OK() bool {
	return m.measured && m.Reason == ""
}

// InsightsBundle is the per-candidate metric snapshot. It is recomputed on
// every analysis and never persisted on its own.
type InsightsBundle struct {
	Repo          string
	CollectedAt   time.Time
	HeadSHA       Metric[string]
	Contributors  Metric[ContributorStats]
	Activity      Metric[CommitActivity]
	RecentCommits Metric[[]CommitSample]
	Issues        Metric[IssueStats]
	PullRequests  Metric[PullRequestStats]
	Releases      Metric[ReleaseStats]
	Community     Metric[CommunityHealth]
	Participation Metric[Participation]
	Readme        Metric[ReadmeInfo]
	Layout        Metric[RepoLayout]
	Adoption      Metric[PackageAdoption]
}

// Failures lists the metrics that fell back to their defaults.
func (b InsightsBundle) Failures() map[string]string {
	failed := make(map[string]string)
	add := func(name, reason string) {
		if reason != "" {
			failed[name] = reason
		}
	}
	add("head_sha", b.HeadSHA.Reason)
	add("contributors", b.Contributors.Reason)
	add("commit_activity", b.Activity.Reason)
	add("recent_commits", b.RecentCommits.Reason)
	add("issues", b.Issues.Reason)
	add("pull_requests", b.PullRequests.Reason)
	add("releases", b.Releases.Reason)
	add("community", b.Community.Reason)
	add("participation", b.Participation.Reason)
	add("readme", b.Readme.Reason)
	add("layout", b.Layout.Reason)
	add("adoption", b.Adoption.Reason)
	return failed
}

// PackageAdoption holds registry download counters; zero means unpublished.
type PackageAdoption struct {
	NpmWeeklyDownloads   int
	PyPIMonthlyDownloads int
	DockerPulls          int
}

type ContributorStats struct {
	Count   int
	Diverse bool
	Top     []string
}

type CommitActivity struct {
	WeeklyAverage float64
	LastMonth     int
	Increasing    bool
}

type CommitSample struct {
	Message string
	Author  string
	Date    time.Time
}

type IssueStats struct {
	OpenCount       int
	OpenSampled     int
	OpenResponded   int
	ClosedSampled   int
	ClosedLastMonth int
	AvgResponseDays float64
	HasResponseTime bool
	ClosedRatio     float64
}

// ResponseRate is the share of sampled open issues with at least one comment.
func (s IssueStats) ResponseRate() float64 {
	if s.OpenSampled == 0 {
		return 0
	}
	return float64(s.OpenResponded) / float64(s.OpenSampled)
}

type PullRequestStats struct {
	Sampled         int
	Merged          int
	MergedLastMonth int
	External        int
	MergeRatio      float64
	ExternalRatio   float64
}

type ReleaseStats struct {
	Count       int
	RecentCount int
	LatestTag   string
	LatestDate  time.Time
	HasSemver   bool
	// LatestMajor is the major version of the latest release tag, -1 when
	// that tag is not a semantic version.
	LatestMajor int
}

type CommunityHealth struct {
	HealthRatio      float64
	HasCodeOfConduct bool
	HasContributing  bool
	HasLicense       bool
	HasReadme        bool
}

type Participation struct {
	OwnerRatio    float64
	Collaborative bool
}

type ReadmeInfo struct {
	Present   bool
	SizeBytes int
	Excerpt   string
}

type Entry struct {
	Name string
	Dir  bool
}

type RepoLayout struct {
	Entries        []Entry
	WorkflowCount  int
	DocsEntryCount int
}

// HasFile reports whether any root entry matches one of the names, case-insensitively.
func (l RepoLayout) HasFile(names ...string) bool {
	for _, e := range l.Entries {
		for _, n := range names {
			if strings.EqualFold(e.Name, n) {
				return true
			}
		}
	}
	return false
}

// HasDir is HasFile restricted to directories.
func (l RepoLayout) HasDir(names ...string) bool {
	for _, e := range l.Entries {
		if !e.Dir {
			continue
		}
		for _, n := range names {
			if strings.EqualFold(e.Name, n) {
				return true
			}
		}
	}
	return false
}

// AnyNameContains reports whether an entry name contains the substring.
func (l RepoLayout) AnyNameContains(sub string) bool {
	sub = strings.ToLower(sub)
	for _, e := range l.Entries {
		if strings.Contains(strings.ToLower(e.Name), sub) {
			return true
		}
	}
	return false
}
