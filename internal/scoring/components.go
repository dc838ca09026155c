package scoring

import (
	"math"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/thomas-vilte/gemscout/internal/models"
	"github.com/thomas-vilte/gemscout/internal/regex"
)

const (
	minSampledCommits  = 10
	commitWindowDays   = 180
	commitWindowWeeks  = 26
	maxCommitsPerWeek  = 5
	messageSample      = 20
	messageTargetLen   = 50
	descriptiveWords   = 3
	authorTarget       = 5
	readmeTargetBytes  = 2000
	packagingCap       = 15
	docsEntriesMinimum = 2
)

// CommitActivity scores frequency (30), message hygiene (30), message
// quality (20) and author diversity (20) over the sampled commits.
func CommitActivity(commits models.Metric[[]models.CommitSample], now time.Time) float64 {
	if !commits.OK() || len(commits.Value) < minSampledCommits {
		return 0
	}

	cutoff := now.Add(-days(commitWindowDays))
	var recent []models.CommitSample
	authors := make(map[string]struct{})
	for _, c := range commits.Value {
		if c.Author != "" {
			authors[c.Author] = struct{}{}
		}
		if c.Date.After(cutoff) {
			recent = append(recent, c)
		}
	}
	if len(recent) == 0 {
		return 0
	}

	perWeek := float64(len(recent)) / commitWindowWeeks
	frequency := math.Min(perWeek/maxCommitsPerWeek, 1) * 30

	messages := recent
	if len(messages) > messageSample {
		messages = messages[:messageSample]
	}
	lowSignal := 0
	for _, c := range messages {
		if regex.LowSignalCommit.MatchString(c.Message) {
			lowSignal++
		}
	}
	hygiene := (1 - float64(lowSignal)/float64(len(messages))) * 30

	var totalLen, descriptive int
	for _, c := range recent {
		totalLen += utf8.RuneCountInString(c.Message)
		if len(strings.Fields(c.Message)) >= descriptiveWords {
			descriptive++
		}
	}
	avgLen := float64(totalLen) / float64(len(recent))
	descriptiveRatio := float64(descriptive) / float64(len(recent))
	quality := math.Min(avgLen/messageTargetLen, 1) * descriptiveRatio * 20

	diversity := math.Min(float64(len(authors))/authorTarget, 1) * 20

	return bounded(frequency + hygiene + quality + diversity)
}

// CodeQuality scores README (25), license (15), layout (25), CI (20) and
// language packaging (15).
func CodeQuality(c models.Candidate, b models.InsightsBundle) float64 {
	var score float64

	if b.Readme.OK() {
		score += math.Min(float64(b.Readme.Value.SizeBytes)/readmeTargetBytes, 1) * 25
	}
	if c.HasLicense() {
		score += 15
	}

	if b.Layout.OK() {
		layout := b.Layout.Value
		score += structure(layout)
		score += continuousIntegration(layout)
		score += packaging(c.Language, layout)
	}

	return bounded(score)
}

func structure(l models.RepoLayout) float64 {
	var score float64
	if l.HasDir("src", "lib") {
		score += 8
	}
	if l.HasDir("tests", "test") || l.AnyNameContains("test") {
		score += 8
	}
	if l.HasDir("docs", "documentation") {
		score += 5
	}
	if l.HasFile("CONTRIBUTING.md", "CONTRIBUTING") {
		score += 4
	}
	return score
}

func continuousIntegration(l models.RepoLayout) float64 {
	if l.WorkflowCount > 0 {
		return 20
	}
	for _, e := range l.Entries {
		if regex.CIConfigFile.MatchString(e.Name) {
			return 15
		}
	}
	return 0
}

func packaging(language string, l models.RepoLayout) float64 {
	var score float64
	add := func(points float64, names ...string) {
		if l.HasFile(names...) {
			score += points
		}
	}

	switch language {
	case "Python":
		add(5, "setup.py", "pyproject.toml")
		add(5, "requirements.txt", "Pipfile")
		add(5, "tox.ini", "pytest.ini")
	case "JavaScript", "TypeScript":
		add(5, "package.json")
		add(5, "tsconfig.json")
		add(5, ".eslintrc", ".eslintrc.js", ".eslintrc.json", "eslint.config.js")
	case "Rust":
		add(10, "Cargo.toml")
		add(5, "Cargo.lock")
	case "Go":
		add(10, "go.mod")
		add(5, "go.sum")
	case "Java", "C++", "C#":
		score += 5
	}
	return math.Min(score, packagingCap)
}

// DeveloperEngagement scores issue responsiveness (25), issue closure (25),
// pull request merging (25) and external contributions (25).
func DeveloperEngagement(b models.InsightsBundle) float64 {
	var score float64

	if b.Issues.OK() && b.Issues.Value.ClosedSampled > 0 {
		issues := b.Issues.Value
		if issues.HasResponseTime {
			score += responseBucket(issues.AvgResponseDays)
		}
		score += models.Clamp(issues.ClosedRatio, 0, 1) * 25
	}

	if b.PullRequests.OK() && b.PullRequests.Value.Sampled > 0 {
		prs := b.PullRequests.Value
		score += models.Clamp(prs.MergeRatio, 0, 1) * 25
		score += models.Clamp(prs.ExternalRatio, 0, 1) * 25
	}

	return bounded(score)
}

func responseBucket(avgDays float64) float64 {
	switch {
	case avgDays < 1:
		return 25
	case avgDays < 3:
		return 20
	case avgDays < 7:
		return 15
	case avgDays < 14:
		return 10
	default:
		return 0
	}
}

// ProjectMaturity scores releases (40), documentation (30), age (15) and
// recency of updates (15).
func ProjectMaturity(c models.Candidate, b models.InsightsBundle, now time.Time) float64 {
	var score float64

	if b.Releases.OK() && b.Releases.Value.Count > 0 {
		rel := b.Releases.Value
		switch {
		case rel.LatestMajor >= 1:
			score += 20
		case rel.LatestMajor == 0:
			score += 10
		}
		if rel.Count >= 3 {
			score += 10
		}
		if !rel.LatestDate.IsZero() && now.Sub(rel.LatestDate) < days(90) {
			score += 10
		}
	}

	if b.Layout.OK() {
		layout := b.Layout.Value
		for _, e := range layout.Entries {
			if !e.Dir && regex.ChangelogFile.MatchString(e.Name) {
				score += 10
				break
			}
		}
		if layout.HasFile("examples", "example") {
			score += 10
		}
		if layout.DocsEntryCount > docsEntriesMinimum {
			score += 10
		}
	}

	if !c.CreatedAt.IsZero() {
		age := now.Sub(c.CreatedAt)
		switch {
		case age > days(365):
			score += 15
		case age > days(180):
			score += 10
		case age > days(90):
			score += 5
		}
	}

	if updated := lastActivity(c); !updated.IsZero() {
		since := now.Sub(updated)
		switch {
		case since < days(30):
			score += 15
		case since < days(90):
			score += 10
		case since < days(180):
			score += 5
		}
	}

	return bounded(score)
}

func bounded(score float64) float64 {
	return models.Round2(models.Clamp(score, 0, 100))
}
