package scoring

import (
	"math"
	"strings"

	"github.com/thomas-vilte/gemscout/internal/insights"
	"github.com/thomas-vilte/gemscout/internal/models"
	"github.com/thomas-vilte/gemscout/internal/regex"
)

// ProductionClassifier estimates whether a repository is a real project or a
// tutorial. It is informational and never changes a heuristic verdict.
type ProductionClassifier struct{}

// Classify scores name keywords (10), adoption (30), dependents (15),
// activity (20), releases (10), documentation (10) and community health (5).
// Insights-based signals are skipped when b is nil.
func (ProductionClassifier) Classify(c models.Candidate, b *models.InsightsBundle) models.ProductionAssessment {
	if c.FullName == "" {
		return models.ProductionAssessment{
			Classification: models.ClassUnknown,
			Signals:        map[string]float64{},
		}
	}

	signals := make(map[string]float64)
	nameScore, tutorial := nameSignal(c)
	signals["name"] = nameScore
	signals["adoption"] = adoptionSignal(c, b)
	signals["dependents"] = dependentsSignal(c.Forks, c.Watchers)
	signals["documentation"] = documentationSignal(c)
	var activity int
	if b != nil {
		activity = insights.ActivityScore(*b)
		signals["activity"] = activitySignal(*b)
		signals["releases"] = releaseSignal(b.Releases.Value)
		signals["community"] = models.Clamp(b.Community.Value.HealthRatio, 0, 1) * 5
	}

	var score float64
	for _, v := range signals {
		score += v
	}
	score = math.Round(score*10) / 10

	class := classify(score, tutorial)
	return models.ProductionAssessment{
		Classification:  class,
		Score:           score,
		Signals:         signals,
		ProductionReady: score >= 60,
		Tutorial:        class == models.ClassTutorial,
		ActivityScore:   activity,
	}
}

func nameSignal(c models.Candidate) (float64, bool) {
	text := c.Name() + " " + c.Description
	switch {
	case regex.TutorialKeywords.MatchString(text):
		return 0, true
	case regex.ProductionKeywords.MatchString(text):
		return 10, false
	default:
		return 5, false
	}
}

// adoptionSignal scores registry downloads for the candidate's language plus
// Docker Hub pulls, capped at 30. Stars stand in when no package was found.
func adoptionSignal(c models.Candidate, b *models.InsightsBundle) float64 {
	var score float64
	if b != nil && b.Adoption.OK() {
		a := b.Adoption.Value
		switch strings.ToLower(c.Language) {
		case "javascript", "typescript":
			score += downloadTier(a.NpmWeeklyDownloads)
		case "python":
			score += downloadTier(a.PyPIMonthlyDownloads)
		}
		switch {
		case a.DockerPulls > 10000:
			score += 15
		case a.DockerPulls > 1000:
			score += 10
		case a.DockerPulls > 100:
			score += 5
		}
	}
	if score == 0 {
		score = starsSignal(c.Stars)
	}
	return math.Min(30, score)
}

func downloadTier(n int) float64 {
	switch {
	case n > 10000:
		return 30
	case n > 1000:
		return 20
	case n > 100:
		return 10
	default:
		return 0
	}
}

func starsSignal(stars int) float64 {
	switch {
	case stars > 5000:
		return 15
	case stars > 1000:
		return 10
	case stars > 500:
		return 5
	default:
		return 0
	}
}

func dependentsSignal(forks, watchers int) float64 {
	estimated := (forks + watchers) / 10
	switch {
	case estimated > 50:
		return 15
	case estimated > 20:
		return 10
	case estimated > 10:
		return 5
	default:
		return 0
	}
}

func activitySignal(b models.InsightsBundle) float64 {
	var score float64
	switch n := b.Contributors.Value.Count; {
	case n > 10:
		score += 10
	case n > 5:
		score += 7
	case n > 2:
		score += 4
	}
	switch avg := b.Activity.Value.WeeklyAverage; {
	case avg > 10:
		score += 10
	case avg > 5:
		score += 7
	case avg > 1:
		score += 4
	}
	return score
}

func releaseSignal(r models.ReleaseStats) float64 {
	var score float64
	switch {
	case r.Count > 10:
		score += 5
	case r.Count > 5:
		score += 4
	case r.Count > 0:
		score += 2
	}
	if r.HasSemver {
		score += 3
	}
	switch {
	case r.RecentCount > 3:
		score += 2
	case r.RecentCount > 0:
		score += 1
	}
	return score
}

func documentationSignal(c models.Candidate) float64 {
	var score float64
	if c.HasWiki {
		score += 2
	}
	if c.HasPages {
		score += 3
	}
	switch {
	case c.SizeKB > 1000:
		score += 5
	case c.SizeKB > 100:
		score += 3
	case c.SizeKB > 10:
		score += 1
	}
	return score
}

func classify(score float64, tutorial bool) models.ProductionClass {
	if tutorial {
		return models.ClassTutorial
	}
	switch {
	case score >= 80:
		return models.ClassProduction
	case score >= 60:
		return models.ClassStable
	case score >= 40:
		return models.ClassExperimental
	case score >= 20:
		return models.ClassHobby
	default:
		return models.ClassTutorial
	}
}
