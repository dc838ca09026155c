package insights

import (
	"math"

	"github.com/thomas-vilte/gemscout/internal/models"
)

// ActivityScore condenses a bundle into a 0-100 activity score: commits (25),
// contributors (20), issue velocity (20), merged pull requests (20) and
// community health (15). Defaulted metrics contribute their neutral values.
func ActivityScore(b models.InsightsBundle) int {
	score := math.Min(25, b.Activity.Value.WeeklyAverage*2)
	score += math.Min(20, float64(b.Contributors.Value.Count)*2)
	score += math.Min(20, float64(b.Issues.Value.ClosedLastMonth)/2)
	score += math.Min(20, float64(b.PullRequests.Value.MergedLastMonth)*2)
	score += models.Clamp(b.Community.Value.HealthRatio, 0, 1) * 15
	return int(math.Min(100, math.Round(score)))
}
