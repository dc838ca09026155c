package scoring

import (
	"fmt"
	"math"
	"time"

	"github.com/thomas-vilte/gemscout/internal/config"
	"github.com/thomas-vilte/gemscout/internal/models"
)

const (
	FlagNoReadme  = "No README found"
	FlagNoLicense = "No license found"
)

// RedFlags evaluates every disqualifying condition independently and returns
// the reasons in a fixed order. Metrics that could not be measured never
// raise a flag.
func RedFlags(c models.Candidate, b models.InsightsBundle, now time.Time, limits config.RedFlags) []string {
	flags := []string{}

	if updated := lastActivity(c); !updated.IsZero() && now.Sub(updated) > days(limits.StaleDays) {
		flags = append(flags, fmt.Sprintf("No activity in >%d days", limits.StaleDays))
	}

	if b.Readme.OK() {
		switch {
		case !b.Readme.Value.Present:
			flags = append(flags, FlagNoReadme)
		case b.Readme.Value.SizeBytes < limits.MinReadmeBytes:
			flags = append(flags, fmt.Sprintf("README too short (<%d bytes)", limits.MinReadmeBytes))
		}
	}

	if !c.HasLicense() {
		flags = append(flags, FlagNoLicense)
	}

	if b.Issues.OK() {
		issues := b.Issues.Value
		if issues.OpenSampled >= limits.MinSampledIssues && issues.OpenSampled > 0 &&
			issues.ResponseRate() < limits.MinIssueResponse {
			flags = append(flags, fmt.Sprintf("Poor issue response rate (<%d%%)", int(math.Round(limits.MinIssueResponse*100))))
		}
	}

	return flags
}

// lastActivity prefers the metadata update time and falls back to the last push.
func lastActivity(c models.Candidate) time.Time {
	if !c.UpdatedAt.IsZero() {
		return c.UpdatedAt
	}
	return c.PushedAt
}

func days(n int) time.Duration {
	return time.Duration(n) * 24 * time.Hour
}
