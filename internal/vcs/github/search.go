package github

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/go-github/v80/github"

	domainErrors "github.com/thomas-vilte/gemscout/internal/errors"
	"github.com/thomas-vilte/gemscout/internal/models"
)

type tierRange struct {
	minStars, maxStars int
	minForks, maxForks int
}

// tiers bucket candidates by popularity. Bounds are inclusive, as in the
// search qualifiers, so neighbouring tiers share their edge value.
var tiers = map[string]tierRange{
	"micro":  {10, 100, 5, 50},
	"small":  {100, 500, 10, 100},
	"medium": {500, 2000, 20, 200},
}

// Tiers returns the known tier names sorted by star range.
func Tiers() []string {
	names := make([]string, 0, len(tiers))
	for name := range tiers {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool { return tiers[names[i]].minStars < tiers[names[j]].minStars })
	return names
}

// SearchSource finds candidates with the repository search API.
type SearchSource struct {
	client     *GitHubClient
	limit      int
	pushedDays int
	now        func() time.Time
}

func NewSearchSource(client *GitHubClient, limit int) *SearchSource {
	return &SearchSource{
		client:     client,
		limit:      perPage(limit),
		pushedDays: 90,
		now:        time.Now,
	}
}

func (s *SearchSource) Name() string {
	return "search"
}

func (s *SearchSource) Candidates(ctx context.Context, tier string) ([]models.Candidate, error) {
	query, err := s.query(tier)
	if err != nil {
		return nil, err
	}
	if err := s.client.wait(ctx); err != nil {
		return nil, err
	}

	result, resp, err := s.client.searchService.Repositories(ctx, query, &github.SearchOptions{
		Sort:        "updated",
		Order:       "desc",
		ListOptions: github.ListOptions{PerPage: s.limit},
	})
	if err != nil {
		return nil, domainErrors.ErrExternalSourceUnavailable.
			WithError(mapError(err, resp, "search repositories", "search", tier)).
			WithContext("query", query)
	}

	candidates := make([]models.Candidate, 0, len(result.Repositories))
	for _, r := range result.Repositories {
		if r.GetFork() || r.GetArchived() {
			continue
		}
		candidates = append(candidates, CandidateFromRepository(r))
	}
	return candidates, nil
}

func (s *SearchSource) query(tier string) (string, error) {
	r, ok := tiers[strings.ToLower(tier)]
	if !ok {
		return "", domainErrors.ErrExternalSourceUnavailable.
			WithError(fmt.Errorf("unknown tier %q", tier)).
			WithSuggestion("Use one of: " + strings.Join(Tiers(), ", "))
	}
	pushed := s.now().AddDate(0, 0, -s.pushedDays).Format("2006-01-02")
	return fmt.Sprintf("stars:%d..%d forks:%d..%d pushed:>%s archived:false fork:false",
		r.minStars, r.maxStars, r.minForks, r.maxForks, pushed), nil
}
