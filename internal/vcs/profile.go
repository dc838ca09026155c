package vcs

import (
	"strings"
	"unicode/utf8"

	"github.com/thomas-vilte/gemscout/internal/models"
)

var _ RepoProfile = (*StaticProfile)(nil)

// StaticProfile answers RepoProfile from data that was already collected, so
// building a review request costs no extra API calls.
type StaticProfile struct {
	candidate models.Candidate
	readme    string
	commits   []string
}

func NewStaticProfile(c models.Candidate, readme string, commits []string) *StaticProfile {
	return &StaticProfile{
		candidate: c,
		readme:    readme,
		commits:   append([]string(nil), commits...),
	}
}

// ProfileFromInsights builds a StaticProfile from a candidate and its bundle.
func ProfileFromInsights(c models.Candidate, b models.InsightsBundle) *StaticProfile {
	messages := make([]string, 0, len(b.RecentCommits.Value))
	for _, commit := range b.RecentCommits.Value {
		messages = append(messages, commit.Message)
	}
	return NewStaticProfile(c, b.Readme.Value.Excerpt, messages)
}

func (p *StaticProfile) FullName() string         { return p.candidate.FullName }
func (p *StaticProfile) Description() string      { return p.candidate.Description }
func (p *StaticProfile) Language() string         { return p.candidate.Language }
func (p *StaticProfile) Stars() int               { return p.candidate.Stars }
func (p *StaticProfile) Forks() int               { return p.candidate.Forks }
func (p *StaticProfile) Topics() []string         { return p.candidate.Topics }
func (p *StaticProfile) HasLicense() bool         { return p.candidate.HasLicense() }
func (p *StaticProfile) HasWiki() bool            { return p.candidate.HasWiki }
func (p *StaticProfile) ReadmeExcerpt() string    { return p.readme }
func (p *StaticProfile) CommitMessages() []string { return p.commits }

// Excerpt trims s to at most limit bytes without splitting a rune.
func Excerpt(s string, limit int) string {
	s = strings.TrimSpace(s)
	if len(s) <= limit {
		return s
	}
	cut := limit
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut]
}
