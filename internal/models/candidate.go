package models

import (
	"bytes"
	"encoding/json"
	"strings"
	"time"
)

// Candidate is a repository emitted by an upstream search or pre-filter step.
// It is read-only once it enters the analysis pipeline.
type Candidate struct {
	FullName      string    `json:"full_name"`
	Description   string    `json:"description"`
	Stars         int       `json:"stargazers_count"`
	Forks         int       `json:"forks_count"`
	OpenIssues    int       `json:"open_issues_count,omitempty"`
	Watchers      int       `json:"watchers_count,omitempty"`
	Language      string    `json:"language"`
	Topics        []string  `json:"topics"`
	License       *License  `json:"license"`
	HasWiki       bool      `json:"has_wiki,omitempty"`
	HasPages      bool      `json:"has_pages,omitempty"`
	SizeKB        int       `json:"size,omitempty"`
	Archived      bool      `json:"archived,omitempty"`
	DefaultBranch string    `json:"default_branch,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
	PushedAt      time.Time `json:"pushed_at"`
}

// License accepts both the plain string form and the hosting API object form.
type License struct {
	Key    string `json:"key,omitempty"`
	Name   string `json:"name,omitempty"`
	SPDXID string `json:"spdx_id,omitempty"`
}

func (l *License) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var name string
		if err := json.Unmarshal(data, &name); err != nil {
			return err
		}
		l.Name = name
		l.Key = strings.ToLower(name)
		return nil
	}

	type plain License
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	*l = License(p)
	return nil
}

// HasLicense reports whether the candidate declares any license.
func (c Candidate) HasLicense() bool {
	if c.License == nil {
		return false
	}
	return c.License.Key != "" || c.License.Name != "" || c.License.SPDXID != ""
}

// Owner returns the owner segment of the full name.
func (c Candidate) Owner() string {
	owner, _, _ := strings.Cut(c.FullName, "/")
	return owner
}

// Name returns the repository segment of the full name.
func (c Candidate) Name() string {
	_, name, found := strings.Cut(c.FullName, "/")
	if !found {
		return c.FullName
	}
	return name
}

func (c Candidate) Metadata() Metadata {
	return Metadata{
		Stars:     c.Stars,
		Forks:     c.Forks,
		Language:  c.Language,
		CreatedAt: c.CreatedAt,
		UpdatedAt: c.UpdatedAt,
	}
}
