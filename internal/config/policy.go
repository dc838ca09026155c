package config

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	domainErrors "github.com/thomas-vilte/gemscout/internal/errors"
)

// Policy holds every tunable constant of the scoring engine.
type Policy struct {
	Weights    Weights    `yaml:"weights" toml:"weights"`
	Thresholds Thresholds `yaml:"thresholds" toml:"thresholds"`
	Blend      Blend      `yaml:"blend" toml:"blend"`
	RedFlags   RedFlags   `yaml:"red_flags" toml:"red_flags"`
}

// Weights combine the four sub-scores into the heuristic total.
type Weights struct {
	CommitActivity      float64 `yaml:"commit_activity" toml:"commit_activity"`
	CodeQuality         float64 `yaml:"code_quality" toml:"code_quality"`
	DeveloperEngagement float64 `yaml:"developer_engagement" toml:"developer_engagement"`
	ProjectMaturity     float64 `yaml:"project_maturity" toml:"project_maturity"`
}

type Thresholds struct {
	Approve float64 `yaml:"approve" toml:"approve"`
	Review  float64 `yaml:"review" toml:"review"`
	// AIGate is the minimum heuristic total for which a review is requested.
	AIGate float64 `yaml:"ai_gate" toml:"ai_gate"`
}

type Blend struct {
	Heuristic float64      `yaml:"heuristic" toml:"heuristic"`
	AI        float64      `yaml:"ai" toml:"ai"`
	Dimension AIDimensions `yaml:"dimensions" toml:"dimensions"`
}

type AIDimensions struct {
	Architecture  float64 `yaml:"architecture" toml:"architecture"`
	Documentation float64 `yaml:"documentation" toml:"documentation"`
	Testing       float64 `yaml:"testing" toml:"testing"`
	Practices     float64 `yaml:"practices" toml:"practices"`
	Innovation    float64 `yaml:"innovation" toml:"innovation"`
}

type RedFlags struct {
	StaleDays        int     `yaml:"stale_days" toml:"stale_days"`
	MinReadmeBytes   int     `yaml:"min_readme_bytes" toml:"min_readme_bytes"`
	MinSampledIssues int     `yaml:"min_sampled_issues" toml:"min_sampled_issues"`
	MinIssueResponse float64 `yaml:"min_issue_response_rate" toml:"min_issue_response_rate"`
}

const weightTolerance = 0.001

func DefaultPolicy() Policy {
	return Policy{
		Weights: Weights{
			CommitActivity:      0.30,
			CodeQuality:         0.25,
			DeveloperEngagement: 0.25,
			ProjectMaturity:     0.20,
		},
		Thresholds: Thresholds{
			Approve: 75,
			Review:  60,
			AIGate:  50,
		},
		Blend: Blend{
			Heuristic: 0.75,
			AI:        0.25,
			Dimension: AIDimensions{
				Architecture:  0.25,
				Documentation: 0.20,
				Testing:       0.20,
				Practices:     0.20,
				Innovation:    0.15,
			},
		},
		RedFlags: RedFlags{
			StaleDays:        180,
			MinReadmeBytes:   200,
			MinSampledIssues: 10,
			MinIssueResponse: 0.30,
		},
	}
}

// LoadPolicy reads a policy from a YAML or TOML file chosen by extension.
// An empty path or a missing file yields DefaultPolicy. Keys absent from the
// file keep their default values.
func LoadPolicy(path string) (Policy, error) {
	policy := DefaultPolicy()
	if path == "" {
		return policy, nil
	}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return policy, nil
	}
	if err != nil {
		return policy, domainErrors.ErrPolicyRead.WithError(err).WithContext("path", path)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &policy)
	case ".toml":
		_, err = toml.Decode(string(data), &policy)
	default:
		err = fmt.Errorf("unsupported policy format %q", filepath.Ext(path))
	}
	if err != nil {
		return DefaultPolicy(), domainErrors.ErrPolicyRead.WithError(err).WithContext("path", path)
	}

	if err := policy.Validate(); err != nil {
		return DefaultPolicy(), err
	}
	return policy, nil
}

func (p Policy) Validate() error {
	w := p.Weights
	if !sumsToOne(w.CommitActivity, w.CodeQuality, w.DeveloperEngagement, w.ProjectMaturity) {
		return domainErrors.ErrInvalidPolicy.WithContext("field", "weights")
	}
	if !sumsToOne(p.Blend.Heuristic, p.Blend.AI) {
		return domainErrors.ErrInvalidPolicy.WithContext("field", "blend")
	}
	d := p.Blend.Dimension
	if !sumsToOne(d.Architecture, d.Documentation, d.Testing, d.Practices, d.Innovation) {
		return domainErrors.ErrInvalidPolicy.WithContext("field", "blend.dimensions")
	}
	t := p.Thresholds
	if t.Review > t.Approve || t.Review < 0 || t.Approve > 100 || t.AIGate < 0 {
		return domainErrors.ErrInvalidPolicy.WithContext("field", "thresholds")
	}
	r := p.RedFlags
	if r.StaleDays <= 0 || r.MinReadmeBytes < 0 || r.MinSampledIssues < 0 || r.MinIssueResponse < 0 || r.MinIssueResponse > 1 {
		return domainErrors.ErrInvalidPolicy.WithContext("field", "red_flags")
	}
	return nil
}

// Fingerprint identifies the policy values. Verdicts computed under a
// different policy carry a different fingerprint.
func (p Policy) Fingerprint() string {
	data, err := json.Marshal(p)
	if err != nil {
		return ""
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:6])
}

func sumsToOne(values ...float64) bool {
	var sum float64
	for _, v := range values {
		if v < 0 {
			return false
		}
		sum += v
	}
	return math.Abs(sum-1) <= weightTolerance
}
