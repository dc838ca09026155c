package models

import (
	"math"
	"time"
)

type Recommendation string

const (
	RecommendApprove Recommendation = "APPROVE"
	RecommendReview  Recommendation = "REVIEW"
	RecommendReject  Recommendation = "REJECT"
)

type Priority string

const (
	PriorityHigh   Priority = "HIGH"
	PriorityMedium Priority = "MEDIUM"
	PriorityLow    Priority = "LOW"
)

// SubScores holds the four heuristic components, each within [0,100].
type SubScores struct {
	CommitActivity      float64 `json:"commit_activity"`
	CodeQuality         float64 `json:"code_quality"`
	DeveloperEngagement float64 `json:"developer_engagement"`
	ProjectMaturity     float64 `json:"project_maturity"`
}

// AIReview is the normalized reviewer output. Dimensions are integers in [1,10].
type AIReview struct {
	Architecture  int      `json:"architecture"`
	Documentation int      `json:"documentation"`
	Testing       int      `json:"testing"`
	Practices     int      `json:"practices"`
	Innovation    int      `json:"innovation"`
	KeyStrengths  []string `json:"key_strengths"`
	Improvements  []string `json:"improvements"`
	Assessment    string   `json:"assessment"`
	UsedDefaults  bool     `json:"-"`
	Provider      string   `json:"-"`
}

// NeutralReview is substituted when the reviewer output cannot be parsed.
func NeutralReview() AIReview {
	return AIReview{
		Architecture:  5,
		Documentation: 5,
		Testing:       5,
		Practices:     5,
		Innovation:    5,
		KeyStrengths:  []string{},
		Improvements:  []string{},
		Assessment:    "Unable to complete AI review",
		UsedDefaults:  true,
	}
}

type Metadata struct {
	Stars     int       `json:"stars"`
	Forks     int       `json:"forks"`
	Language  string    `json:"language"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// AnalysisResult is the verdict for one candidate. Values are never mutated
// after creation; blending and re-analysis produce new values.
type AnalysisResult struct {
	Repo           string                `json:"repo"`
	TotalScore     float64               `json:"total_score"`
	HeuristicScore float64               `json:"heuristic_score"`
	Recommendation Recommendation        `json:"recommendation"`
	Priority       Priority              `json:"priority"`
	Scores         *SubScores            `json:"scores,omitempty"`
	AIReview       *AIReview             `json:"ai_review,omitempty"`
	RedFlags       []string              `json:"red_flags"`
	Production     *ProductionAssessment `json:"production,omitempty"`
	Metadata       Metadata              `json:"metadata"`
	CommitSHA      string                `json:"commit_sha,omitempty"`
	// ReuseKey names the policy and AI mode the verdict was computed under.
	ReuseKey       string                `json:"reuse_key,omitempty"`
	AnalyzedAt     time.Time             `json:"analyzed_at"`
}

// Rejected reports whether the verdict came from the red-flag gate.
func (r AnalysisResult) Rejected() bool {
	return len(r.RedFlags) > 0
}

// WithAIReview returns a copy carrying the blended total and the review.
func (r AnalysisResult) WithAIReview(total float64, rec Recommendation, prio Priority, review AIReview) AnalysisResult {
	out := r.clone()
	out.TotalScore = total
	out.Recommendation = rec
	out.Priority = prio
	review.KeyStrengths = append([]string(nil), review.KeyStrengths...)
	review.Improvements = append([]string(nil), review.Improvements...)
	out.AIReview = &review
	return out
}

// WithProduction returns a copy carrying the production-readiness assessment.
func (r AnalysisResult) WithProduction(p ProductionAssessment) AnalysisResult {
	out := r.clone()
	out.Production = &p
	return out
}

// WithCommit returns a copy stamped with the head commit it was computed for.
func (r AnalysisResult) WithCommit(sha string) AnalysisResult {
	out := r.clone()
	out.CommitSHA = sha
	return out
}

// WithReuseKey returns a copy stamped with the policy and AI mode key.
func (r AnalysisResult) WithReuseKey(key string) AnalysisResult {
	out := r.clone()
	out.ReuseKey = key
	return out
}

func (r AnalysisResult) clone() AnalysisResult {
	out := r
	out.RedFlags = append([]string{}, r.RedFlags...)
	if r.Scores != nil {
		s := *r.Scores
		out.Scores = &s
	}
	if r.AIReview != nil {
		a := *r.AIReview
		a.KeyStrengths = append([]string(nil), r.AIReview.KeyStrengths...)
		a.Improvements = append([]string(nil), r.AIReview.Improvements...)
		out.AIReview = &a
	}
	if r.Production != nil {
		p := *r.Production
		out.Production = &p
	}
	return out
}

type ProductionClass string

const (
	ClassProduction   ProductionClass = "production"
	ClassStable       ProductionClass = "stable"
	ClassExperimental ProductionClass = "experimental"
	ClassHobby        ProductionClass = "hobby"
	ClassTutorial     ProductionClass = "tutorial"
	ClassUnknown      ProductionClass = "unknown"
)

// ProductionAssessment is the output of the independent "is it a real project" policy.
type ProductionAssessment struct {
	Classification  ProductionClass    `json:"classification"`
	Score           float64            `json:"production_score"`
	Signals         map[string]float64 `json:"signals"`
	ProductionReady bool               `json:"is_production_ready"`
	Tutorial        bool               `json:"is_tutorial"`
	ActivityScore   int                `json:"activity_score"`
}

// BatchResult summarizes one pipeline run.
type BatchResult struct {
	RunID      string           `json:"run_id"`
	Tier       string           `json:"tier"`
	Scanned    int              `json:"scanned"`
	Approved   int              `json:"approved"`
	Review     int              `json:"review"`
	Rejected   int              `json:"rejected"`
	Failed     int              `json:"failed"`
	Approvals  []AnalysisResult `json:"approvals"`
	Reviews    []AnalysisResult `json:"reviews"`
	StartedAt  time.Time        `json:"started_at"`
	FinishedAt time.Time        `json:"finished_at"`
}

// Publishable returns the approved and review verdicts, approvals first.
func (b BatchResult) Publishable() []AnalysisResult {
	out := make([]AnalysisResult, 0, len(b.Approvals)+len(b.Reviews))
	out = append(out, b.Approvals...)
	return append(out, b.Reviews...)
}

// Round2 rounds to two decimals, the precision used for every exported score.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// Clamp bounds v to [lo, hi].
func Clamp(v, lo, hi float64) float64 {
	if math.IsNaN(v) {
		return lo
	}
	return math.Max(lo, math.Min(hi, v))
}
