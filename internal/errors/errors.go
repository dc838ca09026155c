package errors

import "fmt"

// ErrorType defines the category of the error
type ErrorType string

const (
	TypeConfiguration ErrorType = "CONFIGURATION"
	TypeCredential    ErrorType = "CREDENTIAL"
	TypeMetric        ErrorType = "METRIC"
	TypeAnalysis      ErrorType = "ANALYSIS"
	TypeSource        ErrorType = "SOURCE"
	TypeStore         ErrorType = "STORE"
	TypeAI            ErrorType = "AI"
	TypeVCS           ErrorType = "VCS"
)

// AppError represents a domain-level error with a type and an underlying error
type AppError struct {
	Type       ErrorType
	Message    string
	Context    map[string]interface{}
	Err        error
	Suggestion string
}

func (e *AppError) Error() string {
	var msg string
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %s (%v)", e.Type, e.Message, e.Err)
	} else {
		msg = fmt.Sprintf("%s: %s", e.Type, e.Message)
	}

	if e.Context != nil {
		if repo, ok := e.Context["repo"].(string); ok && repo != "" {
			msg += fmt.Sprintf(" [%s]", repo)
		}
		if stderr, ok := e.Context["stderr"].(string); ok && stderr != "" {
			msg += fmt.Sprintf(" - %s", stderr)
		}
	}

	return msg
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// Is matches any AppError with the same type and message, so copies derived
// from a sentinel through WithError/WithContext still satisfy errors.Is.
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return e.Type == t.Type && e.Message == t.Message
}

// WithError creates a new AppError with an underlying error
func (e *AppError) WithError(err error) *AppError {
	return &AppError{
		Type:       e.Type,
		Message:    e.Message,
		Context:    e.Context,
		Err:        err,
		Suggestion: e.Suggestion,
	}
}

// WithContext creates a new AppError with additional context
func (e *AppError) WithContext(key string, value interface{}) *AppError {
	ctx := make(map[string]interface{})
	for k, v := range e.Context {
		ctx[k] = v
	}
	ctx[key] = value
	return &AppError{
		Type:       e.Type,
		Message:    e.Message,
		Context:    ctx,
		Err:        e.Err,
		Suggestion: e.Suggestion,
	}
}

func (e *AppError) WithSuggestion(suggestion string) *AppError {
	return &AppError{
		Type:       e.Type,
		Message:    e.Message,
		Context:    e.Context,
		Err:        e.Err,
		Suggestion: suggestion,
	}
}

// NewAppError creates a new AppError
func NewAppError(t ErrorType, msg string, err error) *AppError {
	return &AppError{
		Type:    t,
		Message: msg,
		Err:     err,
	}
}

// Configuration errors
var (
	ErrTokenMissing = NewAppError(TypeConfiguration, "GitHub token is missing", nil).
			WithSuggestion("Export a token: export GITHUB_TOKEN=<token>")

	ErrInvalidPolicy = NewAppError(TypeConfiguration, "scoring policy is invalid", nil).
				WithSuggestion("Weights must sum to 1 and the review threshold must not exceed the approve threshold")

	ErrPolicyRead = NewAppError(TypeConfiguration, "failed to read scoring policy", nil).
			WithSuggestion("Use a .yaml, .yml or .toml policy file")
)

// Credential errors
var (
	ErrCredentialExhausted = NewAppError(TypeCredential, "no AI credentials available", nil).
				WithSuggestion("Export GOOGLE_API_KEY or ANTHROPIC_API_KEY (optionally _2.._5 for rotation)")
)

// Metric errors
var (
	ErrTransientMetric = NewAppError(TypeMetric, "metric lookup failed, using default", nil)

	ErrStatsComputing = NewAppError(TypeMetric, "repository statistics are still being computed", nil).
				WithSuggestion("Run again in a few minutes once GitHub has cached the statistics")
)

// Analysis errors
var (
	ErrCandidateAnalysis = NewAppError(TypeAnalysis, "candidate analysis failed", nil)

	ErrInvalidCandidate = NewAppError(TypeAnalysis, "candidate has no full name", nil).
				WithSuggestion("Candidates must be identified as owner/repo")
)

// Source errors
var (
	ErrExternalSourceUnavailable = NewAppError(TypeSource, "candidate source unavailable", nil).
					WithSuggestion("Check the pre-filter command or the input file")
)

// Store errors
var (
	ErrStore = NewAppError(TypeStore, "verdict store operation failed", nil).
		WithSuggestion("Check GEMSCOUT_HOME is writable")
)

// VCS errors
var (
	ErrRepositoryNotFound = NewAppError(TypeVCS, "repository not found", nil).
				WithSuggestion("Check repository name and access permissions")

	ErrResourceNotFound = NewAppError(TypeVCS, "resource not found", nil)

	ErrGitHubRateLimit = NewAppError(TypeVCS, "GitHub API rate limit exceeded", nil).
				WithSuggestion("Wait a few minutes or use a personal access token for higher limits")

	ErrGitHubTokenInvalid = NewAppError(TypeVCS, "GitHub token is invalid or expired", nil).
				WithSuggestion("Generate a new token at: https://github.com/settings/tokens")
)

// AI errors
var (
	ErrQuotaExceeded = NewAppError(TypeAI, "AI quota exceeded or rate limited", nil).
				WithSuggestion("Wait a few minutes and try again, or check your API quota")

	ErrAIGeneration = NewAppError(TypeAI, "AI generation failed", nil).
			WithSuggestion("Try again or check your API key configuration")

	ErrMalformedAIResponse = NewAppError(TypeAI, "AI response could not be parsed", nil)
)
