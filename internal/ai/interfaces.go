package ai

import (
	"context"

	"github.com/thomas-vilte/gemscout/internal/models"
)

// Reviewer is a language model backend able to answer a review prompt.
type Reviewer interface {
	// Name returns the provider name (e.g.: "gemini", "anthropic").
	Name() string
	// Model returns the model the reviewer calls (e.g.: "gemini-2.5-flash").
	Model() string
	// Generate sends the prompt authenticated with apiKey and returns the raw text answer.
	Generate(ctx context.Context, apiKey, prompt string) (string, *models.TokenUsage, error)
}

// ResponseCache stores raw reviewer answers per provider, model and prompt.
type ResponseCache interface {
	Key(provider, model, prompt string) string
	Answer(key string) (string, bool, error)
	Remember(key, answer string) error
}
