package gemini

import (
	"context"
	"strings"
	"sync"

	"google.golang.org/genai"

	"github.com/thomas-vilte/gemscout/internal/ai"
	domainErrors "github.com/thomas-vilte/gemscout/internal/errors"
	"github.com/thomas-vilte/gemscout/internal/logger"
	"github.com/thomas-vilte/gemscout/internal/models"
)

var _ ai.Reviewer = (*Reviewer)(nil)

// Reviewer calls the Gemini API. One client is kept per API key.
type Reviewer struct {
	model   string
	baseURL string

	mu      sync.Mutex
	clients map[string]*genai.Client
}

type Option func(*Reviewer)

// WithBaseURL points the client to another endpoint.
func WithBaseURL(url string) Option {
	return func(r *Reviewer) {
		r.baseURL = url
	}
}

func NewReviewer(model string, opts ...Option) *Reviewer {
	r := &Reviewer{
		model:   model,
		clients: make(map[string]*genai.Client),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *Reviewer) Name() string  { return "gemini" }
func (r *Reviewer) Model() string { return r.model }

func (r *Reviewer) Generate(ctx context.Context, apiKey, prompt string) (string, *models.TokenUsage, error) {
	log := logger.FromContext(ctx)

	client, err := r.client(ctx, apiKey)
	if err != nil {
		return "", nil, domainErrors.ErrAIGeneration.WithError(err).WithContext("provider", r.Name())
	}

	log.Debug("calling gemini", "model", r.model, "prompt_length", len(prompt))

	resp, err := client.Models.GenerateContent(ctx, r.model, genai.Text(prompt), GetGenerateConfig(r.model, "application/json"))
	if err != nil {
		log.Debug("gemini call failed", "model", r.model, "error", err)
		return "", nil, mapError(err)
	}

	text := formatResponse(resp)
	if strings.TrimSpace(text) == "" {
		return "", nil, domainErrors.ErrAIGeneration.WithContext("provider", r.Name()).WithContext("reason", "empty response")
	}

	usage := extractUsage(resp)
	if usage != nil {
		log.Debug("gemini usage",
			"input_tokens", usage.InputTokens,
			"output_tokens", usage.OutputTokens)
	}
	return text, usage, nil
}

func (r *Reviewer) client(ctx context.Context, apiKey string) (*genai.Client, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if c, ok := r.clients[apiKey]; ok {
		return c, nil
	}

	cfg := &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	}
	if r.baseURL != "" {
		cfg.HTTPOptions = genai.HTTPOptions{BaseURL: r.baseURL}
	}
	c, err := genai.NewClient(ctx, cfg)
	if err != nil {
		return nil, err
	}
	r.clients[apiKey] = c
	return c, nil
}

func mapError(err error) error {
	errMsg := strings.ToLower(err.Error())

	switch {
	case strings.Contains(errMsg, "quota") ||
		strings.Contains(errMsg, "rate limit") ||
		strings.Contains(errMsg, "resource exhausted") ||
		strings.Contains(errMsg, "resource_exhausted"):
		return domainErrors.ErrQuotaExceeded.WithError(err).WithContext("provider", "gemini")
	case strings.Contains(errMsg, "api key") ||
		strings.Contains(errMsg, "unauthorized") ||
		strings.Contains(errMsg, "invalid"):
		return domainErrors.ErrAIGeneration.WithError(err).
			WithContext("provider", "gemini").
			WithSuggestion("Check GOOGLE_API_KEY; the next key in the pool is tried")
	default:
		return domainErrors.ErrAIGeneration.WithError(err).WithContext("provider", "gemini")
	}
}
