package anthropic

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/thomas-vilte/gemscout/internal/ai"
	domainErrors "github.com/thomas-vilte/gemscout/internal/errors"
	"github.com/thomas-vilte/gemscout/internal/logger"
	"github.com/thomas-vilte/gemscout/internal/models"
)

var _ ai.Reviewer = (*Reviewer)(nil)

const maxTokens = 1024

// Reviewer calls the Anthropic Messages API. SDK retries are disabled since
// the blender retries with the next key.
type Reviewer struct {
	model   string
	baseURL string
}

type Option func(*Reviewer)

func WithBaseURL(url string) Option {
	return func(r *Reviewer) {
		r.baseURL = url
	}
}

func NewReviewer(model string, opts ...Option) *Reviewer {
	r := &Reviewer{model: model}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *Reviewer) Name() string  { return "anthropic" }
func (r *Reviewer) Model() string { return r.model }

func (r *Reviewer) Generate(ctx context.Context, apiKey, prompt string) (string, *models.TokenUsage, error) {
	reqOpts := []option.RequestOption{
		option.WithAPIKey(apiKey),
		option.WithMaxRetries(0),
	}
	if r.baseURL != "" {
		reqOpts = append(reqOpts, option.WithBaseURL(r.baseURL))
	}
	client := anthropic.NewClient(reqOpts...)

	logger.Debug(ctx, "calling anthropic", "model", r.model, "prompt_length", len(prompt))

	resp, err := client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:       anthropic.Model(r.model),
		MaxTokens:   maxTokens,
		Temperature: anthropic.Float(0.3),
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
	})
	if err != nil {
		return "", nil, mapError(err)
	}

	var text strings.Builder
	for _, block := range resp.Content {
		if block.Type == "text" {
			text.WriteString(block.Text)
		}
	}
	if strings.TrimSpace(text.String()) == "" {
		return "", nil, domainErrors.ErrAIGeneration.WithContext("provider", r.Name()).WithContext("reason", "empty response")
	}

	usage := &models.TokenUsage{
		InputTokens:  int(resp.Usage.InputTokens),
		OutputTokens: int(resp.Usage.OutputTokens),
		TotalTokens:  int(resp.Usage.InputTokens + resp.Usage.OutputTokens),
	}
	return text.String(), usage, nil
}

func mapError(err error) error {
	var apiErr *anthropic.Error
	if errors.As(err, &apiErr) {
		switch apiErr.StatusCode {
		case http.StatusTooManyRequests, 529:
			return domainErrors.ErrQuotaExceeded.WithError(err).WithContext("provider", "anthropic")
		case http.StatusUnauthorized, http.StatusForbidden:
			return domainErrors.ErrAIGeneration.WithError(err).
				WithContext("provider", "anthropic").
				WithSuggestion("Check ANTHROPIC_API_KEY; the next key in the pool is tried")
		}
	}
	return domainErrors.ErrAIGeneration.WithError(err).WithContext("provider", "anthropic")
}
