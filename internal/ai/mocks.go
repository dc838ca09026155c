package ai

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/thomas-vilte/gemscout/internal/models"
)

var _ Reviewer = (*MockReviewer)(nil)

// MockReviewer mocks Generate; Name and Model return fixed values.
type MockReviewer struct {
	mock.Mock
}

func (m *MockReviewer) Name() string  { return "mock" }
func (m *MockReviewer) Model() string { return "mock-model" }

func (m *MockReviewer) Generate(ctx context.Context, apiKey, prompt string) (string, *models.TokenUsage, error) {
	args := m.Called(ctx, apiKey, prompt)
	var usage *models.TokenUsage
	if u, ok := args.Get(1).(*models.TokenUsage); ok {
		usage = u
	}
	return args.String(0), usage, args.Error(2)
}
