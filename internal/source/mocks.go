package source

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/thomas-vilte/gemscout/internal/models"
)

var _ Source = (*MockSource)(nil)

type MockSource struct {
	mock.Mock
}

func (m *MockSource) Name() string {
	return "mock"
}

func (m *MockSource) Candidates(ctx context.Context, tier string) ([]models.Candidate, error) {
	args := m.Called(ctx, tier)
	var candidates []models.Candidate
	if c, ok := args.Get(0).([]models.Candidate); ok {
		candidates = c
	}
	return candidates, args.Error(1)
}
