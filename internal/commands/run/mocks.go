package run

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/thomas-vilte/gemscout/internal/models"
)

type MockRunner struct {
	mock.Mock
}

func (m *MockRunner) Run(ctx context.Context, tier string, maxApproved int) models.BatchResult {
	args := m.Called(ctx, tier, maxApproved)
	return args.Get(0).(models.BatchResult)
}
