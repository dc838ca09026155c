package analyze

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/thomas-vilte/gemscout/internal/models"
)

type MockEvaluator struct {
	mock.Mock
}

func (m *MockEvaluator) EvaluateRepo(ctx context.Context, fullName string) (models.AnalysisResult, error) {
	args := m.Called(ctx, fullName)
	return args.Get(0).(models.AnalysisResult), args.Error(1)
}
