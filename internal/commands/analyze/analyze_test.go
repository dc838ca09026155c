package analyze

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/thomas-vilte/gemscout/internal/commands"
	"github.com/thomas-vilte/gemscout/internal/config"
	domainErrors "github.com/thomas-vilte/gemscout/internal/errors"
	"github.com/thomas-vilte/gemscout/internal/i18n"
	"github.com/thomas-vilte/gemscout/internal/models"
)

func setupAnalyzeTest(t *testing.T) (*MockEvaluator, *i18n.Translations, EvaluatorProvider) {
	t.Helper()
	color.NoColor = true
	translations, err := i18n.NewTranslations("en")
	require.NoError(t, err)
	evaluator := new(MockEvaluator)
	provider := func(context.Context, commands.Options) (Evaluator, error) {
		return evaluator, nil
	}
	return evaluator, translations, provider
}

func TestAnalyzeCommand(t *testing.T) {
	rejected := models.AnalysisResult{
		Repo:           "dev/unlicensed",
		Recommendation: models.RecommendReject,
		Priority:       models.PriorityLow,
		RedFlags:       []string{"No license found"},
	}

	t.Run("should print the verdict", func(t *testing.T) {
		evaluator, translations, provider := setupAnalyzeTest(t)
		evaluator.On("EvaluateRepo", mock.Anything, "dev/unlicensed").Return(rejected, nil)
		var out bytes.Buffer
		cmd := NewAnalyzeCommand(provider).WithOutput(&out).CreateCommand(translations, &config.Config{})

		err := cmd.Run(context.Background(), []string{"analyze", "dev/unlicensed"})

		require.NoError(t, err)
		assert.Contains(t, out.String(), "[REJECT] dev/unlicensed (LOW)")
		assert.Contains(t, out.String(), "Red flags: No license found")
	})

	t.Run("should print JSON when asked", func(t *testing.T) {
		evaluator, translations, provider := setupAnalyzeTest(t)
		evaluator.On("EvaluateRepo", mock.Anything, "dev/unlicensed").Return(rejected, nil)
		var out bytes.Buffer
		cmd := NewAnalyzeCommand(provider).WithOutput(&out).CreateCommand(translations, &config.Config{})

		err := cmd.Run(context.Background(), []string{"analyze", "--json", "dev/unlicensed"})

		require.NoError(t, err)
		var got models.AnalysisResult
		require.NoError(t, json.Unmarshal(out.Bytes(), &got))
		assert.Equal(t, rejected.RedFlags, got.RedFlags)
		assert.Nil(t, got.Scores)
	})

	t.Run("should accept a GitHub URL", func(t *testing.T) {
		evaluator, translations, provider := setupAnalyzeTest(t)
		evaluator.On("EvaluateRepo", mock.Anything, "dev/unlicensed").Return(rejected, nil)
		cmd := NewAnalyzeCommand(provider).WithOutput(&bytes.Buffer{}).CreateCommand(translations, &config.Config{})

		err := cmd.Run(context.Background(), []string{"analyze", "https://github.com/dev/unlicensed.git"})

		require.NoError(t, err)
		evaluator.AssertExpectations(t)
	})

	t.Run("should require owner/repo", func(t *testing.T) {
		evaluator, translations, provider := setupAnalyzeTest(t)
		cmd := NewAnalyzeCommand(provider).CreateCommand(translations, &config.Config{})

		err := cmd.Run(context.Background(), []string{"analyze", "rocket"})

		assert.EqualError(t, err, translations.GetMessage("analyze.missing_repo", 0, nil))
		evaluator.AssertNotCalled(t, "EvaluateRepo", mock.Anything, mock.Anything)
	})

	t.Run("should surface lookup failures", func(t *testing.T) {
		evaluator, translations, provider := setupAnalyzeTest(t)
		evaluator.On("EvaluateRepo", mock.Anything, "acme/gone").
			Return(models.AnalysisResult{}, domainErrors.ErrRepositoryNotFound)
		cmd := NewAnalyzeCommand(provider).WithOutput(&bytes.Buffer{}).CreateCommand(translations, &config.Config{})

		err := cmd.Run(context.Background(), []string{"analyze", "acme/gone"})

		assert.ErrorIs(t, err, domainErrors.ErrRepositoryNotFound)
	})
}
