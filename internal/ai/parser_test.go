package ai

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/thomas-vilte/gemscout/internal/models"
)

func TestParseReview(t *testing.T) {
	t.Run("should parse a clean JSON answer", func(t *testing.T) {
		text := `{"architecture": 8, "documentation": 7, "testing": 6, "practices": 9, "innovation": 5,
			"key_strengths": ["clear API"], "improvements": ["more tests"], "assessment": "Solid library."}`

		got := ParseReview(text)

		assert.Equal(t, 8, got.Architecture)
		assert.Equal(t, 7, got.Documentation)
		assert.Equal(t, 6, got.Testing)
		assert.Equal(t, 9, got.Practices)
		assert.Equal(t, 5, got.Innovation)
		assert.Equal(t, []string{"clear API"}, got.KeyStrengths)
		assert.Equal(t, []string{"more tests"}, got.Improvements)
		assert.Equal(t, "Solid library.", got.Assessment)
		assert.False(t, got.UsedDefaults)
	})

	t.Run("should extract JSON from fences and prose", func(t *testing.T) {
		text := "Here is my review:\n```json\n{\"architecture\": 9, \"documentation\": 9, \"testing\": 9, \"practices\": 9, \"innovation\": 9}\n```\nHope it helps."

		got := ParseReview(text)

		assert.Equal(t, 9, got.Architecture)
		assert.False(t, got.UsedDefaults)
	})

	t.Run("should extract the outermost object from plain prose", func(t *testing.T) {
		text := `Sure! {"architecture": 6, "documentation": 6, "testing": 6, "practices": 6, "innovation": 6, "assessment": "uses {braces} inside"} done`

		got := ParseReview(text)

		assert.Equal(t, 6, got.Innovation)
		assert.Equal(t, "uses {braces} inside", got.Assessment)
	})

	t.Run("should accept the long field names", func(t *testing.T) {
		text := `{"architecture_quality": 8, "documentation_quality": 4, "testing_coverage": 3, "best_practices": 7,
			"innovation_value": 6, "summary": "Good start.", "concerns": ["no CI"]}`

		got := ParseReview(text)

		assert.Equal(t, 8, got.Architecture)
		assert.Equal(t, 4, got.Documentation)
		assert.Equal(t, 3, got.Testing)
		assert.Equal(t, 7, got.Practices)
		assert.Equal(t, 6, got.Innovation)
		assert.Equal(t, "Good start.", got.Assessment)
		assert.Equal(t, []string{"no CI"}, got.Improvements)
	})

	t.Run("should round in-range values and accept numeric strings", func(t *testing.T) {
		text := `{"architecture": 1, "documentation": 10, "testing": 7.6, "practices": "3", "innovation": "8"}`

		got := ParseReview(text)

		assert.Equal(t, 1, got.Architecture)
		assert.Equal(t, 10, got.Documentation)
		assert.Equal(t, 8, got.Testing)
		assert.Equal(t, 3, got.Practices)
		assert.Equal(t, 8, got.Innovation)
		assert.False(t, got.UsedDefaults)
	})

	t.Run("should replace out-of-range values with 5", func(t *testing.T) {
		text := `{"architecture": 15, "documentation": 0, "testing": -3, "practices": 11, "innovation": 7}`

		got := ParseReview(text)

		assert.Equal(t, 5, got.Architecture)
		assert.Equal(t, 5, got.Documentation)
		assert.Equal(t, 5, got.Testing)
		assert.Equal(t, 5, got.Practices)
		assert.Equal(t, 7, got.Innovation)
		assert.True(t, got.UsedDefaults)
	})

	t.Run("should accept score-suffixed keys", func(t *testing.T) {
		text := `{"architecture_score": 9, "documentation_score": 8, "testing_score": 6,
			"practices_score": 7, "innovation_score": 4}`

		got := ParseReview(text)

		assert.Equal(t, 9, got.Architecture)
		assert.Equal(t, 8, got.Documentation)
		assert.Equal(t, 6, got.Testing)
		assert.Equal(t, 7, got.Practices)
		assert.Equal(t, 4, got.Innovation)
		assert.False(t, got.UsedDefaults)
	})

	t.Run("should default missing and non-numeric fields to 5", func(t *testing.T) {
		text := `{"architecture": 9, "documentation": "great", "testing": null}`

		got := ParseReview(text)

		assert.Equal(t, 9, got.Architecture)
		assert.Equal(t, 5, got.Documentation)
		assert.Equal(t, 5, got.Testing)
		assert.Equal(t, 5, got.Practices)
		assert.Equal(t, 5, got.Innovation)
		assert.True(t, got.UsedDefaults)
		assert.NotNil(t, got.KeyStrengths)
	})

	t.Run("should return the neutral review for malformed output", func(t *testing.T) {
		for _, text := range []string{"", "I cannot review this repository.", "{broken", `["a", "b"]`} {
			got := ParseReview(text)

			assert.Equal(t, models.NeutralReview(), got, "text=%q", text)
			assert.Equal(t, 5, got.Architecture)
			assert.True(t, got.UsedDefaults)
		}
	})
}

func TestExtractJSON(t *testing.T) {
	t.Run("should prefer the longest valid fenced block", func(t *testing.T) {
		text := "```json\n{\"a\":1}\n```\n```json\n{\"a\":1,\"b\":2}\n```"
		assert.Equal(t, `{"a":1,"b":2}`, ExtractJSON(text))
	})

	t.Run("should escape raw newlines inside strings", func(t *testing.T) {
		text := "{\"assessment\": \"line one\nline two\"}"

		got := ExtractJSON(text)

		assert.True(t, json.Valid([]byte(got)))
	})

	t.Run("should ignore unbalanced prefixes", func(t *testing.T) {
		text := `thinking { not json... {"testing": 4}`
		assert.Equal(t, `{"testing": 4}`, ExtractJSON(text))
	})
}
