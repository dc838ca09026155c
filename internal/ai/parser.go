package ai

import (
	"encoding/json"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/thomas-vilte/gemscout/internal/models"
	"github.com/thomas-vilte/gemscout/internal/regex"
)

const (
	neutralScore = 5
	minScore     = 1
	maxScore     = 10
)

// ParseReview turns a reviewer answer into a normalized review. It never fails:
// unreadable input yields the neutral review.
func ParseReview(text string) models.AIReview {
	fields, ok := decodeObject(text)
	if !ok {
		fields, ok = decodeObject(ExtractJSON(text))
	}
	if !ok {
		return models.NeutralReview()
	}

	review := models.AIReview{
		KeyStrengths: stringList(fields, "key_strengths", "strengths"),
		Improvements: stringList(fields, "improvements", "concerns"),
		Assessment:   firstString(fields, "assessment", "summary"),
	}

	var defaulted bool
	score := func(keys ...string) int {
		v, ok := dimension(fields, keys...)
		if !ok {
			defaulted = true
			return neutralScore
		}
		return v
	}
	review.Architecture = score("architecture", "architecture_score", "architecture_quality")
	review.Documentation = score("documentation", "documentation_score", "documentation_quality")
	review.Testing = score("testing", "testing_score", "testing_coverage")
	review.Practices = score("practices", "practices_score", "best_practices")
	review.Innovation = score("innovation", "innovation_score", "innovation_value")
	review.UsedDefaults = defaulted

	return review
}

func decodeObject(text string) (map[string]json.RawMessage, bool) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, false
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal([]byte(text), &fields); err != nil || fields == nil {
		return nil, false
	}
	return fields, true
}

// dimension reads the first present key as a number rounded to an integer.
// Numeric strings are accepted; values outside [1,10] are rejected.
func dimension(fields map[string]json.RawMessage, keys ...string) (int, bool) {
	for _, key := range keys {
		raw, ok := fields[key]
		if !ok {
			continue
		}
		if string(raw) == "null" {
			return 0, false
		}
		var n float64
		if err := json.Unmarshal(raw, &n); err != nil {
			var s string
			if err := json.Unmarshal(raw, &s); err != nil {
				return 0, false
			}
			parsed, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
			if err != nil {
				return 0, false
			}
			n = parsed
		}
		if math.IsNaN(n) || math.IsInf(n, 0) || n < minScore || n > maxScore {
			return 0, false
		}
		return int(math.Round(n)), true
	}
	return 0, false
}

func stringList(fields map[string]json.RawMessage, keys ...string) []string {
	for _, key := range keys {
		raw, ok := fields[key]
		if !ok {
			continue
		}
		var list []string
		if err := json.Unmarshal(raw, &list); err == nil {
			return list
		}
		var single string
		if err := json.Unmarshal(raw, &single); err == nil && single != "" {
			return []string{single}
		}
	}
	return []string{}
}

func firstString(fields map[string]json.RawMessage, keys ...string) string {
	for _, key := range keys {
		var s string
		if raw, ok := fields[key]; ok && json.Unmarshal(raw, &s) == nil {
			return s
		}
	}
	return ""
}

// ExtractJSON attempts to extract a valid JSON object from text, handling markdown
// code blocks and the extra prose some models add around the answer.
func ExtractJSON(text string) string {
	text = strings.TrimSpace(text)

	var bestMarkdown string
	for _, m := range regex.MarkdownJSONBlock.FindAllStringSubmatch(text, -1) {
		if len(m) < 2 {
			continue
		}
		sanitized := SanitizeJSON(strings.TrimSpace(m[1]))
		if json.Valid([]byte(sanitized)) && len(sanitized) > len(bestMarkdown) {
			bestMarkdown = sanitized
		}
	}
	if bestMarkdown != "" {
		return bestMarkdown
	}

	var bestBlock string
	for i := 0; i < len(text); {
		startIdx := strings.IndexByte(text[i:], '{')
		if startIdx == -1 {
			break
		}
		startIdx += i

		count := 0
		inString := false
		escaped := false
		endIdx := -1

		for j := startIdx; j < len(text); j++ {
			char := text[j]
			if escaped {
				escaped = false
				continue
			}
			if char == '\\' {
				escaped = true
				continue
			}
			if char == '"' {
				inString = !inString
				continue
			}
			if inString {
				continue
			}
			if char == '{' {
				count++
			} else if char == '}' {
				count--
				if count == 0 {
					endIdx = j
					break
				}
			}
		}

		if endIdx == -1 {
			i = startIdx + 1
			continue
		}
		sanitized := SanitizeJSON(text[startIdx : endIdx+1])
		if json.Valid([]byte(sanitized)) && len(sanitized) > len(bestBlock) {
			bestBlock = sanitized
		}
		i = endIdx + 1
	}

	if bestBlock != "" {
		return bestBlock
	}
	return SanitizeJSON(text)
}

var jsonStringRegex = regexp.MustCompile(`"(?:\\.|[^"\\])*"`)

// SanitizeJSON escapes raw newlines that models sometimes leave inside string literals.
func SanitizeJSON(s string) string {
	return jsonStringRegex.ReplaceAllStringFunc(s, func(m string) string {
		return strings.ReplaceAll(m, "\n", "\\n")
	})
}
