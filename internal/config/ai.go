package config

type AI string

const (
	AIGemini    AI = "gemini"
	AIAnthropic AI = "anthropic"
)

type Model string

const (
	ModelGeminiV25Pro       Model = "gemini-2.5-pro"
	ModelGeminiV25Flash     Model = "gemini-2.5-flash"
	ModelGeminiV25FlashLite Model = "gemini-2.5-flash-lite"

	ModelClaudeSonnet45 Model = "claude-sonnet-4-5"
	ModelClaudeHaiku45  Model = "claude-haiku-4-5"
)

func SupportedAIs() []AI {
	return []AI{
		AIGemini,
		AIAnthropic,
	}
}

func ModelsForAI(ai AI) []Model {
	switch ai {
	case AIGemini:
		return []Model{
			ModelGeminiV25Flash,
			ModelGeminiV25Pro,
			ModelGeminiV25FlashLite,
		}
	case AIAnthropic:
		return []Model{
			ModelClaudeSonnet45,
			ModelClaudeHaiku45,
		}
	default:
		return []Model{}
	}
}

func DefaultModelForAI(ai AI) Model {
	models := ModelsForAI(ai)
	if len(models) == 0 {
		return ""
	}
	return models[0]
}

// IsSupportedAI reports whether the provider name is known.
func IsSupportedAI(name string) bool {
	for _, ai := range SupportedAIs() {
		if string(ai) == name {
			return true
		}
	}
	return false
}
