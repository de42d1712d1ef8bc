package llm

import (
	"github.com/Malikxolo/Customer-Support-agent/internal/config"
)

// NewFromConfig builds a Provider for the given model configuration.
// Ollama needs no API key; everything else is OpenAI-compatible.
func NewFromConfig(mc config.ModelConfig, ollamaBaseURL string) Provider {
	if mc.Provider == "ollama" {
		return NewOllamaProvider(ollamaBaseURL)
	}
	return NewOpenAIProvider(mc.Provider, mc.APIKey)
}
