package llm

import (
	"fmt"
	"strings"
)

// NewClient creates a backend client based on the configured provider.
// An empty provider falls back to the deterministic mock so the pipeline
// works without any network dependency.
func NewClient(cfg Config) (Client, error) {
	switch strings.ToLower(cfg.Provider) {
	case "openai":
		return newOpenAIClient(cfg)
	case "anthropic":
		return newAnthropicClient(cfg)
	case "gemini":
		return newGeminiClient(cfg)
	case "mock", "":
		return NewMockClient(cfg.Model), nil
	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s", cfg.Provider)
	}
}
