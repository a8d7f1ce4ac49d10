package llm

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/ppiankov/cfpqc/internal/model"
)

// NewGenerator creates a generator based on configuration. An empty provider
// returns ErrNoGenerator so callers can skip the review step.
func NewGenerator(config Config) (Generator, error) {
	provider := strings.ToLower(strings.TrimSpace(config.Provider))
	config = withEnvKey(provider, config)

	switch provider {
	case "openai":
		return NewOpenAIGenerator(config)

	case "anthropic", "claude":
		return NewAnthropicGenerator(config)

	case "gemini", "google":
		return NewGeminiGenerator(config)

	case "":
		return nil, ErrNoGenerator

	default:
		return nil, fmt.Errorf("unknown LLM provider: %s (supported: openai, anthropic, gemini)", config.Provider)
	}
}

// ConfigFromModel converts model.LLMConfig to llm.Config
func ConfigFromModel(modelConfig model.LLMConfig) Config {
	return Config{
		Provider:  modelConfig.Provider,
		Model:     modelConfig.Model,
		APIKey:    modelConfig.APIKey,
		BaseURL:   modelConfig.BaseURL,
		Timeout:   modelConfig.Timeout,
		MaxTokens: modelConfig.MaxTokens,
	}
}

// envKeys lists the conventional API key variables per provider
var envKeys = map[string][]string{
	"openai":    {"OPENAI_API_KEY"},
	"anthropic": {"ANTHROPIC_API_KEY"},
	"claude":    {"ANTHROPIC_API_KEY"},
	"gemini":    {"GEMINI_API_KEY", "GOOGLE_API_KEY"},
	"google":    {"GEMINI_API_KEY", "GOOGLE_API_KEY"},
}

func withEnvKey(provider string, config Config) Config {
	if config.APIKey != "" {
		return config
	}
	for _, name := range envKeys[provider] {
		if v := os.Getenv(name); v != "" {
			config.APIKey = v
			break
		}
	}
	return config
}

func (c Config) timeout() time.Duration {
	if c.Timeout > 0 {
		return time.Duration(c.Timeout) * time.Second
	}
	return 30 * time.Second
}
