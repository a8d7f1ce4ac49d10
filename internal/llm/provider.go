package llm

import (
	"context"
	"errors"
)

// ErrNoGenerator is returned when no LLM provider is configured
var ErrNoGenerator = errors.New("no LLM provider configured")

// Generator produces a completion for a prompt
type Generator interface {
	// Name returns the provider name
	Name() string

	// Generate returns the model's text answer for prompt
	Generate(ctx context.Context, prompt string) (string, error)
}

// Config holds LLM provider configuration
type Config struct {
	// Provider name: "openai", "anthropic", "gemini", ""
	Provider string

	// Model name (provider-specific)
	Model string

	// APIKey for the provider. Empty falls back to the provider's
	// conventional environment variable.
	APIKey string

	// BaseURL for custom or proxied endpoints
	BaseURL string

	// Timeout for API requests
	Timeout int // seconds

	// MaxTokens for response generation
	MaxTokens int
}

// DefaultConfig returns sensible defaults
func DefaultConfig() Config {
	return Config{
		Provider:  "", // Disabled by default
		Timeout:   30,
		MaxTokens: 400,
	}
}

// auditorSystemPrompt frames every provider the same way
const auditorSystemPrompt = "You are an academic email auditor. Answer with a single JSON object and nothing else."

func (c Config) maxTokens() int {
	if c.MaxTokens > 0 {
		return c.MaxTokens
	}
	return 400
}
