package llm

import (
	"context"
	"fmt"
	"strings"

	"google.golang.org/genai"
)

const defaultGeminiModel = "gemini-2.0-flash"

// GeminiGenerator implements Generator with the Gemini API
type GeminiGenerator struct {
	client *genai.Client
	config Config
}

// NewGeminiGenerator creates a new Gemini generator
func NewGeminiGenerator(config Config) (*GeminiGenerator, error) {
	if config.APIKey == "" {
		return nil, fmt.Errorf("Gemini API key is required")
	}

	clientConfig := &genai.ClientConfig{
		APIKey:  config.APIKey,
		Backend: genai.BackendGeminiAPI,
	}
	if config.BaseURL != "" {
		clientConfig.HTTPOptions = genai.HTTPOptions{BaseURL: config.BaseURL}
	}

	client, err := genai.NewClient(context.Background(), clientConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	return &GeminiGenerator{client: client, config: config}, nil
}

// Name returns the provider name
func (g *GeminiGenerator) Name() string {
	return "gemini"
}

// Model returns the model requests are sent to
func (g *GeminiGenerator) Model() string {
	if g.config.Model != "" {
		return g.config.Model
	}
	return defaultGeminiModel
}

// Generate sends prompt as one user turn
func (g *GeminiGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, g.config.timeout())
	defer cancel()

	contents := []*genai.Content{
		genai.NewContentFromParts([]*genai.Part{genai.NewPartFromText(prompt)}, genai.RoleUser),
	}

	result, err := g.client.Models.GenerateContent(ctx, g.Model(), contents, &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(auditorSystemPrompt, genai.RoleUser),
		MaxOutputTokens:   int32(g.config.maxTokens()),
	})
	if err != nil {
		return "", fmt.Errorf("Gemini API error: %w", err)
	}

	text := strings.TrimSpace(result.Text())
	if text == "" {
		return "", fmt.Errorf("empty response from Gemini")
	}
	return text, nil
}
