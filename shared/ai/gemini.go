package ai

import (
	"context"
	"fmt"
	"net/http"

	"comment-insights/shared/config"

	"google.golang.org/genai"
)

type GeminiGenerator struct {
	client          *genai.Client
	model           string
	temperature     float32
	maxOutputTokens int32
}

// NewGeminiGenerator creates a Gemini client. httpClient may be nil; baseURL
// overrides the API endpoint when set.
func NewGeminiGenerator(ctx context.Context, cfg *config.AIConfig, httpClient *http.Client) (*GeminiGenerator, error) {
	clientConfig := &genai.ClientConfig{
		APIKey:     cfg.GeminiAPIKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: httpClient,
	}
	if cfg.BaseURL != "" {
		clientConfig.HTTPOptions = genai.HTTPOptions{BaseURL: cfg.BaseURL}
	}

	client, err := genai.NewClient(ctx, clientConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	return &GeminiGenerator{
		client:          client,
		model:           cfg.Model,
		temperature:     cfg.Temperature,
		maxOutputTokens: cfg.MaxOutputTokens,
	}, nil
}

func (g *GeminiGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	contents := []*genai.Content{
		genai.NewContentFromParts([]*genai.Part{genai.NewPartFromText(prompt)}, genai.RoleUser),
	}

	result, err := g.client.Models.GenerateContent(ctx, g.model, contents, &genai.GenerateContentConfig{
		Temperature:     genai.Ptr(g.temperature),
		MaxOutputTokens: g.maxOutputTokens,
	})
	if err != nil {
		return "", fmt.Errorf("gemini %s: %w", g.model, err)
	}

	return result.Text(), nil
}
