package ai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"comment-insights/shared/config"

	"github.com/go-resty/resty/v2"
)

// ChatCompletionGenerator talks to any OpenAI-compatible /chat/completions
// endpoint.
type ChatCompletionGenerator struct {
	client      *resty.Client
	model       string
	temperature float32
	maxTokens   int32
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float32       `json:"temperature"`
	MaxTokens   int32         `json:"max_tokens,omitempty"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

func NewChatCompletionGenerator(cfg *config.AIConfig, httpClient *http.Client) *ChatCompletionGenerator {
	client := resty.New()
	if httpClient != nil {
		client = resty.NewWithClient(httpClient)
	}
	client.
		SetBaseURL(strings.TrimRight(cfg.BaseURL, "/")).
		SetAuthToken(cfg.OpenAIAPIKey).
		SetHeader("Content-Type", "application/json")

	return &ChatCompletionGenerator{
		client:      client,
		model:       cfg.Model,
		temperature: cfg.Temperature,
		maxTokens:   cfg.MaxOutputTokens,
	}
}

func (g *ChatCompletionGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	resp, err := g.client.R().
		SetContext(ctx).
		SetBody(chatRequest{
			Model:       g.model,
			Messages:    []chatMessage{{Role: "user", Content: prompt}},
			Temperature: g.temperature,
			MaxTokens:   g.maxTokens,
		}).
		Post("/chat/completions")
	if err != nil {
		return "", err
	}

	if resp.StatusCode() != http.StatusOK {
		return "", fmt.Errorf("chat completion API returned status %d: %s", resp.StatusCode(), truncateString(resp.String(), 200))
	}

	var out chatResponse
	if err := json.Unmarshal(resp.Body(), &out); err != nil {
		return "", fmt.Errorf("failed to decode chat completion: %w", err)
	}
	if len(out.Choices) == 0 {
		return "", errors.New("chat completion returned no choices")
	}

	return out.Choices[0].Message.Content, nil
}
