package ai

import (
	"context"
	"fmt"
	"net/http"

	"comment-insights/shared/config"
)

// NewGenerator builds the generator for cfg.Provider.
func NewGenerator(ctx context.Context, cfg *config.AIConfig, httpClient *http.Client) (Generator, error) {
	switch cfg.Provider {
	case config.ProviderGemini:
		return NewGeminiGenerator(ctx, cfg, httpClient)
	case config.ProviderOpenAI:
		return NewChatCompletionGenerator(cfg, httpClient), nil
	default:
		return nil, fmt.Errorf("unknown AI provider %q", cfg.Provider)
	}
}
