package llm

import (
	"context"
	"fmt"

	"github.com/abhisek/cheatsheet/internal/store"
)

// NewProvider creates a Provider from configuration.
// The base provider is wrapped as caller → metrics → timeout → retry → logging → base.
// A nil observer skips the metrics layer.
func NewProvider(ctx context.Context, cfg Config, eventRepo store.EventRepo, observer Observer) (Provider, error) {
	var base Provider
	var err error

	switch cfg.Provider {
	case "openrouter":
		base, err = NewOpenRouterProvider(cfg.OpenRouter)
	case "anthropic":
		base, err = NewAnthropicProvider(cfg.Anthropic)
	case "openai":
		base, err = NewOpenAIProvider(cfg.OpenAI)
	case "gemini":
		base, err = NewGeminiProvider(ctx, cfg.Gemini)
	case "mock":
		base = NewMockProvider()
	default:
		return nil, fmt.Errorf("unknown LLM provider: %q", cfg.Provider)
	}
	if err != nil {
		return nil, fmt.Errorf("initializing %s provider: %w", cfg.Provider, err)
	}

	var p Provider = base
	if eventRepo != nil {
		p = WithLogging(p, cfg.Provider, eventRepo)
	}
	if cfg.Retry.MaxAttempts > 1 {
		p = WithRetry(p, cfg.Retry)
	}
	if cfg.Timeout > 0 {
		p = WithTimeout(p, cfg.Timeout)
	}
	if observer != nil {
		p = WithMetrics(p, observer)
	}

	return p, nil
}
