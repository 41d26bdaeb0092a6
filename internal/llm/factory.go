package llm

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/abhisek/mockprep/internal/store"
)

// NewProvider creates a Provider from configuration, wrapped with retry,
// metrics and logging middleware. The mock provider is returned bare.
func NewProvider(ctx context.Context, cfg Config, eventRepo store.EventRepo, logger *zap.Logger) (Provider, error) {
	var base Provider
	var err error

	switch cfg.Provider {
	case "anthropic":
		base, err = NewAnthropicProvider(cfg.Anthropic)
	case "openai":
		base, err = NewOpenAIProvider(cfg.OpenAI)
	case "gemini":
		base, err = NewGeminiProvider(ctx, cfg.Gemini)
	case "openrouter":
		base, err = NewOpenRouterProvider(cfg.OpenRouter)
	case "groq":
		base, err = NewGroqProvider(cfg.Groq)
	case "ollama":
		base, err = NewOllamaProvider(cfg.Ollama)
	case "mock":
		return NewMockProvider(), nil
	default:
		return nil, fmt.Errorf("unknown LLM provider: %q", cfg.Provider)
	}
	if err != nil {
		return nil, fmt.Errorf("initializing %s provider: %w", cfg.Provider, err)
	}

	// caller → timeout → retry → metrics → logging → base
	logged := WithLogging(base, eventRepo, logger)
	measured := WithMetrics(logged)
	retried := WithRetry(measured, cfg.Retry)

	return WithTimeout(retried, cfg.Timeout), nil
}
