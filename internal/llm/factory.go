package llm

import (
	"context"
	"fmt"
	"os"

	"github.com/sertugser/assessai/internal/store"
)

// NewProvider creates a Provider from configuration.
// It returns the provider wrapped with timeout, retry and logging middleware.
func NewProvider(ctx context.Context, cfg Config, eventRepo store.EventRepo, opts ...LoggingOption) (Provider, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

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
	case "mock":
		return NewMockProvider(), nil
	default:
		return nil, fmt.Errorf("unknown LLM provider: %q", cfg.Provider)
	}
	if err != nil {
		return nil, fmt.Errorf("initializing %s provider: %w", cfg.Provider, err)
	}

	// Wrap with middleware: caller → timeout → retry → logging → base
	var p Provider = base
	if eventRepo != nil || len(opts) > 0 {
		p = WithLogging(p, cfg.Provider, eventRepo, opts...)
	}
	p = WithRetry(p, cfg.Retry)
	if cfg.Timeout > 0 {
		p = WithTimeout(p, cfg.Timeout)
	}
	return p, nil
}

// NewProviderFromEnv builds a Provider from ASSESSAI_* variables, falling
// back to DiscoverConfig when no provider is selected and the default one
// has no key.
func NewProviderFromEnv(ctx context.Context, eventRepo store.EventRepo, opts ...LoggingOption) (Provider, error) {
	cfg, err := ResolveConfig("", "")
	if err != nil {
		return nil, err
	}
	return NewProvider(ctx, cfg, eventRepo, opts...)
}

// ResolveConfig reads the environment and applies overrides. It returns an
// error when no provider can be configured.
func ResolveConfig(provider, model string) (Config, error) {
	cfg := ConfigFromEnv().WithOverrides(provider, model)
	err := cfg.Validate()
	if err == nil {
		return cfg, nil
	}
	if provider != "" || os.Getenv("ASSESSAI_LLM_PROVIDER") != "" {
		return Config{}, err
	}

	discovered, ok := DiscoverConfig()
	if !ok {
		return Config{}, fmt.Errorf("no LLM API key found: set ASSESSAI_LLM_PROVIDER and its API key, or GEMINI_API_KEY, OPENAI_API_KEY, ANTHROPIC_API_KEY or OPENROUTER_API_KEY")
	}
	return discovered.WithOverrides("", model), nil
}
