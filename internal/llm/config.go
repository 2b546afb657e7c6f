package llm

import (
	"fmt"
	"os"
	"strings"
	"time"
)

// Config holds all LLM provider configuration.
type Config struct {
	// Provider selects which LLM provider to use.
	// Values: "anthropic", "openai", "gemini", "openrouter", "mock"
	Provider string

	Anthropic  AnthropicConfig
	OpenAI     OpenAIConfig
	Gemini     GeminiConfig
	OpenRouter OpenRouterConfig
	Retry      RetryConfig

	// Timeout is the maximum duration for a single LLM request
	// (including retries). Default: 30s.
	Timeout time.Duration
}

// Providers lists the accepted values of Config.Provider.
var Providers = []string{"anthropic", "openai", "gemini", "openrouter", "mock"}

// AnthropicConfig holds Anthropic-specific configuration.
type AnthropicConfig struct {
	APIKey string
	Model  string // Default: "claude-haiku"
}

// OpenAIConfig holds OpenAI-specific configuration.
type OpenAIConfig struct {
	APIKey  string
	Model   string // Default: "gpt-4o-mini"
	BaseURL string // Optional. Override for OpenRouter or compatible APIs.
}

// GeminiConfig holds Gemini-specific configuration.
type GeminiConfig struct {
	APIKey  string
	Model   string // Default: "gemini-flash"
	BaseURL string // Optional endpoint override.
}

// OpenRouterConfig holds OpenRouter-specific configuration.
type OpenRouterConfig struct {
	APIKey  string
	Model   string // Default: "gemini-flash"
	BaseURL string // Default: "https://openrouter.ai/api/v1"
}

// RetryConfig configures retries of transient failures.
type RetryConfig struct {
	MaxAttempts int
	InitialWait time.Duration
	MaxWait     time.Duration
	Multiplier  float64

	// MaxTokensCeiling caps the grown budget of a truncated response.
	// Zero disables the regrow.
	MaxTokensCeiling int
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Provider: "anthropic",
		Anthropic: AnthropicConfig{
			Model: "claude-haiku",
		},
		OpenAI: OpenAIConfig{
			Model: "gpt-4o-mini",
		},
		Gemini: GeminiConfig{
			Model: "gemini-flash",
		},
		OpenRouter: OpenRouterConfig{
			Model: "gemini-flash",
		},
		Retry: RetryConfig{
			MaxAttempts: 3,
			InitialWait: 1 * time.Second,
			MaxWait:     10 * time.Second,
			Multiplier:  2.0,

			MaxTokensCeiling: 4096,
		},
		Timeout: 30 * time.Second,
	}
}

const envPrefix = "ASSESSAI_"

// discoveryOrder is the order DiscoverConfig checks the vendors' own key
// variables.
var discoveryOrder = []string{"gemini", "openai", "anthropic", "openrouter"}

// vendor returns pointers to the key, model and base URL fields of the named
// provider. Fields a provider lacks are nil; mock and unknown names have none.
func (c *Config) vendor(name string) (key, model, baseURL *string) {
	switch name {
	case "anthropic":
		return &c.Anthropic.APIKey, &c.Anthropic.Model, nil
	case "openai":
		return &c.OpenAI.APIKey, &c.OpenAI.Model, &c.OpenAI.BaseURL
	case "gemini":
		return &c.Gemini.APIKey, &c.Gemini.Model, &c.Gemini.BaseURL
	case "openrouter":
		return &c.OpenRouter.APIKey, &c.OpenRouter.Model, &c.OpenRouter.BaseURL
	}
	return nil, nil, nil
}

// keyEnv is the ASSESSAI_* variable holding the named provider's API key.
func keyEnv(name string) string {
	return envPrefix + strings.ToUpper(name) + "_API_KEY"
}

func setFromEnv(dst *string, name string) {
	if dst == nil {
		return
	}
	if v := os.Getenv(name); v != "" {
		*dst = v
	}
}

// ConfigFromEnv builds a Config from ASSESSAI_* variables over the defaults:
// ASSESSAI_LLM_PROVIDER, ASSESSAI_LLM_TIMEOUT and, per vendor,
// ASSESSAI_<VENDOR>_API_KEY, _MODEL and _BASE_URL.
func ConfigFromEnv() Config {
	cfg := DefaultConfig()
	setFromEnv(&cfg.Provider, envPrefix+"LLM_PROVIDER")

	for _, name := range Providers {
		key, model, base := cfg.vendor(name)
		if key == nil {
			continue
		}
		upper := envPrefix + strings.ToUpper(name)
		setFromEnv(key, keyEnv(name))
		setFromEnv(model, upper+"_MODEL")
		setFromEnv(base, upper+"_BASE_URL")
	}

	if t := os.Getenv(envPrefix + "LLM_TIMEOUT"); t != "" {
		if d, err := time.ParseDuration(t); err == nil && d > 0 {
			cfg.Timeout = d
		}
	}
	return cfg
}

// WithOverrides applies a provider and model chosen in the config file.
// Empty values leave cfg unchanged.
func (c Config) WithOverrides(provider, model string) Config {
	if provider != "" {
		c.Provider = provider
	}
	if _, m, _ := c.vendor(c.Provider); m != nil && model != "" {
		*m = model
	}
	return c
}

// DiscoverConfig looks for the vendors' own key variables (GEMINI_API_KEY,
// OPENAI_API_KEY, ANTHROPIC_API_KEY, OPENROUTER_API_KEY, in that order) and
// selects the first provider whose key is set.
func DiscoverConfig() (Config, bool) {
	cfg := DefaultConfig()
	for _, name := range discoveryOrder {
		k := os.Getenv(strings.ToUpper(name) + "_API_KEY")
		if k == "" {
			continue
		}
		cfg.Provider = name
		key, _, _ := cfg.vendor(name)
		*key = k
		return cfg, true
	}
	return Config{}, false
}

// Validate checks that the selected provider has its API key set.
func (c Config) Validate() error {
	if c.Provider == "mock" {
		return nil
	}
	key, _, _ := c.vendor(c.Provider)
	switch {
	case key == nil:
		return fmt.Errorf("unknown LLM provider: %q", c.Provider)
	case *key == "":
		return fmt.Errorf("%s is required for the %s provider", keyEnv(c.Provider), c.Provider)
	}
	return nil
}
