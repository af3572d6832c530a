package llm

import (
	"fmt"
	"os"
	"time"
)

// Provider names accepted in Config.Provider.
const (
	ProviderAnthropic  = "anthropic"
	ProviderOpenAI     = "openai"
	ProviderGemini     = "gemini"
	ProviderOpenRouter = "openrouter"
	ProviderMock       = "mock"
)

// Config holds all LLM provider configuration. It is filled in by the
// config package from QFORGE_* settings.
type Config struct {
	Provider string

	Anthropic  AnthropicConfig
	OpenAI     OpenAIConfig
	Gemini     GeminiConfig
	OpenRouter OpenAIConfig
	Retry      RetryConfig

	// Timeout bounds a single Generate call including retries.
	Timeout time.Duration
}

// AnthropicConfig holds Anthropic-specific configuration.
type AnthropicConfig struct {
	APIKey string
	Model  string
}

// OpenAIConfig configures an OpenAI-compatible endpoint.
type OpenAIConfig struct {
	APIKey  string
	Model   string
	BaseURL string
}

// GeminiConfig holds Gemini-specific configuration.
type GeminiConfig struct {
	APIKey string
	Model  string
}

// RetryConfig configures retry behavior for transient failures.
type RetryConfig struct {
	MaxAttempts int
	InitialWait time.Duration
	MaxWait     time.Duration
	Multiplier  float64

	// InvalidRetries is how many schema-invalid responses are retried.
	InvalidRetries int
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Provider:   ProviderAnthropic,
		Anthropic:  AnthropicConfig{Model: "claude-haiku"},
		OpenAI:     OpenAIConfig{Model: "gpt-mini"},
		Gemini:     GeminiConfig{Model: "gemini-flash"},
		OpenRouter: OpenAIConfig{Model: "google/gemini-2.5-flash", BaseURL: OpenRouterBaseURL},
		Retry: RetryConfig{
			MaxAttempts:    3,
			InitialWait:    1 * time.Second,
			MaxWait:        10 * time.Second,
			Multiplier:     2.0,
			InvalidRetries: 1,
		},
		Timeout: 90 * time.Second,
	}
}

// DiscoverConfig probes the vendors' standard API key variables in
// priority order (Gemini, OpenAI, Anthropic, OpenRouter) and returns a
// Config for the first one set.
func DiscoverConfig() (Config, bool) {
	cfg := DefaultConfig()
	switch {
	case os.Getenv("GEMINI_API_KEY") != "":
		cfg.Provider = ProviderGemini
		cfg.Gemini.APIKey = os.Getenv("GEMINI_API_KEY")
	case os.Getenv("OPENAI_API_KEY") != "":
		cfg.Provider = ProviderOpenAI
		cfg.OpenAI.APIKey = os.Getenv("OPENAI_API_KEY")
	case os.Getenv("ANTHROPIC_API_KEY") != "":
		cfg.Provider = ProviderAnthropic
		cfg.Anthropic.APIKey = os.Getenv("ANTHROPIC_API_KEY")
	case os.Getenv("OPENROUTER_API_KEY") != "":
		cfg.Provider = ProviderOpenRouter
		cfg.OpenRouter.APIKey = os.Getenv("OPENROUTER_API_KEY")
	default:
		return Config{}, false
	}
	return cfg, true
}

// HasKey reports whether the selected provider has credentials.
func (c Config) HasKey() bool {
	return c.Validate() == nil
}

// Validate checks that the selected provider has its required API key set.
func (c Config) Validate() error {
	var key, env string
	switch c.Provider {
	case ProviderAnthropic:
		key, env = c.Anthropic.APIKey, "QFORGE_ANTHROPIC_API_KEY"
	case ProviderOpenAI:
		key, env = c.OpenAI.APIKey, "QFORGE_OPENAI_API_KEY"
	case ProviderGemini:
		key, env = c.Gemini.APIKey, "QFORGE_GEMINI_API_KEY"
	case ProviderOpenRouter:
		key, env = c.OpenRouter.APIKey, "QFORGE_OPENROUTER_API_KEY"
	case ProviderMock:
		return nil
	default:
		return fmt.Errorf("unknown LLM provider: %q", c.Provider)
	}
	if key == "" {
		return fmt.Errorf("%s is required for the %s provider", env, c.Provider)
	}
	return nil
}
