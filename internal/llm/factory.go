package llm

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/qforge/qforge/internal/store"
)

// NewProvider creates a Provider from configuration, wrapped so that
// calls go through timeout, retry and logging in that order. events may
// be nil.
func NewProvider(ctx context.Context, cfg Config, events store.EventRepo, log *slog.Logger) (Provider, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	var base Provider
	var err error
	switch cfg.Provider {
	case ProviderAnthropic:
		base, err = NewAnthropicProvider(cfg.Anthropic)
	case ProviderOpenAI:
		base, err = NewOpenAIProvider(cfg.OpenAI)
	case ProviderOpenRouter:
		router := cfg.OpenRouter
		if router.BaseURL == "" {
			router.BaseURL = OpenRouterBaseURL
		}
		base, err = NewOpenAIProvider(router)
	case ProviderGemini:
		base, err = NewGeminiProvider(ctx, cfg.Gemini)
	case ProviderMock:
		return NewMockProvider(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("initializing %s provider: %w", cfg.Provider, err)
	}

	p := WithLogging(base, cfg.Provider, events, log)
	p = WithRetry(p, cfg.Retry, log)
	if cfg.Timeout > 0 {
		p = WithTimeout(p, cfg.Timeout)
	}
	return p, nil
}

type timeoutProvider struct {
	inner   Provider
	timeout time.Duration
}

// WithTimeout bounds every Generate call by d.
func WithTimeout(p Provider, d time.Duration) Provider {
	return &timeoutProvider{inner: p, timeout: d}
}

func (t *timeoutProvider) Generate(ctx context.Context, req Request) (*Response, error) {
	ctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()
	return t.inner.Generate(ctx, req)
}

func (t *timeoutProvider) ModelID() string { return t.inner.ModelID() }
