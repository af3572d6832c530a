package llm

import (
	"context"
	"errors"
	"log/slog"
	"math"
	"math/rand/v2"
	"time"
)

// RetryProvider retries transient errors with exponential backoff and
// jitter.
type RetryProvider struct {
	inner  Provider
	config RetryConfig
	log    *slog.Logger
}

// WithRetry wraps a Provider with retry logic. log may be nil.
func WithRetry(p Provider, cfg RetryConfig, log *slog.Logger) Provider {
	if cfg.MaxAttempts < 1 {
		cfg.MaxAttempts = 1
	}
	if log == nil {
		log = slog.Default()
	}
	return &RetryProvider{inner: p, config: cfg, log: log}
}

func (r *RetryProvider) Generate(ctx context.Context, req Request) (*Response, error) {
	var lastErr error
	invalid := 0

	for attempt := range r.config.MaxAttempts {
		resp, err := r.inner.Generate(ctx, req)
		if err == nil {
			return resp, nil
		}
		lastErr = err

		if !r.retryable(err, &invalid) || attempt == r.config.MaxAttempts-1 {
			break
		}

		wait := r.backoff(attempt, err)
		r.log.Debug("llm retry", "attempt", attempt+1, "wait", wait, "err", err)
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(wait):
		}
	}
	return nil, lastErr
}

func (r *RetryProvider) ModelID() string {
	return r.inner.ModelID()
}

func (r *RetryProvider) retryable(err error, invalid *int) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	// Truncation repeats with the same MaxTokens.
	var maxTok *ErrMaxTokensExceeded
	if errors.As(err, &maxTok) {
		return false
	}

	var invResp *ErrInvalidResponse
	if errors.As(err, &invResp) {
		*invalid++
		return *invalid <= r.config.InvalidRetries
	}

	// Rate limits, outages and network errors are transient.
	return true
}

func (r *RetryProvider) backoff(attempt int, err error) time.Duration {
	var rl *ErrRateLimit
	if errors.As(err, &rl) && rl.RetryAfter > 0 {
		return rl.RetryAfter
	}

	wait := float64(r.config.InitialWait) * math.Pow(r.config.Multiplier, float64(attempt))
	wait = math.Min(wait, float64(r.config.MaxWait))

	// ±20% jitter.
	wait += wait * 0.2 * (2*rand.Float64() - 1)
	return time.Duration(math.Max(wait, 0))
}
