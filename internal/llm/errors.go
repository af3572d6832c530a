package llm

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// ErrRateLimit is returned when the provider answers 429. RetryAfter is
// zero unless the provider sent a hint.
type ErrRateLimit struct {
	RetryAfter time.Duration
	Err        error
}

func (e *ErrRateLimit) Error() string {
	if e.RetryAfter > 0 {
		return fmt.Sprintf("provider rate limit, retry in %s: %v", e.RetryAfter, e.Err)
	}
	return fmt.Sprintf("provider rate limit: %v", e.Err)
}

func (e *ErrRateLimit) Unwrap() error { return e.Err }

// ErrProviderUnavailable covers transport failures and 5xx answers.
type ErrProviderUnavailable struct {
	Err error
}

func (e *ErrProviderUnavailable) Error() string {
	if e.Err == nil {
		return "provider unavailable"
	}
	return "provider unavailable: " + e.Err.Error()
}

func (e *ErrProviderUnavailable) Unwrap() error { return e.Err }

// ErrInvalidResponse carries a draft payload that failed its JSON schema.
// The retry decorator asks again when it sees one.
type ErrInvalidResponse struct {
	Content json.RawMessage
	Err     error
}

func (e *ErrInvalidResponse) Error() string {
	return fmt.Sprintf("draft payload rejected by schema: %v", e.Err)
}

func (e *ErrInvalidResponse) Unwrap() error { return e.Err }

// ErrMaxTokensExceeded means a structured payload stopped at MaxTokens.
// Content holds the partial text; it is never retried.
type ErrMaxTokensExceeded struct {
	Content json.RawMessage
}

func (e *ErrMaxTokensExceeded) Error() string {
	return fmt.Sprintf("draft payload cut off at max tokens after %d bytes", len(e.Content))
}

// classifyStatus maps an SDK error carrying an HTTP status onto the
// package error types.
func classifyStatus(status int, err error) error {
	if status == http.StatusTooManyRequests {
		return &ErrRateLimit{Err: err}
	}
	return &ErrProviderUnavailable{Err: err}
}
