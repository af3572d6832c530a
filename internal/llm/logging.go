package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/qforge/qforge/internal/store"
)

// LoggingProvider records every request as an llm_request event when an
// event repo is set and always writes a log line.
type LoggingProvider struct {
	inner    Provider
	provider string
	events   store.EventRepo
	log      *slog.Logger
}

// WithLogging wraps p. events and log may be nil.
func WithLogging(p Provider, provider string, events store.EventRepo, log *slog.Logger) Provider {
	if log == nil {
		log = slog.Default()
	}
	return &LoggingProvider{inner: p, provider: provider, events: events, log: log}
}

func (l *LoggingProvider) Generate(ctx context.Context, req Request) (*Response, error) {
	start := time.Now()
	resp, err := l.inner.Generate(ctx, req)

	data := store.LLMRequestEventData{
		Provider:    l.provider,
		Model:       l.inner.ModelID(),
		Purpose:     PurposeFrom(ctx),
		LatencyMs:   time.Since(start).Milliseconds(),
		Success:     err == nil,
		RequestBody: serializeRequest(req),
	}
	if resp != nil {
		data.InputTokens = resp.Usage.InputTokens
		data.OutputTokens = resp.Usage.OutputTokens
		if resp.Model != "" {
			data.Model = resp.Model
		}
		data.ResponseBody = string(resp.Content)
	}
	if err != nil {
		data.ErrorMessage = err.Error()
	}

	attrs := []any{
		"provider", data.Provider,
		"model", data.Model,
		"purpose", data.Purpose,
		"latency_ms", data.LatencyMs,
		"input_tokens", data.InputTokens,
		"output_tokens", data.OutputTokens,
	}
	if err != nil {
		l.log.Warn("llm request failed", append(attrs, "err", err)...)
	} else {
		l.log.Debug("llm request", attrs...)
	}

	if l.events != nil {
		// The request outcome stands even if recording it fails.
		if logErr := l.events.AppendLLMRequest(ctx, data); logErr != nil {
			l.log.Warn("record llm request event", "err", logErr)
		}
	}
	return resp, err
}

func (l *LoggingProvider) ModelID() string {
	return l.inner.ModelID()
}

// serializeRequest renders the prompt in a readable form for the event log.
func serializeRequest(req Request) string {
	var b strings.Builder
	if req.System != "" {
		fmt.Fprintf(&b, "[system]\n%s\n\n", req.System)
	}
	for _, m := range req.Messages {
		fmt.Fprintf(&b, "[%s]\n%s\n\n", m.Role, m.Content)
	}
	if req.Schema != nil {
		if def, err := json.Marshal(req.Schema.Definition); err == nil {
			fmt.Fprintf(&b, "[schema: %s]\n%s\n", req.Schema.Name, def)
		}
	}
	return b.String()
}
