package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"github.com/qforge/qforge/internal/store"
)

type recordingEvents struct {
	store.EventRepo
	got []store.LLMRequestEventData
	err error
}

func (r *recordingEvents) AppendLLMRequest(_ context.Context, data store.LLMRequestEventData) error {
	r.got = append(r.got, data)
	return r.err
}

func TestLogging_RecordsEvent(t *testing.T) {
	events := &recordingEvents{}
	mock := NewMockProvider(MockResponse{
		Content: json.RawMessage(`{"ok":true}`),
		Usage:   Usage{InputTokens: 7, OutputTokens: 3, TotalTokens: 10},
	})
	p := WithLogging(mock, "mock", events, slog.New(slog.DiscardHandler))

	ctx := WithPurpose(context.Background(), PurposeDraft)
	if _, err := p.Generate(ctx, Request{System: "sys", Messages: []Message{{Role: RoleUser, Content: "hi"}}}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(events.got) != 1 {
		t.Fatalf("got %d events, want 1", len(events.got))
	}
	ev := events.got[0]
	if ev.Provider != "mock" || ev.Model != "mock" || ev.Purpose != PurposeDraft {
		t.Fatalf("unexpected event: %+v", ev)
	}
	if !ev.Success || ev.InputTokens != 7 || ev.OutputTokens != 3 {
		t.Fatalf("unexpected usage: %+v", ev)
	}
	if !strings.Contains(ev.RequestBody, "[system]\nsys") || !strings.Contains(ev.RequestBody, "[user]\nhi") {
		t.Fatalf("unexpected request body: %q", ev.RequestBody)
	}
	if ev.ResponseBody != `{"ok":true}` {
		t.Fatalf("unexpected response body: %q", ev.ResponseBody)
	}
}

func TestLogging_FailureAndRecordError(t *testing.T) {
	var buf bytes.Buffer
	events := &recordingEvents{err: errors.New("disk full")}
	mock := NewMockProvider(MockResponse{Err: &ErrRateLimit{Err: errors.New("429")}})
	p := WithLogging(mock, "mock", events, slog.New(slog.NewTextHandler(&buf, nil)))

	_, err := p.Generate(context.Background(), Request{})
	var rl *ErrRateLimit
	if !errors.As(err, &rl) {
		t.Fatalf("expected the provider error, got: %v", err)
	}
	if len(events.got) != 1 || events.got[0].Success || events.got[0].ErrorMessage == "" {
		t.Fatalf("unexpected events: %+v", events.got)
	}
	out := buf.String()
	if !strings.Contains(out, "llm request failed") || !strings.Contains(out, "record llm request event") {
		t.Fatalf("unexpected log output: %s", out)
	}
}

func TestLogging_NilEvents(t *testing.T) {
	mock := NewMockProvider(MockResponse{Content: json.RawMessage(`{}`)})
	p := WithLogging(mock, "mock", nil, nil)
	if _, err := p.Generate(context.Background(), Request{}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
