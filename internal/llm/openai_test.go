package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	openai "github.com/sashabaranov/go-openai"
)

func newTestOpenAIProvider(t *testing.T, handler http.HandlerFunc) *OpenAIProvider {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	config := openai.DefaultConfig("test-key")
	config.BaseURL = server.URL + "/v1"
	client := openai.NewClientWithConfig(config)

	return &OpenAIProvider{
		client: client,
		model:  "gpt-4o-mini",
	}
}

func TestOpenAIProvider_HappyPath(t *testing.T) {
	handler := func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"id":      "chatcmpl-test",
			"object":  "chat.completion",
			"created": 1234567890,
			"model":   "gpt-4o-mini",
			"choices": []map[string]any{
				{
					"index": 0,
					"message": map[string]any{
						"role":    "assistant",
						"content": `{"drafts":[]}`,
					},
					"finish_reason": "stop",
				},
			},
			"usage": map[string]any{
				"prompt_tokens":     40,
				"completion_tokens": 25,
				"total_tokens":      65,
			},
		})
	}

	p := newTestOpenAIProvider(t, handler)
	resp, err := p.Generate(context.Background(), Request{
		System:    "You write question templates.",
		Messages:  []Message{{Role: RoleUser, Content: "Draft one template."}},
		MaxTokens: 256,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Usage.InputTokens != 40 {
		t.Fatalf("expected 40 input tokens, got %d", resp.Usage.InputTokens)
	}
	if resp.Usage.OutputTokens != 25 {
		t.Fatalf("expected 25 output tokens, got %d", resp.Usage.OutputTokens)
	}
	if resp.StopReason != "end" {
		t.Fatalf("expected stop reason 'end', got %q", resp.StopReason)
	}
}

func TestOpenAIProvider_RateLimit(t *testing.T) {
	handler := func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusTooManyRequests)
		json.NewEncoder(w).Encode(map[string]any{
			"error": map[string]any{
				"type":    "tokens",
				"message": "Rate limit exceeded",
				"code":    "rate_limit_exceeded",
			},
		})
	}

	p := newTestOpenAIProvider(t, handler)
	_, err := p.Generate(context.Background(), Request{
		Messages:  []Message{{Role: RoleUser, Content: "test"}},
		MaxTokens: 100,
	})
	if err == nil {
		t.Fatal("expected error")
	}
	var rl *ErrRateLimit
	if !errors.As(err, &rl) {
		t.Fatalf("expected ErrRateLimit, got: %T (%v)", err, err)
	}
}

func TestOpenAIProvider_ServerError(t *testing.T) {
	handler := func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		json.NewEncoder(w).Encode(map[string]any{
			"error": map[string]any{
				"type":    "server_error",
				"message": "Internal server error",
			},
		})
	}

	p := newTestOpenAIProvider(t, handler)
	_, err := p.Generate(context.Background(), Request{
		Messages:  []Message{{Role: RoleUser, Content: "test"}},
		MaxTokens: 100,
	})
	if err == nil {
		t.Fatal("expected error")
	}
	var unavail *ErrProviderUnavailable
	if !errors.As(err, &unavail) {
		t.Fatalf("expected ErrProviderUnavailable, got: %T (%v)", err, err)
	}
}

func TestOpenAIProvider_ModelID(t *testing.T) {
	p := &OpenAIProvider{model: "gpt-4o-mini"}
	if p.ModelID() != "gpt-4o-mini" {
		t.Fatalf("expected 'gpt-4o-mini', got %q", p.ModelID())
	}
}

func TestOpenAIProvider_StrictOnlyWithoutBaseURL(t *testing.T) {
	direct, err := NewOpenAIProvider(OpenAIConfig{APIKey: "test-key", Model: "gpt-mini"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !direct.strict {
		t.Fatal("expected strict schemas against OpenAI")
	}
	if direct.ModelID() != "gpt-4.1-mini" {
		t.Fatalf("got %q, want gpt-4.1-mini", direct.ModelID())
	}

	routed, err := NewOpenAIProvider(OpenAIConfig{
		APIKey:  "test-key",
		Model:   "google/gemini-2.5-flash",
		BaseURL: OpenRouterBaseURL,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if routed.strict {
		t.Fatal("expected non-strict schemas through a gateway")
	}
	if routed.ModelID() != "google/gemini-2.5-flash" {
		t.Fatalf("got %q", routed.ModelID())
	}
}

func TestOpenAIProvider_SendsSchema(t *testing.T) {
	var got map[string]any
	handler := func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&got)
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"id":      "chatcmpl-test",
			"object":  "chat.completion",
			"model":   "gpt-4o-mini",
			"choices": []map[string]any{{"index": 0, "message": map[string]any{"role": "assistant", "content": `{"name":"Ann","age":9}`}, "finish_reason": "stop"}},
			"usage":   map[string]any{"prompt_tokens": 1, "completion_tokens": 1, "total_tokens": 2},
		})
	}

	p := newTestOpenAIProvider(t, handler)
	resp, err := p.Generate(context.Background(), Request{
		System:   "sys",
		Messages: []Message{{Role: RoleUser, Content: "go"}},
		Schema:   testSchema(),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(resp.Content) != `{"name":"Ann","age":9}` {
		t.Fatalf("unexpected content: %s", resp.Content)
	}
	format, _ := got["response_format"].(map[string]any)
	if format["type"] != "json_schema" {
		t.Fatalf("got response_format %v", got["response_format"])
	}
	msgs, _ := got["messages"].([]any)
	if len(msgs) != 2 {
		t.Fatalf("got %d messages, want system + user", len(msgs))
	}
}
