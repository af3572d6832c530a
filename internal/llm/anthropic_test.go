package llm

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// anthropicStub serves one canned Messages API reply and keeps the last
// request body.
type anthropicStub struct {
	status int
	reply  map[string]any
	body   []byte
}

func (s *anthropicStub) provider(t *testing.T) *AnthropicProvider {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.body, _ = io.ReadAll(r.Body)
		w.Header().Set("Content-Type", "application/json")
		if s.status != 0 {
			w.WriteHeader(s.status)
		}
		_ = json.NewEncoder(w).Encode(s.reply)
	}))
	t.Cleanup(server.Close)

	client := anthropic.NewClient(
		option.WithAPIKey("test-key"),
		option.WithBaseURL(server.URL),
		option.WithMaxRetries(0),
	)
	return &AnthropicProvider{client: &client, model: "claude-haiku-4-5-20251001"}
}

func anthropicMessage(text, stop string) map[string]any {
	return map[string]any{
		"id":          "msg_draft",
		"type":        "message",
		"role":        "assistant",
		"content":     []map[string]any{{"type": "text", "text": text}},
		"model":       "claude-haiku-4-5-20251001",
		"stop_reason": stop,
		"usage":       map[string]any{"input_tokens": 120, "output_tokens": 40},
	}
}

func anthropicError(kind string) map[string]any {
	return map[string]any{"type": "error", "error": map[string]any{"type": kind, "message": kind}}
}

func draftRequest(schema *Schema) Request {
	return Request{
		System:    "You write question templates.",
		Messages:  []Message{{Role: RoleUser, Content: "Draft one template on place value."}},
		Schema:    schema,
		MaxTokens: 256,
	}
}

func TestAnthropicProvider_DraftReply(t *testing.T) {
	stub := &anthropicStub{reply: anthropicMessage(`{"name":"Ada","age":36}`, "end_turn")}
	resp, err := stub.provider(t).Generate(context.Background(), draftRequest(testSchema()))
	require.NoError(t, err)

	assert.JSONEq(t, `{"name":"Ada","age":36}`, string(resp.Content))
	assert.Equal(t, Usage{InputTokens: 120, OutputTokens: 40, TotalTokens: 160}, resp.Usage)
	assert.Equal(t, stopEnd, resp.StopReason)
	assert.Equal(t, "claude-haiku-4-5-20251001", resp.Model)

	var sent map[string]any
	require.NoError(t, json.Unmarshal(stub.body, &sent))
	assert.EqualValues(t, 256, sent["max_tokens"])
	assert.Contains(t, string(stub.body), "You write question templates.")
	assert.Contains(t, string(stub.body), `"age"`, "schema should be forwarded")
}

func TestAnthropicProvider_ReplyFailures(t *testing.T) {
	tests := []struct {
		name    string
		stub    *anthropicStub
		wantErr any
	}{
		{"rate limited", &anthropicStub{status: http.StatusTooManyRequests, reply: anthropicError("rate_limit_error")}, new(*ErrRateLimit)},
		{"server error", &anthropicStub{status: http.StatusInternalServerError, reply: anthropicError("api_error")}, new(*ErrProviderUnavailable)},
		{"overloaded", &anthropicStub{status: 529, reply: anthropicError("overloaded_error")}, new(*ErrProviderUnavailable)},
		{"payload misses a field", &anthropicStub{reply: anthropicMessage(`{"name":"Ada"}`, "end_turn")}, new(*ErrInvalidResponse)},
		{"payload cut off", &anthropicStub{reply: anthropicMessage(`{"name":"Ad`, "max_tokens")}, new(*ErrMaxTokensExceeded)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.stub.provider(t).Generate(context.Background(), draftRequest(testSchema()))
			require.Error(t, err)
			assert.ErrorAs(t, err, tt.wantErr)
		})
	}
}

func TestAnthropicProvider_NoTextBlock(t *testing.T) {
	reply := anthropicMessage("", "end_turn")
	reply["content"] = []map[string]any{}
	stub := &anthropicStub{reply: reply}

	_, err := stub.provider(t).Generate(context.Background(), draftRequest(nil))
	var inv *ErrInvalidResponse
	assert.ErrorAs(t, err, &inv)
}

func TestAnthropicModelAliases(t *testing.T) {
	for alias, want := range map[string]string{
		"claude-sonnet":            "claude-sonnet-4-5-20250929",
		"claude-haiku":             "claude-haiku-4-5-20251001",
		"claude-sonnet-4-20250514": "claude-sonnet-4-20250514",
	} {
		assert.Equal(t, want, resolveModel(alias, anthropicModels), alias)
	}
	assert.Equal(t, "claude-opus-x", (&AnthropicProvider{model: "claude-opus-x"}).ModelID())
}
