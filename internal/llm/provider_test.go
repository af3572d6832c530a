package llm

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"testing"
)

func TestMockProvider_ReturnsCannedResponses(t *testing.T) {
	mock := NewMockProvider(
		MockResponse{Content: json.RawMessage(`{"a":1}`), Usage: Usage{InputTokens: 10, OutputTokens: 5, TotalTokens: 15}},
		MockResponse{Content: json.RawMessage(`{"b":2}`)},
	)

	resp1, err := mock.Generate(context.Background(), Request{Messages: []Message{{Role: RoleUser, Content: "first"}}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(resp1.Content) != `{"a":1}` {
		t.Fatalf("got %s, want {\"a\":1}", resp1.Content)
	}
	if resp1.Usage.InputTokens != 10 {
		t.Fatalf("got %d input tokens, want 10", resp1.Usage.InputTokens)
	}
	if resp1.StopReason != "end" {
		t.Fatalf("got stop reason %q, want end", resp1.StopReason)
	}

	resp2, err := mock.Generate(context.Background(), Request{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(resp2.Content) != `{"b":2}` {
		t.Fatalf("got %s, want {\"b\":2}", resp2.Content)
	}
}

func TestMockProvider_EmptyQueueReturnsError(t *testing.T) {
	_, err := NewMockProvider().Generate(context.Background(), Request{})
	var unavail *ErrProviderUnavailable
	if !errors.As(err, &unavail) {
		t.Fatalf("expected ErrProviderUnavailable, got: %T", err)
	}
}

func TestMockProvider_RecordsCalls(t *testing.T) {
	mock := NewMockProvider(MockResponse{Content: json.RawMessage(`{}`)})
	_, _ = mock.Generate(context.Background(), Request{
		System:   "sys",
		Messages: []Message{{Role: RoleUser, Content: "hello"}},
	})

	if mock.CallCount() != 1 {
		t.Fatalf("got %d calls, want 1", mock.CallCount())
	}
	if mock.Requests()[0].System != "sys" {
		t.Fatalf("got system %q, want sys", mock.Requests()[0].System)
	}
}

func TestMockProvider_ChecksSchema(t *testing.T) {
	mock := NewMockProvider(MockResponse{Content: json.RawMessage(`{"name":"x"}`)})
	_, err := mock.Generate(context.Background(), Request{Schema: testSchema()})
	var inv *ErrInvalidResponse
	if !errors.As(err, &inv) {
		t.Fatalf("expected ErrInvalidResponse, got: %v", err)
	}
}

func TestFinish_TruncatedStructuredOutput(t *testing.T) {
	_, err := finish(Request{Schema: testSchema()}, json.RawMessage(`{"name":`), Usage{}, "m", stopMaxTokens)
	var maxTok *ErrMaxTokensExceeded
	if !errors.As(err, &maxTok) {
		t.Fatalf("expected ErrMaxTokensExceeded, got: %v", err)
	}

	resp, err := finish(Request{}, json.RawMessage(`"partial`), Usage{}, "m", stopMaxTokens)
	if err != nil {
		t.Fatalf("unstructured output should pass through: %v", err)
	}
	if resp.StopReason != stopMaxTokens {
		t.Fatalf("got stop reason %q", resp.StopReason)
	}
}

func TestPurposeFrom_DefaultsToUnlabelled(t *testing.T) {
	ctx := context.Background()
	if p := PurposeFrom(ctx); p != PurposeUnlabelled {
		t.Fatalf("got %q, want %q", p, PurposeUnlabelled)
	}
	ctx = WithPurpose(ctx, PurposeDraft)
	if p := PurposeFrom(ctx); p != "template-draft" {
		t.Fatalf("got %q, want template-draft", p)
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{"anthropic without key", Config{Provider: "anthropic"}, true},
		{"anthropic with key", Config{Provider: "anthropic", Anthropic: AnthropicConfig{APIKey: "sk-test"}}, false},
		{"openai without key", Config{Provider: "openai"}, true},
		{"openai with key", Config{Provider: "openai", OpenAI: OpenAIConfig{APIKey: "sk-test"}}, false},
		{"openrouter with key", Config{Provider: "openrouter", OpenRouter: OpenAIConfig{APIKey: "sk-or"}}, false},
		{"gemini without key", Config{Provider: "gemini"}, true},
		{"mock needs no key", Config{Provider: "mock"}, false},
		{"unknown provider", Config{Provider: "unknown"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestDiscoverConfig(t *testing.T) {
	for _, k := range []string{"GEMINI_API_KEY", "OPENAI_API_KEY", "ANTHROPIC_API_KEY", "OPENROUTER_API_KEY"} {
		t.Setenv(k, "")
	}
	if _, ok := DiscoverConfig(); ok {
		t.Fatal("expected no provider without keys")
	}

	t.Setenv("ANTHROPIC_API_KEY", "sk-a")
	t.Setenv("OPENAI_API_KEY", "sk-o")
	cfg, ok := DiscoverConfig()
	if !ok {
		t.Fatal("expected a provider")
	}
	if cfg.Provider != ProviderOpenAI || cfg.OpenAI.APIKey != "sk-o" {
		t.Fatalf("got provider %q key %q, want openai sk-o", cfg.Provider, cfg.OpenAI.APIKey)
	}
}

func TestNewProvider_Mock(t *testing.T) {
	p, err := NewProvider(context.Background(), Config{Provider: ProviderMock}, nil, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.ModelID() != "mock" {
		t.Fatalf("got %q, want mock", p.ModelID())
	}
}

func TestNewProvider_OpenRouterDefaultsBaseURL(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Provider = ProviderOpenRouter
	cfg.OpenRouter = OpenAIConfig{APIKey: "sk-or", Model: "anthropic/claude-haiku-4.5"}

	p, err := NewProvider(context.Background(), cfg, nil, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.ModelID() != "anthropic/claude-haiku-4.5" {
		t.Fatalf("got %q", p.ModelID())
	}
}

func TestNewProvider_RejectsMissingKey(t *testing.T) {
	if _, err := NewProvider(context.Background(), Config{Provider: ProviderGemini}, nil, nil); err == nil {
		t.Fatal("expected error")
	}
}

func TestEstimateCost(t *testing.T) {
	cost, ok := EstimateCost("gpt-4o-mini", Usage{InputTokens: 1_000_000, OutputTokens: 500_000})
	if !ok {
		t.Fatal("expected gpt-4o-mini to be priced")
	}
	if math.Abs(cost-0.45) > 1e-9 {
		t.Fatalf("got %v, want 0.45", cost)
	}
	if _, ok := EstimateCost("mock", Usage{}); ok {
		t.Fatal("mock should not be priced")
	}
}

func TestUsageAdd(t *testing.T) {
	u := Usage{1, 2, 3}.Add(Usage{10, 20, 30})
	if u != (Usage{11, 22, 33}) {
		t.Fatalf("got %+v", u)
	}
}

func TestMockProvider_RespondAfterQueue(t *testing.T) {
	mock := NewMockProvider(MockResponse{Content: json.RawMessage(`{"n":1}`)})
	mock.Respond = func(req Request) MockResponse {
		return MockResponse{Content: json.RawMessage(`{"echo":"` + req.Messages[0].Content + `"}`)}
	}
	req := Request{Messages: []Message{{Role: RoleUser, Content: "hi"}}}

	first, err := mock.Generate(context.Background(), req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(first.Content) != `{"n":1}` {
		t.Fatalf("got %s, want queued response first", first.Content)
	}
	second, err := mock.Generate(context.Background(), req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(second.Content) != `{"echo":"hi"}` {
		t.Fatalf("got %s", second.Content)
	}
}

func TestMockProvider_Truncated(t *testing.T) {
	mock := NewMockProvider(MockResponse{Content: json.RawMessage(`{"name":`), Truncated: true})
	_, err := mock.Generate(context.Background(), Request{Schema: testSchema()})
	var maxTok *ErrMaxTokensExceeded
	if !errors.As(err, &maxTok) {
		t.Fatalf("expected ErrMaxTokensExceeded, got: %v", err)
	}
}
