package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

var anthropicModels = map[string]string{
	"claude-sonnet": "claude-sonnet-4-5-20250929",
	"claude-haiku":  "claude-haiku-4-5-20251001",
	"claude-opus":   "claude-opus-4-5-20251101",
}

// AnthropicProvider implements Provider using the Anthropic SDK.
type AnthropicProvider struct {
	client *anthropic.Client
	model  string
}

// NewAnthropicProvider creates a new Anthropic provider.
func NewAnthropicProvider(cfg AnthropicConfig) (*AnthropicProvider, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("anthropic API key is required")
	}
	client := anthropic.NewClient(option.WithAPIKey(cfg.APIKey))
	return &AnthropicProvider{
		client: &client,
		model:  resolveModel(cfg.Model, anthropicModels),
	}, nil
}

func (p *AnthropicProvider) Generate(ctx context.Context, req Request) (*Response, error) {
	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(p.model),
		MaxTokens: int64(req.MaxTokens),
		Messages:  anthropicMessages(req.Messages),
	}
	if req.System != "" {
		params.System = []anthropic.TextBlockParam{{Text: req.System}}
	}
	if req.Temperature > 0 {
		params.Temperature = anthropic.Float(req.Temperature)
	}
	if req.Schema != nil {
		params.OutputConfig = anthropic.OutputConfigParam{
			Format: anthropic.JSONOutputFormatParam{
				Schema: req.Schema.Definition,
			},
		}
	}

	msg, err := p.client.Messages.New(ctx, params)
	if err != nil {
		var apiErr *anthropic.Error
		if errors.As(err, &apiErr) {
			return nil, classifyStatus(apiErr.StatusCode, err)
		}
		return nil, &ErrProviderUnavailable{Err: err}
	}

	var content json.RawMessage
	for _, block := range msg.Content {
		if block.Type == "text" {
			content = json.RawMessage(block.Text)
			break
		}
	}
	if content == nil {
		return nil, &ErrInvalidResponse{Err: fmt.Errorf("no text content in Anthropic response")}
	}

	usage := Usage{
		InputTokens:  int(msg.Usage.InputTokens),
		OutputTokens: int(msg.Usage.OutputTokens),
		TotalTokens:  int(msg.Usage.InputTokens + msg.Usage.OutputTokens),
	}
	stop := stopEnd
	if msg.StopReason == "max_tokens" {
		stop = stopMaxTokens
	}
	return finish(req, content, usage, string(msg.Model), stop)
}

func (p *AnthropicProvider) ModelID() string {
	return p.model
}

func anthropicMessages(msgs []Message) []anthropic.MessageParam {
	out := make([]anthropic.MessageParam, len(msgs))
	for i, m := range msgs {
		role := anthropic.MessageParamRoleUser
		if m.Role == RoleAssistant {
			role = anthropic.MessageParamRoleAssistant
		}
		out[i] = anthropic.MessageParam{
			Role:    role,
			Content: []anthropic.ContentBlockParamUnion{anthropic.NewTextBlock(m.Content)},
		}
	}
	return out
}
