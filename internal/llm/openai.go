package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	openai "github.com/sashabaranov/go-openai"
)

// OpenRouterBaseURL is used for the "openrouter" provider, which speaks
// the OpenAI chat completions protocol.
const OpenRouterBaseURL = "https://openrouter.ai/api/v1"

var openaiModels = map[string]string{
	"gpt-mini": "gpt-4.1-mini",
	"gpt":      "gpt-4.1",
}

// OpenAIProvider implements Provider over any OpenAI-compatible API.
type OpenAIProvider struct {
	client *openai.Client
	model  string
	strict bool
}

// NewOpenAIProvider creates a provider for OpenAI, or for a compatible
// service when cfg.BaseURL is set.
func NewOpenAIProvider(cfg OpenAIConfig) (*OpenAIProvider, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("openai API key is required")
	}
	config := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		config.BaseURL = cfg.BaseURL
	}
	return &OpenAIProvider{
		client: openai.NewClientWithConfig(config),
		model:  resolveModel(cfg.Model, openaiModels),
		// Compatible gateways route to models that reject strict schemas.
		strict: cfg.BaseURL == "",
	}, nil
}

func (p *OpenAIProvider) Generate(ctx context.Context, req Request) (*Response, error) {
	chatReq := openai.ChatCompletionRequest{
		Model:               p.model,
		Messages:            openaiMessages(req),
		MaxCompletionTokens: req.MaxTokens,
		Temperature:         float32(req.Temperature),
	}
	if req.Schema != nil {
		schema, err := json.Marshal(req.Schema.Definition)
		if err != nil {
			return nil, fmt.Errorf("marshal schema: %w", err)
		}
		chatReq.ResponseFormat = &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONSchema,
			JSONSchema: &openai.ChatCompletionResponseFormatJSONSchema{
				Name:        req.Schema.Name,
				Description: req.Schema.Description,
				Schema:      json.RawMessage(schema),
				Strict:      p.strict,
			},
		}
	}

	resp, err := p.client.CreateChatCompletion(ctx, chatReq)
	if err != nil {
		var apiErr *openai.APIError
		if errors.As(err, &apiErr) {
			return nil, classifyStatus(apiErr.HTTPStatusCode, err)
		}
		return nil, &ErrProviderUnavailable{Err: err}
	}
	if len(resp.Choices) == 0 {
		return nil, &ErrInvalidResponse{Err: fmt.Errorf("no choices in OpenAI response")}
	}

	choice := resp.Choices[0]
	usage := Usage{
		InputTokens:  resp.Usage.PromptTokens,
		OutputTokens: resp.Usage.CompletionTokens,
		TotalTokens:  resp.Usage.TotalTokens,
	}
	stop := stopEnd
	if choice.FinishReason == openai.FinishReasonLength {
		stop = stopMaxTokens
	}
	return finish(req, json.RawMessage(choice.Message.Content), usage, resp.Model, stop)
}

func (p *OpenAIProvider) ModelID() string {
	return p.model
}

func openaiMessages(req Request) []openai.ChatCompletionMessage {
	messages := make([]openai.ChatCompletionMessage, 0, len(req.Messages)+1)
	if req.System != "" {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleSystem,
			Content: req.System,
		})
	}
	for _, m := range req.Messages {
		role := openai.ChatMessageRoleUser
		if m.Role == RoleAssistant {
			role = openai.ChatMessageRoleAssistant
		}
		messages = append(messages, openai.ChatCompletionMessage{Role: role, Content: m.Content})
	}
	return messages
}
