package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"google.golang.org/genai"
)

var geminiModels = map[string]string{
	"gemini-flash": "gemini-2.5-flash",
	"gemini-pro":   "gemini-2.5-pro",
}

// GeminiProvider implements Provider using the Google Gemini SDK.
type GeminiProvider struct {
	client *genai.Client
	model  string
}

// NewGeminiProvider creates a new Gemini provider.
func NewGeminiProvider(ctx context.Context, cfg GeminiConfig) (*GeminiProvider, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("gemini API key is required")
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create Gemini client: %w", err)
	}
	return &GeminiProvider{
		client: client,
		model:  resolveModel(cfg.Model, geminiModels),
	}, nil
}

func (p *GeminiProvider) Generate(ctx context.Context, req Request) (*Response, error) {
	config := &genai.GenerateContentConfig{
		MaxOutputTokens: int32(req.MaxTokens),
	}
	if req.Temperature > 0 {
		temp := float32(req.Temperature)
		config.Temperature = &temp
	}
	if req.System != "" {
		config.SystemInstruction = &genai.Content{
			Parts: []*genai.Part{{Text: req.System}},
		}
	}
	if req.Schema != nil {
		config.ResponseMIMEType = "application/json"
		config.ResponseSchema = geminiSchema(req.Schema.Definition)
	}

	result, err := p.client.Models.GenerateContent(ctx, p.model, geminiContents(req.Messages), config)
	if err != nil {
		var apiErr *genai.APIError
		if errors.As(err, &apiErr) {
			return nil, classifyStatus(apiErr.Code, err)
		}
		return nil, &ErrProviderUnavailable{Err: err}
	}

	var usage Usage
	if m := result.UsageMetadata; m != nil {
		usage = Usage{
			InputTokens:  int(m.PromptTokenCount),
			OutputTokens: int(m.CandidatesTokenCount),
			TotalTokens:  int(m.TotalTokenCount),
		}
	}
	stop := stopEnd
	if len(result.Candidates) > 0 && result.Candidates[0].FinishReason == "MAX_TOKENS" {
		stop = stopMaxTokens
	}
	return finish(req, json.RawMessage(result.Text()), usage, p.model, stop)
}

func (p *GeminiProvider) ModelID() string {
	return p.model
}

func geminiContents(msgs []Message) []*genai.Content {
	out := make([]*genai.Content, len(msgs))
	for i, m := range msgs {
		role := "user"
		if m.Role == RoleAssistant {
			role = "model"
		}
		out[i] = &genai.Content{
			Role:  role,
			Parts: []*genai.Part{{Text: m.Content}},
		}
	}
	return out
}

var geminiTypes = map[string]genai.Type{
	"string":  genai.TypeString,
	"number":  genai.TypeNumber,
	"integer": genai.TypeInteger,
	"boolean": genai.TypeBoolean,
	"array":   genai.TypeArray,
	"object":  genai.TypeObject,
}

// geminiSchema converts a JSON Schema map into the subset genai accepts.
func geminiSchema(def map[string]any) *genai.Schema {
	schema := &genai.Schema{Type: genai.TypeString}
	if t, ok := def["type"].(string); ok {
		if gt, ok := geminiTypes[t]; ok {
			schema.Type = gt
		}
	}
	if desc, ok := def["description"].(string); ok {
		schema.Description = desc
	}
	if props, ok := def["properties"].(map[string]any); ok {
		schema.Properties = make(map[string]*genai.Schema, len(props))
		for k, v := range props {
			if sub, ok := v.(map[string]any); ok {
				schema.Properties[k] = geminiSchema(sub)
			}
		}
	}
	schema.Required = stringList(def["required"])
	schema.Enum = stringList(def["enum"])
	if items, ok := def["items"].(map[string]any); ok {
		schema.Items = geminiSchema(items)
	}
	return schema
}

func stringList(v any) []string {
	list, ok := v.([]any)
	if !ok {
		return nil
	}
	var out []string
	for _, e := range list {
		if s, ok := e.(string); ok {
			out = append(out, s)
		}
	}
	return out
}
