// Package llm talks to text-generation services that draft templates.
package llm

import (
	"context"
	"encoding/json"
)

// Provider generates structured output from a prompt.
type Provider interface {
	// Generate sends the request and returns the model output. When
	// req.Schema is set the content is JSON validated against it.
	Generate(ctx context.Context, req Request) (*Response, error)

	// ModelID returns the model identifier requests are sent to.
	ModelID() string
}

// Request describes one generation call.
type Request struct {
	System string

	// Messages is the conversation so far. Drafting sends one user
	// message; repairing a draft replays it with the model's answer.
	Messages []Message

	// Schema, when set, asks the provider for JSON matching it.
	Schema *Schema

	MaxTokens int

	// Temperature in [0, 1]. Zero leaves the provider default.
	Temperature float64
}

// Message is one turn of the conversation.
type Message struct {
	Role    Role
	Content string
}

// Role is the message sender role.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Schema is a named JSON Schema the output must satisfy. Name is used
// as the tool or schema name by the providers, e.g. "template-drafts".
type Schema struct {
	Name        string
	Description string
	Definition  map[string]any
}

// Response holds the model output.
type Response struct {
	Content json.RawMessage
	Usage   Usage
	Model   string

	// StopReason is normalized to "end" or "max_tokens".
	StopReason string
}

// Usage tracks token consumption for a single request.
type Usage struct {
	InputTokens  int
	OutputTokens int
	TotalTokens  int
}

// Add returns the sum of two usages.
func (u Usage) Add(o Usage) Usage {
	return Usage{
		InputTokens:  u.InputTokens + o.InputTokens,
		OutputTokens: u.OutputTokens + o.OutputTokens,
		TotalTokens:  u.TotalTokens + o.TotalTokens,
	}
}

const (
	stopEnd       = "end"
	stopMaxTokens = "max_tokens"
)

// finish turns raw provider output into a Response. Truncated output is
// rejected when a schema was requested since it cannot be valid JSON.
func finish(req Request, content json.RawMessage, usage Usage, model, stop string) (*Response, error) {
	if req.Schema != nil {
		if stop == stopMaxTokens {
			return nil, &ErrMaxTokensExceeded{Content: content}
		}
		if err := validateResponse(req.Schema, content); err != nil {
			return nil, err
		}
	}
	return &Response{
		Content:    content,
		Usage:      usage,
		Model:      model,
		StopReason: stop,
	}, nil
}

// resolveModel maps a friendly model name to a provider model ID.
// Unknown names pass through so full model IDs work too.
func resolveModel(name string, models map[string]string) string {
	if id, ok := models[name]; ok {
		return id
	}
	return name
}
