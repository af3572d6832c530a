package llm

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// answerSchema mirrors the strict shape used for structured output: every
// property required and no extras.
var answerSchema = &Schema{
	Name:        "test-answers",
	Description: "Answer options for a question",
	Definition: map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"required":             []any{"question", "answers", "difficulty"},
		"properties": map[string]any{
			"question":   map[string]any{"type": "string"},
			"difficulty": map[string]any{"type": "string", "enum": []any{"easy", "medium", "hard"}},
			"answers": map[string]any{
				"type": "array",
				"items": map[string]any{
					"type":                 "object",
					"additionalProperties": false,
					"required":             []any{"text", "correct"},
					"properties": map[string]any{
						"text":    map[string]any{"type": "string"},
						"correct": map[string]any{"type": "boolean"},
					},
				},
			},
		},
	},
}

func TestValidateResponse(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		invalid bool
	}{
		{"valid", `{"question":"2+2?","difficulty":"easy","answers":[{"text":"4","correct":true}]}`, false},
		{"empty answers", `{"question":"2+2?","difficulty":"easy","answers":[]}`, false},
		{"missing required", `{"question":"2+2?","answers":[]}`, true},
		{"extra property", `{"question":"q","difficulty":"easy","answers":[],"hint":"x"}`, true},
		{"bad enum", `{"question":"q","difficulty":"tricky","answers":[]}`, true},
		{"nested wrong type", `{"question":"q","difficulty":"hard","answers":[{"text":"4","correct":"yes"}]}`, true},
		{"malformed", `{question: 1}`, true},
		{"empty", ``, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateResponse(answerSchema, json.RawMessage(tt.raw))
			if !tt.invalid {
				assert.NoError(t, err)
				return
			}
			var inv *ErrInvalidResponse
			require.ErrorAs(t, err, &inv)
			assert.Equal(t, tt.raw, string(inv.Content))
		})
	}
}

func TestValidateResponse_NilSchemaAcceptsAnything(t *testing.T) {
	assert.NoError(t, validateResponse(nil, json.RawMessage(`not even json`)))
}

func TestCompileSchema_Cached(t *testing.T) {
	first, err := compileSchema(answerSchema)
	require.NoError(t, err)
	second, err := compileSchema(answerSchema)
	require.NoError(t, err)
	assert.Same(t, first, second)
}

func TestValidateResponse_BrokenSchemaIsNotInvalidResponse(t *testing.T) {
	broken := &Schema{
		Name:       "test-broken",
		Definition: map[string]any{"type": 42},
	}
	err := validateResponse(broken, json.RawMessage(`{}`))
	require.Error(t, err)
	var inv *ErrInvalidResponse
	assert.False(t, errors.As(err, &inv), "schema errors must not be retried as bad output")
}

// testSchema requires name and a non-negative age.
func testSchema() *Schema {
	return &Schema{
		Name: "test-person",
		Definition: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"name": map[string]any{"type": "string"},
				"age":  map[string]any{"type": "integer", "minimum": 0},
			},
			"required": []any{"name", "age"},
		},
	}
}
