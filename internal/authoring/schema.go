package authoring

import "github.com/qforge/qforge/internal/llm"

var parameterSchema = map[string]any{
	"type": "object",
	"properties": map[string]any{
		"name": map[string]any{
			"type":        "string",
			"description": "Identifier used in {{ }} placeholders, lowercase letters, digits and underscores",
		},
		"type": map[string]any{
			"type": "string",
			"enum": []any{"int", "float", "choice", "expression", "fraction", "fraction_unsimplified", "literal"},
		},
		"min": map[string]any{"type": "number", "description": "Inclusive lower bound for int and float, else 0"},
		"max": map[string]any{"type": "number", "description": "Inclusive upper bound for int and float, else 0"},
		"value": map[string]any{
			"type":        "string",
			"description": "Expression over earlier parameters for expression, \"num/den\" for fractions, the value for literal, else empty",
		},
		"values": map[string]any{
			"type":        "array",
			"items":       map[string]any{"type": "string"},
			"description": "Candidates for choice, else empty",
		},
	},
	"required":             []any{"name", "type", "min", "max", "value", "values"},
	"additionalProperties": false,
}

var answerSchema = map[string]any{
	"type": "object",
	"properties": map[string]any{
		"kind": map[string]any{
			"type":        "string",
			"enum":        []any{"int", "fraction", "text"},
			"description": "int and fraction values are expressions evaluated after substitution",
		},
		"value":   map[string]any{"type": "string"},
		"correct": map[string]any{"type": "boolean"},
	},
	"required":             []any{"kind", "value", "correct"},
	"additionalProperties": false,
}

var constraintSchema = map[string]any{
	"type": "object",
	"properties": map[string]any{
		"expr":    map[string]any{"type": "string", "description": "Boolean expression over parameters"},
		"message": map[string]any{"type": "string"},
	},
	"required":             []any{"expr", "message"},
	"additionalProperties": false,
}

// DraftSchema is the structured output requested from the model.
var DraftSchema = &llm.Schema{
	Name:        "template-drafts",
	Description: "Parameterized question templates",
	Definition: map[string]any{
		"type": "object",
		"properties": map[string]any{
			"drafts": map[string]any{
				"type": "array",
				"items": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"title":       map[string]any{"type": "string"},
						"difficulty":  map[string]any{"type": "string", "enum": []any{DifficultyEasy, DifficultyMedium, DifficultyHard}},
						"parameters":  map[string]any{"type": "array", "items": parameterSchema},
						"constraints": map[string]any{"type": "array", "items": constraintSchema},
						"question":    map[string]any{"type": "string", "description": "Question text with {{ }} placeholders"},
						"answers":     map[string]any{"type": "array", "items": answerSchema},
						"solution":    map[string]any{"type": "string", "description": "Worked solution with {{ }} placeholders"},
						"diagram": map[string]any{
							"type":        "string",
							"description": "Diagram source, one statement per line, or empty",
						},
					},
					"required":             []any{"title", "difficulty", "parameters", "constraints", "question", "answers", "solution", "diagram"},
					"additionalProperties": false,
				},
			},
		},
		"required":             []any{"drafts"},
		"additionalProperties": false,
	},
}

type draftsOutput struct {
	Drafts []draftOutput `json:"drafts"`
}

type draftOutput struct {
	Title       string             `json:"title"`
	Difficulty  string             `json:"difficulty"`
	Parameters  []parameterOutput  `json:"parameters"`
	Constraints []constraintOutput `json:"constraints"`
	Question    string             `json:"question"`
	Answers     []answerOutput     `json:"answers"`
	Solution    string             `json:"solution"`
	Diagram     string             `json:"diagram"`
}

type parameterOutput struct {
	Name   string   `json:"name"`
	Type   string   `json:"type"`
	Min    float64  `json:"min"`
	Max    float64  `json:"max"`
	Value  string   `json:"value"`
	Values []string `json:"values"`
}

type constraintOutput struct {
	Expr    string `json:"expr"`
	Message string `json:"message"`
}

type answerOutput struct {
	Kind    string `json:"kind"`
	Value   string `json:"value"`
	Correct bool   `json:"correct"`
}
