// Package authoring drafts new templates with a text-generation model
// and checks each draft the same way a hand-written template is checked.
package authoring

import (
	"github.com/qforge/qforge/internal/llm"
	"github.com/qforge/qforge/internal/validation"
)

// Difficulty labels accepted in drafts.
const (
	DifficultyEasy   = "easy"
	DifficultyMedium = "medium"
	DifficultyHard   = "hard"
)

// DraftInput describes what to draft.
type DraftInput struct {
	Skill      string `validate:"required"`
	Grade      int    `validate:"min=0,max=12"`
	Difficulty string `validate:"omitempty,oneof=easy medium hard"`
	Count      int    `validate:"min=1,max=10"`

	// Avoid lists question texts the drafts must not repeat.
	Avoid []string
}

// Draft is one generated template.
type Draft struct {
	ID         string            `json:"id"`
	Title      string            `json:"title"`
	Difficulty string            `json:"difficulty"`
	Content    string            `json:"content"`
	Validation validation.Result `json:"validation"`
}

// Valid reports whether the draft passed static validation.
func (d Draft) Valid() bool { return d.Validation.Valid }

// Batch is the outcome of one Draft call.
type Batch struct {
	Drafts   []Draft   `json:"drafts"`
	Usage    llm.Usage `json:"usage"`
	Model    string    `json:"model"`
	Repaired bool      `json:"repaired"`

	// Duplicates counts drafts dropped for repeating a question.
	Duplicates int `json:"duplicates"`
}

// Config controls drafting.
type Config struct {
	MaxTokens   int
	Temperature float64

	// RepairAttempts is how many times drafts that fail validation are
	// sent back to the model with the reported errors.
	RepairAttempts int

	// MaxAvoid caps how many prior questions go into the prompt.
	MaxAvoid int
}

// DefaultConfig returns the recommended drafting settings.
func DefaultConfig() Config {
	return Config{
		MaxTokens:      4096,
		Temperature:    0.7,
		RepairAttempts: 1,
		MaxAvoid:       20,
	}
}
