package engine

import (
	"bytes"
	"encoding/json"

	"github.com/qforge/qforge/internal/expr"
	"github.com/qforge/qforge/internal/validation"
)

// Issue kinds raised while rendering, in addition to the static ones in
// the validation package.
const (
	KindPlaceholder        = "placeholder_error"
	KindAnswer             = "answer_error"
	KindDiagramLineSkipped = "diagram_line_skipped"
	KindDiagramElement     = "diagram_element_error"
	KindSubstitutedParse   = "substituted_parse_error"
	KindInternal           = "internal_error"
)

// Issue is re-exported so callers of the engine need not import validation.
type Issue = validation.Issue

// Text is a rendered prose field.
type Text struct {
	Text string `json:"text"`
}

// Answer is one normalized answer option.
type Answer struct {
	Text    string `json:"text"`
	Correct bool   `json:"correct"`
}

// Diagram holds the rendered SVG and the substituted source it came from.
type Diagram struct {
	SVG string `json:"svg"`
	Raw string `json:"raw"`
}

// Metrics reports how long a render took.
type Metrics struct {
	GenerationTimeMs int64 `json:"generation_time_ms"`
}

// Parameter is one generated binding.
type Parameter struct {
	Name  string
	Value expr.Value
}

// Parameters lists bindings in declaration order. It encodes as a JSON
// object whose keys keep that order.
type Parameters []Parameter

// Get returns the value bound to name.
func (p Parameters) Get(name string) (expr.Value, bool) {
	for _, kv := range p {
		if kv.Name == name {
			return kv.Value, true
		}
	}
	return expr.Value{}, false
}

func (p Parameters) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, kv := range p {
		if i > 0 {
			buf.WriteByte(',')
		}
		k, err := json.Marshal(kv.Name)
		if err != nil {
			return nil, err
		}
		v, err := json.Marshal(kv.Value)
		if err != nil {
			return nil, err
		}
		buf.Write(k)
		buf.WriteByte(':')
		buf.Write(v)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// Result is the outcome of one render. Errors is non-empty only when no
// usable question could be produced.
type Result struct {
	Success             bool       `json:"success"`
	Question            Text       `json:"question"`
	Answer              *Text      `json:"answer,omitempty"`
	Answers             []Answer   `json:"answers"`
	Solution            Text       `json:"solution"`
	Diagram             Diagram    `json:"diagram"`
	Parameters          Parameters `json:"parameters"`
	Seed                int64      `json:"seed"`
	Attempts            int        `json:"attempts"`
	Warnings            []Issue    `json:"warnings"`
	Errors              []Issue    `json:"errors"`
	Metrics             Metrics    `json:"metrics"`
	SubstitutedDocument string     `json:"substituted_document,omitempty"`
}

func newResult(seed int64) *Result {
	return &Result{
		Answers:    []Answer{},
		Parameters: Parameters{},
		Seed:       seed,
		Warnings:   []Issue{},
		Errors:     []Issue{},
	}
}

func (r *Result) warn(kind, message string) {
	r.Warnings = append(r.Warnings, Issue{Kind: kind, Message: message})
}

func (r *Result) fail(issues ...Issue) {
	r.Success = false
	r.Errors = append(r.Errors, issues...)
}

// ErrorKinds lists the kinds of the result's errors in order.
func (r *Result) ErrorKinds() []string {
	kinds := make([]string, 0, len(r.Errors))
	for _, e := range r.Errors {
		kinds = append(kinds, e.Kind)
	}
	return kinds
}
