// Package validation checks template documents before any randomness is
// spent, and enforces constraints and rules while parameters are generated.
package validation

import "fmt"

// Issue kinds. Their string values are part of the result contract.
const (
	KindDocumentParse          = "document_parse_error"
	KindInvalidTemplate        = "invalid_template"
	KindMissingField           = "schema_missing_field"
	KindTypeError              = "schema_type_error"
	KindParameterOrder         = "parameter_order_error"
	KindConstraintMissingExpr  = "constraint_missing_expr"
	KindConstraintSyntax       = "constraint_syntax_error"
	KindRuleMissingCheck       = "rule_missing_check"
	KindRuleSyntax             = "rule_syntax_error"
	KindExpressionSyntax       = "expression_syntax_error"
	KindUndefinedParameter     = "undefined_parameter"
	KindLatexBraceMismatch     = "latex_brace_mismatch"
	KindDiagramType            = "diagram_type_error"
	KindDiagramMissingElements = "diagram_missing_elements"
	KindDiagramUnknownType     = "diagram_unknown_type"
	KindUnusedParameter        = "unused_parameter"
	KindParameterGeneration    = "parameter_generation_error"
)

// Issue is one error or warning reported to template authors.
type Issue struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

func (i Issue) String() string {
	return fmt.Sprintf("%s: %s", i.Kind, i.Message)
}

// Summary counts issues by severity.
type Summary struct {
	Errors   int `json:"errors"`
	Warnings int `json:"warnings"`
}

// Metrics reports how long validation took.
type Metrics struct {
	ValidationTimeMs int64 `json:"validation_time_ms"`
}

// Result is the outcome of static validation.
type Result struct {
	Valid    bool    `json:"valid"`
	Summary  Summary `json:"summary"`
	Errors   []Issue `json:"errors"`
	Warnings []Issue `json:"warnings"`
	Metrics  Metrics `json:"metrics"`
}

type collector struct {
	errors   []Issue
	warnings []Issue
}

func (c *collector) errorf(kind, format string, args ...any) {
	c.errors = append(c.errors, Issue{Kind: kind, Message: fmt.Sprintf(format, args...)})
}

func (c *collector) warnf(kind, format string, args ...any) {
	c.warnings = append(c.warnings, Issue{Kind: kind, Message: fmt.Sprintf(format, args...)})
}

func (c *collector) result() Result {
	r := Result{
		Valid:    len(c.errors) == 0,
		Summary:  Summary{Errors: len(c.errors), Warnings: len(c.warnings)},
		Errors:   c.errors,
		Warnings: c.warnings,
	}
	if r.Errors == nil {
		r.Errors = []Issue{}
	}
	if r.Warnings == nil {
		r.Warnings = []Issue{}
	}
	return r
}
