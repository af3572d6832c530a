package validation

import (
	"fmt"
	"math/rand/v2"

	"github.com/qforge/qforge/internal/expr"
	"github.com/qforge/qforge/internal/params"
)

// ParameterGenerationError reports that no attempt satisfied every check.
// Only the last failure is kept.
type ParameterGenerationError struct {
	LastMessage string
	Attempts    int
}

func (e *ParameterGenerationError) Error() string {
	return fmt.Sprintf("Parameter generation failed after %d attempts: %s", e.Attempts, e.LastMessage)
}

// Runner regenerates every parameter from scratch until all checks hold.
type Runner struct {
	Specs       []params.Spec
	Checks      []Check
	Funcs       expr.Funcs
	MaxAttempts int
}

// Outcome is the accepted attempt.
type Outcome struct {
	Bindings expr.Bindings
	Attempts int
	Warnings []params.Warning
}

// Run draws from rng until an attempt passes or MaxAttempts is spent.
func (r Runner) Run(rng *rand.Rand) (Outcome, error) {
	limit := r.MaxAttempts
	if limit < 1 {
		limit = 1
	}
	var last string
	for attempt := 1; attempt <= limit; attempt++ {
		b, warnings := params.Generate(r.Specs, nil, rng)
		msg, ok := evaluate(r.Checks, b, r.Funcs)
		if ok {
			return Outcome{Bindings: b, Attempts: attempt, Warnings: warnings}, nil
		}
		last = msg
	}
	return Outcome{}, &ParameterGenerationError{LastMessage: last, Attempts: limit}
}
