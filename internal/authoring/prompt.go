package authoring

import (
	"fmt"
	"strings"

	"github.com/qforge/qforge/internal/validation"
)

const systemPrompt = `You write parameterized practice-question templates.

A template declares parameters, optional constraints, a question, answers and a worked solution.
Each render draws fresh parameter values, substitutes every {{ expression }} placeholder and evaluates answers.

Rules:
- Parameter names are lowercase identifiers. Reference them in text as {{ name }} or {{ expression }}.
- Expressions use + - * / // % ** with parentheses, comparisons, and/or/not. No function calls, no attribute access.
- int and float parameters need min and max. choice needs values. expression, fraction and fraction_unsimplified need value.
- An expression parameter may only use parameters declared before it.
- Fractions are written "num/den" where each side is an expression.
- Use constraints to reject unsuitable draws, e.g. "a != b" or "(a * b) % 2 == 0".
- Give exactly one correct answer plus two or three distractors that reflect common mistakes.
- int and fraction answers are expressions over parameters. text answers are literal text and may contain placeholders.
- The solution shows the working step by step with placeholders for every number.
- Leave diagram empty unless a picture helps. Diagram statements look like Clock(time: 3:15) or NumberLine(min: 0, max: 10).
- Plain ASCII only. No LaTeX.
- Do not repeat any question from the "avoid" list.`

func buildUserMessage(in DraftInput, cfg Config) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Skill: %s\n", in.Skill)
	if in.Grade > 0 {
		fmt.Fprintf(&b, "Grade: %d\n", in.Grade)
	}
	if in.Difficulty != "" {
		fmt.Fprintf(&b, "Difficulty: %s\n", in.Difficulty)
	}
	fmt.Fprintf(&b, "Number of templates: %d\n", in.Count)

	b.WriteString("\nAvoid:\n")
	b.WriteString(numbered(in.Avoid, cfg.MaxAvoid))
	return b.String()
}

// buildRepairMessage asks the model to fix the drafts that failed
// validation, listing each draft's errors.
func buildRepairMessage(titles []string, results []validation.Result) string {
	var b strings.Builder
	b.WriteString("Some templates failed validation. Return all templates again with these problems fixed:\n")
	for i, r := range results {
		if r.Valid {
			continue
		}
		fmt.Fprintf(&b, "\n%d. %s\n", i+1, titles[i])
		for _, e := range r.Errors {
			fmt.Fprintf(&b, "   - %s\n", e)
		}
	}
	return b.String()
}

func numbered(items []string, max int) string {
	if len(items) == 0 {
		return "None"
	}
	if max > 0 && len(items) > max {
		items = items[len(items)-max:]
	}
	var b strings.Builder
	for i, it := range items {
		fmt.Fprintf(&b, "%d. %s\n", i+1, it)
	}
	return strings.TrimRight(b.String(), "\n")
}
