package engine

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qforge/qforge/internal/params"
	"github.com/qforge/qforge/internal/validation"
)

func newEngine(t *testing.T) *Engine {
	t.Helper()
	e, err := New(DefaultConfig())
	require.NoError(t, err)
	return e
}

func seed(n int64) *int64 { return &n }

const multiply = `
parameters:
  a: {min: 2, max: 9}
  b: {min: 2, max: 9}
question:
  text: "What is {{a}} times {{b}}?"
answers:
  - {int: "{{a}} * {{b}}", correct: true}
  - {int: "{{a}} + {{b}}"}
solution:
  text: "{{a}} groups of {{b}} make {{ a * b }}."
`

func TestNewRejectsInvalidConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.ConstraintAttempts = 0
	_, err := New(cfg)
	assert.Error(t, err)
}

func TestRenderSucceedsFirstAttempt(t *testing.T) {
	res := newEngine(t).Render(Request{Source: multiply, Seed: seed(42)})

	require.True(t, res.Success, "errors: %v", res.Errors)
	assert.Empty(t, res.Errors)
	assert.Equal(t, 1, res.Attempts)
	assert.Equal(t, int64(42), res.Seed)

	a, ok := res.Parameters.Get("a")
	require.True(t, ok)
	b, ok := res.Parameters.Get("b")
	require.True(t, ok)
	ai, _ := a.Int()
	bi, _ := b.Int()

	assert.Equal(t, "What is "+a.String()+" times "+b.String()+"?", res.Question.Text)
	require.NotEmpty(t, res.Answers)
	assert.Equal(t, Answer{Text: strconv.FormatInt(ai*bi, 10), Correct: true}, res.Answers[0])
	assert.Contains(t, res.Solution.Text, "make "+strconv.FormatInt(ai*bi, 10)+".")
	assert.Contains(t, res.SubstitutedDocument, "What is "+a.String())
}

func TestRenderIsDeterministicForSeed(t *testing.T) {
	e := newEngine(t)
	first := e.Render(Request{Source: multiply, Seed: seed(7)})
	second := e.Render(Request{Source: multiply, Seed: seed(7)})

	require.True(t, first.Success)
	p1, err := json.Marshal(first.Parameters)
	require.NoError(t, err)
	p2, err := json.Marshal(second.Parameters)
	require.NoError(t, err)
	assert.Equal(t, string(p1), string(p2))
	assert.Equal(t, first.Question.Text, second.Question.Text)
}

func TestRenderPicksSeedWhenAbsent(t *testing.T) {
	res := newEngine(t).Render(Request{Source: multiply})
	require.True(t, res.Success)
	assert.GreaterOrEqual(t, res.Seed, int64(1))
	assert.LessOrEqual(t, res.Seed, int64(maxGeneratedSeed))

	again := newEngine(t).Render(Request{Source: multiply, Seed: seed(res.Seed)})
	assert.Equal(t, res.Question.Text, again.Question.Text)
}

func TestRenderExhaustsConstraintAttempts(t *testing.T) {
	src := `
parameters:
  a: {min: 0, max: 0}
constraints:
  - {expr: "a != 0", message: "a must not be zero"}
question:
  text: "{{a}}"
answer:
  text: "{{a}}"
`
	res := newEngine(t).Render(Request{Source: src, Seed: seed(1)})

	assert.False(t, res.Success)
	assert.Equal(t, 20, res.Attempts)
	require.Len(t, res.Errors, 1)
	assert.Equal(t, validation.KindParameterGeneration, res.Errors[0].Kind)
	assert.Equal(t, "Parameter generation failed after 20 attempts: a must not be zero", res.Errors[0].Message)
	assert.Empty(t, res.Question.Text)
}

func TestRenderUsesRuleAttemptsWhenRulesDeclared(t *testing.T) {
	src := `
parameters:
  a: {min: 0, max: 0}
validation:
  rules:
    - {check: "a > 0", message: "a must be positive"}
question: "{{a}}"
answer: "{{a}}"
`
	cfg := DefaultConfig()
	cfg.RuleAttempts = 4
	e, err := New(cfg)
	require.NoError(t, err)

	res := e.Render(Request{Source: src, Seed: seed(1)})
	assert.False(t, res.Success)
	assert.Equal(t, 4, res.Attempts)
	require.Len(t, res.Errors, 1)
	assert.Contains(t, res.Errors[0].Message, "a must be positive")
}

func TestRenderDocumentParseError(t *testing.T) {
	res := newEngine(t).Render(Request{Source: "question: [unclosed", Seed: seed(3)})
	assert.False(t, res.Success)
	require.Len(t, res.Errors, 1)
	assert.Equal(t, validation.KindDocumentParse, res.Errors[0].Kind)
	assert.Equal(t, int64(3), res.Seed)
	assert.Equal(t, 0, res.Attempts)
}

func TestRenderStaticErrorsAreTerminal(t *testing.T) {
	res := newEngine(t).Render(Request{Source: "parameters:\n  a: {min: 1, max: 2}\nanswer: \"{{a}}\"\n", Seed: seed(3)})
	assert.False(t, res.Success)
	assert.Equal(t, 0, res.Attempts)
	assert.Contains(t, res.ErrorKinds(), validation.KindMissingField)
	assert.Empty(t, res.Parameters)
}

func TestRenderDeduplicatesAnswers(t *testing.T) {
	src := `
parameters:
  a: {min: 3, max: 3}
  b: {min: 3, max: 3}
question: "{{a}} x {{b}}"
answers:
  - {int: "{{a}}*{{b}}", correct: true}
  - {int: "{{b}}*{{a}}"}
  - {int: "{{a}}+{{b}}"}
  - "{{a}}{{b}}"
  - "{{b}}{{a}}"
`
	res := newEngine(t).Render(Request{Source: src, Seed: seed(5)})
	require.True(t, res.Success, "errors: %v", res.Errors)
	assert.Equal(t, []Answer{
		{Text: "9", Correct: true},
		{Text: "6"},
		{Text: "33"},
	}, res.Answers)
}

func TestRenderFractionAnswers(t *testing.T) {
	src := `
parameters:
  a: {min: 6, max: 6}
  b: {min: 4, max: 4}
question: "Simplify {{a}}/{{b}}"
answers:
  - {fraction: "{{a}}/{{b}}", correct: true}
  - {fraction_unsimplified: "{{a}}/{{b}}"}
  - {text: "1/2"}
`
	res := newEngine(t).Render(Request{Source: src, Seed: seed(5)})
	require.True(t, res.Success, "errors: %v", res.Errors)
	assert.Equal(t, []Answer{
		{Text: "3/2", Correct: true},
		{Text: "6/4"},
		{Text: "1/2"},
	}, res.Answers)
}

func TestRenderAnswerLogic(t *testing.T) {
	src := `
parameters:
  a: {min: 3, max: 3}
question: "Is {{a}} bigger than 5?"
answers:
  text:
    - {text: "yes", correct: true, logic: "{{a}} > 5"}
    - {text: "no", correct: true, logic: "{{a}} <= 5"}
`
	res := newEngine(t).Render(Request{Source: src, Seed: seed(5)})
	require.True(t, res.Success, "errors: %v", res.Errors)
	assert.Equal(t, []Answer{{Text: "yes"}, {Text: "no", Correct: true}}, res.Answers)
}

func TestRenderAnswerErrorKeepsText(t *testing.T) {
	src := `
parameters:
  a: {min: 0, max: 0}
question: "{{a}}"
answers:
  - {int: "{{a}} + 1", correct: true}
  - {int: "1 // {{a}}"}
`
	res := newEngine(t).Render(Request{Source: src, Seed: seed(5)})
	require.True(t, res.Success)
	require.Len(t, res.Answers, 2)
	assert.Equal(t, "1 // 0", res.Answers[1].Text)
	assert.Contains(t, kinds(res.Warnings), KindAnswer)
}

func TestRenderPlaceholderFailureIsLocal(t *testing.T) {
	src := `
parameters:
  a: {min: 2, max: 2}
question: "{{ a }} then {{ a // 0 }}"
answer: "{{ a }}"
`
	res := newEngine(t).Render(Request{Source: src, Seed: seed(5)})
	require.True(t, res.Success, "errors: %v", res.Errors)
	assert.Equal(t, "2 then {{ a // 0 }}", res.Question.Text)
	require.NotNil(t, res.Answer)
	assert.Equal(t, "2", res.Answer.Text)
	assert.Contains(t, kinds(res.Warnings), KindPlaceholder)
}

func TestRenderOversizedHelperCallIsLocal(t *testing.T) {
	src := `
parameters:
  a: {min: 2, max: 2}
question: "{{ a }}, {{ factorial(200000000) }}, {{ nPr(4000000000000000000, 3000000000000000000) }}"
answer: "{{ nCr(4000000000000000000, 2000000000000000000) }}"
`
	res := newEngine(t).Render(Request{Source: src, Seed: seed(3)})
	require.True(t, res.Success, "errors: %v", res.Errors)
	assert.Equal(t, "2, {{ factorial(200000000) }}, {{ nPr(4000000000000000000, 3000000000000000000) }}", res.Question.Text)

	var placeholders int
	for _, w := range res.Warnings {
		if w.Kind == KindPlaceholder {
			placeholders++
		}
	}
	assert.GreaterOrEqual(t, placeholders, 3)
}

func TestRenderOversizedHelperCallInConstraint(t *testing.T) {
	src := `
parameters:
  a: {min: 200000000, max: 200000000}
constraints:
  - {expr: "factorial(a) > 0", message: "too big"}
question: "{{a}}"
answer: "{{a}}"
`
	res := newEngine(t).Render(Request{Source: src, Seed: seed(1)})
	assert.False(t, res.Success)
	assert.Equal(t, 20, res.Attempts)
	require.Len(t, res.Errors, 1)
	assert.Equal(t, validation.KindParameterGeneration, res.Errors[0].Kind)
}

func TestRenderNamesValuesThatBreakQuoting(t *testing.T) {
	src := `
parameters:
  who: {type: choice, values: ['Say "hi"']}
question: "{{ who }}"
answer: "ok"
`
	res := newEngine(t).Render(Request{Source: src, Seed: seed(2)})
	require.False(t, res.Success)
	require.Len(t, res.Errors, 1)
	assert.Equal(t, KindSubstitutedParse, res.Errors[0].Kind)
	assert.Contains(t, res.Errors[0].Message, `who = "Say \"hi\""`)
}

func TestRenderReportsUnknownTypeOnce(t *testing.T) {
	src := `
parameters:
  a: {min: 1, max: 3}
  m: {type: matrix, rows: 2}
question: "{{ a }} and {{ m }}"
answer: "{{ a }}"
`
	res := newEngine(t).Render(Request{Source: src, Seed: seed(4)})
	require.True(t, res.Success, "errors: %v", res.Errors)

	var unknown int
	for _, w := range res.Warnings {
		if w.Kind == params.IssueUnknownType {
			unknown++
		}
	}
	assert.Equal(t, 1, unknown)
}

func TestRenderDiagramSkipsBadLines(t *testing.T) {
	src := `
parameters:
  w: {min: 10, max: 10}
question: "Find the area."
answer: "{{ w * 5 }}"
diagram: |
  Rect(x: {{w}}, y: 5, pos: (0,0))
  BogusType(nonsense)
`
	res := newEngine(t).Render(Request{Source: src, Seed: seed(5)})
	require.True(t, res.Success, "errors: %v", res.Errors)
	assert.Equal(t, 1, strings.Count(res.Diagram.SVG, "<rect"))
	assert.True(t, strings.HasPrefix(res.Diagram.SVG, "<svg"))
	assert.Contains(t, res.Diagram.Raw, "Rect(x: 10, y: 5")
	assert.Contains(t, kinds(res.Warnings), KindDiagramLineSkipped)
	assert.Empty(t, res.Errors)
}

func TestRenderStructuredDiagram(t *testing.T) {
	src := `
parameters:
  r: {min: 4, max: 4}
question: "Circle of radius {{r}}"
answer: "{{r}}"
diagram:
  width: 100
  height: 100
  elements:
    - {type: circle, cx: 50, cy: 50, r: "{{r}}"}
    - {type: sparkle}
`
	res := newEngine(t).Render(Request{Source: src, Seed: seed(5)})
	require.True(t, res.Success, "errors: %v", res.Errors)
	assert.Contains(t, res.Diagram.SVG, `<circle cx="50" cy="50" r="4"`)
	assert.Contains(t, kinds(res.Warnings), KindDiagramElement)
}

func TestResultJSONShape(t *testing.T) {
	src := `
parameters:
  b: {min: 2, max: 2}
  a: {min: 1, max: 1}
question: "{{a}} {{b}}"
answer: "{{a}}"
`
	res := newEngine(t).Render(Request{Source: src, Seed: seed(11)})
	require.True(t, res.Success)
	out, err := json.Marshal(res)
	require.NoError(t, err)
	body := string(out)
	assert.Contains(t, body, `"parameters":{"b":2,"a":1}`)
	assert.Contains(t, body, `"question":{"text":"1 2"}`)
	assert.Contains(t, body, `"seed":11`)
	assert.Contains(t, body, `"errors":[]`)
	assert.Contains(t, body, `"metrics":{"generation_time_ms":`)
}

type fakeTemplates map[string]string

func (f fakeTemplates) Get(_ context.Context, id string) (string, error) {
	src, ok := f[id]
	if !ok {
		return "", errors.New("not found")
	}
	return src, nil
}

func TestRenderTemplate(t *testing.T) {
	e := newEngine(t)
	res, err := e.RenderTemplate(context.Background(), fakeTemplates{"mul": multiply}, "mul", seed(1))
	require.NoError(t, err)
	assert.True(t, res.Success)

	_, err = e.RenderTemplate(context.Background(), fakeTemplates{}, "missing", nil)
	assert.Error(t, err)
}

func kinds(issues []Issue) []string {
	out := make([]string, 0, len(issues))
	for _, i := range issues {
		out = append(out, i.Kind)
	}
	return out
}
