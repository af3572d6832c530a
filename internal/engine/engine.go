// Package engine turns a template document into a concrete question:
// it validates the template, generates parameters under the template's
// checks, substitutes the whole document, and assembles the answers,
// solution and diagram.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"runtime/debug"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/qforge/qforge/internal/diagram"
	"github.com/qforge/qforge/internal/document"
	"github.com/qforge/qforge/internal/expr"
	"github.com/qforge/qforge/internal/maths"
	"github.com/qforge/qforge/internal/params"
	"github.com/qforge/qforge/internal/validation"
)

// maxGeneratedSeed bounds seeds chosen when the caller supplies none.
const maxGeneratedSeed = 1_000_000_000

var validate = validator.New()

// Engine renders templates. It holds no per-render state and is safe for
// concurrent use.
type Engine struct {
	cfg      Config
	log      *slog.Logger
	diagrams *diagram.Registry
	funcs    expr.Funcs
}

// New creates an Engine with the given config.
func New(cfg Config) (*Engine, error) {
	if err := validate.Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid engine config: %w", err)
	}
	log := cfg.Logger
	if log == nil {
		log = slog.Default()
	}
	return &Engine{
		cfg:      cfg,
		log:      log,
		diagrams: diagram.Builtin(),
		funcs:    maths.Helpers(),
	}, nil
}

// Config returns the engine's configuration.
func (e *Engine) Config() Config { return e.cfg }

// Request is the input to one render.
type Request struct {
	Source string
	// Seed reproduces an earlier render. Nil picks a fresh seed, which is
	// reported in the result.
	Seed *int64
}

// TemplateSource fetches template text by id.
type TemplateSource interface {
	Get(ctx context.Context, id string) (string, error)
}

// Validate checks a template without rendering it.
func (e *Engine) Validate(src string) validation.Result {
	return validation.Validate(src)
}

// RenderTemplate fetches a template and renders it. The error is non-nil
// only when the template could not be fetched.
func (e *Engine) RenderTemplate(ctx context.Context, templates TemplateSource, id string, seed *int64) (*Result, error) {
	src, err := templates.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("fetch template %q: %w", id, err)
	}
	return e.Render(Request{Source: src, Seed: seed}), nil
}

// Render runs the full pipeline. It never panics and never returns a
// partial question: any failure is reported in Result.Errors with
// Success false.
func (e *Engine) Render(req Request) (res *Result) {
	start := time.Now()
	seed := rand.Int64N(maxGeneratedSeed) + 1
	if req.Seed != nil {
		seed = *req.Seed
	}
	res = newResult(seed)

	defer func() {
		if r := recover(); r != nil {
			e.log.Error("render panicked", "seed", seed, "panic", r, "stack", string(debug.Stack()))
			res.fail(Issue{Kind: KindInternal, Message: "internal error while rendering template"})
		}
		res.Metrics.GenerationTimeMs = time.Since(start).Milliseconds()
		e.log.Debug("render finished",
			"seed", seed,
			"success", res.Success,
			"attempts", res.Attempts,
			"duration", time.Since(start))
	}()

	e.render(req.Source, res)
	return res
}

func (e *Engine) render(src string, res *Result) {
	doc, err := document.Parse(src)
	if err != nil {
		res.fail(validation.ParseIssue(err))
		return
	}

	static := validation.ValidateDocument(doc)
	res.Warnings = append(res.Warnings, static.Warnings...)
	if !static.Valid {
		res.fail(static.Errors...)
		return
	}

	// Both were already reported by static validation.
	specs, _ := params.ParseSpecs(doc.Get("parameters"))
	checks, _ := validation.CompileChecks(doc)

	limit := e.cfg.ConstraintAttempts
	if validation.HasRules(doc) {
		limit = e.cfg.RuleAttempts
	}
	runner := validation.Runner{Specs: specs, Checks: checks, Funcs: e.funcs, MaxAttempts: limit}
	out, err := runner.Run(params.NewRand(uint64(res.Seed)))
	if err != nil {
		var pge *validation.ParameterGenerationError
		if errors.As(err, &pge) {
			res.Attempts = pge.Attempts
		}
		res.fail(Issue{Kind: validation.KindParameterGeneration, Message: err.Error()})
		return
	}
	res.Attempts = out.Attempts
	for _, w := range out.Warnings {
		// Static validation already warned about unknown types.
		if w.Kind == params.WarnUnknownType {
			continue
		}
		res.warn(w.Kind, w.String())
	}
	for _, s := range specs {
		res.Parameters = append(res.Parameters, Parameter{Name: s.Name, Value: out.Bindings[s.Name]})
	}

	text, err := doc.Marshal()
	if err != nil {
		res.fail(Issue{Kind: KindInternal, Message: err.Error()})
		return
	}
	substituted, failures := expr.Substitute(text, out.Bindings, e.funcs)
	for _, f := range failures {
		res.warn(KindPlaceholder, f.Error())
	}
	if e.cfg.KeepSubstituted {
		res.SubstitutedDocument = substituted
	}

	final, err := document.Parse(substituted)
	if err != nil {
		msg := fmt.Sprintf("substituted template does not parse: %v", err)
		if suspects := quotingSuspects(specs, out.Bindings); len(suspects) > 0 {
			msg += "; values that may break YAML quoting: " + strings.Join(suspects, ", ")
		}
		res.fail(Issue{Kind: KindSubstitutedParse, Message: msg})
		return
	}

	res.Question.Text, _ = final.Text("question")
	if t, ok := final.Text("answer"); ok {
		res.Answer = &Text{Text: t}
	}
	res.Solution.Text, _ = final.Text("solution")
	res.Answers = e.answers(final, out.Bindings, res)
	e.renderDiagram(final, res)
	res.Success = true
}

// quotingSuspects lists string parameters whose values contain characters
// that change meaning inside a YAML scalar.
func quotingSuspects(specs []params.Spec, b expr.Bindings) []string {
	var out []string
	for _, s := range specs {
		v, ok := b[s.Name].Str()
		if !ok || !strings.ContainsAny(v, "\"'\\\n:#") {
			continue
		}
		out = append(out, fmt.Sprintf("%s = %q", s.Name, v))
	}
	return out
}
