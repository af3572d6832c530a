package validation

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/qforge/qforge/internal/diagram"
	"github.com/qforge/qforge/internal/document"
	"github.com/qforge/qforge/internal/expr"
	"github.com/qforge/qforge/internal/maths"
	"github.com/qforge/qforge/internal/params"
)

// Validate parses src and checks it. It never returns a Go error; every
// problem is an Issue in the result.
func Validate(src string) Result {
	start := time.Now()
	doc, err := document.Parse(src)
	var r Result
	if err != nil {
		c := &collector{}
		c.errors = append(c.errors, ParseIssue(err))
		r = c.result()
	} else {
		r = ValidateDocument(doc)
	}
	r.Metrics.ValidationTimeMs = time.Since(start).Milliseconds()
	return r
}

// ParseIssue converts a document.Parse failure into an Issue. Syntax
// errors and structurally unusable documents get different kinds.
func ParseIssue(err error) Issue {
	var pe *document.ParseError
	if errors.As(err, &pe) && pe.Err == nil {
		return Issue{Kind: KindInvalidTemplate, Message: pe.Error()}
	}
	return Issue{Kind: KindDocumentParse, Message: err.Error()}
}

// ValidateDocument runs every static check against a parsed template.
func ValidateDocument(doc *document.Document) Result {
	v := &validator{
		doc:      doc,
		declared: make(map[string]int),
		used:     make(map[string]bool),
	}
	v.checkRequired()
	v.checkParameters()
	v.checkChecks()
	v.checkPlaceholders()
	v.checkAnswers()
	v.checkBraces()
	v.checkDiagram()
	v.checkUnused()
	return v.result()
}

type validator struct {
	collector
	doc      *document.Document
	specs    []params.Spec
	declared map[string]int // name -> declaration index
	used     map[string]bool
}

func (v *validator) checkRequired() {
	q := v.doc.Get("question")
	switch {
	case q == nil || document.IsNull(q):
		v.errorf(KindMissingField, "missing required field: question")
	case q.Kind == yaml.MappingNode:
		if _, ok := document.ScalarString(q, "text"); !ok {
			v.errorf(KindMissingField, "missing required field: question.text")
		}
	case !document.IsString(q):
		v.errorf(KindTypeError, "question must be a mapping with text, got %s", document.KindName(q))
	}

	answer, answers := v.doc.Get("answer"), v.doc.Get("answers")
	if answer == nil && answers == nil {
		v.errorf(KindMissingField, "missing required field: answer or answers")
	}
	if answer != nil && answer.Kind != yaml.MappingNode && answer.Kind != yaml.ScalarNode {
		v.errorf(KindTypeError, "answer must be a mapping with text, got %s", document.KindName(answer))
	}
	if answers != nil {
		switch {
		case answers.Kind == yaml.SequenceNode:
		case answers.Kind == yaml.MappingNode && document.MapValue(answers, "text") != nil:
			if t := document.MapValue(answers, "text"); t.Kind != yaml.SequenceNode {
				v.errorf(KindTypeError, "answers.text must be a list, got %s", document.KindName(t))
			}
		default:
			v.errorf(KindTypeError, "answers must be a list, got %s", document.KindName(answers))
		}
	}

	if s := v.doc.Get("solution"); s != nil && s.Kind != yaml.MappingNode && s.Kind != yaml.ScalarNode {
		v.errorf(KindTypeError, "solution must be a mapping with text, got %s", document.KindName(s))
	}
}

func (v *validator) checkParameters() {
	n := v.doc.Get("parameters")
	if n == nil || document.IsNull(n) {
		return
	}
	if n.Kind != yaml.MappingNode {
		v.errorf(KindTypeError, "parameters must be a mapping, got %s", document.KindName(n))
		return
	}
	specs, errs := params.ParseSpecs(n)
	for _, err := range errs {
		if err.Kind == params.IssueUnknownType {
			v.warnf(err.Kind, "%s", err.Error())
			continue
		}
		v.errorf(err.Kind, "%s", err.Error())
	}
	// Declarations that failed to decode still count as declared so they
	// are not also reported as undefined.
	for i, p := range document.Pairs(n) {
		v.declared[p.Key] = i
	}
	v.specs = specs
	for _, s := range specs {
		self := v.declared[s.Name]
		for _, ref := range s.References() {
			v.used[ref] = true
			idx, ok := v.declared[ref]
			switch {
			case !ok:
				v.errorf(KindUndefinedParameter, "parameter %q references undefined parameter %q", s.Name, ref)
			case idx >= self:
				v.errorf(KindParameterOrder, "parameter %q references %q, which is not declared before it", s.Name, ref)
			}
		}
	}
}

func (v *validator) checkChecks() {
	checks, issues := CompileChecks(v.doc)
	v.errors = append(v.errors, issues...)
	for _, c := range checks {
		v.checkProgram(c.Program, "constraint "+c.Source)
	}
}

// checkProgram reports undefined names and calls outside the helper set.
func (v *validator) checkProgram(p *expr.Program, where string) {
	for _, name := range p.Names() {
		v.used[name] = true
		if _, ok := v.declared[name]; !ok {
			v.errorf(KindUndefinedParameter, "%s references undefined parameter %q", where, name)
		}
	}
	helpers := maths.Helpers()
	for _, fn := range p.Calls() {
		if _, ok := helpers[fn]; !ok {
			v.errorf(KindExpressionSyntax, "%s calls unknown function %q", where, fn)
		}
	}
}

// checkPlaceholders compiles every {{ }} in the document outside the
// parameter and check sections, which have their own rules.
func (v *validator) checkPlaceholders() {
	for _, p := range document.Pairs(v.doc.Root()) {
		skip := p.Key == "parameters" || p.Key == "constraints" || p.Key == "validation"
		walkStrings(p.Value, p.Key, func(path, text string) {
			for _, src := range expr.Placeholders(text) {
				prog, err := expr.Compile(src)
				if err != nil {
					if !skip {
						v.errorf(KindExpressionSyntax, "%s: %v", path, err)
					}
					continue
				}
				if skip {
					for _, name := range prog.Names() {
						v.used[name] = true
					}
					continue
				}
				v.checkProgram(prog, path+" placeholder {{ "+src+" }}")
			}
		})
	}
}

// checkAnswers compiles the bare expressions inside structured answers.
func (v *validator) checkAnswers() {
	for i, item := range answerItems(v.doc) {
		if item.Kind != yaml.MappingNode {
			continue
		}
		where := fmt.Sprintf("answers[%d]", i)
		for _, key := range []string{"int", "logic"} {
			src, ok := document.ScalarString(item, key)
			if !ok {
				continue
			}
			prog, err := expr.Compile(expr.InlinePlaceholders(src))
			if err != nil {
				v.errorf(KindExpressionSyntax, "%s.%s: %v", where, key, err)
				continue
			}
			v.checkProgram(prog, where+"."+key)
		}
		for _, key := range []string{"fraction", "fraction_unsimplified"} {
			src, ok := document.ScalarString(item, key)
			if !ok {
				continue
			}
			num, den, ok := maths.SplitFraction(expr.InlinePlaceholders(src))
			if !ok {
				v.errorf(KindExpressionSyntax, "%s.%s: %q is not of the form num/den", where, key, src)
				continue
			}
			for _, side := range []string{num, den} {
				prog, err := expr.Compile(side)
				if err != nil {
					v.errorf(KindExpressionSyntax, "%s.%s: %v", where, key, err)
					continue
				}
				v.checkProgram(prog, where+"."+key)
			}
		}
	}
}

// checkBraces looks for unbalanced braces in the prose fields once
// placeholders are removed.
func (v *validator) checkBraces() {
	type field struct{ path, text string }
	var fields []field
	for _, key := range []string{"question", "answer", "solution"} {
		if t, ok := v.doc.Text(key); ok {
			fields = append(fields, field{key + ".text", t})
		}
	}
	for i, item := range answerItems(v.doc) {
		if t, ok := answerText(item); ok {
			fields = append(fields, field{fmt.Sprintf("answers[%d]", i), t})
		}
	}
	for _, f := range fields {
		if !balanced(stripPlaceholders(f.text)) {
			v.errorf(KindLatexBraceMismatch, "%s has unbalanced braces", f.path)
		}
	}
}

func (v *validator) checkDiagram() {
	n := v.doc.Get("diagram")
	if n == nil || document.IsNull(n) {
		return
	}
	switch {
	case document.IsString(n):
		for i, line := range strings.Split(n.Value, "\n") {
			line = strings.TrimSpace(line)
			if line == "" {
				continue
			}
			if _, ok := diagram.Builtin().Lookup(line); !ok {
				v.warnf(KindDiagramUnknownType, "diagram line %d does not start with a known diagram type", i+1)
			}
		}
	case n.Kind == yaml.MappingNode:
		if t, _ := document.ScalarString(n, "type"); t == "none" {
			return
		}
		els := document.MapValue(n, "elements")
		switch {
		case els == nil:
			v.errorf(KindDiagramMissingElements, "diagram is missing elements")
		case els.Kind != yaml.SequenceNode:
			v.errorf(KindDiagramType, "diagram elements must be a list, got %s", document.KindName(els))
		}
	default:
		v.errorf(KindDiagramType, "diagram must be diagram source text or a mapping, got %s", document.KindName(n))
	}
}

func (v *validator) checkUnused() {
	for _, p := range document.Pairs(v.doc.Get("parameters")) {
		if !v.used[p.Key] {
			v.warnf(KindUnusedParameter, "parameter %q is never used", p.Key)
		}
	}
}

// walkStrings calls fn for every string scalar under n.
func walkStrings(n *yaml.Node, path string, fn func(path, text string)) {
	switch {
	case n == nil:
	case n.Kind == yaml.ScalarNode:
		if document.IsString(n) {
			fn(path, n.Value)
		}
	case n.Kind == yaml.SequenceNode:
		for i, c := range document.Items(n) {
			walkStrings(c, fmt.Sprintf("%s[%d]", path, i), fn)
		}
	case n.Kind == yaml.MappingNode:
		for _, p := range document.Pairs(n) {
			walkStrings(p.Value, path+"."+p.Key, fn)
		}
	}
}

func answerItems(doc *document.Document) []*yaml.Node {
	n := doc.Get("answers")
	if n != nil && n.Kind == yaml.MappingNode {
		n = document.MapValue(n, "text")
	}
	return document.Items(n)
}

func answerText(item *yaml.Node) (string, bool) {
	if document.IsString(item) {
		return item.Value, true
	}
	return document.ScalarString(item, "text")
}

var placeholderSpan = regexp.MustCompile(`(?s)\{\{.*?\}\}`)

func stripPlaceholders(s string) string {
	return placeholderSpan.ReplaceAllString(s, "")
}

func balanced(s string) bool {
	depth := 0
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '\\':
			// \{ and \} are literal braces in LaTeX.
			if i+1 < len(s) && (s[i+1] == '{' || s[i+1] == '}') {
				i++
			}
		case '{':
			depth++
		case '}':
			depth--
			if depth < 0 {
				return false
			}
		}
	}
	return depth == 0
}
