package validation

import (
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/qforge/qforge/internal/document"
	"github.com/qforge/qforge/internal/expr"
)

// Check is a compiled constraint or rule.
type Check struct {
	Source  string
	Program *expr.Program
	Message string
}

// failure returns the message reported when the check does not hold.
func (c Check) failure() string {
	if c.Message != "" {
		return c.Message
	}
	return "Constraint failed: " + c.Source
}

// CompileChecks compiles the document's constraints followed by its
// validation.rules, in declaration order. Entries that do not compile are
// reported and left out.
func CompileChecks(doc *document.Document) ([]Check, []Issue) {
	c := &collector{}
	checks := compileList(c, doc.Get("constraints"), "constraints", "expr", KindConstraintMissingExpr, KindConstraintSyntax)
	checks = append(checks, compileList(c, doc.Get("validation", "rules"), "validation.rules", "check", KindRuleMissingCheck, KindRuleSyntax)...)
	return checks, c.errors
}

// HasRules reports whether the document declares validation.rules.
func HasRules(doc *document.Document) bool {
	return len(document.Items(doc.Get("validation", "rules"))) > 0
}

func compileList(c *collector, n *yaml.Node, where, field, missingKind, syntaxKind string) []Check {
	if n == nil || document.IsNull(n) {
		return nil
	}
	if n.Kind != yaml.SequenceNode {
		c.errorf(KindTypeError, "%s must be a list, got %s", where, document.KindName(n))
		return nil
	}
	var out []Check
	for i, item := range document.Items(n) {
		src, msg, ok := checkSource(item, field)
		if !ok {
			c.errorf(missingKind, "%s[%d] needs a %q expression", where, i, field)
			continue
		}
		p, err := expr.Compile(expr.InlinePlaceholders(src))
		if err != nil {
			c.errorf(syntaxKind, "%s[%d]: %v", where, i, err)
			continue
		}
		out = append(out, Check{Source: src, Program: p, Message: msg})
	}
	return out
}

// checkSource accepts either a bare expression string or a mapping with
// the expression under field and an optional message.
func checkSource(n *yaml.Node, field string) (src, msg string, ok bool) {
	switch n.Kind {
	case yaml.ScalarNode:
		if document.IsNull(n) || n.Value == "" {
			return "", "", false
		}
		return n.Value, "", true
	case yaml.MappingNode:
		src, ok = document.ScalarString(n, field)
		if !ok || src == "" {
			return "", "", false
		}
		msg, _ = document.ScalarString(n, "message")
		return src, msg, true
	}
	return "", "", false
}

// evaluate runs every check in order and stops at the first that fails.
func evaluate(checks []Check, b expr.Bindings, funcs expr.Funcs) (string, bool) {
	for _, c := range checks {
		v, err := c.Program.Eval(b, funcs)
		if err != nil {
			return fmt.Sprintf("%s (%v)", c.failure(), err), false
		}
		if !v.Truthy() {
			return c.failure(), false
		}
	}
	return "", true
}
