package expr

import (
	"regexp"
	"strings"
)

// placeholderRe matches {{ expr }} non-greedily. (?s) lets a placeholder
// survive a line fold introduced by re-serialization.
var placeholderRe = regexp.MustCompile(`(?s)\{\{\s*(.*?)\s*\}\}`)

// Substitute replaces every {{ expr }} in text. A placeholder that is
// exactly a bound name takes that value's text; anything else is evaluated.
// A failing placeholder is left verbatim and reported, and the rest of the
// text is still processed.
func Substitute(text string, b Bindings, funcs Funcs) (string, []*Error) {
	var failures []*Error
	out := placeholderRe.ReplaceAllStringFunc(text, func(m string) string {
		src := strings.TrimSpace(placeholderRe.FindStringSubmatch(m)[1])
		if v, ok := b[src]; ok {
			return v.String()
		}
		v, err := EvalWith(src, b, funcs)
		if err != nil {
			e, ok := err.(*Error)
			if !ok {
				e = &Error{Expr: src, Cause: err}
			}
			failures = append(failures, e)
			return m
		}
		return v.String()
	})
	return out, failures
}

// Placeholders returns the inner source of every {{ expr }} in text.
func Placeholders(text string) []string {
	matches := placeholderRe.FindAllStringSubmatch(text, -1)
	out := make([]string, 0, len(matches))
	for _, m := range matches {
		out = append(out, strings.TrimSpace(m[1]))
	}
	return out
}

// InlinePlaceholders rewrites each {{ expr }} as (expr) so text mixing
// placeholders and bare names can be compiled as one expression.
func InlinePlaceholders(text string) string {
	return placeholderRe.ReplaceAllStringFunc(text, func(m string) string {
		return "(" + strings.TrimSpace(placeholderRe.FindStringSubmatch(m)[1]) + ")"
	})
}
