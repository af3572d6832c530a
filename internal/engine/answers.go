package engine

import (
	"errors"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/qforge/qforge/internal/document"
	"github.com/qforge/qforge/internal/expr"
	"github.com/qforge/qforge/internal/maths"
)

// answers normalizes the substituted answer list and drops options whose
// text repeats an earlier one.
func (e *Engine) answers(doc *document.Document, b expr.Bindings, res *Result) []Answer {
	n := doc.Get("answers")
	if n != nil && n.Kind == yaml.MappingNode {
		n = document.MapValue(n, "text")
	}
	items := document.Items(n)

	out := make([]Answer, 0, len(items))
	seen := make(map[string]bool, len(items))
	for i, item := range items {
		a, err := e.normalizeAnswer(item, b)
		if err != nil {
			res.warn(KindAnswer, fmt.Sprintf("answers[%d]: %v", i, err))
		}
		if seen[a.Text] {
			continue
		}
		seen[a.Text] = true
		out = append(out, a)
	}
	return out
}

// normalizeAnswer evaluates int and fraction answers and passes text
// through. On error the returned Answer still carries usable text.
func (e *Engine) normalizeAnswer(item *yaml.Node, b expr.Bindings) (Answer, error) {
	if item.Kind != yaml.MappingNode {
		return Answer{Text: item.Value}, nil
	}

	a := Answer{Correct: flag(item, "correct")}
	var err error
	if src, ok := document.ScalarString(item, "int"); ok {
		v, evalErr := expr.EvalWith(src, b, e.funcs)
		if evalErr != nil {
			a.Text, err = strings.TrimSpace(src), evalErr
		} else {
			a.Text = v.String()
		}
	} else if key, src, ok := fractionSource(item); ok {
		f, fracErr := maths.EvalFraction(src, b, key == "fraction")
		if fracErr != nil {
			a.Text, err = strings.TrimSpace(src), fracErr
		} else {
			a.Text = f.String()
		}
	} else if text, ok := document.ScalarString(item, "text"); ok {
		a.Text = text
	} else {
		err = errors.New("answer has no int, fraction or text value")
	}

	if logic, ok := document.ScalarString(item, "logic"); ok {
		v, logicErr := expr.EvalWith(logic, b, e.funcs)
		if logicErr != nil {
			a.Correct = false
			err = errors.Join(err, fmt.Errorf("logic: %w", logicErr))
		} else {
			a.Correct = a.Correct && v.Truthy()
		}
	}
	return a, err
}

func fractionSource(item *yaml.Node) (string, string, bool) {
	for _, key := range []string{"fraction", "fraction_unsimplified"} {
		if src, ok := document.ScalarString(item, key); ok {
			return key, src, true
		}
	}
	return "", "", false
}

// flag reads a boolean field, treating anything unreadable as false.
func flag(item *yaml.Node, key string) bool {
	n := document.MapValue(item, key)
	if n == nil {
		return false
	}
	var v bool
	if err := n.Decode(&v); err != nil {
		return false
	}
	return v
}
