// Package params decodes parameter declarations and generates concrete
// values for them from a seeded random source.
package params

import (
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/qforge/qforge/internal/document"
	"github.com/qforge/qforge/internal/expr"
	"github.com/qforge/qforge/internal/maths"
)

// Kind is the declared type of a parameter.
type Kind string

const (
	KindInt                  Kind = "int"
	KindFloat                Kind = "float"
	KindChoice               Kind = "choice"
	KindExpression           Kind = "expression"
	KindFraction             Kind = "fraction"
	KindFractionUnsimplified Kind = "fraction_unsimplified"
	KindLiteral              Kind = "literal"
	KindUnknown              Kind = "unknown"
)

// Issue kinds reported by ParseSpecs.
const (
	IssueMissingType = "parameter_missing_type"
	IssueRange       = "parameter_range_error"
	IssueChoice      = "parameter_choice_error"
	IssueExpression  = "parameter_expression_error"
	IssueFraction    = "parameter_fraction_error"
	IssueUnknownType = "unknown_parameter_type"
)

// SpecError describes a parameter declaration that cannot be used.
type SpecError struct {
	Param   string
	Kind    string
	Message string
}

func (e *SpecError) Error() string {
	return fmt.Sprintf("parameter %q: %s", e.Param, e.Message)
}

// Bound is an int or float range endpoint: a number, or an expression over
// earlier parameters.
type Bound struct {
	Value expr.Value
	Expr  *expr.Program
}

func (b Bound) resolve(env expr.Bindings) (expr.Value, error) {
	if b.Expr == nil {
		return b.Value, nil
	}
	return b.Expr.Eval(env, maths.Helpers())
}

// Spec is one parameter declaration.
type Spec struct {
	Name     string
	Kind     Kind
	RawType  string
	Min, Max Bound
	Decimals int // -1 when unset
	Values   []expr.Value
	Expr     string
	// AsInt converts whole results of an expression to int, for
	// {type: int, value: ...} declarations.
	AsInt   bool
	Literal expr.Value
	Line    int
}

// References returns the parameter names the declaration depends on.
func (s Spec) References() []string {
	var names []string
	add := func(p *expr.Program) {
		if p != nil {
			names = append(names, p.Names()...)
		}
	}
	add(s.Min.Expr)
	add(s.Max.Expr)
	switch s.Kind {
	case KindExpression:
		if p, err := expr.Compile(expr.InlinePlaceholders(s.Expr)); err == nil {
			add(p)
		}
	case KindFraction, KindFractionUnsimplified:
		if num, den, ok := maths.SplitFraction(expr.InlinePlaceholders(s.Expr)); ok {
			for _, side := range []string{num, den} {
				if p, err := expr.Compile(side); err == nil {
					add(p)
				}
			}
		}
	}
	return names
}

// ParseSpecs decodes the parameters mapping in declaration order. Specs
// that cannot be decoded are reported and left out of the result. An
// unknown type is kept as KindUnknown and reported with IssueUnknownType.
func ParseSpecs(n *yaml.Node) ([]Spec, []*SpecError) {
	var specs []Spec
	var errs []*SpecError
	for _, p := range document.Pairs(n) {
		spec, err := parseSpec(p.Key, p.Value)
		if err != nil {
			errs = append(errs, err)
			if err.Kind != IssueUnknownType {
				continue
			}
		}
		specs = append(specs, spec)
	}
	return specs, errs
}

func parseSpec(name string, n *yaml.Node) (Spec, *SpecError) {
	spec := Spec{Name: name, Decimals: -1, Line: n.Line}
	fail := func(kind, format string, args ...any) (Spec, *SpecError) {
		return spec, &SpecError{Param: name, Kind: kind, Message: fmt.Sprintf(format, args...)}
	}

	switch n.Kind {
	case yaml.ScalarNode:
		v, err := scalarValue(n)
		if err != nil {
			return fail(IssueRange, "%v", err)
		}
		spec.Kind = KindLiteral
		spec.Literal = v
		return spec, nil
	case yaml.SequenceNode:
		return parseChoice(spec, n)
	case yaml.MappingNode:
	default:
		return fail(IssueMissingType, "unsupported declaration")
	}

	typ, hasType := document.ScalarString(n, "type")
	if !hasType {
		switch {
		case document.MapValue(n, "min") != nil || document.MapValue(n, "max") != nil:
			typ = string(KindInt)
		case document.MapValue(n, "values") != nil:
			typ = string(KindChoice)
		default:
			return fail(IssueMissingType, "missing type")
		}
	}
	spec.RawType = typ

	switch Kind(typ) {
	case KindInt, KindFloat:
		spec.Kind = Kind(typ)
		if value, ok := document.ScalarString(n, "value"); ok && spec.Kind == KindInt {
			spec.Kind = KindExpression
			spec.AsInt = true
			return parseExpression(spec, value)
		}
		return parseRange(spec, n)
	case KindChoice:
		spec.Kind = KindChoice
		return parseChoice(spec, document.MapValue(n, "values"))
	case KindExpression:
		spec.Kind = KindExpression
		value, ok := document.ScalarString(n, "value")
		if !ok {
			value, ok = document.ScalarString(n, "expr")
		}
		if !ok {
			return fail(IssueExpression, "expression needs a value")
		}
		return parseExpression(spec, value)
	case KindFraction, KindFractionUnsimplified:
		spec.Kind = Kind(typ)
		value, ok := document.ScalarString(n, "value")
		if !ok {
			return fail(IssueFraction, "%s needs a value like \"num/den\"", typ)
		}
		spec.Expr = value
		num, den, ok := maths.SplitFraction(expr.InlinePlaceholders(value))
		if !ok {
			return fail(IssueFraction, "value %q is not of the form num/den", value)
		}
		for _, side := range []string{num, den} {
			if _, err := expr.Compile(side); err != nil {
				return fail(IssueFraction, "%v", err)
			}
		}
		return spec, nil
	case KindLiteral:
		spec.Kind = KindLiteral
		v := document.MapValue(n, "value")
		if v == nil || v.Kind != yaml.ScalarNode {
			return fail(IssueMissingType, "literal needs a scalar value")
		}
		lit, err := scalarValue(v)
		if err != nil {
			return fail(IssueRange, "%v", err)
		}
		spec.Literal = lit
		return spec, nil
	default:
		spec.Kind = KindUnknown
		return fail(IssueUnknownType, "unknown type %q", typ)
	}
}

func parseRange(spec Spec, n *yaml.Node) (Spec, *SpecError) {
	fail := func(kind, format string, args ...any) (Spec, *SpecError) {
		return spec, &SpecError{Param: spec.Name, Kind: kind, Message: fmt.Sprintf(format, args...)}
	}
	var err error
	if spec.Min, err = parseBound(document.MapValue(n, "min"), spec.Kind); err != nil {
		return fail(IssueRange, "min: %v", err)
	}
	if spec.Max, err = parseBound(document.MapValue(n, "max"), spec.Kind); err != nil {
		return fail(IssueRange, "max: %v", err)
	}
	if spec.Min.Expr == nil && spec.Max.Expr == nil {
		lo, _ := spec.Min.Value.Float()
		hi, _ := spec.Max.Value.Float()
		if lo > hi {
			return fail(IssueRange, "min %s is greater than max %s", spec.Min.Value, spec.Max.Value)
		}
	}
	if d := document.MapValue(n, "decimals"); d != nil {
		v, err := scalarValue(d)
		places, ok := v.Int()
		if err != nil || !ok || places < 0 || places > 15 {
			return fail(IssueRange, "decimals must be an integer between 0 and 15")
		}
		spec.Decimals = int(places)
	}
	return spec, nil
}

func parseBound(n *yaml.Node, kind Kind) (Bound, error) {
	if n == nil || document.IsNull(n) {
		return Bound{}, fmt.Errorf("required")
	}
	if n.Kind != yaml.ScalarNode {
		return Bound{}, fmt.Errorf("must be a number, got %s", document.KindName(n))
	}
	if document.IsString(n) {
		p, err := expr.Compile(expr.InlinePlaceholders(n.Value))
		if err != nil {
			return Bound{}, err
		}
		return Bound{Expr: p}, nil
	}
	v, err := scalarValue(n)
	if err != nil {
		return Bound{}, err
	}
	if !v.IsNumeric() || v.Kind() == expr.Bool {
		return Bound{}, fmt.Errorf("must be a number, got %s", document.KindName(n))
	}
	if _, ok := v.Int(); kind == KindInt && !ok {
		return Bound{}, fmt.Errorf("must be an integer, got %s", v)
	}
	return Bound{Value: v}, nil
}

func parseChoice(spec Spec, values *yaml.Node) (Spec, *SpecError) {
	spec.Kind = KindChoice
	items := document.Items(values)
	if len(items) == 0 {
		return spec, &SpecError{Param: spec.Name, Kind: IssueChoice, Message: "choice needs a non-empty values list"}
	}
	for i, item := range items {
		if item.Kind != yaml.ScalarNode {
			return spec, &SpecError{Param: spec.Name, Kind: IssueChoice, Message: fmt.Sprintf("value %d must be a scalar, got %s", i+1, document.KindName(item))}
		}
		v, err := scalarValue(item)
		if err != nil {
			return spec, &SpecError{Param: spec.Name, Kind: IssueChoice, Message: err.Error()}
		}
		spec.Values = append(spec.Values, v)
	}
	return spec, nil
}

func parseExpression(spec Spec, value string) (Spec, *SpecError) {
	spec.Expr = value
	if _, err := expr.Compile(expr.InlinePlaceholders(value)); err != nil {
		return spec, &SpecError{Param: spec.Name, Kind: IssueExpression, Message: err.Error()}
	}
	return spec, nil
}

func scalarValue(n *yaml.Node) (expr.Value, error) {
	raw, err := document.Scalar(n)
	if err != nil {
		return expr.Value{}, err
	}
	return expr.FromAny(raw)
}
