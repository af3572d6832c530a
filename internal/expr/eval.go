package expr

import (
	"fmt"
	"math"
	"strings"
)

// Func is an allow-listed helper callable from an expression.
type Func func(args []Value) (Value, error)

// Funcs is the allow-list passed to evaluation. A nil allow-list rejects
// every call.
type Funcs map[string]Func

type env struct {
	bindings Bindings
	funcs    Funcs
}

// Program is a compiled expression. It is immutable and safe for
// concurrent use.
type Program struct {
	src   string
	root  node
	names []string
	calls []string
}

// Compile parses src without evaluating it.
func Compile(src string) (*Program, error) {
	p, root, err := parse(src)
	if err != nil {
		return nil, &Error{Expr: src, Cause: err}
	}
	return &Program{src: src, root: root, names: p.order, calls: p.calls}, nil
}

// Source returns the text the program was compiled from.
func (p *Program) Source() string { return p.src }

// Names returns every variable the expression references, in first-use order.
func (p *Program) Names() []string {
	out := make([]string, len(p.names))
	copy(out, p.names)
	return out
}

// Calls returns the function names the expression calls, in source order.
func (p *Program) Calls() []string {
	out := make([]string, len(p.calls))
	copy(out, p.calls)
	return out
}

// Eval runs the program against bindings. funcs may be nil.
func (p *Program) Eval(b Bindings, funcs Funcs) (Value, error) {
	v, err := p.root.eval(&env{bindings: b, funcs: funcs})
	if err != nil {
		return Value{}, &Error{Expr: p.src, Cause: err}
	}
	return v, nil
}

// Eval compiles and evaluates src with no helper functions.
func Eval(src string, b Bindings) (Value, error) {
	return EvalWith(src, b, nil)
}

// EvalWith compiles and evaluates src with the given helper allow-list.
func EvalWith(src string, b Bindings, funcs Funcs) (Value, error) {
	p, err := Compile(strings.TrimSpace(src))
	if err != nil {
		return Value{}, err
	}
	return p.Eval(b, funcs)
}

func (n *literal) eval(*env) (Value, error) { return n.v, nil }

func (n *name) eval(e *env) (Value, error) {
	v, ok := e.bindings[n.id]
	if !ok {
		return Value{}, fmt.Errorf("%w: %s", ErrUnresolvedName, n.id)
	}
	return v, nil
}

func (n *not) eval(e *env) (Value, error) {
	v, err := n.x.eval(e)
	if err != nil {
		return Value{}, err
	}
	return BoolValue(!v.Truthy()), nil
}

// logical returns the deciding operand, not a coerced bool.
func (n *logical) eval(e *env) (Value, error) {
	x, err := n.x.eval(e)
	if err != nil {
		return Value{}, err
	}
	if n.and != x.Truthy() {
		return x, nil
	}
	return n.y.eval(e)
}

func (n *unary) eval(e *env) (Value, error) {
	v, err := n.x.eval(e)
	if err != nil {
		return Value{}, err
	}
	if !v.IsNumeric() {
		return Value{}, fmt.Errorf("%w: bad operand type for unary %s: %s", ErrType, n.op, v.Kind())
	}
	if n.op == "+" {
		if v.kind == Bool {
			i, _ := v.Int()
			return IntValue(i), nil
		}
		return v, nil
	}
	if v.kind == Float {
		return FloatValue(-v.f), nil
	}
	i, _ := v.Int()
	if i == math.MinInt64 {
		return Value{}, ErrOverflow
	}
	return IntValue(-i), nil
}

func (n *compare) eval(e *env) (Value, error) {
	left, err := n.operands[0].eval(e)
	if err != nil {
		return Value{}, err
	}
	for i, op := range n.ops {
		right, err := n.operands[i+1].eval(e)
		if err != nil {
			return Value{}, err
		}
		ok, err := compareValues(op, left, right)
		if err != nil {
			return Value{}, err
		}
		if !ok {
			return BoolValue(false), nil
		}
		left = right
	}
	return BoolValue(true), nil
}

func (n *call) eval(e *env) (Value, error) {
	fn, ok := e.funcs[n.fn]
	if !ok {
		return Value{}, fmt.Errorf("%w: call to %s", ErrDisallowed, n.fn)
	}
	args := make([]Value, len(n.args))
	for i, a := range n.args {
		v, err := a.eval(e)
		if err != nil {
			return Value{}, err
		}
		args[i] = v
	}
	v, err := fn(args)
	if err != nil {
		return Value{}, fmt.Errorf("%s(): %w", n.fn, err)
	}
	return v, nil
}

func (n *binary) eval(e *env) (Value, error) {
	x, err := n.x.eval(e)
	if err != nil {
		return Value{}, err
	}
	y, err := n.y.eval(e)
	if err != nil {
		return Value{}, err
	}
	return arith(n.op, x, y)
}

func compareValues(op string, x, y Value) (bool, error) {
	if x.IsNumeric() && y.IsNumeric() {
		if x.kind != Float && y.kind != Float {
			a, _ := x.Int()
			b, _ := y.Int()
			return cmpResult(op, compareInts(a, b)), nil
		}
		a, _ := x.Float()
		b, _ := y.Float()
		if math.IsNaN(a) || math.IsNaN(b) {
			return op == "!=", nil
		}
		return cmpResult(op, compareFloats(a, b)), nil
	}
	if x.kind == String && y.kind == String {
		return cmpResult(op, strings.Compare(x.s, y.s)), nil
	}
	if x.kind == Null && y.kind == Null {
		switch op {
		case "==":
			return true, nil
		case "!=":
			return false, nil
		}
	}
	switch op {
	case "==":
		return false, nil
	case "!=":
		return true, nil
	}
	return false, fmt.Errorf("%w: '%s' not supported between %s and %s", ErrType, op, x.Kind(), y.Kind())
}

func cmpResult(op string, c int) bool {
	switch op {
	case "==":
		return c == 0
	case "!=":
		return c != 0
	case "<":
		return c < 0
	case "<=":
		return c <= 0
	case ">":
		return c > 0
	default:
		return c >= 0
	}
}

func compareInts(a, b int64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

func compareFloats(a, b float64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}
