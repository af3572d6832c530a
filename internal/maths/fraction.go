package maths

import (
	"errors"
	"fmt"
	"strings"

	"github.com/qforge/qforge/internal/expr"
)

// ErrZeroDenominator is the cause of a SimplifyError for a zero denominator.
var ErrZeroDenominator = errors.New("zero denominator")

// SimplifyError reports a ratio that cannot be reduced.
type SimplifyError struct {
	Expr   string
	Reason string
	Err    error
}

func (e *SimplifyError) Error() string {
	if e.Expr == "" {
		return fmt.Sprintf("simplify: %s", e.Reason)
	}
	return fmt.Sprintf("simplify %q: %s", e.Expr, e.Reason)
}

func (e *SimplifyError) Unwrap() error { return e.Err }

// Fraction is an integer ratio with a positive denominator.
type Fraction struct {
	Num int64
	Den int64
}

// String always renders "p/q", including whole values such as "2/1".
func (f Fraction) String() string {
	return fmt.Sprintf("%d/%d", f.Num, f.Den)
}

// SimplifyFraction reduces num/den to lowest terms with the sign carried on
// the numerator.
func SimplifyFraction(num, den int64) (Fraction, error) {
	if den == 0 {
		return Fraction{}, &SimplifyError{Reason: "zero denominator", Err: ErrZeroDenominator}
	}
	f, err := normalizeSign(num, den)
	if err != nil {
		return Fraction{}, err
	}
	g := GCD(Abs(f.Num), f.Den)
	if g > 1 {
		f.Num /= g
		f.Den /= g
	}
	return f, nil
}

func normalizeSign(num, den int64) (Fraction, error) {
	if den < 0 {
		if num == minInt64 || den == minInt64 {
			return Fraction{}, &SimplifyError{Reason: "value out of range"}
		}
		num, den = -num, -den
	}
	return Fraction{Num: num, Den: den}, nil
}

// SplitFraction splits "num/den" at the first top-level single slash.
// Slashes inside parentheses or quotes and floor-division "//" do not count.
func SplitFraction(s string) (num, den string, ok bool) {
	depth := 0
	var quote byte
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case quote != 0:
			if c == quote {
				quote = 0
			}
		case c == '"' || c == '\'':
			quote = c
		case c == '(':
			depth++
		case c == ')':
			depth--
		case c == '/' && depth == 0:
			if i+1 < len(s) && s[i+1] == '/' {
				i++
				continue
			}
			return strings.TrimSpace(s[:i]), strings.TrimSpace(s[i+1:]), true
		}
	}
	return "", "", false
}

// EvalFraction evaluates each side of a "num/den" expression against b and
// returns the ratio, reduced when simplify is set. The placeholders in
// source are substituted first.
func EvalFraction(source string, b expr.Bindings, simplify bool) (Fraction, error) {
	text, failures := expr.Substitute(source, b, Helpers())
	if len(failures) > 0 {
		return Fraction{}, failures[0]
	}
	numSrc, denSrc, ok := SplitFraction(text)
	if !ok {
		return Fraction{}, &SimplifyError{Expr: source, Reason: "expected num/den"}
	}
	num, err := evalIntSide(numSrc, b)
	if err != nil {
		return Fraction{}, &SimplifyError{Expr: source, Reason: "numerator: " + err.Error(), Err: err}
	}
	den, err := evalIntSide(denSrc, b)
	if err != nil {
		return Fraction{}, &SimplifyError{Expr: source, Reason: "denominator: " + err.Error(), Err: err}
	}
	if den == 0 {
		return Fraction{}, &SimplifyError{Expr: source, Reason: "zero denominator", Err: ErrZeroDenominator}
	}
	if !simplify {
		f, err := normalizeSign(num, den)
		if err != nil {
			err.(*SimplifyError).Expr = source
		}
		return f, err
	}
	f, err := SimplifyFraction(num, den)
	if err != nil {
		err.(*SimplifyError).Expr = source
	}
	return f, err
}

func evalIntSide(src string, b expr.Bindings) (int64, error) {
	v, err := expr.EvalWith(src, b, Helpers())
	if err != nil {
		return 0, err
	}
	i, ok := v.Int()
	if !ok {
		return 0, fmt.Errorf("%s is not an integer", v)
	}
	return i, nil
}
