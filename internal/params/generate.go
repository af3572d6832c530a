package params

import (
	"fmt"
	"math"
	"math/rand/v2"

	"github.com/qforge/qforge/internal/expr"
	"github.com/qforge/qforge/internal/maths"
)

// Warning is a non-fatal problem met while generating one parameter.
type Warning struct {
	Param   string
	Kind    string
	Message string
}

func (w Warning) String() string {
	return fmt.Sprintf("parameter %q: %s", w.Param, w.Message)
}

// Warning kinds.
const (
	WarnUnknownType = IssueUnknownType
	WarnExpression  = "expression_error"
	WarnFraction    = "fraction_error"
	WarnRange       = "parameter_range_error"
)

// NewRand returns the random source used for one render.
func NewRand(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

// Generate produces a value for every spec in order. Later specs see the
// values of earlier ones. prior is copied, never modified.
func Generate(specs []Spec, prior expr.Bindings, rng *rand.Rand) (expr.Bindings, []Warning) {
	out := make(expr.Bindings, len(prior)+len(specs))
	for k, v := range prior {
		out[k] = v
	}
	var warnings []Warning
	for _, s := range specs {
		v, w := generateOne(s, out, rng)
		if w != nil {
			warnings = append(warnings, *w)
		}
		out[s.Name] = v
	}
	return out, warnings
}

func generateOne(s Spec, env expr.Bindings, rng *rand.Rand) (expr.Value, *Warning) {
	warn := func(kind string, format string, args ...any) *Warning {
		return &Warning{Param: s.Name, Kind: kind, Message: fmt.Sprintf(format, args...)}
	}

	switch s.Kind {
	case KindLiteral:
		return s.Literal, nil

	case KindInt:
		lo, hi, err := intRange(s, env)
		if err != nil {
			return expr.NullValue(), warn(WarnRange, "%v", err)
		}
		return expr.IntValue(randInt(rng, lo, hi)), nil

	case KindFloat:
		lo, hi, err := floatRange(s, env)
		if err != nil {
			return expr.NullValue(), warn(WarnRange, "%v", err)
		}
		f := lo + rng.Float64()*(hi-lo)
		if s.Decimals >= 0 {
			f = maths.RoundTo(f, s.Decimals)
		}
		return expr.FloatValue(f), nil

	case KindChoice:
		return s.Values[rng.IntN(len(s.Values))], nil

	case KindExpression:
		text, failures := expr.Substitute(s.Expr, env, maths.Helpers())
		if len(failures) > 0 {
			return expr.StringValue(text), warn(WarnExpression, "%v", failures[0])
		}
		v, err := expr.EvalWith(text, env, maths.Helpers())
		if err != nil {
			return expr.StringValue(text), warn(WarnExpression, "%v", err)
		}
		if s.AsInt {
			if i, ok := v.Int(); ok {
				return expr.IntValue(i), nil
			}
		}
		return v, nil

	case KindFraction, KindFractionUnsimplified:
		f, err := maths.EvalFraction(s.Expr, env, s.Kind == KindFraction)
		if err != nil {
			text, _ := expr.Substitute(s.Expr, env, maths.Helpers())
			return expr.StringValue(text), warn(WarnFraction, "%v", err)
		}
		return expr.StringValue(f.String()), nil
	}

	return expr.NullValue(), warn(WarnUnknownType, "unknown type %q", s.RawType)
}

func intRange(s Spec, env expr.Bindings) (int64, int64, error) {
	lo, err := s.Min.resolve(env)
	if err != nil {
		return 0, 0, fmt.Errorf("min: %w", err)
	}
	hi, err := s.Max.resolve(env)
	if err != nil {
		return 0, 0, fmt.Errorf("max: %w", err)
	}
	a, ok := lo.Int()
	if !ok {
		return 0, 0, fmt.Errorf("min %s is not an integer", lo)
	}
	b, ok := hi.Int()
	if !ok {
		return 0, 0, fmt.Errorf("max %s is not an integer", hi)
	}
	if a > b {
		return 0, 0, fmt.Errorf("min %d is greater than max %d", a, b)
	}
	return a, b, nil
}

func floatRange(s Spec, env expr.Bindings) (float64, float64, error) {
	lo, err := s.Min.resolve(env)
	if err != nil {
		return 0, 0, fmt.Errorf("min: %w", err)
	}
	hi, err := s.Max.resolve(env)
	if err != nil {
		return 0, 0, fmt.Errorf("max: %w", err)
	}
	a, ok := lo.Float()
	if !ok || math.IsNaN(a) {
		return 0, 0, fmt.Errorf("min %s is not a number", lo)
	}
	b, ok := hi.Float()
	if !ok || math.IsNaN(b) {
		return 0, 0, fmt.Errorf("max %s is not a number", hi)
	}
	if a > b {
		return 0, 0, fmt.Errorf("min %s is greater than max %s", lo, hi)
	}
	return a, b, nil
}

// randInt returns a uniform integer in [lo, hi].
func randInt(rng *rand.Rand, lo, hi int64) int64 {
	span := uint64(hi-lo) + 1
	if span == 0 {
		return int64(rng.Uint64())
	}
	return lo + int64(rng.Uint64N(span))
}
