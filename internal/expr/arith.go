package expr

import (
	"fmt"
	"math"
)

// maxIntExponent keeps integer powers from spinning on absurd exponents.
const maxIntExponent = 1 << 12

func arith(op string, x, y Value) (Value, error) {
	if x.kind == String && y.kind == String && op == "+" {
		return StringValue(x.s + y.s), nil
	}
	if !x.IsNumeric() || !y.IsNumeric() {
		return Value{}, fmt.Errorf("%w: unsupported operand types for %s: %s and %s", ErrType, op, x.Kind(), y.Kind())
	}
	if x.kind != Float && y.kind != Float {
		a, _ := x.Int()
		b, _ := y.Int()
		return intArith(op, a, b)
	}
	a, _ := x.Float()
	b, _ := y.Float()
	return floatArith(op, a, b)
}

func intArith(op string, a, b int64) (Value, error) {
	switch op {
	case "+":
		r := a + b
		if (r > a) != (b > 0) {
			return Value{}, ErrOverflow
		}
		return IntValue(r), nil
	case "-":
		r := a - b
		if (r < a) != (b > 0) {
			return Value{}, ErrOverflow
		}
		return IntValue(r), nil
	case "*":
		r, ok := mulInt(a, b)
		if !ok {
			return Value{}, ErrOverflow
		}
		return IntValue(r), nil
	case "/":
		if b == 0 {
			return Value{}, ErrDivisionByZero
		}
		return FloatValue(float64(a) / float64(b)), nil
	case "//":
		if b == 0 {
			return Value{}, ErrDivisionByZero
		}
		if a == math.MinInt64 && b == -1 {
			return Value{}, ErrOverflow
		}
		q := a / b
		if (a%b != 0) && ((a < 0) != (b < 0)) {
			q--
		}
		return IntValue(q), nil
	case "%":
		if b == 0 {
			return Value{}, ErrDivisionByZero
		}
		if b == -1 {
			return IntValue(0), nil
		}
		m := a % b
		if m != 0 && (m < 0) != (b < 0) {
			m += b
		}
		return IntValue(m), nil
	case "**":
		if b < 0 {
			if a == 0 {
				return Value{}, ErrDivisionByZero
			}
			return FloatValue(math.Pow(float64(a), float64(b))), nil
		}
		return powInt(a, b)
	}
	return Value{}, fmt.Errorf("%w: unknown operator %s", ErrSyntax, op)
}

func floatArith(op string, a, b float64) (Value, error) {
	var r float64
	switch op {
	case "+":
		r = a + b
	case "-":
		r = a - b
	case "*":
		r = a * b
	case "/":
		if b == 0 {
			return Value{}, ErrDivisionByZero
		}
		r = a / b
	case "//":
		if b == 0 {
			return Value{}, ErrDivisionByZero
		}
		r = math.Floor(a / b)
	case "%":
		if b == 0 {
			return Value{}, ErrDivisionByZero
		}
		r = a - b*math.Floor(a/b)
	case "**":
		if a == 0 && b < 0 {
			return Value{}, ErrDivisionByZero
		}
		if a < 0 && b != math.Trunc(b) {
			return Value{}, fmt.Errorf("%w: negative number raised to a fractional power", ErrType)
		}
		r = math.Pow(a, b)
	default:
		return Value{}, fmt.Errorf("%w: unknown operator %s", ErrSyntax, op)
	}
	if math.IsInf(r, 0) || math.IsNaN(r) {
		return Value{}, ErrOverflow
	}
	return FloatValue(r), nil
}

func mulInt(a, b int64) (int64, bool) {
	if a == 0 || b == 0 {
		return 0, true
	}
	r := a * b
	if r/b != a || (a == -1 && b == math.MinInt64) || (b == -1 && a == math.MinInt64) {
		return 0, false
	}
	return r, true
}

func powInt(base, exp int64) (Value, error) {
	switch base {
	case 0:
		if exp == 0 {
			return IntValue(1), nil
		}
		return IntValue(0), nil
	case 1:
		return IntValue(1), nil
	case -1:
		if exp%2 == 0 {
			return IntValue(1), nil
		}
		return IntValue(-1), nil
	}
	if exp > maxIntExponent {
		return Value{}, ErrOverflow
	}
	r := int64(1)
	for i := int64(0); i < exp; i++ {
		var ok bool
		if r, ok = mulInt(r, base); !ok {
			return Value{}, ErrOverflow
		}
	}
	return IntValue(r), nil
}
