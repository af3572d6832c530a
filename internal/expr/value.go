package expr

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
)

// Kind identifies the dynamic type of a Value.
type Kind int

const (
	Null Kind = iota
	Int
	Float
	Bool
	String
)

func (k Kind) String() string {
	switch k {
	case Int:
		return "int"
	case Float:
		return "float"
	case Bool:
		return "bool"
	case String:
		return "string"
	default:
		return "null"
	}
}

// Value is a scalar produced by evaluation or bound as a parameter.
type Value struct {
	kind Kind
	i    int64
	f    float64
	b    bool
	s    string
}

// Bindings maps parameter names to their generated values.
type Bindings map[string]Value

func IntValue(i int64) Value     { return Value{kind: Int, i: i} }
func FloatValue(f float64) Value { return Value{kind: Float, f: f} }
func BoolValue(b bool) Value     { return Value{kind: Bool, b: b} }
func StringValue(s string) Value { return Value{kind: String, s: s} }
func NullValue() Value           { return Value{} }

// FromAny converts a decoded YAML or JSON scalar into a Value.
func FromAny(v any) (Value, error) {
	switch t := v.(type) {
	case nil:
		return NullValue(), nil
	case Value:
		return t, nil
	case bool:
		return BoolValue(t), nil
	case int:
		return IntValue(int64(t)), nil
	case int64:
		return IntValue(t), nil
	case int32:
		return IntValue(int64(t)), nil
	case uint64:
		if t > math.MaxInt64 {
			return Value{}, fmt.Errorf("%w: %d does not fit in int64", ErrOverflow, t)
		}
		return IntValue(int64(t)), nil
	case float64:
		return FloatValue(t), nil
	case float32:
		return FloatValue(float64(t)), nil
	case string:
		return StringValue(t), nil
	default:
		return Value{}, fmt.Errorf("%w: unsupported scalar %T", ErrType, v)
	}
}

func (v Value) Kind() Kind { return v.kind }

// IsNumeric reports whether v takes part in arithmetic. Bools count as 0/1.
func (v Value) IsNumeric() bool {
	return v.kind == Int || v.kind == Float || v.kind == Bool
}

// Int returns v as an integer. Floats convert only when they are whole.
func (v Value) Int() (int64, bool) {
	switch v.kind {
	case Int:
		return v.i, true
	case Bool:
		if v.b {
			return 1, true
		}
		return 0, true
	case Float:
		if v.f == math.Trunc(v.f) && !math.IsInf(v.f, 0) && math.Abs(v.f) < 1<<63 {
			return int64(v.f), true
		}
	}
	return 0, false
}

func (v Value) Float() (float64, bool) {
	switch v.kind {
	case Int:
		return float64(v.i), true
	case Float:
		return v.f, true
	case Bool:
		if v.b {
			return 1, true
		}
		return 0, true
	}
	return 0, false
}

func (v Value) Str() (string, bool) {
	return v.s, v.kind == String
}

// Truthy follows the usual rules: zero, empty and null are false.
func (v Value) Truthy() bool {
	switch v.kind {
	case Int:
		return v.i != 0
	case Float:
		return v.f != 0
	case Bool:
		return v.b
	case String:
		return v.s != ""
	default:
		return false
	}
}

// Interface returns the plain Go value, for JSON transport.
func (v Value) Interface() any {
	switch v.kind {
	case Int:
		return v.i
	case Float:
		return v.f
	case Bool:
		return v.b
	case String:
		return v.s
	default:
		return nil
	}
}

// String formats v the way it is written into substituted text.
func (v Value) String() string {
	switch v.kind {
	case Int:
		return strconv.FormatInt(v.i, 10)
	case Float:
		return FormatFloat(v.f)
	case Bool:
		if v.b {
			return "True"
		}
		return "False"
	case String:
		return v.s
	default:
		return "None"
	}
}

// FormatFloat prints the shortest decimal form, dropping a trailing ".0".
func FormatFloat(f float64) string {
	if f == 0 {
		return "0"
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}

func (v Value) MarshalJSON() ([]byte, error) {
	switch v.kind {
	case Int:
		return []byte(strconv.FormatInt(v.i, 10)), nil
	case Float:
		if math.IsNaN(v.f) || math.IsInf(v.f, 0) {
			return []byte("null"), nil
		}
		return []byte(strconv.FormatFloat(v.f, 'g', -1, 64)), nil
	case Bool:
		return []byte(strconv.FormatBool(v.b)), nil
	case String:
		return json.Marshal(v.s)
	default:
		return []byte("null"), nil
	}
}
