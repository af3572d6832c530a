package maths

import (
	"errors"
	"fmt"
	"math"
	"math/big"

	"github.com/qforge/qforge/internal/expr"
)

const minInt64 = math.MinInt64

var errRange = errors.New("result out of range")

// GCD returns the greatest common divisor of a and b.
// Both a and b must be non-negative.
func GCD(a, b int64) int64 {
	for b != 0 {
		a, b = b, a%b
	}
	return a
}

// Abs returns the absolute value of n.
func Abs(n int64) int64 {
	if n < 0 {
		return -n
	}
	return n
}

// maxFactorial is the largest n whose factorial fits in an int64.
const maxFactorial = 20

// Comb returns n choose r. It is zero when r > n.
func Comb(n, r int64) (int64, error) {
	if n < 0 || r < 0 {
		return 0, fmt.Errorf("n and r must be non-negative")
	}
	if r > n {
		return 0, nil
	}
	k := min(r, n-r)
	// After step i, c holds C(n-k+i, i). That grows at least as fast as
	// 2^i, so an oversized result is detected within 63 steps.
	c := big.NewInt(1)
	for i := int64(1); i <= k; i++ {
		c.Mul(c, big.NewInt(n-k+i))
		c.Quo(c, big.NewInt(i))
		if !c.IsInt64() {
			return 0, errRange
		}
	}
	return c.Int64(), nil
}

// Perm returns n!/(n-r)!.
func Perm(n, r int64) (int64, error) {
	if n < 0 || r < 0 {
		return 0, fmt.Errorf("n and r must be non-negative")
	}
	if r > n {
		return 0, nil
	}
	out := int64(1)
	for i := n; i > n-r; i-- {
		var ok bool
		if out, ok = mulInt(out, i); !ok {
			return 0, errRange
		}
	}
	return out, nil
}

func Factorial(n int64) (int64, error) {
	if n < 0 {
		return 0, fmt.Errorf("factorial of negative number")
	}
	if n > maxFactorial {
		return 0, errRange
	}
	return Perm(n, n)
}

func mulInt(a, b int64) (int64, bool) {
	if a == 0 || b == 0 {
		return 0, true
	}
	r := a * b
	if r/b != a || (a == -1 && b == minInt64) || (b == -1 && a == minInt64) {
		return 0, false
	}
	return r, true
}

// WaysSum counts the outcomes of rolling dice six-sided dice that sum to target.
func WaysSum(dice, target int64) (int64, error) {
	if dice < 0 || dice > 64 {
		return 0, fmt.Errorf("dice must be between 0 and 64")
	}
	if target < dice || target > 6*dice {
		return 0, nil
	}
	ways := make([]*big.Int, 6*dice+1)
	for i := range ways {
		ways[i] = new(big.Int)
	}
	ways[0].SetInt64(1)
	for d := int64(1); d <= dice; d++ {
		next := make([]*big.Int, len(ways))
		for i := range next {
			next[i] = new(big.Int)
		}
		for s := int64(0); s <= 6*(d-1); s++ {
			if ways[s].Sign() == 0 {
				continue
			}
			for face := int64(1); face <= 6; face++ {
				next[s+face].Add(next[s+face], ways[s])
			}
		}
		ways = next
	}
	return bigToInt(ways[target])
}

// Hypergeom is the probability of exactly k successes in n draws without
// replacement from N items of which K are successes.
func Hypergeom(N, K, n, k int64) (float64, error) {
	a, err := Comb(K, k)
	if err != nil {
		return 0, err
	}
	b, err := Comb(N-K, n-k)
	if err != nil {
		return 0, err
	}
	c, err := Comb(N, n)
	if err != nil {
		return 0, err
	}
	if c == 0 {
		return 0, fmt.Errorf("no ways to draw %d from %d", n, N)
	}
	return float64(a) * float64(b) / float64(c), nil
}

func bigToInt(b *big.Int) (int64, error) {
	if !b.IsInt64() {
		return 0, errRange
	}
	return b.Int64(), nil
}

// Helpers returns the allow-list of pure functions callable from template
// expressions.
func Helpers() expr.Funcs {
	return helpers
}

var helpers = expr.Funcs{
	"nCr":       intFunc2(Comb),
	"comb":      intFunc2(Comb),
	"nPr":       intFunc2(Perm),
	"perm":      intFunc2(Perm),
	"ways_sum":  intFunc2(WaysSum),
	"factorial": factorialFunc,
	"hypergeom": hypergeomFunc,
	"gcd":       gcdFunc,
	"lcm":       lcmFunc,
	"abs":       absFunc,
	"min":       extremum(func(c int) bool { return c < 0 }),
	"max":       extremum(func(c int) bool { return c > 0 }),
	"round":     roundFunc,
	"floor":     floatToInt(math.Floor),
	"ceil":      floatToInt(math.Ceil),
	"sqrt":      sqrtFunc,
}

func intArgs(args []expr.Value, want int) ([]int64, error) {
	if len(args) != want {
		return nil, fmt.Errorf("takes %d arguments, got %d", want, len(args))
	}
	out := make([]int64, want)
	for i, a := range args {
		n, ok := a.Int()
		if !ok {
			return nil, fmt.Errorf("argument %d must be an integer, got %s", i+1, a)
		}
		out[i] = n
	}
	return out, nil
}

func floatArg(args []expr.Value) (float64, error) {
	if len(args) != 1 {
		return 0, fmt.Errorf("takes 1 argument, got %d", len(args))
	}
	f, ok := args[0].Float()
	if !ok {
		return 0, fmt.Errorf("argument must be a number, got %s", args[0].Kind())
	}
	return f, nil
}

func intFunc2(fn func(a, b int64) (int64, error)) expr.Func {
	return func(args []expr.Value) (expr.Value, error) {
		n, err := intArgs(args, 2)
		if err != nil {
			return expr.Value{}, err
		}
		r, err := fn(n[0], n[1])
		if err != nil {
			return expr.Value{}, err
		}
		return expr.IntValue(r), nil
	}
}

func factorialFunc(args []expr.Value) (expr.Value, error) {
	n, err := intArgs(args, 1)
	if err != nil {
		return expr.Value{}, err
	}
	r, err := Factorial(n[0])
	if err != nil {
		return expr.Value{}, err
	}
	return expr.IntValue(r), nil
}

func hypergeomFunc(args []expr.Value) (expr.Value, error) {
	n, err := intArgs(args, 4)
	if err != nil {
		return expr.Value{}, err
	}
	p, err := Hypergeom(n[0], n[1], n[2], n[3])
	if err != nil {
		return expr.Value{}, err
	}
	return expr.FloatValue(p), nil
}

func gcdFunc(args []expr.Value) (expr.Value, error) {
	n, err := intArgs(args, 2)
	if err != nil {
		return expr.Value{}, err
	}
	return expr.IntValue(GCD(Abs(n[0]), Abs(n[1]))), nil
}

func lcmFunc(args []expr.Value) (expr.Value, error) {
	n, err := intArgs(args, 2)
	if err != nil {
		return expr.Value{}, err
	}
	if n[0] == 0 || n[1] == 0 {
		return expr.IntValue(0), nil
	}
	a, b := Abs(n[0]), Abs(n[1])
	r := new(big.Int).Mul(big.NewInt(a/GCD(a, b)), big.NewInt(b))
	v, err := bigToInt(r)
	if err != nil {
		return expr.Value{}, err
	}
	return expr.IntValue(v), nil
}

func absFunc(args []expr.Value) (expr.Value, error) {
	if len(args) != 1 {
		return expr.Value{}, fmt.Errorf("takes 1 argument, got %d", len(args))
	}
	if args[0].Kind() == expr.Float {
		f, _ := args[0].Float()
		return expr.FloatValue(math.Abs(f)), nil
	}
	n, ok := args[0].Int()
	if !ok || n == minInt64 {
		return expr.Value{}, fmt.Errorf("argument must be a number, got %s", args[0])
	}
	return expr.IntValue(Abs(n)), nil
}

// extremum picks the argument that wins against every other under better.
func extremum(better func(c int) bool) expr.Func {
	return func(args []expr.Value) (expr.Value, error) {
		if len(args) == 0 {
			return expr.Value{}, fmt.Errorf("expected at least 1 argument")
		}
		best := args[0]
		bf, ok := best.Float()
		if !ok {
			return expr.Value{}, fmt.Errorf("arguments must be numbers")
		}
		for _, a := range args[1:] {
			f, ok := a.Float()
			if !ok {
				return expr.Value{}, fmt.Errorf("arguments must be numbers")
			}
			c := 0
			if f < bf {
				c = -1
			} else if f > bf {
				c = 1
			}
			if better(c) {
				best, bf = a, f
			}
		}
		return best, nil
	}
}

// roundFunc rounds half to even. With a second argument it keeps that many
// decimal places and returns a float.
func roundFunc(args []expr.Value) (expr.Value, error) {
	if len(args) == 0 || len(args) > 2 {
		return expr.Value{}, fmt.Errorf("takes 1 or 2 arguments, got %d", len(args))
	}
	f, ok := args[0].Float()
	if !ok {
		return expr.Value{}, fmt.Errorf("argument must be a number, got %s", args[0].Kind())
	}
	if len(args) == 1 {
		if args[0].Kind() == expr.Int {
			return args[0], nil
		}
		return floatToIntValue(math.RoundToEven(f))
	}
	places, ok := args[1].Int()
	if !ok {
		return expr.Value{}, fmt.Errorf("ndigits must be an integer")
	}
	r := RoundTo(f, int(max(min(places, 400), -400)))
	if math.IsNaN(r) || math.IsInf(r, 0) {
		return expr.Value{}, errRange
	}
	return expr.FloatValue(r), nil
}

// RoundTo rounds f to places decimal digits, half to even. Places beyond
// float64 precision leave f unchanged.
func RoundTo(f float64, places int) float64 {
	scale := math.Pow(10, float64(places))
	if scale == 0 {
		return math.Copysign(0, f)
	}
	scaled := f * scale
	if math.IsInf(scale, 0) || math.IsInf(scaled, 0) {
		return f
	}
	return math.RoundToEven(scaled) / scale
}

func floatToInt(fn func(float64) float64) expr.Func {
	return func(args []expr.Value) (expr.Value, error) {
		f, err := floatArg(args)
		if err != nil {
			return expr.Value{}, err
		}
		return floatToIntValue(fn(f))
	}
}

func floatToIntValue(f float64) (expr.Value, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) || math.Abs(f) >= 1<<63 {
		return expr.Value{}, errRange
	}
	return expr.IntValue(int64(f)), nil
}

func sqrtFunc(args []expr.Value) (expr.Value, error) {
	f, err := floatArg(args)
	if err != nil {
		return expr.Value{}, err
	}
	if f < 0 {
		return expr.Value{}, fmt.Errorf("math domain error")
	}
	return expr.FloatValue(math.Sqrt(f)), nil
}
