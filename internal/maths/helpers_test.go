package maths

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qforge/qforge/internal/expr"
)

func TestCombinatorics(t *testing.T) {
	c, err := Comb(5, 2)
	require.NoError(t, err)
	assert.Equal(t, int64(10), c)

	c, err = Comb(2, 5)
	require.NoError(t, err)
	assert.Equal(t, int64(0), c)

	p, err := Perm(5, 2)
	require.NoError(t, err)
	assert.Equal(t, int64(20), p)

	f, err := Factorial(5)
	require.NoError(t, err)
	assert.Equal(t, int64(120), f)

	_, err = Factorial(25)
	assert.Error(t, err)
}

func TestWaysSum(t *testing.T) {
	tests := []struct {
		dice, target, want int64
	}{
		{1, 3, 1},
		{2, 7, 6},
		{2, 2, 1},
		{2, 12, 1},
		{2, 13, 0},
		{3, 10, 27},
	}
	for _, tt := range tests {
		got, err := WaysSum(tt.dice, tt.target)
		require.NoError(t, err)
		assert.Equal(t, tt.want, got, "ways_sum(%d, %d)", tt.dice, tt.target)
	}
}

func TestHypergeom(t *testing.T) {
	p, err := Hypergeom(10, 4, 3, 1)
	require.NoError(t, err)
	assert.InDelta(t, 0.5, p, 1e-9)
}

func TestHelpersFromExpressions(t *testing.T) {
	b := expr.Bindings{"n": expr.IntValue(6), "x": expr.FloatValue(2.5)}
	tests := []struct {
		src  string
		want string
	}{
		{"nCr(n, 2)", "15"},
		{"nPr(n, 2)", "30"},
		{"factorial(4)", "24"},
		{"ways_sum(2, n + 1)", "6"},
		{"gcd(12, 18)", "6"},
		{"lcm(4, 6)", "12"},
		{"abs(-n)", "6"},
		{"min(3, n, 1)", "1"},
		{"max(3, n, 1)", "6"},
		{"round(x)", "2"},
		{"round(3.14159, 2)", "3.14"},
		{"floor(x)", "2"},
		{"ceil(x)", "3"},
		{"sqrt(16)", "4"},
	}
	for _, tt := range tests {
		v, err := expr.EvalWith(tt.src, b, Helpers())
		require.NoError(t, err, tt.src)
		assert.Equal(t, tt.want, v.String(), tt.src)
	}
}

func TestCombinatoricsLimits(t *testing.T) {
	const huge = 4_000_000_000_000_000_000

	tests := []struct {
		name string
		fn   func() (int64, error)
		want int64
	}{
		{"comb widest that fits", func() (int64, error) { return Comb(66, 33) }, 7219428434016265740},
		{"comb symmetric", func() (int64, error) { return Comb(huge, huge-1) }, huge},
		{"perm single", func() (int64, error) { return Perm(huge, 1) }, huge},
		{"perm full", func() (int64, error) { return Perm(20, 20) }, 2432902008176640000},
		{"factorial largest", func() (int64, error) { return Factorial(20) }, 2432902008176640000},
		{"factorial zero", func() (int64, error) { return Factorial(0) }, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.fn()
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	overflows := map[string]func() (int64, error){
		"comb 68 34":       func() (int64, error) { return Comb(68, 34) },
		"comb huge":        func() (int64, error) { return Comb(huge, huge/2) },
		"perm huge":        func() (int64, error) { return Perm(huge, 3*huge/4) },
		"factorial 21":     func() (int64, error) { return Factorial(21) },
		"factorial 2e8":    func() (int64, error) { return Factorial(200_000_000) },
		"factorial maxint": func() (int64, error) { return Factorial(math.MaxInt64) },
	}
	for name, fn := range overflows {
		t.Run(name, func(t *testing.T) {
			_, err := fn()
			assert.ErrorIs(t, err, errRange)
		})
	}
}

func TestHelpersRejectRunawayArguments(t *testing.T) {
	for _, src := range []string{
		"factorial(200000000)",
		"nPr(4000000000000000000, 3000000000000000000)",
		"nCr(4000000000000000000, 2000000000000000000)",
		"hypergeom(4000000000000000000, 2000000000000000000, 1000000000000000000, 5)",
	} {
		_, err := expr.EvalWith(src, nil, Helpers())
		assert.Error(t, err, src)
	}
}

func TestRoundExtremePlaces(t *testing.T) {
	b := expr.Bindings{"x": expr.FloatValue(2.5)}
	for _, src := range []string{"round(x, 400)", "round(x, 9223372036854775807)", "round(x, 20)"} {
		v, err := expr.EvalWith(src, b, Helpers())
		require.NoError(t, err, src)
		assert.Equal(t, "2.5", v.String(), src)
	}

	v, err := expr.EvalWith("round(x, -400)", b, Helpers())
	require.NoError(t, err)
	f, ok := v.Float()
	require.True(t, ok)
	assert.Zero(t, f)

	assert.Equal(t, 2.5, RoundTo(2.5, 400))
	assert.False(t, math.IsNaN(RoundTo(1e300, 20)))
	assert.Equal(t, 1e300, RoundTo(1e300, 20))
}
