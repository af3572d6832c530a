package params

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/qforge/qforge/internal/expr"
)

func parseNode(t *testing.T, src string) *yaml.Node {
	t.Helper()
	var doc yaml.Node
	require.NoError(t, yaml.Unmarshal([]byte(src), &doc))
	return doc.Content[0]
}

func mustSpecs(t *testing.T, src string) []Spec {
	t.Helper()
	specs, errs := ParseSpecs(parseNode(t, src))
	require.Empty(t, errs)
	return specs
}

func TestParseSpecsShapes(t *testing.T) {
	specs := mustSpecs(t, `
a: {min: 1, max: 9}
b: {type: int, min: 2, max: 5}
c: {type: float, min: 0.5, max: 2.5, decimals: 1}
d: {type: choice, values: [red, green]}
e: {type: expression, value: "{{ a }} * b"}
f: {type: fraction, value: "{{a}}/{{b}}"}
g: {type: fraction_unsimplified, value: "a/b"}
h: 42
i: {type: literal, value: Sam}
j: {type: int, value: "a + b"}
k: [1, 2, 3]
`)
	want := []Kind{KindInt, KindInt, KindFloat, KindChoice, KindExpression, KindFraction,
		KindFractionUnsimplified, KindLiteral, KindLiteral, KindExpression, KindChoice}
	require.Len(t, specs, len(want))
	for i, s := range specs {
		assert.Equal(t, want[i], s.Kind, "spec %s", s.Name)
	}
	assert.Equal(t, 1, specs[2].Decimals)
	assert.True(t, specs[9].AsInt)
	assert.Equal(t, []string{"a", "b"}, specs[4].References())
	assert.Equal(t, []string{"a", "b"}, specs[5].References())
}

func TestParseSpecsErrors(t *testing.T) {
	tests := []struct {
		src  string
		kind string
	}{
		{"a: {type: int, min: 5, max: 1}", IssueRange},
		{"a: {type: int, min: 1.5, max: 3}", IssueRange},
		{"a: {type: int, max: 3}", IssueRange},
		{"a: {type: choice, values: []}", IssueChoice},
		{"a: {type: choice}", IssueChoice},
		{"a: {type: expression}", IssueExpression},
		{"a: {type: expression, value: \"1 +\"}", IssueExpression},
		{"a: {type: fraction, value: \"12\"}", IssueFraction},
		{"a: {label: x}", IssueMissingType},
		{"a: {type: matrix}", IssueUnknownType},
	}
	for _, tt := range tests {
		t.Run(tt.src, func(t *testing.T) {
			_, errs := ParseSpecs(parseNode(t, tt.src))
			require.Len(t, errs, 1)
			assert.Equal(t, tt.kind, errs[0].Kind)
		})
	}
}

func TestUnknownTypeIsKeptAndBindsNull(t *testing.T) {
	specs, errs := ParseSpecs(parseNode(t, "a: {type: matrix}\nb: 3\n"))
	require.Len(t, errs, 1)
	require.Len(t, specs, 2)

	got, warnings := Generate(specs, nil, NewRand(1))
	require.Len(t, warnings, 1)
	assert.Equal(t, WarnUnknownType, warnings[0].Kind)
	assert.Equal(t, expr.Null, got["a"].Kind())
	assert.Equal(t, "3", got["b"].String())
}

func TestGenerateIntWithinRange(t *testing.T) {
	specs := mustSpecs(t, "a: {type: int, min: -3, max: 4}\nb: {min: 0, max: 0}\n")
	for seed := uint64(0); seed < 10000; seed++ {
		got, warnings := Generate(specs, nil, NewRand(seed))
		require.Empty(t, warnings)
		a, _ := got["a"].Int()
		if a < -3 || a > 4 {
			t.Fatalf("seed %d: a = %d outside [-3, 4]", seed, a)
		}
		b, _ := got["b"].Int()
		if b != 0 {
			t.Fatalf("seed %d: b = %d, want 0", seed, b)
		}
	}
}

func TestGenerateDeterministic(t *testing.T) {
	specs := mustSpecs(t, `
a: {min: 1, max: 1000}
x: {type: float, min: 0, max: 1}
c: {type: choice, values: [p, q, r, s]}
`)
	first, _ := Generate(specs, nil, NewRand(42))
	second, _ := Generate(specs, nil, NewRand(42))
	for _, name := range []string{"a", "x", "c"} {
		assert.Equal(t, first[name], second[name], name)
	}
}

func TestGenerateDerivedValues(t *testing.T) {
	specs := mustSpecs(t, `
a: {min: 6, max: 6}
b: {min: 8, max: 8}
sum: {type: expression, value: "{{ a }} + b"}
half: {type: int, value: "b / 2"}
ratio: {type: fraction, value: "{{a}}/{{b}}"}
raw: {type: fraction_unsimplified, value: "{{a}}/{{b}}"}
hi: {type: int, min: 1, max: "{{ a }}"}
p: {type: float, min: 1, max: 2, decimals: 2}
`)
	got, warnings := Generate(specs, nil, NewRand(7))
	require.Empty(t, warnings)
	assert.Equal(t, "14", got["sum"].String())
	assert.Equal(t, expr.Int, got["half"].Kind())
	assert.Equal(t, "4", got["half"].String())
	assert.Equal(t, "3/4", got["ratio"].String())
	assert.Equal(t, "6/8", got["raw"].String())
	hi, _ := got["hi"].Int()
	assert.True(t, hi >= 1 && hi <= 6)
	p, _ := got["p"].Float()
	assert.InDelta(t, p, float64(int(p*100+0.5))/100, 1e-9)
}

func TestGenerateExpressionFailureWarns(t *testing.T) {
	specs := mustSpecs(t, `
a: {min: 0, max: 0}
bad: {type: expression, value: "10 / a"}
frac: {type: fraction, value: "1/{{ a }}"}
`)
	got, warnings := Generate(specs, nil, NewRand(3))
	require.Len(t, warnings, 2)
	assert.Equal(t, WarnExpression, warnings[0].Kind)
	assert.Equal(t, "10 / a", got["bad"].String())
	assert.Equal(t, WarnFraction, warnings[1].Kind)
	assert.Equal(t, "1/0", got["frac"].String())
}

func TestGenerateDoesNotMutatePrior(t *testing.T) {
	prior := expr.Bindings{"z": expr.IntValue(5)}
	specs := mustSpecs(t, "a: {type: expression, value: \"z + 1\"}\n")
	got, _ := Generate(specs, prior, NewRand(1))
	assert.Equal(t, "6", got["a"].String())
	_, ok := prior["a"]
	assert.False(t, ok)
}
