package expr

import (
	"testing"
)

func TestSubstituteIsTextualPerPlaceholder(t *testing.T) {
	got, failures := Substitute("{{ a }} + {{ b }}", Bindings{"a": IntValue(3), "b": IntValue(4)}, nil)
	if len(failures) != 0 {
		t.Fatalf("unexpected failures: %v", failures)
	}
	if got != "3 + 4" {
		t.Errorf("got %q, want %q", got, "3 + 4")
	}
}

func TestSubstituteEvaluatesExpressions(t *testing.T) {
	b := Bindings{"a": IntValue(3), "b": IntValue(4), "f": StringValue("3/4")}
	tests := []struct {
		in, want string
	}{
		{"{{a*b}} apples", "12 apples"},
		{"{{  a + b  }}", "7"},
		{"{{ f }}", "3/4"},
		{"a={{a}}, b={{ b }}", "a=3, b=4"},
		{"no placeholders", "no placeholders"},
		{"{{ a /\n b }}", "0.75"},
	}
	for _, tt := range tests {
		got, failures := Substitute(tt.in, b, nil)
		if len(failures) != 0 {
			t.Errorf("Substitute(%q): unexpected failures %v", tt.in, failures)
		}
		if got != tt.want {
			t.Errorf("Substitute(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestSubstituteLeavesFailuresVerbatim(t *testing.T) {
	got, failures := Substitute("x={{ nope }} y={{ a }} z={{ a / 0 }}", Bindings{"a": IntValue(1)}, nil)
	want := "x={{ nope }} y=1 z={{ a / 0 }}"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
	if len(failures) != 2 {
		t.Fatalf("got %d failures, want 2", len(failures))
	}
	if failures[0].Expr != "nope" {
		t.Errorf("got expr %q, want %q", failures[0].Expr, "nope")
	}
}

func TestPlaceholders(t *testing.T) {
	got := Placeholders("{{a}} and {{ b + 1 }} then {{c}}")
	want := []string{"a", "b + 1", "c"}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("placeholder %d: got %q, want %q", i, got[i], want[i])
		}
	}
}

func TestInlinePlaceholders(t *testing.T) {
	got := InlinePlaceholders("{{ a }} * 2 + {{b-1}}")
	want := "(a) * 2 + (b-1)"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}
