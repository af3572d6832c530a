// Package diagram implements the line-oriented diagram language. Each
// diagram type owns a parser for its own statement grammar and a renderer
// that emits an SVG fragment.
package diagram

import (
	"fmt"
	"strings"
)

// Record is a parsed diagram statement.
type Record interface {
	TypeName() string
}

// Handler is the capability pair registered for one diagram type. Parse
// reports false for any line outside its grammar and never panics.
type Handler struct {
	Name   string
	Parse  func(line string) (Record, bool)
	Render func(Record) string
}

// Registry maps type names to handlers, in registration order. It is
// populated once and then only read.
type Registry struct {
	handlers []Handler
	names    map[string]struct{}
}

func NewRegistry() *Registry {
	return &Registry{names: make(map[string]struct{})}
}

// Register adds h. Names must be unique.
func (r *Registry) Register(h Handler) error {
	if h.Name == "" || h.Parse == nil || h.Render == nil {
		return fmt.Errorf("diagram handler %q is incomplete", h.Name)
	}
	if _, dup := r.names[h.Name]; dup {
		return fmt.Errorf("diagram type %q already registered", h.Name)
	}
	r.names[h.Name] = struct{}{}
	r.handlers = append(r.handlers, h)
	return nil
}

// Names lists the registered type names in registration order.
func (r *Registry) Names() []string {
	out := make([]string, len(r.handlers))
	for i, h := range r.handlers {
		out[i] = h.Name
	}
	return out
}

// Lookup returns the first handler whose name prefixes line.
func (r *Registry) Lookup(line string) (Handler, bool) {
	for _, h := range r.handlers {
		if strings.HasPrefix(line, h.Name) {
			return h, true
		}
	}
	return Handler{}, false
}

// typed adapts a concrete parse/render pair to a Handler.
func typed[T Record](name string, parse func(string) (T, bool), render func(T) string) Handler {
	return Handler{
		Name: name,
		Parse: func(line string) (Record, bool) {
			rec, ok := parse(line)
			if !ok {
				return nil, false
			}
			return rec, true
		},
		Render: func(rec Record) string {
			t, ok := rec.(T)
			if !ok {
				return ""
			}
			return render(t)
		},
	}
}

var builtin = newBuiltinRegistry()

func newBuiltinRegistry() *Registry {
	r := NewRegistry()
	for _, h := range []Handler{
		typed("Clock", parseClock, renderClock),
		typed("Rect", parseRect, renderRect),
		typed("DotArray", parseDotArray, renderDotArray),
		typed("NumberLine", parseNumberLine, renderNumberLine),
		typed("DiceSumGrid", parseDiceSumGrid, renderDiceSumGrid),
		typed("GraphColumn", parseGraphColumn, renderGraphColumn),
		typed("GraphLine", parseGraphLine, renderGraphLine),
		typed("GraphPie", parseGraphPie, renderGraphPie),
	} {
		if err := r.Register(h); err != nil {
			panic(err)
		}
	}
	return r
}

// Builtin returns the process-wide registry of standard diagram types.
func Builtin() *Registry { return builtin }
