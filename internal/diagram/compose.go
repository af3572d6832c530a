package diagram

import (
	"strings"
)

const (
	svgOpen  = `<svg width="400" height="240" viewBox="-25 -15 50 30" xmlns="http://www.w3.org/2000/svg">`
	svgClose = `</svg>`
)

// Skipped describes a source line that produced no fragment.
type Skipped struct {
	Line   int    `json:"line"`
	Text   string `json:"text"`
	Reason string `json:"reason"`
}

// Composition is the outcome of rendering diagram source.
type Composition struct {
	SVG       string    `json:"svg"`
	Fragments int       `json:"fragments"`
	Skipped   []Skipped `json:"skipped"`
}

// Compose renders every statement in code and wraps the fragments in one
// SVG document. Blank source yields an empty SVG string. Lines that match
// no type, or fail their type's grammar, are skipped.
func (r *Registry) Compose(code string) Composition {
	var c Composition
	if strings.TrimSpace(code) == "" {
		return c
	}
	var body strings.Builder
	for i, raw := range strings.Split(code, "\n") {
		line := strings.TrimSpace(raw)
		if line == "" {
			continue
		}
		h, ok := r.Lookup(line)
		if !ok {
			c.Skipped = append(c.Skipped, Skipped{Line: i + 1, Text: line, Reason: "unknown diagram type"})
			continue
		}
		rec, ok := h.Parse(line)
		if !ok {
			c.Skipped = append(c.Skipped, Skipped{Line: i + 1, Text: line, Reason: "does not match " + h.Name + " syntax"})
			continue
		}
		if c.Fragments > 0 {
			body.WriteByte('\n')
		}
		body.WriteString(h.Render(rec))
		c.Fragments++
	}
	c.SVG = svgOpen + body.String() + svgClose
	return c
}

// RenderSource renders diagram source with the builtin registry.
func RenderSource(code string) string {
	return builtin.Compose(code).SVG
}
