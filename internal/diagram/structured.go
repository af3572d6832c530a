package diagram

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// Spec is a structured diagram: a canvas and a list of primitive elements.
type Spec struct {
	Type     string    `yaml:"type"`
	Width    float64   `yaml:"width"`
	Height   float64   `yaml:"height"`
	Elements []Element `yaml:"elements"`
}

// Element is one primitive of a structured diagram. Which coordinates are
// read depends on Type.
type Element struct {
	Type string `yaml:"type"`

	X1 float64 `yaml:"x1"`
	Y1 float64 `yaml:"y1"`
	X2 float64 `yaml:"x2"`
	Y2 float64 `yaml:"y2"`
	CX float64 `yaml:"cx"`
	CY float64 `yaml:"cy"`
	R  float64 `yaml:"r"`
	X  float64 `yaml:"x"`
	Y  float64 `yaml:"y"`

	Width  float64     `yaml:"width"`
	Height float64     `yaml:"height"`
	Points [][]float64 `yaml:"points"`
	Text   string      `yaml:"text"`
	Anchor string      `yaml:"anchor"`

	Style map[string]string `yaml:",inline"`

	Translate []float64 `yaml:"translate"`
	Rotate    *float64  `yaml:"rotate"`
	Elements  []Element `yaml:"elements"`
}

// ElementWarning is a problem with one element; the rest still render.
type ElementWarning struct {
	Kind    string
	Message string
}

var styleKeys = []string{
	"stroke", "stroke_width", "stroke_dasharray", "fill", "opacity",
	"font_size", "font_family", "text_anchor",
}

const arrowDefs = `<defs><marker id="arrow" markerWidth="10" markerHeight="10" refX="10" refY="3" orient="auto" markerUnits="strokeWidth"><path d="M0,0 L10,3 L0,6 z" fill="#000" /></marker></defs>`

type transform struct {
	translate []float64
	rotate    *float64
}

func (t transform) attr() string {
	var parts []string
	if len(t.translate) == 2 {
		parts = append(parts, fmt.Sprintf("translate(%s,%s)", num(t.translate[0]), num(t.translate[1])))
	}
	if t.rotate != nil {
		parts = append(parts, fmt.Sprintf("rotate(%s)", num(*t.rotate)))
	}
	if len(parts) == 0 {
		return ""
	}
	return ` transform="` + strings.Join(parts, " ") + `"`
}

// DecodeSpec reads a structured diagram from its YAML node.
// Quoted numbers decode into numeric fields.
func DecodeSpec(n *yaml.Node) (Spec, error) {
	var s Spec
	if err := unquoteNumbers(n).Decode(&s); err != nil {
		return Spec{}, fmt.Errorf("structured diagram: %w", err)
	}
	if s.Width <= 0 {
		s.Width = 400
	}
	if s.Height <= 0 {
		s.Height = 300
	}
	return s, nil
}

var numberRe = regexp.MustCompile(`^[-+]?(\d+\.?\d*|\.\d+)([eE][-+]?\d+)?$`)

// unquoteNumbers returns a copy of n with quoted numeric scalars made plain.
func unquoteNumbers(n *yaml.Node) *yaml.Node {
	c := *n
	if c.Kind == yaml.ScalarNode {
		v := strings.TrimSpace(c.Value)
		if c.Tag == "!!str" && numberRe.MatchString(v) {
			c.Tag, c.Style, c.Value = "", 0, v
		}
		return &c
	}
	c.Content = make([]*yaml.Node, len(n.Content))
	for i, child := range n.Content {
		c.Content[i] = unquoteNumbers(child)
	}
	return &c
}

// RenderSpec renders a structured diagram. A spec of type "none" or with no
// elements yields no SVG.
func RenderSpec(s Spec) (string, []ElementWarning) {
	if s.Type == "none" || len(s.Elements) == 0 {
		return "", nil
	}
	r := &specRenderer{width: s.Width, height: s.Height}
	for _, e := range s.Elements {
		r.element(e, transform{})
	}
	return fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" width="%s" height="%s" viewBox="0 0 %s %s">`,
		num(s.Width), num(s.Height), num(s.Width), num(s.Height)) +
		arrowDefs + r.body.String() + `</svg>`, r.warnings
}

type specRenderer struct {
	width, height float64
	body          strings.Builder
	warnings      []ElementWarning
}

func (r *specRenderer) element(e Element, t transform) {
	switch e.Type {
	case "line", "arrow":
		r.checkBounds(e.X1, e.Y1, t)
		r.checkBounds(e.X2, e.Y2, t)
		marker := ""
		if e.Type == "arrow" {
			marker = ` marker-end="url(#arrow)"`
		}
		fmt.Fprintf(&r.body, `<line x1="%s" y1="%s" x2="%s" y2="%s"%s%s%s />`,
			num(e.X1), num(e.Y1), num(e.X2), num(e.Y2), style(e), t.attr(), marker)
	case "circle":
		r.checkBounds(e.CX, e.CY, t)
		fmt.Fprintf(&r.body, `<circle cx="%s" cy="%s" r="%s"%s%s />`,
			num(e.CX), num(e.CY), num(e.R), style(e), t.attr())
	case "rect":
		r.checkBounds(e.X, e.Y, t)
		fmt.Fprintf(&r.body, `<rect x="%s" y="%s" width="%s" height="%s"%s%s />`,
			num(e.X), num(e.Y), num(e.Width), num(e.Height), style(e), t.attr())
	case "polygon", "polyline":
		pts, ok := pointList(e.Points)
		if !ok {
			r.warn("invalid_element", fmt.Sprintf("%s points must be [x, y] pairs", e.Type))
			return
		}
		fmt.Fprintf(&r.body, `<%s points="%s"%s%s />`, e.Type, pts, style(e), t.attr())
	case "text":
		r.checkBounds(e.X, e.Y, t)
		anchor := ""
		if e.Anchor != "" {
			anchor = ` text-anchor="` + esc(e.Anchor) + `"`
		}
		fmt.Fprintf(&r.body, `<text x="%s" y="%s"%s%s%s>%s</text>`,
			num(e.X), num(e.Y), anchor, style(e), t.attr(), esc(e.Text))
	case "group":
		inner := t
		if len(e.Translate) > 0 {
			inner.translate = e.Translate
		}
		if e.Rotate != nil {
			inner.rotate = e.Rotate
		}
		for _, child := range e.Elements {
			r.element(child, inner)
		}
	default:
		r.warn("unknown_element", fmt.Sprintf("unknown element type %q", e.Type))
	}
}

func (r *specRenderer) warn(kind, msg string) {
	r.warnings = append(r.warnings, ElementWarning{Kind: kind, Message: msg})
}

// checkBounds only inspects untransformed coordinates.
func (r *specRenderer) checkBounds(x, y float64, t transform) {
	if len(t.translate) > 0 || t.rotate != nil {
		return
	}
	if x < 0 || y < 0 || x > r.width || y > r.height {
		r.warn("off_canvas", fmt.Sprintf("element at (%s, %s) is outside the canvas", num(x), num(y)))
	}
}

func style(e Element) string {
	var b strings.Builder
	keys := make([]string, 0, len(e.Style))
	for k := range e.Style {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if !isStyleKey(k) {
			continue
		}
		fmt.Fprintf(&b, ` %s="%s"`, strings.ReplaceAll(k, "_", "-"), esc(e.Style[k]))
	}
	return b.String()
}

func isStyleKey(k string) bool {
	for _, s := range styleKeys {
		if s == k {
			return true
		}
	}
	return false
}

func pointList(points [][]float64) (string, bool) {
	parts := make([]string, len(points))
	for i, p := range points {
		if len(p) != 2 {
			return "", false
		}
		parts[i] = num(p[0]) + "," + num(p[1])
	}
	return strings.Join(parts, " "), len(parts) > 0
}
