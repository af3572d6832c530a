package diagram

import (
	"fmt"
	"regexp"
)

// Rect(x: 10, y: 5, pos: (0,0)) where x and y are width and height.
var rectRe = regexp.MustCompile(`^Rect\s*\(\s*x:\s*(?P<w>[^,]+?)\s*,\s*y:\s*(?P<h>[^,]+?)\s*,\s*` + posPat + `\s*\)`)

type Rect struct {
	Width, Height float64
	Pos           Pos
}

func (Rect) TypeName() string { return "Rect" }

func parseRect(line string) (Rect, bool) {
	g, ok := groups(rectRe, line)
	if !ok {
		return Rect{}, false
	}
	w, ok := parseFloat(g["w"])
	if !ok || w < 0 {
		return Rect{}, false
	}
	h, ok := parseFloat(g["h"])
	if !ok || h < 0 {
		return Rect{}, false
	}
	pos, ok := parsePos(g)
	if !ok {
		return Rect{}, false
	}
	return Rect{Width: w, Height: h, Pos: pos}, true
}

func renderRect(r Rect) string {
	return fmt.Sprintf(`<rect x="%s" y="%s" width="%s" height="%s" fill="none" stroke="black" stroke-width="0.5" />`,
		num(r.Pos.X-r.Width/2), num(r.Pos.Y-r.Height/2), num(r.Width), num(r.Height))
}
