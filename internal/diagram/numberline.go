package diagram

import (
	"fmt"
	"regexp"
	"strings"
)

// NumberLine(min: 0, max: 10, arrows: [(2, 5), (5, 7)], pos: (0,0))
var (
	numberLineRe = regexp.MustCompile(`^NumberLine\s*\(\s*min:\s*(?P<min>-?\d+)\s*,\s*max:\s*(?P<max>-?\d+)\s*,\s*arrows:\s*\[(?P<arrows>[^\]]*)\]\s*,\s*` + posPat + `\s*\)`)
	arrowRe      = regexp.MustCompile(`\(\s*(` + numPat + `)\s*,\s*(` + numPat + `)\s*\)`)
)

const (
	numberLineLength  = 50.0
	maxNumberLineSpan = 1000
)

const arrowheadDefs = `<defs><marker id="arrowhead" markerWidth="3" markerHeight="3" refX="2.5" refY="1.5" orient="auto" markerUnits="strokeWidth"><path d="M0,0 L0,3 L3,1.5 z" fill="blue" /></marker></defs>`

type Jump struct {
	From, To float64
}

type NumberLine struct {
	Min, Max int
	Arrows   []Jump
	Pos      Pos
}

func (NumberLine) TypeName() string { return "NumberLine" }

func parseNumberLine(line string) (NumberLine, bool) {
	g, ok := groups(numberLineRe, line)
	if !ok {
		return NumberLine{}, false
	}
	lo, ok1 := parseFloat(g["min"])
	hi, ok2 := parseFloat(g["max"])
	if !ok1 || !ok2 || hi <= lo || hi-lo > maxNumberLineSpan {
		return NumberLine{}, false
	}
	pos, ok := parsePos(g)
	if !ok {
		return NumberLine{}, false
	}
	nl := NumberLine{Min: int(lo), Max: int(hi), Pos: pos}
	for _, m := range arrowRe.FindAllStringSubmatch(g["arrows"], -1) {
		from, _ := parseFloat(m[1])
		to, _ := parseFloat(m[2])
		nl.Arrows = append(nl.Arrows, Jump{From: from, To: to})
	}
	return nl, true
}

func renderNumberLine(nl NumberLine) string {
	lo := float64(nl.Min)
	scale := numberLineLength / float64(nl.Max-nl.Min)
	x0 := nl.Pos.X - numberLineLength/2
	y0 := nl.Pos.Y
	at := func(v float64) string { return num(x0 + (v-lo)*scale) }

	frags := []string{
		arrowheadDefs,
		fmt.Sprintf(`<line x1="%s" y1="%s" x2="%s" y2="%s" stroke="black" stroke-width="0.5" />`,
			num(x0), num(y0), num(x0+numberLineLength), num(y0)),
	}

	step := labelStep(nl.Max - nl.Min + 1)
	for v := nl.Min; v <= nl.Max; v++ {
		xv := at(float64(v))
		frags = append(frags, fmt.Sprintf(`<line x1="%s" y1="%s" x2="%s" y2="%s" stroke="black" stroke-width="0.25" />`,
			xv, num(y0), xv, num(y0-2)))
		if (v-nl.Min)%step == 0 {
			frags = append(frags, fmt.Sprintf(`<text x="%s" y="%s" font-size="4" text-anchor="middle">%d</text>`,
				xv, num(y0+6), v))
		}
	}

	for i, a := range nl.Arrows {
		y := num(y0 - 3*float64(len(nl.Arrows)-i))
		frags = append(frags, fmt.Sprintf(`<line x1="%s" y1="%s" x2="%s" y2="%s" stroke="blue" stroke-width="0.5" marker-end="url(#arrowhead)" />`,
			at(a.From), y, at(a.To), y))
	}
	return strings.Join(frags, "\n")
}

// labelStep thins out labels on long lines.
func labelStep(count int) int {
	switch {
	case count <= 11:
		return 1
	case count <= 21:
		return 2
	default:
		return 5
	}
}
