package diagram

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// DotArray(count: 3x4, pos: (0,0)) or DotArray(count: 5, pos: (0,0)).
var dotArrayRe = regexp.MustCompile(`^DotArray\s*\(\s*count:\s*(?P<rows>\d+)(?:x(?P<cols>\d+))?\s*,\s*` + posPat + `\s*\)`)

const (
	dotRadius  = 2.0
	dotSpacing = 6.0
	maxDots    = 400
)

type DotArray struct {
	Rows, Cols int
	Pos        Pos
}

func (DotArray) TypeName() string { return "DotArray" }

func parseDotArray(line string) (DotArray, bool) {
	g, ok := groups(dotArrayRe, line)
	if !ok {
		return DotArray{}, false
	}
	rows, err := strconv.Atoi(g["rows"])
	if err != nil {
		return DotArray{}, false
	}
	cols := rows
	if g["cols"] == "" {
		rows = 1
	} else if cols, err = strconv.Atoi(g["cols"]); err != nil {
		return DotArray{}, false
	}
	if rows < 1 || cols < 1 || rows*cols > maxDots {
		return DotArray{}, false
	}
	pos, ok := parsePos(g)
	if !ok {
		return DotArray{}, false
	}
	return DotArray{Rows: rows, Cols: cols, Pos: pos}, true
}

func renderDotArray(d DotArray) string {
	x0 := d.Pos.X - float64(d.Cols-1)*dotSpacing/2
	y0 := d.Pos.Y - float64(d.Rows-1)*dotSpacing/2
	frags := make([]string, 0, d.Rows*d.Cols)
	for r := 0; r < d.Rows; r++ {
		for c := 0; c < d.Cols; c++ {
			frags = append(frags, fmt.Sprintf(`<circle cx="%s" cy="%s" r="%s" fill="black" />`,
				num(x0+float64(c)*dotSpacing), num(y0+float64(r)*dotSpacing), num(dotRadius)))
		}
	}
	return strings.Join(frags, "\n")
}
