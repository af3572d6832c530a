package diagram

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// DiceSumGrid(target: 7, pos: (0,0)) draws the 6x6 table of two-dice sums
// with every cell equal to target highlighted.
var diceSumGridRe = regexp.MustCompile(`^DiceSumGrid\s*\(\s*target:\s*(?P<target>\d+)\s*,\s*` + posPat + `\s*\)`)

const (
	diceCell      = 5.0
	diceHeader    = 5.0
	diceHighlight = "#ffeb3b"
)

type DiceSumGrid struct {
	Target int
	Pos    Pos
}

func (DiceSumGrid) TypeName() string { return "DiceSumGrid" }

func parseDiceSumGrid(line string) (DiceSumGrid, bool) {
	g, ok := groups(diceSumGridRe, line)
	if !ok {
		return DiceSumGrid{}, false
	}
	target, err := strconv.Atoi(g["target"])
	if err != nil {
		return DiceSumGrid{}, false
	}
	pos, ok := parsePos(g)
	if !ok {
		return DiceSumGrid{}, false
	}
	return DiceSumGrid{Target: target, Pos: pos}, true
}

func renderDiceSumGrid(d DiceSumGrid) string {
	size := 6*diceCell + diceHeader
	x0 := d.Pos.X - size/2
	y0 := d.Pos.Y - size/2
	text := func(x, y float64, v int) string {
		return fmt.Sprintf(`<text x="%s" y="%s" text-anchor="middle" font-size="3">%d</text>`, num(x), num(y), v)
	}

	var frags []string
	for i := 1; i <= 6; i++ {
		frags = append(frags, text(x0+diceHeader+float64(i-1)*diceCell+diceCell/2, y0+diceHeader/2+1, i))
	}
	for i := 1; i <= 6; i++ {
		frags = append(frags, text(x0+diceHeader/2, y0+diceHeader+float64(i-1)*diceCell+diceCell/2+1, i))
	}
	for row := 1; row <= 6; row++ {
		for col := 1; col <= 6; col++ {
			sum := row + col
			x := x0 + diceHeader + float64(col-1)*diceCell
			y := y0 + diceHeader + float64(row-1)*diceCell
			fill := "white"
			if sum == d.Target {
				fill = diceHighlight
			}
			frags = append(frags,
				fmt.Sprintf(`<rect x="%s" y="%s" width="%s" height="%s" stroke="#666" stroke-width="0.2" fill="%s" />`,
					num(x), num(y), num(diceCell), num(diceCell), fill),
				text(x+diceCell/2, y+diceCell/2+1, sum),
			)
		}
	}
	return strings.Join(frags, "\n")
}
