package diagram

import (
	"fmt"
	"math"
	"regexp"
	"strings"
)

// GraphColumn(points: [("Dogs", 5), ("Cats", 6)], pos: (0,0))
// GraphLine and GraphPie share the same statement shape.
func chartRe(name string) *regexp.Regexp {
	return regexp.MustCompile(`^` + name + `\s*\(\s*points:\s*\[(?P<pts>.+?)\]\s*,\s*` + posPat + `\s*\)\s*$`)
}

var (
	graphColumnRe = chartRe("GraphColumn")
	graphLineRe   = chartRe("GraphLine")
	graphPieRe    = chartRe("GraphPie")
)

const (
	chartHeight  = 18.0
	chartWidth   = 35.0
	barWidth     = 4.0
	barSpacing   = 4.0
	columnFill   = "#4e79a7"
	lineColor    = "#e15759"
	markerRadius = 0.9
	pieRadius    = 11.0
	pieLabelR    = 13.5
	labelColor   = "#333"
)

var piePalette = []string{
	"#4e79a7", "#f28e2b", "#e15759", "#76b7b2",
	"#59a14f", "#edc948", "#b07aa1", "#ff9da7",
	"#9c755f", "#bab0ab",
}

type Chart struct {
	Points []Point
	Pos    Pos
}

type (
	GraphColumn struct{ Chart }
	GraphLine   struct{ Chart }
	GraphPie    struct{ Chart }
)

func (GraphColumn) TypeName() string { return "GraphColumn" }
func (GraphLine) TypeName() string   { return "GraphLine" }
func (GraphPie) TypeName() string    { return "GraphPie" }

func parseChart(re *regexp.Regexp, line string) (Chart, bool) {
	g, ok := groups(re, line)
	if !ok {
		return Chart{}, false
	}
	pts, ok := parsePoints(g["pts"])
	if !ok {
		return Chart{}, false
	}
	pos, ok := parsePos(g)
	if !ok {
		return Chart{}, false
	}
	return Chart{Points: pts, Pos: pos}, true
}

func parseGraphColumn(line string) (GraphColumn, bool) {
	c, ok := parseChart(graphColumnRe, line)
	return GraphColumn{c}, ok
}

func parseGraphLine(line string) (GraphLine, bool) {
	c, ok := parseChart(graphLineRe, line)
	return GraphLine{c}, ok
}

func parseGraphPie(line string) (GraphPie, bool) {
	c, ok := parseChart(graphPieRe, line)
	return GraphPie{c}, ok
}

func baseline(x0, width, y float64) string {
	return fmt.Sprintf(`<line x1="%s" y1="%s" x2="%s" y2="%s" stroke="black" stroke-width="0.3" />`,
		num(x0-1), num(y), num(x0+width+1), num(y))
}

func label(x, y, size float64, text string) string {
	return fmt.Sprintf(`<text x="%s" y="%s" font-size="%s" text-anchor="middle" fill="%s">%s</text>`,
		num(x), num(y), num(size), labelColor, esc(text))
}

func renderGraphColumn(d GraphColumn) string {
	n := float64(len(d.Points))
	total := n*barWidth + (n-1)*barSpacing
	x0 := d.Pos.X - total/2
	yBase := d.Pos.Y + chartHeight/2

	maxVal := 0.0
	for _, p := range d.Points {
		maxVal = math.Max(maxVal, p.Value)
	}
	scale := 0.0
	if maxVal > 0 {
		scale = chartHeight / maxVal
	}

	frags := []string{baseline(x0, total, yBase)}
	for i, p := range d.Points {
		h := math.Max(p.Value*scale, 0)
		x := x0 + float64(i)*(barWidth+barSpacing)
		y := yBase - h
		frags = append(frags,
			fmt.Sprintf(`<rect x="%s" y="%s" width="%s" height="%s" fill="%s" />`, num(x), num(y), num(barWidth), num(h), columnFill),
			label(x+barWidth/2, yBase+2.2, 2.2, p.Label),
			label(x+barWidth/2, y-0.8, 2, num(p.Value)),
		)
	}
	return strings.Join(frags, "\n")
}

func renderGraphLine(d GraphLine) string {
	x0 := d.Pos.X - chartWidth/2
	yTop := d.Pos.Y - chartHeight/2
	yBase := d.Pos.Y + chartHeight/2

	vmin, vmax := 0.0, 0.0
	for _, p := range d.Points {
		vmax = math.Max(vmax, p.Value)
	}
	if vmax == vmin {
		vmin, vmax = -1, 1
	}
	dx := 0.0
	if len(d.Points) > 1 {
		dx = chartWidth / float64(len(d.Points)-1)
	}
	yOf := func(v float64) float64 {
		return yBase - (v-vmin)/(vmax-vmin)*(yBase-yTop)
	}

	coords := make([]string, len(d.Points))
	for i, p := range d.Points {
		coords[i] = num(x0+float64(i)*dx) + "," + num(yOf(p.Value))
	}
	frags := []string{
		baseline(x0, chartWidth, yBase),
		fmt.Sprintf(`<polyline fill="none" stroke="%s" stroke-width="0.8" points="%s" />`, lineColor, strings.Join(coords, " ")),
	}
	for i, p := range d.Points {
		x, y := x0+float64(i)*dx, yOf(p.Value)
		frags = append(frags,
			fmt.Sprintf(`<circle cx="%s" cy="%s" r="%s" fill="%s" />`, num(x), num(y), num(markerRadius), lineColor),
			label(x, y-1.2, 2, num(p.Value)),
			label(x, yBase+2.2, 2.2, p.Label),
		)
	}
	return strings.Join(frags, "\n")
}

func renderGraphPie(d GraphPie) string {
	total := 0.0
	for _, p := range d.Points {
		if p.Value > 0 {
			total += p.Value
		}
	}
	if total == 0 {
		total = 1
	}
	px, py := d.Pos.X, d.Pos.Y
	polar := func(r, deg float64) (float64, float64) {
		rad := deg * math.Pi / 180
		return px + r*math.Cos(rad), py + r*math.Sin(rad)
	}

	var frags []string
	start := -90.0
	for i, p := range d.Points {
		if p.Value <= 0 {
			continue
		}
		sweep := 360 * p.Value / total
		end := start + sweep
		color := piePalette[i%len(piePalette)]

		if sweep >= 359.999 {
			frags = append(frags, fmt.Sprintf(`<circle cx="%s" cy="%s" r="%s" fill="%s" stroke="#ffffff" stroke-width="0.3" />`,
				num(px), num(py), num(pieRadius), color))
		} else {
			sx, sy := polar(pieRadius, start)
			ex, ey := polar(pieRadius, end)
			large := 0
			if sweep > 180 {
				large = 1
			}
			frags = append(frags, fmt.Sprintf(`<path d="M %s,%s L %s,%s A %s,%s 0 %d,1 %s,%s Z" fill="%s" stroke="#ffffff" stroke-width="0.3" />`,
				num(px), num(py), num(sx), num(sy), num(pieRadius), num(pieRadius), large, num(ex), num(ey), color))
		}

		lx, ly := polar(pieLabelR, start+sweep/2)
		frags = append(frags, label(lx, ly, 2.2, p.Label))
		start = end
	}
	return strings.Join(frags, "\n")
}
