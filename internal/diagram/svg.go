package diagram

import (
	"html"
	"math"
	"regexp"
	"strconv"
	"strings"
)

// Grammar pieces shared by the statement parsers.
const (
	numPat = `-?\d+(?:\.\d+)?`
	posPat = `pos:\s*\(\s*(?P<x>` + numPat + `)\s*,\s*(?P<y>` + numPat + `)\s*\)`
)

// pointPairRe matches ("Label", 12.5) with straight or curly quotes.
var pointPairRe = regexp.MustCompile(`\(\s*["“”](.*?)["“”]\s*,\s*(-?\d+(?:\.\d*)?)\s*\)`)

// Pos is a diagram's centre in engine coordinates.
type Pos struct {
	X, Y float64
}

// Point is one labelled value of a chart.
type Point struct {
	Label string
	Value float64
}

// num formats a coordinate with at most three decimals.
func num(f float64) string {
	r := math.Round(f*1000) / 1000
	if r == 0 {
		return "0"
	}
	return strconv.FormatFloat(r, 'f', -1, 64)
}

func esc(s string) string {
	return html.EscapeString(s)
}

// groups returns the named submatches of re in line, anchored at the start.
func groups(re *regexp.Regexp, line string) (map[string]string, bool) {
	m := re.FindStringSubmatch(line)
	if m == nil {
		return nil, false
	}
	out := make(map[string]string, len(m))
	for i, name := range re.SubexpNames() {
		if name != "" {
			out[name] = m[i]
		}
	}
	return out, true
}

func parseFloat(s string) (float64, bool) {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

func parsePos(g map[string]string) (Pos, bool) {
	x, ok := parseFloat(g["x"])
	if !ok {
		return Pos{}, false
	}
	y, ok := parseFloat(g["y"])
	if !ok {
		return Pos{}, false
	}
	return Pos{X: x, Y: y}, true
}

func parsePoints(raw string) ([]Point, bool) {
	var pts []Point
	for _, m := range pointPairRe.FindAllStringSubmatch(raw, -1) {
		v, ok := parseFloat(m[2])
		if !ok {
			return nil, false
		}
		pts = append(pts, Point{Label: m[1], Value: v})
	}
	return pts, len(pts) > 0
}
