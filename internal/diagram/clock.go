package diagram

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
)

// Clock(time: 3:45, pos: (0,0))
var clockRe = regexp.MustCompile(`^Clock\s*\(\s*time:\s*(?P<h>\d{1,2}):(?P<m>\d{2})\s*,\s*` + posPat + `\s*\)`)

const clockRadius = 10.0

type Clock struct {
	Hour, Minute int
	Pos          Pos
}

func (Clock) TypeName() string { return "Clock" }

func parseClock(line string) (Clock, bool) {
	g, ok := groups(clockRe, line)
	if !ok {
		return Clock{}, false
	}
	h, _ := strconv.Atoi(g["h"])
	m, _ := strconv.Atoi(g["m"])
	if h > 23 || m > 59 {
		return Clock{}, false
	}
	pos, ok := parsePos(g)
	if !ok {
		return Clock{}, false
	}
	return Clock{Hour: h, Minute: m, Pos: pos}, true
}

func renderClock(c Clock) string {
	minuteAngle := float64(c.Minute) / 60 * 360
	hourAngle := float64(c.Hour%12)/12*360 + float64(c.Minute)/60*30

	hx, hy := hand(c.Pos, clockRadius*0.5, hourAngle)
	mx, my := hand(c.Pos, clockRadius*0.8, minuteAngle)

	cx, cy := num(c.Pos.X), num(c.Pos.Y)
	return fmt.Sprintf(`<circle cx="%s" cy="%s" r="%s" stroke="black" fill="white" stroke-width="0.5" />`+"\n"+
		`<line x1="%s" y1="%s" x2="%s" y2="%s" stroke="black" stroke-width="0.7" />`+"\n"+
		`<line x1="%s" y1="%s" x2="%s" y2="%s" stroke="black" stroke-width="0.4" />`,
		cx, cy, num(clockRadius),
		cx, cy, num(hx), num(hy),
		cx, cy, num(mx), num(my))
}

// hand returns the tip of a hand of length l at angle degrees clockwise
// from twelve o'clock.
func hand(p Pos, l, degrees float64) (float64, float64) {
	rad := degrees * math.Pi / 180
	return p.X + l*math.Sin(rad), p.Y - l*math.Cos(rad)
}
