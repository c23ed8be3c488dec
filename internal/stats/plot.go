package stats

import (
	"fmt"
	"io"
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Curve is one named series of a chart.
type Curve struct {
	Name   string
	Unit   string
	Values []float64
}

const (
	// DefaultPlotHeight is the chart height in terminal rows.
	DefaultPlotHeight = 8
	minPlotWidth      = 10
	axisWidth         = 1
)

// dash keeps the first on dot columns out of every period.
type dash struct {
	period, on int
	marker     string
}

var dashes = []dash{
	{period: 1, on: 1, marker: "━"},
	{period: 4, on: 2, marker: "╍"},
	{period: 3, on: 1, marker: "┅"},
}

var curveColors = []lipgloss.Color{"#5CC8FF", "#C89A3A", "#B37FEB", "#52C41A"}

// brailleBits maps a dot at (row, col) inside a 2x4 cell to its bit.
var brailleBits = [4][2]uint8{
	{0x01, 0x08},
	{0x02, 0x10},
	{0x04, 0x20},
	{0x40, 0x80},
}

// canvas is a grid of braille cells, each holding 2x4 dots. owner records the
// first curve that touched a cell so overlapping curves keep one color.
type canvas struct {
	cols, rows int
	dots       [][]uint8
	owner      [][]int
}

func newCanvas(cols, rows int) *canvas {
	c := &canvas{cols: cols, rows: rows}
	c.dots = make([][]uint8, rows)
	c.owner = make([][]int, rows)
	for y := range c.dots {
		c.dots[y] = make([]uint8, cols)
		c.owner[y] = make([]int, cols)
		for x := range c.owner[y] {
			c.owner[y][x] = -1
		}
	}
	return c
}

func (c *canvas) set(x, y, curve int) {
	cx, cy := x/2, y/4
	if x < 0 || y < 0 || cx >= c.cols || cy >= c.rows {
		return
	}
	c.dots[cy][cx] |= brailleBits[y%4][x%2]
	if c.owner[cy][cx] < 0 {
		c.owner[cy][cx] = curve
	}
}

// line plots a Bresenham segment, skipping dot columns the pattern leaves out.
func (c *canvas) line(x0, y0, x1, y1, curve int, d dash) {
	dx := abs(x1 - x0)
	dy := -abs(y1 - y0)
	sx, sy := 1, 1
	if x0 > x1 {
		sx = -1
	}
	if y0 > y1 {
		sy = -1
	}
	e := dx + dy
	for {
		if x0%d.period < d.on {
			c.set(x0, y0, curve)
		}
		if x0 == x1 && y0 == y1 {
			return
		}
		e2 := 2 * e
		if e2 >= dy {
			e += dy
			x0 += sx
		}
		if e2 <= dx {
			e += dx
			y0 += sy
		}
	}
}

func (c *canvas) render(y int, color bool) string {
	var b, run strings.Builder
	runOwner := -1
	flush := func() {
		if run.Len() == 0 {
			return
		}
		if color && runOwner >= 0 {
			b.WriteString(lipgloss.NewStyle().Foreground(curveColors[runOwner%len(curveColors)]).Render(run.String()))
		} else {
			b.WriteString(run.String())
		}
		run.Reset()
	}
	for x := 0; x < c.cols; x++ {
		if c.owner[y][x] != runOwner {
			flush()
			runOwner = c.owner[y][x]
		}
		run.WriteRune(rune(0x2800 + int(c.dots[y][x])))
	}
	flush()
	return b.String()
}

// PlotLines draws curves as a braille chart width cells wide and height rows
// tall, followed by a legend. Every curve is scaled to its own range, which
// the legend reports.
func PlotLines(curves []Curve, width, height int, color bool) []string {
	curves = nonEmpty(curves)
	if len(curves) == 0 {
		return nil
	}
	width = max(width, minPlotWidth)
	if height <= 0 {
		height = DefaultPlotHeight
	}
	c := newCanvas(width, height)
	dotsX, dotsY := width*2, height*4
	legend := make([]string, 0, len(curves))
	for i, curve := range curves {
		values := bucketMeans(curve.Values, dotsX)
		lo, hi := bounds(values)
		d := dashes[i%len(dashes)]
		toY := func(v float64) int {
			if hi-lo < 1e-9 {
				return dotsY / 2
			}
			return int(math.Round((hi - v) / (hi - lo) * float64(dotsY-1)))
		}
		if len(values) == 1 {
			c.line(0, toY(values[0]), dotsX-1, toY(values[0]), i, d)
		}
		for j := 1; j < len(values); j++ {
			x0 := (j - 1) * (dotsX - 1) / (len(values) - 1)
			x1 := j * (dotsX - 1) / (len(values) - 1)
			c.line(x0, toY(values[j-1]), x1, toY(values[j]), i, d)
		}
		entry := fmt.Sprintf("%s %s %.1f..%.1f%s", d.marker, curve.Name, lo, hi, curve.Unit)
		if color {
			entry = lipgloss.NewStyle().Foreground(curveColors[i%len(curveColors)]).Render(entry)
		}
		legend = append(legend, entry)
	}

	lines := make([]string, 0, height+2)
	for y := 0; y < height; y++ {
		lines = append(lines, "│"+c.render(y, color))
	}
	lines = append(lines, "└"+strings.Repeat("─", width))
	lines = append(lines, strings.Join(legend, "   "))
	return lines
}

// PlotCurves writes a titled chart of curves to w.
func PlotCurves(w io.Writer, title string, curves []Curve, width, height int, color bool) error {
	lines := PlotLines(curves, width, height, color)
	if len(lines) == 0 {
		return nil
	}
	if title != "" {
		lines = append([]string{title}, lines...)
	}
	_, err := fmt.Fprintln(w, strings.Join(lines, "\n"))
	return err
}

// PlotWidthFor returns the chart width that fits in total terminal columns.
func PlotWidthFor(total int) int {
	return max(minPlotWidth, total-axisWidth)
}

func nonEmpty(curves []Curve) []Curve {
	out := make([]Curve, 0, len(curves))
	for _, c := range curves {
		if len(c.Values) > 0 {
			out = append(out, c)
		}
	}
	return out
}

// bucketMeans shrinks values to at most n points by averaging equal buckets.
func bucketMeans(values []float64, n int) []float64 {
	if len(values) <= n {
		return values
	}
	out := make([]float64, n)
	for i := range out {
		start := i * len(values) / n
		end := max((i+1)*len(values)/n, start+1)
		var sum float64
		for _, v := range values[start:end] {
			sum += v
		}
		out[i] = sum / float64(end-start)
	}
	return out
}

func bounds(values []float64) (lo, hi float64) {
	lo, hi = values[0], values[0]
	for _, v := range values[1:] {
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	return lo, hi
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
