package stats

import (
	"bytes"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPlotLinesShape(t *testing.T) {
	lines := PlotLines([]Curve{
		{Name: "accuracy", Unit: "%", Values: []float64{40, 60, 80, 100}},
		{Name: "answers/min", Unit: "/min", Values: []float64{5, 4, 3, 2}},
	}, 20, 4, false)
	require.Len(t, lines, 4+2)
	for _, line := range lines[:4] {
		assert.True(t, strings.HasPrefix(line, "│"))
		assert.Equal(t, 21, utf8.RuneCountInString(line))
	}
	assert.Equal(t, "└"+strings.Repeat("─", 20), lines[4])
	assert.Equal(t, "━ accuracy 40.0..100.0%   ╍ answers/min 2.0..5.0/min", lines[5])
}

func TestPlotLinesRisingCurve(t *testing.T) {
	lines := PlotLines([]Curve{{Name: "a", Values: []float64{0, 1}}}, 10, 2, false)
	top := []rune(lines[0])[1:]
	bottom := []rune(lines[1])[1:]
	assert.Equal(t, '⠀', top[0], "start is low")
	assert.NotEqual(t, '⠀', top[len(top)-1], "end is high")
	assert.NotZero(t, (bottom[0]-0x2800)&0x40, "first dot sits bottom left")
}

func TestPlotLinesFlatAndSinglePoint(t *testing.T) {
	lines := PlotLines([]Curve{{Name: "a", Values: []float64{7}}}, 10, 2, false)
	require.Len(t, lines, 4)
	filled := strings.Trim(lines[1], "│")
	assert.NotContains(t, filled, "⠀", "single value spans the width")
	assert.Contains(t, lines[3], "7.0..7.0")
}

func TestPlotLinesSkipsEmpty(t *testing.T) {
	assert.Nil(t, PlotLines(nil, 20, 4, false))
	assert.Nil(t, PlotLines([]Curve{{Name: "a"}}, 20, 4, false))

	var buf bytes.Buffer
	require.NoError(t, PlotCurves(&buf, "title", nil, 20, 4, false))
	assert.Empty(t, buf.String())
}

func TestPlotCurvesWritesTitle(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, PlotCurves(&buf, "Accuracy", []Curve{{Name: "a", Values: []float64{1, 2, 3}}}, 12, 0, false))
	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	assert.Equal(t, "Accuracy", lines[0])
	assert.Len(t, lines, 1+DefaultPlotHeight+2)
}

func TestCanvasDashedLine(t *testing.T) {
	c := newCanvas(4, 1)
	c.line(0, 0, 7, 0, 0, dashes[1])
	// dashed keeps dot columns 0,1 and 4,5: the first and third cells.
	assert.Equal(t, uint8(0x09), c.dots[0][0])
	assert.Equal(t, uint8(0), c.dots[0][1])
	assert.Equal(t, uint8(0x09), c.dots[0][2])
	assert.Equal(t, -1, c.owner[0][1])
}

func TestBucketMeans(t *testing.T) {
	assert.Equal(t, []float64{1, 2}, bucketMeans([]float64{1, 2}, 5))
	assert.Equal(t, []float64{1.5, 3.5}, bucketMeans([]float64{1, 2, 3, 4}, 2))
}

func TestPlotWidthFor(t *testing.T) {
	assert.Equal(t, 79, PlotWidthFor(80))
	assert.Equal(t, minPlotWidth, PlotWidthFor(0))
}
