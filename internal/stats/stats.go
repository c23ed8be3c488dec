// Package stats contains statistics calculations and reporting.
package stats

import (
	"fmt"
	"io"
	"math"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/verte-zerg/parlo/internal/model"
	"github.com/verte-zerg/parlo/internal/timer"
)

const sparkChars = " .:-=+*#%@"

var (
	titleStyle = lipgloss.NewStyle().Bold(true)
	goodStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#52C41A"))
	badStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF4D4F"))
)

// SessionMetrics computes accuracy and answers per minute for a session.
func SessionMetrics(correct, incorrect int, durationMs int64) (accuracy, perMinute float64) {
	total := correct + incorrect
	if total > 0 {
		accuracy = float64(correct) / float64(total)
	}
	if durationMs > 0 {
		perMinute = float64(total) / (float64(durationMs) / 60000.0)
	}
	return accuracy, perMinute
}

// MovingAverage computes a rolling mean over the provided window size.
func MovingAverage(values []float64, window int) []float64 {
	out := make([]float64, len(values))
	if window <= 1 {
		copy(out, values)
		return out
	}
	var sum float64
	for i, v := range values {
		sum += v
		if i >= window {
			sum -= values[i-window]
		}
		out[i] = sum / float64(min(i+1, window))
	}
	return out
}

// Sparkline renders a single-line ASCII sparkline for the values.
func Sparkline(values []float64) string {
	if len(values) == 0 {
		return ""
	}
	lo, hi := values[0], values[0]
	for _, v := range values[1:] {
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	if hi-lo < 1e-9 {
		return strings.Repeat(string(sparkChars[len(sparkChars)/2]), len(values))
	}
	var b strings.Builder
	for _, v := range values {
		idx := int(math.Round((v - lo) / (hi - lo) * float64(len(sparkChars)-1)))
		idx = max(0, min(idx, len(sparkChars)-1))
		b.WriteByte(sparkChars[idx])
	}
	return b.String()
}

// Field is a labelled headline value.
type Field struct {
	Label string
	Value string
}

// trendPoints is how many recent curve points the trend sparkline shows.
const trendPoints = 24

// Fields lists the summary values shown by both the printed report and the
// interactive screen.
func (r Report) Fields() []Field {
	s := r.Summary
	fields := []Field{
		{"Sessions", fmt.Sprintf("%d", s.Sessions)},
		{"Answers", fmt.Sprintf("%d (%d timed out)", s.Answers, s.TimedOut)},
		{"Avg Accuracy", fmt.Sprintf("%.2f%%", s.AvgAccuracy*100)},
		{"Best Accuracy", fmt.Sprintf("%.2f%%", s.BestAccuracy*100)},
		{"Answers/min", fmt.Sprintf("%.1f", s.AvgPerMinute)},
		{"Practice Time", timer.Format(int(s.Practice / time.Second))},
	}
	if curves := r.Curves(); len(curves) > 0 {
		acc := curves[0].Values
		fields = append(fields, Field{"Trend", Sparkline(acc[max(0, len(acc)-trendPoints):])})
	}
	return fields
}

// ItemHeaders names the per-question table columns.
var ItemHeaders = []string{"Prompt", "Accuracy", "Avg Time (s)", "Correct", "Wrong", "Timeouts"}

// ItemRows formats per-question aggregates as table cells.
func ItemRows(items []model.ItemAggregate) [][]string {
	rows := make([][]string, 0, len(items))
	for _, r := range items {
		avg := 0.0
		if n := r.Correct + r.Incorrect; n > 0 {
			avg = float64(r.ElapsedSum) / float64(n) / 1000
		}
		rows = append(rows, []string{
			r.Prompt,
			fmt.Sprintf("%.2f%%", itemAccuracy(r)*100),
			fmt.Sprintf("%.1f", avg),
			fmt.Sprintf("%d", r.Correct),
			fmt.Sprintf("%d", r.Incorrect),
			fmt.Sprintf("%d", r.TimedOut),
		})
	}
	return rows
}

// WriteReport prints the report as plain text for non-interactive output.
func WriteReport(w io.Writer, r Report, width int, color bool) error {
	if len(r.Sessions) == 0 {
		_, err := fmt.Fprintln(w, "No sessions found.")
		return err
	}
	lines := []string{render(titleStyle, "Summary", color)}
	for _, f := range r.Fields() {
		lines = append(lines, fmt.Sprintf("%s: %s", f.Label, f.Value))
	}
	lines = append(lines, "")
	title := fmt.Sprintf("Learning curves (window %d)", r.Config.CurveWindow)
	lines = append(lines, render(titleStyle, title, color))
	lines = append(lines, PlotLines(r.Curves(), PlotWidthFor(width), DefaultPlotHeight, color)...)
	lines = append(lines, "", render(titleStyle, "Per-Question (Windowed)", color))
	lines = append(lines, itemTable(r.Items, width, color)...)
	_, err := fmt.Fprintln(w, strings.Join(lines, "\n"))
	return err
}

func itemTable(items []model.ItemAggregate, width int, color bool) []string {
	if len(items) == 0 {
		return []string{"No answers found."}
	}
	rows := ItemRows(items)
	promptWidth := max(12, width-56)
	for _, row := range rows {
		row[0] = truncate(row[0], promptWidth)
	}
	rightAlign := map[int]bool{1: true, 2: true, 3: true, 4: true, 5: true}
	lines := formatTable(ItemHeaders, rows, rightAlign)
	if color {
		for i := 1; i < len(lines); i++ {
			style := goodStyle
			if itemAccuracy(items[i-1]) < 0.5 {
				style = badStyle
			}
			lines[i] = style.Render(lines[i])
		}
	}
	return lines
}

func render(style lipgloss.Style, s string, color bool) string {
	if !color {
		return s
	}
	return style.Render(s)
}

func itemAccuracy(agg model.ItemAggregate) float64 {
	total := agg.Correct + agg.Incorrect
	if total == 0 {
		return 1.0
	}
	return float64(agg.Correct) / float64(total)
}
