package stats

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/verte-zerg/parlo/internal/model"
)

func TestSessionMetrics(t *testing.T) {
	acc, perMin := SessionMetrics(3, 1, 120000)
	assert.InDelta(t, 0.75, acc, 1e-9)
	assert.InDelta(t, 2.0, perMin, 1e-9)

	acc, perMin = SessionMetrics(0, 0, 0)
	assert.Zero(t, acc)
	assert.Zero(t, perMin)
}

func TestMovingAverage(t *testing.T) {
	assert.Equal(t, []float64{1, 1.5, 2.5, 3.5}, MovingAverage([]float64{1, 2, 3, 4}, 2))
	assert.Equal(t, []float64{1, 2}, MovingAverage([]float64{1, 2}, 0))
	assert.Empty(t, MovingAverage(nil, 3))
}

func TestSparkline(t *testing.T) {
	assert.Equal(t, "", Sparkline(nil))
	assert.Equal(t, "+++", Sparkline([]float64{5, 5, 5}))
	assert.Equal(t, " @", Sparkline([]float64{0, 10}))
}

func TestSelectWeakItems(t *testing.T) {
	aggs := []model.ItemAggregate{
		{QuestionID: "good", Correct: 5},
		{QuestionID: "bad", Correct: 1, Incorrect: 3},
		{QuestionID: "slow", Correct: 1, Incorrect: 1, ElapsedSum: 9000},
		{QuestionID: "fast", Correct: 1, Incorrect: 1, ElapsedSum: 1000},
	}
	weak := SelectWeakItems(aggs, 2)
	assert.Len(t, weak, 2)
	assert.Contains(t, weak, "bad")
	assert.Contains(t, weak, "slow")

	assert.Len(t, SelectWeakItems(aggs, 10), 3)
	assert.Empty(t, SelectWeakItems(aggs, 0))
	assert.Empty(t, SelectWeakItems(nil, 3))
}

func TestWriteReport(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteReport(&buf, Report{}, 80, false))
	assert.Equal(t, "No sessions found.\n", buf.String())

	sessions := []model.SessionAggregate{
		{SessionID: 1, Correct: 3, Incorrect: 1, TimedOut: 1, DurationMs: 60000},
		{SessionID: 2, Correct: 4, Incorrect: 0, DurationMs: 65000},
	}
	r := Report{
		Config:   model.StatsConfig{CurveWindow: 1},
		Sessions: sessions,
		Summary:  Summarize(sessions),
		Items: weakestFirst([]model.ItemAggregate{
			{QuestionID: "q1", Prompt: "cat", Correct: 2, ElapsedSum: 3000},
			{QuestionID: "q2", Prompt: "dog", Incorrect: 2, TimedOut: 1},
		}),
	}
	buf.Reset()
	require.NoError(t, WriteReport(&buf, r, 80, false))
	out := buf.String()
	for _, want := range []string{
		"Sessions: 2",
		"Answers: 8 (1 timed out)",
		"Avg Accuracy: 87.50%",
		"Best Accuracy: 100.00%",
		"Practice Time: 2:05",
		"Learning curves (window 1)",
		"accuracy 75.0..100.0%",
		"answers/min",
	} {
		assert.Contains(t, out, want)
	}

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.GreaterOrEqual(t, len(lines), 2)
	assert.True(t, strings.HasPrefix(lines[len(lines)-2], "dog"))
	assert.True(t, strings.HasPrefix(lines[len(lines)-1], "cat"))
}

func TestFieldsIncludeTrend(t *testing.T) {
	sessions := []model.SessionAggregate{
		{SessionID: 1, Correct: 0, Incorrect: 4, DurationMs: 60000},
		{SessionID: 2, Correct: 4, Incorrect: 0, DurationMs: 60000},
	}
	r := Report{Config: model.StatsConfig{CurveWindow: 1}, Sessions: sessions, Summary: Summarize(sessions)}
	fields := r.Fields()
	last := fields[len(fields)-1]
	assert.Equal(t, "Trend", last.Label)
	assert.Equal(t, " @", last.Value)
	assert.Equal(t, Field{"Answers/min", "4.0"}, fields[4])

	assert.Len(t, Report{}.Fields(), 6)
}

func TestItemRows(t *testing.T) {
	rows := ItemRows([]model.ItemAggregate{{Prompt: "pain", Correct: 1, Incorrect: 3, TimedOut: 2, ElapsedSum: 6000}})
	require.Len(t, rows, 1)
	assert.Equal(t, []string{"pain", "25.00%", "1.5", "1", "3", "2"}, rows[0])
	assert.Len(t, rows[0], len(ItemHeaders))
}
