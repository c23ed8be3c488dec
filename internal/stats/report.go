package stats

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/verte-zerg/parlo/internal/model"
)

// Loader reads recorded history. *store.Store implements it.
type Loader interface {
	ListSessions(ctx context.Context, cfg model.StatsConfig) ([]model.SessionAggregate, error)
	ListItemAggregates(ctx context.Context, sessionIDs []int64) ([]model.ItemAggregate, error)
}

// Summary condenses a set of sessions into headline numbers.
type Summary struct {
	Sessions     int
	Answers      int
	TimedOut     int
	AvgAccuracy  float64
	BestAccuracy float64
	AvgPerMinute float64
	Practice     time.Duration
}

// Report is the filtered history with everything the stats views display.
// Items covers the last CurveWindow sessions, weakest question first.
type Report struct {
	Config   model.StatsConfig
	Sessions []model.SessionAggregate
	Summary  Summary
	Items    []model.ItemAggregate
}

// Load reads the sessions matching cfg and the per-question aggregates of the
// most recent curve window.
func Load(ctx context.Context, l Loader, cfg model.StatsConfig) (Report, error) {
	sessions, err := l.ListSessions(ctx, cfg)
	if err != nil {
		return Report{}, fmt.Errorf("failed to list sessions: %w", err)
	}
	if cfg.Last > 0 && len(sessions) > cfg.Last {
		sessions = sessions[len(sessions)-cfg.Last:]
	}
	recent := sessions
	if cfg.CurveWindow > 0 && len(recent) > cfg.CurveWindow {
		recent = recent[len(recent)-cfg.CurveWindow:]
	}
	ids := make([]int64, len(recent))
	for i, s := range recent {
		ids[i] = s.SessionID
	}
	items, err := l.ListItemAggregates(ctx, ids)
	if err != nil {
		return Report{}, fmt.Errorf("failed to aggregate answers: %w", err)
	}
	return Report{
		Config:   cfg,
		Sessions: sessions,
		Summary:  Summarize(sessions),
		Items:    weakestFirst(items),
	}, nil
}

// Summarize computes headline numbers over sessions.
func Summarize(sessions []model.SessionAggregate) Summary {
	sum := Summary{Sessions: len(sessions)}
	if len(sessions) == 0 {
		return sum
	}
	var accTotal, rateTotal float64
	var duration int64
	for _, s := range sessions {
		acc, rate := SessionMetrics(s.Correct, s.Incorrect, s.DurationMs)
		accTotal += acc
		rateTotal += rate
		sum.BestAccuracy = max(sum.BestAccuracy, acc)
		sum.Answers += s.Correct + s.Incorrect
		sum.TimedOut += s.TimedOut
		duration += s.DurationMs
	}
	n := float64(len(sessions))
	sum.AvgAccuracy = accTotal / n
	sum.AvgPerMinute = rateTotal / n
	sum.Practice = time.Duration(duration) * time.Millisecond
	return sum
}

// Curves returns the moving averages of accuracy and answers per minute,
// one point per session.
func (r Report) Curves() []Curve {
	if len(r.Sessions) == 0 {
		return nil
	}
	accs := make([]float64, len(r.Sessions))
	rates := make([]float64, len(r.Sessions))
	for i, s := range r.Sessions {
		acc, rate := SessionMetrics(s.Correct, s.Incorrect, s.DurationMs)
		accs[i] = acc * 100
		rates[i] = rate
	}
	return []Curve{
		{Name: "accuracy", Unit: "%", Values: MovingAverage(accs, r.Config.CurveWindow)},
		{Name: "answers/min", Unit: "/min", Values: MovingAverage(rates, r.Config.CurveWindow)},
	}
}

func weakestFirst(items []model.ItemAggregate) []model.ItemAggregate {
	out := append([]model.ItemAggregate(nil), items...)
	sort.SliceStable(out, func(i, j int) bool {
		ai, aj := itemAccuracy(out[i]), itemAccuracy(out[j])
		if ai != aj {
			return ai < aj
		}
		return out[i].QuestionID < out[j].QuestionID
	})
	return out
}
