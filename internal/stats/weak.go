package stats

import (
	"sort"

	"github.com/verte-zerg/parlo/internal/model"
)

// SelectWeakItems returns the ids of the top lowest-accuracy questions.
// Timeouts count against a question; ties go to the slower one. A top of zero
// selects nothing.
func SelectWeakItems(aggs []model.ItemAggregate, top int) map[string]struct{} {
	weak := map[string]struct{}{}
	if top <= 0 {
		return weak
	}
	candidates := make([]model.ItemAggregate, 0, len(aggs))
	for _, agg := range aggs {
		if agg.Incorrect > 0 {
			candidates = append(candidates, agg)
		}
	}
	sort.Slice(candidates, func(i, j int) bool {
		ai, aj := itemAccuracy(candidates[i]), itemAccuracy(candidates[j])
		if ai != aj {
			return ai < aj
		}
		if candidates[i].ElapsedSum != candidates[j].ElapsedSum {
			return candidates[i].ElapsedSum > candidates[j].ElapsedSum
		}
		return candidates[i].QuestionID < candidates[j].QuestionID
	})
	top = min(top, len(candidates))
	for _, c := range candidates[:top] {
		weak[c.QuestionID] = struct{}{}
	}
	return weak
}
