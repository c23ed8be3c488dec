package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/verte-zerg/parlo/internal/model"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	st, err := Open(filepath.Join(t.TempDir(), "nested", "parlo.db"))
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = st.Close()
	})
	return st
}

func sessionAt(deck string, minute int, answers ...model.AnswerRecord) model.SessionResult {
	start := time.Unix(0, 0).UTC().Add(time.Duration(minute) * time.Minute)
	res := model.SessionResult{
		StartedAt:  start,
		EndedAt:    start.Add(30 * time.Second),
		Deck:       deck,
		Kind:       "exact",
		DurationMs: 30000,
		Answers:    answers,
	}
	for _, a := range answers {
		if a.Correct {
			res.Correct++
		} else {
			res.Incorrect++
		}
		if a.TimedOut {
			res.TimedOut++
		}
	}
	return res
}

func TestInsertAndListSessions(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()

	_, err := st.InsertSession(ctx, sessionAt("fr", 0,
		model.AnswerRecord{QuestionID: "q1", Prompt: "cat", Answer: "chat", Correct: true},
		model.AnswerRecord{QuestionID: "q2", Prompt: "dog", TimedOut: true},
	))
	require.NoError(t, err)
	_, err = st.InsertSession(ctx, sessionAt("es", 1))
	require.NoError(t, err)

	all, err := st.ListSessions(ctx, model.StatsConfig{})
	require.NoError(t, err)
	assert.Len(t, all, 2)

	fr, err := st.ListSessions(ctx, model.StatsConfig{Deck: "fr"})
	require.NoError(t, err)
	require.Len(t, fr, 1)
	assert.Equal(t, 1, fr[0].Correct)
	assert.Equal(t, 1, fr[0].Incorrect)
	assert.Equal(t, 1, fr[0].TimedOut)

	since := time.Unix(0, 0).UTC().Add(time.Minute)
	recent, err := st.ListSessions(ctx, model.StatsConfig{Since: &since})
	require.NoError(t, err)
	require.Len(t, recent, 1)
	assert.Equal(t, "es", recent[0].Deck)
}

func TestWeakItemsUseRecentWindow(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()
	for i := 0; i < 3; i++ {
		_, err := st.InsertSession(ctx, sessionAt("fr", i,
			model.AnswerRecord{QuestionID: "q1", Prompt: "cat", Correct: i == 2, ElapsedMs: 100},
		))
		require.NoError(t, err)
	}

	items, err := st.GetWeakItems(ctx, 2, "fr")
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, 1, items[0].Correct)
	assert.Equal(t, 1, items[0].Incorrect)
	assert.Equal(t, int64(200), items[0].ElapsedSum)

	none, err := st.GetWeakItems(ctx, 0, "fr")
	require.NoError(t, err)
	assert.Nil(t, none)
}

func TestListItemAggregates(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()
	id, err := st.InsertSession(ctx, sessionAt("fr", 0,
		model.AnswerRecord{QuestionID: "q1", Prompt: "cat", Correct: true},
		model.AnswerRecord{QuestionID: "q2", Prompt: "dog"},
	))
	require.NoError(t, err)

	items, err := st.ListItemAggregates(ctx, []int64{id})
	require.NoError(t, err)
	assert.Len(t, items, 2)

	empty, err := st.ListItemAggregates(ctx, nil)
	require.NoError(t, err)
	assert.Nil(t, empty)
}
