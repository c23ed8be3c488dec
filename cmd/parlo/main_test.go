package main

import (
	"context"
	"errors"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/verte-zerg/parlo/internal/deck"
	"github.com/verte-zerg/parlo/internal/generator"
	"github.com/verte-zerg/parlo/internal/model"
)

type memSource struct {
	deck deck.Deck
	err  error
}

func (s memSource) Deck(context.Context) (deck.Deck, error) {
	return s.deck, s.err
}

func numbersDeck() deck.Deck {
	d := deck.Deck{Name: "nombres", Kind: deck.KindFuzzy, Threshold: 0.8, TimeLimit: 10 * time.Second}
	for i, w := range []string{"un", "deux", "trois", "quatre", "cinq", "six"} {
		d.Questions = append(d.Questions, deck.Question{ID: w, Prompt: string(rune('1' + i)), Answers: []string{w}})
	}
	return d
}

func TestCheckAnswerModes(t *testing.T) {
	cases := []struct {
		mode     string
		answer   string
		expected []string
		want     string
	}{
		{"exact", "Le Chien!", []string{"le chien"}, "match"},
		{"exact", "chat", []string{"chien"}, "no match"},
		{"contains", "c'est le chien", []string{"chien"}, "match"},
		{"fuzzy", "chats", []string{"chat"}, "match (similarity 0.80)"},
		{"order", "le petit chien", []string{"le petit chien"}, "match"},
		{"order", "petit le chien", []string{"le petit chien"}, "no match"},
	}
	for _, tc := range cases {
		got, err := checkAnswer(tc.mode, 0.7, tc.answer, tc.expected)
		require.NoError(t, err, "%s %q", tc.mode, tc.answer)
		assert.Equal(t, tc.want, got, "%s %q", tc.mode, tc.answer)
	}
}

func TestCheckAnswerRejectsBadInput(t *testing.T) {
	_, err := checkAnswer("regex", 0.7, "a", []string{"a"})
	assert.Error(t, err)
	_, err = checkAnswer("fuzzy", 1.5, "a", []string{"a"})
	assert.Error(t, err)
}

func TestValidateConfig(t *testing.T) {
	ok := model.Config{Deck: "fr", TimeLimit: 30, Threshold: 0.8, WeakTop: 5, WeakWindow: 10}
	require.NoError(t, validateConfig(ok))
	zero := ok
	zero.Threshold = 0
	zero.WeakTop = 0
	assert.NoError(t, validateConfig(zero), "zero threshold selects the default")

	bad := []model.Config{
		{Deck: " "},
		{Deck: "fr", TimeLimit: -1},
		{Deck: "fr", Threshold: 1.2},
		{Deck: "fr", Threshold: -0.1},
		{Deck: "fr", WeakTop: -1},
		{Deck: "fr", WeakWindow: -1},
		{Deck: "fr", Count: -2},
	}
	for _, cfg := range bad {
		assert.Error(t, validateConfig(cfg), "%+v", cfg)
	}
}

func TestApplyConfigRespectsFlags(t *testing.T) {
	cmd := newRootCmd()
	deckName := "verbs"
	timeLimit := 15
	applyConfig(cmd, "deck", &practiceDeck, &deckName)
	assert.Equal(t, "verbs", practiceDeck)

	require.NoError(t, cmd.Flags().Set("time", "20"))
	applyConfig(cmd, "time", &practiceTime, &timeLimit)
	assert.Equal(t, 20, practiceTime, "flag wins over config")

	applyConfig[int](cmd, "weak-top", &practiceWeakTop, nil)
	assert.Equal(t, defaultWeakTop, practiceWeakTop)
}

func TestDefaultConfigTemplateListsKeys(t *testing.T) {
	tmpl := defaultConfigTemplate()
	for _, key := range []string{"[practice]", "deck =", "threshold = 0.70", "count = 0", "speak-cmd", "listen-cmd", "[stats]", "curve-window"} {
		assert.Contains(t, tmpl, key)
	}
}

func TestPlanPracticeKeepsDeckOrder(t *testing.T) {
	cfg := model.Config{Count: 4}
	d, sess, err := planPractice(context.Background(), memSource{deck: numbersDeck()}, cfg, nil, generator.New())
	require.NoError(t, err)
	assert.Equal(t, "nombres", d.Name)
	require.NoError(t, sess.Start())
	assert.Equal(t, 4, sess.Len())
	q, ok := sess.Current()
	require.True(t, ok)
	assert.Equal(t, "un", q.ID)
	assert.Equal(t, "0:10", sess.Display(), "deck time limit applies")
	assert.Equal(t, 0.8, sess.Result().Threshold)
}

func TestPlanPracticeShufflesWithGenerator(t *testing.T) {
	cfg := model.Config{Shuffle: true, Threshold: 0.9, TimeLimit: 3}
	_, sess, err := planPractice(context.Background(), memSource{deck: numbersDeck()}, cfg, nil, generator.NewWithSource(rand.NewSource(11)))
	require.NoError(t, err)
	require.NoError(t, sess.Start())

	want := numbersDeck().Questions
	rand.New(rand.NewSource(11)).Shuffle(len(want), func(i, j int) { want[i], want[j] = want[j], want[i] })
	q, _ := sess.Current()
	assert.Equal(t, want[0].ID, q.ID)
	assert.Equal(t, "0:03", sess.Display(), "flag time limit overrides the deck")
	assert.Equal(t, 0.9, sess.Result().Threshold)
}

func TestPlanPracticeFocusesWeak(t *testing.T) {
	cfg := model.Config{FocusWeak: true, Count: 1}
	var asked string
	weak := func(name string) map[string]struct{} {
		asked = name
		return map[string]struct{}{"six": {}}
	}
	hits := 0
	for seed := int64(0); seed < 40; seed++ {
		_, sess, err := planPractice(context.Background(), memSource{deck: numbersDeck()}, cfg, weak, generator.NewWithSource(rand.NewSource(seed)))
		require.NoError(t, err)
		require.NoError(t, sess.Start())
		require.Equal(t, 1, sess.Len())
		if q, _ := sess.Current(); q.ID == "six" {
			hits++
		}
	}
	assert.Equal(t, "nombres", asked)
	assert.Greater(t, hits, 10)
}

func TestPlanPracticeReportsSourceErrors(t *testing.T) {
	_, _, err := planPractice(context.Background(), memSource{err: errors.New("disk gone")}, model.Config{}, nil, generator.New())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to load deck")
}
