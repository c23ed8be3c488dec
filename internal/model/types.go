// Package model defines shared data structures.
package model

import "time"

// Config defines practice settings.
type Config struct {
	Deck       string
	DeckPath   string
	TimeLimit  int
	Stopwatch  bool
	Threshold  float64
	Shuffle    bool
	Count      int
	FocusWeak  bool
	WeakTop    int
	WeakWindow int
	SpeakCmd   string
	ListenCmd  string
}

// StatsConfig defines filters and options for stats output.
type StatsConfig struct {
	Deck        string
	Since       *time.Time
	Last        int
	CurveWindow int
}

// AnswerRecord captures how one question was answered.
type AnswerRecord struct {
	QuestionID string
	Prompt     string
	Answer     string
	Correct    bool
	TimedOut   bool
	Similarity float64
	Attempts   int
	ElapsedMs  int64
}

// SessionResult captures a completed practice session.
type SessionResult struct {
	StartedAt  time.Time
	EndedAt    time.Time
	Deck       string
	Kind       string
	Threshold  float64
	Correct    int
	Incorrect  int
	TimedOut   int
	DurationMs int64
	Answers    []AnswerRecord
}

// ItemAggregate aggregates answers to one question across sessions.
type ItemAggregate struct {
	QuestionID string
	Prompt     string
	Correct    int
	Incorrect  int
	TimedOut   int
	ElapsedSum int64
}

// SessionAggregate summarizes a session for reporting.
type SessionAggregate struct {
	SessionID  int64
	Deck       string
	EndedAt    time.Time
	Correct    int
	Incorrect  int
	TimedOut   int
	DurationMs int64
}
