// Package session runs an exercise: it arms a timer per question, grades
// answers through a Grader, keeps the score and advances through the deck.
package session

import (
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/verte-zerg/parlo/internal/deck"
	"github.com/verte-zerg/parlo/internal/model"
	"github.com/verte-zerg/parlo/internal/timer"
)

var (
	// ErrNoQuestions is returned when a session is built without questions.
	ErrNoQuestions = errors.New("no questions")
	// ErrAnswered is returned when the current question was already answered.
	ErrAnswered = errors.New("question already answered")
	// ErrFinished is returned once every question was played.
	ErrFinished = errors.New("session finished")
	// ErrNotStarted is returned before Start.
	ErrNotStarted = errors.New("session not started")
)

// Option configures a Session.
type Option func(*Session)

// WithTimeLimit sets the countdown used when a question has no limit of its own.
func WithTimeLimit(d time.Duration) Option {
	return func(s *Session) { s.limit = d }
}

// WithStopwatch times untimed questions with a stopwatch instead of nothing.
func WithStopwatch() Option {
	return func(s *Session) { s.stopwatch = true }
}

// WithShuffle shuffles the questions on Start.
func WithShuffle(rnd *rand.Rand) Option {
	return func(s *Session) { s.rnd = rnd }
}

// WithCount limits the session to the first n questions after shuffling. Zero
// keeps every question.
func WithCount(n int) Option {
	return func(s *Session) { s.count = n }
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Session) { s.now = now }
}

// WithDeck records deck metadata in the session result.
func WithDeck(name string, kind deck.Kind, threshold float64) Option {
	return func(s *Session) {
		s.deckName = name
		s.kind = kind
		s.threshold = threshold
	}
}

// Session is not safe for concurrent use; the owner drives it from one goroutine.
type Session struct {
	questions []deck.Question
	grader    Grader
	limit     time.Duration
	stopwatch bool
	rnd       *rand.Rand
	count     int
	now       func() time.Time

	deckName  string
	kind      deck.Kind
	threshold float64

	started   bool
	paused    bool
	startedAt time.Time
	idx       int

	clock         *timer.Timer
	generation    int
	expiredGen    int
	answered      bool
	last          Feedback
	attempts      int
	questionStart time.Time

	records []*model.AnswerRecord
}

// New builds a session over questions graded by grader.
func New(questions []deck.Question, grader Grader, opts ...Option) (*Session, error) {
	if len(questions) == 0 {
		return nil, ErrNoQuestions
	}
	if grader == nil {
		return nil, fmt.Errorf("grader is required")
	}
	s := &Session{
		questions:  append([]deck.Question(nil), questions...),
		grader:     grader,
		now:        time.Now,
		expiredGen: -1,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.limit < 0 {
		return nil, fmt.Errorf("%w: negative time limit", timer.ErrInvalidArgument)
	}
	if s.count < 0 {
		return nil, fmt.Errorf("%w: negative question count", timer.ErrInvalidArgument)
	}
	s.records = make([]*model.AnswerRecord, len(s.questions))
	return s, nil
}

// Start arms the first question.
func (s *Session) Start() error {
	if s.started {
		return nil
	}
	if s.rnd != nil {
		s.rnd.Shuffle(len(s.questions), func(i, j int) {
			s.questions[i], s.questions[j] = s.questions[j], s.questions[i]
		})
	}
	if s.count > 0 && s.count < len(s.questions) {
		s.questions = s.questions[:s.count]
		s.records = s.records[:s.count]
	}
	s.started = true
	s.startedAt = s.now()
	return s.arm()
}

func (s *Session) arm() error {
	s.stopClock()
	s.answered = false
	s.last = Feedback{}
	s.attempts++
	s.generation++
	s.questionStart = s.now()

	q := s.questions[s.idx]
	limit := q.TimeLimit
	if limit == 0 {
		limit = s.limit
	}
	var cfg timer.Config
	switch {
	case limit > 0:
		gen := s.generation
		cfg = timer.Config{
			Mode:     timer.Countdown,
			Duration: wholeSeconds(limit),
			OnExpire: func() { s.expiredGen = gen },
		}
	case s.stopwatch:
		cfg = timer.Config{Mode: timer.Stopwatch}
	default:
		s.clock = nil
		return nil
	}
	cfg.Paused = s.paused
	clock, err := timer.New(cfg)
	if err != nil {
		return err
	}
	s.clock = clock
	return nil
}

func (s *Session) stopClock() {
	if s.clock != nil {
		s.clock.Stop()
	}
}

// Len returns the number of questions.
func (s *Session) Len() int { return len(s.questions) }

// Index returns the zero-based position of the current question.
func (s *Session) Index() int { return s.idx }

// Finished reports whether every question was played.
func (s *Session) Finished() bool { return s.idx >= len(s.questions) }

// Answered reports whether the current question has a verdict.
func (s *Session) Answered() bool { return s.answered }

// Last returns the verdict for the current question.
func (s *Session) Last() Feedback { return s.last }

// Paused reports the external pause flag.
func (s *Session) Paused() bool { return s.paused }

// Current returns the active question.
func (s *Session) Current() (deck.Question, bool) {
	if !s.started || s.Finished() {
		return deck.Question{}, false
	}
	return s.questions[s.idx], true
}

// Clock returns the timer of the active question; nil for untimed questions.
func (s *Session) Clock() *timer.Timer { return s.clock }

// Display renders the active timer, or "" when untimed.
func (s *Session) Display() string {
	if s.clock == nil {
		return ""
	}
	return s.clock.Display()
}

// Tick advances the active timer by one second. When the countdown expires the
// question is submitted with an empty answer and the verdict is returned with
// ok set.
func (s *Session) Tick() (Feedback, bool, error) {
	if !s.started || s.Finished() || s.answered || s.clock == nil {
		return Feedback{}, false, nil
	}
	s.clock.Tick()
	if s.expiredGen != s.generation {
		return Feedback{}, false, nil
	}
	fb, err := s.submit(nil, true)
	if err != nil {
		return Feedback{}, false, err
	}
	return fb, true, nil
}

// Submit grades the answer for the current question.
func (s *Session) Submit(answer ...string) (Feedback, error) {
	if !s.started {
		return Feedback{}, ErrNotStarted
	}
	if s.Finished() {
		return Feedback{}, ErrFinished
	}
	if s.answered {
		return Feedback{}, ErrAnswered
	}
	return s.submit(answer, false)
}

func (s *Session) submit(answer []string, timedOut bool) (Feedback, error) {
	q := s.questions[s.idx]
	fb, err := s.grader.Grade(q, answer)
	if err != nil {
		return Feedback{}, fmt.Errorf("failed to grade answer: %w", err)
	}
	if timedOut {
		fb.Correct = false
		fb.TimedOut = true
	}
	s.stopClock()
	s.answered = true
	s.last = fb
	s.records[s.idx] = &model.AnswerRecord{
		QuestionID: q.ID,
		Prompt:     q.Prompt,
		Answer:     joinAnswer(answer),
		Correct:    fb.Correct,
		TimedOut:   fb.TimedOut,
		Similarity: fb.Similarity,
		Attempts:   s.attempts,
		ElapsedMs:  s.now().Sub(s.questionStart).Milliseconds(),
	}
	return fb, nil
}

// Retry clears the verdict of the current question and restarts its timer.
func (s *Session) Retry() error {
	if !s.started {
		return ErrNotStarted
	}
	if s.Finished() {
		return ErrFinished
	}
	s.records[s.idx] = nil
	return s.arm()
}

// Next moves to the following question. An unanswered question is recorded
// as skipped. It returns false once the session is finished.
func (s *Session) Next() (bool, error) {
	if !s.started {
		return false, ErrNotStarted
	}
	if s.Finished() {
		return false, nil
	}
	if !s.answered {
		q := s.questions[s.idx]
		s.records[s.idx] = &model.AnswerRecord{
			QuestionID: q.ID,
			Prompt:     q.Prompt,
			Attempts:   s.attempts,
			ElapsedMs:  s.now().Sub(s.questionStart).Milliseconds(),
		}
	}
	s.stopClock()
	s.clock = nil
	s.idx++
	s.attempts = 0
	if s.Finished() {
		return false, nil
	}
	return true, s.arm()
}

// SetPaused mirrors the external pause flag onto the active timer.
func (s *Session) SetPaused(paused bool) {
	s.paused = paused
	if s.clock != nil {
		s.clock.SetPaused(paused)
	}
}

// Pause freezes the active timer.
func (s *Session) Pause() { s.SetPaused(true) }

// Resume unfreezes the active timer.
func (s *Session) Resume() { s.SetPaused(false) }

// Close stops the active timer; no expiry fires afterwards.
func (s *Session) Close() {
	s.stopClock()
}

// Score returns correct answers and questions graded so far.
func (s *Session) Score() (correct, total int) {
	for _, r := range s.records {
		if r == nil {
			continue
		}
		total++
		if r.Correct {
			correct++
		}
	}
	return correct, total
}

// Result summarizes the session for persistence.
func (s *Session) Result() model.SessionResult {
	ended := s.now()
	res := model.SessionResult{
		StartedAt:  s.startedAt,
		EndedAt:    ended,
		Deck:       s.deckName,
		Kind:       string(s.kind),
		Threshold:  s.threshold,
		DurationMs: ended.Sub(s.startedAt).Milliseconds(),
	}
	for _, r := range s.records {
		if r == nil {
			continue
		}
		switch {
		case r.Correct:
			res.Correct++
		case r.TimedOut:
			res.TimedOut++
			res.Incorrect++
		default:
			res.Incorrect++
		}
		res.Answers = append(res.Answers, *r)
	}
	return res
}

// wholeSeconds rounds a limit up so that a partial second still gets a tick.
func wholeSeconds(d time.Duration) int {
	return int((d + time.Second - 1) / time.Second)
}

func joinAnswer(answer []string) string {
	switch len(answer) {
	case 0:
		return ""
	case 1:
		return answer[0]
	}
	out := answer[0]
	for _, a := range answer[1:] {
		out += "; " + a
	}
	return out
}
