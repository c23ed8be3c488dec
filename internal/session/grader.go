package session

import (
	"fmt"
	"strings"

	"github.com/verte-zerg/parlo/internal/deck"
	"github.com/verte-zerg/parlo/internal/matcher"
)

// Feedback is the verdict shown after an answer.
type Feedback struct {
	Correct    bool
	Expected   string
	Similarity float64
	TimedOut   bool
	Blanks     []bool
}

// Grader decides whether an answer to a question is correct. Most exercises
// pass a single answer; fill-in-the-blank passes one per gap.
type Grader interface {
	Grade(q deck.Question, answer []string) (Feedback, error)
}

// ExactGrader accepts any variant equal after normalization.
type ExactGrader struct{}

// Grade implements Grader.
func (ExactGrader) Grade(q deck.Question, answer []string) (Feedback, error) {
	return Feedback{
		Correct:  matcher.AnyExactMatch(first(answer), q.Answers),
		Expected: expected(q),
	}, nil
}

// ContainsGrader accepts an answer that contains any required word.
type ContainsGrader struct{}

// Grade implements Grader.
func (ContainsGrader) Grade(q deck.Question, answer []string) (Feedback, error) {
	res, err := matcher.Match(matcher.Request{User: first(answer), Expected: q.Answers, Mode: matcher.ModeContains})
	if err != nil {
		return Feedback{}, err
	}
	return Feedback{Correct: res.Match, Expected: expected(q)}, nil
}

// FuzzyGrader accepts answers whose similarity reaches Threshold.
type FuzzyGrader struct {
	Threshold float64
}

// Grade implements Grader.
func (g FuzzyGrader) Grade(q deck.Question, answer []string) (Feedback, error) {
	res, err := matcher.AnyFuzzyMatch(first(answer), q.Answers, g.Threshold)
	if err != nil {
		return Feedback{}, err
	}
	return Feedback{Correct: res.Match, Expected: expected(q), Similarity: res.Similarity}, nil
}

// BlanksGrader grades every gap independently; all must be right.
type BlanksGrader struct{}

// Grade implements Grader.
func (BlanksGrader) Grade(q deck.Question, answer []string) (Feedback, error) {
	all, verdicts := matcher.AllBlanksMatch(answer, q.Blanks)
	parts := make([]string, 0, len(q.Blanks))
	for _, variants := range q.Blanks {
		if len(variants) > 0 {
			parts = append(parts, variants[0])
		}
	}
	return Feedback{Correct: all, Expected: strings.Join(parts, ", "), Blanks: verdicts}, nil
}

// OrderGrader compares word sequences for sentence-building exercises.
type OrderGrader struct{}

// Grade implements Grader.
func (OrderGrader) Grade(q deck.Question, answer []string) (Feedback, error) {
	user := strings.Join(answer, " ")
	for _, want := range q.Answers {
		if matcher.SequenceMatch(user, want) {
			return Feedback{Correct: true, Expected: expected(q)}, nil
		}
	}
	return Feedback{Expected: expected(q)}, nil
}

// GraderFor returns the strategy for a deck kind. A zero threshold picks the
// default for the kind.
func GraderFor(kind deck.Kind, threshold float64) (Grader, error) {
	switch kind {
	case deck.KindExact, "":
		return ExactGrader{}, nil
	case deck.KindContains:
		return ContainsGrader{}, nil
	case deck.KindFuzzy:
		if threshold == 0 {
			threshold = matcher.DefaultThreshold
		}
		if err := matcher.ValidateThreshold(threshold); err != nil {
			return nil, err
		}
		return FuzzyGrader{Threshold: threshold}, nil
	case deck.KindSpeech:
		if threshold == 0 {
			threshold = matcher.SpeechThreshold
		}
		if err := matcher.ValidateThreshold(threshold); err != nil {
			return nil, err
		}
		return FuzzyGrader{Threshold: threshold}, nil
	case deck.KindBlanks:
		return BlanksGrader{}, nil
	case deck.KindOrder:
		return OrderGrader{}, nil
	default:
		return nil, fmt.Errorf("%w: unknown deck kind %q", matcher.ErrInvalidArgument, kind)
	}
}

func first(answer []string) string {
	if len(answer) == 0 {
		return ""
	}
	return answer[0]
}

func expected(q deck.Question) string {
	if len(q.Answers) == 0 {
		return ""
	}
	return q.Answers[0]
}
