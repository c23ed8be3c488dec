// Package matcher grades typed or transcribed answers against expected text.
package matcher

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"unicode"

	"github.com/antzucaro/matchr"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

const (
	// DefaultThreshold is the fuzzy acceptance ratio used by most exercises.
	DefaultThreshold = 0.7
	// SpeechThreshold is the stricter ratio used for spoken single-word checks.
	SpeechThreshold = 0.75
)

// ErrInvalidArgument reports a malformed request, such as a threshold outside (0,1].
var ErrInvalidArgument = errors.New("invalid argument")

// Mode selects the comparison used by Match.
type Mode string

const (
	ModeExact    Mode = "exact"
	ModeContains Mode = "contains"
	ModeFuzzy    Mode = "fuzzy"
)

// ParseMode converts a user-supplied mode name.
func ParseMode(s string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(s))) {
	case ModeExact:
		return ModeExact, nil
	case ModeContains:
		return ModeContains, nil
	case ModeFuzzy:
		return ModeFuzzy, nil
	default:
		return "", fmt.Errorf("%w: unknown match mode %q", ErrInvalidArgument, s)
	}
}

// Request describes one grading call.
type Request struct {
	User      string
	Expected  []string
	Mode      Mode
	Threshold float64
}

// Result is the verdict of a grading call. Similarity is only set in fuzzy mode.
type Result struct {
	Match      bool
	Similarity float64
}

const punctSet = ".,!?;:'\"«»‘’‚‛“”„…¿¡"

var stripMarks = runes.Remove(runes.In(unicode.Mn))

// Normalize lower-cases s, strips diacritics and punctuation, and collapses whitespace.
func Normalize(s string) string {
	if s == "" {
		return ""
	}
	s = strings.ToLower(s)
	t := transform.Chain(norm.NFD, stripMarks, norm.NFC)
	if out, _, err := transform.String(t, s); err == nil {
		s = out
	}
	s = strings.Map(func(r rune) rune {
		if strings.ContainsRune(punctSet, r) {
			return -1
		}
		return r
	}, s)
	return strings.Join(strings.Fields(s), " ")
}

// ExactMatch reports whether both strings are equal after normalization.
func ExactMatch(user, expected string) bool {
	return Normalize(user) == Normalize(expected)
}

// AnyExactMatch reports whether user exactly matches one of the accepted variants.
// An empty list never matches.
func AnyExactMatch(user string, expected []string) bool {
	if len(expected) == 0 {
		return false
	}
	u := Normalize(user)
	for _, e := range expected {
		if u == Normalize(e) {
			return true
		}
	}
	return false
}

// ContainsMatch reports whether the normalized haystack contains the normalized needle.
func ContainsMatch(haystack, needle string) bool {
	return strings.Contains(Normalize(haystack), Normalize(needle))
}

// Similarity returns 1 - levenshtein(a,b)/max(len(a),len(b)) over normalized runes.
func Similarity(a, b string) float64 {
	a = Normalize(a)
	b = Normalize(b)
	longest := max(len([]rune(a)), len([]rune(b)))
	if longest == 0 {
		return 1.0
	}
	return 1.0 - float64(matchr.Levenshtein(a, b))/float64(longest)
}

// FuzzyMatch accepts user when its similarity to expected reaches threshold.
func FuzzyMatch(user, expected string, threshold float64) (Result, error) {
	if err := ValidateThreshold(threshold); err != nil {
		return Result{}, err
	}
	sim := Similarity(user, expected)
	return Result{Match: sim >= threshold, Similarity: sim}, nil
}

// AnyFuzzyMatch grades user against every variant and keeps the best similarity.
func AnyFuzzyMatch(user string, expected []string, threshold float64) (Result, error) {
	if err := ValidateThreshold(threshold); err != nil {
		return Result{}, err
	}
	var best Result
	for _, e := range expected {
		sim := Similarity(user, e)
		if sim > best.Similarity {
			best.Similarity = sim
		}
	}
	best.Match = len(expected) > 0 && best.Similarity >= threshold
	return best, nil
}

// Tokens splits the normalized text into words.
func Tokens(s string) []string {
	return strings.Fields(Normalize(s))
}

// SequenceMatch compares word sequences. Order matters: a reordering does not match.
func SequenceMatch(user, expected string) bool {
	u := Tokens(user)
	e := Tokens(expected)
	if len(u) != len(e) {
		return false
	}
	for i := range u {
		if u[i] != e[i] {
			return false
		}
	}
	return true
}

// AllBlanksMatch grades each blank independently and reports the per-blank verdicts
// together with their conjunction. Missing answers count as wrong.
func AllBlanksMatch(user []string, expected [][]string) (bool, []bool) {
	verdicts := make([]bool, len(expected))
	all := len(expected) > 0
	for i, variants := range expected {
		if i < len(user) {
			verdicts[i] = AnyExactMatch(user[i], variants)
		}
		all = all && verdicts[i]
	}
	return all, verdicts
}

// Match dispatches a request by mode. For contains, the user text is the haystack
// and any expected variant may be the needle.
func Match(req Request) (Result, error) {
	switch req.Mode {
	case ModeExact, "":
		return Result{Match: AnyExactMatch(req.User, req.Expected)}, nil
	case ModeContains:
		for _, e := range req.Expected {
			if ContainsMatch(req.User, e) {
				return Result{Match: true}, nil
			}
		}
		return Result{}, nil
	case ModeFuzzy:
		return AnyFuzzyMatch(req.User, req.Expected, req.Threshold)
	default:
		return Result{}, fmt.Errorf("%w: unknown match mode %q", ErrInvalidArgument, req.Mode)
	}
}

// ValidateThreshold rejects thresholds outside (0,1].
func ValidateThreshold(threshold float64) error {
	if math.IsNaN(threshold) || threshold <= 0 || threshold > 1 {
		return fmt.Errorf("%w: threshold %v outside (0,1]", ErrInvalidArgument, threshold)
	}
	return nil
}
