// Package deck loads practice questions from TOML and CSV files.
package deck

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

var (
	// ErrEmptyDeck is returned for decks without questions.
	ErrEmptyDeck = errors.New("deck has no questions")
	// ErrUnsupportedFormat is returned for unknown deck file extensions.
	ErrUnsupportedFormat = errors.New("unsupported deck format")
	// ErrInvalidDeck is returned when a deck fails validation.
	ErrInvalidDeck = errors.New("invalid deck")
)

// Kind selects how answers to a deck are graded.
type Kind string

const (
	KindExact    Kind = "exact"
	KindContains Kind = "contains"
	KindFuzzy    Kind = "fuzzy"
	KindBlanks   Kind = "blanks"
	KindOrder    Kind = "order"
	KindSpeech   Kind = "speech"
)

// BlankMarker marks a gap in a fill-in-the-blank prompt.
const BlankMarker = "___"

// Question is one exercise item.
type Question struct {
	ID        string
	Prompt    string
	Answers   []string
	Blanks    [][]string
	Audio     string
	TimeLimit time.Duration
}

// Deck is an ordered set of questions sharing a grading kind.
type Deck struct {
	Name      string
	Lang      string
	Kind      Kind
	Threshold float64
	TimeLimit time.Duration
	Questions []Question
}

// Source yields the deck a session is played from.
type Source interface {
	Deck(ctx context.Context) (Deck, error)
}

// FileSource reads a deck file on every call.
type FileSource struct {
	Path string
}

// Deck implements Source.
func (s FileSource) Deck(ctx context.Context) (Deck, error) {
	if err := ctx.Err(); err != nil {
		return Deck{}, err
	}
	return Load(s.Path)
}

// Load reads a deck, choosing the parser by file extension.
func Load(path string) (Deck, error) {
	var (
		d   Deck
		err error
	)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		d, err = loadTOML(path)
	case ".csv":
		d, err = loadCSV(path)
	case ".yaml", ".yml":
		d, err = loadYAML(path)
	default:
		return Deck{}, fmt.Errorf("%w: %s", ErrUnsupportedFormat, path)
	}
	if err != nil {
		return Deck{}, err
	}
	if d.Name == "" {
		d.Name = Name(path)
	}
	if d.Kind == "" {
		d.Kind = KindExact
	}
	finalize(&d)
	if err := Validate(d); err != nil {
		return Deck{}, fmt.Errorf("%s: %w", path, err)
	}
	return d, nil
}

// Name derives a deck name from its file path.
func Name(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// List returns the sorted deck names found in dir.
func List(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		switch strings.ToLower(filepath.Ext(entry.Name())) {
		case ".toml", ".csv", ".yaml", ".yml":
			names = append(names, Name(entry.Name()))
		}
	}
	sort.Strings(names)
	return names, nil
}

// Resolve finds the file for a deck name in dir, preferring TOML, then CSV, then YAML.
func Resolve(dir, name string) (string, error) {
	if filepath.Ext(name) != "" {
		if _, err := os.Stat(name); err == nil {
			return name, nil
		}
	}
	for _, ext := range []string{".toml", ".csv", ".yaml", ".yml"} {
		path := filepath.Join(dir, name+ext)
		if _, err := os.Stat(path); err == nil {
			return path, nil
		}
	}
	return "", fmt.Errorf("deck %q not found in %s", name, dir)
}

// Validate checks a deck for structural problems.
func Validate(d Deck) error {
	switch d.Kind {
	case KindExact, KindContains, KindFuzzy, KindBlanks, KindOrder, KindSpeech:
	default:
		return fmt.Errorf("%w: unknown kind %q", ErrInvalidDeck, d.Kind)
	}
	if d.Threshold < 0 || d.Threshold > 1 {
		return fmt.Errorf("%w: threshold %v outside (0,1]", ErrInvalidDeck, d.Threshold)
	}
	if d.TimeLimit < 0 {
		return fmt.Errorf("%w: negative time limit", ErrInvalidDeck)
	}
	if len(d.Questions) == 0 {
		return ErrEmptyDeck
	}
	for i, q := range d.Questions {
		if strings.TrimSpace(q.Prompt) == "" {
			return fmt.Errorf("%w: question %d has no prompt", ErrInvalidDeck, i+1)
		}
		if d.Kind == KindBlanks {
			if len(q.Blanks) == 0 {
				return fmt.Errorf("%w: question %d has no blanks", ErrInvalidDeck, i+1)
			}
			continue
		}
		if len(q.Answers) == 0 {
			return fmt.Errorf("%w: question %d has no answer", ErrInvalidDeck, i+1)
		}
	}
	return nil
}

// finalize fills question ids and splits blank answers.
func finalize(d *Deck) {
	for i := range d.Questions {
		q := &d.Questions[i]
		if q.ID == "" {
			q.ID = fmt.Sprintf("%s-%d", d.Name, i+1)
		}
		if d.Kind == KindBlanks && len(q.Blanks) == 0 {
			q.Blanks = splitBlanks(q.Answers)
		}
	}
}

// splitBlanks turns "boulangerie; pain|baguette" into one variant list per blank.
func splitBlanks(answers []string) [][]string {
	if len(answers) == 0 {
		return nil
	}
	parts := strings.Split(answers[0], ";")
	blanks := make([][]string, 0, len(parts))
	for _, part := range parts {
		blanks = append(blanks, splitVariants(part))
	}
	return blanks
}

func splitVariants(s string) []string {
	var out []string
	for _, v := range strings.Split(s, "|") {
		v = strings.TrimSpace(v)
		if v != "" {
			out = append(out, v)
		}
	}
	return out
}

// BlankCount returns the number of gaps in a prompt.
func BlankCount(prompt string) int {
	return strings.Count(prompt, BlankMarker)
}
