package deck

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"
)

// loadCSV reads rows of prompt,answer[|variant...][,seconds]. A first row
// starting with "prompt" is treated as a header. Leading comment lines of the
// form "# kind: fuzzy" set deck fields (name, lang, kind, threshold,
// time-limit).
func loadCSV(path string) (Deck, error) {
	file, err := os.Open(path)
	if err != nil {
		return Deck{}, err
	}
	defer func() {
		if cerr := file.Close(); cerr != nil {
			// Best-effort close for read-only deck.
			_ = cerr
		}
	}()
	return parseCSV(file)
}

func parseCSV(r io.Reader) (Deck, error) {
	d, body, err := parseCSVHeader(r)
	if err != nil {
		return Deck{}, err
	}
	detectKind := d.Kind == ""

	reader := csv.NewReader(body)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true
	reader.Comment = '#'

	line := 0
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return Deck{}, fmt.Errorf("failed to read deck: %w", err)
		}
		line++
		if line == 1 && len(record) > 0 && strings.EqualFold(strings.TrimSpace(record[0]), "prompt") {
			continue
		}
		if len(record) < 2 {
			return Deck{}, fmt.Errorf("%w: row %d needs prompt and answer", ErrInvalidDeck, line)
		}
		q := Question{Prompt: strings.TrimSpace(record[0])}
		if BlankCount(q.Prompt) > 0 {
			// Blanks are split on ";" once the deck kind is known.
			q.Answers = []string{strings.TrimSpace(record[1])}
		} else {
			q.Answers = splitVariants(strings.ReplaceAll(record[1], ";", "|"))
		}
		if len(record) > 2 && strings.TrimSpace(record[2]) != "" {
			secs, err := strconv.Atoi(strings.TrimSpace(record[2]))
			if err != nil || secs < 0 {
				return Deck{}, fmt.Errorf("%w: row %d has invalid time limit %q", ErrInvalidDeck, line, record[2])
			}
			q.TimeLimit = time.Duration(secs) * time.Second
		}
		d.Questions = append(d.Questions, q)
	}
	if detectKind && len(d.Questions) > 0 && hasBlanks(d.Questions) {
		d.Kind = KindBlanks
	}
	return d, nil
}

func hasBlanks(questions []Question) bool {
	for _, q := range questions {
		if BlankCount(q.Prompt) == 0 {
			return false
		}
	}
	return true
}

// parseCSVHeader consumes leading comment and blank lines, applying any
// "key: value" directives, and returns a reader over the remaining rows.
func parseCSVHeader(r io.Reader) (Deck, io.Reader, error) {
	var d Deck
	br := bufio.NewReader(r)
	for {
		peek, err := br.Peek(1)
		if err != nil || (peek[0] != '#' && peek[0] != '\n' && peek[0] != '\r') {
			break
		}
		line, err := br.ReadString('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return Deck{}, nil, fmt.Errorf("failed to read deck: %w", err)
		}
		if derr := applyDirective(&d, line); derr != nil {
			return Deck{}, nil, derr
		}
		if errors.Is(err, io.EOF) {
			break
		}
	}
	return d, br, nil
}

func applyDirective(d *Deck, line string) error {
	text := strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(line), "#"))
	key, value, ok := strings.Cut(text, ":")
	if !ok {
		key, value, ok = strings.Cut(text, "=")
	}
	if !ok {
		return nil
	}
	key = strings.ToLower(strings.TrimSpace(key))
	value = strings.TrimSpace(value)
	switch key {
	case "name":
		d.Name = value
	case "lang":
		d.Lang = value
	case "kind":
		d.Kind = Kind(strings.ToLower(value))
	case "threshold":
		v, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return fmt.Errorf("%w: invalid threshold %q", ErrInvalidDeck, value)
		}
		d.Threshold = v
	case "time-limit":
		secs, err := strconv.Atoi(value)
		if err != nil || secs < 0 {
			return fmt.Errorf("%w: invalid time limit %q", ErrInvalidDeck, value)
		}
		d.TimeLimit = time.Duration(secs) * time.Second
	}
	return nil
}
