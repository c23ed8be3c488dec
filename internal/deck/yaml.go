package deck

import (
	"fmt"
	"io"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// yamlDeck mirrors the TOML layout:
//
//	name: verbs
//	kind: fuzzy
//	questions:
//	  - prompt: "to eat"
//	    answers: [manger]
type yamlDeck struct {
	Name      string         `yaml:"name"`
	Lang      string         `yaml:"lang"`
	Kind      string         `yaml:"kind"`
	Threshold float64        `yaml:"threshold"`
	TimeLimit int            `yaml:"time-limit"`
	Questions []yamlQuestion `yaml:"questions"`
}

type yamlQuestion struct {
	ID        string     `yaml:"id"`
	Prompt    string     `yaml:"prompt"`
	Answer    string     `yaml:"answer"`
	Answers   []string   `yaml:"answers"`
	Blanks    [][]string `yaml:"blanks"`
	Audio     string     `yaml:"audio"`
	TimeLimit int        `yaml:"time-limit"`
}

func loadYAML(path string) (Deck, error) {
	f, err := os.Open(path)
	if err != nil {
		return Deck{}, fmt.Errorf("failed to open deck: %w", err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil {
			// Best-effort close of a read-only file.
			_ = cerr
		}
	}()
	return decodeYAML(f)
}

func decodeYAML(r io.Reader) (Deck, error) {
	var yd yamlDeck
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&yd); err != nil {
		return Deck{}, fmt.Errorf("failed to decode deck: %w", err)
	}
	d := Deck{
		Name:      yd.Name,
		Lang:      yd.Lang,
		Kind:      Kind(yd.Kind),
		Threshold: yd.Threshold,
		TimeLimit: time.Duration(yd.TimeLimit) * time.Second,
	}
	for _, yq := range yd.Questions {
		answers := append([]string(nil), yq.Answers...)
		if yq.Answer != "" {
			answers = append([]string{yq.Answer}, answers...)
		}
		d.Questions = append(d.Questions, Question{
			ID:        yq.ID,
			Prompt:    yq.Prompt,
			Answers:   answers,
			Blanks:    yq.Blanks,
			Audio:     yq.Audio,
			TimeLimit: time.Duration(yq.TimeLimit) * time.Second,
		})
	}
	return d, nil
}
