package deck

import (
	"fmt"
	"time"

	"github.com/BurntSushi/toml"
)

type fileDeck struct {
	Name      string         `toml:"name"`
	Lang      string         `toml:"lang"`
	Kind      string         `toml:"kind"`
	Threshold float64        `toml:"threshold"`
	TimeLimit int            `toml:"time-limit"`
	Questions []fileQuestion `toml:"question"`
}

type fileQuestion struct {
	ID        string     `toml:"id"`
	Prompt    string     `toml:"prompt"`
	Answer    string     `toml:"answer"`
	Answers   []string   `toml:"answers"`
	Blanks    [][]string `toml:"blanks"`
	Audio     string     `toml:"audio"`
	TimeLimit int        `toml:"time-limit"`
}

func loadTOML(path string) (Deck, error) {
	var fd fileDeck
	if _, err := toml.DecodeFile(path, &fd); err != nil {
		return Deck{}, fmt.Errorf("failed to decode deck: %w", err)
	}
	d := Deck{
		Name:      fd.Name,
		Lang:      fd.Lang,
		Kind:      Kind(fd.Kind),
		Threshold: fd.Threshold,
		TimeLimit: time.Duration(fd.TimeLimit) * time.Second,
	}
	for _, fq := range fd.Questions {
		answers := append([]string(nil), fq.Answers...)
		if fq.Answer != "" {
			answers = append([]string{fq.Answer}, answers...)
		}
		d.Questions = append(d.Questions, Question{
			ID:        fq.ID,
			Prompt:    fq.Prompt,
			Answers:   answers,
			Blanks:    fq.Blanks,
			Audio:     fq.Audio,
			TimeLimit: time.Duration(fq.TimeLimit) * time.Second,
		})
	}
	return d, nil
}
