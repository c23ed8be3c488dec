// Package speech defines the speech ports used by spoken exercises.
package speech

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"strings"
)

// ErrUnavailable is returned when no speech backend can be used.
var ErrUnavailable = errors.New("speech backend unavailable")

// Transcriber yields a best-effort transcript of what the learner said.
type Transcriber interface {
	Transcribe(ctx context.Context) (string, error)
}

// Speaker reads text aloud.
type Speaker interface {
	Speak(ctx context.Context, text string) error
}

// ManualTranscriber reads typed lines instead of recognizing speech.
type ManualTranscriber struct {
	scanner *bufio.Scanner
}

// NewManualTranscriber reads one transcript per line from r.
func NewManualTranscriber(r io.Reader) *ManualTranscriber {
	return &ManualTranscriber{scanner: bufio.NewScanner(r)}
}

// Transcribe implements Transcriber.
func (m *ManualTranscriber) Transcribe(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if !m.scanner.Scan() {
		if err := m.scanner.Err(); err != nil {
			return "", err
		}
		return "", io.EOF
	}
	return strings.TrimSpace(m.scanner.Text()), nil
}

// CommandTranscriber runs an external speech-to-text program, such as a
// whisper.cpp wrapper that records one utterance, and takes the first line
// it prints as the transcript.
type CommandTranscriber struct {
	Name string
	Args []string
}

// NewCommandTranscriber builds a transcriber from a command line. Unlike
// speakers there is no default program.
func NewCommandTranscriber(command string) (*CommandTranscriber, error) {
	parts := strings.Fields(command)
	if len(parts) == 0 {
		return nil, ErrUnavailable
	}
	if _, err := exec.LookPath(parts[0]); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrUnavailable, parts[0])
	}
	return &CommandTranscriber{Name: parts[0], Args: parts[1:]}, nil
}

// Transcribe implements Transcriber.
func (c *CommandTranscriber) Transcribe(ctx context.Context) (string, error) {
	cmd := exec.CommandContext(ctx, c.Name, c.Args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	out, err := cmd.Output()
	if err != nil {
		return "", fmt.Errorf("failed to transcribe: %w: %s", err, strings.TrimSpace(stderr.String()))
	}
	text, err := NewManualTranscriber(bytes.NewReader(out)).Transcribe(ctx)
	if errors.Is(err, io.EOF) {
		return "", nil
	}
	return text, err
}

// NopSpeaker discards text.
type NopSpeaker struct{}

// Speak implements Speaker.
func (NopSpeaker) Speak(context.Context, string) error { return nil }

// CommandSpeaker pipes text to an external text-to-speech program.
type CommandSpeaker struct {
	Name string
	Args []string
}

var defaultCommands = []string{"say", "espeak-ng", "espeak", "spd-say"}

// NewCommandSpeaker builds a speaker from a command line such as "espeak -v fr".
// An empty command picks the first known program found on PATH.
func NewCommandSpeaker(command string) (*CommandSpeaker, error) {
	parts := strings.Fields(command)
	if len(parts) > 0 {
		if _, err := exec.LookPath(parts[0]); err != nil {
			return nil, fmt.Errorf("%w: %s", ErrUnavailable, parts[0])
		}
		return &CommandSpeaker{Name: parts[0], Args: parts[1:]}, nil
	}
	for _, name := range defaultCommands {
		if _, err := exec.LookPath(name); err == nil {
			return &CommandSpeaker{Name: name}, nil
		}
	}
	return nil, ErrUnavailable
}

// Speak implements Speaker. The text is passed as the last argument.
func (c *CommandSpeaker) Speak(ctx context.Context, text string) error {
	if strings.TrimSpace(text) == "" {
		return nil
	}
	args := append(append([]string(nil), c.Args...), text)
	cmd := exec.CommandContext(ctx, c.Name, args...)
	if out, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("failed to speak: %w: %s", err, strings.TrimSpace(string(out)))
	}
	return nil
}
