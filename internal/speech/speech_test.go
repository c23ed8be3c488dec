package speech

import (
	"context"
	"io"
	"os/exec"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestManualTranscriber(t *testing.T) {
	tr := NewManualTranscriber(strings.NewReader("  bonjour \nle chat\n"))
	ctx := context.Background()

	got, err := tr.Transcribe(ctx)
	require.NoError(t, err)
	assert.Equal(t, "bonjour", got)

	got, err = tr.Transcribe(ctx)
	require.NoError(t, err)
	assert.Equal(t, "le chat", got)

	_, err = tr.Transcribe(ctx)
	assert.ErrorIs(t, err, io.EOF)
}

func TestManualTranscriberHonorsContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewManualTranscriber(strings.NewReader("x\n")).Transcribe(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestCommandSpeakerUnknownProgram(t *testing.T) {
	_, err := NewCommandSpeaker("definitely-not-a-tts-program-xyz")
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestNopSpeaker(t *testing.T) {
	var s Speaker = NopSpeaker{}
	assert.NoError(t, s.Speak(context.Background(), "bonjour"))
}

func TestCommandTranscriberRequiresCommand(t *testing.T) {
	_, err := NewCommandTranscriber("")
	assert.ErrorIs(t, err, ErrUnavailable)

	_, err = NewCommandTranscriber("definitely-not-an-stt-program-xyz --model tiny")
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestCommandTranscriberTakesFirstLine(t *testing.T) {
	if _, err := exec.LookPath("printf"); err != nil {
		t.Skip("printf not available")
	}
	tr, err := NewCommandTranscriber("printf")
	require.NoError(t, err)
	tr.Args = []string{" le chien \nnoise\n"}

	got, err := tr.Transcribe(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "le chien", got)

	tr.Args = []string{""}
	got, err = tr.Transcribe(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "", got)
}
