package tui

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWrapTextBreaksOnWords(t *testing.T) {
	assert.Equal(t, []string{"Je vais à la", "boulangerie"}, wrapText("Je vais à la boulangerie", 12))
}

func TestWrapTextSplitsLongWords(t *testing.T) {
	assert.Equal(t, []string{"anticonsti", "tutionnell", "ement"}, wrapText("anticonstitutionnellement", 10))
}

func TestWrapTextWideRunes(t *testing.T) {
	assert.Equal(t, []string{"日本語", "です"}, wrapText("日本語 です", 6))
}

func TestWrapTextKeepsParagraphs(t *testing.T) {
	assert.Equal(t, []string{"un", "", "deux"}, wrapText("un\n\ndeux", 10))
}
