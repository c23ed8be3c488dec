package stats

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatTableAlignsColumns(t *testing.T) {
	headers := []string{"Prompt", "Accuracy", "Correct"}
	rows := [][]string{
		{"cat", "97.50%", "12"},
		{"à la gare", "8.00%", "3"},
	}
	rightAlign := map[int]bool{1: true, 2: true}

	lines := formatTable(headers, rows, rightAlign)
	require.Len(t, lines, 3)
	assert.Equal(t, "Prompt    Accuracy Correct", lines[0])
	assert.Equal(t, "cat         97.50%      12", lines[1])
	assert.Equal(t, "à la gare    8.00%       3", lines[2])
}

func TestTruncateKeepsShortText(t *testing.T) {
	assert.Equal(t, "chat", truncate("chat", 10))
	assert.Equal(t, "boul…", truncate("boulangerie", 5))
}
