package tui

import (
	"strings"

	"github.com/mattn/go-runewidth"
)

// wrapText breaks text into lines no wider than width display cells. Words
// longer than a line are split.
func wrapText(text string, width int) []string {
	if width < 1 {
		width = 1
	}
	var lines []string
	for _, paragraph := range strings.Split(text, "\n") {
		words := strings.Fields(paragraph)
		if len(words) == 0 {
			lines = append(lines, "")
			continue
		}
		var line strings.Builder
		lineWidth := 0
		for _, word := range words {
			for _, chunk := range splitWord(word, width) {
				w := runewidth.StringWidth(chunk)
				if lineWidth > 0 && lineWidth+1+w > width {
					lines = append(lines, line.String())
					line.Reset()
					lineWidth = 0
				}
				if lineWidth > 0 {
					line.WriteByte(' ')
					lineWidth++
				}
				line.WriteString(chunk)
				lineWidth += w
			}
		}
		lines = append(lines, line.String())
	}
	return lines
}

func splitWord(word string, width int) []string {
	if runewidth.StringWidth(word) <= width {
		return []string{word}
	}
	var chunks []string
	var chunk strings.Builder
	chunkWidth := 0
	for _, r := range word {
		rw := runewidth.RuneWidth(r)
		if chunkWidth > 0 && chunkWidth+rw > width {
			chunks = append(chunks, chunk.String())
			chunk.Reset()
			chunkWidth = 0
		}
		chunk.WriteRune(r)
		chunkWidth += rw
	}
	if chunk.Len() > 0 {
		chunks = append(chunks, chunk.String())
	}
	return chunks
}
