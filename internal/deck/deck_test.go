package deck

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadTOML(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "greetings.toml", `
lang = "fr"
kind = "fuzzy"
threshold = 0.75
time-limit = 20

[[question]]
prompt = "hello"
answer = "bonjour"
answers = ["salut"]

[[question]]
id = "bye"
prompt = "goodbye"
answers = ["au revoir"]
time-limit = 5
`)
	d, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "greetings", d.Name)
	assert.Equal(t, "fr", d.Lang)
	assert.Equal(t, KindFuzzy, d.Kind)
	assert.Equal(t, 0.75, d.Threshold)
	assert.Equal(t, 20*time.Second, d.TimeLimit)
	require.Len(t, d.Questions, 2)
	assert.Equal(t, []string{"bonjour", "salut"}, d.Questions[0].Answers)
	assert.Equal(t, "greetings-1", d.Questions[0].ID)
	assert.Equal(t, "bye", d.Questions[1].ID)
	assert.Equal(t, 5*time.Second, d.Questions[1].TimeLimit)
}

func TestLoadTOMLBlanks(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "shop.toml", `
kind = "blanks"

[[question]]
prompt = "Je vais à la ___ acheter du ___."
answer = "boulangerie; pain|baguette"
`)
	d, err := Load(path)
	require.NoError(t, err)
	require.Len(t, d.Questions, 1)
	assert.Equal(t, [][]string{{"boulangerie"}, {"pain", "baguette"}}, d.Questions[0].Blanks)
}

func TestParseCSV(t *testing.T) {
	d, err := parseCSV(strings.NewReader("prompt,answer,seconds\n# comment\ncat,chat|matou,10\ndog,chien\n"))
	require.NoError(t, err)
	require.Len(t, d.Questions, 2)
	assert.Equal(t, []string{"chat", "matou"}, d.Questions[0].Answers)
	assert.Equal(t, 10*time.Second, d.Questions[0].TimeLimit)
	assert.Equal(t, Kind(""), d.Kind)
}

func TestParseCSVDetectsBlanks(t *testing.T) {
	d, err := parseCSV(strings.NewReader("Je vais à la ___ acheter du ___.,boulangerie; pain\n"))
	require.NoError(t, err)
	assert.Equal(t, KindBlanks, d.Kind)
	assert.Equal(t, []string{"boulangerie; pain"}, d.Questions[0].Answers)
}

func TestParseCSVHeaderDirectives(t *testing.T) {
	d, err := parseCSV(strings.NewReader(`# name: verbes
# kind: fuzzy
# threshold = 0.8
# time-limit: 12
# free text comment

prompt,answer
to eat,manger;bouffer
`))
	require.NoError(t, err)
	assert.Equal(t, "verbes", d.Name)
	assert.Equal(t, KindFuzzy, d.Kind)
	assert.Equal(t, 0.8, d.Threshold)
	assert.Equal(t, 12*time.Second, d.TimeLimit)
	require.Len(t, d.Questions, 1)
	assert.Equal(t, []string{"manger", "bouffer"}, d.Questions[0].Answers)

	_, err = parseCSV(strings.NewReader("# threshold: high\ncat,chat\n"))
	assert.ErrorIs(t, err, ErrInvalidDeck)
}

func TestLoadCSVWithDeclaredKind(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "ordre.csv", "# kind: order\nI am a student,je suis étudiant\n")
	d, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "ordre", d.Name)
	assert.Equal(t, KindOrder, d.Kind)
}

func TestParseCSVRejectsBadRows(t *testing.T) {
	_, err := parseCSV(strings.NewReader("cat\n"))
	assert.ErrorIs(t, err, ErrInvalidDeck)

	_, err = parseCSV(strings.NewReader("cat,chat,soon\n"))
	assert.ErrorIs(t, err, ErrInvalidDeck)
}

func TestLoadRejects(t *testing.T) {
	dir := t.TempDir()
	_, err := Load(writeFile(t, dir, "deck.json", "{}"))
	assert.ErrorIs(t, err, ErrUnsupportedFormat)

	_, err = Load(writeFile(t, dir, "empty.csv", "prompt,answer\n"))
	assert.ErrorIs(t, err, ErrEmptyDeck)

	_, err = Load(writeFile(t, dir, "kind.toml", "kind = \"spelling\"\n[[question]]\nprompt = \"a\"\nanswer = \"b\"\n"))
	assert.ErrorIs(t, err, ErrInvalidDeck)

	_, err = Load(writeFile(t, dir, "noanswer.toml", "[[question]]\nprompt = \"a\"\n"))
	assert.ErrorIs(t, err, ErrInvalidDeck)
}

func TestListAndResolve(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "b.csv", "x,y\n")
	writeFile(t, dir, "a.toml", "")
	writeFile(t, dir, "notes.txt", "")
	require.NoError(t, os.Mkdir(filepath.Join(dir, "sub"), 0o755))

	names, err := List(dir)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, names)

	path, err := Resolve(dir, "b")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "b.csv"), path)

	_, err = Resolve(dir, "missing")
	assert.Error(t, err)
}

func TestFileSource(t *testing.T) {
	dir := t.TempDir()
	var src Source = FileSource{Path: writeFile(t, dir, "d.csv", "cat,chat\n")}
	d, err := src.Deck(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "d", d.Name)
	require.Len(t, d.Questions, 1)
	assert.Equal(t, "cat", d.Questions[0].Prompt)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = src.Deck(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestLoadYAML(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "verbs.yaml", `
name: verbes
lang: fr
kind: fuzzy
time-limit: 15
questions:
  - prompt: to eat
    answer: manger
  - id: drink
    prompt: to drink
    answers: [boire]
    audio: boire
`)
	d, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "verbes", d.Name)
	assert.Equal(t, KindFuzzy, d.Kind)
	assert.Equal(t, 15*time.Second, d.TimeLimit)
	require.Len(t, d.Questions, 2)
	assert.Equal(t, "verbes-1", d.Questions[0].ID)
	assert.Equal(t, []string{"manger"}, d.Questions[0].Answers)
	assert.Equal(t, "drink", d.Questions[1].ID)
	assert.Equal(t, "boire", d.Questions[1].Audio)
}

func TestDecodeYAMLRejectsUnknownKeys(t *testing.T) {
	_, err := decodeYAML(strings.NewReader("kind: exact\nquestion:\n  - prompt: a\n"))
	assert.Error(t, err)
}

func TestResolveYAML(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "colors.yml", "questions:\n  - prompt: red\n    answer: rouge\n")

	names, err := List(dir)
	require.NoError(t, err)
	assert.Equal(t, []string{"colors"}, names)

	path, err := Resolve(dir, "colors")
	require.NoError(t, err)
	d, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, KindExact, d.Kind)
}
