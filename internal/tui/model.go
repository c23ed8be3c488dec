// Package tui provides the Bubble Tea practice interface.
package tui

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/verte-zerg/parlo/internal/deck"
	"github.com/verte-zerg/parlo/internal/model"
	"github.com/verte-zerg/parlo/internal/session"
	"github.com/verte-zerg/parlo/internal/speech"
	statsPkg "github.com/verte-zerg/parlo/internal/stats"
	"github.com/verte-zerg/parlo/internal/timer"
)

// Recorder persists finished sessions.
type Recorder interface {
	InsertSession(ctx context.Context, res model.SessionResult) (int64, error)
}

type tickMsg struct {
	gen int
}

type spokeMsg struct {
	err error
}

type heardMsg struct {
	gen  int
	text string
	err  error
}

// Model implements the Bubble Tea practice UI.
type Model struct {
	deck     deck.Deck
	sess     *session.Session
	recorder Recorder
	speaker  speech.Speaker
	listener speech.Transcriber
	input    textinput.Model

	width  int
	height int

	tickGen   int
	listening bool
	feedback  string
	correct   bool
	done      bool
	saved     bool
	errMsg    string
}

var (
	promptStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#F0F0F0")).Bold(true)
	timerStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#C89A3A"))
	urgentStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF4D4F")).Bold(true)
	correctStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#52C41A"))
	wrongStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF4D4F"))
	footerStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#6E6E6E"))
	headerStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#8C8C8C"))
)

// urgentSeconds is when the countdown turns red.
const urgentSeconds = 5

// NewModel constructs a practice TUI model. The session must not be started.
// On speech decks a non-nil listener transcribes spoken answers; the text
// input stays available for typing.
func NewModel(d deck.Deck, sess *session.Session, recorder Recorder, speaker speech.Speaker, listener speech.Transcriber) (*Model, error) {
	if speaker == nil {
		speaker = speech.NopSpeaker{}
	}
	if err := sess.Start(); err != nil {
		return nil, fmt.Errorf("failed to start session: %w", err)
	}
	input := textinput.New()
	input.Prompt = "› "
	input.CharLimit = 256
	input.Focus()
	m := &Model{
		deck:     d,
		sess:     sess,
		recorder: recorder,
		speaker:  speaker,
		input:    input,
	}
	if d.Kind == deck.KindSpeech {
		m.listener = listener
	}
	m.resetInput()
	return m, nil
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.tickCmd())
}

func (m *Model) tickCmd() tea.Cmd {
	if m.sess.Clock() == nil {
		return nil
	}
	gen := m.tickGen
	return tea.Tick(time.Second, func(time.Time) tea.Msg {
		return tickMsg{gen: gen}
	})
}

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.input.Width = max(10, msg.Width/2)
		return m, nil
	case tickMsg:
		return m, m.handleTick(msg)
	case spokeMsg:
		if msg.err != nil {
			m.errMsg = msg.err.Error()
		}
		return m, nil
	case heardMsg:
		return m, m.handleHeard(msg)
	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			m.finish()
			return m, tea.Quit
		case tea.KeyEnter:
			return m, m.handleEnter()
		case tea.KeyCtrlR:
			return m, m.handleRetry()
		case tea.KeyTab:
			m.sess.SetPaused(!m.sess.Paused())
			return m, nil
		case tea.KeyCtrlS:
			return m, m.speakCmd()
		case tea.KeyCtrlL:
			return m, m.listenCmd()
		}
	}
	if m.done || m.sess.Answered() {
		return m, nil
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *Model) handleTick(msg tickMsg) tea.Cmd {
	if msg.gen != m.tickGen || m.done || m.sess.Answered() {
		return nil
	}
	fb, fired, err := m.sess.Tick()
	if err != nil {
		m.errMsg = err.Error()
		return nil
	}
	if fired {
		m.showFeedback(fb)
		return nil
	}
	return m.tickCmd()
}

func (m *Model) handleEnter() tea.Cmd {
	if m.done {
		return tea.Quit
	}
	if !m.sess.Answered() {
		fb, err := m.sess.Submit(m.answerParts()...)
		if err != nil {
			m.errMsg = err.Error()
			return nil
		}
		m.showFeedback(fb)
		return nil
	}
	more, err := m.sess.Next()
	if err != nil {
		m.errMsg = err.Error()
		return nil
	}
	if !more {
		m.finish()
		return nil
	}
	return m.restartQuestion()
}

func (m *Model) handleRetry() tea.Cmd {
	if m.done {
		return nil
	}
	if err := m.sess.Retry(); err != nil {
		m.errMsg = err.Error()
		return nil
	}
	return m.restartQuestion()
}

func (m *Model) restartQuestion() tea.Cmd {
	m.tickGen++
	m.listening = false
	m.feedback = ""
	m.errMsg = ""
	m.resetInput()
	return m.tickCmd()
}

func (m *Model) resetInput() {
	m.input.Reset()
	m.input.Placeholder = m.placeholder()
}

func (m *Model) placeholder() string {
	switch m.deck.Kind {
	case deck.KindBlanks:
		q, _ := m.sess.Current()
		return fmt.Sprintf("%d answers separated by ;", len(q.Blanks))
	case deck.KindOrder:
		return "words in order"
	case deck.KindSpeech:
		return "say or type the answer"
	default:
		return "answer"
	}
}

// answerParts splits the typed text into one answer per blank.
func (m *Model) answerParts() []string {
	value := m.input.Value()
	if m.deck.Kind != deck.KindBlanks {
		return []string{value}
	}
	parts := strings.Split(value, ";")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return parts
}

func (m *Model) showFeedback(fb session.Feedback) {
	m.correct = fb.Correct
	switch {
	case fb.TimedOut:
		m.feedback = fmt.Sprintf("Time's up · %s", fb.Expected)
	case fb.Correct:
		m.feedback = "Correct"
	default:
		m.feedback = fmt.Sprintf("Expected: %s", fb.Expected)
	}
	if fb.Similarity > 0 && !fb.TimedOut {
		m.feedback += fmt.Sprintf(" (%.0f%% match)", fb.Similarity*100)
	}
}

func (m *Model) speakCmd() tea.Cmd {
	q, ok := m.sess.Current()
	if !ok {
		return nil
	}
	text := q.Prompt
	if q.Audio != "" {
		text = q.Audio
	}
	speaker := m.speaker
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		return spokeMsg{err: speaker.Speak(ctx, text)}
	}
}

func (m *Model) listenCmd() tea.Cmd {
	if m.listener == nil || m.listening || m.done || m.sess.Answered() {
		return nil
	}
	m.listening = true
	m.errMsg = ""
	gen := m.tickGen
	listener := m.listener
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		text, err := listener.Transcribe(ctx)
		return heardMsg{gen: gen, text: text, err: err}
	}
}

// handleHeard submits a transcript unless the question moved on while the
// listener was running.
func (m *Model) handleHeard(msg heardMsg) tea.Cmd {
	if msg.gen != m.tickGen || m.done || m.sess.Answered() {
		return nil
	}
	m.listening = false
	if msg.err != nil {
		m.errMsg = fmt.Sprintf("listen failed, type the answer: %v", msg.err)
		return nil
	}
	text := strings.TrimSpace(msg.text)
	if text == "" {
		m.errMsg = "nothing heard, type the answer"
		return nil
	}
	m.input.SetValue(text)
	return m.handleEnter()
}

func (m *Model) finish() {
	m.sess.Close()
	if m.done {
		return
	}
	m.done = true
	m.tickGen++
	if m.saved || m.recorder == nil {
		return
	}
	res := m.sess.Result()
	if len(res.Answers) == 0 {
		return
	}
	if _, err := m.recorder.InsertSession(context.Background(), res); err != nil {
		logErrf("failed to save session: %v\n", err)
		return
	}
	m.saved = true
}

// View implements tea.Model.
func (m *Model) View() string {
	var body string
	if m.done {
		body = m.renderSummary()
	} else {
		body = m.renderQuestion()
	}
	footer := m.renderFooter()
	if m.width == 0 || m.height < 3 {
		return body + "\n" + footer
	}
	bodyHeight := m.height - 1
	content := lipgloss.Place(m.width, bodyHeight, lipgloss.Center, lipgloss.Center, body)
	footerLine := lipgloss.Place(m.width, 1, lipgloss.Center, lipgloss.Center, footer)
	return content + "\n" + footerLine
}

func (m *Model) renderQuestion() string {
	q, ok := m.sess.Current()
	if !ok {
		return ""
	}
	contentWidth := 60
	if m.width > 0 {
		contentWidth = max(1, int(float64(m.width)*0.70))
	}
	lines := []string{
		headerStyle.Render(fmt.Sprintf("%s · %d/%d", m.deck.Name, m.sess.Index()+1, m.sess.Len())),
		"",
	}
	for _, line := range wrapText(q.Prompt, contentWidth) {
		lines = append(lines, promptStyle.Render(line))
	}
	lines = append(lines, "")
	if clock := m.renderClock(); clock != "" {
		lines = append(lines, clock)
	}
	lines = append(lines, m.input.View())
	if m.listening {
		lines = append(lines, headerStyle.Render("listening…"))
	}
	if m.feedback != "" {
		style := wrongStyle
		if m.correct {
			style = correctStyle
		}
		lines = append(lines, "", style.Render(m.feedback))
	}
	if m.errMsg != "" {
		lines = append(lines, wrongStyle.Render(m.errMsg))
	}
	return strings.Join(lines, "\n")
}

func (m *Model) renderClock() string {
	clock := m.sess.Clock()
	if clock == nil {
		return ""
	}
	display := clock.Display()
	if m.sess.Paused() {
		return timerStyle.Render(display + " (paused)")
	}
	if clock.Mode() == timer.Countdown && clock.Seconds() <= urgentSeconds {
		return urgentStyle.Render(display)
	}
	return timerStyle.Render(display)
}

func (m *Model) renderSummary() string {
	correct, total := m.sess.Score()
	acc, _ := statsPkg.SessionMetrics(correct, total-correct, 0)
	lines := []string{
		promptStyle.Render("Session complete"),
		"",
		fmt.Sprintf("Score %d/%d · %.1f%%", correct, total, acc*100),
	}
	if m.errMsg != "" {
		lines = append(lines, wrongStyle.Render(m.errMsg))
	}
	lines = append(lines, "", headerStyle.Render("enter to quit"))
	return strings.Join(lines, "\n")
}

func (m *Model) renderFooter() string {
	correct, total := m.sess.Score()
	progress := 0
	if m.sess.Len() > 0 {
		progress = int(float64(total) / float64(m.sess.Len()) * 100)
	}
	keys := "enter submit · tab pause · ctrl+r retry · ctrl+s speak · esc quit"
	if m.listener != nil {
		keys = "enter submit · tab pause · ctrl+r retry · ctrl+s speak · ctrl+l listen · esc quit"
	}
	segments := []string{
		fmt.Sprintf("Progress %d%%", progress),
		fmt.Sprintf("Score %d/%d", correct, total),
		keys,
	}
	return footerStyle.Render(strings.Join(segments, "  "))
}

func logErrf(format string, args ...any) {
	if _, err := fmt.Fprintf(os.Stderr, format, args...); err != nil {
		// Best-effort logging to stderr.
		_ = err
	}
}
