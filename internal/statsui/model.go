// Package statsui provides the interactive stats screen.
package statsui

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/cursor"
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/verte-zerg/parlo/internal/model"
	"github.com/verte-zerg/parlo/internal/stats"
)

const (
	tabSummary = iota
	tabCurves
	tabQuestions
)

const (
	fieldDeck = iota
	fieldSince
	fieldLast
	fieldWindow
)

const dateLayout = "2006-01-02"

var windowSteps = []int{1, 3, 5, 10, 20, 50}

var (
	activeTabStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#F0F0F0")).
			Bold(true).
			Padding(0, 1).
			Border(lipgloss.RoundedBorder(), true).
			BorderForeground(lipgloss.Color("#C89A3A"))
	tabStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#B0B0B0")).
			Padding(0, 1).
			Border(lipgloss.RoundedBorder(), true).
			BorderForeground(lipgloss.Color("#4A4A4A"))
	mutedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#6E6E6E"))
	errorStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF4D4F"))
	cardStyle  = lipgloss.NewStyle().
			Padding(0, 1).
			Border(lipgloss.RoundedBorder(), true).
			BorderForeground(lipgloss.Color("#4A4A4A"))
	cardLabelStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#8C8C8C"))
	cardValueStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#F0F0F0")).Bold(true)
)

// Model implements the Bubble Tea stats screen.
type Model struct {
	loader stats.Loader
	cfg    model.StatsConfig
	report stats.Report
	errMsg string

	tabs   []string
	active int
	pages  []viewport.Model
	items  table.Model

	width  int
	height int

	editing bool
	inputs  []textinput.Model
	focus   int
	formErr string
}

// NewModel loads the history matching cfg and builds the screen.
func NewModel(loader stats.Loader, cfg model.StatsConfig) *Model {
	m := &Model{
		loader: loader,
		cfg:    cfg,
		tabs:   []string{"Summary", "Curves", "Questions"},
		pages:  []viewport.Model{viewport.New(0, 0), viewport.New(0, 0)},
		items:  table.New(table.WithColumns(itemColumns(80)), table.WithStyles(itemStyles())),
		inputs: []textinput.Model{
			newInput("Deck: "),
			newInput("Since (YYYY-MM-DD): "),
			newInput("Last sessions: "),
			newInput("Curve window: "),
		},
	}
	m.reload()
	return m
}

func newInput(prompt string) textinput.Model {
	input := textinput.New()
	input.Prompt = prompt
	input.Cursor.SetMode(cursor.CursorBlink)
	return input
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.layout()
		return m, nil
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC {
			return m, tea.Quit
		}
		if m.editing {
			return m, m.updateForm(msg)
		}
		switch msg.String() {
		case "q", "esc":
			return m, tea.Quit
		case "left", "h":
			m.switchTab(-1)
			return m, nil
		case "right", "l":
			m.switchTab(1)
			return m, nil
		case "=", "+":
			m.cfg.CurveWindow = stepWindow(m.cfg.CurveWindow, 1)
			m.reload()
			return m, nil
		case "-":
			m.cfg.CurveWindow = stepWindow(m.cfg.CurveWindow, -1)
			m.reload()
			return m, nil
		case "/":
			return m, m.openForm()
		}
		var cmd tea.Cmd
		if m.active == tabQuestions {
			m.items, cmd = m.items.Update(msg)
		} else {
			m.pages[m.active], cmd = m.pages[m.active].Update(msg)
		}
		return m, cmd
	}
	return m, nil
}

func (m *Model) switchTab(delta int) {
	m.active = (m.active + delta + len(m.tabs)) % len(m.tabs)
	if m.active == tabQuestions {
		m.items.Focus()
	} else {
		m.items.Blur()
	}
}

func (m *Model) reload() {
	report, err := stats.Load(context.Background(), m.loader, m.cfg)
	if err != nil {
		m.errMsg = err.Error()
		m.report = stats.Report{Config: m.cfg}
	} else {
		m.errMsg = ""
		m.report = report
	}
	m.items.SetRows(itemRows(m.report.Items))
	m.items.GotoTop()
	m.fill()
}

// fill renders the scrollable pages for the current width.
func (m *Model) fill() {
	width := m.width
	if width <= 0 {
		width = 80
	}
	if len(m.report.Sessions) == 0 {
		m.pages[tabSummary].SetContent("No sessions found.")
		m.pages[tabCurves].SetContent("No sessions found.")
		return
	}
	m.pages[tabSummary].SetContent(summaryCards(m.report.Fields(), width))
	title := fmt.Sprintf("Moving average over %d sessions", max(1, m.report.Config.CurveWindow))
	plot := stats.PlotLines(m.report.Curves(), stats.PlotWidthFor(width), stats.DefaultPlotHeight, true)
	m.pages[tabCurves].SetContent(strings.Join(append([]string{title, ""}, plot...), "\n"))
}

func (m *Model) layout() {
	body := m.bodyHeight()
	for i := range m.pages {
		m.pages[i].Width = m.width
		m.pages[i].Height = body
	}
	m.items.SetColumns(itemColumns(m.width))
	m.items.SetWidth(m.width)
	m.items.SetHeight(max(1, body))
	for i := range m.inputs {
		m.inputs[i].Width = max(10, m.width-lipgloss.Width(m.inputs[i].Prompt)-2)
	}
	m.fill()
}

func (m *Model) bodyHeight() int {
	header := lipgloss.Height(activeTabStyle.Render("x")) + 1
	footer := 1
	if m.errMsg != "" {
		footer++
	}
	return max(1, m.height-header-footer)
}

func (m *Model) openForm() tea.Cmd {
	m.editing = true
	m.formErr = ""
	m.inputs[fieldDeck].SetValue(m.cfg.Deck)
	m.inputs[fieldSince].SetValue("")
	if m.cfg.Since != nil {
		m.inputs[fieldSince].SetValue(m.cfg.Since.Format(dateLayout))
	}
	m.inputs[fieldLast].SetValue("")
	if m.cfg.Last > 0 {
		m.inputs[fieldLast].SetValue(strconv.Itoa(m.cfg.Last))
	}
	m.inputs[fieldWindow].SetValue(strconv.Itoa(m.cfg.CurveWindow))
	return m.focusInput(fieldDeck)
}

func (m *Model) focusInput(i int) tea.Cmd {
	m.focus = (i + len(m.inputs)) % len(m.inputs)
	var cmd tea.Cmd
	for j := range m.inputs {
		if j == m.focus {
			cmd = m.inputs[j].Focus()
		} else {
			m.inputs[j].Blur()
		}
	}
	return cmd
}

func (m *Model) updateForm(msg tea.KeyMsg) tea.Cmd {
	switch msg.Type {
	case tea.KeyEsc:
		m.editing = false
		m.formErr = ""
		return nil
	case tea.KeyTab, tea.KeyDown:
		return m.focusInput(m.focus + 1)
	case tea.KeyShiftTab, tea.KeyUp:
		return m.focusInput(m.focus - 1)
	case tea.KeyEnter:
		cfg, err := parseFilters(
			m.inputs[fieldDeck].Value(),
			m.inputs[fieldSince].Value(),
			m.inputs[fieldLast].Value(),
			m.inputs[fieldWindow].Value(),
		)
		if err != nil {
			m.formErr = err.Error()
			return nil
		}
		m.cfg = cfg
		m.editing = false
		m.formErr = ""
		m.reload()
		return nil
	}
	var cmd tea.Cmd
	m.inputs[m.focus], cmd = m.inputs[m.focus].Update(msg)
	return cmd
}

// parseFilters validates the form fields. Empty fields mean no filter; an
// empty window keeps every session in the moving average.
func parseFilters(deckName, since, last, window string) (model.StatsConfig, error) {
	cfg := model.StatsConfig{Deck: strings.TrimSpace(deckName)}
	if s := strings.TrimSpace(since); s != "" {
		t, err := time.ParseInLocation(dateLayout, s, time.Local)
		if err != nil {
			return model.StatsConfig{}, fmt.Errorf("invalid since date, expected YYYY-MM-DD")
		}
		cfg.Since = &t
	}
	if s := strings.TrimSpace(last); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 0 {
			return model.StatsConfig{}, fmt.Errorf("last must be a whole number >= 0")
		}
		cfg.Last = n
	}
	if s := strings.TrimSpace(window); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 1 {
			return model.StatsConfig{}, fmt.Errorf("curve window must be a whole number >= 1")
		}
		cfg.CurveWindow = n
	}
	return cfg, nil
}

func stepWindow(current, dir int) int {
	if dir > 0 {
		for _, w := range windowSteps {
			if w > current {
				return w
			}
		}
		return windowSteps[len(windowSteps)-1]
	}
	for i := len(windowSteps) - 1; i >= 0; i-- {
		if windowSteps[i] < current {
			return windowSteps[i]
		}
	}
	return windowSteps[0]
}

// View implements tea.Model.
func (m *Model) View() string {
	if m.width == 0 || m.height == 0 {
		return ""
	}
	body := m.bodyHeight()
	header := m.renderTabs() + "\n" + mutedStyle.Render(m.filterLine())
	var content string
	switch {
	case m.editing:
		content = m.renderForm()
	case m.active == tabQuestions && len(m.report.Items) == 0:
		content = "No answers found."
	case m.active == tabQuestions:
		content = m.items.View()
	default:
		content = m.pages[m.active].View()
	}
	footer := mutedStyle.Render(m.help())
	if m.errMsg != "" {
		footer += "\n" + errorStyle.Render(m.errMsg)
	}
	return strings.Join([]string{
		fit(header, m.width, lipgloss.Height(header)),
		fit(content, m.width, body),
		fit(footer, m.width, lipgloss.Height(footer)),
	}, "\n")
}

func (m *Model) renderTabs() string {
	parts := make([]string, len(m.tabs))
	for i, name := range m.tabs {
		style := tabStyle
		if i == m.active {
			style = activeTabStyle
		}
		parts[i] = style.Render(name)
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, parts...)
}

func (m *Model) filterLine() string {
	deckName, since, last := "any", "any", "all"
	if m.cfg.Deck != "" {
		deckName = m.cfg.Deck
	}
	if m.cfg.Since != nil {
		since = m.cfg.Since.Format(dateLayout)
	}
	if m.cfg.Last > 0 {
		last = strconv.Itoa(m.cfg.Last)
	}
	return fmt.Sprintf("deck=%s  since=%s  last=%s  window=%d  sessions=%d",
		deckName, since, last, m.cfg.CurveWindow, len(m.report.Sessions))
}

func (m *Model) help() string {
	if m.editing {
		return "tab: next field  enter: apply  esc: cancel"
	}
	return "←/→ tabs  ↑/↓ scroll  -/= window  / filters  q quit"
}

func (m *Model) renderForm() string {
	lines := []string{"Filters", ""}
	for _, input := range m.inputs {
		lines = append(lines, input.View())
	}
	if m.formErr != "" {
		lines = append(lines, "", errorStyle.Render(m.formErr))
	}
	return strings.Join(lines, "\n")
}

func summaryCards(fields []stats.Field, width int) string {
	cards := make([]string, len(fields))
	for i, f := range fields {
		cards[i] = cardStyle.Render(cardLabelStyle.Render(f.Label) + "\n" + cardValueStyle.Render(f.Value))
	}
	perRow := 1
	if width >= 60 {
		perRow = 3
	}
	rows := make([]string, 0, len(cards)/perRow+1)
	for start := 0; start < len(cards); start += perRow {
		end := min(start+perRow, len(cards))
		rows = append(rows, lipgloss.JoinHorizontal(lipgloss.Top, cards[start:end]...))
	}
	return lipgloss.JoinVertical(lipgloss.Left, rows...)
}

// itemColumns sizes the prompt column to the space left by the numeric ones;
// every cell carries one column of padding on each side.
func itemColumns(width int) []table.Column {
	numeric := []int{9, 12, 7, 5, 8}
	used := 0
	for _, w := range numeric {
		used += w + 2
	}
	cols := []table.Column{{Title: stats.ItemHeaders[0], Width: max(12, width-used-2)}}
	for i, w := range numeric {
		cols = append(cols, table.Column{Title: stats.ItemHeaders[i+1], Width: w})
	}
	return cols
}

func itemRows(items []model.ItemAggregate) []table.Row {
	cells := stats.ItemRows(items)
	rows := make([]table.Row, len(cells))
	for i, c := range cells {
		rows[i] = table.Row(c)
	}
	return rows
}

func itemStyles() table.Styles {
	styles := table.DefaultStyles()
	styles.Header = styles.Header.
		Border(lipgloss.NormalBorder(), false, false, true, false).
		BorderForeground(lipgloss.Color("#4A4A4A")).
		Foreground(lipgloss.Color("#C0C0C0")).
		Bold(true)
	styles.Selected = styles.Selected.
		Foreground(lipgloss.Color("#F0F0F0")).
		Background(lipgloss.Color("#3A3A3A"))
	return styles
}

// fit pads or clips s to exactly height lines of width columns.
func fit(s string, width, height int) string {
	clip := lipgloss.NewStyle().MaxWidth(width)
	lines := strings.Split(s, "\n")
	if len(lines) > height {
		lines = lines[:height]
	}
	for len(lines) < height {
		lines = append(lines, "")
	}
	for i, line := range lines {
		line = clip.Render(line)
		lines[i] = line + strings.Repeat(" ", max(0, width-lipgloss.Width(line)))
	}
	return strings.Join(lines, "\n")
}
