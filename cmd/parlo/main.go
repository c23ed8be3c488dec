// Package main provides the CLI entrypoint for parlo.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/verte-zerg/parlo/internal/config"
	"github.com/verte-zerg/parlo/internal/deck"
	"github.com/verte-zerg/parlo/internal/generator"
	"github.com/verte-zerg/parlo/internal/matcher"
	"github.com/verte-zerg/parlo/internal/model"
	"github.com/verte-zerg/parlo/internal/session"
	"github.com/verte-zerg/parlo/internal/speech"
	"github.com/verte-zerg/parlo/internal/stats"
	"github.com/verte-zerg/parlo/internal/statsui"
	"github.com/verte-zerg/parlo/internal/store"
	"github.com/verte-zerg/parlo/internal/tui"
)

const (
	defaultDeck        = "default"
	defaultTimeLimit   = 0
	defaultWeakTop     = 5
	defaultWeakFactor  = 3.0
	defaultWeakWindow  = 10
	defaultCurveWindow = 10
	defaultCount       = 0
)

var (
	practiceDeck       string
	practiceTime       int
	practiceStopwatch  bool
	practiceThreshold  float64
	practiceShuffle    bool
	practiceCount      int
	practiceFocusWeak  bool
	practiceWeakTop    int
	practiceWeakWindow int
	practiceSpeakCmd   string
	practiceListenCmd  string

	checkMode      string
	checkThreshold float64

	statsDeck        string
	statsSince       string
	statsLast        int
	statsCurveWindow int
	statsPlain       bool
)

func main() {
	rootCmd := newRootCmd()
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "parlo",
		Short:         "TUI language practice trainer",
		SilenceUsage:  true,
		SilenceErrors: false,
		RunE:          runPracticeCmd,
	}

	rootCmd.Flags().StringVar(&practiceDeck, "deck", defaultDeck, "deck name or path to a .toml/.csv/.yaml deck")
	rootCmd.Flags().IntVar(&practiceTime, "time", defaultTimeLimit, "seconds per question (0: untimed)")
	rootCmd.Flags().BoolVar(&practiceStopwatch, "stopwatch", false, "show a stopwatch on untimed questions")
	rootCmd.Flags().Float64Var(&practiceThreshold, "threshold", 0, "fuzzy match threshold in (0,1] (0: deck default)")
	rootCmd.Flags().BoolVar(&practiceShuffle, "shuffle", false, "shuffle questions")
	rootCmd.Flags().IntVar(&practiceCount, "count", defaultCount, "questions per session (0: all)")
	rootCmd.Flags().BoolVar(&practiceFocusWeak, "focus-weak", false, "put frequently missed questions first")
	rootCmd.Flags().IntVar(&practiceWeakTop, "weak-top", defaultWeakTop, "number of weak questions to focus on")
	rootCmd.Flags().IntVar(&practiceWeakWindow, "weak-window", defaultWeakWindow, "number of recent sessions to compute weak questions")
	rootCmd.Flags().StringVar(&practiceSpeakCmd, "speak-cmd", "", "text-to-speech command (default: first of say, espeak-ng, espeak, spd-say)")
	rootCmd.Flags().StringVar(&practiceListenCmd, "listen-cmd", "", "speech-to-text command for speech decks; prints the transcript on stdout")

	rootCmd.AddCommand(newConfigCmd())
	rootCmd.AddCommand(newDecksCmd())
	rootCmd.AddCommand(newCheckCmd())
	rootCmd.AddCommand(newStatsCmd())

	return rootCmd
}

func runPracticeCmd(cmd *cobra.Command, _ []string) error {
	fileCfg, err := config.LoadConfig(config.DefaultConfigPath())
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	applyConfig(cmd, "deck", &practiceDeck, fileCfg.Practice.Deck)
	applyConfig(cmd, "time", &practiceTime, fileCfg.Practice.TimeLimit)
	applyConfig(cmd, "stopwatch", &practiceStopwatch, fileCfg.Practice.Stopwatch)
	applyConfig(cmd, "threshold", &practiceThreshold, fileCfg.Practice.Threshold)
	applyConfig(cmd, "shuffle", &practiceShuffle, fileCfg.Practice.Shuffle)
	applyConfig(cmd, "count", &practiceCount, fileCfg.Practice.Count)
	applyConfig(cmd, "focus-weak", &practiceFocusWeak, fileCfg.Practice.FocusWeak)
	applyConfig(cmd, "weak-top", &practiceWeakTop, fileCfg.Practice.WeakTop)
	applyConfig(cmd, "weak-window", &practiceWeakWindow, fileCfg.Practice.WeakWindow)
	applyConfig(cmd, "speak-cmd", &practiceSpeakCmd, fileCfg.Practice.SpeakCmd)
	applyConfig(cmd, "listen-cmd", &practiceListenCmd, fileCfg.Practice.ListenCmd)

	cfg := model.Config{
		Deck:       practiceDeck,
		TimeLimit:  practiceTime,
		Stopwatch:  practiceStopwatch,
		Threshold:  practiceThreshold,
		Shuffle:    practiceShuffle,
		Count:      practiceCount,
		FocusWeak:  practiceFocusWeak,
		WeakTop:    practiceWeakTop,
		WeakWindow: practiceWeakWindow,
		SpeakCmd:   practiceSpeakCmd,
		ListenCmd:  practiceListenCmd,
	}
	if err := validateConfig(cfg); err != nil {
		return err
	}

	deckDir := config.DefaultDeckDir()
	cfg.DeckPath, err = deck.Resolve(deckDir, cfg.Deck)
	if err != nil {
		return deckLoadError(cfg.Deck, deckDir, err)
	}
	st, err := store.Open(config.DefaultDBPath())
	if err != nil {
		return fmt.Errorf("failed to open db: %w", err)
	}
	defer func() {
		if cerr := st.Close(); cerr != nil {
			logErrf("failed to close db: %v\n", cerr)
		}
	}()

	weak := func(deckName string) map[string]struct{} {
		return loadWeakSet(st, cfg, deckName)
	}
	d, sess, err := planPractice(cmd.Context(), deck.FileSource{Path: cfg.DeckPath}, cfg, weak, generator.New())
	if err != nil {
		return err
	}

	var speaker speech.Speaker = speech.NopSpeaker{}
	if s, err := speech.NewCommandSpeaker(cfg.SpeakCmd); err == nil {
		speaker = s
	} else if cfg.SpeakCmd != "" || d.Kind == deck.KindSpeech {
		logErrf("speech unavailable, continuing without audio: %v\n", err)
	}

	var listener speech.Transcriber
	if d.Kind == deck.KindSpeech {
		if t, err := speech.NewCommandTranscriber(cfg.ListenCmd); err == nil {
			listener = t
		} else if cfg.ListenCmd != "" {
			logErrf("speech recognition unavailable, type the answers: %v\n", err)
		}
	}

	m, err := tui.NewModel(d, sess, st, speaker, listener)
	if err != nil {
		return err
	}
	program := tea.NewProgram(m, tea.WithAltScreen())
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("failed to run TUI: %w", err)
	}
	return nil
}

// planPractice loads the deck from src and builds the session for cfg. With
// focus-weak and a non-empty weak set the questions are drawn weighted toward
// weak ones; otherwise the session shuffles and trims them itself.
func planPractice(ctx context.Context, src deck.Source, cfg model.Config, weakSet func(deckName string) map[string]struct{}, gen *generator.Generator) (deck.Deck, *session.Session, error) {
	d, err := src.Deck(ctx)
	if err != nil {
		return deck.Deck{}, nil, fmt.Errorf("failed to load deck: %w", err)
	}
	threshold := d.Threshold
	if cfg.Threshold > 0 {
		threshold = cfg.Threshold
	}
	grader, err := session.GraderFor(d.Kind, threshold)
	if err != nil {
		return deck.Deck{}, nil, err
	}
	if fg, ok := grader.(session.FuzzyGrader); ok {
		threshold = fg.Threshold
	}

	questions := d.Questions
	opts := []session.Option{
		session.WithDeck(d.Name, d.Kind, threshold),
		session.WithTimeLimit(d.TimeLimit),
	}
	var weak map[string]struct{}
	if cfg.FocusWeak && weakSet != nil {
		weak = weakSet(d.Name)
	}
	if len(weak) > 0 {
		questions = gen.PickWeighted(questions, cfg.Count, weak, defaultWeakFactor)
	} else {
		opts = append(opts, session.WithCount(cfg.Count))
		if cfg.Shuffle {
			opts = append(opts, session.WithShuffle(gen.Rand()))
		}
	}
	if cfg.TimeLimit > 0 {
		opts = append(opts, session.WithTimeLimit(time.Duration(cfg.TimeLimit)*time.Second))
	}
	if cfg.Stopwatch {
		opts = append(opts, session.WithStopwatch())
	}
	sess, err := session.New(questions, grader, opts...)
	if err != nil {
		return deck.Deck{}, nil, fmt.Errorf("failed to create session: %w", err)
	}
	return d, sess, nil
}

func loadWeakSet(st *store.Store, cfg model.Config, deckName string) map[string]struct{} {
	if cfg.WeakTop == 0 {
		return nil
	}
	items, err := st.GetWeakItems(context.Background(), cfg.WeakWindow, deckName)
	if err != nil {
		logErrf("failed to load weak questions: %v\n", err)
		return nil
	}
	weak := stats.SelectWeakItems(items, cfg.WeakTop)
	if len(weak) == 0 {
		logErrln("no missed questions recorded yet; using normal order")
	}
	return weak
}

func newConfigCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Create/open config file",
		Args:  cobra.NoArgs,
		RunE:  runConfigCmd,
	}
}

func runConfigCmd(_ *cobra.Command, _ []string) error {
	path := config.DefaultConfigPath()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if err := config.WriteDefault(path, defaultConfigTemplate()); err != nil {
		return err
	}

	editor := strings.TrimSpace(os.Getenv("EDITOR"))
	if editor == "" {
		editor = "vi"
	}
	parts := strings.Fields(editor)
	cmd := exec.Command(parts[0], append(parts[1:], path)...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("failed to open editor: %w", err)
	}
	return nil
}

func newDecksCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "decks",
		Short: "List available decks",
		Args:  cobra.NoArgs,
		RunE:  runDecksCmd,
	}
}

func runDecksCmd(cmd *cobra.Command, _ []string) error {
	dir := config.DefaultDeckDir()
	names, err := deck.List(dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			logErrf("No decks found. Put .toml or .csv decks in %s\n", dir)
			return fmt.Errorf("deck directory does not exist")
		}
		return fmt.Errorf("failed to read deck directory: %w", err)
	}
	if len(names) == 0 {
		logErrf("No decks found. Put .toml or .csv decks in %s\n", dir)
		return fmt.Errorf("no decks found")
	}
	for _, name := range names {
		if _, err := fmt.Fprintln(cmd.OutOrStdout(), name); err != nil {
			return fmt.Errorf("failed to write output: %w", err)
		}
	}
	return nil
}

func newCheckCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "check <answer> <expected> [variant...]",
		Short: "Grade one answer against expected text",
		Args:  cobra.MinimumNArgs(2),
		RunE:  runCheckCmd,
	}
	cmd.Flags().StringVar(&checkMode, "mode", string(matcher.ModeFuzzy), "exact, contains, fuzzy or order")
	cmd.Flags().Float64Var(&checkThreshold, "threshold", matcher.DefaultThreshold, "fuzzy match threshold in (0,1]")
	return cmd
}

func runCheckCmd(cmd *cobra.Command, args []string) error {
	verdict, err := checkAnswer(checkMode, checkThreshold, args[0], args[1:])
	if err != nil {
		return err
	}
	if _, err := fmt.Fprintln(cmd.OutOrStdout(), verdict); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func checkAnswer(mode string, threshold float64, answer string, expected []string) (string, error) {
	if strings.EqualFold(strings.TrimSpace(mode), "order") {
		for _, e := range expected {
			if matcher.SequenceMatch(answer, e) {
				return "match", nil
			}
		}
		return "no match", nil
	}
	m, err := matcher.ParseMode(mode)
	if err != nil {
		return "", err
	}
	res, err := matcher.Match(matcher.Request{User: answer, Expected: expected, Mode: m, Threshold: threshold})
	if err != nil {
		return "", err
	}
	verdict := "no match"
	if res.Match {
		verdict = "match"
	}
	if m == matcher.ModeFuzzy {
		verdict += fmt.Sprintf(" (similarity %.2f)", res.Similarity)
	}
	return verdict, nil
}

func newStatsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show stats (interactive on a terminal, plain text otherwise)",
		RunE:  runStatsCmd,
	}
	cmd.Flags().StringVar(&statsDeck, "deck", "", "deck filter")
	cmd.Flags().StringVar(&statsSince, "since", "", "start date (YYYY-MM-DD)")
	cmd.Flags().IntVar(&statsLast, "last", 0, "limit to last N sessions")
	cmd.Flags().IntVar(&statsCurveWindow, "curve-window", defaultCurveWindow, "moving average window")
	cmd.Flags().BoolVar(&statsPlain, "plain", false, "print the report instead of opening the interactive screen")
	return cmd
}

func runStatsCmd(cmd *cobra.Command, _ []string) error {
	fileCfg, err := config.LoadConfig(config.DefaultConfigPath())
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	applyConfig(cmd, "curve-window", &statsCurveWindow, fileCfg.Stats.CurveWindow)

	var sinceTime *time.Time
	if statsSince != "" {
		parsed, err := time.ParseInLocation("2006-01-02", statsSince, time.Local)
		if err != nil {
			return fmt.Errorf("invalid --since value: %w", err)
		}
		sinceTime = &parsed
	}
	cfg := model.StatsConfig{
		Deck:        statsDeck,
		Since:       sinceTime,
		Last:        statsLast,
		CurveWindow: statsCurveWindow,
	}

	st, err := store.Open(config.DefaultDBPath())
	if err != nil {
		return fmt.Errorf("failed to open db: %w", err)
	}
	defer func() {
		if cerr := st.Close(); cerr != nil {
			logErrf("failed to close db: %v\n", cerr)
		}
	}()

	fd := int(os.Stdout.Fd())
	tty := term.IsTerminal(fd)
	if tty && !statsPlain && term.IsTerminal(int(os.Stdin.Fd())) {
		program := tea.NewProgram(statsui.NewModel(st, cfg), tea.WithAltScreen())
		if _, err := program.Run(); err != nil {
			return fmt.Errorf("failed to run stats TUI: %w", err)
		}
		return nil
	}

	report, err := stats.Load(cmd.Context(), st, cfg)
	if err != nil {
		return fmt.Errorf("failed to build report: %w", err)
	}
	width := 80
	if tty {
		if w, _, err := term.GetSize(fd); err == nil && w > 0 {
			width = w
		}
	}
	return stats.WriteReport(cmd.OutOrStdout(), report, width, tty)
}

func applyConfig[T any](cmd *cobra.Command, name string, target, value *T) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func defaultConfigTemplate() string {
	return fmt.Sprintf(`# parlo configuration
# Uncomment a value to enable it. CLI flags override config values.

[practice]
# deck = %q          # Deck name in the deck directory, or a path
# time = %d                 # Seconds per question (0: untimed)
# stopwatch = false        # Show a stopwatch on untimed questions
# threshold = %.2f         # Fuzzy match threshold (0: deck default)
# shuffle = false          # Shuffle questions
# count = %d                # Questions per session (0: all)
# focus-weak = false       # Put frequently missed questions first
# weak-top = %d             # Number of weak questions to focus on
# weak-window = %d         # Number of recent sessions to compute weak questions
# speak-cmd = "espeak -v fr" # Text-to-speech command
# listen-cmd = "whisper-cli --lang fr" # Speech-to-text command for speech decks

[stats]
# curve-window = %d        # Moving average window
`,
		defaultDeck,
		defaultTimeLimit,
		matcher.DefaultThreshold,
		defaultCount,
		defaultWeakTop,
		defaultWeakWindow,
		defaultCurveWindow,
	)
}

func validateConfig(cfg model.Config) error {
	if strings.TrimSpace(cfg.Deck) == "" {
		return fmt.Errorf("--deck must not be empty")
	}
	if cfg.TimeLimit < 0 {
		return fmt.Errorf("--time must be >= 0")
	}
	if cfg.Threshold != 0 {
		if err := matcher.ValidateThreshold(cfg.Threshold); err != nil {
			return fmt.Errorf("--threshold: %w", err)
		}
	}
	if cfg.WeakTop < 0 {
		return fmt.Errorf("--weak-top must be >= 0")
	}
	if cfg.WeakWindow < 0 {
		return fmt.Errorf("--weak-window must be >= 0")
	}
	if cfg.Count < 0 {
		return fmt.Errorf("--count must be >= 0")
	}
	return nil
}

func deckLoadError(name, dir string, err error) error {
	lines := []string{
		fmt.Sprintf("failed to load deck: %v", err),
		fmt.Sprintf("expected deck %q in: %s", name, dir),
		"Run: parlo decks",
	}
	return fmt.Errorf("%s", strings.Join(lines, "\n"))
}

func logErrf(format string, args ...any) {
	if _, err := fmt.Fprintf(os.Stderr, format, args...); err != nil {
		// Best-effort logging to stderr.
		_ = err
	}
}

func logErrln(args ...any) {
	if _, err := fmt.Fprintln(os.Stderr, args...); err != nil {
		// Best-effort logging to stderr.
		_ = err
	}
}
