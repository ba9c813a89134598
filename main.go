//go:build !gui

package main

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/filepicker"
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/metcalfc/rsvp/internal/playback"
	"github.com/metcalfc/rsvp/internal/reader"
	"github.com/metcalfc/rsvp/internal/state"
)

var (
	erpStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FF0000"))

	wordBeforeStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFFFFF"))

	wordAfterStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFFFFF"))

	statusStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#888888")).
			Padding(0, 1)

	controlsStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#666666")).
			Italic(true)

	pausedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFAA00")).
			Bold(true)

	completeStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#00FF00")).
			Bold(true)

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF5555")).
			Bold(true).
			Padding(0, 1)

	contextStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#AAAAAA")).
			Padding(0, 2)
)

// contextRadius is how many words on each side the context panel shows.
const contextRadius = 12

type tickMsg struct{ gen int }

type bookLoadedMsg struct{ book *reader.Book }

type loadErrMsg struct {
	path string
	err  error
}

// teaScheduler turns playback ticks into bubbletea tick commands. Start and
// Stop bump the generation so ticks already in flight are ignored.
type teaScheduler struct {
	gen      int
	interval time.Duration
	tick     func()
	running  bool
	armed    bool
}

func (s *teaScheduler) Start(interval time.Duration, tick func()) {
	s.gen++
	s.interval = interval
	s.tick = tick
	s.running = true
	s.armed = true
}

func (s *teaScheduler) Stop() {
	s.gen++
	s.running = false
	s.armed = false
}

// next returns the first tick command of a schedule started since the last call.
func (s *teaScheduler) next() tea.Cmd {
	if !s.armed {
		return nil
	}
	s.armed = false
	return s.cmd()
}

func (s *teaScheduler) cmd() tea.Cmd {
	gen := s.gen
	return tea.Tick(s.interval, func(time.Time) tea.Msg {
		return tickMsg{gen: gen}
	})
}

// fire runs the tick callback and schedules the following tick.
func (s *teaScheduler) fire(msg tickMsg) tea.Cmd {
	if !s.running || msg.gen != s.gen {
		return nil
	}
	s.tick()
	if !s.running || msg.gen != s.gen {
		return nil
	}
	return s.cmd()
}

type keyMap struct {
	Toggle  key.Binding
	Faster  key.Binding
	Slower  key.Binding
	Prev    key.Binding
	Next    key.Binding
	Restart key.Binding
	Open    key.Binding
	Context key.Binding
	Quit    key.Binding
	Cancel  key.Binding
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Toggle, k.Faster, k.Slower, k.Prev, k.Next, k.Open, k.Context, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{k.ShortHelp(), {k.Restart, k.Cancel}}
}

var keys = keyMap{
	Toggle:  key.NewBinding(key.WithKeys(" "), key.WithHelp("space", "pause/play")),
	Faster:  key.NewBinding(key.WithKeys("up", "+", "="), key.WithHelp("↑/+", "faster")),
	Slower:  key.NewBinding(key.WithKeys("down", "-"), key.WithHelp("↓/-", "slower")),
	Prev:    key.NewBinding(key.WithKeys("left"), key.WithHelp("←", "prev sentence")),
	Next:    key.NewBinding(key.WithKeys("right"), key.WithHelp("→", "next sentence")),
	Restart: key.NewBinding(key.WithKeys("r", "R"), key.WithHelp("r", "restart")),
	Open:    key.NewBinding(key.WithKeys("o", "O"), key.WithHelp("o", "open")),
	Context: key.NewBinding(key.WithKeys("c", "C"), key.WithHelp("c", "context")),
	Quit:    key.NewBinding(key.WithKeys("q", "Q", "ctrl+c"), key.WithHelp("q", "quit")),
	Cancel:  key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "cancel")),
}

type model struct {
	*session
	sched *teaScheduler

	picker      filepicker.Model
	picking     bool
	showContext bool
	progress    progress.Model
	help        help.Model

	// loading is the path being extracted, if any.
	loading   string
	err       error
	lastArrow time.Time
	quitting  bool
	width     int
	height    int
}

func newModel(s *session, sched *teaScheduler) model {
	return model{
		session:  s,
		sched:    sched,
		picker:   newPicker(),
		progress: progress.New(progress.WithDefaultGradient(), progress.WithWidth(40), progress.WithoutPercentage()),
		help:     help.New(),
		width:    80,
		height:   24,
	}
}

func newPicker() filepicker.Model {
	fp := filepicker.New()
	fp.AllowedTypes = reader.SupportedExtensions()
	if dir, err := os.Getwd(); err == nil {
		fp.CurrentDirectory = dir
	}
	return fp
}

func loadBook(ex *reader.Extractor, path string) tea.Cmd {
	return func() tea.Msg {
		book, err := ex.Extract(path)
		if err != nil {
			return loadErrMsg{path: path, err: err}
		}
		return bookLoadedMsg{book: book}
	}
}

func (m model) Init() tea.Cmd {
	if m.loading != "" {
		return loadBook(m.extractor, m.loading)
	}
	if m.picking {
		return m.picker.Init()
	}
	return nil
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	next, cmd := m.update(msg)
	return next, tea.Batch(cmd, m.sched.next())
}

func (m model) update(msg tea.Msg) (model, tea.Cmd) {
	switch msg := msg.(type) {
	case tickMsg:
		return m, m.sched.fire(msg)

	case bookLoadedMsg:
		m.loading = ""
		m.err = nil
		m.apply(msg.book)
		return m, nil

	case loadErrMsg:
		m.loading = ""
		m.err = msg.err
		m.log.Warn("open failed", "file", msg.path, "error", msg.err)
		return m, nil

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.progress.Width = max(10, min(60, msg.Width-4))
		m.help.Width = msg.Width
		var cmd tea.Cmd
		m.picker, cmd = m.picker.Update(msg)
		return m, cmd
	}

	if m.picking {
		return m.updatePicker(msg)
	}
	if msg, ok := msg.(tea.KeyMsg); ok {
		return m.handleKey(msg)
	}
	return m, nil
}

func (m model) updatePicker(msg tea.Msg) (model, tea.Cmd) {
	if k, ok := msg.(tea.KeyMsg); ok {
		switch {
		case key.Matches(k, keys.Cancel):
			m.picking = false
			return m, nil
		case k.String() == "ctrl+c":
			return m.quit()
		}
	}

	var cmd tea.Cmd
	m.picker, cmd = m.picker.Update(msg)

	if ok, path := m.picker.DidSelectFile(msg); ok {
		m.picking = false
		m.loading = path
		m.err = nil
		return m, tea.Batch(cmd, loadBook(m.extractor, path))
	}
	if ok, path := m.picker.DidSelectDisabledFile(msg); ok {
		m.err = fmt.Errorf("%w: %s", reader.ErrUnsupportedFormat, filepath.Base(path))
	}
	return m, cmd
}

func (m model) handleKey(msg tea.KeyMsg) (model, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Quit):
		return m.quit()

	case key.Matches(msg, keys.Open):
		m.ctrl.Pause()
		m.picking = true
		m.picker = newPicker()
		return m, m.picker.Init()

	case key.Matches(msg, keys.Toggle):
		m.ctrl.Toggle()

	case key.Matches(msg, keys.Faster):
		m.setSpeed(m.ctrl.WPM() + playback.WPMStep)

	case key.Matches(msg, keys.Slower):
		m.setSpeed(m.ctrl.WPM() - playback.WPMStep)

	case key.Matches(msg, keys.Prev):
		m.pauseUnlessRepeat()
		m.ctrl.PrevSentence()

	case key.Matches(msg, keys.Next):
		m.pauseUnlessRepeat()
		m.ctrl.NextSentence()

	case key.Matches(msg, keys.Restart):
		m.resetPosition()

	case key.Matches(msg, keys.Context):
		m.showContext = !m.showContext
	}
	return m, nil
}

// pauseUnlessRepeat pauses on the first of a run of arrow presses so the
// reader can skim sentences while paused.
func (m *model) pauseUnlessRepeat() {
	now := time.Now()
	if now.Sub(m.lastArrow) > 500*time.Millisecond {
		m.ctrl.Pause()
	}
	m.lastArrow = now
}

func (m model) quit() (model, tea.Cmd) {
	m.quitting = true
	m.close()
	return m, tea.Quit
}

func (m model) View() string {
	if m.quitting {
		if st := m.ctrl.Status(); st.Total > 0 && st.AtEnd() {
			return completeStyle.Render("\n  Reading complete!\n")
		}
		return ""
	}

	if m.picking {
		var sb strings.Builder
		sb.WriteString(statusStyle.Render("Open a book: " + m.picker.CurrentDirectory))
		sb.WriteString("\n\n")
		sb.WriteString(m.picker.View())
		sb.WriteString("\n")
		if m.err != nil {
			sb.WriteString(errorStyle.Render(reader.UserMessage(m.err)))
			sb.WriteString("\n")
		}
		sb.WriteString(controlsStyle.Render("enter: open  esc: cancel  ctrl+c: quit"))
		return sb.String()
	}

	var footer []string
	if m.book != nil {
		st := m.ctrl.Status()
		percent := 0.0
		if st.Total > 0 {
			percent = float64(st.Index+1) / float64(st.Total)
		}
		footer = append(footer, " "+m.progress.ViewAs(percent))
	}
	if m.showContext && m.book != nil {
		footer = append(footer, m.contextView())
	}
	if m.err != nil {
		footer = append(footer, errorStyle.Render(reader.UserMessage(m.err)))
	}
	footer = append(footer, controlsStyle.Render(m.help.View(keys)))
	bottom := strings.Join(footer, "\n")

	// Reserve 1 line for status at top plus the footer
	avail := m.height - 1 - lipgloss.Height(bottom)
	if avail < 1 {
		avail = 1
	}
	vPad := avail / 2

	var sb strings.Builder
	sb.WriteString(m.statusLine())
	sb.WriteString("\n")

	for i := 0; i < vPad; i++ {
		sb.WriteString("\n")
	}

	switch {
	case m.book != nil:
		word := m.ctrl.CurrentWord()
		sb.WriteString(anchorORPText(formatWord(word), word, m.width))
	case m.loading != "":
		sb.WriteString(centerText("Loading "+filepath.Base(m.loading)+"...", m.width))
	default:
		sb.WriteString(centerText("Press o to open an EPUB book.", m.width))
	}

	remaining := avail - vPad
	for i := 0; i < remaining; i++ {
		sb.WriteString("\n")
	}

	sb.WriteString(bottom)
	return sb.String()
}

func (m model) statusLine() string {
	if m.book == nil {
		return statusStyle.Render(fmt.Sprintf("%d WPM", m.ctrl.WPM()))
	}

	st := m.ctrl.Status()
	tag := ""
	switch {
	case st.State == playback.Paused:
		tag = pausedStyle.Render(" [PAUSED]")
	case st.State == playback.Stopped && st.AtEnd():
		tag = completeStyle.Render(" [DONE]")
	case st.State == playback.Stopped:
		tag = pausedStyle.Render(" [STOPPED]")
	}

	title := m.book.Title
	if ch, ok := m.book.ChapterAt(st.Index); ok && ch.Title != title {
		title += " · " + ch.Title
	}

	return statusStyle.Render(fmt.Sprintf("%s | Word %d/%d | %d WPM", title, st.Index+1, st.Total, st.WPM)) + tag
}

func (m model) contextView() string {
	before, current, after := reader.Context(m.ctrl.Words(), m.ctrl.Index(), contextRadius)
	text := strings.TrimSpace(strings.Join(before, " ") + " " + erpStyle.Render(current) + " " + strings.Join(after, " "))
	return contextStyle.Width(max(20, m.width-4)).Render(text)
}

func formatWord(word string) string {
	before, focus, after := reader.SplitORP(word)
	return wordBeforeStyle.Render(before) +
		erpStyle.Render(focus) +
		wordAfterStyle.Render(after)
}

func anchorORPText(text string, word string, width int) string {
	anchor := width / 2
	orp := reader.GetORPPosition(word)
	pad := anchor - orp
	if pad < 0 {
		pad = 0
	}
	return strings.Repeat(" ", pad) + text
}

func centerText(text string, width int) string {
	pad := (width - lipgloss.Width(text)) / 2
	if pad < 0 {
		pad = 0
	}
	return strings.Repeat(" ", pad) + text
}

func main() {
	os.Exit(run())
}

func run() int {
	settings, settingsErr := state.LoadSettings()

	opts, err := parseFlags("rsvp", "rsvp - Terminal EPUB Speed Reader", os.Args[1:], settings, os.Stderr)
	if errors.Is(err, flag.ErrHelp) {
		return 0
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 2
	}

	if opts.showVersion {
		fmt.Println(versionString("rsvp"))
		return 0
	}

	log, closeLog, err := newLogger(opts.logPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	defer closeLog()
	if settingsErr != nil {
		log.Warn("settings ignored", "path", state.SettingsPath(), "error", settingsErr)
	}

	sched := &teaScheduler{}
	ctrl := playback.NewController(sched, opts.wpm, log)
	m := newModel(newSession(ctrl, settings, opts.fresh, log), sched)
	if opts.file != "" {
		m.loading = opts.file
	} else {
		m.picking = true
	}

	p := tea.NewProgram(m, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}
