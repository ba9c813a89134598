package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/metcalfc/rsvp/internal/playback"
	"github.com/metcalfc/rsvp/internal/reader"
	"github.com/metcalfc/rsvp/internal/state"
)

// Version info (injected via ldflags)
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

type options struct {
	wpm         int
	fresh       bool
	showTOC     bool
	logPath     string
	showVersion bool
	file        string
}

// parseFlags parses args for the named front end. Saved settings provide the
// defaults that flags override.
func parseFlags(name, title string, args []string, settings state.Settings, stderr io.Writer) (options, error) {
	var opts options
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.IntVar(&opts.wpm, "w", settings.WPM, "Words per minute")
	fs.BoolVar(&opts.fresh, "fresh", false, "Ignore saved reading position")
	fs.BoolVar(&opts.showTOC, "toc", false, "Show table of contents at startup (GUI)")
	fs.StringVar(&opts.logPath, "log", "", "Write debug log to `file`")
	fs.BoolVar(&opts.showVersion, "v", false, "Show version information")
	fs.BoolVar(&opts.showVersion, "version", false, "Show version information")
	fs.Usage = func() {
		fmt.Fprintf(stderr, "%s\n\n", title)
		fmt.Fprintf(stderr, "Usage:\n")
		fmt.Fprintf(stderr, "  %s [options] [file]\n\n", name)
		fmt.Fprintf(stderr, "Options:\n")
		fs.PrintDefaults()
		fmt.Fprintf(stderr, "\nSupported formats: %s\n", strings.Join(reader.SupportedFormats(), ", "))
		fmt.Fprintf(stderr, "\nExamples:\n")
		fmt.Fprintf(stderr, "  %s book.epub              Read at the saved speed\n", name)
		fmt.Fprintf(stderr, "  %s -w 500 book.epub       Read at 500 WPM\n", name)
		fmt.Fprintf(stderr, "  %s                        Choose a book to open\n", name)
	}

	if err := fs.Parse(args); err != nil {
		return opts, err
	}
	if fs.NArg() > 1 {
		fs.Usage()
		return opts, errors.New("too many arguments")
	}
	opts.file = fs.Arg(0)
	opts.wpm = playback.ClampWPM(opts.wpm)
	return opts, nil
}

func versionString(name string) string {
	return fmt.Sprintf("%s %s (commit: %s, built: %s)", name, version, commit, date)
}

// newLogger writes text logs to path, or discards them when path is empty.
func newLogger(path string) (*slog.Logger, func(), error) {
	if path == "" {
		return slog.New(slog.NewTextHandler(io.Discard, nil)), func() {}, nil
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, nil, err
	}
	log := slog.New(slog.NewTextHandler(f, &slog.HandlerOptions{Level: slog.LevelDebug}))
	return log, func() { f.Close() }, nil
}

// session ties the loaded book to the controller and the persisted state.
// Both front ends drive it from their UI goroutine.
type session struct {
	ctrl      *playback.Controller
	extractor *reader.Extractor
	store     *state.Store
	settings  state.Settings
	log       *slog.Logger

	// fresh skips restoring the position of the next book applied.
	fresh bool
	book  *reader.Book
	hash  string
}

func newSession(ctrl *playback.Controller, settings state.Settings, fresh bool, log *slog.Logger) *session {
	s := &session{
		ctrl:      ctrl,
		extractor: reader.NewExtractor(log),
		settings:  settings,
		log:       log,
		fresh:     fresh,
	}
	store, err := state.NewStore()
	if err != nil {
		log.Warn("reading positions disabled", "error", err)
	} else {
		s.store = store
	}
	return s
}

// apply makes book the active one. The previous book's position is saved
// first and the new book resumes where it was left.
func (s *session) apply(book *reader.Book) {
	s.savePosition()

	s.book = book
	s.hash = ""
	s.ctrl.Load(book.Words)

	fresh := s.fresh
	s.fresh = false

	if s.store == nil {
		return
	}
	hash, err := state.ComputeHash(book.Path)
	if err != nil {
		s.log.Warn("hash failed", "file", book.Path, "error", err)
		return
	}
	s.hash = hash
	if fresh {
		return
	}
	if pos := s.store.GetPosition(hash); pos > 0 && pos < len(book.Words) {
		s.ctrl.Seek(pos)
		s.log.Info("resumed", "file", book.Path, "word", pos)
	}
}

func (s *session) savePosition() {
	if s.store == nil || s.hash == "" || s.book == nil {
		return
	}
	if err := s.store.SetPosition(s.hash, s.book.Title, s.ctrl.Index()); err != nil {
		s.log.Warn("save position failed", "error", err)
	}
}

// resetPosition rewinds the active book and forgets its saved position.
func (s *session) resetPosition() {
	s.ctrl.Seek(0)
	if s.store == nil || s.hash == "" {
		return
	}
	if err := s.store.Clear(s.hash); err != nil {
		s.log.Warn("clear position failed", "error", err)
	}
}

func (s *session) setSpeed(wpm int) {
	s.ctrl.SetSpeed(wpm)
	if s.settings.WPM == s.ctrl.WPM() {
		return
	}
	s.settings.WPM = s.ctrl.WPM()
	s.saveSettings()
}

func (s *session) setFontSize(size float64) {
	if s.settings.FontSize == size {
		return
	}
	s.settings.FontSize = size
	s.saveSettings()
}

func (s *session) saveSettings() {
	if err := state.SaveSettings(s.settings); err != nil {
		s.log.Warn("save settings failed", "error", err)
	}
}

// close stops playback and records the position.
func (s *session) close() {
	s.ctrl.Stop()
	s.savePosition()
}
