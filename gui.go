//go:build gui

package main

import (
	"bytes"
	"errors"
	"flag"
	"fmt"
	"image/color"
	"os"
	"strings"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/storage"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"
	"github.com/metcalfc/rsvp/internal/playback"
	"github.com/metcalfc/rsvp/internal/reader"
	"github.com/metcalfc/rsvp/internal/state"
)

const (
	minFontSize   = 20
	maxFontSize   = 200
	fontStep      = 5
	contextWords  = 60
	defaultWidth  = 800
	defaultHeight = 600
)

var background = color.RGBA{R: 235, G: 222, B: 200, A: 255}

// window is the GUI view. It renders controller state and forwards user
// actions; the controller itself is injected by main.
type window struct {
	*session
	app fyne.App
	win fyne.Window

	fontSize   float32
	tocVisible bool
	lastArrow  time.Time
	done       chan struct{}

	wordContainer *fyne.Container
	coverBox      *fyne.Container
	statusLabel   *widget.Label
	speedLabel    *widget.Label
	fontLabel     *widget.Label
	progress      *widget.ProgressBar
	playButton    *widget.Button
	restartButton *widget.Button
	contextButton *widget.Button
	speedSlider   *widget.Slider
	fontSlider    *widget.Slider
	tocList       *widget.List
	tocPanel      *container.Split
}

func newWindow(a fyne.App, s *session, showTOC bool) *window {
	w := &window{
		session:    s,
		app:        a,
		win:        a.NewWindow("RSVP Reader"),
		fontSize:   float32(s.settings.FontSize),
		tocVisible: showTOC,
		done:       make(chan struct{}),
	}
	w.fontSize = max(minFontSize, min(maxFontSize, w.fontSize))
	w.build()
	s.ctrl.OnChange(func(playback.Status) { w.render() })
	w.render()
	return w
}

func createWordDisplay(word string, fontSize float32, windowWidth float32) *fyne.Container {
	before, focus, after := reader.SplitORP(word)

	beforeText := canvas.NewText(before, color.Black)
	beforeText.TextSize = fontSize
	beforeText.TextStyle.Bold = true

	focusText := canvas.NewText(focus, color.RGBA{R: 255, G: 0, B: 0, A: 255})
	focusText.TextSize = fontSize
	focusText.TextStyle.Bold = true

	afterText := canvas.NewText(after, color.Black)
	afterText.TextSize = fontSize
	afterText.TextStyle.Bold = true

	beforeSize := beforeText.MinSize()
	focusSize := focusText.MinSize()

	// Horizontal: anchor ORP at center
	centerX := windowWidth / 2
	beforeX := centerX - beforeSize.Width
	focusX := centerX
	afterX := centerX + focusSize.Width

	if beforeX < 0 {
		beforeX = 0
	}

	c := &fyne.Container{
		Layout:  &centerVerticalLayout{},
		Objects: []fyne.CanvasObject{beforeText, focusText, afterText},
	}

	beforeText.Move(fyne.NewPos(beforeX, 0))
	focusText.Move(fyne.NewPos(focusX, 0))
	afterText.Move(fyne.NewPos(afterX, 0))

	return c
}

// centerVerticalLayout centers its objects vertically and keeps the X
// position each one was given.
type centerVerticalLayout struct{}

func (l *centerVerticalLayout) MinSize(objects []fyne.CanvasObject) fyne.Size {
	var maxH float32
	for _, o := range objects {
		size := o.MinSize()
		if size.Height > maxH {
			maxH = size.Height
		}
	}
	return fyne.NewSize(0, maxH)
}

func (l *centerVerticalLayout) Layout(objects []fyne.CanvasObject, size fyne.Size) {
	var maxH float32
	for _, o := range objects {
		objSize := o.MinSize()
		if objSize.Height > maxH {
			maxH = objSize.Height
		}
	}

	y := (size.Height - maxH) / 2
	if y < 0 {
		y = 0
	}

	for _, o := range objects {
		pos := o.Position()
		o.Move(fyne.NewPos(pos.X, y))
		o.Resize(o.MinSize())
	}
}

func (w *window) build() {
	w.statusLabel = widget.NewLabel("")
	w.statusLabel.Alignment = fyne.TextAlignCenter
	w.statusLabel.Truncation = fyne.TextTruncateEllipsis

	w.wordContainer = container.NewStack(w.placeholder("Load an EPUB file to start"))
	w.coverBox = container.NewCenter(widget.NewLabel("No book loaded"))
	w.progress = widget.NewProgressBar()

	w.playButton = widget.NewButtonWithIcon("Play", theme.MediaPlayIcon(), w.ctrl.Toggle)
	w.restartButton = widget.NewButtonWithIcon("Restart", theme.MediaSkipPreviousIcon(), w.restart)
	w.contextButton = widget.NewButtonWithIcon("Show Context", theme.DocumentIcon(), w.showContext)
	openButton := widget.NewButtonWithIcon("Open Book", theme.FolderOpenIcon(), w.showOpenDialog)

	w.speedLabel = widget.NewLabel("")
	w.speedSlider = widget.NewSlider(playback.MinWPM, playback.MaxWPM)
	w.speedSlider.Step = playback.WPMStep
	w.speedSlider.SetValue(float64(w.ctrl.WPM()))
	w.speedSlider.OnChanged = func(v float64) { w.setSpeed(int(v)) }

	w.fontLabel = widget.NewLabel("")
	w.fontSlider = widget.NewSlider(minFontSize, maxFontSize)
	w.fontSlider.Step = fontStep
	w.fontSlider.SetValue(float64(w.fontSize))
	w.fontSlider.OnChanged = func(v float64) { w.setFont(float32(v)) }

	controls := container.NewVBox(
		container.NewBorder(nil, nil, widget.NewLabel("Speed (WPM):"), w.speedLabel, w.speedSlider),
		container.NewBorder(nil, nil, widget.NewLabel("Font Size:"), w.fontLabel, w.fontSlider),
		w.progress,
		container.NewGridWithColumns(4, openButton, w.playButton, w.restartButton, w.contextButton),
		widget.NewLabel("SPACE: pause  ↑/↓: speed  +/-: font  ←/→: sentence  R: restart  T: TOC  F: fullscreen  Q: quit"),
	)

	readingContent := container.NewBorder(
		container.NewVBox(w.statusLabel, w.coverBox),
		controls,
		nil, nil,
		container.NewStack(canvas.NewRectangle(background), w.wordContainer),
	)

	w.tocList = widget.NewList(
		func() int {
			if w.book == nil {
				return 0
			}
			return len(w.book.TOC)
		},
		func() fyne.CanvasObject {
			return container.NewVBox(
				widget.NewLabel("Title"),
				widget.NewLabel("Preview"),
			)
		},
		func(id widget.ListItemID, obj fyne.CanvasObject) {
			entry := w.book.TOC[id]
			vbox := obj.(*fyne.Container)
			titleLabel := vbox.Objects[0].(*widget.Label)
			previewLabel := vbox.Objects[1].(*widget.Label)

			indent := strings.Repeat("  ", entry.Level)
			titleLabel.SetText(indent + entry.Title)
			titleLabel.TextStyle.Bold = true

			previewLabel.SetText(indent + truncateRunes(entry.Preview, 50))
		},
	)
	w.tocList.OnSelected = func(id widget.ListItemID) {
		if w.book != nil && id < len(w.book.TOC) {
			w.ctrl.Seek(w.book.TOC[id].WordIndex)
			w.toggleTOC()
		}
	}

	tocContainer := container.NewBorder(
		widget.NewLabel("Table of Contents"),
		widget.NewLabel("Click to jump • T to close"),
		nil, nil,
		w.tocList,
	)
	w.tocPanel = container.NewHSplit(tocContainer, readingContent)
	w.tocPanel.Offset = 0.33
	if !w.tocVisible {
		tocContainer.Hide()
	}

	w.win.SetContent(w.tocPanel)
	w.win.Resize(fyne.NewSize(defaultWidth, defaultHeight))
	w.bindKeys()
	w.win.SetOnClosed(w.closed)
}

func (w *window) placeholder(text string) fyne.CanvasObject {
	t := canvas.NewText(text, color.Black)
	t.TextSize = 24
	t.Alignment = fyne.TextAlignCenter
	return container.NewCenter(t)
}

func (w *window) bindKeys() {
	w.win.Canvas().SetOnTypedKey(func(key *fyne.KeyEvent) {
		switch key.Name {
		case fyne.KeySpace:
			w.ctrl.Toggle()
		case fyne.KeyUp:
			w.setSpeed(w.ctrl.WPM() + playback.WPMStep)
		case fyne.KeyDown:
			w.setSpeed(w.ctrl.WPM() - playback.WPMStep)
		case fyne.KeyLeft:
			w.pauseUnlessRepeat()
			w.ctrl.PrevSentence()
		case fyne.KeyRight:
			w.pauseUnlessRepeat()
			w.ctrl.NextSentence()
		case fyne.KeyF:
			w.win.SetFullScreen(!w.win.FullScreen())
		case fyne.KeyQ:
			w.win.Close()
		}
	})

	w.win.Canvas().SetOnTypedRune(func(r rune) {
		switch r {
		case 't', 'T':
			w.toggleTOC()
		case 'r', 'R':
			w.restart()
		case 'o', 'O':
			w.showOpenDialog()
		case 'c', 'C':
			w.showContext()
		case '+', '=':
			w.setFont(w.fontSize + fontStep)
		case '-':
			w.setFont(w.fontSize - fontStep)
		}
	})
}

// pauseUnlessRepeat pauses on the first of a run of arrow presses.
func (w *window) pauseUnlessRepeat() {
	now := time.Now()
	if now.Sub(w.lastArrow) > 500*time.Millisecond {
		w.ctrl.Pause()
	}
	w.lastArrow = now
}

func (w *window) setSpeed(wpm int) {
	w.session.setSpeed(wpm)
	if int(w.speedSlider.Value) != w.ctrl.WPM() {
		w.speedSlider.SetValue(float64(w.ctrl.WPM()))
	}
	w.render()
}

func (w *window) setFont(size float32) {
	size = max(minFontSize, min(maxFontSize, size))
	if size == w.fontSize {
		return
	}
	w.fontSize = size
	w.setFontSize(float64(size))
	if float32(w.fontSlider.Value) != size {
		w.fontSlider.SetValue(float64(size))
	}
	w.render()
}

func (w *window) toggleTOC() {
	if w.book == nil || len(w.book.TOC) == 0 {
		return
	}
	w.tocVisible = !w.tocVisible
	if w.tocVisible {
		w.ctrl.Pause()
		w.tocPanel.Leading.Show()
	} else {
		w.tocPanel.Leading.Hide()
	}
	w.tocPanel.Refresh()
}

func (w *window) showOpenDialog() {
	w.ctrl.Pause()
	d := dialog.NewFileOpen(func(rc fyne.URIReadCloser, err error) {
		if err != nil {
			dialog.ShowError(err, w.win)
			return
		}
		if rc == nil {
			return
		}
		path := rc.URI().Path()
		rc.Close()
		w.open(path)
	}, w.win)
	d.SetFilter(storage.NewExtensionFileFilter(reader.SupportedExtensions()))
	d.Show()
}

// open extracts path off the UI goroutine and applies the result on it.
func (w *window) open(path string) {
	w.statusLabel.SetText("Loading " + path + "...")
	go func() {
		book, err := w.extractor.Extract(path)
		fyne.Do(func() {
			if err != nil {
				w.log.Warn("open failed", "file", path, "error", err)
				dialog.ShowError(errors.New(reader.UserMessage(err)), w.win)
				w.render()
				return
			}
			w.apply(book)
			w.showBook()
		})
	}()
}

// showBook refreshes the per-book widgets after a load.
func (w *window) showBook() {
	w.win.SetTitle("RSVP Reader - " + w.book.Title)

	if c := w.book.Cover; c != nil {
		img := canvas.NewImageFromReader(bytes.NewReader(c.Data), c.Name)
		img.FillMode = canvas.ImageFillContain
		img.SetMinSize(fyne.NewSize(150, 200))
		w.coverBox.Objects = []fyne.CanvasObject{img}
	} else {
		w.coverBox.Objects = []fyne.CanvasObject{widget.NewLabel("No cover found.")}
	}
	w.coverBox.Refresh()

	w.tocList.UnselectAll()
	w.tocList.Refresh()
	if len(w.book.TOC) == 0 && w.tocVisible {
		w.tocVisible = false
		w.tocPanel.Leading.Hide()
		w.tocPanel.Refresh()
	}
	w.render()
}

func (w *window) showContext() {
	if w.book == nil {
		return
	}
	w.ctrl.Pause()

	before, current, after := reader.Context(w.ctrl.Words(), w.ctrl.Index(), contextWords)
	rt := widget.NewRichText(
		&widget.TextSegment{Text: strings.Join(before, " ") + " ", Style: widget.RichTextStyleInline},
		&widget.TextSegment{Text: current, Style: widget.RichTextStyleStrong},
		&widget.TextSegment{Text: " " + strings.Join(after, " "), Style: widget.RichTextStyleInline},
	)
	rt.Wrapping = fyne.TextWrapWord

	d := dialog.NewCustom("Context", "Close", container.NewVScroll(rt), w.win)
	d.Resize(fyne.NewSize(600, 400))
	d.Show()
}

// restart rewinds to the first word and forgets the saved position.
func (w *window) restart() {
	if w.book == nil {
		return
	}
	w.resetPosition()
	w.statusLabel.SetText("Progress has been reset to the start.")
}

// render redraws everything that depends on controller state.
func (w *window) render() {
	st := w.ctrl.Status()
	hasWords := st.Total > 0

	if hasWords {
		canvasWidth := w.win.Canvas().Size().Width
		if canvasWidth <= 0 {
			canvasWidth = defaultWidth
		}
		w.wordContainer.Objects = []fyne.CanvasObject{createWordDisplay(st.Word, w.fontSize, canvasWidth)}
		w.wordContainer.Refresh()
		w.progress.SetValue(float64(st.Index+1) / float64(st.Total))
	}

	w.speedLabel.SetText(fmt.Sprintf("%d", st.WPM))
	w.fontLabel.SetText(fmt.Sprintf("%.0f", w.fontSize))

	if st.State == playback.Playing {
		w.playButton.SetText("Pause")
		w.playButton.SetIcon(theme.MediaPauseIcon())
	} else {
		w.playButton.SetText("Play")
		w.playButton.SetIcon(theme.MediaPlayIcon())
	}

	for _, b := range []*widget.Button{w.playButton, w.restartButton, w.contextButton} {
		if hasWords {
			b.Enable()
		} else {
			b.Disable()
		}
	}

	if !hasWords {
		w.statusLabel.SetText(fmt.Sprintf("%d WPM", st.WPM))
		return
	}

	tag := ""
	switch {
	case st.State == playback.Paused:
		tag = " [PAUSED]"
	case st.State == playback.Stopped && st.AtEnd():
		tag = " [DONE]"
	case st.State == playback.Stopped:
		tag = " [STOPPED]"
	}
	chapter := ""
	if ch, ok := w.book.ChapterAt(st.Index); ok {
		chapter = ch.Title + " | "
	}
	w.statusLabel.SetText(fmt.Sprintf("%sWord %d/%d | %d WPM | Font: %.0f%s",
		chapter, st.Index+1, st.Total, st.WPM, w.fontSize, tag))
}

// truncateRunes shortens s to at most n characters, marking the cut with "...".
func truncateRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}

// watchResize redraws the word when the window width changes so the focus
// letter stays centered.
func (w *window) watchResize() {
	lastWidth := float32(defaultWidth)
	go func() {
		for {
			select {
			case <-w.done:
				return
			case <-time.After(100 * time.Millisecond):
				currentWidth := w.win.Canvas().Size().Width
				if currentWidth > 0 && currentWidth != lastWidth {
					lastWidth = currentWidth
					fyne.Do(w.render)
				}
			}
		}
	}()
}

func (w *window) closed() {
	w.close()
	close(w.done)
}

func main() {
	os.Exit(run())
}

func run() int {
	settings, settingsErr := state.LoadSettings()

	opts, err := parseFlags("rsvp-gui", "rsvp - GUI EPUB Speed Reader", os.Args[1:], settings, os.Stderr)
	if errors.Is(err, flag.ErrHelp) {
		return 0
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 2
	}

	if opts.showVersion {
		fmt.Println(versionString("rsvp-gui"))
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

	a := app.NewWithID("io.github.metcalfc.rsvp")
	sched := playback.NewTickerScheduler(fyne.Do)
	ctrl := playback.NewController(sched, opts.wpm, log)
	w := newWindow(a, newSession(ctrl, settings, opts.fresh, log), opts.showTOC)

	if opts.file != "" {
		w.open(opts.file)
	}
	w.watchResize()
	w.win.ShowAndRun()
	return 0
}
