// Package playback drives RSVP presentation: it owns the word sequence, the
// current position and the play/pause state, and advances on scheduler ticks.
package playback

import (
	"io"
	"log/slog"
	"time"

	"github.com/metcalfc/rsvp/internal/reader"
)

// Speed limits in words per minute.
const (
	MinWPM     = 100
	MaxWPM     = 1500
	DefaultWPM = 300
	WPMStep    = 50
)

// State is the playback state.
type State int

const (
	Stopped State = iota
	Playing
	Paused
)

func (s State) String() string {
	switch s {
	case Playing:
		return "playing"
	case Paused:
		return "paused"
	default:
		return "stopped"
	}
}

// Status is a snapshot of the controller for rendering.
type Status struct {
	Word  string
	Index int
	Total int
	State State
	WPM   int
}

// AtEnd reports whether the snapshot is on the last word.
func (s Status) AtEnd() bool {
	return s.Total > 0 && s.Index >= s.Total-1
}

// Controller is not safe for concurrent use. All calls, including scheduler
// ticks, must happen on the UI goroutine.
type Controller struct {
	sched Scheduler
	log   *slog.Logger

	words          []string
	sentenceStarts []int
	index          int
	state          State
	wpm            int

	// gen identifies the active tick run; ticks from an older run are dropped.
	gen      uint64
	onChange func(Status)
}

// NewController returns a stopped controller with no words loaded.
func NewController(sched Scheduler, wpm int, log *slog.Logger) *Controller {
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Controller{
		sched: sched,
		log:   log,
		wpm:   ClampWPM(wpm),
	}
}

// ClampWPM limits wpm to [MinWPM, MaxWPM].
func ClampWPM(wpm int) int {
	return max(MinWPM, min(MaxWPM, wpm))
}

// OnChange registers fn to be called synchronously after every change.
func (c *Controller) OnChange(fn func(Status)) {
	c.onChange = fn
}

// Load replaces the word sequence, rewinds to the first word and stops.
func (c *Controller) Load(words []string) {
	c.stopTicking()
	c.words = words
	c.sentenceStarts = reader.FindSentenceStarts(words)
	c.index = 0
	c.state = Stopped
	c.log.Debug("sequence loaded", "words", len(words))
	c.notify()
}

// Play starts presentation. It returns false if there is nothing to play.
// Playing from a finished sequence starts over.
func (c *Controller) Play() bool {
	if len(c.words) == 0 || c.state == Playing {
		return false
	}
	if c.state == Stopped && c.index >= len(c.words)-1 {
		c.index = 0
	}
	c.state = Playing
	c.startTicking()
	c.log.Debug("play", "index", c.index, "wpm", c.wpm)
	c.notify()
	return true
}

// Pause halts presentation on the current word.
func (c *Controller) Pause() {
	if c.state != Playing {
		return
	}
	c.stopTicking()
	c.state = Paused
	c.log.Debug("pause", "index", c.index)
	c.notify()
}

// Toggle pauses when playing and plays otherwise.
func (c *Controller) Toggle() {
	if c.state == Playing {
		c.Pause()
		return
	}
	c.Play()
}

// Stop halts the scheduler and leaves the position unchanged.
func (c *Controller) Stop() {
	if c.state == Stopped {
		return
	}
	c.stopTicking()
	c.state = Stopped
	c.notify()
}

// SetSpeed changes the rate. A running tick is restarted at the new interval
// on the current word.
func (c *Controller) SetSpeed(wpm int) {
	wpm = ClampWPM(wpm)
	if wpm == c.wpm {
		return
	}
	c.wpm = wpm
	if c.state == Playing {
		c.startTicking()
	}
	c.log.Debug("speed", "wpm", wpm)
	c.notify()
}

// Tick advances one word. On the last word it stops instead.
func (c *Controller) Tick() {
	if c.state != Playing {
		return
	}
	if c.index < len(c.words)-1 {
		c.index++
		c.notify()
		return
	}
	c.stopTicking()
	c.state = Stopped
	c.log.Debug("finished", "words", len(c.words))
	c.notify()
}

// Seek moves to word i, clamped to the sequence.
func (c *Controller) Seek(i int) {
	if len(c.words) == 0 {
		return
	}
	c.index = max(0, min(i, len(c.words)-1))
	c.notify()
}

// PrevSentence moves to the start of the previous sentence.
func (c *Controller) PrevSentence() {
	for i := len(c.sentenceStarts) - 1; i >= 0; i-- {
		if c.sentenceStarts[i] < c.index {
			c.Seek(c.sentenceStarts[i])
			return
		}
	}
	c.Seek(0)
}

// NextSentence moves to the start of the next sentence.
func (c *Controller) NextSentence() {
	for _, start := range c.sentenceStarts {
		if start > c.index {
			c.Seek(start)
			return
		}
	}
	c.Seek(len(c.words) - 1)
}

// Interval is the time each word stays on screen.
func (c *Controller) Interval() time.Duration {
	return time.Minute / time.Duration(c.wpm)
}

func (c *Controller) WPM() int        { return c.wpm }
func (c *Controller) Index() int      { return c.index }
func (c *Controller) State() State    { return c.state }
func (c *Controller) Words() []string { return c.words }

// CurrentWord returns the word at the current index.
func (c *Controller) CurrentWord() string {
	if c.index >= 0 && c.index < len(c.words) {
		return c.words[c.index]
	}
	return ""
}

// Status returns a snapshot of the current state.
func (c *Controller) Status() Status {
	return Status{
		Word:  c.CurrentWord(),
		Index: c.index,
		Total: len(c.words),
		State: c.state,
		WPM:   c.wpm,
	}
}

func (c *Controller) startTicking() {
	c.gen++
	gen := c.gen
	c.sched.Start(c.Interval(), func() {
		if gen == c.gen {
			c.Tick()
		}
	})
}

func (c *Controller) stopTicking() {
	c.gen++
	c.sched.Stop()
}

func (c *Controller) notify() {
	if c.onChange != nil {
		c.onChange(c.Status())
	}
}
