package playback

import (
	"sync"
	"time"
)

// Scheduler fires a callback repeatedly. Start replaces any running schedule.
type Scheduler interface {
	Start(interval time.Duration, tick func())
	Stop()
}

// TickerScheduler runs a time.Ticker in its own goroutine and hands each
// tick to dispatch, which must deliver it to the controller's goroutine
// (fyne.Do in the GUI).
type TickerScheduler struct {
	dispatch func(func())

	mu   sync.Mutex
	done chan struct{}
}

// NewTickerScheduler returns a scheduler. A nil dispatch calls tick directly
// on the ticker goroutine.
func NewTickerScheduler(dispatch func(func())) *TickerScheduler {
	if dispatch == nil {
		dispatch = func(f func()) { f() }
	}
	return &TickerScheduler{dispatch: dispatch}
}

func (s *TickerScheduler) Start(interval time.Duration, tick func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopLocked()

	done := make(chan struct{})
	s.done = done
	ticker := time.NewTicker(interval)

	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				s.dispatch(tick)
			}
		}
	}()
}

func (s *TickerScheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopLocked()
}

func (s *TickerScheduler) stopLocked() {
	if s.done != nil {
		close(s.done)
		s.done = nil
	}
}
