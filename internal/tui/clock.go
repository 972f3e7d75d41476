package tui

import (
	"sync/atomic"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/csheth/versestudio/internal/sched"
)

// loopScheduler runs timer callbacks on the Bubble Tea event loop: expiring
// timers post a scheduledMsg instead of calling into the session from the
// timer goroutine.
type loopScheduler struct {
	events chan<- tea.Msg
	done   <-chan struct{}
}

type loopTimer struct {
	timer   *time.Timer
	stopped atomic.Bool
}

type scheduledMsg struct {
	timer *loopTimer
	fn    func()
}

func (s loopScheduler) AfterFunc(d time.Duration, fn func()) sched.Timer {
	t := &loopTimer{}
	t.timer = time.AfterFunc(d, func() {
		if t.stopped.Load() {
			return
		}
		select {
		case s.events <- scheduledMsg{timer: t, fn: fn}:
		case <-s.done:
		}
	})
	return t
}

// Stop reports whether the callback was prevented from running.
func (t *loopTimer) Stop() bool {
	if t.stopped.Swap(true) {
		return false
	}
	t.timer.Stop()
	return true
}

func (t *loopTimer) fire(fn func()) {
	if t.stopped.Swap(true) {
		return
	}
	fn()
}

func waitForEvent(events <-chan tea.Msg) tea.Cmd {
	return func() tea.Msg {
		return <-events
	}
}

func waitForLibraryChange(changes <-chan struct{}) tea.Cmd {
	if changes == nil {
		return nil
	}
	return func() tea.Msg {
		if _, ok := <-changes; !ok {
			return nil
		}
		return libraryChangedMsg{}
	}
}
