package visibility

import (
	"sort"
	"sync"
	"time"
)

// Cancel stops a scheduled callback. Calling it after the callback ran, or
// more than once, is harmless.
type Cancel func()

// Scheduler arms one-shot timers.
type Scheduler interface {
	AfterFunc(d time.Duration, fn func()) Cancel
}

// TimerScheduler arms real timers. When Post is set, expired callbacks are
// handed to it instead of being run on the timer goroutine, which lets the
// owner of a Controller run them on its own loop.
type TimerScheduler struct {
	Post func(fn func())
}

func (s TimerScheduler) AfterFunc(d time.Duration, fn func()) Cancel {
	t := time.AfterFunc(d, func() {
		if s.Post != nil {
			s.Post(fn)
			return
		}
		fn()
	})
	return func() { t.Stop() }
}

// ManualScheduler is a Scheduler driven by an explicit clock. Nothing fires
// until Advance is called.
type ManualScheduler struct {
	mu      sync.Mutex
	now     time.Duration
	nextID  int
	pending map[int]manualTimer
}

type manualTimer struct {
	at time.Duration
	fn func()
}

func NewManualScheduler() *ManualScheduler {
	return &ManualScheduler{pending: make(map[int]manualTimer)}
}

func (m *ManualScheduler) AfterFunc(d time.Duration, fn func()) Cancel {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.nextID++
	id := m.nextID
	m.pending[id] = manualTimer{at: m.now + d, fn: fn}
	return func() {
		m.mu.Lock()
		delete(m.pending, id)
		m.mu.Unlock()
	}
}

// Pending is the number of armed timers.
func (m *ManualScheduler) Pending() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.pending)
}

// Armed is the total number of timers ever scheduled.
func (m *ManualScheduler) Armed() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.nextID
}

// Advance moves the clock forward and runs every timer that expired, in
// deadline order.
func (m *ManualScheduler) Advance(d time.Duration) {
	m.mu.Lock()
	m.now += d
	var due []int
	for id, t := range m.pending {
		if t.at <= m.now {
			due = append(due, id)
		}
	}
	sort.Slice(due, func(i, j int) bool {
		a, b := m.pending[due[i]], m.pending[due[j]]
		if a.at != b.at {
			return a.at < b.at
		}
		return due[i] < due[j]
	})
	fns := make([]func(), 0, len(due))
	for _, id := range due {
		fns = append(fns, m.pending[id].fn)
		delete(m.pending, id)
	}
	m.mu.Unlock()

	for _, fn := range fns {
		fn()
	}
}
