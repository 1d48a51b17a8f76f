// Package timertest provides deterministic clock and scheduler doubles for
// driving a timer.Controller in tests.
package timertest

import (
	"sync"
	"time"

	"github.com/themattbirch/screen-time-guardian/internal/timer"
)

type ManualClock struct {
	mu  sync.Mutex
	now time.Time
}

func NewManualClock(start time.Time) *ManualClock {
	return &ManualClock{now: start}
}

// AtMillis returns a clock set to the given epoch milliseconds.
func AtMillis(ms int64) *ManualClock {
	return NewManualClock(time.UnixMilli(ms).UTC())
}

func (c *ManualClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *ManualClock) Set(t time.Time) {
	c.mu.Lock()
	c.now = t
	c.mu.Unlock()
}

func (c *ManualClock) SetMillis(ms int64) {
	c.Set(time.UnixMilli(ms).UTC())
}

func (c *ManualClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

// ManualScheduler records scheduled callbacks and runs them only on Fire.
type ManualScheduler struct {
	mu        sync.Mutex
	next      timer.Handle
	callbacks map[timer.Handle]func()
	scheduled int
}

func NewManualScheduler() *ManualScheduler {
	return &ManualScheduler{callbacks: make(map[timer.Handle]func())}
}

func (s *ManualScheduler) ScheduleRepeating(fn func(), _ time.Duration) timer.Handle {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.next++
	s.scheduled++
	s.callbacks[s.next] = fn
	return s.next
}

func (s *ManualScheduler) Cancel(h timer.Handle) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.callbacks, h)
}

// Active reports how many callbacks are currently scheduled.
func (s *ManualScheduler) Active() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.callbacks)
}

// Scheduled reports how many callbacks were ever scheduled.
func (s *ManualScheduler) Scheduled() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.scheduled
}

// Fire runs every scheduled callback once, outside the scheduler's lock.
func (s *ManualScheduler) Fire() {
	s.mu.Lock()
	fns := make([]func(), 0, len(s.callbacks))
	for _, fn := range s.callbacks {
		fns = append(fns, fn)
	}
	s.mu.Unlock()

	for _, fn := range fns {
		fn()
	}
}
