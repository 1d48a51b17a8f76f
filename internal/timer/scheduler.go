package timer

import (
	"sync"
	"time"
)

// Handle identifies a repeating callback registered with a Scheduler.
type Handle int64

// Scheduler runs callbacks periodically. Cancel must not wait for a running
// callback to return.
type Scheduler interface {
	ScheduleRepeating(fn func(), period time.Duration) Handle
	Cancel(h Handle)
}

// TickerScheduler runs every callback on its own goroutine driven by a
// time.Ticker.
type TickerScheduler struct {
	mu    sync.Mutex
	next  Handle
	stops map[Handle]chan struct{}
}

func NewTickerScheduler() *TickerScheduler {
	return &TickerScheduler{stops: make(map[Handle]chan struct{})}
}

func (s *TickerScheduler) ScheduleRepeating(fn func(), period time.Duration) Handle {
	stop := make(chan struct{})

	s.mu.Lock()
	s.next++
	h := s.next
	s.stops[h] = stop
	s.mu.Unlock()

	go func() {
		ticker := time.NewTicker(period)
		defer ticker.Stop()
		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				fn()
			}
		}
	}()
	return h
}

func (s *TickerScheduler) Cancel(h Handle) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if stop, ok := s.stops[h]; ok {
		close(stop)
		delete(s.stops, h)
	}
}

// Active reports how many callbacks are still scheduled.
func (s *TickerScheduler) Active() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.stops)
}
