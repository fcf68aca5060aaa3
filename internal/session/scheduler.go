package session

import (
	"sync"
	"time"
)

// Timer is a pending continuation. Cancel is idempotent and safe after the
// continuation has fired.
type Timer interface {
	Cancel()
}

// Scheduler runs fn once after delay.
type Scheduler interface {
	Schedule(delay time.Duration, fn func()) Timer
}

// RealScheduler schedules on the runtime timer wheel.
type RealScheduler struct{}

// Schedule implements Scheduler.
func (RealScheduler) Schedule(delay time.Duration, fn func()) Timer {
	return realTimer{t: time.AfterFunc(delay, fn)}
}

type realTimer struct {
	t *time.Timer
}

func (r realTimer) Cancel() {
	r.t.Stop()
}

// ManualScheduler is a Scheduler driven by Advance. Timers fire in due order,
// ties in scheduling order.
type ManualScheduler struct {
	mu      sync.Mutex
	now     time.Duration
	seq     uint64
	pending []*manualTimer
}

type manualTimer struct {
	s   *ManualScheduler
	due time.Duration
	seq uint64
	fn  func()
}

// NewManualScheduler returns a scheduler whose clock starts at zero.
func NewManualScheduler() *ManualScheduler {
	return &ManualScheduler{}
}

// Schedule implements Scheduler.
func (s *ManualScheduler) Schedule(delay time.Duration, fn func()) Timer {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seq++
	t := &manualTimer{s: s, due: s.now + delay, seq: s.seq, fn: fn}
	s.pending = append(s.pending, t)
	return t
}

func (t *manualTimer) Cancel() {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	t.s.remove(t)
}

func (s *ManualScheduler) remove(t *manualTimer) bool {
	for i, p := range s.pending {
		if p == t {
			s.pending = append(s.pending[:i], s.pending[i+1:]...)
			return true
		}
	}
	return false
}

// Advance moves the clock forward by d and fires every timer that becomes due,
// including timers scheduled by callbacks within the window.
func (s *ManualScheduler) Advance(d time.Duration) {
	s.mu.Lock()
	target := s.now + d
	s.mu.Unlock()

	for {
		s.mu.Lock()
		next := s.nextDue(target)
		if next == nil {
			s.now = target
			s.mu.Unlock()
			return
		}
		s.remove(next)
		s.now = next.due
		s.mu.Unlock()

		next.fn()
	}
}

func (s *ManualScheduler) nextDue(limit time.Duration) *manualTimer {
	var best *manualTimer
	for _, t := range s.pending {
		if t.due > limit {
			continue
		}
		if best == nil || t.due < best.due || (t.due == best.due && t.seq < best.seq) {
			best = t
		}
	}
	return best
}

// Pending returns the number of timers not yet fired or canceled.
func (s *ManualScheduler) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.pending)
}

// Elapsed returns the scheduler clock.
func (s *ManualScheduler) Elapsed() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.now
}
