package animation

import (
	"sync"
	"time"
)

// Scheduler is the host's per-frame callback registration. At most one
// callback is pending at a time; cancel removes it if it has not run.
type Scheduler interface {
	RequestFrame(fn func(now time.Time)) (cancel func())
}

// ManualScheduler runs the pending callback only when stepped. It backs
// headless runs and tests, and hosts that own their own frame loop.
type ManualScheduler struct {
	mu      sync.Mutex
	pending func(now time.Time)
	seq     uint64
}

// NewManualScheduler creates an empty scheduler.
func NewManualScheduler() *ManualScheduler {
	return &ManualScheduler{}
}

// RequestFrame registers fn for the next Step, replacing any pending callback.
func (s *ManualScheduler) RequestFrame(fn func(now time.Time)) (cancel func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seq++
	id := s.seq
	s.pending = fn
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if s.seq == id {
			s.pending = nil
		}
	}
}

// Pending reports whether a callback is registered.
func (s *ManualScheduler) Pending() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pending != nil
}

// Step runs the pending callback at now. The callback is removed before it
// runs, so it must re-register to receive the next frame. Returns false
// when nothing was pending.
func (s *ManualScheduler) Step(now time.Time) bool {
	s.mu.Lock()
	fn := s.pending
	s.pending = nil
	s.mu.Unlock()
	if fn == nil {
		return false
	}
	fn(now)
	return true
}
