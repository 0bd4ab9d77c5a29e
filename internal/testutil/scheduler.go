package testutil

import (
	"sort"
	"sync"
	"time"

	"github.com/roach88/storyreel/internal/player"
)

// FakeScheduler is a player.Scheduler driven by manual time.
//
// Timers fire only from Advance or RunUntilIdle, on the calling goroutine, in
// due-time order (ties in scheduling order). Callbacks may schedule further
// timers; those fire within the same Advance if they fall due in its window.
//
// Thread-safety: all methods are safe for concurrent use, but callbacks run
// without the internal lock held.
type FakeScheduler struct {
	mu     sync.Mutex
	now    time.Duration
	seq    int
	timers []*FakeTimer
}

// NewFakeScheduler creates a scheduler at time 0.
func NewFakeScheduler() *FakeScheduler {
	return &FakeScheduler{}
}

// FakeTimer is a timer created by FakeScheduler.
type FakeTimer struct {
	s     *FakeScheduler
	due   time.Duration
	seq   int
	fn    func()
	delay time.Duration
	done  bool
}

// Schedule implements player.Scheduler.
func (s *FakeScheduler) Schedule(delay time.Duration, fn func()) player.Timer {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.seq++
	t := &FakeTimer{s: s, due: s.now + delay, seq: s.seq, fn: fn, delay: delay}
	s.timers = append(s.timers, t)
	return t
}

// Stop implements player.Timer.
func (t *FakeTimer) Stop() bool {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()

	if t.done {
		return false
	}
	t.done = true
	t.s.removeLocked(t)
	return true
}

// Delay returns the delay the timer was scheduled with.
func (t *FakeTimer) Delay() time.Duration {
	return t.delay
}

// Now returns the elapsed manual time.
func (s *FakeScheduler) Now() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.now
}

// Pending returns the number of live timers.
func (s *FakeScheduler) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.timers)
}

// Delays returns the delays of live timers in firing order.
func (s *FakeScheduler) Delays() []time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.sortLocked()
	out := make([]time.Duration, len(s.timers))
	for i, t := range s.timers {
		out[i] = t.delay
	}
	return out
}

// Advance moves time forward by d, firing every timer that falls due.
// It returns the number of timers fired.
func (s *FakeScheduler) Advance(d time.Duration) int {
	s.mu.Lock()
	target := s.now + d
	s.mu.Unlock()

	fired := 0
	for {
		t := s.popDue(target)
		if t == nil {
			break
		}
		t.fn()
		fired++
	}

	s.mu.Lock()
	if s.now < target {
		s.now = target
	}
	s.mu.Unlock()
	return fired
}

// RunUntilIdle fires timers in order, jumping time forward, until none are
// left or limit timers have fired. It returns the number fired.
func (s *FakeScheduler) RunUntilIdle(limit int) int {
	fired := 0
	for fired < limit {
		t := s.popDue(-1)
		if t == nil {
			break
		}
		t.fn()
		fired++
	}
	return fired
}

// popDue removes and returns the earliest timer due at or before target,
// advancing the clock to its due time. A negative target accepts any timer.
func (s *FakeScheduler) popDue(target time.Duration) *FakeTimer {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.timers) == 0 {
		return nil
	}
	s.sortLocked()
	t := s.timers[0]
	if target >= 0 && t.due > target {
		return nil
	}
	s.timers = s.timers[1:]
	t.done = true
	if t.due > s.now {
		s.now = t.due
	}
	return t
}

func (s *FakeScheduler) sortLocked() {
	sort.SliceStable(s.timers, func(i, j int) bool {
		if s.timers[i].due != s.timers[j].due {
			return s.timers[i].due < s.timers[j].due
		}
		return s.timers[i].seq < s.timers[j].seq
	})
}

func (s *FakeScheduler) removeLocked(target *FakeTimer) {
	for i, t := range s.timers {
		if t == target {
			s.timers = append(s.timers[:i], s.timers[i+1:]...)
			return
		}
	}
}
