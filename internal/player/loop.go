package player

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"
)

// Loop is a single-goroutine task loop that also implements Scheduler.
//
// Run drains tasks in FIFO order on the calling goroutine. Post submits work
// from any goroutine; Schedule arms a wall-clock timer that posts its
// callback when it expires. A controller driven by a Loop is therefore only
// ever touched by the goroutine running Run.
//
// Thread-safety:
//   - Post, Schedule, Timer.Stop, Close: safe from any goroutine
//   - Run: must be called from exactly one goroutine
type Loop struct {
	queue  *taskQueue
	logger *slog.Logger
}

// NewLoop creates an idle loop. Call Run to start draining it.
func NewLoop(logger *slog.Logger) *Loop {
	if logger == nil {
		logger = slog.Default()
	}
	return &Loop{queue: newTaskQueue(), logger: logger}
}

// Post submits fn to run on the loop goroutine. It returns false once the
// loop is closed.
func (l *Loop) Post(fn func()) bool {
	return l.queue.Enqueue(fn)
}

// Schedule implements Scheduler.
func (l *Loop) Schedule(delay time.Duration, fn func()) Timer {
	t := &loopTimer{fn: fn}
	t.timer = time.AfterFunc(delay, func() {
		l.Post(t.fire)
	})
	return t
}

// Close stops accepting work. Run returns after draining queued tasks.
func (l *Loop) Close() {
	l.queue.Close()
}

// Run drains tasks until ctx is cancelled or the loop is closed and empty.
//
// A panicking task is logged and the loop keeps running.
func (l *Loop) Run(ctx context.Context) error {
	l.logger.Debug("player loop starting")

	for {
		if fn, ok := l.queue.TryDequeue(); ok {
			l.runTask(fn)
			continue
		}

		if l.queue.Drained() {
			l.logger.Debug("player loop stopping: closed")
			return nil
		}

		select {
		case <-ctx.Done():
			l.logger.Debug("player loop stopping: context cancelled")
			l.queue.Close()
			return ctx.Err()
		case <-l.queue.Wait():
		}
	}
}

func (l *Loop) runTask(fn func()) {
	defer func() {
		if r := recover(); r != nil {
			l.logger.Error("player loop task panicked", "panic", r)
		}
	}()
	fn()
}

// loopTimer is a Timer whose callback runs on the loop goroutine. A stopped
// timer never runs, even if its expiry was already queued.
type loopTimer struct {
	timer *time.Timer
	fn    func()
	done  atomic.Bool
}

func (t *loopTimer) fire() {
	if t.done.CompareAndSwap(false, true) {
		t.fn()
	}
}

// Stop implements Timer.
func (t *loopTimer) Stop() bool {
	t.timer.Stop()
	return t.done.CompareAndSwap(false, true)
}

// taskQueue is an unbounded FIFO of tasks with a coalescing wake-up signal.
type taskQueue struct {
	mu     sync.Mutex
	tasks  []func()
	closed bool
	signal chan struct{} // buffered, size 1
}

func newTaskQueue() *taskQueue {
	return &taskQueue{
		tasks:  make([]func(), 0, 16),
		signal: make(chan struct{}, 1),
	}
}

// Enqueue appends fn. Returns false if the queue is closed.
func (q *taskQueue) Enqueue(fn func()) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return false
	}
	q.tasks = append(q.tasks, fn)

	select {
	case q.signal <- struct{}{}:
	default:
	}
	return true
}

// TryDequeue pops the front task without blocking.
func (q *taskQueue) TryDequeue() (func(), bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.tasks) == 0 {
		return nil, false
	}
	fn := q.tasks[0]
	q.tasks[0] = nil
	if len(q.tasks) == 1 {
		q.tasks = q.tasks[:0]
	} else {
		q.tasks = q.tasks[1:]
	}
	return fn, true
}

// Wait returns a channel that signals when tasks may be available. It is
// closed by Close.
func (q *taskQueue) Wait() <-chan struct{} {
	return q.signal
}

// Drained reports whether the queue is closed and empty.
func (q *taskQueue) Drained() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.closed && len(q.tasks) == 0
}

// Len returns the number of queued tasks.
func (q *taskQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.tasks)
}

// Close stops accepting tasks and wakes any waiter.
func (q *taskQueue) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return
	}
	q.closed = true
	close(q.signal)
}
