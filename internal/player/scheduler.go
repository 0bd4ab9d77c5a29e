package player

import "time"

// Timer is a cancelable scheduled callback.
type Timer interface {
	// Stop cancels the callback. It reports whether the callback had not
	// yet run.
	Stop() bool
}

// Scheduler runs a callback after a delay.
//
// Implementations must not run fn synchronously inside Schedule, and must
// run it on the goroutine that owns the Controller.
type Scheduler interface {
	Schedule(delay time.Duration, fn func()) Timer
}
