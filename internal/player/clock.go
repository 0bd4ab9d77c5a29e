package player

import "sync/atomic"

// Clock stamps events with a strictly increasing sequence number.
//
// The sequence is never reset, not even by Restart, so events from
// successive sessions of one controller stay totally ordered.
type Clock struct {
	seq atomic.Int64
}

// NewClock creates a clock starting at 0. The first Next returns 1.
func NewClock() *Clock {
	return &Clock{}
}

// Next returns the next sequence number.
func (c *Clock) Next() int64 {
	return c.seq.Add(1)
}

// Current returns the last issued sequence number.
func (c *Clock) Current() int64 {
	return c.seq.Load()
}
