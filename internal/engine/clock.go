package engine

import "sync/atomic"

// SeqSource hands out strictly increasing sequence numbers.
// Implemented by Clock and by testutil.DeterministicClock.
type SeqSource interface {
	Next() int64
	Current() int64
}

// Clock is the dispatcher's logical clock. Each executed task receives
// the next value, so the journal can be ordered without wall-clock time.
//
// Safe for concurrent use.
type Clock struct {
	seq atomic.Int64
}

// NewClock returns a clock whose first Next is 1.
func NewClock() *Clock {
	return &Clock{}
}

// NewClockAt returns a clock resuming after start, so a journal can be
// appended to across process runs.
func NewClockAt(start int64) *Clock {
	c := &Clock{}
	c.seq.Store(start)
	return c
}

func (c *Clock) Next() int64 {
	return c.seq.Add(1)
}

func (c *Clock) Current() int64 {
	return c.seq.Load()
}
