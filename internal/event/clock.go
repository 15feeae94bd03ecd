package event

import "sync/atomic"

// Clock is a monotonic logical clock used to order events.
//
// Every event in a Log is stamped with a strictly increasing Seq from this
// clock. Seq, not wall time, is the ordering used by property checks: two
// events stamped in the same nanosecond still have a defined order.
//
// Clock is safe for concurrent use.
type Clock struct {
	seq atomic.Int64
}

// NewClock creates a clock starting at 0. The first call to Next returns 1.
func NewClock() *Clock {
	return &Clock{}
}

// Next returns the next sequence number.
func (c *Clock) Next() int64 {
	return c.seq.Add(1)
}
