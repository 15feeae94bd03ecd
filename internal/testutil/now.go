package testutil

import (
	"sync"
	"time"
)

// SteppingNow is a wall clock for tests that advances by a fixed step on
// every reading.
//
// Passed to event.WithNow it makes At offsets a pure function of the
// emission order, so logs can be compared against golden files.
//
// Thread-safety: All methods are safe for concurrent use via internal mutex.
type SteppingNow struct {
	mu   sync.Mutex
	now  time.Time
	step time.Duration
}

// NewSteppingNow creates a clock whose first reading is start.
func NewSteppingNow(start time.Time, step time.Duration) *SteppingNow {
	return &SteppingNow{now: start, step: step}
}

// Now returns the current reading and advances the clock by one step.
func (c *SteppingNow) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := c.now
	c.now = c.now.Add(c.step)
	return t
}

// Reset moves the clock back to start.
//
// Used for test reuse. After Reset(), the next call to Now() returns start.
func (c *SteppingNow) Reset(start time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = start
}
