package primitive

import (
	"errors"
	"fmt"
	"sync"
)

// ErrPoisoned is returned by a Counter whose previous holder panicked inside
// its critical section.
var ErrPoisoned = errors.New("counter poisoned by a panicking holder")

// Counter is an integer guarded by a mutual-exclusion lock.
//
// The value is only reachable through With and Load, so every
// read-modify-write happens inside one exclusion scope.
type Counter struct {
	name string

	mu       sync.Mutex
	value    int
	poisoned bool
}

// NewCounter creates a counter holding initial.
func NewCounter(name string, initial int) *Counter {
	return &Counter{name: name, value: initial}
}

// With runs fn with exclusive access to the counter's value.
//
// fn may block (for example on a TokenPool) while holding the exclusion; other
// callers of With suspend until it returns. The error returned by fn is
// passed through unchanged.
//
// If fn panics the counter is poisoned, the lock is released and the panic
// keeps unwinding the calling goroutine.
func (c *Counter) With(fn func(v *int) error) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.poisoned {
		return c.poisonedErr()
	}

	completed := false
	defer func() {
		if !completed {
			c.poisoned = true
		}
	}()

	err := fn(&c.value)
	completed = true
	return err
}

// Load returns the current value read under the exclusion.
func (c *Counter) Load() (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.poisoned {
		return 0, c.poisonedErr()
	}
	return c.value, nil
}

func (c *Counter) poisonedErr() error {
	return fmt.Errorf("%s: %w", c.name, ErrPoisoned)
}
