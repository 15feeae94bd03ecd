package engine

import (
	"context"
	"time"
)

// wakeSignal is a coalescing notification: any number of Notify calls
// between two waits wake the waiter once.
type wakeSignal struct {
	ch chan struct{} // buffered, size 1
}

func newWakeSignal() *wakeSignal {
	return &wakeSignal{ch: make(chan struct{}, 1)}
}

// Notify never blocks.
func (s *wakeSignal) Notify() {
	select {
	case s.ch <- struct{}{}:
	default:
	}
}

// Wait suspends until Notify is called, d elapses or ctx ends.
// It reports whether the wake came from Notify.
func (s *wakeSignal) Wait(ctx context.Context, d time.Duration) (bool, error) {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-s.ch:
		return true, nil
	case <-timer.C:
		return false, nil
	case <-ctx.Done():
		return false, ctx.Err()
	}
}

// sleep suspends for d unless ctx ends first.
func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
