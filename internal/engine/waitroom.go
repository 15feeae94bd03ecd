package engine

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/roach88/coordsim/internal/event"
	"github.com/roach88/coordsim/internal/primitive"
)

// Admission is the outcome of an arrival.
type Admission int

const (
	// Admitted means the customer took a chair in the waiting room.
	Admitted Admission = iota + 1
	// Rejected means every chair was taken and the customer left.
	Rejected
)

// String returns the admission name.
func (a Admission) String() string {
	switch a {
	case Admitted:
		return "admitted"
	case Rejected:
		return "rejected"
	}
	return "unknown"
}

// WaitingRoomConfig parameterizes a WaitingRoom.
type WaitingRoomConfig struct {
	// Chairs is the number of waiting slots.
	Chairs int `json:"chairs"`

	// Customers is the total number of expected arrivals. It seeds the
	// remaining-customer counter that ends the provider loop.
	Customers int `json:"customers"`

	// ServiceDuration is the simulated work per customer.
	ServiceDuration time.Duration `json:"service"`

	// IdlePoll bounds how long an idle provider sleeps before rechecking
	// the room. An arrival that finds the room empty wakes it earlier.
	IdlePoll time.Duration `json:"idle_poll"`

	// Threshold is the remaining-customer count at which the provider stops.
	Threshold int `json:"threshold"`
}

// Validate reports unusable settings.
func (c WaitingRoomConfig) Validate() error {
	switch {
	case c.Chairs < 1:
		return NewConfigError(event.EngineWaitingRoom, "chairs must be at least 1")
	case c.Customers < 0:
		return NewConfigError(event.EngineWaitingRoom, "customers must not be negative")
	case c.ServiceDuration < 0:
		return NewConfigError(event.EngineWaitingRoom, "service duration must not be negative")
	case c.IdlePoll <= 0:
		return NewConfigError(event.EngineWaitingRoom, "idle poll interval must be positive")
	case c.Threshold < 0 || c.Threshold > c.Customers:
		return NewConfigError(event.EngineWaitingRoom, "threshold must be between 0 and customers")
	}
	return nil
}

// WaitingRoom is the admission-controlled waiting room: many customers
// compete for a fixed number of chairs and a single provider drains them.
//
// The waiting count and the chair pool only change together inside the
// waiting counter's exclusion scope: an arrival takes a chair token when it
// sits down and the provider returns it when it calls the customer in. The
// pool therefore always holds exactly waiting tokens.
type WaitingRoom struct {
	cfg       WaitingRoomConfig
	waiting   *primitive.Counter
	remaining *primitive.Counter
	chairs    *primitive.TokenPool
	wake      *wakeSignal
	events    event.Emitter
}

// NewWaitingRoom creates a waiting room reporting to events.
func NewWaitingRoom(cfg WaitingRoomConfig, events event.Emitter) (*WaitingRoom, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if events == nil {
		events = event.Discard
	}
	return &WaitingRoom{
		cfg:       cfg,
		waiting:   primitive.NewCounter("customers_waiting", 0),
		remaining: primitive.NewCounter("remaining_customers", cfg.Customers),
		chairs:    primitive.NewTokenPool("chairs", cfg.Chairs),
		wake:      newWakeSignal(),
		events:    events,
	}, nil
}

// Config returns the room's settings.
func (w *WaitingRoom) Config() WaitingRoomConfig {
	return w.cfg
}

// ChairStats returns the chair pool counters.
func (w *WaitingRoom) ChairStats() primitive.PoolStats {
	return w.chairs.Stats()
}

// Waiting returns the current waiting count.
func (w *WaitingRoom) Waiting() (int, error) {
	return w.waiting.Load()
}

// Remaining returns the number of customers not yet served or turned away.
func (w *WaitingRoom) Remaining() (int, error) {
	return w.remaining.Load()
}

// Arrive admits customer id if a chair is free and rejects it otherwise.
//
// An admitted customer takes a chair token inside the exclusion scope. The
// token count matches the waiting count, so the take never blocks and Arrive
// never waits for a service in progress.
func (w *WaitingRoom) Arrive(ctx context.Context, id int) (Admission, error) {
	if err := ctx.Err(); err != nil {
		return 0, classify(event.EngineWaitingRoom, id, err)
	}

	var outcome Admission
	err := w.waiting.With(func(waiting *int) error {
		w.emit(event.KindCustomer, id, event.PhaseArrived, *waiting)

		if *waiting >= w.cfg.Chairs {
			if err := w.remaining.With(func(left *int) error {
				if *left <= 0 {
					return NewUnderflowError(event.EngineWaitingRoom, id, "remaining_customers")
				}
				*left--
				return nil
			}); err != nil {
				return err
			}
			outcome = Rejected
			w.emit(event.KindCustomer, id, event.PhaseRejected, *waiting)
			w.wake.Notify()
			return nil
		}

		if !w.chairs.TryAcquire() {
			return NewInvariantError(event.EngineWaitingRoom, id,
				fmt.Sprintf("no chair token with %d of %d chairs taken", *waiting, w.cfg.Chairs))
		}
		*waiting++
		outcome = Admitted
		w.emit(event.KindCustomer, id, event.PhaseAdmitted, *waiting)
		if *waiting == 1 {
			w.emit(event.KindCustomer, id, event.PhaseWokeProvider, *waiting)
			w.wake.Notify()
		}
		return nil
	})
	if err != nil {
		return 0, classify(event.EngineWaitingRoom, id, err)
	}
	return outcome, nil
}

// Serve runs the provider loop until the remaining-customer count reaches
// the terminal threshold. It must be called from exactly one goroutine.
func (w *WaitingRoom) Serve(ctx context.Context) error {
	slog.Debug("provider starting", "chairs", w.cfg.Chairs, "customers", w.cfg.Customers)

	for {
		serving := false
		err := w.waiting.With(func(waiting *int) error {
			if *waiting == 0 {
				return nil
			}
			*waiting--
			w.chairs.Release(1)
			serving = true
			w.emit(event.KindProvider, 0, event.PhaseServicing, *waiting)
			return nil
		})
		if err != nil {
			return classify(event.EngineWaitingRoom, 0, err)
		}

		if !serving {
			done, err := w.finished()
			if err != nil {
				return err
			}
			if done {
				w.emit(event.KindProvider, 0, event.PhaseProviderDone, 0)
				slog.Debug("provider stopping: threshold reached")
				return nil
			}
			w.emit(event.KindProvider, 0, event.PhaseIdle, 0)
			if _, err := w.wake.Wait(ctx, w.cfg.IdlePoll); err != nil {
				return classify(event.EngineWaitingRoom, 0, err)
			}
			continue
		}

		// No lock is held while the customer is served.
		if err := sleep(ctx, w.cfg.ServiceDuration); err != nil {
			return classify(event.EngineWaitingRoom, 0, err)
		}
		w.emit(event.KindProvider, 0, event.PhaseServiced, 0)

		if err := w.remaining.With(func(left *int) error {
			if *left <= 0 {
				return NewUnderflowError(event.EngineWaitingRoom, 0, "remaining_customers")
			}
			*left--
			return nil
		}); err != nil {
			return classify(event.EngineWaitingRoom, 0, err)
		}

		done, err := w.finished()
		if err != nil {
			return err
		}
		if done {
			w.emit(event.KindProvider, 0, event.PhaseProviderDone, 0)
			slog.Debug("provider stopping: threshold reached")
			return nil
		}
	}
}

func (w *WaitingRoom) finished() (bool, error) {
	left, err := w.remaining.Load()
	if err != nil {
		return false, classify(event.EngineWaitingRoom, 0, err)
	}
	return left <= w.cfg.Threshold, nil
}

func (w *WaitingRoom) emit(kind string, actor int, phase string, waiting int) {
	w.events.Emit(event.Event{
		Engine:  event.EngineWaitingRoom,
		Kind:    kind,
		Actor:   actor,
		Phase:   phase,
		Waiting: waiting,
	})
}
