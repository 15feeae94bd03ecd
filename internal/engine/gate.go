package engine

import (
	"context"
	"time"

	"github.com/roach88/coordsim/internal/event"
	"github.com/roach88/coordsim/internal/primitive"
)

// GateConfig parameterizes a Gate.
type GateConfig struct {
	// ReadDuration is the simulated work of one read.
	ReadDuration time.Duration `json:"read"`

	// WriteDuration is the simulated work of one write.
	WriteDuration time.Duration `json:"write"`
}

// Validate reports unusable settings.
func (c GateConfig) Validate() error {
	if c.ReadDuration < 0 || c.WriteDuration < 0 {
		return NewConfigError(event.EngineGate, "read and write durations must not be negative")
	}
	return nil
}

// Body is the work an actor performs while it holds the gate. It runs with
// no lock held.
type Body func(ctx context.Context) error

// Gate is a reader-preference reader/writer exclusion gate.
//
// The first reader in takes the writer token on behalf of every reader and
// the last reader out returns it. A writer waiting for the token can be
// passed indefinitely by a stream of readers.
type Gate struct {
	cfg       GateConfig
	active    *primitive.Counter
	writer    *primitive.TokenPool
	admission *primitive.TokenPool
	events    event.Emitter
}

// NewGate creates a gate reporting to events.
func NewGate(cfg GateConfig, events event.Emitter) (*Gate, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if events == nil {
		events = event.Discard
	}
	return &Gate{
		cfg:       cfg,
		active:    primitive.NewCounter("active_readers", 0),
		writer:    primitive.NewTokenPool("writer_gate", 1),
		admission: primitive.NewTokenPool("reader_admission_gate", 1),
		events:    events,
	}, nil
}

// Config returns the gate's settings.
func (g *Gate) Config() GateConfig {
	return g.cfg
}

// ActiveReaders returns the number of readers between entry and exit.
func (g *Gate) ActiveReaders() (int, error) {
	return g.active.Load()
}

// WriterStats returns the writer token pool counters.
func (g *Gate) WriterStats() primitive.PoolStats {
	return g.writer.Stats()
}

// AdmissionStats returns the reader admission pool counters.
func (g *Gate) AdmissionStats() primitive.PoolStats {
	return g.admission.Stats()
}

// Read performs one simulated read of ReadDuration.
func (g *Gate) Read(ctx context.Context, id int) error {
	return g.ReadWith(ctx, id, func(ctx context.Context) error {
		return sleep(ctx, g.cfg.ReadDuration)
	})
}

// Write performs one simulated write of WriteDuration.
func (g *Gate) Write(ctx context.Context, id int) error {
	return g.WriteWith(ctx, id, func(ctx context.Context) error {
		return sleep(ctx, g.cfg.WriteDuration)
	})
}

// ReadWith runs body as reader id. Any number of readers may run their
// bodies at the same time; none overlaps a writer's body.
func (g *Gate) ReadWith(ctx context.Context, id int, body Body) error {
	g.emit(event.KindReader, id, event.PhaseRequesting, 0)

	if err := g.admission.Acquire(ctx); err != nil {
		return classify(event.EngineGate, id, err)
	}
	err := g.active.With(func(readers *int) error {
		if *readers == 0 {
			if err := g.writer.Acquire(ctx); err != nil {
				return err
			}
		}
		*readers++
		g.emit(event.KindReader, id, event.PhaseActive, *readers)
		return nil
	})
	g.admission.Release(1)
	if err != nil {
		return classify(event.EngineGate, id, err)
	}

	bodyErr := body(ctx)

	err = g.active.With(func(readers *int) error {
		if *readers <= 0 {
			return NewUnderflowError(event.EngineGate, id, "active_readers")
		}
		g.emit(event.KindReader, id, event.PhaseDone, *readers-1)
		*readers--
		if *readers == 0 {
			g.writer.Release(1)
		}
		return nil
	})
	if err != nil {
		return classify(event.EngineGate, id, err)
	}
	return classify(event.EngineGate, id, bodyErr)
}

// WriteWith runs body as writer id with exclusive access.
func (g *Gate) WriteWith(ctx context.Context, id int, body Body) error {
	g.emit(event.KindWriter, id, event.PhaseRequesting, 0)

	if err := g.writer.Acquire(ctx); err != nil {
		return classify(event.EngineGate, id, err)
	}
	g.emit(event.KindWriter, id, event.PhaseActive, 0)

	bodyErr := body(ctx)

	g.emit(event.KindWriter, id, event.PhaseDone, 0)
	g.writer.Release(1)
	return classify(event.EngineGate, id, bodyErr)
}

func (g *Gate) emit(kind string, actor int, phase string, readers int) {
	g.events.Emit(event.Event{
		Engine:  event.EngineGate,
		Kind:    kind,
		Actor:   actor,
		Phase:   phase,
		Readers: readers,
	})
}
