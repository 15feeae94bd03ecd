package sim

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/roach88/coordsim/internal/engine"
	"github.com/roach88/coordsim/internal/event"
	"github.com/roach88/coordsim/internal/primitive"
)

// Status values of a finished run.
const (
	StatusOK     = "ok"
	StatusFailed = "failed"
)

// WaitingRoomParams describes a waiting-room run.
type WaitingRoomParams struct {
	engine.WaitingRoomConfig

	// ArrivalInterval spaces arrivals: customer i arrives i intervals after
	// the run starts.
	ArrivalInterval time.Duration `json:"arrival_interval"`
}

// GateParams describes a gate run.
type GateParams struct {
	engine.GateConfig

	Readers int `json:"readers"`
	Writers int `json:"writers"`

	// Stagger delays reader i and writer i by i*Stagger. Zero starts every
	// actor at once.
	Stagger time.Duration `json:"stagger"`
}

// Report is the outcome of one run.
type Report struct {
	ID        string                `json:"id"`
	Engine    string                `json:"engine"`
	StartedAt time.Time             `json:"started_at"`
	Elapsed   time.Duration         `json:"elapsed"` // offset of the last event
	Status    string                `json:"status"`
	Error     string                `json:"error,omitempty"`
	Params    any                   `json:"params"`
	Events    []event.Event         `json:"events"`
	Pools     []primitive.PoolStats `json:"pools"`

	// Admissions maps each customer to its admission outcome. Only set for
	// waiting-room runs.
	Admissions map[int]string `json:"admissions,omitempty"`
}

// Option configures a run.
type Option func(*runner)

type runner struct {
	ids     IDGenerator
	logOpts []event.Option
}

// WithSink forwards every event of the run to s as it is recorded.
func WithSink(s event.Sink) Option {
	return func(r *runner) {
		r.logOpts = append(r.logOpts, event.WithSink(s))
	}
}

// WithIDGenerator replaces the UUIDv7 run ID generator.
func WithIDGenerator(g IDGenerator) Option {
	return func(r *runner) {
		r.ids = g
	}
}

// WithNow replaces the wall clock used for event offsets.
func WithNow(now func() time.Time) Option {
	return func(r *runner) {
		r.logOpts = append(r.logOpts, event.WithNow(now))
	}
}

func newRunner(opts []Option) *runner {
	r := &runner{ids: UUIDv7Generator{}}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// RunWaitingRoom runs one provider and p.Customers staggered customers to
// completion.
//
// The returned Report is never nil once the engine was constructed, even
// when the run fails; it then carries the events recorded before the
// failure and Status "failed".
func RunWaitingRoom(ctx context.Context, p WaitingRoomParams, opts ...Option) (*Report, error) {
	r := newRunner(opts)
	log := event.NewLog(r.logOpts...)

	room, err := engine.NewWaitingRoom(p.WaitingRoomConfig, log)
	if err != nil {
		return nil, err
	}

	report := &Report{
		ID:         r.ids.Generate(),
		Engine:     event.EngineWaitingRoom,
		StartedAt:  log.Started(),
		Params:     p,
		Admissions: make(map[int]string, p.Customers),
	}
	slog.Info("run starting", "id", report.ID, "engine", report.Engine,
		"chairs", p.Chairs, "customers", p.Customers)

	outcomes := make([]engine.Admission, p.Customers+1)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return room.Serve(gctx)
	})
	for id := 1; id <= p.Customers; id++ {
		g.Go(func() error {
			if err := delay(gctx, time.Duration(id)*p.ArrivalInterval); err != nil {
				return err
			}
			a, err := room.Arrive(gctx, id)
			if err != nil {
				return err
			}
			outcomes[id] = a
			return nil
		})
	}
	runErr := g.Wait()

	for id := 1; id <= p.Customers; id++ {
		if outcomes[id] != 0 {
			report.Admissions[id] = outcomes[id].String()
		}
	}
	report.Pools = []primitive.PoolStats{room.ChairStats()}
	return finish(report, log, runErr)
}

// RunGate runs p.Readers readers and p.Writers writers against one gate.
func RunGate(ctx context.Context, p GateParams, opts ...Option) (*Report, error) {
	if p.Readers < 0 || p.Writers < 0 {
		return nil, engine.NewConfigError(event.EngineGate, "reader and writer counts must not be negative")
	}
	if p.Stagger < 0 {
		return nil, engine.NewConfigError(event.EngineGate, "stagger must not be negative")
	}

	r := newRunner(opts)
	log := event.NewLog(r.logOpts...)

	gate, err := engine.NewGate(p.GateConfig, log)
	if err != nil {
		return nil, err
	}

	report := &Report{
		ID:        r.ids.Generate(),
		Engine:    event.EngineGate,
		StartedAt: log.Started(),
		Params:    p,
	}
	slog.Info("run starting", "id", report.ID, "engine", report.Engine,
		"readers", p.Readers, "writers", p.Writers)

	g, gctx := errgroup.WithContext(ctx)
	for id := 1; id <= p.Readers; id++ {
		g.Go(func() error {
			if err := delay(gctx, time.Duration(id)*p.Stagger); err != nil {
				return err
			}
			return gate.Read(gctx, id)
		})
	}
	for id := 1; id <= p.Writers; id++ {
		g.Go(func() error {
			if err := delay(gctx, time.Duration(id)*p.Stagger); err != nil {
				return err
			}
			return gate.Write(gctx, id)
		})
	}
	runErr := g.Wait()

	report.Pools = []primitive.PoolStats{gate.WriterStats(), gate.AdmissionStats()}
	return finish(report, log, runErr)
}

func finish(report *Report, log *event.Log, runErr error) (*Report, error) {
	report.Events = log.Events()
	if n := len(report.Events); n > 0 {
		report.Elapsed = report.Events[n-1].At
	}
	report.Status = StatusOK
	if runErr != nil {
		report.Status = StatusFailed
		report.Error = runErr.Error()
		slog.Error("run failed", "id", report.ID, "engine", report.Engine, "error", runErr)
		return report, runErr
	}
	slog.Info("run finished", "id", report.ID, "engine", report.Engine,
		"events", len(report.Events), "elapsed", report.Elapsed)
	return report, nil
}

// delay waits d before an actor starts. A cancelled wait is reported as a
// cancelled run.
func delay(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return &engine.RuntimeError{
			Code:    engine.ErrCodeCancelled,
			Message: "run cancelled before actor started",
			Err:     ctx.Err(),
		}
	}
}
