package harness

import (
	"context"
	"fmt"
	"time"

	"github.com/roach88/coordsim/internal/config"
	"github.com/roach88/coordsim/internal/event"
	"github.com/roach88/coordsim/internal/sim"
	"github.com/roach88/coordsim/internal/trace"
)

// Run executes a scenario against the real engine and evaluates its
// assertions.
//
// Settings start from config.Defaults and take the scenario's overrides.
// The run ID is fixed to the scenario name. A run that fails with a
// runtime error, or times out, yields a failed Result rather than an
// error; invalid settings are returned as errors.
func Run(ctx context.Context, scenario *Scenario, opts ...sim.Option) (*Result, error) {
	settings := config.Defaults()

	timeout := DefaultTimeout
	if scenario.Timeout != nil {
		timeout = time.Duration(*scenario.Timeout)
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	opts = append([]sim.Option{sim.WithIDGenerator(sim.NewFixedGenerator(scenario.Name))}, opts...)

	var (
		report *sim.Report
		runErr error
		actx   AssertionContext
	)
	switch scenario.Engine {
	case event.EngineWaitingRoom:
		scenario.WaitingRoom.Apply(&settings.WaitingRoom)
		actx.Chairs = settings.WaitingRoom.Chairs
		report, runErr = sim.RunWaitingRoom(ctx, settings.WaitingRoom, opts...)
	case event.EngineGate:
		scenario.Gate.Apply(&settings.Gate)
		actx.Readers = settings.Gate.Readers
		actx.Writers = settings.Gate.Writers
		report, runErr = sim.RunGate(ctx, settings.Gate, opts...)
	default:
		return nil, fmt.Errorf("scenario %s: unknown engine %q", scenario.Name, scenario.Engine)
	}
	if report == nil {
		return nil, fmt.Errorf("scenario %s: %w", scenario.Name, runErr)
	}

	result := NewResult()
	result.Report = report
	result.Events = report.Events
	result.Summary = trace.Summarize(report.Events)
	if runErr != nil {
		result.AddError(fmt.Sprintf("run failed: %v", runErr))
	}

	actx.Pools = report.Pools
	for _, msg := range EvaluateAssertions(result, scenario.Assertions, actx) {
		result.AddError(msg)
	}
	return result, nil
}
