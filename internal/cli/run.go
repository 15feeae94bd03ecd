package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/roach88/coordsim/internal/engine"
	"github.com/roach88/coordsim/internal/event"
	"github.com/roach88/coordsim/internal/sim"
	"github.com/roach88/coordsim/internal/store"
	"github.com/roach88/coordsim/internal/trace"
)

// RunOptions holds the flags shared by the simulation commands.
type RunOptions struct {
	*RootOptions
	Profile  string
	Database string

	// IDGenerator allows overriding the run ID generator (for testing).
	// If nil, defaults to UUIDv7Generator.
	IDGenerator sim.IDGenerator
}

// RunResult is the JSON payload of a simulation command.
type RunResult struct {
	Run        *sim.Report   `json:"run"`
	Summary    trace.Summary `json:"summary"`
	Violations []string      `json:"violations,omitempty"`
}

// simulation runs one engine with the resolved settings.
type simulation func(ctx context.Context, opts ...sim.Option) (*sim.Report, error)

// propertyCheck verifies a finished run.
type propertyCheck func(report *sim.Report) error

func addRunFlags(cmd *cobra.Command, opts *RunOptions) {
	cmd.Flags().StringVar(&opts.Profile, "profile", "", "CUE profile overriding the built-in defaults")
	cmd.Flags().StringVar(&opts.Database, "db", "", "SQLite database to record the run in")
}

// executeRun runs a simulation, streams its events, checks its properties
// and optionally records it.
//
// Exit codes: a configuration error is ExitCommandError; a failed run or a
// violated property is ExitFailure. A run that fails part way is still
// recorded.
func executeRun(cmd *cobra.Command, opts *RunOptions, run simulation, checks ...propertyCheck) error {
	out := NewOutputFormatter(opts.RootOptions, cmd.OutOrStdout(), cmd.ErrOrStderr())

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	simOpts := []sim.Option{sim.WithSink(event.NewSlogSink(nil))}
	if opts.IDGenerator != nil {
		simOpts = append(simOpts, sim.WithIDGenerator(opts.IDGenerator))
	}
	if !out.JSON() {
		colour := !opts.NoColour && !color.NoColor
		simOpts = append(simOpts, sim.WithSink(event.NewConsoleSink(cmd.OutOrStdout(), colour, opts.Verbose)))
	}

	report, runErr := run(ctx, simOpts...)
	if report == nil {
		if engine.IsConfigError(runErr) {
			_ = reportError(out, CodeInvalidConfig, runErr)
			return WrapExitError(ExitCommandError, "invalid settings", runErr)
		}
		return WrapExitError(ExitFailure, "run failed", runErr)
	}

	result := RunResult{Run: report, Summary: trace.Summarize(report.Events)}
	if runErr == nil {
		for _, check := range checks {
			if err := check(report); err != nil {
				result.Violations = append(result.Violations, err.Error())
			}
		}
	}

	if opts.Database != "" {
		if err := persistRun(context.WithoutCancel(ctx), opts.Database, report); err != nil {
			_ = reportError(out, CodeStore, err)
			return WrapExitError(ExitCommandError, "failed to record run", err)
		}
		out.VerboseLog("recorded run %s in %s", report.ID, opts.Database)
	}

	if out.JSON() {
		resp := CLIResponse{Status: "ok", Data: result, RunID: report.ID}
		if runErr != nil || len(result.Violations) > 0 {
			resp.Status = "error"
		}
		if err := out.Encode(resp); err != nil {
			return err
		}
	} else {
		writeRunText(cmd.OutOrStdout(), result)
	}

	switch {
	case runErr != nil:
		return WrapExitError(ExitFailure, "run failed", runErr)
	case len(result.Violations) > 0:
		return NewExitError(ExitFailure, fmt.Sprintf("%d property check(s) failed", len(result.Violations)))
	}
	return nil
}

func reportError(out *OutputFormatter, code string, err error) error {
	if !out.JSON() {
		return nil
	}
	var details any
	var rerr *engine.RuntimeError
	if errors.As(err, &rerr) {
		details = map[string]any{"code": rerr.Code, "engine": rerr.Engine}
	}
	return out.Error(code, err.Error(), details)
}

func persistRun(ctx context.Context, path string, report *sim.Report) error {
	st, err := store.Open(path)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := st.Close(); closeErr != nil {
			slog.Error("error closing database", "error", closeErr)
		}
	}()

	run, err := store.RunFromReport(report)
	if err != nil {
		return err
	}
	return st.WriteRun(ctx, run, report.Events)
}

func writeRunText(w io.Writer, result RunResult) {
	r := result.Run
	fmt.Fprintln(w)
	fmt.Fprintf(w, "Run %s (%s): %s after %s, %d events\n", r.ID, r.Engine, r.Status, r.Elapsed, len(r.Events))
	if r.Error != "" {
		fmt.Fprintf(w, "  Error: %s\n", r.Error)
	}

	s := result.Summary
	switch r.Engine {
	case event.EngineWaitingRoom:
		fmt.Fprintf(w, "  Arrivals: %d  Admitted: %d  Rejected: %d  Serviced: %d  Max waiting: %d\n",
			s.Arrivals, s.Admitted, s.Rejected, s.Serviced, s.MaxWaiting)
	case event.EngineGate:
		fmt.Fprintf(w, "  Reads: %d  Writes: %d  Max concurrent readers: %d\n",
			s.Reads, s.Writes, s.MaxReaders)
	}
	for _, p := range r.Pools {
		fmt.Fprintf(w, "  Pool %s: capacity=%d acquired=%d released=%d dropped=%d\n",
			p.Name, p.Capacity, p.Acquired, p.Released, p.Dropped)
	}
	for _, v := range result.Violations {
		fmt.Fprintf(w, "  ✗ %s\n", v)
	}
}
