package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/coordsim/internal/event"
	"github.com/roach88/coordsim/internal/sim"
	"github.com/roach88/coordsim/internal/store"
	"github.com/roach88/coordsim/internal/trace"
)

// TraceOptions holds flags for the trace command.
type TraceOptions struct {
	*RootOptions
	Database string
	Kind     string // optional - filter events to one actor kind
}

// TraceResult holds one stored run with its events.
type TraceResult struct {
	Run        store.Run     `json:"run"`
	Events     []event.Event `json:"events,omitempty"`
	Summary    trace.Summary `json:"summary"`
	Violations []string      `json:"violations,omitempty"`
}

// NewTraceCommand creates the trace command.
func NewTraceCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TraceOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "trace [run-id]",
		Short: "Inspect recorded runs",
		Long: `List the runs recorded in a database, or print the event log of one run.

With a run ID the events are printed in Seq order together with a summary
and the result of re-checking the run's safety properties. --format dot
renders the run as a Graphviz digraph with one lane per actor.

Examples:
  coordsim trace --db runs.db
  coordsim trace --db runs.db 0192f0c4-8a1e-7c3d-9f00-4b1a2c3d4e5f
  coordsim trace --db runs.db <run-id> --kind customer
  coordsim trace --db runs.db <run-id> --format dot | dot -Tsvg > run.svg`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				return listRuns(opts, cmd)
			}
			return runTrace(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (required)")
	_ = cmd.MarkFlagRequired("db")
	cmd.Flags().StringVar(&opts.Kind, "kind", "", "filter events to one actor kind (customer|provider|reader|writer)")

	return cmd
}

// openExisting opens a database that must already exist.
func openExisting(path string) (*store.Store, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, WrapExitError(ExitCommandError, "database not found", err)
	}
	st, err := store.Open(path)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to open database", err)
	}
	return st, nil
}

func listRuns(opts *TraceOptions, cmd *cobra.Command) error {
	if opts.Format == "dot" {
		return NewExitError(ExitCommandError, "format \"dot\" needs a run ID")
	}
	st, err := openExisting(opts.Database)
	if err != nil {
		return err
	}
	defer st.Close()

	runs, err := st.ListRuns(cmd.Context())
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to list runs", err)
	}

	if opts.Format == "json" {
		out := &OutputFormatter{Format: "json", Writer: cmd.OutOrStdout()}
		return out.Encode(CLIResponse{Status: "ok", Data: runs})
	}

	w := cmd.OutOrStdout()
	if len(runs) == 0 {
		fmt.Fprintln(w, "No runs recorded.")
		return nil
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tENGINE\tSTATUS\tEVENTS\tSTARTED\tELAPSED")
	for _, r := range runs {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%s\t%s\n",
			r.ID, r.Engine, r.Status, r.Events,
			r.StartedAt.Local().Format(time.DateTime), r.Elapsed.Truncate(time.Millisecond))
	}
	return tw.Flush()
}

func runTrace(opts *TraceOptions, runID string, cmd *cobra.Command) error {
	ctx := cmd.Context()

	st, err := openExisting(opts.Database)
	if err != nil {
		return err
	}
	defer st.Close()

	result, err := loadTrace(ctx, st, runID)
	if errors.Is(err, store.ErrNotFound) {
		return WrapExitError(ExitCommandError, "unknown run", err)
	}
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read run", err)
	}
	if opts.Kind != "" {
		result.Events = filterKind(result.Events, opts.Kind)
	}

	switch opts.Format {
	case "dot":
		dot, err := trace.RenderDOT(result.Run.ID, result.Events)
		if err != nil {
			return WrapExitError(ExitFailure, "failed to render graph", err)
		}
		_, err = io.WriteString(cmd.OutOrStdout(), dot)
		return err
	case "json":
		out := &OutputFormatter{Format: "json", Writer: cmd.OutOrStdout()}
		return out.Encode(CLIResponse{Status: "ok", Data: result, RunID: result.Run.ID})
	}

	outputTraceText(cmd.OutOrStdout(), result, opts.Verbose)
	return nil
}

// loadTrace reads a run, its events and re-checks its properties.
func loadTrace(ctx context.Context, st *store.Store, runID string) (TraceResult, error) {
	run, err := st.ReadRun(ctx, runID)
	if err != nil {
		return TraceResult{}, err
	}
	events, err := st.ReadEvents(ctx, runID)
	if err != nil {
		return TraceResult{}, err
	}

	result := TraceResult{
		Run:     run,
		Events:  events,
		Summary: trace.Summarize(events),
	}
	if run.Status == sim.StatusOK {
		for _, err := range storedChecks(run, events) {
			result.Violations = append(result.Violations, err.Error())
		}
	}
	return result, nil
}

// storedChecks evaluates the safety properties of a recorded run.
func storedChecks(run store.Run, events []event.Event) []error {
	var errs []error
	add := func(err error) {
		if err != nil {
			errs = append(errs, err)
		}
	}

	add(trace.CheckTokenBalance(run.Pools...))
	switch run.Engine {
	case event.EngineWaitingRoom:
		var p sim.WaitingRoomParams
		if err := json.Unmarshal(run.Params, &p); err != nil {
			add(fmt.Errorf("decode params: %w", err))
			break
		}
		add(trace.CheckWaitingBound(events, p.Chairs))
		add(trace.CheckArrivalsAccounted(events))
		add(trace.CheckNoIdleService(events))
	case event.EngineGate:
		add(trace.CheckExclusion(events))
	}
	return errs
}

func filterKind(events []event.Event, kind string) []event.Event {
	out := []event.Event{}
	for _, e := range events {
		if e.Kind == kind {
			out = append(out, e)
		}
	}
	return out
}

// outputTraceText outputs the trace result as text.
func outputTraceText(w io.Writer, result TraceResult, verbose bool) {
	r := result.Run
	fmt.Fprintf(w, "Trace for Run: %s\n", r.ID)
	fmt.Fprintf(w, "Engine: %s  Status: %s  Elapsed: %s\n", r.Engine, r.Status, r.Elapsed)
	if r.Error != "" {
		fmt.Fprintf(w, "Error: %s\n", r.Error)
	}
	if verbose {
		fmt.Fprintf(w, "Params: %s\n", r.Params)
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "=== Timeline ===")
	if len(result.Events) == 0 {
		fmt.Fprintln(w, "  (no events)")
	}
	for _, e := range result.Events {
		fmt.Fprintf(w, "  [%d] %8s  %s\n", e.Seq, e.At.Truncate(time.Millisecond), event.Describe(e))
	}
	fmt.Fprintln(w)

	s := result.Summary
	fmt.Fprintln(w, "=== Stats ===")
	fmt.Fprintf(w, "  Total Events: %d\n", s.Events)
	switch r.Engine {
	case event.EngineWaitingRoom:
		fmt.Fprintf(w, "  Arrivals:     %d\n", s.Arrivals)
		fmt.Fprintf(w, "  Admitted:     %d\n", s.Admitted)
		fmt.Fprintf(w, "  Rejected:     %d\n", s.Rejected)
		fmt.Fprintf(w, "  Serviced:     %d\n", s.Serviced)
		fmt.Fprintf(w, "  Max Waiting:  %d\n", s.MaxWaiting)
	case event.EngineGate:
		fmt.Fprintf(w, "  Reads:        %d\n", s.Reads)
		fmt.Fprintf(w, "  Writes:       %d\n", s.Writes)
		fmt.Fprintf(w, "  Max Readers:  %d\n", s.MaxReaders)
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "=== Properties ===")
	switch {
	case r.Status != sim.StatusOK:
		fmt.Fprintln(w, "  (not checked: run failed)")
	case len(result.Violations) == 0:
		fmt.Fprintln(w, "  ✓ all properties hold")
	default:
		for _, v := range result.Violations {
			fmt.Fprintf(w, "  ✗ %s\n", v)
		}
	}
}
