package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/roach88/coordsim/internal/config"
	"github.com/roach88/coordsim/internal/sim"
	"github.com/roach88/coordsim/internal/trace"
)

// NewGateCommand creates the gate command.
func NewGateCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RunOptions{RootOptions: rootOpts}
	defaults := config.Defaults().Gate

	cmd := &cobra.Command{
		Use:     "gate",
		Aliases: []string{"rw"},
		Short:   "Simulate the reader/writer exclusion gate",
		Long: `Run readers and writers against one exclusion gate. Readers share the
gate with each other; a writer holds it alone.

Settings are resolved as built-in defaults, then --profile, then
COORDSIM_* environment variables, then flags given on the command line.

Examples:
  coordsim gate
  coordsim rw --readers 10 --writers 3 --stagger 100ms
  coordsim gate --read 50ms --write 200ms --db runs.db`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			params, err := resolveGate(cmd, opts)
			if err != nil {
				return err
			}
			run := func(ctx context.Context, simOpts ...sim.Option) (*sim.Report, error) {
				return sim.RunGate(ctx, params, simOpts...)
			}
			return executeRun(cmd, opts, run, gateChecks()...)
		},
	}

	cmd.Flags().Int("readers", defaults.Readers, "number of readers")
	cmd.Flags().Int("writers", defaults.Writers, "number of writers")
	cmd.Flags().Duration("read", defaults.ReadDuration, "duration of one read")
	cmd.Flags().Duration("write", defaults.WriteDuration, "duration of one write")
	cmd.Flags().Duration("stagger", defaults.Stagger, "delay between successive actor starts")
	addRunFlags(cmd, opts)

	return cmd
}

func resolveGate(cmd *cobra.Command, opts *RunOptions) (sim.GateParams, error) {
	settings, err := config.LoadSettings(opts.Profile)
	if err != nil {
		return sim.GateParams{}, WrapExitError(ExitCommandError, "failed to load profile", err)
	}
	p := settings.Gate

	r, err := newSettingsResolver(cmd.Flags(), map[string]any{
		"readers": p.Readers,
		"writers": p.Writers,
		"read":    p.ReadDuration,
		"write":   p.WriteDuration,
		"stagger": p.Stagger,
	})
	if err != nil {
		return sim.GateParams{}, WrapExitError(ExitCommandError, "failed to resolve settings", err)
	}

	p.Readers = r.int("readers")
	p.Writers = r.int("writers")
	p.ReadDuration = r.duration("read")
	p.WriteDuration = r.duration("write")
	p.Stagger = r.duration("stagger")
	if r.err != nil {
		return sim.GateParams{}, WrapExitError(ExitCommandError, "invalid settings", r.err)
	}
	return p, nil
}

func gateChecks() []propertyCheck {
	return []propertyCheck{
		func(r *sim.Report) error { return trace.CheckExclusion(r.Events) },
		func(r *sim.Report) error { return trace.CheckTokenBalance(r.Pools...) },
	}
}
