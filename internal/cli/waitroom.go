package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/roach88/coordsim/internal/config"
	"github.com/roach88/coordsim/internal/sim"
	"github.com/roach88/coordsim/internal/trace"
)

// NewWaitingRoomCommand creates the waitroom command.
func NewWaitingRoomCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RunOptions{RootOptions: rootOpts}
	defaults := config.Defaults().WaitingRoom

	cmd := &cobra.Command{
		Use:     "waitroom",
		Aliases: []string{"barber"},
		Short:   "Simulate the admission-controlled waiting room",
		Long: `Run one provider and a stream of customers through a waiting room with a
fixed number of chairs. Customers that find every chair taken leave; the
provider sleeps while the room is empty and stops once every customer has
been accounted for.

Settings are resolved as built-in defaults, then --profile, then
COORDSIM_* environment variables, then flags given on the command line.

Examples:
  coordsim waitroom
  coordsim barber --chairs 2 --customers 10 --service 500ms
  coordsim waitroom --profile fast.cue --db runs.db
  COORDSIM_IDLE_POLL=250ms coordsim waitroom --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			params, err := resolveWaitingRoom(cmd, opts)
			if err != nil {
				return err
			}
			run := func(ctx context.Context, simOpts ...sim.Option) (*sim.Report, error) {
				return sim.RunWaitingRoom(ctx, params, simOpts...)
			}
			return executeRun(cmd, opts, run, waitingRoomChecks(params)...)
		},
	}

	cmd.Flags().Int("chairs", defaults.Chairs, "number of waiting chairs")
	cmd.Flags().Int("customers", defaults.Customers, "number of customers that arrive")
	cmd.Flags().Duration("service", defaults.ServiceDuration, "time to serve one customer")
	cmd.Flags().Duration("idle-poll", defaults.IdlePoll, "longest provider sleep while the room is empty")
	cmd.Flags().Duration("arrival-interval", defaults.ArrivalInterval, "time between arrivals")
	cmd.Flags().Int("threshold", defaults.Threshold, "remaining-customer count at which the provider stops")
	addRunFlags(cmd, opts)

	return cmd
}

func resolveWaitingRoom(cmd *cobra.Command, opts *RunOptions) (sim.WaitingRoomParams, error) {
	settings, err := config.LoadSettings(opts.Profile)
	if err != nil {
		return sim.WaitingRoomParams{}, WrapExitError(ExitCommandError, "failed to load profile", err)
	}
	p := settings.WaitingRoom

	r, err := newSettingsResolver(cmd.Flags(), map[string]any{
		"chairs":           p.Chairs,
		"customers":        p.Customers,
		"service":          p.ServiceDuration,
		"idle-poll":        p.IdlePoll,
		"arrival-interval": p.ArrivalInterval,
		"threshold":        p.Threshold,
	})
	if err != nil {
		return sim.WaitingRoomParams{}, WrapExitError(ExitCommandError, "failed to resolve settings", err)
	}

	p.Chairs = r.int("chairs")
	p.Customers = r.int("customers")
	p.ServiceDuration = r.duration("service")
	p.IdlePoll = r.duration("idle-poll")
	p.ArrivalInterval = r.duration("arrival-interval")
	p.Threshold = r.int("threshold")
	if r.err != nil {
		return sim.WaitingRoomParams{}, WrapExitError(ExitCommandError, "invalid settings", r.err)
	}
	return p, nil
}

func waitingRoomChecks(p sim.WaitingRoomParams) []propertyCheck {
	return []propertyCheck{
		func(r *sim.Report) error { return trace.CheckWaitingBound(r.Events, p.Chairs) },
		func(r *sim.Report) error { return trace.CheckArrivalsAccounted(r.Events) },
		func(r *sim.Report) error { return trace.CheckNoIdleService(r.Events) },
		func(r *sim.Report) error { return trace.CheckTokenBalance(r.Pools...) },
	}
}
