package cli

import (
	"fmt"
	"io"
	"log/slog"
	"slices"

	"github.com/spf13/cobra"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose  bool
	Format   string // "json" | "text" | "dot"
	NoColour bool
}

// ValidFormats defines the allowed output formats. "dot" is only accepted
// by the trace command.
var ValidFormats = []string{"text", "json", "dot"}

// NewRootCommand creates the root command for the coordsim CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "coordsim",
		Short: "coordsim - coordination primitive simulator",
		Long: `Simulate the admission-controlled waiting room (sleeping barber) and the
reader/writer exclusion gate, record every step as an ordered event log,
check the logs against their safety properties and keep them in SQLite.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !slices.Contains(ValidFormats, opts.Format) {
				return NewExitError(ExitCommandError,
					fmt.Sprintf("invalid format %q: must be one of %v", opts.Format, ValidFormats))
			}
			if opts.Format == "dot" && cmd.Name() != "trace" {
				return NewExitError(ExitCommandError, "format \"dot\" is only supported by trace")
			}
			configureLogging(cmd.ErrOrStderr(), opts.Verbose)
			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return WrapExitError(ExitCommandError, "invalid flags", err)
	})

	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text, trace also accepts dot)")
	cmd.PersistentFlags().BoolVar(&opts.NoColour, "no-colour", false, "disable coloured event lines")

	cmd.AddCommand(NewWaitingRoomCommand(opts))
	cmd.AddCommand(NewGateCommand(opts))
	cmd.AddCommand(NewTestCommand(opts))
	cmd.AddCommand(NewTraceCommand(opts))
	cmd.AddCommand(NewServeCommand(opts))

	return cmd
}

// configureLogging installs the process-wide slog handler. Diagnostics go
// to w at warn level, or debug level when verbose.
func configureLogging(w io.Writer, verbose bool) {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level})))
}
