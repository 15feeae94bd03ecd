package cli

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/roach88/coordsim/internal/engine"
	"github.com/roach88/coordsim/internal/sim"
	"github.com/roach88/coordsim/internal/store"
)

// execute runs the root command with args and returns its stdout and
// stderr.
func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()

	out := &bytes.Buffer{}
	errOut := &bytes.Buffer{}
	cmd := NewRootCommand()
	cmd.SetOut(out)
	cmd.SetErr(errOut)
	cmd.SetArgs(args)

	err := cmd.Execute()
	return out.String(), errOut.String(), err
}

// seedStore records one small gate run and one small waiting-room run in a
// fresh database and returns its path with the run IDs.
func seedStore(t *testing.T) (string, string, string) {
	t.Helper()

	path := filepath.Join(t.TempDir(), "runs.db")
	st, err := store.Open(path)
	require.NoError(t, err)
	defer st.Close()

	ctx := context.Background()
	gate, err := sim.RunGate(ctx, sim.GateParams{
		GateConfig: engine.GateConfig{ReadDuration: time.Millisecond, WriteDuration: time.Millisecond},
		Readers:    2,
		Writers:    1,
	}, sim.WithIDGenerator(sim.NewFixedGenerator("run-gate")))
	require.NoError(t, err)

	room, err := sim.RunWaitingRoom(ctx, sim.WaitingRoomParams{
		WaitingRoomConfig: engine.WaitingRoomConfig{
			Chairs:          2,
			Customers:       3,
			ServiceDuration: time.Millisecond,
			IdlePoll:        5 * time.Millisecond,
		},
		ArrivalInterval: time.Millisecond,
	}, sim.WithIDGenerator(sim.NewFixedGenerator("run-room")))
	require.NoError(t, err)

	for _, report := range []*sim.Report{gate, room} {
		run, err := store.RunFromReport(report)
		require.NoError(t, err)
		require.NoError(t, st.WriteRun(ctx, run, report.Events))
	}
	return path, gate.ID, room.ID
}
