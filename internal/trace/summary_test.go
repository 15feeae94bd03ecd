package trace

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/coordsim/internal/event"
	tu "github.com/roach88/coordsim/internal/testutil"
)

func TestSummarize_WaitingRoom(t *testing.T) {
	s := Summarize(waitroomLog())

	assert.Equal(t, 12, s.Events)
	assert.Equal(t, 3, s.Arrivals)
	assert.Equal(t, 2, s.Admitted)
	assert.Equal(t, 1, s.Rejected)
	assert.Equal(t, 2, s.Serviced)
	assert.Equal(t, 1, s.MaxWaiting)
	assert.True(t, s.ProviderDone)
	assert.Equal(t, 2, s.Phases["provider.servicing"])
	assert.Equal(t, 1, s.Phases["customer.woke_provider"])
}

func TestSummarize_Gate(t *testing.T) {
	events := tu.Sequence(
		tu.Reader(1, event.PhaseRequesting, 0),
		tu.Reader(1, event.PhaseActive, 1),
		tu.Reader(2, event.PhaseActive, 2),
		tu.Reader(2, event.PhaseDone, 1),
		tu.Reader(1, event.PhaseDone, 0),
		tu.Writer(1, event.PhaseActive),
		tu.Writer(1, event.PhaseDone),
	)
	s := Summarize(events)

	assert.Equal(t, 2, s.Reads)
	assert.Equal(t, 1, s.Writes)
	assert.Equal(t, 2, s.MaxReaders)
	assert.False(t, s.ProviderDone)
	assert.Equal(t, 2, Count(events, event.KindReader, event.PhaseDone))
	assert.Equal(t, 3, Count(events, "", event.PhaseDone))
}

func TestIntervals(t *testing.T) {
	events := tu.Sequence(
		tu.Reader(1, event.PhaseActive, 1),
		tu.Reader(2, event.PhaseActive, 2),
		tu.Reader(1, event.PhaseDone, 1),
		tu.Reader(2, event.PhaseDone, 0),
		tu.Reader(3, event.PhaseActive, 1),
	)

	ivs := Intervals(events, event.KindReader)
	require.Len(t, ivs, 2, "open interval of reader 3 is omitted")
	assert.Equal(t, 1, ivs[0].Actor)
	assert.Equal(t, 2, ivs[1].Actor)
	assert.True(t, ivs[0].Overlaps(ivs[1]))
	assert.True(t, ivs[1].Overlaps(ivs[0]))
}

func TestInterval_AdjacentDoNotOverlap(t *testing.T) {
	events := tu.Sequence(
		tu.Writer(1, event.PhaseActive),
		tu.Writer(1, event.PhaseDone),
		tu.Writer(2, event.PhaseActive),
		tu.Writer(2, event.PhaseDone),
	)

	ivs := Intervals(events, event.KindWriter)
	require.Len(t, ivs, 2)
	assert.False(t, ivs[0].Overlaps(ivs[1]))
}
