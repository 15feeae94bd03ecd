package testutil

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/coordsim/internal/event"
)

var epoch = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

func TestSteppingNow_AdvancesPerReading(t *testing.T) {
	clock := NewSteppingNow(epoch, time.Second)

	assert.Equal(t, epoch, clock.Now())
	assert.Equal(t, epoch.Add(time.Second), clock.Now())
	assert.Equal(t, epoch.Add(2*time.Second), clock.Now())
}

func TestSteppingNow_Reset(t *testing.T) {
	clock := NewSteppingNow(epoch, time.Second)
	clock.Now()
	clock.Now()

	clock.Reset(epoch)
	assert.Equal(t, epoch, clock.Now())
}

func TestSteppingNow_ThreadSafe(t *testing.T) {
	clock := NewSteppingNow(epoch, time.Millisecond)
	const numGoroutines = 50
	const callsPerGoroutine = 20

	var mu sync.Mutex
	seen := make(map[time.Time]bool)

	var wg sync.WaitGroup
	wg.Add(numGoroutines)
	for i := 0; i < numGoroutines; i++ {
		go func() {
			defer wg.Done()
			for j := 0; j < callsPerGoroutine; j++ {
				ts := clock.Now()
				mu.Lock()
				seen[ts] = true
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	require.Len(t, seen, numGoroutines*callsPerGoroutine)
}

func TestSteppingNow_DrivesLogOffsets(t *testing.T) {
	clock := NewSteppingNow(epoch, 250*time.Millisecond)
	log := event.NewLog(event.WithNow(clock.Now))

	log.Emit(Writer(1, event.PhaseActive))
	log.Emit(Writer(1, event.PhaseDone))

	events := log.Events()
	require.Len(t, events, 2)
	assert.Equal(t, 250*time.Millisecond, events[0].At)
	assert.Equal(t, 500*time.Millisecond, events[1].At)
}

func TestSequence_StampsInOrder(t *testing.T) {
	events := Sequence(
		Customer(1, event.PhaseArrived, 0),
		Customer(1, event.PhaseAdmitted, 1),
		Provider(event.PhaseServicing, 0),
	)

	require.Len(t, events, 3)
	for i, e := range events {
		assert.Equal(t, int64(i+1), e.Seq)
	}
	assert.Equal(t, event.KindProvider, events[2].Kind)
	assert.Equal(t, 200*time.Millisecond, events[2].At)
}
