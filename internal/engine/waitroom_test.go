package engine

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/coordsim/internal/event"
	"github.com/roach88/coordsim/internal/trace"
)

func testRoom(t *testing.T, cfg WaitingRoomConfig) (*WaitingRoom, *event.Log) {
	t.Helper()
	log := event.NewLog()
	room, err := NewWaitingRoom(cfg, log)
	require.NoError(t, err)
	return room, log
}

func TestWaitingRoomConfig_Validate(t *testing.T) {
	valid := WaitingRoomConfig{Chairs: 3, Customers: 8, ServiceDuration: time.Second, IdlePoll: time.Second}

	tests := []struct {
		name   string
		mutate func(*WaitingRoomConfig)
	}{
		{"no chairs", func(c *WaitingRoomConfig) { c.Chairs = 0 }},
		{"negative customers", func(c *WaitingRoomConfig) { c.Customers = -1 }},
		{"negative service", func(c *WaitingRoomConfig) { c.ServiceDuration = -time.Second }},
		{"zero idle poll", func(c *WaitingRoomConfig) { c.IdlePoll = 0 }},
		{"threshold above customers", func(c *WaitingRoomConfig) { c.Threshold = 9 }},
		{"negative threshold", func(c *WaitingRoomConfig) { c.Threshold = -1 }},
	}

	require.NoError(t, valid.Validate())
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid
			tt.mutate(&cfg)

			_, err := NewWaitingRoom(cfg, nil)
			require.Error(t, err)
			assert.True(t, IsConfigError(err), "expected INVALID_CONFIG, got %v", err)
		})
	}
}

func TestWaitingRoom_ArrivalsWithoutProvider(t *testing.T) {
	room, log := testRoom(t, WaitingRoomConfig{Chairs: 3, Customers: 8, IdlePoll: time.Second})
	ctx := context.Background()

	var outcomes []Admission
	for id := 1; id <= 8; id++ {
		a, err := room.Arrive(ctx, id)
		require.NoError(t, err)
		outcomes = append(outcomes, a)
	}

	assert.Equal(t, []Admission{
		Admitted, Admitted, Admitted,
		Rejected, Rejected, Rejected, Rejected, Rejected,
	}, outcomes)

	waiting, err := room.Waiting()
	require.NoError(t, err)
	assert.Equal(t, 3, waiting)

	remaining, err := room.Remaining()
	require.NoError(t, err)
	assert.Equal(t, 3, remaining, "rejections count toward termination")

	events := log.Events()
	assert.Equal(t, 1, trace.Count(events, event.KindCustomer, event.PhaseWokeProvider))
	assert.NoError(t, trace.CheckWaitingBound(events, 3))
	assert.NoError(t, trace.CheckArrivalsAccounted(events))

	stats := room.ChairStats()
	assert.Equal(t, int64(3), stats.Acquired)
	assert.Equal(t, int64(0), stats.Released)
}

func TestWaitingRoom_RejectionUnderflows(t *testing.T) {
	room, _ := testRoom(t, WaitingRoomConfig{Chairs: 1, Customers: 1, IdlePoll: time.Second})
	ctx := context.Background()

	a, err := room.Arrive(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, Admitted, a)

	// Customer 1 is still counted as remaining, so one rejection fits.
	a, err = room.Arrive(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, Rejected, a)

	_, err = room.Arrive(ctx, 3)
	require.Error(t, err)
	assert.True(t, IsUnderflowError(err))

	var re *RuntimeError
	require.ErrorAs(t, err, &re)
	assert.Equal(t, 3, re.Actor)
}

func TestWaitingRoom_ServeDrainsAdmittedCustomers(t *testing.T) {
	room, log := testRoom(t, WaitingRoomConfig{
		Chairs:          3,
		Customers:       5,
		ServiceDuration: 5 * time.Millisecond,
		IdlePoll:        10 * time.Millisecond,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	serveErr := make(chan error, 1)
	go func() { serveErr <- room.Serve(ctx) }()

	for id := 1; id <= 5; id++ {
		a, err := room.Arrive(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, Admitted, a, "customer %d", id)
		time.Sleep(20 * time.Millisecond)
	}

	require.NoError(t, <-serveErr)

	events := log.Events()
	summary := trace.Summarize(events)
	assert.Equal(t, 5, summary.Admitted)
	assert.Equal(t, 5, summary.Serviced)
	assert.True(t, summary.ProviderDone)
	assert.Equal(t, event.PhaseProviderDone, events[len(events)-1].Phase)

	assert.NoError(t, trace.CheckNoIdleService(events))
	assert.NoError(t, trace.CheckWaitingBound(events, 3))

	stats := room.ChairStats()
	assert.Equal(t, int64(5), stats.Acquired)
	assert.Equal(t, int64(5), stats.Released)
	assert.Zero(t, stats.Dropped)
	assert.NoError(t, trace.CheckTokenBalance(stats))
}

func TestWaitingRoom_ArrivalWakesIdleProvider(t *testing.T) {
	room, log := testRoom(t, WaitingRoomConfig{
		Chairs:    1,
		Customers: 1,
		IdlePoll:  time.Minute,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	serveErr := make(chan error, 1)
	go func() { serveErr <- room.Serve(ctx) }()

	require.Eventually(t, func() bool {
		return trace.Count(log.Events(), event.KindProvider, event.PhaseIdle) > 0
	}, time.Second, time.Millisecond)

	start := time.Now()
	_, err := room.Arrive(ctx, 1)
	require.NoError(t, err)

	require.NoError(t, <-serveErr)
	assert.Less(t, time.Since(start), time.Second, "provider should not sleep the full poll interval")
}

func TestWaitingRoom_RejectionWakesProviderToFinish(t *testing.T) {
	room, log := testRoom(t, WaitingRoomConfig{
		Chairs:          1,
		Customers:       3,
		ServiceDuration: time.Millisecond,
		IdlePoll:        time.Minute,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var outcomes []Admission
	for id := 1; id <= 3; id++ {
		a, err := room.Arrive(ctx, id)
		require.NoError(t, err)
		outcomes = append(outcomes, a)
	}
	assert.Equal(t, []Admission{Admitted, Rejected, Rejected}, outcomes)

	require.NoError(t, room.Serve(ctx))

	summary := trace.Summarize(log.Events())
	assert.Equal(t, 1, summary.Serviced)
	assert.True(t, summary.ProviderDone)
}

func TestWaitingRoom_ArrivalDoesNotWaitForService(t *testing.T) {
	room, log := testRoom(t, WaitingRoomConfig{
		Chairs:          2,
		Customers:       4,
		ServiceDuration: 300 * time.Millisecond,
		IdlePoll:        5 * time.Millisecond,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	_, err := room.Arrive(ctx, 1)
	require.NoError(t, err)

	serveErr := make(chan error, 1)
	go func() { serveErr <- room.Serve(ctx) }()

	require.Eventually(t, func() bool {
		return trace.Count(log.Events(), event.KindProvider, event.PhaseServicing) == 1
	}, time.Second, time.Millisecond)

	// Customer 1 is in service and customer 2 takes one of the two chairs.
	a, err := room.Arrive(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, Admitted, a)

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		outcomes []Admission
		slowest  time.Duration
	)
	for id := 3; id <= 4; id++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			start := time.Now()
			a, err := room.Arrive(ctx, id)
			took := time.Since(start)
			assert.NoError(t, err)

			mu.Lock()
			defer mu.Unlock()
			outcomes = append(outcomes, a)
			if took > slowest {
				slowest = took
			}
		}(id)
	}
	wg.Wait()

	assert.ElementsMatch(t, []Admission{Admitted, Rejected}, outcomes)
	assert.Less(t, slowest, 100*time.Millisecond, "arrivals must not wait for the service in progress")
	assert.Equal(t, 1, trace.Count(log.Events(), event.KindProvider, event.PhaseServicing),
		"both arrivals were decided during the first service")

	require.NoError(t, <-serveErr)

	stats := room.ChairStats()
	assert.Equal(t, int64(3), stats.Acquired)
	assert.Equal(t, int64(3), stats.Released)
	assert.Zero(t, stats.Dropped)
	assert.NoError(t, trace.CheckTokenBalance(stats))
}

func TestWaitingRoom_ChairReturnedWhenCustomerIsCalledIn(t *testing.T) {
	room, log := testRoom(t, WaitingRoomConfig{
		Chairs:          1,
		Customers:       2,
		ServiceDuration: 200 * time.Millisecond,
		IdlePoll:        5 * time.Millisecond,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	_, err := room.Arrive(ctx, 1)
	require.NoError(t, err)

	serveErr := make(chan error, 1)
	go func() { serveErr <- room.Serve(ctx) }()

	require.Eventually(t, func() bool {
		return trace.Count(log.Events(), event.KindProvider, event.PhaseServicing) == 1
	}, time.Second, time.Millisecond)
	assert.Equal(t, int64(1), room.ChairStats().Released)

	// The only chair is free again while customer 1 is still being served.
	a, err := room.Arrive(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, Admitted, a)
	assert.Zero(t, trace.Count(log.Events(), event.KindProvider, event.PhaseServiced))

	require.NoError(t, <-serveErr)
	assert.Equal(t, 2, trace.Summarize(log.Events()).Serviced)
}

func TestWaitingRoom_MissingChairTokenIsInvariantError(t *testing.T) {
	room, log := testRoom(t, WaitingRoomConfig{Chairs: 1, Customers: 1, IdlePoll: time.Second})
	require.True(t, room.chairs.TryAcquire())

	_, err := room.Arrive(context.Background(), 1)
	require.Error(t, err)
	assert.True(t, IsInvariantError(err))

	waiting, err := room.Waiting()
	require.NoError(t, err)
	assert.Zero(t, waiting)
	assert.Zero(t, trace.Count(log.Events(), event.KindCustomer, event.PhaseAdmitted))
}

func TestWaitingRoom_ArriveAfterCancel(t *testing.T) {
	room, log := testRoom(t, WaitingRoomConfig{Chairs: 1, Customers: 1, IdlePoll: time.Second})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := room.Arrive(ctx, 1)
	require.Error(t, err)
	assert.True(t, IsCancelledError(err))
	assert.Empty(t, log.Events())
}

func TestWaitingRoom_ThresholdStopsEarly(t *testing.T) {
	room, log := testRoom(t, WaitingRoomConfig{
		Chairs:    3,
		Customers: 3,
		IdlePoll:  time.Millisecond,
		Threshold: 2,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	for id := 1; id <= 3; id++ {
		_, err := room.Arrive(ctx, id)
		require.NoError(t, err)
	}
	require.NoError(t, room.Serve(ctx))

	assert.Equal(t, 1, trace.Summarize(log.Events()).Serviced)
	waiting, err := room.Waiting()
	require.NoError(t, err)
	assert.Equal(t, 2, waiting)
}

func TestWaitingRoom_ServeCancelled(t *testing.T) {
	room, _ := testRoom(t, WaitingRoomConfig{Chairs: 1, Customers: 1, IdlePoll: time.Minute})
	ctx, cancel := context.WithCancel(context.Background())

	serveErr := make(chan error, 1)
	go func() { serveErr <- room.Serve(ctx) }()
	cancel()

	err := <-serveErr
	require.Error(t, err)
	assert.True(t, IsCancelledError(err))
}

func TestWaitingRoom_ConcurrentArrivalsRespectChairs(t *testing.T) {
	room, log := testRoom(t, WaitingRoomConfig{Chairs: 3, Customers: 50, IdlePoll: time.Second})
	ctx := context.Background()

	var wg sync.WaitGroup
	var mu sync.Mutex
	admitted := 0
	for id := 1; id <= 50; id++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			a, err := room.Arrive(ctx, id)
			assert.NoError(t, err)
			if a == Admitted {
				mu.Lock()
				admitted++
				mu.Unlock()
			}
		}(id)
	}
	wg.Wait()

	assert.Equal(t, 3, admitted)
	events := log.Events()
	assert.NoError(t, trace.CheckWaitingBound(events, 3))
	assert.NoError(t, trace.CheckArrivalsAccounted(events))
}

func TestWaitingRoom_PoisonedCounter(t *testing.T) {
	room, _ := testRoom(t, WaitingRoomConfig{Chairs: 1, Customers: 2, IdlePoll: time.Second})

	func() {
		defer func() { _ = recover() }()
		_ = room.waiting.With(func(*int) error { panic("boom") })
	}()

	_, err := room.Arrive(context.Background(), 1)
	require.Error(t, err)
	assert.True(t, IsPoisonedError(err))

	err = room.Serve(context.Background())
	assert.True(t, IsPoisonedError(err))
}

func TestAdmission_String(t *testing.T) {
	assert.Equal(t, "admitted", Admitted.String())
	assert.Equal(t, "rejected", Rejected.String())
	assert.Equal(t, "unknown", Admission(0).String())
}
