package event

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClock_Monotonic(t *testing.T) {
	c := NewClock()
	assert.Equal(t, int64(1), c.Next())
	assert.Equal(t, int64(2), c.Next())
}

func TestLog_StampsSeqAndOffset(t *testing.T) {
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	ticks := []time.Time{base, base.Add(5 * time.Millisecond), base.Add(9 * time.Millisecond)}
	i := 0
	now := func() time.Time {
		ts := ticks[i]
		i++
		return ts
	}

	l := NewLog(WithNow(now))
	l.Emit(Event{Engine: EngineWaitingRoom, Kind: KindCustomer, Actor: 1, Phase: PhaseArrived})
	l.Emit(Event{Engine: EngineWaitingRoom, Kind: KindCustomer, Actor: 1, Phase: PhaseAdmitted, Waiting: 1})

	events := l.Events()
	require.Len(t, events, 2)
	assert.Equal(t, int64(1), events[0].Seq)
	assert.Equal(t, 5*time.Millisecond, events[0].At)
	assert.Equal(t, int64(2), events[1].Seq)
	assert.Equal(t, 9*time.Millisecond, events[1].At)
	assert.Equal(t, base, l.Started())
}

func TestLog_ConcurrentEmitKeepsSeqOrder(t *testing.T) {
	var seen []int64
	l := NewLog(WithSink(SinkFunc(func(e Event) {
		seen = append(seen, e.Seq)
	})))

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			l.Emit(Event{Kind: KindReader, Actor: id, Phase: PhaseActive})
		}(i)
	}
	wg.Wait()

	events := l.Events()
	require.Len(t, events, 50)
	for i, e := range events {
		assert.Equal(t, int64(i+1), e.Seq)
	}
	require.Len(t, seen, 50)
	for i, s := range seen {
		assert.Equal(t, int64(i+1), s, "sinks observe emission order")
	}
}

func TestLog_EventsIsACopy(t *testing.T) {
	l := NewLog()
	l.Emit(Event{Phase: PhaseIdle, Kind: KindProvider})

	events := l.Events()
	events[0].Phase = "mutated"

	assert.Equal(t, PhaseIdle, l.Events()[0].Phase)
}

func TestDiscard(t *testing.T) {
	assert.NotPanics(t, func() { Discard.Emit(Event{Phase: PhaseIdle}) })
}
