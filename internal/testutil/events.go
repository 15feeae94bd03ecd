package testutil

import (
	"time"

	"github.com/roach88/coordsim/internal/event"
)

// Customer builds a waiting-room customer event.
func Customer(id int, phase string, waiting int) event.Event {
	return event.Event{Engine: event.EngineWaitingRoom, Kind: event.KindCustomer, Actor: id, Phase: phase, Waiting: waiting}
}

// Provider builds a waiting-room provider event.
func Provider(phase string, waiting int) event.Event {
	return event.Event{Engine: event.EngineWaitingRoom, Kind: event.KindProvider, Phase: phase, Waiting: waiting}
}

// Reader builds a gate reader event.
func Reader(id int, phase string, readers int) event.Event {
	return event.Event{Engine: event.EngineGate, Kind: event.KindReader, Actor: id, Phase: phase, Readers: readers}
}

// Writer builds a gate writer event.
func Writer(id int, phase string) event.Event {
	return event.Event{Engine: event.EngineGate, Kind: event.KindWriter, Actor: id, Phase: phase}
}

// Sequence stamps events with Seq 1..n and At offsets 100ms apart, in the
// order given, as a Log would have.
func Sequence(events ...event.Event) []event.Event {
	out := make([]event.Event, len(events))
	for i, e := range events {
		e.Seq = int64(i + 1)
		e.At = time.Duration(i) * 100 * time.Millisecond
		out[i] = e
	}
	return out
}
