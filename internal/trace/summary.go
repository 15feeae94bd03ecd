package trace

import (
	"cmp"
	"slices"

	"github.com/roach88/coordsim/internal/event"
)

// Summary aggregates an event log.
type Summary struct {
	Events       int            `json:"events"`
	Arrivals     int            `json:"arrivals"`
	Admitted     int            `json:"admitted"`
	Rejected     int            `json:"rejected"`
	Serviced     int            `json:"serviced"`
	Idle         int            `json:"idle"`
	MaxWaiting   int            `json:"max_waiting"`
	ProviderDone bool           `json:"provider_done"`
	Reads        int            `json:"reads"`
	Writes       int            `json:"writes"`
	MaxReaders   int            `json:"max_readers"`
	Phases       map[string]int `json:"phases"`
}

// Summarize counts the phases of events.
func Summarize(events []event.Event) Summary {
	s := Summary{Events: len(events), Phases: map[string]int{}}
	for _, e := range events {
		s.Phases[e.Kind+"."+e.Phase]++

		switch e.Engine {
		case event.EngineWaitingRoom:
			switch e.Phase {
			case event.PhaseArrived:
				s.Arrivals++
			case event.PhaseAdmitted:
				s.Admitted++
			case event.PhaseRejected:
				s.Rejected++
			case event.PhaseServiced:
				s.Serviced++
			case event.PhaseIdle:
				s.Idle++
			case event.PhaseProviderDone:
				s.ProviderDone = true
			}
			s.MaxWaiting = max(s.MaxWaiting, e.Waiting)
		case event.EngineGate:
			if e.Phase == event.PhaseDone {
				switch e.Kind {
				case event.KindReader:
					s.Reads++
				case event.KindWriter:
					s.Writes++
				}
			}
			if e.Kind == event.KindReader && e.Phase == event.PhaseActive {
				s.MaxReaders = max(s.MaxReaders, e.Readers)
			}
		}
	}
	return s
}

// Count returns how many events of kind have phase. An empty kind matches
// every kind.
func Count(events []event.Event, kind, phase string) int {
	n := 0
	for _, e := range events {
		if e.Phase == phase && (kind == "" || e.Kind == kind) {
			n++
		}
	}
	return n
}

// Interval is the span between an actor's active and done events.
type Interval struct {
	Kind  string
	Actor int
	Start event.Event
	End   event.Event
}

// Overlaps reports whether the two intervals share any instant of the
// logical clock.
func (iv Interval) Overlaps(other Interval) bool {
	return iv.Start.Seq < other.End.Seq && other.Start.Seq < iv.End.Seq
}

// Intervals returns the closed active..done intervals of actors of kind,
// ordered by start. Actors still active at the end of the log are omitted.
func Intervals(events []event.Event, kind string) []Interval {
	open := map[int]event.Event{}
	var out []Interval
	for _, e := range events {
		if e.Kind != kind {
			continue
		}
		switch e.Phase {
		case event.PhaseActive:
			open[e.Actor] = e
		case event.PhaseDone:
			if start, ok := open[e.Actor]; ok {
				out = append(out, Interval{Kind: kind, Actor: e.Actor, Start: start, End: e})
				delete(open, e.Actor)
			}
		}
	}
	slices.SortFunc(out, func(a, b Interval) int {
		return cmp.Compare(a.Start.Seq, b.Start.Seq)
	})
	return out
}
