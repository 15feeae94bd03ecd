package trace

import (
	"fmt"
	"slices"
	"strings"

	"github.com/roach88/coordsim/internal/event"
	"github.com/roach88/coordsim/internal/primitive"
)

// Property names reported in violations.
const (
	PropWaitingBound      = "waiting_bound"
	PropArrivalsAccounted = "arrivals_accounted"
	PropNoIdleService     = "no_idle_service"
	PropExclusiveAccess   = "exclusive_access"
	PropTokenBalance      = "token_balance"
)

// Violation describes a broken property.
type Violation struct {
	Property string
	Message  string
	Event    *event.Event // offending event, nil for whole-run properties
}

// Error implements the error interface.
func (v *Violation) Error() string {
	var buf strings.Builder
	fmt.Fprintf(&buf, "%s violated: %s", v.Property, v.Message)
	if v.Event != nil {
		fmt.Fprintf(&buf, " (seq=%d %s %d %s)", v.Event.Seq, v.Event.Kind, v.Event.Actor, v.Event.Phase)
	}
	return buf.String()
}

func violation(prop string, e *event.Event, format string, args ...any) *Violation {
	v := &Violation{Property: prop, Message: fmt.Sprintf(format, args...)}
	if e != nil {
		ev := *e
		v.Event = &ev
	}
	return v
}

// CheckWaitingBound verifies that no waiting count observed by the engine,
// nor the count replayed from admissions and services, exceeds chairs.
func CheckWaitingBound(events []event.Event, chairs int) error {
	waiting := 0
	for i := range events {
		e := &events[i]
		if e.Engine != event.EngineWaitingRoom {
			continue
		}
		switch e.Phase {
		case event.PhaseAdmitted:
			waiting++
		case event.PhaseServicing:
			waiting--
		}
		if e.Waiting > chairs {
			return violation(PropWaitingBound, e, "observed %d waiting with %d chairs", e.Waiting, chairs)
		}
		if waiting > chairs {
			return violation(PropWaitingBound, e, "replayed %d waiting with %d chairs", waiting, chairs)
		}
	}
	return nil
}

// CheckArrivalsAccounted verifies admitted + rejected == arrived.
func CheckArrivalsAccounted(events []event.Event) error {
	var arrived, admitted, rejected int
	for _, e := range events {
		if e.Engine != event.EngineWaitingRoom || e.Kind != event.KindCustomer {
			continue
		}
		switch e.Phase {
		case event.PhaseArrived:
			arrived++
		case event.PhaseAdmitted:
			admitted++
		case event.PhaseRejected:
			rejected++
		}
	}
	if admitted+rejected != arrived {
		return violation(PropArrivalsAccounted, nil,
			"%d admitted + %d rejected != %d arrived", admitted, rejected, arrived)
	}
	return nil
}

// CheckNoIdleService verifies that the provider only starts a service while
// at least one admitted customer is waiting.
func CheckNoIdleService(events []event.Event) error {
	waiting := 0
	for i := range events {
		e := &events[i]
		if e.Engine != event.EngineWaitingRoom {
			continue
		}
		switch e.Phase {
		case event.PhaseAdmitted:
			waiting++
		case event.PhaseServicing:
			if waiting == 0 {
				return violation(PropNoIdleService, e, "service started with an empty waiting room")
			}
			waiting--
		}
	}
	return nil
}

// CheckExclusion verifies that no writer is active together with a reader
// or another writer. Readers may overlap each other freely.
func CheckExclusion(events []event.Event) error {
	readers := map[int]bool{}
	writers := map[int]bool{}

	for i := range events {
		e := &events[i]
		if e.Engine != event.EngineGate {
			continue
		}
		switch {
		case e.Kind == event.KindReader && e.Phase == event.PhaseActive:
			if len(writers) > 0 {
				return violation(PropExclusiveAccess, e, "reader active while writer %v is active", keys(writers))
			}
			readers[e.Actor] = true
		case e.Kind == event.KindReader && e.Phase == event.PhaseDone:
			delete(readers, e.Actor)
		case e.Kind == event.KindWriter && e.Phase == event.PhaseActive:
			if len(readers) > 0 {
				return violation(PropExclusiveAccess, e, "writer active while readers %v are active", keys(readers))
			}
			if len(writers) > 0 {
				return violation(PropExclusiveAccess, e, "writer active while writer %v is active", keys(writers))
			}
			writers[e.Actor] = true
		case e.Kind == event.KindWriter && e.Phase == event.PhaseDone:
			delete(writers, e.Actor)
		}
	}
	return nil
}

// CheckTokenBalance verifies that no pool handed out more tokens than its
// capacity plus the tokens returned to it.
func CheckTokenBalance(pools ...primitive.PoolStats) error {
	for _, s := range pools {
		if !s.Balanced() {
			return violation(PropTokenBalance, nil,
				"pool %s acquired %d > released %d + capacity %d", s.Name, s.Acquired, s.Released, s.Capacity)
		}
	}
	return nil
}

func keys(m map[int]bool) []int {
	out := make([]int, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	slices.Sort(out)
	return out
}
