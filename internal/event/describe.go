package event

import (
	"fmt"
	"strings"
)

// Describe renders the human-readable console line for an event.
func Describe(e Event) string {
	who := actorName(e)
	switch e.Phase {
	case PhaseArrived:
		return fmt.Sprintf("%s has arrived.", who)
	case PhaseAdmitted:
		return fmt.Sprintf("%s is waiting. Total customers waiting: %d", who, e.Waiting)
	case PhaseWokeProvider:
		return fmt.Sprintf("%s wakes up the barber.", who)
	case PhaseRejected:
		return fmt.Sprintf("No space for %s. Leaving the barber shop.", strings.ToLower(who))
	case PhaseIdle:
		return "The barber is sleeping, waiting for customers..."
	case PhaseServicing:
		return fmt.Sprintf("The barber is cutting hair. Customers waiting: %d", e.Waiting)
	case PhaseServiced:
		return "The barber has finished cutting hair."
	case PhaseProviderDone:
		return "The barber has finished cutting hair for all customers."
	case PhaseRequesting:
		return fmt.Sprintf("%s is waiting to %s.", who, verb(e.Kind))
	case PhaseActive:
		if e.Kind == KindReader {
			return fmt.Sprintf("%s is reading. Active readers: %d", who, e.Readers)
		}
		return fmt.Sprintf("%s is %s.", who, gerund(e.Kind))
	case PhaseDone:
		return fmt.Sprintf("%s has finished %s.", who, gerund(e.Kind))
	}
	return fmt.Sprintf("%s: %s", who, e.Phase)
}

func actorName(e Event) string {
	switch e.Kind {
	case KindProvider:
		return "The barber"
	case "":
		return fmt.Sprintf("Actor %d", e.Actor)
	}
	return fmt.Sprintf("%s%s %d", strings.ToUpper(e.Kind[:1]), e.Kind[1:], e.Actor)
}

func verb(kind string) string {
	if kind == KindWriter {
		return "write"
	}
	return "read"
}

func gerund(kind string) string {
	if kind == KindWriter {
		return "writing"
	}
	return "reading"
}
