package harness

import (
	"errors"
	"fmt"
	"strings"

	"github.com/roach88/coordsim/internal/event"
	"github.com/roach88/coordsim/internal/primitive"
	"github.com/roach88/coordsim/internal/trace"
)

// tailLength is the number of trailing events printed with a failure.
const tailLength = 10

// AssertionError is returned when an assertion fails.
// It includes detailed context to help debug the failure.
type AssertionError struct {
	Type     string        // Assertion type for categorization
	Expected string        // Human-readable expected outcome
	Actual   string        // Human-readable actual outcome
	Events   []event.Event // Events leading up to the failure
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	if len(e.Events) > 0 {
		fmt.Fprintf(&buf, "\nEvents:\n")
		for _, ev := range e.Events {
			fmt.Fprintf(&buf, "  [%d] %s\n", ev.Seq, event.Describe(ev))
		}
	}
	return buf.String()
}

// AssertionContext carries what assertions need beyond the event log.
type AssertionContext struct {
	Chairs  int
	Readers int
	Writers int
	Pools   []primitive.PoolStats
}

// EvaluateAssertions evaluates all assertions against the result.
// Returns one message per failed assertion.
func EvaluateAssertions(result *Result, assertions []Assertion, actx AssertionContext) []string {
	var msgs []string

	for i, assertion := range assertions {
		var err error

		switch assertion.Type {
		case AssertWaitingBound:
			err = fromViolation(assertion, result.Events,
				trace.CheckWaitingBound(result.Events, actx.Chairs),
				fmt.Sprintf("at most %d customers waiting", actx.Chairs))
		case AssertArrivalsAccounted:
			err = fromViolation(assertion, result.Events,
				trace.CheckArrivalsAccounted(result.Events),
				"admitted + rejected == arrived")
		case AssertNoIdleService:
			err = fromViolation(assertion, result.Events,
				trace.CheckNoIdleService(result.Events),
				"every service starts with a customer waiting")
		case AssertExclusiveAccess:
			err = fromViolation(assertion, result.Events,
				trace.CheckExclusion(result.Events),
				"writers never overlap readers or other writers")
		case AssertTokenBalance:
			err = fromViolation(assertion, nil,
				trace.CheckTokenBalance(actx.Pools...),
				"acquired <= released + capacity for every pool")
		case AssertTerminated:
			err = assertTerminated(result, actx)
		case AssertPhaseCount:
			err = assertPhaseCount(result.Events, assertion)
		default:
			err = fmt.Errorf("assertion[%d]: unknown assertion type %q", i, assertion.Type)
		}

		if err != nil {
			msgs = append(msgs, err.Error())
		}
	}
	return msgs
}

// fromViolation converts a trace violation into an AssertionError showing
// the events up to the offending one.
func fromViolation(a Assertion, events []event.Event, err error, expected string) error {
	if err == nil {
		return nil
	}
	ae := &AssertionError{Type: a.String(), Expected: expected, Actual: err.Error()}

	var v *trace.Violation
	if errors.As(err, &v) && v.Event != nil {
		ae.Events = tailUntil(events, v.Event.Seq)
	}
	return ae
}

// assertTerminated checks that the run reached its natural end: the
// provider stopped, or every reader and writer finished.
func assertTerminated(result *Result, actx AssertionContext) error {
	s := result.Summary
	if len(result.Events) == 0 {
		return &AssertionError{Type: AssertTerminated, Expected: "a completed run", Actual: "no events recorded"}
	}

	switch result.Events[0].Engine {
	case event.EngineWaitingRoom:
		if !s.ProviderDone {
			return &AssertionError{
				Type:     AssertTerminated,
				Expected: "provider finished",
				Actual:   fmt.Sprintf("%d served, %d rejected, provider still running", s.Serviced, s.Rejected),
				Events:   tail(result.Events),
			}
		}
	case event.EngineGate:
		if s.Reads != actx.Readers || s.Writes != actx.Writers {
			return &AssertionError{
				Type:     AssertTerminated,
				Expected: fmt.Sprintf("%d reads and %d writes done", actx.Readers, actx.Writers),
				Actual:   fmt.Sprintf("%d reads and %d writes done", s.Reads, s.Writes),
				Events:   tail(result.Events),
			}
		}
	}
	return nil
}

// assertPhaseCount checks the number of events with a phase against an
// exact count or a min..max range.
func assertPhaseCount(events []event.Event, a Assertion) error {
	n := trace.Count(events, a.Kind, a.Phase)

	var expected string
	ok := true
	switch {
	case a.Count != nil:
		expected = fmt.Sprintf("exactly %d", *a.Count)
		ok = n == *a.Count
	case a.Min != nil && a.Max != nil:
		expected = fmt.Sprintf("between %d and %d", *a.Min, *a.Max)
		ok = n >= *a.Min && n <= *a.Max
	case a.Min != nil:
		expected = fmt.Sprintf("at least %d", *a.Min)
		ok = n >= *a.Min
	case a.Max != nil:
		expected = fmt.Sprintf("at most %d", *a.Max)
		ok = n <= *a.Max
	}
	if ok {
		return nil
	}
	return &AssertionError{
		Type:     a.String(),
		Expected: expected,
		Actual:   fmt.Sprintf("%d", n),
	}
}

func tail(events []event.Event) []event.Event {
	if len(events) <= tailLength {
		return events
	}
	return events[len(events)-tailLength:]
}

func tailUntil(events []event.Event, seq int64) []event.Event {
	end := 0
	for i, e := range events {
		if e.Seq <= seq {
			end = i + 1
		}
	}
	return tail(events[:end])
}
