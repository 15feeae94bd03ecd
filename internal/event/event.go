package event

import "time"

// Engine names.
const (
	EngineWaitingRoom = "waitroom"
	EngineGate        = "gate"
)

// Actor kinds.
const (
	KindCustomer = "customer"
	KindProvider = "provider"
	KindReader   = "reader"
	KindWriter   = "writer"
)

// Waiting room phases.
const (
	PhaseArrived      = "arrived"
	PhaseAdmitted     = "admitted"
	PhaseWokeProvider = "woke_provider"
	PhaseRejected     = "rejected"
	PhaseIdle         = "idle"
	PhaseServicing    = "servicing"
	PhaseServiced     = "serviced"
	PhaseProviderDone = "provider_done"
)

// Exclusion gate phases. They follow the per-actor state machine
// Idle -> Requesting -> Active -> Done.
const (
	PhaseRequesting = "requesting"
	PhaseActive     = "active"
	PhaseDone       = "done"
)

// Event is one observable step of an engine operation.
//
// Seq and At are assigned by the Log when the event is appended; engines
// leave them zero.
type Event struct {
	Seq    int64         `json:"seq"`
	At     time.Duration `json:"at"`
	Engine string        `json:"engine"`
	Kind   string        `json:"kind"`
	Actor  int           `json:"actor"`
	Phase  string        `json:"phase"`

	// Waiting is the waiting-room count observed by the emitting actor.
	Waiting int `json:"waiting,omitempty"`

	// Readers is the active reader count observed by a reader.
	Readers int `json:"readers,omitempty"`
}

// Emitter receives events from an engine.
type Emitter interface {
	Emit(Event)
}

// Discard is an Emitter that drops every event.
var Discard Emitter = discard{}

type discard struct{}

func (discard) Emit(Event) {}
