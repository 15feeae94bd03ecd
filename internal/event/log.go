package event

import (
	"sync"
	"time"
)

// Sink receives events after the Log has stamped them.
// Write is called with the Log's lock held, in Seq order.
type Sink interface {
	Write(Event)
}

// SinkFunc adapts a function to the Sink interface.
type SinkFunc func(Event)

// Write calls f(e).
func (f SinkFunc) Write(e Event) { f(e) }

// Log is the append-only event log of one run.
//
// Emit stamps each event with the next Seq and its offset from the start of
// the run, appends it, and forwards it to the attached sinks. All of this
// happens under one lock, so the order of Events() is the emission order and
// the order every sink observes.
//
// Log is safe for concurrent use and implements Emitter.
type Log struct {
	mu     sync.Mutex
	clock  *Clock
	start  time.Time
	now    func() time.Time
	events []Event
	sinks  []Sink
}

// Option configures a Log.
type Option func(*Log)

// WithSink attaches a sink.
func WithSink(s Sink) Option {
	return func(l *Log) {
		l.sinks = append(l.sinks, s)
	}
}

// WithNow replaces the wall clock used for At offsets.
func WithNow(now func() time.Time) Option {
	return func(l *Log) {
		l.now = now
	}
}

// NewLog creates an empty log whose At offsets are measured from now.
func NewLog(opts ...Option) *Log {
	l := &Log{
		clock:  NewClock(),
		now:    time.Now,
		events: make([]Event, 0, 64),
	}
	for _, opt := range opts {
		opt(l)
	}
	l.start = l.now()
	return l
}

// Emit stamps and appends e.
func (l *Log) Emit(e Event) {
	l.mu.Lock()
	defer l.mu.Unlock()

	e.Seq = l.clock.Next()
	e.At = l.now().Sub(l.start)
	l.events = append(l.events, e)
	for _, s := range l.sinks {
		s.Write(e)
	}
}

// Events returns a copy of the events appended so far.
func (l *Log) Events() []Event {
	l.mu.Lock()
	defer l.mu.Unlock()

	out := make([]Event, len(l.events))
	copy(out, l.events)
	return out
}

// Len returns the number of events appended so far.
func (l *Log) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.events)
}

// Started returns the wall time the log measures offsets from.
func (l *Log) Started() time.Time {
	return l.start
}
