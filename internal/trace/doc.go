// Package trace evaluates the observable properties of a run over its
// event log.
//
// Every check walks events in Seq order and returns a *Violation describing
// the first event that breaks the property, or nil. Checks never look at
// wall-clock offsets; overlapping intervals are decided by Seq alone.
package trace
