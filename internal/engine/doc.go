// Package engine implements the two coordination engines of coordsim.
//
// WaitingRoom is the admission-controlled waiting room ("sleeping barber"):
// customers arrive concurrently and either take one of a fixed number of
// chairs or are turned away; a single provider goroutine drains the room.
//
// Gate is the reader/writer exclusion gate: any number of readers may be
// active together, a writer is active alone, and readers are preferred.
//
// Both engines are built only from primitive.Counter and primitive.TokenPool
// and report every observable step to an event.Emitter. Engines hold no
// package-level state; each goroutine receives the engine value it works on.
//
// Locking discipline:
//
//   - A counter's exclusion is never held across a simulated-work sleep.
//   - The waiting room checks capacity and takes a chair in one exclusion
//     scope, so two arrivals cannot both pass the check for the last chair.
//     The provider returns the chair in the same scope when it calls the
//     customer in, so a free chair always has a free token and arrivals
//     never block on the pool.
//   - Lock order is waiting -> remaining and admission -> active -> writer.
//
// Capacity rejection is a normal outcome (Rejected). Everything else that
// stops an actor is a *RuntimeError.
package engine
