// Package primitive provides the two synchronization building blocks shared by
// every coordination engine in coordsim.
//
// Counter is an integer that can only be read or mutated inside a scoped
// critical section. A holder that panics inside the section poisons the
// counter: later callers get ErrPoisoned instead of observing a value that
// may have been left half-updated.
//
// TokenPool is a counting semaphore with a fixed capacity. Acquire blocks
// until a token is free; Release returns tokens without blocking and never
// lets the number of available tokens exceed the capacity.
//
// Neither primitive promises FIFO fairness between waiters.
package primitive
