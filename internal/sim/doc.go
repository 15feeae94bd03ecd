// Package sim launches the actors of a run against one engine and collects
// the outcome.
//
// Every actor is a goroutine in an errgroup sharing the run's context. The
// first actor to fail with a RuntimeError cancels the context, which wakes
// every suspended sibling; the run then reports that first error together
// with whatever events were recorded up to that point.
package sim
