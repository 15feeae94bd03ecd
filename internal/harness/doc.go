// Package harness runs coordination scenarios against the real engines and
// checks the recorded event log.
//
// # Scenario Format
//
// Scenarios are defined in YAML files with the following structure:
//
//	name: scenario_name
//	description: "What this scenario validates"
//	engine: waitroom            # or gate
//	waitroom:                   # overrides of the default settings
//	  chairs: 3
//	  customers: 8
//	  service: 100ms
//	  arrival_interval: 50ms
//	timeout: 10s                # optional, default 30s
//	assertions:
//	  - type: waiting_bound
//	  - type: phase_count
//	    kind: customer
//	    phase: admitted
//	    min: 3
//
// Unknown fields are rejected so typos fail loudly.
//
// # Assertion Types
//
//   - waiting_bound: no more customers wait than there are chairs
//   - arrivals_accounted: every arrival is admitted or rejected
//   - no_idle_service: the provider only serves a non-empty room
//   - exclusive_access: no writer overlaps a reader or another writer
//   - token_balance: no token pool hands out more than it holds
//   - terminated: the provider finished, or every reader and writer is done
//   - phase_count: the number of events with a phase (and optional kind) is
//     exactly count, or lies within min..max
//
// # Golden Files
//
// Runs are timing dependent, so golden files hold only the deterministic
// part of a result (see Snapshot). Regenerate them with:
//
//	go test ./internal/harness -update
package harness
