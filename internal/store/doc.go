// Package store provides SQLite-backed durable storage for recorded runs.
//
// A run is stored as one row in runs plus its event log in events:
//   - runs: identity, engine, status, parameters and token-pool counters
//   - events: the Seq-ordered event log, keyed by (run_id, seq)
//
// # Ordering
//
//   - Events are always returned ORDER BY seq ASC; Seq is the logical
//     clock of the run and the only ordering the log guarantees.
//   - Runs are listed ORDER BY started_at ASC, id ASC. Run IDs are UUIDv7,
//     so id order breaks ties in creation order.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
//
// Parameters and pool counters are stored as canonical JSON so two stores
// holding the same run hold the same bytes.
package store
