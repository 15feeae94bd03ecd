package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/roach88/coordsim/internal/event"
)

// ErrNotFound is returned when a run does not exist.
var ErrNotFound = errors.New("run not found")

const runColumns = `
	r.id, r.engine, r.started_at, r.elapsed_ns, r.status, r.error, r.params, r.pools,
	(SELECT COUNT(*) FROM events e WHERE e.run_id = r.id)
`

// ReadRun returns the run with the given ID, or an error wrapping
// ErrNotFound.
func (s *Store) ReadRun(ctx context.Context, id string) (Run, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+runColumns+` FROM runs r WHERE r.id = ?`, id)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Run{}, fmt.Errorf("read run %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return Run{}, fmt.Errorf("read run %s: %w", id, err)
	}
	return run, nil
}

// ListRuns returns every stored run ordered by start time, then ID.
//
// Returns an empty slice (not nil) if the store holds no runs.
func (s *Store) ListRuns(ctx context.Context) ([]Run, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+runColumns+`
		FROM runs r
		ORDER BY r.started_at ASC, r.id COLLATE BINARY ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	runs := []Run{}
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}
	return runs, nil
}

// ReadEvents returns the event log of a run in Seq order.
//
// Returns an empty slice (not nil) if the run has no events.
func (s *Store) ReadEvents(ctx context.Context, runID string) ([]event.Event, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT seq, at_ns, engine, kind, actor, phase, waiting, readers
		FROM events
		WHERE run_id = ?
		ORDER BY seq ASC
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("query events: %w", err)
	}
	defer rows.Close()

	events := []event.Event{}
	for rows.Next() {
		var e event.Event
		var at int64
		if err := rows.Scan(&e.Seq, &at, &e.Engine, &e.Kind, &e.Actor, &e.Phase, &e.Waiting, &e.Readers); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		e.At = time.Duration(at)
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate events: %w", err)
	}
	return events, nil
}

// CountPhase returns how many events of a run have the given kind and phase.
func (s *Store) CountPhase(ctx context.Context, runID, kind, phase string) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM events
		WHERE run_id = ? AND kind = ? AND phase = ?
	`, runID, kind, phase).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count phase: %w", err)
	}
	return n, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(row scanner) (Run, error) {
	var (
		run       Run
		startedAt string
		elapsed   int64
		params    string
		pools     string
	)
	if err := row.Scan(&run.ID, &run.Engine, &startedAt, &elapsed, &run.Status, &run.Error,
		&params, &pools, &run.Events); err != nil {
		return Run{}, err
	}

	var err error
	if run.StartedAt, err = parseTime(startedAt); err != nil {
		return Run{}, err
	}
	if run.Pools, err = unmarshalPools(pools); err != nil {
		return Run{}, err
	}
	run.Elapsed = time.Duration(elapsed)
	run.Params = []byte(params)
	return run, nil
}
