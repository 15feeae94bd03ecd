package store

import (
	"context"
	"fmt"

	"github.com/roach88/coordsim/internal/event"
)

// WriteRun stores run and its event log in one transaction.
// Uses ON CONFLICT DO NOTHING for idempotency - writing the same run twice
// leaves the first copy in place.
//
// Params and pool counters are serialized to canonical JSON.
func (s *Store) WriteRun(ctx context.Context, run Run, events []event.Event) error {
	params, err := marshalParams(run.Params)
	if err != nil {
		return fmt.Errorf("write run: %w", err)
	}
	pools, err := marshalPools(run.Pools)
	if err != nil {
		return fmt.Errorf("write run: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("write run: begin: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	_, err = tx.ExecContext(ctx, `
		INSERT INTO runs
		(id, engine, started_at, elapsed_ns, status, error, params, pools)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`,
		run.ID,
		run.Engine,
		formatTime(run.StartedAt),
		int64(run.Elapsed),
		run.Status,
		run.Error,
		params,
		pools,
	)
	if err != nil {
		return fmt.Errorf("write run: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO events
		(run_id, seq, at_ns, engine, kind, actor, phase, waiting, readers)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(run_id, seq) DO NOTHING
	`)
	if err != nil {
		return fmt.Errorf("write events: prepare: %w", err)
	}
	defer stmt.Close()

	for _, e := range events {
		if _, err := stmt.ExecContext(ctx,
			run.ID, e.Seq, int64(e.At), e.Engine, e.Kind, e.Actor, e.Phase, e.Waiting, e.Readers,
		); err != nil {
			return fmt.Errorf("write event seq=%d: %w", e.Seq, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("write run: commit: %w", err)
	}
	return nil
}

// DeleteRun removes a run and, through the foreign key cascade, its events.
// Deleting an unknown run is not an error.
func (s *Store) DeleteRun(ctx context.Context, id string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM runs WHERE id = ?`, id); err != nil {
		return fmt.Errorf("delete run: %w", err)
	}
	return nil
}
