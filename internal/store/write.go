package store

import (
	"context"
	"fmt"
)

// BeginRun registers a run. Uses ON CONFLICT(id) DO NOTHING, so reopening
// a run by ID is harmless.
func (s *Store) BeginRun(ctx context.Context, run Run) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO runs (id, label) VALUES (?, ?)
		ON CONFLICT(id) DO NOTHING
	`, run.ID, run.Label)
	if err != nil {
		return fmt.Errorf("begin run: %w", err)
	}
	return nil
}

// WriteActivity appends an activity. A second write for the same
// (run, seq) is silently ignored.
//
// Note: the run referenced by RunID must exist (foreign key constraint).
func (s *Store) WriteActivity(ctx context.Context, a Activity) error {
	if a.Detail == "" {
		a.Detail = "{}"
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO activities (run_id, seq, kind, owner, status, detail, error)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(run_id, seq) DO NOTHING
	`,
		a.RunID,
		a.Seq,
		a.Kind,
		a.Owner,
		string(a.Status),
		a.Detail,
		a.Error,
	)
	if err != nil {
		return fmt.Errorf("write activity: %w", err)
	}
	return nil
}
