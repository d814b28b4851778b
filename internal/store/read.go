package store

import (
	"context"
	"fmt"
	"strings"

	"github.com/roach88/deckmirror/internal/engine"
)

// Filter narrows ReadActivities. Zero fields match everything. Owner and
// Kind match as prefixes, so Kind "ink." selects every ink task.
type Filter struct {
	RunID string
	Owner string
	Kind  string
	Limit int
}

// ReadActivities returns matching activities ordered by run, then
// seq ASC, id ASC.
//
// Returns an empty slice (not nil) if nothing matches.
func (s *Store) ReadActivities(ctx context.Context, f Filter) ([]Activity, error) {
	var (
		where []string
		args  []any
	)
	if f.RunID != "" {
		where = append(where, "run_id = ?")
		args = append(args, f.RunID)
	}
	if f.Owner != "" {
		where = append(where, "substr(owner, 1, ?) = ?")
		args = append(args, len(f.Owner), f.Owner)
	}
	if f.Kind != "" {
		where = append(where, "substr(kind, 1, ?) = ?")
		args = append(args, len(f.Kind), f.Kind)
	}

	query := `SELECT id, run_id, seq, kind, owner, status, detail, error FROM activities`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY run_id COLLATE BINARY ASC, seq ASC, id ASC"
	if f.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, f.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query activities: %w", err)
	}
	defer rows.Close()

	activities := []Activity{}
	for rows.Next() {
		var (
			a      Activity
			status string
		)
		if err := rows.Scan(&a.ID, &a.RunID, &a.Seq, &a.Kind, &a.Owner, &status, &a.Detail, &a.Error); err != nil {
			return nil, fmt.Errorf("scan activity: %w", err)
		}
		a.Status = engine.Status(status)
		activities = append(activities, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate activities: %w", err)
	}
	return activities, nil
}

// ReadRuns returns every run in insertion order.
func (s *Store) ReadRuns(ctx context.Context) ([]Run, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, label FROM runs ORDER BY rowid ASC`)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	runs := []Run{}
	for rows.Next() {
		var r Run
		if err := rows.Scan(&r.ID, &r.Label); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		runs = append(runs, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}
	return runs, nil
}

// CountByStatus tallies a run's activities by status.
func (s *Store) CountByStatus(ctx context.Context, runID string) (map[engine.Status]int, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT status, COUNT(*) FROM activities
		WHERE run_id = ?
		GROUP BY status
		ORDER BY status
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("count activities: %w", err)
	}
	defer rows.Close()

	out := map[engine.Status]int{}
	for rows.Next() {
		var (
			status string
			n      int
		)
		if err := rows.Scan(&status, &n); err != nil {
			return nil, fmt.Errorf("scan count: %w", err)
		}
		out[engine.Status(status)] = n
	}
	return out, rows.Err()
}
