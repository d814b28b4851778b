package store

import (
	"context"
	"fmt"

	"github.com/roach88/deckmirror/internal/engine"
)

// Recorder journals dispatcher records under one run.
type Recorder struct {
	store *Store
	runID string
}

var _ engine.Recorder = (*Recorder)(nil)

// NewRecorder registers run and returns a Recorder writing into it.
func NewRecorder(ctx context.Context, s *Store, run Run) (*Recorder, error) {
	if run.ID == "" {
		return nil, fmt.Errorf("new recorder: empty run id")
	}
	if err := s.BeginRun(ctx, run); err != nil {
		return nil, err
	}
	return &Recorder{store: s, runID: run.ID}, nil
}

// RunID returns the run this recorder writes to.
func (r *Recorder) RunID() string { return r.runID }

// Record implements engine.Recorder.
func (r *Recorder) Record(ctx context.Context, rec engine.Record) error {
	a, err := ActivityFromRecord(r.runID, rec)
	if err != nil {
		return err
	}
	return r.store.WriteActivity(ctx, a)
}
