package store

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/deckmirror/internal/engine"
)

type detailTask struct {
	kind string
	err  error
}

func (t detailTask) Kind() string                  { return t.kind }
func (t detailTask) Owner() string                 { return "test:src->dst" }
func (t detailTask) Execute(context.Context) error { return t.err }
func (t detailTask) Detail() map[string]any {
	return map[string]any{"z": 1, "a": []string{"x", "y"}, "ok": t.err == nil}
}

func TestRecorder_JournalsDispatcher(t *testing.T) {
	ctx := context.Background()
	s := createTestStore(t)
	rec, err := NewRecorder(ctx, s, Run{ID: "run-1", Label: "test"})
	require.NoError(t, err)
	assert.Equal(t, "run-1", rec.RunID())

	d := engine.NewDispatcher(engine.WithRecorder(rec), engine.WithLogger(quiet()))
	d.Post(detailTask{kind: "ink.add"})
	d.Post(detailTask{kind: "deck.image", err: errors.New("missing")})
	d.Post(detailTask{kind: "ink.delete", err: engine.NewDisposedError("ink:src->dst")})
	_, err = d.Drain(ctx)
	require.NoError(t, err)

	got, err := s.ReadActivities(ctx, Filter{RunID: "run-1"})
	require.NoError(t, err)
	require.Len(t, got, 3)

	assert.Equal(t, int64(1), got[0].Seq)
	assert.Equal(t, engine.StatusApplied, got[0].Status)
	assert.Equal(t, `{"a":["x","y"],"ok":true,"z":1}`, got[0].Detail)

	assert.Equal(t, engine.StatusFailed, got[1].Status)
	assert.Contains(t, got[1].Error, "missing")

	assert.Equal(t, engine.StatusSkipped, got[2].Status)
}

func TestNewRecorder_EmptyRunID(t *testing.T) {
	_, err := NewRecorder(context.Background(), createTestStore(t), Run{})
	assert.Error(t, err)
}

func TestActivityFromRecord_EmptyDetail(t *testing.T) {
	a, err := ActivityFromRecord("r", engine.Record{Seq: 4, Kind: "k", Owner: "o", Status: engine.StatusApplied})
	require.NoError(t, err)
	assert.Equal(t, "{}", a.Detail)

	m, err := a.DetailMap()
	require.NoError(t, err)
	assert.Empty(t, m)
}

func TestActivityFromRecord_Unencodable(t *testing.T) {
	_, err := ActivityFromRecord("r", engine.Record{Detail: map[string]any{"ch": make(chan int)}})
	assert.Error(t, err)
}
