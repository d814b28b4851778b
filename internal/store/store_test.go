package store

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/deckmirror/internal/engine"
)

func createTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "journal.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestOpen_CreatesDatabase(t *testing.T) {
	path := filepath.Join(t.TempDir(), "journal.db")
	s, err := Open(path)
	require.NoError(t, err)
	defer s.Close()

	_, err = os.Stat(path)
	assert.NoError(t, err)

	for _, table := range []string{"runs", "activities"} {
		var name string
		err := s.db.QueryRow("SELECT name FROM sqlite_master WHERE type='table' AND name=?", table).Scan(&name)
		assert.NoError(t, err, "table %s", table)
	}
}

func TestOpen_Idempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "journal.db")
	for i := 0; i < 3; i++ {
		s, err := Open(path)
		require.NoError(t, err, "open %d", i)
		require.NoError(t, s.Close())
	}
}

func TestOpen_Pragmas(t *testing.T) {
	s := createTestStore(t)
	assert.Equal(t, "wal", pragmaValue(t, s, "journal_mode"))
	assert.Equal(t, "1", pragmaValue(t, s, "foreign_keys"))
	assert.Equal(t, "5000", pragmaValue(t, s, "busy_timeout"))
	assert.Equal(t, "1", pragmaValue(t, s, "user_version"))

	var name string
	err := s.db.QueryRow("SELECT name FROM sqlite_master WHERE type='index' AND name='idx_activities_kind'").Scan(&name)
	assert.NoError(t, err)
}

func TestOpen_StampsOlderJournal(t *testing.T) {
	path := filepath.Join(t.TempDir(), "journal.db")
	s, err := Open(path)
	require.NoError(t, err)
	_, err = s.db.Exec("DROP INDEX idx_activities_kind")
	require.NoError(t, err)
	_, err = s.db.Exec("PRAGMA user_version = 0")
	require.NoError(t, err)
	require.NoError(t, s.Close())

	s, err = Open(path)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	assert.Equal(t, "1", pragmaValue(t, s, "user_version"))

	var name string
	err = s.db.QueryRow("SELECT name FROM sqlite_master WHERE type='index' AND name='idx_activities_kind'").Scan(&name)
	assert.NoError(t, err, "index restored on reopen")
}

func TestOpen_BadPath(t *testing.T) {
	_, err := Open(filepath.Join(t.TempDir(), "missing", "dir", "journal.db"))
	assert.Error(t, err)
}

func TestClose_NilDB(t *testing.T) {
	assert.NoError(t, (&Store{}).Close())
}

func TestWriteActivity_RoundTrip(t *testing.T) {
	ctx := context.Background()
	s := createTestStore(t)
	require.NoError(t, s.BeginRun(ctx, Run{ID: "r1", Label: "intro"}))

	a := Activity{
		RunID:  "r1",
		Seq:    1,
		Kind:   "ink.add",
		Owner:  "ink:a->b",
		Status: engine.StatusApplied,
		Detail: `{"applied":1}`,
	}
	require.NoError(t, s.WriteActivity(ctx, a))
	require.NoError(t, s.WriteActivity(ctx, a), "duplicate seq ignored")

	got, err := s.ReadActivities(ctx, Filter{RunID: "r1"})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "ink.add", got[0].Kind)
	assert.Equal(t, engine.StatusApplied, got[0].Status)
	assert.Equal(t, `{"applied":1}`, got[0].Detail)

	m, err := got[0].DetailMap()
	require.NoError(t, err)
	assert.Equal(t, json.Number("1"), m["applied"])
}

func TestWriteActivity_UnknownRun(t *testing.T) {
	s := createTestStore(t)
	err := s.WriteActivity(context.Background(), Activity{RunID: "nope", Seq: 1, Kind: "k", Owner: "o", Status: engine.StatusApplied})
	assert.Error(t, err, "foreign key enforced")
}

func TestWriteActivity_BadStatus(t *testing.T) {
	ctx := context.Background()
	s := createTestStore(t)
	require.NoError(t, s.BeginRun(ctx, Run{ID: "r"}))
	err := s.WriteActivity(ctx, Activity{RunID: "r", Seq: 1, Kind: "k", Owner: "o", Status: "maybe"})
	assert.Error(t, err)
}

func TestReadActivities_Filters(t *testing.T) {
	ctx := context.Background()
	s := createTestStore(t)
	require.NoError(t, s.BeginRun(ctx, Run{ID: "b"}))
	require.NoError(t, s.BeginRun(ctx, Run{ID: "a"}))

	rows := []Activity{
		{RunID: "b", Seq: 2, Kind: "ink.delete", Owner: "ink:1->2", Status: engine.StatusApplied},
		{RunID: "b", Seq: 1, Kind: "ink.add", Owner: "ink:1->2", Status: engine.StatusApplied},
		{RunID: "b", Seq: 3, Kind: "slide.props", Owner: "slide:3->4", Status: engine.StatusSkipped},
		{RunID: "a", Seq: 1, Kind: "deck.image", Owner: "deck:5->6", Status: engine.StatusFailed, Error: "boom"},
	}
	for _, r := range rows {
		require.NoError(t, s.WriteActivity(ctx, r))
	}

	all, err := s.ReadActivities(ctx, Filter{})
	require.NoError(t, err)
	require.Len(t, all, 4)
	assert.Equal(t, "a", all[0].RunID, "ordered by run then seq")
	assert.Equal(t, []int64{1, 2, 3}, []int64{all[1].Seq, all[2].Seq, all[3].Seq})

	ink, err := s.ReadActivities(ctx, Filter{Kind: "ink."})
	require.NoError(t, err)
	assert.Len(t, ink, 2)

	owned, err := s.ReadActivities(ctx, Filter{Owner: "slide:"})
	require.NoError(t, err)
	require.Len(t, owned, 1)
	assert.Equal(t, "slide.props", owned[0].Kind)

	limited, err := s.ReadActivities(ctx, Filter{RunID: "b", Limit: 1})
	require.NoError(t, err)
	require.Len(t, limited, 1)
	assert.Equal(t, int64(1), limited[0].Seq)

	none, err := s.ReadActivities(ctx, Filter{Kind: "traversal."})
	require.NoError(t, err)
	assert.NotNil(t, none)
	assert.Empty(t, none)

	counts, err := s.CountByStatus(ctx, "b")
	require.NoError(t, err)
	assert.Equal(t, map[engine.Status]int{engine.StatusApplied: 2, engine.StatusSkipped: 1}, counts)

	runs, err := s.ReadRuns(ctx)
	require.NoError(t, err)
	assert.Equal(t, []Run{{ID: "b"}, {ID: "a"}}, runs)
}

func TestReadActivities_PrefixIsLiteral(t *testing.T) {
	ctx := context.Background()
	s := createTestStore(t)
	require.NoError(t, s.BeginRun(ctx, Run{ID: "r"}))
	require.NoError(t, s.WriteActivity(ctx, Activity{RunID: "r", Seq: 1, Kind: "ink_add", Owner: "o", Status: engine.StatusApplied}))

	got, err := s.ReadActivities(ctx, Filter{Kind: "ink%"})
	require.NoError(t, err)
	assert.Empty(t, got, "no LIKE wildcards")
}

func quiet() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func pragmaValue(t *testing.T, s *Store, name string) string {
	t.Helper()
	var value string
	require.NoError(t, s.db.QueryRow("PRAGMA "+name).Scan(&value))
	return value
}
