package harness

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/deckmirror/internal/engine"
	"github.com/roach88/deckmirror/internal/store"
)

func TestScenarios_Golden(t *testing.T) {
	paths, err := filepath.Glob("testdata/scenarios/*.yaml")
	require.NoError(t, err)
	require.NotEmpty(t, paths)

	for _, path := range paths {
		t.Run(filepath.Base(path), func(t *testing.T) {
			sc, err := LoadScenario(path)
			require.NoError(t, err)

			result, err := RunWithGolden(t, sc)
			require.NoError(t, err)
			assert.True(t, result.Pass, "errors: %v", result.Errors)
			assert.Zero(t, result.Stats.Failed)
		})
	}
}

func TestRun_Deterministic(t *testing.T) {
	sc, err := LoadScenario("testdata/scenarios/delete_propagation.yaml")
	require.NoError(t, err)

	first, err := Run(context.Background(), sc)
	require.NoError(t, err)
	second, err := Run(context.Background(), sc)
	require.NoError(t, err)

	assert.Equal(t, first.Snapshot, second.Snapshot)
	assert.Equal(t, first.Digest, second.Digest)
	assert.Len(t, first.Digest, 64)
	assert.Equal(t, first.Stats, second.Stats)
}

func TestRun_FailingAssertion(t *testing.T) {
	sc, err := ParseScenario([]byte(`
name: failing
description: "stroke count is wrong on purpose"
source:
  slides:
    - title: Intro
      sheets: [{ name: ink, kind: ink }]
destination:
  slides:
    - title: Intro
steps:
  - { action: add_stroke, slide: Intro, sheet: ink, cid: X, dots: 2 }
assertions:
  - { type: stroke_count, slide: Intro, index: 0, count: 5 }
  - { type: slide_matched, slide: Intro, want: false }
  - { type: stroke_count, slide: Intro, index: 3, count: 1 }
`))
	require.NoError(t, err)

	result, err := Run(context.Background(), sc)
	require.NoError(t, err)
	assert.False(t, result.Pass)
	require.Len(t, result.Errors, 3)
	assert.Contains(t, result.Errors[0], "stroke count = 1, want 5")
	assert.Contains(t, result.Errors[1], "matched = true, want false")
	assert.Contains(t, result.Errors[2], "has 1 sheets")
}

func TestRun_StepError(t *testing.T) {
	sc, err := ParseScenario([]byte(`
name: bad_step
description: "deletes a stroke that does not exist"
source:
  slides:
    - title: Intro
      sheets: [{ name: ink, kind: ink }]
steps:
  - { action: delete_stroke, slide: Intro, sheet: ink, cid: ghost }
assertions:
  - { type: current_entry }
`))
	require.NoError(t, err)

	_, err = Run(context.Background(), sc)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "steps[0] delete_stroke")
	assert.Contains(t, err.Error(), `stroke "ghost" not found`)
}

func TestRun_Journal(t *testing.T) {
	ctx := context.Background()
	st, err := store.Open(filepath.Join(t.TempDir(), "journal.db"))
	require.NoError(t, err)
	defer st.Close()

	rec, err := store.NewRecorder(ctx, st, store.Run{ID: "intro", Label: "intro_ink"})
	require.NoError(t, err)

	sc, err := LoadScenario("testdata/scenarios/intro_ink.yaml")
	require.NoError(t, err)
	result, err := Run(ctx, sc, WithRecorder(rec))
	require.NoError(t, err)
	require.True(t, result.Pass, "errors: %v", result.Errors)

	all, err := st.ReadActivities(ctx, store.Filter{RunID: "intro"})
	require.NoError(t, err)
	assert.Len(t, all, int(result.Stats.Applied+result.Stats.Skipped+result.Stats.Failed))
	for i, a := range all {
		assert.Equal(t, int64(i+1), a.Seq, "deterministic clock starts at 1")
	}

	adds, err := st.ReadActivities(ctx, store.Filter{RunID: "intro", Kind: "ink.add"})
	require.NoError(t, err)
	require.Len(t, adds, 1)
	assert.Equal(t, engine.StatusApplied, adds[0].Status)
	assert.Equal(t, `{"applied":1,"correlation_ids":["X"]}`, adds[0].Detail)
	assert.True(t, strings.HasPrefix(adds[0].Owner, "ink:"))
}

func TestParseScenario_Invalid(t *testing.T) {
	base := `
description: "d"
source:
  slides: [{ title: A }]
assertions:
  - { type: current_entry }
`
	tests := []struct {
		name string
		yaml string
		want string
	}{
		{"missing name", base, "name is required"},
		{"unknown field", "name: x\nbogus: 1\n" + base, "field bogus not found"},
		{"unknown action", "name: x\nsteps: [{ action: explode }]\n" + base, `unknown action "explode"`},
		{"bad side", "name: x\nsteps: [{ action: drain, side: sideways }]\n" + base, "side must be"},
		{"same deck with destination", "name: x\nsame_deck: true\ndestination:\n  slides: [{ title: B }]\n" + base, "destination must be empty"},
		{"no slides", "name: x\ndescription: d\nsource: { slides: [] }\nassertions: [{ type: current_entry }]\n", "source.slides is required"},
		{"duplicate title", "name: x\ndescription: d\nsource: { slides: [{ title: A }, { title: A }] }\nassertions: [{ type: current_entry }]\n", "duplicate title"},
		{"parent after child", "name: x\ndescription: d\nsource: { slides: [{ title: B, parent: A }, { title: A }] }\nassertions: [{ type: current_entry }]\n", "must precede"},
		{"bad kind", "name: x\ndescription: d\nsource: { slides: [{ title: A, sheets: [{ name: s, kind: crayon }] }] }\nassertions: [{ type: current_entry }]\n", "unknown sheet kind"},
		{"bad origin", "name: x\ndescription: d\nsource: { origin: mars, slides: [{ title: A }] }\nassertions: [{ type: current_entry }]\n", "unknown origin"},
		{"no assertions", "name: x\ndescription: d\nsource: { slides: [{ title: A }] }\n", "assertions list is required"},
		{"assertion without slide", "name: x\ndescription: d\nsource: { slides: [{ title: A }] }\nassertions: [{ type: stroke_count }]\n", "slide is required"},
		{"unknown assertion", "name: x\ndescription: d\nsource: { slides: [{ title: A }] }\nassertions: [{ type: vibes }]\n", `unknown type "vibes"`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseScenario([]byte(tt.yaml))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestLoadScenario_MissingFile(t *testing.T) {
	_, err := LoadScenario(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.ErrorContains(t, err, "failed to read scenario file")
}
