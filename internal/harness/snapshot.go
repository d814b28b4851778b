package harness

import (
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/roach88/deckmirror/internal/canonical"
	"github.com/roach88/deckmirror/internal/model"
)

// snapshot renders the destination deck as canonical JSON. Object IDs are
// left out; slides are named by title and entries by path.
func (w *world) snapshot() ([]byte, error) {
	var dm interface {
		MarshalDestEntry(*model.Entry) *model.Entry
	}
	if tm, err := w.traversalMatch(); err == nil && tm.DeckMatch() != nil {
		dm = tm.DeckMatch().TableOfContents()
	}

	slides := []any{}
	for _, s := range w.dst.Slides() {
		sheets := []any{}
		for _, sh := range s.AnnotationSheets().Items() {
			sheets = append(sheets, sheetSnapshot(sh))
		}
		slides = append(slides, map[string]any{
			"title":  s.Title(),
			"zoom":   s.Zoom(),
			"sheets": sheets,
		})
	}

	toc := []any{}
	for _, e := range w.dst.TableOfContents().Entries() {
		path := []any{}
		for _, i := range e.PathFromRoot() {
			path = append(path, i)
		}
		mapped := dm == nil || dm.MarshalDestEntry(e) != nil
		toc = append(toc, map[string]any{
			"path":   path,
			"title":  e.Slide().Title(),
			"mapped": mapped,
		})
	}

	images := []any{}
	for _, h := range w.dst.ImageHashes() {
		images = append(images, h.String())
	}

	current := ""
	if e := w.dstTr.Current(); e != nil {
		current = e.Slide().Title()
	}

	return canonical.Marshal(map[string]any{
		"scenario": w.scenario.Name,
		"current":  current,
		"slides":   slides,
		"toc":      toc,
		"images":   images,
	})
}

func sheetSnapshot(sh model.Sheet) map[string]any {
	out := map[string]any{
		"kind":        sh.Kind().String(),
		"disposition": sh.Disposition().String(),
	}
	if h, ok := sh.(model.InkHolder); ok {
		strokes := []any{}
		for _, st := range h.Ink().Strokes() {
			strokes = append(strokes, map[string]any{
				"cid":  st.CorrelationID(),
				"dots": len(st.Dots),
			})
		}
		out["strokes"] = strokes
	}
	if rt, ok := sh.(*model.RealTimeInkSheet); ok {
		live := []any{}
		for _, ls := range rt.Live() {
			live = append(live, map[string]any{
				"stylus":  ls.StylusID,
				"stroke":  ls.StrokeID,
				"packets": len(ls.Packets),
			})
		}
		out["live"] = live
	}
	return out
}

// RunWithGolden executes a scenario and compares its snapshot against
// testdata/golden/{scenario.Name}.golden.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
func RunWithGolden(t *testing.T, sc *Scenario, opts ...Option) (*Result, error) {
	t.Helper()

	result, err := Run(t.Context(), sc, opts...)
	if err != nil {
		return nil, err
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, sc.Name, result.Snapshot)
	return result, nil
}
