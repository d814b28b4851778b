package match

import (
	"context"
	"fmt"

	"github.com/roach88/deckmirror/internal/model"
)

// SheetMatch mirrors one annotation sheet into another.
type SheetMatch interface {
	Source() model.Sheet
	Dest() model.Sheet
	Name() string
	Disposed() bool
	Dispose()
}

// sheetFactory builds the match for one sheet kind.
type sheetFactory func(q Poster, src, dst model.Sheet, o *options) (SheetMatch, error)

// sheetMatchers is keyed by source kind. Kinds absent from the table get
// no match: their content does not change after creation.
var sheetMatchers = map[model.SheetKind]sheetFactory{
	model.KindInk:         newInkSheetMatch,
	model.KindRealTimeInk: newRealTimeInkSheetMatch,
}

// ForSheet returns the match for src and dst, or nil when src's kind needs
// no ongoing propagation. The sheets must have the same kind.
func ForSheet(q Poster, src, dst model.Sheet, opts ...Option) (SheetMatch, error) {
	return forSheet(q, src, dst, buildOptions(opts))
}

func forSheet(q Poster, src, dst model.Sheet, o *options) (SheetMatch, error) {
	if src.Kind() != dst.Kind() {
		return nil, fmt.Errorf("%w: source %s, destination %s", model.ErrSheetKind, src.Kind(), dst.Kind())
	}
	factory, ok := sheetMatchers[src.Kind()]
	if !ok {
		return nil, nil
	}
	return factory(q, src, dst, o)
}

// sheetMatch copies bounds. Kind-specific matches embed it.
type sheetMatch struct {
	lifecycle
	queue    Poster
	opts     *options
	src, dst model.Sheet
}

func (m *sheetMatch) init(kind string, q Poster, src, dst model.Sheet, o *options) {
	m.name = fmt.Sprintf("%s:%s->%s", kind, src.ID(), dst.ID())
	m.queue = q
	m.opts = o
	m.src = src
	m.dst = dst

	reg := src.Changes().Add(func(c model.PropertyChange) {
		if c.Property == model.PropBounds {
			m.queue.Post(&boundsTask{m: m, bounds: src.Bounds()})
		}
	})
	m.onDispose(func() { src.Changes().Remove(reg) })
}

func (m *sheetMatch) Source() model.Sheet { return m.src }
func (m *sheetMatch) Dest() model.Sheet   { return m.dst }

type boundsTask struct {
	m      *sheetMatch
	bounds model.Rect
}

func (t *boundsTask) Kind() string  { return "sheet.bounds" }
func (t *boundsTask) Owner() string { return t.m.name }

func (t *boundsTask) Execute(context.Context) error {
	if err := t.m.live(); err != nil {
		return err
	}
	t.m.dst.SetBounds(t.bounds)
	return nil
}

func (t *boundsTask) Detail() map[string]any {
	return map[string]any{"bounds": rectValue(t.bounds)}
}

func rectValue(r model.Rect) map[string]any {
	return map[string]any{"x": r.X, "y": r.Y, "width": r.Width, "height": r.Height}
}
