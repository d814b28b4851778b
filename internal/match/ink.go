package match

import (
	"context"
	"fmt"

	"github.com/roach88/deckmirror/internal/ink"
	"github.com/roach88/deckmirror/internal/model"
)

// InkSheetMatch mirrors a committed stroke collection. Strokes are keyed
// by correlation ID on the destination: applying a stroke whose ID is
// already present replaces it.
type InkSheetMatch struct {
	sheetMatch
	srcInk, dstInk *model.Ink
}

func newInkSheetMatch(q Poster, src, dst model.Sheet, o *options) (SheetMatch, error) {
	m, err := newInkMatch("ink", q, src, dst, o)
	if err != nil {
		return nil, err
	}
	return m, nil
}

func newInkMatch(kind string, q Poster, src, dst model.Sheet, o *options) (*InkSheetMatch, error) {
	s, ok := src.(model.InkHolder)
	if !ok {
		return nil, fmt.Errorf("%w: source %T carries no ink", model.ErrSheetKind, src)
	}
	d, ok := dst.(model.InkHolder)
	if !ok {
		return nil, fmt.Errorf("%w: destination %T carries no ink", model.ErrSheetKind, dst)
	}

	m := &InkSheetMatch{srcInk: s.Ink(), dstInk: d.Ink()}
	m.init(kind, q, src, dst, o)

	addReg := m.srcInk.StrokesAdded().Add(func(e model.StrokesEvent) {
		if m.Disposed() {
			return
		}
		m.sendStrokes(e.IDs, false)
	})
	m.onDispose(func() { m.srcInk.StrokesAdded().Remove(addReg) })

	delReg := m.srcInk.StrokesDeleting().Add(func(e model.StrokesEvent) {
		if m.Disposed() {
			return
		}
		// the strokes are still present while this event runs
		cids := e.Ink.CorrelationIDs(e.IDs)
		if len(cids) > 0 {
			m.queue.Post(&inkDeleteTask{m: m, correlationIDs: cids})
		}
	})
	m.onDispose(func() { m.srcInk.StrokesDeleting().Remove(delReg) })

	// Listeners are in place first, so a stroke added meanwhile is sent
	// twice at worst, and upsert absorbs that.
	m.sendStrokes(nil, true)
	return m, nil
}

// sendStrokes assigns missing correlation IDs to the named strokes (all
// strokes when ids is nil), exports them, and posts an add task.
func (m *InkSheetMatch) sendStrokes(ids []int, initial bool) {
	m.srcInk.EnsureCorrelationIDs(ids, m.opts.ids.Generate)
	strokes := m.srcInk.Extract(ids)
	if len(strokes) == 0 && !initial {
		return
	}

	data := make([]ink.StrokeData, 0, len(strokes))
	for _, s := range strokes {
		sd, err := ink.Export(s)
		if err != nil {
			m.opts.logger.Warn("stroke not exported", "match", m.name, "stroke", s.ID, "error", err)
			continue
		}
		if _, ok := sd.Properties[ink.PropOrigin]; !ok {
			sd.Properties[ink.PropOrigin] = m.src.ID().String()
		}
		data = append(data, sd)
	}
	m.queue.Post(&inkAddTask{m: m, strokes: data, initial: initial})
}

// Apply upserts strokes into the destination and returns how many were
// stored. Strokes that fail to decode or validate are skipped.
func (m *InkSheetMatch) Apply(strokes []ink.StrokeData) int {
	n := 0
	for _, sd := range strokes {
		s, err := sd.Rebuild()
		if err == nil {
			err = s.Validate()
		}
		if err != nil {
			m.opts.logger.Warn("stroke skipped", "match", m.name, "correlation_id", sd.CorrelationID, "error", err)
			continue
		}
		if id, ok := m.dstInk.FindByCorrelation(sd.CorrelationID); ok {
			m.dstInk.Delete(id)
		}
		m.dstInk.Add(s)
		n++
	}
	return n
}

// Remove deletes destination strokes by correlation ID and returns how
// many were removed.
func (m *InkSheetMatch) Remove(correlationIDs []string) int {
	var ids []int
	for _, cid := range correlationIDs {
		if id, ok := m.dstInk.FindByCorrelation(cid); ok {
			ids = append(ids, id)
		}
	}
	return m.dstInk.Delete(ids...)
}

// Dispose unregisters the ink and bounds listeners.
func (m *InkSheetMatch) Dispose() { m.dispose() }

type inkAddTask struct {
	m       *InkSheetMatch
	strokes []ink.StrokeData
	initial bool
	applied int
}

func (t *inkAddTask) Kind() string {
	if t.initial {
		return "ink.sync"
	}
	return "ink.add"
}
func (t *inkAddTask) Owner() string { return t.m.name }

func (t *inkAddTask) Execute(context.Context) error {
	if err := t.m.live(); err != nil {
		return err
	}
	t.applied = t.m.Apply(t.strokes)
	return nil
}

func (t *inkAddTask) Detail() map[string]any {
	cids := make([]string, len(t.strokes))
	for i, sd := range t.strokes {
		cids[i] = sd.CorrelationID
	}
	return map[string]any{"correlation_ids": cids, "applied": t.applied}
}

type inkDeleteTask struct {
	m              *InkSheetMatch
	correlationIDs []string
	removed        int
}

func (t *inkDeleteTask) Kind() string  { return "ink.delete" }
func (t *inkDeleteTask) Owner() string { return t.m.name }

func (t *inkDeleteTask) Execute(context.Context) error {
	if err := t.m.live(); err != nil {
		return err
	}
	if !t.m.opts.deletePropagation {
		t.m.opts.logger.Debug("ink deletion not propagated", "match", t.m.name, "strokes", len(t.correlationIDs))
		return nil
	}
	t.removed = t.m.Remove(t.correlationIDs)
	return nil
}

func (t *inkDeleteTask) Detail() map[string]any {
	return map[string]any{
		"correlation_ids": t.correlationIDs,
		"propagated":      t.m.opts.deletePropagation,
		"removed":         t.removed,
	}
}
