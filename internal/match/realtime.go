package match

import (
	"context"
	"fmt"

	"github.com/roach88/deckmirror/internal/ink"
	"github.com/roach88/deckmirror/internal/model"
)

// RealTimeInkSheetMatch extends InkSheetMatch with the live packet stream
// and the current pen style.
//
// Each stroke in flight is replicated as StylusDown, zero or more Packets,
// then StylusUp, in the order the source events were posted. There are no
// sequence numbers: the serialized queue is the only ordering guarantee.
type RealTimeInkSheetMatch struct {
	*InkSheetMatch
	srcRT, dstRT *model.RealTimeInkSheet
}

func newRealTimeInkSheetMatch(q Poster, src, dst model.Sheet, o *options) (SheetMatch, error) {
	s, ok := src.(*model.RealTimeInkSheet)
	if !ok {
		return nil, fmt.Errorf("%w: source %T is not real-time ink", model.ErrSheetKind, src)
	}
	d, ok := dst.(*model.RealTimeInkSheet)
	if !ok {
		return nil, fmt.Errorf("%w: destination %T is not real-time ink", model.ErrSheetKind, dst)
	}

	base, err := newInkMatch("rtink", q, src, dst, o)
	if err != nil {
		return nil, err
	}
	m := &RealTimeInkSheetMatch{InkSheetMatch: base, srcRT: s, dstRT: d}

	attrReg := s.Changes().Add(func(c model.PropertyChange) {
		if c.Property == model.PropDrawingAttributes && !m.Disposed() {
			m.queue.Post(&attrsTask{m: m, attrs: s.CurrentDrawingAttributes()})
		}
	})
	m.onDispose(func() { s.Changes().Remove(attrReg) })

	downReg := s.StylusDownEvents().Add(func(e model.StylusDown) {
		if !m.Disposed() {
			m.queue.Post(&stylusTask{m: m, phase: phaseDown, key: e.StrokeKey, tablet: e.Tablet, packets: e.Packets})
		}
	})
	m.onDispose(func() { s.StylusDownEvents().Remove(downReg) })

	packetsReg := s.PacketsEvents().Add(func(e model.Packets) {
		if !m.Disposed() {
			m.queue.Post(&stylusTask{m: m, phase: phasePackets, key: e.StrokeKey, packets: e.Packets})
		}
	})
	m.onDispose(func() { s.PacketsEvents().Remove(packetsReg) })

	upReg := s.StylusUpEvents().Add(func(e model.StylusUp) {
		if !m.Disposed() {
			m.queue.Post(&stylusTask{m: m, phase: phaseUp, key: e.StrokeKey, packets: e.Packets})
		}
	})
	m.onDispose(func() { s.StylusUpEvents().Remove(upReg) })

	m.queue.Post(&attrsTask{m: m, attrs: s.CurrentDrawingAttributes()})
	return m, nil
}

type attrsTask struct {
	m     *RealTimeInkSheetMatch
	attrs ink.DrawingAttributes
}

func (t *attrsTask) Kind() string  { return "rtink.attributes" }
func (t *attrsTask) Owner() string { return t.m.name }

func (t *attrsTask) Execute(context.Context) error {
	if err := t.m.live(); err != nil {
		return err
	}
	t.m.dstRT.SetCurrentDrawingAttributes(t.attrs)
	return nil
}

func (t *attrsTask) Detail() map[string]any {
	return map[string]any{
		"brush":           int64(t.attrs.Brush),
		"color":           int64(t.attrs.Color),
		"size":            float32(t.attrs.Size),
		"ignore_pressure": t.attrs.IgnorePressure,
	}
}

type stylusPhase string

const (
	phaseDown    stylusPhase = "down"
	phasePackets stylusPhase = "packets"
	phaseUp      stylusPhase = "up"
)

type stylusTask struct {
	m       *RealTimeInkSheetMatch
	phase   stylusPhase
	key     model.StrokeKey
	tablet  ink.TabletProperties
	packets []ink.Dot
}

func (t *stylusTask) Kind() string  { return "rtink." + string(t.phase) }
func (t *stylusTask) Owner() string { return t.m.name }

func (t *stylusTask) Execute(context.Context) error {
	if err := t.m.live(); err != nil {
		return err
	}
	dst := t.m.dstRT
	switch t.phase {
	case phaseDown:
		dst.StylusDown(t.key.StylusID, t.key.StrokeID, t.tablet, t.packets)
	case phasePackets:
		dst.Packets(t.key.StylusID, t.key.StrokeID, t.packets)
	case phaseUp:
		dst.StylusUp(t.key.StylusID, t.key.StrokeID, t.packets)
	}
	return nil
}

func (t *stylusTask) Detail() map[string]any {
	return map[string]any{
		"stylus":  t.key.StylusID,
		"stroke":  t.key.StrokeID,
		"packets": len(t.packets),
	}
}
