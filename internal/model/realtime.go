package model

import (
	"cmp"
	"slices"
	"sync"

	"github.com/roach88/deckmirror/internal/ink"
)

// InkHolder is implemented by sheets that carry an Ink collection.
type InkHolder interface {
	Sheet
	Ink() *Ink
}

// StrokeKey identifies a stroke in flight: the stylus drawing it and the
// per-stylus stroke number.
type StrokeKey struct {
	StylusID int
	StrokeID int
}

// StylusDown starts a live stroke.
type StylusDown struct {
	StrokeKey
	Tablet  ink.TabletProperties
	Packets []ink.Dot
}

// Packets extends a live stroke.
type Packets struct {
	StrokeKey
	Packets []ink.Dot
}

// StylusUp finishes a live stroke.
type StylusUp struct {
	StrokeKey
	Packets []ink.Dot
}

// LiveStroke is a stroke still being drawn.
type LiveStroke struct {
	StrokeKey
	Tablet  ink.TabletProperties
	Packets []ink.Dot
}

// RealTimeInkSheet is an ink sheet that also streams strokes while they
// are drawn. Live strokes are separate from the committed Ink.
type RealTimeInkSheet struct {
	InkSheet

	rtMu  sync.RWMutex
	attrs ink.DrawingAttributes
	live  map[StrokeKey]*LiveStroke

	down    Listeners[StylusDown]
	packets Listeners[Packets]
	up      Listeners[StylusUp]
}

func NewRealTimeInkSheet(d Disposition, bounds Rect) *RealTimeInkSheet {
	s := &RealTimeInkSheet{
		attrs: ink.DefaultAttributes(),
		live:  make(map[StrokeKey]*LiveStroke),
	}
	s.ink = NewInk()
	s.init(s, KindRealTimeInk, d, bounds)
	return s
}

func (s *RealTimeInkSheet) StylusDownEvents() *Listeners[StylusDown] { return &s.down }
func (s *RealTimeInkSheet) PacketsEvents() *Listeners[Packets]       { return &s.packets }
func (s *RealTimeInkSheet) StylusUpEvents() *Listeners[StylusUp]     { return &s.up }

// CurrentDrawingAttributes are the attributes applied to new live strokes.
func (s *RealTimeInkSheet) CurrentDrawingAttributes() ink.DrawingAttributes {
	return read(&s.rtMu, &s.attrs)
}

func (s *RealTimeInkSheet) SetCurrentDrawingAttributes(a ink.DrawingAttributes) {
	if update(&s.rtMu, &s.attrs, a) {
		s.changes.Fire(PropertyChange{Sender: s, Property: PropDrawingAttributes})
	}
}

// StylusDown opens a live stroke and fires the StylusDown event.
// Reopening an open key restarts it.
func (s *RealTimeInkSheet) StylusDown(stylusID, strokeID int, tablet ink.TabletProperties, packets []ink.Dot) {
	key := StrokeKey{StylusID: stylusID, StrokeID: strokeID}
	s.rtMu.Lock()
	s.live[key] = &LiveStroke{StrokeKey: key, Tablet: tablet, Packets: slices.Clone(packets)}
	s.rtMu.Unlock()

	s.down.Fire(StylusDown{StrokeKey: key, Tablet: tablet, Packets: slices.Clone(packets)})
}

// Packets appends to an open live stroke and fires the Packets event.
// Packets for a key that is not open are still announced but not kept.
func (s *RealTimeInkSheet) Packets(stylusID, strokeID int, packets []ink.Dot) {
	key := StrokeKey{StylusID: stylusID, StrokeID: strokeID}
	s.rtMu.Lock()
	if ls, ok := s.live[key]; ok {
		ls.Packets = append(ls.Packets, packets...)
	}
	s.rtMu.Unlock()

	s.packets.Fire(Packets{StrokeKey: key, Packets: slices.Clone(packets)})
}

// StylusUp closes a live stroke and fires the StylusUp event.
func (s *RealTimeInkSheet) StylusUp(stylusID, strokeID int, packets []ink.Dot) {
	key := StrokeKey{StylusID: stylusID, StrokeID: strokeID}
	s.rtMu.Lock()
	delete(s.live, key)
	s.rtMu.Unlock()

	s.up.Fire(StylusUp{StrokeKey: key, Packets: slices.Clone(packets)})
}

// Live returns copies of the open live strokes ordered by key.
func (s *RealTimeInkSheet) Live() []LiveStroke {
	s.rtMu.RLock()
	out := make([]LiveStroke, 0, len(s.live))
	for _, ls := range s.live {
		out = append(out, LiveStroke{StrokeKey: ls.StrokeKey, Tablet: ls.Tablet, Packets: slices.Clone(ls.Packets)})
	}
	s.rtMu.RUnlock()

	slices.SortFunc(out, func(a, b LiveStroke) int {
		if c := cmp.Compare(a.StylusID, b.StylusID); c != 0 {
			return c
		}
		return cmp.Compare(a.StrokeID, b.StrokeID)
	})
	return out
}
