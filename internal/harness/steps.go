package harness

import (
	"context"
	"fmt"

	"github.com/roach88/deckmirror/internal/ink"
	"github.com/roach88/deckmirror/internal/model"
)

var brushNames = map[string]ink.BrushType{
	"paintbrush":  ink.PaintBrush,
	"pencil":      ink.Pencil,
	"ballpoint":   ink.Ballpoint,
	"marker":      ink.Marker,
	"fineliner":   ink.Fineliner,
	"highlighter": ink.Highlighter,
	"eraser":      ink.Eraser,
}

var colorNames = map[string]ink.BrushColor{
	"black": ink.Black,
	"gray":  ink.Gray,
	"white": ink.White,
	"blue":  ink.Blue,
	"red":   ink.Red,
}

func (w *world) side(s Step) *model.Deck {
	if s.Side == "destination" {
		return w.dst
	}
	return w.src
}

func (w *world) slide(d *model.Deck, title string) (*model.Slide, error) {
	s := d.SlideByTitle(title)
	if s == nil {
		return nil, fmt.Errorf("slide %q not found", title)
	}
	return s, nil
}

func (w *world) apply(ctx context.Context, s Step) error {
	d := w.side(s)
	switch s.Action {
	case StepDrain:
		return w.drain(ctx)

	case StepAddSlide:
		_, err := w.addSlide(d, s.Title, s.Parent)
		return err

	case StepRemoveSlide:
		sl, err := w.slide(d, s.Slide)
		if err != nil {
			return err
		}
		d.RemoveSlide(sl)
		return nil

	case StepRemoveEntry:
		sl, err := w.slide(d, s.Slide)
		if err != nil {
			return err
		}
		e := d.TableOfContents().EntryForSlide(sl)
		if e == nil {
			return fmt.Errorf("slide %q has no entry", s.Slide)
		}
		return d.TableOfContents().Remove(e)

	case StepSetZoom:
		sl, err := w.slide(d, s.Slide)
		if err != nil {
			return err
		}
		sl.SetZoom(s.Zoom)
		return nil

	case StepAddSheet:
		_, err := w.addSheet(d, s.Slide, SheetSpec{Name: s.Sheet, Kind: s.Kind, Disposition: s.Disposition})
		return err

	case StepRemoveSheet:
		sh, err := w.sheet(d, s.Slide, s.Sheet)
		if err != nil {
			return err
		}
		sl, err := w.slide(d, s.Slide)
		if err != nil {
			return err
		}
		sl.AnnotationSheets().Remove(sh)
		delete(w.sheets[d][s.Slide], s.Sheet)
		return nil

	case StepAddStroke, StepDeleteStroke:
		sh, err := w.sheet(d, s.Slide, s.Sheet)
		if err != nil {
			return err
		}
		holder, ok := sh.(model.InkHolder)
		if !ok {
			return fmt.Errorf("sheet %q holds no ink", s.Sheet)
		}
		if s.Action == StepAddStroke {
			holder.Ink().Add(w.stroke(s.CorrelationID, s.Dots))
			return nil
		}
		id, ok := holder.Ink().FindByCorrelation(s.CorrelationID)
		if !ok {
			return fmt.Errorf("stroke %q not found", s.CorrelationID)
		}
		holder.Ink().Delete(id)
		return nil

	case StepAddImage:
		d.AddImage([]byte(s.Data))
		return nil

	case StepNavigate:
		sl, err := w.slide(w.src, s.Slide)
		if err != nil {
			return err
		}
		e := w.src.TableOfContents().EntryForSlide(sl)
		if e == nil {
			return fmt.Errorf("slide %q has no entry", s.Slide)
		}
		w.srcTr.SetCurrent(e)
		return nil

	case StepSetPen, StepStylusDown, StepPackets, StepStylusUp:
		return w.applyRealTime(d, s)
	}
	return fmt.Errorf("unknown action %q", s.Action)
}

func (w *world) applyRealTime(d *model.Deck, s Step) error {
	sh, err := w.sheet(d, s.Slide, s.Sheet)
	if err != nil {
		return err
	}
	rt, ok := sh.(*model.RealTimeInkSheet)
	if !ok {
		return fmt.Errorf("sheet %q is not real-time ink", s.Sheet)
	}

	switch s.Action {
	case StepSetPen:
		attrs := rt.CurrentDrawingAttributes()
		if s.Brush != "" {
			b, ok := brushNames[s.Brush]
			if !ok {
				return fmt.Errorf("unknown brush %q", s.Brush)
			}
			attrs.Brush = b
		}
		if s.Color != "" {
			c, ok := colorNames[s.Color]
			if !ok {
				return fmt.Errorf("unknown color %q", s.Color)
			}
			attrs.Color = c
		}
		rt.SetCurrentDrawingAttributes(attrs)
	case StepStylusDown:
		rt.StylusDown(s.Stylus, s.Stroke, ink.TabletProperties{Device: "scenario", PressureLevels: 256}, w.dots(s.Dots))
	case StepPackets:
		rt.Packets(s.Stylus, s.Stroke, w.dots(s.Dots))
	case StepStylusUp:
		rt.StylusUp(s.Stylus, s.Stroke, w.dots(s.Dots))
	}
	return nil
}
