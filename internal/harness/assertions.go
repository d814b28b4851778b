package harness

import (
	"fmt"

	"github.com/roach88/deckmirror/internal/match"
	"github.com/roach88/deckmirror/internal/model"
)

func (w *world) traversalMatch() (*match.DeckTraversalMatch, error) {
	ms := w.svc.Matches()
	if len(ms) == 0 {
		return nil, fmt.Errorf("no traversal match")
	}
	return ms[0], nil
}

func (w *world) destSheet(slide string, index int) (model.Sheet, error) {
	s, err := w.slide(w.dst, slide)
	if err != nil {
		return nil, err
	}
	sheets := s.AnnotationSheets().Items()
	if index < 0 || index >= len(sheets) {
		return nil, fmt.Errorf("slide %q has %d sheets, want index %d", slide, len(sheets), index)
	}
	return sheets[index], nil
}

func (w *world) check(a Assertion) error {
	switch a.Type {
	case AssertEntryMapped:
		tm, err := w.traversalMatch()
		if err != nil {
			return err
		}
		e, ok := w.entries[w.src][a.Slide]
		if !ok {
			return fmt.Errorf("source slide %q never existed", a.Slide)
		}
		if got := tm.Marshal(e) != nil; got != a.want() {
			return fmt.Errorf("entry for %q mapped = %v, want %v", a.Slide, got, a.want())
		}

	case AssertSlideMatched:
		tm, err := w.traversalMatch()
		if err != nil {
			return err
		}
		dm := tm.DeckMatch()
		if dm == nil {
			return fmt.Errorf("pairing has no deck match")
		}
		s, ok := w.slides[w.src][a.Slide]
		if !ok {
			return fmt.Errorf("source slide %q never existed", a.Slide)
		}
		if got := dm.SlideMatchFor(s) != nil; got != a.want() {
			return fmt.Errorf("slide %q matched = %v, want %v", a.Slide, got, a.want())
		}

	case AssertStrokeCount:
		sh, err := w.destSheet(a.Slide, a.Index)
		if err != nil {
			return err
		}
		holder, ok := sh.(model.InkHolder)
		if !ok {
			return fmt.Errorf("sheet %d of %q holds no ink", a.Index, a.Slide)
		}
		if n := holder.Ink().Len(); n != a.Count {
			return fmt.Errorf("stroke count = %d, want %d", n, a.Count)
		}

	case AssertSheetCount:
		s, err := w.slide(w.dst, a.Slide)
		if err != nil {
			return err
		}
		if n := s.AnnotationSheets().Len(); n != a.Count {
			return fmt.Errorf("sheet count = %d, want %d", n, a.Count)
		}

	case AssertCurrentEntry:
		got := ""
		if e := w.dstTr.Current(); e != nil && e.Slide() != nil {
			got = e.Slide().Title()
		}
		if got != a.Slide {
			return fmt.Errorf("current entry = %q, want %q", got, a.Slide)
		}

	case AssertImagePresent:
		h := model.HashImage([]byte(a.Data))
		if got := w.dst.HasImage(h); got != a.want() {
			return fmt.Errorf("image %s present = %v, want %v", h, got, a.want())
		}

	case AssertLiveStrokes:
		sh, err := w.destSheet(a.Slide, a.Index)
		if err != nil {
			return err
		}
		rt, ok := sh.(*model.RealTimeInkSheet)
		if !ok {
			return fmt.Errorf("sheet %d of %q is not real-time ink", a.Index, a.Slide)
		}
		if n := len(rt.Live()); n != a.Count {
			return fmt.Errorf("live strokes = %d, want %d", n, a.Count)
		}

	default:
		return fmt.Errorf("unknown assertion type %q", a.Type)
	}
	return nil
}
