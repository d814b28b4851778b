package match

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/deckmirror/internal/model"
)

func TestSlideMatch_CopiesProperties(t *testing.T) {
	f := newFixture(t)
	src := model.NewSlide("S", model.Rect{Width: 800, Height: 600})
	dst := model.NewSlide("S", model.Rect{Width: 1, Height: 1})
	src.SetZoom(1.5)

	sm := NewSlideMatch(f.queue, src, dst, f.opts...)
	defer sm.Dispose()

	assert.Equal(t, 1.0, dst.Zoom(), "initial sync is posted, not inline")
	f.drain()
	assert.Equal(t, 1.5, dst.Zoom())
	assert.Equal(t, src.Bounds(), dst.Bounds())

	src.SetZoom(3)
	src.SetSubmissionSlide("sub-1")
	src.SetSubmissionStyle(model.SubmissionShared)
	src.SetBounds(model.Rect{Width: 10, Height: 20})
	f.drain()

	assert.Equal(t, 3.0, dst.Zoom())
	assert.Equal(t, model.ID("sub-1"), dst.SubmissionSlide())
	assert.Equal(t, model.SubmissionShared, dst.SubmissionStyle())
	assert.Equal(t, model.Rect{Width: 10, Height: 20}, dst.Bounds())
	assert.Equal(t, "S", dst.Title(), "title is not mirrored")
}

func TestSlideMatch_MirrorsAnnotationSheets(t *testing.T) {
	f := newFixture(t)
	src := model.NewSlide("S", model.Rect{})
	dst := model.NewSlide("S", model.Rect{})

	existing := model.NewInkSheet(model.DispositionInstructor, model.Rect{Width: 5})
	src.AnnotationSheets().Add(existing)

	sm := NewSlideMatch(f.queue, src, dst, f.opts...)
	defer sm.Dispose()

	rt := model.NewRealTimeInkSheet(model.DispositionAll, model.Rect{})
	src.AnnotationSheets().Add(rt)
	src.AnnotationSheets().Add(model.NewTextSheet(model.DispositionAll, model.Rect{}, "note"))
	src.AnnotationSheets().Add(model.NewPollSheet(model.DispositionStudent, model.Rect{}, "Q?", "yes", "no"))
	f.drain()

	sheets := dst.AnnotationSheets().Items()
	require.Len(t, sheets, 2, "text and poll sheets are not mirrored")
	assert.Equal(t, model.KindInk, sheets[0].Kind())
	assert.Equal(t, model.DispositionInstructor, sheets[0].Disposition())
	assert.Equal(t, model.Rect{Width: 5}, sheets[0].Bounds())
	assert.Equal(t, model.KindRealTimeInk, sheets[1].Kind())

	require.Len(t, sm.SheetMatchesFor(existing), 1)
	require.Len(t, sm.SheetMatchesFor(rt), 1)
	assert.IsType(t, &RealTimeInkSheetMatch{}, sm.SheetMatchesFor(rt)[0])
	assert.Len(t, sm.SheetMatches(), 2)
}

func TestSlideMatch_SheetRemovalKeepsDestination(t *testing.T) {
	f := newFixture(t)
	src := model.NewSlide("S", model.Rect{})
	dst := model.NewSlide("S", model.Rect{})
	sheet := model.NewInkSheet(model.DispositionAll, model.Rect{})

	sm := NewSlideMatch(f.queue, src, dst, f.opts...)
	defer sm.Dispose()
	src.AnnotationSheets().Add(sheet)
	f.drain()

	matches := sm.SheetMatchesFor(sheet)
	require.Len(t, matches, 1)

	src.AnnotationSheets().Remove(sheet)
	assert.True(t, matches[0].Disposed())
	assert.Empty(t, sm.SheetMatchesFor(sheet))
	assert.Equal(t, 1, dst.AnnotationSheets().Len(), "destination sheet kept")

	// edits to the removed sheet no longer reach the destination
	sheet.Ink().Add(makeStroke("x", 2))
	f.drain()
	assert.Equal(t, 0, destInk(t, dst, 0).Len())
}

func TestSlideMatch_SheetRemovedBeforeMirror(t *testing.T) {
	f := newFixture(t)
	src := model.NewSlide("S", model.Rect{})
	dst := model.NewSlide("S", model.Rect{})

	sm := NewSlideMatch(f.queue, src, dst, f.opts...)
	defer sm.Dispose()

	sheet := model.NewInkSheet(model.DispositionAll, model.Rect{})
	src.AnnotationSheets().Add(sheet)
	src.AnnotationSheets().Remove(sheet)
	f.drain()

	assert.Equal(t, 0, dst.AnnotationSheets().Len())
	assert.Empty(t, sm.SheetMatches())
}

func TestSlideMatch_SheetReAddedBeforeMirror(t *testing.T) {
	f := newFixture(t)
	src := model.NewSlide("S", model.Rect{})
	dst := model.NewSlide("S", model.Rect{})

	sm := NewSlideMatch(f.queue, src, dst, f.opts...)
	defer sm.Dispose()

	sheet := model.NewInkSheet(model.DispositionAll, model.Rect{})
	src.AnnotationSheets().Add(sheet)
	src.AnnotationSheets().Remove(sheet)
	src.AnnotationSheets().Add(sheet)
	f.drain()

	assert.Equal(t, 1, dst.AnnotationSheets().Len())
	assert.Len(t, sm.SheetMatchesFor(sheet), 1)
	assert.Len(t, sm.SheetMatches(), 1)
}

func TestSlideMatch_ExistingSheetReAddedBeforeMirror(t *testing.T) {
	f := newFixture(t)
	src := model.NewSlide("S", model.Rect{})
	dst := model.NewSlide("S", model.Rect{})
	sheet := model.NewInkSheet(model.DispositionAll, model.Rect{})
	src.AnnotationSheets().Add(sheet)

	sm := NewSlideMatch(f.queue, src, dst, f.opts...)
	defer sm.Dispose()

	src.AnnotationSheets().Remove(sheet)
	src.AnnotationSheets().Add(sheet)
	f.drain()

	assert.Equal(t, 1, dst.AnnotationSheets().Len())
	assert.Len(t, sm.SheetMatchesFor(sheet), 1)
}

func TestSlideMatch_DisposeCascades(t *testing.T) {
	f := newFixture(t)
	src := model.NewSlide("S", model.Rect{})
	dst := model.NewSlide("S", model.Rect{})
	sheet := model.NewInkSheet(model.DispositionAll, model.Rect{})
	src.AnnotationSheets().Add(sheet)

	sm := NewSlideMatch(f.queue, src, dst, f.opts...)
	f.drain()
	children := sm.SheetMatches()
	require.Len(t, children, 1)

	sm.Dispose()
	assert.True(t, children[0].Disposed())
	assert.Equal(t, 0, src.Changes().Len())
	assert.Equal(t, 0, src.AnnotationSheets().Changes().Len())
	assert.Equal(t, 0, sheet.Ink().StrokesAdded().Len())
	assert.Equal(t, 1, dst.AnnotationSheets().Len())
}
