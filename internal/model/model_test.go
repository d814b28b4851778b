package model

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/deckmirror/internal/ink"
)

func TestListeners_RemoveDuringFire(t *testing.T) {
	var l Listeners[int]
	var got []string
	var reg Registration
	reg = l.Add(func(v int) {
		got = append(got, fmt.Sprintf("a%d", v))
		l.Remove(reg)
	})
	l.Add(func(v int) { got = append(got, fmt.Sprintf("b%d", v)) })

	l.Fire(1)
	l.Fire(2)

	assert.Equal(t, []string{"a1", "b1", "b2"}, got)
	assert.Equal(t, 1, l.Len())
	assert.False(t, l.Remove(reg), "second remove is a no-op")
}

func TestList_Events(t *testing.T) {
	l := NewList[string]("x")
	var events []CollectionChange[string]
	l.Changes().Add(func(c CollectionChange[string]) { events = append(events, c) })

	assert.True(t, l.Add("y"))
	assert.False(t, l.Add("y"), "duplicates rejected")
	assert.True(t, l.Insert(0, "w"))
	assert.True(t, l.Replace("x", "z"))
	assert.True(t, l.Remove("w"))
	assert.False(t, l.Remove("missing"))

	assert.Equal(t, []string{"z", "y"}, l.Items())
	require.Len(t, events, 5)
	assert.Equal(t, CollectionChange[string]{Kind: Added, Item: "y", Index: 1}, events[0])
	assert.Equal(t, CollectionChange[string]{Kind: Added, Item: "w", Index: 0}, events[1])
	assert.Equal(t, CollectionChange[string]{Kind: Removed, Item: "x", Index: 1}, events[2])
	assert.Equal(t, CollectionChange[string]{Kind: Added, Item: "z", Index: 1}, events[3])
	assert.Equal(t, CollectionChange[string]{Kind: Removed, Item: "w", Index: 0}, events[4])
}

func testStroke(cid string) *ink.Stroke {
	s := &ink.Stroke{
		Attributes: ink.DefaultAttributes(),
		Dots:       []ink.Dot{{X: 1, Y: 2, Pressure: 0.5}},
	}
	if cid != "" {
		s.SetCorrelationID(cid)
	}
	return s
}

func TestInk_AddAssignsHandles(t *testing.T) {
	k := NewInk()
	var added [][]int
	k.StrokesAdded().Add(func(e StrokesEvent) { added = append(added, e.IDs) })

	ids := k.Add(testStroke("a"), testStroke(""))
	assert.Equal(t, []int{1, 2}, ids)
	assert.Equal(t, [][]int{{1, 2}}, added)

	id, ok := k.FindByCorrelation("a")
	assert.True(t, ok)
	assert.Equal(t, 1, id)

	n := 0
	assigned := k.EnsureCorrelationIDs(nil, func() string { n++; return fmt.Sprintf("gen-%d", n) })
	assert.Equal(t, 1, assigned)
	id, ok = k.FindByCorrelation("gen-1")
	assert.True(t, ok)
	assert.Equal(t, 2, id)
}

func TestInk_StoresCopies(t *testing.T) {
	k := NewInk()
	s := testStroke("a")
	k.Add(s)
	s.Dots[0].X = 99

	got := k.Strokes()
	require.Len(t, got, 1)
	assert.Equal(t, float32(1), got[0].Dots[0].X)

	got[0].Dots[0].X = 42
	assert.Equal(t, float32(1), k.Strokes()[0].Dots[0].X)
}

func TestInk_DeletingSeesStrokes(t *testing.T) {
	k := NewInk()
	ids := k.Add(testStroke("a"), testStroke("b"), testStroke("c"))

	var captured []string
	k.StrokesDeleting().Add(func(e StrokesEvent) {
		captured = e.Ink.CorrelationIDs(e.IDs)
	})

	assert.Equal(t, 2, k.Delete(ids[0], ids[2], 999))
	assert.Equal(t, []string{"a", "c"}, captured)
	assert.Equal(t, []int{ids[1]}, k.IDs())

	_, ok := k.FindByCorrelation("a")
	assert.False(t, ok)
	assert.Equal(t, 0, k.Delete(999), "unknown handles fire nothing")
}

func TestInk_HandlesNotReused(t *testing.T) {
	k := NewInk()
	ids := k.Add(testStroke("a"))
	k.Delete(ids...)
	again := k.Add(testStroke("a"))
	assert.NotEqual(t, ids, again)
}

func TestTableOfContents_PathsAndEvents(t *testing.T) {
	toc := NewTableOfContents()
	var events []EntryChange
	toc.Changes().Add(func(c EntryChange) { events = append(events, c) })

	a := NewEntry(NewSlide("A", Rect{}))
	b := NewEntry(NewSlide("B", Rect{}))
	c := NewEntry(NewSlide("C", Rect{}))
	require.NoError(t, toc.Append(nil, a))
	require.NoError(t, toc.Append(nil, b))
	require.NoError(t, toc.Append(b, c))

	assert.Equal(t, []int{0}, a.PathFromRoot())
	assert.Equal(t, []int{1, 0}, c.PathFromRoot())
	assert.Same(t, c, toc.EntryAt([]int{1, 0}))
	assert.Nil(t, toc.EntryAt([]int{2}))
	assert.Equal(t, []*Entry{a, b, c}, toc.Entries())
	assert.Same(t, b, c.Parent())

	assert.ErrorIs(t, toc.Append(nil, a), ErrAttached)

	require.NoError(t, toc.Remove(b))
	assert.Nil(t, c.PathFromRoot(), "subtree detached")
	assert.False(t, toc.Contains(c))
	assert.ErrorIs(t, toc.Remove(b), ErrNotMember)

	require.Len(t, events, 5)
	assert.Equal(t, Removed, events[3].Kind)
	assert.Same(t, b, events[3].Entry)
	assert.Equal(t, []int{1}, events[3].Path)
	assert.Same(t, c, events[4].Entry)
	assert.Equal(t, []int{1, 0}, events[4].Path)

	// reattaching carries the subtree
	events = nil
	require.NoError(t, toc.Insert(nil, 0, b))
	assert.Equal(t, []int{0, 0}, c.PathFromRoot())
	require.Len(t, events, 2)
	assert.Equal(t, []int{0, 0}, events[1].Path)
}

func TestTableOfContents_ForeignParent(t *testing.T) {
	t1 := NewTableOfContents()
	t2 := NewTableOfContents()
	p := NewEntry(nil)
	require.NoError(t, t1.Append(nil, p))
	assert.ErrorIs(t, t2.Append(p, NewEntry(nil)), ErrNotMember)
}

func TestDeck_Images(t *testing.T) {
	d := NewDeck("d", OriginLocal)
	var added []ImageHash
	d.ContentAdded().Add(func(e ContentAdded) { added = append(added, e.Hash) })

	h := d.AddImage([]byte("png"))
	assert.Equal(t, h, d.AddImage([]byte("png")))
	assert.Len(t, added, 1, "duplicate content does not refire")

	data, err := d.Image(h)
	require.NoError(t, err)
	assert.Equal(t, []byte("png"), data)

	_, err = d.Image(HashImage([]byte("other")))
	assert.ErrorIs(t, err, ErrContentNotFound)

	assert.ErrorIs(t, d.PutImage(h, []byte("tampered")), ErrHashMismatch)
	assert.Equal(t, []ImageHash{h}, d.ImageHashes())
}

func TestDeck_Slides(t *testing.T) {
	d := NewDeck("d", OriginRemote)
	var events []CollectionChange[*Slide]
	d.SlideChanges().Add(func(c CollectionChange[*Slide]) { events = append(events, c) })

	s := NewSlide("One", Rect{Width: 4, Height: 3})
	assert.True(t, d.AddSlide(s))
	assert.False(t, d.AddSlide(s))
	assert.Same(t, s, d.SlideByTitle("One"))
	assert.True(t, d.RemoveSlide(s))
	assert.False(t, d.HasSlide(s))
	require.Len(t, events, 2)
	assert.Equal(t, Removed, events[1].Kind)
}

func TestSlide_PropertyChanges(t *testing.T) {
	s := NewSlide("t", Rect{})
	var props []string
	s.Changes().Add(func(c PropertyChange) {
		assert.Same(t, s, c.Sender)
		props = append(props, c.Property)
	})

	s.SetZoom(2)
	s.SetZoom(2)
	s.SetBounds(Rect{Width: 1})
	s.SetSubmissionStyle(SubmissionShared)
	s.SetSubmissionSlide("other")

	assert.Equal(t, []string{PropZoom, PropBounds, PropSubmissionStyle, PropSubmissionSlide}, props)
	assert.Equal(t, 2.0, s.Zoom())
}

func TestSheet_BoundsSender(t *testing.T) {
	sheet := NewInkSheet(DispositionInstructor, Rect{})
	var sender any
	sheet.Changes().Add(func(c PropertyChange) { sender = c.Sender })
	sheet.SetBounds(Rect{X: 1})
	assert.Same(t, sheet, sender)
	assert.Equal(t, KindInk, sheet.Kind())
}

func TestRealTimeInkSheet_Live(t *testing.T) {
	s := NewRealTimeInkSheet(DispositionAll, Rect{})
	assert.Equal(t, KindRealTimeInk, s.Kind())

	var downs, ups int
	s.StylusDownEvents().Add(func(StylusDown) { downs++ })
	s.StylusUpEvents().Add(func(StylusUp) { ups++ })

	s.StylusDown(2, 1, ink.TabletProperties{Device: "pen"}, []ink.Dot{{X: 1}})
	s.StylusDown(1, 7, ink.TabletProperties{}, nil)
	s.Packets(2, 1, []ink.Dot{{X: 2}})
	s.Packets(9, 9, []ink.Dot{{X: 3}})

	live := s.Live()
	require.Len(t, live, 2)
	assert.Equal(t, StrokeKey{StylusID: 1, StrokeID: 7}, live[0].StrokeKey)
	assert.Len(t, live[1].Packets, 2)

	s.StylusUp(2, 1, nil)
	assert.Len(t, s.Live(), 1)
	assert.Equal(t, 2, downs)
	assert.Equal(t, 1, ups)
}

func TestRealTimeInkSheet_Attributes(t *testing.T) {
	s := NewRealTimeInkSheet(DispositionAll, Rect{})
	fired := 0
	s.Changes().Add(func(c PropertyChange) {
		if c.Property == PropDrawingAttributes {
			fired++
		}
	})
	a := s.CurrentDrawingAttributes()
	s.SetCurrentDrawingAttributes(a)
	a.Color = ink.Red
	s.SetCurrentDrawingAttributes(a)
	assert.Equal(t, 1, fired)
	assert.Equal(t, ink.Red, s.CurrentDrawingAttributes().Color)
}

func TestTraversal_SetCurrentAndStep(t *testing.T) {
	d := NewDeck("d", OriginLocal)
	a := NewEntry(NewSlide("A", Rect{}))
	b := NewEntry(NewSlide("B", Rect{}))
	require.NoError(t, d.TableOfContents().Append(nil, a))
	require.NoError(t, d.TableOfContents().Append(nil, b))

	tr := NewSlideTraversal(d)
	assert.Same(t, a, tr.Current())

	fired := 0
	tr.Changes().Add(func(PropertyChange) { fired++ })

	tr.SetCurrent(NewEntry(nil))
	assert.Same(t, a, tr.Current(), "foreign entry ignored")

	assert.True(t, Step(tr, 1))
	assert.Same(t, b, tr.Current())
	assert.False(t, Step(tr, 1), "clamped at end")
	assert.True(t, Step(tr, -5))
	assert.Same(t, a, tr.Current())
	assert.Equal(t, 2, fired)
}

func TestParseNames(t *testing.T) {
	for _, k := range []SheetKind{KindInk, KindRealTimeInk, KindImage, KindText, KindPoll} {
		got, err := ParseSheetKind(k.String())
		require.NoError(t, err)
		assert.Equal(t, k, got)
	}
	_, err := ParseSheetKind("video")
	assert.Error(t, err)

	d, err := ParseDisposition("student")
	require.NoError(t, err)
	assert.Equal(t, DispositionStudent, d)
}

func TestNewEmptySheetLike(t *testing.T) {
	src := NewRealTimeInkSheet(DispositionStudent, Rect{X: 1, Width: 5})
	src.Ink().Add(testStroke("a"))

	got, err := NewEmptySheetLike(src)
	require.NoError(t, err)
	rt, ok := got.(*RealTimeInkSheet)
	require.True(t, ok)
	assert.Equal(t, DispositionStudent, rt.Disposition())
	assert.Equal(t, src.Bounds(), rt.Bounds())
	assert.Equal(t, 0, rt.Ink().Len())
	assert.NotEqual(t, src.ID(), rt.ID())

	_, err = NewEmptySheetLike(NewTextSheet(DispositionAll, Rect{}, "hi"))
	assert.ErrorIs(t, err, ErrSheetKind)
}
