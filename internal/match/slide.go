package match

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/roach88/deckmirror/internal/model"
)

// SlideMatch mirrors a slide's geometry and submission fields and keeps a
// mirror of its annotation sheets. Content sheets are not observed.
type SlideMatch struct {
	lifecycle
	queue    Poster
	opts     *options
	src, dst *model.Slide

	mu     sync.Mutex
	sheets map[model.Sheet][]SheetMatch
}

// NewSlideMatch pairs src with dst. Existing annotation sheets on src are
// mirrored as if they had just been added.
func NewSlideMatch(q Poster, src, dst *model.Slide, opts ...Option) *SlideMatch {
	return newSlideMatch(q, src, dst, buildOptions(opts))
}

func newSlideMatch(q Poster, src, dst *model.Slide, o *options) *SlideMatch {
	m := &SlideMatch{
		lifecycle: lifecycle{name: fmt.Sprintf("slide:%s->%s", src.ID(), dst.ID())},
		queue:     q,
		opts:      o,
		src:       src,
		dst:       dst,
		sheets:    make(map[model.Sheet][]SheetMatch),
	}

	// disposal of owned sheet matches runs last
	m.onDispose(m.disposeSheets)

	propReg := src.Changes().Add(func(c model.PropertyChange) {
		switch c.Property {
		case model.PropZoom, model.PropBounds, model.PropSubmissionSlide, model.PropSubmissionStyle:
			if !m.Disposed() {
				m.queue.Post(m.snapshot())
			}
		}
	})
	m.onDispose(func() { src.Changes().Remove(propReg) })

	sheetReg := src.AnnotationSheets().Changes().Add(func(c model.CollectionChange[model.Sheet]) {
		if m.Disposed() {
			return
		}
		switch c.Kind {
		case model.Added:
			m.queue.Post(&sheetAddTask{m: m, sheet: c.Item})
		case model.Removed:
			m.dropSheet(c.Item)
		}
	})
	m.onDispose(func() { src.AnnotationSheets().Changes().Remove(sheetReg) })

	m.queue.Post(m.snapshot())
	for _, sheet := range src.AnnotationSheets().Items() {
		m.queue.Post(&sheetAddTask{m: m, sheet: sheet})
	}

	o.logger.Debug("slide matched", "match", m.name, "title", src.Title())
	return m
}

func (m *SlideMatch) Source() *model.Slide { return m.src }
func (m *SlideMatch) Dest() *model.Slide   { return m.dst }

// SheetMatches returns the live sheet matches, ordered by source sheet ID.
func (m *SlideMatch) SheetMatches() []SheetMatch {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []SheetMatch
	for _, ms := range m.sheets {
		out = append(out, ms...)
	}
	slices.SortFunc(out, func(a, b SheetMatch) int {
		return cmp.Compare(a.Source().ID(), b.Source().ID())
	})
	return out
}

// SheetMatchesFor returns the matches mirroring src.
func (m *SlideMatch) SheetMatchesFor(src model.Sheet) []SheetMatch {
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Clone(m.sheets[src])
}

// Dispose unregisters the slide and sheet-list listeners, then disposes
// every sheet match. Destination sheets are kept.
func (m *SlideMatch) Dispose() { m.dispose() }

func (m *SlideMatch) snapshot() *slidePropsTask {
	return &slidePropsTask{
		m:               m,
		zoom:            m.src.Zoom(),
		bounds:          m.src.Bounds(),
		submissionSlide: m.src.SubmissionSlide(),
		submissionStyle: m.src.SubmissionStyle(),
	}
}

// mirrorSheet creates an empty destination sheet of src's kind and the
// match between them. Called on the dispatcher goroutine.
func (m *SlideMatch) mirrorSheet(src model.Sheet) (SheetMatch, error) {
	if !m.src.AnnotationSheets().Contains(src) {
		return nil, nil
	}
	// a sheet re-added before the queue drained has one task per add
	m.mu.Lock()
	mirrored := len(m.sheets[src]) > 0
	m.mu.Unlock()
	if mirrored {
		m.opts.logger.Debug("annotation sheet already mirrored", "match", m.name, "sheet", src.ID().String())
		return nil, nil
	}
	dst, err := model.NewEmptySheetLike(src)
	if errors.Is(err, model.ErrSheetKind) {
		m.opts.logger.Debug("annotation sheet not mirrored", "match", m.name, "kind", src.Kind().String())
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	m.dst.AnnotationSheets().Add(dst)

	sm, err := forSheet(m.queue, src, dst, m.opts)
	if err != nil || sm == nil {
		return nil, err
	}

	m.mu.Lock()
	m.sheets[src] = append(m.sheets[src], sm)
	m.mu.Unlock()

	// the source sheet may have been removed while the match was built
	if m.Disposed() || !m.src.AnnotationSheets().Contains(src) {
		m.dropSheet(src)
		sm.Dispose()
	}
	return sm, nil
}

func (m *SlideMatch) dropSheet(src model.Sheet) {
	m.mu.Lock()
	ms := m.sheets[src]
	delete(m.sheets, src)
	m.mu.Unlock()

	for _, sm := range ms {
		sm.Dispose()
	}
}

func (m *SlideMatch) disposeSheets() {
	m.mu.Lock()
	all := m.sheets
	m.sheets = make(map[model.Sheet][]SheetMatch)
	m.mu.Unlock()

	for _, ms := range all {
		for _, sm := range ms {
			sm.Dispose()
		}
	}
}

type slidePropsTask struct {
	m               *SlideMatch
	zoom            float64
	bounds          model.Rect
	submissionSlide model.ID
	submissionStyle model.SubmissionStyle
}

func (t *slidePropsTask) Kind() string  { return "slide.props" }
func (t *slidePropsTask) Owner() string { return t.m.name }

func (t *slidePropsTask) Execute(context.Context) error {
	if err := t.m.live(); err != nil {
		return err
	}
	d := t.m.dst
	d.SetZoom(t.zoom)
	d.SetBounds(t.bounds)
	d.SetSubmissionSlide(t.submissionSlide)
	d.SetSubmissionStyle(t.submissionStyle)
	return nil
}

func (t *slidePropsTask) Detail() map[string]any {
	return map[string]any{
		"zoom":             t.zoom,
		"bounds":           rectValue(t.bounds),
		"submission_slide": t.submissionSlide.String(),
		"submission_style": t.submissionStyle.String(),
	}
}

type sheetAddTask struct {
	m      *SlideMatch
	sheet  model.Sheet
	result string
}

func (t *sheetAddTask) Kind() string  { return "slide.sheet" }
func (t *sheetAddTask) Owner() string { return t.m.name }

func (t *sheetAddTask) Execute(context.Context) error {
	if err := t.m.live(); err != nil {
		return err
	}
	sm, err := t.m.mirrorSheet(t.sheet)
	if err != nil {
		return fmt.Errorf("mirror sheet %s: %w", t.sheet.ID(), err)
	}
	if sm != nil {
		t.result = sm.Name()
	}
	return nil
}

func (t *sheetAddTask) Detail() map[string]any {
	return map[string]any{
		"sheet": t.sheet.ID().String(),
		"kind":  t.sheet.Kind().String(),
		"match": t.result,
	}
}
