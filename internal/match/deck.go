package match

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/roach88/deckmirror/internal/engine"
	"github.com/roach88/deckmirror/internal/model"
)

// SlidePair is a source slide and the destination slide it mirrors into.
type SlidePair struct {
	Source *model.Slide
	Dest   *model.Slide
}

// MatchSlidesByTitle pairs each source slide, in order, with the first
// destination slide of equal title that no earlier source slide took.
// Source slides without such a slide are left out, so two source slides
// titled "A" against one destination "A" leave the second unmatched. The
// result depends only on the inputs.
func MatchSlidesByTitle(src, dst []*model.Slide) []SlidePair {
	taken := make(map[*model.Slide]bool, len(dst))
	var pairs []SlidePair
	for _, s := range src {
		title := s.Title()
		for _, d := range dst {
			if !taken[d] && d.Title() == title {
				taken[d] = true
				pairs = append(pairs, SlidePair{Source: s, Dest: d})
				break
			}
		}
	}
	return pairs
}

// DeckMatch mirrors one deck into another: the table of contents pairing,
// one SlideMatch per title-matched slide, and the image store.
//
// Source slides with no destination slide of the same title stay
// unmatched. Nothing creates destination slides.
type DeckMatch struct {
	lifecycle
	queue    Poster
	opts     *options
	src, dst *model.Deck
	toc      *TableOfContentsMatch

	mu     sync.Mutex
	slides []*SlideMatch
}

// NewDeckMatch pairs src with dst and starts following src.
func NewDeckMatch(q Poster, src, dst *model.Deck, opts ...Option) *DeckMatch {
	return newDeckMatch(q, src, dst, buildOptions(opts))
}

func newDeckMatch(q Poster, src, dst *model.Deck, o *options) *DeckMatch {
	m := &DeckMatch{
		lifecycle: lifecycle{name: fmt.Sprintf("deck:%s->%s", src.ID(), dst.ID())},
		queue:     q,
		opts:      o,
		src:       src,
		dst:       dst,
	}

	// Cleanups run in reverse: the table of contents match first, then the
	// listeners newest to oldest, then the slide matches.
	m.onDispose(m.disposeSlides)

	slideReg := src.SlideChanges().Add(func(c model.CollectionChange[*model.Slide]) {
		if m.Disposed() {
			return
		}
		switch c.Kind {
		case model.Added:
			m.matchSlide(c.Item)
		case model.Removed:
			m.dropSlide(c.Item)
		}
	})
	m.onDispose(func() { src.SlideChanges().Remove(slideReg) })

	contentReg := src.ContentAdded().Add(func(e model.ContentAdded) {
		if !m.Disposed() {
			m.queue.Post(&imageTask{m: m, hash: e.Hash})
		}
	})
	m.onDispose(func() { src.ContentAdded().Remove(contentReg) })

	// A slide's match lives as long as some entry references it.
	entryReg := src.TableOfContents().Changes().Add(func(c model.EntryChange) {
		slide := c.Entry.Slide()
		if m.Disposed() || slide == nil {
			return
		}
		switch c.Kind {
		case model.Added:
			if src.HasSlide(slide) {
				m.matchSlide(slide)
			}
		case model.Removed:
			if src.TableOfContents().EntryForSlide(slide) == nil {
				m.dropSlide(slide)
			}
		}
	})
	m.onDispose(func() { src.TableOfContents().Changes().Remove(entryReg) })

	m.toc = newTableOfContentsMatch(src, dst, o)
	m.onDispose(m.toc.Dispose)

	for _, p := range MatchSlidesByTitle(src.Slides(), dst.Slides()) {
		m.addSlideMatch(p)
	}
	for _, h := range src.ImageHashes() {
		if !dst.HasImage(h) {
			m.queue.Post(&imageTask{m: m, hash: h})
		}
	}

	o.logger.Info("deck match created",
		"match", m.name,
		"slides", len(m.SlideMatches()),
		"entries", len(m.toc.Matches()),
	)
	return m
}

func (m *DeckMatch) Source() *model.Deck { return m.src }
func (m *DeckMatch) Dest() *model.Deck   { return m.dst }

// TableOfContents returns the entry pairing.
func (m *DeckMatch) TableOfContents() *TableOfContentsMatch { return m.toc }

// SlideMatches returns the live slide matches in creation order.
func (m *DeckMatch) SlideMatches() []*SlideMatch {
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Clone(m.slides)
}

// SlideMatchFor returns the match whose source is s, or nil.
func (m *DeckMatch) SlideMatchFor(s *model.Slide) *SlideMatch {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, sm := range m.slides {
		if sm.src == s {
			return sm
		}
	}
	return nil
}

// ReplicateImage schedules a copy of source image h to the destination.
// A hash the source never registered fails the task with INVALID_ARGUMENT.
func (m *DeckMatch) ReplicateImage(h model.ImageHash) {
	m.queue.Post(&imageTask{m: m, hash: h})
}

// Dispose tears the match down. Destination structure is kept.
func (m *DeckMatch) Dispose() {
	if m.dispose() {
		m.opts.logger.Info("deck match disposed", "match", m.name)
	}
}

// matchSlide runs the title search for one new source slide against the
// destination slides not yet taken.
func (m *DeckMatch) matchSlide(s *model.Slide) {
	m.mu.Lock()
	taken := make(map[*model.Slide]bool, len(m.slides))
	for _, sm := range m.slides {
		if sm.src == s {
			m.mu.Unlock()
			return
		}
		taken[sm.dst] = true
	}
	m.mu.Unlock()

	free := slices.DeleteFunc(m.dst.Slides(), func(d *model.Slide) bool { return taken[d] })
	pairs := MatchSlidesByTitle([]*model.Slide{s}, free)
	if len(pairs) == 0 {
		m.opts.logger.Debug("slide unmatched", "match", m.name, "title", s.Title())
		return
	}
	m.addSlideMatch(pairs[0])
}

func (m *DeckMatch) addSlideMatch(p SlidePair) {
	sm := newSlideMatch(m.queue, p.Source, p.Dest, m.opts)

	m.mu.Lock()
	dup := slices.ContainsFunc(m.slides, func(x *SlideMatch) bool { return x.src == p.Source })
	if !dup {
		m.slides = append(m.slides, sm)
	}
	m.mu.Unlock()

	if dup || m.Disposed() {
		sm.Dispose()
		if !dup {
			m.dropSlide(p.Source)
		}
	}
}

// dropSlide disposes every match whose source is s. Mapping only.
func (m *DeckMatch) dropSlide(s *model.Slide) {
	m.mu.Lock()
	var dropped []*SlideMatch
	m.slides = slices.DeleteFunc(m.slides, func(sm *SlideMatch) bool {
		if sm.src == s {
			dropped = append(dropped, sm)
			return true
		}
		return false
	})
	m.mu.Unlock()

	for _, sm := range dropped {
		sm.Dispose()
	}
}

func (m *DeckMatch) disposeSlides() {
	m.mu.Lock()
	all := m.slides
	m.slides = nil
	m.mu.Unlock()

	for _, sm := range all {
		sm.Dispose()
	}
}

// imageTask copies one image from the source store to the destination.
type imageTask struct {
	m    *DeckMatch
	hash model.ImageHash
}

func (t *imageTask) Kind() string  { return "deck.image" }
func (t *imageTask) Owner() string { return t.m.name }

func (t *imageTask) Execute(context.Context) error {
	if err := t.m.live(); err != nil {
		return err
	}
	if t.m.dst.HasImage(t.hash) {
		return nil
	}
	data, err := t.m.src.Image(t.hash)
	if err != nil {
		return engine.NewInvalidArgument(t.m.name, fmt.Sprintf("image %s not in source store", t.hash), err)
	}
	if err := t.m.dst.PutImage(t.hash, data); err != nil {
		return fmt.Errorf("store image %s: %w", t.hash, err)
	}
	return nil
}

func (t *imageTask) Detail() map[string]any {
	return map[string]any{"hash": t.hash.String()}
}
