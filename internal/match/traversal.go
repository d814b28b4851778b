package match

import (
	"context"
	"fmt"

	"github.com/roach88/deckmirror/internal/model"
)

// DeckTraversalMatch mirrors the current entry of one traversal into
// another. Traversals over different decks get a DeckMatch, and entries
// are translated through its table of contents pairing. Traversals over
// the same deck copy the entry as is.
type DeckTraversalMatch struct {
	lifecycle
	queue    Poster
	opts     *options
	src, dst model.Traversal
	deck     *DeckMatch
}

// NewDeckTraversalMatch pairs src with dst. When both name the same
// target the match is inert. The initial cursor sync is posted, not run
// inline.
func NewDeckTraversalMatch(q Poster, src, dst model.Traversal, opts ...Option) *DeckTraversalMatch {
	o := buildOptions(opts)
	m := &DeckTraversalMatch{
		lifecycle: lifecycle{name: fmt.Sprintf("traversal:%s->%s", src.ID(), dst.ID())},
		queue:     q,
		opts:      o,
		src:       src,
		dst:       dst,
	}
	if m.IsSameTarget() {
		o.logger.Debug("traversal match is self-paired", "match", m.name)
		return m
	}

	if src.Deck() != dst.Deck() {
		m.deck = newDeckMatch(q, src.Deck(), dst.Deck(), o)
		m.onDispose(m.deck.Dispose)
	}

	reg := src.Changes().Add(func(c model.PropertyChange) {
		if c.Property == model.PropCurrent && !m.Disposed() {
			m.queue.Post(&currentTask{m: m, entry: src.Current()})
		}
	})
	m.onDispose(func() { src.Changes().Remove(reg) })

	m.queue.Post(&currentTask{m: m, entry: src.Current(), initial: true})
	return m
}

// IsSameTarget reports whether both sides are the same traversal, by
// object or by ID.
func (m *DeckTraversalMatch) IsSameTarget() bool {
	return m.src == m.dst || m.src.ID() == m.dst.ID()
}

func (m *DeckTraversalMatch) Source() model.Traversal { return m.src }
func (m *DeckTraversalMatch) Dest() model.Traversal   { return m.dst }

// DeckMatch returns the owned deck match, or nil for same-deck and
// self-paired traversals.
func (m *DeckTraversalMatch) DeckMatch() *DeckMatch { return m.deck }

// Marshal translates a source entry to its destination counterpart.
func (m *DeckTraversalMatch) Marshal(e *model.Entry) *model.Entry {
	if e == nil {
		return nil
	}
	if m.deck == nil {
		return e
	}
	return m.deck.TableOfContents().MarshalSrcEntry(e)
}

// Dispose stops following the source and disposes the deck match.
func (m *DeckTraversalMatch) Dispose() { m.dispose() }

type currentTask struct {
	m       *DeckTraversalMatch
	entry   *model.Entry
	initial bool
	applied bool
}

func (t *currentTask) Kind() string {
	if t.initial {
		return "traversal.sync"
	}
	return "traversal.current"
}
func (t *currentTask) Owner() string { return t.m.name }

func (t *currentTask) Execute(context.Context) error {
	if err := t.m.live(); err != nil {
		return err
	}
	dst := t.m.Marshal(t.entry)
	if dst == nil {
		t.m.opts.logger.Debug("current entry unmapped", "match", t.m.name)
		return nil
	}
	t.m.dst.SetCurrent(dst)
	t.applied = true
	return nil
}

func (t *currentTask) Detail() map[string]any {
	path := []any{}
	if t.entry != nil {
		for _, i := range t.entry.PathFromRoot() {
			path = append(path, i)
		}
	}
	return map[string]any{"path": path, "applied": t.applied}
}
