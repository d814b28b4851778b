package match

import (
	"fmt"
	"log/slog"
	"slices"
	"sync"

	"github.com/roach88/deckmirror/internal/model"
)

// EntryMatch pairs a source entry with the destination entry that had the
// same path from the root when the pair was made.
type EntryMatch struct {
	Source *model.Entry
	Dest   *model.Entry
}

// EntryMapping is delivered to TableOfContentsMatch listeners when a pair
// is made (Added) or dropped (Removed).
type EntryMapping struct {
	Kind model.ChangeKind
	EntryMatch
}

// TableOfContentsMatch maintains the entry correspondence between two
// tables of contents. Entries pair by path equality at pairing time; a
// later reorder does not re-verify the pair.
//
// Mapping changes happen synchronously inside the table notifications, so
// MarshalSrcEntry is current as soon as the source mutation returns.
type TableOfContentsMatch struct {
	lifecycle
	src, dst *model.TableOfContents
	logger   *slog.Logger

	mu      sync.RWMutex
	pairs   []EntryMatch
	bySrc   map[*model.Entry]*model.Entry
	byDst   map[*model.Entry]*model.Entry
	changes model.Listeners[EntryMapping]
}

// NewTableOfContentsMatch pairs every entry of src with the entry of dst
// at the same path and keeps the pairing current as entries come and go.
func NewTableOfContentsMatch(src, dst *model.Deck, opts ...Option) *TableOfContentsMatch {
	return newTableOfContentsMatch(src, dst, buildOptions(opts))
}

func newTableOfContentsMatch(src, dst *model.Deck, o *options) *TableOfContentsMatch {
	m := &TableOfContentsMatch{
		lifecycle: lifecycle{name: fmt.Sprintf("toc:%s->%s", src.ID(), dst.ID())},
		src:       src.TableOfContents(),
		dst:       dst.TableOfContents(),
		logger:    o.logger,
		bySrc:     make(map[*model.Entry]*model.Entry),
		byDst:     make(map[*model.Entry]*model.Entry),
	}

	srcReg := m.src.Changes().Add(m.onSourceChange)
	m.onDispose(func() { m.src.Changes().Remove(srcReg) })
	dstReg := m.dst.Changes().Add(m.onDestChange)
	m.onDispose(func() { m.dst.Changes().Remove(dstReg) })

	for _, e := range m.src.Entries() {
		m.pairSource(e)
	}
	m.logger.Debug("table of contents matched", "match", m.name, "pairs", len(m.Matches()))
	return m
}

// Changes notifies pair creation and removal.
func (m *TableOfContentsMatch) Changes() *model.Listeners[EntryMapping] { return &m.changes }

// MarshalSrcEntry returns the destination entry paired with e, or nil.
func (m *TableOfContentsMatch) MarshalSrcEntry(e *model.Entry) *model.Entry {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.bySrc[e]
}

// MarshalDestEntry returns the source entry paired with e, or nil.
func (m *TableOfContentsMatch) MarshalDestEntry(e *model.Entry) *model.Entry {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.byDst[e]
}

// Matches returns the current pairs in the order they were made.
func (m *TableOfContentsMatch) Matches() []EntryMatch {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return slices.Clone(m.pairs)
}

// Dispose unregisters both table listeners and forgets every pair.
// The pairs are dropped silently.
func (m *TableOfContentsMatch) Dispose() {
	if !m.dispose() {
		return
	}
	m.mu.Lock()
	m.pairs = nil
	clear(m.bySrc)
	clear(m.byDst)
	m.mu.Unlock()
}

func (m *TableOfContentsMatch) onSourceChange(c model.EntryChange) {
	if m.Disposed() {
		return
	}
	switch c.Kind {
	case model.Added:
		m.pairSource(c.Entry)
	case model.Removed:
		// mapping only: the destination entry stays
		m.unpair(func(p EntryMatch) bool { return p.Source == c.Entry })
	}
}

func (m *TableOfContentsMatch) onDestChange(c model.EntryChange) {
	if m.Disposed() {
		return
	}
	switch c.Kind {
	case model.Added:
		m.pairDest(c.Entry)
	case model.Removed:
		m.unpair(func(p EntryMatch) bool { return p.Dest == c.Entry })
	}
}

// pairSource pairs e with the unpaired destination entry at its path.
func (m *TableOfContentsMatch) pairSource(e *model.Entry) {
	path := e.PathFromRoot()
	if path == nil {
		return
	}
	cand := m.dst.EntryAt(path)
	if cand == nil {
		m.logger.Debug("source entry unmapped", "match", m.name, "path", path)
		return
	}
	m.pair(e, cand)
}

// pairDest pairs a new destination entry with the unpaired source entry
// at the same path.
func (m *TableOfContentsMatch) pairDest(e *model.Entry) {
	path := e.PathFromRoot()
	if path == nil {
		return
	}
	if cand := m.src.EntryAt(path); cand != nil {
		m.pair(cand, e)
	}
}

// pair records src and dst as mirrors. Pairing is one-to-one: when either
// side is already paired, the new candidate stays unmapped.
func (m *TableOfContentsMatch) pair(src, dst *model.Entry) {
	m.mu.Lock()
	if _, ok := m.bySrc[src]; ok {
		m.mu.Unlock()
		return
	}
	if _, ok := m.byDst[dst]; ok {
		m.mu.Unlock()
		return
	}
	p := EntryMatch{Source: src, Dest: dst}
	m.pairs = append(m.pairs, p)
	m.bySrc[src] = dst
	m.byDst[dst] = src
	m.mu.Unlock()

	m.changes.Fire(EntryMapping{Kind: model.Added, EntryMatch: p})
}

func (m *TableOfContentsMatch) unpair(match func(EntryMatch) bool) {
	m.mu.Lock()
	var dropped []EntryMatch
	m.pairs = slices.DeleteFunc(m.pairs, func(p EntryMatch) bool {
		if match(p) {
			dropped = append(dropped, p)
			return true
		}
		return false
	})
	for _, p := range dropped {
		delete(m.bySrc, p.Source)
		delete(m.byDst, p.Dest)
	}
	m.mu.Unlock()

	for _, p := range dropped {
		m.changes.Fire(EntryMapping{Kind: model.Removed, EntryMatch: p})
	}
}
