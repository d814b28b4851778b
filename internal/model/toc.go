package model

import (
	"errors"
	"slices"
	"sync"
	"sync/atomic"
)

var (
	// ErrNotMember reports an entry that does not belong to the table.
	ErrNotMember = errors.New("entry is not in this table of contents")
	// ErrAttached reports an entry already placed in a table.
	ErrAttached = errors.New("entry is already attached")
)

// Entry is a node in a table of contents referencing one slide.
// The tree shape is guarded by the owning table's lock.
type Entry struct {
	id    ID
	slide *Slide
	toc   atomic.Pointer[TableOfContents]

	parent   *Entry
	children []*Entry
}

func NewEntry(slide *Slide) *Entry {
	return &Entry{id: NewID(), slide: slide}
}

func (e *Entry) ID() ID        { return e.id }
func (e *Entry) Slide() *Slide { return e.slide }

// Table returns the owning table, or nil if the entry is detached.
func (e *Entry) Table() *TableOfContents { return e.toc.Load() }

// PathFromRoot returns the child index at each level from the root list
// down to e. It returns nil for a detached entry.
func (e *Entry) PathFromRoot() []int {
	t := e.toc.Load()
	if t == nil {
		return nil
	}
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.pathLocked(e)
}

// Parent returns the parent entry, or nil for roots and detached entries.
func (e *Entry) Parent() *Entry {
	t := e.toc.Load()
	if t == nil {
		return nil
	}
	t.mu.RLock()
	defer t.mu.RUnlock()
	return e.parent
}

// Children returns a snapshot of e's children.
func (e *Entry) Children() []*Entry {
	t := e.toc.Load()
	if t == nil {
		return slices.Clone(e.children)
	}
	t.mu.RLock()
	defer t.mu.RUnlock()
	return slices.Clone(e.children)
}

// EntryChange is delivered to table listeners. Path is the entry's
// position at the time of the change.
type EntryChange struct {
	Kind  ChangeKind
	Entry *Entry
	Path  []int
}

// TableOfContents is the deck's outline: an ordered forest of entries.
type TableOfContents struct {
	mu      sync.RWMutex
	roots   []*Entry
	changes Listeners[EntryChange]
}

func NewTableOfContents() *TableOfContents {
	return &TableOfContents{}
}

func (t *TableOfContents) Changes() *Listeners[EntryChange] { return &t.changes }

// Append adds e as the last child of parent, or as the last root when
// parent is nil.
func (t *TableOfContents) Append(parent, e *Entry) error {
	return t.Insert(parent, -1, e)
}

// Insert places e at index among parent's children. A negative or
// oversized index appends. One Added event fires for e and for each
// entry of the subtree it carries, in pre-order.
func (t *TableOfContents) Insert(parent *Entry, index int, e *Entry) error {
	t.mu.Lock()
	if parent != nil && parent.toc.Load() != t {
		t.mu.Unlock()
		return ErrNotMember
	}
	if e.toc.Load() != nil {
		t.mu.Unlock()
		return ErrAttached
	}

	siblings := &t.roots
	if parent != nil {
		siblings = &parent.children
	}
	if index < 0 || index > len(*siblings) {
		index = len(*siblings)
	}
	*siblings = slices.Insert(*siblings, index, e)
	e.parent = parent

	var events []EntryChange
	walk(e, func(n *Entry) {
		n.toc.Store(t)
	})
	walk(e, func(n *Entry) {
		events = append(events, EntryChange{Kind: Added, Entry: n, Path: t.pathLocked(n)})
	})
	t.mu.Unlock()

	for _, ev := range events {
		t.changes.Fire(ev)
	}
	return nil
}

// Remove detaches e and its subtree. One Removed event fires per entry,
// in pre-order, carrying the path the entry had before removal.
func (t *TableOfContents) Remove(e *Entry) error {
	t.mu.Lock()
	if e.toc.Load() != t {
		t.mu.Unlock()
		return ErrNotMember
	}

	var events []EntryChange
	walk(e, func(n *Entry) {
		events = append(events, EntryChange{Kind: Removed, Entry: n, Path: t.pathLocked(n)})
	})

	siblings := &t.roots
	if e.parent != nil {
		siblings = &e.parent.children
	}
	if i := slices.Index(*siblings, e); i >= 0 {
		*siblings = slices.Delete(*siblings, i, i+1)
	}
	e.parent = nil
	walk(e, func(n *Entry) { n.toc.Store(nil) })
	t.mu.Unlock()

	for _, ev := range events {
		t.changes.Fire(ev)
	}
	return nil
}

// Contains reports whether e is attached to t.
func (t *TableOfContents) Contains(e *Entry) bool {
	return e != nil && e.toc.Load() == t
}

func (t *TableOfContents) Roots() []*Entry {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return slices.Clone(t.roots)
}

// Entries returns every entry in pre-order.
func (t *TableOfContents) Entries() []*Entry {
	t.mu.RLock()
	defer t.mu.RUnlock()
	var out []*Entry
	for _, r := range t.roots {
		walk(r, func(n *Entry) { out = append(out, n) })
	}
	return out
}

// EntryAt resolves a path produced by PathFromRoot.
func (t *TableOfContents) EntryAt(path []int) *Entry {
	if len(path) == 0 {
		return nil
	}
	t.mu.RLock()
	defer t.mu.RUnlock()
	level := t.roots
	var cur *Entry
	for _, i := range path {
		if i < 0 || i >= len(level) {
			return nil
		}
		cur = level[i]
		level = cur.children
	}
	return cur
}

// EntryForSlide returns the first entry, in pre-order, referencing s.
func (t *TableOfContents) EntryForSlide(s *Slide) *Entry {
	for _, e := range t.Entries() {
		if e.slide == s {
			return e
		}
	}
	return nil
}

// pathLocked requires t.mu held.
func (t *TableOfContents) pathLocked(e *Entry) []int {
	var rev []int
	for n := e; n != nil; n = n.parent {
		siblings := t.roots
		if n.parent != nil {
			siblings = n.parent.children
		}
		i := slices.Index(siblings, n)
		if i < 0 {
			return nil
		}
		rev = append(rev, i)
	}
	slices.Reverse(rev)
	return rev
}

func walk(e *Entry, fn func(*Entry)) {
	fn(e)
	for _, c := range e.children {
		walk(c, fn)
	}
}
