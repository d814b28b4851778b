package model

import (
	"slices"
	"sync"
)

// Traversal is a cursor over a deck's table of contents.
type Traversal interface {
	ID() ID
	Deck() *Deck
	Current() *Entry
	// SetCurrent moves the cursor. Entries outside the deck's table are
	// ignored; nil clears the cursor.
	SetCurrent(*Entry)
	Changes() *Listeners[PropertyChange]
}

// SlideTraversal is the basic Traversal.
type SlideTraversal struct {
	id   ID
	deck *Deck

	mu      sync.RWMutex
	current *Entry
	changes Listeners[PropertyChange]
}

// NewSlideTraversal starts at the deck's first entry, if any.
func NewSlideTraversal(deck *Deck) *SlideTraversal {
	t := &SlideTraversal{id: NewID(), deck: deck}
	if roots := deck.TableOfContents().Roots(); len(roots) > 0 {
		t.current = roots[0]
	}
	return t
}

func (t *SlideTraversal) ID() ID                              { return t.id }
func (t *SlideTraversal) Deck() *Deck                         { return t.deck }
func (t *SlideTraversal) Changes() *Listeners[PropertyChange] { return &t.changes }
func (t *SlideTraversal) Current() *Entry                     { return read(&t.mu, &t.current) }

func (t *SlideTraversal) SetCurrent(e *Entry) {
	if e != nil && !t.deck.TableOfContents().Contains(e) {
		return
	}
	if update(&t.mu, &t.current, e) {
		t.changes.Fire(PropertyChange{Sender: t, Property: PropCurrent})
	}
}

// Step moves t by delta positions through the pre-order entry list and
// reports whether the cursor moved. A cursor with no current entry
// starts from the first entry.
func Step(t Traversal, delta int) bool {
	entries := t.Deck().TableOfContents().Entries()
	if len(entries) == 0 {
		return false
	}
	cur := t.Current()
	i := slices.Index(entries, cur)
	var next int
	if i < 0 {
		next = 0
	} else {
		next = min(max(i+delta, 0), len(entries)-1)
		if next == i {
			return false
		}
	}
	t.SetCurrent(entries[next])
	return entries[next] != cur
}
