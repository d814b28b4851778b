package service

import (
	"sync"

	"github.com/roach88/deckmirror/internal/model"
)

// LinkedTraversal stands in for a local traversal over the same deck as a
// remote one. While linked it reports the remote cursor; navigating it
// unlinks and from then on it keeps its own position until relinked.
type LinkedTraversal struct {
	id       model.ID
	local    model.Traversal
	followed model.Traversal
	reg      model.Registration

	mu       sync.RWMutex
	linked   bool
	own      *model.Entry
	disposed bool
	changes  model.Listeners[model.PropertyChange]
}

// NewLinkedTraversal wraps local, linked to followed. Both must be over
// the same deck.
func NewLinkedTraversal(local, followed model.Traversal) *LinkedTraversal {
	t := &LinkedTraversal{
		id:       model.NewID(),
		local:    local,
		followed: followed,
		linked:   true,
		own:      local.Current(),
	}
	t.reg = followed.Changes().Add(func(c model.PropertyChange) {
		if c.Property == model.PropCurrent && t.Linked() {
			t.fireCurrent()
		}
	})
	return t
}

func (t *LinkedTraversal) ID() model.ID                                    { return t.id }
func (t *LinkedTraversal) Deck() *model.Deck                               { return t.local.Deck() }
func (t *LinkedTraversal) Changes() *model.Listeners[model.PropertyChange] { return &t.changes }

// Local returns the wrapped traversal.
func (t *LinkedTraversal) Local() model.Traversal { return t.local }

// Followed returns the traversal whose cursor is reported while linked.
func (t *LinkedTraversal) Followed() model.Traversal { return t.followed }

func (t *LinkedTraversal) Linked() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.linked && !t.disposed
}

func (t *LinkedTraversal) Current() *model.Entry {
	if t.Linked() {
		return t.followed.Current()
	}
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.own
}

// SetCurrent unlinks and moves the independent cursor. Entries outside
// the deck are ignored.
func (t *LinkedTraversal) SetCurrent(e *model.Entry) {
	if e != nil && !t.Deck().TableOfContents().Contains(e) {
		return
	}
	before := t.Current()
	t.mu.Lock()
	t.linked = false
	t.own = e
	t.mu.Unlock()
	if before != e {
		t.fireCurrent()
	}
}

// SetLinked switches between following and independent navigation.
// Unlinking keeps the position that was showing.
func (t *LinkedTraversal) SetLinked(linked bool) {
	before := t.Current()
	t.mu.Lock()
	if t.disposed || t.linked == linked {
		t.mu.Unlock()
		return
	}
	t.linked = linked
	if !linked {
		t.own = before
	}
	t.mu.Unlock()
	if t.Current() != before {
		t.fireCurrent()
	}
}

// Dispose stops following. The traversal keeps its last position.
func (t *LinkedTraversal) Dispose() {
	before := t.Current()
	t.mu.Lock()
	if t.disposed {
		t.mu.Unlock()
		return
	}
	t.disposed = true
	t.own = before
	t.mu.Unlock()
	t.followed.Changes().Remove(t.reg)
}

func (t *LinkedTraversal) fireCurrent() {
	t.changes.Fire(model.PropertyChange{Sender: t, Property: model.PropCurrent})
}
