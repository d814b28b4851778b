package service

import (
	"sync"

	"github.com/roach88/deckmirror/internal/model"
)

// Workspace is the set of traversals a presenter has open, plus the one
// currently shown.
type Workspace struct {
	traversals *model.List[model.Traversal]

	mu      sync.RWMutex
	current model.Traversal
	changes model.Listeners[model.PropertyChange]
}

// NewWorkspace returns a workspace holding ts. The first one becomes current.
func NewWorkspace(ts ...model.Traversal) *Workspace {
	w := &Workspace{traversals: model.NewList(ts...)}
	if len(ts) > 0 {
		w.current = ts[0]
	}
	w.traversals.Changes().Add(w.onTraversalsChanged)
	return w
}

// Traversals exposes the observable traversal set.
func (w *Workspace) Traversals() *model.List[model.Traversal] { return w.traversals }

// Changes fires PropCurrent when the current traversal changes.
func (w *Workspace) Changes() *model.Listeners[model.PropertyChange] { return &w.changes }

func (w *Workspace) Current() model.Traversal {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.current
}

// SetCurrent shows t. Traversals not in the workspace are ignored.
func (w *Workspace) SetCurrent(t model.Traversal) {
	if t != nil && !w.traversals.Contains(t) {
		return
	}
	w.setCurrent(t)
}

func (w *Workspace) setCurrent(t model.Traversal) {
	w.mu.Lock()
	if w.current == t {
		w.mu.Unlock()
		return
	}
	w.current = t
	w.mu.Unlock()
	w.changes.Fire(model.PropertyChange{Sender: w, Property: model.PropCurrent})
}

// Replace swaps old for t in place. If old was current, t becomes current.
func (w *Workspace) Replace(old, t model.Traversal) bool {
	wasCurrent := w.Current() == old
	if !w.traversals.Replace(old, t) {
		return false
	}
	if wasCurrent {
		w.setCurrent(t)
	}
	return true
}

// onTraversalsChanged moves the current pointer off a removed traversal
// to whatever now sits at its index. For a Replace that is the new item.
func (w *Workspace) onTraversalsChanged(c model.CollectionChange[model.Traversal]) {
	if c.Kind != model.Removed || w.Current() != c.Item {
		return
	}
	if w.traversals.Contains(c.Item) {
		return
	}
	items := w.traversals.Items()
	if len(items) == 0 {
		w.setCurrent(nil)
		return
	}
	w.setCurrent(items[min(c.Index, len(items)-1)])
}
