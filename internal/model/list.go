package model

import (
	"slices"
	"sync"
)

// ChangeKind distinguishes collection insertions from removals.
type ChangeKind int

const (
	Added ChangeKind = iota
	Removed
)

func (k ChangeKind) String() string {
	if k == Added {
		return "added"
	}
	return "removed"
}

// CollectionChange is delivered to List listeners. Index is the item's
// position at the time of the change.
type CollectionChange[T any] struct {
	Kind  ChangeKind
	Item  T
	Index int
}

// PropertyChange is delivered to property listeners after a value changed.
type PropertyChange struct {
	Sender   any
	Property string
}

// Property names carried by PropertyChange.
const (
	PropTitle             = "Title"
	PropBounds            = "Bounds"
	PropZoom              = "Zoom"
	PropSubmissionSlide   = "SubmissionSlide"
	PropSubmissionStyle   = "SubmissionStyle"
	PropCurrent           = "Current"
	PropDrawingAttributes = "CurrentDrawingAttributes"
	PropText              = "Text"
)

// List is an ordered observable collection. Items are unique.
type List[T comparable] struct {
	mu      sync.RWMutex
	items   []T
	changes Listeners[CollectionChange[T]]
}

// NewList returns a list holding items, without firing events.
func NewList[T comparable](items ...T) *List[T] {
	l := &List[T]{}
	for _, it := range items {
		if !slices.Contains(l.items, it) {
			l.items = append(l.items, it)
		}
	}
	return l
}

// Changes exposes the list's listener set.
func (l *List[T]) Changes() *Listeners[CollectionChange[T]] {
	return &l.changes
}

// Add appends item. It returns false if item is already present.
func (l *List[T]) Add(item T) bool {
	l.mu.Lock()
	if slices.Contains(l.items, item) {
		l.mu.Unlock()
		return false
	}
	l.items = append(l.items, item)
	idx := len(l.items) - 1
	l.mu.Unlock()

	l.changes.Fire(CollectionChange[T]{Kind: Added, Item: item, Index: idx})
	return true
}

// Insert places item at index, clamped to the list bounds.
func (l *List[T]) Insert(index int, item T) bool {
	l.mu.Lock()
	if slices.Contains(l.items, item) {
		l.mu.Unlock()
		return false
	}
	index = max(0, min(index, len(l.items)))
	l.items = slices.Insert(l.items, index, item)
	l.mu.Unlock()

	l.changes.Fire(CollectionChange[T]{Kind: Added, Item: item, Index: index})
	return true
}

// Remove deletes item. It returns false if item was not present.
func (l *List[T]) Remove(item T) bool {
	l.mu.Lock()
	idx := slices.Index(l.items, item)
	if idx < 0 {
		l.mu.Unlock()
		return false
	}
	l.items = slices.Delete(l.items, idx, idx+1)
	l.mu.Unlock()

	l.changes.Fire(CollectionChange[T]{Kind: Removed, Item: item, Index: idx})
	return true
}

// Replace swaps old for item in place, firing Removed then Added.
func (l *List[T]) Replace(old, item T) bool {
	l.mu.Lock()
	idx := slices.Index(l.items, old)
	if idx < 0 || (old != item && slices.Contains(l.items, item)) {
		l.mu.Unlock()
		return false
	}
	l.items[idx] = item
	l.mu.Unlock()

	l.changes.Fire(CollectionChange[T]{Kind: Removed, Item: old, Index: idx})
	l.changes.Fire(CollectionChange[T]{Kind: Added, Item: item, Index: idx})
	return true
}

// Items returns a snapshot of the list.
func (l *List[T]) Items() []T {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return slices.Clone(l.items)
}

func (l *List[T]) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.items)
}

func (l *List[T]) Contains(item T) bool {
	return l.IndexOf(item) >= 0
}

func (l *List[T]) IndexOf(item T) int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return slices.Index(l.items, item)
}

// update stores value in field under mu and reports whether it changed.
func update[T comparable](mu *sync.RWMutex, field *T, value T) bool {
	mu.Lock()
	defer mu.Unlock()
	if *field == value {
		return false
	}
	*field = value
	return true
}

func read[T any](mu *sync.RWMutex, field *T) T {
	mu.RLock()
	defer mu.RUnlock()
	return *field
}
