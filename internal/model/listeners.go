package model

import (
	"slices"
	"sync"
)

// Registration identifies a listener added to a Listeners set.
type Registration uint64

type callback[E any] struct {
	reg Registration
	fn  func(E)
}

// Listeners is a copy-on-write set of callbacks. Fire takes a snapshot,
// so callbacks may add or remove listeners (including themselves) while
// running. A removed callback can still see the event being fired when it
// was removed.
//
// The zero value is ready to use.
type Listeners[E any] struct {
	mu        sync.Mutex
	next      Registration
	callbacks []callback[E]
}

// Add registers fn and returns a handle for Remove.
func (l *Listeners[E]) Add(fn func(E)) Registration {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.next++
	reg := l.next
	next := slices.Clone(l.callbacks)
	l.callbacks = append(next, callback[E]{reg: reg, fn: fn})
	return reg
}

// Remove unregisters reg. It reports whether reg was registered.
func (l *Listeners[E]) Remove(reg Registration) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	i := slices.IndexFunc(l.callbacks, func(c callback[E]) bool { return c.reg == reg })
	if i < 0 {
		return false
	}
	next := slices.Clone(l.callbacks)
	l.callbacks = slices.Delete(next, i, i+1)
	return true
}

// Len returns the number of registered callbacks.
func (l *Listeners[E]) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.callbacks)
}

// Fire calls every registered callback with e, in registration order, on
// the calling goroutine.
func (l *Listeners[E]) Fire(e E) {
	l.mu.Lock()
	snapshot := l.callbacks
	l.mu.Unlock()
	for _, c := range snapshot {
		c.fn(e)
	}
}
