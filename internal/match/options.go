package match

import (
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/roach88/deckmirror/internal/engine"
)

// Poster accepts tasks for serialized execution. *engine.Dispatcher
// implements it.
type Poster interface {
	Post(engine.Task) bool
}

// Option configures a match and every match it creates.
type Option func(*options)

type options struct {
	logger            *slog.Logger
	ids               engine.IDGenerator
	deletePropagation bool
}

func buildOptions(opts []Option) *options {
	o := &options{
		logger: slog.Default(),
		ids:    engine.UUIDv7Generator{},
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// WithLogger sets the logger. Default: slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithIDGenerator sets the source of stroke correlation identifiers.
// Default: engine.UUIDv7Generator.
func WithIDGenerator(g engine.IDGenerator) Option {
	return func(o *options) { o.ids = g }
}

// WithDeletePropagation makes ink deletions on the source remove the
// matching destination strokes. Off by default: deletions are captured and
// journaled but the destination keeps its strokes.
func WithDeletePropagation(on bool) Option {
	return func(o *options) { o.deletePropagation = on }
}

// lifecycle is the disposal state shared by every match. Cleanups run
// once, in reverse registration order.
type lifecycle struct {
	name     string
	disposed atomic.Bool

	mu       sync.Mutex
	cleanups []func()
}

// onDispose registers fn to run at disposal. If the match is already
// disposed fn runs immediately.
func (l *lifecycle) onDispose(fn func()) {
	l.mu.Lock()
	if !l.disposed.Load() {
		l.cleanups = append(l.cleanups, fn)
		l.mu.Unlock()
		return
	}
	l.mu.Unlock()
	fn()
}

// dispose reports whether this call performed the disposal.
func (l *lifecycle) dispose() bool {
	l.mu.Lock()
	if !l.disposed.CompareAndSwap(false, true) {
		l.mu.Unlock()
		return false
	}
	cleanups := l.cleanups
	l.cleanups = nil
	l.mu.Unlock()

	for i := len(cleanups) - 1; i >= 0; i-- {
		cleanups[i]()
	}
	return true
}

// Disposed reports whether the match has been disposed.
func (l *lifecycle) Disposed() bool { return l.disposed.Load() }

// Name identifies the match in logs and the journal.
func (l *lifecycle) Name() string { return l.name }

// live returns a DISPOSED error once the match is disposed.
func (l *lifecycle) live() error {
	if l.disposed.Load() {
		return engine.NewDisposedError(l.name)
	}
	return nil
}
