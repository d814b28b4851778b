package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
)

// ErrRunning is returned by Drain while Run owns the queue, and by Run
// when called twice.
var ErrRunning = errors.New("dispatcher is already running")

// Dispatcher is the single-writer task loop.
//
// Thread-safety model:
//   - Post(), Flush(), Stop(), Len(): safe from any goroutine
//   - Run() or Drain(): exactly one at a time; all tasks execute there
//
// INVARIANTS:
//   - Tasks execute in post order
//   - No two tasks execute concurrently
//   - Every executed task gets a unique, increasing seq
type Dispatcher struct {
	queue     *taskQueue
	clock     SeqSource
	logger    *slog.Logger
	recorder  Recorder
	onFailure func(Task, error)
	running   atomic.Bool

	applied atomic.Int64
	skipped atomic.Int64
	failed  atomic.Int64
}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithLogger sets the logger. Default: slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(d *Dispatcher) { d.logger = l }
}

// WithClock sets the seq source. Use with NewClockAt to continue a journal.
func WithClock(c SeqSource) Option {
	return func(d *Dispatcher) { d.clock = c }
}

// WithRecorder sends a Record for every executed task to r.
func WithRecorder(r Recorder) Option {
	return func(d *Dispatcher) { d.recorder = r }
}

// WithFailureHandler is called on the dispatcher goroutine with a
// TASK_FAILED error wrapping each task failure.
func WithFailureHandler(fn func(Task, error)) Option {
	return func(d *Dispatcher) { d.onFailure = fn }
}

// NewDispatcher creates an idle dispatcher. Tasks may be posted before
// Run starts; they execute once it does.
func NewDispatcher(opts ...Option) *Dispatcher {
	d := &Dispatcher{
		queue:  newTaskQueue(),
		clock:  NewClock(),
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Post submits t for execution. Returns false if the dispatcher has been
// stopped.
func (d *Dispatcher) Post(t Task) bool {
	if !d.queue.Enqueue(t) {
		d.logger.Warn("task dropped: dispatcher stopped",
			"kind", t.Kind(),
			"owner", t.Owner(),
		)
		return false
	}
	return true
}

// Run executes posted tasks until ctx is cancelled or Stop is called.
// After Stop, tasks already posted are executed before Run returns nil.
//
// ERROR HANDLING: a failed task is logged with its kind and owner and the
// loop continues. Retrying would reorder it behind later tasks for the
// same source object.
func (d *Dispatcher) Run(ctx context.Context) error {
	if !d.running.CompareAndSwap(false, true) {
		return ErrRunning
	}
	defer d.running.Store(false)

	d.logger.Info("dispatcher starting", "pending", d.queue.Len())

	for {
		if t, ok := d.queue.TryDequeue(); ok {
			d.execute(ctx, t)
			continue
		}

		select {
		case <-ctx.Done():
			d.logger.Info("dispatcher stopping: context cancelled", "pending", d.queue.Len())
			d.queue.Close()
			return ctx.Err()

		case <-d.queue.Wait():
			// A closed queue keeps this case ready; stop once it is empty.
			if d.queue.Closed() && d.queue.Len() == 0 {
				d.logger.Info("dispatcher stopping: queue closed")
				return nil
			}
		}
	}
}

// Drain executes tasks on the calling goroutine until the queue is empty,
// including tasks posted by the tasks it runs. It returns the number of
// tasks executed.
func (d *Dispatcher) Drain(ctx context.Context) (int, error) {
	if !d.running.CompareAndSwap(false, true) {
		return 0, ErrRunning
	}
	defer d.running.Store(false)

	n := 0
	for {
		if err := ctx.Err(); err != nil {
			return n, err
		}
		t, ok := d.queue.TryDequeue()
		if !ok {
			return n, nil
		}
		if _, isBarrier := t.(barrier); !isBarrier {
			n++
		}
		d.execute(ctx, t)
	}
}

// Flush blocks until every task posted before the call has executed.
// It requires Run to be active on another goroutine.
func (d *Dispatcher) Flush(ctx context.Context) error {
	b := barrier{done: make(chan struct{})}
	if !d.queue.Enqueue(b) {
		return NewQueueClosedError("flush")
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-b.done:
		return nil
	}
}

// Stop rejects further posts. Run returns once the queue is empty.
func (d *Dispatcher) Stop() {
	d.queue.Close()
}

// Len returns the number of tasks waiting.
func (d *Dispatcher) Len() int {
	return d.queue.Len()
}

// Clock returns the seq source used to stamp tasks.
func (d *Dispatcher) Clock() SeqSource {
	return d.clock
}

// Stats counts executed tasks by outcome.
type Stats struct {
	Applied int64
	Skipped int64
	Failed  int64
}

func (d *Dispatcher) Stats() Stats {
	return Stats{
		Applied: d.applied.Load(),
		Skipped: d.skipped.Load(),
		Failed:  d.failed.Load(),
	}
}

// execute runs one task. Called only from Run or Drain.
func (d *Dispatcher) execute(ctx context.Context, t Task) {
	if b, ok := t.(barrier); ok {
		close(b.done)
		return
	}

	err := safeExecute(ctx, t)
	seq := d.clock.Next()

	rec := Record{Seq: seq, Kind: t.Kind(), Owner: t.Owner(), Status: StatusApplied}

	switch {
	case err == nil:
		d.applied.Add(1)
		d.logger.Debug("task applied", "seq", seq, "kind", t.Kind(), "owner", t.Owner())

	case IsDisposed(err):
		d.skipped.Add(1)
		rec.Status = StatusSkipped
		rec.Error = err.Error()
		d.logger.Debug("task skipped: match disposed", "seq", seq, "kind", t.Kind(), "owner", t.Owner())

	default:
		d.failed.Add(1)
		rec.Status = StatusFailed
		rec.Error = err.Error()
		d.logger.Error("task failed",
			"error", err,
			"seq", seq,
			"kind", t.Kind(),
			"owner", t.Owner(),
		)
		if d.onFailure != nil {
			d.onFailure(t, newTaskFailedError(t, err))
		}
	}

	if dt, ok := t.(Detailer); ok {
		rec.Detail = dt.Detail()
	}

	if d.recorder != nil {
		if rerr := d.recorder.Record(ctx, rec); rerr != nil {
			d.logger.Warn("journal write failed", "error", rerr, "seq", seq, "kind", t.Kind())
		}
	}
}

// safeExecute turns a panicking task into an error so the loop survives.
func safeExecute(ctx context.Context, t Task) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic in task %s: %v", t.Kind(), r)
		}
	}()
	return t.Execute(ctx)
}
