package engine

import "context"

// Task is one unit of mirroring work. Tasks carry the data they apply,
// extracted from the source before posting, plus a reference to the match
// that owns them for the liveness check.
type Task interface {
	// Kind names the operation, e.g. "ink.add" or "slide.props".
	Kind() string
	// Owner identifies the match that posted the task.
	Owner() string
	// Execute applies the task to the destination. A task whose match has
	// been disposed returns a DISPOSED error and changes nothing.
	Execute(ctx context.Context) error
}

// Detailer is implemented by tasks that describe their payload for the
// journal. Detail is called after Execute.
type Detailer interface {
	Detail() map[string]any
}

// Status says how an executed task ended.
type Status string

const (
	StatusApplied Status = "applied"
	StatusSkipped Status = "skipped"
	StatusFailed  Status = "failed"
)

// Record describes one executed task.
type Record struct {
	Seq    int64
	Kind   string
	Owner  string
	Status Status
	Detail map[string]any
	Error  string
}

// Recorder receives a Record for every executed task, on the dispatcher
// goroutine, in seq order.
type Recorder interface {
	Record(ctx context.Context, r Record) error
}

// RecorderFunc adapts a function to Recorder.
type RecorderFunc func(ctx context.Context, r Record) error

func (f RecorderFunc) Record(ctx context.Context, r Record) error { return f(ctx, r) }

type funcTask struct {
	kind  string
	owner string
	fn    func(context.Context) error
}

func (t funcTask) Kind() string                      { return t.kind }
func (t funcTask) Owner() string                     { return t.owner }
func (t funcTask) Execute(ctx context.Context) error { return t.fn(ctx) }

// Func wraps fn as a Task.
func Func(kind, owner string, fn func(context.Context) error) Task {
	return funcTask{kind: kind, owner: owner, fn: fn}
}

// barrier is posted by Flush and is neither clocked nor recorded.
type barrier struct {
	done chan struct{}
}

func (barrier) Kind() string                  { return "barrier" }
func (barrier) Owner() string                 { return "" }
func (barrier) Execute(context.Context) error { return nil }
