package engine

import (
	"errors"
	"fmt"
)

// MirrorError represents an error raised while mirroring.
//
// Mirror errors include:
//   - Invalid argument: content requested from a source store that never
//     registered it
//   - Disposed: a task or call reached a match after disposal
//   - Queue closed: work posted after the dispatcher stopped
//   - Task failed: a task's Execute returned an error
type MirrorError struct {
	// Code identifies the error category.
	Code ErrorCode

	// Message is a human-readable description.
	Message string

	// Object identifies the match or document object involved.
	Object string

	// Details contains additional context.
	Details map[string]string

	// Err is the underlying cause, if any.
	Err error
}

// ErrorCode categorizes mirror errors.
type ErrorCode string

const (
	ErrCodeInvalidArgument ErrorCode = "INVALID_ARGUMENT"
	ErrCodeDisposed        ErrorCode = "DISPOSED"
	ErrCodeQueueClosed     ErrorCode = "QUEUE_CLOSED"
	ErrCodeTaskFailed      ErrorCode = "TASK_FAILED"
)

func (e *MirrorError) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Code, e.Message)
	if e.Object != "" {
		msg += fmt.Sprintf(" (object=%s)", e.Object)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *MirrorError) Unwrap() error { return e.Err }

// hasCode looks through nested mirror errors, so a TASK_FAILED wrapping
// an INVALID_ARGUMENT matches both codes.
func hasCode(err error, code ErrorCode) bool {
	for err != nil {
		var me *MirrorError
		if !errors.As(err, &me) {
			return false
		}
		if me.Code == code {
			return true
		}
		err = me.Err
	}
	return false
}

// IsInvalidArgument reports whether err is an INVALID_ARGUMENT error.
// Uses errors.As to handle wrapped errors.
func IsInvalidArgument(err error) bool { return hasCode(err, ErrCodeInvalidArgument) }

// IsDisposed reports whether err is a DISPOSED error.
func IsDisposed(err error) bool { return hasCode(err, ErrCodeDisposed) }

// IsQueueClosed reports whether err is a QUEUE_CLOSED error.
func IsQueueClosed(err error) bool { return hasCode(err, ErrCodeQueueClosed) }

// IsTaskFailed reports whether err is a TASK_FAILED error.
func IsTaskFailed(err error) bool { return hasCode(err, ErrCodeTaskFailed) }

// NewInvalidArgument reports a caller asking for something that was never
// registered. cause may be nil.
func NewInvalidArgument(object, message string, cause error) *MirrorError {
	return &MirrorError{
		Code:    ErrCodeInvalidArgument,
		Message: message,
		Object:  object,
		Err:     cause,
	}
}

// NewDisposedError reports use of a disposed match.
func NewDisposedError(object string) *MirrorError {
	return &MirrorError{
		Code:    ErrCodeDisposed,
		Message: "match is disposed",
		Object:  object,
	}
}

// NewQueueClosedError reports work posted to a stopped dispatcher.
func NewQueueClosedError(kind string) *MirrorError {
	return &MirrorError{
		Code:    ErrCodeQueueClosed,
		Message: "dispatcher is stopped",
		Details: map[string]string{"kind": kind},
	}
}

func newTaskFailedError(t Task, cause error) *MirrorError {
	return &MirrorError{
		Code:    ErrCodeTaskFailed,
		Message: fmt.Sprintf("task %s failed", t.Kind()),
		Object:  t.Owner(),
		Details: map[string]string{"kind": t.Kind()},
		Err:     cause,
	}
}
