// Package engine implements the serialized task queue that carries all
// mirroring work from source documents to destination documents.
//
// ARCHITECTURE:
//
// Single-Writer Task Loop:
// Document-model notifications fire synchronously on whichever goroutine
// mutated the source. Match objects never touch the destination from
// inside a notification; they extract what they need under the source
// object's lock, wrap it in a Task value, and Post it. The Dispatcher runs
// posted tasks one at a time, in post order, on a single goroutine. This
// ensures:
// - Destination mutation happens from one known goroutine
// - Per-source ordering follows post order
// - No propagation task runs concurrently with another
//
// Task Processing Flow:
// 1. A match posts a Task carrying immutable data (Post)
// 2. Dispatcher.Run (or Drain) dequeues tasks in FIFO order
// 3. The task checks that its match is still live, then applies
// 4. The result is stamped with a Clock seq and handed to the Recorder
//
// There is no cancellation of a posted task. A task whose match has been
// disposed returns a DISPOSED error and is recorded as skipped.
//
// CRITICAL PATTERNS:
//
// Logical Clock
// Executed tasks are stamped with a monotonic seq from Clock.Next().
// The journal orders by seq, never by wall-clock time.
//
// Log and Continue
// A failing task is logged with its kind and owner, reported to the
// failure handler, and the loop moves on.
package engine
