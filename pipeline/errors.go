package pipeline

import "errors"

var (
	// ErrNoItems is returned by Run when the work item list is empty.
	// An empty batch is the only input treated as a run-level failure.
	ErrNoItems = errors.New("no work items submitted")

	// ErrPanic wraps a panic recovered inside a worker. The panicking item is
	// recorded as failed; sibling items are unaffected.
	ErrPanic = errors.New("worker panic")

	// ErrNotDispatched wraps the context error for items that were still
	// queued when the run was cancelled.
	ErrNotDispatched = errors.New("item not dispatched")

	// ErrInvalidMaxAttempts is returned when RetryWithBackoff is configured
	// with a non-positive attempt count.
	ErrInvalidMaxAttempts = errors.New("max attempts must be greater than zero")
)
