package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/panjf2000/ants/v2"
)

// DefaultConcurrency is the worker pool width used when none is configured.
const DefaultConcurrency = 20

// Item is one unit of pipeline input. Items are immutable once submitted.
type Item[T any] struct {
	ID      string
	Payload T
}

// Outcome records the terminal state of one work item.
// Err is nil for a succeeded item.
type Outcome struct {
	ID  string
	Err error
}

// Report is the aggregate result of a pipeline run.
type Report struct {
	Submitted int
	Succeeded int
	Failed    int
	Failures  []Outcome // failed outcomes in completion order
}

// FailedIDs returns the identifiers of all failed items.
func (r *Report) FailedIDs() []string {
	ids := make([]string, len(r.Failures))
	for i, f := range r.Failures {
		ids[i] = f.ID
	}
	return ids
}

// ProcessFunc processes a single work item. A non-nil error marks the item
// failed; it is never propagated past the worker boundary.
type ProcessFunc[T any] func(ctx context.Context, item Item[T]) error

// Runner executes batches of work items on a bounded worker pool.
// It manages the pool lifecycle; callers must Release it when done.
type Runner[T any] struct {
	pool     *ants.Pool
	logger   *slog.Logger
	progress *ProgressTracker
}

// Option configures a Runner.
type Option func(*runnerOptions)

type runnerOptions struct {
	logger   *slog.Logger
	progress *ProgressTracker
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(o *runnerOptions) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithProgress attaches a progress tracker that is incremented once per
// completed item. Run owns the tracker lifecycle: it sets the total to the
// batch size, starts the tracker before dispatching and finishes it after
// the last outcome.
func WithProgress(progress *ProgressTracker) Option {
	return func(o *runnerOptions) {
		o.progress = progress
	}
}

// NewRunner creates a runner with a worker pool of the given width.
// A width below 1 falls back to DefaultConcurrency.
func NewRunner[T any](concurrency int, opts ...Option) (*Runner[T], error) {
	if concurrency < 1 {
		concurrency = DefaultConcurrency
	}

	options := &runnerOptions{logger: slog.Default()}
	for _, opt := range opts {
		opt(options)
	}

	pool, err := ants.NewPool(concurrency)
	if err != nil {
		return nil, err
	}

	return &Runner[T]{
		pool:     pool,
		logger:   options.logger.With("component", "pipeline"),
		progress: options.progress,
	}, nil
}

// Run distributes items across the pool and blocks until every item has
// produced an outcome. Completion order across items is arbitrary. Item
// errors are recorded, never returned; Run itself fails only for an empty
// item list.
//
// Cancelling ctx stops dispatching: in-flight items run to completion and
// still-queued items are recorded as failures wrapping the context error, so
// the one-outcome-per-item invariant holds either way.
func (r *Runner[T]) Run(ctx context.Context, items []Item[T], process ProcessFunc[T]) (*Report, error) {
	if len(items) == 0 {
		return nil, ErrNoItems
	}

	report := &Report{Submitted: len(items)}
	var mu sync.Mutex
	var wg sync.WaitGroup

	if r.progress != nil {
		r.progress.setTotal(len(items))
		r.progress.Start()
	}

	record := func(id string, err error) {
		mu.Lock()
		if err != nil {
			report.Failed++
			report.Failures = append(report.Failures, Outcome{ID: id, Err: err})
		} else {
			report.Succeeded++
		}
		mu.Unlock()

		if r.progress != nil {
			r.progress.Increment(1)
		}
	}

	for _, item := range items {
		if ctx.Err() != nil {
			record(item.ID, fmt.Errorf("%w: %w", ErrNotDispatched, ctx.Err()))
			continue
		}

		wg.Add(1)
		submitErr := r.pool.Submit(func() {
			defer wg.Done()

			err := r.safeProcess(ctx, item, process)
			if err != nil {
				r.logger.Error("item failed", "item", item.ID, "err", err)
			}
			record(item.ID, err)
		})
		if submitErr != nil {
			wg.Done()
			record(item.ID, submitErr)
		}
	}

	wg.Wait()
	if r.progress != nil {
		r.progress.Finish()
	}
	return report, nil
}

// safeProcess invokes process and converts a panic into an ErrPanic failure
// so one item's crash never takes down its siblings or the pool.
func (r *Runner[T]) safeProcess(ctx context.Context, item Item[T], process ProcessFunc[T]) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			r.logger.Error("recovered panic in worker", "item", item.ID, "panic", rec)
			err = fmt.Errorf("%w: %v", ErrPanic, rec)
		}
	}()
	return process(ctx, item)
}

// Release releases the worker pool.
// The runner must not be used after calling Release.
func (r *Runner[T]) Release() {
	if r.pool != nil {
		r.pool.Release()
	}
}
