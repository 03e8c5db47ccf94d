package embed

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/easypatent/patentscout/ai"
	"github.com/easypatent/patentscout/core"
	"github.com/easypatent/patentscout/pipeline"
	"github.com/easypatent/patentscout/storage"
	"github.com/easypatent/patentscout/vector"
)

const (
	// DefaultConcurrency is the worker pool width used when none is configured.
	DefaultConcurrency = pipeline.DefaultConcurrency

	// DefaultMaxAttempts is the retry budget for one embedding call.
	DefaultMaxAttempts = 3

	// DefaultRetryDelay is the backoff base delay between embedding attempts.
	DefaultRetryDelay = 500 * time.Millisecond
)

// Embedder runs the embedding stage: stored records in, index vectors out.
type Embedder struct {
	repo        storage.PatentRepository
	embedder    ai.Embedder
	store       vector.Store
	dimensions  int
	concurrency int
	maxAttempts int
	retryDelay  time.Duration
	logger      *slog.Logger
	progress    *pipeline.ProgressTracker
}

// EmbedderOption configures an Embedder.
type EmbedderOption func(*Embedder)

// WithConcurrency sets the worker pool width.
func WithConcurrency(concurrency int) EmbedderOption {
	return func(e *Embedder) {
		e.concurrency = concurrency
	}
}

// WithRetryPolicy sets the per-record embedding retry budget and base delay.
func WithRetryPolicy(maxAttempts int, baseDelay time.Duration) EmbedderOption {
	return func(e *Embedder) {
		e.maxAttempts = maxAttempts
		e.retryDelay = baseDelay
	}
}

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) EmbedderOption {
	return func(e *Embedder) {
		e.logger = logger
	}
}

// WithProgress attaches a progress tracker to the run.
func WithProgress(progress *pipeline.ProgressTracker) EmbedderOption {
	return func(e *Embedder) {
		e.progress = progress
	}
}

// NewEmbedder creates the embedding stage. dimensions is the vector length
// every embedding must have; mismatches fail the record.
func NewEmbedder(repo storage.PatentRepository, embedder ai.Embedder, store vector.Store, dimensions int, opts ...EmbedderOption) (*Embedder, error) {
	if repo == nil {
		return nil, errors.New("embed: repository required")
	}
	if embedder == nil {
		return nil, errors.New("embed: embedder required")
	}
	if store == nil {
		return nil, errors.New("embed: vector store required")
	}
	if dimensions <= 0 {
		return nil, errors.New("embed: dimensions must be positive")
	}

	e := &Embedder{
		repo:        repo,
		embedder:    embedder,
		store:       store,
		dimensions:  dimensions,
		concurrency: DefaultConcurrency,
		maxAttempts: DefaultMaxAttempts,
		retryDelay:  DefaultRetryDelay,
		logger:      slog.Default().With("component", "embedder"),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// Run embeds every stored record through a bounded worker pool and returns
// the aggregate report. An empty store aborts the run with
// pipeline.ErrNoItems.
func (e *Embedder) Run(ctx context.Context) (*pipeline.Report, error) {
	records, err := e.repo.GetAllPatents(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading stored patents: %w", err)
	}
	if len(records) == 0 {
		return nil, pipeline.ErrNoItems
	}

	e.logger.Info("embedding stored patents", "count", len(records), "dimensions", e.dimensions)

	items := make([]pipeline.Item[*core.PatentRecord], len(records))
	for i, record := range records {
		items[i] = pipeline.Item[*core.PatentRecord]{ID: record.PatentNumber, Payload: record}
	}

	runnerOpts := []pipeline.Option{pipeline.WithLogger(e.logger)}
	if e.progress != nil {
		runnerOpts = append(runnerOpts, pipeline.WithProgress(e.progress))
	}

	runner, err := pipeline.NewRunner[*core.PatentRecord](e.concurrency, runnerOpts...)
	if err != nil {
		return nil, err
	}
	defer runner.Release()

	return runner.Run(ctx, items, e.embedRecord)
}

// embedRecord processes one record: embed, verify, normalize, upsert.
func (e *Embedder) embedRecord(ctx context.Context, item pipeline.Item[*core.PatentRecord]) error {
	record := item.Payload

	var vec []float32
	err := pipeline.RetryWithBackoff(ctx, func() error {
		var embedErr error
		vec, embedErr = e.embedder.EmbedText(ctx, record.Abstract)
		return embedErr
	}, e.maxAttempts, e.retryDelay)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrEmbeddingFailed, record.PatentNumber, err)
	}

	if len(vec) != e.dimensions {
		return fmt.Errorf("%w: %s: got %d, want %d",
			ErrDimensionMismatch, record.PatentNumber, len(vec), e.dimensions)
	}

	embedding := core.EmbeddingRecord{
		PatentNumber: record.PatentNumber,
		Vector:       NormalizeVector(vec),
	}
	if err := e.store.Upsert(ctx, embedding); err != nil {
		return fmt.Errorf("upserting %s: %w", record.PatentNumber, err)
	}
	return nil
}
