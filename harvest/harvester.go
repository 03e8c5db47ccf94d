package harvest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/easypatent/patentscout/core"
	"github.com/easypatent/patentscout/pipeline"
	"github.com/easypatent/patentscout/ratelimit"
	"github.com/easypatent/patentscout/storage"
)

// DefaultConcurrency is the worker pool width used when none is configured.
const DefaultConcurrency = pipeline.DefaultConcurrency

// PatentSource is the narrow view of the patent API the harvester needs.
// *epo.Client satisfies it.
type PatentSource interface {
	// Search returns publication references matching a title keyword.
	Search(ctx context.Context, keyword string) ([]core.PublicationRef, error)

	// FetchAbstract returns the abstract text for one publication.
	FetchAbstract(ctx context.Context, ref core.PublicationRef) (string, error)
}

// Harvester runs keyword searches against a patent source and persists
// the results.
type Harvester struct {
	source      PatentSource
	repo        storage.PatentRepository
	concurrency int
	logger      *slog.Logger
	progress    *pipeline.ProgressTracker
}

// HarvesterOption configures a Harvester.
type HarvesterOption func(*Harvester)

// WithConcurrency sets the worker pool width.
func WithConcurrency(concurrency int) HarvesterOption {
	return func(h *Harvester) {
		h.concurrency = concurrency
	}
}

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) HarvesterOption {
	return func(h *Harvester) {
		h.logger = logger
	}
}

// WithProgress attaches a progress tracker to the run.
func WithProgress(progress *pipeline.ProgressTracker) HarvesterOption {
	return func(h *Harvester) {
		h.progress = progress
	}
}

// NewHarvester creates a harvester writing to the given repository.
func NewHarvester(source PatentSource, repo storage.PatentRepository, opts ...HarvesterOption) (*Harvester, error) {
	if source == nil {
		return nil, errors.New("harvest: source required")
	}
	if repo == nil {
		return nil, errors.New("harvest: repository required")
	}

	h := &Harvester{
		source:      source,
		repo:        repo,
		concurrency: DefaultConcurrency,
		logger:      slog.Default().With("component", "harvester"),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h, nil
}

// Run harvests every keyword through a bounded worker pool and returns
// the aggregate report. A keyword fails only when its search fails or no
// record of a non-empty match set could be stored; individual abstract
// failures degrade to sentinel records.
func (h *Harvester) Run(ctx context.Context, keywords []string) (*pipeline.Report, error) {
	items := make([]pipeline.Item[string], len(keywords))
	for i, keyword := range keywords {
		items[i] = pipeline.Item[string]{ID: keyword, Payload: keyword}
	}

	runnerOpts := []pipeline.Option{pipeline.WithLogger(h.logger)}
	if h.progress != nil {
		runnerOpts = append(runnerOpts, pipeline.WithProgress(h.progress))
	}

	runner, err := pipeline.NewRunner[string](h.concurrency, runnerOpts...)
	if err != nil {
		return nil, err
	}
	defer runner.Release()

	return runner.Run(ctx, items, h.harvestKeyword)
}

// harvestKeyword processes one keyword: search, fetch abstracts, store.
func (h *Harvester) harvestKeyword(ctx context.Context, item pipeline.Item[string]) error {
	keyword := item.Payload
	ctx = ratelimit.ContextWithKey(ctx, keyword)

	refs, err := h.source.Search(ctx, keyword)
	if err != nil {
		return fmt.Errorf("searching %q: %w", keyword, err)
	}
	if len(refs) == 0 {
		h.logger.Info("no matches", "keyword", keyword)
		return nil
	}

	stored := 0
	var lastStoreErr error
	for _, ref := range refs {
		abstract, err := h.source.FetchAbstract(ctx, ref)
		if err != nil {
			h.logger.Warn("abstract fetch failed",
				"keyword", keyword, "patent", ref.PatentNumber(), "err", err)
			abstract = core.AbstractFetchFailed
		}

		record := &core.PatentRecord{
			PatentNumber: ref.PatentNumber(),
			Abstract:     abstract,
			Keyword:      keyword,
			FetchedAt:    time.Now().UTC(),
		}

		if err := h.repo.UpsertPatents(ctx, record); err != nil {
			h.logger.Warn("store failed",
				"keyword", keyword, "patent", record.PatentNumber, "err", err)
			lastStoreErr = err
			continue
		}
		stored++
	}

	if stored == 0 {
		return fmt.Errorf("storing matches for %q: %w", keyword, lastStoreErr)
	}

	h.logger.Info("keyword harvested", "keyword", keyword, "matches", len(refs), "stored", stored)
	return nil
}
