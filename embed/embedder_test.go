package embed

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/easypatent/patentscout/ai/mock"
	"github.com/easypatent/patentscout/core"
	"github.com/easypatent/patentscout/pipeline"
	"github.com/easypatent/patentscout/storage"
	"github.com/easypatent/patentscout/storage/badger"
)

// fakeStore records upserted vectors in memory.
type fakeStore struct {
	mu      sync.Mutex
	vectors map[string][]float32
	err     error
}

func newFakeStore() *fakeStore {
	return &fakeStore{vectors: make(map[string][]float32)}
}

func (f *fakeStore) Upsert(ctx context.Context, rec core.EmbeddingRecord) error {
	if f.err != nil {
		return f.err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.vectors[rec.PatentNumber] = rec.Vector
	return nil
}

func (f *fakeStore) Close() error { return nil }

func (f *fakeStore) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.vectors)
}

func newSeededRepository(t *testing.T, n int) storage.PatentRepository {
	t.Helper()

	repo, backend, err := badger.NewMemoryRepository()
	require.NoError(t, err)
	t.Cleanup(func() {
		repo.Close()
		backend.Close()
	})

	for i := 0; i < n; i++ {
		record := &core.PatentRecord{
			PatentNumber: fmt.Sprintf("EP%07dA1", 1000000+i),
			Abstract:     fmt.Sprintf("Abstract number %d.", i),
			Keyword:      "battery",
			FetchedAt:    time.Now().UTC(),
		}
		require.NoError(t, repo.UpsertPatents(context.Background(), record))
	}
	return repo
}

func TestEmbedder_EmbedsAllRecords(t *testing.T) {
	repo := newSeededRepository(t, 5)
	embedder := &mock.MockEmbedder{Dimensions: 8}
	store := newFakeStore()

	stage, err := NewEmbedder(repo, embedder, store, 8)
	require.NoError(t, err)

	report, err := stage.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 5, report.Submitted)
	assert.Equal(t, 5, report.Succeeded)
	assert.Equal(t, 0, report.Failed)
	assert.Equal(t, 5, store.count())

	for _, vec := range store.vectors {
		require.Len(t, vec, 8)
		var magnitude float64
		for _, v := range vec {
			magnitude += float64(v) * float64(v)
		}
		assert.InDelta(t, 1.0, magnitude, 1e-5)
	}
}

func TestEmbedder_SingleFailureDoesNotAbortBatch(t *testing.T) {
	repo := newSeededRepository(t, 50)
	store := newFakeStore()

	embedder := &mock.MockEmbedder{Dimensions: 8}
	embedder.EmbedTextFunc = func(ctx context.Context, text string) ([]float32, error) {
		if text == "Abstract number 7." {
			return nil, errors.New("service unavailable")
		}
		return []float32{1, 0, 0, 0, 0, 0, 0, 0}, nil
	}

	stage, err := NewEmbedder(repo, embedder, store, 8,
		WithConcurrency(20),
		WithRetryPolicy(1, time.Millisecond))
	require.NoError(t, err)

	report, err := stage.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 50, report.Submitted)
	assert.Equal(t, 49, report.Succeeded)
	assert.Equal(t, 1, report.Failed)
	require.Len(t, report.Failures, 1)
	assert.ErrorIs(t, report.Failures[0].Err, ErrEmbeddingFailed)
	assert.Equal(t, 49, store.count())
}

func TestEmbedder_RetriesTransientFailure(t *testing.T) {
	repo := newSeededRepository(t, 1)
	store := newFakeStore()

	var mu sync.Mutex
	attempts := 0
	embedder := &mock.MockEmbedder{}
	embedder.EmbedTextFunc = func(ctx context.Context, text string) ([]float32, error) {
		mu.Lock()
		defer mu.Unlock()
		attempts++
		if attempts < 3 {
			return nil, errors.New("transient")
		}
		return []float32{1, 0}, nil
	}

	stage, err := NewEmbedder(repo, embedder, store, 2,
		WithRetryPolicy(3, time.Millisecond))
	require.NoError(t, err)

	report, err := stage.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, report.Succeeded)
	assert.Equal(t, 3, attempts)
}

func TestEmbedder_DimensionMismatchFailsRecord(t *testing.T) {
	repo := newSeededRepository(t, 1)
	store := newFakeStore()
	embedder := &mock.MockEmbedder{Dimensions: 4}

	stage, err := NewEmbedder(repo, embedder, store, 8,
		WithRetryPolicy(1, time.Millisecond))
	require.NoError(t, err)

	report, err := stage.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, report.Failed)
	require.Len(t, report.Failures, 1)
	assert.ErrorIs(t, report.Failures[0].Err, ErrDimensionMismatch)
	assert.Equal(t, 0, store.count())
}

func TestEmbedder_EmptyStoreAborts(t *testing.T) {
	repo := newSeededRepository(t, 0)
	stage, err := NewEmbedder(repo, mock.NewMockEmbedder(), newFakeStore(), 8)
	require.NoError(t, err)

	_, err = stage.Run(context.Background())
	assert.ErrorIs(t, err, pipeline.ErrNoItems)
}

func TestEmbedder_StoreFailureFailsRecord(t *testing.T) {
	repo := newSeededRepository(t, 2)
	store := newFakeStore()
	store.err = errors.New("index unavailable")

	stage, err := NewEmbedder(repo, &mock.MockEmbedder{Dimensions: 8}, store, 8,
		WithRetryPolicy(1, time.Millisecond))
	require.NoError(t, err)

	report, err := stage.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, report.Failed)
}

func TestEmbedder_ReportsProgress(t *testing.T) {
	repo := newSeededRepository(t, 3)
	store := newFakeStore()

	var buf bytes.Buffer
	progress := pipeline.NewProgressTracker(&buf, 0, 1)

	stage, err := NewEmbedder(repo, &mock.MockEmbedder{Dimensions: 8}, store, 8,
		WithProgress(progress))
	require.NoError(t, err)

	_, err = stage.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 3, progress.Current())
	assert.Contains(t, buf.String(), "3/3")
}

func TestNewEmbedder_RequiresCollaborators(t *testing.T) {
	repo := newSeededRepository(t, 0)
	embedder := mock.NewMockEmbedder()
	store := newFakeStore()

	_, err := NewEmbedder(nil, embedder, store, 8)
	assert.Error(t, err)
	_, err = NewEmbedder(repo, nil, store, 8)
	assert.Error(t, err)
	_, err = NewEmbedder(repo, embedder, nil, 8)
	assert.Error(t, err)
	_, err = NewEmbedder(repo, embedder, store, 0)
	assert.Error(t, err)
}
