package vector

import (
	"context"

	"github.com/easypatent/patentscout/core"
)

// Store writes embedding records to a vector index.
// Implementations must be thread-safe for concurrent use.
type Store interface {
	// Upsert inserts or replaces the vector stored under the record's
	// patent number. Re-upserting the same patent number replaces the
	// previous vector.
	Upsert(ctx context.Context, rec core.EmbeddingRecord) error

	// Close releases resources held by the store.
	Close() error
}
