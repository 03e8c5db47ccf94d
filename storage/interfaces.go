package storage

import (
	"context"

	"github.com/easypatent/patentscout/core"
)

// PatentRepository provides operations for persisting harvested patents.
// Implementations must be thread-safe and support concurrent writers.
type PatentRepository interface {
	// UpsertPatents inserts or replaces records, keyed by patent number.
	// Records are validated before writing. The write is idempotent: storing
	// the same patent number twice keeps a single record with the latest
	// abstract.
	UpsertPatents(ctx context.Context, records ...*core.PatentRecord) error

	// GetPatent retrieves a single record by patent number.
	// Returns ErrNotFound if the record doesn't exist.
	GetPatent(ctx context.Context, patentNumber string) (*core.PatentRecord, error)

	// GetAllPatents retrieves every stored record. Order is unspecified.
	GetAllPatents(ctx context.Context) ([]*core.PatentRecord, error)

	// CountPatents returns the number of stored records.
	CountPatents(ctx context.Context) (int, error)

	// Close closes the repository and releases resources.
	Close() error
}
