package core

import (
	"fmt"
	"time"
)

// Validate checks that a PatentRecord satisfies the domain invariants:
// a non-empty patent number and a non-empty abstract (sentinel values are
// valid abstracts), with a fetch timestamp that is not in the future.
func (r *PatentRecord) Validate() error {
	if r.PatentNumber == "" {
		return fmt.Errorf("%w: %w", ErrInvalidPatentRecord, ErrEmptyPatentNumber)
	}
	if r.Abstract == "" {
		return fmt.Errorf("%w: %w", ErrInvalidPatentRecord, ErrEmptyAbstract)
	}
	if !r.FetchedAt.IsZero() && r.FetchedAt.After(time.Now().UTC().Add(time.Minute)) {
		return fmt.Errorf("%w: %w", ErrInvalidPatentRecord, ErrInvalidTimestamp)
	}
	return nil
}
