package badger

import (
	"context"
	"errors"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/easypatent/patentscout/core"
	"github.com/easypatent/patentscout/storage"
)

// PatentRepository implements storage.PatentRepository for BadgerDB.
type PatentRepository struct {
	backend *Backend
}

var _ storage.PatentRepository = (*PatentRepository)(nil)

// NewPatentRepository creates a repository on top of an open backend.
func NewPatentRepository(backend *Backend) (storage.PatentRepository, error) {
	if backend == nil {
		return nil, errors.New("backend required")
	}
	return &PatentRepository{backend: backend}, nil
}

// UpsertPatents inserts or replaces records keyed by patent number.
// The original InsertedAt survives a replace; UpdatedAt always moves.
func (r *PatentRepository) UpsertPatents(ctx context.Context, records ...*core.PatentRecord) error {
	if r.backend.IsClosed() {
		return storage.ErrStorageClosed
	}

	return r.backend.WithTx(func(tx *badger.Txn) error {
		now := time.Now().UTC()
		for _, record := range records {
			if err := record.Validate(); err != nil {
				return err
			}

			key := makePatentKey(record.ID())

			old, err := readPatentRecord(tx, key)
			if err != nil {
				return err
			}
			if old != nil {
				record.InsertedAt = old.InsertedAt
			} else {
				record.InsertedAt = now
			}
			record.UpdatedAt = now

			if err := tx.Set(key, storage.MarshalPatentRecord(record)); err != nil {
				return err
			}
		}
		return tx.Commit()
	}, true)
}

// GetPatent retrieves a single record by patent number.
func (r *PatentRepository) GetPatent(ctx context.Context, patentNumber string) (*core.PatentRecord, error) {
	if r.backend.IsClosed() {
		return nil, storage.ErrStorageClosed
	}

	var record *core.PatentRecord
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		var err error
		record, err = readPatentRecord(tx, makePatentKey(core.IDFromContent(patentNumber)))
		return err
	}, false)
	if err != nil {
		return nil, err
	}
	if record == nil {
		return nil, storage.ErrNotFound
	}
	return record, nil
}

// GetAllPatents retrieves every stored record. Order is unspecified.
func (r *PatentRepository) GetAllPatents(ctx context.Context) ([]*core.PatentRecord, error) {
	if r.backend.IsClosed() {
		return nil, storage.ErrStorageClosed
	}

	var records []*core.PatentRecord
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(patentRecordPrefix)
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			err := iter.Item().Value(func(val []byte) error {
				record, err := storage.UnmarshalPatentRecord(val)
				if err != nil {
					return err
				}
				records = append(records, record)
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	}, false)
	if err != nil {
		return nil, err
	}
	return records, nil
}

// CountPatents returns the number of stored records.
func (r *PatentRepository) CountPatents(ctx context.Context) (int, error) {
	if r.backend.IsClosed() {
		return 0, storage.ErrStorageClosed
	}

	count := 0
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(patentRecordPrefix)
		opts.PrefetchValues = false
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			count++
		}
		return nil
	}, false)
	if err != nil {
		return 0, err
	}
	return count, nil
}

// Close releases repository resources. The backend is closed separately.
func (r *PatentRepository) Close() error {
	return nil
}

// readPatentRecord reads and deserializes one record inside a transaction.
// Returns (nil, nil) when the key doesn't exist.
func readPatentRecord(tx *badger.Txn, key []byte) (*core.PatentRecord, error) {
	item, err := tx.Get(key)
	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil, nil
		}
		return nil, err
	}

	var record *core.PatentRecord
	err = item.Value(func(val []byte) error {
		record, err = storage.UnmarshalPatentRecord(val)
		return err
	})
	if err != nil {
		return nil, err
	}
	return record, nil
}
