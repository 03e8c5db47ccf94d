package core

import (
	"encoding/binary"
	"time"

	"github.com/go-crypt/x/blake2b"
)

// ID is a unique identifier for stored records.
// It is derived from record content so identical content maps to the same key.
type ID uint64

// IDFromContent generates a deterministic ID from text content using BLAKE2b hashing.
// This ensures that identical content produces identical IDs.
func IDFromContent(text string) ID {
	h, _ := blake2b.New(8, nil) // 8 bytes = 64 bits
	h.Write([]byte(text))
	sum := h.Sum(nil)
	return ID(binary.LittleEndian.Uint64(sum))
}

// Sentinel abstract values. A harvested record always carries an abstract
// string; when the remote side has none, or the detail fetch fails, one of
// these sentinels is stored instead.
const (
	AbstractUnavailable = "No abstract available"
	AbstractFetchFailed = "Abstract fetch failed"
)

// PublicationRef identifies one published patent document as returned by a
// bibliographic search. Fields missing from the remote response are empty
// strings, never errors.
type PublicationRef struct {
	Country   string // Publication country code, e.g. "EP"
	DocNumber string // Document number, e.g. "1000000"
	Kind      string // Kind code, e.g. "A1"
	IDType    string // Document id type used for detail lookups, e.g. "docdb"
}

// PatentNumber returns the record identifier for this reference:
// the concatenation of country code, document number and kind code.
func (r PublicationRef) PatentNumber() string {
	return r.Country + r.DocNumber + r.Kind
}

// PatentRecord is a harvested patent: its identifier plus abstract text.
type PatentRecord struct {
	PatentNumber string
	Abstract     string
	Keyword      string    // Search keyword that surfaced this record
	FetchedAt    time.Time // When the abstract was fetched from the remote API
	InsertedAt   time.Time // When the record was inserted into the store
	UpdatedAt    time.Time // When the record was last updated
}

// ID returns the content-derived storage key for this record.
func (r *PatentRecord) ID() ID {
	return IDFromContent(r.PatentNumber)
}

// EmbeddingRecord pairs a patent identifier with its embedding vector.
// The vector length is fixed by the embedding model configuration and is
// constant for a given run.
type EmbeddingRecord struct {
	PatentNumber string
	Vector       []float32
}
