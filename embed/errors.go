package embed

import "errors"

var (
	// ErrDimensionMismatch indicates an embedding of unexpected length.
	ErrDimensionMismatch = errors.New("embedding dimension mismatch")

	// ErrEmbeddingFailed indicates the embedding service failed after retries.
	ErrEmbeddingFailed = errors.New("embedding generation failed")
)
