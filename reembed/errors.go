package reembed

import "errors"

var (
	// ErrInvalidMaxAttempts is returned when maxAttempts is <= 0
	ErrInvalidMaxAttempts = errors.New("maxAttempts must be greater than 0")

	// ErrEmbeddingMismatch is returned when the embedder answers with the wrong number of vectors.
	ErrEmbeddingMismatch = errors.New("embedding count mismatch")
)
