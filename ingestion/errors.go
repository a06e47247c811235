package ingestion

import "errors"

var (
	// ErrPieceRepositoryRequired is returned when a piece repository is not provided.
	ErrPieceRepositoryRequired = errors.New("piece repository required")

	// ErrAIProviderRequired is returned when an AI provider is not provided.
	ErrAIProviderRequired = errors.New("AI provider required")

	// ErrNoFilters is returned when a removal names no filter, which would
	// otherwise delete everything.
	ErrNoFilters = errors.New("removal requires at least one filter")

	// ErrEmbeddingMismatch is returned when the embedder answers with the wrong number of vectors.
	ErrEmbeddingMismatch = errors.New("embedding result mismatch")
)
