package storage

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/poiesic/ragcore/ai"
	"github.com/poiesic/ragcore/core"
)

// EmbeddingStore answers text queries by embedding them and searching a PieceRepository.
type EmbeddingStore struct {
	repo     PieceRepository
	embedder ai.Embedder
	logger   *slog.Logger
}

var _ VectorStore = (*EmbeddingStore)(nil)

// StoreOption configures an EmbeddingStore.
type StoreOption func(*EmbeddingStore) error

// WithStoreLogger sets a custom logger.
func WithStoreLogger(logger *slog.Logger) StoreOption {
	return func(s *EmbeddingStore) error {
		if logger == nil {
			logger = slog.Default()
		}
		s.logger = logger.With("component", "vector-store")
		return nil
	}
}

// NewEmbeddingStore creates a VectorStore over repo.
func NewEmbeddingStore(repo PieceRepository, embedder ai.Embedder, opts ...StoreOption) (VectorStore, error) {
	if repo == nil {
		return nil, ErrRepositoryRequired
	}
	if embedder == nil {
		return nil, ErrEmbedderRequired
	}

	s := &EmbeddingStore{
		repo:     repo,
		embedder: embedder,
		logger:   slog.Default().With("component", "vector-store"),
	}
	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// Search embeds query and returns up to k matching pieces scoring at least threshold.
func (s *EmbeddingStore) Search(ctx context.Context, query string, filters core.FilterSet, k int, threshold float32) ([]*core.Piece, error) {
	if k <= 0 {
		return []*core.Piece{}, nil
	}

	vector, err := s.embedder.EmbedText(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embedding query: %w", err)
	}

	pieces, err := s.repo.FindSimilar(ctx, vector, filters, threshold, k)
	if err != nil {
		return nil, err
	}

	s.logger.Debug("vector search", "filters", filters, "k", k, "threshold", threshold, "hits", len(pieces))
	return pieces, nil
}

// GetByIDs resolves pieces by id.
func (s *EmbeddingStore) GetByIDs(ctx context.Context, ids ...string) ([]*core.Piece, error) {
	if len(ids) == 0 {
		return []*core.Piece{}, nil
	}
	return s.repo.GetPieces(ctx, ids...)
}

// IsReady reports whether the store holds at least one piece.
func (s *EmbeddingStore) IsReady(ctx context.Context) (bool, error) {
	n, err := s.repo.CountPieces(ctx)
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
