package retrieval

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/poiesic/ragcore/core"
	"github.com/poiesic/ragcore/storage"
)

// RetrieverQuark searches the vector store for one content type.
type RetrieverQuark struct {
	store       storage.VectorStore
	contentType core.ContentType
	k           int
	threshold   float32
	logger      *slog.Logger
}

var _ Quark = (*RetrieverQuark)(nil)

// QuarkOption configures a RetrieverQuark.
type QuarkOption func(*RetrieverQuark) error

// WithQuarkLogger sets a custom logger.
// Default is slog.Default().
func WithQuarkLogger(logger *slog.Logger) QuarkOption {
	return func(q *RetrieverQuark) error {
		if logger == nil {
			logger = slog.Default()
		}
		q.logger = logger.With("component", "quark", "content_type", q.contentType)
		return nil
	}
}

// NewRetrieverQuark creates a quark returning up to k pieces of contentType
// scoring at least threshold.
func NewRetrieverQuark(store storage.VectorStore, contentType core.ContentType, k int, threshold float32, opts ...QuarkOption) (*RetrieverQuark, error) {
	if store == nil {
		return nil, ErrVectorStoreRequired
	}
	if !contentType.Valid() {
		return nil, fmt.Errorf("%w: %q", core.ErrInvalidContentType, contentType)
	}
	if k <= 0 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidK, k)
	}
	if threshold < -1 || threshold > 1 {
		return nil, fmt.Errorf("%w: got %v", ErrInvalidThreshold, threshold)
	}

	q := &RetrieverQuark{
		store:       store,
		contentType: contentType,
		k:           k,
		threshold:   threshold,
		logger:      slog.Default().With("component", "quark", "content_type", contentType),
	}
	for _, opt := range opts {
		if err := opt(q); err != nil {
			return nil, err
		}
	}
	return q, nil
}

// ContentType returns the content type this quark searches.
func (q *RetrieverQuark) ContentType() core.ContentType {
	return q.contentType
}

// Search returns up to k pieces matching query and filters.
// The quark's content type is added to filters unless the caller already
// constrains the "type" dimension. Returns ErrNoOrEmptyCollection when the
// store has nothing indexed.
func (q *RetrieverQuark) Search(ctx context.Context, query string, filters core.FilterSet) ([]*core.Piece, error) {
	ready, err := q.store.IsReady(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s quark: readiness check: %w", q.contentType, err)
	}
	if !ready {
		return nil, ErrNoOrEmptyCollection
	}

	scoped := filters.Clone()
	if !scoped.Has(core.MetadataKeyType) {
		scoped[core.MetadataKeyType] = []string{string(q.contentType)}
	}

	pieces, err := q.store.Search(ctx, query, scoped, q.k, q.threshold)
	if err != nil {
		return nil, fmt.Errorf("%s quark: %w", q.contentType, err)
	}

	// Stores may return more than k pieces or pieces below the threshold; trim here.
	results := make([]*core.Piece, 0, min(len(pieces), q.k))
	for _, p := range pieces {
		if len(results) == q.k {
			break
		}
		if p.HasScore() && p.ScoreValue() < q.threshold {
			continue
		}
		results = append(results, p)
	}

	q.logger.Debug("quark search complete", "hits", len(results))
	return results, nil
}
