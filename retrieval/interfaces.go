package retrieval

import (
	"context"

	"github.com/poiesic/ragcore/core"
)

// Quark is a retrieval unit scoped to one content type.
type Quark interface {
	ContentType() core.ContentType
	Search(ctx context.Context, query string, filters core.FilterSet) ([]*core.Piece, error)
}

// Reranker re-scores a candidate set against the query.
// Implementations return at most the number of pieces they were configured for,
// ordered by their new score, and must keep each piece's metadata.
type Reranker interface {
	Rerank(ctx context.Context, pieces []*core.Piece, query string) ([]*core.Piece, error)
}

// Retriever turns one query into one fused list of pieces.
type Retriever interface {
	Retrieve(ctx context.Context, query string, filters core.FilterSet) ([]*core.Piece, error)
}
