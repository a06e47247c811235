package storage

import (
	"context"

	"github.com/poiesic/ragcore/core"
)

// VectorStore is the query surface retrieval depends on.
// Implementations must be safe for concurrent use by many turns.
type VectorStore interface {
	// Search returns up to k pieces similar to query whose score is at or
	// above threshold and which satisfy filters. The "type" dimension of
	// filters restricts content types. Results are ordered by score, highest first,
	// and every returned piece carries a score.
	Search(ctx context.Context, query string, filters core.FilterSet, k int, threshold float32) ([]*core.Piece, error)

	// GetByIDs resolves pieces by id without similarity search.
	// Unknown ids are skipped; the result follows the order of ids.
	GetByIDs(ctx context.Context, ids ...string) ([]*core.Piece, error)

	// IsReady reports whether the backing collection exists and holds at least one piece.
	IsReady(ctx context.Context) (bool, error)
}

// Repository provides common storage operations shared across all repositories.
// Implementations must be thread-safe and support concurrent access.
type Repository interface {
	// FindSimilar finds pieces similar to the given vector that satisfy filters.
	// Returns pieces with similarity >= minSimilarity, up to limit results.
	// Results are ordered by similarity score (highest first).
	FindSimilar(ctx context.Context, vector []float32, filters core.FilterSet, minSimilarity float32, limit int) ([]*core.Piece, error)

	// Close closes the repository and releases resources.
	Close() error
}

// PieceRepository provides operations for managing indexed pieces.
type PieceRepository interface {
	Repository
	// AddPieces adds one or more pieces to storage.
	// Every piece must pass core.ValidateStoredPiece.
	// Sets InsertedAt and UpdatedAt.
	// Returns ErrDuplicateKey if a piece with the same id exists.
	AddPieces(ctx context.Context, pieces ...*core.Piece) ([]*core.Piece, error)

	// UpdatePieces updates existing pieces.
	// Updates the UpdatedAt timestamp automatically.
	// Returns ErrNotFound if any piece doesn't exist.
	UpdatePieces(ctx context.Context, pieces ...*core.Piece) ([]*core.Piece, error)

	// DeletePieces removes pieces by their ids.
	// Also removes associated indices.
	// Returns ErrNotFound if any piece doesn't exist.
	DeletePieces(ctx context.Context, ids ...string) error

	// DeleteByFilter removes every piece matching filters and returns how many were removed.
	// An empty filter set is rejected with ErrInvalidQuery.
	DeleteByFilter(ctx context.Context, filters core.FilterSet) (int, error)

	// GetPiece retrieves a single piece by id.
	// Returns ErrNotFound if the piece doesn't exist.
	GetPiece(ctx context.Context, id string) (*core.Piece, error)

	// GetPieces retrieves multiple pieces by their ids.
	// Returns only the pieces that exist (no error for missing pieces).
	GetPieces(ctx context.Context, ids ...string) ([]*core.Piece, error)

	// ListPieceIDs returns the ids of every stored piece in key order.
	ListPieceIDs(ctx context.Context) ([]string, error)

	// ForEachPiece calls fn for every stored piece in key order within one read snapshot.
	// Iteration stops at the first error fn returns.
	ForEachPiece(ctx context.Context, fn func(*core.Piece) error) error

	// CountPieces returns the number of stored pieces.
	CountPieces(ctx context.Context) (int, error)
}
