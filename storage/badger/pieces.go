package badger

import (
	"context"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/ragcore/core"
	"github.com/poiesic/ragcore/storage"
)

// deleteBatchSize bounds the number of pieces removed per write transaction.
const deleteBatchSize = 500

// PieceRepository implements storage.PieceRepository for BadgerDB.
type PieceRepository struct {
	backend *Backend
}

var _ storage.PieceRepository = (*PieceRepository)(nil)

// NewPieceRepository creates a new PieceRepository.
func NewPieceRepository(backend *Backend) (*PieceRepository, error) {
	if backend == nil {
		return nil, fmt.Errorf("backend required")
	}
	return &PieceRepository{backend: backend}, nil
}

// Close is a no-op; the backend owns the database handle.
func (r *PieceRepository) Close() error {
	return nil
}

// FindSimilar delegates to the backend.
func (r *PieceRepository) FindSimilar(ctx context.Context, vector []float32, filters core.FilterSet, minSimilarity float32, limit int) ([]*core.Piece, error) {
	return r.backend.FindSimilar(ctx, vector, filters, minSimilarity, limit)
}

// AddPieces adds one or more pieces to storage.
func (r *PieceRepository) AddPieces(ctx context.Context, pieces ...*core.Piece) ([]*core.Piece, error) {
	for _, piece := range pieces {
		if err := core.ValidateStoredPiece(piece); err != nil {
			return nil, err
		}
	}

	err := r.backend.WithTx(func(tx *badger.Txn) error {
		now := time.Now().UTC()
		for _, piece := range pieces {
			existing, err := readPiece(tx, piece.Id)
			if err != nil {
				return err
			}
			if existing != nil {
				return fmt.Errorf("%w: piece %q", storage.ErrDuplicateKey, piece.Id)
			}

			piece.InsertedAt = now
			piece.UpdatedAt = now

			if err := writePiece(tx, piece); err != nil {
				return err
			}
		}
		return tx.Commit()
	}, true)
	if err != nil {
		return nil, err
	}

	return pieces, nil
}

// UpdatePieces updates existing pieces.
func (r *PieceRepository) UpdatePieces(ctx context.Context, pieces ...*core.Piece) ([]*core.Piece, error) {
	for _, piece := range pieces {
		if err := core.ValidateStoredPiece(piece); err != nil {
			return nil, err
		}
	}

	err := r.backend.WithTx(func(tx *badger.Txn) error {
		for _, piece := range pieces {
			old, err := readPiece(tx, piece.Id)
			if err != nil {
				return err
			}
			if old == nil {
				return fmt.Errorf("%w: piece %q", storage.ErrNotFound, piece.Id)
			}

			// Indices may point at the old type or document
			if err := deleteIndices(tx, old); err != nil {
				return err
			}

			piece.InsertedAt = old.InsertedAt
			piece.UpdatedAt = time.Now().UTC()

			if err := writePiece(tx, piece); err != nil {
				return err
			}
		}
		return tx.Commit()
	}, true)
	if err != nil {
		return nil, err
	}

	return pieces, nil
}

// DeletePieces removes pieces by their ids.
func (r *PieceRepository) DeletePieces(ctx context.Context, ids ...string) error {
	return r.backend.WithTx(func(tx *badger.Txn) error {
		for _, id := range ids {
			piece, err := readPiece(tx, id)
			if err != nil {
				return err
			}
			if piece == nil {
				return fmt.Errorf("%w: piece %q", storage.ErrNotFound, id)
			}
			if err := deletePiece(tx, piece); err != nil {
				return err
			}
		}
		return tx.Commit()
	}, true)
}

// DeleteByFilter removes every piece matching filters.
// A filter on the document dimension alone is served from the document index.
func (r *PieceRepository) DeleteByFilter(ctx context.Context, filters core.FilterSet) (int, error) {
	if len(filters) == 0 {
		return 0, fmt.Errorf("%w: refusing to delete with an empty filter", storage.ErrInvalidQuery)
	}

	var matched []*core.Piece
	collect := func(piece *core.Piece) error {
		if filters.MatchesPiece(piece) {
			matched = append(matched, piece)
		}
		return nil
	}

	err := r.backend.WithTx(func(tx *badger.Txn) error {
		docs, onlyDocuments := filters[core.MetadataKeyDocument]
		if onlyDocuments && len(filters) == 1 {
			for _, doc := range docs {
				if err := scanIndex(ctx, tx, makePartialPieceDocumentKey(doc), collect); err != nil {
					return err
				}
			}
			return nil
		}
		return scanPieces(ctx, tx, collect)
	}, false)
	if err != nil {
		return 0, err
	}

	// Badger limits transaction size, so large deletes are split up
	for start := 0; start < len(matched); start += deleteBatchSize {
		end := min(start+deleteBatchSize, len(matched))
		batch := matched[start:end]
		err := r.backend.WithTx(func(tx *badger.Txn) error {
			for _, piece := range batch {
				if err := deletePiece(tx, piece); err != nil {
					return err
				}
			}
			return tx.Commit()
		}, true)
		if err != nil {
			return start, err
		}
	}

	return len(matched), nil
}

// GetPiece retrieves a single piece by id.
func (r *PieceRepository) GetPiece(ctx context.Context, id string) (*core.Piece, error) {
	var result *core.Piece
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		var err error
		result, err = readPiece(tx, id)
		if err != nil {
			return err
		}
		if result == nil {
			return storage.ErrNotFound
		}
		return nil
	}, false)
	return result, err
}

// GetPieces retrieves multiple pieces by their ids.
func (r *PieceRepository) GetPieces(ctx context.Context, ids ...string) ([]*core.Piece, error) {
	var result []*core.Piece
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		for _, id := range ids {
			piece, err := readPiece(tx, id)
			if err != nil {
				return err
			}
			if piece != nil {
				result = append(result, piece)
			}
		}
		return nil
	}, false)
	return result, err
}

// ListPieceIDs returns the ids of every stored piece in key order.
func (r *PieceRepository) ListPieceIDs(ctx context.Context) ([]string, error) {
	var ids []string
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		return iterateKeys(ctx, tx, func(key []byte) {
			ids = append(ids, pieceIDFromKey(key))
		})
	}, false)
	return ids, err
}

// ForEachPiece calls fn for every stored piece in key order.
func (r *PieceRepository) ForEachPiece(ctx context.Context, fn func(*core.Piece) error) error {
	return r.backend.WithTx(func(tx *badger.Txn) error {
		return scanPieces(ctx, tx, fn)
	}, false)
}

// CountPieces returns the number of stored pieces.
func (r *PieceRepository) CountPieces(ctx context.Context) (int, error) {
	count := 0
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		return iterateKeys(ctx, tx, func([]byte) { count++ })
	}, false)
	return count, err
}

// Helper functions

// iterateKeys walks primary piece keys without fetching values.
func iterateKeys(ctx context.Context, tx *badger.Txn, fn func(key []byte)) error {
	opts := badger.DefaultIteratorOptions
	opts.Prefix = pieceKeyPrefix()
	opts.PrefetchValues = false
	iter := tx.NewIterator(opts)
	defer iter.Close()

	for iter.Rewind(); iter.Valid(); iter.Next() {
		fn(iter.Item().KeyCopy(nil))
	}
	return ctx.Err()
}

// writePiece stores the primary record and its index entries.
func writePiece(tx *badger.Txn, piece *core.Piece) error {
	value, err := storage.MarshalPiece(piece)
	if err != nil {
		return err
	}
	if err := tx.Set(makePieceKey(piece.Id), value); err != nil {
		return err
	}

	id := []byte(piece.Id)
	if err := tx.Set(makePieceTypeKey(piece.ContentType, piece.Id), id); err != nil {
		return err
	}
	if doc := pieceDocument(piece); doc != "" {
		if err := tx.Set(makePieceDocumentKey(doc, piece.Id), id); err != nil {
			return err
		}
	}
	return nil
}

// deleteIndices removes the index entries of a stored piece.
func deleteIndices(tx *badger.Txn, piece *core.Piece) error {
	if err := tx.Delete(makePieceTypeKey(piece.ContentType, piece.Id)); err != nil {
		return err
	}
	if doc := pieceDocument(piece); doc != "" {
		if err := tx.Delete(makePieceDocumentKey(doc, piece.Id)); err != nil {
			return err
		}
	}
	return nil
}

// deletePiece removes a piece and its index entries.
func deletePiece(tx *badger.Txn, piece *core.Piece) error {
	if err := deleteIndices(tx, piece); err != nil {
		return err
	}
	return tx.Delete(makePieceKey(piece.Id))
}
