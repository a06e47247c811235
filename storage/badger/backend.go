package badger

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"os"
	"slices"

	"github.com/dgraph-io/badger/v4"
	"github.com/dgraph-io/badger/v4/options"
	"github.com/poiesic/ragcore/core"
	"github.com/poiesic/ragcore/storage"
)

// ctxCheckInterval is how many pieces a scan visits between context checks.
const ctxCheckInterval = 256

// Backend wraps a BadgerDB instance and provides low-level operations.
type Backend struct {
	db     *badger.DB
	logger *slog.Logger
}

// badgerLoggerAdapter adapts slog.Logger to badger.Logger interface.
type badgerLoggerAdapter struct {
	logger *slog.Logger
}

var _ badger.Logger = (*badgerLoggerAdapter)(nil)

func (bl *badgerLoggerAdapter) Errorf(msg string, items ...any) {
	bl.logger.Error(fmt.Sprintf(msg, items...))
}

func (bl *badgerLoggerAdapter) Warningf(msg string, items ...any) {
	bl.logger.Warn(fmt.Sprintf(msg, items...))
}

func (bl *badgerLoggerAdapter) Infof(msg string, items ...any) {
	bl.logger.Info(fmt.Sprintf(msg, items...))
}

func (bl *badgerLoggerAdapter) Debugf(msg string, items ...any) {
	bl.logger.Debug(fmt.Sprintf(msg, items...))
}

// OpenBackend opens a BadgerDB database at the specified path.
// Creates the directory if it doesn't exist.
func OpenBackend(filePath string, inMemory bool) (*Backend, error) {
	var opts badger.Options

	if inMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		// Ensure directory exists
		info, err := os.Stat(filePath)
		if err != nil {
			if os.IsNotExist(err) {
				if err := os.MkdirAll(filePath, 0755); err != nil {
					return nil, err
				}
				info, err = os.Stat(filePath)
				if err != nil {
					return nil, err
				}
			} else {
				return nil, err
			}
		}
		if !info.IsDir() {
			return nil, fmt.Errorf("%s is not a directory", filePath)
		}
		opts = badger.DefaultOptions(filePath)
	}

	logger := slog.Default().With("component", "badger")
	opts.Logger = &badgerLoggerAdapter{logger: logger}
	opts.Compression = options.None

	db, err := badger.Open(opts)
	if err != nil {
		return nil, err
	}

	return &Backend{
		db:     db,
		logger: logger,
	}, nil
}

// Close closes the BadgerDB database.
func (b *Backend) Close() error {
	return b.db.Close()
}

// IsClosed returns true if the database is closed.
func (b *Backend) IsClosed() bool {
	return b.db.IsClosed()
}

// WithTx executes a function within a BadgerDB transaction.
// If isWrite is true, creates a read-write transaction.
// The transaction is automatically discarded if fn returns an error.
func (b *Backend) WithTx(fn func(tx *badger.Txn) error, isWrite bool) error {
	if b.db.IsClosed() {
		return storage.ErrStorageClosed
	}
	tx := b.db.NewTransaction(isWrite)
	defer tx.Discard()
	return fn(tx)
}

// FindSimilar finds pieces similar to the given vector that satisfy filters.
// Content type filters are served from the type index; every other
// dimension is checked on the decoded piece.
func (b *Backend) FindSimilar(ctx context.Context, vector []float32, filters core.FilterSet, minSimilarity float32, limit int) ([]*core.Piece, error) {
	var results []*core.Piece

	visit := func(piece *core.Piece) error {
		// Skip pieces without embeddings
		if len(piece.Vector) == 0 || !filters.MatchesPiece(piece) {
			return nil
		}
		similarity := cosineSimilarity(vector, piece.Vector)
		if similarity >= minSimilarity {
			piece.Score = &similarity
			results = append(results, piece)
		}
		return nil
	}

	err := b.WithTx(func(tx *badger.Txn) error {
		types := filters.ContentTypes()
		if len(types) == 0 {
			return scanPieces(ctx, tx, visit)
		}
		for _, contentType := range types {
			if err := scanIndex(ctx, tx, makePartialPieceTypeKey(contentType), visit); err != nil {
				return err
			}
		}
		return nil
	}, false)
	if err != nil {
		return nil, err
	}

	// Sort by similarity descending, ties keep key order
	slices.SortStableFunc(results, func(a, b *core.Piece) int {
		switch {
		case *a.Score > *b.Score:
			return -1
		case *a.Score < *b.Score:
			return 1
		}
		return 0
	})

	if limit > 0 && len(results) > limit {
		results = results[:limit]
	}

	return results, nil
}

// scanPieces visits every primary piece record.
func scanPieces(ctx context.Context, tx *badger.Txn, fn func(*core.Piece) error) error {
	opts := badger.DefaultIteratorOptions
	opts.Prefix = pieceKeyPrefix()
	iter := tx.NewIterator(opts)
	defer iter.Close()

	n := 0
	for iter.Rewind(); iter.Valid(); iter.Next() {
		if n++; n%ctxCheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				return err
			}
		}

		var piece *core.Piece
		err := iter.Item().Value(func(val []byte) error {
			var err error
			piece, err = storage.UnmarshalPiece(val)
			return err
		})
		if err != nil {
			return err
		}
		if err := fn(piece); err != nil {
			return err
		}
	}
	return ctx.Err()
}

// scanIndex visits the pieces referenced by index entries under prefix.
// Index values hold piece ids.
func scanIndex(ctx context.Context, tx *badger.Txn, prefix []byte, fn func(*core.Piece) error) error {
	opts := badger.DefaultIteratorOptions
	opts.Prefix = prefix
	iter := tx.NewIterator(opts)
	defer iter.Close()

	n := 0
	for iter.Rewind(); iter.Valid(); iter.Next() {
		if n++; n%ctxCheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				return err
			}
		}

		id, err := iter.Item().ValueCopy(nil)
		if err != nil {
			return err
		}
		piece, err := readPiece(tx, string(id))
		if err != nil {
			return err
		}
		if piece == nil {
			continue
		}
		if err := fn(piece); err != nil {
			return err
		}
	}
	return ctx.Err()
}

// readPiece reads a piece from the transaction. A missing piece yields nil, nil.
func readPiece(tx *badger.Txn, id string) (*core.Piece, error) {
	item, err := tx.Get(makePieceKey(id))
	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil, nil
		}
		return nil, err
	}

	var piece *core.Piece
	err = item.Value(func(val []byte) error {
		var unmarshalErr error
		piece, unmarshalErr = storage.UnmarshalPiece(val)
		return unmarshalErr
	})
	return piece, err
}

// cosineSimilarity returns the cosine of the angle between two vectors.
// Vectors of different length are compared over their common prefix.
func cosineSimilarity(a, b []float32) float32 {
	minLen := min(len(a), len(b))
	var dot, magA, magB float64
	for i := 0; i < minLen; i++ {
		dot += float64(a[i]) * float64(b[i])
		magA += float64(a[i]) * float64(a[i])
		magB += float64(b[i]) * float64(b[i])
	}
	if magA == 0 || magB == 0 {
		return 0
	}
	return float32(dot / (math.Sqrt(magA) * math.Sqrt(magB)))
}
