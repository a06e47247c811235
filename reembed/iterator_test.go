package reembed

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/poiesic/ragcore/core"
	"github.com/poiesic/ragcore/storage"
	"github.com/poiesic/ragcore/storage/badger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestDB(t *testing.T) (storage.PieceRepository, func()) {
	repo, backend, err := badger.NewMemoryRepository()
	require.NoError(t, err)

	cleanup := func() {
		repo.Close()
		backend.Close()
	}
	return repo, cleanup
}

// seedPieces stores n text pieces p00, p01, ... with a placeholder vector.
func seedPieces(t *testing.T, repo storage.PieceRepository, n int) []*core.Piece {
	t.Helper()
	pieces := make([]*core.Piece, n)
	for i := range pieces {
		pieces[i] = &core.Piece{
			Id:          fmt.Sprintf("p%02d", i),
			Content:     fmt.Sprintf("piece %d", i),
			ContentType: core.ContentTypeText,
			Vector:      []float32{1, 0, 0},
		}
	}
	added, err := repo.AddPieces(context.Background(), pieces...)
	require.NoError(t, err)
	require.Len(t, added, n)
	return added
}

func TestPieceIterator_Basic(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()
	seedPieces(t, repo, 5)

	iter := NewPieceIterator(repo, 2)
	var batches [][]string
	err := iter.ForEach(context.Background(), func(pieces []*core.Piece) error {
		var ids []string
		for _, p := range pieces {
			ids = append(ids, p.Id)
		}
		batches = append(batches, ids)
		return nil
	})
	require.NoError(t, err)

	assert.Equal(t, [][]string{{"p00", "p01"}, {"p02", "p03"}, {"p04"}}, batches)
}

func TestPieceIterator_Empty(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()

	calls := 0
	err := NewPieceIterator(repo, 10).ForEach(context.Background(), func([]*core.Piece) error {
		calls++
		return nil
	})
	require.NoError(t, err)
	assert.Zero(t, calls)
}

func TestPieceIterator_DefaultBatchSize(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()

	assert.Equal(t, DefaultBatchSize, NewPieceIterator(repo, 0).batchSize)
	assert.Equal(t, DefaultBatchSize, NewPieceIterator(repo, -5).batchSize)
}

func TestPieceIterator_StopsOnError(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()
	seedPieces(t, repo, 6)

	stop := errors.New("stop")
	calls := 0
	err := NewPieceIterator(repo, 2).ForEach(context.Background(), func([]*core.Piece) error {
		calls++
		if calls == 2 {
			return stop
		}
		return nil
	})
	assert.ErrorIs(t, err, stop)
	assert.Equal(t, 2, calls)
}

func TestPieceIterator_ContextCancellation(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()
	seedPieces(t, repo, 6)

	t.Run("before start", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		err := NewPieceIterator(repo, 2).ForEach(ctx, func([]*core.Piece) error { return nil })
		assert.ErrorIs(t, err, context.Canceled)
	})

	t.Run("between batches", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		calls := 0
		err := NewPieceIterator(repo, 2).ForEach(ctx, func([]*core.Piece) error {
			calls++
			cancel()
			return nil
		})
		assert.ErrorIs(t, err, context.Canceled)
		assert.Equal(t, 1, calls)
	})
}

func TestPieceIterator_SkipsDeletedPieces(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()
	seedPieces(t, repo, 4)
	ctx := context.Background()

	var seen []string
	err := NewPieceIterator(repo, 2).ForEach(ctx, func(pieces []*core.Piece) error {
		for _, p := range pieces {
			seen = append(seen, p.Id)
		}
		if len(seen) == 2 {
			return repo.DeletePieces(ctx, "p03")
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"p00", "p01", "p02"}, seen)
}
