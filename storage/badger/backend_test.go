package badger

import (
	"context"
	"testing"

	"github.com/poiesic/ragcore/core"
	"github.com/poiesic/ragcore/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenBackend_InMemory(t *testing.T) {
	backend, err := OpenBackend("", true)
	require.NoError(t, err)
	require.NotNil(t, backend)
	defer backend.Close()

	assert.False(t, backend.IsClosed())
}

func TestOpenBackend_FileSystem(t *testing.T) {
	tmpDir := t.TempDir() + "/nested/db"
	backend, err := OpenBackend(tmpDir, false)
	require.NoError(t, err)
	require.NotNil(t, backend)
	defer backend.Close()

	assert.False(t, backend.IsClosed())
}

func TestBackendClose(t *testing.T) {
	backend, err := OpenBackend("", true)
	require.NoError(t, err)

	require.NoError(t, backend.Close())
	assert.True(t, backend.IsClosed())

	_, err = backend.FindSimilar(context.Background(), []float32{1}, nil, 0, 10)
	assert.ErrorIs(t, err, storage.ErrStorageClosed)
}

func TestFindSimilar_NoRecords(t *testing.T) {
	backend, err := OpenBackend("", true)
	require.NoError(t, err)
	defer backend.Close()

	results, err := backend.FindSimilar(context.Background(), []float32{0.1, 0.2, 0.3}, nil, 0.5, 10)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func seedPieces(t *testing.T, repo storage.PieceRepository) {
	t.Helper()
	_, err := repo.AddPieces(context.Background(),
		&core.Piece{Id: "t1", Content: "exact", ContentType: core.ContentTypeText,
			Vector: []float32{1, 0, 0}, Metadata: map[string]any{"document": "guide.pdf"}},
		&core.Piece{Id: "t2", Content: "close", ContentType: core.ContentTypeText,
			Vector: []float32{0.8, 0.6, 0}, Metadata: map[string]any{"document": "other.md"}},
		&core.Piece{Id: "tb", Content: "table", ContentType: core.ContentTypeTable,
			Vector: []float32{0.9, 0.1, 0}, Metadata: map[string]any{"document": "guide.pdf"}},
		&core.Piece{Id: "s1", Content: "summary", ContentType: core.ContentTypeSummary,
			Vector: []float32{0, 1, 0}, RelatedIds: []string{"t1"}},
	)
	require.NoError(t, err)
}

func TestFindSimilar_WithRecords(t *testing.T) {
	repo, backend, err := NewMemoryRepository()
	require.NoError(t, err)
	defer backend.Close()
	seedPieces(t, repo)

	ctx := context.Background()

	t.Run("orders by similarity", func(t *testing.T) {
		results, err := backend.FindSimilar(ctx, []float32{1, 0, 0}, nil, 0.5, 10)
		require.NoError(t, err)
		require.Len(t, results, 3)
		assert.Equal(t, "t1", results[0].Id)
		assert.Equal(t, "tb", results[1].Id)
		assert.Equal(t, "t2", results[2].Id)
		assert.InDelta(t, 1.0, results[0].ScoreValue(), 1e-5)
	})

	t.Run("respects limit", func(t *testing.T) {
		results, err := backend.FindSimilar(ctx, []float32{1, 0, 0}, nil, 0, 1)
		require.NoError(t, err)
		require.Len(t, results, 1)
		assert.Equal(t, "t1", results[0].Id)
	})

	t.Run("filters by content type through the index", func(t *testing.T) {
		filters := core.FilterSet{"type": {"text"}}
		results, err := backend.FindSimilar(ctx, []float32{1, 0, 0}, filters, 0, 10)
		require.NoError(t, err)
		require.Len(t, results, 2)
		for _, p := range results {
			assert.Equal(t, core.ContentTypeText, p.ContentType)
		}
	})

	t.Run("duplicate type values do not duplicate results", func(t *testing.T) {
		filters := core.FilterSet{"type": {"TEXT", "text"}}
		results, err := backend.FindSimilar(ctx, []float32{1, 0, 0}, filters, 0, 10)
		require.NoError(t, err)
		assert.Len(t, results, 2)
	})

	t.Run("filters by metadata", func(t *testing.T) {
		filters := core.FilterSet{"file_name": {"guide"}}
		results, err := backend.FindSimilar(ctx, []float32{1, 0, 0}, filters, 0, 10)
		require.NoError(t, err)
		ids := []string{}
		for _, p := range results {
			ids = append(ids, p.Id)
		}
		assert.Equal(t, []string{"t1", "tb"}, ids)
	})

	t.Run("unknown type matches nothing", func(t *testing.T) {
		filters := core.FilterSet{"type": {"VIDEO"}}
		results, err := backend.FindSimilar(ctx, []float32{1, 0, 0}, filters, 0, 10)
		require.NoError(t, err)
		assert.Empty(t, results)
	})

	t.Run("cancelled context", func(t *testing.T) {
		cctx, cancel := context.WithCancel(ctx)
		cancel()
		_, err := backend.FindSimilar(cctx, []float32{1, 0, 0}, nil, 0, 10)
		assert.ErrorIs(t, err, context.Canceled)
	})
}

func TestCosineSimilarity(t *testing.T) {
	tests := []struct {
		name string
		a, b []float32
		want float32
	}{
		{"identical", []float32{1, 2, 3}, []float32{1, 2, 3}, 1},
		{"orthogonal", []float32{1, 0}, []float32{0, 1}, 0},
		{"opposite", []float32{1, 0}, []float32{-1, 0}, -1},
		{"zero vector", []float32{0, 0}, []float32{1, 1}, 0},
		{"different lengths", []float32{1, 0, 5}, []float32{1, 0}, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, cosineSimilarity(tt.a, tt.b), 1e-6)
		})
	}
}
