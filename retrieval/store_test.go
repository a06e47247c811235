package retrieval

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/poiesic/ragcore/core"
	"github.com/poiesic/ragcore/storage"
)

// fakeStore is an in-memory storage.VectorStore for retrieval tests.
type fakeStore struct {
	SearchFunc func(ctx context.Context, query string, filters core.FilterSet, k int, threshold float32) ([]*core.Piece, error)
	ReadyFunc  func(ctx context.Context) (bool, error)

	byID map[string]*core.Piece

	mu          sync.Mutex
	lastFilters core.FilterSet
	lookups     [][]string
	searches    atomic.Int64
}

var _ storage.VectorStore = (*fakeStore)(nil)

func newFakeStore(pieces ...*core.Piece) *fakeStore {
	s := &fakeStore{byID: make(map[string]*core.Piece)}
	for _, p := range pieces {
		s.byID[p.Id] = p
	}
	return s
}

func (s *fakeStore) Search(ctx context.Context, query string, filters core.FilterSet, k int, threshold float32) ([]*core.Piece, error) {
	s.searches.Add(1)
	s.mu.Lock()
	s.lastFilters = filters
	s.mu.Unlock()
	if s.SearchFunc != nil {
		return s.SearchFunc(ctx, query, filters, k, threshold)
	}
	return nil, nil
}

func (s *fakeStore) GetByIDs(_ context.Context, ids ...string) ([]*core.Piece, error) {
	s.mu.Lock()
	s.lookups = append(s.lookups, ids)
	s.mu.Unlock()
	var out []*core.Piece
	for _, id := range ids {
		if p, ok := s.byID[id]; ok {
			out = append(out, p)
		}
	}
	return out, nil
}

func (s *fakeStore) IsReady(ctx context.Context) (bool, error) {
	if s.ReadyFunc != nil {
		return s.ReadyFunc(ctx)
	}
	return true, nil
}

// staticQuark returns fixed pieces or a fixed error.
type staticQuark struct {
	contentType core.ContentType
	pieces      []*core.Piece
	err         error
	searchFunc  func(ctx context.Context) ([]*core.Piece, error)
}

func (q *staticQuark) ContentType() core.ContentType { return q.contentType }

func (q *staticQuark) Search(ctx context.Context, _ string, _ core.FilterSet) ([]*core.Piece, error) {
	if q.searchFunc != nil {
		return q.searchFunc(ctx)
	}
	return q.pieces, q.err
}

// countingReranker keeps the top k pieces by score.
type countingReranker struct {
	k     int
	calls atomic.Int64
	err   error
}

func (r *countingReranker) Rerank(_ context.Context, pieces []*core.Piece, _ string) ([]*core.Piece, error) {
	r.calls.Add(1)
	if r.err != nil {
		return nil, r.err
	}
	return prunePieces(pieces, r.k), nil
}

func scored(id string, score float32) *core.Piece {
	return &core.Piece{Id: id, Content: "content " + id, ContentType: core.ContentTypeText, Score: core.Score(score)}
}

func unscored(id string) *core.Piece {
	return &core.Piece{Id: id, Content: "content " + id, ContentType: core.ContentTypeText}
}

func summary(id string, related ...string) *core.Piece {
	return &core.Piece{Id: id, Content: "summary " + id, ContentType: core.ContentTypeSummary, RelatedIds: related}
}

func ids(pieces []*core.Piece) []string {
	out := make([]string, 0, len(pieces))
	for _, p := range pieces {
		out = append(out, p.Id)
	}
	return out
}

func scores(pieces []*core.Piece) []float32 {
	out := make([]float32, 0, len(pieces))
	for _, p := range pieces {
		out = append(out, p.ScoreValue())
	}
	return out
}
