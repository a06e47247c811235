package retrieval

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/poiesic/ragcore/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newComposite(t *testing.T, store *fakeStore, quarks []Quark, opts ...Option) *CompositeRetriever {
	t.Helper()
	c, err := NewCompositeRetriever(store, quarks, opts...)
	require.NoError(t, err)
	return c
}

func TestNewCompositeRetriever(t *testing.T) {
	store := newFakeStore()
	quarks := []Quark{&staticQuark{contentType: core.ContentTypeText}}

	_, err := NewCompositeRetriever(nil, quarks)
	assert.ErrorIs(t, err, ErrVectorStoreRequired)

	_, err = NewCompositeRetriever(store, nil)
	assert.ErrorIs(t, err, ErrNoQuarks)

	_, err = NewCompositeRetriever(store, quarks, WithTotalK(0))
	assert.ErrorIs(t, err, ErrInvalidTotalK)

	_, err = NewCompositeRetriever(store, quarks, WithRerankerK(-1))
	assert.ErrorIs(t, err, ErrInvalidK)

	c, err := NewCompositeRetriever(store, quarks, WithLogger(nil), WithMonitor(nil), WithReranker(nil))
	require.NoError(t, err)
	assert.Equal(t, DefaultTotalK, c.totalK)
	assert.Equal(t, DefaultRerankerK, c.rerankerK)
}

func TestCompositeRetriever_Concatenation(t *testing.T) {
	// The first quark finishes last; order must still follow the quark list
	slow := &staticQuark{contentType: core.ContentTypeText, searchFunc: func(ctx context.Context) ([]*core.Piece, error) {
		time.Sleep(20 * time.Millisecond)
		return []*core.Piece{unscored("t1"), unscored("t2")}, nil
	}}
	fast := &staticQuark{contentType: core.ContentTypeTable, pieces: []*core.Piece{unscored("tb1")}}

	c := newComposite(t, newFakeStore(), []Quark{slow, fast})
	pieces, err := c.Retrieve(context.Background(), "q", nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"t1", "t2", "tb1"}, ids(pieces))
}

func TestCompositeRetriever_RunsQuarksConcurrently(t *testing.T) {
	var wg sync.WaitGroup
	wg.Add(2)
	barrier := func(ctx context.Context) ([]*core.Piece, error) {
		wg.Done()
		done := make(chan struct{})
		go func() { wg.Wait(); close(done) }()
		select {
		case <-done:
			return nil, nil
		case <-time.After(2 * time.Second):
			return nil, errors.New("quarks did not run concurrently")
		}
	}
	c := newComposite(t, newFakeStore(), []Quark{
		&staticQuark{contentType: core.ContentTypeText, searchFunc: barrier},
		&staticQuark{contentType: core.ContentTypeTable, searchFunc: barrier},
	})

	_, err := c.Retrieve(context.Background(), "q", nil)
	require.NoError(t, err)
}

func TestCompositeRetriever_SummaryExpansion(t *testing.T) {
	ctx := context.Background()

	t.Run("replaces summary with related pieces", func(t *testing.T) {
		store := newFakeStore(unscored("doc1"), unscored("doc2"))
		quark := &staticQuark{contentType: core.ContentTypeSummary, pieces: []*core.Piece{summary("sum1", "doc1", "doc2")}}
		c := newComposite(t, store, []Quark{quark})

		pieces, err := c.Retrieve(ctx, "q", nil)
		require.NoError(t, err)
		assert.Equal(t, []string{"doc1", "doc2"}, ids(pieces))
		require.Len(t, store.lookups, 1)
		assert.Equal(t, []string{"doc1", "doc2"}, store.lookups[0])
	})

	t.Run("summary without related ids contributes nothing", func(t *testing.T) {
		store := newFakeStore()
		quark := &staticQuark{contentType: core.ContentTypeSummary, pieces: []*core.Piece{summary("sum1")}}
		c := newComposite(t, store, []Quark{quark})

		pieces, err := c.Retrieve(ctx, "q", nil)
		require.NoError(t, err)
		assert.Empty(t, pieces)
		assert.Empty(t, store.lookups, "no lookup without related ids")
	})

	t.Run("unresolvable ids contribute nothing", func(t *testing.T) {
		quark := &staticQuark{contentType: core.ContentTypeSummary, pieces: []*core.Piece{summary("sum1", "gone")}}
		c := newComposite(t, newFakeStore(), []Quark{quark})

		pieces, err := c.Retrieve(ctx, "q", nil)
		require.NoError(t, err)
		assert.Empty(t, pieces)
	})

	t.Run("already present pieces are not added twice", func(t *testing.T) {
		store := newFakeStore(unscored("doc1"))
		text := &staticQuark{contentType: core.ContentTypeText, pieces: []*core.Piece{scored("doc1", 0.8)}}
		sums := &staticQuark{contentType: core.ContentTypeSummary, pieces: []*core.Piece{summary("sum1", "doc1")}}
		c := newComposite(t, store, []Quark{text, sums})

		pieces, err := c.Retrieve(ctx, "q", nil)
		require.NoError(t, err)
		require.Len(t, pieces, 1)
		assert.InDelta(t, 0.8, pieces[0].ScoreValue(), 1e-6)
	})

	t.Run("related summaries are dropped", func(t *testing.T) {
		store := newFakeStore(summary("sum2", "doc9"), unscored("doc1"))
		quark := &staticQuark{contentType: core.ContentTypeSummary, pieces: []*core.Piece{summary("sum1", "sum2", "doc1")}}
		c := newComposite(t, store, []Quark{quark})

		pieces, err := c.Retrieve(ctx, "q", nil)
		require.NoError(t, err)
		assert.Equal(t, []string{"doc1"}, ids(pieces))
	})

	t.Run("expanded pieces inherit the summary score", func(t *testing.T) {
		store := newFakeStore(unscored("doc1"))
		s := summary("sum1", "doc1")
		s.Score = core.Score(0.75)
		quark := &staticQuark{contentType: core.ContentTypeSummary, pieces: []*core.Piece{s}}
		c := newComposite(t, store, []Quark{quark})

		pieces, err := c.Retrieve(ctx, "q", nil)
		require.NoError(t, err)
		require.Len(t, pieces, 1)
		assert.InDelta(t, 0.75, pieces[0].ScoreValue(), 1e-6)
		assert.False(t, store.byID["doc1"].HasScore(), "stored piece must not be mutated")
	})
}

func TestCompositeRetriever_Dedup(t *testing.T) {
	a1 := scored("a", 0.5)
	a2 := scored("a", 0.9)
	c := newComposite(t, newFakeStore(), []Quark{
		&staticQuark{contentType: core.ContentTypeText, pieces: []*core.Piece{a1, scored("b", 0.6)}},
		&staticQuark{contentType: core.ContentTypeTable, pieces: []*core.Piece{a2}},
	})

	pieces, err := c.Retrieve(context.Background(), "q", nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, ids(pieces))
	assert.Same(t, a1, pieces[0], "first occurrence wins")
}

func TestCompositeRetriever_Pruning(t *testing.T) {
	ctx := context.Background()

	t.Run("scored pieces keep the top total_k", func(t *testing.T) {
		quark := &staticQuark{contentType: core.ContentTypeText, pieces: []*core.Piece{
			scored("a", 0.9), scored("b", 0.5), scored("c", 0.7),
		}}
		c := newComposite(t, newFakeStore(), []Quark{quark}, WithTotalK(2))

		pieces, err := c.Retrieve(ctx, "q", nil)
		require.NoError(t, err)
		assert.Equal(t, []float32{0.9, 0.7}, scores(pieces))
	})

	t.Run("unscored pieces truncate in order", func(t *testing.T) {
		quark := &staticQuark{contentType: core.ContentTypeText, pieces: []*core.Piece{
			scored("a", 0.1), unscored("b"), scored("c", 0.9),
		}}
		c := newComposite(t, newFakeStore(), []Quark{quark}, WithTotalK(2))

		pieces, err := c.Retrieve(ctx, "q", nil)
		require.NoError(t, err)
		assert.Equal(t, []string{"a", "b"}, ids(pieces))
	})

	t.Run("at or below total_k untouched", func(t *testing.T) {
		quark := &staticQuark{contentType: core.ContentTypeText, pieces: []*core.Piece{scored("a", 0.1), scored("b", 0.9)}}
		c := newComposite(t, newFakeStore(), []Quark{quark}, WithTotalK(2))

		pieces, err := c.Retrieve(ctx, "q", nil)
		require.NoError(t, err)
		assert.Equal(t, []string{"a", "b"}, ids(pieces))
	})
}

func TestCompositeRetriever_RerankerThreshold(t *testing.T) {
	ctx := context.Background()

	t.Run("not invoked at or below reranker k", func(t *testing.T) {
		reranker := &countingReranker{k: 3}
		quark := &staticQuark{contentType: core.ContentTypeText, pieces: []*core.Piece{scored("a", 0.5), scored("b", 0.7)}}
		c := newComposite(t, newFakeStore(), []Quark{quark}, WithReranker(reranker), WithRerankerK(3))

		pieces, err := c.Retrieve(ctx, "q", nil)
		require.NoError(t, err)
		assert.Equal(t, int64(0), reranker.calls.Load())
		assert.Equal(t, []string{"a", "b"}, ids(pieces))
	})

	t.Run("invoked once above reranker k", func(t *testing.T) {
		reranker := &countingReranker{k: 2}
		quark := &staticQuark{contentType: core.ContentTypeText, pieces: []*core.Piece{
			scored("a", 0.5), scored("b", 0.7), scored("c", 0.9), scored("d", 0.6), scored("e", 0.8),
		}}
		c := newComposite(t, newFakeStore(), []Quark{quark}, WithReranker(reranker), WithRerankerK(2))

		pieces, err := c.Retrieve(ctx, "q", nil)
		require.NoError(t, err)
		assert.Equal(t, int64(1), reranker.calls.Load())
		assert.Equal(t, []string{"c", "e"}, ids(pieces))
	})

	t.Run("oversized reranker output is bounded", func(t *testing.T) {
		reranker := &countingReranker{k: 10}
		quark := &staticQuark{contentType: core.ContentTypeText, pieces: []*core.Piece{
			scored("a", 0.5), scored("b", 0.7), scored("c", 0.9),
		}}
		c := newComposite(t, newFakeStore(), []Quark{quark}, WithReranker(reranker), WithRerankerK(2))

		pieces, err := c.Retrieve(ctx, "q", nil)
		require.NoError(t, err)
		assert.Len(t, pieces, 2)
	})

	t.Run("reranker failure is returned", func(t *testing.T) {
		boom := errors.New("rerank service down")
		reranker := &countingReranker{k: 1, err: boom}
		quark := &staticQuark{contentType: core.ContentTypeText, pieces: []*core.Piece{scored("a", 0.5), scored("b", 0.7)}}
		c := newComposite(t, newFakeStore(), []Quark{quark}, WithReranker(reranker), WithRerankerK(1))

		_, err := c.Retrieve(ctx, "q", nil)
		assert.ErrorIs(t, err, boom)
	})
}

func TestCompositeRetriever_FailFast(t *testing.T) {
	ctx := context.Background()

	t.Run("one failing quark aborts the call", func(t *testing.T) {
		boom := errors.New("boom")
		cancelled := make(chan struct{})
		blocking := &staticQuark{contentType: core.ContentTypeText, searchFunc: func(ctx context.Context) ([]*core.Piece, error) {
			<-ctx.Done()
			close(cancelled)
			return nil, ctx.Err()
		}}
		failing := &staticQuark{contentType: core.ContentTypeTable, err: boom}
		c := newComposite(t, newFakeStore(), []Quark{blocking, failing})

		pieces, err := c.Retrieve(ctx, "q", nil)
		assert.ErrorIs(t, err, boom)
		assert.Nil(t, pieces)

		select {
		case <-cancelled:
		case <-time.After(time.Second):
			t.Fatal("sibling quark was not cancelled")
		}
	})

	t.Run("empty collection stays detectable", func(t *testing.T) {
		store := newFakeStore()
		store.ReadyFunc = func(context.Context) (bool, error) { return false, nil }
		var quarks []Quark
		for _, ct := range []core.ContentType{core.ContentTypeText, core.ContentTypeTable} {
			q, err := NewRetrieverQuark(store, ct, 5, 0.5)
			require.NoError(t, err)
			quarks = append(quarks, q)
		}
		c := newComposite(t, store, quarks)

		_, err := c.Retrieve(ctx, "q", nil)
		assert.ErrorIs(t, err, ErrNoOrEmptyCollection)
	})
}

type recordingMonitor struct {
	mu       sync.Mutex
	started  int
	quarks   map[core.ContentType]int
	stats    []FusionStats
	reranked [][2]int
	failures []error
}

func newRecordingMonitor() *recordingMonitor {
	return &recordingMonitor{quarks: make(map[core.ContentType]int)}
}

func (m *recordingMonitor) RetrievalStarted(string, core.FilterSet) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.started++
}

func (m *recordingMonitor) QuarkCompleted(ct core.ContentType, hits int, _ time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.quarks[ct] = hits
}

func (m *recordingMonitor) FusionCompleted(stats FusionStats) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stats = append(m.stats, stats)
}

func (m *recordingMonitor) RerankCompleted(in, out int, _ time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.reranked = append(m.reranked, [2]int{in, out})
}

func (m *recordingMonitor) RetrievalFailed(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failures = append(m.failures, err)
}

func TestCompositeRetriever_Monitor(t *testing.T) {
	store := newFakeStore(unscored("doc1"))
	monitor := newRecordingMonitor()
	reranker := &countingReranker{k: 1}
	c := newComposite(t, store, []Quark{
		&staticQuark{contentType: core.ContentTypeText, pieces: []*core.Piece{scored("a", 0.4), scored("b", 0.9), scored("a", 0.4)}},
		&staticQuark{contentType: core.ContentTypeSummary, pieces: []*core.Piece{summary("s", "doc1")}},
	}, WithMonitor(monitor), WithReranker(reranker), WithRerankerK(1), WithTotalK(2))

	pieces, err := c.Search(context.Background(), "q", nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"b"}, ids(pieces))

	assert.Equal(t, 1, monitor.started)
	assert.Equal(t, 3, monitor.quarks[core.ContentTypeText])
	assert.Equal(t, 1, monitor.quarks[core.ContentTypeSummary])
	require.Len(t, monitor.stats, 1)
	assert.Equal(t, FusionStats{Retrieved: 4, Summaries: 1, Expanded: 1, Duplicates: 1, Pruned: 1, Result: 2}, monitor.stats[0])
	assert.Equal(t, [][2]int{{2, 1}}, monitor.reranked)
	assert.Empty(t, monitor.failures)
}
