package retrieval

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/poiesic/ragcore/core"
	"github.com/poiesic/ragcore/storage"
	"golang.org/x/sync/errgroup"
)

const (
	// DefaultTotalK bounds the fused set before reranking.
	DefaultTotalK = 10

	// DefaultRerankerK is the number of pieces a reranker keeps.
	DefaultRerankerK = 5
)

// CompositeRetriever fans a query out to every quark and fuses the results.
type CompositeRetriever struct {
	store     storage.VectorStore
	quarks    []Quark
	reranker  Reranker
	rerankerK int
	totalK    int
	logger    *slog.Logger
	monitor   Monitor
}

var _ Retriever = (*CompositeRetriever)(nil)

// Option configures a CompositeRetriever.
type Option func(*CompositeRetriever) error

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(c *CompositeRetriever) error {
		if logger == nil {
			logger = slog.Default()
		}
		c.logger = logger.With("component", "composite-retriever")
		return nil
	}
}

// WithReranker enables reranking of fused results.
// A nil reranker disables it.
func WithReranker(reranker Reranker) Option {
	return func(c *CompositeRetriever) error {
		c.reranker = reranker
		return nil
	}
}

// WithRerankerK sets how many pieces the reranker keeps.
// The reranker only runs when the fused set is larger than k.
// Default is DefaultRerankerK.
func WithRerankerK(k int) Option {
	return func(c *CompositeRetriever) error {
		if k <= 0 {
			return fmt.Errorf("%w: reranker k %d", ErrInvalidK, k)
		}
		c.rerankerK = k
		return nil
	}
}

// WithTotalK sets the bound applied to the fused set before reranking.
// Default is DefaultTotalK.
func WithTotalK(k int) Option {
	return func(c *CompositeRetriever) error {
		if k <= 0 {
			return fmt.Errorf("%w: got %d", ErrInvalidTotalK, k)
		}
		c.totalK = k
		return nil
	}
}

// WithMonitor installs retrieval hooks.
func WithMonitor(monitor Monitor) Option {
	return func(c *CompositeRetriever) error {
		if monitor == nil {
			monitor = &noopMonitor{}
		}
		c.monitor = monitor
		return nil
	}
}

// NewCompositeRetriever creates a retriever over quarks.
// The store resolves the related ids of summary pieces.
func NewCompositeRetriever(store storage.VectorStore, quarks []Quark, opts ...Option) (*CompositeRetriever, error) {
	if store == nil {
		return nil, ErrVectorStoreRequired
	}
	if len(quarks) == 0 {
		return nil, ErrNoQuarks
	}

	c := &CompositeRetriever{
		store:     store,
		quarks:    slices.Clone(quarks),
		rerankerK: DefaultRerankerK,
		totalK:    DefaultTotalK,
		logger:    slog.Default().With("component", "composite-retriever"),
		monitor:   &noopMonitor{},
	}

	// Apply options
	for _, opt := range opts {
		if err := opt(c); err != nil {
			return nil, err
		}
	}

	return c, nil
}

// Search is the retrieval-only surface: the fused pieces for term without generation.
func (c *CompositeRetriever) Search(ctx context.Context, term string, filters core.FilterSet) ([]*core.Piece, error) {
	return c.Retrieve(ctx, term, filters)
}

// Retrieve queries every quark concurrently and fuses their results.
// The first quark error cancels the others and is returned unchanged in
// its chain, so ErrNoOrEmptyCollection stays detectable with errors.Is.
// The result holds unique ids and no SUMMARY pieces.
func (c *CompositeRetriever) Retrieve(ctx context.Context, query string, filters core.FilterSet) ([]*core.Piece, error) {
	c.monitor.RetrievalStarted(query, filters)

	pieces, err := c.fanOut(ctx, query, filters)
	if err != nil {
		c.logger.Error("quark search failed", "err", err)
		c.monitor.RetrievalFailed(err)
		return nil, err
	}

	fused, err := c.fuse(ctx, pieces)
	if err != nil {
		c.logger.Error("summary expansion failed", "err", err)
		c.monitor.RetrievalFailed(err)
		return nil, err
	}

	if c.reranker == nil || len(fused) <= c.rerankerK {
		return fused, nil
	}

	start := time.Now()
	reranked, err := c.reranker.Rerank(ctx, fused, query)
	if err != nil {
		err = fmt.Errorf("rerank: %w", err)
		c.logger.Error("reranker failed", "err", err)
		c.monitor.RetrievalFailed(err)
		return nil, err
	}
	if len(reranked) > c.rerankerK {
		reranked = reranked[:c.rerankerK]
	}
	c.monitor.RerankCompleted(len(fused), len(reranked), time.Since(start))

	return reranked, nil
}

// fanOut runs every quark and concatenates results in quark order.
func (c *CompositeRetriever) fanOut(ctx context.Context, query string, filters core.FilterSet) ([]*core.Piece, error) {
	results := make([][]*core.Piece, len(c.quarks))

	g, gctx := errgroup.WithContext(ctx)
	for i, quark := range c.quarks {
		g.Go(func() error {
			start := time.Now()
			found, err := quark.Search(gctx, query, filters)
			if err != nil {
				return err
			}
			results[i] = found
			c.monitor.QuarkCompleted(quark.ContentType(), len(found), time.Since(start))
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return slices.Concat(results...), nil
}

// fuse expands summaries, dedups and prunes.
func (c *CompositeRetriever) fuse(ctx context.Context, pieces []*core.Piece) ([]*core.Piece, error) {
	stats := FusionStats{Retrieved: len(pieces)}

	content, summaries := splitSummaries(pieces)
	stats.Summaries = len(summaries)

	ids, scores := relatedIDs(summaries)
	if len(ids) > 0 {
		resolved, err := c.store.GetByIDs(ctx, ids...)
		if err != nil {
			return nil, fmt.Errorf("resolving summary related ids: %w", err)
		}
		content, stats.Expanded = appendExpanded(content, resolved, scores)
	}

	deduped := dedupPieces(content)
	stats.Duplicates = len(content) - len(deduped)

	pruned := prunePieces(deduped, c.totalK)
	stats.Pruned = len(deduped) - len(pruned)
	stats.Result = len(pruned)

	c.logger.Debug("fusion complete",
		"retrieved", stats.Retrieved,
		"summaries", stats.Summaries,
		"expanded", stats.Expanded,
		"duplicates", stats.Duplicates,
		"pruned", stats.Pruned,
	)
	c.monitor.FusionCompleted(stats)

	return pruned, nil
}
