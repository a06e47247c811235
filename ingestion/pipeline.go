package ingestion

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"slices"
	"sync"

	"github.com/google/uuid"
	"github.com/panjf2000/ants/v2"
	"github.com/poiesic/ragcore/ai"
	"github.com/poiesic/ragcore/core"
	"github.com/poiesic/ragcore/storage"
)

// DefaultBatchSize is the number of pieces embedded per request.
const DefaultBatchSize = 32

// pieceNamespace scopes content-derived piece ids.
var pieceNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("urn:ragcore:piece"))

// Pipeline orchestrates the ingestion of information pieces.
// It embeds batches concurrently on a worker pool.
type Pipeline struct {
	repository    storage.PieceRepository
	embeddingPool *ants.Pool
	embeddingProc processor
	batchSize     int
	logger        *slog.Logger
}

// Option configures a Pipeline.
type Option func(*Pipeline) error

// WithPoolSize sets the worker pool size for concurrent embedding.
// Default is runtime.NumCPU() / 2, with a minimum of 1.
func WithPoolSize(size int) Option {
	return func(p *Pipeline) error {
		if size < 1 {
			size = 1
		}

		// Release old pool
		if p.embeddingPool != nil {
			p.embeddingPool.Release()
		}

		pool, err := ants.NewPool(size)
		if err != nil {
			return err
		}
		p.embeddingPool = pool
		return nil
	}
}

// WithBatchSize sets how many pieces are embedded per request.
func WithBatchSize(size int) Option {
	return func(p *Pipeline) error {
		if size < 1 {
			return fmt.Errorf("batch size must be positive, got %d", size)
		}
		p.batchSize = size
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) error {
		if logger == nil {
			logger = slog.Default()
		}
		p.logger = logger.With("component", "ingestion")
		return nil
	}
}

// NewPipeline creates a new ingestion pipeline.
func NewPipeline(repository storage.PieceRepository, provider ai.AIProvider, opts ...Option) (*Pipeline, error) {
	if repository == nil {
		return nil, ErrPieceRepositoryRequired
	}
	if provider == nil {
		return nil, ErrAIProviderRequired
	}

	poolSize := max(runtime.NumCPU()/2, 1)
	pool, err := ants.NewPool(poolSize)
	if err != nil {
		return nil, err
	}

	p := &Pipeline{
		repository:    repository,
		embeddingPool: pool,
		batchSize:     DefaultBatchSize,
		logger:        slog.Default().With("component", "ingestion"),
	}

	// Apply options (may override defaults)
	for _, opt := range opts {
		if optErr := opt(p); optErr != nil {
			p.Release()
			return nil, optErr
		}
	}

	// Create the processor after options are applied so it gets the final logger
	embeddingProc, err := newEmbeddingProcessor(repository, provider.Embedder(), p.logger)
	if err != nil {
		p.Release()
		return nil, err
	}
	p.embeddingProc = embeddingProc

	return p, nil
}

// IngestOptions holds optional parameters for ingestion.
type IngestOptions struct {
	// ReplaceDocuments removes every stored piece of each ingested document
	// before writing, so a re-upload does not leave stale pieces behind.
	ReplaceDocuments bool
	// Metadata is merged into every piece without overriding its own keys.
	Metadata map[string]any
}

// Result summarizes one ingestion.
type Result struct {
	Stored  int `json:"stored"`
	Removed int `json:"removed"`
	Batches int `json:"batches"`
}

// Ingest validates, embeds and stores pieces. Pieces without an id get one
// derived from their document and content, so re-ingesting the same content
// updates it in place. The call blocks until every batch has been stored.
func (p *Pipeline) Ingest(ctx context.Context, pieces []*core.Piece, opts *IngestOptions) (*Result, error) {
	if opts == nil {
		opts = &IngestOptions{}
	}
	result := &Result{}
	if len(pieces) == 0 {
		return result, nil
	}

	// Later pieces win over earlier ones with the same id
	prepared := make([]*core.Piece, 0, len(pieces))
	positions := make(map[string]int, len(pieces))
	for i, piece := range pieces {
		c := preparePiece(piece, opts.Metadata)
		if err := core.ValidatePiece(c); err != nil {
			return nil, fmt.Errorf("piece %d: %w", i, err)
		}
		if at, ok := positions[c.Id]; ok {
			prepared[at] = c
			continue
		}
		positions[c.Id] = len(prepared)
		prepared = append(prepared, c)
	}

	if opts.ReplaceDocuments {
		for _, document := range documentsOf(prepared) {
			removed, err := p.repository.DeleteByFilter(ctx, core.FilterSet{core.MetadataKeyDocument: {document}})
			if err != nil {
				return nil, fmt.Errorf("replace document %q: %w", document, err)
			}
			result.Removed += removed
		}
	}

	batches := slices.Collect(slices.Chunk(prepared, p.batchSize))
	if err := p.processBatches(ctx, batches); err != nil {
		return nil, err
	}

	result.Stored = len(prepared)
	result.Batches = len(batches)
	p.logger.Info("ingested pieces", "stored", result.Stored, "removed", result.Removed, "batches", result.Batches)
	return result, nil
}

// processBatches runs every batch on the pool and returns the first error.
// The remaining batches see a cancelled context once one fails.
func (p *Pipeline) processBatches(ctx context.Context, batches [][]*core.Piece) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		firstErr error
	)
	fail := func(err error) {
		mu.Lock()
		defer mu.Unlock()
		if firstErr == nil {
			firstErr = err
			cancel()
		}
	}

	for i, batch := range batches {
		wg.Add(1)
		err := p.embeddingPool.Submit(func() {
			defer wg.Done()
			if err := ctx.Err(); err != nil {
				fail(err)
				return
			}
			if err := p.embeddingProc.process(ctx, batch...); err != nil {
				p.logger.Error("error processing batch", "batch", i, "err", err)
				fail(fmt.Errorf("batch %d: %w", i, err))
			}
		})
		if err != nil {
			wg.Done()
			fail(fmt.Errorf("submit batch %d: %w", i, err))
			break
		}
	}

	wg.Wait()
	return firstErr
}

// Remove deletes every piece matching filters and reports how many were removed.
func (p *Pipeline) Remove(ctx context.Context, filters core.FilterSet) (int, error) {
	if len(filters) == 0 {
		return 0, ErrNoFilters
	}
	removed, err := p.repository.DeleteByFilter(ctx, filters)
	if err != nil {
		return 0, err
	}
	p.logger.Info("removed pieces", "filters", filters, "removed", removed)
	return removed, nil
}

// Release releases resources including worker pools.
// The pipeline should not be used after calling Release.
func (p *Pipeline) Release() {
	if p.embeddingPool != nil {
		p.embeddingPool.Release()
	}
}

// preparePiece returns a copy with defaults applied and an id assigned.
func preparePiece(piece *core.Piece, metadata map[string]any) *core.Piece {
	if piece == nil {
		return nil
	}
	c := *piece
	c.Metadata = make(map[string]any, len(piece.Metadata)+len(metadata))
	for k, v := range metadata {
		c.Metadata[k] = v
	}
	for k, v := range piece.Metadata {
		c.Metadata[k] = v
	}
	if c.ContentType == "" {
		c.ContentType = core.ContentTypeText
	} else if parsed, err := core.ParseContentType(string(c.ContentType)); err == nil {
		c.ContentType = parsed
	}
	if c.Id == "" {
		c.Id = PieceID(documentOf(&c), c.Content)
	}
	c.Score = nil
	return &c
}

// PieceID derives a stable id from a piece's document and content.
func PieceID(document, content string) string {
	return uuid.NewSHA1(pieceNamespace, []byte(document+"\x00"+content)).String()
}

func documentOf(piece *core.Piece) string {
	if s, ok := piece.Metadata[core.MetadataKeyDocument].(string); ok {
		return s
	}
	return ""
}

// documentsOf lists the distinct non-empty documents in first-seen order.
func documentsOf(pieces []*core.Piece) []string {
	var out []string
	for _, piece := range pieces {
		if d := documentOf(piece); d != "" && !slices.Contains(out, d) {
			out = append(out, d)
		}
	}
	return out
}
