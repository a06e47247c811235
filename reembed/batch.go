package reembed

import (
	"context"
	"fmt"
	"time"

	"github.com/poiesic/ragcore/ai"
	"github.com/poiesic/ragcore/core"
	"github.com/poiesic/ragcore/storage"
)

// BatchProcessor re-embeds batches of pieces and writes them back.
type BatchProcessor struct {
	repo           storage.PieceRepository
	embedder       ai.Embedder
	maxRetries     int
	retryBaseDelay time.Duration
}

// NewBatchProcessor creates a new batch processor.
// maxRetries: maximum number of attempts per embedding call
// retryBaseDelay: base delay for exponential backoff
func NewBatchProcessor(repo storage.PieceRepository, embedder ai.Embedder, maxRetries int, retryBaseDelay time.Duration) *BatchProcessor {
	return &BatchProcessor{
		repo:           repo,
		embedder:       embedder,
		maxRetries:     maxRetries,
		retryBaseDelay: retryBaseDelay,
	}
}

// Process embeds the content of each piece, normalizes the vectors and
// updates the pieces. Nothing is written when embedding fails.
func (bp *BatchProcessor) Process(ctx context.Context, pieces []*core.Piece) error {
	if len(pieces) == 0 {
		return nil
	}

	texts := make([]string, len(pieces))
	for i, piece := range pieces {
		texts[i] = piece.Content
	}

	var embeddings [][]float32
	err := RetryWithBackoff(ctx, func() error {
		var err error
		embeddings, err = bp.embedder.EmbedTexts(ctx, texts)
		return err
	}, bp.maxRetries, bp.retryBaseDelay)
	if err != nil {
		return fmt.Errorf("failed to generate embeddings after %d attempts: %w", bp.maxRetries, err)
	}

	if len(embeddings) != len(pieces) {
		return fmt.Errorf("%w: expected %d, got %d", ErrEmbeddingMismatch, len(pieces), len(embeddings))
	}

	for i := range pieces {
		pieces[i].Vector = NormalizeVector(embeddings[i])
	}

	if _, err := bp.repo.UpdatePieces(ctx, pieces...); err != nil {
		return fmt.Errorf("failed to update pieces: %w", err)
	}
	return nil
}
