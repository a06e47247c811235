package ingestion

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/poiesic/ragcore/ai"
	"github.com/poiesic/ragcore/core"
	"github.com/poiesic/ragcore/storage"
)

// embeddingProcessor embeds pieces and upserts them.
type embeddingProcessor struct {
	repository storage.PieceRepository
	embedder   ai.Embedder
	logger     *slog.Logger
}

var _ processor = (*embeddingProcessor)(nil)

func newEmbeddingProcessor(repository storage.PieceRepository, embedder ai.Embedder, logger *slog.Logger) (processor, error) {
	if repository == nil {
		return nil, ErrPieceRepositoryRequired
	}
	if embedder == nil {
		return nil, fmt.Errorf("embedder required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &embeddingProcessor{
		repository: repository,
		embedder:   embedder,
		logger:     logger.With("processor", "embeddings"),
	}, nil
}

// process embeds the batch, then adds new pieces and updates known ones.
func (ep *embeddingProcessor) process(ctx context.Context, pieces ...*core.Piece) error {
	if len(pieces) == 0 {
		return nil
	}
	ep.logger.Debug("embedding pieces", "pieces", len(pieces))

	texts := make([]string, len(pieces))
	for i, piece := range pieces {
		texts[i] = piece.Content
	}
	embeddings, err := ep.embedder.EmbedTexts(ctx, texts)
	if err != nil {
		return fmt.Errorf("embed batch: %w", err)
	}
	if len(embeddings) != len(pieces) {
		return fmt.Errorf("%w: expected %d, received %d", ErrEmbeddingMismatch, len(pieces), len(embeddings))
	}

	ids := make([]string, len(pieces))
	for i, piece := range pieces {
		piece.Vector = embeddings[i]
		ids[i] = piece.Id
	}

	existing, err := ep.repository.GetPieces(ctx, ids...)
	if err != nil {
		return fmt.Errorf("look up existing pieces: %w", err)
	}
	known := make(map[string]struct{}, len(existing))
	for _, piece := range existing {
		known[piece.Id] = struct{}{}
	}

	var added, updated []*core.Piece
	for _, piece := range pieces {
		if _, ok := known[piece.Id]; ok {
			updated = append(updated, piece)
		} else {
			added = append(added, piece)
		}
	}

	if len(added) > 0 {
		if _, err := ep.repository.AddPieces(ctx, added...); err != nil {
			return fmt.Errorf("add pieces: %w", err)
		}
	}
	if len(updated) > 0 {
		if _, err := ep.repository.UpdatePieces(ctx, updated...); err != nil {
			return fmt.Errorf("update pieces: %w", err)
		}
	}
	return nil
}
