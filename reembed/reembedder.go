// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package reembed

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/poiesic/ragcore/ai"
	"github.com/poiesic/ragcore/core"
	"github.com/poiesic/ragcore/storage"
)

// Config holds configuration for the reembedding operation.
type Config struct {
	// BatchSize is the number of pieces to process in each batch
	BatchSize int

	// ReportInterval is how often to report progress (number of pieces)
	ReportInterval int

	// MaxRetries is the maximum number of attempts per embedding call
	MaxRetries int

	// RetryDelay is the base delay for exponential backoff
	RetryDelay time.Duration
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		BatchSize:      DefaultBatchSize,
		ReportInterval: 100,
		MaxRetries:     3,
		RetryDelay:     1 * time.Second,
	}
}

// Reembedder orchestrates the reembedding of all pieces in a store.
type Reembedder struct {
	repo      storage.PieceRepository
	config    *Config
	progress  io.Writer
	processor *BatchProcessor
	iterator  *PieceIterator
}

// NewReembedder creates a new reembedder.
// progress: where to write progress output (typically os.Stderr)
func NewReembedder(repo storage.PieceRepository, embedder ai.Embedder, config *Config, progress io.Writer) *Reembedder {
	if config == nil {
		config = DefaultConfig()
	}
	if progress == nil {
		progress = io.Discard
	}

	return &Reembedder{
		repo:      repo,
		config:    config,
		progress:  progress,
		processor: NewBatchProcessor(repo, embedder, config.MaxRetries, config.RetryDelay),
		iterator:  NewPieceIterator(repo, config.BatchSize),
	}
}

// Run re-embeds every stored piece and reports how many were processed.
// Batches written before a failure keep their new vectors, so mixing models
// is possible after an aborted run; rerunning to completion fixes that.
func (r *Reembedder) Run(ctx context.Context) (int, error) {
	total, err := r.repo.CountPieces(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to count pieces: %w", err)
	}
	if total == 0 {
		fmt.Fprintf(r.progress, "No pieces found in store (0 pieces)\n")
		return 0, nil
	}

	fmt.Fprintf(r.progress, "Starting reembedding of %d pieces (batch size: %d)\n", total, r.iterator.batchSize)

	tracker := NewProgressTracker(r.progress, total, r.config.ReportInterval, "pieces")
	tracker.Start()

	processed := 0
	err = r.iterator.ForEach(ctx, func(pieces []*core.Piece) error {
		if err := r.processor.Process(ctx, pieces); err != nil {
			return fmt.Errorf("failed to process batch at piece %s: %w", pieces[0].Id, err)
		}
		processed += len(pieces)
		tracker.Update(processed)
		return nil
	})
	if err != nil {
		return processed, err
	}

	tracker.Finish()

	elapsed := tracker.Elapsed()
	fmt.Fprintf(r.progress, "Reembedding complete. Processed %d pieces in %v (%.1f pieces/sec)\n",
		processed, elapsed.Round(time.Millisecond), float64(processed)/elapsed.Seconds())
	return processed, nil
}
