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
	"slices"

	"github.com/poiesic/ragcore/core"
	"github.com/poiesic/ragcore/storage"
)

const (
	// DefaultBatchSize is the default number of pieces to fetch in each batch
	DefaultBatchSize = 100
)

// PieceIterator walks every stored piece in id order, one batch at a time.
type PieceIterator struct {
	repo      storage.PieceRepository
	batchSize int
}

// NewPieceIterator creates a new piece iterator.
// batchSize: number of pieces to fetch in each batch; non-positive uses DefaultBatchSize
func NewPieceIterator(repo storage.PieceRepository, batchSize int) *PieceIterator {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	return &PieceIterator{
		repo:      repo,
		batchSize: batchSize,
	}
}

// ForEach calls fn for each batch of pieces. Only ids are listed up front;
// pieces are loaded batch by batch so memory stays bounded by the batch size.
// Iteration stops on the first error from fn. Pieces deleted while iterating
// are skipped.
func (it *PieceIterator) ForEach(ctx context.Context, fn func([]*core.Piece) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	ids, err := it.repo.ListPieceIDs(ctx)
	if err != nil {
		return err
	}

	for batchIDs := range slices.Chunk(ids, it.batchSize) {
		pieces, err := it.repo.GetPieces(ctx, batchIDs...)
		if err != nil {
			return err
		}
		if len(pieces) > 0 {
			if err := fn(pieces); err != nil {
				return err
			}
		}

		// Check context after each batch
		if err := ctx.Err(); err != nil {
			return err
		}
	}
	return nil
}
