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

package core

import (
	"fmt"
	"slices"
)

// ValidatePiece validates a Piece according to domain rules.
//
// Validation rules:
//   - Id must not be empty
//   - Content must not be empty
//   - ContentType must be one of the known types
//   - a SUMMARY must not list its own id in RelatedIds
//
// NOT validated (populated by processors):
//   - Vector (can be empty until embedding processor runs)
//   - Score (only set by retrieval)
func ValidatePiece(piece *Piece) error {
	if piece == nil {
		return fmt.Errorf("%w: piece is nil", ErrInvalidPiece)
	}

	if piece.Id == "" {
		return fmt.Errorf("%w: %w", ErrInvalidPiece, ErrEmptyPieceID)
	}

	if piece.Content == "" {
		return fmt.Errorf("%w: %w", ErrInvalidPiece, ErrEmptyContent)
	}

	if !piece.ContentType.Valid() {
		return fmt.Errorf("%w: %w: %q", ErrInvalidPiece, ErrInvalidContentType, piece.ContentType)
	}

	if piece.ContentType == ContentTypeSummary && slices.Contains(piece.RelatedIds, piece.Id) {
		return fmt.Errorf("%w: %w", ErrInvalidPiece, ErrSelfReference)
	}

	return nil
}

// ValidateStoredPiece validates a piece about to be written to a store.
// In addition to ValidatePiece it requires an embedding.
func ValidateStoredPiece(piece *Piece) error {
	if err := ValidatePiece(piece); err != nil {
		return err
	}
	if len(piece.Vector) == 0 {
		return fmt.Errorf("%w: %w", ErrInvalidPiece, ErrMissingVector)
	}
	return nil
}
