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

package storage

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/poiesic/ragcore/core"
)

// storedPiece is the persisted form of a piece. Unlike the API form it
// carries the embedding and timestamps.
type storedPiece struct {
	Id          string           `json:"id"`
	Content     string           `json:"content"`
	ContentType core.ContentType `json:"content_type"`
	RelatedIds  []string         `json:"related_ids,omitempty"`
	Metadata    map[string]any   `json:"metadata,omitempty"`
	Vector      []float32        `json:"vector,omitempty"`
	InsertedAt  time.Time        `json:"inserted_at"`
	UpdatedAt   time.Time        `json:"updated_at"`
}

// MarshalPiece serializes a Piece to bytes. Scores are not persisted.
func MarshalPiece(piece *core.Piece) ([]byte, error) {
	data, err := json.Marshal(storedPiece{
		Id:          piece.Id,
		Content:     piece.Content,
		ContentType: piece.ContentType,
		RelatedIds:  piece.RelatedIds,
		Metadata:    piece.Metadata,
		Vector:      piece.Vector,
		InsertedAt:  piece.InsertedAt,
		UpdatedAt:   piece.UpdatedAt,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSerializationFailed, err)
	}
	return data, nil
}

// UnmarshalPiece deserializes a Piece from bytes.
func UnmarshalPiece(data []byte) (*core.Piece, error) {
	var sp storedPiece
	if err := json.Unmarshal(data, &sp); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSerializationFailed, err)
	}
	return &core.Piece{
		Id:          sp.Id,
		Content:     sp.Content,
		ContentType: sp.ContentType,
		RelatedIds:  sp.RelatedIds,
		Metadata:    sp.Metadata,
		Vector:      sp.Vector,
		InsertedAt:  sp.InsertedAt,
		UpdatedAt:   sp.UpdatedAt,
	}, nil
}
