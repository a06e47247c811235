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

import "errors"

// Domain validation errors
var (
	// ErrInvalidPiece indicates a Piece failed validation.
	ErrInvalidPiece = errors.New("invalid piece")

	// ErrEmptyPieceID indicates the Id field is empty.
	ErrEmptyPieceID = errors.New("piece id cannot be empty")

	// ErrEmptyContent indicates the Content field is empty.
	ErrEmptyContent = errors.New("content cannot be empty")

	// ErrInvalidContentType indicates an unknown ContentType value.
	ErrInvalidContentType = errors.New("invalid content type")

	// ErrMissingVector indicates a piece was stored without an embedding.
	ErrMissingVector = errors.New("piece vector cannot be empty")

	// ErrSelfReference indicates a summary lists itself as related.
	ErrSelfReference = errors.New("summary cannot reference itself")
)
