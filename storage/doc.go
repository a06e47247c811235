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


// Package storage provides the storage abstraction layer for ragcore.
//
// This package defines the repository interfaces that decouple the piece store
// from retrieval. Public constructors return interfaces so alternative
// backends can be swapped in:
//
//	repo, backend, err := badger.NewMemoryRepository() // storage.PieceRepository
//
// Internal package constructors may return concrete types since they're only
// used within the implementation package.
//
// # Architecture
//
//   - PieceRepository: durable piece storage with content type and document indices
//   - Repository: vector similarity search shared by all repositories
//   - VectorStore: the text query surface retrieval depends on
//   - EmbeddingStore: a VectorStore that embeds queries and searches a PieceRepository
//
// # Thread Safety
//
// All implementations must be thread-safe and support concurrent access
// from multiple goroutines.
//
// # Context Support
//
// All methods accept context.Context for cancellation and timeout support.
package storage
