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


package retrieval

import "errors"

var (
	// ErrNoOrEmptyCollection is returned when the vector store has no collection
	// or the collection holds no pieces.
	ErrNoOrEmptyCollection = errors.New("no or empty collection")

	// ErrVectorStoreRequired is returned when a vector store is not provided.
	ErrVectorStoreRequired = errors.New("vector store required")

	// ErrNoQuarks is returned when a composite retriever is built without quarks.
	ErrNoQuarks = errors.New("at least one quark required")

	// ErrInvalidTotalK is returned for a non-positive total_k.
	ErrInvalidTotalK = errors.New("total_k must be positive")

	// ErrInvalidK is returned for a non-positive quark or reranker k.
	ErrInvalidK = errors.New("k must be positive")

	// ErrInvalidThreshold is returned for a threshold outside [-1, 1].
	ErrInvalidThreshold = errors.New("threshold must be within [-1, 1]")
)
