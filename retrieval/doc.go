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


// Package retrieval turns one query into one fused list of pieces.
//
// A RetrieverQuark searches the vector store for a single content type.
// A CompositeRetriever runs every quark concurrently, then fuses the
// results in order:
//
//  1. concatenate in quark order
//  2. replace SUMMARY pieces with the pieces their related ids name
//  3. drop repeated ids, first occurrence wins
//  4. bound the set to total_k, by score when every piece is scored
//  5. rerank, only when the set is larger than the reranker's k
//
// Any quark failure aborts the whole call. ErrNoOrEmptyCollection signals
// that nothing has been indexed yet.
package retrieval
