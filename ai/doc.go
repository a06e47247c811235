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

// Package ai provides abstractions for the AI services used by ragcore.
//
// This package defines one interface per model-backed step of a turn plus the
// embedder used by the vector store. Business logic depends on these
// abstractions, never on a concrete client.
//
//   - Embedder: Generates vector embeddings from text
//   - LanguageDetector: Returns the ISO 639-1 code of a question
//   - Rephraser: Rewrites a question into a standalone search query
//   - Generator: Composes a grounded answer from retrieved pieces
//   - Evaluator: Judges whether an answer is helpful
//   - AIProvider: Aggregates the above for convenient initialization
//
// # Implementation Packages
//
//   - ai/openai: Production implementation using OpenAI-compatible APIs
//   - ai/mock: Test doubles for unit testing without external dependencies
//
// # Constructor Return Type Pattern
//
// Public constructors (openai.NewProvider, openai.NewEmbedder, etc.) return
// INTERFACE types. Test utility constructors in ai/mock return CONCRETE types
// so tests can inject behavior and assert call counts:
//
//	gen := mock.NewMockGenerator()
//	gen.GenerateFunc = func(...) (*ai.Generation, error) { ... }
//	count := gen.CallCount()
//
// # Usage Example
//
//	config := ai.NewConfig(ai.WithHost("http://localhost:11434"))
//	provider, err := openai.NewProvider(config)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer provider.Close()
//
//	lang, err := provider.LanguageDetector().DetectLanguage(ctx, "Was ist ein Bebauungsplan?")
package ai
