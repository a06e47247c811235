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

package mock

import "github.com/poiesic/ragcore/ai"

// MockProvider is a test double for ai.AIProvider.
// It aggregates mock embedder and step instances.
type MockProvider struct {
	embedder  *MockEmbedder
	detector  *MockLanguageDetector
	rephraser *MockRephraser
	generator *MockGenerator
	evaluator *MockEvaluator
}

var _ ai.AIProvider = (*MockProvider)(nil)

// NewMockProvider creates a new mock provider with default mock services.
//
// Returns ai.AIProvider interface for consistency with production constructors.
// Type-assert to *MockProvider to reach the concrete mocks for test assertions.
func NewMockProvider() ai.AIProvider {
	return &MockProvider{
		embedder:  NewMockEmbedder(),
		detector:  NewMockLanguageDetector(),
		rephraser: NewMockRephraser(),
		generator: NewMockGenerator(),
		evaluator: NewMockEvaluator(),
	}
}

// Embedder returns the mock embedder.
func (p *MockProvider) Embedder() ai.Embedder {
	return p.embedder
}

// LanguageDetector returns the mock language detector.
func (p *MockProvider) LanguageDetector() ai.LanguageDetector {
	return p.detector
}

// Rephraser returns the mock rephraser.
func (p *MockProvider) Rephraser() ai.Rephraser {
	return p.rephraser
}

// Generator returns the mock generator.
func (p *MockProvider) Generator() ai.Generator {
	return p.generator
}

// Evaluator returns the mock evaluator.
func (p *MockProvider) Evaluator() ai.Evaluator {
	return p.evaluator
}

// Close is a no-op for mock provider.
func (p *MockProvider) Close() error {
	return nil
}

// GetMockEmbedder returns the underlying mock embedder for test assertions.
func (p *MockProvider) GetMockEmbedder() *MockEmbedder {
	return p.embedder
}

// GetMockGenerator returns the underlying mock generator for test assertions.
func (p *MockProvider) GetMockGenerator() *MockGenerator {
	return p.generator
}

// GetMockEvaluator returns the underlying mock evaluator for test assertions.
func (p *MockProvider) GetMockEvaluator() *MockEvaluator {
	return p.evaluator
}

// GetMockLanguageDetector returns the underlying mock detector for test assertions.
func (p *MockProvider) GetMockLanguageDetector() *MockLanguageDetector {
	return p.detector
}

// GetMockRephraser returns the underlying mock rephraser for test assertions.
func (p *MockProvider) GetMockRephraser() *MockRephraser {
	return p.rephraser
}
