// Package mock provides test double implementations of AI service interfaces.
//
// This package contains mock implementations of ai.Embedder, the four LLM
// steps, and ai.AIProvider for use in unit tests. The mocks allow tests to
// run without external AI service dependencies and enable controlled,
// deterministic behavior. All mocks are safe for concurrent use, since a turn
// runs language detection and rephrasing in parallel.
//
// # Usage in Tests
//
//	gen := mock.NewMockGenerator()
//	gen.GenerateFunc = func(ctx context.Context, in ai.GenerationInput) (*ai.Generation, error) {
//	    return &ai.Generation{Text: "Berlin"}, nil
//	}
//
//	eval := mock.NewStaticEvaluator(false) // every answer is unhelpful
//
// # Default Behavior
//
//   - MockEmbedder: Returns deterministic unit vectors based on text hash
//   - MockLanguageDetector: Returns "en"
//   - MockRephraser: Returns the question unchanged
//   - MockGenerator: Returns "mock answer" and records inputs
//   - MockEvaluator: Judges every answer helpful
package mock
