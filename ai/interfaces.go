package ai

import "context"

// Embedder generates vector embeddings from text for semantic similarity search.
// Implementations must be thread-safe for concurrent use.
type Embedder interface {
	// EmbedText generates a vector embedding for a single text string.
	// The returned vector represents the semantic meaning of the text.
	// Returns an error if the embedding generation fails.
	EmbedText(ctx context.Context, text string) ([]float32, error)

	// EmbedTexts generates vector embeddings for multiple text strings in a batch.
	// Batch processing is more efficient than calling EmbedText multiple times.
	// The returned slice contains embeddings in the same order as the input texts.
	// Returns an error if any embedding generation fails.
	EmbedTexts(ctx context.Context, texts []string) ([][]float32, error)
}

// LanguageDetector determines the language a question is written in.
type LanguageDetector interface {
	// DetectLanguage returns a lowercase ISO 639-1 code. Output the model
	// produces that cannot be parsed yields DefaultLanguage, not an error.
	// Errors are reserved for transport failures.
	DetectLanguage(ctx context.Context, question string) (string, error)
}

// Rephraser rewrites a question into a standalone retrieval query.
type Rephraser interface {
	Rephrase(ctx context.Context, input RephraseInput) (string, error)
}

// Generator composes an answer grounded in retrieved pieces.
type Generator interface {
	Generate(ctx context.Context, input GenerationInput) (*Generation, error)
}

// Evaluator judges whether an answer is helpful for the question.
type Evaluator interface {
	// Evaluate returns false when the verdict cannot be parsed.
	Evaluate(ctx context.Context, input EvaluationInput) (bool, error)
}

// AIProvider aggregates AI services for convenient initialization and lifecycle management.
// A provider creates and manages the embedder and the LLM steps,
// ensuring they share configuration and resources appropriately.
type AIProvider interface {
	// Embedder returns the text embedding service.
	Embedder() Embedder

	// LanguageDetector returns the language detection step.
	LanguageDetector() LanguageDetector

	// Rephraser returns the question rephrasing step.
	Rephraser() Rephraser

	// Generator returns the answer generation step.
	Generator() Generator

	// Evaluator returns the helpfulness evaluation step.
	Evaluator() Evaluator

	// Close releases resources held by the provider and its services.
	// After Close is called, the provider and its services should not be used.
	Close() error
}
