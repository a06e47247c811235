package mock

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/poiesic/ragcore/ai"
)

// MockLanguageDetector is a test double for ai.LanguageDetector.
type MockLanguageDetector struct {
	// DetectLanguageFunc is called by DetectLanguage if set.
	// If nil, returns ai.DefaultLanguage.
	DetectLanguageFunc func(ctx context.Context, question string) (string, error)

	callCount atomic.Int64
}

// NewMockLanguageDetector creates a detector that always answers ai.DefaultLanguage.
func NewMockLanguageDetector() *MockLanguageDetector {
	return &MockLanguageDetector{}
}

// DetectLanguage returns the injected result or ai.DefaultLanguage.
func (m *MockLanguageDetector) DetectLanguage(ctx context.Context, question string) (string, error) {
	m.callCount.Add(1)
	if m.DetectLanguageFunc != nil {
		return m.DetectLanguageFunc(ctx, question)
	}
	return ai.DefaultLanguage, nil
}

// CallCount returns the number of calls.
func (m *MockLanguageDetector) CallCount() int {
	return int(m.callCount.Load())
}

// MockRephraser is a test double for ai.Rephraser.
type MockRephraser struct {
	// RephraseFunc is called by Rephrase if set.
	// If nil, the question is returned unchanged.
	RephraseFunc func(ctx context.Context, input ai.RephraseInput) (string, error)

	callCount atomic.Int64
}

// NewMockRephraser creates a rephraser that echoes the question.
func NewMockRephraser() *MockRephraser {
	return &MockRephraser{}
}

// Rephrase returns the injected result or the unchanged question.
func (m *MockRephraser) Rephrase(ctx context.Context, input ai.RephraseInput) (string, error) {
	m.callCount.Add(1)
	if m.RephraseFunc != nil {
		return m.RephraseFunc(ctx, input)
	}
	return input.Question, nil
}

// CallCount returns the number of calls.
func (m *MockRephraser) CallCount() int {
	return int(m.callCount.Load())
}

// MockGenerator is a test double for ai.Generator.
// It records every input for later assertions.
type MockGenerator struct {
	// GenerateFunc is called by Generate if set.
	// If nil, answers with a fixed text.
	GenerateFunc func(ctx context.Context, input ai.GenerationInput) (*ai.Generation, error)

	mu     sync.Mutex
	inputs []ai.GenerationInput
}

// NewMockGenerator creates a generator answering "mock answer".
func NewMockGenerator() *MockGenerator {
	return &MockGenerator{}
}

// Generate records the input and returns the injected or default generation.
func (m *MockGenerator) Generate(ctx context.Context, input ai.GenerationInput) (*ai.Generation, error) {
	m.mu.Lock()
	m.inputs = append(m.inputs, input)
	m.mu.Unlock()

	if m.GenerateFunc != nil {
		return m.GenerateFunc(ctx, input)
	}
	return &ai.Generation{Text: "mock answer", FinishReason: "stop"}, nil
}

// CallCount returns the number of calls.
func (m *MockGenerator) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.inputs)
}

// Inputs returns a copy of the recorded inputs.
func (m *MockGenerator) Inputs() []ai.GenerationInput {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]ai.GenerationInput(nil), m.inputs...)
}

// MockEvaluator is a test double for ai.Evaluator.
type MockEvaluator struct {
	// EvaluateFunc is called by Evaluate if set.
	// If nil, every answer is judged helpful.
	EvaluateFunc func(ctx context.Context, input ai.EvaluationInput) (bool, error)

	callCount atomic.Int64
}

// NewMockEvaluator creates an evaluator that judges every answer helpful.
func NewMockEvaluator() *MockEvaluator {
	return &MockEvaluator{}
}

// NewStaticEvaluator creates an evaluator that always returns the given verdict.
func NewStaticEvaluator(helpful bool) *MockEvaluator {
	return &MockEvaluator{
		EvaluateFunc: func(context.Context, ai.EvaluationInput) (bool, error) {
			return helpful, nil
		},
	}
}

// Evaluate returns the injected verdict or true.
func (m *MockEvaluator) Evaluate(ctx context.Context, input ai.EvaluationInput) (bool, error) {
	m.callCount.Add(1)
	if m.EvaluateFunc != nil {
		return m.EvaluateFunc(ctx, input)
	}
	return true, nil
}

// CallCount returns the number of calls.
func (m *MockEvaluator) CallCount() int {
	return int(m.callCount.Load())
}
