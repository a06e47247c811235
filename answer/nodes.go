package answer

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/poiesic/ragcore/ai"
	"github.com/poiesic/ragcore/core"
	"github.com/poiesic/ragcore/retrieval"
)

const (
	// digestPieces is how many pieces the evaluator sees.
	digestPieces = 3
	// digestRunes bounds each piece in the evaluation digest.
	digestRunes = 300
)

func (m *StateMachine) determineLanguage(ctx context.Context, ts *TurnState) (State, error) {
	language, err := m.detector.DetectLanguage(ctx, ts.Question)
	if err != nil {
		return StateDone, fmt.Errorf("determine language: %w", err)
	}
	if language == "" {
		language = ai.DefaultLanguage
	}
	ts.Language = language
	return StateRetrieve, nil
}

// rephrase runs alongside language detection, so ts.Language is only set
// when a caller seeded it.
func (m *StateMachine) rephrase(ctx context.Context, ts *TurnState) (State, error) {
	rephrased, err := m.rephraser.Rephrase(ctx, ai.RephraseInput{
		Question: ts.Question,
		History:  ts.History,
		Language: ts.Language,
	})
	if err != nil {
		return StateDone, fmt.Errorf("rephrase: %w", err)
	}

	rephrased = strings.TrimSpace(rephrased)
	if rephrased == "" {
		rephrased = ts.Question
	}
	ts.RephrasedQuestion = rephrased
	return StateRetrieve, nil
}

func (m *StateMachine) retrieve(ctx context.Context, ts *TurnState) (State, error) {
	logger := m.turnLogger(ts)

	pieces, err := m.retriever.Retrieve(ctx, ts.RephrasedQuestion, ts.ActiveFilters)
	if errors.Is(err, retrieval.ErrNoOrEmptyCollection) {
		logger.Warn("no or empty collection")
		ts.addError(m.messages.NoOrEmptyCollection, FinishReasonError)
		return StateError, nil
	}
	if err != nil {
		return StateDone, fmt.Errorf("retrieve: %w", err)
	}

	if len(pieces) > 0 {
		ts.Pieces = pieces
		return StateGenerate, nil
	}

	if m.hasFallback && !ts.RetryUsed {
		logger.Warn("no documents found, retrying with fallback filters")
		ts.switchToFallback(m.fallback)
		return StateRetrieve, nil
	}

	logger.Warn("no documents found")
	ts.addError(m.messages.NoDocuments, FinishReasonNoDocuments)
	return StateError, nil
}

func (m *StateMachine) generate(ctx context.Context, ts *TurnState) (State, error) {
	generation, err := m.generator.Generate(ctx, ai.GenerationInput{
		Question: ts.Question,
		History:  ts.History,
		Language: ts.Language,
		Pieces:   ts.Pieces,
	})
	if err != nil {
		return StateDone, fmt.Errorf("generate: %w", err)
	}

	ts.AnswerText = strings.TrimSpace(generation.Text)
	if ts.AnswerText == "" {
		ts.AnswerText = m.messages.NoAnswerFound
	}
	ts.FinishReasons = nil
	if generation.FinishReason != "" {
		ts.FinishReasons = []string{generation.FinishReason}
	}

	if ts.SkipEvaluate || m.evaluator == nil {
		return StateDone, nil
	}
	return StateEvaluate, nil
}

func (m *StateMachine) evaluate(ctx context.Context, ts *TurnState) (State, error) {
	helpful, err := m.evaluator.Evaluate(ctx, ai.EvaluationInput{
		Question:          ts.Question,
		RephrasedQuestion: ts.RephrasedQuestion,
		Answer:            ts.AnswerText,
		Context:           evaluationDigest(ts.Pieces),
	})
	if err != nil {
		return StateDone, fmt.Errorf("evaluate: %w", err)
	}

	if helpful {
		return StateDone, nil
	}

	if m.hasFallback && !ts.RetryUsed {
		m.turnLogger(ts).Warn("answer judged unhelpful, retrying with fallback filters")
		ts.switchToFallback(m.fallback)
		return StateRetrieve, nil
	}

	// Best effort: an unhelpful answer is still returned
	m.turnLogger(ts).Info("answer judged unhelpful, no fallback left")
	return StateDone, nil
}

// composeError turns the accumulated recoverable errors into the answer.
func (m *StateMachine) composeError(_ context.Context, ts *TurnState) (State, error) {
	ts.AnswerText = strings.Join(uniqueOrdered(ts.ErrorMessages), " ")
	ts.FinishReasons = uniqueOrdered(ts.FinishReasons)
	ts.Pieces = nil
	return StateDone, nil
}

// evaluationDigest summarizes the first pieces for the evaluator.
func evaluationDigest(pieces []*core.Piece) string {
	parts := make([]string, 0, digestPieces)
	for _, p := range pieces[:min(len(pieces), digestPieces)] {
		parts = append(parts, truncateRunes(p.Content, digestRunes))
	}
	return strings.Join(parts, "\n\n")
}

func truncateRunes(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
