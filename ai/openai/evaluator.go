package openai

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/poiesic/ragcore/ai"
	"github.com/tmc/langchaingo/llms"
)

// verdict is the structure the evaluation prompt asks the model for.
type verdict struct {
	Helpful *bool `json:"helpful"`
}

// Evaluator implements ai.Evaluator using an OpenAI-compatible chat API.
type Evaluator struct {
	client llms.Model
	logger *slog.Logger
}

var _ ai.Evaluator = (*Evaluator)(nil)

func newEvaluator(client llms.Model) *Evaluator {
	return &Evaluator{
		client: client,
		logger: slog.Default().With("component", "openai-evaluator"),
	}
}

// NewEvaluator creates a helpfulness evaluator using the provided configuration.
//
// Returns ai.Evaluator interface to enforce abstraction.
func NewEvaluator(config *ai.Config) (ai.Evaluator, error) {
	client, err := newChatClient(config)
	if err != nil {
		return nil, err
	}
	return newEvaluator(client), nil
}

// Evaluate asks the model whether the answer is helpful.
// A verdict that cannot be parsed counts as not helpful.
func (e *Evaluator) Evaluate(ctx context.Context, input ai.EvaluationInput) (bool, error) {
	choice, err := complete(ctx, e.client,
		evaluationPrompt,
		buildEvaluationInput(input.Question, input.RephrasedQuestion, input.Answer, input.Context),
		llms.WithTemperature(0.0), llms.WithJSONMode())
	if err != nil {
		e.logger.Error("failed to evaluate answer", "err", err)
		return false, err
	}

	responseText := repairJSON(stripCodeFences(choice.Content))

	var v verdict
	if err := json.Unmarshal([]byte(responseText), &v); err != nil {
		e.logger.Warn("error parsing evaluation response", "response", responseText, "err", err)
		return false, nil
	}
	if v.Helpful == nil {
		e.logger.Warn("evaluation response lacks verdict", "response", responseText)
		return false, nil
	}

	return *v.Helpful, nil
}
