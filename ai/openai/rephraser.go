package openai

import (
	"context"
	"log/slog"

	"github.com/poiesic/ragcore/ai"
	"github.com/tmc/langchaingo/llms"
)

// Rephraser implements ai.Rephraser using an OpenAI-compatible chat API.
type Rephraser struct {
	client llms.Model
	logger *slog.Logger
}

var _ ai.Rephraser = (*Rephraser)(nil)

func newRephraser(client llms.Model) *Rephraser {
	return &Rephraser{
		client: client,
		logger: slog.Default().With("component", "openai-rephraser"),
	}
}

// NewRephraser creates a rephraser using the provided configuration.
//
// Returns ai.Rephraser interface to enforce abstraction.
func NewRephraser(config *ai.Config) (ai.Rephraser, error) {
	client, err := newChatClient(config)
	if err != nil {
		return nil, err
	}
	return newRephraser(client), nil
}

// Rephrase rewrites the question into a standalone search query.
// An empty result is returned as is; callers decide how to fall back.
func (r *Rephraser) Rephrase(ctx context.Context, input ai.RephraseInput) (string, error) {
	choice, err := complete(ctx, r.client,
		buildRephrasePrompt(input.Language),
		buildRephraseInput(input.Question, input.History, input.Language),
		llms.WithTemperature(0.0))
	if err != nil {
		r.logger.Error("failed to rephrase question", "err", err)
		return "", err
	}

	rephrased := trimQuotes(stripCodeFences(choice.Content))
	r.logger.Debug("rephrased question", "question", input.Question, "rephrased", rephrased)
	return rephrased, nil
}
