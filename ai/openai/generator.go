package openai

import (
	"context"
	"log/slog"
	"strings"

	"github.com/poiesic/ragcore/ai"
	"github.com/tmc/langchaingo/llms"
)

// Generator implements ai.Generator using an OpenAI-compatible chat API.
type Generator struct {
	client      llms.Model
	temperature float64
	maxTokens   int
	logger      *slog.Logger
}

var _ ai.Generator = (*Generator)(nil)

func newGenerator(client llms.Model, config *ai.Config) *Generator {
	return &Generator{
		client:      client,
		temperature: config.Temperature,
		maxTokens:   config.MaxTokens,
		logger:      slog.Default().With("component", "openai-generator"),
	}
}

// NewGenerator creates an answer generator using the provided configuration.
//
// Returns ai.Generator interface to enforce abstraction.
func NewGenerator(config *ai.Config) (ai.Generator, error) {
	client, err := newChatClient(config)
	if err != nil {
		return nil, err
	}
	return newGenerator(client, config), nil
}

// Generate composes an answer from the question, history and pieces.
func (g *Generator) Generate(ctx context.Context, input ai.GenerationInput) (*ai.Generation, error) {
	language := input.Language
	if language == "" {
		language = ai.DefaultLanguage
	}

	opts := []llms.CallOption{llms.WithTemperature(g.temperature)}
	if g.maxTokens > 0 {
		opts = append(opts, llms.WithMaxTokens(g.maxTokens))
	}

	choice, err := complete(ctx, g.client,
		buildGenerationPrompt(language),
		buildGenerationInput(input.Question, input.History, input.Pieces),
		opts...)
	if err != nil {
		g.logger.Error("failed to generate answer", "err", err)
		return nil, err
	}

	g.logger.Debug("generated answer", "pieces", len(input.Pieces), "stop_reason", choice.StopReason)
	return &ai.Generation{
		Text:         strings.TrimSpace(choice.Content),
		FinishReason: choice.StopReason,
	}, nil
}
