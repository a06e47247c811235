package openai

import (
	"context"
	"errors"

	"github.com/poiesic/ragcore/ai"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
)

var (
	// ErrNoChoices is returned when the model answers without any choice.
	ErrNoChoices = errors.New("model returned no choices")

	// ErrEmptyEmbedding is returned when the embedding service answers with no vector.
	ErrEmptyEmbedding = errors.New("embedding service returned an empty vector")
)

// newChatClient creates the chat completion client shared by the LLM steps.
func newChatClient(config *ai.Config) (llms.Model, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	return openai.New(
		openai.WithBaseURL(config.ChatHost),
		openai.WithToken(apiToken(config.APIKey)),
		openai.WithModel(config.ChatModel),
	)
}

// apiToken substitutes "none" for local OpenAI-compatible services that
// don't require authentication.
func apiToken(key string) string {
	if key == "" {
		return "none"
	}
	return key
}

// complete sends a system and a user message and returns the first choice.
func complete(ctx context.Context, client llms.Model, system, user string, opts ...llms.CallOption) (*llms.ContentChoice, error) {
	content := []llms.MessageContent{
		llms.TextParts(llms.ChatMessageTypeSystem, system),
		llms.TextParts(llms.ChatMessageTypeHuman, user),
	}

	response, err := client.GenerateContent(ctx, content, opts...)
	if err != nil {
		return nil, err
	}
	if len(response.Choices) < 1 {
		return nil, ErrNoChoices
	}
	return response.Choices[0], nil
}
