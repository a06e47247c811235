package openai

import (
	"context"
	"errors"
	"testing"

	"github.com/poiesic/ragcore/ai"
	"github.com/poiesic/ragcore/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/fake"
)

// recordingModel captures the last request and replies with a fixed choice.
type recordingModel struct {
	choice   *llms.ContentChoice
	err      error
	messages []llms.MessageContent
	opts     llms.CallOptions
}

func (m *recordingModel) GenerateContent(_ context.Context, messages []llms.MessageContent, options ...llms.CallOption) (*llms.ContentResponse, error) {
	m.messages = messages
	for _, opt := range options {
		opt(&m.opts)
	}
	if m.err != nil {
		return nil, m.err
	}
	if m.choice == nil {
		return &llms.ContentResponse{}, nil
	}
	return &llms.ContentResponse{Choices: []*llms.ContentChoice{m.choice}}, nil
}

func (m *recordingModel) Call(ctx context.Context, prompt string, options ...llms.CallOption) (string, error) {
	return llms.GenerateFromSinglePrompt(ctx, m, prompt, options...)
}

func (m *recordingModel) text(i int) string {
	return m.messages[i].Parts[0].(llms.TextContent).Text
}

func TestGenerator_Generate(t *testing.T) {
	ctx := context.Background()

	t.Run("renders pieces and returns stop reason", func(t *testing.T) {
		model := &recordingModel{choice: &llms.ContentChoice{Content: "  Berlin.  ", StopReason: "stop"}}
		gen := newGenerator(model, ai.NewConfig(ai.WithMaxTokens(256), ai.WithTemperature(0.2)))

		out, err := gen.Generate(ctx, ai.GenerationInput{
			Question: "What is the capital of Germany?",
			History:  "user: hi\nassistant: hello",
			Language: "en",
			Pieces: []*core.Piece{
				{Id: "p1", Content: "Berlin is the capital of Germany.", ContentType: core.ContentTypeText},
			},
		})
		require.NoError(t, err)
		assert.Equal(t, "Berlin.", out.Text)
		assert.Equal(t, "stop", out.FinishReason)

		require.Len(t, model.messages, 2)
		assert.Contains(t, model.text(0), "Answer in en")
		assert.Contains(t, model.text(1), "[1] (TEXT) Berlin is the capital of Germany.")
		assert.Contains(t, model.text(1), "assistant: hello")
		assert.Equal(t, 256, model.opts.MaxTokens)
		assert.Equal(t, 0.2, model.opts.Temperature)
	})

	t.Run("defaults language", func(t *testing.T) {
		model := &recordingModel{choice: &llms.ContentChoice{Content: "ok"}}
		gen := newGenerator(model, ai.DefaultConfig())

		_, err := gen.Generate(ctx, ai.GenerationInput{Question: "q"})
		require.NoError(t, err)
		assert.Contains(t, model.text(0), "Answer in en")
	})

	t.Run("no choices is an error", func(t *testing.T) {
		gen := newGenerator(&recordingModel{}, ai.DefaultConfig())

		_, err := gen.Generate(ctx, ai.GenerationInput{Question: "q"})
		assert.ErrorIs(t, err, ErrNoChoices)
	})
}

func TestRephraser_Rephrase(t *testing.T) {
	ctx := context.Background()

	model := &recordingModel{choice: &llms.ContentChoice{Content: `"What is the capital of Germany?"`}}
	r := newRephraser(model)

	out, err := r.Rephrase(ctx, ai.RephraseInput{Question: "and its capital?", History: "user: tell me about Germany"})
	require.NoError(t, err)
	assert.Equal(t, "What is the capital of Germany?", out)
	assert.Contains(t, model.text(0), "the language of the question")
	assert.Contains(t, model.text(1), "ChatHistory: user: tell me about Germany")
}

func TestEvaluator_Evaluate(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name     string
		response string
		want     bool
	}{
		{"helpful", `{"helpful": true}`, true},
		{"not helpful", `{"helpful": false}`, false},
		{"fenced", "```json\n{\"helpful\": true}\n```", true},
		{"single quoted", `{'helpful': true}`, true},
		{"trailing comma", `{"helpful": true,}`, true},
		{"missing verdict", `{"useful": true}`, false},
		{"garbage", "yes, very helpful", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newEvaluator(fake.NewFakeLLM([]string{tt.response}))

			got, err := e.Evaluate(ctx, ai.EvaluationInput{Question: "q", Answer: "a"})
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	t.Run("transport error", func(t *testing.T) {
		e := newEvaluator(&recordingModel{err: errors.New("connection refused")})

		_, err := e.Evaluate(ctx, ai.EvaluationInput{})
		assert.Error(t, err)
	})

	t.Run("requests json mode", func(t *testing.T) {
		model := &recordingModel{choice: &llms.ContentChoice{Content: `{"helpful": true}`}}
		e := newEvaluator(model)

		_, err := e.Evaluate(ctx, ai.EvaluationInput{Question: "q", RephrasedQuestion: "rq", Answer: "a", Context: "ctx"})
		require.NoError(t, err)
		assert.True(t, model.opts.JSONMode)
		assert.Contains(t, model.text(1), "Rephrased question:\nrq")
	})
}

func TestRepairJSON(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{`{"helpful": true}`, `{"helpful": true}`},
		{`{helpful": true}`, `{"helpful": true}`},
		{`{"a": 1, b": 2}`, `{"a": 1, "b": 2}`},
		{`{'language': 'de'}`, `{"language": "de"}`},
		{`{"items": [1, 2,], "x": "a,}",}`, `{"items": [1, 2], "x": "a,}"}`},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, repairJSON(tt.in))
		})
	}
}

func TestStripCodeFences(t *testing.T) {
	assert.Equal(t, `{"a":1}`, stripCodeFences("```json\n{\"a\":1}\n```"))
	assert.Equal(t, `{"a":1}`, stripCodeFences("```\n{\"a\":1}\n```"))
	assert.Equal(t, `{"a":1}`, stripCodeFences("```json{\"a\":1}```"))
	assert.Equal(t, "plain", stripCodeFences("  plain "))
}
