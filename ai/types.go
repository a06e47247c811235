package ai

import "github.com/poiesic/ragcore/core"

// DefaultLanguage is used whenever a language cannot be determined.
const DefaultLanguage = "en"

// RephraseInput is the input of the rephrasing step.
type RephraseInput struct {
	Question string
	// History is the formatted chat history ("role: message" lines).
	History string
	// Language may be empty when detection runs concurrently with rephrasing.
	Language string
}

// GenerationInput is the input of the answer generation step.
type GenerationInput struct {
	Question string
	History  string
	Language string
	Pieces   []*core.Piece
}

// Generation is the output of the answer generation step.
type Generation struct {
	Text string
	// FinishReason is the model's stop reason, empty when the server does not report one.
	FinishReason string
}

// EvaluationInput is the input of the helpfulness evaluation step.
type EvaluationInput struct {
	Question          string
	RephrasedQuestion string
	Answer            string
	// Context is a short digest of the retrieved pieces.
	Context string
}
