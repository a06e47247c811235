package openai

import (
	"context"
	"encoding/json"
	"log/slog"
	"regexp"
	"strings"

	"github.com/poiesic/ragcore/ai"
	"github.com/tmc/langchaingo/llms"
)

var (
	languageCodeRE  = regexp.MustCompile(`^([A-Za-z]{2})(?:[-_][A-Za-z]{2,4})?$`)
	looseLanguageRE = regexp.MustCompile(`(?i)["']?(?:language|lang|code)["']?\s*[:=]\s*["']?([A-Za-z]{2}(?:[-_][A-Za-z]{2,4})?)\b`)
)

// LanguageDetector implements ai.LanguageDetector using an OpenAI-compatible chat API.
type LanguageDetector struct {
	client llms.Model
	logger *slog.Logger
}

var _ ai.LanguageDetector = (*LanguageDetector)(nil)

func newLanguageDetector(client llms.Model) *LanguageDetector {
	return &LanguageDetector{
		client: client,
		logger: slog.Default().With("component", "openai-language-detector"),
	}
}

// NewLanguageDetector creates a language detector using the provided configuration.
//
// Returns ai.LanguageDetector interface to enforce abstraction.
func NewLanguageDetector(config *ai.Config) (ai.LanguageDetector, error) {
	client, err := newChatClient(config)
	if err != nil {
		return nil, err
	}
	return newLanguageDetector(client), nil
}

// DetectLanguage asks the model for the question's language.
func (d *LanguageDetector) DetectLanguage(ctx context.Context, question string) (string, error) {
	choice, err := complete(ctx, d.client, languageDetectionPrompt, "Question: "+question, llms.WithTemperature(0.0))
	if err != nil {
		d.logger.Error("failed to detect language", "err", err)
		return "", err
	}

	code := parseLanguageCode(choice.Content)
	d.logger.Debug("detected language", "language", code, "raw", choice.Content)
	return code, nil
}

// parseLanguageCode extracts a two-letter ISO 639-1 code from model output.
// It accepts a bare code, a strict JSON object, or JSON-ish text, and falls
// back to ai.DefaultLanguage.
func parseLanguageCode(raw string) string {
	text := strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(raw), "\ufeff"))
	text = stripCodeFences(text)

	if c := normalizeLanguage(text); c != "" {
		return c
	}

	var parsed map[string]any
	if err := json.Unmarshal([]byte(repairJSON(text)), &parsed); err == nil {
		for _, key := range []string{"language", "lang", "code"} {
			if v, ok := parsed[key].(string); ok {
				if c := normalizeLanguage(v); c != "" {
					return c
				}
			}
		}
	}

	if m := looseLanguageRE.FindStringSubmatch(text); m != nil {
		if c := normalizeLanguage(m[1]); c != "" {
			return c
		}
	}

	return ai.DefaultLanguage
}

// normalizeLanguage maps "de", "DE", "de-AT" or "de_DE" to "de".
func normalizeLanguage(s string) string {
	s = trimQuotes(strings.TrimSpace(s))
	m := languageCodeRE.FindStringSubmatch(s)
	if m == nil {
		return ""
	}
	return strings.ToLower(m[1])
}
