package answer

import (
	"strings"

	"github.com/poiesic/ragcore/core"
)

// HistorySettings controls how prior messages reach the LLM steps.
type HistorySettings struct {
	// Limit is the number of most recent messages kept. 0 keeps them all.
	Limit int `yaml:"limit" env:"LIMIT"`
	// Reverse orders message pairs newest first.
	Reverse bool `yaml:"reverse" env:"REVERSE"`
}

// DefaultHistorySettings keeps the last two exchanges, newest first.
func DefaultHistorySettings() HistorySettings {
	return HistorySettings{Limit: 4, Reverse: true}
}

// FormatHistory renders the last settings.Limit messages as "role: message"
// lines. A zero limit renders the whole history. With Reverse set, consecutive messages are paired and the pairs are
// reversed; a trailing message without a partner is dropped.
func FormatHistory(messages []core.Message, settings HistorySettings) string {
	if len(messages) == 0 {
		return ""
	}

	recent := messages
	if settings.Limit > 0 {
		recent = messages[max(0, len(messages)-settings.Limit):]
	}
	if settings.Reverse {
		pairs := len(recent) / 2
		reversed := make([]core.Message, 0, pairs*2)
		for i := pairs - 1; i >= 0; i-- {
			reversed = append(reversed, recent[2*i], recent[2*i+1])
		}
		recent = reversed
	}

	lines := make([]string, len(recent))
	for i, m := range recent {
		lines[i] = m.Role + ": " + m.Text
	}
	return strings.Join(lines, "\n")
}
