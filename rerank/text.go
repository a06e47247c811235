package rerank

import "strings"

// Stop words to filter out before comparing query and piece terms.
// German is included since most deployed corpora are German.
var stopWords = map[string]bool{
	"the": true, "a": true, "an": true, "be": true, "is": true, "are": true,
	"was": true, "to": true, "of": true, "and": true, "in": true, "that": true,
	"have": true, "it": true, "for": true, "not": true, "on": true, "with": true,
	"as": true, "you": true, "do": true, "at": true, "this": true, "but": true,
	"by": true, "from": true, "what": true, "how": true,
	"der": true, "die": true, "das": true, "und": true, "ist": true, "ein": true,
	"eine": true, "zu": true, "von": true, "mit": true, "den": true, "im": true,
	"wie": true, "wer": true, "wo": true, "ich": true, "sie": true, "es": true,
}

// tokenizeAndFilter splits text into words, lowercases, trims punctuation, and removes stop words
func tokenizeAndFilter(text string) []string {
	words := strings.Fields(text)
	filtered := make([]string, 0, len(words))

	for _, word := range words {
		// Lowercase and trim punctuation
		cleaned := strings.ToLower(strings.Trim(word, ".,!?;:'\"-()[]{}"))

		// Skip stop words and empty strings
		if cleaned != "" && !stopWords[cleaned] {
			filtered = append(filtered, cleaned)
		}
	}

	return filtered
}

// termSet returns the distinct filtered terms of text.
func termSet(text string) map[string]bool {
	words := tokenizeAndFilter(text)
	set := make(map[string]bool, len(words))
	for _, word := range words {
		set[word] = true
	}
	return set
}
