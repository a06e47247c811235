// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package openai

import "strings"

// repairJSON attempts to fix common JSON formatting issues from LLM responses:
//   - missing opening quotes before keys (`{language": "de"}`)
//   - single-quoted keys and strings (`{'helpful': true}`)
//   - trailing commas before a closing brace or bracket
func repairJSON(s string) string {
	s = fixMissingKeyQuotes(s)
	s = fixSingleQuotes(s)
	return fixTrailingCommas(s)
}

// fixMissingKeyQuotes adds the opening quote of keys like `, type":`.
func fixMissingKeyQuotes(s string) string {
	in := []rune(s)
	out := make([]rune, 0, len(in)+8)

	i := 0
	for i < len(in) {
		ch := in[i]
		out = append(out, ch)
		i++
		if ch != '{' && ch != ',' {
			continue
		}

		for i < len(in) && (in[i] == ' ' || in[i] == '\n' || in[i] == '\t') {
			out = append(out, in[i])
			i++
		}

		if i >= len(in) || !isLetter(in[i]) {
			continue
		}
		keyStart := i
		for i < len(in) && (isLetter(in[i]) || in[i] == '_') {
			i++
		}
		if i+1 < len(in) && in[i] == '"' && in[i+1] == ':' {
			out = append(out, '"')
		}
		out = append(out, in[keyStart:i]...)
	}

	return string(out)
}

// fixSingleQuotes converts single-quoted strings to double-quoted ones when
// the text contains no double quotes at all.
func fixSingleQuotes(s string) string {
	if strings.ContainsRune(s, '"') || !strings.ContainsRune(s, '\'') {
		return s
	}
	return strings.ReplaceAll(s, "'", `"`)
}

// fixTrailingCommas drops commas directly preceding } or ] outside strings.
func fixTrailingCommas(s string) string {
	var b strings.Builder
	b.Grow(len(s))

	inString := false
	escaped := false
	for i := 0; i < len(s); i++ {
		ch := s[i]
		if inString {
			b.WriteByte(ch)
			switch {
			case escaped:
				escaped = false
			case ch == '\\':
				escaped = true
			case ch == '"':
				inString = false
			}
			continue
		}
		if ch == '"' {
			inString = true
		}
		if ch == ',' {
			j := i + 1
			for j < len(s) && (s[j] == ' ' || s[j] == '\n' || s[j] == '\t' || s[j] == '\r') {
				j++
			}
			if j < len(s) && (s[j] == '}' || s[j] == ']') {
				continue
			}
		}
		b.WriteByte(ch)
	}
	return b.String()
}
