package textvec

import (
	"strings"
	"unicode"
)

// Tokenize lowercases text and splits it into runs of letters, digits and
// underscores. Tokens shorter than two runes and stop words are dropped.
func Tokenize(text string) []string {
	var b strings.Builder
	for _, r := range strings.ToLower(text) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_' || unicode.Is(unicode.Mn, r) || unicode.Is(unicode.Mc, r) {
			b.WriteRune(r)
		} else {
			b.WriteRune(' ')
		}
	}
	words := strings.Fields(b.String())
	out := words[:0]
	for _, w := range words {
		if len([]rune(w)) < 2 || IsStopWord(w) {
			continue
		}
		out = append(out, w)
	}
	return out
}

// termCounts counts the tokens of text.
func termCounts(text string) map[string]int {
	tokens := Tokenize(text)
	out := make(map[string]int, len(tokens))
	for _, t := range tokens {
		out[t]++
	}
	return out
}
