package router

import (
	"regexp"
	"strings"
)

// stopwords are stripped from a tokenized query before scoring. The set
// mirrors the ~30-word list assumed by the composite keyword score.
var stopwords = map[string]bool{
	"the": true, "a": true, "an": true, "and": true, "or": true,
	"is": true, "are": true, "was": true, "were": true, "be": true,
	"to": true, "of": true, "in": true, "for": true, "on": true,
	"with": true, "as": true, "at": true, "by": true, "from": true,
	"this": true, "that": true, "it": true, "its": true, "i": true,
	"you": true, "can": true, "how": true, "what": true, "do": true,
	"does": true, "my": true,
}

var wordSplit = regexp.MustCompile(`[^a-z0-9_]+`)

// tokenize lowercases text, splits on non-word runes, drops stopwords and
// tokens of length ≤2, and caps the result to the first 10 tokens.
func tokenize(text string) []string {
	lower := strings.ToLower(text)
	raw := wordSplit.Split(lower, -1)

	tokens := make([]string, 0, len(raw))
	for _, w := range raw {
		if len(w) <= 2 || stopwords[w] {
			continue
		}
		tokens = append(tokens, w)
		if len(tokens) == 10 {
			break
		}
	}
	return tokens
}
