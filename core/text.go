package core

import (
	"strings"
	"unicode"
)

// Stop words filtered out during tokenization. Deliberately small and
// domain-free: the pipeline must stay workspace-agnostic.
var stopWords = map[string]bool{
	"the": true, "a": true, "an": true, "be": true, "is": true, "are": true,
	"was": true, "to": true, "of": true, "and": true, "in": true, "that": true,
	"have": true, "it": true, "for": true, "not": true, "on": true, "with": true,
	"as": true, "you": true, "do": true, "at": true, "this": true, "but": true,
	"by": true, "from": true, "what": true, "which": true, "how": true,
}

// TokenizeFiltered splits text into words, lowercases, trims punctuation,
// and removes stop words. The lexical index, the lexical search, and the
// coverage gate all share this tokenizer so they agree on what a term is.
// ':' is a split character, never part of a token: tokens are embedded in
// the ':'-separated keys of the lexical index.
func TokenizeFiltered(text string) []string {
	words := strings.FieldsFunc(text, func(r rune) bool {
		return unicode.IsSpace(r) || r == ':'
	})
	filtered := make([]string, 0, len(words))

	for _, word := range words {
		cleaned := strings.ToLower(strings.Trim(word, ".,!?;'\"-()[]{}"))

		if cleaned != "" && !stopWords[cleaned] {
			filtered = append(filtered, cleaned)
		}
	}

	return filtered
}

// TermSet returns the tokenized text as a set for overlap checks.
func TermSet(text string) map[string]bool {
	tokens := TokenizeFiltered(text)
	set := make(map[string]bool, len(tokens))
	for _, tok := range tokens {
		set[tok] = true
	}
	return set
}

// TermFrequencies returns per-term occurrence counts for the text.
// Used by the lexical index at ingestion time.
func TermFrequencies(text string) map[string]int {
	tokens := TokenizeFiltered(text)
	freqs := make(map[string]int, len(tokens))
	for _, tok := range tokens {
		freqs[tok]++
	}
	return freqs
}
