package pipeline

import (
	"regexp"
	"strings"

	"github.com/poiesic/querent/core"
)

var (
	quotedRe        = regexp.MustCompile(`"([^"]{3,})"|'([^']{3,})'`)
	parentheticalRe = regexp.MustCompile(`\(([^)]{3,})\)`)
	binomialRe      = regexp.MustCompile(`\b[A-Za-z][a-z]{2,} [a-z]{3,}\b`)
	hyphenatedRe    = regexp.MustCompile(`\b\w{3,}(?:-\w{2,})+\b`)
)

// focusTerms extracts subject terms from a question using structural signals
// only: quoted phrases, parentheticals, two-word binomial patterns, and
// hyphenated tokens. No fixed vocabulary, so it works for any workspace.
func focusTerms(question string) []string {
	seen := make(map[string]bool)
	var terms []string
	add := func(term string) {
		term = strings.ToLower(strings.TrimSpace(term))
		if len(term) < 3 || seen[term] {
			return
		}
		seen[term] = true
		terms = append(terms, term)
	}

	for _, m := range quotedRe.FindAllStringSubmatch(question, -1) {
		if m[1] != "" {
			add(m[1])
		} else {
			add(m[2])
		}
	}
	for _, m := range parentheticalRe.FindAllStringSubmatch(question, -1) {
		add(m[1])
	}
	for _, m := range binomialRe.FindAllString(question, -1) {
		// Question openers like "What does" or "used for" match the
		// binomial shape; a real binomial never contains a stop word.
		if len(core.TokenizeFiltered(m)) == 2 {
			add(m)
		}
	}
	for _, m := range hyphenatedRe.FindAllString(question, -1) {
		add(m)
	}

	return terms
}

// Focus narrows candidates to those mentioning a subject term extracted from
// the question. When no term can be extracted, or when filtering would leave
// fewer than minKeep candidates, the input is returned unchanged; narrowing
// must never starve the downstream stages.
func Focus(candidates []*core.ScoredCandidate, question string, minKeep int) []*core.ScoredCandidate {
	terms := focusTerms(question)
	if len(terms) == 0 {
		return candidates
	}

	var focused []*core.ScoredCandidate
	for _, candidate := range candidates {
		content := strings.ToLower(candidate.Chunk.Content)
		for _, term := range terms {
			if strings.Contains(content, term) {
				focused = append(focused, candidate)
				break
			}
		}
	}

	if len(focused) < minKeep {
		return candidates
	}
	return focused
}
