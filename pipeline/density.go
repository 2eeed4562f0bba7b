package pipeline

import (
	"math"
	"regexp"
	"strings"
	"unicode"
)

// refLikeRe matches citation and catalog vocabulary common to bibliographies.
var refLikeRe = regexp.MustCompile(`(?i)\b(19\d{2}|20\d{2}|vol\.|no\.|pp\.|ed\.|doi|isbn|issn|journal|proceedings|university|press|thesis|m\.sc|b\.sc)\b`)

// FactDensityScore rates how claim-bearing a chunk of text looks. Prose with
// full sentences scores high; bibliographies, lists, and tables score low.
// Custom mode uses it to reorder candidates before assembly. The heuristic is
// purely structural and carries no domain vocabulary.
func FactDensityScore(text string) float64 {
	if text == "" {
		return math.Inf(-1)
	}

	t := strings.TrimSpace(text)
	if len(t) < 120 {
		return math.Inf(-1)
	}

	n := len(t)
	letters, digits := 0, 0
	for _, ch := range t {
		switch {
		case unicode.IsLetter(ch):
			letters++
		case unicode.IsDigit(ch):
			digits++
		}
	}
	lettersRatio := float64(letters) / float64(n)
	digitsRatio := float64(digits) / float64(n)

	var lines []string
	for _, line := range strings.Split(t, "\n") {
		line = strings.TrimSpace(line)
		if line != "" {
			lines = append(lines, line)
		}
	}
	shortLines := 0
	for _, line := range lines {
		if len(line) <= 40 {
			shortLines++
		}
	}
	shortLineRatio := 0.0
	if len(lines) > 0 {
		shortLineRatio = float64(shortLines) / float64(len(lines))
	}

	punct := 0
	for _, ch := range ".?!;:" {
		punct += strings.Count(t, string(ch))
	}
	commaRatio := float64(strings.Count(t, ",")) / float64(n)

	refLikeHits := 0.0
	if refLikeRe.MatchString(t) {
		refLikeHits++
	}
	if strings.Contains(t, "http://") || strings.Contains(t, "https://") {
		refLikeHits++
	}
	if strings.Contains(t, "(") && strings.Contains(t, ")") {
		refLikeHits++
	}

	// Prose and claims up, lists and references down.
	score := 0.0
	score += 2.5 * lettersRatio
	score += 0.6 * math.Log1p(float64(punct))
	score -= 2.0 * digitsRatio
	score -= 1.2 * shortLineRatio
	score -= 0.8 * commaRatio
	score -= 1.5 * refLikeHits
	score += 0.2 * math.Log1p(float64(n))

	return score
}
