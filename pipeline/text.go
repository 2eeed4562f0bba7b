package pipeline

import "github.com/poiesic/querent/core"

// overlapRatio computes the fraction of question terms present in the
// content's term set. Returns 0 when the question has no usable terms.
func overlapRatio(questionTerms map[string]bool, content string) float64 {
	if len(questionTerms) == 0 {
		return 0
	}

	contentTerms := core.TermSet(content)
	hits := 0
	for term := range questionTerms {
		if contentTerms[term] {
			hits++
		}
	}
	return float64(hits) / float64(len(questionTerms))
}
