package pipeline

import (
	"math"
	"slices"

	"github.com/poiesic/querent/core"
)

// Decision is the terminal outcome of one pipeline run: either an ordered
// evidence set to answer from, or an explicit refusal.
type Decision struct {
	// Answerable is true when Evidence is non-empty.
	Answerable bool

	// Evidence is the ordered candidate set handed to the answer generator.
	// Empty exactly when Answerable is false.
	Evidence []*core.ScoredCandidate
}

// NoEvidence reports whether the run ended without trustworthy evidence.
func (d *Decision) NoEvidence() bool {
	return !d.Answerable
}

// Assemble orders candidates for the answer context and truncates to the
// budget k. Ordering is fused score descending, ties by distance ascending,
// with an unset (NaN) distance sorting last. An empty truncated set yields a
// no-evidence decision.
func Assemble(candidates []*core.ScoredCandidate, k int) *Decision {
	ordered := make([]*core.ScoredCandidate, len(candidates))
	copy(ordered, candidates)

	slices.SortStableFunc(ordered, func(a, b *core.ScoredCandidate) int {
		if a.FusedScore > b.FusedScore {
			return -1
		}
		if a.FusedScore < b.FusedScore {
			return 1
		}
		aNaN, bNaN := math.IsNaN(a.Distance), math.IsNaN(b.Distance)
		if aNaN != bNaN {
			if aNaN {
				return 1
			}
			return -1
		}
		if a.Distance < b.Distance {
			return -1
		}
		if a.Distance > b.Distance {
			return 1
		}
		return 0
	})

	if len(ordered) > k {
		ordered = ordered[:k]
	}
	if len(ordered) == 0 {
		return &Decision{}
	}
	return &Decision{Answerable: true, Evidence: ordered}
}
