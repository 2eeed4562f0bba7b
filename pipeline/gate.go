package pipeline

import (
	"context"
	"strings"

	"github.com/poiesic/querent/ai"
	"github.com/poiesic/querent/core"
)

// Selector picks the candidate indices judged relevant to a question.
// Implementations may fail; the gate fails open on any error.
type Selector interface {
	Select(ctx context.Context, question string, candidates []*core.ScoredCandidate) ([]int, error)
}

// judgeSelector asks the LLM-backed relevance judge.
type judgeSelector struct {
	judge        ai.RelevanceJudge
	previewChars int
}

func (s *judgeSelector) Select(ctx context.Context, question string, candidates []*core.ScoredCandidate) ([]int, error) {
	previews := make([]string, len(candidates))
	for i, candidate := range candidates {
		text := strings.TrimSpace(candidate.Chunk.Content)
		if len(text) > s.previewChars {
			text = text[:s.previewChars]
		}
		previews[i] = strings.ReplaceAll(text, "\n", " ")
	}
	return s.judge.JudgeRelevance(ctx, question, previews)
}

// keywordSelector is the deterministic drop-in used when the LLM judge is
// disabled: a candidate is relevant if it shares at least one
// stopword-filtered term with the question.
type keywordSelector struct{}

func (s *keywordSelector) Select(ctx context.Context, question string, candidates []*core.ScoredCandidate) ([]int, error) {
	questionTerms := core.TermSet(question)
	var indices []int
	for i, candidate := range candidates {
		if overlapRatio(questionTerms, candidate.Chunk.Content) > 0 {
			indices = append(indices, i)
		}
	}
	return indices, nil
}

// Gate filters candidates down to the evidence the pipeline can justify.
//
// Selection keeps a base set of the top max(3, N/3) candidates regardless of
// the selector's judgment, merged with the judged-relevant candidates in
// original order. A selector failure, including unparsable judge output,
// fails open: all candidates pass through unchanged. The coverage gate then
// requires the best question-term overlap among the top CoverageWindow
// survivors to reach CoverageThreshold, or the whole result is rejected to
// empty. Coverage is the last defense against answering from irrelevant
// context.
func (p *Pipeline) Gate(ctx context.Context, question string, candidates []*core.ScoredCandidate) []*core.ScoredCandidate {
	if len(candidates) == 0 {
		return candidates
	}

	selected := p.selectCandidates(ctx, question, candidates)

	if !p.passesCoverage(question, selected) {
		p.logger.Info("coverage gate rejected the candidate set", "candidates", len(selected))
		return nil
	}
	return selected
}

// selectCandidates applies the selection stage of the gate.
func (p *Pipeline) selectCandidates(ctx context.Context, question string, candidates []*core.ScoredCandidate) []*core.ScoredCandidate {
	minKeep := len(candidates) / 3
	if minKeep < 3 {
		minKeep = 3
	}
	if minKeep > len(candidates) {
		minKeep = len(candidates)
	}

	indices, err := p.selector.Select(ctx, question, candidates)
	if err != nil {
		p.logger.Warn("relevance selection failed, keeping all candidates", "err", err)
		return candidates
	}

	keep := make(map[int]bool, minKeep+len(indices))
	for i := 0; i < minKeep; i++ {
		keep[i] = true
	}
	for _, idx := range indices {
		if idx >= 0 && idx < len(candidates) {
			keep[idx] = true
		}
	}

	// Original order, deduplicated by chunk id
	seen := make(map[core.ID]bool)
	var merged []*core.ScoredCandidate
	for i, candidate := range candidates {
		if !keep[i] || seen[candidate.Chunk.Id] {
			continue
		}
		seen[candidate.Chunk.Id] = true
		merged = append(merged, candidate)
	}
	return merged
}

// passesCoverage checks lexical question-term coverage over the top
// candidates. A question with no usable terms passes trivially.
func (p *Pipeline) passesCoverage(question string, candidates []*core.ScoredCandidate) bool {
	if len(candidates) == 0 {
		return true
	}

	questionTerms := core.TermSet(question)
	if len(questionTerms) == 0 {
		return true
	}

	window := p.config.CoverageWindow
	if window > len(candidates) {
		window = len(candidates)
	}

	best := 0.0
	for _, candidate := range candidates[:window] {
		if ratio := overlapRatio(questionTerms, candidate.Chunk.Content); ratio > best {
			best = ratio
		}
	}
	return best >= p.config.CoverageThreshold
}
