package pipeline

import (
	"context"
	"slices"
	"sync"

	"github.com/poiesic/querent/core"
)

// queryLists holds the two ranked lists one planned query produced.
type queryLists struct {
	vectorRows []*core.VectorMatch
	textRows   []*core.TextMatch
	err        error
}

// Retrieve runs hybrid retrieval for every planned query and fuses the
// results into a single deduplicated candidate list.
//
// Each query issues one semantic and one lexical lookup. All ranked lists in
// the batch are fused with reciprocal rank fusion: rank r in any list
// contributes 1/(RRFK+r) to that chunk's fused score, and contributions for
// the same chunk are summed across lists and across queries. Fusion is
// commutative, so queries are dispatched concurrently and joined by query
// position without affecting the final ranking. Candidates are then
// noise-filtered; if filtering would eliminate every candidate, the
// pre-filter pool is returned instead of nothing.
func (p *Pipeline) Retrieve(ctx context.Context, workspaceID string, queries []string) ([]*core.ScoredCandidate, error) {
	results := make([]queryLists, len(queries))

	var wg sync.WaitGroup
	for i, query := range queries {
		wg.Add(1)
		job := func() {
			defer wg.Done()
			results[i] = p.retrieveOne(ctx, workspaceID, query)
		}
		if p.pool != nil {
			if err := p.pool.Submit(job); err != nil {
				// Pool saturated or released, run inline
				job()
			}
		} else {
			job()
		}
	}
	wg.Wait()

	scores := make(map[core.ID]float64)
	distances := make(map[core.ID]float64)
	chunks := make(map[core.ID]*core.Chunk)

	for _, result := range results {
		if result.err != nil {
			return nil, result.err
		}

		for i, row := range result.vectorRows {
			id := row.Chunk.Id
			scores[id] += rrfContribution(p.config.RRFK, i+1)
			chunks[id] = row.Chunk
			if existing, ok := distances[id]; !ok || row.Distance < existing {
				distances[id] = row.Distance
			}
		}

		var bestRelevance float64
		for _, row := range result.textRows {
			if row.Relevance > bestRelevance {
				bestRelevance = row.Relevance
			}
		}
		for i, row := range result.textRows {
			id := row.Chunk.Id
			scores[id] += rrfContribution(p.config.RRFK, i+1)
			chunks[id] = row.Chunk

			// A lexical-only chunk has no semantic distance; derive a
			// comparable proxy from its normalized relevance.
			proxy := 1.0
			if bestRelevance > 0 {
				proxy = 1.0 - row.Relevance/bestRelevance
			}
			if existing, ok := distances[id]; !ok || proxy < existing {
				distances[id] = proxy
			}
		}
	}

	fused := make([]*core.ScoredCandidate, 0, len(scores))
	for id, score := range scores {
		fused = append(fused, &core.ScoredCandidate{
			Chunk:      chunks[id],
			Distance:   distances[id],
			FusedScore: score,
		})
	}
	sortByFusion(fused)

	merged := make([]*core.ScoredCandidate, 0, len(fused))
	droppedNoise := 0
	for _, candidate := range fused {
		if IsNoise(candidate.Chunk.Content, p.config.Noise) {
			droppedNoise++
			continue
		}
		merged = append(merged, candidate)
	}

	// Anti-starvation: degrade to the best raw matches rather than nothing
	if len(merged) == 0 && len(fused) > 0 {
		p.logger.Warn("noise filter removed every candidate, using unfiltered pool",
			"dropped", droppedNoise)
		merged = fused
	}

	p.logger.Debug("retrieval complete",
		"queries", len(queries),
		"kept", len(merged),
		"droppedNoise", droppedNoise)

	return merged, nil
}

// retrieveOne runs the hybrid lookup for a single query.
func (p *Pipeline) retrieveOne(ctx context.Context, workspaceID string, query string) queryLists {
	normalized := NormalizeQuery(query)
	if normalized == "" {
		normalized = query
	}

	// Semantic branch. An embedding failure kills only this branch; the
	// lexical branch still proceeds.
	var vectorRows []*core.VectorMatch
	vector, err := p.embedder.EmbedText(ctx, normalized)
	if err != nil {
		p.logger.Warn("embedding failed, skipping semantic branch", "query", query, "err", err)
	} else {
		vectorRows, err = p.chunkRepository.FindSimilar(ctx, workspaceID, vector, p.config.FanoutK)
		if err != nil {
			return queryLists{err: err}
		}
	}

	// Lexical branch
	textRows, err := p.chunkRepository.SearchText(ctx, workspaceID, normalized, p.config.LexicalK)
	if err != nil {
		return queryLists{err: err}
	}

	return queryLists{vectorRows: vectorRows, textRows: textRows}
}

// rrfContribution is the reciprocal rank fusion share of one 1-indexed rank.
func rrfContribution(rrfK, rank int) float64 {
	return 1.0 / float64(rrfK+rank)
}

// sortByFusion orders candidates by fused score descending, ties by distance
// ascending. The chunk id is the final tiebreaker so the order is total.
func sortByFusion(candidates []*core.ScoredCandidate) {
	slices.SortFunc(candidates, func(a, b *core.ScoredCandidate) int {
		if a.FusedScore > b.FusedScore {
			return -1
		}
		if a.FusedScore < b.FusedScore {
			return 1
		}
		if a.Distance < b.Distance {
			return -1
		}
		if a.Distance > b.Distance {
			return 1
		}
		if a.Chunk.Id < b.Chunk.Id {
			return -1
		}
		if a.Chunk.Id > b.Chunk.Id {
			return 1
		}
		return 0
	})
}
