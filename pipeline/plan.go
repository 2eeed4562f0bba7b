package pipeline

import (
	"context"
	"strings"
)

// Mode selects the answering strategy for a question.
type Mode string

const (
	// ModeReference answers one atomic question strictly from the context.
	ModeReference Mode = "reference"

	// ModeSynthesis combines evidence from multiple chunks.
	ModeSynthesis Mode = "synthesis"

	// ModeCustom allows a caller-supplied role and query expansion.
	ModeCustom Mode = "custom"
)

// queryJunk lists filler phrasing stripped when turning a question into a
// retrieval phrase.
var queryJunk = []string{
	"summarize",
	"based on the provided sources",
	"based on the sources",
	"based on sources",
	"please",
	"what are",
	"what is",
	"give me",
	"provide",
	"?",
}

// NormalizeQuery converts a natural-language question into a search-like
// phrase suitable for retrieval.
func NormalizeQuery(question string) string {
	q := strings.ToLower(question)
	for _, junk := range queryJunk {
		q = strings.ReplaceAll(q, junk, "")
	}
	return strings.Join(strings.Fields(q), " ")
}

// Plan decides the list of search queries for a question.
//
// Reference and synthesis are strict modes: one question, one retrieval
// intent, so the question itself is the only query. Custom mode asks the
// rewrite capability for up to RewriteN alternatives and returns the
// deduplicated union with the original first. Any rewrite failure falls back
// to the question alone.
func (p *Pipeline) Plan(ctx context.Context, question string, mode Mode) []string {
	if mode != ModeCustom || !p.config.RewriteEnabled || p.rewriter == nil || p.config.RewriteN < 1 {
		return []string{question}
	}

	rewrites, err := p.rewriter.RewriteQuery(ctx, question, p.config.RewriteN)
	if err != nil {
		p.logger.Warn("query rewrite failed, falling back to the original question", "err", err)
		return []string{question}
	}

	queries := []string{question}
	seen := map[string]bool{strings.ToLower(question): true}
	for _, rewrite := range rewrites {
		// Cap before appending: a rewriter may return more than RewriteN.
		if len(queries) > p.config.RewriteN {
			break
		}
		key := strings.ToLower(rewrite)
		if rewrite == "" || seen[key] {
			continue
		}
		seen[key] = true
		queries = append(queries, rewrite)
	}
	return queries
}
