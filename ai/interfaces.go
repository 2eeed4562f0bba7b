package ai

import "context"

// Embedder generates vector embeddings from text for semantic similarity search.
// Implementations must be thread-safe for concurrent use.
type Embedder interface {
	// EmbedText generates a vector embedding for a single text string.
	// The returned vector represents the semantic meaning of the text.
	// Returns an error if the embedding generation fails.
	EmbedText(ctx context.Context, text string) ([]float32, error)

	// EmbedTexts generates vector embeddings for multiple text strings in a batch.
	// Batch processing is more efficient than calling EmbedText multiple times.
	// The returned slice contains embeddings in the same order as the input texts.
	// Returns an error if any embedding generation fails.
	EmbedTexts(ctx context.Context, texts []string) ([][]float32, error)
}

// QueryRewriter produces alternative search phrasings for a question.
// Implementations must be thread-safe for concurrent use.
type QueryRewriter interface {
	// RewriteQuery returns up to n alternative search queries for the
	// question. It may return fewer than n, or none at all. The original
	// question is never included in the result.
	// Returns an error if the rewrite call fails; callers are expected to
	// fall back to the original question.
	RewriteQuery(ctx context.Context, question string, n int) ([]string, error)
}

// RelevanceJudge decides which candidate previews are directly relevant
// to a question. Implementations must be thread-safe for concurrent use.
type RelevanceJudge interface {
	// JudgeRelevance is given the question and a numbered list of candidate
	// content previews and returns the indices (into previews) it judges
	// directly relevant. An empty result is a valid judgment meaning "none".
	// Returns ErrUnparsable when the underlying model produced output that
	// cannot be read as an index list; callers must treat that the same as
	// a call failure and fail open.
	JudgeRelevance(ctx context.Context, question string, previews []string) ([]int, error)
}

// Answerer generates an answer to a question given supporting context.
// Implementations must be thread-safe for concurrent use.
type Answerer interface {
	// Answer produces an answer for the question using only the supplied
	// context text. The role is the system instruction governing how the
	// model should behave.
	Answer(ctx context.Context, role, question, contextText string) (string, error)
}

// AIProvider aggregates AI services for convenient initialization and
// lifecycle management. A provider creates and manages the capability
// instances, ensuring they share configuration and resources appropriately.
type AIProvider interface {
	// Embedder returns the text embedding service.
	Embedder() Embedder

	// QueryRewriter returns the query rewriting service.
	QueryRewriter() QueryRewriter

	// RelevanceJudge returns the relevance judgment service.
	RelevanceJudge() RelevanceJudge

	// Answerer returns the answer generation service.
	Answerer() Answerer

	// Close releases resources held by the provider and its services.
	// After Close is called, the provider and its services should not be used.
	Close() error
}
