// Package mock provides test double implementations of AI service interfaces.
//
// This package contains mock implementations of ai.Embedder, ai.QueryRewriter,
// ai.RelevanceJudge, ai.Answerer, and ai.AIProvider for use in unit tests.
// The mocks allow tests to run without external AI service dependencies and
// enable controlled, deterministic behavior.
//
// # Usage in Tests
//
//	// Basic usage with default behavior
//	mockProvider := mock.NewMockProvider()
//	embeddings, err := mockProvider.Embedder().EmbedText(ctx, "test")
//
//	// Custom behavior injection
//	mockJudge := mock.NewMockRelevanceJudge()
//	mockJudge.JudgeRelevanceFunc = func(ctx context.Context, question string, previews []string) ([]int, error) {
//	    return []int{0}, nil
//	}
//
//	// Check call counts
//	count := mockJudge.CallCount()
//
// # Default Behavior
//
// The mock implementations provide sensible defaults:
//
//   - MockEmbedder: Returns deterministic vectors based on text hash
//   - MockQueryRewriter: Returns no alternative queries
//   - MockRelevanceJudge: Judges every candidate relevant
//   - MockAnswerer: Returns a fixed canned answer
//   - MockProvider: Aggregates all four mock services
package mock
