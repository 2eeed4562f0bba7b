package mock

import "context"

// MockRelevanceJudge is a test double for ai.RelevanceJudge.
// It allows custom behavior injection via function fields.
type MockRelevanceJudge struct {
	// JudgeRelevanceFunc is called by JudgeRelevance if set.
	// If nil, uses default behavior (all previews judged relevant).
	JudgeRelevanceFunc func(ctx context.Context, question string, previews []string) ([]int, error)

	callCount int
}

// NewMockRelevanceJudge creates a mock judge with default permissive behavior.
// Note: Returns concrete type to allow test assertions via GetMockJudge().
func NewMockRelevanceJudge() *MockRelevanceJudge {
	return &MockRelevanceJudge{}
}

// JudgeRelevance returns the indices of previews judged relevant.
// The default behavior judges every preview relevant.
func (m *MockRelevanceJudge) JudgeRelevance(ctx context.Context, question string, previews []string) ([]int, error) {
	m.callCount++

	if m.JudgeRelevanceFunc != nil {
		return m.JudgeRelevanceFunc(ctx, question, previews)
	}

	indices := make([]int, len(previews))
	for i := range previews {
		indices[i] = i
	}
	return indices, nil
}

// CallCount returns the number of times JudgeRelevance was called.
func (m *MockRelevanceJudge) CallCount() int {
	return m.callCount
}

// Reset clears the call count and injected behavior.
func (m *MockRelevanceJudge) Reset() {
	m.callCount = 0
	m.JudgeRelevanceFunc = nil
}
