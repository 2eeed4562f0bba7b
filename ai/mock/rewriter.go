package mock

import "context"

// MockQueryRewriter is a test double for ai.QueryRewriter.
// It allows custom behavior injection via function fields.
type MockQueryRewriter struct {
	// RewriteQueryFunc is called by RewriteQuery if set.
	// If nil, uses default behavior (no alternative queries).
	RewriteQueryFunc func(ctx context.Context, question string, n int) ([]string, error)

	callCount int
}

// NewMockQueryRewriter creates a mock rewriter with default behavior.
// Note: Returns concrete type to allow test assertions via GetMockRewriter().
func NewMockQueryRewriter() *MockQueryRewriter {
	return &MockQueryRewriter{}
}

// RewriteQuery returns alternative queries for the question.
// The default behavior returns no alternatives, leaving retrieval to run on
// the original question alone.
func (m *MockQueryRewriter) RewriteQuery(ctx context.Context, question string, n int) ([]string, error) {
	m.callCount++

	if m.RewriteQueryFunc != nil {
		return m.RewriteQueryFunc(ctx, question, n)
	}

	return nil, nil
}

// CallCount returns the number of times RewriteQuery was called.
func (m *MockQueryRewriter) CallCount() int {
	return m.callCount
}

// Reset clears the call count and injected behavior.
func (m *MockQueryRewriter) Reset() {
	m.callCount = 0
	m.RewriteQueryFunc = nil
}
