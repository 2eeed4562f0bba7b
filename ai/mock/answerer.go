package mock

import "context"

// MockAnswerer is a test double for ai.Answerer.
// It allows custom behavior injection via function fields.
type MockAnswerer struct {
	// AnswerFunc is called by Answer if set.
	// If nil, uses default behavior (a fixed canned answer).
	AnswerFunc func(ctx context.Context, role, question, contextText string) (string, error)

	callCount int
}

// NewMockAnswerer creates a mock answerer with default canned behavior.
// Note: Returns concrete type to allow test assertions via GetMockAnswerer().
func NewMockAnswerer() *MockAnswerer {
	return &MockAnswerer{}
}

// Answer generates an answer for the question from the supplied context.
// The default behavior returns a fixed answer string.
func (m *MockAnswerer) Answer(ctx context.Context, role, question, contextText string) (string, error) {
	m.callCount++

	if m.AnswerFunc != nil {
		return m.AnswerFunc(ctx, role, question, contextText)
	}

	return "mock answer", nil
}

// CallCount returns the number of times Answer was called.
func (m *MockAnswerer) CallCount() int {
	return m.callCount
}

// Reset clears the call count and injected behavior.
func (m *MockAnswerer) Reset() {
	m.callCount = 0
	m.AnswerFunc = nil
}
