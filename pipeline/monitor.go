package pipeline

import "github.com/poiesic/querent/core"

// Monitor provides hooks to observe one pipeline run.
// Implement this interface to track intermediate stages during answering.
type Monitor interface {
	Planned(question string, queries []string)
	Retrieved(candidates []*core.ScoredCandidate)
	Focused(candidates []*core.ScoredCandidate)
	Gated(candidates []*core.ScoredCandidate)
	Assembled(decision *Decision)
}

// noopMonitor is a no-op implementation of Monitor
type noopMonitor struct{}

var _ Monitor = (*noopMonitor)(nil)

func (n *noopMonitor) Planned(_ string, _ []string)            {}
func (n *noopMonitor) Retrieved(_ []*core.ScoredCandidate)     {}
func (n *noopMonitor) Focused(_ []*core.ScoredCandidate)       {}
func (n *noopMonitor) Gated(_ []*core.ScoredCandidate)         {}
func (n *noopMonitor) Assembled(_ *Decision)                   {}
