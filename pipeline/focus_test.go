package pipeline

import (
	"testing"

	"github.com/poiesic/querent/core"
)

func makeCandidate(id core.ID, content string) *core.ScoredCandidate {
	return &core.ScoredCandidate{
		Chunk:      &core.Chunk{Id: id, Content: content},
		FusedScore: 1.0 / float64(id),
	}
}

func TestFocusTerms(t *testing.T) {
	tests := []struct {
		question string
		want     []string
	}{
		{`What does "hypericin" do?`, []string{"hypericin"}},
		{`What is Hypericum perforatum used for?`, []string{"hypericum perforatum"}},
		{`what is hypericum perforatum used for?`, []string{"hypericum perforatum"}},
		{`Explain the anti-inflammatory pathway`, []string{"inflammatory pathway", "anti-inflammatory"}},
		{`What is wort (the herb) good for?`, []string{"the herb"}},
		{"How does it work?", nil},
	}

	for _, tt := range tests {
		got := focusTerms(tt.question)
		if len(got) != len(tt.want) {
			t.Errorf("focusTerms(%q) = %v, want %v", tt.question, got, tt.want)
			continue
		}
		for i := range got {
			if got[i] != tt.want[i] {
				t.Errorf("focusTerms(%q) = %v, want %v", tt.question, got, tt.want)
				break
			}
		}
	}
}

func TestFocusNoTermsUnchanged(t *testing.T) {
	candidates := []*core.ScoredCandidate{
		makeCandidate(1, "first chunk about soil"),
		makeCandidate(2, "second chunk about water"),
	}

	got := Focus(candidates, "How does it work?", 1)
	if len(got) != len(candidates) {
		t.Fatalf("expected unchanged candidates, got %d of %d", len(got), len(candidates))
	}
}

func TestFocusNarrows(t *testing.T) {
	candidates := []*core.ScoredCandidate{
		makeCandidate(1, "Hypericum perforatum contains hypericin and hyperforin."),
		makeCandidate(2, "Lavender oil is distilled from fresh flower spikes."),
		makeCandidate(3, "Hypericum perforatum is harvested at full bloom."),
	}

	got := Focus(candidates, "What is Hypericum perforatum used for?", 1)
	if len(got) != 2 {
		t.Fatalf("expected 2 focused candidates, got %d", len(got))
	}
	for _, candidate := range got {
		if candidate.Chunk.Id == 2 {
			t.Error("off-subject candidate survived the focus filter")
		}
	}
}

func TestFocusNarrowsLowercaseBinomial(t *testing.T) {
	candidates := []*core.ScoredCandidate{
		makeCandidate(1, "Hypericum perforatum contains hypericin and hyperforin."),
		makeCandidate(2, "Lavender oil is distilled from fresh flower spikes."),
	}

	got := Focus(candidates, "what is hypericum perforatum used for?", 1)
	if len(got) != 1 {
		t.Fatalf("expected 1 focused candidate, got %d", len(got))
	}
	if got[0].Chunk.Id != 1 {
		t.Errorf("expected candidate 1, got %d", got[0].Chunk.Id)
	}
}

func TestFocusFloor(t *testing.T) {
	candidates := []*core.ScoredCandidate{
		makeCandidate(1, "Hypericum perforatum contains hypericin."),
		makeCandidate(2, "Lavender oil is distilled from flowers."),
		makeCandidate(3, "Chamomile tea is a mild sedative."),
	}

	// Only one candidate matches; with minKeep above that the filter must
	// fall back to the full input.
	got := Focus(candidates, "What is Hypericum perforatum used for?", 2)
	if len(got) != len(candidates) {
		t.Fatalf("expected fallback to all %d candidates, got %d", len(candidates), len(got))
	}
}
