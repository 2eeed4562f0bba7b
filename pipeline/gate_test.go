package pipeline

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/poiesic/querent/ai/mock"
	"github.com/poiesic/querent/core"
)

func newGateTestPipeline(t *testing.T, judge *mock.MockRelevanceJudge, config *Config) *Pipeline {
	t.Helper()
	provider := mock.NewMockProviderWithServices(
		mock.NewMockEmbedder(), mock.NewMockQueryRewriter(), judge, mock.NewMockAnswerer())
	return newTestPipeline(t, newTestStore(t), provider, config)
}

func valerianCandidates(n int) []*core.ScoredCandidate {
	candidates := make([]*core.ScoredCandidate, n)
	for i := range candidates {
		candidates[i] = makeCandidate(core.ID(i+1),
			fmt.Sprintf("Valerian root extract sample %d showed measurable sedative activity.", i+1))
	}
	return candidates
}

func TestGateEmptyPassthrough(t *testing.T) {
	config := DefaultConfig()
	p := newGateTestPipeline(t, mock.NewMockRelevanceJudge(), config)

	if got := p.Gate(context.Background(), "valerian sedative", nil); got != nil {
		t.Errorf("expected nil for empty candidates, got %v", got)
	}
}

func TestGateJudgeFailureFailsOpen(t *testing.T) {
	judge := mock.NewMockRelevanceJudge()
	judge.JudgeRelevanceFunc = func(ctx context.Context, question string, previews []string) ([]int, error) {
		return nil, errors.New("judge unavailable")
	}
	config := DefaultConfig()
	p := newGateTestPipeline(t, judge, config)

	candidates := valerianCandidates(9)
	got := p.Gate(context.Background(), "valerian sedative activity", candidates)
	if len(got) != len(candidates) {
		t.Fatalf("judge failure must keep all %d candidates, got %d", len(candidates), len(got))
	}
}

func TestGateBaseSetAlwaysKept(t *testing.T) {
	judge := mock.NewMockRelevanceJudge()
	judge.JudgeRelevanceFunc = func(ctx context.Context, question string, previews []string) ([]int, error) {
		return []int{}, nil // judge rejects everything
	}
	config := DefaultConfig()
	p := newGateTestPipeline(t, judge, config)

	candidates := valerianCandidates(9)
	got := p.Gate(context.Background(), "valerian sedative activity", candidates)
	if len(got) != 3 {
		t.Fatalf("expected the base set of 3 top candidates, got %d", len(got))
	}
	for i, candidate := range got {
		if candidate.Chunk.Id != candidates[i].Chunk.Id {
			t.Errorf("base set must preserve the original order at position %d", i)
		}
	}
}

func TestGateBaseSetGrowsWithPool(t *testing.T) {
	judge := mock.NewMockRelevanceJudge()
	judge.JudgeRelevanceFunc = func(ctx context.Context, question string, previews []string) ([]int, error) {
		return []int{}, nil
	}
	config := DefaultConfig()
	p := newGateTestPipeline(t, judge, config)

	// With 15 candidates the base set is 15/3 = 5, not the floor of 3.
	got := p.Gate(context.Background(), "valerian sedative activity", valerianCandidates(15))
	if len(got) != 5 {
		t.Fatalf("expected a base set of 5, got %d", len(got))
	}
}

func TestGateMergesJudgedIndices(t *testing.T) {
	judge := mock.NewMockRelevanceJudge()
	judge.JudgeRelevanceFunc = func(ctx context.Context, question string, previews []string) ([]int, error) {
		return []int{7, 2, 99, -1}, nil // out-of-range indices are ignored
	}
	config := DefaultConfig()
	p := newGateTestPipeline(t, judge, config)

	candidates := valerianCandidates(9)
	got := p.Gate(context.Background(), "valerian sedative activity", candidates)

	// Base set {0,1,2} plus judged {7,2}: candidates 1,2,3,8 in order.
	wantIDs := []core.ID{1, 2, 3, 8}
	if len(got) != len(wantIDs) {
		t.Fatalf("expected %d candidates, got %d", len(wantIDs), len(got))
	}
	for i, want := range wantIDs {
		if got[i].Chunk.Id != want {
			t.Errorf("position %d: got chunk %d, want %d", i, got[i].Chunk.Id, want)
		}
	}
}

func TestGateCoverageRejects(t *testing.T) {
	config := DefaultConfig()
	p := newGateTestPipeline(t, mock.NewMockRelevanceJudge(), config)

	candidates := valerianCandidates(5)
	got := p.Gate(context.Background(), "chamomile flavonoid content", candidates)
	if got != nil {
		t.Fatalf("zero question-term overlap must reject the whole set, got %d candidates", len(got))
	}
}

func TestGateCoveragePassesWithOverlap(t *testing.T) {
	config := DefaultConfig()
	p := newGateTestPipeline(t, mock.NewMockRelevanceJudge(), config)

	candidates := valerianCandidates(5)
	got := p.Gate(context.Background(), "valerian sedative activity", candidates)
	if len(got) == 0 {
		t.Fatal("overlapping candidates must pass the coverage gate")
	}
}

func TestGateNoUsableQuestionTerms(t *testing.T) {
	config := DefaultConfig()
	p := newGateTestPipeline(t, mock.NewMockRelevanceJudge(), config)

	// Every question word is a stop word, so coverage passes trivially.
	candidates := valerianCandidates(3)
	got := p.Gate(context.Background(), "what is this for", candidates)
	if len(got) == 0 {
		t.Fatal("a question with no usable terms must not be rejected")
	}
}

func TestKeywordSelector(t *testing.T) {
	selector := &keywordSelector{}
	candidates := []*core.ScoredCandidate{
		makeCandidate(1, "Valerian root is a traditional sedative."),
		makeCandidate(2, "Lavender oil is used in perfumery."),
		makeCandidate(3, "Sedative preparations often combine valerian with hops."),
	}

	indices, err := selector.Select(context.Background(), "valerian sedative", candidates)
	if err != nil {
		t.Fatalf("keyword selection failed: %v", err)
	}
	want := []int{0, 2}
	if len(indices) != len(want) {
		t.Fatalf("expected indices %v, got %v", want, indices)
	}
	for i := range want {
		if indices[i] != want[i] {
			t.Errorf("expected indices %v, got %v", want, indices)
			break
		}
	}
}
