package pipeline

import (
	"context"
	"errors"
	"testing"

	"github.com/poiesic/querent/ai/mock"
)

func TestNormalizeQuery(t *testing.T) {
	tests := []struct {
		question string
		want     string
	}{
		{"What are the active compounds?", "the active compounds"},
		{"Please summarize the harvest season", "the harvest season"},
		{"What is hypericin based on the provided sources?", "hypericin"},
		{"Give me the dosage range", "the dosage range"},
		{"hypericin dosage", "hypericin dosage"},
		{"What is?", ""},
	}

	for _, tt := range tests {
		if got := NormalizeQuery(tt.question); got != tt.want {
			t.Errorf("NormalizeQuery(%q) = %q, want %q", tt.question, got, tt.want)
		}
	}
}

func newRewriteTestPipeline(t *testing.T, rewriter *mock.MockQueryRewriter, config *Config) *Pipeline {
	t.Helper()
	provider := mock.NewMockProviderWithServices(
		mock.NewMockEmbedder(), rewriter, mock.NewMockRelevanceJudge(), mock.NewMockAnswerer())
	return newTestPipeline(t, newTestStore(t), provider, config)
}

func TestPlanStrictModes(t *testing.T) {
	rewriter := mock.NewMockQueryRewriter()
	rewriter.RewriteQueryFunc = func(ctx context.Context, question string, n int) ([]string, error) {
		return []string{"an alternative phrasing"}, nil
	}

	config := DefaultConfig()
	config.RewriteEnabled = true
	p := newRewriteTestPipeline(t, rewriter, config)

	for _, mode := range []Mode{ModeReference, ModeSynthesis} {
		queries := p.Plan(context.Background(), "What is hypericin?", mode)
		if len(queries) != 1 || queries[0] != "What is hypericin?" {
			t.Errorf("mode %q: expected the question alone, got %v", mode, queries)
		}
	}
	if rewriter.CallCount() != 0 {
		t.Error("strict modes must not consult the rewriter")
	}
}

func TestPlanCustomRewrites(t *testing.T) {
	rewriter := mock.NewMockQueryRewriter()
	rewriter.RewriteQueryFunc = func(ctx context.Context, question string, n int) ([]string, error) {
		return []string{
			"hypericin pharmacology",
			"Hypericin Pharmacology", // case-insensitive duplicate
			"",                       // dropped
			"What is hypericin?",     // duplicate of the question
			"hypericin mechanism",
			"hypericin dosage",
			"hypericin safety", // over budget
		}, nil
	}

	config := DefaultConfig()
	config.RewriteEnabled = true
	config.RewriteN = 3
	p := newRewriteTestPipeline(t, rewriter, config)

	queries := p.Plan(context.Background(), "What is hypericin?", ModeCustom)
	want := []string{
		"What is hypericin?",
		"hypericin pharmacology",
		"hypericin mechanism",
		"hypericin dosage",
	}
	if len(queries) != len(want) {
		t.Fatalf("expected %d queries, got %v", len(want), queries)
	}
	for i := range want {
		if queries[i] != want[i] {
			t.Errorf("query %d = %q, want %q", i, queries[i], want[i])
		}
	}
}

func TestPlanRewriteDisabled(t *testing.T) {
	rewriter := mock.NewMockQueryRewriter()

	config := DefaultConfig()
	config.RewriteEnabled = false
	p := newRewriteTestPipeline(t, rewriter, config)

	queries := p.Plan(context.Background(), "What is hypericin?", ModeCustom)
	if len(queries) != 1 {
		t.Fatalf("expected the question alone, got %v", queries)
	}
	if rewriter.CallCount() != 0 {
		t.Error("disabled rewriting must not consult the rewriter")
	}
}

func TestPlanRewriteBudgetZero(t *testing.T) {
	rewriter := mock.NewMockQueryRewriter()
	rewriter.RewriteQueryFunc = func(ctx context.Context, question string, n int) ([]string, error) {
		// Ignores n entirely.
		return []string{"hypericin pharmacology", "hypericin mechanism"}, nil
	}

	config := DefaultConfig()
	config.RewriteEnabled = true
	config.RewriteN = 0
	p := newRewriteTestPipeline(t, rewriter, config)

	queries := p.Plan(context.Background(), "What is hypericin?", ModeCustom)
	if len(queries) != 1 || queries[0] != "What is hypericin?" {
		t.Errorf("zero rewrite budget must yield the question alone, got %v", queries)
	}
	if rewriter.CallCount() != 0 {
		t.Error("zero rewrite budget must not consult the rewriter")
	}
}

func TestPlanRewriteFailure(t *testing.T) {
	rewriter := mock.NewMockQueryRewriter()
	rewriter.RewriteQueryFunc = func(ctx context.Context, question string, n int) ([]string, error) {
		return nil, errors.New("model unavailable")
	}

	config := DefaultConfig()
	config.RewriteEnabled = true
	p := newRewriteTestPipeline(t, rewriter, config)

	queries := p.Plan(context.Background(), "What is hypericin?", ModeCustom)
	if len(queries) != 1 || queries[0] != "What is hypericin?" {
		t.Errorf("rewrite failure must fall back to the question, got %v", queries)
	}
}
