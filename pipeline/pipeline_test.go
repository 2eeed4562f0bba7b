package pipeline

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/poiesic/querent/ai"
	"github.com/poiesic/querent/ai/mock"
	"github.com/poiesic/querent/core"
	"github.com/poiesic/querent/storage"
	badgerstore "github.com/poiesic/querent/storage/badger"
)

const (
	hypericumText = "Hypericum perforatum, commonly known as St John's wort, is a flowering plant " +
		"in the family Hypericaceae. Its extracts have been used in traditional medicine " +
		"for wound healing and are studied today for mild depressive disorders."
	lavenderText = "Lavandula angustifolia is cultivated widely for its fragrant oil. The dried " +
		"flowers are used in sachets and teas, and the essential oil is a common ingredient " +
		"in perfumery and aromatherapy preparations across Europe."
	soilText = "Well-drained calcareous soils favor most Mediterranean herbs. Growers amend " +
		"heavy clay with sand and organic matter; raised beds improve drainage further and " +
		"reduce the incidence of root rot during wet winters."
)

func newTestStore(t *testing.T) storage.ChunkRepository {
	t.Helper()
	chunkRepo, _, backend, err := badgerstore.NewMemoryRepositories()
	if err != nil {
		t.Fatalf("failed to open in-memory store: %v", err)
	}
	t.Cleanup(func() { backend.Close() })
	return chunkRepo
}

func newTestPipeline(t *testing.T, repo storage.ChunkRepository, provider ai.AIProvider, config *Config) *Pipeline {
	t.Helper()
	p, err := NewPipeline(repo, provider, config)
	if err != nil {
		t.Fatalf("failed to create pipeline: %v", err)
	}
	t.Cleanup(p.Release)
	return p
}

// seedWorkspace ingests one document per text, with vectors from the mock
// embedder so semantic search has something to rank.
func seedWorkspace(t *testing.T, repo storage.ChunkRepository, provider ai.AIProvider, workspace string, texts ...string) {
	t.Helper()
	ctx := context.Background()
	embedder := provider.Embedder()
	for i, text := range texts {
		vector, err := embedder.EmbedText(ctx, text)
		if err != nil {
			t.Fatalf("failed to embed seed text: %v", err)
		}
		doc := &core.Document{WorkspaceId: workspace, Source: "seed.md"}
		chunks := []*core.Chunk{{Index: i, Content: text, Vector: vector}}
		if _, err := repo.AddDocument(ctx, doc, chunks); err != nil {
			t.Fatalf("failed to seed workspace: %v", err)
		}
	}
}

func testConfig() *Config {
	config := DefaultConfig()
	config.RewriteEnabled = false
	config.JudgeEnabled = false
	config.MinKeepFocus = 1
	return config
}

func TestNewPipelineValidation(t *testing.T) {
	provider := mock.NewMockProvider()

	if _, err := NewPipeline(nil, provider, nil); !errors.Is(err, ErrChunkRepositoryRequired) {
		t.Errorf("expected ErrChunkRepositoryRequired, got %v", err)
	}

	repo := newTestStore(t)
	if _, err := NewPipeline(repo, nil, nil); !errors.Is(err, ErrAIProviderRequired) {
		t.Errorf("expected ErrAIProviderRequired, got %v", err)
	}

	bad := DefaultConfig()
	bad.ContextK = 0
	if _, err := NewPipeline(repo, provider, bad); !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("expected ErrInvalidConfig, got %v", err)
	}
}

func TestAnswerQuestionWithEvidence(t *testing.T) {
	repo := newTestStore(t)
	provider := mock.NewMockProvider()
	seedWorkspace(t, repo, provider, "herbs", hypericumText, lavenderText, soilText)

	p := newTestPipeline(t, repo, provider, testConfig())

	answer, err := p.AnswerQuestion(context.Background(), "herbs",
		"What is Hypericum perforatum used for?", ModeReference, "")
	if err != nil {
		t.Fatalf("AnswerQuestion failed: %v", err)
	}
	if answer.Decision.NoEvidence() {
		t.Fatal("expected an answerable decision")
	}
	if answer.Text != "mock answer" {
		t.Errorf("expected the generated answer, got %q", answer.Text)
	}

	for _, candidate := range answer.Decision.Evidence {
		if !strings.Contains(candidate.Chunk.Content, "Hypericum perforatum") {
			t.Errorf("focus let through off-subject evidence: %q", candidate.Chunk.Content[:40])
		}
	}
}

func TestAnswerQuestionEmptyWorkspace(t *testing.T) {
	repo := newTestStore(t)
	provider := mock.NewMockProvider()
	p := newTestPipeline(t, repo, provider, testConfig())

	answer, err := p.AnswerQuestion(context.Background(), "empty",
		"What is Hypericum perforatum used for?", ModeReference, "")
	if err != nil {
		t.Fatalf("AnswerQuestion failed: %v", err)
	}
	if !answer.Decision.NoEvidence() {
		t.Fatal("expected a no-evidence decision for an empty workspace")
	}
	if answer.Text != noEvidenceAnswer {
		t.Errorf("expected the refusal answer, got %q", answer.Text)
	}
	if provider.(*mock.MockProvider).GetMockAnswerer().CallCount() != 0 {
		t.Error("answer generator must not be called without evidence")
	}
}

func TestAnswerQuestionJudgeFailureFailsOpen(t *testing.T) {
	repo := newTestStore(t)
	judge := mock.NewMockRelevanceJudge()
	judge.JudgeRelevanceFunc = func(ctx context.Context, question string, previews []string) ([]int, error) {
		return nil, ai.ErrUnparsable
	}
	provider := mock.NewMockProviderWithServices(
		mock.NewMockEmbedder(), mock.NewMockQueryRewriter(), judge, mock.NewMockAnswerer())
	seedWorkspace(t, repo, provider, "herbs", hypericumText, lavenderText, soilText)

	config := testConfig()
	config.JudgeEnabled = true
	p := newTestPipeline(t, repo, provider, config)

	answer, err := p.AnswerQuestion(context.Background(), "herbs",
		"What is Hypericum perforatum used for?", ModeReference, "")
	if err != nil {
		t.Fatalf("AnswerQuestion failed: %v", err)
	}
	if answer.Decision.NoEvidence() {
		t.Fatal("judge failure must fail open, not suppress the answer")
	}
	if judge.CallCount() == 0 {
		t.Error("expected the judge to be consulted")
	}
}

func TestAnswerQuestionCompoundReference(t *testing.T) {
	repo := newTestStore(t)
	provider := mock.NewMockProvider()
	seedWorkspace(t, repo, provider, "herbs", hypericumText)

	p := newTestPipeline(t, repo, provider, testConfig())

	answer, err := p.AnswerQuestion(context.Background(), "herbs",
		"What is Hypericum perforatum and where does it grow?", ModeReference, "")
	if err != nil {
		t.Fatalf("AnswerQuestion failed: %v", err)
	}
	if answer.Text != compoundQuestionAnswer {
		t.Errorf("expected the compound-question refusal, got %q", answer.Text)
	}
	if !answer.Decision.NoEvidence() {
		t.Error("compound refusal must not carry evidence")
	}

	// Synthesis mode accepts the same question.
	answer, err = p.AnswerQuestion(context.Background(), "herbs",
		"What is Hypericum perforatum and where does it grow?", ModeSynthesis, "")
	if err != nil {
		t.Fatalf("AnswerQuestion failed: %v", err)
	}
	if answer.Text == compoundQuestionAnswer {
		t.Error("synthesis mode must accept compound questions")
	}
}

func TestAnswerQuestionGeneratorFailure(t *testing.T) {
	repo := newTestStore(t)
	answerer := mock.NewMockAnswerer()
	answerer.AnswerFunc = func(ctx context.Context, role, question, contextText string) (string, error) {
		return "", errors.New("model unavailable")
	}
	provider := mock.NewMockProviderWithServices(
		mock.NewMockEmbedder(), mock.NewMockQueryRewriter(), mock.NewMockRelevanceJudge(), answerer)
	seedWorkspace(t, repo, provider, "herbs", hypericumText)

	p := newTestPipeline(t, repo, provider, testConfig())

	answer, err := p.AnswerQuestion(context.Background(), "herbs",
		"What is Hypericum perforatum used for?", ModeReference, "")
	if err != nil {
		t.Fatalf("generator failure must not surface as an error: %v", err)
	}
	if answer.Text != answerUnavailable {
		t.Errorf("expected the fallback answer, got %q", answer.Text)
	}
	if answer.Decision.NoEvidence() {
		t.Error("the decision should still carry the evidence")
	}
}

func TestAnswerQuestionCustomRole(t *testing.T) {
	repo := newTestStore(t)
	answerer := mock.NewMockAnswerer()
	var seenRole string
	answerer.AnswerFunc = func(ctx context.Context, role, question, contextText string) (string, error) {
		seenRole = role
		return "ok", nil
	}
	provider := mock.NewMockProviderWithServices(
		mock.NewMockEmbedder(), mock.NewMockQueryRewriter(), mock.NewMockRelevanceJudge(), answerer)
	seedWorkspace(t, repo, provider, "herbs", hypericumText)

	p := newTestPipeline(t, repo, provider, testConfig())

	if _, err := p.AnswerQuestion(context.Background(), "herbs",
		"What is Hypericum perforatum used for?", ModeCustom, "You are a botanist."); err != nil {
		t.Fatalf("AnswerQuestion failed: %v", err)
	}
	if seenRole != "You are a botanist." {
		t.Errorf("custom role not forwarded, got %q", seenRole)
	}

	if _, err := p.AnswerQuestion(context.Background(), "herbs",
		"What is Hypericum perforatum used for?", ModeCustom, "  "); err != nil {
		t.Fatalf("AnswerQuestion failed: %v", err)
	}
	if seenRole != referenceRole {
		t.Error("blank custom role must fall back to the reference role")
	}

	if _, err := p.AnswerQuestion(context.Background(), "herbs",
		"What is Hypericum perforatum used for?", ModeSynthesis, ""); err != nil {
		t.Fatalf("AnswerQuestion failed: %v", err)
	}
	if seenRole != synthesisRole {
		t.Error("synthesis mode must use the synthesis role")
	}
}

func TestRunCustomModeOrdersByDensity(t *testing.T) {
	repo := newTestStore(t)
	provider := mock.NewMockProvider()

	bibliography := "Smith, J. (1998). Constituents of Hypericum perforatum reviewed " +
		"for clinical relevance. Journal of Natural Products, vol. 61, pp. 391-396. " +
		"Jones, A. (2001). Hypericum perforatum extracts in modern phytotherapy practice. " +
		"Phytomedicine, vol. 8, pp. 51-58."
	seedWorkspace(t, repo, provider, "herbs", hypericumText, bibliography)

	p := newTestPipeline(t, repo, provider, testConfig())

	decision, err := p.Run(context.Background(), "herbs", "Hypericum perforatum constituents", ModeCustom)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if decision.NoEvidence() {
		t.Fatal("expected evidence")
	}
	if !strings.Contains(decision.Evidence[0].Chunk.Content, "St John's wort") {
		t.Error("expected the prose chunk ordered before the bibliography")
	}
}
