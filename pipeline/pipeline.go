package pipeline

import (
	"context"
	"log/slog"
	"runtime"
	"slices"
	"strings"

	"github.com/panjf2000/ants/v2"
	"github.com/poiesic/querent/ai"
	"github.com/poiesic/querent/core"
	"github.com/poiesic/querent/storage"
)

const (
	// referenceRole answers one atomic question strictly from the context.
	referenceRole = "You are a helpful assistant. Answer ONLY using the provided context.\n" +
		"If the user asks multiple things, answer the parts that ARE supported by the context.\n" +
		"For each part that is NOT supported by the context, explicitly say it is not found in the provided context.\n" +
		"Do NOT use external knowledge.\n"

	// synthesisRole combines evidence across chunks under grounding rules.
	synthesisRole = "You are a helpful assistant. Use ONLY the provided context.\n" +
		"Synthesize an answer by combining information from multiple context chunks.\n" +
		"If the user asks multiple things, answer the supported parts and mark missing parts as not found in the provided context.\n" +
		"Do NOT use external knowledge.\n" +
		"\n" +
		"Grounding rules:\n" +
		"- Treat each chunk as independent evidence; do not assume facts apply across different entities.\n" +
		"- Include a claim only if it is explicitly stated in at least one chunk.\n" +
		"- If chunks contain information about other entities unrelated to the question, ignore those parts.\n"

	// noEvidenceAnswer is returned whenever the pipeline refuses to answer.
	noEvidenceAnswer = "This information is not found in the provided sources."

	// compoundQuestionAnswer is returned when reference mode gets a
	// multi-part question.
	compoundQuestionAnswer = "Reference mode supports only ONE atomic question. " +
		"Please split your question or use synthesis mode."

	// answerUnavailable is the fallback when the answer generator fails.
	answerUnavailable = "The answer could not be generated. Please try again later."

	contextSeparator = "\n\n---\n\n"
)

// Pipeline runs the hybrid retrieval, fusion, and evidentiary-filtering
// stages for one workspace-scoped question at a time. A single Pipeline is
// safe for concurrent use; runs share no mutable state beyond the read-only
// store.
type Pipeline struct {
	chunkRepository storage.ChunkRepository
	embedder        ai.Embedder
	rewriter        ai.QueryRewriter
	answerer        ai.Answerer
	selector        Selector
	config          *Config
	pool            *ants.Pool
	monitor         Monitor
	logger          *slog.Logger
}

// Option configures a Pipeline.
type Option func(*Pipeline) error

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) error {
		if logger == nil {
			logger = slog.Default()
		}
		p.logger = logger
		return nil
	}
}

// WithMonitor sets a stage observer for every run of this pipeline.
func WithMonitor(monitor Monitor) Option {
	return func(p *Pipeline) error {
		if monitor == nil {
			monitor = &noopMonitor{}
		}
		p.monitor = monitor
		return nil
	}
}

// WithPoolSize sets the worker pool size for concurrent per-query retrieval.
// Default is runtime.NumCPU() / 2, with a minimum of 1.
func WithPoolSize(size int) Option {
	return func(p *Pipeline) error {
		if size < 1 {
			size = 1
		}
		if p.pool != nil {
			p.pool.Release()
		}
		pool, err := ants.NewPool(size)
		if err != nil {
			return err
		}
		p.pool = pool
		return nil
	}
}

// WithSelector overrides the relevance selection strategy.
func WithSelector(selector Selector) Option {
	return func(p *Pipeline) error {
		if selector != nil {
			p.selector = selector
		}
		return nil
	}
}

// NewPipeline creates a question-answering pipeline over the given store and
// AI capabilities. The config is validated once here; nil config means
// DefaultConfig.
func NewPipeline(
	chunkRepository storage.ChunkRepository,
	provider ai.AIProvider,
	config *Config,
	opts ...Option,
) (*Pipeline, error) {
	if chunkRepository == nil {
		return nil, ErrChunkRepositoryRequired
	}
	if provider == nil {
		return nil, ErrAIProviderRequired
	}
	if config == nil {
		config = DefaultConfig()
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}

	poolSize := runtime.NumCPU() / 2
	if poolSize < 1 {
		poolSize = 1
	}
	pool, err := ants.NewPool(poolSize)
	if err != nil {
		return nil, err
	}

	p := &Pipeline{
		chunkRepository: chunkRepository,
		embedder:        provider.Embedder(),
		rewriter:        provider.QueryRewriter(),
		answerer:        provider.Answerer(),
		config:          config,
		pool:            pool,
		monitor:         &noopMonitor{},
		logger:          slog.Default().With("component", "pipeline"),
	}

	if config.JudgeEnabled {
		p.selector = &judgeSelector{judge: provider.RelevanceJudge(), previewChars: config.PreviewChars}
	} else {
		p.selector = &keywordSelector{}
	}

	// Apply options
	for _, opt := range opts {
		if err := opt(p); err != nil {
			p.Release()
			return nil, err
		}
	}

	return p, nil
}

// Release releases the retrieval worker pool.
// The pipeline should not be used after calling Release.
func (p *Pipeline) Release() {
	if p.pool != nil {
		p.pool.Release()
	}
}

// Run executes one pipeline run: plan, retrieve, focus, gate, assemble.
// The returned decision is either answerable evidence or an explicit
// no-evidence refusal. Run performs no writes and is safe to cancel at any
// stage.
func (p *Pipeline) Run(ctx context.Context, workspaceID, question string, mode Mode) (*Decision, error) {
	queries := p.Plan(ctx, question, mode)
	p.monitor.Planned(question, queries)

	candidates, err := p.Retrieve(ctx, workspaceID, queries)
	if err != nil {
		return nil, err
	}
	p.monitor.Retrieved(candidates)

	focused := Focus(candidates, question, p.config.MinKeepFocus)
	p.monitor.Focused(focused)

	if mode == ModeCustom {
		sortByFactDensity(focused)
	}

	gated := p.Gate(ctx, question, focused)
	p.monitor.Gated(gated)

	decision := Assemble(gated, p.config.ContextK)
	if mode == ModeCustom {
		// Keep the density ordering in the final context window.
		sortByFactDensity(decision.Evidence)
	}
	p.monitor.Assembled(decision)

	return decision, nil
}

// Answer is the outcome of AnswerQuestion: the generated text plus the
// decision and evidence that backed it, for audit and display.
type Answer struct {
	Text     string
	Decision *Decision
}

// AnswerQuestion runs the pipeline and, when it yields evidence, invokes the
// answer generator with the mode-specific role. A custom role overrides the
// built-in roles in custom mode only; empty role falls back to the reference
// role. Generator failures degrade to a fixed fallback answer, never an
// error.
func (p *Pipeline) AnswerQuestion(ctx context.Context, workspaceID, question string, mode Mode, role string) (*Answer, error) {
	if mode == ModeReference && isCompoundQuestion(question) {
		return &Answer{Text: compoundQuestionAnswer, Decision: &Decision{}}, nil
	}

	decision, err := p.Run(ctx, workspaceID, question, mode)
	if err != nil {
		return nil, err
	}

	if decision.NoEvidence() {
		return &Answer{Text: noEvidenceAnswer, Decision: decision}, nil
	}

	parts := make([]string, 0, len(decision.Evidence))
	for _, candidate := range decision.Evidence {
		if candidate.Chunk.Content != "" {
			parts = append(parts, candidate.Chunk.Content)
		}
	}
	contextText := strings.Join(parts, contextSeparator)

	effectiveRole := referenceRole
	switch mode {
	case ModeSynthesis:
		effectiveRole = synthesisRole
	case ModeCustom:
		if trimmed := strings.TrimSpace(role); trimmed != "" {
			effectiveRole = trimmed
		}
	}

	text, err := p.answerer.Answer(ctx, effectiveRole, question, contextText)
	if err != nil {
		p.logger.Error("answer generation failed", "err", err)
		return &Answer{Text: answerUnavailable, Decision: decision}, nil
	}

	return &Answer{Text: text, Decision: decision}, nil
}

// isCompoundQuestion detects multi-part questions that reference mode
// refuses to answer.
func isCompoundQuestion(question string) bool {
	q := strings.ToLower(question)
	return strings.Contains(q, " and ") || strings.Contains(q, ",") || strings.Contains(q, ";")
}

// sortByFactDensity reorders candidates by how claim-bearing their text
// looks, best first. Ties keep the fused order.
func sortByFactDensity(candidates []*core.ScoredCandidate) {
	density := make(map[core.ID]float64, len(candidates))
	for _, candidate := range candidates {
		density[candidate.Chunk.Id] = FactDensityScore(candidate.Chunk.Content)
	}
	// Stable so equal densities keep the fused ranking.
	slices.SortStableFunc(candidates, func(a, b *core.ScoredCandidate) int {
		da, db := density[a.Chunk.Id], density[b.Chunk.Id]
		if da > db {
			return -1
		}
		if da < db {
			return 1
		}
		return 0
	})
}
