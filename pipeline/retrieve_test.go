package pipeline

import (
	"context"
	"errors"
	"math"
	"strings"
	"testing"
	"time"

	"github.com/poiesic/querent/ai/mock"
	"github.com/poiesic/querent/core"
)

// rankedStore is a canned ChunkRepository for exercising fusion with exact
// rank positions. Vector lookups are routed by the first vector component,
// which the test embedder sets to the query's list index.
type rankedStore struct {
	vectorLists [][]*core.VectorMatch
	textLists   map[string][]*core.TextMatch
	vectorErr   error
	textErr     error
}

func (s *rankedStore) FindSimilar(ctx context.Context, workspaceID string, vector []float32, limit int) ([]*core.VectorMatch, error) {
	if s.vectorErr != nil {
		return nil, s.vectorErr
	}
	idx := int(vector[0])
	if idx < 0 || idx >= len(s.vectorLists) {
		return nil, nil
	}
	return s.vectorLists[idx], nil
}

func (s *rankedStore) SearchText(ctx context.Context, workspaceID string, query string, limit int) ([]*core.TextMatch, error) {
	if s.textErr != nil {
		return nil, s.textErr
	}
	return s.textLists[query], nil
}

func (s *rankedStore) AddDocument(ctx context.Context, document *core.Document, chunks []*core.Chunk) (*core.Document, error) {
	return nil, errors.New("not implemented")
}
func (s *rankedStore) DeleteDocument(ctx context.Context, workspaceID string, id core.ID) error {
	return errors.New("not implemented")
}
func (s *rankedStore) GetChunk(ctx context.Context, id core.ID) (*core.Chunk, error) {
	return nil, errors.New("not implemented")
}
func (s *rankedStore) GetChunks(ctx context.Context, ids ...core.ID) ([]*core.Chunk, error) {
	return nil, errors.New("not implemented")
}
func (s *rankedStore) GetDocuments(ctx context.Context, workspaceID string) ([]*core.Document, error) {
	return nil, errors.New("not implemented")
}
func (s *rankedStore) GetDocumentChunks(ctx context.Context, documentID core.ID) ([]*core.Chunk, error) {
	return nil, errors.New("not implemented")
}
func (s *rankedStore) ListWorkspaces(ctx context.Context) ([]string, error) {
	return nil, errors.New("not implemented")
}
func (s *rankedStore) CountChunks(ctx context.Context, workspaceID string) (int, error) {
	return 0, errors.New("not implemented")
}
func (s *rankedStore) IterateChunks(ctx context.Context, fn func(chunk *core.Chunk) error) error {
	return errors.New("not implemented")
}
func (s *rankedStore) UpdateChunkVectors(ctx context.Context, chunks ...*core.Chunk) error {
	return errors.New("not implemented")
}
func (s *rankedStore) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}
func (s *rankedStore) Close() error { return nil }

// indexEmbedder maps each query to its vector-list index.
func indexEmbedder(queryIndex map[string]int) *mock.MockEmbedder {
	embedder := mock.NewMockEmbedder()
	embedder.EmbedTextFunc = func(ctx context.Context, text string) ([]float32, error) {
		idx, ok := queryIndex[text]
		if !ok {
			return nil, errors.New("unexpected query")
		}
		return []float32{float32(idx)}, nil
	}
	return embedder
}

func proseChunk(id core.ID, subject string) *core.Chunk {
	return &core.Chunk{
		Id: id,
		Content: "The cultivated varieties of " + subject + " differ markedly in oil yield " +
			"and flowering time; field trials across three seasons showed that harvest " +
			"date matters more than soil type for the final extract quality.",
		CreatedAt: time.Unix(0, 0),
	}
}

func newRankedPipeline(t *testing.T, store *rankedStore, embedder *mock.MockEmbedder) *Pipeline {
	t.Helper()
	provider := mock.NewMockProviderWithServices(
		embedder, mock.NewMockQueryRewriter(), mock.NewMockRelevanceJudge(), mock.NewMockAnswerer())
	return newTestPipeline(t, store, provider, testConfig())
}

func TestRetrieveFusesAcrossQueries(t *testing.T) {
	c1 := proseChunk(1, "valerian")
	c2 := proseChunk(2, "chamomile")
	c3 := proseChunk(3, "passiflora")
	c4 := proseChunk(4, "melissa")

	store := &rankedStore{
		vectorLists: [][]*core.VectorMatch{
			{{Chunk: c1, Distance: 0.1}, {Chunk: c2, Distance: 0.2}},
			{{Chunk: c3, Distance: 0.05}, {Chunk: c4, Distance: 0.15}, {Chunk: c1, Distance: 0.3}},
		},
		textLists: map[string][]*core.TextMatch{},
	}
	embedder := indexEmbedder(map[string]int{"valerian effects": 0, "calming herbs": 1})
	p := newRankedPipeline(t, store, embedder)

	candidates, err := p.Retrieve(context.Background(), "herbs", []string{"valerian effects", "calming herbs"})
	if err != nil {
		t.Fatalf("Retrieve failed: %v", err)
	}
	if len(candidates) != 4 {
		t.Fatalf("expected 4 deduplicated candidates, got %d", len(candidates))
	}

	// c1 is rank 1 in one list and rank 3 in the other.
	wantScore := 1.0/61.0 + 1.0/63.0
	top := candidates[0]
	if top.Chunk.Id != 1 {
		t.Fatalf("expected the shared chunk first, got id %d", top.Chunk.Id)
	}
	if math.Abs(top.FusedScore-wantScore) > 1e-12 {
		t.Errorf("fused score = %v, want %v", top.FusedScore, wantScore)
	}
	if top.Distance != 0.1 {
		t.Errorf("retained distance = %v, want the minimum 0.1", top.Distance)
	}
}

func TestRetrieveIsCommutative(t *testing.T) {
	c1 := proseChunk(1, "valerian")
	c2 := proseChunk(2, "chamomile")
	c3 := proseChunk(3, "passiflora")

	store := &rankedStore{
		vectorLists: [][]*core.VectorMatch{
			{{Chunk: c1, Distance: 0.1}, {Chunk: c2, Distance: 0.2}},
			{{Chunk: c3, Distance: 0.05}, {Chunk: c1, Distance: 0.3}},
		},
		textLists: map[string][]*core.TextMatch{},
	}
	embedder := indexEmbedder(map[string]int{"valerian effects": 0, "calming herbs": 1})
	p := newRankedPipeline(t, store, embedder)

	forward, err := p.Retrieve(context.Background(), "herbs", []string{"valerian effects", "calming herbs"})
	if err != nil {
		t.Fatalf("Retrieve failed: %v", err)
	}
	backward, err := p.Retrieve(context.Background(), "herbs", []string{"calming herbs", "valerian effects"})
	if err != nil {
		t.Fatalf("Retrieve failed: %v", err)
	}

	if len(forward) != len(backward) {
		t.Fatalf("query order changed the candidate count: %d vs %d", len(forward), len(backward))
	}
	for i := range forward {
		if forward[i].Chunk.Id != backward[i].Chunk.Id {
			t.Fatalf("query order changed the ranking at position %d", i)
		}
		if forward[i].FusedScore != backward[i].FusedScore {
			t.Errorf("query order changed the fused score of chunk %d", forward[i].Chunk.Id)
		}
	}
}

func TestRetrieveLexicalDistanceProxy(t *testing.T) {
	c1 := proseChunk(1, "valerian")
	c2 := proseChunk(2, "chamomile")
	c3 := proseChunk(3, "passiflora")

	store := &rankedStore{
		vectorLists: [][]*core.VectorMatch{{}},
		textLists: map[string][]*core.TextMatch{
			"valerian effects": {
				{Chunk: c1, Relevance: 10},
				{Chunk: c2, Relevance: 5},
				{Chunk: c3, Relevance: 0},
			},
		},
	}
	embedder := indexEmbedder(map[string]int{"valerian effects": 0})
	p := newRankedPipeline(t, store, embedder)

	candidates, err := p.Retrieve(context.Background(), "herbs", []string{"valerian effects"})
	if err != nil {
		t.Fatalf("Retrieve failed: %v", err)
	}

	distances := make(map[core.ID]float64, len(candidates))
	for _, candidate := range candidates {
		distances[candidate.Chunk.Id] = candidate.Distance
	}
	if distances[1] != 0 {
		t.Errorf("best lexical match must have proxy distance 0, got %v", distances[1])
	}
	if distances[2] != 0.5 {
		t.Errorf("half-relevance match must have proxy distance 0.5, got %v", distances[2])
	}
	if distances[3] != 1.0 {
		t.Errorf("zero-relevance match must have proxy distance 1, got %v", distances[3])
	}
}

func TestRetrieveEmbeddingFailureKeepsLexical(t *testing.T) {
	c1 := proseChunk(1, "valerian")

	store := &rankedStore{
		vectorLists: [][]*core.VectorMatch{},
		textLists: map[string][]*core.TextMatch{
			"valerian effects": {{Chunk: c1, Relevance: 3}},
		},
	}
	embedder := mock.NewMockEmbedder()
	embedder.EmbedTextFunc = func(ctx context.Context, text string) ([]float32, error) {
		return nil, errors.New("embedding service down")
	}
	p := newRankedPipeline(t, store, embedder)

	candidates, err := p.Retrieve(context.Background(), "herbs", []string{"valerian effects"})
	if err != nil {
		t.Fatalf("embedding failure must not fail retrieval: %v", err)
	}
	if len(candidates) != 1 || candidates[0].Chunk.Id != 1 {
		t.Fatalf("expected the lexical match to survive, got %v", candidates)
	}
}

func TestRetrieveStorageErrorPropagates(t *testing.T) {
	store := &rankedStore{
		vectorLists: [][]*core.VectorMatch{{}},
		textLists:   map[string][]*core.TextMatch{},
		textErr:     errors.New("index corrupted"),
	}
	embedder := indexEmbedder(map[string]int{"valerian effects": 0})
	p := newRankedPipeline(t, store, embedder)

	if _, err := p.Retrieve(context.Background(), "herbs", []string{"valerian effects"}); err == nil {
		t.Fatal("expected the storage error to propagate")
	}
}

func TestRetrieveNoiseFallback(t *testing.T) {
	// Both matches are too short to pass the noise filter.
	c1 := &core.Chunk{Id: 1, Content: "valerian: 12mg"}
	c2 := &core.Chunk{Id: 2, Content: "chamomile: 8mg"}

	store := &rankedStore{
		vectorLists: [][]*core.VectorMatch{
			{{Chunk: c1, Distance: 0.1}, {Chunk: c2, Distance: 0.2}},
		},
		textLists: map[string][]*core.TextMatch{},
	}
	embedder := indexEmbedder(map[string]int{"valerian dosage": 0})
	p := newRankedPipeline(t, store, embedder)

	candidates, err := p.Retrieve(context.Background(), "herbs", []string{"valerian dosage"})
	if err != nil {
		t.Fatalf("Retrieve failed: %v", err)
	}
	if len(candidates) != 2 {
		t.Fatalf("noise filtering must not starve retrieval, got %d candidates", len(candidates))
	}
}

func TestRetrieveFiltersNoise(t *testing.T) {
	prose := proseChunk(1, "valerian")
	noise := &core.Chunk{Id: 2, Content: strings.Repeat("12.4\t8.13\t199.2\n", 10)}

	store := &rankedStore{
		vectorLists: [][]*core.VectorMatch{
			{{Chunk: noise, Distance: 0.05}, {Chunk: prose, Distance: 0.1}},
		},
		textLists: map[string][]*core.TextMatch{},
	}
	embedder := indexEmbedder(map[string]int{"valerian effects": 0})
	p := newRankedPipeline(t, store, embedder)

	candidates, err := p.Retrieve(context.Background(), "herbs", []string{"valerian effects"})
	if err != nil {
		t.Fatalf("Retrieve failed: %v", err)
	}
	if len(candidates) != 1 || candidates[0].Chunk.Id != 1 {
		t.Fatalf("expected only the prose chunk, got %v", candidates)
	}
}
