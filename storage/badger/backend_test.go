package badger

import (
	"context"
	"math"
	"testing"

	"github.com/poiesic/querent/core"
)

func TestCosineDistance(t *testing.T) {
	tests := []struct {
		name string
		a, b []float32
		want float64
	}{
		{"identical vectors", []float32{1, 0, 0}, []float32{1, 0, 0}, 0.0},
		{"orthogonal vectors", []float32{1, 0, 0}, []float32{0, 1, 0}, 1.0},
		{"opposite vectors", []float32{1, 0, 0}, []float32{-1, 0, 0}, 2.0},
		{"zero vector", []float32{0, 0, 0}, []float32{1, 0, 0}, 1.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := cosineDistance(tt.a, tt.b)
			if math.Abs(got-tt.want) > 1e-6 {
				t.Fatalf("Expected %f, got %f", tt.want, got)
			}
		})
	}
}

func TestFindSimilar(t *testing.T) {
	chunkRepo, noteRepo, backend, err := NewMemoryRepositories()
	if err != nil {
		t.Fatalf("Failed to create repositories: %v", err)
	}
	defer func() { noteRepo.Close(); chunkRepo.Close(); backend.Close() }()

	ctx := context.Background()

	doc := &core.Document{WorkspaceId: "botany", Source: "herbal.pdf"}
	chunks := []*core.Chunk{
		{Index: 0, Content: "Passage aligned with the query.", Vector: []float32{1, 0, 0}},
		{Index: 1, Content: "Passage orthogonal to the query.", Vector: []float32{0, 1, 0}},
		{Index: 2, Content: "Passage partly aligned with the query.", Vector: []float32{0.7, 0.7, 0}},
	}
	if _, err := chunkRepo.AddDocument(ctx, doc, chunks); err != nil {
		t.Fatalf("Failed to add document: %v", err)
	}

	matches, err := backend.FindSimilar(ctx, "botany", []float32{1, 0, 0}, 2)
	if err != nil {
		t.Fatalf("Failed to find similar: %v", err)
	}
	if len(matches) != 2 {
		t.Fatalf("Expected 2 matches, got %d", len(matches))
	}
	if matches[0].Chunk.Index != 0 {
		t.Fatalf("Expected closest chunk first, got index %d", matches[0].Chunk.Index)
	}
	if matches[0].Distance > matches[1].Distance {
		t.Fatalf("Expected ascending distance, got %f then %f", matches[0].Distance, matches[1].Distance)
	}

	// Other workspaces are out of scope
	matches, err = backend.FindSimilar(ctx, "chemistry", []float32{1, 0, 0}, 10)
	if err != nil {
		t.Fatalf("Failed to find similar: %v", err)
	}
	if len(matches) != 0 {
		t.Fatalf("Expected no matches in empty workspace, got %d", len(matches))
	}
}

func TestWithTransaction(t *testing.T) {
	chunkRepo, noteRepo, backend, err := NewMemoryRepositories()
	if err != nil {
		t.Fatalf("Failed to create repositories: %v", err)
	}
	defer func() { noteRepo.Close(); chunkRepo.Close(); backend.Close() }()

	called := false
	err = backend.WithTransaction(context.Background(), func(ctx context.Context) error {
		called = true
		return nil
	})
	if err != nil {
		t.Fatalf("Transaction failed: %v", err)
	}
	if !called {
		t.Fatal("Expected transaction function to be called")
	}
}
