package reindex

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/poiesic/querent/ai/mock"
	"github.com/poiesic/querent/core"
)

func TestReindexer_Run(t *testing.T) {
	repo := newSeededStore(t, 12)
	embedder := mock.NewMockEmbedder()
	embedder.EmbedTextsFunc = func(ctx context.Context, texts []string) ([][]float32, error) {
		vectors := make([][]float32, len(texts))
		for i := range texts {
			vectors[i] = []float32{3, 4, 0}
		}
		return vectors, nil
	}

	config := DefaultConfig()
	config.BatchSize = 5

	var progress bytes.Buffer
	reindexer := NewReindexer(repo, embedder, config, &progress)
	require.NoError(t, reindexer.Run(context.Background()))

	// Every stored vector must be replaced with the normalized embedding.
	count := 0
	err := repo.IterateChunks(context.Background(), func(chunk *core.Chunk) error {
		count++
		require.Len(t, chunk.Vector, 3)
		assert.InDelta(t, 0.6, chunk.Vector[0], 1e-6)
		assert.InDelta(t, 0.8, chunk.Vector[1], 1e-6)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 12, count)
	assert.Contains(t, progress.String(), "Reindexing complete")
}

func TestReindexer_EmptyStore(t *testing.T) {
	repo := newEmptyStore(t)

	var progress bytes.Buffer
	reindexer := NewReindexer(repo, mock.NewMockEmbedder(), nil, &progress)
	require.NoError(t, reindexer.Run(context.Background()))
	assert.Contains(t, progress.String(), "No chunks found")
}

func TestReindexer_EmbeddingFailure(t *testing.T) {
	repo := newSeededStore(t, 3)
	embedder := mock.NewMockEmbedder()
	embedder.EmbedTextsFunc = func(ctx context.Context, texts []string) ([][]float32, error) {
		return nil, errors.New("embedding service down")
	}

	config := DefaultConfig()
	config.MaxRetries = 2
	config.RetryDelay = time.Millisecond

	var progress bytes.Buffer
	reindexer := NewReindexer(repo, embedder, config, &progress)
	err := reindexer.Run(context.Background())
	require.Error(t, err)
	assert.Equal(t, 2, embedder.CallCount(), "each retry attempt counts once")
}

func TestBatchProcessor_EmptyBatch(t *testing.T) {
	repo := newEmptyStore(t)
	processor := NewBatchProcessor(repo, mock.NewMockEmbedder(), 3, time.Millisecond)
	require.NoError(t, processor.Process(context.Background(), nil))
}
