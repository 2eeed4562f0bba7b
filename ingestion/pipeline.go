// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package ingestion

import (
	"context"
	"log/slog"
	"runtime"
	"strings"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"
	"github.com/poiesic/querent/ai"
	"github.com/poiesic/querent/core"
	"github.com/poiesic/querent/reindex"
	"github.com/poiesic/querent/storage"
)

// embedBatchSize is the number of chunk texts embedded per pool job.
const embedBatchSize = 16

// Pipeline orchestrates the ingestion of documents into a workspace.
// It splits raw text into chunks, embeds them concurrently, and stores the
// document, its chunks, and their lexical index in one call.
type Pipeline struct {
	chunkRepository storage.ChunkRepository
	embedder        ai.Embedder
	embeddingPool   *ants.Pool
	chunkSize       int
	chunkOverlap    int
	logger          *slog.Logger
}

// Option configures a Pipeline.
type Option func(*Pipeline) error

// WithPoolSize sets the worker pool size for concurrent embedding.
// Default is runtime.NumCPU() / 2, with a minimum of 1.
func WithPoolSize(size int) Option {
	return func(p *Pipeline) error {
		if size < 1 {
			size = 1
		}

		if p.embeddingPool != nil {
			p.embeddingPool.Release()
		}

		pool, err := ants.NewPool(size)
		if err != nil {
			return err
		}
		p.embeddingPool = pool
		return nil
	}
}

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

// WithChunking overrides the chunk size and overlap used by the splitter.
func WithChunking(size, overlap int) Option {
	return func(p *Pipeline) error {
		if size > 0 {
			p.chunkSize = size
		}
		if overlap >= 0 && overlap < p.chunkSize {
			p.chunkOverlap = overlap
		}
		return nil
	}
}

// NewPipeline creates a new ingestion pipeline.
func NewPipeline(
	chunkRepository storage.ChunkRepository,
	provider ai.AIProvider,
	opts ...Option,
) (*Pipeline, error) {
	if chunkRepository == nil {
		return nil, ErrChunkRepositoryRequired
	}
	if provider == nil {
		return nil, ErrAIProviderRequired
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
		embeddingPool:   pool,
		chunkSize:       DefaultChunkSize,
		chunkOverlap:    DefaultChunkOverlap,
		logger:          slog.Default().With("component", "ingestion"),
	}

	// Apply options (may override defaults)
	for _, opt := range opts {
		if optErr := opt(p); optErr != nil {
			p.Release()
			return nil, optErr
		}
	}

	return p, nil
}

// IngestOptions holds optional parameters for ingestion.
type IngestOptions struct {
	Timestamp time.Time // Optional timestamp (uses current time if zero)
}

// Ingest splits the document text, embeds every chunk, and stores the
// document with its chunks and lexical index in one call. Unlike retrieval,
// ingestion has no fallback semantics: any failure fails the whole ingest
// and nothing is stored.
func (p *Pipeline) Ingest(ctx context.Context, workspaceID, source, text string, opts *IngestOptions) (*core.Document, error) {
	if workspaceID == "" {
		return nil, ErrEmptyWorkspace
	}
	if strings.TrimSpace(text) == "" {
		return nil, ErrEmptyDocument
	}
	if opts == nil {
		opts = &IngestOptions{}
	}

	parts, err := splitText(text, p.chunkSize, p.chunkOverlap)
	if err != nil {
		return nil, err
	}
	if len(parts) == 0 {
		return nil, ErrEmptyDocument
	}

	vectors, err := p.embedParts(ctx, parts)
	if err != nil {
		return nil, err
	}

	timestamp := opts.Timestamp
	if timestamp.IsZero() {
		timestamp = time.Now().UTC()
	}

	chunks := make([]*core.Chunk, len(parts))
	for i, part := range parts {
		chunks[i] = &core.Chunk{
			Index:     i,
			Content:   part,
			Vector:    reindex.NormalizeVector(vectors[i]),
			CreatedAt: timestamp,
		}
	}

	document := &core.Document{
		WorkspaceId: workspaceID,
		Source:      source,
		CreatedAt:   timestamp,
	}

	added, err := p.chunkRepository.AddDocument(ctx, document, chunks)
	if err != nil {
		return nil, err
	}

	p.logger.Info("document ingested",
		"workspace", workspaceID,
		"source", source,
		"chunks", len(chunks))

	return added, nil
}

// embedParts embeds chunk texts in batches on the worker pool. The first
// batch error wins; vectors come back aligned with the input order.
func (p *Pipeline) embedParts(ctx context.Context, parts []string) ([][]float32, error) {
	vectors := make([][]float32, len(parts))

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		firstErr error
	)

	for start := 0; start < len(parts); start += embedBatchSize {
		end := start + embedBatchSize
		if end > len(parts) {
			end = len(parts)
		}

		batchStart, batch := start, parts[start:end]
		wg.Add(1)
		job := func() {
			defer wg.Done()
			embeddings, err := p.embedder.EmbedTexts(ctx, batch)
			if err == nil && len(embeddings) != len(batch) {
				err = ai.ErrInvalidResponse
			}
			if err != nil {
				mu.Lock()
				if firstErr == nil {
					firstErr = err
				}
				mu.Unlock()
				return
			}
			for i, vector := range embeddings {
				vectors[batchStart+i] = vector
			}
		}
		if submitErr := p.embeddingPool.Submit(job); submitErr != nil {
			// Pool saturated or released, run inline
			job()
		}
	}
	wg.Wait()

	if firstErr != nil {
		return nil, firstErr
	}
	return vectors, nil
}

// Release releases resources including the worker pool.
// The pipeline should not be used after calling Release.
func (p *Pipeline) Release() {
	if p.embeddingPool != nil {
		p.embeddingPool.Release()
	}
}
