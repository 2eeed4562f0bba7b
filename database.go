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

package querent

import (
	"context"
	"io"
	"log/slog"

	"github.com/poiesic/querent/ai"
	"github.com/poiesic/querent/ai/openai"
	"github.com/poiesic/querent/ingestion"
	"github.com/poiesic/querent/pipeline"
	"github.com/poiesic/querent/reindex"
	"github.com/poiesic/querent/storage"
	"github.com/poiesic/querent/storage/badger"
)

// Database bundles the storage backend, its repositories, and the AI
// provider behind one open/close lifecycle.
type Database struct {
	backend   *badger.Backend
	chunkRepo storage.ChunkRepository
	noteRepo  storage.NoteRepository
	provider  ai.AIProvider
	logger    *slog.Logger
}

// DatabaseOption configures a Database.
type DatabaseOption func(*databaseOptions)

type databaseOptions struct {
	aiConfig *ai.Config
	provider ai.AIProvider
}

// WithAIConfig overrides the AI provider configuration.
func WithAIConfig(config *ai.Config) DatabaseOption {
	return func(o *databaseOptions) {
		if config != nil {
			o.aiConfig = config
		}
	}
}

// WithAIProvider supplies a ready provider instead of building the default
// OpenAI-compatible one. Useful for tests and offline tooling.
func WithAIProvider(provider ai.AIProvider) DatabaseOption {
	return func(o *databaseOptions) {
		o.provider = provider
	}
}

func NewDatabase(filePath string, opts ...DatabaseOption) (*Database, error) {
	// Apply options
	options := &databaseOptions{
		aiConfig: ai.DefaultConfig(), // Default if not provided
	}
	for _, opt := range opts {
		opt(options)
	}

	// Open backend
	backend, err := badger.OpenBackend(filePath, false)
	if err != nil {
		return nil, err
	}

	// Create chunk repository
	chunkRepo, err := badger.NewChunkRepository(backend)
	if err != nil {
		backend.Close()
		return nil, err
	}

	// Create note repository
	noteRepo, err := badger.NewNoteRepository(backend)
	if err != nil {
		chunkRepo.Close()
		backend.Close()
		return nil, err
	}

	// Create AI provider with configured settings
	provider := options.provider
	if provider == nil {
		provider, err = openai.NewProvider(options.aiConfig)
		if err != nil {
			noteRepo.Close()
			chunkRepo.Close()
			backend.Close()
			return nil, err
		}
	}

	return &Database{
		backend:   backend,
		chunkRepo: chunkRepo,
		noteRepo:  noteRepo,
		provider:  provider,
		logger:    slog.Default(),
	}, nil
}

func (db *Database) Close() error {
	// Close AI provider first
	if err := db.provider.Close(); err != nil {
		db.logger.Error("error closing AI provider", "err", err)
	}

	// Close repositories
	if err := db.noteRepo.Close(); err != nil {
		db.logger.Error("error closing note repository", "err", err)
		return err
	}
	if err := db.chunkRepo.Close(); err != nil {
		db.logger.Error("error closing chunk repository", "err", err)
		return err
	}

	// Close backend
	if err := db.backend.Close(); err != nil {
		db.logger.Error("error closing backend storage", "err", err)
		return err
	}
	return nil
}

func (db *Database) ChunkRepository() storage.ChunkRepository {
	return db.chunkRepo
}

func (db *Database) NoteRepository() storage.NoteRepository {
	return db.noteRepo
}

func (db *Database) NewPipeline(config *pipeline.Config, opts ...pipeline.Option) (*pipeline.Pipeline, error) {
	return pipeline.NewPipeline(db.chunkRepo, db.provider, config, opts...)
}

func (db *Database) NewIngestionPipeline(opts ...ingestion.Option) (*ingestion.Pipeline, error) {
	return ingestion.NewPipeline(db.chunkRepo, db.provider, opts...)
}

func (db *Database) NewReindexer(config *reindex.Config, progress io.Writer) *reindex.Reindexer {
	return reindex.NewReindexer(db.chunkRepo, db.provider.Embedder(), config, progress)
}

// AnswerQuestion runs a one-off pipeline over the workspace and returns the
// generated answer. Callers who ask repeatedly should hold a Pipeline
// instead.
func (db *Database) AnswerQuestion(ctx context.Context, workspaceID, question string, mode pipeline.Mode) (*pipeline.Answer, error) {
	p, err := db.NewPipeline(nil)
	if err != nil {
		return nil, err
	}
	defer p.Release()
	return p.AnswerQuestion(ctx, workspaceID, question, mode, "")
}
