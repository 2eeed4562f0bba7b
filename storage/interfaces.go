package storage

import (
	"context"
	"time"

	"github.com/poiesic/querent/core"
)

// Repository provides common storage operations shared across all repositories.
// Implementations must be thread-safe and support concurrent access.
type Repository interface {
	// WithTransaction executes a function within a transaction.
	// If fn returns an error, the transaction is rolled back.
	// If fn returns nil, the transaction is committed.
	// The context passed to fn may contain transaction state.
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error

	// Close closes the storage backend and releases resources.
	Close() error
}

// ChunkRepository provides operations for managing documents and their chunks.
// All lookups are scoped to a single workspace.
type ChunkRepository interface {
	Repository
	// AddDocument stores a document together with its chunks.
	// For a document or chunks with ID=0, generates content-based IDs.
	// Sets CreatedAt timestamps if not already set.
	// Also writes the lexical term index for each chunk.
	// Returns the document with IDs and timestamps populated.
	AddDocument(ctx context.Context, document *core.Document, chunks []*core.Chunk) (*core.Document, error)

	// DeleteDocument removes a document, its chunks and their index entries.
	// Returns ErrNotFound if the document doesn't exist.
	DeleteDocument(ctx context.Context, workspaceID string, id core.ID) error

	// GetChunk retrieves a single chunk by ID.
	// Returns ErrNotFound if the chunk doesn't exist.
	GetChunk(ctx context.Context, id core.ID) (*core.Chunk, error)

	// GetChunks retrieves multiple chunks by their IDs.
	// Returns only the chunks that exist (no error for missing chunks).
	GetChunks(ctx context.Context, ids ...core.ID) ([]*core.Chunk, error)

	// GetDocuments retrieves all documents in a workspace, ordered by
	// creation time ascending.
	GetDocuments(ctx context.Context, workspaceID string) ([]*core.Document, error)

	// GetDocumentChunks retrieves the chunks of a document ordered by
	// their position within the document.
	GetDocumentChunks(ctx context.Context, documentID core.ID) ([]*core.Chunk, error)

	// ListWorkspaces returns the distinct workspace identifiers that
	// contain at least one document.
	ListWorkspaces(ctx context.Context) ([]string, error)

	// CountChunks returns the number of chunks stored in a workspace.
	CountChunks(ctx context.Context, workspaceID string) (int, error)

	// FindSimilar finds chunks in a workspace whose vectors are closest to
	// the given vector by cosine distance. Returns up to limit matches
	// ordered by distance (smallest first).
	FindSimilar(ctx context.Context, workspaceID string, vector []float32, limit int) ([]*core.VectorMatch, error)

	// SearchText finds chunks in a workspace whose content matches terms of
	// the query. Returns up to limit matches ordered by relevance
	// (highest first). An empty result is not an error.
	SearchText(ctx context.Context, workspaceID string, query string, limit int) ([]*core.TextMatch, error)

	// IterateChunks streams every stored chunk to fn in key order.
	// Iteration stops if fn returns an error, which is propagated.
	IterateChunks(ctx context.Context, fn func(chunk *core.Chunk) error) error

	// UpdateChunkVectors replaces the stored vectors of existing chunks.
	// Returns ErrNotFound if any chunk doesn't exist.
	UpdateChunkVectors(ctx context.Context, chunks ...*core.Chunk) error
}

// NoteRepository provides operations for managing saved question-answer notes.
type NoteRepository interface {
	Repository
	// AddNotes adds one or more notes to storage.
	// For notes with ID=0, generates content-based IDs.
	// Sets CreatedAt timestamps if not already set.
	// Returns the notes with IDs and timestamps populated.
	AddNotes(ctx context.Context, notes ...*core.Note) ([]*core.Note, error)

	// GetNote retrieves a single note by ID.
	// Returns ErrNotFound if the note doesn't exist.
	GetNote(ctx context.Context, id core.ID) (*core.Note, error)

	// ListNotes retrieves notes in a workspace created within a time range.
	// Returns notes where start <= CreatedAt < end, ordered by creation time.
	ListNotes(ctx context.Context, workspaceID string, start, end time.Time) ([]*core.Note, error)

	// DeleteNotes removes notes by their IDs.
	// Returns ErrNotFound if any note doesn't exist.
	DeleteNotes(ctx context.Context, ids ...core.ID) error
}
