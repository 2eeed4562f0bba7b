package badger

import (
	"context"
	"encoding/binary"
	"fmt"
	"slices"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/querent/core"
	"github.com/poiesic/querent/storage"
)

// ChunkRepository implements storage.ChunkRepository for BadgerDB.
type ChunkRepository struct {
	backend *Backend
}

var _ storage.ChunkRepository = (*ChunkRepository)(nil)

// newChunkRepository creates a ChunkRepository, returning the concrete type.
func newChunkRepository(backend *Backend) *ChunkRepository {
	return &ChunkRepository{backend: backend}
}

// NewChunkRepository creates a new ChunkRepository.
//
// Returns storage.ChunkRepository interface to enforce abstraction.
func NewChunkRepository(backend *Backend) (storage.ChunkRepository, error) {
	return newChunkRepository(backend), nil
}

// Close releases resources. ChunkRepository has no resources to release.
func (r *ChunkRepository) Close() error {
	return nil
}

// WithTransaction delegates to the backend.
func (r *ChunkRepository) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return r.backend.WithTransaction(ctx, fn)
}

// FindSimilar delegates to the backend.
func (r *ChunkRepository) FindSimilar(ctx context.Context, workspaceID string, vector []float32, limit int) ([]*core.VectorMatch, error) {
	return r.backend.FindSimilar(ctx, workspaceID, vector, limit)
}

// AddDocument stores a document together with its chunks and writes the
// secondary indexes used for retrieval.
func (r *ChunkRepository) AddDocument(ctx context.Context, document *core.Document, chunks []*core.Chunk) (*core.Document, error) {
	if err := core.ValidateDocument(document); err != nil {
		return nil, err
	}

	err := r.backend.WithTx(func(tx *badger.Txn) error {
		// Use content-based ID if not set
		if document.Id == 0 {
			document.Id = core.IDFromContent(document.WorkspaceId + ":" + document.Source)
		}
		if document.CreatedAt.IsZero() {
			document.CreatedAt = time.Now().UTC()
		}

		// Store primary document record
		if err := tx.Set(makeDocumentKey(document.Id), storage.MarshalDocument(document)); err != nil {
			return err
		}

		// Update workspace document index
		wsKey := makeDocumentWorkspaceKey(document.WorkspaceId, document.CreatedAt, document.Id)
		if err := tx.Set(wsKey, storage.MarshalID(document.Id)); err != nil {
			return err
		}

		for _, chunk := range chunks {
			chunk.DocumentId = document.Id
			if chunk.Source == "" {
				chunk.Source = document.Source
			}
			if chunk.Id == 0 {
				chunk.Id = core.IDFromContent(fmt.Sprintf("%d:%d:%s", document.Id, chunk.Index, chunk.Content))
			}
			if chunk.CreatedAt.IsZero() {
				chunk.CreatedAt = document.CreatedAt
			}
			if err := core.ValidateChunk(chunk); err != nil {
				return err
			}

			// Store primary chunk record
			if err := tx.Set(makeChunkKey(chunk.Id), storage.MarshalChunk(chunk)); err != nil {
				return err
			}

			// Update document chunk index
			docKey := makeChunkDocumentKey(chunk.DocumentId, chunk.Index)
			if err := tx.Set(docKey, storage.MarshalID(chunk.Id)); err != nil {
				return err
			}

			// Update workspace chunk index
			chuwsKey := makeChunkWorkspaceKey(document.WorkspaceId, chunk.Id)
			if err := tx.Set(chuwsKey, storage.MarshalID(chunk.Id)); err != nil {
				return err
			}

			// Update lexical term index
			if err := writeTermPostings(tx, document.WorkspaceId, chunk); err != nil {
				return err
			}
		}
		return tx.Commit()
	}, true)

	return document, err
}

// DeleteDocument removes a document, its chunks and their index entries.
func (r *ChunkRepository) DeleteDocument(ctx context.Context, workspaceID string, id core.ID) error {
	return r.backend.WithTx(func(tx *badger.Txn) error {
		document, err := readDocument(tx, makeDocumentKey(id))
		if err != nil {
			return err
		}
		if document == nil {
			return storage.ErrNotFound
		}

		// Delete chunks through the document chunk index
		opts := badger.DefaultIteratorOptions
		opts.Prefix = makeChunkDocumentPrefix(id)
		iter := tx.NewIterator(opts)

		var chunkIDs []core.ID
		var indexKeys [][]byte
		for iter.Rewind(); iter.Valid(); iter.Next() {
			indexKeys = append(indexKeys, iter.Item().KeyCopy(nil))
			var chunkID core.ID
			if err := iter.Item().Value(func(val []byte) error {
				var err error
				chunkID, err = storage.UnmarshalID(val)
				return err
			}); err != nil {
				iter.Close()
				return err
			}
			chunkIDs = append(chunkIDs, chunkID)
		}
		iter.Close()

		for _, chunkID := range chunkIDs {
			chunk, err := readChunk(tx, makeChunkKey(chunkID))
			if err != nil {
				return err
			}
			if chunk == nil {
				continue
			}
			if err := deleteTermPostings(tx, workspaceID, chunk); err != nil {
				return err
			}
			if err := tx.Delete(makeChunkWorkspaceKey(workspaceID, chunkID)); err != nil {
				return err
			}
			if err := tx.Delete(makeChunkKey(chunkID)); err != nil {
				return err
			}
		}
		for _, key := range indexKeys {
			if err := tx.Delete(key); err != nil {
				return err
			}
		}

		// Delete document index and primary record
		wsKey := makeDocumentWorkspaceKey(workspaceID, document.CreatedAt, document.Id)
		if err := tx.Delete(wsKey); err != nil {
			return err
		}
		if err := tx.Delete(makeDocumentKey(id)); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
}

// GetChunk retrieves a single chunk by ID.
func (r *ChunkRepository) GetChunk(ctx context.Context, id core.ID) (*core.Chunk, error) {
	var result *core.Chunk
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		var err error
		result, err = readChunk(tx, makeChunkKey(id))
		if err != nil {
			return err
		}
		if result == nil {
			return storage.ErrNotFound
		}
		return nil
	}, false)
	return result, err
}

// GetChunks retrieves multiple chunks by their IDs.
func (r *ChunkRepository) GetChunks(ctx context.Context, ids ...core.ID) ([]*core.Chunk, error) {
	var result []*core.Chunk
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		for _, id := range ids {
			chunk, err := readChunk(tx, makeChunkKey(id))
			if err != nil {
				return err
			}
			if chunk != nil {
				result = append(result, chunk)
			}
		}
		return nil
	}, false)
	return result, err
}

// GetDocuments retrieves all documents in a workspace, ordered by creation
// time ascending.
func (r *ChunkRepository) GetDocuments(ctx context.Context, workspaceID string) ([]*core.Document, error) {
	if !workspaceKeySafe(workspaceID) {
		return nil, nil
	}
	var results []*core.Document
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = makeDocumentWorkspacePrefix(workspaceID)
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			var documentID core.ID
			if err := iter.Item().Value(func(val []byte) error {
				var err error
				documentID, err = storage.UnmarshalID(val)
				return err
			}); err != nil {
				return err
			}

			document, err := readDocument(tx, makeDocumentKey(documentID))
			if err != nil {
				return err
			}
			if document != nil {
				results = append(results, document)
			}
		}
		return nil
	}, false)
	return results, err
}

// GetDocumentChunks retrieves the chunks of a document ordered by position.
func (r *ChunkRepository) GetDocumentChunks(ctx context.Context, documentID core.ID) ([]*core.Chunk, error) {
	var results []*core.Chunk
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = makeChunkDocumentPrefix(documentID)
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			var chunkID core.ID
			if err := iter.Item().Value(func(val []byte) error {
				var err error
				chunkID, err = storage.UnmarshalID(val)
				return err
			}); err != nil {
				return err
			}

			chunk, err := readChunk(tx, makeChunkKey(chunkID))
			if err != nil {
				return err
			}
			if chunk != nil {
				results = append(results, chunk)
			}
		}
		return nil
	}, false)
	return results, err
}

// ListWorkspaces returns the distinct workspace identifiers that contain
// at least one document.
func (r *ChunkRepository) ListWorkspaces(ctx context.Context) ([]string, error) {
	seen := make(map[string]bool)
	var results []string
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(documentWorkspacePrefix + ":")
		opts.PrefetchValues = false
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			key := string(iter.Item().Key())
			// Key format: docws:<workspace>:<timestamp><id>
			// The suffix is a ":" plus 16 binary bytes which may themselves
			// contain the separator byte, so trim by length not by search.
			rest := key[len(documentWorkspacePrefix)+1:]
			if len(rest) < 17 {
				continue
			}
			workspace := rest[:len(rest)-17]
			if !seen[workspace] {
				seen[workspace] = true
				results = append(results, workspace)
			}
		}
		return nil
	}, false)
	if err != nil {
		return nil, err
	}
	slices.Sort(results)
	return results, nil
}

// CountChunks returns the number of chunks stored in a workspace.
func (r *ChunkRepository) CountChunks(ctx context.Context, workspaceID string) (int, error) {
	if !workspaceKeySafe(workspaceID) {
		return 0, nil
	}
	count := 0
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = makeChunkWorkspacePrefix(workspaceID)
		opts.PrefetchValues = false
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			count++
		}
		return nil
	}, false)
	return count, err
}

// SearchText finds chunks whose content matches terms of the query.
// Relevance is the summed term frequency of matched query tokens, so
// chunks matching more query terms more often rank higher.
func (r *ChunkRepository) SearchText(ctx context.Context, workspaceID string, query string, limit int) ([]*core.TextMatch, error) {
	if !workspaceKeySafe(workspaceID) {
		return nil, nil
	}
	tokens := core.TokenizeFiltered(query)
	if len(tokens) == 0 {
		return nil, nil
	}

	scores := make(map[core.ID]float64)
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		seen := make(map[string]bool)
		for _, token := range tokens {
			if seen[token] {
				continue
			}
			seen[token] = true

			opts := badger.DefaultIteratorOptions
			opts.Prefix = makeTermPostingPrefix(workspaceID, token)
			iter := tx.NewIterator(opts)

			for iter.Rewind(); iter.Valid(); iter.Next() {
				key := iter.Item().Key()
				chunkID, err := chunkIDFromPostingKey(key)
				if err != nil {
					iter.Close()
					return err
				}
				var tf core.ID
				if err := iter.Item().Value(func(val []byte) error {
					var err error
					tf, err = storage.UnmarshalID(val)
					return err
				}); err != nil {
					iter.Close()
					return err
				}
				scores[chunkID] += float64(tf)
			}
			iter.Close()
		}
		return nil
	}, false)
	if err != nil {
		return nil, err
	}
	if len(scores) == 0 {
		return nil, nil
	}

	type scored struct {
		id    core.ID
		score float64
	}
	ranked := make([]scored, 0, len(scores))
	for id, score := range scores {
		ranked = append(ranked, scored{id: id, score: score})
	}
	slices.SortFunc(ranked, func(a, b scored) int {
		if a.score > b.score {
			return -1
		}
		if a.score < b.score {
			return 1
		}
		// Stable order for equal scores
		if a.id < b.id {
			return -1
		}
		if a.id > b.id {
			return 1
		}
		return 0
	})
	if len(ranked) > limit {
		ranked = ranked[:limit]
	}

	var results []*core.TextMatch
	err = r.backend.WithTx(func(tx *badger.Txn) error {
		for _, entry := range ranked {
			chunk, err := readChunk(tx, makeChunkKey(entry.id))
			if err != nil {
				return err
			}
			if chunk != nil {
				results = append(results, &core.TextMatch{Chunk: chunk, Relevance: entry.score})
			}
		}
		return nil
	}, false)
	return results, err
}

// IterateChunks streams every stored chunk to fn in key order.
func (r *ChunkRepository) IterateChunks(ctx context.Context, fn func(chunk *core.Chunk) error) error {
	return r.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(chunkRecordPrefix + ":")
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}
			var chunk *core.Chunk
			if err := iter.Item().Value(func(val []byte) error {
				var err error
				chunk, err = storage.UnmarshalChunk(val)
				return err
			}); err != nil {
				return err
			}
			if chunk == nil {
				continue
			}
			if err := fn(chunk); err != nil {
				return err
			}
		}
		return nil
	}, false)
}

// UpdateChunkVectors replaces the stored vectors of existing chunks.
func (r *ChunkRepository) UpdateChunkVectors(ctx context.Context, chunks ...*core.Chunk) error {
	return r.backend.WithTx(func(tx *badger.Txn) error {
		for _, chunk := range chunks {
			key := makeChunkKey(chunk.Id)
			old, err := readChunk(tx, key)
			if err != nil {
				return err
			}
			if old == nil {
				return storage.ErrNotFound
			}
			old.Vector = chunk.Vector
			if err := tx.Set(key, storage.MarshalChunk(old)); err != nil {
				return err
			}
		}
		return tx.Commit()
	}, true)
}

// Helper functions

// readDocument reads a document from the transaction.
func readDocument(tx *badger.Txn, key []byte) (*core.Document, error) {
	item, err := tx.Get(key)
	if err != nil {
		if err == badger.ErrKeyNotFound {
			return nil, nil
		}
		return nil, err
	}

	var document *core.Document
	err = item.Value(func(val []byte) error {
		var unmarshalErr error
		document, unmarshalErr = storage.UnmarshalDocument(val)
		return unmarshalErr
	})
	return document, err
}

// readChunk reads a chunk from the transaction.
func readChunk(tx *badger.Txn, key []byte) (*core.Chunk, error) {
	item, err := tx.Get(key)
	if err != nil {
		if err == badger.ErrKeyNotFound {
			return nil, nil
		}
		return nil, err
	}

	var chunk *core.Chunk
	err = item.Value(func(val []byte) error {
		var unmarshalErr error
		chunk, unmarshalErr = storage.UnmarshalChunk(val)
		return unmarshalErr
	})
	return chunk, err
}

// writeTermPostings adds lexical index entries for a chunk's content.
func writeTermPostings(tx *badger.Txn, workspaceID string, chunk *core.Chunk) error {
	for token, tf := range core.TermFrequencies(chunk.Content) {
		key := makeTermPostingKey(workspaceID, token, chunk.Id)
		if err := tx.Set(key, storage.MarshalID(core.ID(tf))); err != nil {
			return err
		}
	}
	return nil
}

// deleteTermPostings removes lexical index entries for a chunk's content.
func deleteTermPostings(tx *badger.Txn, workspaceID string, chunk *core.Chunk) error {
	for token := range core.TermFrequencies(chunk.Content) {
		key := makeTermPostingKey(workspaceID, token, chunk.Id)
		if err := tx.Delete(key); err != nil {
			return err
		}
	}
	return nil
}

// chunkIDFromPostingKey extracts the trailing chunk ID from a term posting key.
func chunkIDFromPostingKey(key []byte) (core.ID, error) {
	if len(key) < 8 {
		return 0, storage.ErrTruncatedData
	}
	return core.ID(binary.BigEndian.Uint64(key[len(key)-8:])), nil
}
