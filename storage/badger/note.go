package badger

import (
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/querent/core"
	"github.com/poiesic/querent/storage"
)

// NoteRepository implements storage.NoteRepository for BadgerDB.
type NoteRepository struct {
	backend *Backend
}

var _ storage.NoteRepository = (*NoteRepository)(nil)

// newNoteRepository creates a NoteRepository, returning the concrete type.
func newNoteRepository(backend *Backend) *NoteRepository {
	return &NoteRepository{backend: backend}
}

// NewNoteRepository creates a new NoteRepository.
//
// Returns storage.NoteRepository interface to enforce abstraction.
func NewNoteRepository(backend *Backend) (storage.NoteRepository, error) {
	return newNoteRepository(backend), nil
}

// Close releases resources. NoteRepository has no resources to release.
func (r *NoteRepository) Close() error {
	return nil
}

// WithTransaction delegates to the backend.
func (r *NoteRepository) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return r.backend.WithTransaction(ctx, fn)
}

// AddNotes adds one or more notes to storage.
func (r *NoteRepository) AddNotes(ctx context.Context, notes ...*core.Note) ([]*core.Note, error) {
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		for _, note := range notes {
			if note.CreatedAt.IsZero() {
				note.CreatedAt = time.Now().UTC()
			}
			// Use content-based ID if not set
			if note.Id == 0 {
				note.Id = core.IDFromContent(fmt.Sprintf("%s:%s:%d", note.WorkspaceId, note.Question, note.CreatedAt.UnixMicro()))
			}
			if err := core.ValidateNote(note); err != nil {
				return err
			}

			// Store primary record
			if err := tx.Set(makeNoteKey(note.Id), storage.MarshalNote(note)); err != nil {
				return err
			}

			// Update workspace note index
			wsKey := makeNoteWorkspaceKey(note.WorkspaceId, note.CreatedAt, note.Id)
			if err := tx.Set(wsKey, storage.MarshalID(note.Id)); err != nil {
				return err
			}
		}
		return tx.Commit()
	}, true)

	return notes, err
}

// GetNote retrieves a single note by ID.
func (r *NoteRepository) GetNote(ctx context.Context, id core.ID) (*core.Note, error) {
	var result *core.Note
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		var err error
		result, err = readNote(tx, makeNoteKey(id))
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

// ListNotes retrieves notes in a workspace created within a time range.
func (r *NoteRepository) ListNotes(ctx context.Context, workspaceID string, start, end time.Time) ([]*core.Note, error) {
	if !workspaceKeySafe(workspaceID) {
		return nil, nil
	}
	if start.Equal(end) {
		end = start.Add(1 * time.Microsecond)
	}

	var results []*core.Note
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		startKey := makePartialNoteWorkspaceKey(workspaceID, start)
		endKey := makePartialNoteWorkspaceKey(workspaceID, end)
		iter := tx.NewIterator(badger.DefaultIteratorOptions)
		defer iter.Close()

		for iter.Seek(startKey); iter.Valid(); iter.Next() {
			key := iter.Item().Key()
			if slices.Compare(key, endKey) > 0 {
				break
			}

			var noteID core.ID
			if err := iter.Item().Value(func(val []byte) error {
				var err error
				noteID, err = storage.UnmarshalID(val)
				return err
			}); err != nil {
				return err
			}

			note, err := readNote(tx, makeNoteKey(noteID))
			if err != nil {
				return err
			}
			if note != nil {
				results = append(results, note)
			}
		}
		return nil
	}, false)

	return results, err
}

// DeleteNotes removes notes by their IDs.
func (r *NoteRepository) DeleteNotes(ctx context.Context, ids ...core.ID) error {
	return r.backend.WithTx(func(tx *badger.Txn) error {
		for _, id := range ids {
			note, err := readNote(tx, makeNoteKey(id))
			if err != nil {
				return err
			}
			if note == nil {
				return storage.ErrNotFound
			}

			// Delete from workspace index
			wsKey := makeNoteWorkspaceKey(note.WorkspaceId, note.CreatedAt, note.Id)
			if err := tx.Delete(wsKey); err != nil {
				return err
			}

			// Delete primary record
			if err := tx.Delete(makeNoteKey(id)); err != nil {
				return err
			}
		}
		return tx.Commit()
	}, true)
}

// readNote reads a note from the transaction.
func readNote(tx *badger.Txn, key []byte) (*core.Note, error) {
	item, err := tx.Get(key)
	if err != nil {
		if err == badger.ErrKeyNotFound {
			return nil, nil
		}
		return nil, err
	}

	var note *core.Note
	err = item.Value(func(val []byte) error {
		var unmarshalErr error
		note, unmarshalErr = storage.UnmarshalNote(val)
		return unmarshalErr
	})
	return note, err
}
