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


package core

import (
	"fmt"
	"strings"
)

// ValidateDocument validates a Document according to domain rules.
//
// Validation rules:
//   - WorkspaceId must not be empty and must not contain ':', the
//     storage key separator
//   - Source must not be empty
//
// NOT validated:
//   - ID (0 is valid from database sequences)
func ValidateDocument(doc *Document) error {
	if doc == nil {
		return fmt.Errorf("%w: document is nil", ErrInvalidDocument)
	}

	if doc.WorkspaceId == "" {
		return fmt.Errorf("%w: %w", ErrInvalidDocument, ErrEmptyWorkspace)
	}

	if strings.Contains(doc.WorkspaceId, ":") {
		return fmt.Errorf("%w: %w", ErrInvalidDocument, ErrWorkspaceSeparator)
	}

	if doc.Source == "" {
		return fmt.Errorf("%w: %w", ErrInvalidDocument, ErrEmptySource)
	}

	return nil
}

// ValidateChunk validates a Chunk according to domain rules.
//
// Validation rules:
//   - Content must not be empty
//   - Index must not be negative
//
// NOT validated (populated at ingestion time):
//   - Vector (can be empty until the embedder runs)
//   - ID and DocumentId (0 is valid from database sequences)
func ValidateChunk(chunk *Chunk) error {
	if chunk == nil {
		return fmt.Errorf("%w: chunk is nil", ErrInvalidChunk)
	}

	if chunk.Content == "" {
		return fmt.Errorf("%w: %w", ErrInvalidChunk, ErrEmptyContent)
	}

	if chunk.Index < 0 {
		return fmt.Errorf("%w: %w", ErrInvalidChunk, ErrNegativeIndex)
	}

	return nil
}

// ValidateNote validates a Note according to domain rules.
//
// Validation rules:
//   - WorkspaceId must not be empty and must not contain ':', the
//     storage key separator
//   - Question must not be empty
func ValidateNote(note *Note) error {
	if note == nil {
		return fmt.Errorf("%w: note is nil", ErrInvalidNote)
	}

	if note.WorkspaceId == "" {
		return fmt.Errorf("%w: %w", ErrInvalidNote, ErrEmptyWorkspace)
	}

	if strings.Contains(note.WorkspaceId, ":") {
		return fmt.Errorf("%w: %w", ErrInvalidNote, ErrWorkspaceSeparator)
	}

	if note.Question == "" {
		return fmt.Errorf("%w: %w", ErrInvalidNote, ErrEmptyQuestion)
	}

	return nil
}
