package ingestion

import "errors"

var (
	// ErrChunkRepositoryRequired is returned when a chunk repository is not provided.
	ErrChunkRepositoryRequired = errors.New("chunk repository required")

	// ErrAIProviderRequired is returned when an AI provider is not provided.
	ErrAIProviderRequired = errors.New("AI provider required")

	// ErrEmptyDocument is returned when the document text contains nothing to index.
	ErrEmptyDocument = errors.New("document text is empty")

	// ErrEmptyWorkspace is returned when no workspace identifier is provided.
	ErrEmptyWorkspace = errors.New("workspace identifier required")
)
