package core

//go:generate go run ../cmd/musgen

import (
	"encoding/binary"
	"time"

	"github.com/go-crypt/x/blake2b"
)

// ID is a unique identifier for domain entities.
// It is generated using content-based hashing or database sequences.
type ID uint64

// IDFromContent generates a deterministic ID from text content using BLAKE2b hashing.
// This ensures that identical content produces identical IDs.
func IDFromContent(text string) ID {
	h, _ := blake2b.New(8, nil) // 8 bytes = 64 bits
	h.Write([]byte(text))
	sum := h.Sum(nil)
	return ID(binary.LittleEndian.Uint64(sum))
}

// Document represents one ingested source file within a workspace.
type Document struct {
	Id          ID
	WorkspaceId string
	Source      string // Display label, typically the original file name
	CreatedAt   time.Time
}

// Chunk is an immutable unit of retrievable evidence: a span of document
// text with an embedding and a position within its source document.
// Chunks are produced once at ingestion time and never mutated afterwards;
// the pipeline only annotates them transiently via ScoredCandidate.
type Chunk struct {
	Id         ID
	DocumentId ID
	Index      int // Ordinal position within the document
	Content    string
	Source     string    // Inherited from the document at ingestion time
	Vector     []float32 // Embedding vector for semantic search
	CreatedAt  time.Time
}

// Note is a saved question/answer pair with the evidence it was based on.
type Note struct {
	Id          ID
	WorkspaceId string
	Question    string
	Answer      string
	Sources     []EvidenceRef
	CreatedAt   time.Time
}

// EvidenceRef points at a chunk that backed an answer.
type EvidenceRef struct {
	ChunkId    ID
	DocumentId ID
	Index      int
	Source     string
}

// ScoredCandidate wraps a chunk with the transient scores computed during
// one pipeline run. Distance is lower-is-better (similarity ranking source);
// FusedScore is the higher-is-better cross-source rank fusion value.
// Neither field is part of the chunk's persistent identity.
type ScoredCandidate struct {
	Chunk      *Chunk
	Distance   float64
	FusedScore float64
}

// Ref returns an EvidenceRef for the candidate's chunk.
func (c *ScoredCandidate) Ref() EvidenceRef {
	return EvidenceRef{
		ChunkId:    c.Chunk.Id,
		DocumentId: c.Chunk.DocumentId,
		Index:      c.Chunk.Index,
		Source:     c.Chunk.Source,
	}
}

// VectorMatch is a chunk matched by vector similarity search.
// Distance is lower-is-better (cosine distance).
type VectorMatch struct {
	Chunk    *Chunk
	Distance float64
}

// TextMatch is a chunk matched by lexical full-text search.
// Relevance is higher-is-better.
type TextMatch struct {
	Chunk     *Chunk
	Relevance float64
}
