// Package ingestion provides pipeline orchestration for adding documents
// to a workspace.
//
// The Pipeline type manages the ingestion workflow for documents, including:
//   - Splitting raw text into overlapping chunks
//   - Generating normalized embeddings concurrently
//   - Storing the document, chunks, and lexical index in one call
//
// Embedding is performed concurrently using a worker pool to maximize
// throughput. Any failure fails the whole ingest; nothing is stored partially.
package ingestion
