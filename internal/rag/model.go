// Package rag indexes call evaluations as embeddings so chat questions can be
// answered from the most relevant calls instead of the whole dataset.
package rag

import (
	"context"
)

// EvaluationRecord is one embedded call evaluation as stored in the vector store.
type EvaluationRecord struct {
	CallID    string    `json:"call_id"`
	Dataset   string    `json:"dataset"`
	Text      string    `json:"text"`
	Embedding []float32 `json:"embedding"`
}

// Document is an evaluation ready to be embedded.
type Document struct {
	CallID  string `json:"call_id"`
	Dataset string `json:"dataset"`
	Text    string `json:"text"`
}

// SearchOptions narrows a similarity search.
type SearchOptions struct {
	Dataset string   `json:"dataset,omitempty"`  // Restrict to one dataset
	CallIDs []string `json:"call_ids,omitempty"` // Restrict to specific calls
}

// ContextChunk is a retrieved evaluation with its similarity score.
type ContextChunk struct {
	CallID  string  `json:"call_id"`
	Dataset string  `json:"dataset"`
	Text    string  `json:"text"`
	Score   float32 `json:"score"` // Cosine similarity
}

// VectorStore defines storage and similarity search over evaluation embeddings.
type VectorStore interface {
	// Insert stores multiple evaluations in a single operation
	Insert(ctx context.Context, records []EvaluationRecord) error

	// Flush ensures all pending data is persisted
	Flush(ctx context.Context) error

	// Search performs top-K similarity search with optional filtering
	Search(ctx context.Context, queryVector []float32, topK int, opts *SearchOptions) ([]ContextChunk, error)

	// Query reports which call IDs of a dataset are already stored
	Query(ctx context.Context, dataset string, callIDs []string) (map[string]bool, error)

	// Delete removes the given calls of a dataset
	Delete(ctx context.Context, dataset string, callIDs []string) error

	// GetStats returns collection statistics
	GetStats(ctx context.Context) (map[string]interface{}, error)

	// Close releases resources and closes connections
	Close() error
}

// IndexOptions controls evaluation indexing.
type IndexOptions struct {
	// BatchSize determines how many evaluations to embed at once
	BatchSize int

	// ForceReindex deletes and re-inserts evaluations even if they exist
	ForceReindex bool

	// SkipExisting skips evaluations already present in the store
	SkipExisting bool
}

// DefaultIndexOptions returns the defaults used by the index command.
func DefaultIndexOptions() IndexOptions {
	return IndexOptions{
		BatchSize:    16,
		ForceReindex: false,
		SkipExisting: true,
	}
}

// IndexStats summarizes one indexing run.
type IndexStats struct {
	Indexed int `json:"indexed"`
	Skipped int `json:"skipped"`
	Batches int `json:"batches"`
}
