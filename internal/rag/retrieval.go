package rag

import (
	"context"
	"fmt"
)

// Retriever provides semantic retrieval over indexed evaluations.
type Retriever struct {
	embedder    Embedder
	vectorStore VectorStore
}

// NewRetriever creates a new Retriever instance.
func NewRetriever(embedder Embedder, vectorStore VectorStore) (*Retriever, error) {
	if embedder == nil {
		return nil, fmt.Errorf("embedder cannot be nil")
	}
	if vectorStore == nil {
		return nil, fmt.Errorf("vector store cannot be nil")
	}

	return &Retriever{
		embedder:    embedder,
		vectorStore: vectorStore,
	}, nil
}

// RetrieveContextForQuery performs semantic search using a free-text query.
func (r *Retriever) RetrieveContextForQuery(
	ctx context.Context,
	query string,
	topK int,
	opts *SearchOptions,
) ([]ContextChunk, error) {
	if query == "" {
		return nil, fmt.Errorf("query cannot be empty")
	}
	if topK <= 0 {
		return nil, fmt.Errorf("topK must be positive, got %d", topK)
	}

	vectors, err := r.embedder.Embed(ctx, []string{query})
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}
	if len(vectors) == 0 {
		return nil, fmt.Errorf("no embedding generated for query")
	}

	chunks, err := r.vectorStore.Search(ctx, vectors[0].Embedding, topK, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to search for query: %w", err)
	}

	return chunks, nil
}

// Retrieve returns the ids of the topK calls of dataset most similar to
// query, best first. An empty dataset searches every dataset.
func (r *Retriever) Retrieve(ctx context.Context, query, dataset string, topK int) ([]string, error) {
	var opts *SearchOptions
	if dataset != "" {
		opts = &SearchOptions{Dataset: dataset}
	}

	chunks, err := r.RetrieveContextForQuery(ctx, query, topK, opts)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]bool, len(chunks))
	ids := make([]string, 0, len(chunks))
	for _, ch := range chunks {
		if ch.CallID == "" || seen[ch.CallID] {
			continue
		}
		seen[ch.CallID] = true
		ids = append(ids, ch.CallID)
	}
	return ids, nil
}
