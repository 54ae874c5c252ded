package rag

import (
	"context"
	"fmt"
	"strings"

	"github.com/Yates-Labs/auditbot/internal/dataset"
)

// DocumentsFromRecords turns eligible records into documents. Records without
// an evaluation are skipped.
func DocumentsFromRecords(records []dataset.Record) []Document {
	docs := make([]Document, 0, len(records))
	for _, r := range records {
		if !r.Eligible() {
			continue
		}
		text := strings.TrimSpace(r.Evaluation.AsText())
		if text == "" {
			continue
		}
		docs = append(docs, Document{CallID: r.ID, Dataset: r.Dataset, Text: text})
	}
	return docs
}

// IndexEvaluations embeds documents in batches and stores them.
// This function:
// 1. Deletes existing entries when ForceReindex is set
// 2. Otherwise drops documents already stored when SkipExisting is set
// 3. Embeds the remaining texts batch by batch
// 4. Inserts and flushes after each batch
func IndexEvaluations(
	ctx context.Context,
	docs []Document,
	embedder Embedder,
	vectorStore VectorStore,
	opts IndexOptions,
) (IndexStats, error) {
	var stats IndexStats
	if len(docs) == 0 {
		return stats, nil
	}

	if embedder == nil {
		return stats, fmt.Errorf("embedder cannot be nil")
	}

	if vectorStore == nil {
		return stats, fmt.Errorf("vector store cannot be nil")
	}

	if opts.BatchSize <= 0 {
		opts.BatchSize = DefaultIndexOptions().BatchSize
	}

	byDataset := groupByDataset(docs)

	if opts.ForceReindex {
		for ds, ids := range byDataset {
			if err := vectorStore.Delete(ctx, ds, ids); err != nil {
				return stats, fmt.Errorf("failed to delete existing evaluations of %s: %w", ds, err)
			}
		}
	}

	toIndex := docs
	if opts.SkipExisting && !opts.ForceReindex {
		toIndex = filterNewDocuments(ctx, docs, byDataset, vectorStore)
		stats.Skipped = len(docs) - len(toIndex)
	}

	for batchStart := 0; batchStart < len(toIndex); batchStart += opts.BatchSize {
		batchEnd := batchStart + opts.BatchSize
		if batchEnd > len(toIndex) {
			batchEnd = len(toIndex)
		}

		batch := toIndex[batchStart:batchEnd]

		texts := make([]string, len(batch))
		for i, doc := range batch {
			texts[i] = doc.Text
		}

		embeddings, err := embedder.Embed(ctx, texts)
		if err != nil {
			return stats, fmt.Errorf("failed to generate embeddings for batch starting at %d: %w", batchStart, err)
		}
		if len(embeddings) != len(batch) {
			return stats, fmt.Errorf("%w: expected %d embeddings, got %d", ErrEmbeddingFailed, len(batch), len(embeddings))
		}

		records := make([]EvaluationRecord, len(batch))
		for _, emb := range embeddings {
			if emb.Index < 0 || emb.Index >= len(batch) {
				return stats, fmt.Errorf("%w: embedding index %d out of range", ErrEmbeddingFailed, emb.Index)
			}
			doc := batch[emb.Index]
			records[emb.Index] = EvaluationRecord{
				CallID:    doc.CallID,
				Dataset:   doc.Dataset,
				Text:      doc.Text,
				Embedding: emb.Embedding,
			}
		}

		if err := vectorStore.Insert(ctx, records); err != nil {
			return stats, fmt.Errorf("failed to insert batch starting at %d: %w", batchStart, err)
		}

		if err := vectorStore.Flush(ctx); err != nil {
			return stats, fmt.Errorf("failed to flush batch starting at %d: %w", batchStart, err)
		}

		stats.Indexed += len(batch)
		stats.Batches++
	}

	return stats, nil
}

func groupByDataset(docs []Document) map[string][]string {
	out := make(map[string][]string)
	for _, d := range docs {
		out[d.Dataset] = append(out[d.Dataset], d.CallID)
	}
	return out
}

// filterNewDocuments removes documents that already exist in the vector store
func filterNewDocuments(
	ctx context.Context,
	docs []Document,
	byDataset map[string][]string,
	vectorStore VectorStore,
) []Document {
	existing := make(map[string]map[string]bool, len(byDataset))
	for ds, ids := range byDataset {
		found, err := vectorStore.Query(ctx, ds, ids)
		if err != nil {
			// If the lookup fails, index everything; duplicates only cost
			// a repeated hit at retrieval time.
			return docs
		}
		existing[ds] = found
	}

	fresh := make([]Document, 0, len(docs))
	for _, d := range docs {
		if !existing[d.Dataset][d.CallID] {
			fresh = append(fresh, d)
		}
	}
	return fresh
}
