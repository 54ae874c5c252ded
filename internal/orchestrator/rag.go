package orchestrator

import (
	"context"
	"fmt"
	"strings"

	"github.com/Yates-Labs/auditbot/internal/config"
	"github.com/Yates-Labs/auditbot/internal/dataset"
	"github.com/Yates-Labs/auditbot/internal/logger"
	"github.com/Yates-Labs/auditbot/internal/rag"
	"github.com/sirupsen/logrus"
)

// DefaultTopK is how many similar calls feed a chat answer.
const DefaultTopK = 25

// minPinnedIDLength keeps short ids from matching ordinary words.
const minPinnedIDLength = 4

// Retrieval narrows chat context to the calls most similar to the question.
type Retrieval struct {
	embedder    rag.Embedder
	vectorStore rag.VectorStore
	retriever   *rag.Retriever
	topK        int
	log         *logger.Logger
}

// NewRetrieval wraps an embedder and vector store.
func NewRetrieval(embedder rag.Embedder, vectorStore rag.VectorStore, topK int, log *logger.Logger) (*Retrieval, error) {
	retriever, err := rag.NewRetriever(embedder, vectorStore)
	if err != nil {
		return nil, fmt.Errorf("failed to create retriever: %w", err)
	}
	if topK <= 0 {
		topK = DefaultTopK
	}
	if log == nil {
		log = logger.Discard()
	}
	return &Retrieval{
		embedder:    embedder,
		vectorStore: vectorStore,
		retriever:   retriever,
		topK:        topK,
		log:         log,
	}, nil
}

// OpenRetrieval connects the OpenAI embedder and the Milvus store.
func OpenRetrieval(ctx context.Context, cfg config.RetrievalConfig, apiKey string, log *logger.Logger) (*Retrieval, error) {
	embedder, err := rag.NewOpenAIEmbedder(apiKey, cfg.EmbedderModel, cfg.Dimension)
	if err != nil {
		return nil, fmt.Errorf("failed to create embedder: %w", err)
	}

	milvusCfg := cfg.Milvus
	milvusCfg.Dimension = embedder.Dimension()
	vectorStore, err := rag.NewMilvusStore(ctx, milvusCfg, log)
	if err != nil {
		return nil, fmt.Errorf("failed to create vector store: %w", err)
	}

	return NewRetrieval(embedder, vectorStore, cfg.TopK, log)
}

// Close releases the vector store connection.
func (r *Retrieval) Close() error {
	if r.vectorStore != nil {
		return r.vectorStore.Close()
	}
	return nil
}

// Stats reports vector store statistics.
func (r *Retrieval) Stats(ctx context.Context) (map[string]interface{}, error) {
	return r.vectorStore.GetStats(ctx)
}

// IndexInfo reports evaluation index statistics such as the row count.
func (a *Assistant) IndexInfo(ctx context.Context) (map[string]interface{}, error) {
	if a.retrieval == nil {
		return nil, ErrRetrievalDisabled
	}
	return a.retrieval.Stats(ctx)
}

// Index embeds the eligible evaluations of a dataset, or of every dataset
// when the name is empty. Existing calls are skipped unless force is set.
func (a *Assistant) Index(ctx context.Context, datasetName string, force bool) (rag.IndexStats, error) {
	if a.retrieval == nil {
		return rag.IndexStats{}, ErrRetrievalDisabled
	}

	var res dataset.Result
	if datasetName == "" {
		res = a.loader.Load("", 0)
	} else {
		_, res = a.load(datasetName, 0)
	}

	docs := rag.DocumentsFromRecords(res.Records)
	a.log.WithFields(logrus.Fields{
		"dataset":   datasetName,
		"documents": len(docs),
		"force":     force,
	}).Info("indexing evaluations")

	opts := rag.DefaultIndexOptions()
	opts.ForceReindex = force
	opts.SkipExisting = !force

	stats, err := rag.IndexEvaluations(ctx, docs, a.retrieval.embedder, a.retrieval.vectorStore, opts)
	if err != nil {
		return stats, fmt.Errorf("failed to index evaluations: %w", err)
	}

	a.log.WithFields(logrus.Fields{
		"indexed": stats.Indexed,
		"skipped": stats.Skipped,
		"batches": stats.Batches,
	}).Info("evaluations indexed")
	return stats, nil
}

// retrieve picks the loaded records most similar to question, best first.
// Calls whose id appears in the question are pinned ahead of the ranking.
// It reports false when retrieval fails or matches nothing so the caller
// keeps the full record set.
func (a *Assistant) retrieve(ctx context.Context, question, datasetName string, records []dataset.Record) ([]dataset.Record, bool) {
	ids, err := a.retrieval.retriever.Retrieve(ctx, question, datasetName, a.retrieval.topK)
	if err != nil {
		a.log.WithError(err).WithField("dataset", datasetName).Warn("retrieval failed, using full context")
		return nil, false
	}

	ids = append(pinnedIDs(question, records), ids...)
	selected := selectRecords(records, ids)
	if len(selected) == 0 {
		return nil, false
	}

	a.log.WithFields(logrus.Fields{
		"dataset":   datasetName,
		"retrieved": len(ids),
		"selected":  len(selected),
	}).Debug("chat context narrowed")
	return selected, true
}

// pinnedIDs returns the ids of records mentioned verbatim in question.
func pinnedIDs(question string, records []dataset.Record) []string {
	var ids []string
	for _, r := range records {
		if len(r.ID) >= minPinnedIDLength && strings.Contains(question, r.ID) {
			ids = append(ids, r.ID)
		}
	}
	return ids
}
