package rag

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/Yates-Labs/auditbot/internal/logger"
	"github.com/cenkalti/backoff/v4"
	"github.com/milvus-io/milvus-sdk-go/v2/client"
	"github.com/milvus-io/milvus-sdk-go/v2/entity"
	"github.com/sirupsen/logrus"
)

// Common errors for Milvus operations
var (
	ErrInvalidDimension = errors.New("invalid vector dimension")
	ErrConnectionFailed = errors.New("failed to connect to Milvus")
	ErrInsertFailed     = errors.New("failed to insert records")
	ErrSearchFailed     = errors.New("failed to search vectors")
	ErrMissingCallID    = errors.New("record without call_id")
)

const (
	fieldCallID    = "call_id"
	fieldDataset   = "dataset"
	fieldText      = "text"
	fieldEmbedding = "embedding"

	// maxStoredRunes keeps text within the 65535-byte VARCHAR limit even
	// for four-byte runes.
	maxStoredRunes = 16000
)

// MilvusConfig holds configuration for Milvus connection and collection
type MilvusConfig struct {
	Address        string        `yaml:"address"`    // e.g. "localhost:19530"
	CollectionName string        `yaml:"collection"` // Name of the collection
	Dimension      int           `yaml:"dimension"`  // Must match the embedder
	IndexType      string        `yaml:"index_type"`
	MetricType     string        `yaml:"metric_type"`
	ConnectTimeout time.Duration `yaml:"connect_timeout"` // Total time spent retrying the connection

	// HNSW index parameters
	M              int `yaml:"m"`
	EfConstruction int `yaml:"ef_construction"`
	EfSearch       int `yaml:"ef_search"`
}

// DefaultMilvusConfig returns default configuration from environment variables
func DefaultMilvusConfig() MilvusConfig {
	address := os.Getenv("MILVUS_ADDRESS")
	if address == "" {
		address = "localhost:19530"
	}

	collection := os.Getenv("MILVUS_COLLECTION")
	if collection == "" {
		collection = "auditbot_evaluations"
	}

	return MilvusConfig{
		Address:        address,
		CollectionName: collection,
		Dimension:      DefaultEmbeddingDimension,
		IndexType:      "HNSW",
		MetricType:     "COSINE",
		ConnectTimeout: 30 * time.Second,
		M:              16,
		EfConstruction: 256,
		EfSearch:       64,
	}
}

// MilvusStore implements VectorStore using Milvus
type MilvusStore struct {
	client client.Client
	config MilvusConfig
	log    *logger.Logger
}

// NewMilvusStore connects to Milvus, retrying with exponential backoff, and
// ensures the collection exists with the evaluation schema.
func NewMilvusStore(ctx context.Context, config MilvusConfig, log *logger.Logger) (*MilvusStore, error) {
	if config.Dimension <= 0 {
		return nil, ErrInvalidDimension
	}
	if log == nil {
		log = logger.Discard()
	}

	c, err := connect(ctx, config, log)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConnectionFailed, err)
	}

	store := &MilvusStore{
		client: c,
		config: config,
		log:    log,
	}

	if err := store.ensureCollection(ctx); err != nil {
		c.Close()
		return nil, err
	}

	return store, nil
}

func connect(ctx context.Context, config MilvusConfig, log *logger.Logger) (client.Client, error) {
	bo := backoff.NewExponentialBackOff()
	if config.ConnectTimeout > 0 {
		bo.MaxElapsedTime = config.ConnectTimeout
	}

	var c client.Client
	op := func() error {
		var err error
		c, err = client.NewGrpcClient(ctx, config.Address)
		return err
	}
	notify := func(err error, wait time.Duration) {
		log.WithFields(logrus.Fields{
			"address": config.Address,
			"retry":   wait.String(),
		}).WithError(err).Warn("milvus not reachable, retrying")
	}

	if err := backoff.RetryNotify(op, backoff.WithContext(bo, ctx), notify); err != nil {
		return nil, err
	}
	return c, nil
}

// ensureCollection creates the collection with schema if it doesn't exist
func (m *MilvusStore) ensureCollection(ctx context.Context) error {
	has, err := m.client.HasCollection(ctx, m.config.CollectionName)
	if err != nil {
		return fmt.Errorf("failed to check collection existence: %w", err)
	}

	if has {
		return m.client.LoadCollection(ctx, m.config.CollectionName, false)
	}

	schema := &entity.Schema{
		CollectionName: m.config.CollectionName,
		Description:    "call evaluation embeddings",
		AutoID:         true,
		Fields: []*entity.Field{
			{
				Name:       "id",
				DataType:   entity.FieldTypeInt64,
				PrimaryKey: true,
				AutoID:     true,
			},
			{
				Name:     fieldCallID,
				DataType: entity.FieldTypeVarChar,
				TypeParams: map[string]string{
					"max_length": "256",
				},
			},
			{
				Name:     fieldDataset,
				DataType: entity.FieldTypeVarChar,
				TypeParams: map[string]string{
					"max_length": "128",
				},
			},
			{
				Name:     fieldText,
				DataType: entity.FieldTypeVarChar,
				TypeParams: map[string]string{
					"max_length": "65535",
				},
			},
			{
				Name:     fieldEmbedding,
				DataType: entity.FieldTypeFloatVector,
				TypeParams: map[string]string{
					"dim": strconv.Itoa(m.config.Dimension),
				},
			},
		},
	}

	if err := m.client.CreateCollection(ctx, schema, entity.DefaultShardNumber); err != nil {
		return fmt.Errorf("failed to create collection: %w", err)
	}

	idx, err := entity.NewIndexHNSW(entity.COSINE, m.config.M, m.config.EfConstruction)
	if err != nil {
		return fmt.Errorf("failed to create index config: %w", err)
	}

	if err := m.client.CreateIndex(ctx, m.config.CollectionName, fieldEmbedding, idx, false); err != nil {
		return fmt.Errorf("failed to create index: %w", err)
	}

	if err := m.client.LoadCollection(ctx, m.config.CollectionName, false); err != nil {
		return fmt.Errorf("failed to load collection: %w", err)
	}

	m.log.WithField("collection", m.config.CollectionName).Info("created milvus collection")
	return nil
}

// Insert adds evaluation records. Empty input is a no-op.
func (m *MilvusStore) Insert(ctx context.Context, records []EvaluationRecord) error {
	if len(records) == 0 {
		return nil
	}

	callIDs := make([]string, len(records))
	datasets := make([]string, len(records))
	texts := make([]string, len(records))
	embeddings := make([][]float32, len(records))

	for i, r := range records {
		if r.CallID == "" {
			return fmt.Errorf("%w at position %d", ErrMissingCallID, i)
		}
		if len(r.Embedding) != m.config.Dimension {
			return fmt.Errorf("%w: expected %d, got %d", ErrInvalidDimension, m.config.Dimension, len(r.Embedding))
		}
		callIDs[i] = r.CallID
		datasets[i] = r.Dataset
		texts[i] = truncateRunes(r.Text, maxStoredRunes)
		embeddings[i] = r.Embedding
	}

	columns := []entity.Column{
		entity.NewColumnVarChar(fieldCallID, callIDs),
		entity.NewColumnVarChar(fieldDataset, datasets),
		entity.NewColumnVarChar(fieldText, texts),
		entity.NewColumnFloatVector(fieldEmbedding, m.config.Dimension, embeddings),
	}

	if _, err := m.client.Insert(ctx, m.config.CollectionName, "", columns...); err != nil {
		return fmt.Errorf("%w: %v", ErrInsertFailed, err)
	}
	return nil
}

// Flush persists pending inserts.
func (m *MilvusStore) Flush(ctx context.Context) error {
	if err := m.client.Flush(ctx, m.config.CollectionName, false); err != nil {
		return fmt.Errorf("failed to flush data: %w", err)
	}
	return nil
}

// Search performs top-K similarity search with optional filtering
func (m *MilvusStore) Search(ctx context.Context, queryVector []float32, topK int, opts *SearchOptions) ([]ContextChunk, error) {
	if len(queryVector) != m.config.Dimension {
		return nil, fmt.Errorf("%w: expected %d, got %d", ErrInvalidDimension, m.config.Dimension, len(queryVector))
	}

	expr := ""
	if opts != nil {
		expr = filterExpr(opts.Dataset, opts.CallIDs)
	}

	ef := m.config.EfSearch
	if ef < topK {
		ef = topK
	}
	sp, err := entity.NewIndexHNSWSearchParam(ef)
	if err != nil {
		return nil, fmt.Errorf("failed to create search params: %w", err)
	}

	vectors := []entity.Vector{entity.FloatVector(queryVector)}
	outputFields := []string{fieldCallID, fieldDataset, fieldText}

	results, err := m.client.Search(
		ctx,
		m.config.CollectionName,
		nil, // partition names
		expr,
		outputFields,
		vectors,
		fieldEmbedding,
		entity.COSINE,
		topK,
		sp,
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSearchFailed, err)
	}

	if len(results) == 0 {
		return []ContextChunk{}, nil
	}

	chunks := make([]ContextChunk, 0, results[0].ResultCount)
	for i := 0; i < results[0].ResultCount; i++ {
		chunk := ContextChunk{Score: results[0].Scores[i]}

		for _, field := range results[0].Fields {
			col, ok := field.(*entity.ColumnVarChar)
			if !ok {
				continue
			}
			switch field.Name() {
			case fieldCallID:
				chunk.CallID = col.Data()[i]
			case fieldDataset:
				chunk.Dataset = col.Data()[i]
			case fieldText:
				chunk.Text = col.Data()[i]
			}
		}

		chunks = append(chunks, chunk)
	}

	return chunks, nil
}

// Query reports which call IDs of dataset are present.
func (m *MilvusStore) Query(ctx context.Context, dataset string, callIDs []string) (map[string]bool, error) {
	existence := make(map[string]bool, len(callIDs))
	if len(callIDs) == 0 {
		return existence, nil
	}
	for _, id := range callIDs {
		existence[id] = false
	}

	results, err := m.client.Query(
		ctx,
		m.config.CollectionName,
		nil, // partition names
		filterExpr(dataset, callIDs),
		[]string{fieldCallID},
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query evaluations: %w", err)
	}

	for _, column := range results {
		if column.Name() != fieldCallID {
			continue
		}
		if varchar, ok := column.(*entity.ColumnVarChar); ok {
			for _, id := range varchar.Data() {
				existence[id] = true
			}
		}
	}

	return existence, nil
}

// Delete removes the given calls of dataset.
func (m *MilvusStore) Delete(ctx context.Context, dataset string, callIDs []string) error {
	if len(callIDs) == 0 {
		return nil
	}

	if err := m.client.Delete(ctx, m.config.CollectionName, "", filterExpr(dataset, callIDs)); err != nil {
		return fmt.Errorf("failed to delete records: %w", err)
	}
	return nil
}

// GetStats returns collection statistics
func (m *MilvusStore) GetStats(ctx context.Context) (map[string]interface{}, error) {
	stats, err := m.client.GetCollectionStatistics(ctx, m.config.CollectionName)
	if err != nil {
		return nil, fmt.Errorf("failed to get stats: %w", err)
	}

	return map[string]interface{}{
		"collection": m.config.CollectionName,
		"row_count":  stats["row_count"],
	}, nil
}

// Close releases resources and closes the Milvus connection
func (m *MilvusStore) Close() error {
	if m.client != nil {
		return m.client.Close()
	}
	return nil
}

// filterExpr builds a boolean Milvus expression over dataset and call ids.
// Empty arguments impose no restriction.
func filterExpr(dataset string, callIDs []string) string {
	var clauses []string
	if dataset != "" {
		clauses = append(clauses, fmt.Sprintf("%s == %s", fieldDataset, strconv.Quote(dataset)))
	}
	if len(callIDs) > 0 {
		quoted := make([]string, len(callIDs))
		for i, id := range callIDs {
			quoted[i] = strconv.Quote(id)
		}
		clauses = append(clauses, fmt.Sprintf("%s in [%s]", fieldCallID, strings.Join(quoted, ", ")))
	}
	return strings.Join(clauses, " && ")
}
