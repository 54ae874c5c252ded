package config

import (
	"strings"

	"github.com/Yates-Labs/auditbot/internal/dataset"
	"github.com/Yates-Labs/auditbot/internal/gateway"
	"github.com/Yates-Labs/auditbot/internal/prompt"
	"github.com/Yates-Labs/auditbot/internal/rag"
	"github.com/Yates-Labs/auditbot/internal/session"
	"github.com/Yates-Labs/auditbot/internal/storage"
)

const (
	DefaultRecordLimit = 500
	DefaultBIReportURL = "https://lookerstudio.google.com/embed/reporting/73cef5c2-3137-4031-aa01-b47b8cc65a3e/page/yJkVF"
	defaultOpenAIModel = "gpt-4o"
)

// ApplyDefaults sets default values for any zero values in cfg.
func ApplyDefaults(cfg *Config) {
	if cfg.DataDir == "" && len(cfg.Datasets) == 0 {
		cfg.DataDir = "."
	}
	if len(cfg.Datasets) == 0 {
		cfg.Datasets = dataset.DefaultDatasets(cfg.DataDir)
	}
	if cfg.DefaultLimit == 0 {
		cfg.DefaultLimit = DefaultRecordLimit
	}

	if cfg.Gateway.Provider == "" {
		cfg.Gateway.Provider = "gemini"
	}
	applyProfileDefaults(&cfg.Gateway)

	if cfg.Storage.Backend == "" {
		cfg.Storage.Backend = "gcs"
	}
	if cfg.Storage.Bucket == "" {
		cfg.Storage.Bucket = storage.DefaultBucket
	}
	if cfg.Storage.Prefix == "" {
		cfg.Storage.Prefix = storage.DefaultPrefix
	}

	if cfg.Server.Host == "" {
		cfg.Server.Host = "localhost"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Server.AllowedOrigins == nil {
		cfg.Server.AllowedOrigins = []string{"*"}
	}
	if cfg.Server.SessionTTL <= 0 {
		cfg.Server.SessionTTL = session.DefaultIdleTTL
	}

	if cfg.Retrieval.TopK == 0 {
		cfg.Retrieval.TopK = 25
	}
	if cfg.Retrieval.EmbedderModel == "" {
		cfg.Retrieval.EmbedderModel = rag.DefaultEmbeddingModel
	}
	if cfg.Retrieval.Dimension == 0 {
		cfg.Retrieval.Dimension = rag.DefaultEmbeddingDimension
	}
	milvusDefaults := rag.DefaultMilvusConfig()
	if cfg.Retrieval.Milvus.Address == "" {
		cfg.Retrieval.Milvus.Address = milvusDefaults.Address
	}
	if cfg.Retrieval.Milvus.CollectionName == "" {
		cfg.Retrieval.Milvus.CollectionName = milvusDefaults.CollectionName
	}
	if cfg.Retrieval.Milvus.M == 0 {
		cfg.Retrieval.Milvus.M = milvusDefaults.M
	}
	if cfg.Retrieval.Milvus.EfConstruction == 0 {
		cfg.Retrieval.Milvus.EfConstruction = milvusDefaults.EfConstruction
	}
	if cfg.Retrieval.Milvus.EfSearch == 0 {
		cfg.Retrieval.Milvus.EfSearch = milvusDefaults.EfSearch
	}
	if cfg.Retrieval.Milvus.ConnectTimeout == 0 {
		cfg.Retrieval.Milvus.ConnectTimeout = milvusDefaults.ConnectTimeout
	}
	// The collection dimension always follows the embedder.
	cfg.Retrieval.Milvus.Dimension = cfg.Retrieval.Dimension

	if cfg.History.MaxMessages == 0 {
		cfg.History.MaxMessages = prompt.DefaultHistoryMessages
	}
	if cfg.BIReportURL == "" {
		cfg.BIReportURL = DefaultBIReportURL
	}
}

// applyProfileDefaults fills empty profile models and swaps Gemini model names
// for an OpenAI one when that provider is selected.
func applyProfileDefaults(g *gateway.Config) {
	defaults := gateway.DefaultProfiles()
	profiles := []struct {
		current *gateway.Profile
		def     gateway.Profile
	}{
		{&g.Profiles.Chat, defaults.Chat},
		{&g.Profiles.Report, defaults.Report},
		{&g.Profiles.Transcription, defaults.Transcription},
		{&g.Profiles.Summary, defaults.Summary},
		{&g.Profiles.Sentiment, defaults.Sentiment},
	}

	openai := strings.EqualFold(g.Provider, "openai")
	for _, p := range profiles {
		if p.current.Model == "" {
			*p.current = p.def
		}
		if openai && strings.HasPrefix(p.current.Model, "gemini-") {
			p.current.Model = defaultOpenAIModel
		}
	}
}
