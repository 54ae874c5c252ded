// Package config provides configuration loading for auditbot.
package config

import (
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/Yates-Labs/auditbot/internal/dataset"
	"github.com/Yates-Labs/auditbot/internal/gateway"
	"github.com/Yates-Labs/auditbot/internal/rag"
	"github.com/Yates-Labs/auditbot/internal/storage"
	"gopkg.in/yaml.v3"
)

// DefaultPath is read when present and no --config flag is given.
const DefaultPath = "auditbot.yaml"

// Config holds all configuration for the application.
type Config struct {
	DataDir      string            `yaml:"data_dir"`
	Datasets     []dataset.Dataset `yaml:"datasets"`
	DefaultLimit int               `yaml:"default_limit"`
	Gateway      gateway.Config    `yaml:"gateway"`
	Storage      StorageConfig     `yaml:"storage"`
	Server       ServerConfig      `yaml:"server"`
	Retrieval    RetrievalConfig   `yaml:"retrieval"`
	Watch        bool              `yaml:"watch"`
	History      HistoryConfig     `yaml:"history"`
	BIReportURL  string            `yaml:"bi_report_url"`
}

// StorageConfig selects the object store backend and upload destination.
type StorageConfig struct {
	// Backend is gcs or memory.
	Backend        string `yaml:"backend"`
	storage.Config `yaml:",inline"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host           string   `yaml:"host"`
	Port           int      `yaml:"port"`
	AllowedOrigins []string `yaml:"allowed_origins"`

	// SessionTTL evicts dashboard sessions idle for longer, with their history.
	SessionTTL time.Duration `yaml:"session_ttl"`
}

// Addr is the listen address.
func (s ServerConfig) Addr() string {
	return net.JoinHostPort(s.Host, strconv.Itoa(s.Port))
}

// SetAddr parses a host:port listen address. The host may be empty.
func (s *ServerConfig) SetAddr(addr string) error {
	host, port, err := net.SplitHostPort(addr)
	if err != nil {
		return err
	}
	p, err := strconv.Atoi(port)
	if err != nil {
		return fmt.Errorf("invalid port %q: %w", port, err)
	}
	s.Host = host
	s.Port = p
	return nil
}

// RetrievalConfig holds the optional evaluation index settings.
type RetrievalConfig struct {
	Enabled       bool             `yaml:"enabled"`
	TopK          int              `yaml:"top_k"`
	EmbedderModel string           `yaml:"embedder_model"`
	Dimension     int              `yaml:"dimension"`
	Milvus        rag.MilvusConfig `yaml:"milvus"`
}

// HistoryConfig controls replaying earlier chat turns into the prompt.
type HistoryConfig struct {
	Enabled     bool `yaml:"enabled"`
	MaxMessages int  `yaml:"max_messages"`
}

// Default returns the configuration used when no file is given, with
// environment overrides applied.
func Default() (*Config, error) {
	cfg := base()
	if err := applyEnv(cfg); err != nil {
		return nil, err
	}
	ApplyDefaults(cfg)
	return cfg, nil
}

func base() *Config {
	return &Config{
		Gateway: gateway.DefaultConfig(),
		Storage: StorageConfig{Backend: "gcs", Config: storage.DefaultConfig()},
		Retrieval: RetrievalConfig{
			Milvus: rag.DefaultMilvusConfig(),
		},
	}
}

// Load reads the config file at path over the defaults, applies environment
// overrides and resolves relative paths against the file's directory.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	cfg := base()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	configDir := filepath.Dir(path)
	cfg.DataDir = expandPath(cfg.DataDir, configDir)
	fileDir := cfg.DataDir
	if fileDir == "" {
		fileDir = configDir
	}
	for i := range cfg.Datasets {
		cfg.Datasets[i].Path = expandPath(cfg.Datasets[i].Path, fileDir)
	}
	if cfg.DataDir == "" && len(cfg.Datasets) == 0 {
		cfg.DataDir = configDir
	}

	if err := applyEnv(cfg); err != nil {
		return nil, err
	}
	ApplyDefaults(cfg)

	return cfg, nil
}

// LoadOrDefault loads path when given. An empty path loads DefaultPath when
// it exists and falls back to Default otherwise.
func LoadOrDefault(path string) (*Config, error) {
	if path != "" {
		return Load(path)
	}
	if _, err := os.Stat(DefaultPath); err == nil {
		return Load(DefaultPath)
	}
	return Default()
}

// applyEnv overrides file values with the process environment. Malformed
// values are errors.
func applyEnv(cfg *Config) error {
	if v := os.Getenv("AUDITBOT_DATA_DIR"); v != "" {
		cfg.DataDir = v
		cfg.Datasets = nil
	}
	if v := os.Getenv("AUDITBOT_PROVIDER"); v != "" {
		cfg.Gateway.Provider = v
	}
	if v := os.Getenv("GOOGLE_CLOUD_PROJECT"); v != "" {
		cfg.Gateway.Gemini.Project = v
	}
	if v := os.Getenv("GOOGLE_CLOUD_LOCATION"); v != "" {
		cfg.Gateway.Gemini.Location = v
	}
	if v := os.Getenv("GEMINI_API_KEY"); v != "" {
		cfg.Gateway.Gemini.APIKey = v
	}
	if v := os.Getenv("OPENAI_API_KEY"); v != "" {
		cfg.Gateway.OpenAIAPIKey = v
	}
	if v := os.Getenv("AUDITBOT_BUCKET"); v != "" {
		cfg.Storage.Bucket = v
	}
	if v := os.Getenv("MILVUS_ADDRESS"); v != "" {
		cfg.Retrieval.Milvus.Address = v
	}
	if v := os.Getenv("MILVUS_COLLECTION"); v != "" {
		cfg.Retrieval.Milvus.CollectionName = v
	}
	if v := os.Getenv("AUDITBOT_ADDR"); v != "" {
		if err := cfg.Server.SetAddr(v); err != nil {
			return fmt.Errorf("invalid AUDITBOT_ADDR %q: %w", v, err)
		}
	}
	return nil
}

// expandPath resolves a relative path against dir. "~/" is the home directory.
func expandPath(path, dir string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	if strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, path[2:])
		}
	}
	return filepath.Join(dir, path)
}
