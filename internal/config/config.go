// Package config provides configuration loading and structs for the billembed service.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/nysgpt/billembed/internal/models"
	"gopkg.in/yaml.v3"
)

// Storage drivers.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Config holds all configuration for the application.
type Config struct {
	Debug       bool              `yaml:"debug"`
	Server      ServerConfig      `yaml:"server"`
	Storage     StorageConfig     `yaml:"storage"`
	Legislature LegislatureConfig `yaml:"legislature"`
	Embedding   EmbeddingConfig   `yaml:"embedding"`
	Chunking    ChunkingConfig    `yaml:"chunking"`
	Batch       BatchConfig       `yaml:"batch"`
	Search      SearchConfig      `yaml:"search"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host                   string `yaml:"host"`
	Port                   int    `yaml:"port"`
	ShutdownTimeoutSeconds int    `yaml:"shutdown_timeout_seconds"`
}

// StorageConfig selects the chunk store. DatabasePath is used by sqlite, DatabaseURL by postgres.
type StorageConfig struct {
	Driver       string `yaml:"driver"`
	DatabasePath string `yaml:"database_path"`
	DatabaseURL  string `yaml:"database_url"`
}

// LegislatureConfig holds Open Legislation API settings.
type LegislatureConfig struct {
	BaseURL           string  `yaml:"base_url"`
	APIKey            string  `yaml:"api_key"`
	RequestsPerSecond float64 `yaml:"requests_per_second"`
	TimeoutSeconds    int     `yaml:"timeout_seconds"`
}

// EmbeddingConfig holds embeddings API settings.
type EmbeddingConfig struct {
	BaseURL    string `yaml:"base_url"`
	APIKey     string `yaml:"api_key"`
	Model      string `yaml:"model"`
	Dimensions int    `yaml:"dimensions"`
	CacheSize  int    `yaml:"cache_size"`
}

// ChunkingConfig bounds body chunks, in estimated tokens.
type ChunkingConfig struct {
	MaxTokens     int `yaml:"max_tokens"`
	OverlapTokens int `yaml:"overlap_tokens"`
}

// BatchConfig holds batch pipeline settings.
type BatchConfig struct {
	TimeBudgetSeconds int `yaml:"time_budget_seconds"`
	BillDelayMillis   int `yaml:"bill_delay_ms"`
	SyncPageSize      int `yaml:"sync_page_size"`
}

// SearchConfig holds chunk search settings.
type SearchConfig struct {
	MinSimilarity float64 `yaml:"min_similarity"`
}

// Load reads the config file at path (skipped when path is empty), applies environment
// overrides, then defaults, and expands paths. Returns an error if the file cannot be read or parsed.
func Load(path string) (*Config, error) {
	var cfg Config
	configDir := "."
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
		configDir = filepath.Dir(path)
	}

	ApplyEnv(&cfg, os.LookupEnv)
	ApplyDefaults(&cfg)

	cfg.Storage.DatabasePath = expandPath(cfg.Storage.DatabasePath, configDir)
	return &cfg, nil
}

// Save writes the config to path.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// ApplyEnv overrides secrets and connection settings from the environment. The legislative
// key is read from LEGISLATIVE_API_KEY, then NYS_API_KEY. A DATABASE_URL switches the driver
// to postgres unless a driver was configured explicitly.
func ApplyEnv(cfg *Config, lookup func(string) (string, bool)) {
	if v, ok := firstEnv(lookup, "LEGISLATIVE_API_KEY", "NYS_API_KEY"); ok {
		cfg.Legislature.APIKey = v
	}
	if v, ok := firstEnv(lookup, "OPENAI_API_KEY"); ok {
		cfg.Embedding.APIKey = v
	}
	if v, ok := firstEnv(lookup, "OPENAI_BASE_URL"); ok {
		cfg.Embedding.BaseURL = v
	}
	if v, ok := firstEnv(lookup, "DATABASE_URL"); ok {
		cfg.Storage.DatabaseURL = v
		if cfg.Storage.Driver == "" {
			cfg.Storage.Driver = DriverPostgres
		}
	}
}

func firstEnv(lookup func(string) (string, bool), keys ...string) (string, bool) {
	for _, k := range keys {
		if v, ok := lookup(k); ok && strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v), true
		}
	}
	return "", false
}

// Validate checks structural settings. Missing API keys are reported by RequireKeys, since
// read-only commands run without them.
func (c *Config) Validate() error {
	switch c.Storage.Driver {
	case DriverSQLite:
		if c.Storage.DatabasePath == "" {
			return fmt.Errorf("%w: storage.database_path is required for sqlite", models.ErrConfig)
		}
	case DriverPostgres:
		if c.Storage.DatabaseURL == "" {
			return fmt.Errorf("%w: storage.database_url (or DATABASE_URL) is required for postgres", models.ErrConfig)
		}
	default:
		return fmt.Errorf("%w: unknown storage driver %q", models.ErrConfig, c.Storage.Driver)
	}
	if c.Embedding.Dimensions <= 0 {
		return fmt.Errorf("%w: embedding.dimensions must be positive", models.ErrConfig)
	}
	if c.Chunking.OverlapTokens >= c.Chunking.MaxTokens {
		return fmt.Errorf("%w: chunking.overlap_tokens must be less than max_tokens", models.ErrConfig)
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("%w: server.port out of range", models.ErrConfig)
	}
	return nil
}

// RequireKeys reports missing API keys as ErrConfig.
func (c *Config) RequireKeys(legislative, embedding bool) error {
	var missing []string
	if legislative && c.Legislature.APIKey == "" {
		missing = append(missing, "LEGISLATIVE_API_KEY")
	}
	if embedding && c.Embedding.APIKey == "" {
		missing = append(missing, "OPENAI_API_KEY")
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: missing %s", models.ErrConfig, strings.Join(missing, ", "))
	}
	return nil
}

// Addr returns the server listen address.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// expandPath converts a path to absolute. Paths starting with "./" are relative to configDir;
// other relative paths are relative to the home directory.
func expandPath(path string, configDir string) string {
	if path == "" || path == ":memory:" || filepath.IsAbs(path) {
		return path
	}
	if strings.HasPrefix(path, "./") || path == "." {
		return filepath.Join(configDir, path)
	}
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, path)
	}
	return path
}
