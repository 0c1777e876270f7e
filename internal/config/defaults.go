package config

import (
	"github.com/nysgpt/billembed/internal/embedding"
	"github.com/nysgpt/billembed/internal/indexer"
	"github.com/nysgpt/billembed/internal/legislature"
	"github.com/nysgpt/billembed/internal/pipeline"
)

// ApplyDefaults sets default values for any zero values in cfg.
func ApplyDefaults(cfg *Config) {
	if cfg.Server.Host == "" {
		cfg.Server.Host = "localhost"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Server.ShutdownTimeoutSeconds == 0 {
		cfg.Server.ShutdownTimeoutSeconds = 10
	}
	if cfg.Storage.Driver == "" {
		cfg.Storage.Driver = DriverSQLite
	}
	if cfg.Storage.DatabasePath == "" {
		cfg.Storage.DatabasePath = ".billembed/bills.db"
	}
	if cfg.Legislature.BaseURL == "" {
		cfg.Legislature.BaseURL = legislature.DefaultBaseURL
	}
	if cfg.Legislature.TimeoutSeconds == 0 {
		cfg.Legislature.TimeoutSeconds = 30
	}
	if cfg.Embedding.Model == "" {
		cfg.Embedding.Model = embedding.DefaultModel
	}
	if cfg.Embedding.Dimensions == 0 {
		cfg.Embedding.Dimensions = embedding.DefaultDimensions
	}
	if cfg.Embedding.CacheSize == 0 {
		cfg.Embedding.CacheSize = 10000
	}
	if cfg.Chunking.MaxTokens == 0 {
		cfg.Chunking.MaxTokens = indexer.DefaultMaxTokens
	}
	if cfg.Chunking.OverlapTokens == 0 {
		cfg.Chunking.OverlapTokens = indexer.DefaultOverlapTokens
	}
	if cfg.Batch.TimeBudgetSeconds == 0 {
		cfg.Batch.TimeBudgetSeconds = int(pipeline.DefaultTimeBudget.Seconds())
	}
	if cfg.Batch.BillDelayMillis == 0 {
		cfg.Batch.BillDelayMillis = int(pipeline.DefaultBillDelay.Milliseconds())
	}
	if cfg.Batch.SyncPageSize == 0 {
		cfg.Batch.SyncPageSize = pipeline.DefaultSyncPageSize
	}
}
