// Package main is the billembed CLI entry point.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"github.com/nysgpt/billembed/internal/config"
	"github.com/nysgpt/billembed/internal/embedding"
	"github.com/nysgpt/billembed/internal/indexer"
	"github.com/nysgpt/billembed/internal/legislature"
	"github.com/nysgpt/billembed/internal/pipeline"
	"github.com/nysgpt/billembed/internal/search"
	"github.com/nysgpt/billembed/internal/storage"
	"github.com/nysgpt/billembed/pkg/utils"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var version = "dev"

var (
	configPath string
	debugFlag  bool

	cfg    *config.Config
	logger *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "billembed",
	Short: "Chunk and embed New York State bill text",
	Long: `billembed fetches bills from the NYS Open Legislation API, splits their text into
section-aware chunks, embeds them and stores the vectors for retrieval.`,
	SilenceUsage:      true,
	PersistentPreRunE: setup,
	PersistentPostRun: func(*cobra.Command, []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "config file path (default: ./config.yaml when present)")
	rootCmd.PersistentFlags().BoolVar(&debugFlag, "debug", false, "enable debug logging")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// setup loads .env, the config file and the logger before any command runs.
func setup(cmd *cobra.Command, _ []string) error {
	_ = godotenv.Load()

	path := resolveConfigPath(configPath)
	loaded, err := config.Load(path)
	if err != nil {
		return err
	}
	cfg = loaded
	if debugFlag {
		cfg.Debug = true
	}
	logger, err = utils.NewLogger(cfg.Debug)
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	logger.Debug("config loaded", zap.String("config_path", path), zap.String("storage_driver", cfg.Storage.Driver))
	return nil
}

// resolveConfigPath returns the explicit path, else ./config.yaml when it exists, else "" (defaults and env only).
func resolveConfigPath(path string) string {
	if path != "" {
		return path
	}
	if cwd, err := os.Getwd(); err == nil {
		fallback := filepath.Join(cwd, "config.yaml")
		if _, err := os.Stat(fallback); err == nil {
			return fallback
		}
	}
	return ""
}

// Components holds the wired pipeline. Fetcher, Embedder, Indexer, Batch and Engine are nil
// when their API keys are missing; MissingKeys then says which.
type Components struct {
	Storage     storage.Storage
	Embedder    embedding.Embedder
	Fetcher     *legislature.Client
	Indexer     *indexer.Indexer
	Batch       *pipeline.Batch
	Status      *pipeline.StatusReporter
	Engine      *search.Engine
	MissingKeys error
}

// Close releases the store and embedder.
func (c *Components) Close() {
	if c.Embedder != nil {
		_ = c.Embedder.Close()
	}
	if c.Storage != nil {
		_ = c.Storage.Close()
	}
}

func openStorage(ctx context.Context, cfg *config.Config) (storage.Storage, error) {
	switch cfg.Storage.Driver {
	case config.DriverPostgres:
		return storage.NewPostgresStorage(ctx, cfg.Storage.DatabaseURL, cfg.Embedding.Dimensions)
	default:
		return storage.NewSQLiteStorage(cfg.Storage.DatabasePath)
	}
}

func initializeComponents(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Components, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	store, err := openStorage(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}
	c := &Components{
		Storage:     store,
		Status:      pipeline.NewStatusReporter(store),
		MissingKeys: cfg.RequireKeys(true, true),
	}

	if cfg.Embedding.APIKey != "" {
		emb, err := embedding.NewOpenAIEmbedder(embedding.OpenAIConfig{
			APIKey:     cfg.Embedding.APIKey,
			BaseURL:    cfg.Embedding.BaseURL,
			Model:      cfg.Embedding.Model,
			Dimensions: cfg.Embedding.Dimensions,
			CacheSize:  cfg.Embedding.CacheSize,
		}, embedding.WithLogger(logger))
		if err != nil {
			c.Close()
			return nil, err
		}
		c.Embedder = emb
		c.Engine = search.NewEngine(store, emb,
			search.WithMinSimilarity(cfg.Search.MinSimilarity),
			search.WithLogger(logger),
		)
	}

	if cfg.Legislature.APIKey != "" {
		fetcher, err := legislature.NewClient(cfg.Legislature.BaseURL, cfg.Legislature.APIKey,
			legislature.WithHTTPClient(&http.Client{Timeout: time.Duration(cfg.Legislature.TimeoutSeconds) * time.Second}),
			legislature.WithRateLimit(cfg.Legislature.RequestsPerSecond),
			legislature.WithLogger(logger),
		)
		if err != nil {
			c.Close()
			return nil, err
		}
		c.Fetcher = fetcher
	}

	if c.Fetcher != nil && c.Embedder != nil {
		c.Indexer = indexer.NewIndexer(c.Fetcher, c.Embedder, store,
			indexer.WithChunking(cfg.Chunking.MaxTokens, cfg.Chunking.OverlapTokens),
			indexer.WithLogger(logger),
		)
		c.Batch = pipeline.NewBatch(store, c.Indexer,
			pipeline.WithTimeBudget(time.Duration(cfg.Batch.TimeBudgetSeconds)*time.Second),
			pipeline.WithBillDelay(time.Duration(cfg.Batch.BillDelayMillis)*time.Millisecond),
			pipeline.WithLogger(logger),
		)
	}

	logger.Debug("components initialized",
		zap.String("storage_driver", cfg.Storage.Driver),
		zap.Bool("embedder", c.Embedder != nil),
		zap.Bool("fetcher", c.Fetcher != nil),
	)
	return c, nil
}
