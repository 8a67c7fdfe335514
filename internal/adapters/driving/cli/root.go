// Package cli provides the cobra command tree: document registration,
// indexing, search, job inspection and the long-running worker.
package cli

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	cachemem "github.com/meridian-labs/docindex/internal/adapters/driven/cache/memory"
	cacheredis "github.com/meridian-labs/docindex/internal/adapters/driven/cache/redis"
	"github.com/meridian-labs/docindex/internal/adapters/driven/config/file"
	"github.com/meridian-labs/docindex/internal/adapters/driven/embedding/ollama"
	"github.com/meridian-labs/docindex/internal/adapters/driven/embedding/openai"
	"github.com/meridian-labs/docindex/internal/adapters/driven/extract"
	"github.com/meridian-labs/docindex/internal/adapters/driven/storage/sqlite"
	vectormem "github.com/meridian-labs/docindex/internal/adapters/driven/vector/memory"
	"github.com/meridian-labs/docindex/internal/adapters/driven/vector/milvus"
	"github.com/meridian-labs/docindex/internal/chunker"
	"github.com/meridian-labs/docindex/internal/core/domain"
	"github.com/meridian-labs/docindex/internal/core/ports/driven"
	"github.com/meridian-labs/docindex/internal/core/ports/driving"
	"github.com/meridian-labs/docindex/internal/core/services"
	"github.com/meridian-labs/docindex/internal/logger"
)

var version = "dev"

var (
	flagVerbose    bool
	flagConfigPath string
)

// Wired services, populated by initServices before a command runs.
var (
	cfg           *file.Config
	store         *sqlite.Store
	indexer       *services.Indexer
	searchService driving.SearchService
	scheduler     *services.Scheduler
	closers       []io.Closer
	wired         bool
)

var rootCmd = &cobra.Command{
	Use:   "docindex",
	Short: "Tenant-partitioned semantic document index",
	Long: `docindex chunks and embeds documents into a tenant-partitioned
vector index and answers access-scoped semantic queries over them.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		logger.SetVerbose(flagVerbose)
		switch cmd.Name() {
		case "version", "help", "completion":
			return nil
		}
		return initServices()
	},
	PersistentPostRunE: func(_ *cobra.Command, _ []string) error {
		return shutdown()
	},
}

// Execute runs the CLI.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "enable debug logging")
	rootCmd.PersistentFlags().StringVar(&flagConfigPath, "config", "", "config file path (default ~/.docindex/config.toml)")
}

// initServices wires the full stack from configuration. Backends without
// an address configured fall back to their in-memory implementations.
func initServices() error {
	if store != nil {
		return nil // Already wired externally
	}
	wired = true

	var err error
	cfg, err = file.Load(flagConfigPath)
	if err != nil {
		return err
	}

	store, err = sqlite.NewStore(cfg.DataDir)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	closers = append(closers, store)

	embedder, err := buildEmbedder(cfg.Embedding)
	if err != nil {
		return err
	}
	closers = append(closers, embedder)

	vector, err := buildVectorIndex(cfg.Milvus, embedder.Dimensions())
	if err != nil {
		return err
	}
	closers = append(closers, vector)

	cache, err := buildCache(cfg.Redis)
	if err != nil {
		return err
	}
	closers = append(closers, cache)

	splitter := chunker.New(
		chunker.WithChunkSize(cfg.Chunking.Size),
		chunker.WithOverlap(cfg.Chunking.Overlap),
	)
	var catalog domain.LabelCatalog
	for _, l := range cfg.Labels {
		catalog = append(catalog, domain.Label{Name: l.Name, Prototype: l.Prototype})
	}
	classifier := services.NewClassifier(embedder, catalog)

	indexer = services.NewIndexer(store.ChunkStore(), vector, embedder, extract.New(), classifier, splitter)
	searchService = services.NewSearch(store.ChunkStore(), vector, embedder, store.AccessResolver(), cache, store.QueryLog(), cfg.Search.CacheTTL)
	scheduler = services.NewScheduler(store.JobStore(), store.ChunkStore(), indexer, searchService, services.SchedulerConfig{
		Workers:       cfg.Scheduler.Workers,
		PollInterval:  cfg.Scheduler.PollInterval,
		Retention:     cfg.Scheduler.Retention,
		SearchTimeout: cfg.Search.Timeout,
	})

	logger.Debug("Wired services (db=%s, embedding=%s/%s)", store.Path(), cfg.Embedding.Provider, embedder.ModelName())
	return nil
}

func buildEmbedder(cfg file.EmbeddingConfig) (driven.EmbeddingService, error) {
	switch cfg.Provider {
	case "openai":
		return openai.NewEmbeddingService(openai.Config{
			APIKey:            cfg.APIKey,
			BaseURL:           cfg.BaseURL,
			Model:             cfg.Model,
			Dimensions:        cfg.Dimensions,
			RequestsPerSecond: cfg.RequestsPerSecond,
		})
	case "", "ollama":
		return ollama.NewEmbeddingService(ollama.Config{
			BaseURL:    cfg.BaseURL,
			Model:      cfg.Model,
			Dimensions: cfg.Dimensions,
		}), nil
	default:
		return nil, fmt.Errorf("unknown embedding provider %q", cfg.Provider)
	}
}

func buildVectorIndex(cfg file.MilvusConfig, dims int) (driven.VectorIndex, error) {
	if cfg.URL == "" {
		logger.Debug("No Milvus URL configured; using in-memory vector index")
		return vectormem.NewIndex(dims), nil
	}
	return milvus.NewIndex(milvus.Config{
		BaseURL:    cfg.URL,
		Token:      cfg.Token,
		Collection: cfg.Collection,
		Dimensions: dims,
	})
}

func buildCache(cfg file.RedisConfig) (driven.ResultCache, error) {
	if cfg.Addr == "" {
		logger.Debug("No Redis address configured; using in-memory cache")
		return cachemem.NewCache(), nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return cacheredis.NewCache(ctx, cacheredis.Config{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
}

func shutdown() error {
	if !wired {
		return nil // Services injected from outside; their owner tears down
	}
	if scheduler != nil {
		if err := scheduler.Stop(); err != nil {
			logger.Warn("Stop scheduler: %v", err)
		}
	}
	for i := len(closers) - 1; i >= 0; i-- {
		if err := closers[i].Close(); err != nil {
			logger.Warn("Close: %v", err)
		}
	}
	closers = nil
	store = nil
	scheduler = nil
	wired = false
	return nil
}

// runJob starts the worker pool, submits via submit and polls the job to
// a terminal state. One-shot commands share this path with the daemon so
// job semantics stay identical.
func runJob(ctx context.Context, submit func(context.Context) (string, error)) (*domain.JobStatus, error) {
	if err := scheduler.Start(ctx); err != nil {
		return nil, fmt.Errorf("start scheduler: %w", err)
	}

	jobID, err := submit(ctx)
	if err != nil {
		return nil, err
	}

	tick := time.NewTicker(100 * time.Millisecond)
	defer tick.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-tick.C:
			status, err := scheduler.Poll(ctx, jobID)
			if err != nil {
				return nil, err
			}
			if status.State.Terminal() {
				return status, nil
			}
		}
	}
}
