package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"medialib/config"
	"medialib/internal/adapter/cache"
	"medialib/internal/adapter/embedding"
	"medialib/internal/adapter/llm"
	"medialib/internal/adapter/memstore"
	"medialib/internal/adapter/store"
	"medialib/internal/port"
	"medialib/internal/usecase"
)

// indexMigrator is implemented by indexes that stamp their embedding model.
type indexMigrator interface {
	CheckMigration(ctx context.Context, model string) (*store.MigrationResult, error)
	Migrate(ctx context.Context, model string) error
}

// app holds the wired stores, providers and use cases of one process.
type app struct {
	records  port.RecordStore
	index    port.VectorIndex
	embedder port.Embedder
	llm      port.LLM

	searcher  *cache.CachedSearcher
	sync      *usecase.Synchronizer
	catalog   *usecase.CatalogUseCase
	recommend *usecase.RecommendUseCase
	enhance   *usecase.EnhanceUseCase
	autofill  *usecase.AutofillUseCase

	closers []func() error
}

// openApp builds the object graph for cfg. Workers overrides sync.workers
// when >= 0; one-shot commands pass 0 so every write is applied before exit.
func openApp(ctx context.Context, cfg *config.Config, dir string, workers int) (*app, error) {
	a := &app{}

	if err := a.openStores(ctx, cfg, dir); err != nil {
		a.Close()
		return nil, err
	}

	a.embedder = newEmbedder(cfg.Embedding)
	generator, err := newGenerator(cfg.Generation)
	if err != nil {
		a.Close()
		return nil, err
	}
	a.llm = generator

	if err := a.index.EnsureCollection(ctx); err != nil {
		// Search reports unavailable until the index comes back; CRUD keeps working.
		slog.Error("vector index unavailable", "collection", cfg.Index.Collection, "error", err)
	}

	retrieve := usecase.NewRetrieveUseCase(a.embedder, a.index, a.records, usecase.RetrieveOptions{
		Overfetch:          cfg.Retrieve.Overfetch,
		RelevanceThreshold: cfg.Retrieve.RelevanceThreshold,
		MaxResults:         cfg.Retrieve.MaxResults,
	})
	search := usecase.NewSearchUseCase(retrieve, usecase.NewExplainUseCase(a.llm))
	a.searcher = cache.NewCachedSearcher(search, cache.NewQueryCache(cfg.Retrieve.CacheSize, cfg.Retrieve.CacheTTL))

	opts := usecase.SyncOptions{
		Workers:   cfg.Sync.Workers,
		QueueSize: cfg.Sync.QueueSize,
		Timeout:   cfg.Sync.Timeout,
	}
	if workers >= 0 {
		opts.Workers = workers
	}
	a.sync = usecase.NewSynchronizer(a.records, a.index, a.embedder, a.searcher, opts)

	a.catalog = usecase.NewCatalogUseCase(a.records, a.sync)
	a.recommend = usecase.NewRecommendUseCase(a.embedder, a.index, a.records, a.llm)
	a.enhance = usecase.NewEnhanceUseCase(a.llm)
	a.autofill = usecase.NewAutofillUseCase(a.llm)

	slog.Debug("application wired",
		"store", cfg.Store.Driver,
		"collection", cfg.Index.Collection,
		"embedding", a.embedder.ModelName(),
		"generation", a.llm.ModelName(),
		"workers", opts.Workers,
	)
	return a, nil
}

func (a *app) openStores(ctx context.Context, cfg *config.Config, dir string) error {
	if cfg.Store.Driver == "memory" {
		a.records = memstore.NewMemoryStore()
		a.index = memstore.NewVectorIndex()
		return nil
	}

	if err := config.EnsureDataDir(dir); err != nil {
		return fmt.Errorf("failed to create data directory: %w", err)
	}
	indexPath := config.ResolvePath(dir, cfg.Index.Path)

	switch cfg.Store.Driver {
	case "bolt":
		recordPath := config.ResolvePath(dir, cfg.Store.Path)
		st, err := store.NewBoltStore(recordPath)
		if err != nil {
			return fmt.Errorf("failed to open record store: %w", err)
		}
		a.records = st
		a.closers = append(a.closers, st.Close)

		if recordPath == indexPath {
			a.index = store.NewBoltVectorIndex(st.DB(), cfg.Index.Collection)
			return nil
		}
	case "postgres":
		pg, err := store.NewPostgresStore(ctx, cfg.Store.DatabaseURL)
		if err != nil {
			return fmt.Errorf("failed to open record store: %w", err)
		}
		a.records = pg
		a.closers = append(a.closers, pg.Close)
	default:
		return fmt.Errorf("unsupported store driver: %s", cfg.Store.Driver)
	}

	db, err := store.OpenBolt(indexPath)
	if err != nil {
		return fmt.Errorf("failed to open vector index: %w", err)
	}
	a.closers = append(a.closers, db.Close)
	a.index = store.NewBoltVectorIndex(db, cfg.Index.Collection)
	return nil
}

func newEmbedder(ec config.EmbeddingConfig) port.Embedder {
	if ec.Provider == "mock" {
		return embedding.NewMockEmbedder(ec.DefaultDimension)
	}
	return embedding.NewOllamaEmbedder(ec.Model, ec.BaseURL, ec.Timeout, ec.PingTimeout, ec.DefaultDimension)
}

func newGenerator(gc config.GenerationConfig) (port.LLM, error) {
	switch gc.Provider {
	case "ollama":
		return llm.NewOllama(gc.Model, gc.BaseURL, gc.Timeout), nil
	case "gemini":
		g, err := llm.NewGemini(os.Getenv(gc.APIKeyEnv), gc.Model, gc.BaseURL, gc.Timeout)
		if err != nil {
			return nil, fmt.Errorf("failed to create gemini generator (set %s): %w", gc.APIKeyEnv, err)
		}
		return g, nil
	case "none":
		return llm.Disabled{}, nil
	default:
		return nil, fmt.Errorf("unsupported generation provider: %s", gc.Provider)
	}
}

// prepareIndex compares the index stamp with the configured embedding model
// and rebuilds or stamps the collection as needed.
func (a *app) prepareIndex(ctx context.Context, rebuild bool, progress usecase.ProgressFunc) error {
	m, ok := a.index.(indexMigrator)
	if !ok {
		return nil
	}

	result, err := m.CheckMigration(ctx, a.embedder.ModelName())
	if err != nil {
		return fmt.Errorf("failed to check index schema: %w", err)
	}

	switch {
	case result.NeedsRebuild && rebuild:
		slog.Warn("rebuilding vector index", "reason", result.Reason)
		res, err := a.sync.Reindex(ctx, progress)
		if err != nil {
			return fmt.Errorf("index rebuild failed: %w", err)
		}
		slog.Info("vector index rebuilt", "indexed", res.Inserted, "failed", len(res.Failed))
	case result.NeedsRebuild:
		slog.Warn("vector index was built with a different model; run 'medialib reindex'", "reason", result.Reason)
	case result.NeedsMigration:
		slog.Info("running index schema migration", "reason", result.Reason)
		if err := m.Migrate(ctx, a.embedder.ModelName()); err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}
	}
	return nil
}

// Close drains the sync queue, then closes stores in reverse open order.
func (a *app) Close() error {
	var errs []error
	if a.sync != nil {
		errs = append(errs, a.sync.Close())
	}
	for i := len(a.closers) - 1; i >= 0; i-- {
		errs = append(errs, a.closers[i]())
	}
	return errors.Join(errs...)
}
