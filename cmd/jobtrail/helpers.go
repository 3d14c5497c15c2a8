package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/jobtrail/jobtrail/internal/classifier"
	"github.com/jobtrail/jobtrail/internal/config"
	"github.com/jobtrail/jobtrail/internal/engine"
	"github.com/jobtrail/jobtrail/internal/extractor"
	"github.com/jobtrail/jobtrail/internal/index"
	"github.com/jobtrail/jobtrail/internal/llm"
	"github.com/jobtrail/jobtrail/internal/resolver"
	"github.com/jobtrail/jobtrail/internal/service"
	"github.com/jobtrail/jobtrail/internal/storage"
	"github.com/spf13/viper"
)

// initStorage initializes the storage service with proper path expansion.
func initStorage(ctx context.Context) (service.Storage, error) {
	// Get database path from config
	dbPath := viper.GetString("database.path")
	if dbPath == "" {
		dbPath = config.DefaultDatabasePath()
	}

	// Expand tilde and environment variables
	dbPath = config.ExpandPath(dbPath)

	// Initialize storage
	store, err := storage.NewSQLiteStorage(dbPath)
	if err != nil {
		return nil, err
	}

	// Run migrations
	if err := store.Migrate(ctx); err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return store, nil
}

// loadRelevanceClassifier loads the trained model artifact and wraps it
// with the configured decision threshold.
func loadRelevanceClassifier() (*classifier.RelevanceClassifier, error) {
	artifactPath := viper.GetString("classifier.artifact")
	if artifactPath == "" {
		artifactPath = config.DefaultArtifactPath()
	}
	artifactPath = config.ExpandPath(artifactPath)

	m, err := classifier.LoadArtifact(artifactPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load classifier artifact (run 'jobtrail train' first): %w", err)
	}

	threshold := viper.GetFloat64("classifier.threshold")
	if threshold == 0 {
		threshold = classifier.DefaultThreshold
	}

	return classifier.NewRelevanceClassifier(m, threshold), nil
}

// createIndex connects to the configured vector index backend.
func createIndex(ctx context.Context, dimension int) (service.VectorIndex, error) {
	backend := viper.GetString("index.backend")
	if backend == "" {
		backend = "chroma"
	}

	switch backend {
	case "chroma":
		cfg := index.Config{
			URL:        viper.GetString("index.url"),
			Collection: viper.GetString("index.collection"),
			Dimension:  dimension,
		}
		if cfg.URL == "" {
			cfg.URL = "http://localhost:8000"
		}
		if cfg.Collection == "" {
			cfg.Collection = "jobtrail"
		}
		return index.NewChromaIndex(ctx, cfg)
	case "memory":
		// Ephemeral, rebuilt on every invocation. Useful for smoke tests
		// without a Chroma server.
		return index.NewMemoryIndex(dimension)
	default:
		return nil, fmt.Errorf("unsupported index backend: %s", backend)
	}
}

// pipelineDeps bundles everything a pipeline stage command needs.
type pipelineDeps struct {
	store     service.Storage
	engine    *engine.Engine
	generator *llm.Generator
}

func (d *pipelineDeps) close() {
	if d.generator != nil {
		d.generator.Close()
	}
	closeStorage(d.store)
}

// createEngine assembles the full pipeline: storage, trained classifier,
// LLM extractor, and the resolver with its embedder and vector index.
func createEngine(ctx context.Context) (*pipelineDeps, error) {
	store, err := initStorage(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}

	rc, err := loadRelevanceClassifier()
	if err != nil {
		closeStorage(store)
		return nil, err
	}

	generator, err := createGenerator()
	if err != nil {
		closeStorage(store)
		return nil, fmt.Errorf("failed to create LLM client: %w", err)
	}

	embedder, err := createEmbedder()
	if err != nil {
		closeStorage(store)
		return nil, fmt.Errorf("failed to create embedder: %w", err)
	}

	idx, err := createIndex(ctx, embedder.Dimension())
	if err != nil {
		closeStorage(store)
		return nil, fmt.Errorf("failed to connect to vector index: %w", err)
	}

	ex := extractor.New(generator, slog.Default(), viper.GetDuration("llm.extract_timeout"))
	res := resolver.New(store, embedder, idx, slog.Default())

	eng := engine.New(store, rc, ex, res, slog.Default(), engine.Config{
		ProgressWriter: os.Stderr,
		Workers:        viper.GetInt("pipeline.workers"),
		ShowProgress:   true,
	})

	return &pipelineDeps{store: store, engine: eng, generator: generator}, nil
}

// createClassifyEngine wires only the relevance stage: no LLM or index
// credentials are needed to classify.
func createClassifyEngine(ctx context.Context) (*pipelineDeps, error) {
	store, err := initStorage(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}

	rc, err := loadRelevanceClassifier()
	if err != nil {
		closeStorage(store)
		return nil, err
	}

	eng := engine.New(store, rc, nil, nil, slog.Default(), engine.Config{
		ProgressWriter: os.Stderr,
		Workers:        viper.GetInt("pipeline.workers"),
		ShowProgress:   true,
	})
	return &pipelineDeps{store: store, engine: eng}, nil
}

// createExtractEngine wires only the extraction stage.
func createExtractEngine(ctx context.Context) (*pipelineDeps, error) {
	store, err := initStorage(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}

	generator, err := createGenerator()
	if err != nil {
		closeStorage(store)
		return nil, fmt.Errorf("failed to create LLM client: %w", err)
	}

	ex := extractor.New(generator, slog.Default(), viper.GetDuration("llm.extract_timeout"))
	eng := engine.New(store, nil, ex, nil, slog.Default(), engine.Config{
		ProgressWriter: os.Stderr,
		Workers:        viper.GetInt("pipeline.workers"),
		ShowProgress:   true,
	})
	return &pipelineDeps{store: store, engine: eng, generator: generator}, nil
}

// createResolveEngine wires only the resolution stage: embedder and
// vector index, no generator.
func createResolveEngine(ctx context.Context) (*pipelineDeps, error) {
	store, err := initStorage(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}

	embedder, err := createEmbedder()
	if err != nil {
		closeStorage(store)
		return nil, fmt.Errorf("failed to create embedder: %w", err)
	}

	idx, err := createIndex(ctx, embedder.Dimension())
	if err != nil {
		closeStorage(store)
		return nil, fmt.Errorf("failed to connect to vector index: %w", err)
	}

	res := resolver.New(store, embedder, idx, slog.Default())
	eng := engine.New(store, nil, nil, res, slog.Default(), engine.Config{
		ProgressWriter: os.Stderr,
		Workers:        viper.GetInt("pipeline.workers"),
		ShowProgress:   true,
	})
	return &pipelineDeps{store: store, engine: eng}, nil
}

func closeStorage(store service.Storage) {
	if err := store.Close(); err != nil {
		slog.Error("Failed to close database", "error", err)
	}
}

// logStageStats reports one stage outcome at info level.
func logStageStats(stats service.StageStats) {
	slog.Info("Stage complete",
		"stage", stats.Stage,
		"succeeded", stats.Succeeded,
		"skipped", stats.Skipped,
		"failed", stats.Failed)
}
