// Tastemaker - Semantic Media Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tastemaker

// Package main is the entry point for the Tastemaker server.
//
// Tastemaker is a self-hosted recommendation engine for media libraries. It
// builds a taste profile per user from watch history, retrieves semantically
// similar unwatched items from an embedding store, scores them on similarity,
// genre novelty and community rating, and selects a diverse shortlist with
// per-item evidence explaining each pick.
//
// # Application Architecture
//
// The server initializes components in the following order:
//
//  1. Configuration: defaults, optional YAML file, TASTEMAKER_ env vars (Koanf v2)
//  2. Database: DuckDB run store (items, watch signals, runs, evidence)
//  3. Embedding store: BadgerDB vector store for item embeddings
//  4. Event bus: in-process Watermill pub/sub for run lifecycle events
//  5. Engine: the recommendation pipeline with its stage implementations
//  6. Supervisor tree: batch sweep, metrics listener, run event consumer
//
// # Configuration
//
// Configuration is loaded via Koanf v2 with layered sources (highest
// priority wins):
//   - Environment variables prefixed TASTEMAKER_ (e.g. TASTEMAKER_DATABASE_PATH)
//   - Config file (config.yaml)
//   - Built-in defaults
//
// The embedding model must be configured before any recommendations can be
// generated:
//
//	export TASTEMAKER_EMBEDDINGS_MODEL_ID=all-MiniLM-L6-v2
//	export TASTEMAKER_EMBEDDINGS_PATH=/data/embeddings
//	export TASTEMAKER_DATABASE_PATH=/data/tastemaker.duckdb
//	export TASTEMAKER_BATCH_ENABLED=true
//	./tastemaker
//
// # Signal Handling
//
// The server handles graceful shutdown on SIGINT and SIGTERM: the supervisor
// tree drains its services, then the embedding store and database are closed.
package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/tomtom215/tastemaker/internal/config"
	"github.com/tomtom215/tastemaker/internal/database"
	"github.com/tomtom215/tastemaker/internal/embedding"
	"github.com/tomtom215/tastemaker/internal/events"
	"github.com/tomtom215/tastemaker/internal/logging"
	"github.com/tomtom215/tastemaker/internal/recommend"
	"github.com/tomtom215/tastemaker/internal/supervisor"
	"github.com/tomtom215/tastemaker/internal/supervisor/services"
)

func main() {
	// Load configuration first to get logging settings.
	cfg, err := config.Load()
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
	})

	logging.Info().
		Str("db_path", cfg.Database.Path).
		Str("embeddings_path", cfg.Embeddings.Path).
		Str("model_id", cfg.Embeddings.ModelID).
		Bool("batch_enabled", cfg.Batch.Enabled).
		Msg("Configuration loaded")

	if cfg.Embeddings.ModelID == "" {
		logging.Warn().Msg("No embedding model configured (TASTEMAKER_EMBEDDINGS_MODEL_ID) - recommendation generation will be refused")
	}

	db, err := database.New(&cfg.Database, logging.Logger())
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to initialize database")
	}
	defer func() {
		if err := db.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing database")
		}
	}()
	logging.Info().Msg("Database initialized successfully")

	embeddings, err := embedding.Open(cfg.Embeddings.Path, logging.Logger())
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to open embedding store")
	}
	defer func() {
		if err := embeddings.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing embedding store")
		}
	}()
	logging.Info().Msg("Embedding store opened")

	bus := events.NewBus(events.Config{}, logging.Logger())
	defer func() {
		if err := bus.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing event bus")
		}
	}()

	engine, err := newEngine(cfg, db, embeddings, bus)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to create recommendation engine")
	}

	// Create context for graceful shutdown.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// The supervisor logs through slog; bridge it to zerolog.
	slogLogger := logging.NewSlogLogger()

	tree, err := supervisor.NewSupervisorTree(slogLogger, supervisor.DefaultTreeConfig())
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to create supervisor tree")
	}

	// === ADD SERVICES TO SUPERVISOR TREE ===

	tree.AddTelemetryService(services.NewRunEventService(bus, logging.Logger()))

	if cfg.Metrics.Enabled {
		tree.AddTelemetryService(services.NewMetricsService(cfg.Metrics.Addr, 10*time.Second, logging.Logger()))
		logging.Info().Str("addr", cfg.Metrics.Addr).Msg("Metrics listener added to supervisor tree")
	}

	if cfg.Batch.Enabled {
		batchSvc := services.NewBatchService(engine, db, services.BatchServiceConfig{
			Interval:       cfg.Batch.Interval,
			Concurrency:    cfg.Batch.Concurrency,
			RunsPerSecond:  cfg.Batch.RunsPerSecond,
			KeepRuns:       cfg.Batch.KeepRuns,
			SweepOnStartup: true,
		}, logging.Logger())
		tree.AddBatchService(batchSvc)
		logging.Info().
			Dur("interval", cfg.Batch.Interval).
			Int("concurrency", cfg.Batch.Concurrency).
			Msg("Batch generation service added to supervisor tree")
	} else {
		logging.Info().Msg("Batch generation disabled (TASTEMAKER_BATCH_ENABLED=false)")
	}

	// === START SUPERVISOR TREE ===

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logging.Info().Str("signal", sig.String()).Msg("Received shutdown signal")
		cancel()
	}()

	logging.Info().Msg("Starting supervisor tree...")
	errCh := tree.ServeBackground(ctx)

	select {
	case <-ctx.Done():
		logging.Info().Msg("Context canceled, waiting for supervisor to finish...")
	case err := <-errCh:
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("Supervisor tree error")
		}
	}

	// Drain the error channel; it closes when the supervisor has stopped.
	for err := range errCh {
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("Supervisor shutdown error")
		}
	}

	unstopped, _ := tree.UnstoppedServiceReport()
	if len(unstopped) > 0 {
		logging.Warn().Int("count", len(unstopped)).Msg("Services failed to stop within timeout")
		for _, svc := range unstopped {
			logging.Warn().Str("service", svc.Name).Msg("Service failed to stop")
		}
	}

	logging.Info().Msg("Application stopped gracefully")
}

// newEngine wires the recommendation pipeline from configuration. The stage
// implementations live in subpackages and are injected here so the engine
// package stays free of internal dependencies.
func newEngine(cfg *config.Config, db *database.DB, embeddings *embedding.Store, bus *events.Bus) (*recommend.Engine, error) {
	engineCfg := &recommend.Config{
		ModelID:        cfg.Embeddings.ModelID,
		HistorySize:    cfg.Recommend.HistorySize,
		CandidateLimit: cfg.Recommend.CandidateLimit,
		TargetCount:    cfg.Recommend.TargetCount,
		MaxTargetCount: cfg.Recommend.MaxTargetCount,
		Weights: recommend.ScoreWeights{
			Similarity: cfg.Recommend.SimilarityWeight,
			Novelty:    cfg.Recommend.NoveltyWeight,
			Rating:     cfg.Recommend.RatingWeight,
		},
		DiversityWeight:     cfg.Recommend.DiversityWeight,
		EvidencePerItem:     cfg.Recommend.EvidencePerItem,
		ParentalRatingLimit: cfg.Recommend.ParentalRatingLimit,
	}

	// The DuckDB watch-history reads sit behind a circuit breaker so a
	// wedged database surfaces as fast failures instead of pile-ups.
	history := recommend.NewGuardedHistory(db, recommend.BreakerSettings{}, logging.Logger())

	return recommend.NewEngine(engineCfg, newPipeline(), recommend.Dependencies{
		Embeddings: embeddings,
		History:    history,
		Catalog:    db,
		Runs:       db,
		Tastes:     db,
		Events:     bus,
	}, logging.Logger())
}
