// Tastemaker - Semantic Media Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tastemaker

// Package services provides suture service wrappers for the long-running
// parts of the application.
package services

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/tomtom215/tastemaker/internal/metrics"
	"github.com/tomtom215/tastemaker/internal/recommend"
)

// Generator is the slice of the recommendation engine the batch service
// drives. Defined here so the service does not depend on the engine type.
type Generator interface {
	GenerateRecommendations(ctx context.Context, userID int, mediaType recommend.MediaType, targetCount int) (*recommend.Run, error)
	PruneRuns(ctx context.Context, userID int, mediaType recommend.MediaType, keep int) error
}

// UserLister enumerates users with watch history. Satisfied by *database.DB.
type UserLister interface {
	ListUserIDs(ctx context.Context) ([]int, error)
}

// BatchServiceConfig holds configuration for the batch generation service.
type BatchServiceConfig struct {
	// Interval is the time between sweeps.
	// Default: 24h
	Interval time.Duration

	// Concurrency bounds the number of users processed in parallel.
	// Default: 4
	Concurrency int

	// RunsPerSecond rate-limits run starts across the sweep. 0 = unlimited.
	RunsPerSecond float64

	// KeepRuns is how many completed runs to retain per user when pruning.
	// Default: 3
	KeepRuns int

	// MediaTypes are the media types swept per user.
	// Default: movie and series.
	MediaTypes []recommend.MediaType

	// SweepOnStartup triggers a sweep as soon as the service starts.
	SweepOnStartup bool
}

// BatchService periodically generates recommendations for every user with
// watch history. Each sweep walks all users, generates a run per media type
// under a shared rate limit, then prunes old runs.
type BatchService struct {
	generator Generator
	users     UserLister
	config    BatchServiceConfig
	limiter   *rate.Limiter
	logger    zerolog.Logger
	name      string
}

// NewBatchService creates a new batch generation service.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewBatchService(generator Generator, users UserLister, cfg BatchServiceConfig, logger zerolog.Logger) *BatchService {
	if cfg.Interval <= 0 {
		cfg.Interval = 24 * time.Hour
	}
	if cfg.Concurrency < 1 {
		cfg.Concurrency = 4
	}
	if cfg.KeepRuns < 1 {
		cfg.KeepRuns = 3
	}
	if len(cfg.MediaTypes) == 0 {
		cfg.MediaTypes = []recommend.MediaType{recommend.MediaTypeMovie, recommend.MediaTypeSeries}
	}

	limit := rate.Inf
	if cfg.RunsPerSecond > 0 {
		limit = rate.Limit(cfg.RunsPerSecond)
	}

	return &BatchService{
		generator: generator,
		users:     users,
		config:    cfg,
		limiter:   rate.NewLimiter(limit, 1),
		logger:    logger.With().Str("service", "batch").Logger(),
		name:      "batch-service",
	}
}

// Serve implements suture.Service. It runs sweeps until the context is
// canceled.
func (s *BatchService) Serve(ctx context.Context) error {
	s.logger.Info().
		Dur("interval", s.config.Interval).
		Int("concurrency", s.config.Concurrency).
		Float64("runs_per_second", s.config.RunsPerSecond).
		Msg("batch service starting")

	if s.config.SweepOnStartup {
		if err := s.Sweep(ctx); err != nil && !errors.Is(err, context.Canceled) {
			s.logger.Warn().Err(err).Msg("startup sweep failed")
		}
	}

	ticker := time.NewTicker(s.config.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info().Msg("batch service shutting down")
			return ctx.Err()

		case <-ticker.C:
			if err := s.Sweep(ctx); err != nil && !errors.Is(err, context.Canceled) {
				s.logger.Warn().Err(err).Msg("scheduled sweep failed")
			}
		}
	}
}

// Sweep generates recommendations for every user once. Per-user failures
// are logged and counted but do not abort the sweep; only an unusable
// engine (no embedding model configured) or context cancellation stops it.
func (s *BatchService) Sweep(ctx context.Context) error {
	start := time.Now()

	userIDs, err := s.users.ListUserIDs(ctx)
	if err != nil {
		return err
	}

	s.logger.Info().Int("users", len(userIDs)).Msg("sweep starting")
	metrics.BatchSweeps.Inc()

	sweepCtx, cancel := context.WithCancelCause(ctx)
	defer cancel(nil)

	var wg sync.WaitGroup
	sem := make(chan struct{}, s.config.Concurrency)

	for _, userID := range userIDs {
		select {
		case sem <- struct{}{}:
		case <-sweepCtx.Done():
			wg.Wait()
			return context.Cause(sweepCtx)
		}

		wg.Add(1)
		go func(userID int) {
			defer wg.Done()
			defer func() { <-sem }()

			if err := s.sweepUser(sweepCtx, userID); err != nil {
				metrics.BatchUsersProcessed.WithLabelValues("error").Inc()
				if errors.Is(err, recommend.ErrNoEmbeddingModel) {
					// No model means no user can succeed. Stop the sweep.
					cancel(err)
					return
				}
				if !errors.Is(err, context.Canceled) {
					s.logger.Warn().Err(err).Int("user_id", userID).Msg("user sweep failed")
				}
				return
			}
			metrics.BatchUsersProcessed.WithLabelValues("ok").Inc()
		}(userID)
	}
	wg.Wait()

	if sweepCtx.Err() != nil {
		return context.Cause(sweepCtx)
	}

	s.logger.Info().
		Int("users", len(userIDs)).
		Dur("duration", time.Since(start)).
		Msg("sweep complete")
	return nil
}

func (s *BatchService) sweepUser(ctx context.Context, userID int) error {
	for _, mediaType := range s.config.MediaTypes {
		if err := s.limiter.Wait(ctx); err != nil {
			return err
		}
		if _, err := s.generator.GenerateRecommendations(ctx, userID, mediaType, 0); err != nil {
			return err
		}
		if err := s.generator.PruneRuns(ctx, userID, mediaType, s.config.KeepRuns); err != nil {
			return err
		}
	}
	return nil
}

// String returns the service name for logging.
func (s *BatchService) String() string {
	return s.name
}
