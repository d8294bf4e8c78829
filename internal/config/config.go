// Tastemaker - Semantic Media Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tastemaker

// Package config loads and validates Tastemaker configuration.
//
// Configuration is resolved in three layers, later layers overriding earlier
// ones: built-in defaults, an optional YAML config file, and environment
// variables prefixed with TASTEMAKER_ (e.g. TASTEMAKER_DATABASE_PATH).
package config

import (
	"fmt"
	"time"
)

// Config is the root configuration for the Tastemaker server.
type Config struct {
	Logging    LoggingConfig    `koanf:"logging"`
	Database   DatabaseConfig   `koanf:"database"`
	Embeddings EmbeddingsConfig `koanf:"embeddings"`
	Recommend  RecommendConfig  `koanf:"recommend"`
	Batch      BatchConfig      `koanf:"batch"`
	Metrics    MetricsConfig    `koanf:"metrics"`
}

// LoggingConfig controls log output.
type LoggingConfig struct {
	// Level is the minimum log level: debug, info, warn, error.
	Level string `koanf:"level"`

	// Format is json or console.
	Format string `koanf:"format"`
}

// DatabaseConfig controls the DuckDB run store.
type DatabaseConfig struct {
	// Path is the DuckDB database file path.
	Path string `koanf:"path"`

	// MaxMemory is the DuckDB memory limit (e.g. "2GB").
	MaxMemory string `koanf:"max_memory"`

	// Threads is the DuckDB thread count. 0 = runtime.NumCPU().
	Threads int `koanf:"threads"`
}

// EmbeddingsConfig controls the BadgerDB embedding store.
type EmbeddingsConfig struct {
	// Path is the BadgerDB directory for embedding vectors.
	Path string `koanf:"path"`

	// ModelID identifies the active embedding model. Empty means no model
	// is configured and recommendation generation is refused.
	ModelID string `koanf:"model_id"`

	// Dimensions is the fixed vector length produced by the model.
	Dimensions int `koanf:"dimensions"`
}

// RecommendConfig holds the recommendation engine parameters.
type RecommendConfig struct {
	// HistorySize is the maximum number of watch signals used to build a
	// taste profile.
	HistorySize int `koanf:"history_size"`

	// CandidateLimit is the maximum number of nearest-neighbor candidates
	// retrieved per run.
	CandidateLimit int `koanf:"candidate_limit"`

	// TargetCount is the default number of recommendations per run.
	TargetCount int `koanf:"target_count"`

	// MaxTargetCount caps caller-supplied target counts.
	MaxTargetCount int `koanf:"max_target_count"`

	// SimilarityWeight, NoveltyWeight and RatingWeight blend the base score.
	// The engine does not normalize them; keep the sum sensible.
	SimilarityWeight float64 `koanf:"similarity_weight"`
	NoveltyWeight    float64 `koanf:"novelty_weight"`
	RatingWeight     float64 `koanf:"rating_weight"`

	// DiversityWeight in [0,1] blends base score against diversity boost
	// during selection. 0 = pure score, 1 = pure diversity.
	DiversityWeight float64 `koanf:"diversity_weight"`

	// EvidencePerItem is the number of nearest watched items persisted as
	// evidence per selected candidate.
	EvidencePerItem int `koanf:"evidence_per_item"`

	// ParentalRatingLimit is the maximum official rating retrieved
	// (e.g. "PG-13"). Empty disables the ceiling.
	ParentalRatingLimit string `koanf:"parental_rating_limit"`
}

// BatchConfig controls the supervised batch generation service.
type BatchConfig struct {
	// Enabled turns the periodic batch generation loop on.
	Enabled bool `koanf:"enabled"`

	// Interval is the time between batch generation sweeps.
	Interval time.Duration `koanf:"interval"`

	// Concurrency bounds the number of users processed in parallel.
	Concurrency int `koanf:"concurrency"`

	// RunsPerSecond rate-limits run starts across the sweep, matching the
	// embedding provider quota upstream. 0 = unlimited.
	RunsPerSecond float64 `koanf:"runs_per_second"`

	// KeepRuns is how many completed runs to retain per user when pruning.
	KeepRuns int `koanf:"keep_runs"`
}

// MetricsConfig controls the Prometheus metrics endpoint.
type MetricsConfig struct {
	// Enabled turns the metrics HTTP listener on.
	Enabled bool `koanf:"enabled"`

	// Addr is the listen address for /metrics.
	Addr string `koanf:"addr"`
}

// defaultConfig returns a Config with production defaults applied.
func defaultConfig() *Config {
	return &Config{
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
		Database: DatabaseConfig{
			Path:      "/data/tastemaker.duckdb",
			MaxMemory: "2GB",
			Threads:   0,
		},
		Embeddings: EmbeddingsConfig{
			Path:       "/data/embeddings",
			ModelID:    "",
			Dimensions: 384,
		},
		Recommend: RecommendConfig{
			HistorySize:         50,
			CandidateLimit:      100,
			TargetCount:         20,
			MaxTargetCount:      100,
			SimilarityWeight:    0.5,
			NoveltyWeight:       0.25,
			RatingWeight:        0.25,
			DiversityWeight:     0.3,
			EvidencePerItem:     3,
			ParentalRatingLimit: "",
		},
		Batch: BatchConfig{
			Enabled:       false,
			Interval:      24 * time.Hour,
			Concurrency:   4,
			RunsPerSecond: 1.0,
			KeepRuns:      3,
		},
		Metrics: MetricsConfig{
			Enabled: true,
			Addr:    ":9090",
		},
	}
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	if c.Database.Path == "" {
		return fmt.Errorf("database.path must not be empty")
	}
	if c.Embeddings.Path == "" {
		return fmt.Errorf("embeddings.path must not be empty")
	}
	if c.Embeddings.Dimensions < 1 {
		return fmt.Errorf("embeddings.dimensions must be positive, got %d", c.Embeddings.Dimensions)
	}

	if c.Recommend.HistorySize < 1 {
		return fmt.Errorf("recommend.history_size must be positive, got %d", c.Recommend.HistorySize)
	}
	if c.Recommend.CandidateLimit < 1 {
		return fmt.Errorf("recommend.candidate_limit must be positive, got %d", c.Recommend.CandidateLimit)
	}
	if c.Recommend.TargetCount < 1 {
		return fmt.Errorf("recommend.target_count must be positive, got %d", c.Recommend.TargetCount)
	}
	if c.Recommend.MaxTargetCount < c.Recommend.TargetCount {
		return fmt.Errorf("recommend.max_target_count must be >= recommend.target_count, got %d < %d",
			c.Recommend.MaxTargetCount, c.Recommend.TargetCount)
	}
	if c.Recommend.DiversityWeight < 0 || c.Recommend.DiversityWeight > 1 {
		return fmt.Errorf("recommend.diversity_weight must be in [0, 1], got %f", c.Recommend.DiversityWeight)
	}
	if c.Recommend.EvidencePerItem < 0 {
		return fmt.Errorf("recommend.evidence_per_item must be non-negative, got %d", c.Recommend.EvidencePerItem)
	}
	if c.Recommend.SimilarityWeight < 0 || c.Recommend.NoveltyWeight < 0 || c.Recommend.RatingWeight < 0 {
		return fmt.Errorf("recommend score weights must be non-negative")
	}

	if c.Batch.Enabled {
		if c.Batch.Interval <= 0 {
			return fmt.Errorf("batch.interval must be positive, got %v", c.Batch.Interval)
		}
		if c.Batch.Concurrency < 1 {
			return fmt.Errorf("batch.concurrency must be positive, got %d", c.Batch.Concurrency)
		}
		if c.Batch.RunsPerSecond < 0 {
			return fmt.Errorf("batch.runs_per_second must be non-negative, got %f", c.Batch.RunsPerSecond)
		}
	}

	if c.Metrics.Enabled && c.Metrics.Addr == "" {
		return fmt.Errorf("metrics.addr must not be empty when metrics are enabled")
	}

	return nil
}
