// Tastemaker - Semantic Media Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tastemaker

// Package metrics provides Prometheus instrumentation for the
// recommendation pipeline: run outcomes and latency, per-stage timing,
// store operations and evidence volume.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Run Metrics
	RunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tastemaker_runs_total",
			Help: "Total number of recommendation runs by terminal status",
		},
		[]string{"status", "media_type"}, // "completed", "failed"
	)

	RunDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "tastemaker_run_duration_seconds",
			Help:    "End-to-end recommendation run duration in seconds",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
		[]string{"media_type"},
	)

	RunCandidates = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "tastemaker_run_candidates",
			Help:    "Number of candidates scored per run",
			Buckets: []float64{0, 10, 25, 50, 100, 250, 500, 1000},
		},
	)

	RunSelected = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "tastemaker_run_selected",
			Help:    "Number of items selected per run",
			Buckets: []float64{0, 1, 5, 10, 20, 50},
		},
	)

	// Pipeline Stage Metrics
	StageDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "tastemaker_stage_duration_seconds",
			Help:    "Duration of individual pipeline stages in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"stage"}, // "profile", "retrieve", "score", "select", "persist"
	)

	// Taste Profile Metrics
	ProfilesBuilt = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "tastemaker_profiles_built_total",
			Help: "Total number of taste profiles built",
		},
	)

	ProfileColdStarts = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "tastemaker_profile_cold_starts_total",
			Help: "Total number of profile builds with no usable watch history",
		},
	)

	ProfileSkippedItems = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "tastemaker_profile_skipped_items_total",
			Help: "Watched items skipped during profiling for lack of an embedding",
		},
	)

	// Embedding Store Metrics
	EmbeddingStoreOps = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tastemaker_embedding_store_ops_total",
			Help: "Total embedding store operations",
		},
		[]string{"op"}, // "get", "put", "search", "delete"
	)

	EmbeddingSearchDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "tastemaker_embedding_search_duration_seconds",
			Help:    "Nearest-neighbor search duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	// Evidence Metrics
	EvidenceRowsWritten = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "tastemaker_evidence_rows_total",
			Help: "Total evidence rows persisted",
		},
	)

	// Database Metrics
	DBQueryErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tastemaker_db_query_errors_total",
			Help: "Total number of DuckDB query errors",
		},
		[]string{"operation"},
	)

	// Batch Service Metrics
	BatchSweeps = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "tastemaker_batch_sweeps_total",
			Help: "Total number of batch generation sweeps",
		},
	)

	BatchUsersProcessed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tastemaker_batch_users_total",
			Help: "Users processed by the batch generation service",
		},
		[]string{"outcome"}, // "ok", "error"
	)
)

// ObserveStage records a pipeline stage duration.
func ObserveStage(stage string, d time.Duration) {
	StageDuration.WithLabelValues(stage).Observe(d.Seconds())
}

// RecordRun records a terminal run outcome with its duration.
func RecordRun(status, mediaType string, d time.Duration) {
	RunsTotal.WithLabelValues(status, mediaType).Inc()
	RunDuration.WithLabelValues(mediaType).Observe(d.Seconds())
}
