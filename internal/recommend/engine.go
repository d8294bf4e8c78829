// Tastemaker - Semantic Media Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tastemaker

package recommend

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/tomtom215/tastemaker/internal/metrics"
)

// Dependencies are the external collaborators the engine reads from and
// writes to. Events is optional; everything else is required.
type Dependencies struct {
	Embeddings EmbeddingStore
	History    WatchHistoryProvider
	Catalog    CatalogProvider
	Runs       RunStore
	Tastes     TasteVectorStore
	Events     EventPublisher
}

func (d Dependencies) validate() error {
	switch {
	case d.Embeddings == nil:
		return fmt.Errorf("embedding store is required")
	case d.History == nil:
		return fmt.Errorf("watch history provider is required")
	case d.Catalog == nil:
		return fmt.Errorf("catalog provider is required")
	case d.Runs == nil:
		return fmt.Errorf("run store is required")
	case d.Tastes == nil:
		return fmt.Errorf("taste vector store is required")
	}
	return nil
}

// Engine orchestrates the recommendation pipeline: taste profile, candidate
// retrieval, scoring, diversity selection and persistence. It is safe for
// concurrent use; runs for different users share no mutable state.
type Engine struct {
	config   *Config
	pipeline Pipeline
	deps     Dependencies
	logger   zerolog.Logger

	statsMu sync.Mutex
	stats   Stats
}

// NewEngine creates an engine from a validated config, a complete pipeline
// and the required dependencies.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewEngine(cfg *Config, pipeline Pipeline, deps Dependencies, logger zerolog.Logger) (*Engine, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	if pipeline.Profiler == nil || pipeline.Scorer == nil || pipeline.Selector == nil || pipeline.Evidence == nil {
		return nil, fmt.Errorf("pipeline is incomplete")
	}
	if err := deps.validate(); err != nil {
		return nil, err
	}

	return &Engine{
		config:   cfg.Clone(),
		pipeline: pipeline,
		deps:     deps,
		logger:   logger.With().Str("component", "engine").Logger(),
	}, nil
}

// watchedPool is the user's watch history resolved against the catalog and
// embedding store. entries holds only items with an embedding, preserving
// signal order; genres covers every watched item with catalog metadata.
type watchedPool struct {
	entries   []WatchedEmbedding
	genres    [][]string
	favorites int
}

func (e *Engine) loadWatchedPool(ctx context.Context, userID int, mediaType MediaType) (*watchedPool, error) {
	signals, err := e.deps.History.GetWatchSignals(ctx, userID, mediaType, e.config.HistorySize)
	if err != nil {
		return nil, fmt.Errorf("fetch watch signals: %w", err)
	}
	if len(signals) == 0 {
		return &watchedPool{}, nil
	}

	itemIDs := make([]int, len(signals))
	for i, s := range signals {
		itemIDs[i] = s.ItemID
	}

	vectors, err := e.deps.Embeddings.GetBatch(ctx, e.config.ModelID, itemIDs)
	if err != nil {
		return nil, fmt.Errorf("fetch watched embeddings: %w", err)
	}
	items, err := e.deps.Catalog.GetItems(ctx, itemIDs)
	if err != nil {
		return nil, fmt.Errorf("fetch watched items: %w", err)
	}
	favorites, err := e.deps.History.GetFavoriteCount(ctx, userID, mediaType)
	if err != nil {
		return nil, fmt.Errorf("fetch favorite count: %w", err)
	}

	pool := &watchedPool{favorites: favorites}
	for _, s := range signals {
		item, hasItem := items[s.ItemID]
		if hasItem {
			pool.genres = append(pool.genres, item.Genres)
		}

		vec, hasVec := vectors[s.ItemID]
		if !hasVec {
			// Missing embedding is a soft skip, not a failure.
			metrics.ProfileSkippedItems.Inc()
			e.logger.Debug().Int("user_id", userID).Int("item_id", s.ItemID).
				Msg("watched item has no embedding, skipping")
			continue
		}
		pool.entries = append(pool.entries, WatchedEmbedding{
			Signal: s,
			Item:   item,
			Vector: vec,
		})
	}
	return pool, nil
}

// BuildTasteProfile rebuilds and persists the user's taste vector. It
// returns nil without error on cold start: no watch history, or no watched
// item with an embedding.
func (e *Engine) BuildTasteProfile(ctx context.Context, userID int, mediaType MediaType) (*TasteVector, error) {
	if e.config.ModelID == "" {
		return nil, ErrNoEmbeddingModel
	}

	pool, err := e.loadWatchedPool(ctx, userID, mediaType)
	if err != nil {
		return nil, err
	}
	return e.buildProfile(ctx, userID, mediaType, pool)
}

func (e *Engine) buildProfile(ctx context.Context, userID int, mediaType MediaType, pool *watchedPool) (*TasteVector, error) {
	vec := e.pipeline.Profiler.Build(pool.entries, pool.favorites)
	if vec == nil {
		metrics.ProfileColdStarts.Inc()
		e.logger.Debug().Int("user_id", userID).Str("media_type", string(mediaType)).
			Msg("no usable taste profile")
		return nil, nil
	}

	tv := &TasteVector{
		UserID:    userID,
		MediaType: mediaType,
		Vector:    vec,
		UpdatedAt: time.Now().UTC(),
	}
	if err := e.deps.Tastes.UpsertTasteVector(ctx, tv); err != nil {
		return nil, fmt.Errorf("persist taste vector: %w", err)
	}

	metrics.ProfilesBuilt.Inc()
	return tv, nil
}

// GenerateRecommendations runs the full pipeline for one user and media
// type, persisting an auditable run. targetCount 0 uses the configured
// default; values above the configured maximum are clamped. Any failure
// after run creation finalizes the run as failed and returns the error;
// a run is never left pending.
func (e *Engine) GenerateRecommendations(ctx context.Context, userID int, mediaType MediaType, targetCount int) (*Run, error) {
	if e.config.ModelID == "" {
		return nil, ErrNoEmbeddingModel
	}
	switch {
	case targetCount < 0:
		return nil, ErrInvalidTargetCount
	case targetCount == 0:
		targetCount = e.config.TargetCount
	case targetCount > e.config.MaxTargetCount:
		targetCount = e.config.MaxTargetCount
	}

	start := time.Now()
	run := &Run{
		ID:        uuid.NewString(),
		UserID:    userID,
		MediaType: mediaType,
		Status:    RunPending,
		CreatedAt: start.UTC(),
	}
	if err := e.deps.Runs.CreateRun(ctx, run); err != nil {
		return nil, fmt.Errorf("create run: %w", err)
	}

	if err := e.generate(ctx, run, targetCount, start); err != nil {
		e.failRun(ctx, run, err, time.Since(start))
		return nil, err
	}

	metrics.RecordRun("completed", string(mediaType), time.Since(start))
	metrics.RunCandidates.Observe(float64(run.CandidateCount))
	metrics.RunSelected.Observe(float64(run.SelectedCount))
	e.noteRun(RunCompleted)

	e.logger.Info().
		Str("run_id", run.ID).
		Int("user_id", userID).
		Str("media_type", string(mediaType)).
		Int("candidates", run.CandidateCount).
		Int("selected", run.SelectedCount).
		Int64("duration_ms", run.DurationMS).
		Msg("recommendation run completed")

	if e.deps.Events != nil {
		if err := e.deps.Events.PublishRunCompleted(run); err != nil {
			e.logger.Warn().Err(err).Str("run_id", run.ID).Msg("publish run.completed failed")
		}
	}
	return run, nil
}

// generate executes profile through persistence for an already-created run.
// On success the run's terminal fields are filled and the completed
// transition is committed; any returned error leaves the run pending for
// the caller to fail.
func (e *Engine) generate(ctx context.Context, run *Run, targetCount int, start time.Time) error {
	stage := time.Now()
	pool, err := e.loadWatchedPool(ctx, run.UserID, run.MediaType)
	if err != nil {
		return err
	}
	taste, err := e.buildProfile(ctx, run.UserID, run.MediaType, pool)
	if err != nil {
		return err
	}
	metrics.ObserveStage("profile", time.Since(stage))

	if taste == nil {
		// Cold start completes the run with nothing selected.
		return e.completeRun(ctx, run, nil, nil, 0, start)
	}

	stage = time.Now()
	neighbors, err := e.retrieve(ctx, run.UserID, run.MediaType, taste.Vector)
	if err != nil {
		return err
	}
	metrics.ObserveStage("retrieve", time.Since(stage))

	if len(neighbors) == 0 {
		return e.completeRun(ctx, run, nil, nil, 0, start)
	}

	stage = time.Now()
	candidates, err := e.score(ctx, run, neighbors, pool)
	if err != nil {
		return err
	}
	metrics.ObserveStage("score", time.Since(stage))

	if err := e.deps.Runs.InsertCandidates(ctx, candidates); err != nil {
		return fmt.Errorf("persist candidates: %w", err)
	}

	stage = time.Now()
	selected := e.pipeline.Selector.Select(candidates, targetCount, e.config.DiversityWeight)
	metrics.ObserveStage("select", time.Since(stage))

	evidence, err := e.buildEvidence(ctx, selected, pool)
	if err != nil {
		return err
	}

	return e.completeRun(ctx, run, selected, evidence, len(candidates), start)
}

type neighborHit struct {
	itemID     int
	similarity float64
}

func (e *Engine) retrieve(ctx context.Context, userID int, mediaType MediaType, taste []float32) ([]neighborHit, error) {
	watchedIDs, err := e.deps.History.GetWatchedItemIDs(ctx, userID, mediaType)
	if err != nil {
		return nil, fmt.Errorf("fetch watched item IDs: %w", err)
	}
	exclude := make(map[int]struct{}, len(watchedIDs))
	for _, id := range watchedIDs {
		exclude[id] = struct{}{}
	}

	eligible, err := e.deps.Catalog.EligibleItemIDs(ctx, mediaType, e.config.ParentalRatingLimit)
	if err != nil {
		return nil, fmt.Errorf("fetch eligible items: %w", err)
	}

	// Exclusion and availability are pushed into the scan itself.
	neighbors, err := e.deps.Embeddings.Search(ctx, e.config.ModelID, taste, e.config.CandidateLimit, func(itemID int) bool {
		if _, watched := exclude[itemID]; watched {
			return false
		}
		_, ok := eligible[itemID]
		return ok
	})
	if err != nil {
		return nil, fmt.Errorf("nearest-neighbor search: %w", err)
	}

	hits := make([]neighborHit, len(neighbors))
	for i, n := range neighbors {
		hits[i] = neighborHit{itemID: n.ItemID, similarity: n.Similarity}
	}
	return hits, nil
}

func (e *Engine) score(ctx context.Context, run *Run, neighbors []neighborHit, pool *watchedPool) ([]Candidate, error) {
	itemIDs := make([]int, len(neighbors))
	for i, n := range neighbors {
		itemIDs[i] = n.itemID
	}
	items, err := e.deps.Catalog.GetItems(ctx, itemIDs)
	if err != nil {
		return nil, fmt.Errorf("fetch candidate items: %w", err)
	}

	candidates := make([]Candidate, 0, len(neighbors))
	for _, n := range neighbors {
		item, ok := items[n.itemID]
		if !ok {
			e.logger.Debug().Int("item_id", n.itemID).Msg("candidate missing catalog metadata, skipping")
			continue
		}
		candidates = append(candidates, Candidate{
			ID:         uuid.NewString(),
			RunID:      run.ID,
			Item:       item,
			Similarity: n.similarity,
		})
	}

	e.pipeline.Scorer.Score(candidates, pool.genres, e.config.Weights)
	return candidates, nil
}

func (e *Engine) buildEvidence(ctx context.Context, selected []Candidate, pool *watchedPool) ([]Evidence, error) {
	if len(selected) == 0 || e.config.EvidencePerItem == 0 {
		return nil, nil
	}

	itemIDs := make([]int, len(selected))
	for i, c := range selected {
		itemIDs[i] = c.Item.ID
	}
	vectors, err := e.deps.Embeddings.GetBatch(ctx, e.config.ModelID, itemIDs)
	if err != nil {
		return nil, fmt.Errorf("fetch selected embeddings: %w", err)
	}

	return e.pipeline.Evidence.Build(selected, vectors, pool.entries, e.config.EvidencePerItem), nil
}

// completeRun commits the terminal completed transition and fills the run's
// summary fields. Selection flags, evidence and the status change land in
// one transaction.
func (e *Engine) completeRun(ctx context.Context, run *Run, selected []Candidate, evidence []Evidence, candidateCount int, start time.Time) error {
	// The terminal write must land even if the caller's context is already
	// cancelled, otherwise the run stays pending.
	ctx = context.WithoutCancel(ctx)

	stage := time.Now()
	duration := time.Since(start)
	if err := e.deps.Runs.CompleteRun(ctx, run.ID, selected, evidence, candidateCount, duration.Milliseconds()); err != nil {
		return fmt.Errorf("complete run: %w", err)
	}
	metrics.ObserveStage("persist", time.Since(stage))
	metrics.EvidenceRowsWritten.Add(float64(len(evidence)))

	run.Status = RunCompleted
	run.CandidateCount = candidateCount
	run.SelectedCount = len(selected)
	run.DurationMS = duration.Milliseconds()
	run.CompletedAt = time.Now().UTC()
	if candidateCount == 0 {
		e.noteColdStart()
	}
	return nil
}

// failRun finalizes a run as failed. The run must never stay pending, so a
// failure to record the transition is logged but not propagated over the
// original error.
func (e *Engine) failRun(ctx context.Context, run *Run, cause error, duration time.Duration) {
	// Cancellation is itself a failure cause, so the transition is written
	// under a detached context. Reusing the cancelled one would make the
	// write fail and strand the run in pending.
	ctx = context.WithoutCancel(ctx)

	run.Status = RunFailed
	run.ErrorMessage = cause.Error()
	run.DurationMS = duration.Milliseconds()
	run.CompletedAt = time.Now().UTC()

	if err := e.deps.Runs.FailRun(ctx, run.ID, cause.Error(), run.DurationMS); err != nil {
		e.logger.Error().Err(err).Str("run_id", run.ID).Msg("failed to mark run failed")
	}

	metrics.RecordRun("failed", string(run.MediaType), duration)
	e.noteRun(RunFailed)

	e.logger.Error().Err(cause).
		Str("run_id", run.ID).
		Int("user_id", run.UserID).
		Msg("recommendation run failed")

	if e.deps.Events != nil {
		if err := e.deps.Events.PublishRunFailed(run); err != nil {
			e.logger.Warn().Err(err).Str("run_id", run.ID).Msg("publish run.failed failed")
		}
	}
}

// GetActiveRun returns the user's latest completed run, or nil when the
// user has none.
func (e *Engine) GetActiveRun(ctx context.Context, userID int, mediaType MediaType) (*Run, error) {
	return e.deps.Runs.GetActiveRun(ctx, userID, mediaType)
}

// GetSelection returns a run's selected candidates in rank order.
func (e *Engine) GetSelection(ctx context.Context, runID string) ([]Candidate, error) {
	return e.deps.Runs.GetSelection(ctx, runID)
}

// ClearRecommendations deletes all runs, candidates and evidence for a
// user, ahead of a rebuild.
func (e *Engine) ClearRecommendations(ctx context.Context, userID int) error {
	if err := e.deps.Runs.DeleteUserRuns(ctx, userID); err != nil {
		return fmt.Errorf("clear recommendations: %w", err)
	}
	e.logger.Info().Int("user_id", userID).Msg("cleared recommendation history")
	return nil
}

// PruneRuns removes all but the newest keep completed runs for a user and
// media type.
func (e *Engine) PruneRuns(ctx context.Context, userID int, mediaType MediaType, keep int) error {
	return e.deps.Runs.PruneRuns(ctx, userID, mediaType, keep)
}

func (e *Engine) noteRun(status RunStatus) {
	e.statsMu.Lock()
	defer e.statsMu.Unlock()
	switch status {
	case RunCompleted:
		e.stats.RunsCompleted++
	case RunFailed:
		e.stats.RunsFailed++
	}
	e.stats.LastRunAt = time.Now().UTC()
}

func (e *Engine) noteColdStart() {
	e.statsMu.Lock()
	defer e.statsMu.Unlock()
	e.stats.ColdStarts++
}

// Stats returns a snapshot of engine activity since startup.
func (e *Engine) Stats() Stats {
	e.statsMu.Lock()
	defer e.statsMu.Unlock()
	return e.stats
}
