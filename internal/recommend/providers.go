// Tastemaker - Semantic Media Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tastemaker

package recommend

import (
	"context"

	"github.com/tomtom215/tastemaker/internal/embedding"
)

// EmbeddingStore reads per-item vectors and runs nearest-neighbor search.
// Missing embeddings are a soft skip for batch reads, never an error.
type EmbeddingStore interface {
	Get(ctx context.Context, modelID string, itemID int) ([]float32, error)
	GetBatch(ctx context.Context, modelID string, itemIDs []int) (map[int][]float32, error)
	Search(ctx context.Context, modelID string, query []float32, limit int, filter func(itemID int) bool) ([]embedding.Neighbor, error)
}

// WatchHistoryProvider supplies read-only watch signals owned by the
// external watch-history subsystem.
type WatchHistoryProvider interface {
	// GetWatchSignals returns up to limit signals ordered by
	// (isFavorite desc, playCount desc, lastPlayedAt desc).
	GetWatchSignals(ctx context.Context, userID int, mediaType MediaType, limit int) ([]WatchSignal, error)

	// GetFavoriteCount returns the user's total favorite count for the
	// media type, independent of the history cap.
	GetFavoriteCount(ctx context.Context, userID int, mediaType MediaType) (int, error)

	// GetWatchedItemIDs returns every item the user has watched for the
	// media type, for retrieval exclusion.
	GetWatchedItemIDs(ctx context.Context, userID int, mediaType MediaType) ([]int, error)

	// ListUserIDs returns all users with any watch history.
	ListUserIDs(ctx context.Context) ([]int, error)
}

// CatalogProvider supplies catalog item metadata and the availability
// predicate for retrieval.
type CatalogProvider interface {
	// GetItems returns metadata for the given item IDs; unknown IDs are
	// absent from the result.
	GetItems(ctx context.Context, itemIDs []int) (map[int]Item, error)

	// EligibleItemIDs returns the IDs retrievable for the media type under
	// the given parental-rating ceiling, honoring library enablement.
	EligibleItemIDs(ctx context.Context, mediaType MediaType, parentalLimit string) (map[int]struct{}, error)
}

// RunStore persists runs, candidates and evidence. CompleteRun and FailRun
// are the only writers of the pending -> terminal transition and each run
// takes it exactly once.
type RunStore interface {
	CreateRun(ctx context.Context, run *Run) error
	InsertCandidates(ctx context.Context, candidates []Candidate) error

	// CompleteRun atomically flags the selected candidates, writes the
	// evidence rows and transitions the run to completed.
	CompleteRun(ctx context.Context, runID string, selected []Candidate, evidence []Evidence, candidateCount int, durationMS int64) error

	// FailRun transitions the run to failed with the captured message.
	FailRun(ctx context.Context, runID string, errorMessage string, durationMS int64) error

	// GetActiveRun returns the user's latest completed run, or nil.
	GetActiveRun(ctx context.Context, userID int, mediaType MediaType) (*Run, error)

	// GetSelection returns a run's selected candidates in rank order.
	GetSelection(ctx context.Context, runID string) ([]Candidate, error)

	// DeleteUserRuns removes all runs, candidates and evidence for a user.
	DeleteUserRuns(ctx context.Context, userID int) error

	// PruneRuns removes all but the newest keep completed runs for a user
	// and media type, along with their candidates and evidence.
	PruneRuns(ctx context.Context, userID int, mediaType MediaType, keep int) error
}

// TasteVectorStore persists per-user taste vectors, fully overwritten on
// each rebuild.
type TasteVectorStore interface {
	UpsertTasteVector(ctx context.Context, tv *TasteVector) error
	GetTasteVector(ctx context.Context, userID int, mediaType MediaType) (*TasteVector, error)
}

// EventPublisher emits run-lifecycle events. Publish failures must not fail
// the run; the engine logs and moves on.
type EventPublisher interface {
	PublishRunCompleted(run *Run) error
	PublishRunFailed(run *Run) error
}
