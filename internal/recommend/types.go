// Tastemaker - Semantic Media Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tastemaker

package recommend

import (
	"strconv"
	"strings"
	"time"
)

// MediaType identifies the kind of catalog item a run targets.
type MediaType string

const (
	// MediaTypeMovie targets movies.
	MediaTypeMovie MediaType = "movie"
	// MediaTypeSeries targets series.
	MediaTypeSeries MediaType = "series"
)

// RunStatus is the lifecycle state of a recommendation run.
type RunStatus string

const (
	// RunPending marks a run that has been created but not finalized.
	RunPending RunStatus = "pending"
	// RunCompleted marks a successfully finalized run.
	RunCompleted RunStatus = "completed"
	// RunFailed marks a run finalized with an error.
	RunFailed RunStatus = "failed"
)

// WatchSignal is one user/item watch-history row, owned by the external
// watch-history subsystem and read-only to the engine.
type WatchSignal struct {
	// UserID is the internal user identifier.
	UserID int `json:"user_id"`

	// ItemID is the catalog item identifier.
	ItemID int `json:"item_id"`

	// PlayCount is how many times the item was played.
	PlayCount int `json:"play_count"`

	// IsFavorite indicates the user marked the item a favorite.
	IsFavorite bool `json:"is_favorite"`

	// LastPlayedAt is the most recent playback time.
	LastPlayedAt time.Time `json:"last_played_at"`
}

// Item is a catalog item with the metadata the engine scores on.
type Item struct {
	// ID is the unique catalog item identifier.
	ID int `json:"id"`

	// Title is the item title.
	Title string `json:"title"`

	// Year is the release year.
	Year int `json:"year"`

	// MediaType is movie or series.
	MediaType MediaType `json:"media_type"`

	// Genres is the item's genre names.
	Genres []string `json:"genres"`

	// Network is the broadcasting network, set for series only.
	// Diversity logic branches on presence, not on media type.
	Network string `json:"network,omitempty"`

	// CommunityRating is the external 0-10 community rating.
	// Nil means unrated.
	CommunityRating *float64 `json:"community_rating,omitempty"`

	// OfficialRating is the parental rating (PG, R, TV-MA, ...).
	OfficialRating string `json:"official_rating,omitempty"`

	// LibraryEnabled indicates the item's library is enabled for retrieval.
	LibraryEnabled bool `json:"library_enabled"`
}

// TitleYearKey returns the normalized duplicate-detection key for an item.
// Two distinct titles sharing a lowercase name and year collide on this key;
// that collision semantics is deliberate and relied upon by the selector.
func (i Item) TitleYearKey() string {
	return strings.ToLower(i.Title) + strconv.Itoa(i.Year)
}

// WatchedEmbedding pairs a watch signal with its item metadata and embedding
// vector. It is the unit of input for taste profiling and evidence building.
type WatchedEmbedding struct {
	// Signal is the user's watch signal for the item.
	Signal WatchSignal

	// Item is the catalog item metadata.
	Item Item

	// Vector is the item's embedding under the active model.
	Vector []float32
}

// TasteVector is a user's aggregate preference vector, fully overwritten on
// each profile rebuild. The vector is always L2-normalized.
type TasteVector struct {
	UserID    int       `json:"user_id"`
	MediaType MediaType `json:"media_type"`
	Vector    []float32 `json:"vector"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Run is one execution of the recommendation pipeline for one user.
// A run transitions pending -> {completed|failed} exactly once and is
// otherwise immutable.
type Run struct {
	// ID is the run UUID.
	ID string `json:"id"`

	// UserID is the user the run was generated for.
	UserID int `json:"user_id"`

	// MediaType is the media type the run targeted.
	MediaType MediaType `json:"media_type"`

	// Status is the lifecycle state.
	Status RunStatus `json:"status"`

	// CandidateCount is the number of scored candidates persisted.
	CandidateCount int `json:"candidate_count"`

	// SelectedCount is the number of selected candidates.
	SelectedCount int `json:"selected_count"`

	// DurationMS is the end-to-end run duration in milliseconds.
	DurationMS int64 `json:"duration_ms"`

	// CreatedAt is when the run was created (status pending).
	CreatedAt time.Time `json:"created_at"`

	// CompletedAt is when the run was finalized.
	CompletedAt time.Time `json:"completed_at,omitzero"`

	// ErrorMessage carries the failure cause for failed runs.
	ErrorMessage string `json:"error_message,omitempty"`
}

// Candidate is one scored item within a run. Candidates are written in two
// phases: the full scored set first, then the selected subset flagged with a
// 1-based selection rank.
type Candidate struct {
	// ID is the candidate UUID.
	ID string `json:"id"`

	// RunID is the owning run.
	RunID string `json:"run_id"`

	// Item is the catalog item metadata snapshot.
	Item Item `json:"item"`

	// Similarity is the cosine similarity to the user's taste vector.
	Similarity float64 `json:"similarity"`

	// Novelty is the genre-novelty score in [0,1].
	Novelty float64 `json:"novelty"`

	// RatingScore is the tiered rating score in [0,1].
	RatingScore float64 `json:"rating_score"`

	// DiversityBoost is the boost recorded at selection time.
	DiversityBoost float64 `json:"diversity_boost"`

	// FinalScore is the weighted base score, overwritten with the
	// selection score for selected candidates.
	FinalScore float64 `json:"final_score"`

	// IsSelected flags membership in the final selection.
	IsSelected bool `json:"is_selected"`

	// SelectionRank is the 1-based pick order; 0 for unselected candidates.
	SelectionRank int `json:"selection_rank,omitempty"`
}

// EvidenceType classifies why a watched item supports a recommendation.
type EvidenceType string

const (
	// EvidenceFavorite marks a watched item the user favorited.
	EvidenceFavorite EvidenceType = "favorite"
	// EvidenceHighlyRated marks a watched item with heavy engagement.
	EvidenceHighlyRated EvidenceType = "highly_rated"
	// EvidenceWatched marks a plain watched item.
	EvidenceWatched EvidenceType = "watched"
)

// Evidence links a selected candidate to a watched item that justifies it.
type Evidence struct {
	// CandidateID is the supported candidate.
	CandidateID string `json:"candidate_id"`

	// SimilarItemID is the watched item's catalog ID.
	SimilarItemID int `json:"similar_item_id"`

	// Similarity is the embedding similarity between the two items.
	Similarity float64 `json:"similarity"`

	// Type is derived from the watched item's own signal:
	// favorite > highly_rated > watched.
	Type EvidenceType `json:"type"`
}

// ClassifyEvidence derives the evidence type from a watch signal.
// Favorites win over heavy engagement; three or more plays counts as
// heavy engagement.
func ClassifyEvidence(signal WatchSignal) EvidenceType {
	switch {
	case signal.IsFavorite:
		return EvidenceFavorite
	case signal.PlayCount >= 3:
		return EvidenceHighlyRated
	default:
		return EvidenceWatched
	}
}

// parentalRanks orders official ratings from most to least restrictive-safe.
// Ratings absent from the table rank above every known rating and are only
// retrievable when no ceiling is configured.
var parentalRanks = map[string]int{
	"G":     1,
	"TV-Y":  1,
	"TV-G":  1,
	"PG":    2,
	"TV-PG": 2,
	"PG-13": 3,
	"TV-14": 3,
	"R":     4,
	"TV-MA": 4,
	"NC-17": 5,
}

// ParentalRank returns the ordering rank for an official rating.
// Unknown ratings rank highest so a configured ceiling excludes them.
func ParentalRank(rating string) int {
	if rating == "" {
		return 0
	}
	if rank, ok := parentalRanks[strings.ToUpper(rating)]; ok {
		return rank
	}
	return len(parentalRanks) + 1
}

// WithinParentalLimit reports whether an item's official rating is at or
// below the configured ceiling. An empty limit admits everything.
func WithinParentalLimit(rating, limit string) bool {
	if limit == "" {
		return true
	}
	return ParentalRank(rating) <= ParentalRank(limit)
}

// Stats is a snapshot of engine activity for observability.
type Stats struct {
	// RunsCompleted is the number of completed runs since startup.
	RunsCompleted int64 `json:"runs_completed"`

	// RunsFailed is the number of failed runs since startup.
	RunsFailed int64 `json:"runs_failed"`

	// ColdStarts is the number of runs completed with no usable profile.
	ColdStarts int64 `json:"cold_starts"`

	// LastRunAt is when the most recent run finalized.
	LastRunAt time.Time `json:"last_run_at,omitzero"`
}
