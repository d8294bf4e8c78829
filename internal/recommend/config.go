// Tastemaker - Semantic Media Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tastemaker

package recommend

import "fmt"

// ScoreWeights blends similarity, novelty and rating into the base score.
// The engine does not normalize the weights; callers are responsible for a
// sensible total.
type ScoreWeights struct {
	// Similarity is the weight of cosine similarity to the taste vector.
	Similarity float64 `json:"similarity"`

	// Novelty is the weight of the genre-novelty score.
	Novelty float64 `json:"novelty"`

	// Rating is the weight of the tiered community-rating score.
	Rating float64 `json:"rating"`
}

// Config contains all parameters for the recommendation engine. It is an
// immutable value passed into scoring and selection so runs are reproducible
// and testable in isolation.
type Config struct {
	// ModelID identifies the active embedding model. Empty means no model
	// is configured; generation returns ErrNoEmbeddingModel.
	ModelID string `json:"model_id"`

	// HistorySize caps the watch signals used to build a taste profile.
	// Default: 50.
	HistorySize int `json:"history_size"`

	// CandidateLimit caps the nearest-neighbor candidates per run.
	// Default: 100.
	CandidateLimit int `json:"candidate_limit"`

	// TargetCount is the default selection size K. Default: 20.
	TargetCount int `json:"target_count"`

	// MaxTargetCount caps caller-supplied target counts. Default: 100.
	MaxTargetCount int `json:"max_target_count"`

	// Weights blends the per-candidate base score.
	Weights ScoreWeights `json:"weights"`

	// DiversityWeight in [0,1] blends base score against diversity boost
	// during greedy selection. Default: 0.3.
	DiversityWeight float64 `json:"diversity_weight"`

	// EvidencePerItem is the number of nearest watched items persisted per
	// selected candidate. Default: 3.
	EvidencePerItem int `json:"evidence_per_item"`

	// ParentalRatingLimit is the retrieval ceiling on official ratings.
	// Empty disables the ceiling.
	ParentalRatingLimit string `json:"parental_rating_limit"`
}

// DefaultConfig returns a Config with sensible production defaults.
// ModelID is intentionally left empty; it must come from configuration.
func DefaultConfig() *Config {
	return &Config{
		HistorySize:    50,
		CandidateLimit: 100,
		TargetCount:    20,
		MaxTargetCount: 100,
		Weights: ScoreWeights{
			Similarity: 0.5,
			Novelty:    0.25,
			Rating:     0.25,
		},
		DiversityWeight: 0.3,
		EvidencePerItem: 3,
	}
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	if c.HistorySize < 1 {
		return fmt.Errorf("history_size must be positive, got %d", c.HistorySize)
	}
	if c.CandidateLimit < 1 {
		return fmt.Errorf("candidate_limit must be positive, got %d", c.CandidateLimit)
	}
	if c.TargetCount < 1 {
		return fmt.Errorf("target_count must be positive, got %d", c.TargetCount)
	}
	if c.MaxTargetCount < c.TargetCount {
		return fmt.Errorf("max_target_count must be >= target_count, got %d < %d", c.MaxTargetCount, c.TargetCount)
	}
	if c.DiversityWeight < 0 || c.DiversityWeight > 1 {
		return fmt.Errorf("diversity_weight must be in [0, 1], got %f", c.DiversityWeight)
	}
	if c.EvidencePerItem < 0 {
		return fmt.Errorf("evidence_per_item must be non-negative, got %d", c.EvidencePerItem)
	}
	if c.Weights.Similarity < 0 || c.Weights.Novelty < 0 || c.Weights.Rating < 0 {
		return fmt.Errorf("score weights must be non-negative")
	}
	if c.Weights.Similarity+c.Weights.Novelty+c.Weights.Rating == 0 {
		return fmt.Errorf("score weights must not all be zero")
	}
	return nil
}

// Clone returns a copy of the configuration.
func (c *Config) Clone() *Config {
	// All fields are value types
	clone := *c
	return &clone
}
