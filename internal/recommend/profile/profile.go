// Tastemaker - Semantic Media Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tastemaker

// Package profile builds a user's taste vector from watch history.
//
// Watch signals arrive ordered (favorites first, then play count, then
// recency); that order drives both inclusion under the history cap and a
// secondary position weight. Each watched item with an embedding receives a
// composite weight from position, play count, favorite status and external
// rating quality. Weights are capped at three times the mean so no single
// item dominates, then fed into a weighted-average-then-normalize routine.
//
// Rebuilding from identical inputs reproduces the same vector.
package profile

import (
	"math"

	"github.com/tomtom215/tastemaker/internal/embedding"
	"github.com/tomtom215/tastemaker/internal/recommend"
)

// Builder implements the engine's Profiler stage.
type Builder struct{}

// Build produces the normalized taste vector for the given watched
// embeddings, or nil when no usable vector can be built.
func (Builder) Build(entries []recommend.WatchedEmbedding, totalFavorites int) []float32 {
	return Build(entries, totalFavorites)
}

const (
	// positionFloor is the weight of the last list position; the first
	// position weighs 1.0 and positions decay linearly between the two.
	positionFloor = 0.7

	// playCountGain caps the diminishing-return play-count boost.
	playCountGain = 0.4

	// ratingThreshold is the community rating above which the quality
	// boost applies, scaling linearly to ratingGain at a rating of 10.
	ratingThreshold = 7.5
	ratingGain      = 0.15

	// weightCapFactor caps individual weights relative to the mean.
	weightCapFactor = 3.0
)

// favoriteMultiplier returns the multiplicative boost for a favorited item.
// Users with few favorites concentrate more signal in each one.
func favoriteMultiplier(totalFavorites int) float64 {
	switch {
	case totalFavorites <= 3:
		return 1.8
	case totalFavorites <= 10:
		return 1.5
	default:
		return 1.3
	}
}

// Weights computes the composite weight for each watched embedding, in
// input order. totalFavorites is the user's overall favorite count, not the
// count within the capped history window.
func Weights(entries []recommend.WatchedEmbedding, totalFavorites int) []float64 {
	if len(entries) == 0 {
		return nil
	}

	maxPlayCount := 0
	for _, e := range entries {
		if e.Signal.PlayCount > maxPlayCount {
			maxPlayCount = e.Signal.PlayCount
		}
	}

	weights := make([]float64, len(entries))
	for i, e := range entries {
		w := positionWeight(i, len(entries))
		w *= playCountWeight(e.Signal.PlayCount, maxPlayCount)

		if e.Signal.IsFavorite {
			w *= favoriteMultiplier(totalFavorites)
		}

		if r := e.Item.CommunityRating; r != nil && *r >= ratingThreshold {
			rating := math.Min(*r, 10)
			w *= 1 + ratingGain*(rating-ratingThreshold)/(10-ratingThreshold)
		}

		weights[i] = w
	}

	capWeights(weights)
	return weights
}

// positionWeight decays linearly from 1.0 to positionFloor across the list.
func positionWeight(index, total int) float64 {
	if total <= 1 {
		return 1.0
	}
	return 1.0 - (1.0-positionFloor)*float64(index)/float64(total-1)
}

// playCountWeight applies a log-scaled boost so a heavily rewatched item
// cannot dominate the profile.
func playCountWeight(playCount, maxPlayCount int) float64 {
	if playCount <= 0 || maxPlayCount <= 0 {
		return 1.0
	}
	return 1 + math.Log2(float64(playCount)+1)/math.Log2(float64(maxPlayCount)+1)*playCountGain
}

// capWeights limits each weight to weightCapFactor times the mean.
func capWeights(weights []float64) {
	var sum float64
	for _, w := range weights {
		sum += w
	}
	limit := weightCapFactor * sum / float64(len(weights))
	for i, w := range weights {
		if w > limit {
			weights[i] = limit
		}
	}
}

// Build produces the normalized taste vector for the given watched
// embeddings, or nil when no usable vector can be built. A zero-norm
// weighted average also yields nil: the caller has no usable profile.
func Build(entries []recommend.WatchedEmbedding, totalFavorites int) []float32 {
	if len(entries) == 0 {
		return nil
	}

	weights := Weights(entries, totalFavorites)
	vectors := make([][]float32, len(entries))
	for i, e := range entries {
		vectors[i] = e.Vector
	}

	avg := embedding.WeightedAverage(vectors, weights)
	if avg == nil {
		return nil
	}
	if embedding.L2Norm(avg) == 0 {
		return nil
	}
	return embedding.Normalize(avg)
}
