// Tastemaker - Semantic Media Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tastemaker

// Package scoring computes per-candidate component scores and blends them
// into a base score.
//
// Three components feed the blend: cosine similarity to the taste vector,
// a genre-novelty score derived from the user's watched-genre distribution,
// and a tiered community-rating score. Unrated items score a deliberate
// middle value rather than zero so missing metadata does not bury an
// otherwise strong candidate.
package scoring

import (
	"strings"

	"github.com/tomtom215/tastemaker/internal/recommend"
)

// unratedScore is the rating score assigned to items without a community
// rating.
const unratedScore = 0.4

// Scorer implements the engine's scoring stage.
type Scorer struct{}

// Score fills Novelty, RatingScore and FinalScore on each candidate in
// place. Similarity must already be set.
func (Scorer) Score(candidates []recommend.Candidate, watchedGenres [][]string, weights recommend.ScoreWeights) {
	history := NewGenreHistory(watchedGenres)
	for i := range candidates {
		c := &candidates[i]
		c.Novelty = history.Novelty(c.Item.Genres)
		c.RatingScore = RatingScore(c.Item.CommunityRating)
		c.FinalScore = Base(c.Similarity, c.Novelty, c.RatingScore, weights)
	}
}

// RatingScore maps a community rating onto [0,1] through piecewise-linear
// tiers. Ratings above the top tier threshold are rewarded disproportionately
// so excellent items separate from merely good ones. Out-of-range ratings are
// clamped; a nil rating yields unratedScore.
func RatingScore(rating *float64) float64 {
	if rating == nil {
		return unratedScore
	}

	r := *rating
	if r < 0 {
		r = 0
	}
	if r > 10 {
		r = 10
	}

	switch {
	case r >= 8:
		return 0.8 + (r-8)/2*0.2
	case r >= 7:
		return 0.6 + (r-7)*0.2
	case r >= 6:
		return 0.4 + (r-6)*0.2
	case r >= 5:
		return 0.2 + (r-5)*0.2
	default:
		return r / 5 * 0.2
	}
}

// GenreHistory is a user's watched-genre frequency distribution. Genre
// matching is case-insensitive.
type GenreHistory struct {
	counts map[string]int
	total  int
}

// NewGenreHistory builds a genre distribution from the genre lists of the
// user's watched items.
func NewGenreHistory(genreLists [][]string) *GenreHistory {
	h := &GenreHistory{counts: make(map[string]int)}
	for _, genres := range genreLists {
		for _, g := range genres {
			g = strings.ToLower(strings.TrimSpace(g))
			if g == "" {
				continue
			}
			h.counts[g]++
			h.total++
		}
	}
	return h
}

// Novelty scores how fresh a candidate's genres are against the user's
// history, on [0,1]. Per-genre novelty is the complement of the genre's
// share of the watched distribution; the average is then mapped into one of
// three bands by the fraction of genres never watched at all:
//
//   - no unseen genres: familiar territory, band [0.4,0.6]
//   - some unseen genres: the sweet spot, band [0.5,0.9]
//   - mostly unseen genres: a stretch, band [0.3,0.5]
//
// Items without genre metadata score a neutral 0.5.
func (h *GenreHistory) Novelty(genres []string) float64 {
	if len(genres) == 0 {
		return 0.5
	}

	var sum float64
	unseen := 0
	counted := 0
	for _, g := range genres {
		g = strings.ToLower(strings.TrimSpace(g))
		if g == "" {
			continue
		}
		counted++
		count := h.counts[g]
		if count == 0 {
			unseen++
		}
		if h.total > 0 {
			sum += 1 - float64(count)/float64(h.total)
		} else {
			sum += 1
		}
	}
	if counted == 0 {
		return 0.5
	}

	avg := sum / float64(counted)
	unseenRatio := float64(unseen) / float64(counted)

	switch {
	case unseenRatio == 0:
		return 0.4 + avg*0.2
	case unseenRatio < 0.7:
		return 0.5 + avg*0.4
	default:
		return 0.3 + avg*0.2
	}
}

// Base blends the component scores with the configured weights.
func Base(similarity, novelty, ratingScore float64, w recommend.ScoreWeights) float64 {
	return w.Similarity*similarity + w.Novelty*novelty + w.Rating*ratingScore
}
