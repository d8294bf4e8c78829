// Tastemaker - Semantic Media Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tastemaker

// Package selection implements greedy diversity-aware selection over a
// scored candidate list.
//
// Each round re-scores every remaining candidate against what has already
// been picked and takes the best. Re-scoring blends the candidate's base
// score with a diversity boost built from genre overlap and, for networked
// series, network representation. Duplicate titles (same lowercase title and
// year) are suppressed after the first pick. Ties keep the earliest
// candidate in input order, which makes selection fully deterministic.
package selection

import (
	"strings"

	"github.com/tomtom215/tastemaker/internal/recommend"
)

const (
	// genreBoostWeight and networkBoostWeight split the diversity boost for
	// items with a network; items without one get pure genre diversity.
	genreBoostWeight   = 0.6
	networkBoostWeight = 0.4

	// neutralBoost is used when an item has no genre metadata.
	neutralBoost = 0.5
)

// Greedy implements the engine's selection stage.
type Greedy struct{}

// Select picks up to k candidates, diversity-aware.
func (Greedy) Select(candidates []recommend.Candidate, k int, diversityWeight float64) []recommend.Candidate {
	return Select(candidates, k, diversityWeight)
}

// state tracks what the selector has picked so far.
type state struct {
	titles   map[string]struct{}
	genres   map[string]int
	networks map[string]int
	picked   int
}

func newState() *state {
	return &state{
		titles:   make(map[string]struct{}),
		genres:   make(map[string]int),
		networks: make(map[string]int),
	}
}

func (s *state) add(item recommend.Item) {
	s.titles[item.TitleYearKey()] = struct{}{}
	for _, g := range item.Genres {
		g = strings.ToLower(strings.TrimSpace(g))
		if g != "" {
			s.genres[g]++
		}
	}
	if item.Network != "" {
		s.networks[strings.ToLower(item.Network)]++
	}
	s.picked++
}

// boost computes the diversity boost for a candidate item against the
// current selection state, on [0,1].
func (s *state) boost(item recommend.Item) float64 {
	genreTerm := neutralBoost
	if counted := countGenres(item.Genres); counted > 0 {
		overlap := 0
		for _, g := range item.Genres {
			g = strings.ToLower(strings.TrimSpace(g))
			if g == "" {
				continue
			}
			if s.genres[g] > 0 {
				overlap++
			}
		}
		genreTerm = 1 - float64(overlap)/float64(counted)
	}

	if item.Network == "" {
		return genreTerm
	}

	// First pick has no representation baseline yet.
	networkTerm := 1.0
	if s.picked > 0 {
		count := s.networks[strings.ToLower(item.Network)]
		networkTerm = 1 - float64(count)/float64(s.picked)
	}
	return genreBoostWeight*genreTerm + networkBoostWeight*networkTerm
}

func countGenres(genres []string) int {
	n := 0
	for _, g := range genres {
		if strings.TrimSpace(g) != "" {
			n++
		}
	}
	return n
}

// Select greedily picks up to k candidates, mutating the picked entries of
// the returned copy: IsSelected is set, SelectionRank is the 1-based pick
// order, DiversityBoost records the boost at pick time and FinalScore is
// overwritten with the blended selection score. Input order breaks ties and
// the input slice is never modified.
func Select(candidates []recommend.Candidate, k int, diversityWeight float64) []recommend.Candidate {
	if k <= 0 || len(candidates) == 0 {
		return nil
	}

	st := newState()
	taken := make([]bool, len(candidates))
	selected := make([]recommend.Candidate, 0, min(k, len(candidates)))

	for len(selected) < k {
		bestIdx := -1
		var bestScore, bestBoost float64

		for i := range candidates {
			if taken[i] {
				continue
			}
			if _, dup := st.titles[candidates[i].Item.TitleYearKey()]; dup {
				continue
			}

			b := st.boost(candidates[i].Item)
			score := candidates[i].FinalScore*(1-diversityWeight) + b*diversityWeight
			if bestIdx == -1 || score > bestScore {
				bestIdx = i
				bestScore = score
				bestBoost = b
			}
		}

		if bestIdx == -1 {
			break
		}

		c := candidates[bestIdx]
		c.DiversityBoost = bestBoost
		c.FinalScore = bestScore
		c.IsSelected = true
		c.SelectionRank = len(selected) + 1
		selected = append(selected, c)

		taken[bestIdx] = true
		st.add(candidates[bestIdx].Item)
	}

	return selected
}
