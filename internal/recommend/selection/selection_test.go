// Tastemaker - Semantic Media Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tastemaker

package selection

import (
	"math"
	"testing"

	"github.com/tomtom215/tastemaker/internal/recommend"
)

func cand(id int, title string, year int, score float64, genres ...string) recommend.Candidate {
	return recommend.Candidate{
		Item: recommend.Item{
			ID:     id,
			Title:  title,
			Year:   year,
			Genres: genres,
		},
		FinalScore: score,
	}
}

func seriesCand(id int, title string, network string, score float64, genres ...string) recommend.Candidate {
	c := cand(id, title, 2020, score, genres...)
	c.Item.MediaType = recommend.MediaTypeSeries
	c.Item.Network = network
	return c
}

func selectedIDs(selected []recommend.Candidate) []int {
	ids := make([]int, len(selected))
	for i, c := range selected {
		ids[i] = c.Item.ID
	}
	return ids
}

func TestSelectEmpty(t *testing.T) {
	if got := Select(nil, 5, 0.3); got != nil {
		t.Errorf("Select(nil) = %v, want nil", got)
	}
	if got := Select([]recommend.Candidate{cand(1, "A", 2020, 0.9)}, 0, 0.3); got != nil {
		t.Errorf("Select(k=0) = %v, want nil", got)
	}
}

func TestSelectRanksAndFlags(t *testing.T) {
	candidates := []recommend.Candidate{
		cand(1, "Alpha", 2019, 0.9, "Drama"),
		cand(2, "Beta", 2020, 0.8, "Comedy"),
		cand(3, "Gamma", 2021, 0.7, "Horror"),
	}

	selected := Select(candidates, 2, 0)
	if len(selected) != 2 {
		t.Fatalf("len(selected) = %d, want 2", len(selected))
	}
	for i, c := range selected {
		if !c.IsSelected {
			t.Errorf("selected[%d].IsSelected = false", i)
		}
		if c.SelectionRank != i+1 {
			t.Errorf("selected[%d].SelectionRank = %d, want %d", i, c.SelectionRank, i+1)
		}
	}
	// With zero diversity weight, pure score order.
	if got := selectedIDs(selected); got[0] != 1 || got[1] != 2 {
		t.Errorf("selected = %v, want [1 2]", got)
	}
}

func TestSelectInputNotModified(t *testing.T) {
	candidates := []recommend.Candidate{
		cand(1, "Alpha", 2019, 0.9, "Drama"),
		cand(2, "Beta", 2020, 0.8, "Comedy"),
	}

	Select(candidates, 2, 0.3)
	for i, c := range candidates {
		if c.IsSelected || c.SelectionRank != 0 || c.DiversityBoost != 0 {
			t.Errorf("input candidate %d was modified: %+v", i, c)
		}
	}
}

func TestSelectFewerCandidatesThanTarget(t *testing.T) {
	candidates := []recommend.Candidate{
		cand(1, "Alpha", 2019, 0.9, "Drama"),
		cand(2, "Beta", 2020, 0.8, "Comedy"),
	}

	selected := Select(candidates, 10, 0.3)
	if len(selected) != 2 {
		t.Errorf("len(selected) = %d, want 2", len(selected))
	}
}

func TestSelectDuplicateTitleSkipped(t *testing.T) {
	// Same lowercase title and year collide even across distinct items.
	candidates := []recommend.Candidate{
		cand(1, "The Thing", 1982, 0.9, "Horror"),
		cand(2, "the thing", 1982, 0.85, "Sci-Fi"),
		cand(3, "The Thing", 2011, 0.5, "Horror"),
	}

	selected := Select(candidates, 3, 0)
	ids := selectedIDs(selected)
	if len(ids) != 2 {
		t.Fatalf("selected = %v, want two items", ids)
	}
	if ids[0] != 1 || ids[1] != 3 {
		t.Errorf("selected = %v, want [1 3]", ids)
	}
}

func TestSelectTieKeepsFirstSeen(t *testing.T) {
	candidates := []recommend.Candidate{
		cand(7, "Alpha", 2019, 0.8, "Drama"),
		cand(8, "Beta", 2020, 0.8, "Drama"),
	}

	selected := Select(candidates, 1, 0)
	if got := selectedIDs(selected); got[0] != 7 {
		t.Errorf("tie pick = %v, want first-seen item 7", got)
	}
}

func TestSelectDiversityPrefersDisjointGenres(t *testing.T) {
	// Second-best raw score but fully disjoint genres should beat a
	// slightly higher-scored candidate overlapping the first pick.
	candidates := []recommend.Candidate{
		cand(1, "Alpha", 2019, 0.90, "Sci-Fi", "Action"),
		cand(2, "Beta", 2020, 0.85, "Sci-Fi", "Action"),
		cand(3, "Gamma", 2021, 0.80, "Romance", "Comedy"),
	}

	selected := Select(candidates, 2, 0.5)
	ids := selectedIDs(selected)
	if ids[0] != 1 {
		t.Fatalf("first pick = %d, want 1", ids[0])
	}
	if ids[1] != 3 {
		t.Errorf("second pick = %d, want the genre-disjoint candidate 3", ids[1])
	}
}

func TestSelectZeroDiversityWeightIgnoresBoost(t *testing.T) {
	candidates := []recommend.Candidate{
		cand(1, "Alpha", 2019, 0.90, "Sci-Fi"),
		cand(2, "Beta", 2020, 0.85, "Sci-Fi"),
		cand(3, "Gamma", 2021, 0.80, "Romance"),
	}

	selected := Select(candidates, 2, 0)
	ids := selectedIDs(selected)
	if ids[0] != 1 || ids[1] != 2 {
		t.Errorf("selected = %v, want pure score order [1 2]", ids)
	}
}

func TestSelectNetworkDiversity(t *testing.T) {
	candidates := []recommend.Candidate{
		seriesCand(1, "Alpha", "HBO", 0.90, "Drama"),
		seriesCand(2, "Beta", "HBO", 0.85, "Crime"),
		seriesCand(3, "Gamma", "AMC", 0.84, "Western"),
	}

	selected := Select(candidates, 2, 0.6)
	ids := selectedIDs(selected)
	if ids[0] != 1 {
		t.Fatalf("first pick = %d, want 1", ids[0])
	}
	// After an HBO pick the AMC series overtakes the slightly
	// higher-scored second HBO series.
	if ids[1] != 3 {
		t.Errorf("second pick = %d, want the AMC series 3", ids[1])
	}
}

func TestSelectRecordsBoostAndBlendedScore(t *testing.T) {
	candidates := []recommend.Candidate{
		cand(1, "Alpha", 2019, 0.9, "Drama"),
	}

	d := 0.3
	selected := Select(candidates, 1, d)
	if len(selected) != 1 {
		t.Fatalf("len(selected) = %d, want 1", len(selected))
	}
	c := selected[0]
	// No prior picks, so genre overlap is zero and the boost is 1.
	if c.DiversityBoost != 1.0 {
		t.Errorf("DiversityBoost = %f, want 1.0", c.DiversityBoost)
	}
	want := 0.9*(1-d) + 1.0*d
	if math.Abs(c.FinalScore-want) > 1e-9 {
		t.Errorf("FinalScore = %f, want %f", c.FinalScore, want)
	}
}

func TestSelectNoGenresNeutralBoost(t *testing.T) {
	candidates := []recommend.Candidate{
		cand(1, "Alpha", 2019, 0.9),
	}

	selected := Select(candidates, 1, 1.0)
	if got := selected[0].DiversityBoost; got != neutralBoost {
		t.Errorf("DiversityBoost = %f, want %f", got, neutralBoost)
	}
}

func TestSelectFirstNetworkedPickFullNetworkTerm(t *testing.T) {
	candidates := []recommend.Candidate{
		seriesCand(1, "Alpha", "HBO", 0.9, "Drama"),
	}

	selected := Select(candidates, 1, 1.0)
	// genreTerm 1.0, networkTerm 1.0 on an empty selection.
	if got := selected[0].DiversityBoost; math.Abs(got-1.0) > 1e-9 {
		t.Errorf("DiversityBoost = %f, want 1.0", got)
	}
}

func TestSelectGenreSpread(t *testing.T) {
	// A pool dominated by sci-fi with one horror outlier: diversity-aware
	// selection should surface the horror pick within a small K.
	candidates := []recommend.Candidate{
		cand(1, "Star One", 2018, 0.90, "Sci-Fi"),
		cand(2, "Star Two", 2019, 0.89, "Sci-Fi"),
		cand(3, "Star Three", 2020, 0.88, "Sci-Fi"),
		cand(4, "Star Four", 2021, 0.87, "Sci-Fi"),
		cand(5, "The Dread", 2022, 0.70, "Horror"),
	}

	selected := Select(candidates, 3, 0.5)
	found := false
	for _, c := range selected {
		if c.Item.ID == 5 {
			found = true
		}
	}
	if !found {
		t.Errorf("horror outlier not selected within 3 picks: %v", selectedIDs(selected))
	}
}
