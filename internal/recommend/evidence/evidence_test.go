// Tastemaker - Semantic Media Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tastemaker

package evidence

import (
	"testing"

	"github.com/tomtom215/tastemaker/internal/recommend"
)

func selectedCand(candID string, itemID int) recommend.Candidate {
	return recommend.Candidate{
		ID:         candID,
		Item:       recommend.Item{ID: itemID},
		IsSelected: true,
	}
}

func watchedItem(itemID int, vector []float32) recommend.WatchedEmbedding {
	return recommend.WatchedEmbedding{
		Item:   recommend.Item{ID: itemID},
		Vector: vector,
	}
}

func TestBuildEmptyInputs(t *testing.T) {
	watched := []recommend.WatchedEmbedding{watchedItem(1, []float32{1, 0})}
	if got := Build(nil, nil, watched, 3); got != nil {
		t.Errorf("Build with no selection = %v, want nil", got)
	}
	sel := []recommend.Candidate{selectedCand("c1", 10)}
	if got := Build(sel, nil, nil, 3); got != nil {
		t.Errorf("Build with no watched items = %v, want nil", got)
	}
	if got := Build(sel, nil, watched, 0); got != nil {
		t.Errorf("Build with zero per-candidate = %v, want nil", got)
	}
}

func TestBuildNearestFirst(t *testing.T) {
	sel := []recommend.Candidate{selectedCand("c1", 10)}
	vectors := map[int][]float32{10: {1, 0}}
	watched := []recommend.WatchedEmbedding{
		watchedItem(1, []float32{0, 1}),   // orthogonal
		watchedItem(2, []float32{1, 0}),   // identical
		watchedItem(3, []float32{1, 0.5}), // close
	}

	rows := Build(sel, vectors, watched, 2)
	if len(rows) != 2 {
		t.Fatalf("len(rows) = %d, want 2", len(rows))
	}
	if rows[0].SimilarItemID != 2 || rows[1].SimilarItemID != 3 {
		t.Errorf("rows = [%d %d], want [2 3]", rows[0].SimilarItemID, rows[1].SimilarItemID)
	}
	if rows[0].CandidateID != "c1" {
		t.Errorf("CandidateID = %q, want c1", rows[0].CandidateID)
	}
	if rows[0].Similarity < rows[1].Similarity {
		t.Errorf("rows not ordered by similarity: %f < %f", rows[0].Similarity, rows[1].Similarity)
	}
}

func TestBuildEvidenceTypes(t *testing.T) {
	sel := []recommend.Candidate{selectedCand("c1", 10)}
	vectors := map[int][]float32{10: {1, 0}}
	watched := make([]recommend.WatchedEmbedding, 3)
	for i, sig := range []recommend.WatchSignal{
		{IsFavorite: true, PlayCount: 5},
		{PlayCount: 3},
		{PlayCount: 1},
	} {
		watched[i] = watchedItem(i+1, []float32{1, 0})
		watched[i].Signal = sig
	}

	rows := Build(sel, vectors, watched, 3)
	if len(rows) != 3 {
		t.Fatalf("len(rows) = %d, want 3", len(rows))
	}
	// Identical similarity, so item ID ascending keeps input typing stable.
	wantTypes := []recommend.EvidenceType{
		recommend.EvidenceFavorite,
		recommend.EvidenceHighlyRated,
		recommend.EvidenceWatched,
	}
	for i, want := range wantTypes {
		if rows[i].Type != want {
			t.Errorf("rows[%d].Type = %q, want %q", i, rows[i].Type, want)
		}
	}
}

func TestBuildCandidateWithoutVectorSkipped(t *testing.T) {
	sel := []recommend.Candidate{
		selectedCand("c1", 10),
		selectedCand("c2", 11),
	}
	vectors := map[int][]float32{10: {1, 0}}
	watched := []recommend.WatchedEmbedding{watchedItem(1, []float32{1, 0})}

	rows := Build(sel, vectors, watched, 3)
	for _, r := range rows {
		if r.CandidateID == "c2" {
			t.Errorf("candidate without vector produced evidence: %+v", r)
		}
	}
	if len(rows) != 1 {
		t.Errorf("len(rows) = %d, want 1", len(rows))
	}
}

func TestBuildWatchedWithoutVectorSkipped(t *testing.T) {
	sel := []recommend.Candidate{selectedCand("c1", 10)}
	vectors := map[int][]float32{10: {1, 0}}
	watched := []recommend.WatchedEmbedding{
		watchedItem(1, nil),
		watchedItem(2, []float32{1, 0}),
	}

	rows := Build(sel, vectors, watched, 3)
	if len(rows) != 1 || rows[0].SimilarItemID != 2 {
		t.Errorf("rows = %+v, want single row for item 2", rows)
	}
}

func TestBuildPerCandidateCap(t *testing.T) {
	sel := []recommend.Candidate{
		selectedCand("c1", 10),
		selectedCand("c2", 11),
	}
	vectors := map[int][]float32{10: {1, 0}, 11: {0, 1}}
	watched := []recommend.WatchedEmbedding{
		watchedItem(1, []float32{1, 0}),
		watchedItem(2, []float32{0.9, 0.1}),
		watchedItem(3, []float32{0.8, 0.2}),
		watchedItem(4, []float32{0.7, 0.3}),
	}

	rows := Build(sel, vectors, watched, 3)
	perCandidate := map[string]int{}
	for _, r := range rows {
		perCandidate[r.CandidateID]++
	}
	for id, n := range perCandidate {
		if n > 3 {
			t.Errorf("candidate %s has %d evidence rows, want at most 3", id, n)
		}
	}
	if len(rows) != 6 {
		t.Errorf("len(rows) = %d, want 6", len(rows))
	}
}
