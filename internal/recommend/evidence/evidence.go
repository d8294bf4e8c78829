// Tastemaker - Semantic Media Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tastemaker

// Package evidence links selected candidates back to the watched items that
// justify them.
//
// For each selected candidate the builder finds the nearest watched items by
// embedding similarity and records one evidence row per neighbor, typed by
// the watched item's own signal (favorite beats heavy engagement beats plain
// watched). Candidates without a vector produce no evidence; the row set is
// explanatory, never load-bearing for selection.
package evidence

import (
	"sort"

	"github.com/tomtom215/tastemaker/internal/embedding"
	"github.com/tomtom215/tastemaker/internal/recommend"
)

// Builder implements the engine's evidence stage.
type Builder struct{}

// Build produces up to perCandidate evidence rows for each selected
// candidate.
func (Builder) Build(selected []recommend.Candidate, candidateVectors map[int][]float32, watched []recommend.WatchedEmbedding, perCandidate int) []recommend.Evidence {
	return Build(selected, candidateVectors, watched, perCandidate)
}

// Build produces up to perCandidate evidence rows for each selected
// candidate, nearest watched items first. Ties order by watched item ID
// ascending for determinism.
func Build(selected []recommend.Candidate, candidateVectors map[int][]float32, watched []recommend.WatchedEmbedding, perCandidate int) []recommend.Evidence {
	if perCandidate <= 0 || len(selected) == 0 || len(watched) == 0 {
		return nil
	}

	var rows []recommend.Evidence
	scratch := make([]recommend.Evidence, 0, len(watched))

	for _, c := range selected {
		vec, ok := candidateVectors[c.Item.ID]
		if !ok || len(vec) == 0 {
			continue
		}

		scratch = scratch[:0]
		for _, w := range watched {
			if len(w.Vector) == 0 {
				continue
			}
			scratch = append(scratch, recommend.Evidence{
				CandidateID:   c.ID,
				SimilarItemID: w.Item.ID,
				Similarity:    embedding.Cosine(vec, w.Vector),
				Type:          recommend.ClassifyEvidence(w.Signal),
			})
		}

		sort.Slice(scratch, func(i, j int) bool {
			if scratch[i].Similarity != scratch[j].Similarity {
				return scratch[i].Similarity > scratch[j].Similarity
			}
			return scratch[i].SimilarItemID < scratch[j].SimilarItemID
		})

		n := min(perCandidate, len(scratch))
		rows = append(rows, scratch[:n]...)
	}

	return rows
}
