// Tastemaker - Semantic Media Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tastemaker

package recommend

// Note: this package depends only on interfaces for its pipeline stages and
// stores. The stage implementations live in subpackages (profile, scoring,
// selection, evidence) which import this package for its types; wiring
// happens at the composition root to avoid circular imports.

// Profiler turns a user's watched embeddings into one normalized taste
// vector. A nil result means no usable profile (cold start).
type Profiler interface {
	Build(entries []WatchedEmbedding, totalFavorites int) []float32
}

// Scorer fills Novelty, RatingScore and FinalScore on each candidate in
// place. watchedGenres is the genre list of every watched item, one entry
// per item, and feeds the user's genre-frequency distribution.
type Scorer interface {
	Score(candidates []Candidate, watchedGenres [][]string, weights ScoreWeights)
}

// Selector picks up to k candidates from a scored list, returning them in
// selection order with IsSelected, SelectionRank, DiversityBoost and the
// blended FinalScore set. The input slice must not be modified.
type Selector interface {
	Select(candidates []Candidate, k int, diversityWeight float64) []Candidate
}

// EvidenceBuilder produces up to perCandidate evidence rows per selected
// candidate, linking it to its nearest watched items.
type EvidenceBuilder interface {
	Build(selected []Candidate, candidateVectors map[int][]float32, watched []WatchedEmbedding, perCandidate int) []Evidence
}

// Pipeline bundles the four stage implementations the engine runs.
type Pipeline struct {
	Profiler Profiler
	Scorer   Scorer
	Selector Selector
	Evidence EvidenceBuilder
}
