// Tastemaker - Semantic Media Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tastemaker

package main

import (
	"github.com/tomtom215/tastemaker/internal/recommend"
	"github.com/tomtom215/tastemaker/internal/recommend/evidence"
	"github.com/tomtom215/tastemaker/internal/recommend/profile"
	"github.com/tomtom215/tastemaker/internal/recommend/scoring"
	"github.com/tomtom215/tastemaker/internal/recommend/selection"
)

// newPipeline assembles the four pipeline stages. The stage packages import
// the recommend package for its types; the engine only sees the interfaces,
// so this is the single place where the concrete implementations meet.
func newPipeline() recommend.Pipeline {
	return recommend.Pipeline{
		Profiler: profile.Builder{},
		Scorer:   scoring.Scorer{},
		Selector: selection.Greedy{},
		Evidence: evidence.Builder{},
	}
}
