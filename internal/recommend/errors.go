// Tastemaker - Semantic Media Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tastemaker

package recommend

import "errors"

var (
	// ErrNoEmbeddingModel indicates no embedding model is configured.
	// Generation is refused before a run row is created.
	ErrNoEmbeddingModel = errors.New("no embedding model configured")

	// ErrRunNotFound indicates the requested run does not exist.
	ErrRunNotFound = errors.New("run not found")

	// ErrInvalidTargetCount indicates a negative target count. Zero means
	// "use the configured default" and is accepted.
	ErrInvalidTargetCount = errors.New("target count must not be negative")
)
