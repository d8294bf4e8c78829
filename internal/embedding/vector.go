// Tastemaker - Semantic Media Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tastemaker

package embedding

import "math"

// Dot returns the dot product of two vectors. Mismatched lengths are
// truncated to the shorter vector.
func Dot(a, b []float32) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}

	var sum float64
	for i := 0; i < n; i++ {
		sum += float64(a[i]) * float64(b[i])
	}
	return sum
}

// L2Norm returns the Euclidean norm of a vector.
func L2Norm(v []float32) float64 {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	return math.Sqrt(sum)
}

// Cosine returns the cosine similarity of two vectors in [-1, 1].
// Returns 0 when either vector has zero norm.
func Cosine(a, b []float32) float64 {
	na := L2Norm(a)
	nb := L2Norm(b)
	if na == 0 || nb == 0 {
		return 0
	}
	return Dot(a, b) / (na * nb)
}

// Normalize returns a copy of v projected onto the unit sphere.
// A zero-norm vector is returned unmodified; callers must treat it as
// "no usable vector".
func Normalize(v []float32) []float32 {
	out := make([]float32, len(v))
	norm := L2Norm(v)
	if norm == 0 {
		copy(out, v)
		return out
	}
	for i, x := range v {
		out[i] = float32(float64(x) / norm)
	}
	return out
}

// WeightedAverage computes the weighted mean of vectors: sum(w_i * v_i)
// divided by the total weight. All vectors must share the same dimension;
// the result is nil when inputs are empty or total weight is zero.
func WeightedAverage(vectors [][]float32, weights []float64) []float32 {
	if len(vectors) == 0 || len(vectors) != len(weights) {
		return nil
	}

	var total float64
	for _, w := range weights {
		total += w
	}
	if total == 0 {
		return nil
	}

	dim := len(vectors[0])
	acc := make([]float64, dim)
	for i, v := range vectors {
		w := weights[i]
		for j := 0; j < dim && j < len(v); j++ {
			acc[j] += w * float64(v[j])
		}
	}

	out := make([]float32, dim)
	for j, x := range acc {
		out[j] = float32(x / total)
	}
	return out
}
