// Tastemaker - Semantic Media Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tastemaker

// Package recommend implements the recommendation engine.
//
// The engine turns a user's watch history into a persisted, explainable
// recommendation run in five strictly sequential stages:
//
//  1. Profile: weighted-average the embeddings of watched items into one
//     normalized taste vector (favorites, rewatches and recency weighted).
//  2. Retrieve: nearest-neighbor search against the embedding store,
//     excluding watched items and honoring availability and parental
//     constraints at scan time.
//  3. Score: blend cosine similarity, genre novelty and tiered community
//     rating into a base score per candidate.
//  4. Select: greedy diversity-aware selection that re-scores remaining
//     candidates against the evolving selection.
//  5. Persist: write candidates, flag the selection, attach
//     nearest-watched evidence and complete the run in one transaction.
//
// Runs are independent across users and safe to generate concurrently. A
// run transitions pending to completed or failed exactly once; cold starts
// (no usable history) complete with zero selections rather than failing.
//
// Stage implementations live in the profile, scoring, selection and
// evidence subpackages and are injected through the Pipeline struct;
// storage and transport land behind the interfaces in providers.go.
package recommend
