// Tastemaker - Semantic Media Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tastemaker

// Package embedding provides the BadgerDB-backed embedding store and the
// vector math used across the recommendation pipeline.
//
// One vector is stored per (item, model) pair under the key
// "emb:<modelID>:<itemID>". Vectors are immutable once written except for
// regeneration under the same model, which overwrites the key. Nearest
// neighbor search is a brute-force cosine scan over the model's prefix with
// an inline filter predicate, which keeps constraint filtering (library
// enablement, parental rating, already-watched) at query time.
package embedding

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"
	"github.com/rs/zerolog"

	"github.com/tomtom215/tastemaker/internal/metrics"
)

// ErrNotFound indicates that no embedding exists for the requested
// (item, model) pair.
var ErrNotFound = errors.New("embedding not found")

const keyPrefix = "emb:"

// Neighbor is a single nearest-neighbor search result.
type Neighbor struct {
	ItemID     int     `json:"item_id"`
	Similarity float64 `json:"similarity"`
}

// Store persists embedding vectors in BadgerDB.
type Store struct {
	db     *badger.DB
	logger zerolog.Logger
}

// Open opens (or creates) a BadgerDB embedding store at the given directory.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func Open(path string, logger zerolog.Logger) (*Store, error) {
	opts := badger.DefaultOptions(path).WithLogger(nil)
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open embedding store: %w", err)
	}
	return NewStore(db, logger), nil
}

// NewStore wraps an existing BadgerDB handle.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewStore(db *badger.DB, logger zerolog.Logger) *Store {
	return &Store{
		db:     db,
		logger: logger.With().Str("component", "embedding").Logger(),
	}
}

// Close closes the underlying BadgerDB.
func (s *Store) Close() error {
	return s.db.Close()
}

// Put stores a vector for the (item, model) pair, overwriting any prior value.
func (s *Store) Put(ctx context.Context, modelID string, itemID int, vector []float32) error {
	data, err := json.Marshal(vector)
	if err != nil {
		return fmt.Errorf("marshal vector: %w", err)
	}

	err = s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(vectorKey(modelID, itemID), data)
	})
	if err != nil {
		return fmt.Errorf("put embedding: %w", err)
	}

	metrics.EmbeddingStoreOps.WithLabelValues("put").Inc()
	return nil
}

// Get retrieves the vector for the (item, model) pair.
// Returns ErrNotFound when no embedding exists.
func (s *Store) Get(ctx context.Context, modelID string, itemID int) ([]float32, error) {
	var vector []float32

	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(vectorKey(modelID, itemID))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("get embedding: %w", err)
		}

		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &vector)
		})
	})
	if err != nil {
		return nil, err
	}

	metrics.EmbeddingStoreOps.WithLabelValues("get").Inc()
	return vector, nil
}

// GetBatch retrieves vectors for multiple items under one model in a single
// read transaction. Items without an embedding are absent from the result;
// missing embeddings are a soft skip, never an error.
func (s *Store) GetBatch(ctx context.Context, modelID string, itemIDs []int) (map[int][]float32, error) {
	result := make(map[int][]float32, len(itemIDs))

	err := s.db.View(func(txn *badger.Txn) error {
		for _, id := range itemIDs {
			item, err := txn.Get(vectorKey(modelID, id))
			if errors.Is(err, badger.ErrKeyNotFound) {
				continue
			}
			if err != nil {
				return fmt.Errorf("get embedding %d: %w", id, err)
			}

			var vector []float32
			if err := item.Value(func(val []byte) error {
				return json.Unmarshal(val, &vector)
			}); err != nil {
				return fmt.Errorf("decode embedding %d: %w", id, err)
			}
			result[id] = vector
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	metrics.EmbeddingStoreOps.WithLabelValues("get").Add(float64(len(itemIDs)))
	return result, nil
}

// Delete removes the vector for the (item, model) pair. Deleting a missing
// key is not an error.
func (s *Store) Delete(ctx context.Context, modelID string, itemID int) error {
	err := s.db.Update(func(txn *badger.Txn) error {
		return txn.Delete(vectorKey(modelID, itemID))
	})
	if err != nil {
		return fmt.Errorf("delete embedding: %w", err)
	}

	metrics.EmbeddingStoreOps.WithLabelValues("delete").Inc()
	return nil
}

// Search returns up to limit items nearest to the query vector by cosine
// similarity, scanning all embeddings for the model. Items rejected by the
// filter predicate are skipped at scan time. Results are ordered by
// similarity descending, item ID ascending on ties for determinism.
//
// A nil query returns an empty result, not an error: the caller is in a
// cold-start condition.
func (s *Store) Search(ctx context.Context, modelID string, query []float32, limit int, filter func(itemID int) bool) ([]Neighbor, error) {
	if len(query) == 0 || limit <= 0 {
		return []Neighbor{}, nil
	}

	start := time.Now()
	prefix := []byte(keyPrefix + modelID + ":")
	var neighbors []Neighbor

	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}

			item := it.Item()
			itemID, ok := parseItemID(item.Key(), prefix)
			if !ok {
				continue
			}
			if filter != nil && !filter(itemID) {
				continue
			}

			var vector []float32
			if err := item.Value(func(val []byte) error {
				return json.Unmarshal(val, &vector)
			}); err != nil {
				return fmt.Errorf("decode embedding %d: %w", itemID, err)
			}

			neighbors = append(neighbors, Neighbor{
				ItemID:     itemID,
				Similarity: Cosine(query, vector),
			})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(neighbors, func(i, j int) bool {
		if neighbors[i].Similarity != neighbors[j].Similarity {
			return neighbors[i].Similarity > neighbors[j].Similarity
		}
		return neighbors[i].ItemID < neighbors[j].ItemID
	})
	if len(neighbors) > limit {
		neighbors = neighbors[:limit]
	}

	metrics.EmbeddingStoreOps.WithLabelValues("search").Inc()
	metrics.EmbeddingSearchDuration.Observe(time.Since(start).Seconds())
	return neighbors, nil
}

// Count returns the number of embeddings stored for a model.
func (s *Store) Count(ctx context.Context, modelID string) (int, error) {
	prefix := []byte(keyPrefix + modelID + ":")
	count := 0

	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			count++
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("count embeddings: %w", err)
	}

	return count, nil
}

func vectorKey(modelID string, itemID int) []byte {
	return []byte(keyPrefix + modelID + ":" + strconv.Itoa(itemID))
}

func parseItemID(key, prefix []byte) (int, bool) {
	suffix := strings.TrimPrefix(string(key), string(prefix))
	id, err := strconv.Atoi(suffix)
	if err != nil {
		return 0, false
	}
	return id, true
}
