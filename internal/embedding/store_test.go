// Tastemaker - Semantic Media Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tastemaker

package embedding

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
)

const testModel = "all-MiniLM-L6-v2"

func testStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(t.TempDir(), zerolog.Nop())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func put(t *testing.T, store *Store, modelID string, itemID int, vector []float32) {
	t.Helper()
	if err := store.Put(context.Background(), modelID, itemID, vector); err != nil {
		t.Fatalf("Put(%d): %v", itemID, err)
	}
}

func TestPutGetRoundTrip(t *testing.T) {
	store := testStore(t)
	ctx := context.Background()

	put(t, store, testModel, 1, []float32{0.1, 0.2, 0.3})

	got, err := store.Get(ctx, testModel, 1)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if len(got) != 3 || got[0] != 0.1 {
		t.Errorf("vector = %v, want [0.1 0.2 0.3]", got)
	}

	// Overwrite under the same key.
	put(t, store, testModel, 1, []float32{1, 0, 0})
	got, err = store.Get(ctx, testModel, 1)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got[0] != 1 {
		t.Errorf("overwritten vector = %v, want [1 0 0]", got)
	}
}

func TestGetNotFound(t *testing.T) {
	store := testStore(t)
	if _, err := store.Get(context.Background(), testModel, 404); !errors.Is(err, ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestGetBatchSkipsMissing(t *testing.T) {
	store := testStore(t)
	ctx := context.Background()

	put(t, store, testModel, 1, []float32{1, 0})
	put(t, store, testModel, 3, []float32{0, 1})

	got, err := store.GetBatch(ctx, testModel, []int{1, 2, 3})
	if err != nil {
		t.Fatalf("GetBatch: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("len(batch) = %d, want 2", len(got))
	}
	if _, ok := got[2]; ok {
		t.Error("missing item present in batch result")
	}
}

func TestDelete(t *testing.T) {
	store := testStore(t)
	ctx := context.Background()

	put(t, store, testModel, 1, []float32{1})
	if err := store.Delete(ctx, testModel, 1); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := store.Get(ctx, testModel, 1); !errors.Is(err, ErrNotFound) {
		t.Errorf("err after delete = %v, want ErrNotFound", err)
	}

	// Deleting a missing key is not an error.
	if err := store.Delete(ctx, testModel, 999); err != nil {
		t.Errorf("Delete(missing) = %v, want nil", err)
	}
}

func TestSearchOrderingAndLimit(t *testing.T) {
	store := testStore(t)
	ctx := context.Background()

	put(t, store, testModel, 1, []float32{1, 0})
	put(t, store, testModel, 2, []float32{0.9, 0.1})
	put(t, store, testModel, 3, []float32{0, 1})
	put(t, store, testModel, 4, []float32{-1, 0})

	neighbors, err := store.Search(ctx, testModel, []float32{1, 0}, 3, nil)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(neighbors) != 3 {
		t.Fatalf("len(neighbors) = %d, want 3", len(neighbors))
	}
	if neighbors[0].ItemID != 1 || neighbors[1].ItemID != 2 || neighbors[2].ItemID != 3 {
		t.Errorf("order = %v, want items 1, 2, 3 by similarity", neighbors)
	}
	if neighbors[0].Similarity < neighbors[1].Similarity || neighbors[1].Similarity < neighbors[2].Similarity {
		t.Errorf("similarities not descending: %v", neighbors)
	}
}

func TestSearchTieBreaksOnItemID(t *testing.T) {
	store := testStore(t)
	ctx := context.Background()

	// Identical vectors give identical similarity.
	put(t, store, testModel, 9, []float32{1, 0})
	put(t, store, testModel, 2, []float32{1, 0})
	put(t, store, testModel, 5, []float32{1, 0})

	neighbors, err := store.Search(ctx, testModel, []float32{1, 0}, 10, nil)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if neighbors[0].ItemID != 2 || neighbors[1].ItemID != 5 || neighbors[2].ItemID != 9 {
		t.Errorf("tie order = %v, want ascending item IDs", neighbors)
	}
}

func TestSearchFilter(t *testing.T) {
	store := testStore(t)
	ctx := context.Background()

	put(t, store, testModel, 1, []float32{1, 0})
	put(t, store, testModel, 2, []float32{1, 0})

	neighbors, err := store.Search(ctx, testModel, []float32{1, 0}, 10, func(itemID int) bool {
		return itemID != 1
	})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(neighbors) != 1 || neighbors[0].ItemID != 2 {
		t.Errorf("filtered result = %v, want only item 2", neighbors)
	}
}

func TestSearchNilQuery(t *testing.T) {
	store := testStore(t)
	put(t, store, testModel, 1, []float32{1, 0})

	neighbors, err := store.Search(context.Background(), testModel, nil, 10, nil)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(neighbors) != 0 {
		t.Errorf("nil query returned %v, want empty", neighbors)
	}
}

func TestModelsAreIsolated(t *testing.T) {
	store := testStore(t)
	ctx := context.Background()

	put(t, store, "model-a", 1, []float32{1, 0})
	put(t, store, "model-b", 2, []float32{1, 0})

	neighbors, err := store.Search(ctx, "model-a", []float32{1, 0}, 10, nil)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(neighbors) != 1 || neighbors[0].ItemID != 1 {
		t.Errorf("model-a search = %v, want only item 1", neighbors)
	}

	count, err := store.Count(ctx, "model-b")
	if err != nil {
		t.Fatalf("Count: %v", err)
	}
	if count != 1 {
		t.Errorf("model-b count = %d, want 1", count)
	}
}
