// Tastemaker - Semantic Media Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tastemaker

package database

import (
	"context"
	"database/sql"
	"strings"

	"github.com/tomtom215/tastemaker/internal/recommend"
)

// UpsertItem inserts or replaces a catalog item. Catalog rows are written
// by the external sync pipeline; the engine itself only reads them.
func (db *DB) UpsertItem(ctx context.Context, item recommend.Item) error {
	var rating any
	if item.CommunityRating != nil {
		rating = *item.CommunityRating
	}

	_, err := db.conn.ExecContext(ctx, `
		INSERT OR REPLACE INTO items
			(id, title, year, media_type, genres, network, community_rating, official_rating, library_enabled)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		item.ID, item.Title, item.Year, string(item.MediaType), joinGenres(item.Genres),
		item.Network, rating, item.OfficialRating, item.LibraryEnabled)
	if err != nil {
		return queryErr("upsert_item", err)
	}
	return nil
}

const itemColumns = `id, title, year, media_type, genres, network,
	community_rating, official_rating, library_enabled`

func scanItem(rows *sql.Rows) (recommend.Item, error) {
	var item recommend.Item
	var mediaType, genres string
	var rating sql.NullFloat64

	err := rows.Scan(&item.ID, &item.Title, &item.Year, &mediaType, &genres,
		&item.Network, &rating, &item.OfficialRating, &item.LibraryEnabled)
	if err != nil {
		return item, err
	}

	item.MediaType = recommend.MediaType(mediaType)
	item.Genres = splitAndTrim(genres)
	if rating.Valid {
		r := rating.Float64
		item.CommunityRating = &r
	}
	return item, nil
}

// GetItems returns metadata for the given item IDs. Unknown IDs are absent
// from the result, not an error.
func (db *DB) GetItems(ctx context.Context, itemIDs []int) (map[int]recommend.Item, error) {
	out := make(map[int]recommend.Item, len(itemIDs))
	if len(itemIDs) == 0 {
		return out, nil
	}

	placeholders := strings.Repeat("?, ", len(itemIDs)-1) + "?"
	args := make([]any, len(itemIDs))
	for i, id := range itemIDs {
		args[i] = id
	}

	rows, err := db.conn.QueryContext(ctx,
		`SELECT `+itemColumns+` FROM items WHERE id IN (`+placeholders+`)`, args...)
	if err != nil {
		return nil, queryErr("get_items", err)
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, queryErr("get_items", err)
		}
		out[item.ID] = item
	}
	if err := rows.Err(); err != nil {
		return nil, queryErr("get_items", err)
	}
	return out, nil
}

// EligibleItemIDs returns the IDs retrievable for the media type under the
// given parental-rating ceiling. Library enablement is pushed into the
// query; the rating ceiling is a post-filter because its ordering lives in
// the domain layer.
func (db *DB) EligibleItemIDs(ctx context.Context, mediaType recommend.MediaType, parentalLimit string) (map[int]struct{}, error) {
	rows, err := db.conn.QueryContext(ctx, `
		SELECT id, official_rating FROM items
		WHERE media_type = ? AND library_enabled`,
		string(mediaType))
	if err != nil {
		return nil, queryErr("eligible_items", err)
	}
	defer func() { _ = rows.Close() }()

	out := make(map[int]struct{})
	for rows.Next() {
		var id int
		var officialRating string
		if err := rows.Scan(&id, &officialRating); err != nil {
			return nil, queryErr("eligible_items", err)
		}
		if !recommend.WithinParentalLimit(officialRating, parentalLimit) {
			continue
		}
		out[id] = struct{}{}
	}
	if err := rows.Err(); err != nil {
		return nil, queryErr("eligible_items", err)
	}
	return out, nil
}
