// Tastemaker - Semantic Media Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tastemaker

package database

import (
	"context"
	"database/sql"
	"errors"

	"github.com/goccy/go-json"

	"github.com/tomtom215/tastemaker/internal/recommend"
)

// UpsertTasteVector fully replaces the user's taste vector for a media
// type. The vector is stored as JSON text.
func (db *DB) UpsertTasteVector(ctx context.Context, tv *recommend.TasteVector) error {
	data, err := json.Marshal(tv.Vector)
	if err != nil {
		return queryErr("upsert_taste_vector", err)
	}

	_, err = db.conn.ExecContext(ctx, `
		INSERT OR REPLACE INTO taste_vectors (user_id, media_type, vector, updated_at)
		VALUES (?, ?, ?, ?)`,
		tv.UserID, string(tv.MediaType), string(data), tv.UpdatedAt)
	if err != nil {
		return queryErr("upsert_taste_vector", err)
	}
	return nil
}

// GetTasteVector returns the stored taste vector, or nil when the user has
// none for the media type.
func (db *DB) GetTasteVector(ctx context.Context, userID int, mediaType recommend.MediaType) (*recommend.TasteVector, error) {
	tv := &recommend.TasteVector{UserID: userID, MediaType: mediaType}
	var data string

	err := db.conn.QueryRowContext(ctx, `
		SELECT vector, updated_at FROM taste_vectors
		WHERE user_id = ? AND media_type = ?`,
		userID, string(mediaType)).Scan(&data, &tv.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, queryErr("get_taste_vector", err)
	}

	if err := json.Unmarshal([]byte(data), &tv.Vector); err != nil {
		return nil, queryErr("get_taste_vector", err)
	}
	return tv, nil
}
