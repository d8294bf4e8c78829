// Tastemaker - Semantic Media Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tastemaker

package database

import (
	"context"

	"github.com/tomtom215/tastemaker/internal/recommend"
)

// UpsertWatchSignal inserts or replaces a watch signal. Signals are owned
// by the external watch-history sync; the engine reads them only.
func (db *DB) UpsertWatchSignal(ctx context.Context, signal recommend.WatchSignal) error {
	_, err := db.conn.ExecContext(ctx, `
		INSERT OR REPLACE INTO watch_signals
			(user_id, item_id, play_count, is_favorite, last_played_at)
		VALUES (?, ?, ?, ?, ?)`,
		signal.UserID, signal.ItemID, signal.PlayCount, signal.IsFavorite, signal.LastPlayedAt)
	if err != nil {
		return queryErr("upsert_watch_signal", err)
	}
	return nil
}

// GetWatchSignals returns up to limit signals for the user and media type,
// ordered favorites first, then play count, then recency. This ordering
// drives both history-cap inclusion and position weighting downstream.
func (db *DB) GetWatchSignals(ctx context.Context, userID int, mediaType recommend.MediaType, limit int) ([]recommend.WatchSignal, error) {
	rows, err := db.conn.QueryContext(ctx, `
		SELECT w.user_id, w.item_id, w.play_count, w.is_favorite, w.last_played_at
		FROM watch_signals w
		JOIN items i ON i.id = w.item_id
		WHERE w.user_id = ? AND i.media_type = ?
		ORDER BY w.is_favorite DESC, w.play_count DESC, w.last_played_at DESC
		LIMIT ?`,
		userID, string(mediaType), limit)
	if err != nil {
		return nil, queryErr("get_watch_signals", err)
	}
	defer func() { _ = rows.Close() }()

	var signals []recommend.WatchSignal
	for rows.Next() {
		var s recommend.WatchSignal
		if err := rows.Scan(&s.UserID, &s.ItemID, &s.PlayCount, &s.IsFavorite, &s.LastPlayedAt); err != nil {
			return nil, queryErr("get_watch_signals", err)
		}
		signals = append(signals, s)
	}
	if err := rows.Err(); err != nil {
		return nil, queryErr("get_watch_signals", err)
	}
	return signals, nil
}

// GetFavoriteCount returns the user's total favorite count for a media
// type, independent of the history cap.
func (db *DB) GetFavoriteCount(ctx context.Context, userID int, mediaType recommend.MediaType) (int, error) {
	var count int
	err := db.conn.QueryRowContext(ctx, `
		SELECT COUNT(*)
		FROM watch_signals w
		JOIN items i ON i.id = w.item_id
		WHERE w.user_id = ? AND w.is_favorite AND i.media_type = ?`,
		userID, string(mediaType)).Scan(&count)
	if err != nil {
		return 0, queryErr("get_favorite_count", err)
	}
	return count, nil
}

// GetWatchedItemIDs returns every item the user has watched for the media
// type.
func (db *DB) GetWatchedItemIDs(ctx context.Context, userID int, mediaType recommend.MediaType) ([]int, error) {
	rows, err := db.conn.QueryContext(ctx, `
		SELECT w.item_id
		FROM watch_signals w
		JOIN items i ON i.id = w.item_id
		WHERE w.user_id = ? AND i.media_type = ?`,
		userID, string(mediaType))
	if err != nil {
		return nil, queryErr("get_watched_item_ids", err)
	}
	defer func() { _ = rows.Close() }()

	var ids []int
	for rows.Next() {
		var id int
		if err := rows.Scan(&id); err != nil {
			return nil, queryErr("get_watched_item_ids", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, queryErr("get_watched_item_ids", err)
	}
	return ids, nil
}

// ListUserIDs returns every user with any watch history, ascending.
func (db *DB) ListUserIDs(ctx context.Context) ([]int, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT DISTINCT user_id FROM watch_signals ORDER BY user_id`)
	if err != nil {
		return nil, queryErr("list_user_ids", err)
	}
	defer func() { _ = rows.Close() }()

	var ids []int
	for rows.Next() {
		var id int
		if err := rows.Scan(&id); err != nil {
			return nil, queryErr("list_user_ids", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, queryErr("list_user_ids", err)
	}
	return ids, nil
}
