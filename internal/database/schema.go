// Tastemaker - Semantic Media Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tastemaker

package database

// schemaStatements creates all tables and indexes. Statements are idempotent
// so startup against an existing database is a no-op.
var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS items (
		id INTEGER PRIMARY KEY,
		title TEXT NOT NULL,
		year INTEGER NOT NULL DEFAULT 0,
		media_type TEXT NOT NULL,
		genres TEXT NOT NULL DEFAULT '',
		network TEXT NOT NULL DEFAULT '',
		community_rating DOUBLE,
		official_rating TEXT NOT NULL DEFAULT '',
		library_enabled BOOLEAN NOT NULL DEFAULT true
	)`,

	`CREATE TABLE IF NOT EXISTS watch_signals (
		user_id INTEGER NOT NULL,
		item_id INTEGER NOT NULL,
		play_count INTEGER NOT NULL DEFAULT 0,
		is_favorite BOOLEAN NOT NULL DEFAULT false,
		last_played_at TIMESTAMP NOT NULL,
		PRIMARY KEY (user_id, item_id)
	)`,

	`CREATE TABLE IF NOT EXISTS taste_vectors (
		user_id INTEGER NOT NULL,
		media_type TEXT NOT NULL,
		vector TEXT NOT NULL,
		updated_at TIMESTAMP NOT NULL,
		PRIMARY KEY (user_id, media_type)
	)`,

	`CREATE TABLE IF NOT EXISTS recommendation_runs (
		id TEXT PRIMARY KEY,
		user_id INTEGER NOT NULL,
		media_type TEXT NOT NULL,
		status TEXT NOT NULL,
		candidate_count INTEGER NOT NULL DEFAULT 0,
		selected_count INTEGER NOT NULL DEFAULT 0,
		duration_ms BIGINT NOT NULL DEFAULT 0,
		created_at TIMESTAMP NOT NULL,
		completed_at TIMESTAMP,
		error_message TEXT NOT NULL DEFAULT ''
	)`,

	`CREATE TABLE IF NOT EXISTS run_candidates (
		id TEXT PRIMARY KEY,
		run_id TEXT NOT NULL,
		item_id INTEGER NOT NULL,
		similarity DOUBLE NOT NULL DEFAULT 0,
		novelty DOUBLE NOT NULL DEFAULT 0,
		rating_score DOUBLE NOT NULL DEFAULT 0,
		diversity_boost DOUBLE NOT NULL DEFAULT 0,
		final_score DOUBLE NOT NULL DEFAULT 0,
		is_selected BOOLEAN NOT NULL DEFAULT false,
		selection_rank INTEGER NOT NULL DEFAULT 0
	)`,

	`CREATE TABLE IF NOT EXISTS run_evidence (
		candidate_id TEXT NOT NULL,
		similar_item_id INTEGER NOT NULL,
		similarity DOUBLE NOT NULL DEFAULT 0,
		evidence_type TEXT NOT NULL
	)`,

	`CREATE INDEX IF NOT EXISTS idx_runs_user
		ON recommendation_runs (user_id, media_type, status)`,
	`CREATE INDEX IF NOT EXISTS idx_candidates_run
		ON run_candidates (run_id)`,
	`CREATE INDEX IF NOT EXISTS idx_evidence_candidate
		ON run_evidence (candidate_id)`,
	`CREATE INDEX IF NOT EXISTS idx_signals_user
		ON watch_signals (user_id)`,
}

func (db *DB) initSchema() error {
	for _, stmt := range schemaStatements {
		if _, err := db.conn.Exec(stmt); err != nil {
			return queryErr("init_schema", err)
		}
	}
	return nil
}
