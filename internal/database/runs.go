// Tastemaker - Semantic Media Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tastemaker

package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/tomtom215/tastemaker/internal/recommend"
)

// CreateRun inserts a new pending run row.
func (db *DB) CreateRun(ctx context.Context, run *recommend.Run) error {
	_, err := db.conn.ExecContext(ctx, `
		INSERT INTO recommendation_runs (id, user_id, media_type, status, created_at)
		VALUES (?, ?, ?, ?, ?)`,
		run.ID, run.UserID, string(run.MediaType), string(run.Status), run.CreatedAt)
	if err != nil {
		return queryErr("create_run", err)
	}
	return nil
}

// InsertCandidates persists the full scored candidate set in one
// transaction.
func (db *DB) InsertCandidates(ctx context.Context, candidates []recommend.Candidate) error {
	if len(candidates) == 0 {
		return nil
	}

	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return queryErr("insert_candidates", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO run_candidates
			(id, run_id, item_id, similarity, novelty, rating_score, final_score)
		VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return queryErr("insert_candidates", err)
	}
	defer func() { _ = stmt.Close() }()

	for _, c := range candidates {
		if _, err := stmt.ExecContext(ctx,
			c.ID, c.RunID, c.Item.ID, c.Similarity, c.Novelty, c.RatingScore, c.FinalScore); err != nil {
			return queryErr("insert_candidates", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return queryErr("insert_candidates", err)
	}
	return nil
}

// CompleteRun atomically flags the selected candidates, writes evidence and
// transitions the run from pending to completed. The transition guard makes
// finalization single-shot: completing a run twice, or a failed run, errors.
func (db *DB) CompleteRun(ctx context.Context, runID string, selected []recommend.Candidate, evidence []recommend.Evidence, candidateCount int, durationMS int64) error {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return queryErr("complete_run", err)
	}
	defer func() { _ = tx.Rollback() }()

	for _, c := range selected {
		if _, err := tx.ExecContext(ctx, `
			UPDATE run_candidates
			SET is_selected = true, selection_rank = ?, diversity_boost = ?, final_score = ?
			WHERE id = ?`,
			c.SelectionRank, c.DiversityBoost, c.FinalScore, c.ID); err != nil {
			return queryErr("complete_run", err)
		}
	}

	for _, ev := range evidence {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO run_evidence (candidate_id, similar_item_id, similarity, evidence_type)
			VALUES (?, ?, ?, ?)`,
			ev.CandidateID, ev.SimilarItemID, ev.Similarity, string(ev.Type)); err != nil {
			return queryErr("complete_run", err)
		}
	}

	if err := db.finalize(ctx, tx, runID, recommend.RunCompleted, "", candidateCount, len(selected), durationMS); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return queryErr("complete_run", err)
	}
	return nil
}

// FailRun transitions the run from pending to failed with the captured
// error message.
func (db *DB) FailRun(ctx context.Context, runID, errorMessage string, durationMS int64) error {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return queryErr("fail_run", err)
	}
	defer func() { _ = tx.Rollback() }()

	if err := db.finalize(ctx, tx, runID, recommend.RunFailed, errorMessage, 0, 0, durationMS); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return queryErr("fail_run", err)
	}
	return nil
}

// finalize is the only writer of the pending -> terminal transition. The
// status guard in the WHERE clause enforces exactly-once semantics.
func (db *DB) finalize(ctx context.Context, tx *sql.Tx, runID string, status recommend.RunStatus, errorMessage string, candidateCount, selectedCount int, durationMS int64) error {
	res, err := tx.ExecContext(ctx, `
		UPDATE recommendation_runs
		SET status = ?, error_message = ?, candidate_count = ?, selected_count = ?,
			duration_ms = ?, completed_at = ?
		WHERE id = ? AND status = ?`,
		string(status), errorMessage, candidateCount, selectedCount,
		durationMS, time.Now().UTC(), runID, string(recommend.RunPending))
	if err != nil {
		return queryErr("finalize_run", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return queryErr("finalize_run", err)
	}
	if affected == 0 {
		return fmt.Errorf("finalize run %s to %s: %w", runID, status, recommend.ErrRunNotFound)
	}
	return nil
}

const runColumns = `id, user_id, media_type, status, candidate_count, selected_count,
	duration_ms, created_at, completed_at, error_message`

func scanRun(row *sql.Row) (*recommend.Run, error) {
	var run recommend.Run
	var mediaType, status string
	var completedAt sql.NullTime

	err := row.Scan(&run.ID, &run.UserID, &mediaType, &status,
		&run.CandidateCount, &run.SelectedCount, &run.DurationMS,
		&run.CreatedAt, &completedAt, &run.ErrorMessage)
	if err != nil {
		return nil, err
	}

	run.MediaType = recommend.MediaType(mediaType)
	run.Status = recommend.RunStatus(status)
	if completedAt.Valid {
		run.CompletedAt = completedAt.Time
	}
	return &run, nil
}

// GetRun returns a run by ID.
func (db *DB) GetRun(ctx context.Context, runID string) (*recommend.Run, error) {
	row := db.conn.QueryRowContext(ctx,
		`SELECT `+runColumns+` FROM recommendation_runs WHERE id = ?`, runID)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, recommend.ErrRunNotFound
	}
	if err != nil {
		return nil, queryErr("get_run", err)
	}
	return run, nil
}

// GetActiveRun returns the user's latest completed run, or nil when the
// user has none.
func (db *DB) GetActiveRun(ctx context.Context, userID int, mediaType recommend.MediaType) (*recommend.Run, error) {
	row := db.conn.QueryRowContext(ctx, `
		SELECT `+runColumns+`
		FROM recommendation_runs
		WHERE user_id = ? AND media_type = ? AND status = ?
		ORDER BY completed_at DESC
		LIMIT 1`,
		userID, string(mediaType), string(recommend.RunCompleted))

	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, queryErr("get_active_run", err)
	}
	return run, nil
}

// GetSelection returns a run's selected candidates in rank order, with item
// metadata attached.
func (db *DB) GetSelection(ctx context.Context, runID string) ([]recommend.Candidate, error) {
	rows, err := db.conn.QueryContext(ctx, `
		SELECT c.id, c.run_id, c.similarity, c.novelty, c.rating_score,
			c.diversity_boost, c.final_score, c.selection_rank,
			i.id, i.title, i.year, i.media_type, i.genres, i.network,
			i.community_rating, i.official_rating, i.library_enabled
		FROM run_candidates c
		JOIN items i ON i.id = c.item_id
		WHERE c.run_id = ? AND c.is_selected
		ORDER BY c.selection_rank`,
		runID)
	if err != nil {
		return nil, queryErr("get_selection", err)
	}
	defer func() { _ = rows.Close() }()

	var selected []recommend.Candidate
	for rows.Next() {
		var c recommend.Candidate
		var genres, mediaType string
		var rating sql.NullFloat64

		err := rows.Scan(&c.ID, &c.RunID, &c.Similarity, &c.Novelty, &c.RatingScore,
			&c.DiversityBoost, &c.FinalScore, &c.SelectionRank,
			&c.Item.ID, &c.Item.Title, &c.Item.Year, &mediaType, &genres,
			&c.Item.Network, &rating, &c.Item.OfficialRating, &c.Item.LibraryEnabled)
		if err != nil {
			return nil, queryErr("get_selection", err)
		}

		c.IsSelected = true
		c.Item.MediaType = recommend.MediaType(mediaType)
		c.Item.Genres = splitAndTrim(genres)
		if rating.Valid {
			r := rating.Float64
			c.Item.CommunityRating = &r
		}
		selected = append(selected, c)
	}
	if err := rows.Err(); err != nil {
		return nil, queryErr("get_selection", err)
	}
	return selected, nil
}

// GetEvidence returns the evidence rows for a candidate, nearest first.
func (db *DB) GetEvidence(ctx context.Context, candidateID string) ([]recommend.Evidence, error) {
	rows, err := db.conn.QueryContext(ctx, `
		SELECT candidate_id, similar_item_id, similarity, evidence_type
		FROM run_evidence
		WHERE candidate_id = ?
		ORDER BY similarity DESC, similar_item_id`,
		candidateID)
	if err != nil {
		return nil, queryErr("get_evidence", err)
	}
	defer func() { _ = rows.Close() }()

	var evidence []recommend.Evidence
	for rows.Next() {
		var ev recommend.Evidence
		var evType string
		if err := rows.Scan(&ev.CandidateID, &ev.SimilarItemID, &ev.Similarity, &evType); err != nil {
			return nil, queryErr("get_evidence", err)
		}
		ev.Type = recommend.EvidenceType(evType)
		evidence = append(evidence, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, queryErr("get_evidence", err)
	}
	return evidence, nil
}

// DeleteUserRuns removes all runs for a user along with their candidates
// and evidence.
func (db *DB) DeleteUserRuns(ctx context.Context, userID int) error {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return queryErr("delete_user_runs", err)
	}
	defer func() { _ = tx.Rollback() }()

	if err := deleteRunsWhere(ctx, tx,
		`SELECT id FROM recommendation_runs WHERE user_id = ?`, userID); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return queryErr("delete_user_runs", err)
	}
	return nil
}

// PruneRuns removes all but the newest keep completed runs for a user and
// media type, plus any failed runs, with their candidates and evidence.
func (db *DB) PruneRuns(ctx context.Context, userID int, mediaType recommend.MediaType, keep int) error {
	if keep < 0 {
		keep = 0
	}

	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return queryErr("prune_runs", err)
	}
	defer func() { _ = tx.Rollback() }()

	err = deleteRunsWhere(ctx, tx, `
		SELECT id FROM recommendation_runs
		WHERE user_id = ? AND media_type = ? AND (
			status = 'failed'
			OR id IN (
				SELECT id FROM recommendation_runs
				WHERE user_id = ? AND media_type = ? AND status = 'completed'
				ORDER BY completed_at DESC
				OFFSET ?
			)
		)`,
		userID, string(mediaType), userID, string(mediaType), keep)
	if err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return queryErr("prune_runs", err)
	}
	return nil
}

// deleteRunsWhere deletes evidence, candidates and run rows for every run
// matched by the given ID subquery.
func deleteRunsWhere(ctx context.Context, tx *sql.Tx, idQuery string, args ...any) error {
	if _, err := tx.ExecContext(ctx, `
		DELETE FROM run_evidence WHERE candidate_id IN (
			SELECT id FROM run_candidates WHERE run_id IN (`+idQuery+`)
		)`, args...); err != nil {
		return queryErr("delete_runs", err)
	}
	if _, err := tx.ExecContext(ctx,
		`DELETE FROM run_candidates WHERE run_id IN (`+idQuery+`)`, args...); err != nil {
		return queryErr("delete_runs", err)
	}
	if _, err := tx.ExecContext(ctx,
		`DELETE FROM recommendation_runs WHERE id IN (`+idQuery+`)`, args...); err != nil {
		return queryErr("delete_runs", err)
	}
	return nil
}
