// Tastemaker - Semantic Media Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tastemaker

// Package database implements DuckDB persistence for the recommendation
// engine: catalog items, watch signals (read model), taste vectors, runs,
// candidates and evidence.
//
// The DB type satisfies the engine's RunStore, CatalogProvider,
// WatchHistoryProvider and TasteVectorStore interfaces. Run finalization is
// transactional: selection flags, evidence rows and the terminal status
// change commit together or not at all.
package database

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	_ "github.com/duckdb/duckdb-go/v2"
	"github.com/rs/zerolog"

	"github.com/tomtom215/tastemaker/internal/config"
	"github.com/tomtom215/tastemaker/internal/metrics"
)

// DB wraps a DuckDB connection with the engine's storage operations.
type DB struct {
	conn   *sql.DB
	logger zerolog.Logger
}

// New opens (or creates) the DuckDB database at the configured path and
// initializes the schema.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func New(cfg *config.DatabaseConfig, logger zerolog.Logger) (*DB, error) {
	threads := cfg.Threads
	if threads <= 0 {
		threads = runtime.NumCPU()
	}

	if dir := filepath.Dir(cfg.Path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return nil, fmt.Errorf("create database directory %s: %w", dir, err)
		}
	}

	// Auto-install/auto-load stay off so startup cannot hang on a
	// restricted network.
	connStr := fmt.Sprintf("%s?access_mode=read_write&threads=%d&max_memory=%s&autoinstall_known_extensions=false&autoload_known_extensions=false",
		cfg.Path, threads, cfg.MaxMemory)

	conn, err := sql.Open("duckdb", connStr)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	return setup(conn, logger)
}

// NewMemory opens an in-memory DuckDB database, used by tests.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewMemory(logger zerolog.Logger) (*DB, error) {
	conn, err := sql.Open("duckdb", "?autoinstall_known_extensions=false&autoload_known_extensions=false")
	if err != nil {
		return nil, fmt.Errorf("open in-memory database: %w", err)
	}
	return setup(conn, logger)
}

//nolint:gocritic // logger passed by value is acceptable for zerolog
func setup(conn *sql.DB, logger zerolog.Logger) (*DB, error) {
	conn.SetMaxOpenConns(4)
	conn.SetMaxIdleConns(2)
	conn.SetConnMaxLifetime(time.Hour)

	db := &DB{
		conn:   conn,
		logger: logger.With().Str("component", "database").Logger(),
	}
	if err := db.initSchema(); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("initialize schema: %w", err)
	}
	return db, nil
}

// Close closes the underlying connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

// queryErr counts and wraps a query error under its operation name.
func queryErr(op string, err error) error {
	metrics.DBQueryErrors.WithLabelValues(op).Inc()
	return fmt.Errorf("%s: %w", op, err)
}

// splitAndTrim splits a comma-separated value into trimmed non-empty parts.
func splitAndTrim(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

func joinGenres(genres []string) string {
	return strings.Join(genres, ", ")
}
