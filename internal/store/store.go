// Placewatch - Canvas Placement Analytics and Bot Detection
// Copyright 2026 Placewatch contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/placewatch/placewatch

// Package store adapts the preprocessed columnar placement dataset to the
// analyses. It opens an in-memory DuckDB and exposes the Parquet file
// through a `placements` view; mechanical aggregations (heatmap counts,
// per-user volumes, quantiles) run as SQL while the gap-sensitive
// algorithms consume streamed, SQL-ordered rows in Go.
//
// The store is read-only for the duration of a run; every method is safe
// for concurrent use by independent analyses.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"runtime"
	"strings"
	"time"

	_ "github.com/duckdb/duckdb-go/v2"

	"github.com/placewatch/placewatch/internal/config"
	"github.com/placewatch/placewatch/internal/logging"
	"github.com/placewatch/placewatch/internal/metrics"
	"github.com/placewatch/placewatch/internal/models"
)

// viewName is the relation every query reads from. Open binds it to the
// Parquet dataset; tests may instead create a table of the same name.
const viewName = "placements"

// Store provides scan/filter/aggregate access to the placement events.
type Store struct {
	conn *sql.DB
}

// Open creates an in-memory DuckDB bound to the configured Parquet
// dataset. The dataset is produced externally by the preprocessor and is
// sorted by (user_id_int, seconds_since_start); queries still enforce
// their own ORDER BY rather than assuming it.
func Open(cfg *config.DatabaseConfig) (*Store, error) {
	numThreads := cfg.Threads
	if numThreads <= 0 {
		numThreads = runtime.NumCPU()
	}

	// Disable auto-install/auto-load to prevent hangs in restricted
	// network environments.
	connStr := fmt.Sprintf(":memory:?threads=%d&max_memory=%s&autoinstall_known_extensions=false&autoload_known_extensions=false",
		numThreads, cfg.MaxMemory)

	conn, err := sql.Open("duckdb", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	createView := fmt.Sprintf(
		`CREATE VIEW %s AS
		 SELECT user_id_int, seconds_since_start, x, y, color_name
		 FROM read_parquet('%s')`,
		viewName, escapeSingleQuotes(cfg.Path))

	if _, err := conn.ExecContext(context.Background(), createView); err != nil {
		closeQuietly(conn)
		return nil, fmt.Errorf("failed to bind dataset %s: %w", cfg.Path, err)
	}

	logging.Info().
		Str("dataset", cfg.Path).
		Int("threads", numThreads).
		Str("max_memory", cfg.MaxMemory).
		Msg("event store opened")

	return &Store{conn: conn}, nil
}

// NewFromConn wraps an existing connection that already provides the
// placements relation. Used by tests.
func NewFromConn(conn *sql.DB) *Store {
	return &Store{conn: conn}
}

// Close releases the database connection.
func (s *Store) Close() error {
	if s.conn != nil {
		return s.conn.Close()
	}
	return nil
}

// Ping checks that the connection is alive.
func (s *Store) Ping(ctx context.Context) error {
	if s.conn == nil {
		return fmt.Errorf("store connection is nil")
	}
	return s.conn.PingContext(ctx)
}

// escapeSingleQuotes makes a path safe to inline into a SQL string
// literal (paths cannot be bound inside read_parquet in a view).
func escapeSingleQuotes(s string) string {
	return strings.ReplaceAll(s, "'", "''")
}

// closeQuietly closes conn, logging rather than propagating any error.
func closeQuietly(conn *sql.DB) {
	if err := conn.Close(); err != nil {
		logging.Warn().Err(err).Msg("error closing database connection")
	}
}

// windowClause renders the half-open window filter, or nothing for the
// zero window.
func windowClause(w models.Window) (string, []any) {
	if w.IsZero() {
		return "", nil
	}
	return " WHERE seconds_since_start >= ? AND seconds_since_start < ?",
		[]any{w.StartSec, w.EndSec}
}

// observe records query latency under the given operation label.
func observe(operation string, start time.Time) {
	metrics.ObserveQuery(operation, start)
}
