// Placewatch - Canvas Placement Analytics and Bot Detection
// Copyright 2026 Placewatch contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/placewatch/placewatch

package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/placewatch/placewatch/internal/models"
)

// ScanEvents streams every placement in the window in ascending time
// order. fn returning an error stops the scan and propagates the error.
func (s *Store) ScanEvents(ctx context.Context, w models.Window, fn func(models.Event) error) error {
	defer observe("scan_events", time.Now())

	where, args := windowClause(w)
	query := fmt.Sprintf(`
	SELECT user_id_int, seconds_since_start, x, y, color_name
	FROM %s%s
	ORDER BY seconds_since_start`, viewName, where)

	rows, err := s.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to scan events: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		ev, err := scanEvent(rows)
		if err != nil {
			return err
		}
		if err := fn(ev); err != nil {
			return err
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("error iterating events: %w", err)
	}
	return nil
}

// ScanUserEvents streams placements grouped per user, each user's slice
// ordered ascending by time. The ordering is enforced by the query, never
// assumed from the dataset. The slice passed to fn is reused only after
// fn returns; fn must copy it to retain it.
func (s *Store) ScanUserEvents(ctx context.Context, w models.Window, fn func(userID int64, events []models.Event) error) error {
	defer observe("scan_user_events", time.Now())

	where, args := windowClause(w)
	query := fmt.Sprintf(`
	SELECT user_id_int, seconds_since_start, x, y, color_name
	FROM %s%s
	ORDER BY user_id_int, seconds_since_start`, viewName, where)

	rows, err := s.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to scan user events: %w", err)
	}
	defer rows.Close()

	var (
		current int64
		batch   []models.Event
	)
	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		if err := fn(current, batch); err != nil {
			return err
		}
		batch = batch[:0]
		return nil
	}

	for rows.Next() {
		ev, err := scanEvent(rows)
		if err != nil {
			return err
		}
		if len(batch) > 0 && ev.UserID != current {
			if err := flush(); err != nil {
				return err
			}
		}
		current = ev.UserID
		batch = append(batch, ev)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("error iterating user events: %w", err)
	}
	return flush()
}

// scanEvent reads one placement row.
func scanEvent(rows *sql.Rows) (models.Event, error) {
	var (
		ev   models.Event
		x, y int64
	)
	if err := rows.Scan(&ev.UserID, &ev.T, &x, &y, &ev.Color); err != nil {
		return models.Event{}, fmt.Errorf("failed to scan event row: %w", err)
	}
	ev.X = int32(x)
	ev.Y = int32(y)
	return ev, nil
}

// CellCounts returns the windowed activity heatmap: total placements per
// canvas cell.
func (s *Store) CellCounts(ctx context.Context, w models.Window) ([]models.CellCount, error) {
	defer observe("cell_counts", time.Now())

	where, args := windowClause(w)
	query := fmt.Sprintf(`
	SELECT x, y, COUNT(*) AS pixel_count
	FROM %s%s
	GROUP BY x, y`, viewName, where)

	rows, err := s.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query heatmap: %w", err)
	}
	defer rows.Close()

	var cells []models.CellCount
	for rows.Next() {
		var (
			x, y  int64
			count int64
		)
		if err := rows.Scan(&x, &y, &count); err != nil {
			return nil, fmt.Errorf("failed to scan heatmap row: %w", err)
		}
		cells = append(cells, models.CellCount{
			Cell:  models.Cell{X: int32(x), Y: int32(y)},
			Count: count,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating heatmap rows: %w", err)
	}
	return cells, nil
}

// ColorRanking returns colors ordered descending by distinct users in the
// window, at most limit entries. Ties break on color name so the ranking
// is deterministic.
func (s *Store) ColorRanking(ctx context.Context, w models.Window, limit int) ([]models.ColorCount, error) {
	defer observe("color_ranking", time.Now())

	where, args := windowClause(w)
	query := fmt.Sprintf(`
	SELECT color_name, COUNT(DISTINCT user_id_int) AS user_count
	FROM %s%s
	GROUP BY color_name
	ORDER BY user_count DESC, color_name
	LIMIT ?`, viewName, where)
	args = append(args, limit)

	rows, err := s.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query color ranking: %w", err)
	}
	defer rows.Close()

	var ranking []models.ColorCount
	for rows.Next() {
		var cc models.ColorCount
		if err := rows.Scan(&cc.Color, &cc.UserCount); err != nil {
			return nil, fmt.Errorf("failed to scan color ranking row: %w", err)
		}
		ranking = append(ranking, cc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating color ranking rows: %w", err)
	}
	return ranking, nil
}

// PixelCountQuantiles computes the requested quantiles of the per-user
// placement-count distribution inside the window. An empty window yields
// zeros, not an error.
func (s *Store) PixelCountQuantiles(ctx context.Context, w models.Window, quantiles []float64) ([]models.QuantileValue, error) {
	defer observe("pixel_count_quantiles", time.Now())

	where, args := windowClause(w)
	query := fmt.Sprintf(`
	SELECT quantile_cont(cnt, ?)
	FROM (SELECT COUNT(*) AS cnt FROM %s%s GROUP BY user_id_int)`, viewName, where)

	out := make([]models.QuantileValue, 0, len(quantiles))
	for _, q := range quantiles {
		qargs := append([]any{q}, args...)
		var v sql.NullFloat64
		if err := s.conn.QueryRowContext(ctx, query, qargs...).Scan(&v); err != nil {
			return nil, fmt.Errorf("failed to query pixel count quantile %v: %w", q, err)
		}
		out = append(out, models.QuantileValue{Quantile: q, Value: v.Float64})
	}
	return out, nil
}

// FirstTimeUserCount counts users whose first placement across the FULL
// dataset falls inside the window. With the zero window this is the
// distinct user count.
func (s *Store) FirstTimeUserCount(ctx context.Context, w models.Window) (int64, error) {
	defer observe("first_time_users", time.Now())

	query := fmt.Sprintf(`
	SELECT COUNT(*)
	FROM (SELECT MIN(seconds_since_start) AS first FROM %s GROUP BY user_id_int)`, viewName)

	var args []any
	if !w.IsZero() {
		query += ` WHERE first >= ? AND first < ?`
		args = []any{w.StartSec, w.EndSec}
	}

	var count int64
	if err := s.conn.QueryRowContext(ctx, query, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count first-time users: %w", err)
	}
	return count, nil
}

// EventCount returns the number of placements inside the window.
func (s *Store) EventCount(ctx context.Context, w models.Window) (int64, error) {
	defer observe("event_count", time.Now())

	where, args := windowClause(w)
	query := fmt.Sprintf(`SELECT COUNT(*) FROM %s%s`, viewName, where)

	var count int64
	if err := s.conn.QueryRowContext(ctx, query, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count events: %w", err)
	}
	return count, nil
}

// Summary computes full-dataset statistics: row count, distinct users and
// the mean of per-user sample standard deviations of placement times
// (users with a single placement have no deviation and are skipped by the
// mean, matching the dataset's original study).
func (s *Store) Summary(ctx context.Context) (*models.DatasetSummary, error) {
	defer observe("summary", time.Now())
	start := time.Now()

	var summary models.DatasetSummary

	base := fmt.Sprintf(`SELECT COUNT(*), COUNT(DISTINCT user_id_int) FROM %s`, viewName)
	if err := s.conn.QueryRowContext(ctx, base).Scan(&summary.Rows, &summary.UniqueUsers); err != nil {
		return nil, fmt.Errorf("failed to query dataset counts: %w", err)
	}

	stdQuery := fmt.Sprintf(`
	SELECT AVG(user_std)
	FROM (SELECT stddev_samp(seconds_since_start) AS user_std FROM %s GROUP BY user_id_int)`, viewName)

	var meanStd sql.NullFloat64
	if err := s.conn.QueryRowContext(ctx, stdQuery).Scan(&meanStd); err != nil {
		return nil, fmt.Errorf("failed to query mean user deviation: %w", err)
	}
	summary.MeanUserStd = meanStd.Float64
	summary.ExecutionMs = time.Since(start).Milliseconds()

	return &summary, nil
}
