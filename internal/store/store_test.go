// Placewatch - Canvas Placement Analytics and Bot Detection
// Copyright 2026 Placewatch contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/placewatch/placewatch

package store

import (
	"context"
	"database/sql"
	"fmt"
	"testing"

	_ "github.com/duckdb/duckdb-go/v2"

	"github.com/placewatch/placewatch/internal/models"
)

// newTestStore opens an in-memory DuckDB with a placements table holding
// the given events.
func newTestStore(t *testing.T, events []models.Event) *Store {
	t.Helper()

	conn, err := sql.Open("duckdb", ":memory:?autoinstall_known_extensions=false&autoload_known_extensions=false")
	if err != nil {
		t.Fatalf("open duckdb: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close() })

	_, err = conn.Exec(`CREATE TABLE placements (
		user_id_int BIGINT,
		seconds_since_start BIGINT,
		x SMALLINT,
		y SMALLINT,
		color_name VARCHAR
	)`)
	if err != nil {
		t.Fatalf("create table: %v", err)
	}

	for _, ev := range events {
		_, err = conn.Exec(
			`INSERT INTO placements VALUES (?, ?, ?, ?, ?)`,
			ev.UserID, ev.T, ev.X, ev.Y, ev.Color,
		)
		if err != nil {
			t.Fatalf("insert event: %v", err)
		}
	}

	return NewFromConn(conn)
}

func testEvents() []models.Event {
	// Deliberately inserted out of order; the store must enforce ordering.
	return []models.Event{
		{UserID: 2, T: 50, X: 10, Y: 10, Color: "red"},
		{UserID: 1, T: 100, X: 5, Y: 5, Color: "white"},
		{UserID: 1, T: 10, X: 5, Y: 6, Color: "white"},
		{UserID: 2, T: 60, X: 10, Y: 10, Color: "blue"},
		{UserID: 3, T: 500, X: 1, Y: 1, Color: "red"},
	}
}

func TestScanUserEventsGroupsAndOrders(t *testing.T) {
	s := newTestStore(t, testEvents())

	var (
		users  []int64
		counts []int
	)
	err := s.ScanUserEvents(context.Background(), models.Window{}, func(userID int64, events []models.Event) error {
		users = append(users, userID)
		counts = append(counts, len(events))
		for i := 1; i < len(events); i++ {
			if events[i].T < events[i-1].T {
				t.Errorf("user %d events not time-ordered: %v", userID, events)
			}
			if events[i].UserID != userID {
				t.Errorf("foreign user %d in group %d", events[i].UserID, userID)
			}
		}
		return nil
	})
	if err != nil {
		t.Fatalf("ScanUserEvents: %v", err)
	}

	if len(users) != 3 {
		t.Fatalf("got %d user groups, want 3", len(users))
	}
	if users[0] != 1 || users[1] != 2 || users[2] != 3 {
		t.Errorf("user order = %v, want [1 2 3]", users)
	}
	if counts[0] != 2 || counts[1] != 2 || counts[2] != 1 {
		t.Errorf("group sizes = %v, want [2 2 1]", counts)
	}
}

func TestScanEventsWindow(t *testing.T) {
	s := newTestStore(t, testEvents())

	var seen []int64
	w := models.Window{StartSec: 50, EndSec: 100} // half-open: excludes T=100
	err := s.ScanEvents(context.Background(), w, func(ev models.Event) error {
		seen = append(seen, ev.T)
		return nil
	})
	if err != nil {
		t.Fatalf("ScanEvents: %v", err)
	}

	if len(seen) != 2 {
		t.Fatalf("got %d events, want 2 (T=50 and T=60)", len(seen))
	}
	if seen[0] != 50 || seen[1] != 60 {
		t.Errorf("events = %v, want [50 60]", seen)
	}
}

func TestCellCounts(t *testing.T) {
	s := newTestStore(t, testEvents())

	cells, err := s.CellCounts(context.Background(), models.Window{})
	if err != nil {
		t.Fatalf("CellCounts: %v", err)
	}

	byCell := make(map[models.Cell]int64)
	for _, c := range cells {
		byCell[c.Cell] = c.Count
	}
	if byCell[models.Cell{X: 10, Y: 10}] != 2 {
		t.Errorf("cell (10,10) count = %d, want 2", byCell[models.Cell{X: 10, Y: 10}])
	}
	if byCell[models.Cell{X: 5, Y: 5}] != 1 {
		t.Errorf("cell (5,5) count = %d, want 1", byCell[models.Cell{X: 5, Y: 5}])
	}
}

func TestColorRanking(t *testing.T) {
	s := newTestStore(t, testEvents())

	ranking, err := s.ColorRanking(context.Background(), models.Window{}, 3)
	if err != nil {
		t.Fatalf("ColorRanking: %v", err)
	}

	// red: users 2 and 3; white: user 1; blue: user 2.
	if len(ranking) != 3 {
		t.Fatalf("got %d colors, want 3", len(ranking))
	}
	if ranking[0].Color != "red" || ranking[0].UserCount != 2 {
		t.Errorf("top color = %+v, want red with 2 users", ranking[0])
	}
	// blue and white tie at 1 user each; name order breaks the tie.
	if ranking[1].Color != "blue" || ranking[2].Color != "white" {
		t.Errorf("tie order = %s, %s, want blue, white", ranking[1].Color, ranking[2].Color)
	}
}

func TestPixelCountQuantilesEmptyWindow(t *testing.T) {
	s := newTestStore(t, testEvents())

	w := models.Window{StartSec: 100000, EndSec: 200000}
	qs, err := s.PixelCountQuantiles(context.Background(), w, []float64{0.5, 0.99})
	if err != nil {
		t.Fatalf("PixelCountQuantiles: %v", err)
	}
	for _, q := range qs {
		if q.Value != 0 {
			t.Errorf("quantile %v = %v, want 0 for empty window", q.Quantile, q.Value)
		}
	}
}

func TestPixelCountQuantilesMedian(t *testing.T) {
	s := newTestStore(t, testEvents())

	qs, err := s.PixelCountQuantiles(context.Background(), models.Window{}, []float64{0.5})
	if err != nil {
		t.Fatalf("PixelCountQuantiles: %v", err)
	}
	// Per-user counts are [2, 2, 1]; the median is 2.
	if qs[0].Value != 2 {
		t.Errorf("median = %v, want 2", qs[0].Value)
	}
}

func TestFirstTimeUserCount(t *testing.T) {
	s := newTestStore(t, testEvents())

	// First placements: user 1 at T=10, user 2 at T=50, user 3 at T=500.
	w := models.Window{StartSec: 0, EndSec: 100}
	count, err := s.FirstTimeUserCount(context.Background(), w)
	if err != nil {
		t.Fatalf("FirstTimeUserCount: %v", err)
	}
	if count != 2 {
		t.Errorf("first-time users = %d, want 2", count)
	}

	all, err := s.FirstTimeUserCount(context.Background(), models.Window{})
	if err != nil {
		t.Fatalf("FirstTimeUserCount: %v", err)
	}
	if all != 3 {
		t.Errorf("first-time users unbounded = %d, want 3", all)
	}
}

func TestSummary(t *testing.T) {
	s := newTestStore(t, testEvents())

	summary, err := s.Summary(context.Background())
	if err != nil {
		t.Fatalf("Summary: %v", err)
	}
	if summary.Rows != 5 {
		t.Errorf("Rows = %d, want 5", summary.Rows)
	}
	if summary.UniqueUsers != 3 {
		t.Errorf("UniqueUsers = %d, want 3", summary.UniqueUsers)
	}
	// User 3 has one placement (no deviation); users 1 and 2 have sample
	// std dev of ~63.64 and ~7.07 respectively.
	if summary.MeanUserStd <= 0 {
		t.Errorf("MeanUserStd = %v, want positive", summary.MeanUserStd)
	}
}

func TestEventCount(t *testing.T) {
	s := newTestStore(t, testEvents())

	n, err := s.EventCount(context.Background(), models.Window{StartSec: 0, EndSec: 61})
	if err != nil {
		t.Fatalf("EventCount: %v", err)
	}
	if n != 3 {
		t.Errorf("EventCount = %d, want 3", n)
	}
}

func TestScanStopsOnCallbackError(t *testing.T) {
	s := newTestStore(t, testEvents())

	wantErr := fmt.Errorf("stop")
	calls := 0
	err := s.ScanEvents(context.Background(), models.Window{}, func(models.Event) error {
		calls++
		return wantErr
	})
	if err == nil {
		t.Fatal("expected propagated callback error")
	}
	if calls != 1 {
		t.Errorf("callback ran %d times after error, want 1", calls)
	}
}
