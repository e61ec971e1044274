// Placewatch - Canvas Placement Analytics and Bot Detection
// Copyright 2026 Placewatch contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/placewatch/placewatch

package burst

import (
	"context"
	"database/sql"
	"testing"

	_ "github.com/duckdb/duckdb-go/v2"

	"github.com/placewatch/placewatch/internal/config"
	"github.com/placewatch/placewatch/internal/models"
	"github.com/placewatch/placewatch/internal/store"
)

func newBurstStore(t *testing.T, events []models.Event) *store.Store {
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
		_, err = conn.Exec(`INSERT INTO placements VALUES (?, ?, ?, ?, ?)`,
			ev.UserID, ev.T, ev.X, ev.Y, ev.Color)
		if err != nil {
			t.Fatalf("insert: %v", err)
		}
	}
	return store.NewFromConn(conn)
}

func testConfig() (*config.CanvasConfig, *config.AnalysisConfig) {
	cfg := config.Default()
	cfg.Analysis.DensityThreshold = 2
	cfg.Analysis.ZonePercentile = 0.9
	return &cfg.Canvas, &cfg.Analysis
}

func ev(user, t int64, x, y int32) models.Event {
	return models.Event{UserID: user, T: t, X: x, Y: y, Color: "red"}
}

// burstFixture builds two hot zones over a cold background.
//
//	zone 0: cells (100,100) and (100,101), vertically adjacent. Attack
//	        seconds at T=10 and T=20 (one burst, 10s apart) and at T=500
//	        (a second burst, beyond the 150s attack gap).
//	zone 1: cell (500,500) with one attack second at T=50.
//
// User 1 participates in both zone-0 bursts and must count once in the
// report's participant union.
func burstFixture() []models.Event {
	var events []models.Event

	attack := func(t int64, users [3]int64) {
		events = append(events,
			ev(users[0], t, 100, 100),
			ev(users[1], t, 100, 101),
			ev(users[2], t, 100, 100),
		)
	}
	attack(10, [3]int64{1, 2, 3})
	attack(20, [3]int64{2, 3, 4})
	attack(500, [3]int64{1, 5, 6})

	for _, u := range []int64{7, 8, 9, 10} {
		events = append(events, ev(u, 50, 500, 500))
	}

	// Cold background, one placement per far-apart cell.
	for i := int64(0); i < 30; i++ {
		events = append(events, ev(100+i, 1000+i*7, int32(i*60), 1900))
	}

	return events
}

func TestDetectorReport(t *testing.T) {
	canvas, cfg := testConfig()
	d := NewDetector(newBurstStore(t, burstFixture()), canvas, cfg)

	report, err := d.Report(context.Background(), models.Window{})
	if err != nil {
		t.Fatalf("Report: %v", err)
	}

	if report.ZoneCount != 2 {
		t.Errorf("ZoneCount = %d, want 2", report.ZoneCount)
	}
	if report.BurstCount != 3 {
		t.Errorf("BurstCount = %d, want 3", report.BurstCount)
	}
	if report.UniqueUsers != 10 {
		t.Errorf("UniqueUsers = %d, want 10 (user 1 counts once)", report.UniqueUsers)
	}
	if len(report.TopBursts) != 3 {
		t.Fatalf("got %d top bursts, want 3", len(report.TopBursts))
	}

	// Ranked by total pixel volume: 6, 4, 3.
	top := report.TopBursts[0]
	if top.TotalPixels != 6 || top.ZoneID != 0 || top.BurstID != 0 {
		t.Errorf("top burst = %+v, want zone 0 burst 0 with 6 pixels", top)
	}
	if top.StartSec != 10 || top.EndSec != 20 || top.ActiveSeconds != 2 {
		t.Errorf("top burst span = [%d,%d] active %d, want [10,20] active 2",
			top.StartSec, top.EndSec, top.ActiveSeconds)
	}
	if top.UniqueUsers != 4 {
		t.Errorf("top burst UniqueUsers = %d, want 4", top.UniqueUsers)
	}

	if report.TopBursts[1].TotalPixels != 4 || report.TopBursts[1].ZoneID != 1 {
		t.Errorf("second burst = %+v, want zone 1 with 4 pixels", report.TopBursts[1])
	}

	third := report.TopBursts[2]
	if third.ZoneID != 0 || third.BurstID != 1 || third.StartSec != 500 {
		t.Errorf("third burst = %+v, want zone 0 burst 1 at T=500", third)
	}
	if third.DurationSeconds() != 0 {
		t.Errorf("single-second burst duration = %d, want 0", third.DurationSeconds())
	}
	if third.EventID() != "0_1" {
		t.Errorf("third burst EventID = %q, want \"0_1\"", third.EventID())
	}
}

func TestDetectorTopBurstsCap(t *testing.T) {
	canvas, cfg := testConfig()
	cfg.TopBursts = 2
	d := NewDetector(newBurstStore(t, burstFixture()), canvas, cfg)

	report, err := d.Report(context.Background(), models.Window{})
	if err != nil {
		t.Fatalf("Report: %v", err)
	}
	if report.BurstCount != 3 {
		t.Errorf("BurstCount = %d, want 3 (cap only trims the list)", report.BurstCount)
	}
	if len(report.TopBursts) != 2 {
		t.Errorf("got %d top bursts, want 2", len(report.TopBursts))
	}
}

func TestDetectorEmptyWindow(t *testing.T) {
	canvas, cfg := testConfig()
	d := NewDetector(newBurstStore(t, burstFixture()), canvas, cfg)

	report, err := d.Report(context.Background(), models.Window{StartSec: 100000, EndSec: 200000})
	if err != nil {
		t.Fatalf("Report: %v", err)
	}
	if report.ZoneCount != 0 || report.BurstCount != 0 || len(report.TopBursts) != 0 {
		t.Errorf("empty window produced activity: %+v", report)
	}
}

func TestDetectorDensityThresholdIsStrict(t *testing.T) {
	canvas, cfg := testConfig()

	// One hot cell whose best second hits the threshold exactly.
	var events []models.Event
	events = append(events,
		ev(1, 10, 100, 100),
		ev(2, 10, 100, 100),
		ev(3, 20, 100, 100),
	)
	for i := int64(0); i < 30; i++ {
		events = append(events, ev(100+i, 1000+i*7, int32(i*60), 1900))
	}

	d := NewDetector(newBurstStore(t, events), canvas, cfg)
	report, err := d.Report(context.Background(), models.Window{})
	if err != nil {
		t.Fatalf("Report: %v", err)
	}
	if report.ZoneCount != 1 {
		t.Fatalf("ZoneCount = %d, want 1", report.ZoneCount)
	}
	if report.BurstCount != 0 {
		t.Errorf("BurstCount = %d, want 0 (density 2 is not > 2)", report.BurstCount)
	}
}

func TestDetectorDeterministic(t *testing.T) {
	canvas, cfg := testConfig()
	d := NewDetector(newBurstStore(t, burstFixture()), canvas, cfg)

	first, err := d.Report(context.Background(), models.Window{})
	if err != nil {
		t.Fatalf("Report: %v", err)
	}
	for run := 0; run < 3; run++ {
		again, err := d.Report(context.Background(), models.Window{})
		if err != nil {
			t.Fatalf("Report run %d: %v", run, err)
		}
		if len(again.TopBursts) != len(first.TopBursts) {
			t.Fatalf("run %d: %d bursts, want %d", run, len(again.TopBursts), len(first.TopBursts))
		}
		for i := range first.TopBursts {
			if again.TopBursts[i] != first.TopBursts[i] {
				t.Errorf("run %d burst %d: %+v vs %+v", run, i, again.TopBursts[i], first.TopBursts[i])
			}
		}
	}
}
