// Placewatch - Canvas Placement Analytics and Bot Detection
// Copyright 2026 Placewatch contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/placewatch/placewatch

package analysis

import (
	"context"
	"database/sql"
	"testing"

	_ "github.com/duckdb/duckdb-go/v2"

	"github.com/placewatch/placewatch/internal/config"
	"github.com/placewatch/placewatch/internal/models"
	"github.com/placewatch/placewatch/internal/store"
)

func newRunnerStore(t *testing.T, schema string, rows []string) *store.Store {
	t.Helper()

	conn, err := sql.Open("duckdb", ":memory:?autoinstall_known_extensions=false&autoload_known_extensions=false")
	if err != nil {
		t.Fatalf("open duckdb: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close() })

	if _, err := conn.Exec(schema); err != nil {
		t.Fatalf("create table: %v", err)
	}
	for _, row := range rows {
		if _, err := conn.Exec(row); err != nil {
			t.Fatalf("insert: %v", err)
		}
	}
	return store.NewFromConn(conn)
}

const fullSchema = `CREATE TABLE placements (
	user_id_int BIGINT,
	seconds_since_start BIGINT,
	x SMALLINT,
	y SMALLINT,
	color_name VARCHAR
)`

func TestRunAllAnalyses(t *testing.T) {
	s := newRunnerStore(t, fullSchema, []string{
		`INSERT INTO placements VALUES (1, 10, 5, 5, 'red')`,
		`INSERT INTO placements VALUES (1, 20, 6, 5, 'red')`,
		`INSERT INTO placements VALUES (2, 30, 7, 7, 'blue')`,
	})
	cfg := config.Default()
	r := New(s, cfg)

	report, err := r.Run(context.Background(), models.Window{}, All())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if report.RunID == "" {
		t.Error("RunID is empty")
	}
	if len(report.Errors) != 0 {
		t.Fatalf("unexpected errors: %+v", report.Errors)
	}
	if report.Summary == nil || report.Summary.Rows != 3 {
		t.Errorf("Summary = %+v, want 3 rows", report.Summary)
	}
	if report.Activity == nil || report.Activity.Empty {
		t.Errorf("Activity = %+v, want non-empty report", report.Activity)
	}
	if report.Classifiers == nil || report.Classifiers.EligibleUsers != 0 {
		t.Errorf("Classifiers = %+v, want 0 eligible users", report.Classifiers)
	}
	if report.Bursts == nil {
		t.Error("Bursts report missing")
	}
}

func TestRunSelectsAnalyses(t *testing.T) {
	s := newRunnerStore(t, fullSchema, []string{
		`INSERT INTO placements VALUES (1, 10, 5, 5, 'red')`,
	})
	r := New(s, config.Default())

	report, err := r.Run(context.Background(), models.Window{}, Options{Summary: true})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if report.Summary == nil {
		t.Error("Summary missing")
	}
	if report.Activity != nil || report.Classifiers != nil || report.Bursts != nil {
		t.Error("unselected analyses were run")
	}
}

func TestRunRejectsInvalidWindow(t *testing.T) {
	s := newRunnerStore(t, fullSchema, nil)
	r := New(s, config.Default())

	if _, err := r.Run(context.Background(), models.Window{StartSec: 100, EndSec: 50}, All()); err == nil {
		t.Error("inverted window accepted")
	}
}

func TestRunIsolatesAnalysisFailures(t *testing.T) {
	// A table without color_name breaks every analysis that reads colors;
	// the summary only touches counts and timing and must still succeed.
	schema := `CREATE TABLE placements (
		user_id_int BIGINT,
		seconds_since_start BIGINT,
		x SMALLINT,
		y SMALLINT
	)`
	s := newRunnerStore(t, schema, []string{
		`INSERT INTO placements VALUES (1, 10, 5, 5)`,
		`INSERT INTO placements VALUES (1, 20, 6, 5)`,
	})
	r := New(s, config.Default())

	report, err := r.Run(context.Background(), models.Window{}, All())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if report.Summary == nil || report.Summary.Rows != 2 {
		t.Errorf("Summary = %+v, want 2 rows despite sibling failures", report.Summary)
	}
	if len(report.Errors) == 0 {
		t.Fatal("expected analysis errors for missing color column")
	}
	for _, e := range report.Errors {
		if e.Analysis == "summary" {
			t.Errorf("summary reported an error: %s", e.Message)
		}
		if e.Message == "" {
			t.Errorf("error for %s has empty message", e.Analysis)
		}
	}
}
