// Placewatch - Canvas Placement Analytics and Bot Detection
// Copyright 2026 Placewatch contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/placewatch/placewatch

// Package metrics provides Prometheus instrumentation for batch analysis
// runs: per-analysis durations, store query performance, and scan volumes.
// Collectors are registered on the default registry; callers that embed
// Placewatch in a long-running process can expose them via promhttp.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// AnalysisDuration tracks wall time per analysis per run.
	AnalysisDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "placewatch_analysis_duration_seconds",
			Help:    "Duration of one analysis within a batch run",
			Buckets: []float64{0.1, 0.5, 1, 5, 10, 30, 60, 120, 300, 600},
		},
		[]string{"analysis"},
	)

	// AnalysisErrors counts isolated analysis failures. A failure here
	// never aborts sibling analyses in the same batch run.
	AnalysisErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "placewatch_analysis_errors_total",
			Help: "Total number of failed analyses",
		},
		[]string{"analysis"},
	)

	// EventsScanned counts placement rows streamed out of the store.
	EventsScanned = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "placewatch_events_scanned_total",
			Help: "Total number of placement events scanned from the store",
		},
		[]string{"analysis"},
	)

	// StoreQueryDuration tracks DuckDB query latency.
	StoreQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "placewatch_store_query_duration_seconds",
			Help:    "Duration of DuckDB queries in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation"},
	)

	// UsersFlagged counts users flagged per behavioral rule across runs.
	UsersFlagged = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "placewatch_users_flagged_total",
			Help: "Total number of users flagged per behavioral rule",
		},
		[]string{"rule"},
	)

	// BurstsDetected counts coordinated bursts found per run.
	BurstsDetected = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "placewatch_bursts_detected_total",
			Help: "Total number of coordinated bursts detected",
		},
	)
)

// ObserveAnalysis records the duration of one analysis.
func ObserveAnalysis(name string, start time.Time) {
	AnalysisDuration.WithLabelValues(name).Observe(time.Since(start).Seconds())
}

// ObserveQuery records the duration of one store query.
func ObserveQuery(operation string, start time.Time) {
	StoreQueryDuration.WithLabelValues(operation).Observe(time.Since(start).Seconds())
}
