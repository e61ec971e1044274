// Placewatch - Canvas Placement Analytics and Bot Detection
// Copyright 2026 Placewatch contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/placewatch/placewatch

package models

// ColorCount ranks one palette color by distinct users.
type ColorCount struct {
	Color     string `json:"color"`
	UserCount int64  `json:"user_count"`
}

// QuantileValue pairs a quantile with the value of the per-user
// pixel-count distribution at that quantile.
type QuantileValue struct {
	Quantile float64 `json:"quantile"`
	Value    float64 `json:"value"`
}

// ActivityReport summarizes windowed canvas activity: color popularity,
// session behavior, and per-user volume distribution.
type ActivityReport struct {
	Window Window `json:"window"`

	// Empty is true when the window contained no placements. All other
	// fields are well-formed zero values in that case.
	Empty bool `json:"empty"`

	TopColors []ColorCount `json:"top_colors"`

	// MeanSessionSeconds is the mean duration of multi-pixel sessions,
	// 0 when no session survives the single-pixel filter.
	MeanSessionSeconds float64 `json:"mean_session_seconds"`
	SessionCount       int64   `json:"session_count"`

	PixelCountQuantiles []QuantileValue `json:"pixel_count_quantiles"`

	// FirstTimeUsers counts users whose first placement in the full
	// dataset falls inside the window.
	FirstTimeUsers int64 `json:"first_time_users"`

	ExecutionMs int64 `json:"execution_ms"`
}

// ClassifierResult is one behavioral rule's outcome over all eligible users.
type ClassifierResult struct {
	Rule    string  `json:"rule"`
	Count   int     `json:"count"`
	UserIDs []int64 `json:"user_ids,omitempty"`
}

// ClassifierReport aggregates the independent per-user behavioral rules.
// Each rule is reported on its own; no combination logic is applied.
type ClassifierReport struct {
	Window Window `json:"window"`

	// EligibleUsers counts users that passed the minimum-activity
	// pre-filter and were evaluated by every rule.
	EligibleUsers int64 `json:"eligible_users"`

	// MinActivity is the pre-filter threshold (strictly greater than).
	MinActivity int `json:"min_activity"`

	Results []ClassifierResult `json:"results"`

	ExecutionMs int64 `json:"execution_ms"`
}

// BurstReport is the coordinated-burst detection output.
type BurstReport struct {
	Window Window `json:"window"`

	// ZoneCount is the number of hot zones discovered on the heatmap.
	ZoneCount int `json:"zone_count"`

	// ZoneThreshold is the per-cell count above which a cell is hot.
	ZoneThreshold float64 `json:"zone_threshold"`

	// UniqueUsers is the participant union across ALL detected bursts;
	// a user seen in several bursts counts once.
	UniqueUsers int `json:"unique_users"`

	// BurstCount is the number of distinct bursts across all zones.
	BurstCount int `json:"burst_count"`

	// TopBursts is ordered descending by total pixel volume, at most the
	// configured report size (default 10).
	TopBursts []Burst `json:"top_bursts"`

	ExecutionMs int64 `json:"execution_ms"`
}

// DatasetSummary describes the full dataset independent of any window.
type DatasetSummary struct {
	Rows        int64   `json:"rows"`
	UniqueUsers int64   `json:"unique_users"`
	MeanUserStd float64 `json:"mean_user_std_seconds"`
	ExecutionMs int64   `json:"execution_ms"`
}

// AnalysisError records the failure of one isolated analysis in a batch
// run; sibling analyses continue unaffected.
type AnalysisError struct {
	Analysis string `json:"analysis"`
	Message  string `json:"message"`
}

// BatchReport is the outcome of one batch run over the immutable store.
type BatchReport struct {
	RunID  string `json:"run_id"`
	Window Window `json:"window"`

	Summary     *DatasetSummary   `json:"summary,omitempty"`
	Activity    *ActivityReport   `json:"activity,omitempty"`
	Classifiers *ClassifierReport `json:"classifiers,omitempty"`
	Bursts      *BurstReport      `json:"bursts,omitempty"`

	Errors []AnalysisError `json:"errors,omitempty"`
}
