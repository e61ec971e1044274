// Placewatch - Canvas Placement Analytics and Bot Detection
// Copyright 2026 Placewatch contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/placewatch/placewatch

package models

import "fmt"

// Event is one pixel placement from the preprocessed canvas history.
// Events are immutable; the store yields them grouped by user and ordered
// by time within each user.
type Event struct {
	// UserID is the dense integer assigned to the original user hash.
	UserID int64 `json:"user_id"`

	// T is seconds since the event epoch (canvas opening). The preprocessor
	// can emit negative values for rows timestamped before the epoch, but
	// analyses assume non-negative input.
	T int64 `json:"t"`

	X int32 `json:"x"`
	Y int32 `json:"y"`

	// Color is the palette color name (e.g. "dark red", "white").
	Color string `json:"color"`
}

// Cell is one canvas coordinate.
type Cell struct {
	X int32 `json:"x"`
	Y int32 `json:"y"`
}

// CellCount is a heatmap entry: total placements observed at one cell.
type CellCount struct {
	Cell
	Count int64 `json:"count"`
}

// Window restricts an analysis to the half-open interval
// [StartSec, EndSec) of seconds since the event epoch.
// The zero Window means "no window" (full dataset).
type Window struct {
	StartSec int64 `json:"start_sec"`
	EndSec   int64 `json:"end_sec"`
}

// IsZero reports whether the window is unbounded.
func (w Window) IsZero() bool {
	return w.StartSec == 0 && w.EndSec == 0
}

// Validate rejects malformed windows before any computation begins.
func (w Window) Validate() error {
	if w.IsZero() {
		return nil
	}
	if w.StartSec < 0 {
		return fmt.Errorf("window start %d is before the event epoch", w.StartSec)
	}
	if w.EndSec < w.StartSec {
		return fmt.Errorf("window end %d is before window start %d", w.EndSec, w.StartSec)
	}
	return nil
}

// Contains reports whether second t falls inside the window.
func (w Window) Contains(t int64) bool {
	if w.IsZero() {
		return true
	}
	return t >= w.StartSec && t < w.EndSec
}
