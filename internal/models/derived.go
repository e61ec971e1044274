// Placewatch - Canvas Placement Analytics and Bot Detection
// Copyright 2026 Placewatch contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/placewatch/placewatch

package models

import "strconv"

// Session is a maximal run of one user's placements with no inter-event gap
// exceeding the session threshold. Session IDs start at 0 and are unique
// only within a user, never globally.
type Session struct {
	UserID     int64 `json:"user_id"`
	SessionID  int   `json:"session_id"`
	StartT     int64 `json:"start_t"`
	EndT       int64 `json:"end_t"`
	PixelCount int   `json:"pixel_count"`
}

// Duration is the elapsed seconds between the first and last placement of
// the session. A single-placement session has duration 0 and proves no
// elapsed time; duration statistics exclude it.
func (s Session) Duration() int64 {
	return s.EndT - s.StartT
}

// Zone is a maximal 8-connected region of hot canvas cells. Zone IDs are
// assigned by connected-component labeling and are stable only within one
// run over one heatmap.
type Zone struct {
	ID    int    `json:"id"`
	Cells []Cell `json:"cells"`

	MinX int32 `json:"min_x"`
	MaxX int32 `json:"max_x"`
	MinY int32 `json:"min_y"`
	MaxY int32 `json:"max_y"`
}

// Center returns the midpoint of the zone bounding box.
func (z Zone) Center() Cell {
	return Cell{X: (z.MinX + z.MaxX) / 2, Y: (z.MinY + z.MaxY) / 2}
}

// AttackSecond is one second in one zone whose placement density exceeded
// the density threshold.
type AttackSecond struct {
	ZoneID  int   `json:"zone_id"`
	Second  int64 `json:"second"`
	Density int64 `json:"density"`

	// Users is the set of distinct participants during this second.
	Users map[int64]struct{} `json:"-"`
}

// Burst is a maximal run of attack-seconds within one zone where
// consecutive seconds are separated by at most the attack gap. BurstID
// increments per gap exceedance and is scoped to the zone, mirroring
// session semantics.
type Burst struct {
	ZoneID  int `json:"zone_id"`
	BurstID int `json:"burst_id"`

	StartSec      int64 `json:"start_sec"`
	EndSec        int64 `json:"end_sec"`
	ActiveSeconds int   `json:"active_seconds"`

	// TotalPixels is the summed density over the burst's attack-seconds.
	TotalPixels int64 `json:"total_pixels"`

	// UniqueUsers is the size of the participant union across the burst.
	UniqueUsers int `json:"unique_users"`

	// Zone placement context for reporting.
	Center Cell  `json:"center"`
	MinX   int32 `json:"min_x"`
	MaxX   int32 `json:"max_x"`
	MinY   int32 `json:"min_y"`
	MaxY   int32 `json:"max_y"`
}

// DurationSeconds is the elapsed time between the burst's first and last
// attack-second.
func (b Burst) DurationSeconds() int64 {
	return b.EndSec - b.StartSec
}

// EventID combines zone and burst into the identifier used for ranking,
// e.g. "12_0".
func (b Burst) EventID() string {
	return strconv.Itoa(b.ZoneID) + "_" + strconv.Itoa(b.BurstID)
}
