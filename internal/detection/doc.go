// Placewatch - Canvas Placement Analytics and Bot Detection
// Copyright 2026 Placewatch contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/placewatch/placewatch

// Package detection implements the behavioral bot classifiers.
//
// Each classifier evaluates one independent rule against a user's full
// activity within the analysis window: timing regularity, uptime streaks,
// linear movement, spatial containment and color monotony. The engine
// streams eligible users out of the placement store, fans them out to a
// worker pool, and reports per-rule flag counts with sorted user lists.
//
// Only users whose placement count strictly exceeds the minimum-activity
// threshold are evaluated; low-volume users carry too little signal to
// classify.
package detection
