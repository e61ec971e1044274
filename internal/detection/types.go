// Placewatch - Canvas Placement Analytics and Bot Detection
// Copyright 2026 Placewatch contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/placewatch/placewatch

package detection

import (
	"github.com/goccy/go-json"

	"github.com/placewatch/placewatch/internal/models"
)

// RuleType identifies a behavioral classification rule.
type RuleType string

const (
	// RuleTypeTimingRegularity flags users whose inter-placement delays
	// are too regular for a human.
	RuleTypeTimingRegularity RuleType = "timing_regularity"

	// RuleTypeUptimeStreak flags users active in too many consecutive
	// hours to plausibly be awake that long.
	RuleTypeUptimeStreak RuleType = "uptime_streak"

	// RuleTypeLinearMovement flags users whose placements walk the canvas
	// in near-perfect unit steps.
	RuleTypeLinearMovement RuleType = "linear_movement"

	// RuleTypeSpatialContainment flags users confined to a tiny bounding
	// box for their entire activity.
	RuleTypeSpatialContainment RuleType = "spatial_containment"

	// RuleTypeColorMonotony flags users who only ever place one color.
	RuleTypeColorMonotony RuleType = "color_monotony"
)

// UserActivity is one user's event history within the analysis window,
// ordered ascending by placement time. Classifiers must not mutate it.
type UserActivity struct {
	UserID int64
	Events []models.Event
}

// Classifier evaluates one behavioral rule against a user's activity.
// Evaluate must be a pure function of the activity and the classifier's
// configuration; the engine calls it from multiple goroutines.
type Classifier interface {
	// Type returns the rule this classifier implements.
	Type() RuleType

	// Evaluate reports whether the user's activity matches the rule.
	Evaluate(activity *UserActivity) bool

	// Configure replaces the classifier configuration.
	Configure(config json.RawMessage) error

	// Enabled returns whether this classifier participates in runs.
	Enabled() bool

	// SetEnabled enables or disables the classifier.
	SetEnabled(enabled bool)
}

// TimingRegularityConfig configures the timing regularity classifier.
type TimingRegularityConfig struct {
	// MaxStdDev is the population standard deviation of consecutive
	// placement deltas below which a user is flagged (strictly less).
	MaxStdDev float64 `json:"max_std_dev"`
}

// DefaultTimingRegularityConfig returns the stock threshold.
func DefaultTimingRegularityConfig() TimingRegularityConfig {
	return TimingRegularityConfig{MaxStdDev: 1.0}
}

// UptimeStreakConfig configures the uptime streak classifier.
type UptimeStreakConfig struct {
	// MinHours is the consecutive-hour streak length at which a user is
	// flagged (streak >= MinHours).
	MinHours int `json:"min_hours"`
}

// DefaultUptimeStreakConfig returns the stock threshold.
func DefaultUptimeStreakConfig() UptimeStreakConfig {
	return UptimeStreakConfig{MinHours: 24}
}

// LinearMovementConfig configures the linear movement classifier.
type LinearMovementConfig struct {
	// MinFraction is the share of a user's moves that must be unit steps
	// for the user to be flagged (strictly greater).
	MinFraction float64 `json:"min_fraction"`
}

// DefaultLinearMovementConfig returns the stock threshold.
func DefaultLinearMovementConfig() LinearMovementConfig {
	return LinearMovementConfig{MinFraction: 0.95}
}

// SpatialContainmentConfig configures the spatial containment classifier.
type SpatialContainmentConfig struct {
	// MaxExtent is the largest bounding-box side (max - min, per axis)
	// still considered contained.
	MaxExtent int32 `json:"max_extent"`
}

// DefaultSpatialContainmentConfig returns the stock threshold.
func DefaultSpatialContainmentConfig() SpatialContainmentConfig {
	return SpatialContainmentConfig{MaxExtent: 3}
}

// ColorMonotonyConfig configures the color monotony classifier.
type ColorMonotonyConfig struct {
	// MaxColors is the distinct color count at or below which a user is
	// flagged.
	MaxColors int `json:"max_colors"`
}

// DefaultColorMonotonyConfig returns the stock threshold.
func DefaultColorMonotonyConfig() ColorMonotonyConfig {
	return ColorMonotonyConfig{MaxColors: 1}
}
