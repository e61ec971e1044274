// Placewatch - Canvas Placement Analytics and Bot Detection
// Copyright 2026 Placewatch contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/placewatch/placewatch

package config

import (
	"fmt"
	"strings"
	"time"
)

// eventStartLayout is the layout of the canvas.event_start setting.
const eventStartLayout = "2006-01-02 15:04:05"

// Config is the root configuration for a Placewatch batch run.
type Config struct {
	Database DatabaseConfig `koanf:"database"`
	Canvas   CanvasConfig   `koanf:"canvas"`
	Analysis AnalysisConfig `koanf:"analysis"`
	Logging  LoggingConfig  `koanf:"logging"`
}

// DatabaseConfig configures the DuckDB-backed event store.
type DatabaseConfig struct {
	// Path is the preprocessed Parquet dataset exposed through the
	// placements view.
	Path string `koanf:"path"`

	// MaxMemory is the DuckDB memory limit (e.g. "2GB").
	MaxMemory string `koanf:"max_memory"`

	// Threads is the DuckDB thread count; 0 means runtime.NumCPU().
	Threads int `koanf:"threads"`
}

// CanvasConfig describes the canvas the dataset was recorded on.
type CanvasConfig struct {
	Width  int32 `koanf:"width"`
	Height int32 `koanf:"height"`

	// EventStart is the epoch all seconds_since_start values are relative
	// to, formatted "2006-01-02 15:04:05" in UTC.
	EventStart string `koanf:"event_start"`
}

// EventEpoch parses EventStart.
func (c CanvasConfig) EventEpoch() (time.Time, error) {
	t, err := time.ParseInLocation(eventStartLayout, c.EventStart, time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid canvas.event_start %q: %w", c.EventStart, err)
	}
	return t, nil
}

// AnalysisConfig carries the behavioral thresholds. Defaults match the
// values the dataset was originally studied with.
type AnalysisConfig struct {
	// SessionGapSeconds ends a session when the gap between consecutive
	// placements strictly exceeds it.
	SessionGapSeconds int64 `koanf:"session_gap_seconds"`

	// AttackGapSeconds ends a burst when the gap between consecutive
	// attack-seconds in one zone strictly exceeds it.
	AttackGapSeconds int64 `koanf:"attack_gap_seconds"`

	// DensityThreshold is the per-zone-per-second placement count a
	// second must strictly exceed to qualify as an attack-second.
	DensityThreshold int64 `koanf:"density_threshold"`

	// ZonePercentile thresholds the heatmap: cells strictly above the
	// distribution value at this percentile are hot.
	ZonePercentile float64 `koanf:"zone_percentile"`

	// MinActivity excludes users with this many placements or fewer from
	// every behavioral classifier.
	MinActivity int `koanf:"min_activity"`

	// TopBursts caps the ranked burst list in the report.
	TopBursts int `koanf:"top_bursts"`

	// FlaggedUserLimit caps per-rule user ID lists in the classifier
	// report; 0 means no cap.
	FlaggedUserLimit int `koanf:"flagged_user_limit"`
}

// LoggingConfig configures the zerolog output.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
	Caller bool   `koanf:"caller"`
}

// Default returns a Config with all default values applied.
func Default() *Config {
	return &Config{
		Database: DatabaseConfig{
			Path:      "/data/placements.parquet",
			MaxMemory: "2GB",
			Threads:   0, // 0 = use runtime.NumCPU()
		},
		Canvas: CanvasConfig{
			Width:      2000,
			Height:     2000,
			EventStart: "2022-04-01 12:44:10",
		},
		Analysis: AnalysisConfig{
			SessionGapSeconds: 900,
			AttackGapSeconds:  150,
			DensityThreshold:  50,
			ZonePercentile:    0.97,
			MinActivity:       10,
			TopBursts:         10,
			FlaggedUserLimit:  0,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Caller: false,
		},
	}
}

// Validate checks that required configuration is present and valid.
func (c *Config) Validate() error {
	if err := c.validateDatabase(); err != nil {
		return err
	}
	if err := c.validateCanvas(); err != nil {
		return err
	}
	if err := c.validateAnalysis(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validateDatabase() error {
	if c.Database.Path == "" {
		return fmt.Errorf("database.path is required")
	}
	return nil
}

func (c *Config) validateCanvas() error {
	if c.Canvas.Width <= 0 || c.Canvas.Height <= 0 {
		return fmt.Errorf("canvas dimensions must be positive, got %dx%d", c.Canvas.Width, c.Canvas.Height)
	}
	if _, err := c.Canvas.EventEpoch(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateAnalysis() error {
	a := c.Analysis
	if a.SessionGapSeconds <= 0 {
		return fmt.Errorf("analysis.session_gap_seconds must be positive, got %d", a.SessionGapSeconds)
	}
	if a.AttackGapSeconds <= 0 {
		return fmt.Errorf("analysis.attack_gap_seconds must be positive, got %d", a.AttackGapSeconds)
	}
	if a.DensityThreshold < 0 {
		return fmt.Errorf("analysis.density_threshold must be non-negative, got %d", a.DensityThreshold)
	}
	if a.ZonePercentile <= 0 || a.ZonePercentile >= 1 {
		return fmt.Errorf("analysis.zone_percentile must be in (0, 1), got %v", a.ZonePercentile)
	}
	if a.MinActivity < 0 {
		return fmt.Errorf("analysis.min_activity must be non-negative, got %d", a.MinActivity)
	}
	if a.TopBursts <= 0 {
		return fmt.Errorf("analysis.top_bursts must be positive, got %d", a.TopBursts)
	}
	if a.FlaggedUserLimit < 0 {
		return fmt.Errorf("analysis.flagged_user_limit must be non-negative, got %d", a.FlaggedUserLimit)
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch strings.ToLower(c.Logging.Level) {
	case "", "trace", "debug", "info", "warn", "warning", "error", "fatal", "disabled":
	default:
		return fmt.Errorf("logging.level %q is not a valid level", c.Logging.Level)
	}
	switch strings.ToLower(c.Logging.Format) {
	case "", "json", "console":
	default:
		return fmt.Errorf("logging.format %q must be json or console", c.Logging.Format)
	}
	return nil
}
