// Placewatch - Canvas Placement Analytics and Bot Detection
// Copyright 2026 Placewatch contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/placewatch/placewatch

// Package main is the entry point for the placewatch batch analyzer.
//
// Placewatch analyzes a canvas placement log (an r/place-style dataset in
// Parquet format) for bot and coordination signals. One invocation runs a
// batch of analyses over an optional time window and prints a report:
//
//  1. Configuration: defaults, config.yaml, then environment (Koanf v2)
//  2. Store: DuckDB view over the Parquet placement log
//  3. Analyses: dataset summary, activity report, behavioral classifiers,
//     coordinated burst detection
//
// # Configuration
//
// Configuration is loaded via Koanf v2 with layered sources (highest
// priority wins):
//   - Environment variables (DUCKDB_PATH, LOG_LEVEL, ...)
//   - Config file (config.yaml, or CONFIG_PATH)
//   - Built-in defaults
//
// # Windows
//
// The analysis window can be given in seconds since the event start
// (-from-sec/-to-sec) or as UTC wall-clock hours (-from/-to in the form
// "2006-01-02 15:04:05"), which are converted against the configured
// event epoch. Windows are half-open: the end instant is excluded.
//
// # Example Usage
//
//	export DUCKDB_PATH=/data/placements.parquet
//	placewatch -from-sec 0 -to-sec 86400
//	placewatch -from "2022-04-01 13:00:00" -to "2022-04-01 14:00:00" -format json
//	placewatch -analyses classifiers,bursts
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"github.com/placewatch/placewatch/internal/analysis"
	"github.com/placewatch/placewatch/internal/config"
	"github.com/placewatch/placewatch/internal/logging"
	"github.com/placewatch/placewatch/internal/models"
	"github.com/placewatch/placewatch/internal/store"
)

// wallTimeLayout is the accepted -from/-to format, interpreted as UTC.
const wallTimeLayout = "2006-01-02 15:04:05"

func main() {
	var (
		configPath = flag.String("config", "", "path to config.yaml (overrides CONFIG_PATH)")
		fromSec    = flag.Int64("from-sec", -1, "window start in seconds since event start (inclusive)")
		toSec      = flag.Int64("to-sec", -1, "window end in seconds since event start (exclusive)")
		from       = flag.String("from", "", `window start as UTC wall time "2006-01-02 15:04:05"`)
		to         = flag.String("to", "", `window end as UTC wall time (exclusive)`)
		format     = flag.String("format", "text", "output format: text or json")
		analyses   = flag.String("analyses", "all", "comma-separated subset of summary,activity,classifiers,bursts")
	)
	flag.Parse()

	cfg, err := load(*configPath)
	if err != nil {
		logging.Fatal().Err(err).Msg("failed to load configuration")
	}

	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Caller: cfg.Logging.Caller,
	})

	window, err := parseWindow(cfg, *fromSec, *toSec, *from, *to)
	if err != nil {
		logging.Fatal().Err(err).Msg("invalid analysis window")
	}

	opts, err := parseAnalyses(*analyses)
	if err != nil {
		logging.Fatal().Err(err).Msg("invalid -analyses selection")
	}

	if *format != "text" && *format != "json" {
		logging.Fatal().Str("format", *format).Msg("unknown output format")
	}

	logging.Info().
		Str("parquet", cfg.Database.Path).
		Int64("window_start", window.StartSec).
		Int64("window_end", window.EndSec).
		Msg("starting placewatch")

	s, err := store.Open(&cfg.Database)
	if err != nil {
		logging.Fatal().Err(err).Msg("failed to open placement store")
	}
	defer func() {
		if err := s.Close(); err != nil {
			logging.Error().Err(err).Msg("error closing placement store")
		}
	}()

	ctx := context.Background()
	if err := s.Ping(ctx); err != nil {
		logging.Fatal().Err(err).Msg("placement store is not readable")
	}

	runner := analysis.New(s, cfg)
	report, err := runner.Run(ctx, window, opts)
	if err != nil {
		logging.Fatal().Err(err).Msg("batch run failed")
	}

	if *format == "json" {
		out, err := json.MarshalIndent(report, "", "  ")
		if err != nil {
			logging.Fatal().Err(err).Msg("failed to encode report")
		}
		fmt.Println(string(out))
	} else {
		renderText(os.Stdout, cfg, report)
	}

	if len(report.Errors) > 0 {
		os.Exit(1)
	}
}

func load(configPath string) (*config.Config, error) {
	if configPath != "" {
		return config.LoadFile(configPath)
	}
	return config.Load()
}

// parseWindow resolves the window flags. Second-offset flags and wall-time
// flags are exclusive; wall times are converted against the event epoch.
func parseWindow(cfg *config.Config, fromSec, toSec int64, from, to string) (models.Window, error) {
	haveSec := fromSec >= 0 || toSec >= 0
	haveWall := from != "" || to != ""
	if haveSec && haveWall {
		return models.Window{}, fmt.Errorf("use either -from-sec/-to-sec or -from/-to, not both")
	}

	if haveWall {
		epoch, err := cfg.Canvas.EventEpoch()
		if err != nil {
			return models.Window{}, fmt.Errorf("resolving event epoch: %w", err)
		}
		var w models.Window
		if from != "" {
			t, err := time.ParseInLocation(wallTimeLayout, from, time.UTC)
			if err != nil {
				return models.Window{}, fmt.Errorf("parsing -from: %w", err)
			}
			w.StartSec = int64(t.Sub(epoch).Seconds())
		}
		if to != "" {
			t, err := time.ParseInLocation(wallTimeLayout, to, time.UTC)
			if err != nil {
				return models.Window{}, fmt.Errorf("parsing -to: %w", err)
			}
			w.EndSec = int64(t.Sub(epoch).Seconds())
		} else if from != "" {
			return models.Window{}, fmt.Errorf("-from requires -to")
		}
		return w, w.Validate()
	}

	if fromSec >= 0 || toSec >= 0 {
		if fromSec < 0 || toSec < 0 {
			return models.Window{}, fmt.Errorf("-from-sec and -to-sec must be given together")
		}
		w := models.Window{StartSec: fromSec, EndSec: toSec}
		return w, w.Validate()
	}

	return models.Window{}, nil
}

func parseAnalyses(list string) (analysis.Options, error) {
	if list == "" || list == "all" {
		return analysis.All(), nil
	}

	var opts analysis.Options
	for _, name := range strings.Split(list, ",") {
		switch strings.TrimSpace(name) {
		case "summary":
			opts.Summary = true
		case "activity":
			opts.Activity = true
		case "classifiers":
			opts.Classifiers = true
		case "bursts":
			opts.Bursts = true
		default:
			return opts, fmt.Errorf("unknown analysis %q", name)
		}
	}
	return opts, nil
}
