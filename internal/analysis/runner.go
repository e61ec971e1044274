// Placewatch - Canvas Placement Analytics and Bot Detection
// Copyright 2026 Placewatch contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/placewatch/placewatch

// Package analysis orchestrates batch runs. Each analysis is isolated:
// a failure or panic in one is recorded as a run error while the sibling
// analyses complete normally.
package analysis

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/placewatch/placewatch/internal/burst"
	"github.com/placewatch/placewatch/internal/config"
	"github.com/placewatch/placewatch/internal/detection"
	"github.com/placewatch/placewatch/internal/logging"
	"github.com/placewatch/placewatch/internal/metrics"
	"github.com/placewatch/placewatch/internal/models"
	"github.com/placewatch/placewatch/internal/sessions"
	"github.com/placewatch/placewatch/internal/store"
)

// Options selects which analyses a run executes.
type Options struct {
	Summary     bool
	Activity    bool
	Classifiers bool
	Bursts      bool
}

// All enables every analysis.
func All() Options {
	return Options{Summary: true, Activity: true, Classifiers: true, Bursts: true}
}

// Runner executes batch analysis runs over one placement store.
type Runner struct {
	store    *store.Store
	cfg      *config.Config
	activity *sessions.Analyzer
	engine   *detection.Engine
	bursts   *burst.Detector
}

// New wires a Runner and its analyses over the given store.
func New(s *store.Store, cfg *config.Config) *Runner {
	return &Runner{
		store:    s,
		cfg:      cfg,
		activity: sessions.NewAnalyzer(s, &cfg.Analysis),
		engine:   detection.NewEngine(s, &cfg.Analysis),
		bursts:   burst.NewDetector(s, &cfg.Canvas, &cfg.Analysis),
	}
}

// Engine exposes the classifier engine for per-rule configuration before
// a run.
func (r *Runner) Engine() *detection.Engine {
	return r.engine
}

// Run executes the selected analyses concurrently and returns the batch
// report. The store is read-only, so analyses never contend on data; a
// panic or error in one analysis is collected into the report's Errors
// and never propagates to its siblings.
func (r *Runner) Run(ctx context.Context, w models.Window, opts Options) (*models.BatchReport, error) {
	if err := w.Validate(); err != nil {
		return nil, fmt.Errorf("invalid analysis window: %w", err)
	}

	start := time.Now()
	report := &models.BatchReport{
		RunID:  uuid.NewString(),
		Window: w,
	}

	logger := logging.Logger().With().
		Str("run_id", report.RunID).
		Int64("window_start", w.StartSec).
		Int64("window_end", w.EndSec).
		Logger()
	logger.Info().Msg("batch run started")

	var (
		wg sync.WaitGroup
		mu sync.Mutex
	)
	fail := func(name string, err error) {
		metrics.AnalysisErrors.WithLabelValues(name).Inc()
		logger.Error().Err(err).Str("analysis", name).Msg("analysis failed")
		mu.Lock()
		report.Errors = append(report.Errors, models.AnalysisError{
			Analysis: name,
			Message:  err.Error(),
		})
		mu.Unlock()
	}
	run := func(name string, fn func(context.Context) error) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			defer func() {
				if rec := recover(); rec != nil {
					fail(name, fmt.Errorf("panic: %v", rec))
				}
			}()
			if err := fn(ctx); err != nil {
				fail(name, err)
			}
		}()
	}

	if opts.Summary {
		run("summary", func(ctx context.Context) error {
			summary, err := r.store.Summary(ctx)
			if err != nil {
				return err
			}
			mu.Lock()
			report.Summary = summary
			mu.Unlock()
			return nil
		})
	}
	if opts.Activity {
		run("activity", func(ctx context.Context) error {
			activity, err := r.activity.Report(ctx, w)
			if err != nil {
				return err
			}
			mu.Lock()
			report.Activity = activity
			mu.Unlock()
			return nil
		})
	}
	if opts.Classifiers {
		run("classifiers", func(ctx context.Context) error {
			classifiers, err := r.engine.Report(ctx, w)
			if err != nil {
				return err
			}
			mu.Lock()
			report.Classifiers = classifiers
			mu.Unlock()
			return nil
		})
	}
	if opts.Bursts {
		run("bursts", func(ctx context.Context) error {
			bursts, err := r.bursts.Report(ctx, w)
			if err != nil {
				return err
			}
			mu.Lock()
			report.Bursts = bursts
			mu.Unlock()
			return nil
		})
	}

	wg.Wait()

	logger.Info().
		Dur("elapsed", time.Since(start)).
		Int("errors", len(report.Errors)).
		Msg("batch run finished")
	return report, nil
}
