// Placewatch - Canvas Placement Analytics and Bot Detection
// Copyright 2026 Placewatch contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/placewatch/placewatch

// Package sessions derives per-user placement sessions from the event log
// and builds the windowed activity report on top of them.
//
// A session is a maximal run of one user's placements where no two
// consecutive placements are more than the session gap apart. Sessions of
// a single placement carry no duration information and are excluded from
// duration statistics.
package sessions

import (
	"context"
	"fmt"
	"time"

	"github.com/placewatch/placewatch/internal/cluster"
	"github.com/placewatch/placewatch/internal/config"
	"github.com/placewatch/placewatch/internal/metrics"
	"github.com/placewatch/placewatch/internal/models"
	"github.com/placewatch/placewatch/internal/store"
)

// activityQuantiles are the per-user pixel-count quantiles reported by the
// activity analysis.
var activityQuantiles = []float64{0.5, 0.75, 0.9, 0.99}

// topColorLimit bounds the color popularity ranking.
const topColorLimit = 3

// Sessionize splits events into gap-clustered sessions. Events may span
// multiple users and arrive in any order; the result is ordered by
// (user, first placement) with session ids starting at 0 within each user.
func Sessionize(events []models.Event, gapSeconds int64) []models.Session {
	if len(events) == 0 {
		return nil
	}

	key := func(e models.Event) int64 { return e.UserID }
	at := func(e models.Event) int64 { return e.T }

	cluster.Sort(events, key, at)
	ids := cluster.AssignFunc(events, key, at, gapSeconds)
	runs := cluster.Runs(events, ids, key, at)

	sessions := make([]models.Session, len(runs))
	for i, r := range runs {
		sessions[i] = models.Session{
			UserID:     r.Key,
			SessionID:  r.Cluster,
			StartT:     r.Start,
			EndT:       r.End,
			PixelCount: r.Count,
		}
	}
	return sessions
}

// Stats returns the mean duration across multi-pixel sessions and the
// number of sessions that contributed. Single-pixel sessions are excluded;
// when none survive the filter the mean is 0.
func Stats(sessions []models.Session) (mean float64, count int64) {
	var sum int64
	for _, s := range sessions {
		if s.PixelCount <= 1 {
			continue
		}
		sum += s.Duration()
		count++
	}
	if count == 0 {
		return 0, 0
	}
	return float64(sum) / float64(count), count
}

// Analyzer builds activity reports from the placement store.
type Analyzer struct {
	store *store.Store
	cfg   *config.AnalysisConfig
}

// NewAnalyzer wires an Analyzer over the given store.
func NewAnalyzer(s *store.Store, cfg *config.AnalysisConfig) *Analyzer {
	return &Analyzer{store: s, cfg: cfg}
}

// Report computes the windowed activity report: top colors by distinct
// users, mean multi-pixel session duration, per-user pixel-count quantiles
// and first-time user count. Events outside the window are invisible, so
// a session spanning the window edge is truncated to its in-window part.
func (a *Analyzer) Report(ctx context.Context, w models.Window) (*models.ActivityReport, error) {
	start := time.Now()
	defer metrics.ObserveAnalysis("activity", start)

	report := &models.ActivityReport{Window: w}

	total, err := a.store.EventCount(ctx, w)
	if err != nil {
		return nil, fmt.Errorf("counting window events: %w", err)
	}
	metrics.EventsScanned.WithLabelValues("activity").Add(float64(total))
	if total == 0 {
		report.Empty = true
		report.ExecutionMs = time.Since(start).Milliseconds()
		return report, nil
	}

	report.TopColors, err = a.store.ColorRanking(ctx, w, topColorLimit)
	if err != nil {
		return nil, fmt.Errorf("ranking colors: %w", err)
	}

	// Sessionize user by user; only the running duration sum is kept.
	var (
		durationSum  int64
		sessionCount int64
	)
	err = a.store.ScanUserEvents(ctx, w, func(userID int64, events []models.Event) error {
		ids := cluster.AssignFunc(events,
			func(e models.Event) int64 { return e.UserID },
			func(e models.Event) int64 { return e.T },
			a.cfg.SessionGapSeconds)
		for _, r := range cluster.Runs(events, ids,
			func(e models.Event) int64 { return e.UserID },
			func(e models.Event) int64 { return e.T }) {
			if r.Count <= 1 {
				continue
			}
			durationSum += r.End - r.Start
			sessionCount++
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("sessionizing window: %w", err)
	}
	report.SessionCount = sessionCount
	if sessionCount > 0 {
		report.MeanSessionSeconds = float64(durationSum) / float64(sessionCount)
	}

	report.PixelCountQuantiles, err = a.store.PixelCountQuantiles(ctx, w, activityQuantiles)
	if err != nil {
		return nil, fmt.Errorf("computing pixel quantiles: %w", err)
	}

	report.FirstTimeUsers, err = a.store.FirstTimeUserCount(ctx, w)
	if err != nil {
		return nil, fmt.Errorf("counting first-time users: %w", err)
	}

	report.ExecutionMs = time.Since(start).Milliseconds()
	return report, nil
}
