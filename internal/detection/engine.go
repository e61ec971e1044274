// Placewatch - Canvas Placement Analytics and Bot Detection
// Copyright 2026 Placewatch contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/placewatch/placewatch

package detection

import (
	"context"
	"fmt"
	"runtime"
	"sort"
	"sync"
	"time"

	"github.com/placewatch/placewatch/internal/config"
	"github.com/placewatch/placewatch/internal/logging"
	"github.com/placewatch/placewatch/internal/metrics"
	"github.com/placewatch/placewatch/internal/models"
	"github.com/placewatch/placewatch/internal/store"
)

// Engine streams per-user activity out of the store and evaluates every
// enabled classifier against each eligible user. Rules are independent;
// one user can be flagged by several.
type Engine struct {
	store *store.Store
	cfg   *config.AnalysisConfig

	mu          sync.RWMutex
	classifiers []Classifier
	workers     int
}

// NewEngine creates an engine with the five stock classifiers registered.
func NewEngine(s *store.Store, cfg *config.AnalysisConfig) *Engine {
	e := &Engine{
		store:   s,
		cfg:     cfg,
		workers: runtime.NumCPU(),
	}
	e.Register(NewTimingRegularityClassifier())
	e.Register(NewUptimeStreakClassifier())
	e.Register(NewLinearMovementClassifier())
	e.Register(NewSpatialContainmentClassifier())
	e.Register(NewColorMonotonyClassifier())
	return e
}

// Register adds a classifier. Report order follows registration order.
func (e *Engine) Register(c Classifier) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.classifiers = append(e.classifiers, c)
	logging.Debug().Str("rule", string(c.Type())).Msg("registered classifier")
}

// Classifier returns the registered classifier for a rule, or nil.
func (e *Engine) Classifier(rule RuleType) Classifier {
	e.mu.RLock()
	defer e.mu.RUnlock()
	for _, c := range e.classifiers {
		if c.Type() == rule {
			return c
		}
	}
	return nil
}

func (e *Engine) enabledClassifiers() []Classifier {
	e.mu.RLock()
	defer e.mu.RUnlock()
	var out []Classifier
	for _, c := range e.classifiers {
		if c.Enabled() {
			out = append(out, c)
		}
	}
	return out
}

// Report evaluates every enabled classifier against every user whose
// placement count in the window strictly exceeds the minimum-activity
// threshold. Flagged user lists are sorted ascending, so the report is
// deterministic regardless of worker scheduling.
func (e *Engine) Report(ctx context.Context, w models.Window) (*models.ClassifierReport, error) {
	start := time.Now()
	defer metrics.ObserveAnalysis("classifiers", start)

	classifiers := e.enabledClassifiers()
	report := &models.ClassifierReport{
		Window:      w,
		MinActivity: e.cfg.MinActivity,
	}
	if len(classifiers) == 0 {
		report.ExecutionMs = time.Since(start).Milliseconds()
		return report, nil
	}

	type shard struct {
		flagged map[RuleType][]int64
	}

	activities := make(chan *UserActivity, e.workers*2)
	shards := make([]shard, e.workers)

	var wg sync.WaitGroup
	for i := 0; i < e.workers; i++ {
		shards[i].flagged = make(map[RuleType][]int64)
		wg.Add(1)
		go func(s *shard) {
			defer wg.Done()
			for activity := range activities {
				for _, c := range classifiers {
					if c.Evaluate(activity) {
						s.flagged[c.Type()] = append(s.flagged[c.Type()], activity.UserID)
					}
				}
			}
		}(&shards[i])
	}

	var (
		eligible int64
		scanned  int64
	)
	scanErr := e.store.ScanUserEvents(ctx, w, func(userID int64, events []models.Event) error {
		scanned += int64(len(events))
		if len(events) <= e.cfg.MinActivity {
			return nil
		}
		eligible++

		// The scan reuses its batch slice; hand workers a copy.
		copied := make([]models.Event, len(events))
		copy(copied, events)

		select {
		case activities <- &UserActivity{UserID: userID, Events: copied}:
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	})
	close(activities)
	wg.Wait()

	if scanErr != nil {
		return nil, fmt.Errorf("scanning user activity: %w", scanErr)
	}
	metrics.EventsScanned.WithLabelValues("classifiers").Add(float64(scanned))

	report.EligibleUsers = eligible
	for _, c := range classifiers {
		rule := c.Type()
		var users []int64
		for i := range shards {
			users = append(users, shards[i].flagged[rule]...)
		}
		sort.Slice(users, func(i, j int) bool { return users[i] < users[j] })

		metrics.UsersFlagged.WithLabelValues(string(rule)).Add(float64(len(users)))
		logging.Info().
			Str("rule", string(rule)).
			Int("flagged", len(users)).
			Int64("eligible", eligible).
			Msg("classifier rule evaluated")

		count := len(users)
		if limit := e.cfg.FlaggedUserLimit; limit > 0 && count > limit {
			users = users[:limit]
		}
		report.Results = append(report.Results, models.ClassifierResult{
			Rule:    string(rule),
			Count:   count,
			UserIDs: users,
		})
	}

	report.ExecutionMs = time.Since(start).Milliseconds()
	return report, nil
}
