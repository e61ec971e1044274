// Placewatch - Canvas Placement Analytics and Bot Detection
// Copyright 2026 Placewatch contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/placewatch/placewatch

package detection

import (
	"fmt"
	"sort"
	"sync"

	"github.com/goccy/go-json"
)

// UptimeStreakClassifier flags users with activity in an implausibly long
// run of consecutive hours.
type UptimeStreakClassifier struct {
	config  UptimeStreakConfig
	enabled bool
	mu      sync.RWMutex
}

// NewUptimeStreakClassifier creates the classifier with defaults.
func NewUptimeStreakClassifier() *UptimeStreakClassifier {
	return &UptimeStreakClassifier{
		config:  DefaultUptimeStreakConfig(),
		enabled: true,
	}
}

// Type returns the rule type.
func (c *UptimeStreakClassifier) Type() RuleType {
	return RuleTypeUptimeStreak
}

// Evaluate buckets the user's placements into hours since the event start
// and reports whether any run of consecutive hour buckets reaches the
// threshold. One placement per hour is enough to extend a streak.
func (c *UptimeStreakClassifier) Evaluate(activity *UserActivity) bool {
	c.mu.RLock()
	config := c.config
	c.mu.RUnlock()

	if len(activity.Events) == 0 {
		return false
	}

	seen := make(map[int64]struct{})
	for _, ev := range activity.Events {
		seen[ev.T/3600] = struct{}{}
	}

	hours := make([]int64, 0, len(seen))
	for h := range seen {
		hours = append(hours, h)
	}
	sort.Slice(hours, func(i, j int) bool { return hours[i] < hours[j] })

	streak := 1
	for i := 1; i < len(hours); i++ {
		if hours[i] == hours[i-1]+1 {
			streak++
			if streak >= config.MinHours {
				return true
			}
			continue
		}
		streak = 1
	}
	return streak >= config.MinHours
}

// Configure updates the classifier configuration.
func (c *UptimeStreakClassifier) Configure(config json.RawMessage) error {
	var newConfig UptimeStreakConfig
	if err := json.Unmarshal(config, &newConfig); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	if newConfig.MinHours <= 0 {
		return fmt.Errorf("min_hours must be positive")
	}

	c.mu.Lock()
	c.config = newConfig
	c.mu.Unlock()

	return nil
}

// Enabled returns whether this classifier is enabled.
func (c *UptimeStreakClassifier) Enabled() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.enabled
}

// SetEnabled enables or disables the classifier.
func (c *UptimeStreakClassifier) SetEnabled(enabled bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.enabled = enabled
}
