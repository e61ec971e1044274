// Placewatch - Canvas Placement Analytics and Bot Detection
// Copyright 2026 Placewatch contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/placewatch/placewatch

package detection

import (
	"fmt"
	"math"
	"sync"

	"github.com/goccy/go-json"
)

// TimingRegularityClassifier flags users whose consecutive placement
// deltas have near-zero spread. Humans drift; schedulers do not.
type TimingRegularityClassifier struct {
	config  TimingRegularityConfig
	enabled bool
	mu      sync.RWMutex
}

// NewTimingRegularityClassifier creates the classifier with defaults.
func NewTimingRegularityClassifier() *TimingRegularityClassifier {
	return &TimingRegularityClassifier{
		config:  DefaultTimingRegularityConfig(),
		enabled: true,
	}
}

// Type returns the rule type.
func (c *TimingRegularityClassifier) Type() RuleType {
	return RuleTypeTimingRegularity
}

// Evaluate reports whether the population standard deviation of the user's
// consecutive placement deltas is strictly below the threshold. A user with
// exactly one delta has deviation 0 and is flagged; a user with no deltas
// is not.
func (c *TimingRegularityClassifier) Evaluate(activity *UserActivity) bool {
	c.mu.RLock()
	config := c.config
	c.mu.RUnlock()

	events := activity.Events
	if len(events) < 2 {
		return false
	}

	n := len(events) - 1
	var sum float64
	deltas := make([]float64, n)
	for i := 1; i < len(events); i++ {
		d := float64(events[i].T - events[i-1].T)
		deltas[i-1] = d
		sum += d
	}

	mean := sum / float64(n)
	var variance float64
	for _, d := range deltas {
		variance += (d - mean) * (d - mean)
	}
	variance /= float64(n)

	return math.Sqrt(variance) < config.MaxStdDev
}

// Configure updates the classifier configuration.
func (c *TimingRegularityClassifier) Configure(config json.RawMessage) error {
	var newConfig TimingRegularityConfig
	if err := json.Unmarshal(config, &newConfig); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	if newConfig.MaxStdDev <= 0 {
		return fmt.Errorf("max_std_dev must be positive")
	}

	c.mu.Lock()
	c.config = newConfig
	c.mu.Unlock()

	return nil
}

// Enabled returns whether this classifier is enabled.
func (c *TimingRegularityClassifier) Enabled() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.enabled
}

// SetEnabled enables or disables the classifier.
func (c *TimingRegularityClassifier) SetEnabled(enabled bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.enabled = enabled
}
