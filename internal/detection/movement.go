// Placewatch - Canvas Placement Analytics and Bot Detection
// Copyright 2026 Placewatch contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/placewatch/placewatch

package detection

import (
	"fmt"
	"sync"

	"github.com/goccy/go-json"
)

// LinearMovementClassifier flags users whose placements trace the canvas in
// near-perfect unit steps, the signature of a scripted fill pattern.
type LinearMovementClassifier struct {
	config  LinearMovementConfig
	enabled bool
	mu      sync.RWMutex
}

// NewLinearMovementClassifier creates the classifier with defaults.
func NewLinearMovementClassifier() *LinearMovementClassifier {
	return &LinearMovementClassifier{
		config:  DefaultLinearMovementConfig(),
		enabled: true,
	}
}

// Type returns the rule type.
func (c *LinearMovementClassifier) Type() RuleType {
	return RuleTypeLinearMovement
}

// isUnitStep reports whether the move from a to b is exactly one cell along
// one axis.
func isUnitStep(dx, dy int32) bool {
	if dy == 0 {
		return dx == 1 || dx == -1
	}
	if dx == 0 {
		return dy == 1 || dy == -1
	}
	return false
}

// Evaluate reports whether the unit-step share of the user's moves
// strictly exceeds the threshold. The share is taken over moves, not
// events; the first placement has no predecessor and contributes nothing.
func (c *LinearMovementClassifier) Evaluate(activity *UserActivity) bool {
	c.mu.RLock()
	config := c.config
	c.mu.RUnlock()

	events := activity.Events
	if len(events) < 2 {
		return false
	}

	linear := 0
	for i := 1; i < len(events); i++ {
		if isUnitStep(events[i].X-events[i-1].X, events[i].Y-events[i-1].Y) {
			linear++
		}
	}

	return float64(linear)/float64(len(events)-1) > config.MinFraction
}

// Configure updates the classifier configuration.
func (c *LinearMovementClassifier) Configure(config json.RawMessage) error {
	var newConfig LinearMovementConfig
	if err := json.Unmarshal(config, &newConfig); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	if newConfig.MinFraction <= 0 || newConfig.MinFraction >= 1 {
		return fmt.Errorf("min_fraction must be in (0, 1)")
	}

	c.mu.Lock()
	c.config = newConfig
	c.mu.Unlock()

	return nil
}

// Enabled returns whether this classifier is enabled.
func (c *LinearMovementClassifier) Enabled() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.enabled
}

// SetEnabled enables or disables the classifier.
func (c *LinearMovementClassifier) SetEnabled(enabled bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.enabled = enabled
}
