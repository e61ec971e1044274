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

// ColorMonotonyClassifier flags users who place only one color across an
// entire high-volume history.
type ColorMonotonyClassifier struct {
	config  ColorMonotonyConfig
	enabled bool
	mu      sync.RWMutex
}

// NewColorMonotonyClassifier creates the classifier with defaults.
func NewColorMonotonyClassifier() *ColorMonotonyClassifier {
	return &ColorMonotonyClassifier{
		config:  DefaultColorMonotonyConfig(),
		enabled: true,
	}
}

// Type returns the rule type.
func (c *ColorMonotonyClassifier) Type() RuleType {
	return RuleTypeColorMonotony
}

// Evaluate reports whether the user placed at most MaxColors distinct
// colors. A user with no placements is never flagged.
func (c *ColorMonotonyClassifier) Evaluate(activity *UserActivity) bool {
	c.mu.RLock()
	config := c.config
	c.mu.RUnlock()

	if len(activity.Events) == 0 {
		return false
	}

	colors := make(map[string]struct{})
	for _, ev := range activity.Events {
		colors[ev.Color] = struct{}{}
		if len(colors) > config.MaxColors {
			return false
		}
	}
	return true
}

// Configure updates the classifier configuration.
func (c *ColorMonotonyClassifier) Configure(config json.RawMessage) error {
	var newConfig ColorMonotonyConfig
	if err := json.Unmarshal(config, &newConfig); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	if newConfig.MaxColors <= 0 {
		return fmt.Errorf("max_colors must be positive")
	}

	c.mu.Lock()
	c.config = newConfig
	c.mu.Unlock()

	return nil
}

// Enabled returns whether this classifier is enabled.
func (c *ColorMonotonyClassifier) Enabled() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.enabled
}

// SetEnabled enables or disables the classifier.
func (c *ColorMonotonyClassifier) SetEnabled(enabled bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.enabled = enabled
}
