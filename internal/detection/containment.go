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

// SpatialContainmentClassifier flags users whose entire activity fits in a
// tiny bounding box. Sustained high-volume placement inside a few cells is
// turret behavior, not drawing.
type SpatialContainmentClassifier struct {
	config  SpatialContainmentConfig
	enabled bool
	mu      sync.RWMutex
}

// NewSpatialContainmentClassifier creates the classifier with defaults.
func NewSpatialContainmentClassifier() *SpatialContainmentClassifier {
	return &SpatialContainmentClassifier{
		config:  DefaultSpatialContainmentConfig(),
		enabled: true,
	}
}

// Type returns the rule type.
func (c *SpatialContainmentClassifier) Type() RuleType {
	return RuleTypeSpatialContainment
}

// Evaluate reports whether the bounding box of the user's placements spans
// at most MaxExtent cells on both axes.
func (c *SpatialContainmentClassifier) Evaluate(activity *UserActivity) bool {
	c.mu.RLock()
	config := c.config
	c.mu.RUnlock()

	events := activity.Events
	if len(events) == 0 {
		return false
	}

	minX, maxX := events[0].X, events[0].X
	minY, maxY := events[0].Y, events[0].Y
	for _, ev := range events[1:] {
		if ev.X < minX {
			minX = ev.X
		}
		if ev.X > maxX {
			maxX = ev.X
		}
		if ev.Y < minY {
			minY = ev.Y
		}
		if ev.Y > maxY {
			maxY = ev.Y
		}
	}

	return maxX-minX <= config.MaxExtent && maxY-minY <= config.MaxExtent
}

// Configure updates the classifier configuration.
func (c *SpatialContainmentClassifier) Configure(config json.RawMessage) error {
	var newConfig SpatialContainmentConfig
	if err := json.Unmarshal(config, &newConfig); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	if newConfig.MaxExtent < 0 {
		return fmt.Errorf("max_extent must be non-negative")
	}

	c.mu.Lock()
	c.config = newConfig
	c.mu.Unlock()

	return nil
}

// Enabled returns whether this classifier is enabled.
func (c *SpatialContainmentClassifier) Enabled() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.enabled
}

// SetEnabled enables or disables the classifier.
func (c *SpatialContainmentClassifier) SetEnabled(enabled bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.enabled = enabled
}
