// Placewatch - Canvas Placement Analytics and Bot Detection
// Copyright 2026 Placewatch contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/placewatch/placewatch

// Package models defines the event record, the derived analysis entities
// (sessions, zones, attack-seconds, bursts) and the report types shared by
// the store, the analyses and the batch runner.
//
// All derived entities are computed fresh per analysis run from the
// immutable event store and discarded once the run's report is emitted;
// nothing in this package is persisted.
package models
