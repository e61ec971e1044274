// Placewatch - Canvas Placement Analytics and Bot Detection
// Copyright 2026 Placewatch contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/placewatch/placewatch

// Package burst detects coordinated placement bursts inside hot canvas
// zones. The pipeline thresholds the heatmap into zones, joins events to
// zones, keeps per-zone seconds whose placement density exceeds the
// density threshold, and gap-clusters those attack-seconds into bursts.
package burst

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/placewatch/placewatch/internal/cluster"
	"github.com/placewatch/placewatch/internal/config"
	"github.com/placewatch/placewatch/internal/logging"
	"github.com/placewatch/placewatch/internal/metrics"
	"github.com/placewatch/placewatch/internal/models"
	"github.com/placewatch/placewatch/internal/store"
	"github.com/placewatch/placewatch/internal/zones"
)

// Detector runs the burst detection pipeline over the placement store.
type Detector struct {
	store  *store.Store
	canvas *config.CanvasConfig
	cfg    *config.AnalysisConfig
}

// NewDetector wires a Detector over the given store.
func NewDetector(s *store.Store, canvas *config.CanvasConfig, cfg *config.AnalysisConfig) *Detector {
	return &Detector{store: s, canvas: canvas, cfg: cfg}
}

// Report discovers hot zones in the window and returns the ranked burst
// report. Burst ids start at 0 within each zone; the participant union in
// the report counts a user once no matter how many bursts they joined.
func (d *Detector) Report(ctx context.Context, w models.Window) (*models.BurstReport, error) {
	start := time.Now()
	defer metrics.ObserveAnalysis("bursts", start)

	report := &models.BurstReport{Window: w}

	cells, err := d.store.CellCounts(ctx, w)
	if err != nil {
		return nil, fmt.Errorf("building heatmap: %w", err)
	}

	zoneSet, threshold := zones.Discover(cells, d.canvas, d.cfg.ZonePercentile)
	report.ZoneCount = len(zoneSet)
	report.ZoneThreshold = threshold
	logging.Debug().
		Int("zones", len(zoneSet)).
		Float64("threshold", threshold).
		Msg("hot zones discovered")
	if len(zoneSet) == 0 {
		report.ExecutionMs = time.Since(start).Milliseconds()
		return report, nil
	}

	attack, err := d.attackSeconds(ctx, w, zoneSet)
	if err != nil {
		return nil, err
	}

	bursts, participants := d.clusterBursts(attack, zoneSet)
	metrics.BurstsDetected.Add(float64(len(bursts)))

	report.BurstCount = len(bursts)
	report.UniqueUsers = len(participants)

	sort.SliceStable(bursts, func(i, j int) bool {
		if bursts[i].TotalPixels != bursts[j].TotalPixels {
			return bursts[i].TotalPixels > bursts[j].TotalPixels
		}
		if bursts[i].ZoneID != bursts[j].ZoneID {
			return bursts[i].ZoneID < bursts[j].ZoneID
		}
		return bursts[i].BurstID < bursts[j].BurstID
	})
	if len(bursts) > d.cfg.TopBursts {
		bursts = bursts[:d.cfg.TopBursts]
	}
	report.TopBursts = bursts

	report.ExecutionMs = time.Since(start).Milliseconds()
	return report, nil
}

type zoneSecond struct {
	zone   int
	second int64
}

// attackSeconds joins window events to zones and keeps the per-zone
// seconds whose density strictly exceeds the density threshold, ordered
// by (zone, second).
func (d *Detector) attackSeconds(ctx context.Context, w models.Window, zoneSet []models.Zone) ([]models.AttackSecond, error) {
	index := zones.CellIndex(zoneSet)

	acc := make(map[zoneSecond]*models.AttackSecond)
	var scanned int64
	err := d.store.ScanEvents(ctx, w, func(ev models.Event) error {
		scanned++
		zid, ok := index[models.Cell{X: ev.X, Y: ev.Y}]
		if !ok {
			return nil
		}
		key := zoneSecond{zone: zid, second: ev.T}
		a := acc[key]
		if a == nil {
			a = &models.AttackSecond{
				ZoneID: zid,
				Second: ev.T,
				Users:  make(map[int64]struct{}),
			}
			acc[key] = a
		}
		a.Density++
		a.Users[ev.UserID] = struct{}{}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("joining events to zones: %w", err)
	}
	metrics.EventsScanned.WithLabelValues("bursts").Add(float64(scanned))

	var attack []models.AttackSecond
	for _, a := range acc {
		if a.Density > d.cfg.DensityThreshold {
			attack = append(attack, *a)
		}
	}
	cluster.Sort(attack,
		func(a models.AttackSecond) int64 { return int64(a.ZoneID) },
		func(a models.AttackSecond) int64 { return a.Second })
	return attack, nil
}

// clusterBursts gap-clusters attack-seconds within each zone and folds
// every cluster into one Burst. The returned set holds the participant
// union across all bursts.
func (d *Detector) clusterBursts(attack []models.AttackSecond, zoneSet []models.Zone) ([]models.Burst, map[int64]struct{}) {
	participants := make(map[int64]struct{})
	if len(attack) == 0 {
		return nil, participants
	}

	ids := cluster.AssignFunc(attack,
		func(a models.AttackSecond) int64 { return int64(a.ZoneID) },
		func(a models.AttackSecond) int64 { return a.Second },
		d.cfg.AttackGapSeconds)

	var (
		bursts []models.Burst
		users  []map[int64]struct{}
	)
	for i, a := range attack {
		n := len(bursts)
		if n == 0 || bursts[n-1].ZoneID != a.ZoneID || bursts[n-1].BurstID != ids[i] {
			z := zoneSet[a.ZoneID]
			bursts = append(bursts, models.Burst{
				ZoneID:   a.ZoneID,
				BurstID:  ids[i],
				StartSec: a.Second,
				EndSec:   a.Second,
				Center:   z.Center(),
				MinX:     z.MinX,
				MaxX:     z.MaxX,
				MinY:     z.MinY,
				MaxY:     z.MaxY,
			})
			users = append(users, make(map[int64]struct{}))
			n++
		}
		b := &bursts[n-1]
		if a.Second > b.EndSec {
			b.EndSec = a.Second
		}
		b.ActiveSeconds++
		b.TotalPixels += a.Density
		for u := range a.Users {
			users[n-1][u] = struct{}{}
			participants[u] = struct{}{}
		}
	}

	for i := range bursts {
		bursts[i].UniqueUsers = len(users[i])
	}
	return bursts, participants
}
