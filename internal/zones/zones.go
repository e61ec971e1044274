// Placewatch - Canvas Placement Analytics and Bot Detection
// Copyright 2026 Placewatch contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/placewatch/placewatch

// Package zones discovers contested canvas regions. The per-cell placement
// heatmap is thresholded at a high quantile and the surviving hot cells are
// grouped into zones by 8-connected component labeling, so diagonal
// adjacency joins cells into one zone.
package zones

import (
	"math"
	"sort"

	"github.com/placewatch/placewatch/internal/config"
	"github.com/placewatch/placewatch/internal/models"
)

// Quantile returns the q-quantile of values using linear interpolation
// between the two nearest order statistics. values need not be sorted.
// An empty input yields 0.
func Quantile(values []int64, q float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sorted := make([]int64, len(values))
	copy(sorted, values)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })

	pos := q * float64(len(sorted)-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	if lo == hi {
		return float64(sorted[lo])
	}
	frac := pos - float64(lo)
	return float64(sorted[lo]) + frac*(float64(sorted[hi])-float64(sorted[lo]))
}

// unionFind is a path-compressing disjoint-set over dense indices.
type unionFind struct {
	parent []int
}

func newUnionFind(n int) *unionFind {
	parent := make([]int, n)
	for i := range parent {
		parent[i] = i
	}
	return &unionFind{parent: parent}
}

func (u *unionFind) find(i int) int {
	for u.parent[i] != i {
		u.parent[i] = u.parent[u.parent[i]]
		i = u.parent[i]
	}
	return i
}

func (u *unionFind) union(a, b int) {
	ra, rb := u.find(a), u.find(b)
	if ra != rb {
		u.parent[rb] = ra
	}
}

// neighborOffsets are the 8-connected neighborhood displacements.
var neighborOffsets = [8][2]int32{
	{-1, -1}, {-1, 0}, {-1, 1},
	{0, -1}, {0, 1},
	{1, -1}, {1, 0}, {1, 1},
}

// Discover thresholds the heatmap at the configured percentile and labels
// the hot cells into 8-connected zones. A cell is hot when its count is
// strictly greater than the threshold and it lies inside canvas bounds.
// Zone ids are assigned in (x, y) order of each zone's first cell, so the
// labeling is deterministic for a given heatmap.
func Discover(cells []models.CellCount, canvas *config.CanvasConfig, percentile float64) ([]models.Zone, float64) {
	if len(cells) == 0 {
		return nil, 0
	}

	counts := make([]int64, len(cells))
	for i, c := range cells {
		counts[i] = c.Count
	}
	threshold := Quantile(counts, percentile)

	var hot []models.Cell
	for _, c := range cells {
		if float64(c.Count) <= threshold {
			continue
		}
		if c.X < 0 || c.X >= canvas.Width || c.Y < 0 || c.Y >= canvas.Height {
			continue
		}
		hot = append(hot, c.Cell)
	}
	if len(hot) == 0 {
		return nil, threshold
	}

	sort.Slice(hot, func(i, j int) bool {
		if hot[i].X != hot[j].X {
			return hot[i].X < hot[j].X
		}
		return hot[i].Y < hot[j].Y
	})

	index := make(map[models.Cell]int, len(hot))
	for i, c := range hot {
		index[c] = i
	}

	uf := newUnionFind(len(hot))
	for i, c := range hot {
		for _, d := range neighborOffsets {
			if j, ok := index[models.Cell{X: c.X + d[0], Y: c.Y + d[1]}]; ok {
				uf.union(i, j)
			}
		}
	}

	// First-seen order over the (x, y)-sorted cells fixes zone ids.
	rootToZone := make(map[int]int)
	var zones []models.Zone
	for i, c := range hot {
		root := uf.find(i)
		zi, ok := rootToZone[root]
		if !ok {
			zi = len(zones)
			rootToZone[root] = zi
			zones = append(zones, models.Zone{
				ID:   zi,
				MinX: c.X, MaxX: c.X,
				MinY: c.Y, MaxY: c.Y,
			})
		}
		z := &zones[zi]
		z.Cells = append(z.Cells, c)
		if c.X < z.MinX {
			z.MinX = c.X
		}
		if c.X > z.MaxX {
			z.MaxX = c.X
		}
		if c.Y < z.MinY {
			z.MinY = c.Y
		}
		if c.Y > z.MaxY {
			z.MaxY = c.Y
		}
	}

	return zones, threshold
}

// CellIndex maps every zone cell to its zone id for event-to-zone joins.
func CellIndex(zones []models.Zone) map[models.Cell]int {
	index := make(map[models.Cell]int)
	for _, z := range zones {
		for _, c := range z.Cells {
			index[c] = z.ID
		}
	}
	return index
}
