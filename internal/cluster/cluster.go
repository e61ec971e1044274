// Placewatch - Canvas Placement Analytics and Bot Detection
// Copyright 2026 Placewatch contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/placewatch/placewatch

// Package cluster implements gap-based temporal clustering: a sequence of
// timestamped items partitioned by a grouping key is split into clusters
// wherever the gap between consecutive items strictly exceeds a threshold.
//
// Sessionization (key = user) and burst grouping (key = zone) are both
// thin layers over this primitive.
package cluster

import "sort"

// Point is one timestamped item under a grouping key.
type Point struct {
	Key int64
	T   int64
}

// Assign walks points sorted ascending by (Key, T) and returns one cluster
// id per point. Within each key, the first point is cluster 0 and the
// cluster id increments whenever the gap to the previous point strictly
// exceeds gap; a gap equal to the threshold never starts a new cluster.
//
// Clustering of one key is independent of every other key's points. An
// empty input yields an empty (nil) result; a single-point key is one
// cluster of size one.
func Assign(points []Point, gap int64) []int {
	return AssignFunc(points, func(p Point) int64 { return p.Key }, func(p Point) int64 { return p.T }, gap)
}

// AssignFunc is Assign for arbitrary item types, with key and timestamp
// accessors. Items must already be sorted ascending by (key, timestamp);
// use Sort first when the ordering is not guaranteed by the producer.
func AssignFunc[T any](items []T, key func(T) int64, at func(T) int64, gap int64) []int {
	if len(items) == 0 {
		return nil
	}

	ids := make([]int, len(items))
	for i := 1; i < len(items); i++ {
		if key(items[i]) != key(items[i-1]) {
			ids[i] = 0
			continue
		}
		ids[i] = ids[i-1]
		if at(items[i])-at(items[i-1]) > gap {
			ids[i]++
		}
	}
	return ids
}

// Sort orders items ascending by (key, timestamp) in place, establishing
// the precondition for AssignFunc. Sorted input must never be assumed.
func Sort[T any](items []T, key func(T) int64, at func(T) int64) {
	sort.SliceStable(items, func(i, j int) bool {
		if key(items[i]) != key(items[j]) {
			return key(items[i]) < key(items[j])
		}
		return at(items[i]) < at(items[j])
	})
}

// Run is the aggregate of one (key, cluster) group.
type Run struct {
	Key     int64
	Cluster int

	// Start and End are the first and last timestamps in the run.
	Start int64
	End   int64

	// Count is the number of items in the run.
	Count int
}

// Runs folds items and their Assign/AssignFunc cluster ids into
// per-(key, cluster) aggregates, preserving input order of first
// appearance. len(ids) must equal len(items).
func Runs[T any](items []T, ids []int, key func(T) int64, at func(T) int64) []Run {
	var runs []Run
	for i := range items {
		k, t := key(items[i]), at(items[i])
		if n := len(runs); n > 0 && runs[n-1].Key == k && runs[n-1].Cluster == ids[i] {
			r := &runs[n-1]
			if t < r.Start {
				r.Start = t
			}
			if t > r.End {
				r.End = t
			}
			r.Count++
			continue
		}
		runs = append(runs, Run{Key: k, Cluster: ids[i], Start: t, End: t, Count: 1})
	}
	return runs
}
