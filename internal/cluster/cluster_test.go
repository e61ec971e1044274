// Placewatch - Canvas Placement Analytics and Bot Detection
// Copyright 2026 Placewatch contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/placewatch/placewatch

package cluster

import (
	"reflect"
	"testing"
)

func TestAssignEmpty(t *testing.T) {
	if got := Assign(nil, 900); got != nil {
		t.Errorf("Assign(nil) = %v, want nil", got)
	}
	if got := Assign([]Point{}, 900); got != nil {
		t.Errorf("Assign(empty) = %v, want nil", got)
	}
}

func TestAssignSingleItem(t *testing.T) {
	got := Assign([]Point{{Key: 1, T: 42}}, 900)
	want := []int{0}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Assign = %v, want %v", got, want)
	}
}

func TestAssignThresholdBoundary(t *testing.T) {
	tests := []struct {
		name string
		ts   []int64
		gap  int64
		want []int
	}{
		{"gap exactly at threshold stays", []int64{0, 900}, 900, []int{0, 0}},
		{"gap one over threshold splits", []int64{0, 901}, 900, []int{0, 1}},
		{"mixed", []int64{0, 10, 911, 912, 2000}, 900, []int{0, 0, 1, 1, 2}},
		{"zero gap threshold splits on any advance", []int64{5, 5, 6}, 0, []int{0, 0, 1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			points := make([]Point, len(tt.ts))
			for i, ts := range tt.ts {
				points[i] = Point{Key: 7, T: ts}
			}
			got := Assign(points, tt.gap)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Assign(%v, %d) = %v, want %v", tt.ts, tt.gap, got, tt.want)
			}
		})
	}
}

func TestAssignResetsPerKey(t *testing.T) {
	points := []Point{
		{Key: 1, T: 0},
		{Key: 1, T: 2000},
		{Key: 2, T: 5000}, // new key starts at cluster 0 regardless of gap
		{Key: 2, T: 5001},
	}
	got := Assign(points, 900)
	want := []int{0, 1, 0, 0}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Assign = %v, want %v", got, want)
	}
}

func TestAssignPartitionIndependence(t *testing.T) {
	a := []Point{{Key: 1, T: 0}, {Key: 1, T: 500}, {Key: 1, T: 1500}}
	withB := append(append([]Point{}, a...), Point{Key: 2, T: 100}, Point{Key: 2, T: 9999})

	idsAlone := Assign(a, 900)
	idsWithB := Assign(withB, 900)[:len(a)]

	if !reflect.DeepEqual(idsAlone, idsWithB) {
		t.Errorf("key 1 clustering changed when key 2 added: %v vs %v", idsAlone, idsWithB)
	}
}

func TestAssignDeterministic(t *testing.T) {
	points := []Point{
		{Key: 3, T: 0}, {Key: 3, T: 100}, {Key: 3, T: 1200},
		{Key: 9, T: 50}, {Key: 9, T: 1000},
	}
	first := Assign(points, 900)
	second := Assign(points, 900)
	if !reflect.DeepEqual(first, second) {
		t.Errorf("clustering not deterministic: %v vs %v", first, second)
	}
}

func TestSortEstablishesPrecondition(t *testing.T) {
	points := []Point{
		{Key: 2, T: 10},
		{Key: 1, T: 30},
		{Key: 1, T: 5},
	}
	Sort(points, func(p Point) int64 { return p.Key }, func(p Point) int64 { return p.T })

	want := []Point{{Key: 1, T: 5}, {Key: 1, T: 30}, {Key: 2, T: 10}}
	if !reflect.DeepEqual(points, want) {
		t.Errorf("Sort = %v, want %v", points, want)
	}
}

func TestRuns(t *testing.T) {
	points := []Point{
		{Key: 1, T: 0},
		{Key: 1, T: 10},
		{Key: 1, T: 2000},
		{Key: 2, T: 7},
	}
	ids := Assign(points, 900)
	runs := Runs(points, ids, func(p Point) int64 { return p.Key }, func(p Point) int64 { return p.T })

	want := []Run{
		{Key: 1, Cluster: 0, Start: 0, End: 10, Count: 2},
		{Key: 1, Cluster: 1, Start: 2000, End: 2000, Count: 1},
		{Key: 2, Cluster: 0, Start: 7, End: 7, Count: 1},
	}
	if !reflect.DeepEqual(runs, want) {
		t.Errorf("Runs = %+v, want %+v", runs, want)
	}
}

func TestAssignFuncCustomType(t *testing.T) {
	type placement struct {
		user int64
		at   int64
	}
	items := []placement{
		{user: 4, at: 100},
		{user: 4, at: 250},
		{user: 4, at: 500},
	}
	got := AssignFunc(items,
		func(p placement) int64 { return p.user },
		func(p placement) int64 { return p.at },
		150)
	want := []int{0, 0, 1} // 250->500 is 250 > 150
	if !reflect.DeepEqual(got, want) {
		t.Errorf("AssignFunc = %v, want %v", got, want)
	}
}
