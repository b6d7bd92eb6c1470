// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package graph

import (
	"context"
	"math"
	"testing"
)

func TestComputeCentrality_Degree(t *testing.T) {
	e := NewEngine()
	g := pathGraph("A", "B", "C")

	res, err := e.ComputeCentrality(context.Background(), g, CentralityOptions{
		Measures: []CentralityMeasure{CentralityDegree},
	})
	if err != nil {
		t.Fatal(err)
	}
	scores := res.Result.Measures[CentralityDegree]

	tests := []struct {
		node string
		want float64
	}{
		{"A", 0.5},
		{"B", 1.0},
		{"C", 0.5},
	}
	for _, tt := range tests {
		if got := scores[tt.node]; math.Abs(got-tt.want) > 1e-9 {
			t.Errorf("degree(%s) = %v, want %v", tt.node, got, tt.want)
		}
	}
}

func TestComputeCentrality_BetweennessOrdering(t *testing.T) {
	e := NewEngine()
	g := pathGraph("A", "B", "C", "D", "E")

	res, err := e.ComputeCentrality(context.Background(), g, CentralityOptions{
		Measures: []CentralityMeasure{CentralityBetweenness},
	})
	if err != nil {
		t.Fatal(err)
	}
	scores := res.Result.Measures[CentralityBetweenness]

	// The middle of a path carries the most shortest paths.
	if scores["C"] <= scores["B"] || scores["B"] <= scores["A"] {
		t.Errorf("expected C > B > A, got %v", scores)
	}
	if scores["A"] != 0 || scores["E"] != 0 {
		t.Errorf("endpoints should have zero betweenness, got %v", scores)
	}
}

func TestComputeCentrality_PageRankSumsToOne(t *testing.T) {
	e := NewEngine()
	g := barbellGraph()

	res, err := e.ComputeCentrality(context.Background(), g, CentralityOptions{
		Measures: []CentralityMeasure{CentralityPageRank},
	})
	if err != nil {
		t.Fatal(err)
	}
	scores := res.Result.Measures[CentralityPageRank]

	sum := 0.0
	for _, s := range scores {
		sum += s
	}
	if math.Abs(sum-1) > 1e-6 {
		t.Errorf("pagerank should sum to 1, got %v", sum)
	}
	// The bridge endpoints see extra rank flow.
	if scores["a1"] <= scores["a2"] {
		t.Errorf("bridge endpoint a1 should outrank a2: %v", scores)
	}
}

func TestComputeCentrality_Normalization(t *testing.T) {
	e := NewEngine()
	g := pathGraph("A", "B", "C", "D")

	res, err := e.ComputeCentrality(context.Background(), g, CentralityOptions{
		Measures:  []CentralityMeasure{CentralityCloseness},
		Normalize: true,
	})
	if err != nil {
		t.Fatal(err)
	}
	scores := res.Result.Measures[CentralityCloseness]

	lo, hi := math.Inf(1), math.Inf(-1)
	for _, s := range scores {
		lo = math.Min(lo, s)
		hi = math.Max(hi, s)
		if s < 0 || s > 1 {
			t.Errorf("normalized score out of [0,1]: %v", s)
		}
	}
	if lo != 0 || hi != 1 {
		t.Errorf("min-max scaling should hit both bounds, got min=%v max=%v", lo, hi)
	}
}

func TestComputeCentrality_AllMeasures(t *testing.T) {
	e := NewEngine()
	g := barbellGraph()

	res, err := e.ComputeCentrality(context.Background(), g, CentralityOptions{})
	if err != nil {
		t.Fatal(err)
	}
	for _, m := range AllCentralityMeasures() {
		scores, ok := res.Result.Measures[m]
		if !ok {
			t.Errorf("measure %s missing from result", m)
			continue
		}
		if len(scores) != len(g.Nodes) {
			t.Errorf("measure %s has %d scores, want %d", m, len(scores), len(g.Nodes))
		}
		for id, s := range scores {
			if math.IsNaN(s) || math.IsInf(s, 0) {
				t.Errorf("measure %s score for %s is %v", m, id, s)
			}
		}
	}
}

func TestComputeCentrality_EigenvectorFavorsDenseSide(t *testing.T) {
	e := NewEngine()
	// A triangle plus a pendant node.
	g := pathGraph("A", "B", "C", "D")
	g.Edges = append(g.Edges, Edge{
		ID: "loop", Source: "A", Target: "C", Confidence: 1, Bidirectional: true,
	})

	res, err := e.ComputeCentrality(context.Background(), g, CentralityOptions{
		Measures: []CentralityMeasure{CentralityEigenvector},
	})
	if err != nil {
		t.Fatal(err)
	}
	scores := res.Result.Measures[CentralityEigenvector]
	if scores["C"] <= scores["D"] {
		t.Errorf("triangle member C should outrank pendant D: %v", scores)
	}
}
