// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package graph

import (
	"context"
	"errors"
	"math"
	"testing"
)

func TestComputePaths_AllAlgorithmsAgree(t *testing.T) {
	e := NewEngine()
	g := pathGraph("A", "B", "C")

	for _, alg := range []PathAlgorithm{PathDijkstra, PathFloydWarshall, PathJohnson, PathBellmanFord} {
		t.Run(string(alg), func(t *testing.T) {
			res, err := e.ComputePaths(context.Background(), g, PathOptions{Algorithm: alg})
			if err != nil {
				t.Fatal(err)
			}
			out := res.Result

			if got := out.Distances["A"]["C"]; math.Abs(got-2) > 1e-9 {
				t.Errorf("dist(A,C) = %v, want 2", got)
			}
			if got := out.Metrics.Diameter; math.Abs(got-2) > 1e-9 {
				t.Errorf("diameter = %v, want 2", got)
			}
			if got := out.Metrics.Radius; math.Abs(got-1) > 1e-9 {
				t.Errorf("radius = %v, want 1", got)
			}
			if len(out.Metrics.CentralNodes) != 1 || out.Metrics.CentralNodes[0] != "B" {
				t.Errorf("central nodes = %v, want [B]", out.Metrics.CentralNodes)
			}
			if len(out.Metrics.PeripheralNodes) != 2 {
				t.Errorf("peripheral nodes = %v, want [A C]", out.Metrics.PeripheralNodes)
			}
		})
	}
}

func TestComputePaths_UnreachablePairsExcluded(t *testing.T) {
	e := NewEngine()
	g := pathGraph("A", "B")
	g.Nodes = append(g.Nodes, Node{ID: "island", Label: "island", Confidence: []float64{1}})

	res, err := e.ComputePaths(context.Background(), g, PathOptions{Algorithm: PathDijkstra})
	if err != nil {
		t.Fatal(err)
	}
	out := res.Result

	if _, ok := out.Distances["A"]["island"]; ok {
		t.Error("unreachable pair must be absent, not zero")
	}
	// Diameter reflects the connected pair only.
	if got := out.Metrics.Diameter; math.Abs(got-1) > 1e-9 {
		t.Errorf("diameter = %v, want 1", got)
	}
	if got := out.Metrics.AveragePathLength; math.Abs(got-1) > 1e-9 {
		t.Errorf("average path length = %v, want 1", got)
	}
}

func TestComputePaths_DijkstraRejectsNegativeWeight(t *testing.T) {
	e := NewEngine()
	g := pathGraph("A", "B", "C")
	g.Edges[0].Confidence = -1

	_, err := e.ComputePaths(context.Background(), g, PathOptions{Algorithm: PathDijkstra})
	if !errors.Is(err, ErrNegativeWeight) {
		t.Fatalf("expected ErrNegativeWeight, got %v", err)
	}
}

func TestComputePaths_BellmanFordRejectsNegativeCycle(t *testing.T) {
	e := NewEngine()
	g := pathGraph("A", "B")
	g.Edges[0].Confidence = -1 // bidirectional negative edge is a 2-cycle

	for _, alg := range []PathAlgorithm{PathBellmanFord, PathJohnson} {
		t.Run(string(alg), func(t *testing.T) {
			_, err := e.ComputePaths(context.Background(), g, PathOptions{Algorithm: alg})
			if !errors.Is(err, ErrNegativeCycle) {
				t.Fatalf("expected ErrNegativeCycle, got %v", err)
			}
		})
	}
}

func TestComputePaths_DirectedDistancesAsymmetric(t *testing.T) {
	e := NewEngine()
	g := &Graph{
		Nodes: []Node{
			{ID: "A", Confidence: []float64{1}},
			{ID: "B", Confidence: []float64{1}},
		},
		Edges: []Edge{
			{ID: "e0", Source: "A", Target: "B", Confidence: 1, Bidirectional: false},
		},
	}

	res, err := e.ComputePaths(context.Background(), g, PathOptions{Algorithm: PathFloydWarshall})
	if err != nil {
		t.Fatal(err)
	}
	out := res.Result
	if _, ok := out.Distances["A"]["B"]; !ok {
		t.Error("A→B should be reachable")
	}
	if _, ok := out.Distances["B"]["A"]; ok {
		t.Error("B→A should be unreachable for a directed edge")
	}
}
