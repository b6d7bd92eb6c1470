// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package graph

import (
	"context"
	"testing"
)

func TestAnalyzeStructure_PathGraph(t *testing.T) {
	e := NewEngine()
	g := pathGraph("A", "B", "C")

	res, err := e.AnalyzeStructure(context.Background(), g)
	if err != nil {
		t.Fatal(err)
	}
	out := res.Result

	if len(out.WeakComponents) != 1 {
		t.Errorf("weak components = %d, want 1", len(out.WeakComponents))
	}
	if len(out.ArticulationPoints) != 1 || out.ArticulationPoints[0] != "B" {
		t.Errorf("articulation points = %v, want [B]", out.ArticulationPoints)
	}
	if len(out.Bridges) != 2 {
		t.Errorf("bridges = %d, want 2", len(out.Bridges))
	}
	if len(out.BiconnectedComponents) != 2 {
		t.Errorf("blocks = %d, want 2", len(out.BiconnectedComponents))
	}
	if out.Connectivity.Node != 1 {
		t.Errorf("node connectivity = %d, want 1", out.Connectivity.Node)
	}
	if out.Connectivity.Edge != 1 {
		t.Errorf("edge connectivity = %d, want 1", out.Connectivity.Edge)
	}
	if out.Connectivity.Algebraic <= 0 {
		t.Errorf("algebraic connectivity should be positive for a connected graph, got %v", out.Connectivity.Algebraic)
	}
}

func TestAnalyzeStructure_TriangleHasNoCutVertices(t *testing.T) {
	e := NewEngine()
	g := pathGraph("A", "B", "C")
	g.Edges = append(g.Edges, Edge{
		ID: "close", Source: "A", Target: "C", Confidence: 1, Bidirectional: true,
	})

	res, err := e.AnalyzeStructure(context.Background(), g)
	if err != nil {
		t.Fatal(err)
	}
	out := res.Result

	if len(out.ArticulationPoints) != 0 {
		t.Errorf("triangle has no articulation points, got %v", out.ArticulationPoints)
	}
	if len(out.Bridges) != 0 {
		t.Errorf("triangle has no bridges, got %v", out.Bridges)
	}
	if len(out.BiconnectedComponents) != 1 {
		t.Errorf("triangle is one block, got %d", len(out.BiconnectedComponents))
	}
	if out.Connectivity.Node != 2 {
		t.Errorf("node connectivity = %d, want 2", out.Connectivity.Node)
	}
	if out.Connectivity.Edge != 2 {
		t.Errorf("edge connectivity = %d, want 2", out.Connectivity.Edge)
	}
}

func TestAnalyzeStructure_DisconnectedGraph(t *testing.T) {
	e := NewEngine()
	g := pathGraph("A", "B")
	g.Nodes = append(g.Nodes, Node{ID: "island", Confidence: []float64{1}})

	res, err := e.AnalyzeStructure(context.Background(), g)
	if err != nil {
		t.Fatal(err)
	}
	out := res.Result

	if len(out.WeakComponents) != 2 {
		t.Errorf("weak components = %d, want 2", len(out.WeakComponents))
	}
	if out.Connectivity.Edge != 0 {
		t.Errorf("edge connectivity of a disconnected graph = %d, want 0", out.Connectivity.Edge)
	}
	if out.Connectivity.Node != 0 {
		t.Errorf("node connectivity of a disconnected graph = %d, want 0", out.Connectivity.Node)
	}
	if out.Connectivity.Algebraic > 1e-6 {
		t.Errorf("algebraic connectivity should be ~0 when disconnected, got %v", out.Connectivity.Algebraic)
	}
}

func TestAnalyzeStructure_StrongComponents(t *testing.T) {
	e := NewEngine()
	// Directed cycle A→B→C→A plus a directed tail C→D.
	g := &Graph{}
	for _, id := range []string{"A", "B", "C", "D"} {
		g.Nodes = append(g.Nodes, Node{ID: id, Confidence: []float64{1}})
	}
	links := [][2]string{{"A", "B"}, {"B", "C"}, {"C", "A"}, {"C", "D"}}
	for i, l := range links {
		g.Edges = append(g.Edges, Edge{
			ID: string(rune('a' + i)), Source: l[0], Target: l[1], Confidence: 1,
		})
	}

	res, err := e.AnalyzeStructure(context.Background(), g)
	if err != nil {
		t.Fatal(err)
	}
	out := res.Result

	if len(out.StrongComponents) != 2 {
		t.Fatalf("strong components = %d, want 2", len(out.StrongComponents))
	}
	sizes := map[int]int{}
	for _, c := range out.StrongComponents {
		sizes[len(c.Nodes)]++
	}
	if sizes[3] != 1 || sizes[1] != 1 {
		t.Errorf("expected one 3-cycle and one singleton, got %v", out.StrongComponents)
	}
}
