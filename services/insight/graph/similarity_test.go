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

func TestComputeSimilarity_MatrixShape(t *testing.T) {
	e := NewEngine()
	g := barbellGraph()

	res, err := e.ComputeSimilarity(context.Background(), g, SimilarityOptions{})
	if err != nil {
		t.Fatal(err)
	}
	m := res.Result.Nodes

	if len(m) != len(g.Nodes) {
		t.Fatalf("matrix has %d rows, want %d", len(m), len(g.Nodes))
	}
	for _, a := range g.Nodes {
		if got := m[a.ID][a.ID]; got != 1 {
			t.Errorf("diagonal for %s = %v, want 1", a.ID, got)
		}
		for _, b := range g.Nodes {
			if math.Abs(m[a.ID][b.ID]-m[b.ID][a.ID]) > 1e-12 {
				t.Errorf("matrix not symmetric at (%s,%s)", a.ID, b.ID)
			}
			if m[a.ID][b.ID] < 0 || m[a.ID][b.ID] > 1 {
				t.Errorf("similarity out of [0,1]: %v", m[a.ID][b.ID])
			}
		}
	}
}

func TestComputeSimilarity_StructuralNeighborOverlap(t *testing.T) {
	e := NewEngine()
	// a2 and a3 share neighbors {a1, each other}; b3 shares nothing with
	// either.
	g := barbellGraph()

	res, err := e.ComputeSimilarity(context.Background(), g, SimilarityOptions{
		Kinds: []SimilarityKind{SimilarityStructural},
	})
	if err != nil {
		t.Fatal(err)
	}
	m := res.Result.Nodes

	if m["a2"]["a3"] <= m["a2"]["b3"] {
		t.Errorf("triangle peers should be more similar than cross-bell pairs: a2/a3=%v a2/b3=%v",
			m["a2"]["a3"], m["a2"]["b3"])
	}
}

func TestComputeSimilarity_SemanticTypeMatch(t *testing.T) {
	e := NewEngine()
	g := &Graph{
		Nodes: []Node{
			{ID: "x", Label: "protein folding dynamics", Type: "claim", Confidence: []float64{1}},
			{ID: "y", Label: "protein folding kinetics", Type: "claim", Confidence: []float64{1}},
			{ID: "z", Label: "unrelated topic entirely", Type: "method", Confidence: []float64{1}},
		},
	}

	res, err := e.ComputeSimilarity(context.Background(), g, SimilarityOptions{
		Kinds: []SimilarityKind{SimilaritySemantic},
	})
	if err != nil {
		t.Fatal(err)
	}
	m := res.Result.Nodes

	if m["x"]["y"] <= m["x"]["z"] {
		t.Errorf("same-type shared-label nodes should score higher: x/y=%v x/z=%v", m["x"]["y"], m["x"]["z"])
	}
}

func TestComputeSimilarity_EdgeMatrix(t *testing.T) {
	e := NewEngine()
	g := pathGraph("A", "B", "C")

	res, err := e.ComputeSimilarity(context.Background(), g, SimilarityOptions{IncludeEdges: true})
	if err != nil {
		t.Fatal(err)
	}
	em := res.Result.Edges

	if len(em) != len(g.Edges) {
		t.Fatalf("edge matrix has %d rows, want %d", len(em), len(g.Edges))
	}
	for id := range em {
		if em[id][id] != 1 {
			t.Errorf("edge diagonal for %s = %v, want 1", id, em[id][id])
		}
	}
	// e0=(A,B) and e1=(B,C) share endpoint B and a type.
	if em["e0"]["e1"] <= 0 {
		t.Errorf("adjacent same-type edges should have positive similarity, got %v", em["e0"]["e1"])
	}
}
