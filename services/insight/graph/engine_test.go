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
	"fmt"
	"testing"
)

// pathGraph builds a bidirectional path over the given node ids with
// unit-confidence edges.
func pathGraph(ids ...string) *Graph {
	g := &Graph{}
	for _, id := range ids {
		g.Nodes = append(g.Nodes, Node{ID: id, Label: id, Type: "claim", Confidence: []float64{1}})
	}
	for i := 0; i+1 < len(ids); i++ {
		g.Edges = append(g.Edges, Edge{
			ID:            fmt.Sprintf("e%d", i),
			Source:        ids[i],
			Target:        ids[i+1],
			Type:          "supports",
			Confidence:    1,
			Bidirectional: true,
		})
	}
	return g
}

// barbellGraph builds two unit-confidence triangles joined by a single
// bridge edge.
func barbellGraph() *Graph {
	g := &Graph{}
	for _, id := range []string{"a1", "a2", "a3", "b1", "b2", "b3"} {
		g.Nodes = append(g.Nodes, Node{ID: id, Label: id, Type: "claim", Confidence: []float64{1}})
	}
	links := [][2]string{
		{"a1", "a2"}, {"a2", "a3"}, {"a1", "a3"},
		{"b1", "b2"}, {"b2", "b3"}, {"b1", "b3"},
		{"a1", "b1"},
	}
	for i, l := range links {
		g.Edges = append(g.Edges, Edge{
			ID:            fmt.Sprintf("e%d", i),
			Source:        l[0],
			Target:        l[1],
			Type:          "supports",
			Confidence:    1,
			Bidirectional: true,
		})
	}
	return g
}

func TestEngine_UnknownAlgorithmTags(t *testing.T) {
	e := NewEngine()
	ctx := context.Background()
	g := pathGraph("A", "B")

	tests := []struct {
		name string
		call func() error
	}{
		{"centrality", func() error {
			_, err := e.ComputeCentrality(ctx, g, CentralityOptions{Measures: []CentralityMeasure{"bogus"}})
			return err
		}},
		{"communities", func() error {
			_, err := e.DetectCommunities(ctx, g, CommunityOptions{Algorithm: "bogus"})
			return err
		}},
		{"paths", func() error {
			_, err := e.ComputePaths(ctx, g, PathOptions{Algorithm: "bogus"})
			return err
		}},
		{"flow", func() error {
			_, err := e.ComputeMaxFlow(ctx, g, FlowOptions{Algorithm: "bogus", Source: "A", Sink: "B"})
			return err
		}},
		{"similarity", func() error {
			_, err := e.ComputeSimilarity(ctx, g, SimilarityOptions{Kinds: []SimilarityKind{"bogus"}})
			return err
		}},
		{"optimize objective", func() error {
			_, err := e.OptimizeGraph(ctx, g, OptimizeOptions{Objective: "bogus", Algorithm: OptimizeGreedy})
			return err
		}},
		{"optimize algorithm", func() error {
			_, err := e.OptimizeGraph(ctx, g, OptimizeOptions{Objective: ObjectiveEfficiency, Algorithm: "bogus"})
			return err
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.call()
			if !errors.Is(err, ErrUnknownAlgorithm) {
				t.Fatalf("expected ErrUnknownAlgorithm, got %v", err)
			}
			if err == nil || !contains(err.Error(), "bogus") {
				t.Fatalf("error should name the offending tag: %v", err)
			}
		})
	}
}

func contains(s, sub string) bool {
	for i := 0; i+len(sub) <= len(s); i++ {
		if s[i:i+len(sub)] == sub {
			return true
		}
	}
	return false
}

func TestEngine_EmptyGraph(t *testing.T) {
	e := NewEngine()
	ctx := context.Background()
	g := &Graph{}

	if _, err := e.ComputeCentrality(ctx, g, CentralityOptions{}); err != nil {
		t.Fatalf("centrality on empty graph: %v", err)
	}
	if _, err := e.DetectCommunities(ctx, g, CommunityOptions{Algorithm: CommunityLouvain}); err != nil {
		t.Fatalf("communities on empty graph: %v", err)
	}
	if _, err := e.ComputePaths(ctx, g, PathOptions{Algorithm: PathDijkstra}); err != nil {
		t.Fatalf("paths on empty graph: %v", err)
	}
	if _, err := e.AnalyzeStructure(ctx, g); err != nil {
		t.Fatalf("structure on empty graph: %v", err)
	}
	if _, err := e.ComputeSimilarity(ctx, g, SimilarityOptions{}); err != nil {
		t.Fatalf("similarity on empty graph: %v", err)
	}
}

func TestEngine_CacheHitOnRepeatedCall(t *testing.T) {
	e := NewEngine()
	ctx := context.Background()
	g := barbellGraph()
	opts := CentralityOptions{Measures: []CentralityMeasure{CentralityDegree}}

	first, err := e.ComputeCentrality(ctx, g, opts)
	if err != nil {
		t.Fatal(err)
	}
	second, err := e.ComputeCentrality(ctx, g, opts)
	if err != nil {
		t.Fatal(err)
	}
	if first != second {
		t.Error("repeated call should return the cached result")
	}
	if stats := e.CacheStats(); stats.Hits < 1 {
		t.Errorf("expected at least one cache hit, got %+v", stats)
	}

	e.PurgeCache()
	third, err := e.ComputeCentrality(ctx, g, opts)
	if err != nil {
		t.Fatal(err)
	}
	if third == first {
		t.Error("purge should force recomputation")
	}
}

func TestStructuralHash_OrderIndependent(t *testing.T) {
	a := barbellGraph()
	b := barbellGraph()
	// Reverse node and edge slices; the hash must not change.
	for i, j := 0, len(b.Nodes)-1; i < j; i, j = i+1, j-1 {
		b.Nodes[i], b.Nodes[j] = b.Nodes[j], b.Nodes[i]
	}
	for i, j := 0, len(b.Edges)-1; i < j; i, j = i+1, j-1 {
		b.Edges[i], b.Edges[j] = b.Edges[j], b.Edges[i]
	}
	if structuralHash(a) != structuralHash(b) {
		t.Error("hash should be independent of slice order")
	}

	b.Edges = append(b.Edges, Edge{ID: "x", Source: "a2", Target: "b2", Confidence: 1})
	if structuralHash(a) == structuralHash(b) {
		t.Error("hash should change when an edge is added")
	}
}

func TestGraph_Clone(t *testing.T) {
	g := barbellGraph()
	g.Nodes[0].Metadata = map[string]any{"k": "v"}
	c := g.Clone()

	c.Nodes[0].ID = "mutated"
	c.Nodes[0].Metadata["k"] = "changed"
	c.Edges[0].Source = "mutated"

	if g.Nodes[0].ID == "mutated" || g.Edges[0].Source == "mutated" {
		t.Error("clone should not share node/edge storage")
	}
	if g.Nodes[0].Metadata["k"] != "v" {
		t.Error("clone should not share metadata maps")
	}
}
