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

// diamondGraph is the classic two-path flow network: S→A→T and S→B→T
// with capacity 10 each, plus a capacity-1 cross edge A→B.
func diamondGraph() *Graph {
	g := &Graph{}
	for _, id := range []string{"S", "A", "B", "T"} {
		g.Nodes = append(g.Nodes, Node{ID: id, Confidence: []float64{1}})
	}
	links := []struct {
		src, tgt string
		capacity float64
	}{
		{"S", "A", 10}, {"S", "B", 10},
		{"A", "T", 10}, {"B", "T", 10},
		{"A", "B", 1},
	}
	for i, l := range links {
		g.Edges = append(g.Edges, Edge{
			ID:       string(rune('a' + i)),
			Source:   l.src,
			Target:   l.tgt,
			Metadata: map[string]any{"capacity": l.capacity},
		})
	}
	return g
}

func TestComputeMaxFlow_AllAlgorithmsAgree(t *testing.T) {
	e := NewEngine()
	g := diamondGraph()

	for _, alg := range []FlowAlgorithm{FlowFordFulkerson, FlowEdmondsKarp, FlowDinic, FlowPushRelabel} {
		t.Run(string(alg), func(t *testing.T) {
			res, err := e.ComputeMaxFlow(context.Background(), g, FlowOptions{
				Algorithm: alg, Source: "S", Sink: "T",
			})
			if err != nil {
				t.Fatal(err)
			}
			out := res.Result

			if math.Abs(out.MaxFlow-20) > 1e-9 {
				t.Errorf("max flow = %v, want 20", out.MaxFlow)
			}
			if math.Abs(out.MinCut.Capacity-out.MaxFlow) > 1e-9 {
				t.Errorf("min cut capacity %v != max flow %v", out.MinCut.Capacity, out.MaxFlow)
			}
			for _, fe := range out.EdgeFlows {
				if fe.Flow > fe.Capacity+1e-9 {
					t.Errorf("flow %v exceeds capacity %v on %s→%s", fe.Flow, fe.Capacity, fe.Source, fe.Target)
				}
			}
		})
	}
}

func TestComputeMaxFlow_MissingEndpoint(t *testing.T) {
	e := NewEngine()
	g := diamondGraph()

	_, err := e.ComputeMaxFlow(context.Background(), g, FlowOptions{
		Algorithm: FlowEdmondsKarp, Source: "nope", Sink: "T",
	})
	if !errors.Is(err, ErrNodeNotFound) {
		t.Fatalf("expected ErrNodeNotFound for source, got %v", err)
	}

	_, err = e.ComputeMaxFlow(context.Background(), g, FlowOptions{
		Algorithm: FlowEdmondsKarp, Source: "S", Sink: "nope",
	})
	if !errors.Is(err, ErrNodeNotFound) {
		t.Fatalf("expected ErrNodeNotFound for sink, got %v", err)
	}
}

func TestComputeMaxFlow_BottlenecksRanked(t *testing.T) {
	e := NewEngine()
	g := diamondGraph()

	res, err := e.ComputeMaxFlow(context.Background(), g, FlowOptions{
		Algorithm: FlowDinic, Source: "S", Sink: "T",
	})
	if err != nil {
		t.Fatal(err)
	}
	out := res.Result

	// Every edge in the diamond saturates at max flow 20.
	if len(out.Bottlenecks) == 0 {
		t.Fatal("expected saturated edges to surface as bottlenecks")
	}
	for i := 1; i < len(out.Bottlenecks); i++ {
		if out.Bottlenecks[i].Criticality > out.Bottlenecks[i-1].Criticality+1e-9 {
			t.Error("bottlenecks should be sorted by descending criticality")
		}
	}
	for _, b := range out.Bottlenecks {
		if b.Utilization < BottleneckUtilization {
			t.Errorf("bottleneck utilization %v below threshold", b.Utilization)
		}
	}
}

func TestComputeMaxFlow_CutPartitionsCoverGraph(t *testing.T) {
	e := NewEngine()
	g := diamondGraph()

	res, err := e.ComputeMaxFlow(context.Background(), g, FlowOptions{
		Algorithm: FlowEdmondsKarp, Source: "S", Sink: "T",
	})
	if err != nil {
		t.Fatal(err)
	}
	cut := res.Result.MinCut

	seen := map[string]bool{}
	for _, id := range cut.SourcePartition {
		seen[id] = true
	}
	for _, id := range cut.SinkPartition {
		if seen[id] {
			t.Errorf("node %s appears in both partitions", id)
		}
		seen[id] = true
	}
	if len(seen) != len(g.Nodes) {
		t.Errorf("partitions cover %d nodes, want %d", len(seen), len(g.Nodes))
	}
}

func TestComputeMaxFlow_DisconnectedSinkIsZero(t *testing.T) {
	e := NewEngine()
	g := pathGraph("A", "B")
	g.Nodes = append(g.Nodes, Node{ID: "island", Confidence: []float64{1}})

	res, err := e.ComputeMaxFlow(context.Background(), g, FlowOptions{
		Algorithm: FlowEdmondsKarp, Source: "A", Sink: "island",
	})
	if err != nil {
		t.Fatal(err)
	}
	if res.Result.MaxFlow != 0 {
		t.Errorf("max flow to unreachable sink = %v, want 0", res.Result.MaxFlow)
	}
}
