// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package graph

import (
	"context"
	"reflect"
	"testing"
)

func TestOptimizeGraph_GreedyImprovesEfficiency(t *testing.T) {
	e := NewEngine()
	g := pathGraph("A", "B", "C", "D", "E")

	res, err := e.OptimizeGraph(context.Background(), g, OptimizeOptions{
		Objective: ObjectiveEfficiency,
		Algorithm: OptimizeGreedy,
		Constraints: OptimizeConstraints{
			MaxEdgeAdditions: 2,
			MaxEdgeRemovals:  -1,
		},
	})
	if err != nil {
		t.Fatal(err)
	}
	out := res.Result

	if out.OptimizedValue <= out.OriginalValue {
		t.Errorf("adding shortcuts to a path should raise efficiency: %v -> %v",
			out.OriginalValue, out.OptimizedValue)
	}
	if len(out.Edits) > 2 {
		t.Errorf("edit count %d exceeds the addition budget", len(out.Edits))
	}
	for _, edit := range out.Edits {
		if edit.Kind != EditAddEdge {
			t.Errorf("removals were disabled, got %v", edit.Kind)
		}
		if edit.Impact <= 0 {
			t.Errorf("greedy should only apply positive-impact edits, got %v", edit.Impact)
		}
	}
}

func TestOptimizeGraph_PreservedEdgesUntouched(t *testing.T) {
	e := NewEngine()
	g := barbellGraph()

	res, err := e.OptimizeGraph(context.Background(), g, OptimizeOptions{
		Objective: ObjectiveModularity,
		Algorithm: OptimizeGreedy,
		Constraints: OptimizeConstraints{
			MaxEdgeAdditions: -1,
			MaxEdgeRemovals:  3,
			PreserveEdges:    []string{"e6"}, // the bridge
			PreserveNodes:    []string{"a2"},
		},
	})
	if err != nil {
		t.Fatal(err)
	}
	for _, edit := range res.Result.Edits {
		if edit.EdgeID == "e6" {
			t.Error("preserved edge was removed")
		}
		if edit.Kind == EditRemoveEdge && (edit.Source == "a2" || edit.Target == "a2") {
			t.Error("edge incident to preserved node was removed")
		}
	}
}

func TestOptimizeGraph_StochasticMethodsDeterministic(t *testing.T) {
	e := NewEngine()
	g := pathGraph("A", "B", "C", "D")

	for _, alg := range []OptimizationAlgorithm{OptimizeSimulatedAnnealing, OptimizeGenetic} {
		t.Run(string(alg), func(t *testing.T) {
			opts := OptimizeOptions{
				Objective:     ObjectiveEfficiency,
				Algorithm:     alg,
				MaxIterations: 50,
			}
			first, err := e.OptimizeGraph(context.Background(), g, opts)
			if err != nil {
				t.Fatal(err)
			}
			second, err := e.OptimizeGraph(context.Background(), g, opts)
			if err != nil {
				t.Fatal(err)
			}
			if !reflect.DeepEqual(first.Result.Edits, second.Result.Edits) {
				t.Error("fixed-seed runs should produce identical edit lists")
			}
			if first.Result.OptimizedValue != second.Result.OptimizedValue {
				t.Error("fixed-seed runs should produce identical objective values")
			}
		})
	}
}

func TestOptimizeGraph_GradientDescentConverges(t *testing.T) {
	e := NewEngine()
	g := pathGraph("A", "B", "C", "D")

	res, err := e.OptimizeGraph(context.Background(), g, OptimizeOptions{
		Objective: ObjectiveRobustness,
		Algorithm: OptimizeGradientDescent,
	})
	if err != nil {
		t.Fatal(err)
	}
	out := res.Result

	if !out.Converged {
		t.Errorf("expected convergence, final gradient %v", out.FinalGradient)
	}
	if out.OptimizedValue < out.OriginalValue {
		t.Errorf("objective regressed: %v -> %v", out.OriginalValue, out.OptimizedValue)
	}
}

func TestEvaluateObjective_EmptyAndTrivial(t *testing.T) {
	for _, obj := range []OptimizationObjective{
		ObjectiveModularity, ObjectiveEfficiency, ObjectiveRobustness,
		ObjectiveCentrality, ObjectiveFlow,
	} {
		if v := evaluateObjective(&Graph{}, obj); v != 0 {
			t.Errorf("empty graph %s objective = %v, want 0", obj, v)
		}
	}
}

func TestGraphEdit_SuggestedEdge(t *testing.T) {
	add := GraphEdit{Kind: EditAddEdge, Source: "A", Target: "B"}
	edge, ok := add.SuggestedEdge()
	if !ok {
		t.Fatal("add edit should materialize an edge")
	}
	if edge.Source != "A" || edge.Target != "B" || !edge.Bidirectional {
		t.Errorf("unexpected edge %+v", edge)
	}
	if edge.ID == "" {
		t.Error("suggested edge needs a fresh id")
	}

	if _, ok := (GraphEdit{Kind: EditRemoveEdge}).SuggestedEdge(); ok {
		t.Error("remove edit should not materialize an edge")
	}
}
