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

func TestDetectCommunities_BarbellSplits(t *testing.T) {
	e := NewEngine()
	g := barbellGraph()

	for _, alg := range []CommunityAlgorithm{CommunityLouvain, CommunityLeiden, CommunitySpectral, CommunityWalktrap} {
		t.Run(string(alg), func(t *testing.T) {
			res, err := e.DetectCommunities(context.Background(), g, CommunityOptions{Algorithm: alg})
			if err != nil {
				t.Fatal(err)
			}
			out := res.Result

			if len(out.Communities) != 2 {
				t.Fatalf("communities = %d, want 2 (got %+v)", len(out.Communities), out.Communities)
			}
			for _, c := range out.Communities {
				if c.Size != 3 {
					t.Errorf("community size = %d, want 3", c.Size)
				}
			}
			if out.Quality.Modularity <= 0.2 {
				t.Errorf("modularity = %v, want > 0.2", out.Quality.Modularity)
			}
			if out.Quality.Coverage <= 0.5 || out.Quality.Coverage > 1 {
				t.Errorf("coverage = %v out of expected range", out.Quality.Coverage)
			}
		})
	}
}

func TestDetectCommunities_AllNodesAssigned(t *testing.T) {
	e := NewEngine()
	g := barbellGraph()

	for _, alg := range []CommunityAlgorithm{
		CommunityLouvain, CommunityLeiden, CommunityInfomap,
		CommunitySpectral, CommunityWalktrap, CommunityLabelPropagation,
	} {
		t.Run(string(alg), func(t *testing.T) {
			res, err := e.DetectCommunities(context.Background(), g, CommunityOptions{Algorithm: alg})
			if err != nil {
				t.Fatal(err)
			}
			assigned := map[string]int{}
			for _, c := range res.Result.Communities {
				for _, id := range c.Nodes {
					assigned[id]++
				}
			}
			if len(assigned) != len(g.Nodes) {
				t.Errorf("%d nodes assigned, want %d", len(assigned), len(g.Nodes))
			}
			for id, n := range assigned {
				if n != 1 {
					t.Errorf("node %s assigned %d times", id, n)
				}
			}
		})
	}
}

func TestDetectCommunities_Hierarchical(t *testing.T) {
	e := NewEngine()
	g := barbellGraph()

	res, err := e.DetectCommunities(context.Background(), g, CommunityOptions{
		Algorithm:    CommunityWalktrap,
		Hierarchical: true,
	})
	if err != nil {
		t.Fatal(err)
	}
	out := res.Result

	if len(out.Hierarchy) < 2 {
		t.Fatalf("expected a multi-level merge tree, got %d levels", len(out.Hierarchy))
	}
	// The finest level is all singletons; levels coarsen monotonically.
	if len(out.Hierarchy[0].Communities) != len(g.Nodes) {
		t.Errorf("level 0 has %d communities, want %d singletons", len(out.Hierarchy[0].Communities), len(g.Nodes))
	}
	for i := 1; i < len(out.Hierarchy); i++ {
		if len(out.Hierarchy[i].Communities) > len(out.Hierarchy[i-1].Communities) {
			t.Error("merge tree should never split on the way up")
		}
	}
}

func TestDetectCommunities_ConductanceBounds(t *testing.T) {
	e := NewEngine()
	g := barbellGraph()

	res, err := e.DetectCommunities(context.Background(), g, CommunityOptions{Algorithm: CommunityLouvain})
	if err != nil {
		t.Fatal(err)
	}
	for _, c := range res.Result.Communities {
		if c.Conductance < 0 || c.Conductance > 1 {
			t.Errorf("conductance %v out of [0,1]", c.Conductance)
		}
		if c.Density < 0 || c.Density > 1 {
			t.Errorf("density %v out of [0,1]", c.Density)
		}
	}
	if p := res.Result.Quality.Performance; p < 0 || p > 1 {
		t.Errorf("performance %v out of [0,1]", p)
	}
}

func TestPartitionModularity_UniformPartitionIsZero(t *testing.T) {
	g := barbellGraph()
	ix := newIndex(g)
	partition := make([]int, ix.n()) // everyone in community 0

	q := partitionModularity(ix, partition, DefaultResolution)
	if q > 1e-9 || q < -1e-2 {
		t.Errorf("single-community modularity = %v, want ~0", q)
	}
}
