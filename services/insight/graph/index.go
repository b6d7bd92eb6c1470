// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package graph

import "math"

// =============================================================================
// Graph Index
// =============================================================================

// index is the shared precursor for all matrix-based algorithms. It maps
// node ids to stable positions (insertion order) and materializes the
// adjacency, weight, and capacity matrices.
//
// Direction rule: bidirectional edges populate both matrix cells; directed
// edges populate only source→target. Edges whose endpoints do not resolve
// to existing nodes are skipped.
//
// An index is immutable after construction and safe for concurrent reads.
type index struct {
	ids []string       // stable node order
	pos map[string]int // id → matrix row/column

	adj      [][]bool    // unweighted adjacency
	weight   [][]float64 // edge weight; +Inf off-diagonal default, 0 diagonal
	capacity [][]float64 // flow capacity; 0 when no edge

	out [][]int // directed out-neighbors, deduplicated, ascending
	in  [][]int // directed in-neighbors, deduplicated, ascending
	und [][]int // undirected neighbors, deduplicated, ascending

	// undW is the undirected weighted adjacency used by community
	// detection; parallel edges accumulate.
	undW []map[int]float64

	// edges holds only the valid (non-dangling) edges, in input order.
	edges []Edge
}

// newIndex builds the index for a graph snapshot.
func newIndex(g *Graph) *index {
	n := len(g.Nodes)
	ix := &index{
		ids: make([]string, n),
		pos: make(map[string]int, n),
	}
	for i := range g.Nodes {
		ix.ids[i] = g.Nodes[i].ID
		ix.pos[g.Nodes[i].ID] = i
	}

	ix.adj = make([][]bool, n)
	ix.weight = make([][]float64, n)
	ix.capacity = make([][]float64, n)
	ix.undW = make([]map[int]float64, n)
	for i := 0; i < n; i++ {
		ix.adj[i] = make([]bool, n)
		ix.weight[i] = make([]float64, n)
		ix.capacity[i] = make([]float64, n)
		ix.undW[i] = make(map[int]float64)
		for j := 0; j < n; j++ {
			if i != j {
				ix.weight[i][j] = math.Inf(1)
			}
		}
	}

	outSet := make([]map[int]bool, n)
	inSet := make([]map[int]bool, n)
	undSet := make([]map[int]bool, n)
	for i := 0; i < n; i++ {
		outSet[i] = make(map[int]bool)
		inSet[i] = make(map[int]bool)
		undSet[i] = make(map[int]bool)
	}

	for i := range g.Edges {
		e := &g.Edges[i]
		s, okS := ix.pos[e.Source]
		t, okT := ix.pos[e.Target]
		if !okS || !okT || s == t {
			continue // dangling or self-loop: excluded from analysis
		}
		ix.edges = append(ix.edges, *e)

		w, c := e.Weight(), e.Capacity()
		fill := func(a, b int) {
			ix.adj[a][b] = true
			if w < ix.weight[a][b] {
				ix.weight[a][b] = w
			}
			ix.capacity[a][b] += c
			outSet[a][b] = true
			inSet[b][a] = true
		}
		fill(s, t)
		if e.Bidirectional {
			fill(t, s)
		}

		undSet[s][t] = true
		undSet[t][s] = true
		ix.undW[s][t] += w
		ix.undW[t][s] += w
	}

	ix.out = setsToLists(outSet)
	ix.in = setsToLists(inSet)
	ix.und = setsToLists(undSet)
	return ix
}

func setsToLists(sets []map[int]bool) [][]int {
	lists := make([][]int, len(sets))
	for i, s := range sets {
		lists[i] = make([]int, 0, len(s))
		for j := range s {
			lists[i] = append(lists[i], j)
		}
		sortInts(lists[i])
	}
	return lists
}

// sortInts is an insertion sort; neighbor lists are short and this avoids
// pulling in sort for a hot path with tiny slices.
func sortInts(a []int) {
	for i := 1; i < len(a); i++ {
		for j := i; j > 0 && a[j-1] > a[j]; j-- {
			a[j-1], a[j] = a[j], a[j-1]
		}
	}
}

// n returns the node count.
func (ix *index) n() int { return len(ix.ids) }

// totalUndirectedWeight returns the sum of undirected edge weights (2m in
// modularity notation it is the denominator basis).
func (ix *index) totalUndirectedWeight() float64 {
	sum := 0.0
	for i := range ix.undW {
		for _, w := range ix.undW[i] {
			sum += w
		}
	}
	return sum / 2
}

// weightedDegree returns the undirected weighted degree of node i.
func (ix *index) weightedDegree(i int) float64 {
	sum := 0.0
	for _, w := range ix.undW[i] {
		sum += w
	}
	return sum
}
