// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package graph

import (
	"container/heap"
	"context"
	"math"
	"runtime"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"
)

// maxPathWorkers caps the goroutines used for per-source shortest-path
// runs. Memory-bound traversal does not benefit from excessive parallelism.
const maxPathWorkers = 8

// =============================================================================
// Path Analysis
// =============================================================================

// PathOptions configures ComputePaths.
type PathOptions struct {
	// Algorithm selects the all-pairs shortest-path method.
	Algorithm PathAlgorithm `json:"algorithm"`
}

// PathMetrics aggregates graph-level distance metrics. Unreachable pairs
// are excluded from every aggregate rather than treated as zero.
type PathMetrics struct {
	// Diameter is the maximum finite eccentricity.
	Diameter float64 `json:"diameter"`

	// Radius is the minimum finite eccentricity.
	Radius float64 `json:"radius"`

	// AveragePathLength averages over finite, distinct pairs.
	AveragePathLength float64 `json:"average_path_length"`

	// Eccentricity maps node id to its maximum finite distance. Nodes
	// that reach no other node are omitted.
	Eccentricity map[string]float64 `json:"eccentricity"`

	// CentralNodes have eccentricity equal to the radius.
	CentralNodes []string `json:"central_nodes"`

	// PeripheralNodes have eccentricity equal to the diameter.
	PeripheralNodes []string `json:"peripheral_nodes"`
}

// PathResult holds all-pairs distances plus derived metrics.
type PathResult struct {
	// Distances contains only finite entries: Distances[s][t] is the
	// shortest distance from s to t. Unreachable pairs are absent.
	Distances map[string]map[string]float64 `json:"distances"`

	Metrics PathMetrics `json:"metrics"`
}

// ComputePaths computes all-pairs shortest distances and distance metrics.
//
// Description:
//
//	Dispatches over {dijkstra, floyd_warshall, johnson, bellman_ford}.
//	Dijkstra rejects negative weights; Bellman-Ford and Johnson reject
//	negative cycles. Dijkstra runs its per-source searches in parallel.
//
// Inputs:
//   - ctx: Context for tracing and cancellation of parallel runs.
//   - g: The graph snapshot. Never mutated; empty graphs yield empty
//     results.
//   - opts: Algorithm selection.
//
// Outputs:
//   - *Result[PathResult]: Distances, diameter, radius, eccentricities,
//     central and peripheral node sets.
//   - error: ErrUnknownAlgorithm, ErrNegativeWeight, or ErrNegativeCycle.
//
// Thread Safety: Safe for concurrent use.
func (e *Engine) ComputePaths(ctx context.Context, g *Graph, opts PathOptions) (*Result[PathResult], error) {
	ctx, span := tracer.Start(ctx, "Engine.ComputePaths",
		trace.WithAttributes(
			attribute.String("algorithm", string(opts.Algorithm)),
			attribute.Int("node_count", len(g.Nodes)),
		))
	defer span.End()

	if _, err := ParsePathAlgorithm(string(opts.Algorithm)); err != nil {
		return nil, err
	}

	key := cacheKey("paths", g, optsString(opts.Algorithm))
	if cached, ok := cachedResult[PathResult](e, key); ok {
		recordAnalysis(ctx, "paths", 0, true)
		return cached, nil
	}

	start := time.Now()
	ix := newIndex(g)

	var dist [][]float64
	var err error
	switch opts.Algorithm {
	case PathDijkstra:
		dist, err = allPairsDijkstra(ctx, ix)
	case PathFloydWarshall:
		dist = floydWarshall(ix)
	case PathBellmanFord:
		dist, err = allPairsBellmanFord(ix)
	case PathJohnson:
		dist, err = johnson(ctx, ix)
	}
	if err != nil {
		return nil, err
	}

	out := PathResult{
		Distances: distanceMap(ix, dist),
		Metrics:   pathMetrics(ix, dist),
	}

	elapsed := time.Since(start)
	result := &Result[PathResult]{
		AlgorithmName: "paths/" + string(opts.Algorithm),
		ExecutionTime: elapsed,
		MemoryUsage:   estimateMemory(len(g.Nodes), len(g.Edges)),
		Result:        out,
		Confidence:    1.0,
		Metadata: ResultMetadata{
			Parameters:  map[string]any{"algorithm": opts.Algorithm},
			Convergence: true,
			Iterations:  ix.n(),
			QualityMetrics: map[string]float64{
				"diameter": out.Metrics.Diameter,
				"radius":   out.Metrics.Radius,
			},
		},
	}
	e.cache.set(key, result)
	recordAnalysis(ctx, "paths", elapsed, false)
	return result, nil
}

// allPairsDijkstra runs a binary-heap Dijkstra from every source, in
// parallel across sources.
func allPairsDijkstra(ctx context.Context, ix *index) ([][]float64, error) {
	n := ix.n()
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			if w := ix.weight[i][j]; !math.IsInf(w, 1) && i != j && w < 0 {
				return nil, ErrNegativeWeight
			}
		}
	}

	dist := make([][]float64, n)
	grp, _ := errgroup.WithContext(ctx)
	grp.SetLimit(min(maxPathWorkers, runtime.NumCPU()))
	for s := 0; s < n; s++ {
		grp.Go(func() error {
			dist[s] = dijkstraFrom(ix, s, nil)
			return nil
		})
	}
	if err := grp.Wait(); err != nil {
		return nil, err
	}
	return dist, nil
}

// dijkstraFrom computes single-source distances. When potentials is
// non-nil the edge weights are Johnson-reweighted on the fly.
func dijkstraFrom(ix *index, s int, potentials []float64) []float64 {
	n := ix.n()
	dist := make([]float64, n)
	for i := range dist {
		dist[i] = math.Inf(1)
	}
	dist[s] = 0

	pq := &distHeap{{node: s, dist: 0}}
	visited := make([]bool, n)
	for pq.Len() > 0 {
		item := heap.Pop(pq).(distItem)
		u := item.node
		if visited[u] {
			continue
		}
		visited[u] = true
		for _, v := range ix.out[u] {
			w := ix.weight[u][v]
			if potentials != nil {
				w += potentials[u] - potentials[v]
			}
			if d := dist[u] + w; d < dist[v] {
				dist[v] = d
				heap.Push(pq, distItem{node: v, dist: d})
			}
		}
	}

	if potentials != nil {
		for t := range dist {
			if !math.IsInf(dist[t], 1) {
				dist[t] += potentials[t] - potentials[s]
			}
		}
	}
	return dist
}

type distItem struct {
	node int
	dist float64
}

type distHeap []distItem

func (h distHeap) Len() int            { return len(h) }
func (h distHeap) Less(i, j int) bool  { return h[i].dist < h[j].dist }
func (h distHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i] }
func (h *distHeap) Push(x any)         { *h = append(*h, x.(distItem)) }
func (h *distHeap) Pop() any           { old := *h; n := len(old); x := old[n-1]; *h = old[:n-1]; return x }

// floydWarshall runs the classic O(V³) dynamic program on a copy of the
// weight matrix.
func floydWarshall(ix *index) [][]float64 {
	n := ix.n()
	dist := make([][]float64, n)
	for i := 0; i < n; i++ {
		dist[i] = append([]float64(nil), ix.weight[i]...)
	}
	for k := 0; k < n; k++ {
		for i := 0; i < n; i++ {
			if math.IsInf(dist[i][k], 1) {
				continue
			}
			for j := 0; j < n; j++ {
				if d := dist[i][k] + dist[k][j]; d < dist[i][j] {
					dist[i][j] = d
				}
			}
		}
	}
	return dist
}

// bellmanFordFrom relaxes all valid edges V-1 times and reports negative
// cycles on the V-th pass.
func bellmanFordFrom(ix *index, s int) ([]float64, error) {
	n := ix.n()
	dist := make([]float64, n)
	for i := range dist {
		dist[i] = math.Inf(1)
	}
	dist[s] = 0

	relax := func() bool {
		changed := false
		for u := 0; u < n; u++ {
			if math.IsInf(dist[u], 1) {
				continue
			}
			for _, v := range ix.out[u] {
				if d := dist[u] + ix.weight[u][v]; d < dist[v] {
					dist[v] = d
					changed = true
				}
			}
		}
		return changed
	}

	for i := 0; i < n-1; i++ {
		if !relax() {
			return dist, nil
		}
	}
	if relax() {
		return nil, ErrNegativeCycle
	}
	return dist, nil
}

func allPairsBellmanFord(ix *index) ([][]float64, error) {
	n := ix.n()
	dist := make([][]float64, n)
	for s := 0; s < n; s++ {
		d, err := bellmanFordFrom(ix, s)
		if err != nil {
			return nil, err
		}
		dist[s] = d
	}
	return dist, nil
}

// johnson computes potentials with a virtual-source Bellman-Ford, then
// runs reweighted Dijkstra from every source.
func johnson(ctx context.Context, ix *index) ([][]float64, error) {
	n := ix.n()

	// Virtual source: zero-weight edge to every node. Equivalent to
	// initializing every distance to 0 and relaxing.
	h := make([]float64, n)
	for i := 0; i < n-1; i++ {
		changed := false
		for u := 0; u < n; u++ {
			for _, v := range ix.out[u] {
				if d := h[u] + ix.weight[u][v]; d < h[v] {
					h[v] = d
					changed = true
				}
			}
		}
		if !changed {
			break
		}
	}
	for u := 0; u < n; u++ {
		for _, v := range ix.out[u] {
			if h[u]+ix.weight[u][v] < h[v] {
				return nil, ErrNegativeCycle
			}
		}
	}

	dist := make([][]float64, n)
	grp, _ := errgroup.WithContext(ctx)
	grp.SetLimit(min(maxPathWorkers, runtime.NumCPU()))
	for s := 0; s < n; s++ {
		grp.Go(func() error {
			dist[s] = dijkstraFrom(ix, s, h)
			return nil
		})
	}
	if err := grp.Wait(); err != nil {
		return nil, err
	}
	return dist, nil
}

// distanceMap converts the dense matrix to an id-keyed map of finite
// entries.
func distanceMap(ix *index, dist [][]float64) map[string]map[string]float64 {
	out := make(map[string]map[string]float64, ix.n())
	for s := range dist {
		row := make(map[string]float64)
		for t, d := range dist[s] {
			if !math.IsInf(d, 1) {
				row[ix.ids[t]] = d
			}
		}
		out[ix.ids[s]] = row
	}
	return out
}

// pathMetrics derives eccentricities, diameter, radius, average path
// length, and the central/peripheral node sets. Unreachable pairs are
// excluded, never counted as zero.
func pathMetrics(ix *index, dist [][]float64) PathMetrics {
	m := PathMetrics{Eccentricity: make(map[string]float64)}

	sum, pairs := 0.0, 0
	diameter := math.Inf(-1)
	radius := math.Inf(1)
	for s := range dist {
		ecc := math.Inf(-1)
		for t, d := range dist[s] {
			if s == t || math.IsInf(d, 1) {
				continue
			}
			sum += d
			pairs++
			if d > ecc {
				ecc = d
			}
		}
		if !math.IsInf(ecc, -1) {
			m.Eccentricity[ix.ids[s]] = ecc
			if ecc > diameter {
				diameter = ecc
			}
			if ecc < radius {
				radius = ecc
			}
		}
	}

	if pairs == 0 {
		return m
	}
	m.AveragePathLength = sum / float64(pairs)
	m.Diameter = diameter
	m.Radius = radius
	for s := range dist {
		ecc, ok := m.Eccentricity[ix.ids[s]]
		if !ok {
			continue
		}
		if ecc == radius {
			m.CentralNodes = append(m.CentralNodes, ix.ids[s])
		}
		if ecc == diameter {
			m.PeripheralNodes = append(m.PeripheralNodes, ix.ids[s])
		}
	}
	return m
}
