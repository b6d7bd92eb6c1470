// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package graph

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// BottleneckUtilization is the flow/capacity ratio above which an edge is
// reported as a bottleneck.
const BottleneckUtilization = 0.9

// =============================================================================
// Maximum Flow / Minimum Cut
// =============================================================================

// FlowOptions configures ComputeMaxFlow.
type FlowOptions struct {
	// Algorithm selects the max-flow method.
	Algorithm FlowAlgorithm `json:"algorithm"`

	// Source and Sink must name existing nodes; a missing endpoint is a
	// hard error raised before any flow computation runs.
	Source string `json:"source"`
	Sink   string `json:"sink"`
}

// FlowEdge reports the flow pushed across one edge.
type FlowEdge struct {
	Source      string  `json:"source"`
	Target      string  `json:"target"`
	Flow        float64 `json:"flow"`
	Capacity    float64 `json:"capacity"`
	Utilization float64 `json:"utilization"`
}

// Bottleneck is a highly utilized edge ranked by criticality.
type Bottleneck struct {
	FlowEdge
	// Criticality ranks bottlenecks: utilization weighted by the flow
	// volume passing through the edge.
	Criticality float64 `json:"criticality"`
}

// MinCut describes the minimum-capacity edge set separating source from
// sink, together with the two node partitions.
type MinCut struct {
	Capacity        float64    `json:"capacity"`
	Edges           []FlowEdge `json:"edges"`
	SourcePartition []string   `json:"source_partition"`
	SinkPartition   []string   `json:"sink_partition"`
}

// FlowResult is the payload of ComputeMaxFlow.
type FlowResult struct {
	MaxFlow     float64      `json:"max_flow"`
	MinCut      MinCut       `json:"min_cut"`
	EdgeFlows   []FlowEdge   `json:"edge_flows"`
	Bottlenecks []Bottleneck `json:"bottlenecks"`
}

// ComputeMaxFlow computes the maximum flow from source to sink.
//
// Description:
//
//	Dispatches over {ford_fulkerson, edmonds_karp, dinic, push_relabel},
//	all operating on the capacity matrix (edge metadata "capacity",
//	falling back to confidence, then 1). After the flow is computed the
//	minimum cut is derived from residual reachability, and edges with
//	utilization above BottleneckUtilization are ranked by criticality.
//
// Inputs:
//   - ctx: Context for tracing.
//   - g: The graph snapshot. Never mutated.
//   - opts: Algorithm plus source/sink ids.
//
// Outputs:
//   - *Result[FlowResult]: Flow value, min cut, edge flows, bottlenecks.
//   - error: ErrUnknownAlgorithm for a bad tag; ErrNodeNotFound naming
//     the missing endpoint, raised before any computation.
//
// Thread Safety: Safe for concurrent use.
func (e *Engine) ComputeMaxFlow(ctx context.Context, g *Graph, opts FlowOptions) (*Result[FlowResult], error) {
	ctx, span := tracer.Start(ctx, "Engine.ComputeMaxFlow",
		trace.WithAttributes(
			attribute.String("algorithm", string(opts.Algorithm)),
			attribute.String("source", opts.Source),
			attribute.String("sink", opts.Sink),
		))
	defer span.End()

	if _, err := ParseFlowAlgorithm(string(opts.Algorithm)); err != nil {
		return nil, err
	}

	ix := newIndex(g)
	s, ok := ix.pos[opts.Source]
	if !ok {
		return nil, fmt.Errorf("%w: flow source %q", ErrNodeNotFound, opts.Source)
	}
	t, ok := ix.pos[opts.Sink]
	if !ok {
		return nil, fmt.Errorf("%w: flow sink %q", ErrNodeNotFound, opts.Sink)
	}

	key := cacheKey("maxflow", g, optsString(opts.Algorithm, opts.Source, opts.Sink))
	if cached, ok := cachedResult[FlowResult](e, key); ok {
		recordAnalysis(ctx, "maxflow", 0, true)
		return cached, nil
	}

	start := time.Now()
	n := ix.n()
	residual := make([][]float64, n)
	for i := 0; i < n; i++ {
		residual[i] = append([]float64(nil), ix.capacity[i]...)
	}

	var value float64
	var iterations int
	switch opts.Algorithm {
	case FlowEdmondsKarp:
		value, iterations = edmondsKarp(residual, s, t)
	case FlowFordFulkerson:
		value, iterations = fordFulkerson(residual, s, t)
	case FlowDinic:
		value, iterations = dinic(residual, s, t)
	case FlowPushRelabel:
		value, iterations = pushRelabel(residual, s, t)
	}

	out := flowResult(ix, residual, s, t, value)

	elapsed := time.Since(start)
	result := &Result[FlowResult]{
		AlgorithmName: "maxflow/" + string(opts.Algorithm),
		ExecutionTime: elapsed,
		MemoryUsage:   estimateMemory(n, len(g.Edges)),
		Result:        out,
		Confidence:    1.0,
		Metadata: ResultMetadata{
			Parameters: map[string]any{
				"algorithm": opts.Algorithm,
				"source":    opts.Source,
				"sink":      opts.Sink,
			},
			Convergence: true,
			Iterations:  iterations,
			QualityMetrics: map[string]float64{
				"max_flow":         value,
				"min_cut_capacity": out.MinCut.Capacity,
			},
		},
	}
	e.cache.set(key, result)
	recordAnalysis(ctx, "maxflow", elapsed, false)
	return result, nil
}

// edmondsKarp augments along shortest residual paths (BFS).
func edmondsKarp(residual [][]float64, s, t int) (float64, int) {
	n := len(residual)
	total := 0.0
	iterations := 0
	for {
		parent := make([]int, n)
		for i := range parent {
			parent[i] = -1
		}
		parent[s] = s
		queue := []int{s}
		for len(queue) > 0 && parent[t] < 0 {
			u := queue[0]
			queue = queue[1:]
			for v := 0; v < n; v++ {
				if parent[v] < 0 && residual[u][v] > 0 {
					parent[v] = u
					queue = append(queue, v)
				}
			}
		}
		if parent[t] < 0 {
			return total, iterations
		}
		iterations++
		total += augment(residual, parent, s, t)
	}
}

// fordFulkerson augments along DFS paths.
func fordFulkerson(residual [][]float64, s, t int) (float64, int) {
	n := len(residual)
	total := 0.0
	iterations := 0
	for {
		parent := make([]int, n)
		for i := range parent {
			parent[i] = -1
		}
		parent[s] = s
		stack := []int{s}
		for len(stack) > 0 && parent[t] < 0 {
			u := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			for v := n - 1; v >= 0; v-- {
				if parent[v] < 0 && residual[u][v] > 0 {
					parent[v] = u
					stack = append(stack, v)
				}
			}
		}
		if parent[t] < 0 {
			return total, iterations
		}
		iterations++
		total += augment(residual, parent, s, t)
	}
}

// augment pushes the path bottleneck along parent[] and updates the
// residual matrix.
func augment(residual [][]float64, parent []int, s, t int) float64 {
	bottleneck := math.Inf(1)
	for v := t; v != s; v = parent[v] {
		if r := residual[parent[v]][v]; r < bottleneck {
			bottleneck = r
		}
	}
	for v := t; v != s; v = parent[v] {
		residual[parent[v]][v] -= bottleneck
		residual[v][parent[v]] += bottleneck
	}
	return bottleneck
}

// dinic builds BFS level graphs and sends blocking flows with DFS.
func dinic(residual [][]float64, s, t int) (float64, int) {
	n := len(residual)
	total := 0.0
	phases := 0

	for {
		level := make([]int, n)
		for i := range level {
			level[i] = -1
		}
		level[s] = 0
		queue := []int{s}
		for len(queue) > 0 {
			u := queue[0]
			queue = queue[1:]
			for v := 0; v < n; v++ {
				if level[v] < 0 && residual[u][v] > 0 {
					level[v] = level[u] + 1
					queue = append(queue, v)
				}
			}
		}
		if level[t] < 0 {
			return total, phases
		}
		phases++

		next := make([]int, n)
		var push func(u int, limit float64) float64
		push = func(u int, limit float64) float64 {
			if u == t {
				return limit
			}
			for ; next[u] < n; next[u]++ {
				v := next[u]
				if residual[u][v] <= 0 || level[v] != level[u]+1 {
					continue
				}
				sent := push(v, math.Min(limit, residual[u][v]))
				if sent > 0 {
					residual[u][v] -= sent
					residual[v][u] += sent
					return sent
				}
			}
			return 0
		}
		for {
			sent := push(s, math.Inf(1))
			if sent == 0 {
				break
			}
			total += sent
		}
	}
}

// pushRelabel is the FIFO push-relabel algorithm.
func pushRelabel(residual [][]float64, s, t int) (float64, int) {
	n := len(residual)
	height := make([]int, n)
	excess := make([]float64, n)
	height[s] = n

	var queue []int
	inQueue := make([]bool, n)
	enqueue := func(v int) {
		if !inQueue[v] && v != s && v != t && excess[v] > 0 {
			inQueue[v] = true
			queue = append(queue, v)
		}
	}

	for v := 0; v < n; v++ {
		if residual[s][v] > 0 {
			f := residual[s][v]
			residual[s][v] = 0
			residual[v][s] += f
			excess[v] += f
			excess[s] -= f
			enqueue(v)
		}
	}

	relabels := 0
	for len(queue) > 0 {
		u := queue[0]
		queue = queue[1:]
		inQueue[u] = false

		for v := 0; v < n && excess[u] > 0; v++ {
			if residual[u][v] > 0 && height[u] == height[v]+1 {
				f := math.Min(excess[u], residual[u][v])
				residual[u][v] -= f
				residual[v][u] += f
				excess[u] -= f
				excess[v] += f
				enqueue(v)
			}
		}
		if excess[u] > 0 {
			minHeight := math.MaxInt
			for v := 0; v < n; v++ {
				if residual[u][v] > 0 && height[v] < minHeight {
					minHeight = height[v]
				}
			}
			if minHeight < math.MaxInt {
				height[u] = minHeight + 1
				relabels++
				enqueue(u)
			}
		}
	}
	return excess[t], relabels
}

// flowResult derives per-edge flows, the minimum cut, and bottlenecks
// from the final residual matrix.
func flowResult(ix *index, residual [][]float64, s, t int, value float64) FlowResult {
	n := ix.n()

	var edgeFlows []FlowEdge
	var bottlenecks []Bottleneck
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			cap := ix.capacity[i][j]
			if cap <= 0 {
				continue
			}
			flow := cap - residual[i][j]
			if flow <= 0 {
				continue
			}
			fe := FlowEdge{
				Source:      ix.ids[i],
				Target:      ix.ids[j],
				Flow:        flow,
				Capacity:    cap,
				Utilization: flow / cap,
			}
			edgeFlows = append(edgeFlows, fe)
			if fe.Utilization >= BottleneckUtilization {
				bottlenecks = append(bottlenecks, Bottleneck{
					FlowEdge:    fe,
					Criticality: fe.Utilization * fe.Flow,
				})
			}
		}
	}
	sort.Slice(bottlenecks, func(i, j int) bool {
		return bottlenecks[i].Criticality > bottlenecks[j].Criticality
	})

	// Min cut: nodes reachable from s in the residual graph form the
	// source partition; saturated edges crossing it form the cut.
	reach := make([]bool, n)
	reach[s] = true
	queue := []int{s}
	for len(queue) > 0 {
		u := queue[0]
		queue = queue[1:]
		for v := 0; v < n; v++ {
			if !reach[v] && residual[u][v] > 0 {
				reach[v] = true
				queue = append(queue, v)
			}
		}
	}

	cut := MinCut{}
	for i := 0; i < n; i++ {
		if reach[i] {
			cut.SourcePartition = append(cut.SourcePartition, ix.ids[i])
		} else {
			cut.SinkPartition = append(cut.SinkPartition, ix.ids[i])
		}
	}
	for i := 0; i < n; i++ {
		if !reach[i] {
			continue
		}
		for j := 0; j < n; j++ {
			if reach[j] || ix.capacity[i][j] <= 0 {
				continue
			}
			cap := ix.capacity[i][j]
			cut.Capacity += cap
			cut.Edges = append(cut.Edges, FlowEdge{
				Source:      ix.ids[i],
				Target:      ix.ids[j],
				Flow:        cap - residual[i][j],
				Capacity:    cap,
				Utilization: (cap - residual[i][j]) / cap,
			})
		}
	}

	return FlowResult{
		MaxFlow:     value,
		MinCut:      cut,
		EdgeFlows:   edgeFlows,
		Bottlenecks: bottlenecks,
	}
}
