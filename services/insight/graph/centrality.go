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
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// =============================================================================
// Centrality
// =============================================================================

// Centrality configuration constants.
const (
	// PageRankDamping is the probability of following a link (vs random
	// jump). Standard value from the original PageRank paper.
	PageRankDamping = 0.85

	// CentralityIterationBudget caps power iteration for PageRank,
	// eigenvector, and Katz centrality.
	CentralityIterationBudget = 100

	// CentralityConvergence stops power iteration early when the maximum
	// per-node change drops below this threshold.
	CentralityConvergence = 1e-6

	// KatzAttenuation is the attenuation factor for Katz centrality.
	KatzAttenuation = 0.1

	// SubgraphSeriesTerms truncates the matrix-exponential series used by
	// subgraph centrality.
	SubgraphSeriesTerms = 8
)

// CentralityOptions configures ComputeCentrality.
type CentralityOptions struct {
	// Measures selects which centralities to compute. Empty = all.
	Measures []CentralityMeasure `json:"measures,omitempty"`

	// Normalize min-max scales each measure independently into [0,1].
	// Measures with zero variance are left unchanged.
	Normalize bool `json:"normalize"`
}

// CentralityResult maps each computed measure to per-node scores.
type CentralityResult struct {
	Measures map[CentralityMeasure]map[string]float64 `json:"measures"`
}

// ComputeCentrality computes the selected centrality measures.
//
// Description:
//
//	Runs each requested measure over the graph index and returns per-node
//	scores. PageRank uses damping 0.85 with a 100-iteration power budget
//	and even load splitting across out-edges; degree centrality
//	normalizes by |V|-1. With Normalize set, each measure is min-max
//	scaled into [0,1] unless it has zero variance.
//
// Inputs:
//   - ctx: Context for tracing. Must not be nil.
//   - g: The graph snapshot. Never mutated. An empty graph yields empty
//     score maps, not an error.
//   - opts: Measure selection and normalization flag.
//
// Outputs:
//   - *Result[CentralityResult]: The envelope with per-measure scores.
//   - error: ErrUnknownAlgorithm if a measure tag is not supported.
//
// Thread Safety: Safe for concurrent use.
func (e *Engine) ComputeCentrality(ctx context.Context, g *Graph, opts CentralityOptions) (*Result[CentralityResult], error) {
	ctx, span := tracer.Start(ctx, "Engine.ComputeCentrality",
		trace.WithAttributes(
			attribute.Int("node_count", len(g.Nodes)),
			attribute.Int("edge_count", len(g.Edges)),
		))
	defer span.End()

	measures := opts.Measures
	if len(measures) == 0 {
		measures = AllCentralityMeasures()
	}
	for _, m := range measures {
		if _, err := ParseCentralityMeasure(string(m)); err != nil {
			return nil, err
		}
	}

	key := cacheKey("centrality", g, optsString(measures, opts.Normalize))
	if cached, ok := cachedResult[CentralityResult](e, key); ok {
		recordAnalysis(ctx, "centrality", 0, true)
		return cached, nil
	}

	start := time.Now()
	ix := newIndex(g)

	out := CentralityResult{Measures: make(map[CentralityMeasure]map[string]float64, len(measures))}
	iterations := 0
	converged := true

	for _, m := range measures {
		var scores []float64
		switch m {
		case CentralityDegree:
			scores = degreeCentrality(ix)
		case CentralityBetweenness:
			scores = betweennessCentrality(ix)
		case CentralityCloseness:
			scores = closenessCentrality(ix)
		case CentralityHarmonic:
			scores = harmonicCentrality(ix)
		case CentralityPageRank:
			var it int
			var conv bool
			scores, it, conv = pageRank(ix)
			iterations = max(iterations, it)
			converged = converged && conv
		case CentralityEigenvector:
			var it int
			var conv bool
			scores, it, conv = eigenvectorCentrality(ix)
			iterations = max(iterations, it)
			converged = converged && conv
		case CentralityKatz:
			var it int
			var conv bool
			scores, it, conv = katzCentrality(ix)
			iterations = max(iterations, it)
			converged = converged && conv
		case CentralitySubgraph:
			scores = subgraphCentrality(ix)
		}
		if opts.Normalize {
			minMaxScale(scores)
		}
		byID := make(map[string]float64, ix.n())
		for i, s := range scores {
			byID[ix.ids[i]] = s
		}
		out.Measures[m] = byID
	}

	confidence := 1.0
	if !converged {
		confidence = 0.8
	}

	elapsed := time.Since(start)
	result := &Result[CentralityResult]{
		AlgorithmName: "centrality",
		ExecutionTime: elapsed,
		MemoryUsage:   estimateMemory(len(g.Nodes), len(g.Edges)),
		Result:        out,
		Confidence:    confidence,
		Metadata: ResultMetadata{
			Parameters: map[string]any{
				"measures":  measures,
				"normalize": opts.Normalize,
			},
			Convergence: converged,
			Iterations:  iterations,
			QualityMetrics: map[string]float64{
				"measures_computed": float64(len(measures)),
			},
		},
	}
	e.cache.set(key, result)
	recordAnalysis(ctx, "centrality", elapsed, false)
	return result, nil
}

// degreeCentrality normalizes undirected degree by |V|-1.
func degreeCentrality(ix *index) []float64 {
	n := ix.n()
	scores := make([]float64, n)
	if n <= 1 {
		return scores
	}
	for i := 0; i < n; i++ {
		scores[i] = float64(len(ix.und[i])) / float64(n-1)
	}
	return scores
}

// betweennessCentrality implements Brandes' algorithm over the directed
// unweighted graph.
//
// Complexity: O(V·E).
func betweennessCentrality(ix *index) []float64 {
	n := ix.n()
	scores := make([]float64, n)

	for s := 0; s < n; s++ {
		// BFS phase.
		stack := make([]int, 0, n)
		preds := make([][]int, n)
		sigma := make([]float64, n)
		dist := make([]int, n)
		for i := range dist {
			dist[i] = -1
		}
		sigma[s] = 1
		dist[s] = 0
		queue := []int{s}
		for len(queue) > 0 {
			v := queue[0]
			queue = queue[1:]
			stack = append(stack, v)
			for _, w := range ix.out[v] {
				if dist[w] < 0 {
					dist[w] = dist[v] + 1
					queue = append(queue, w)
				}
				if dist[w] == dist[v]+1 {
					sigma[w] += sigma[v]
					preds[w] = append(preds[w], v)
				}
			}
		}

		// Accumulation phase.
		delta := make([]float64, n)
		for i := len(stack) - 1; i >= 0; i-- {
			w := stack[i]
			for _, v := range preds[w] {
				delta[v] += sigma[v] / sigma[w] * (1 + delta[w])
			}
			if w != s {
				scores[w] += delta[w]
			}
		}
	}
	return scores
}

// closenessCentrality uses the Wasserman-Faust variant, which scales by
// the reachable fraction so disconnected graphs stay comparable.
func closenessCentrality(ix *index) []float64 {
	n := ix.n()
	scores := make([]float64, n)
	if n <= 1 {
		return scores
	}
	for s := 0; s < n; s++ {
		dist := bfsDistances(ix, s)
		sum, reach := 0.0, 0
		for t, d := range dist {
			if t != s && d >= 0 {
				sum += float64(d)
				reach++
			}
		}
		if sum > 0 {
			r := float64(reach)
			scores[s] = (r / float64(n-1)) * (r / sum)
		}
	}
	return scores
}

// harmonicCentrality sums reciprocal distances.
func harmonicCentrality(ix *index) []float64 {
	n := ix.n()
	scores := make([]float64, n)
	for s := 0; s < n; s++ {
		dist := bfsDistances(ix, s)
		for t, d := range dist {
			if t != s && d > 0 {
				scores[s] += 1 / float64(d)
			}
		}
	}
	return scores
}

// bfsDistances returns hop distances from s over out-edges; -1 marks
// unreachable nodes.
func bfsDistances(ix *index, s int) []int {
	dist := make([]int, ix.n())
	for i := range dist {
		dist[i] = -1
	}
	dist[s] = 0
	queue := []int{s}
	for len(queue) > 0 {
		v := queue[0]
		queue = queue[1:]
		for _, w := range ix.out[v] {
			if dist[w] < 0 {
				dist[w] = dist[v] + 1
				queue = append(queue, w)
			}
		}
	}
	return dist
}

// pageRank runs power iteration with damping 0.85, even out-edge load
// splitting, and sink redistribution to prevent rank leakage.
func pageRank(ix *index) (scores []float64, iterations int, converged bool) {
	n := ix.n()
	scores = make([]float64, n)
	if n == 0 {
		return scores, 0, true
	}

	for i := range scores {
		scores[i] = 1 / float64(n)
	}
	next := make([]float64, n)

	for iterations = 1; iterations <= CentralityIterationBudget; iterations++ {
		base := (1 - PageRankDamping) / float64(n)
		sinkMass := 0.0
		for i := 0; i < n; i++ {
			next[i] = base
			if len(ix.out[i]) == 0 {
				sinkMass += scores[i]
			}
		}
		sinkShare := PageRankDamping * sinkMass / float64(n)
		for i := 0; i < n; i++ {
			next[i] += sinkShare
		}
		for v := 0; v < n; v++ {
			if deg := len(ix.out[v]); deg > 0 {
				share := PageRankDamping * scores[v] / float64(deg)
				for _, w := range ix.out[v] {
					next[w] += share
				}
			}
		}

		maxDiff := 0.0
		for i := 0; i < n; i++ {
			if d := math.Abs(next[i] - scores[i]); d > maxDiff {
				maxDiff = d
			}
		}
		scores, next = next, scores
		if maxDiff < CentralityConvergence {
			return scores, iterations, true
		}
	}
	return scores, CentralityIterationBudget, false
}

// eigenvectorCentrality runs power iteration on the undirected adjacency
// with L2 normalization each step.
func eigenvectorCentrality(ix *index) (scores []float64, iterations int, converged bool) {
	n := ix.n()
	scores = make([]float64, n)
	if n == 0 {
		return scores, 0, true
	}
	for i := range scores {
		scores[i] = 1
	}
	next := make([]float64, n)

	for iterations = 1; iterations <= CentralityIterationBudget; iterations++ {
		for i := 0; i < n; i++ {
			next[i] = 0
			for _, j := range ix.und[i] {
				next[i] += scores[j]
			}
		}
		norm := 0.0
		for _, v := range next {
			norm += v * v
		}
		norm = math.Sqrt(norm)
		if norm == 0 {
			// No edges: every score stays zero.
			return next, iterations, true
		}
		maxDiff := 0.0
		for i := 0; i < n; i++ {
			next[i] /= norm
			if d := math.Abs(next[i] - scores[i]); d > maxDiff {
				maxDiff = d
			}
		}
		scores, next = next, scores
		if maxDiff < CentralityConvergence {
			return scores, iterations, true
		}
	}
	return scores, CentralityIterationBudget, false
}

// katzCentrality iterates x ← α·Aᵀx + 1 over in-edges.
func katzCentrality(ix *index) (scores []float64, iterations int, converged bool) {
	n := ix.n()
	scores = make([]float64, n)
	if n == 0 {
		return scores, 0, true
	}
	next := make([]float64, n)

	for iterations = 1; iterations <= CentralityIterationBudget; iterations++ {
		maxDiff := 0.0
		for i := 0; i < n; i++ {
			sum := 0.0
			for _, j := range ix.in[i] {
				sum += scores[j]
			}
			next[i] = KatzAttenuation*sum + 1
			if d := math.Abs(next[i] - scores[i]); d > maxDiff {
				maxDiff = d
			}
		}
		scores, next = next, scores
		if maxDiff < CentralityConvergence {
			return scores, iterations, true
		}
	}
	return scores, CentralityIterationBudget, false
}

// subgraphCentrality computes the diagonal of exp(A) via a truncated
// series over the undirected adjacency: Σ_k (A^k)_ii / k!.
func subgraphCentrality(ix *index) []float64 {
	n := ix.n()
	scores := make([]float64, n)
	if n == 0 {
		return scores
	}

	// power starts as A and is repeatedly multiplied by A.
	power := make([][]float64, n)
	adjF := make([][]float64, n)
	for i := 0; i < n; i++ {
		power[i] = make([]float64, n)
		adjF[i] = make([]float64, n)
		for _, j := range ix.und[i] {
			power[i][j] = 1
			adjF[i][j] = 1
		}
		scores[i] = 1 // k=0 term: identity diagonal
	}

	factorial := 1.0
	for k := 1; k <= SubgraphSeriesTerms; k++ {
		factorial *= float64(k)
		for i := 0; i < n; i++ {
			scores[i] += power[i][i] / factorial
		}
		if k < SubgraphSeriesTerms {
			power = matMul(power, adjF)
		}
	}
	return scores
}

func matMul(a, b [][]float64) [][]float64 {
	n := len(a)
	out := make([][]float64, n)
	for i := 0; i < n; i++ {
		out[i] = make([]float64, n)
		for k := 0; k < n; k++ {
			if a[i][k] == 0 {
				continue
			}
			aik := a[i][k]
			for j := 0; j < n; j++ {
				out[i][j] += aik * b[k][j]
			}
		}
	}
	return out
}

// minMaxScale rescales scores into [0,1] in place. Zero-variance slices
// are left unchanged to avoid a divide by zero.
func minMaxScale(scores []float64) {
	if len(scores) == 0 {
		return
	}
	lo, hi := scores[0], scores[0]
	for _, s := range scores[1:] {
		if s < lo {
			lo = s
		}
		if s > hi {
			hi = s
		}
	}
	if hi == lo {
		return
	}
	for i := range scores {
		scores[i] = (scores[i] - lo) / (hi - lo)
	}
}
