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
	"sort"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Community-detection configuration constants.
const (
	// DefaultResolution affects community granularity. Higher values
	// produce smaller communities.
	DefaultResolution = 1.0

	// DefaultCommunityIterations caps the outer loops of the iterative
	// community algorithms.
	DefaultCommunityIterations = 100

	// walktrapSteps is the random-walk length used by the walktrap
	// distance measure.
	walktrapSteps = 3

	// spectralMaxDepth bounds recursive spectral bisection.
	spectralMaxDepth = 8
)

// =============================================================================
// Community Detection
// =============================================================================

// CommunityOptions configures DetectCommunities.
type CommunityOptions struct {
	// Algorithm selects the detection method.
	Algorithm CommunityAlgorithm `json:"algorithm"`

	// Resolution tunes granularity for modularity-based methods.
	// Default: 1.0
	Resolution float64 `json:"resolution,omitempty"`

	// MaxIterations caps the outer loop. Default: 100
	MaxIterations int `json:"max_iterations,omitempty"`

	// Hierarchical requests the merge tree in addition to the final
	// partition.
	Hierarchical bool `json:"hierarchical"`
}

// validate applies defaults for unset values.
func (o *CommunityOptions) validate() {
	if o.Resolution <= 0 {
		o.Resolution = DefaultResolution
	}
	if o.MaxIterations <= 0 {
		o.MaxIterations = DefaultCommunityIterations
	}
}

// DetectedCommunity is one community in the final partition.
type DetectedCommunity struct {
	ID    int      `json:"id"`
	Nodes []string `json:"nodes"`
	Size  int      `json:"size"`

	// Density is internal edges over possible internal edges.
	Density float64 `json:"density"`

	// Modularity is this community's contribution to the partition
	// modularity.
	Modularity float64 `json:"modularity"`

	// Conductance is external edge weight over total incident weight.
	// Lower is better separated.
	Conductance float64 `json:"conductance"`
}

// MergeLevel is one level of the hierarchical merge tree, from finest
// (level 0) to coarsest.
type MergeLevel struct {
	Level       int        `json:"level"`
	Communities [][]string `json:"communities"`
}

// CommunityQuality aggregates partition-level quality metrics.
type CommunityQuality struct {
	Modularity  float64 `json:"modularity"`
	Coverage    float64 `json:"coverage"`
	Performance float64 `json:"performance"`
	Conductance float64 `json:"conductance"`
}

// CommunityResult is the payload of DetectCommunities.
type CommunityResult struct {
	Communities []DetectedCommunity `json:"communities"`
	Hierarchy   []MergeLevel        `json:"hierarchy,omitempty"`
	Quality     CommunityQuality    `json:"quality"`
}

// DetectCommunities partitions the graph into communities.
//
// Description:
//
//	Dispatches over {louvain, leiden, infomap, spectral, walktrap,
//	label_propagation}; an unknown tag is a hard error, never a silent
//	fallback. All methods operate on the undirected weighted view of the
//	graph. With Hierarchical set, the merge tree built during
//	aggregation (or agglomeration) is returned alongside the partition.
//
// Inputs:
//   - ctx: Context for tracing.
//   - g: The graph snapshot. Never mutated; an empty graph yields an
//     empty partition.
//   - opts: Algorithm, resolution, iteration cap, hierarchy flag.
//
// Outputs:
//   - *Result[CommunityResult]: Partition, optional hierarchy, quality.
//   - error: ErrUnknownAlgorithm naming the tag.
//
// Thread Safety: Safe for concurrent use.
func (e *Engine) DetectCommunities(ctx context.Context, g *Graph, opts CommunityOptions) (*Result[CommunityResult], error) {
	ctx, span := tracer.Start(ctx, "Engine.DetectCommunities",
		trace.WithAttributes(
			attribute.String("algorithm", string(opts.Algorithm)),
			attribute.Int("node_count", len(g.Nodes)),
		))
	defer span.End()

	if _, err := ParseCommunityAlgorithm(string(opts.Algorithm)); err != nil {
		return nil, err
	}
	opts.validate()

	key := cacheKey("communities", g, optsString(opts.Algorithm, opts.Resolution, opts.MaxIterations, opts.Hierarchical))
	if cached, ok := cachedResult[CommunityResult](e, key); ok {
		recordAnalysis(ctx, "communities", 0, true)
		return cached, nil
	}

	start := time.Now()
	ix := newIndex(g)

	var partition []int
	var levels [][]int
	var iterations int
	var converged bool
	switch opts.Algorithm {
	case CommunityLouvain:
		partition, levels, iterations, converged = louvain(ix, opts, false)
	case CommunityLeiden:
		partition, levels, iterations, converged = louvain(ix, opts, true)
	case CommunityLabelPropagation:
		partition, iterations, converged = labelPropagation(ix, opts)
		levels = [][]int{partition}
	case CommunitySpectral:
		partition = spectralPartition(ix, opts)
		levels = [][]int{partition}
		iterations, converged = 1, true
	case CommunityWalktrap:
		partition, levels = walktrap(ix, opts)
		iterations, converged = len(levels), true
	case CommunityInfomap:
		partition, iterations, converged = infomap(ix, opts)
		levels = [][]int{partition}
	}

	out := buildCommunityResult(ix, partition, opts)
	if opts.Hierarchical {
		out.Hierarchy = buildHierarchy(ix, levels)
	}

	elapsed := time.Since(start)
	result := &Result[CommunityResult]{
		AlgorithmName: "communities/" + string(opts.Algorithm),
		ExecutionTime: elapsed,
		MemoryUsage:   estimateMemory(len(g.Nodes), len(g.Edges)),
		Result:        out,
		Confidence:    communityConfidence(out.Quality.Modularity, converged),
		Metadata: ResultMetadata{
			Parameters: map[string]any{
				"algorithm":    opts.Algorithm,
				"resolution":   opts.Resolution,
				"hierarchical": opts.Hierarchical,
			},
			Convergence: converged,
			Iterations:  iterations,
			QualityMetrics: map[string]float64{
				"modularity":  out.Quality.Modularity,
				"coverage":    out.Quality.Coverage,
				"performance": out.Quality.Performance,
				"conductance": out.Quality.Conductance,
				"communities": float64(len(out.Communities)),
			},
		},
	}
	e.cache.set(key, result)
	recordAnalysis(ctx, "communities", elapsed, false)
	return result, nil
}

func communityConfidence(modularity float64, converged bool) float64 {
	c := 0.5 + modularity/2
	if !converged {
		c *= 0.9
	}
	return math.Min(math.Max(c, 0), 1)
}

// =============================================================================
// Working Graph (for aggregation levels)
// =============================================================================

// workGraph is a weighted undirected multigraph with self-loops, used by
// the aggregating algorithms.
type workGraph struct {
	adj   []map[int]float64 // neighbor → weight; self-loop holds internal weight
	total float64           // sum of all edge weights (2m)
}

func newWorkGraph(ix *index) *workGraph {
	n := ix.n()
	wg := &workGraph{adj: make([]map[int]float64, n)}
	for i := 0; i < n; i++ {
		wg.adj[i] = make(map[int]float64, len(ix.undW[i]))
		for j, w := range ix.undW[i] {
			wg.adj[i][j] = w
			wg.total += w
		}
	}
	return wg
}

func (wg *workGraph) degree(i int) float64 {
	sum := 0.0
	for j, w := range wg.adj[i] {
		sum += w
		if j == i {
			sum += w // self-loops count twice in degree
		}
	}
	return sum
}

// aggregate collapses communities into super-nodes.
func (wg *workGraph) aggregate(partition []int) (*workGraph, []int) {
	labels := normalizeLabels(partition)
	nComm := 0
	for _, l := range labels {
		if l+1 > nComm {
			nComm = l + 1
		}
	}
	out := &workGraph{adj: make([]map[int]float64, nComm), total: wg.total}
	for i := range out.adj {
		out.adj[i] = make(map[int]float64)
	}
	for i := range wg.adj {
		ci := labels[i]
		for j, w := range wg.adj[i] {
			cj := labels[j]
			if i == j {
				out.adj[ci][ci] += w
			} else if ci == cj {
				out.adj[ci][ci] += w / 2 // each internal edge visited twice
			} else {
				out.adj[ci][cj] += w / 2
				out.adj[cj][ci] += w / 2
			}
		}
	}
	return out, labels
}

// normalizeLabels renumbers arbitrary labels to 0..k-1 preserving first
// appearance order.
func normalizeLabels(partition []int) []int {
	remap := make(map[int]int)
	out := make([]int, len(partition))
	for i, l := range partition {
		if _, ok := remap[l]; !ok {
			remap[l] = len(remap)
		}
		out[i] = remap[l]
	}
	return out
}

// =============================================================================
// Louvain / Leiden
// =============================================================================

// louvain runs the Louvain method: local moving plus aggregation until
// modularity stops improving. With refine set (Leiden), each level splits
// internally disconnected communities before aggregation, which repairs
// the badly-connected-community defect of plain Louvain.
func louvain(ix *index, opts CommunityOptions, refine bool) (partition []int, levels [][]int, iterations int, converged bool) {
	n := ix.n()
	partition = make([]int, n)
	for i := range partition {
		partition[i] = i
	}
	if n == 0 {
		return partition, nil, 0, true
	}

	wg := newWorkGraph(ix)
	current := make([]int, n) // original node → current super-node
	for i := range current {
		current[i] = i
	}

	for level := 0; level < opts.MaxIterations; level++ {
		iterations = level + 1
		local, moved := localMoving(wg, opts)
		if refine {
			local = splitDisconnected(wg, local)
		}
		if !moved && level > 0 {
			converged = true
			break
		}

		// Map original nodes through this level's assignment.
		labels := normalizeLabels(local)
		for i := range current {
			current[i] = labels[current[i]]
		}
		partition = append([]int(nil), current...)
		levels = append(levels, append([]int(nil), partition...))

		next, _ := wg.aggregate(local)
		if len(next.adj) == len(wg.adj) {
			converged = true
			break
		}
		wg = next
	}
	return partition, levels, iterations, converged
}

// localMoving greedily moves nodes to the neighboring community with the
// highest modularity gain until a full pass makes no move.
func localMoving(wg *workGraph, opts CommunityOptions) (partition []int, moved bool) {
	n := len(wg.adj)
	partition = make([]int, n)
	commTot := make([]float64, n) // total degree per community
	for i := 0; i < n; i++ {
		partition[i] = i
		commTot[i] = wg.degree(i)
	}
	m2 := wg.total
	if m2 == 0 {
		return partition, false
	}

	for pass := 0; pass < DefaultCommunityIterations; pass++ {
		passMoved := false
		for i := 0; i < n; i++ {
			ci := partition[i]
			ki := wg.degree(i)

			// Weight from i to each neighboring community.
			toComm := map[int]float64{}
			for j, w := range wg.adj[i] {
				if j != i {
					toComm[partition[j]] += w
				}
			}

			commTot[ci] -= ki
			bestComm, bestGain := ci, 0.0
			// Deterministic order: ascending community label.
			cands := make([]int, 0, len(toComm))
			for c := range toComm {
				cands = append(cands, c)
			}
			sortInts(cands)
			for _, c := range cands {
				gain := toComm[c] - opts.Resolution*commTot[c]*ki/m2
				base := toComm[ci] - opts.Resolution*commTot[ci]*ki/m2
				if gain-base > bestGain+1e-12 {
					bestGain = gain - base
					bestComm = c
				}
			}
			commTot[bestComm] += ki
			if bestComm != ci {
				partition[i] = bestComm
				passMoved = true
				moved = true
			}
		}
		if !passMoved {
			break
		}
	}
	return partition, moved
}

// splitDisconnected breaks each community into its connected pieces.
func splitDisconnected(wg *workGraph, partition []int) []int {
	n := len(wg.adj)
	out := make([]int, n)
	for i := range out {
		out[i] = -1
	}
	next := 0
	for s := 0; s < n; s++ {
		if out[s] >= 0 {
			continue
		}
		label := next
		next++
		queue := []int{s}
		out[s] = label
		for len(queue) > 0 {
			v := queue[0]
			queue = queue[1:]
			for j := range wg.adj[v] {
				if j != v && out[j] < 0 && partition[j] == partition[s] {
					out[j] = label
					queue = append(queue, j)
				}
			}
		}
	}
	return out
}

// =============================================================================
// Label Propagation
// =============================================================================

// labelPropagation adopts the highest-weight neighbor label each pass,
// breaking ties toward the smaller label for determinism.
func labelPropagation(ix *index, opts CommunityOptions) (partition []int, iterations int, converged bool) {
	n := ix.n()
	partition = make([]int, n)
	for i := range partition {
		partition[i] = i
	}

	for iterations = 1; iterations <= opts.MaxIterations; iterations++ {
		changed := false
		for i := 0; i < n; i++ {
			weightOf := map[int]float64{}
			for j, w := range ix.undW[i] {
				weightOf[partition[j]] += w
			}
			best, bestW := partition[i], weightOf[partition[i]]
			labels := make([]int, 0, len(weightOf))
			for l := range weightOf {
				labels = append(labels, l)
			}
			sortInts(labels)
			for _, l := range labels {
				if weightOf[l] > bestW+1e-12 || (weightOf[l] == bestW && l < best) {
					best, bestW = l, weightOf[l]
				}
			}
			if best != partition[i] {
				partition[i] = best
				changed = true
			}
		}
		if !changed {
			return normalizeLabels(partition), iterations, true
		}
	}
	return normalizeLabels(partition), opts.MaxIterations, false
}

// =============================================================================
// Spectral Bisection
// =============================================================================

// spectralPartition recursively bisects by Fiedler-vector sign, keeping a
// split only when it improves modularity.
func spectralPartition(ix *index, opts CommunityOptions) []int {
	n := ix.n()
	partition := make([]int, n)
	if n == 0 {
		return partition
	}

	all := make([]int, n)
	for i := range all {
		all[i] = i
	}
	next := 1

	var bisect func(nodes []int, label, depth int)
	bisect = func(nodes []int, label, depth int) {
		if depth >= spectralMaxDepth || len(nodes) < 4 {
			return
		}
		left, right := fiedlerSplit(ix, nodes)
		if len(left) == 0 || len(right) == 0 {
			return
		}

		trial := append([]int(nil), partition...)
		newLabel := next
		for _, v := range right {
			trial[v] = newLabel
		}
		if partitionModularity(ix, trial, opts.Resolution) <= partitionModularity(ix, partition, opts.Resolution)+1e-12 {
			return
		}
		next++
		copy(partition, trial)
		bisect(left, label, depth+1)
		bisect(right, newLabel, depth+1)
	}
	bisect(all, 0, 0)
	return normalizeLabels(partition)
}

// fiedlerSplit computes the Fiedler vector of the induced subgraph and
// splits nodes by sign.
func fiedlerSplit(ix *index, nodes []int) (left, right []int) {
	k := len(nodes)
	local := make(map[int]int, k)
	for li, v := range nodes {
		local[v] = li
	}

	deg := make([]float64, k)
	adj := make([][]int, k)
	maxDeg := 0.0
	for li, v := range nodes {
		for _, w := range ix.und[v] {
			if lw, ok := local[w]; ok {
				adj[li] = append(adj[li], lw)
				deg[li]++
			}
		}
		if deg[li] > maxDeg {
			maxDeg = deg[li]
		}
	}
	c := 2*maxDeg + 1

	x := make([]float64, k)
	for i := range x {
		x[i] = float64(i) - float64(k-1)/2
	}
	nextV := make([]float64, k)
	for iter := 0; iter < 200; iter++ {
		for i := 0; i < k; i++ {
			nextV[i] = (c - deg[i]) * x[i]
			for _, j := range adj[i] {
				nextV[i] += x[j]
			}
		}
		mean := 0.0
		for _, v := range nextV {
			mean += v
		}
		mean /= float64(k)
		norm := 0.0
		for i := range nextV {
			nextV[i] -= mean
			norm += nextV[i] * nextV[i]
		}
		norm = math.Sqrt(norm)
		if norm == 0 {
			return nil, nil
		}
		for i := range nextV {
			nextV[i] /= norm
		}
		x, nextV = nextV, x
	}

	for li, v := range nodes {
		if x[li] >= 0 {
			left = append(left, v)
		} else {
			right = append(right, v)
		}
	}
	return left, right
}

// =============================================================================
// Walktrap
// =============================================================================

// walktrap merges communities agglomeratively by random-walk distance,
// accepting merges while modularity improves. The merge sequence doubles
// as the hierarchy.
func walktrap(ix *index, opts CommunityOptions) (partition []int, levels [][]int) {
	n := ix.n()
	partition = make([]int, n)
	for i := range partition {
		partition[i] = i
	}
	if n == 0 {
		return partition, nil
	}

	// t-step transition distributions per node.
	walks := walkDistributions(ix)

	best := append([]int(nil), partition...)
	bestQ := partitionModularity(ix, best, opts.Resolution)
	levels = append(levels, append([]int(nil), best...))

	active := make(map[int][]int, n) // community → member nodes
	for i := 0; i < n; i++ {
		active[i] = []int{i}
	}

	for len(active) > 1 {
		// Find the closest pair of adjacent communities.
		bestA, bestB, bestDist := -1, -1, math.Inf(1)
		keys := make([]int, 0, len(active))
		for c := range active {
			keys = append(keys, c)
		}
		sortInts(keys)
		for ai, a := range keys {
			for _, b := range keys[ai+1:] {
				if !communitiesAdjacent(ix, active[a], active[b]) {
					continue
				}
				d := walkDistance(walks, active[a], active[b])
				if d < bestDist {
					bestA, bestB, bestDist = a, b, d
				}
			}
		}
		if bestA < 0 {
			break // no adjacent pairs left
		}

		for _, v := range active[bestB] {
			partition[v] = bestA
		}
		active[bestA] = append(active[bestA], active[bestB]...)
		delete(active, bestB)
		levels = append(levels, append([]int(nil), normalizeLabels(partition)...))

		if q := partitionModularity(ix, partition, opts.Resolution); q > bestQ {
			bestQ = q
			best = append([]int(nil), partition...)
		}
	}
	return normalizeLabels(best), levels
}

// walkDistributions returns the walktrapSteps-step transition probability
// vector for each node.
func walkDistributions(ix *index) [][]float64 {
	n := ix.n()
	dist := make([][]float64, n)
	for i := 0; i < n; i++ {
		dist[i] = make([]float64, n)
		dist[i][i] = 1
	}
	for step := 0; step < walktrapSteps; step++ {
		next := make([][]float64, n)
		for i := 0; i < n; i++ {
			next[i] = make([]float64, n)
			for j, p := range dist[i] {
				if p == 0 {
					continue
				}
				total := 0.0
				for _, w := range ix.undW[j] {
					total += w
				}
				if total == 0 {
					next[i][j] += p
					continue
				}
				for k, w := range ix.undW[j] {
					next[i][k] += p * w / total
				}
			}
		}
		dist = next
	}
	return dist
}

func communitiesAdjacent(ix *index, a, b []int) bool {
	inB := map[int]bool{}
	for _, v := range b {
		inB[v] = true
	}
	for _, v := range a {
		for _, w := range ix.und[v] {
			if inB[w] {
				return true
			}
		}
	}
	return false
}

// walkDistance is the L2 distance between community-averaged walk
// distributions.
func walkDistance(walks [][]float64, a, b []int) float64 {
	n := len(walks)
	avgA := make([]float64, n)
	avgB := make([]float64, n)
	for _, v := range a {
		for j, p := range walks[v] {
			avgA[j] += p / float64(len(a))
		}
	}
	for _, v := range b {
		for j, p := range walks[v] {
			avgB[j] += p / float64(len(b))
		}
	}
	sum := 0.0
	for j := 0; j < n; j++ {
		d := avgA[j] - avgB[j]
		sum += d * d
	}
	return math.Sqrt(sum)
}

// =============================================================================
// Infomap
// =============================================================================

// infomap greedily moves nodes between modules to minimize the map
// equation codelength, with PageRank scores as visit rates.
func infomap(ix *index, opts CommunityOptions) (partition []int, iterations int, converged bool) {
	n := ix.n()
	partition = make([]int, n)
	for i := range partition {
		partition[i] = i
	}
	if n == 0 {
		return partition, 0, true
	}

	rank, _, _ := pageRank(ix)
	current := mapCodelength(ix, partition, rank)

	for iterations = 1; iterations <= opts.MaxIterations; iterations++ {
		changed := false
		for i := 0; i < n; i++ {
			cands := map[int]bool{}
			for _, j := range ix.und[i] {
				cands[partition[j]] = true
			}
			labels := make([]int, 0, len(cands))
			for l := range cands {
				labels = append(labels, l)
			}
			sortInts(labels)

			orig := partition[i]
			bestLabel, bestLen := orig, current
			for _, l := range labels {
				if l == orig {
					continue
				}
				partition[i] = l
				if cl := mapCodelength(ix, partition, rank); cl < bestLen-1e-12 {
					bestLabel, bestLen = l, cl
				}
			}
			partition[i] = bestLabel
			if bestLabel != orig {
				current = bestLen
				changed = true
			}
		}
		if !changed {
			return normalizeLabels(partition), iterations, true
		}
	}
	return normalizeLabels(partition), opts.MaxIterations, false
}

// mapCodelength computes the two-level map equation L(M).
func mapCodelength(ix *index, partition []int, rank []float64) float64 {
	n := ix.n()
	labels := normalizeLabels(partition)
	nComm := 0
	for _, l := range labels {
		if l+1 > nComm {
			nComm = l + 1
		}
	}

	// Exit probability per module: rank-weighted fraction of edge weight
	// leaving the module.
	exit := make([]float64, nComm)
	inside := make([]float64, nComm)
	for i := 0; i < n; i++ {
		inside[labels[i]] += rank[i]
		total := 0.0
		for _, w := range ix.undW[i] {
			total += w
		}
		if total == 0 {
			continue
		}
		for j, w := range ix.undW[i] {
			if labels[j] != labels[i] {
				exit[labels[i]] += rank[i] * w / total
			}
		}
	}

	plogp := func(p float64) float64 {
		if p <= 0 {
			return 0
		}
		return p * math.Log2(p)
	}

	sumExit := 0.0
	for _, q := range exit {
		sumExit += q
	}

	codelength := plogp(sumExit)
	for _, q := range exit {
		codelength -= 2 * plogp(q)
	}
	for i := 0; i < n; i++ {
		codelength -= plogp(rank[i])
	}
	for c := 0; c < nComm; c++ {
		codelength += plogp(exit[c] + inside[c])
	}
	return codelength
}

// =============================================================================
// Partition Quality
// =============================================================================

// partitionModularity computes Newman modularity Q with a resolution
// parameter over the undirected weighted view.
func partitionModularity(ix *index, partition []int, resolution float64) float64 {
	m2 := 0.0
	for i := range ix.undW {
		for _, w := range ix.undW[i] {
			m2 += w
		}
	}
	if m2 == 0 {
		return 0
	}

	q := 0.0
	for i := range ix.undW {
		for j, w := range ix.undW[i] {
			if partition[i] == partition[j] {
				q += w - resolution*ix.weightedDegree(i)*ix.weightedDegree(j)/m2
			}
		}
	}
	return q / m2
}

// buildCommunityResult assembles per-community and partition-level
// metrics from a final partition.
func buildCommunityResult(ix *index, partition []int, opts CommunityOptions) CommunityResult {
	n := ix.n()
	out := CommunityResult{}
	if n == 0 {
		return out
	}
	labels := normalizeLabels(partition)

	members := map[int][]int{}
	for i, l := range labels {
		members[l] = append(members[l], i)
	}
	commIDs := make([]int, 0, len(members))
	for c := range members {
		commIDs = append(commIDs, c)
	}
	sortInts(commIDs)

	m2 := 0.0
	for i := range ix.undW {
		for _, w := range ix.undW[i] {
			m2 += w
		}
	}

	totalConductance := 0.0
	intraWeight := 0.0
	for _, c := range commIDs {
		nodes := members[c]
		inSet := map[int]bool{}
		for _, v := range nodes {
			inSet[v] = true
		}

		internal, external := 0.0, 0.0
		contribution := 0.0
		for _, v := range nodes {
			for j, w := range ix.undW[v] {
				if inSet[j] {
					internal += w
					contribution += w - opts.Resolution*ix.weightedDegree(v)*ix.weightedDegree(j)/math.Max(m2, 1e-12)
				} else {
					external += w
				}
			}
		}
		internal /= 2 // visited from both endpoints
		intraWeight += internal

		size := len(nodes)
		density := 0.0
		if size > 1 {
			density = internal / (float64(size*(size-1)) / 2)
		}
		conductance := 0.0
		if internal+external > 0 {
			conductance = external / (2*internal + external)
		}
		totalConductance += conductance

		ids := make([]string, size)
		for i, v := range nodes {
			ids[i] = ix.ids[v]
		}
		sort.Strings(ids)

		modContribution := 0.0
		if m2 > 0 {
			modContribution = contribution / m2
		}
		out.Communities = append(out.Communities, DetectedCommunity{
			ID:          c,
			Nodes:       ids,
			Size:        size,
			Density:     math.Min(density, 1),
			Modularity:  modContribution,
			Conductance: conductance,
		})
	}

	totalWeight := m2 / 2
	out.Quality = CommunityQuality{
		Modularity: partitionModularity(ix, labels, opts.Resolution),
	}
	if totalWeight > 0 {
		out.Quality.Coverage = intraWeight / totalWeight
	}
	if len(out.Communities) > 0 {
		out.Quality.Conductance = totalConductance / float64(len(out.Communities))
	}
	out.Quality.Performance = partitionPerformance(ix, labels)
	return out
}

// partitionPerformance counts correctly classified pairs: intra-community
// edges plus inter-community non-edges, over all pairs.
func partitionPerformance(ix *index, labels []int) float64 {
	n := ix.n()
	if n < 2 {
		return 1
	}
	correct := 0
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			connected := containsInt(ix.und[i], j)
			same := labels[i] == labels[j]
			if (connected && same) || (!connected && !same) {
				correct++
			}
		}
	}
	return float64(correct) / float64(n*(n-1)/2)
}

// buildHierarchy converts per-level label vectors into the merge tree.
func buildHierarchy(ix *index, levels [][]int) []MergeLevel {
	out := make([]MergeLevel, 0, len(levels))
	for li, labels := range levels {
		members := map[int][]string{}
		for i, l := range labels {
			members[l] = append(members[l], ix.ids[i])
		}
		keys := make([]int, 0, len(members))
		for c := range members {
			keys = append(keys, c)
		}
		sortInts(keys)
		lvl := MergeLevel{Level: li}
		for _, c := range keys {
			ids := members[c]
			sort.Strings(ids)
			lvl.Communities = append(lvl.Communities, ids)
		}
		out = append(out, lvl)
	}
	return out
}
