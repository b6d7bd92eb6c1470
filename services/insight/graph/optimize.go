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
	"math/rand"
	"sort"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Optimizer configuration constants.
const (
	// DefaultOptimizerIterations caps the optimizer outer loop.
	DefaultOptimizerIterations = 100

	// DefaultOptimizerSeed seeds the stochastic optimizers so repeated
	// runs over the same graph produce the same edit list.
	DefaultOptimizerSeed = 42

	// DefaultMaxEdgeEdits bounds additions and removals when the caller
	// leaves the constraint unset.
	DefaultMaxEdgeEdits = 10

	// optimizerTolerance is the convergence threshold on objective
	// improvement.
	optimizerTolerance = 1e-4

	// maxCandidateEdits caps the enumerated edit pool so dense graphs
	// stay tractable.
	maxCandidateEdits = 200

	annealingInitialTemp = 1.0
	annealingCooling     = 0.95

	geneticPopulation = 20
	geneticMutation   = 0.1
)

// =============================================================================
// Graph Optimization
// =============================================================================

// OptimizeConstraints bounds the edits an optimizer may propose.
type OptimizeConstraints struct {
	// MaxEdgeAdditions / MaxEdgeRemovals cap edit counts. Zero means the
	// default of 10; negative disables that edit kind.
	MaxEdgeAdditions int `json:"max_edge_additions,omitempty"`
	MaxEdgeRemovals  int `json:"max_edge_removals,omitempty"`

	// PreserveNodes lists node IDs whose incident edges must not be
	// removed.
	PreserveNodes []string `json:"preserve_nodes,omitempty"`

	// PreserveEdges lists edge IDs that must not be removed.
	PreserveEdges []string `json:"preserve_edges,omitempty"`
}

// OptimizeOptions configures OptimizeGraph.
type OptimizeOptions struct {
	Objective   OptimizationObjective `json:"objective"`
	Algorithm   OptimizationAlgorithm `json:"algorithm"`
	Constraints OptimizeConstraints   `json:"constraints"`

	// MaxIterations caps the outer loop. Default: 100
	MaxIterations int `json:"max_iterations,omitempty"`

	// Seed overrides the fixed default seed for the stochastic methods.
	Seed int64 `json:"seed,omitempty"`
}

func (o *OptimizeOptions) validate() {
	if o.MaxIterations <= 0 {
		o.MaxIterations = DefaultOptimizerIterations
	}
	if o.Seed == 0 {
		o.Seed = DefaultOptimizerSeed
	}
	if o.Constraints.MaxEdgeAdditions == 0 {
		o.Constraints.MaxEdgeAdditions = DefaultMaxEdgeEdits
	}
	if o.Constraints.MaxEdgeRemovals == 0 {
		o.Constraints.MaxEdgeRemovals = DefaultMaxEdgeEdits
	}
}

// EditKind tags a proposed graph edit.
type EditKind string

const (
	EditAddEdge    EditKind = "add_edge"
	EditRemoveEdge EditKind = "remove_edge"
)

// GraphEdit is one proposed modification with its measured objective
// impact.
type GraphEdit struct {
	Kind   EditKind `json:"kind"`
	EdgeID string   `json:"edge_id,omitempty"`
	Source string   `json:"source"`
	Target string   `json:"target"`

	// Impact is the objective delta this edit contributed at the point
	// it was applied.
	Impact float64 `json:"impact"`
}

// OptimizeResult reports the outcome of an optimization run.
type OptimizeResult struct {
	Objective      OptimizationObjective `json:"objective"`
	OriginalValue  float64               `json:"original_value"`
	OptimizedValue float64               `json:"optimized_value"`
	Edits          []GraphEdit           `json:"edits"`
	Converged      bool                  `json:"converged"`
	Iterations     int                   `json:"iterations"`

	// FinalGradient is the best remaining single-edit improvement at
	// termination; near zero means a local optimum.
	FinalGradient float64 `json:"final_gradient"`
}

// OptimizeGraph searches for edge edits that improve a structural
// objective under the given constraints.
//
// Description:
//
//	Dispatches over {greedy, simulated_annealing, genetic,
//	gradient_descent} against an objective in {modularity, efficiency,
//	robustness, centrality, flow}. The input graph is never mutated; the
//	result is the edit list plus before/after objective values and
//	convergence diagnostics. Stochastic methods draw from a fixed-seed
//	source so runs are reproducible.
//
// Inputs:
//   - ctx: Context for tracing.
//   - g: The graph snapshot.
//   - opts: Objective, algorithm, constraints, iteration cap, seed.
//
// Outputs:
//   - *Result[OptimizeResult]: Edits and diagnostics.
//   - error: ErrUnknownAlgorithm naming the unknown objective or
//     algorithm tag.
//
// Thread Safety: Safe for concurrent use.
func (e *Engine) OptimizeGraph(ctx context.Context, g *Graph, opts OptimizeOptions) (*Result[OptimizeResult], error) {
	ctx, span := tracer.Start(ctx, "Engine.OptimizeGraph",
		trace.WithAttributes(
			attribute.String("objective", string(opts.Objective)),
			attribute.String("algorithm", string(opts.Algorithm)),
		))
	defer span.End()

	if _, err := ParseOptimizationObjective(string(opts.Objective)); err != nil {
		return nil, err
	}
	if _, err := ParseOptimizationAlgorithm(string(opts.Algorithm)); err != nil {
		return nil, err
	}
	opts.validate()

	start := time.Now()
	state := newOptimizerState(g, opts)

	var out OptimizeResult
	switch opts.Algorithm {
	case OptimizeGreedy:
		out = state.greedy(opts)
	case OptimizeSimulatedAnnealing:
		out = state.simulatedAnnealing(opts)
	case OptimizeGenetic:
		out = state.genetic(opts)
	case OptimizeGradientDescent:
		out = state.gradientDescent(opts)
	}
	out.Objective = opts.Objective

	elapsed := time.Since(start)
	result := &Result[OptimizeResult]{
		AlgorithmName: "optimize/" + string(opts.Algorithm),
		ExecutionTime: elapsed,
		MemoryUsage:   estimateMemory(len(g.Nodes), len(g.Edges)),
		Result:        out,
		Confidence:    optimizeConfidence(out),
		Metadata: ResultMetadata{
			Parameters: map[string]any{
				"objective": opts.Objective,
				"algorithm": opts.Algorithm,
				"seed":      opts.Seed,
			},
			Convergence: out.Converged,
			Iterations:  out.Iterations,
			QualityMetrics: map[string]float64{
				"improvement":    out.OptimizedValue - out.OriginalValue,
				"edits":          float64(len(out.Edits)),
				"final_gradient": out.FinalGradient,
			},
		},
	}
	recordAnalysis(ctx, "optimize", elapsed, false)
	return result, nil
}

func optimizeConfidence(out OptimizeResult) float64 {
	c := 0.7
	if out.Converged {
		c += 0.2
	}
	if out.OptimizedValue > out.OriginalValue {
		c += 0.1
	}
	return math.Min(c, 1)
}

// =============================================================================
// Optimizer State
// =============================================================================

// optimizerState holds the working graph copy and the enumerated edit
// pool. Edits toggle membership in applied; evaluation rebuilds the
// index from the edited edge set.
type optimizerState struct {
	base       *Graph
	objective  OptimizationObjective
	candidates []GraphEdit
	applied    []bool
}

func newOptimizerState(g *Graph, opts OptimizeOptions) *optimizerState {
	s := &optimizerState{base: g.Clone(), objective: opts.Objective}
	s.candidates = enumerateEdits(s.base, opts.Constraints)
	s.applied = make([]bool, len(s.candidates))
	return s
}

// enumerateEdits builds the bounded, deterministic candidate pool:
// removable existing edges first, then addable non-adjacent pairs
// ordered by combined degree.
func enumerateEdits(g *Graph, c OptimizeConstraints) []GraphEdit {
	preserveNode := map[string]bool{}
	for _, id := range c.PreserveNodes {
		preserveNode[id] = true
	}
	preserveEdge := map[string]bool{}
	for _, id := range c.PreserveEdges {
		preserveEdge[id] = true
	}

	var out []GraphEdit
	if c.MaxEdgeRemovals > 0 {
		edges := append([]Edge(nil), g.Edges...)
		sort.Slice(edges, func(i, j int) bool { return edges[i].ID < edges[j].ID })
		for _, e := range edges {
			if preserveEdge[e.ID] || preserveNode[e.Source] || preserveNode[e.Target] {
				continue
			}
			out = append(out, GraphEdit{Kind: EditRemoveEdge, EdgeID: e.ID, Source: e.Source, Target: e.Target})
		}
	}

	if c.MaxEdgeAdditions > 0 {
		ix := newIndex(g)
		type pair struct {
			i, j   int
			degree int
		}
		var pairs []pair
		for i := 0; i < ix.n(); i++ {
			for j := i + 1; j < ix.n(); j++ {
				if !containsInt(ix.und[i], j) {
					pairs = append(pairs, pair{i, j, len(ix.und[i]) + len(ix.und[j])})
				}
			}
		}
		sort.Slice(pairs, func(a, b int) bool {
			if pairs[a].degree != pairs[b].degree {
				return pairs[a].degree > pairs[b].degree
			}
			if ix.ids[pairs[a].i] != ix.ids[pairs[b].i] {
				return ix.ids[pairs[a].i] < ix.ids[pairs[b].i]
			}
			return ix.ids[pairs[a].j] < ix.ids[pairs[b].j]
		})
		for _, p := range pairs {
			if len(out) >= maxCandidateEdits {
				break
			}
			out = append(out, GraphEdit{Kind: EditAddEdge, Source: ix.ids[p.i], Target: ix.ids[p.j]})
		}
	}
	if len(out) > maxCandidateEdits {
		out = out[:maxCandidateEdits]
	}
	return out
}

// editedGraph materializes the current edit set.
func (s *optimizerState) editedGraph() *Graph {
	removed := map[string]bool{}
	var added []Edge
	for i, on := range s.applied {
		if !on {
			continue
		}
		e := s.candidates[i]
		switch e.Kind {
		case EditRemoveEdge:
			removed[e.EdgeID] = true
		case EditAddEdge:
			added = append(added, Edge{
				ID:            fmt.Sprintf("opt-%s-%s", e.Source, e.Target),
				Source:        e.Source,
				Target:        e.Target,
				Type:          "suggested",
				Confidence:    DefaultEdgeConfidence,
				Bidirectional: true,
			})
		}
	}

	out := &Graph{Nodes: s.base.Nodes, Hyperedges: s.base.Hyperedges, Metadata: s.base.Metadata}
	for _, e := range s.base.Edges {
		if !removed[e.ID] {
			out.Edges = append(out.Edges, e)
		}
	}
	out.Edges = append(out.Edges, added...)
	return out
}

func (s *optimizerState) evaluate() float64 {
	return evaluateObjective(s.editedGraph(), s.objective)
}

// counts returns applied additions and removals.
func (s *optimizerState) counts() (adds, removals int) {
	for i, on := range s.applied {
		if !on {
			continue
		}
		if s.candidates[i].Kind == EditAddEdge {
			adds++
		} else {
			removals++
		}
	}
	return adds, removals
}

// allowed reports whether toggling candidate i on keeps the edit budget.
func (s *optimizerState) allowed(i int, c OptimizeConstraints) bool {
	if s.applied[i] {
		return true
	}
	adds, removals := s.counts()
	if s.candidates[i].Kind == EditAddEdge {
		return adds < c.MaxEdgeAdditions
	}
	return removals < c.MaxEdgeRemovals
}

// appliedEdits returns the final edit list with recorded impacts.
func (s *optimizerState) appliedEdits(impacts []float64) []GraphEdit {
	var out []GraphEdit
	for i, on := range s.applied {
		if on {
			e := s.candidates[i]
			e.Impact = impacts[i]
			out = append(out, e)
		}
	}
	return out
}

// =============================================================================
// Objective Functions
// =============================================================================

// evaluateObjective scores a graph against one optimization objective.
// All objectives are normalized so higher is better.
func evaluateObjective(g *Graph, objective OptimizationObjective) float64 {
	ix := newIndex(g)
	n := ix.n()
	if n == 0 {
		return 0
	}
	switch objective {
	case ObjectiveModularity:
		partition, _ := localMoving(newWorkGraph(ix), CommunityOptions{Resolution: DefaultResolution, MaxIterations: DefaultCommunityIterations})
		return partitionModularity(ix, partition, DefaultResolution)
	case ObjectiveEfficiency:
		return globalEfficiency(ix)
	case ObjectiveRobustness:
		return attackRobustness(ix)
	case ObjectiveCentrality:
		return meanHarmonicCentrality(ix)
	case ObjectiveFlow:
		return capacityDensity(ix)
	}
	return 0
}

// globalEfficiency averages 1/d over ordered reachable pairs.
func globalEfficiency(ix *index) float64 {
	n := ix.n()
	if n < 2 {
		return 0
	}
	sum := 0.0
	for i := 0; i < n; i++ {
		dist := bfsDistances(ix, i)
		for j, d := range dist {
			if j != i && d > 0 {
				sum += 1 / float64(d)
			}
		}
	}
	return sum / float64(n*(n-1))
}

// attackRobustness is the largest-component fraction remaining after
// removing the highest-degree node.
func attackRobustness(ix *index) float64 {
	n := ix.n()
	if n < 2 {
		return float64(n)
	}
	target, best := 0, -1
	for i := 0; i < n; i++ {
		if len(ix.und[i]) > best {
			target, best = i, len(ix.und[i])
		}
	}

	visited := make([]bool, n)
	visited[target] = true
	largest := 0
	for s := 0; s < n; s++ {
		if visited[s] {
			continue
		}
		size := 0
		queue := []int{s}
		visited[s] = true
		for len(queue) > 0 {
			v := queue[0]
			queue = queue[1:]
			size++
			for _, w := range ix.und[v] {
				if !visited[w] {
					visited[w] = true
					queue = append(queue, w)
				}
			}
		}
		if size > largest {
			largest = size
		}
	}
	return float64(largest) / float64(n-1)
}

func meanHarmonicCentrality(ix *index) float64 {
	n := ix.n()
	if n < 2 {
		return 0
	}
	sum := 0.0
	for i := 0; i < n; i++ {
		dist := bfsDistances(ix, i)
		for j, d := range dist {
			if j != i && d > 0 {
				sum += 1 / float64(d)
			}
		}
	}
	return sum / float64(n) / float64(n-1)
}

// capacityDensity is total edge capacity over possible node pairs, with
// a connectivity bonus when the graph is weakly connected.
func capacityDensity(ix *index) float64 {
	n := ix.n()
	if n < 2 {
		return 0
	}
	total := 0.0
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			if ix.capacity[i][j] > 0 {
				total += ix.capacity[i][j]
			}
		}
	}
	score := total / float64(n*(n-1))
	if weaklyConnected(ix) {
		score += 0.5
	}
	return score
}

func weaklyConnected(ix *index) bool {
	n := ix.n()
	if n == 0 {
		return true
	}
	visited := make([]bool, n)
	queue := []int{0}
	visited[0] = true
	count := 1
	for len(queue) > 0 {
		v := queue[0]
		queue = queue[1:]
		for _, w := range ix.und[v] {
			if !visited[w] {
				visited[w] = true
				count++
				queue = append(queue, w)
			}
		}
	}
	return count == n
}

// =============================================================================
// Search Strategies
// =============================================================================

// greedy applies the single best positive-impact edit per iteration
// until no edit improves the objective.
func (s *optimizerState) greedy(opts OptimizeOptions) OptimizeResult {
	original := s.evaluate()
	current := original
	impacts := make([]float64, len(s.candidates))

	iterations := 0
	finalGradient := 0.0
	for ; iterations < opts.MaxIterations; iterations++ {
		bestIdx, bestDelta := -1, optimizerTolerance
		for i := range s.candidates {
			if s.applied[i] || !s.allowed(i, opts.Constraints) {
				continue
			}
			s.applied[i] = true
			delta := s.evaluate() - current
			s.applied[i] = false
			if delta > bestDelta {
				bestIdx, bestDelta = i, delta
			}
		}
		finalGradient = math.Max(bestDelta, 0)
		if bestIdx < 0 {
			finalGradient = 0
			break
		}
		s.applied[bestIdx] = true
		impacts[bestIdx] = bestDelta
		current += bestDelta
	}

	return OptimizeResult{
		OriginalValue:  original,
		OptimizedValue: current,
		Edits:          s.appliedEdits(impacts),
		Converged:      iterations < opts.MaxIterations,
		Iterations:     iterations,
		FinalGradient:  finalGradient,
	}
}

// simulatedAnnealing toggles random edits, accepting downhill moves with
// probability exp(delta/T) under geometric cooling.
func (s *optimizerState) simulatedAnnealing(opts OptimizeOptions) OptimizeResult {
	rng := rand.New(rand.NewSource(opts.Seed))
	original := s.evaluate()
	current := original
	impacts := make([]float64, len(s.candidates))

	bestApplied := append([]bool(nil), s.applied...)
	bestValue := current

	temp := annealingInitialTemp
	iterations := 0
	for ; iterations < opts.MaxIterations && len(s.candidates) > 0; iterations++ {
		i := rng.Intn(len(s.candidates))
		if !s.applied[i] && !s.allowed(i, opts.Constraints) {
			temp *= annealingCooling
			continue
		}
		s.applied[i] = !s.applied[i]
		next := s.evaluate()
		delta := next - current
		if delta >= 0 || rng.Float64() < math.Exp(delta/math.Max(temp, 1e-9)) {
			if s.applied[i] {
				impacts[i] = delta
			}
			current = next
			if current > bestValue {
				bestValue = current
				copy(bestApplied, s.applied)
			}
		} else {
			s.applied[i] = !s.applied[i] // revert
		}
		temp *= annealingCooling
	}

	copy(s.applied, bestApplied)
	return OptimizeResult{
		OriginalValue:  original,
		OptimizedValue: bestValue,
		Edits:          s.appliedEdits(impacts),
		Converged:      temp < optimizerTolerance,
		Iterations:     iterations,
		FinalGradient:  temp,
	}
}

// genetic evolves a population of edit sets with tournament selection,
// uniform crossover, and per-gene mutation.
func (s *optimizerState) genetic(opts OptimizeOptions) OptimizeResult {
	rng := rand.New(rand.NewSource(opts.Seed))
	original := s.evaluate()
	k := len(s.candidates)
	if k == 0 {
		return OptimizeResult{OriginalValue: original, OptimizedValue: original, Converged: true}
	}

	fitness := func(genome []bool) float64 {
		copy(s.applied, genome)
		if !s.withinBudget(opts.Constraints) {
			return math.Inf(-1)
		}
		return s.evaluate()
	}

	population := make([][]bool, geneticPopulation)
	for p := range population {
		population[p] = make([]bool, k)
		if p > 0 {
			for i := range population[p] {
				population[p][i] = rng.Float64() < 0.05
			}
		}
	}

	bestGenome := make([]bool, k)
	bestValue := original
	stale := 0
	iterations := 0
	for ; iterations < opts.MaxIterations; iterations++ {
		scores := make([]float64, len(population))
		improved := false
		for p, genome := range population {
			scores[p] = fitness(genome)
			if scores[p] > bestValue {
				bestValue = scores[p]
				copy(bestGenome, genome)
				improved = true
			}
		}
		if improved {
			stale = 0
		} else if stale++; stale >= 10 {
			break
		}

		next := make([][]bool, 0, len(population))
		next = append(next, append([]bool(nil), bestGenome...)) // elitism
		for len(next) < len(population) {
			a := tournament(rng, scores)
			b := tournament(rng, scores)
			child := make([]bool, k)
			for i := 0; i < k; i++ {
				if rng.Float64() < 0.5 {
					child[i] = population[a][i]
				} else {
					child[i] = population[b][i]
				}
				if rng.Float64() < geneticMutation {
					child[i] = !child[i]
				}
			}
			next = append(next, child)
		}
		population = next
	}

	copy(s.applied, bestGenome)
	impacts := s.singleEditImpacts(original)
	return OptimizeResult{
		OriginalValue:  original,
		OptimizedValue: bestValue,
		Edits:          s.appliedEdits(impacts),
		Converged:      stale >= 10,
		Iterations:     iterations,
		FinalGradient:  bestValue - original,
	}
}

func tournament(rng *rand.Rand, scores []float64) int {
	a := rng.Intn(len(scores))
	b := rng.Intn(len(scores))
	if scores[a] >= scores[b] {
		return a
	}
	return b
}

func (s *optimizerState) withinBudget(c OptimizeConstraints) bool {
	adds, removals := s.counts()
	return adds <= c.MaxEdgeAdditions && removals <= c.MaxEdgeRemovals
}

// gradientDescent treats single-edit deltas as a finite-difference
// gradient over the edit space, applying every edit above the tolerance
// each step until the gradient vanishes.
func (s *optimizerState) gradientDescent(opts OptimizeOptions) OptimizeResult {
	original := s.evaluate()
	current := original
	impacts := make([]float64, len(s.candidates))

	iterations := 0
	finalGradient := math.Inf(1)
	for ; iterations < opts.MaxIterations; iterations++ {
		type scored struct {
			idx   int
			delta float64
		}
		var positive []scored
		maxDelta := 0.0
		for i := range s.candidates {
			if s.applied[i] || !s.allowed(i, opts.Constraints) {
				continue
			}
			s.applied[i] = true
			delta := s.evaluate() - current
			s.applied[i] = false
			if delta > maxDelta {
				maxDelta = delta
			}
			if delta > optimizerTolerance {
				positive = append(positive, scored{i, delta})
			}
		}
		finalGradient = maxDelta
		if len(positive) == 0 {
			break
		}

		// Apply in descending-delta order, revalidating each against the
		// moving objective; interactions can turn a delta negative.
		sort.Slice(positive, func(a, b int) bool { return positive[a].delta > positive[b].delta })
		appliedAny := false
		for _, p := range positive {
			if !s.allowed(p.idx, opts.Constraints) {
				continue
			}
			s.applied[p.idx] = true
			next := s.evaluate()
			if next-current > optimizerTolerance {
				impacts[p.idx] = next - current
				current = next
				appliedAny = true
			} else {
				s.applied[p.idx] = false
			}
		}
		if !appliedAny {
			break
		}
	}

	return OptimizeResult{
		OriginalValue:  original,
		OptimizedValue: current,
		Edits:          s.appliedEdits(impacts),
		Converged:      finalGradient <= optimizerTolerance,
		Iterations:     iterations,
		FinalGradient:  finalGradient,
	}
}

// singleEditImpacts measures each applied edit's marginal contribution
// against the base graph.
func (s *optimizerState) singleEditImpacts(original float64) []float64 {
	impacts := make([]float64, len(s.candidates))
	saved := append([]bool(nil), s.applied...)
	for i, on := range saved {
		if !on {
			continue
		}
		for j := range s.applied {
			s.applied[j] = false
		}
		s.applied[i] = true
		impacts[i] = s.evaluate() - original
	}
	copy(s.applied, saved)
	return impacts
}

// SuggestedEdge materializes an add-edge edit as a concrete edge with a
// fresh ID, used by callers that apply optimizer output.
func (ge GraphEdit) SuggestedEdge() (Edge, bool) {
	if ge.Kind != EditAddEdge {
		return Edge{}, false
	}
	return Edge{
		ID:            uuid.NewString(),
		Source:        ge.Source,
		Target:        ge.Target,
		Type:          "suggested",
		Confidence:    DefaultEdgeConfidence,
		Bidirectional: true,
	}, true
}
