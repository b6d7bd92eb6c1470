// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package graph

import "fmt"

// =============================================================================
// Algorithm Tags
// =============================================================================
//
// Every operation that dispatches over algorithm variants uses a closed
// string-backed type with a Parse function. Callers holding a constant get
// compile-time safety; callers holding external input get a descriptive
// ErrUnknownAlgorithm that names the offending tag.

// CentralityMeasure selects one centrality computation.
type CentralityMeasure string

// Supported centrality measures.
const (
	CentralityBetweenness CentralityMeasure = "betweenness"
	CentralityCloseness   CentralityMeasure = "closeness"
	CentralityPageRank    CentralityMeasure = "pagerank"
	CentralityEigenvector CentralityMeasure = "eigenvector"
	CentralityKatz        CentralityMeasure = "katz"
	CentralityDegree      CentralityMeasure = "degree"
	CentralityHarmonic    CentralityMeasure = "harmonic"
	CentralitySubgraph    CentralityMeasure = "subgraph"
)

// AllCentralityMeasures lists every supported measure in a stable order.
func AllCentralityMeasures() []CentralityMeasure {
	return []CentralityMeasure{
		CentralityBetweenness, CentralityCloseness, CentralityPageRank,
		CentralityEigenvector, CentralityKatz, CentralityDegree,
		CentralityHarmonic, CentralitySubgraph,
	}
}

// ParseCentralityMeasure validates a centrality tag.
func ParseCentralityMeasure(s string) (CentralityMeasure, error) {
	switch m := CentralityMeasure(s); m {
	case CentralityBetweenness, CentralityCloseness, CentralityPageRank,
		CentralityEigenvector, CentralityKatz, CentralityDegree,
		CentralityHarmonic, CentralitySubgraph:
		return m, nil
	}
	return "", fmt.Errorf("%w: centrality measure %q", ErrUnknownAlgorithm, s)
}

// CommunityAlgorithm selects a community-detection method.
type CommunityAlgorithm string

// Supported community-detection algorithms.
const (
	CommunityLouvain          CommunityAlgorithm = "louvain"
	CommunityLeiden           CommunityAlgorithm = "leiden"
	CommunityInfomap          CommunityAlgorithm = "infomap"
	CommunitySpectral         CommunityAlgorithm = "spectral"
	CommunityWalktrap         CommunityAlgorithm = "walktrap"
	CommunityLabelPropagation CommunityAlgorithm = "label_propagation"
)

// ParseCommunityAlgorithm validates a community-detection tag.
func ParseCommunityAlgorithm(s string) (CommunityAlgorithm, error) {
	switch a := CommunityAlgorithm(s); a {
	case CommunityLouvain, CommunityLeiden, CommunityInfomap,
		CommunitySpectral, CommunityWalktrap, CommunityLabelPropagation:
		return a, nil
	}
	return "", fmt.Errorf("%w: community algorithm %q", ErrUnknownAlgorithm, s)
}

// PathAlgorithm selects an all-pairs shortest-path method.
type PathAlgorithm string

// Supported shortest-path algorithms.
const (
	PathDijkstra      PathAlgorithm = "dijkstra"
	PathFloydWarshall PathAlgorithm = "floyd_warshall"
	PathJohnson       PathAlgorithm = "johnson"
	PathBellmanFord   PathAlgorithm = "bellman_ford"
)

// ParsePathAlgorithm validates a shortest-path tag.
func ParsePathAlgorithm(s string) (PathAlgorithm, error) {
	switch a := PathAlgorithm(s); a {
	case PathDijkstra, PathFloydWarshall, PathJohnson, PathBellmanFord:
		return a, nil
	}
	return "", fmt.Errorf("%w: path algorithm %q", ErrUnknownAlgorithm, s)
}

// FlowAlgorithm selects a maximum-flow method.
type FlowAlgorithm string

// Supported maximum-flow algorithms.
const (
	FlowFordFulkerson FlowAlgorithm = "ford_fulkerson"
	FlowEdmondsKarp   FlowAlgorithm = "edmonds_karp"
	FlowDinic         FlowAlgorithm = "dinic"
	FlowPushRelabel   FlowAlgorithm = "push_relabel"
)

// ParseFlowAlgorithm validates a maximum-flow tag.
func ParseFlowAlgorithm(s string) (FlowAlgorithm, error) {
	switch a := FlowAlgorithm(s); a {
	case FlowFordFulkerson, FlowEdmondsKarp, FlowDinic, FlowPushRelabel:
		return a, nil
	}
	return "", fmt.Errorf("%w: flow algorithm %q", ErrUnknownAlgorithm, s)
}

// SimilarityKind selects one node-similarity dimension.
type SimilarityKind string

// Supported similarity dimensions.
const (
	SimilarityStructural SimilarityKind = "structural"
	SimilaritySemantic   SimilarityKind = "semantic"
	SimilarityFunctional SimilarityKind = "functional"
)

// ParseSimilarityKind validates a similarity tag.
func ParseSimilarityKind(s string) (SimilarityKind, error) {
	switch k := SimilarityKind(s); k {
	case SimilarityStructural, SimilaritySemantic, SimilarityFunctional:
		return k, nil
	}
	return "", fmt.Errorf("%w: similarity kind %q", ErrUnknownAlgorithm, s)
}

// OptimizationObjective selects the quantity graph optimization maximizes.
type OptimizationObjective string

// Supported optimization objectives.
const (
	ObjectiveModularity OptimizationObjective = "modularity"
	ObjectiveEfficiency OptimizationObjective = "efficiency"
	ObjectiveRobustness OptimizationObjective = "robustness"
	ObjectiveCentrality OptimizationObjective = "centrality"
	ObjectiveFlow       OptimizationObjective = "flow"
)

// ParseOptimizationObjective validates an objective tag.
func ParseOptimizationObjective(s string) (OptimizationObjective, error) {
	switch o := OptimizationObjective(s); o {
	case ObjectiveModularity, ObjectiveEfficiency, ObjectiveRobustness,
		ObjectiveCentrality, ObjectiveFlow:
		return o, nil
	}
	return "", fmt.Errorf("%w: optimization objective %q", ErrUnknownAlgorithm, s)
}

// OptimizationAlgorithm selects the search strategy for graph optimization.
type OptimizationAlgorithm string

// Supported optimization strategies.
const (
	OptimizeGreedy             OptimizationAlgorithm = "greedy"
	OptimizeSimulatedAnnealing OptimizationAlgorithm = "simulated_annealing"
	OptimizeGenetic            OptimizationAlgorithm = "genetic"
	OptimizeGradientDescent    OptimizationAlgorithm = "gradient_descent"
)

// ParseOptimizationAlgorithm validates an optimization-strategy tag.
func ParseOptimizationAlgorithm(s string) (OptimizationAlgorithm, error) {
	switch a := OptimizationAlgorithm(s); a {
	case OptimizeGreedy, OptimizeSimulatedAnnealing, OptimizeGenetic,
		OptimizeGradientDescent:
		return a, nil
	}
	return "", fmt.Errorf("%w: optimization algorithm %q", ErrUnknownAlgorithm, s)
}
