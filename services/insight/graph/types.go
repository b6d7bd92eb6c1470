// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package graph

import (
	"time"
)

// =============================================================================
// Data Model
// =============================================================================

// Default values applied when optional fields are absent.
const (
	// DefaultEdgeConfidence is used when an edge carries no explicit
	// weight/confidence value.
	DefaultEdgeConfidence = 0.5

	// DefaultEdgeCapacity is used by flow analysis when an edge carries
	// neither a capacity nor a confidence value.
	DefaultEdgeCapacity = 1.0
)

// Position is an optional 2D layout hint attached to a node.
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Node is a single element of the reasoning graph.
//
// Nodes are created by the external stage pipeline (or by gap-placeholder
// synthesis) and are never mutated by analytics.
type Node struct {
	// ID uniquely identifies the node within a graph.
	ID string `json:"id"`

	// Label is the human-readable name of the node.
	Label string `json:"label"`

	// Type is an open tag: "hypothesis", "evidence", "dimension",
	// "knowledge_gap", "placeholder", ...
	Type string `json:"type"`

	// Confidence holds independent evidential scores in [0,1], one per
	// dimension. It is a vector, not a single probability.
	Confidence []float64 `json:"confidence"`

	// Position is an optional 2D layout position.
	Position *Position `json:"position,omitempty"`

	// Metadata is an open bag: stage number, timestamps, methodology
	// flags, flow capacity, and so on.
	Metadata map[string]any `json:"metadata,omitempty"`
}

// MeanConfidence returns the equal-weighted average of the confidence
// vector, or 0 when the vector is empty.
func (n *Node) MeanConfidence() float64 {
	if len(n.Confidence) == 0 {
		return 0
	}
	sum := 0.0
	for _, c := range n.Confidence {
		sum += c
	}
	return sum / float64(len(n.Confidence))
}

// Edge is a typed pairwise relationship between two nodes.
type Edge struct {
	// ID uniquely identifies the edge.
	ID string `json:"id"`

	// Source and Target must reference existing node ids for the edge to
	// participate in analysis. Dangling edges are tolerated in storage
	// but skipped by every algorithm.
	Source string `json:"source"`
	Target string `json:"target"`

	// Type is an open tag: "supportive", "contradictory", "causal_direct",
	// "hypothetical", ...
	Type string `json:"type"`

	// Confidence is the scalar weight of the edge. A zero value is
	// treated as absent and defaults to DefaultEdgeConfidence.
	Confidence float64 `json:"confidence,omitempty"`

	// Bidirectional marks the relationship as symmetric. Bidirectional
	// edges populate both matrix cells; directed edges populate only
	// source→target.
	Bidirectional bool `json:"bidirectional,omitempty"`

	// Metadata may carry a "capacity" used only by flow analysis.
	Metadata map[string]any `json:"metadata,omitempty"`
}

// Weight returns the edge's scalar weight, applying the 0.5 default for
// absent values.
func (e *Edge) Weight() float64 {
	if e.Confidence == 0 {
		return DefaultEdgeConfidence
	}
	return e.Confidence
}

// Capacity returns the flow capacity of the edge: metadata "capacity"
// first, then the confidence value, then DefaultEdgeCapacity.
func (e *Edge) Capacity() float64 {
	if e.Metadata != nil {
		switch v := e.Metadata["capacity"].(type) {
		case float64:
			if v > 0 {
				return v
			}
		case int:
			if v > 0 {
				return float64(v)
			}
		}
	}
	if e.Confidence > 0 {
		return e.Confidence
	}
	return DefaultEdgeCapacity
}

// Hyperedge is an n-ary relationship spanning two or more nodes, e.g. an
// interdisciplinary synthesis. Hyperedges are not used by the matrix-based
// algorithms; they only appear in aggregate statistics.
type Hyperedge struct {
	ID       string         `json:"id"`
	Nodes    []string       `json:"nodes"`
	Type     string         `json:"type"`
	Weight   float64        `json:"weight,omitempty"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

// Graph is a complete reasoning-graph snapshot.
//
// The three sequences are ordered; order is irrelevant for analytics but
// preserved so output orderings are deterministic. Node ids must be
// unique. Edge and hyperedge endpoints should resolve to existing nodes,
// but algorithms tolerate and skip dangling references.
type Graph struct {
	Nodes      []Node         `json:"nodes"`
	Edges      []Edge         `json:"edges"`
	Hyperedges []Hyperedge    `json:"hyperedges,omitempty"`
	Metadata   map[string]any `json:"metadata,omitempty"`
}

// NodeByID returns the node with the given id, or nil.
func (g *Graph) NodeByID(id string) *Node {
	for i := range g.Nodes {
		if g.Nodes[i].ID == id {
			return &g.Nodes[i]
		}
	}
	return nil
}

// HasNode reports whether a node with the given id exists.
func (g *Graph) HasNode(id string) bool {
	return g.NodeByID(id) != nil
}

// Clone returns a deep copy of the graph. Metadata bags are copied one
// level deep, which is sufficient for the flat bags produced by the
// stage pipeline.
func (g *Graph) Clone() *Graph {
	out := &Graph{Metadata: cloneMeta(g.Metadata)}
	if g.Nodes != nil {
		out.Nodes = make([]Node, len(g.Nodes))
	}
	if g.Edges != nil {
		out.Edges = make([]Edge, len(g.Edges))
	}
	if g.Hyperedges != nil {
		out.Hyperedges = make([]Hyperedge, len(g.Hyperedges))
	}
	for i, n := range g.Nodes {
		cn := n
		cn.Confidence = append([]float64(nil), n.Confidence...)
		if n.Position != nil {
			p := *n.Position
			cn.Position = &p
		}
		cn.Metadata = cloneMeta(n.Metadata)
		out.Nodes[i] = cn
	}
	for i, e := range g.Edges {
		ce := e
		ce.Metadata = cloneMeta(e.Metadata)
		out.Edges[i] = ce
	}
	for i, h := range g.Hyperedges {
		ch := h
		ch.Nodes = append([]string(nil), h.Nodes...)
		ch.Metadata = cloneMeta(h.Metadata)
		out.Hyperedges[i] = ch
	}
	return out
}

func cloneMeta(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// =============================================================================
// Result Envelope
// =============================================================================

// ResultMetadata carries the diagnostic block attached to every analytics
// result.
type ResultMetadata struct {
	// Parameters echoes the options the algorithm ran with.
	Parameters map[string]any `json:"parameters,omitempty"`

	// Convergence indicates whether an iterative algorithm converged
	// before exhausting its iteration budget.
	Convergence bool `json:"convergence"`

	// Iterations is the number of iterations actually performed.
	Iterations int `json:"iterations"`

	// QualityMetrics holds algorithm-specific quality numbers
	// (modularity, conductance, optimality, ...).
	QualityMetrics map[string]float64 `json:"quality_metrics,omitempty"`
}

// Result is the uniform envelope returned by every analytics operation.
type Result[T any] struct {
	// AlgorithmName identifies the operation and algorithm variant.
	AlgorithmName string `json:"algorithm_name"`

	// ExecutionTime is the wall-clock duration of the computation.
	ExecutionTime time.Duration `json:"execution_time"`

	// MemoryUsage is an estimate of the working-set bytes the
	// computation required. It is derived from graph size, not measured.
	MemoryUsage int64 `json:"memory_usage"`

	// Result is the algorithm-specific payload.
	Result T `json:"result"`

	// Confidence is the engine's confidence in the result, in [0,1].
	Confidence float64 `json:"confidence"`

	// Metadata is the diagnostic block.
	Metadata ResultMetadata `json:"metadata"`
}

// estimateMemory is the shared working-set estimate used to fill
// Result.MemoryUsage: matrix-backed algorithms are quadratic in node
// count, plus linear edge bookkeeping.
func estimateMemory(nodes, edges int) int64 {
	return int64(nodes)*int64(nodes)*8 + int64(edges)*64
}
