// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package graph provides the reasoning-graph data model and the graph
// analytics engine.
//
// Nodes are evidence/hypothesis items produced by the research pipeline,
// edges are typed relationships between them (supportive, contradictory,
// causal, hypothetical), and hyperedges capture n-ary relationships that
// cannot be expressed pairwise.
//
// # Ownership Model
//
// The analytics engine treats every input Graph as read-only:
//   - No operation mutates the nodes, edges, or hyperedges it is given
//   - Callers that need a modified graph receive a deep copy
//   - Edges whose endpoints do not resolve to existing nodes are tolerated
//     in storage but excluded from every computation
//
// # Thread Safety
//
// All analytics operations are pure functions of their inputs. The only
// mutable state owned by an Engine is its bounded result cache, which is
// guarded internally; an Engine is safe for concurrent use.
//
// # Lifecycle
//
// A typical analytics session:
//  1. Receive a *Graph snapshot from the stage pipeline
//  2. Create an Engine with NewEngine()
//  3. Call ComputeCentrality(), DetectCommunities(), ComputePaths(), ...
//  4. Serialize the Result envelopes for the presentation layer
package graph

import "errors"

// Sentinel errors for analytics operations.
var (
	// ErrUnknownAlgorithm is returned when an algorithm tag does not name
	// a supported implementation. The engine never silently substitutes a
	// different algorithm; an unknown tag is a caller bug.
	ErrUnknownAlgorithm = errors.New("unknown algorithm")

	// ErrNodeNotFound is returned when an operation requires a node id
	// that does not exist in the graph (e.g. a max-flow source or sink).
	ErrNodeNotFound = errors.New("node not found")

	// ErrNegativeWeight is returned when an algorithm that requires
	// non-negative edge weights (Dijkstra) encounters a negative weight.
	ErrNegativeWeight = errors.New("negative edge weight")

	// ErrNegativeCycle is returned when Bellman-Ford or Johnson detects a
	// negative-weight cycle, which makes shortest distances undefined.
	ErrNegativeCycle = errors.New("negative-weight cycle detected")
)
