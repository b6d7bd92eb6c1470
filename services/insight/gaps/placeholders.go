// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package gaps

import (
	"context"
	"fmt"
	"hash/fnv"
	"math"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/AleutianAI/insight/services/insight/graph"
)

// Placeholder synthesis constants.
const (
	// placeholderConfidence is the per-dimension confidence of a
	// synthesized node.
	placeholderConfidence = 0.1

	// hypotheticalEdgeConfidence is the confidence of edges linking a
	// placeholder to its related real nodes.
	hypotheticalEdgeConfidence = 0.2

	// placeholderConfidenceDims is the confidence vector length when no
	// related node suggests one.
	placeholderConfidenceDims = 3
)

// CreatePlaceholders synthesizes placeholder nodes for the given gaps on
// a deep copy of the graph.
//
// Description:
//
//	The caller's graph is never mutated. Each gap yields one placeholder
//	node positioned at the centroid of its related real nodes (or a
//	deterministic pseudo-random point when none carry positions), with
//	low confidence across all dimensions, connected to each related real
//	node by a hypothetical edge flagged needs_validation. Placeholders
//	are recorded in the bounded registry.
//
// Inputs:
//   - ctx: Context for tracing.
//   - g: The graph snapshot. Deep-copied before modification.
//   - gapList: Gaps to materialize.
//
// Outputs:
//   - *graph.Graph: The augmented copy.
//   - []Placeholder: The synthesized placeholders, one per gap.
//   - error: Reserved.
//
// Thread Safety: Safe for concurrent use.
func (d *Detector) CreatePlaceholders(ctx context.Context, g *graph.Graph, gapList []Gap) (*graph.Graph, []Placeholder, error) {
	_, span := tracer.Start(ctx, "Detector.CreatePlaceholders",
		trace.WithAttributes(attribute.Int("gap_count", len(gapList))))
	defer span.End()

	out := g.Clone()
	now := time.Now()
	placeholders := make([]Placeholder, 0, len(gapList))

	for _, gap := range gapList {
		node := synthesizeNode(out, gap)
		out.Nodes = append(out.Nodes, node)

		for _, related := range gap.Location.RelatedNodes {
			if !out.HasNode(related) {
				continue
			}
			out.Edges = append(out.Edges, graph.Edge{
				ID:            uuid.NewString(),
				Source:        node.ID,
				Target:        related,
				Type:          "hypothetical",
				Confidence:    hypotheticalEdgeConfidence,
				Bidirectional: true,
				Metadata:      map[string]any{"needs_validation": true, "gap_id": gap.ID},
			})
		}

		p := Placeholder{
			Node:       node,
			GapID:      gap.ID,
			Expected:   expectedProperties(gap),
			Heuristics: discoveryHeuristics(gap),
			CreatedAt:  now,
		}
		placeholders = append(placeholders, p)
	}

	d.mu.Lock()
	for _, p := range placeholders {
		d.placeholders.put(p.Node.ID, p, now)
	}
	d.placeholders.enforceCap()
	d.mu.Unlock()

	d.logger.Info("placeholders created", "count", len(placeholders))
	return out, placeholders, nil
}

// synthesizeNode builds the placeholder node for a gap, positioned at
// the centroid of its related nodes when any carry positions.
func synthesizeNode(g *graph.Graph, gap Gap) graph.Node {
	confidence := make([]float64, confidenceDims(g, gap))
	for i := range confidence {
		confidence[i] = placeholderConfidence
	}

	return graph.Node{
		ID:         "placeholder-" + uuid.NewString(),
		Label:      placeholderLabel(gap),
		Type:       "placeholder",
		Confidence: confidence,
		Position:   placeholderPosition(g, gap),
		Metadata: map[string]any{
			"gap_id":   gap.ID,
			"gap_type": string(gap.Type),
		},
	}
}

func placeholderLabel(gap Gap) string {
	switch gap.Type {
	case GapConceptual:
		if len(gap.Location.RelatedNodes) > 0 {
			return "Missing concept: " + gap.Location.RelatedNodes[0]
		}
		return "Missing concept"
	case GapMissingEvidence:
		return "Missing evidence"
	case GapMethodological:
		return "Missing methodology"
	case GapCausal:
		return "Unverified causal link"
	default:
		return "Knowledge gap"
	}
}

// confidenceDims matches the dimensionality of the related nodes'
// confidence vectors so the placeholder fits the graph's convention.
func confidenceDims(g *graph.Graph, gap Gap) int {
	for _, id := range gap.Location.RelatedNodes {
		if n := g.NodeByID(id); n != nil && len(n.Confidence) > 0 {
			return len(n.Confidence)
		}
	}
	return placeholderConfidenceDims
}

// placeholderPosition returns the centroid of positioned related nodes,
// falling back to a gap-id-seeded pseudo-random point so placement is
// reproducible.
func placeholderPosition(g *graph.Graph, gap Gap) *graph.Position {
	var sumX, sumY float64
	count := 0
	for _, id := range gap.Location.RelatedNodes {
		n := g.NodeByID(id)
		if n == nil || n.Position == nil {
			continue
		}
		sumX += n.Position.X
		sumY += n.Position.Y
		count++
	}
	if count > 0 {
		return &graph.Position{X: sumX / float64(count), Y: sumY / float64(count)}
	}

	h := fnv.New64a()
	fmt.Fprint(h, gap.ID)
	v := h.Sum64()
	return &graph.Position{
		X: float64(v%1000) - 500,
		Y: float64((v/1000)%1000) - 500,
	}
}

func expectedProperties(gap Gap) ExpectedProperties {
	p := ExpectedProperties{
		NodeType:            expectedNodeType(gap.Type),
		ExpectedConnections: int(math.Max(1, float64(len(gap.Location.RelatedNodes)))),
	}
	switch gap.Type {
	case GapMissingEvidence:
		p.ExpectedEvidence = []string{"empirical measurement", "replication study"}
	case GapMethodological:
		p.Mechanisms = []string{"controlled experiment", "instrumental variable"}
	case GapCausal:
		p.Mechanisms = []string{"causal mechanism", "mediating variable"}
	}
	return p
}

func expectedNodeType(t GapType) string {
	switch t {
	case GapMissingEvidence:
		return "evidence"
	case GapConceptual:
		return "hypothesis"
	case GapMethodological:
		return "method"
	case GapCausal:
		return "mechanism"
	default:
		return "hypothesis"
	}
}

func discoveryHeuristics(gap Gap) DiscoveryHeuristics {
	h := DiscoveryHeuristics{
		SearchTerms:      append([]string(nil), gap.Evidence.Patterns...),
		CandidateSources: []string{"peer-reviewed literature", "domain databases"},
	}
	switch gap.Type {
	case GapMissingEvidence:
		h.ResearchDirections = []string{"design targeted experiment", "survey existing datasets"}
		h.Methodologies = []string{"empirical", "statistical"}
	case GapConceptual:
		h.ResearchDirections = []string{"review adjacent theory", "expert elicitation"}
		h.Methodologies = []string{"theoretical", "comparative"}
	case GapMethodological:
		h.ResearchDirections = []string{"identify applicable study designs"}
		h.Methodologies = []string{"experimental design", "causal inference"}
	case GapCausal:
		h.ResearchDirections = []string{"test intervention effects", "search for confounders"}
		h.Methodologies = []string{"causal inference", "simulation"}
	default:
		h.ResearchDirections = []string{"map the surrounding literature"}
		h.Methodologies = []string{"literature review"}
	}
	return h
}
