// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package gaps

import (
	"context"
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AleutianAI/insight/services/insight/graph"
)

func connectedPairWithIsland() *graph.Graph {
	return &graph.Graph{
		Nodes: []graph.Node{
			{ID: "A", Label: "A", Type: "hypothesis", Confidence: []float64{0.8}},
			{ID: "B", Label: "B", Type: "evidence", Confidence: []float64{0.9}},
			{ID: "C", Label: "C", Type: "hypothesis", Confidence: []float64{0.7}},
		},
		Edges: []graph.Edge{
			{ID: "ab", Source: "A", Target: "B", Type: "supports", Confidence: 0.8, Bidirectional: true},
		},
	}
}

func TestDetectGaps_IsolatedNodeScenario(t *testing.T) {
	d := NewDetector()
	res, err := d.DetectGaps(context.Background(), connectedPairWithIsland(), nil)
	require.NoError(t, err)

	var missingEdge []Gap
	for _, g := range res.Gaps {
		if g.Type == GapMissingEdge {
			missingEdge = append(missingEdge, g)
		}
	}
	require.Len(t, missingEdge, 1, "exactly one missing_edge gap expected")
	gap := missingEdge[0]
	assert.Equal(t, []string{"C"}, gap.Location.RelatedNodes)
	assert.Equal(t, 0.6, gap.Priority)
	assert.Equal(t, StatusOpen, gap.Status)
}

func TestDetectGaps_LowConfidenceNode(t *testing.T) {
	d := NewDetector()
	g := &graph.Graph{
		Nodes: []graph.Node{
			{ID: "weak", Confidence: []float64{0.2, 0.3}},
			{ID: "strong", Confidence: []float64{0.9, 0.8}},
		},
		Edges: []graph.Edge{
			{ID: "e", Source: "weak", Target: "strong", Confidence: 0.5, Bidirectional: true},
		},
	}

	res, err := d.DetectGaps(context.Background(), g, nil)
	require.NoError(t, err)

	var evidential []Gap
	for _, gap := range res.Gaps {
		if gap.Type == GapMissingEvidence {
			evidential = append(evidential, gap)
		}
	}
	require.Len(t, evidential, 1)
	assert.Equal(t, []string{"weak"}, evidential[0].Location.RelatedNodes)
	assert.Equal(t, 0.7, evidential[0].Priority)
}

func TestDetectGaps_MethodologicalCausalEdge(t *testing.T) {
	d := NewDetector()
	g := &graph.Graph{
		Nodes: []graph.Node{
			{ID: "cause", Confidence: []float64{0.8}},
			{ID: "effect", Confidence: []float64{0.8}},
			{ID: "grounded", Confidence: []float64{0.8}, Metadata: map[string]any{"methodology": "rct"}},
			{ID: "outcome", Confidence: []float64{0.8}},
		},
		Edges: []graph.Edge{
			{ID: "c1", Source: "cause", Target: "effect", Type: "causal", Confidence: 0.7},
			{ID: "c2", Source: "grounded", Target: "outcome", Type: "causal_link", Confidence: 0.7},
		},
	}

	res, err := d.DetectGaps(context.Background(), g, nil)
	require.NoError(t, err)

	var methodological []Gap
	for _, gap := range res.Gaps {
		if gap.Type == GapMethodological {
			methodological = append(methodological, gap)
		}
	}
	require.Len(t, methodological, 1, "edge with a methodology endpoint must not be flagged")
	assert.Equal(t, 0.9, methodological[0].Priority)
	assert.Equal(t, TierCritical, methodological[0].Tier)
	assert.ElementsMatch(t, []string{"cause", "effect"}, methodological[0].Location.RelatedNodes)
}

func TestDetectGaps_ConceptualAndCausalCandidates(t *testing.T) {
	d := NewDetector()
	g := connectedPairWithIsland()
	dk := &DomainKnowledge{
		Patterns: []Pattern{
			{Name: "theory", Nodes: []string{"A", "missing_concept"}},
		},
		CausalCandidates: []CausalCandidate{
			{Source: "A", Target: "C", Strength: 0.85},
			{Source: "A", Target: "B", Strength: 0.9}, // already an edge
		},
	}

	res, err := d.DetectGaps(context.Background(), g, dk)
	require.NoError(t, err)

	byType := map[GapType][]Gap{}
	for _, gap := range res.Gaps {
		byType[gap.Type] = append(byType[gap.Type], gap)
	}

	require.Len(t, byType[GapConceptual], 1, "only the absent pattern node yields a gap")
	assert.Equal(t, 0.8, byType[GapConceptual][0].Priority)

	require.Len(t, byType[GapCausal], 1, "existing edges are not causal gaps")
	assert.Equal(t, 0.85, byType[GapCausal][0].Priority)
	assert.Equal(t, TierCritical, byType[GapCausal][0].Tier)
}

func TestDetectGaps_Deduplication(t *testing.T) {
	d := NewDetector()
	g := connectedPairWithIsland()

	first, err := d.DetectGaps(context.Background(), g, nil)
	require.NoError(t, err)
	require.NotEmpty(t, first.Gaps)

	second, err := d.DetectGaps(context.Background(), g, nil)
	require.NoError(t, err)
	assert.Empty(t, second.Gaps, "re-detection of the same graph must not duplicate gaps")
}

func TestDetectGaps_EmptyGraph(t *testing.T) {
	d := NewDetector()
	res, err := d.DetectGaps(context.Background(), &graph.Graph{}, nil)
	require.NoError(t, err)
	assert.Empty(t, res.Gaps)
	assert.Equal(t, 0, res.Summary.Total)
}

func TestDetectGaps_SummaryBands(t *testing.T) {
	d := NewDetector()
	g := connectedPairWithIsland()
	g.Nodes = append(g.Nodes, graph.Node{ID: "weak", Confidence: []float64{0.1}})
	g.Edges = append(g.Edges, graph.Edge{
		ID: "w", Source: "weak", Target: "A", Type: "causal", Confidence: 0.5,
	})

	res, err := d.DetectGaps(context.Background(), g, nil)
	require.NoError(t, err)
	s := res.Summary

	assert.Equal(t, len(res.Gaps), s.Total)
	counted := 0
	for _, n := range s.ByPriority {
		counted += n
	}
	assert.Equal(t, s.Total, counted, "priority bands must partition the gaps")
	for _, g := range s.Critical {
		assert.Greater(t, g.Priority, criticalThreshold)
	}
	for _, g := range s.Fillable {
		assert.Greater(t, g.Fillability, fillableThreshold)
	}
	assert.LessOrEqual(t, len(s.Recommendations), maxRecommendations)
	assert.NotEmpty(t, s.Recommendations)
}

func TestCreatePlaceholders_DoesNotMutateInput(t *testing.T) {
	d := NewDetector()
	g := connectedPairWithIsland()
	before := g.Clone()

	res, err := d.DetectGaps(context.Background(), g, nil)
	require.NoError(t, err)
	require.NotEmpty(t, res.Gaps)

	augmented, placeholders, err := d.CreatePlaceholders(context.Background(), g, res.Gaps)
	require.NoError(t, err)

	if !reflect.DeepEqual(g, before) {
		t.Fatal("input graph was mutated")
	}
	require.Len(t, placeholders, len(res.Gaps))
	assert.Len(t, augmented.Nodes, len(g.Nodes)+len(placeholders))
}

func TestCreatePlaceholders_NodeAndEdgeShape(t *testing.T) {
	d := NewDetector()
	g := connectedPairWithIsland()
	res, err := d.DetectGaps(context.Background(), g, nil)
	require.NoError(t, err)
	require.NotEmpty(t, res.Gaps)

	augmented, placeholders, err := d.CreatePlaceholders(context.Background(), g, res.Gaps)
	require.NoError(t, err)

	p := placeholders[0]
	assert.Equal(t, "placeholder", p.Node.Type)
	assert.NotEmpty(t, p.GapID)
	for _, c := range p.Node.Confidence {
		assert.InDelta(t, 0.1, c, 1e-9)
	}
	require.NotNil(t, p.Node.Position)
	assert.GreaterOrEqual(t, p.Expected.ExpectedConnections, 1)

	var hypothetical []graph.Edge
	for _, e := range augmented.Edges {
		if e.Type == "hypothetical" {
			hypothetical = append(hypothetical, e)
		}
	}
	require.NotEmpty(t, hypothetical)
	for _, e := range hypothetical {
		assert.InDelta(t, 0.2, e.Confidence, 1e-9)
		assert.Equal(t, true, e.Metadata["needs_validation"])
	}
}

func TestLifecycle_InitializeDestroyIdempotent(t *testing.T) {
	d := NewDetector()
	for i := 0; i < 3; i++ {
		d.Initialize()
		d.Initialize()
		d.Destroy()
		d.Destroy()
	}

	// Destroy clears state.
	_, err := d.DetectGaps(context.Background(), connectedPairWithIsland(), nil)
	require.NoError(t, err)
	d.Destroy()
	assert.Empty(t, d.Gaps())
}

func TestMemoryStats_Pressure(t *testing.T) {
	d := NewDetector()
	stats := d.MemoryStats()
	assert.Equal(t, "low", stats.Pressure)
	assert.Equal(t, MaxGaps+MaxPlaceholders+MaxStrategies, stats.Capacity)
	assert.Zero(t, stats.Utilization)
}
