// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package budget

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strategyNames(report OptimizationReport) []string {
	names := make([]string, 0, len(report.Strategies))
	for _, s := range report.Strategies {
		names = append(names, s.Name)
	}
	return names
}

func TestApplyOptimizations_CachingAppliesToEverything(t *testing.T) {
	m := testManager(t)
	ctx := context.Background()

	for _, opType := range []string{"centrality", "optimization", "no-such-op"} {
		report := m.ApplyOptimizations(ctx, opType, GraphSize{Nodes: 100, Edges: 200})
		assert.Contains(t, strategyNames(report), "result_caching", "type %s", opType)
	}
}

func TestApplyOptimizations_CentralityCatalog(t *testing.T) {
	m := testManager(t)
	report := m.ApplyOptimizations(context.Background(), "centrality", GraphSize{Nodes: 100, Edges: 200})

	names := strategyNames(report)
	assert.Contains(t, names, "graph_pruning")
	assert.Contains(t, names, "approximation_algorithms")
	assert.NotContains(t, names, "hierarchical_processing")
}

func TestApplyOptimizations_SavingsCompound(t *testing.T) {
	m := testManager(t)
	ctx := context.Background()
	size := GraphSize{Nodes: 100, Edges: 200}

	report := m.ApplyOptimizations(ctx, "centrality", size)
	estimate := m.EstimateCost(ctx, "centrality", size, nil)

	// graph_pruning 0.3, approximation 0.5, caching 0.6 compound
	// multiplicatively: remaining = cost * 0.7 * 0.5 * 0.4.
	remaining := estimate.EstimatedCost * 0.7 * 0.5 * 0.4
	assert.InDelta(t, estimate.EstimatedCost-remaining, report.EstimatedSavings, 1e-9)
	assert.Less(t, report.EstimatedSavings, estimate.EstimatedCost,
		"savings can never exceed the full cost")
}

func TestApplyOptimizations_WorstCaseQuality(t *testing.T) {
	m := testManager(t)
	report := m.ApplyOptimizations(context.Background(), "centrality", GraphSize{Nodes: 100, Edges: 200})

	// approximation_algorithms carries the highest impact for centrality.
	assert.InDelta(t, 0.2, report.WorstCaseQualityImpact, 1e-9)
}

func TestApplyOptimizations_UnknownTypeCachingOnly(t *testing.T) {
	m := testManager(t)
	report := m.ApplyOptimizations(context.Background(), "no-such-op", GraphSize{Nodes: 10})

	require.Len(t, report.Strategies, 1)
	assert.Equal(t, "result_caching", report.Strategies[0].Name)
	assert.Zero(t, report.WorstCaseQualityImpact)
	assert.InDelta(t, report.CurrentEstimate.EstimatedCost*0.6, report.EstimatedSavings, 1e-9)
}
