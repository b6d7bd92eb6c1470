// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package budget

import (
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEstimateCost_UnknownOperationDefaults(t *testing.T) {
	m := testManager(t)
	estimate := m.EstimateCost(context.Background(), "unregistered_op", GraphSize{Nodes: 50, Edges: 100}, nil)

	assert.Equal(t, 100.0, estimate.EstimatedCost)
	assert.Equal(t, 1000.0, estimate.EstimatedDurationMS)
	assert.True(t, estimate.Feasible)
}

func TestEstimateCost_ScalesWithGraphSize(t *testing.T) {
	m := testManager(t)
	ctx := context.Background()

	small := m.EstimateCost(ctx, "centrality", GraphSize{Nodes: 10, Edges: 20}, nil)
	large := m.EstimateCost(ctx, "centrality", GraphSize{Nodes: 500, Edges: 2000}, nil)

	assert.Greater(t, large.EstimatedCost, small.EstimatedCost)
	assert.Greater(t, large.EstimatedDurationMS, small.EstimatedDurationMS)
}

func TestEstimateCost_ComplexityPenaltyAboveThreshold(t *testing.T) {
	m := testManager(t)
	ctx := context.Background()

	// Same per-node cost either side of the threshold; the penalty makes
	// the 10000-node estimate more than 10x the 1000-node one.
	at := m.EstimateCost(ctx, "centrality", GraphSize{Nodes: 1000}, nil)
	above := m.EstimateCost(ctx, "centrality", GraphSize{Nodes: 10000}, nil)

	linearProjection := at.EstimatedCost * 10
	assert.Greater(t, above.EstimatedCost, at.EstimatedCost)
	assert.Greater(t, above.EstimatedCost*2, linearProjection,
		"penalty should be logarithmic, not explosive")
}

func TestEstimateCost_ParamsAddFlatCost(t *testing.T) {
	m := testManager(t)
	ctx := context.Background()
	size := GraphSize{Nodes: 100, Edges: 100}

	bare := m.EstimateCost(ctx, "path_analysis", size, nil)
	withParams := m.EstimateCost(ctx, "path_analysis", size, map[string]any{
		"algorithm": "dijkstra",
		"weighted":  true,
	})
	assert.InDelta(t, 2*paramCost, withParams.EstimatedCost-bare.EstimatedCost, 1e-9)
}

func TestEstimateCost_BreakdownUsesUnitPricing(t *testing.T) {
	cfg := Config{Resources: []ResourceConfig{
		{Type: ResourceCPU, Total: 10000, CostPerUnit: 2},
		{Type: ResourceMemory, Total: 10000, CostPerUnit: 0.5},
	}}
	m, err := NewManager(cfg)
	require.NoError(t, err)

	estimate := m.EstimateCost(context.Background(), "centrality", GraphSize{Nodes: 100, Edges: 200}, nil)
	require.Contains(t, estimate.CostBreakdown, ResourceCPU)
	require.Contains(t, estimate.CostBreakdown, ResourceMemory)
	assert.InDelta(t, estimate.Resources[ResourceCPU]*2, estimate.CostBreakdown[ResourceCPU], 1e-9)
	assert.InDelta(t, estimate.Resources[ResourceMemory]*0.5, estimate.CostBreakdown[ResourceMemory], 1e-9)
}

func TestEstimateCost_InfeasibleIsSoft(t *testing.T) {
	cfg := Config{
		Resources:   []ResourceConfig{{Type: ResourceCPU, Total: 1000}},
		Constraints: Constraints{MaxCostPerOperation: 10},
	}
	m, err := NewManager(cfg)
	require.NoError(t, err)

	estimate := m.EstimateCost(context.Background(), "optimization", GraphSize{Nodes: 5000, Edges: 20000}, nil)
	assert.False(t, estimate.Feasible)
	assert.NotEmpty(t, estimate.Recommendations, "infeasible estimates carry remediation advice")
}

func TestLoadConfig_Validation(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
		ok   bool
	}{
		{"valid", Config{Resources: []ResourceConfig{{Type: "cpu", Total: 10}}}, true},
		{"no resources", Config{}, false},
		{"zero total", Config{Resources: []ResourceConfig{{Type: "cpu", Total: 0}}}, false},
		{"missing type", Config{Resources: []ResourceConfig{{Total: 10}}}, false},
		{"duplicate type", Config{Resources: []ResourceConfig{
			{Type: "cpu", Total: 10}, {Type: "cpu", Total: 20},
		}}, false},
		{"bad priority tier", Config{Resources: []ResourceConfig{
			{Type: "cpu", Total: 10, Priority: "urgent"},
		}}, false},
		{"valid with pricing", Config{Resources: []ResourceConfig{
			{Type: "cpu", Total: 10, Unit: "millicores", CostPerUnit: 2, Priority: "high"},
		}}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.ok {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, ErrInvalidConfig)
			}
		})
	}
}

func TestLoadConfig_FromYAML(t *testing.T) {
	path := t.TempDir() + "/budget.yaml"
	data := `
resources:
  - type: cpu
    total: 100
  - type: memory
    total: 2048
constraints:
  max_cost_per_operation: 500
`
	require.NoError(t, os.WriteFile(path, []byte(data), 0o600))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Len(t, cfg.Resources, 2)
	assert.Equal(t, 500.0, cfg.Constraints.MaxCostPerOperation)

	_, err = LoadConfig(path + ".missing")
	assert.Error(t, err)
}
