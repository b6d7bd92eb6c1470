// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package budget

import (
	"context"
	"fmt"
	"math"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// costProfile models one operation type's resource behavior. Actuals
// reported at Release move BaseCost and BaseDurationMS via EMA.
type costProfile struct {
	BaseCost       float64
	CostPerNode    float64
	CostPerEdge    float64
	BaseDurationMS float64
	CPUShare       float64 // fraction of cost charged as cpu
	MemoryPerNode  float64
	APICalls       float64
}

// defaultProfiles seeds the known operation types. Costs are abstract
// units; durations are milliseconds.
func defaultProfiles() map[string]*costProfile {
	return map[string]*costProfile{
		"centrality": {
			BaseCost: 20, CostPerNode: 0.05, CostPerEdge: 0.02,
			BaseDurationMS: 200, CPUShare: 0.6, MemoryPerNode: 0.5,
		},
		"community_detection": {
			BaseCost: 30, CostPerNode: 0.08, CostPerEdge: 0.03,
			BaseDurationMS: 400, CPUShare: 0.6, MemoryPerNode: 0.6,
		},
		"path_analysis": {
			BaseCost: 25, CostPerNode: 0.1, CostPerEdge: 0.02,
			BaseDurationMS: 300, CPUShare: 0.7, MemoryPerNode: 0.8,
		},
		"flow_analysis": {
			BaseCost: 25, CostPerNode: 0.06, CostPerEdge: 0.04,
			BaseDurationMS: 300, CPUShare: 0.7, MemoryPerNode: 0.5,
		},
		"structure_analysis": {
			BaseCost: 15, CostPerNode: 0.04, CostPerEdge: 0.02,
			BaseDurationMS: 150, CPUShare: 0.5, MemoryPerNode: 0.4,
		},
		"similarity": {
			BaseCost: 20, CostPerNode: 0.12, CostPerEdge: 0.01,
			BaseDurationMS: 250, CPUShare: 0.6, MemoryPerNode: 1.0,
		},
		"optimization": {
			BaseCost: 50, CostPerNode: 0.15, CostPerEdge: 0.05,
			BaseDurationMS: 800, CPUShare: 0.8, MemoryPerNode: 0.7,
		},
		"gap_detection": {
			BaseCost: 35, CostPerNode: 0.07, CostPerEdge: 0.03,
			BaseDurationMS: 500, CPUShare: 0.5, MemoryPerNode: 0.6, APICalls: 2,
		},
	}
}

// EstimateCost predicts the cost of running an operation.
//
// Description:
//
//	Looks up the operation type's profile and scales by graph size. A
//	logarithmic complexity penalty applies above 1000 nodes, edge
//	density adds up to a further multiplier, and each estimation
//	parameter adds a flat cost. Unknown operation types fall back to the
//	default estimate (cost 100, duration 1000ms, feasible). Estimates
//	exceeding the constraints or the total resource pool come back
//	Feasible=false with remediation recommendations, never as an error.
//
// Inputs:
//   - ctx: Context for tracing.
//   - operationType: Profile key, e.g. "centrality".
//   - size: Node and edge counts of the input graph.
//   - params: Operation parameters; only their count matters here.
//
// Outputs:
//   - CostEstimate: Cost, duration, resource vector, feasibility.
//
// Thread Safety: Safe for concurrent use.
func (m *Manager) EstimateCost(ctx context.Context, operationType string, size GraphSize, params map[string]any) CostEstimate {
	_, span := tracer.Start(ctx, "Manager.EstimateCost",
		trace.WithAttributes(
			attribute.String("operation_type", operationType),
			attribute.Int("nodes", size.Nodes),
		))
	defer span.End()

	m.mu.Lock()
	defer m.mu.Unlock()

	profile, known := m.profiles[operationType]
	if !known {
		estimate := CostEstimate{
			OperationType:       operationType,
			EstimatedCost:       DefaultEstimatedCost,
			EstimatedDurationMS: DefaultEstimatedDurationMS,
			Resources: map[string]float64{
				ResourceCPU:    DefaultEstimatedCost * 0.5,
				ResourceMemory: DefaultEstimatedCost * 0.5,
			},
			Feasible: true,
		}
		estimate.CostBreakdown = m.costBreakdownLocked(estimate.Resources)
		m.checkFeasibilityLocked(&estimate)
		return estimate
	}

	cost := profile.BaseCost +
		profile.CostPerNode*float64(size.Nodes) +
		profile.CostPerEdge*float64(size.Edges)
	duration := profile.BaseDurationMS * (1 + float64(size.Nodes)/1000)

	if size.Nodes > complexityPenaltyNodes {
		penalty := 1 + math.Log10(float64(size.Nodes)/complexityPenaltyNodes)
		cost *= penalty
		duration *= penalty
	}
	if size.Nodes > 1 {
		density := float64(size.Edges) / float64(size.Nodes*(size.Nodes-1))
		cost *= 1 + math.Min(density, 1)
	}
	cost += paramCost * float64(len(params))

	estimate := CostEstimate{
		OperationType:       operationType,
		EstimatedCost:       cost,
		EstimatedDurationMS: duration,
		Resources: map[string]float64{
			ResourceCPU:    cost * profile.CPUShare,
			ResourceMemory: profile.MemoryPerNode * float64(max(size.Nodes, 1)),
		},
		Feasible: true,
	}
	if profile.APICalls > 0 {
		estimate.Resources[ResourceAPICalls] = profile.APICalls
	}
	estimate.CostBreakdown = m.costBreakdownLocked(estimate.Resources)
	m.checkFeasibilityLocked(&estimate)
	return estimate
}

// unitCostLocked prices one unit of a resource type. Resources absent
// from the pool price at 1.
func (m *Manager) unitCostLocked(resourceType string) float64 {
	if r, ok := m.resources[resourceType]; ok && r.CostPerUnit > 0 {
		return r.CostPerUnit
	}
	return 1
}

// costBreakdownLocked converts a resource vector into per-resource cost
// via each resource's CostPerUnit.
func (m *Manager) costBreakdownLocked(resources map[string]float64) map[string]float64 {
	breakdown := make(map[string]float64, len(resources))
	for t, amount := range resources {
		breakdown[t] = amount * m.unitCostLocked(t)
	}
	return breakdown
}

// checkFeasibilityLocked downgrades an estimate that exceeds constraints
// or the total pool, attaching remediation recommendations.
func (m *Manager) checkFeasibilityLocked(e *CostEstimate) {
	if m.constraints.MaxCostPerOperation > 0 && e.EstimatedCost > m.constraints.MaxCostPerOperation {
		e.Feasible = false
		e.Recommendations = append(e.Recommendations,
			fmt.Sprintf("Estimated cost %.0f exceeds the per-operation limit %.0f; reduce graph size or apply optimizations",
				e.EstimatedCost, m.constraints.MaxCostPerOperation))
	}
	if m.constraints.MaxDurationMS > 0 && e.EstimatedDurationMS > m.constraints.MaxDurationMS {
		e.Feasible = false
		e.Recommendations = append(e.Recommendations,
			fmt.Sprintf("Estimated duration %.0fms exceeds the limit %.0fms; consider approximation algorithms",
				e.EstimatedDurationMS, m.constraints.MaxDurationMS))
	}
	for t, amount := range e.Resources {
		r, ok := m.resources[t]
		if !ok {
			continue
		}
		if amount > r.Total {
			e.Feasible = false
			e.Recommendations = append(e.Recommendations,
				fmt.Sprintf("Requires %.0f %s but the pool only holds %.0f; partition the input", amount, t, r.Total))
		}
	}
}

// updateProfileLocked folds actuals into the type's profile via EMA.
func (m *Manager) updateProfileLocked(operationType string, actualCost, actualDurationMS float64) {
	profile, ok := m.profiles[operationType]
	if !ok {
		// First observation of an unregistered type seeds its profile
		// from the defaults.
		profile = &costProfile{
			BaseCost:       DefaultEstimatedCost,
			BaseDurationMS: DefaultEstimatedDurationMS,
			CPUShare:       0.5,
			MemoryPerNode:  0.5,
		}
		m.profiles[operationType] = profile
	}
	if actualCost > 0 {
		profile.BaseCost = (1-profileAlpha)*profile.BaseCost + profileAlpha*actualCost
	}
	if actualDurationMS > 0 {
		profile.BaseDurationMS = (1-profileAlpha)*profile.BaseDurationMS + profileAlpha*actualDurationMS
	}
}
