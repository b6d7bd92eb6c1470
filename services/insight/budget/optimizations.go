// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package budget

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// optimizationCatalog maps each strategy to the operation types it can
// serve. Savings compound multiplicatively; quality impacts report the
// worst case among applied strategies.
var optimizationCatalog = []struct {
	strategy   OptimizationStrategy
	applicable map[string]bool
}{
	{
		strategy: OptimizationStrategy{
			Name:          "graph_pruning",
			Description:   "Drop low-confidence peripheral nodes before analysis",
			SavingsFactor: 0.3,
			QualityImpact: 0.1,
		},
		applicable: map[string]bool{
			"centrality": true, "community_detection": true,
			"path_analysis": true, "gap_detection": true,
		},
	},
	{
		strategy: OptimizationStrategy{
			Name:          "hierarchical_processing",
			Description:   "Coarsen the graph and refine only promising regions",
			SavingsFactor: 0.4,
			QualityImpact: 0.15,
		},
		applicable: map[string]bool{
			"community_detection": true, "structure_analysis": true,
			"optimization": true,
		},
	},
	{
		strategy: OptimizationStrategy{
			Name:          "approximation_algorithms",
			Description:   "Swap exact algorithms for bounded-error approximations",
			SavingsFactor: 0.5,
			QualityImpact: 0.2,
		},
		applicable: map[string]bool{
			"centrality": true, "path_analysis": true,
			"flow_analysis": true, "similarity": true,
		},
	},
	{
		strategy: OptimizationStrategy{
			Name:          "result_caching",
			Description:   "Reuse results keyed by structural hash across repeated calls",
			SavingsFactor: 0.6,
			QualityImpact: 0,
		},
		applicable: nil, // applies to every operation type
	},
}

// ApplyOptimizations matches the cost-reduction catalog to an operation.
//
// Description:
//
//	Selects the catalog strategies applicable to the operation type,
//	estimates the compound savings against the current cost estimate
//	for the given graph size, and reports the worst-case quality impact
//	among the applicable strategies. Result caching applies to every
//	operation type and costs no quality.
//
// Inputs:
//   - ctx: Context for tracing.
//   - operationType: Profile key, e.g. "centrality".
//   - size: Node and edge counts of the input graph.
//
// Outputs:
//   - OptimizationReport: Applicable strategies, savings, worst-case
//     quality impact.
//
// Thread Safety: Safe for concurrent use.
func (m *Manager) ApplyOptimizations(ctx context.Context, operationType string, size GraphSize) OptimizationReport {
	ctx, span := tracer.Start(ctx, "Manager.ApplyOptimizations",
		trace.WithAttributes(attribute.String("operation_type", operationType)))
	defer span.End()

	estimate := m.EstimateCost(ctx, operationType, size, nil)

	report := OptimizationReport{
		OperationType:   operationType,
		CurrentEstimate: estimate,
	}
	remaining := estimate.EstimatedCost
	for _, entry := range optimizationCatalog {
		if entry.applicable != nil && !entry.applicable[operationType] {
			continue
		}
		report.Strategies = append(report.Strategies, entry.strategy)
		remaining *= 1 - entry.strategy.SavingsFactor
		if entry.strategy.QualityImpact > report.WorstCaseQualityImpact {
			report.WorstCaseQualityImpact = entry.strategy.QualityImpact
		}
	}
	report.EstimatedSavings = estimate.EstimatedCost - remaining
	return report
}
