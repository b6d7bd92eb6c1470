// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package budget

import (
	"context"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

var (
	tracer = otel.Tracer("insight.budget")
	meter  = otel.Meter("insight.budget")

	metricsOnce sync.Once

	allocationsTotal metric.Int64Counter
	efficiencyHist   metric.Float64Histogram
)

func initMetrics() {
	metricsOnce.Do(func() {
		allocationsTotal, _ = meter.Int64Counter(
			"insight_budget_allocations_total",
			metric.WithDescription("Allocation attempts, by outcome"),
		)
		efficiencyHist, _ = meter.Float64Histogram(
			"insight_budget_release_efficiency",
			metric.WithDescription("Estimated/actual cost ratio at release"),
		)
	})
}

func recordAllocation(ctx context.Context, success bool) {
	initMetrics()
	if allocationsTotal != nil {
		outcome := "rejected"
		if success {
			outcome = "granted"
		}
		allocationsTotal.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", outcome)))
	}
}

func recordEfficiency(ctx context.Context, efficiency float64) {
	initMetrics()
	if efficiencyHist != nil {
		efficiencyHist.Record(ctx, efficiency)
	}
}
