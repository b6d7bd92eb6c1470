// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package graph

import (
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Package-level tracer and meter for analytics operations.
var (
	tracer = otel.Tracer("insight.graph")
	meter  = otel.Meter("insight.graph")
)

// Metrics for analytics operations.
var (
	analysisLatency metric.Float64Histogram
	analysisTotal   metric.Int64Counter
	cacheHits       metric.Int64Counter

	metricsOnce sync.Once
	metricsErr  error
)

// initMetrics initializes the instruments. Safe to call multiple times.
func initMetrics() error {
	metricsOnce.Do(func() {
		var err error

		analysisLatency, err = meter.Float64Histogram(
			"insight_analysis_duration_seconds",
			metric.WithDescription("Duration of graph analytics operations"),
			metric.WithUnit("s"),
		)
		if err != nil {
			metricsErr = err
			return
		}

		analysisTotal, err = meter.Int64Counter(
			"insight_analysis_total",
			metric.WithDescription("Total number of graph analytics operations"),
		)
		if err != nil {
			metricsErr = err
			return
		}

		cacheHits, err = meter.Int64Counter(
			"insight_analysis_cache_hits_total",
			metric.WithDescription("Analytics result cache hits"),
		)
		if err != nil {
			metricsErr = err
			return
		}
	})
	return metricsErr
}

// recordAnalysis records one completed analytics operation.
func recordAnalysis(ctx context.Context, op string, d time.Duration, cached bool) {
	if initMetrics() != nil {
		return
	}
	attrs := metric.WithAttributes(attribute.String("operation", op))
	analysisTotal.Add(ctx, 1, attrs)
	analysisLatency.Record(ctx, d.Seconds(), attrs)
	if cached {
		cacheHits.Add(ctx, 1, attrs)
	}
}
