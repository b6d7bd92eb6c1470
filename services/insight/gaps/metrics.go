// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package gaps

import (
	"context"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

var (
	tracer = otel.Tracer("insight.gaps")
	meter  = otel.Meter("insight.gaps")

	metricsOnce sync.Once

	gapsDetected   metric.Int64Counter
	sweepEvictions metric.Int64Counter
)

func initMetrics() {
	metricsOnce.Do(func() {
		gapsDetected, _ = meter.Int64Counter(
			"insight_gaps_detected_total",
			metric.WithDescription("Knowledge gaps detected, by type"),
		)
		sweepEvictions, _ = meter.Int64Counter(
			"insight_gap_sweep_evictions_total",
			metric.WithDescription("Registry entries removed by sweep passes"),
		)
	})
}

func recordDetection(ctx context.Context, gapType GapType) {
	initMetrics()
	if gapsDetected != nil {
		gapsDetected.Add(ctx, 1, metric.WithAttributes(attribute.String("type", string(gapType))))
	}
}

func recordEvictions(ctx context.Context, registry string, n int) {
	initMetrics()
	if sweepEvictions != nil && n > 0 {
		sweepEvictions.Add(ctx, int64(n), metric.WithAttributes(attribute.String("registry", registry)))
	}
}
