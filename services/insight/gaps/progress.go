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

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// MonitorProgress applies an evidence batch to a stored gap.
//
// Description:
//
//	Completion advances by the sum of evidence contributions, capped at
//	1. Status is filled above 80%, partially_filled above 40%, open
//	otherwise. The gap's confidence moves by the mean confidence delta
//	of the batch, clamped to [0,1]; the stored gap is updated in place
//	(its registry insertion time is preserved so TTL ordering holds).
//
// Inputs:
//   - ctx: Context for tracing.
//   - gapID: Registry id of the gap. Unknown ids are caller errors.
//   - evidence: The new evidence batch; empty batches are a no-op
//     report.
//
// Outputs:
//   - ProgressReport: Completion, status, and deltas.
//   - error: ErrGapNotFound when the id is unknown.
//
// Thread Safety: Safe for concurrent use.
func (d *Detector) MonitorProgress(ctx context.Context, gapID string, evidence []EvidenceItem) (ProgressReport, error) {
	_, span := tracer.Start(ctx, "Detector.MonitorProgress",
		trace.WithAttributes(
			attribute.String("gap_id", gapID),
			attribute.Int("evidence_count", len(evidence)),
		))
	defer span.End()

	d.mu.Lock()
	defer d.mu.Unlock()

	gap, ok := d.gaps.get(gapID)
	if !ok {
		return ProgressReport{}, fmt.Errorf("%w: %q", ErrGapNotFound, gapID)
	}

	var contribution, qualitySum, confidenceSum float64
	for _, e := range evidence {
		contribution += clamp01(e.Contribution)
		qualitySum += e.Quality
		confidenceSum += e.ConfidenceDelta
	}

	gap.Completion = clamp01(gap.Completion + contribution)
	switch {
	case gap.Completion > filledThreshold:
		gap.Status = StatusFilled
	case gap.Completion > partiallyFilledThreshold:
		gap.Status = StatusPartiallyFilled
	default:
		gap.Status = StatusOpen
	}

	var qualityDelta, confidenceDelta float64
	if len(evidence) > 0 {
		qualityDelta = qualitySum / float64(len(evidence))
		confidenceDelta = confidenceSum / float64(len(evidence))
		gap.Confidence = clamp01(gap.Confidence + confidenceDelta)
	}
	if gap.Status == StatusFilled {
		gap.ValidationStatus = "validated"
	}
	d.gaps.refresh(gapID, gap)

	report := ProgressReport{
		GapID:           gapID,
		Completion:      gap.Completion,
		Status:          gap.Status,
		QualityDelta:    qualityDelta,
		ConfidenceDelta: confidenceDelta,
	}
	d.logger.Debug("gap progress updated",
		"gap_id", gapID, "completion", gap.Completion, "status", gap.Status)
	return report, nil
}

// Gap returns a stored gap by id.
func (d *Detector) Gap(id string) (Gap, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.gaps.get(id)
}

// Gaps returns all stored gaps, oldest first.
func (d *Detector) Gaps() []Gap {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.gaps.values()
}
