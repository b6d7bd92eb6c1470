// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package budget

import (
	"context"
	"sort"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// OptimizeAllocation plans a serial schedule for pending operations.
//
// Description:
//
//	Operations with deadlines come first, earliest deadline leading;
//	the rest follow in descending priority. Each is placed greedily on a
//	simulated serial timeline if its requirement vector fits the pool's
//	totals; operations that can never fit are reported unschedulable.
//	Efficiency is scheduled cost over total requested cost. The live
//	ledger is not touched; this is pure planning.
//
// Inputs:
//   - ctx: Context for tracing.
//   - pending: Queued operations with requirements and optional
//     deadlines.
//
// Outputs:
//   - Schedule: Timeline entries, total cost, efficiency, and the
//     unschedulable remainder.
//
// Thread Safety: Safe for concurrent use.
func (m *Manager) OptimizeAllocation(ctx context.Context, pending []PendingOperation) Schedule {
	_, span := tracer.Start(ctx, "Manager.OptimizeAllocation",
		trace.WithAttributes(attribute.Int("pending_count", len(pending))))
	defer span.End()

	m.mu.Lock()
	totals := make(map[string]float64, len(m.resources))
	for t, r := range m.resources {
		totals[t] = r.Total
	}
	m.mu.Unlock()

	ordered := append([]PendingOperation(nil), pending...)
	sort.SliceStable(ordered, func(i, j int) bool {
		a, b := ordered[i], ordered[j]
		switch {
		case a.Deadline != nil && b.Deadline != nil:
			if !a.Deadline.Equal(*b.Deadline) {
				return a.Deadline.Before(*b.Deadline)
			}
			return a.Priority > b.Priority
		case a.Deadline != nil:
			return true
		case b.Deadline != nil:
			return false
		default:
			return a.Priority > b.Priority
		}
	})

	var schedule Schedule
	var offset float64
	var requestedCost, scheduledCost float64
	for _, op := range ordered {
		cost := vectorCost(op.Requirements)
		requestedCost += cost

		if !fitsPool(op.Requirements, totals) {
			schedule.Unschedulable = append(schedule.Unschedulable, op.ID)
			continue
		}

		duration := m.estimateDuration(op)
		schedule.Entries = append(schedule.Entries, ScheduleEntry{
			OperationID:   op.ID,
			StartOffsetMS: offset,
			DurationMS:    duration,
		})
		offset += duration
		scheduledCost += cost
	}

	schedule.TotalCost = scheduledCost
	if requestedCost > 0 {
		schedule.Efficiency = scheduledCost / requestedCost
	} else {
		schedule.Efficiency = 1
	}
	m.logger.Debug("allocation plan built",
		"scheduled", len(schedule.Entries), "unschedulable", len(schedule.Unschedulable))
	return schedule
}

func (m *Manager) estimateDuration(op PendingOperation) float64 {
	m.mu.Lock()
	profile, ok := m.profiles[op.Type]
	m.mu.Unlock()
	if !ok {
		return DefaultEstimatedDurationMS
	}
	return profile.BaseDurationMS * (1 + float64(op.Size.Nodes)/1000)
}

func vectorCost(requirements map[string]float64) float64 {
	sum := 0.0
	for _, v := range requirements {
		if v > 0 {
			sum += v
		}
	}
	return sum
}

// fitsPool reports whether the vector fits the pool's total capacity.
// Serial execution means each operation has the whole pool to itself.
func fitsPool(requirements, totals map[string]float64) bool {
	for t, v := range requirements {
		if v > 0 && v > totals[t] {
			return false
		}
	}
	return true
}
