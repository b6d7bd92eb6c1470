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
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Manager is the multi-resource ledger. Construct with NewManager; the
// zero value is not usable.
//
// Allocate and Release each hold the ledger lock for their whole
// duration so the conservation invariant used + available == total can
// never be observed broken, even under concurrent callers.
type Manager struct {
	mu     sync.Mutex
	logger *slog.Logger

	resources   map[string]*Resource
	constraints Constraints
	profiles    map[string]*costProfile
	allocations map[string]*Allocation
	completed   map[string]*Allocation
}

// ManagerOption configures a Manager.
type ManagerOption func(*Manager)

// WithManagerLogger overrides the default slog logger.
func WithManagerLogger(l *slog.Logger) ManagerOption {
	return func(m *Manager) { m.logger = l }
}

// NewManager builds a manager from a validated configuration.
func NewManager(cfg Config, opts ...ManagerOption) (*Manager, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	m := &Manager{
		logger:      slog.Default(),
		resources:   make(map[string]*Resource, len(cfg.Resources)),
		constraints: cfg.Constraints,
		profiles:    defaultProfiles(),
		allocations: make(map[string]*Allocation),
		completed:   make(map[string]*Allocation),
	}
	for _, rc := range cfg.Resources {
		costPerUnit := rc.CostPerUnit
		if costPerUnit <= 0 {
			costPerUnit = 1
		}
		priority := rc.Priority
		if priority == "" {
			priority = PriorityMedium
		}
		m.resources[rc.Type] = &Resource{
			Type:        rc.Type,
			Total:       rc.Total,
			Available:   rc.Total,
			Unit:        rc.Unit,
			CostPerUnit: costPerUnit,
			Priority:    priority,
		}
	}
	for _, opt := range opts {
		opt(m)
	}
	return m, nil
}

// Resources returns a snapshot of the ledger, sorted by type.
func (m *Manager) Resources() []Resource {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]Resource, 0, len(m.resources))
	for _, r := range m.resources {
		out = append(out, *r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Type < out[j].Type })
	return out
}

// Allocate reserves the requirement vector atomically.
//
// Description:
//
//	All-or-nothing: every resource type is checked before any is
//	mutated, so a failed allocation leaves the ledger untouched. Each
//	shortfall produces an error string of the form "Insufficient <type>:
//	requested X, available Y". Unknown resource types are shortfalls
//	too. The request's total cost, priced through each resource's
//	CostPerUnit, must not exceed MaxCostPerOperation. On success a fresh
//	operation id is issued (or the caller's reused) and the allocation
//	is recorded for Release.
//
// Inputs:
//   - ctx: Context for tracing.
//   - operationID: Optional caller-chosen id; empty means generate one.
//   - requirements: Resource type to amount. Zero or negative amounts
//     are ignored.
//
// Outputs:
//   - AllocationResult: Success flag, operation id, shortfall errors.
//
// Thread Safety: Safe for concurrent use; the whole call is one
// critical section.
func (m *Manager) Allocate(ctx context.Context, operationID string, requirements map[string]float64) AllocationResult {
	ctx, span := tracer.Start(ctx, "Manager.Allocate",
		trace.WithAttributes(attribute.Int("resource_count", len(requirements))))
	defer span.End()

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.constraints.MaxConcurrent > 0 && len(m.allocations) >= m.constraints.MaxConcurrent {
		recordAllocation(ctx, false)
		return AllocationResult{
			Success: false,
			Errors:  []string{fmt.Sprintf("Concurrency limit reached: %d operations in flight", len(m.allocations))},
		}
	}

	var errs []string
	types := make([]string, 0, len(requirements))
	for t := range requirements {
		types = append(types, t)
	}
	sort.Strings(types)
	var requestCost float64
	for _, t := range types {
		amount := requirements[t]
		if amount <= 0 {
			continue
		}
		requestCost += amount * m.unitCostLocked(t)
		r, ok := m.resources[t]
		if !ok {
			errs = append(errs, fmt.Sprintf("Insufficient %s: requested %.2f, available 0.00", t, amount))
			continue
		}
		if r.Available < amount {
			errs = append(errs, fmt.Sprintf("Insufficient %s: requested %.2f, available %.2f", t, amount, r.Available))
		}
	}
	if m.constraints.MaxCostPerOperation > 0 && requestCost > m.constraints.MaxCostPerOperation {
		errs = append(errs, fmt.Sprintf("Operation cost %.2f exceeds the per-operation cap %.2f",
			requestCost, m.constraints.MaxCostPerOperation))
	}
	if len(errs) > 0 {
		recordAllocation(ctx, false)
		return AllocationResult{Success: false, Errors: errs}
	}

	if operationID == "" {
		operationID = uuid.NewString()
	}
	reserved := make(map[string]float64, len(requirements))
	for _, t := range types {
		amount := requirements[t]
		if amount <= 0 {
			continue
		}
		r := m.resources[t]
		r.Available -= amount
		r.Used += amount
		reserved[t] = amount
	}
	m.allocations[operationID] = &Allocation{
		OperationID: operationID,
		Resources:   reserved,
		AllocatedAt: time.Now(),
	}

	recordAllocation(ctx, true)
	m.logger.Debug("resources allocated", "operation_id", operationID, "resources", reserved)
	return AllocationResult{Success: true, OperationID: operationID}
}

// Release restores an operation's reservation and reconciles actuals.
//
// Description:
//
//	Returns Released=false for an unknown operation id. Efficiency is
//	the estimated/actual cost ratio (1 when no actuals are supplied).
//	Supplied actuals are folded into the operation type's cost profile
//	with an exponential moving average (alpha 0.3) so future estimates
//	track reality. The allocation record is finalized with the actuals
//	and retained; AllocationRecord can retrieve it afterward.
//
// Inputs:
//   - ctx: Context for tracing.
//   - operationID: The id issued by Allocate.
//   - operationType: Profile to update; empty skips the update.
//   - actualCost / actualDurationMS: Observed actuals; zero or negative
//     means unknown.
//
// Outputs:
//   - ReleaseResult: Released flag and realized efficiency.
//
// Thread Safety: Safe for concurrent use; the whole call is one
// critical section.
func (m *Manager) Release(ctx context.Context, operationID, operationType string, actualCost, actualDurationMS float64) ReleaseResult {
	ctx, span := tracer.Start(ctx, "Manager.Release",
		trace.WithAttributes(attribute.String("operation_id", operationID)))
	defer span.End()

	m.mu.Lock()
	defer m.mu.Unlock()

	alloc, ok := m.allocations[operationID]
	if !ok {
		return ReleaseResult{Released: false}
	}
	delete(m.allocations, operationID)

	for t, amount := range alloc.Resources {
		if r, ok := m.resources[t]; ok {
			r.Available += amount
			r.Used -= amount
		}
	}

	efficiency := 1.0
	if actualCost > 0 && alloc.Estimate.EstimatedCost > 0 {
		efficiency = alloc.Estimate.EstimatedCost / actualCost
	}
	if operationType != "" {
		alloc.OperationType = operationType
		m.updateProfileLocked(operationType, actualCost, actualDurationMS)
	}

	alloc.ActualCost = actualCost
	alloc.ActualDurationMS = actualDurationMS
	alloc.Efficiency = efficiency
	alloc.ReleasedAt = time.Now()
	m.completed[operationID] = alloc

	recordEfficiency(ctx, efficiency)
	m.logger.Debug("resources released",
		"operation_id", operationID, "efficiency", efficiency)
	return ReleaseResult{Released: true, Efficiency: efficiency}
}

// AllocateEstimated estimates an operation and, when feasible, reserves
// its resource vector in one critical section. This is the gate the
// analytics and gap engines call before running.
func (m *Manager) AllocateEstimated(ctx context.Context, operationType string, size GraphSize, params map[string]any) (CostEstimate, AllocationResult) {
	estimate := m.EstimateCost(ctx, operationType, size, params)
	if !estimate.Feasible {
		return estimate, AllocationResult{Success: false, Errors: estimate.Recommendations}
	}
	result := m.Allocate(ctx, "", estimate.Resources)
	if result.Success {
		m.mu.Lock()
		if alloc, ok := m.allocations[result.OperationID]; ok {
			alloc.OperationType = operationType
			alloc.Estimate = estimate
		}
		m.mu.Unlock()
	}
	return estimate, result
}

// AllocationRecord returns the allocation for an operation id, live or
// finalized. A finalized record has a non-zero ReleasedAt and carries
// the reconciled actuals.
func (m *Manager) AllocationRecord(operationID string) (Allocation, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if alloc, ok := m.allocations[operationID]; ok {
		return *alloc, true
	}
	if alloc, ok := m.completed[operationID]; ok {
		return *alloc, true
	}
	return Allocation{}, false
}

// InFlight returns the number of live allocations.
func (m *Manager) InFlight() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.allocations)
}
