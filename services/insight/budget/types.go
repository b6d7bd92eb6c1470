// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package budget

import "time"

// Well-known resource types. The ledger accepts arbitrary type strings;
// these are the ones the default configuration provisions.
const (
	ResourceCPU      = "cpu"
	ResourceMemory   = "memory"
	ResourceStorage  = "storage"
	ResourceAPICalls = "api_calls"
)

// Defaults for unknown operation types.
const (
	// DefaultEstimatedCost is the cost assumed for an unregistered
	// operation type.
	DefaultEstimatedCost = 100

	// DefaultEstimatedDurationMS is the duration assumed for an
	// unregistered operation type, in milliseconds.
	DefaultEstimatedDurationMS = 1000
)

// Estimation model constants.
const (
	// complexityPenaltyNodes is the node count above which the
	// logarithmic complexity penalty applies.
	complexityPenaltyNodes = 1000

	// paramCost is the flat cost added per estimation parameter.
	paramCost = 5

	// profileAlpha is the EMA weight given to new actuals when folding
	// them into an operation profile.
	profileAlpha = 0.3
)

// Resource priority tiers.
const (
	PriorityHigh   = "high"
	PriorityMedium = "medium"
	PriorityLow    = "low"
)

// Resource is one ledger row. Invariant: Used + Available == Total.
type Resource struct {
	Type      string  `json:"type"`
	Total     float64 `json:"total"`
	Available float64 `json:"available"`
	Used      float64 `json:"used"`

	// Unit names what Total is measured in (millicores, MB, calls).
	Unit string `json:"unit,omitempty"`

	// CostPerUnit converts reserved amounts of this resource into
	// abstract cost units. Defaults to 1.
	CostPerUnit float64 `json:"cost_per_unit"`

	// Priority is the resource's contention tier (high, medium, low).
	Priority string `json:"priority,omitempty"`
}

// GraphSize summarizes the input scale for cost estimation.
type GraphSize struct {
	Nodes int `json:"nodes"`
	Edges int `json:"edges"`
}

// CostEstimate is the output of EstimateCost. Infeasibility is a soft
// outcome carrying remediation recommendations, not an error.
type CostEstimate struct {
	OperationType       string             `json:"operation_type"`
	EstimatedCost       float64            `json:"estimated_cost"`
	EstimatedDurationMS float64            `json:"estimated_duration_ms"`
	Resources           map[string]float64 `json:"resources"`

	// CostBreakdown prices each entry of Resources through that
	// resource's CostPerUnit.
	CostBreakdown map[string]float64 `json:"cost_breakdown,omitempty"`

	Feasible        bool     `json:"feasible"`
	Recommendations []string `json:"recommendations,omitempty"`
}

// Allocation records resources reserved for one operation. The actuals
// block is zero until Release finalizes the record.
type Allocation struct {
	OperationID   string             `json:"operation_id"`
	OperationType string             `json:"operation_type,omitempty"`
	Resources     map[string]float64 `json:"resources"`
	Estimate      CostEstimate       `json:"estimate"`
	AllocatedAt   time.Time          `json:"allocated_at"`

	// Filled on release.
	ActualCost       float64   `json:"actual_cost,omitempty"`
	ActualDurationMS float64   `json:"actual_duration_ms,omitempty"`
	Efficiency       float64   `json:"efficiency,omitempty"`
	ReleasedAt       time.Time `json:"released_at"`
}

// AllocationResult is the soft-failure outcome of Allocate.
type AllocationResult struct {
	Success     bool     `json:"success"`
	OperationID string   `json:"operation_id,omitempty"`
	Errors      []string `json:"errors,omitempty"`
}

// ReleaseResult reports the reconciliation of an operation's actuals
// against its estimate.
type ReleaseResult struct {
	Released   bool    `json:"released"`
	Efficiency float64 `json:"efficiency"` // estimated / actual; 1 means on budget
}

// Constraints bounds individual operations. Zero values disable a bound.
type Constraints struct {
	MaxCostPerOperation float64 `yaml:"max_cost_per_operation" json:"max_cost_per_operation" validate:"gte=0"`
	MaxDurationMS       float64 `yaml:"max_duration_ms" json:"max_duration_ms" validate:"gte=0"`
	MaxConcurrent       int     `yaml:"max_concurrent" json:"max_concurrent" validate:"gte=0"`
}

// PendingOperation is one queued operation for schedule optimization.
type PendingOperation struct {
	ID           string             `json:"id"`
	Type         string             `json:"type"`
	Priority     float64            `json:"priority"`
	Deadline     *time.Time         `json:"deadline,omitempty"`
	Requirements map[string]float64 `json:"requirements"`
	Size         GraphSize          `json:"size"`
}

// ScheduleEntry places one operation on the simulated timeline.
type ScheduleEntry struct {
	OperationID   string  `json:"operation_id"`
	StartOffsetMS float64 `json:"start_offset_ms"`
	DurationMS    float64 `json:"duration_ms"`
}

// Schedule is the output of OptimizeAllocation.
type Schedule struct {
	Entries       []ScheduleEntry `json:"entries"`
	TotalCost     float64         `json:"total_cost"`
	Efficiency    float64         `json:"efficiency"`
	Unschedulable []string        `json:"unschedulable,omitempty"`
}

// OptimizationStrategy is one entry of the cost-reduction catalog.
type OptimizationStrategy struct {
	Name          string  `json:"name"`
	Description   string  `json:"description"`
	SavingsFactor float64 `json:"savings_factor"` // fraction of cost saved
	QualityImpact float64 `json:"quality_impact"` // worst-case quality loss
}

// OptimizationReport is the output of ApplyOptimizations.
type OptimizationReport struct {
	OperationType          string                 `json:"operation_type"`
	CurrentEstimate        CostEstimate           `json:"current_estimate"`
	Strategies             []OptimizationStrategy `json:"strategies"`
	EstimatedSavings       float64                `json:"estimated_savings"`
	WorstCaseQualityImpact float64                `json:"worst_case_quality_impact"`
}
