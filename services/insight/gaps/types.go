// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package gaps

import (
	"time"

	"github.com/AleutianAI/insight/services/insight/graph"
)

// Registry bounds and maintenance intervals.
const (
	// MaxGaps caps the detected-gap registry.
	MaxGaps = 1000

	// MaxPlaceholders caps the placeholder registry.
	MaxPlaceholders = 500

	// MaxStrategies caps the fill-strategy registry.
	MaxStrategies = 200

	// GapTTL is how long a gap survives without being refreshed.
	GapTTL = 24 * time.Hour

	// PlaceholderTTL is how long a placeholder survives.
	PlaceholderTTL = time.Hour

	// SweepInterval is the cadence of the background cleanup pass.
	SweepInterval = 30 * time.Minute
)

// Memory pressure thresholds as fractions of combined capacity.
const (
	pressureMediumThreshold = 0.5
	pressureHighThreshold   = 0.8
)

// GapType classifies a detected knowledge gap.
type GapType string

const (
	GapMissingNode     GapType = "missing_node"
	GapMissingEdge     GapType = "missing_edge"
	GapMissingEvidence GapType = "missing_evidence"
	GapConceptual      GapType = "conceptual_gap"
	GapMethodological  GapType = "methodological_gap"
	GapCausal          GapType = "causal_gap"
)

// Tier is the research-priority tier recorded on a gap.
type Tier string

const (
	TierCritical Tier = "critical"
	TierHigh     Tier = "high"
	TierMedium   Tier = "medium"
	TierLow      Tier = "low"
)

// Status classifies gap-filling progress.
type Status string

const (
	StatusOpen            Status = "open"
	StatusPartiallyFilled Status = "partially_filled"
	StatusFilled          Status = "filled"
)

// Status thresholds on completion fraction.
const (
	filledThreshold          = 0.8
	partiallyFilledThreshold = 0.4
)

// Location situates a gap in the graph and the research domain.
type Location struct {
	Domains      []string `json:"domains,omitempty"`
	RelatedNodes []string `json:"related_nodes,omitempty"`
	Area         string   `json:"area,omitempty"`
}

// GapEvidence records the observations that led to detecting a gap.
type GapEvidence struct {
	Patterns           []string `json:"patterns,omitempty"`
	MissingConnections []string `json:"missing_connections,omitempty"`
	Anomalies          []string `json:"anomalies,omitempty"`
}

// Impact estimates the effect of a gap on the reasoning graph.
type Impact struct {
	Reliability      float64 `json:"reliability"`
	Completeness     float64 `json:"completeness"`
	Coherence        float64 `json:"coherence"`
	ExplanatoryPower float64 `json:"explanatory_power"`
}

// Gap is one detected knowledge gap. All scalar scores are in [0,1] and
// independent of one another.
type Gap struct {
	ID       string   `json:"id"`
	Type     GapType  `json:"type"`
	Location Location `json:"location"`

	Priority      float64 `json:"priority"`
	Confidence    float64 `json:"confidence"`
	Detectability float64 `json:"detectability"`
	Fillability   float64 `json:"fillability"`
	Importance    float64 `json:"importance"`

	Evidence GapEvidence `json:"evidence"`
	Impact   Impact      `json:"impact"`

	DetectedAt       time.Time `json:"detected_at"`
	DetectionMethod  string    `json:"detection_method"`
	ValidationStatus string    `json:"validation_status"`
	Tier             Tier      `json:"tier"`

	Status     Status  `json:"status"`
	Completion float64 `json:"completion"`

	Metadata map[string]any `json:"metadata,omitempty"`
}

// ExpectedProperties describes what a placeholder's real counterpart is
// expected to look like once discovered.
type ExpectedProperties struct {
	NodeType            string   `json:"node_type"`
	ExpectedConnections int      `json:"expected_connections"`
	ExpectedEvidence    []string `json:"expected_evidence,omitempty"`
	Mechanisms          []string `json:"mechanisms,omitempty"`
}

// DiscoveryHeuristics suggests how to go find the missing knowledge.
type DiscoveryHeuristics struct {
	SearchTerms        []string `json:"search_terms,omitempty"`
	ResearchDirections []string `json:"research_directions,omitempty"`
	CandidateSources   []string `json:"candidate_sources,omitempty"`
	Methodologies      []string `json:"methodologies,omitempty"`
}

// Placeholder is a synthetic low-confidence node standing in for exactly
// one unresolved gap.
type Placeholder struct {
	Node       graph.Node          `json:"node"`
	GapID      string              `json:"gap_id"`
	Expected   ExpectedProperties  `json:"expected_properties"`
	Heuristics DiscoveryHeuristics `json:"discovery_heuristics"`
	CreatedAt  time.Time           `json:"created_at"`
}

// RiskAssessment scores a strategy on four independent risk axes, each
// in [0,1] where higher means riskier.
type RiskAssessment struct {
	Feasibility float64 `json:"feasibility"`
	Resource    float64 `json:"resource"`
	Time        float64 `json:"time"`
	Quality     float64 `json:"quality"`
}

// ExpectedOutcome is what successfully executing a strategy should
// produce.
type ExpectedOutcome struct {
	NodeType         string  `json:"node_type"`
	EvidenceStrength float64 `json:"evidence_strength"`
	ConnectionCount  int     `json:"connection_count"`
	ImpactScore      float64 `json:"impact_score"`
}

// FillStrategy is one concrete approach to resolving a gap.
type FillStrategy struct {
	ID       string `json:"id"`
	GapID    string `json:"gap_id"`
	Approach string `json:"approach"`

	Steps           []string `json:"steps"`
	SuccessCriteria []string `json:"success_criteria"`

	Outcome ExpectedOutcome `json:"expected_outcome"`
	Risk    RiskAssessment  `json:"risk_assessment"`

	CreatedAt time.Time `json:"created_at"`
}

// Viability is the alternatives ranking key: inverse feasibility risk.
func (s FillStrategy) Viability() float64 {
	return 1 - s.Risk.Feasibility
}

// StrategySet is the output of strategy generation for one gap.
type StrategySet struct {
	Recommended  FillStrategy   `json:"recommended"`
	Alternatives []FillStrategy `json:"alternatives"`
}

// Pattern is a caller-supplied expected structure used by conceptual gap
// detection: a named node set with relationships between them.
type Pattern struct {
	Name          string   `json:"name"`
	Nodes         []string `json:"nodes"`
	Relationships []string `json:"relationships,omitempty"`
}

// CausalCandidate is a caller-identified causal relationship that may be
// missing from the graph.
type CausalCandidate struct {
	Source    string  `json:"source"`
	Target    string  `json:"target"`
	Strength  float64 `json:"strength"`
	Rationale string  `json:"rationale,omitempty"`
}

// DomainKnowledge carries optional external context for detection.
type DomainKnowledge struct {
	Patterns         []Pattern         `json:"patterns,omitempty"`
	CausalCandidates []CausalCandidate `json:"causal_candidates,omitempty"`
	KnownTheories    []string          `json:"known_theories,omitempty"`
}

// GapSummary aggregates a detection pass.
type GapSummary struct {
	Total      int             `json:"total"`
	ByType     map[GapType]int `json:"by_type"`
	ByPriority map[string]int  `json:"by_priority"` // high / medium / low

	Critical        []Gap    `json:"critical"`
	Fillable        []Gap    `json:"fillable"`
	StructuralHoles []string `json:"structural_holes,omitempty"`
	Recommendations []string `json:"recommendations,omitempty"`
}

// Priority band and subset thresholds for the summary.
const (
	highPriorityBand   = 0.7
	mediumPriorityBand = 0.4
	criticalThreshold  = 0.8
	fillableThreshold  = 0.6
	maxRecommendations = 5
)

// DetectResult is the payload of DetectGaps.
type DetectResult struct {
	Gaps    []Gap      `json:"gaps"`
	Summary GapSummary `json:"summary"`
}

// MemoryStats reports registry occupancy and pressure.
type MemoryStats struct {
	Gaps         int     `json:"gaps"`
	Placeholders int     `json:"placeholders"`
	Strategies   int     `json:"strategies"`
	Capacity     int     `json:"capacity"`
	Utilization  float64 `json:"utilization"`
	Pressure     string  `json:"pressure"` // low / medium / high
}

// EvidenceItem is one piece of new evidence fed to progress monitoring.
type EvidenceItem struct {
	Description     string  `json:"description"`
	Contribution    float64 `json:"contribution"` // fraction of completion, [0,1]
	Quality         float64 `json:"quality"`
	ConfidenceDelta float64 `json:"confidence_delta"`
}

// ProgressReport is the outcome of applying an evidence batch to a gap.
type ProgressReport struct {
	GapID           string  `json:"gap_id"`
	Completion      float64 `json:"completion"`
	Status          Status  `json:"status"`
	QualityDelta    float64 `json:"quality_delta"`
	ConfidenceDelta float64 `json:"confidence_delta"`
}
