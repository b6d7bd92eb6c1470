// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package gaps

import (
	"context"
	"math"
	"sort"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// ResourceAvailability describes what the caller can spend on filling a
// gap. Zero values mean unconstrained.
type ResourceAvailability struct {
	Budget    float64  `json:"budget,omitempty"`
	TimeWeeks int      `json:"time_weeks,omitempty"`
	Expertise []string `json:"expertise,omitempty"`
	Equipment []string `json:"equipment,omitempty"`
}

// GenerateFillStrategies builds strategies for resolving one gap.
//
// Description:
//
//	Matches a fixed catalog keyed by gap type (empirical research for
//	missing evidence, theoretical derivation for conceptual gaps,
//	methodological design and computational modeling for methodological
//	and causal gaps) and always includes a literature-review fallback.
//	Risk is adjusted against the caller's resources: tight budgets raise
//	resource risk, short timelines raise time risk. The recommended
//	strategy maximizes expected impact; alternatives are ranked by
//	viability (1 − feasibility risk).
//
// Inputs:
//   - ctx: Context for tracing.
//   - gap: The gap to strategize. Must exist in the registry or be a
//     caller-constructed gap; either works, only its fields are read.
//   - resources: Available budget, time, expertise, equipment.
//
// Outputs:
//   - StrategySet: Recommended strategy plus viability-ranked
//     alternatives.
//   - error: Reserved.
//
// Thread Safety: Safe for concurrent use.
func (d *Detector) GenerateFillStrategies(ctx context.Context, gap Gap, resources ResourceAvailability) (StrategySet, error) {
	_, span := tracer.Start(ctx, "Detector.GenerateFillStrategies",
		trace.WithAttributes(attribute.String("gap_type", string(gap.Type))))
	defer span.End()

	now := time.Now()
	strategies := catalogStrategies(gap, now)
	strategies = append(strategies, literatureReview(gap, now))
	for i := range strategies {
		adjustRisk(&strategies[i], resources)
	}

	best := 0
	for i, s := range strategies {
		if s.Outcome.ImpactScore > strategies[best].Outcome.ImpactScore {
			best = i
		}
	}
	set := StrategySet{Recommended: strategies[best]}
	for i, s := range strategies {
		if i != best {
			set.Alternatives = append(set.Alternatives, s)
		}
	}
	sort.Slice(set.Alternatives, func(i, j int) bool {
		return set.Alternatives[i].Viability() > set.Alternatives[j].Viability()
	})

	d.mu.Lock()
	for _, s := range strategies {
		d.strategies.put(s.ID, s, now)
	}
	d.strategies.enforceCap()
	d.mu.Unlock()

	return set, nil
}

// catalogStrategies returns the type-specific strategies for a gap.
func catalogStrategies(gap Gap, now time.Time) []FillStrategy {
	switch gap.Type {
	case GapMissingEvidence:
		return []FillStrategy{{
			ID:       uuid.NewString(),
			GapID:    gap.ID,
			Approach: "empirical_research",
			Steps: []string{
				"Formulate the evidential question precisely",
				"Design a study targeting the weak confidence dimensions",
				"Collect and analyze data",
				"Integrate findings into the reasoning graph",
			},
			SuccessCriteria: []string{
				"Mean node confidence rises above 0.6",
				"At least one independent replication",
			},
			Outcome: ExpectedOutcome{
				NodeType:         "evidence",
				EvidenceStrength: 0.8,
				ConnectionCount:  2,
				ImpactScore:      0.75,
			},
			Risk:      RiskAssessment{Feasibility: 0.3, Resource: 0.5, Time: 0.5, Quality: 0.2},
			CreatedAt: now,
		}}
	case GapConceptual:
		return []FillStrategy{{
			ID:       uuid.NewString(),
			GapID:    gap.ID,
			Approach: "theoretical_derivation",
			Steps: []string{
				"Survey adjacent theoretical frameworks",
				"Derive the missing concept from established premises",
				"Validate consistency with the existing graph",
			},
			SuccessCriteria: []string{
				"Concept integrates without contradicting existing edges",
				"Expert review confirms construct validity",
			},
			Outcome: ExpectedOutcome{
				NodeType:         "hypothesis",
				EvidenceStrength: 0.6,
				ConnectionCount:  3,
				ImpactScore:      0.7,
			},
			Risk:      RiskAssessment{Feasibility: 0.4, Resource: 0.2, Time: 0.3, Quality: 0.4},
			CreatedAt: now,
		}}
	case GapMethodological:
		return []FillStrategy{
			{
				ID:       uuid.NewString(),
				GapID:    gap.ID,
				Approach: "methodological_design",
				Steps: []string{
					"Audit the causal claim's identification assumptions",
					"Select an appropriate study design",
					"Document the methodology on the claim's endpoints",
				},
				SuccessCriteria: []string{
					"Both endpoints carry a declared methodology",
					"Design passes an identification checklist",
				},
				Outcome: ExpectedOutcome{
					NodeType:         "method",
					EvidenceStrength: 0.7,
					ConnectionCount:  2,
					ImpactScore:      0.8,
				},
				Risk:      RiskAssessment{Feasibility: 0.35, Resource: 0.4, Time: 0.4, Quality: 0.25},
				CreatedAt: now,
			},
			{
				ID:       uuid.NewString(),
				GapID:    gap.ID,
				Approach: "computational_modeling",
				Steps: []string{
					"Build a simulation of the hypothesized mechanism",
					"Run sensitivity analysis over plausible parameters",
					"Compare simulated and observed patterns",
				},
				SuccessCriteria: []string{
					"Model reproduces the observed relationship",
					"Sensitivity bounds documented",
				},
				Outcome: ExpectedOutcome{
					NodeType:         "mechanism",
					EvidenceStrength: 0.5,
					ConnectionCount:  2,
					ImpactScore:      0.6,
				},
				Risk:      RiskAssessment{Feasibility: 0.45, Resource: 0.3, Time: 0.35, Quality: 0.45},
				CreatedAt: now,
			},
		}
	case GapCausal:
		return []FillStrategy{{
			ID:       uuid.NewString(),
			GapID:    gap.ID,
			Approach: "computational_modeling",
			Steps: []string{
				"Specify the candidate causal structure",
				"Test against observational data with causal-inference methods",
				"Quantify effect size and confounding sensitivity",
			},
			SuccessCriteria: []string{
				"Effect estimate distinguishable from zero",
				"Robustness to plausible confounders",
			},
			Outcome: ExpectedOutcome{
				NodeType:         "mechanism",
				EvidenceStrength: 0.65,
				ConnectionCount:  2,
				ImpactScore:      0.7,
			},
			Risk:      RiskAssessment{Feasibility: 0.4, Resource: 0.35, Time: 0.4, Quality: 0.35},
			CreatedAt: now,
		}}
	default:
		// missing_node / missing_edge rely on the fallback alone.
		return nil
	}
}

// literatureReview is the always-available fallback strategy.
func literatureReview(gap Gap, now time.Time) FillStrategy {
	return FillStrategy{
		ID:       uuid.NewString(),
		GapID:    gap.ID,
		Approach: "literature_review",
		Steps: []string{
			"Define search terms from the gap's evidence patterns",
			"Screen and synthesize relevant publications",
			"Map findings onto the reasoning graph",
		},
		SuccessCriteria: []string{
			"At least five relevant sources synthesized",
			"Gap status advances beyond open",
		},
		Outcome: ExpectedOutcome{
			NodeType:         "evidence",
			EvidenceStrength: 0.5,
			ConnectionCount:  1,
			ImpactScore:      0.5,
		},
		Risk:      RiskAssessment{Feasibility: 0.15, Resource: 0.15, Time: 0.25, Quality: 0.4},
		CreatedAt: now,
	}
}

// adjustRisk folds the caller's resource situation into a strategy's
// risk profile.
func adjustRisk(s *FillStrategy, r ResourceAvailability) {
	if r.Budget > 0 && r.Budget < 10000 {
		s.Risk.Resource = clamp01(s.Risk.Resource + 0.2)
	}
	if r.TimeWeeks > 0 && r.TimeWeeks < 8 {
		s.Risk.Time = clamp01(s.Risk.Time + 0.2)
	}
	if len(r.Expertise) == 0 {
		s.Risk.Feasibility = clamp01(s.Risk.Feasibility + 0.1)
	}
}

func clamp01(v float64) float64 {
	return math.Min(math.Max(v, 0), 1)
}
