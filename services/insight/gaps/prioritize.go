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
	"sort"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Research-priority weighting.
const (
	importanceWeight    = 0.4
	fillabilityWeight   = 0.3
	detectabilityWeight = 0.3
)

// ResearchConstraints bounds the research plan.
type ResearchConstraints struct {
	Budget        float64  `json:"budget,omitempty"`
	TimelineWeeks int      `json:"timeline_weeks,omitempty"`
	TeamSize      int      `json:"team_size,omitempty"`
	Expertise     []string `json:"expertise,omitempty"`
}

// PrioritizedGap pairs a gap with its computed research priority score.
type PrioritizedGap struct {
	Gap   Gap     `json:"gap"`
	Score float64 `json:"score"`
}

// ResearchPhase groups ranked gaps into an execution window.
type ResearchPhase struct {
	Name          string   `json:"name"`
	GapIDs        []string `json:"gap_ids"`
	DurationWeeks int      `json:"duration_weeks"`
}

// ResearchPlan is the output of PrioritizeResearch.
type ResearchPlan struct {
	Ranked  []PrioritizedGap `json:"ranked"`
	Phases  []ResearchPhase  `json:"phases"`
	Funding []string         `json:"funding_recommendations"`
}

// PrioritizeResearch ranks gaps and derives a phased plan.
//
// Description:
//
//	Score = 0.4·importance + 0.3·fillability + 0.3·detectability, sorted
//	descending with gap id as the deterministic tiebreak. Phases split
//	the ranking into immediate (score > 0.7), near-term (> 0.5), and
//	long-term; phase durations divide the caller's timeline, defaulting
//	to 4/8/12 weeks. Funding recommendations reflect the critical and
//	fillable mix under the budget constraint.
//
// Inputs:
//   - ctx: Context for tracing.
//   - gapList: Gaps to rank. Read-only.
//   - constraints: Budget, timeline, team, expertise.
//
// Outputs:
//   - ResearchPlan: Ranking, phases, funding recommendations.
//   - error: Reserved.
//
// Thread Safety: Safe for concurrent use.
func (d *Detector) PrioritizeResearch(ctx context.Context, gapList []Gap, constraints ResearchConstraints) (ResearchPlan, error) {
	_, span := tracer.Start(ctx, "Detector.PrioritizeResearch",
		trace.WithAttributes(attribute.Int("gap_count", len(gapList))))
	defer span.End()

	ranked := make([]PrioritizedGap, 0, len(gapList))
	for _, g := range gapList {
		ranked = append(ranked, PrioritizedGap{
			Gap:   g,
			Score: importanceWeight*g.Importance + fillabilityWeight*g.Fillability + detectabilityWeight*g.Detectability,
		})
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].Score != ranked[j].Score {
			return ranked[i].Score > ranked[j].Score
		}
		return ranked[i].Gap.ID < ranked[j].Gap.ID
	})

	plan := ResearchPlan{
		Ranked:  ranked,
		Phases:  buildPhases(ranked, constraints),
		Funding: fundingRecommendations(ranked, constraints),
	}
	return plan, nil
}

func buildPhases(ranked []PrioritizedGap, c ResearchConstraints) []ResearchPhase {
	durations := [3]int{4, 8, 12}
	if c.TimelineWeeks > 0 {
		durations = [3]int{
			max(1, c.TimelineWeeks/6),
			max(1, c.TimelineWeeks/3),
			max(1, c.TimelineWeeks/2),
		}
	}

	phases := []ResearchPhase{
		{Name: "immediate", DurationWeeks: durations[0]},
		{Name: "near_term", DurationWeeks: durations[1]},
		{Name: "long_term", DurationWeeks: durations[2]},
	}
	for _, pg := range ranked {
		switch {
		case pg.Score > 0.7:
			phases[0].GapIDs = append(phases[0].GapIDs, pg.Gap.ID)
		case pg.Score > 0.5:
			phases[1].GapIDs = append(phases[1].GapIDs, pg.Gap.ID)
		default:
			phases[2].GapIDs = append(phases[2].GapIDs, pg.Gap.ID)
		}
	}

	out := phases[:0]
	for _, p := range phases {
		if len(p.GapIDs) > 0 {
			out = append(out, p)
		}
	}
	return out
}

func fundingRecommendations(ranked []PrioritizedGap, c ResearchConstraints) []string {
	var out []string
	critical := 0
	fillable := 0
	for _, pg := range ranked {
		if pg.Gap.Priority > criticalThreshold {
			critical++
		}
		if pg.Gap.Fillability > fillableThreshold {
			fillable++
		}
	}

	if critical > 0 {
		out = append(out, fmt.Sprintf("Allocate priority funding to %d critical gap(s) first", critical))
	}
	if fillable > 0 {
		out = append(out, fmt.Sprintf("%d gap(s) are highly fillable and suit short-cycle grants", fillable))
	}
	if c.Budget > 0 && critical > 0 && c.Budget < 50000*float64(critical) {
		out = append(out, "Budget is thin for the critical set; consider staged or collaborative funding")
	}
	if c.TeamSize > 0 && len(ranked) > c.TeamSize*3 {
		out = append(out, "Gap volume exceeds team capacity; fund external collaborations or defer the long tail")
	}
	if len(out) == 0 && len(ranked) > 0 {
		out = append(out, "Distribute funding proportionally to priority scores")
	}
	return out
}
