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
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/AleutianAI/insight/services/insight/graph"
)

// Detection score constants per detector.
const (
	isolatedNodePriority   = 0.6
	lowEvidencePriority    = 0.7
	conceptualGapPriority  = 0.8
	methodologicalPriority = 0.9

	// lowConfidenceThreshold triggers the evidential detector when a
	// node's mean confidence falls below it.
	lowConfidenceThreshold = 0.4
)

// Detector finds knowledge gaps in reasoning graphs and tracks their
// resolution. Construct with NewDetector; the zero value is not usable.
type Detector struct {
	mu     sync.Mutex
	logger *slog.Logger
	engine *graph.Engine

	gaps         *registry[Gap]
	placeholders *registry[Placeholder]
	strategies   *registry[FillStrategy]

	// dedup maps a structural fingerprint to the gap id holding it.
	dedup map[string]string

	cancel context.CancelFunc
	done   chan struct{}
}

// DetectorOption configures a Detector.
type DetectorOption func(*Detector)

// WithLogger overrides the default slog logger.
func WithLogger(l *slog.Logger) DetectorOption {
	return func(d *Detector) { d.logger = l }
}

// WithEngine supplies a shared analytics engine; by default the detector
// owns a private one for community analysis.
func WithEngine(e *graph.Engine) DetectorOption {
	return func(d *Detector) { d.engine = e }
}

// NewDetector creates a detector with empty registries. Call Initialize
// to start background maintenance, or drive Sweep from a host scheduler.
func NewDetector(opts ...DetectorOption) *Detector {
	d := &Detector{
		logger:       slog.Default(),
		gaps:         newRegistry[Gap](MaxGaps, GapTTL),
		placeholders: newRegistry[Placeholder](MaxPlaceholders, PlaceholderTTL),
		strategies:   newRegistry[FillStrategy](MaxStrategies, 0),
		dedup:        make(map[string]string),
	}
	for _, opt := range opts {
		opt(d)
	}
	if d.engine == nil {
		d.engine = graph.NewEngine(graph.WithLogger(d.logger))
	}
	return d
}

// Initialize starts the periodic sweep goroutine. Calling it on an
// already-initialized detector is a no-op, so repeated cycles never
// leave an orphaned ticker running.
func (d *Detector) Initialize() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.cancel != nil {
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	d.cancel = cancel
	done := make(chan struct{})
	d.done = done
	go func() {
		defer close(done)
		ticker := time.NewTicker(SweepInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case now := <-ticker.C:
				d.Sweep(now)
			}
		}
	}()
	d.logger.Info("gap detector initialized", "sweep_interval", SweepInterval)
}

// Destroy stops the sweep goroutine and clears all registries. Safe to
// call repeatedly and on a never-initialized detector.
func (d *Detector) Destroy() {
	d.mu.Lock()
	cancel, done := d.cancel, d.done
	d.cancel, d.done = nil, nil
	d.gaps.clear()
	d.placeholders.clear()
	d.strategies.clear()
	d.dedup = make(map[string]string)
	d.mu.Unlock()

	if cancel != nil {
		cancel()
		<-done
		d.logger.Info("gap detector destroyed")
	}
}

// Sweep runs one cleanup pass at the given time: expire stale gaps and
// placeholders, drop strategies whose gap is gone, then enforce the
// registry caps oldest-first.
func (d *Detector) Sweep(now time.Time) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.sweepLocked(now)
}

func (d *Detector) sweepLocked(now time.Time) {
	ctx := context.Background()
	removedGaps := d.gaps.expire(now)
	removedPlaceholders := d.placeholders.expire(now)

	orphaned := 0
	for _, id := range d.strategies.ids() {
		s, _ := d.strategies.get(id)
		if !d.gaps.has(s.GapID) {
			d.strategies.delete(id)
			orphaned++
		}
	}

	removedGaps += d.gaps.enforceCap()
	removedPlaceholders += d.placeholders.enforceCap()
	orphaned += d.strategies.enforceCap()

	d.rebuildDedupLocked()
	recordEvictions(ctx, "gaps", removedGaps)
	recordEvictions(ctx, "placeholders", removedPlaceholders)
	recordEvictions(ctx, "strategies", orphaned)
	if removedGaps+removedPlaceholders+orphaned > 0 {
		d.logger.Debug("sweep removed entries",
			"gaps", removedGaps, "placeholders", removedPlaceholders, "strategies", orphaned)
	}
}

func (d *Detector) rebuildDedupLocked() {
	d.dedup = make(map[string]string, d.gaps.len())
	for _, g := range d.gaps.values() {
		d.dedup[gapFingerprint(g.Type, g.Location.RelatedNodes)] = g.ID
	}
}

// MemoryStats reports registry occupancy against combined capacity.
func (d *Detector) MemoryStats() MemoryStats {
	d.mu.Lock()
	defer d.mu.Unlock()

	stats := MemoryStats{
		Gaps:         d.gaps.len(),
		Placeholders: d.placeholders.len(),
		Strategies:   d.strategies.len(),
		Capacity:     MaxGaps + MaxPlaceholders + MaxStrategies,
	}
	used := stats.Gaps + stats.Placeholders + stats.Strategies
	stats.Utilization = float64(used) / float64(stats.Capacity)
	switch {
	case stats.Utilization >= pressureHighThreshold:
		stats.Pressure = "high"
	case stats.Utilization >= pressureMediumThreshold:
		stats.Pressure = "medium"
	default:
		stats.Pressure = "low"
	}
	return stats
}

// =============================================================================
// Detection
// =============================================================================

// DetectGaps runs the five detectors and unions their findings.
//
// Description:
//
//	Structural (isolated nodes, missing inter-community bridges),
//	evidential (mean confidence below 0.4), conceptual (expected-pattern
//	nodes absent), methodological (causal edges without a declared
//	methodology), and causal (caller-supplied candidates not yet in the
//	graph). New findings are deduplicated against the registry before
//	insertion, then summarized with priority bands, critical and
//	fillable subsets, structural holes, and up to five ranked research
//	recommendations.
//
// Inputs:
//   - ctx: Context for tracing.
//   - g: The graph snapshot. Never mutated; empty graphs yield an empty
//     result, not an error.
//   - dk: Optional domain knowledge. Nil disables the conceptual and
//     causal detectors.
//
// Outputs:
//   - DetectResult: Newly registered gaps plus the summary.
//   - error: Reserved; detection itself degrades gracefully.
//
// Thread Safety: Safe for concurrent use.
func (d *Detector) DetectGaps(ctx context.Context, g *graph.Graph, dk *DomainKnowledge) (DetectResult, error) {
	ctx, span := tracer.Start(ctx, "Detector.DetectGaps",
		trace.WithAttributes(attribute.Int("node_count", len(g.Nodes))))
	defer span.End()

	now := time.Now()
	var found []Gap
	found = append(found, d.detectStructural(ctx, g, now)...)
	found = append(found, d.detectEvidential(g, now)...)
	if dk != nil {
		found = append(found, d.detectConceptual(g, dk.Patterns, now)...)
	}
	found = append(found, d.detectMethodological(g, now)...)
	if dk != nil {
		found = append(found, d.detectCausal(g, dk.CausalCandidates, now)...)
	}

	d.mu.Lock()
	registered := make([]Gap, 0, len(found))
	for _, gap := range found {
		fp := gapFingerprint(gap.Type, gap.Location.RelatedNodes)
		if _, dup := d.dedup[fp]; dup {
			continue
		}
		d.gaps.put(gap.ID, gap, now)
		d.dedup[fp] = gap.ID
		registered = append(registered, gap)
		recordDetection(ctx, gap.Type)
	}
	d.gaps.enforceCap()
	d.rebuildDedupLocked()
	d.mu.Unlock()

	summary := summarize(registered, d.structuralHoles(ctx, g))
	d.logger.Info("gap detection complete",
		"found", len(found), "registered", len(registered), "nodes", len(g.Nodes))
	return DetectResult{Gaps: registered, Summary: summary}, nil
}

// gapFingerprint identifies a gap by what it points at, not by its id.
func gapFingerprint(t GapType, related []string) string {
	sorted := append([]string(nil), related...)
	sort.Strings(sorted)
	return string(t) + "|" + strings.Join(sorted, ",")
}

// detectStructural finds isolated nodes and missing inter-community
// bridges.
func (d *Detector) detectStructural(ctx context.Context, g *graph.Graph, now time.Time) []Gap {
	incident := map[string]int{}
	for _, e := range g.Edges {
		if g.HasNode(e.Source) && g.HasNode(e.Target) {
			incident[e.Source]++
			incident[e.Target]++
		}
	}

	var out []Gap
	for _, n := range g.Nodes {
		if incident[n.ID] > 0 {
			continue
		}
		out = append(out, Gap{
			ID:   uuid.NewString(),
			Type: GapMissingEdge,
			Location: Location{
				RelatedNodes: []string{n.ID},
				Area:         "structural",
			},
			Priority:      isolatedNodePriority,
			Confidence:    0.9,
			Detectability: 0.9,
			Fillability:   0.7,
			Importance:    0.5,
			Evidence: GapEvidence{
				Patterns:  []string{"isolated node"},
				Anomalies: []string{fmt.Sprintf("node %q has no incident edges", n.ID)},
			},
			Impact: Impact{
				Reliability:  0.3,
				Completeness: 0.6,
				Coherence:    0.5,
			},
			DetectedAt:       now,
			DetectionMethod:  "structural_isolation",
			ValidationStatus: "unvalidated",
			Tier:             TierMedium,
			Status:           StatusOpen,
		})
	}

	for _, pair := range d.bridgeCandidates(ctx, g) {
		out = append(out, Gap{
			ID:   uuid.NewString(),
			Type: GapMissingEdge,
			Location: Location{
				RelatedNodes: pair,
				Area:         "structural",
			},
			Priority:      isolatedNodePriority,
			Confidence:    0.6,
			Detectability: 0.7,
			Fillability:   0.6,
			Importance:    0.7,
			Evidence: GapEvidence{
				Patterns:           []string{"disconnected communities"},
				MissingConnections: []string{pair[0] + "->" + pair[1]},
			},
			Impact: Impact{
				Completeness:     0.7,
				Coherence:        0.6,
				ExplanatoryPower: 0.5,
			},
			DetectedAt:       now,
			DetectionMethod:  "structural_bridge",
			ValidationStatus: "unvalidated",
			Tier:             TierMedium,
			Status:           StatusOpen,
		})
	}
	return out
}

// bridgeCandidates finds pairs of non-singleton communities with no edge
// between them, represented by each community's first node. Singleton
// communities are the isolation detector's territory.
func (d *Detector) bridgeCandidates(ctx context.Context, g *graph.Graph) [][]string {
	if len(g.Nodes) == 0 || len(g.Edges) == 0 {
		return nil
	}
	res, err := d.engine.DetectCommunities(ctx, g, graph.CommunityOptions{
		Algorithm: graph.CommunityLouvain,
	})
	if err != nil {
		d.logger.Warn("community analysis for bridge detection failed", "error", err)
		return nil
	}

	var comms [][]string
	for _, c := range res.Result.Communities {
		if c.Size > 1 {
			comms = append(comms, c.Nodes)
		}
	}

	connected := map[string]bool{}
	commOf := map[string]int{}
	for i, nodes := range comms {
		for _, id := range nodes {
			commOf[id] = i
		}
	}
	for _, e := range g.Edges {
		a, aok := commOf[e.Source]
		b, bok := commOf[e.Target]
		if aok && bok && a != b {
			connected[fmt.Sprintf("%d-%d", min(a, b), max(a, b))] = true
		}
	}

	var out [][]string
	for i := 0; i < len(comms); i++ {
		for j := i + 1; j < len(comms); j++ {
			if !connected[fmt.Sprintf("%d-%d", i, j)] {
				out = append(out, []string{comms[i][0], comms[j][0]})
			}
		}
	}
	return out
}

// detectEvidential flags nodes whose mean confidence is below the
// threshold.
func (d *Detector) detectEvidential(g *graph.Graph, now time.Time) []Gap {
	var out []Gap
	for _, n := range g.Nodes {
		mean := n.MeanConfidence()
		if len(n.Confidence) == 0 || mean >= lowConfidenceThreshold {
			continue
		}
		out = append(out, Gap{
			ID:   uuid.NewString(),
			Type: GapMissingEvidence,
			Location: Location{
				RelatedNodes: []string{n.ID},
				Area:         "evidential",
			},
			Priority:      lowEvidencePriority,
			Confidence:    0.8,
			Detectability: 0.8,
			Fillability:   0.8,
			Importance:    1 - mean,
			Evidence: GapEvidence{
				Patterns:  []string{"low confidence"},
				Anomalies: []string{fmt.Sprintf("node %q mean confidence %.2f below %.2f", n.ID, mean, lowConfidenceThreshold)},
			},
			Impact: Impact{
				Reliability:  0.8,
				Completeness: 0.4,
			},
			DetectedAt:       now,
			DetectionMethod:  "evidential_confidence",
			ValidationStatus: "unvalidated",
			Tier:             TierHigh,
			Status:           StatusOpen,
		})
	}
	return out
}

// detectConceptual flags expected-pattern nodes absent from the graph.
func (d *Detector) detectConceptual(g *graph.Graph, patterns []Pattern, now time.Time) []Gap {
	present := map[string]bool{}
	for _, n := range g.Nodes {
		present[n.ID] = true
		present[strings.ToLower(n.Label)] = true
	}

	var out []Gap
	for _, p := range patterns {
		for _, want := range p.Nodes {
			if present[want] || present[strings.ToLower(want)] {
				continue
			}
			out = append(out, Gap{
				ID:   uuid.NewString(),
				Type: GapConceptual,
				Location: Location{
					Domains:      []string{p.Name},
					RelatedNodes: []string{want},
					Area:         "conceptual",
				},
				Priority:      conceptualGapPriority,
				Confidence:    0.7,
				Detectability: 0.6,
				Fillability:   0.6,
				Importance:    0.8,
				Evidence: GapEvidence{
					Patterns:           []string{p.Name},
					MissingConnections: p.Relationships,
					Anomalies:          []string{fmt.Sprintf("expected concept %q absent", want)},
				},
				Impact: Impact{
					Completeness:     0.8,
					Coherence:        0.6,
					ExplanatoryPower: 0.7,
				},
				DetectedAt:       now,
				DetectionMethod:  "conceptual_pattern",
				ValidationStatus: "unvalidated",
				Tier:             TierHigh,
				Status:           StatusOpen,
			})
		}
	}
	return out
}

// detectMethodological flags causal edges where neither endpoint
// declares a methodology in its metadata.
func (d *Detector) detectMethodological(g *graph.Graph, now time.Time) []Gap {
	hasMethodology := func(id string) bool {
		n := g.NodeByID(id)
		if n == nil || n.Metadata == nil {
			return false
		}
		_, ok := n.Metadata["methodology"]
		return ok
	}

	var out []Gap
	for _, e := range g.Edges {
		if !strings.Contains(strings.ToLower(e.Type), "causal") {
			continue
		}
		if !g.HasNode(e.Source) || !g.HasNode(e.Target) {
			continue
		}
		if hasMethodology(e.Source) || hasMethodology(e.Target) {
			continue
		}
		out = append(out, Gap{
			ID:   uuid.NewString(),
			Type: GapMethodological,
			Location: Location{
				RelatedNodes: []string{e.Source, e.Target},
				Area:         "methodological",
			},
			Priority:      methodologicalPriority,
			Confidence:    0.8,
			Detectability: 0.7,
			Fillability:   0.5,
			Importance:    0.9,
			Evidence: GapEvidence{
				Patterns:  []string{"causal claim without methodology"},
				Anomalies: []string{fmt.Sprintf("causal edge %s->%s lacks a declared methodology", e.Source, e.Target)},
			},
			Impact: Impact{
				Reliability:      0.9,
				Coherence:        0.5,
				ExplanatoryPower: 0.6,
			},
			DetectedAt:       now,
			DetectionMethod:  "methodological_audit",
			ValidationStatus: "unvalidated",
			Tier:             TierCritical,
			Status:           StatusOpen,
		})
	}
	return out
}

// detectCausal flags caller-identified causal candidates not yet
// represented as edges. The candidate's strength becomes the priority.
func (d *Detector) detectCausal(g *graph.Graph, candidates []CausalCandidate, now time.Time) []Gap {
	existing := map[string]bool{}
	for _, e := range g.Edges {
		existing[e.Source+"->"+e.Target] = true
		if e.Bidirectional {
			existing[e.Target+"->"+e.Source] = true
		}
	}

	var out []Gap
	for _, c := range candidates {
		if existing[c.Source+"->"+c.Target] {
			continue
		}
		tier := TierMedium
		if c.Strength > criticalThreshold {
			tier = TierCritical
		} else if c.Strength > highPriorityBand {
			tier = TierHigh
		}
		out = append(out, Gap{
			ID:   uuid.NewString(),
			Type: GapCausal,
			Location: Location{
				RelatedNodes: []string{c.Source, c.Target},
				Area:         "causal",
			},
			Priority:      c.Strength,
			Confidence:    c.Strength,
			Detectability: 0.5,
			Fillability:   0.5,
			Importance:    c.Strength,
			Evidence: GapEvidence{
				Patterns:           []string{"candidate causal relationship"},
				MissingConnections: []string{c.Source + "->" + c.Target},
				Anomalies:          nonEmpty(c.Rationale),
			},
			Impact: Impact{
				Coherence:        0.6,
				ExplanatoryPower: 0.9,
			},
			DetectedAt:       now,
			DetectionMethod:  "causal_candidate",
			ValidationStatus: "unvalidated",
			Tier:             tier,
			Status:           StatusOpen,
		})
	}
	return out
}

func nonEmpty(s string) []string {
	if s == "" {
		return nil
	}
	return []string{s}
}

// structuralHoles names node pairs that would bridge disconnected
// communities, for the summary.
func (d *Detector) structuralHoles(ctx context.Context, g *graph.Graph) []string {
	var out []string
	for _, pair := range d.bridgeCandidates(ctx, g) {
		out = append(out, pair[0]+"<->"+pair[1])
	}
	return out
}

// summarize builds the detection summary from newly registered gaps.
func summarize(found []Gap, holes []string) GapSummary {
	s := GapSummary{
		Total:           len(found),
		ByType:          map[GapType]int{},
		ByPriority:      map[string]int{"high": 0, "medium": 0, "low": 0},
		StructuralHoles: holes,
	}
	for _, g := range found {
		s.ByType[g.Type]++
		switch {
		case g.Priority > highPriorityBand:
			s.ByPriority["high"]++
		case g.Priority > mediumPriorityBand:
			s.ByPriority["medium"]++
		default:
			s.ByPriority["low"]++
		}
		if g.Priority > criticalThreshold {
			s.Critical = append(s.Critical, g)
		}
		if g.Fillability > fillableThreshold {
			s.Fillable = append(s.Fillable, g)
		}
	}

	ranked := append([]Gap(nil), found...)
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].Priority != ranked[j].Priority {
			return ranked[i].Priority > ranked[j].Priority
		}
		return ranked[i].ID < ranked[j].ID
	})
	for i, g := range ranked {
		if i >= maxRecommendations {
			break
		}
		s.Recommendations = append(s.Recommendations, recommendation(g))
	}
	return s
}

func recommendation(g Gap) string {
	subject := g.Location.Area
	if len(g.Location.RelatedNodes) > 0 {
		subject = strings.Join(g.Location.RelatedNodes, ", ")
	}
	switch g.Type {
	case GapMissingEdge:
		return fmt.Sprintf("Investigate potential connections involving %s", subject)
	case GapMissingEvidence:
		return fmt.Sprintf("Gather supporting evidence for %s", subject)
	case GapConceptual:
		return fmt.Sprintf("Develop the missing concept %s", subject)
	case GapMethodological:
		return fmt.Sprintf("Establish a methodology for the causal claim between %s", subject)
	case GapCausal:
		return fmt.Sprintf("Test the candidate causal relationship %s", subject)
	default:
		return fmt.Sprintf("Research the gap around %s", subject)
	}
}
