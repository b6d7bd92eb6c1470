// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package main

import (
	"github.com/AleutianAI/insight/services/insight/graph"
	"github.com/spf13/cobra"
)

func runAnalyzeCentrality(cmd *cobra.Command, args []string) {
	g, err := loadGraph(args[0])
	if err != nil {
		fail(err)
	}

	var measures []graph.CentralityMeasure
	for _, tag := range centralityMeasures {
		m, err := graph.ParseCentralityMeasure(tag)
		if err != nil {
			fail(err)
		}
		measures = append(measures, m)
	}

	result, err := newEngine().ComputeCentrality(cmd.Context(), g, graph.CentralityOptions{
		Measures:  measures,
		Normalize: centralityNormalize,
	})
	if err != nil {
		fail(err)
	}
	printJSON(result)
}

func runAnalyzeCommunities(cmd *cobra.Command, args []string) {
	g, err := loadGraph(args[0])
	if err != nil {
		fail(err)
	}
	algo, err := graph.ParseCommunityAlgorithm(communityAlgorithm)
	if err != nil {
		fail(err)
	}

	result, err := newEngine().DetectCommunities(cmd.Context(), g, graph.CommunityOptions{
		Algorithm:    algo,
		Resolution:   communityResolution,
		Hierarchical: communityHierarchical,
	})
	if err != nil {
		fail(err)
	}
	printJSON(result)
}

func runAnalyzePaths(cmd *cobra.Command, args []string) {
	g, err := loadGraph(args[0])
	if err != nil {
		fail(err)
	}
	algo, err := graph.ParsePathAlgorithm(pathAlgorithm)
	if err != nil {
		fail(err)
	}

	result, err := newEngine().ComputePaths(cmd.Context(), g, graph.PathOptions{Algorithm: algo})
	if err != nil {
		fail(err)
	}
	printJSON(result)
}

func runAnalyzeStructure(cmd *cobra.Command, args []string) {
	g, err := loadGraph(args[0])
	if err != nil {
		fail(err)
	}
	result, err := newEngine().AnalyzeStructure(cmd.Context(), g)
	if err != nil {
		fail(err)
	}
	printJSON(result)
}

func runAnalyzeSimilarity(cmd *cobra.Command, args []string) {
	g, err := loadGraph(args[0])
	if err != nil {
		fail(err)
	}

	var kinds []graph.SimilarityKind
	for _, tag := range similarityKinds {
		k, err := graph.ParseSimilarityKind(tag)
		if err != nil {
			fail(err)
		}
		kinds = append(kinds, k)
	}

	result, err := newEngine().ComputeSimilarity(cmd.Context(), g, graph.SimilarityOptions{
		Kinds:        kinds,
		IncludeEdges: similarityIncludeEdges,
	})
	if err != nil {
		fail(err)
	}
	printJSON(result)
}

func runAnalyzeOptimize(cmd *cobra.Command, args []string) {
	g, err := loadGraph(args[0])
	if err != nil {
		fail(err)
	}
	objective, err := graph.ParseOptimizationObjective(optimizeObjective)
	if err != nil {
		fail(err)
	}
	algo, err := graph.ParseOptimizationAlgorithm(optimizeAlgorithm)
	if err != nil {
		fail(err)
	}

	result, err := newEngine().OptimizeGraph(cmd.Context(), g, graph.OptimizeOptions{
		Objective: objective,
		Algorithm: algo,
		Constraints: graph.OptimizeConstraints{
			MaxEdgeAdditions: optimizeMaxAdditions,
			MaxEdgeRemovals:  optimizeMaxRemovals,
			PreserveNodes:    optimizePreserveN,
			PreserveEdges:    optimizePreserveE,
		},
	})
	if err != nil {
		fail(err)
	}
	printJSON(result)
}
