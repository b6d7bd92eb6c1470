// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package main

import (
	"github.com/spf13/cobra"
)

// =============================================================================
// GLOBAL FLAGS
// =============================================================================

var (
	logLevel        string
	jsonLogs        bool
	enableTelemetry bool

	// analyze centrality
	centralityMeasures  []string
	centralityNormalize bool

	// analyze communities
	communityAlgorithm    string
	communityResolution   float64
	communityHierarchical bool

	// analyze paths
	pathAlgorithm string

	// analyze similarity
	similarityKinds        []string
	similarityIncludeEdges bool

	// analyze optimize
	optimizeObjective    string
	optimizeAlgorithm    string
	optimizeMaxAdditions int
	optimizeMaxRemovals  int
	optimizePreserveN    []string
	optimizePreserveE    []string

	// flow
	flowAlgorithm string
	flowSource    string
	flowSink      string

	// gaps
	knowledgePath string

	// budget
	budgetConfigPath string
	budgetNodes      int
	budgetEdges      int
)

// =============================================================================
// COMMAND DEFINITIONS
// =============================================================================

var (
	rootCmd = &cobra.Command{
		Use:   "insight",
		Short: "Graph analytics and knowledge-gap engine",
		Long: `Insight analyzes knowledge graphs: centrality, communities, paths,
flow, structure, similarity, and topology optimization; detects
knowledge gaps and proposes fill strategies; and estimates the
computational budget an analysis will need.

Graph files are JSON: {"nodes": [...], "edges": [...]}.`,
	}

	// --- Analytics ---
	analyzeCmd = &cobra.Command{
		Use:   "analyze",
		Short: "Run analytics on a JSON graph file",
	}
	analyzeCentralityCmd = &cobra.Command{
		Use:   "centrality GRAPH",
		Short: "Compute node centrality measures",
		Args:  cobra.ExactArgs(1),
		Run:   runAnalyzeCentrality,
	}
	analyzeCommunitiesCmd = &cobra.Command{
		Use:   "communities GRAPH",
		Short: "Detect community structure",
		Args:  cobra.ExactArgs(1),
		Run:   runAnalyzeCommunities,
	}
	analyzePathsCmd = &cobra.Command{
		Use:   "paths GRAPH",
		Short: "Compute all-pairs shortest paths and distance metrics",
		Args:  cobra.ExactArgs(1),
		Run:   runAnalyzePaths,
	}
	analyzeStructureCmd = &cobra.Command{
		Use:   "structure GRAPH",
		Short: "Analyze components, articulation points, and connectivity",
		Args:  cobra.ExactArgs(1),
		Run:   runAnalyzeStructure,
	}
	analyzeSimilarityCmd = &cobra.Command{
		Use:   "similarity GRAPH",
		Short: "Compute pairwise node similarity",
		Args:  cobra.ExactArgs(1),
		Run:   runAnalyzeSimilarity,
	}
	analyzeOptimizeCmd = &cobra.Command{
		Use:   "optimize GRAPH",
		Short: "Suggest edge edits that improve a topology objective",
		Args:  cobra.ExactArgs(1),
		Run:   runAnalyzeOptimize,
	}

	// --- Flow ---
	flowCmd = &cobra.Command{
		Use:   "flow GRAPH",
		Short: "Compute maximum flow between a source and a sink",
		Args:  cobra.ExactArgs(1),
		Run:   runFlow,
	}

	// --- Gaps ---
	gapsCmd = &cobra.Command{
		Use:   "gaps",
		Short: "Detect knowledge gaps and create placeholders",
	}
	gapsDetectCmd = &cobra.Command{
		Use:   "detect GRAPH",
		Short: "Detect knowledge gaps in a graph",
		Args:  cobra.ExactArgs(1),
		Run:   runGapsDetect,
	}
	gapsPlaceholdersCmd = &cobra.Command{
		Use:   "placeholders GRAPH",
		Short: "Detect gaps and synthesize placeholder nodes for them",
		Args:  cobra.ExactArgs(1),
		Run:   runGapsPlaceholders,
	}

	// --- Budget ---
	budgetCmd = &cobra.Command{
		Use:   "budget",
		Short: "Estimate computational budgets",
	}
	budgetEstimateCmd = &cobra.Command{
		Use:   "estimate OPERATION",
		Short: "Estimate the cost of an operation type for a graph size",
		Args:  cobra.ExactArgs(1),
		Run:   runBudgetEstimate,
	}
)

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().BoolVar(&jsonLogs, "json-logs", false, "Emit logs as JSON")
	rootCmd.PersistentFlags().BoolVar(&enableTelemetry, "telemetry", false, "Emit OpenTelemetry traces and metrics on stderr")

	analyzeCentralityCmd.Flags().StringSliceVar(&centralityMeasures, "measures", nil, "Measures to compute (default: all)")
	analyzeCentralityCmd.Flags().BoolVar(&centralityNormalize, "normalize", false, "Min-max scale each measure into [0,1]")

	analyzeCommunitiesCmd.Flags().StringVar(&communityAlgorithm, "algorithm", "louvain", "Detection algorithm")
	analyzeCommunitiesCmd.Flags().Float64Var(&communityResolution, "resolution", 0, "Modularity resolution (default 1.0)")
	analyzeCommunitiesCmd.Flags().BoolVar(&communityHierarchical, "hierarchical", false, "Include the merge hierarchy")

	analyzePathsCmd.Flags().StringVar(&pathAlgorithm, "algorithm", "dijkstra", "Shortest-path algorithm")

	analyzeSimilarityCmd.Flags().StringSliceVar(&similarityKinds, "kinds", nil, "Similarity kinds to blend (default: all)")
	analyzeSimilarityCmd.Flags().BoolVar(&similarityIncludeEdges, "include-edges", false, "Include the edge similarity matrix")

	analyzeOptimizeCmd.Flags().StringVar(&optimizeObjective, "objective", "modularity", "Objective to maximize")
	analyzeOptimizeCmd.Flags().StringVar(&optimizeAlgorithm, "algorithm", "greedy", "Search algorithm")
	analyzeOptimizeCmd.Flags().IntVar(&optimizeMaxAdditions, "max-additions", 0, "Edge addition budget (default 10, -1 disables)")
	analyzeOptimizeCmd.Flags().IntVar(&optimizeMaxRemovals, "max-removals", 0, "Edge removal budget (default 10, -1 disables)")
	analyzeOptimizeCmd.Flags().StringSliceVar(&optimizePreserveN, "preserve-nodes", nil, "Node IDs whose edges may not be removed")
	analyzeOptimizeCmd.Flags().StringSliceVar(&optimizePreserveE, "preserve-edges", nil, "Edge IDs that may not be removed")

	flowCmd.Flags().StringVar(&flowAlgorithm, "algorithm", "dinic", "Max-flow algorithm")
	flowCmd.Flags().StringVar(&flowSource, "source", "", "Source node ID (required)")
	flowCmd.Flags().StringVar(&flowSink, "sink", "", "Sink node ID (required)")
	_ = flowCmd.MarkFlagRequired("source")
	_ = flowCmd.MarkFlagRequired("sink")

	gapsDetectCmd.Flags().StringVar(&knowledgePath, "knowledge", "", "Optional domain knowledge JSON file")
	gapsPlaceholdersCmd.Flags().StringVar(&knowledgePath, "knowledge", "", "Optional domain knowledge JSON file")

	budgetEstimateCmd.Flags().StringVar(&budgetConfigPath, "config", "", "Resource pool YAML (default: built-in pool)")
	budgetEstimateCmd.Flags().IntVar(&budgetNodes, "nodes", 0, "Node count of the target graph")
	budgetEstimateCmd.Flags().IntVar(&budgetEdges, "edges", 0, "Edge count of the target graph")

	analyzeCmd.AddCommand(analyzeCentralityCmd, analyzeCommunitiesCmd, analyzePathsCmd,
		analyzeStructureCmd, analyzeSimilarityCmd, analyzeOptimizeCmd)
	gapsCmd.AddCommand(gapsDetectCmd, gapsPlaceholdersCmd)
	budgetCmd.AddCommand(budgetEstimateCmd)
	rootCmd.AddCommand(analyzeCmd, flowCmd, gapsCmd, budgetCmd)
}
