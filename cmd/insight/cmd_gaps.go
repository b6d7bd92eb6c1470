// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/AleutianAI/insight/services/insight/gaps"
	"github.com/AleutianAI/insight/services/insight/graph"
	"github.com/spf13/cobra"
)

// loadKnowledge reads the optional domain knowledge file; a missing
// --knowledge flag yields nil (detection runs structural and evidential
// passes only).
func loadKnowledge() (*gaps.DomainKnowledge, error) {
	if knowledgePath == "" {
		return nil, nil
	}
	data, err := os.ReadFile(knowledgePath)
	if err != nil {
		return nil, fmt.Errorf("reading knowledge file: %w", err)
	}
	var dk gaps.DomainKnowledge
	if err := json.Unmarshal(data, &dk); err != nil {
		return nil, fmt.Errorf("parsing knowledge file %s: %w", knowledgePath, err)
	}
	return &dk, nil
}

func runGapsDetect(cmd *cobra.Command, args []string) {
	g, err := loadGraph(args[0])
	if err != nil {
		fail(err)
	}
	dk, err := loadKnowledge()
	if err != nil {
		fail(err)
	}

	detector := gaps.NewDetector(
		gaps.WithLogger(appLogger.Slog()),
		gaps.WithEngine(newEngine()),
	)
	result, err := detector.DetectGaps(cmd.Context(), g, dk)
	if err != nil {
		fail(err)
	}
	printJSON(result)
}

func runGapsPlaceholders(cmd *cobra.Command, args []string) {
	g, err := loadGraph(args[0])
	if err != nil {
		fail(err)
	}
	dk, err := loadKnowledge()
	if err != nil {
		fail(err)
	}

	detector := gaps.NewDetector(
		gaps.WithLogger(appLogger.Slog()),
		gaps.WithEngine(newEngine()),
	)
	result, err := detector.DetectGaps(cmd.Context(), g, dk)
	if err != nil {
		fail(err)
	}

	augmented, placeholders, err := detector.CreatePlaceholders(cmd.Context(), g, result.Gaps)
	if err != nil {
		fail(err)
	}
	printJSON(struct {
		Graph        *graph.Graph       `json:"graph"`
		Placeholders []gaps.Placeholder `json:"placeholders"`
	}{augmented, placeholders})
}
