// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package main

import (
	"github.com/AleutianAI/insight/services/insight/budget"
	"github.com/spf13/cobra"
)

func runBudgetEstimate(cmd *cobra.Command, args []string) {
	cfg := budget.DefaultConfig()
	if budgetConfigPath != "" {
		loaded, err := budget.LoadConfig(budgetConfigPath)
		if err != nil {
			fail(err)
		}
		cfg = loaded
	}

	manager, err := budget.NewManager(cfg, budget.WithManagerLogger(appLogger.Slog()))
	if err != nil {
		fail(err)
	}

	estimate := manager.EstimateCost(cmd.Context(), args[0],
		budget.GraphSize{Nodes: budgetNodes, Edges: budgetEdges}, nil)
	printJSON(estimate)
}
