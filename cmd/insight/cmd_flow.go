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

func runFlow(cmd *cobra.Command, args []string) {
	g, err := loadGraph(args[0])
	if err != nil {
		fail(err)
	}
	algo, err := graph.ParseFlowAlgorithm(flowAlgorithm)
	if err != nil {
		fail(err)
	}

	result, err := newEngine().ComputeMaxFlow(cmd.Context(), g, graph.FlowOptions{
		Algorithm: algo,
		Source:    flowSource,
		Sink:      flowSink,
	})
	if err != nil {
		fail(err)
	}
	printJSON(result)
}
