// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Command insight runs graph analytics, knowledge-gap detection, and
// budget estimation against a JSON graph snapshot.
//
// Usage:
//
//	go run ./cmd/insight analyze centrality graph.json --measures pagerank,betweenness
//	go run ./cmd/insight analyze communities graph.json --algorithm louvain
//	go run ./cmd/insight analyze paths graph.json --algorithm dijkstra
//	go run ./cmd/insight analyze structure graph.json
//	go run ./cmd/insight analyze similarity graph.json --include-edges
//	go run ./cmd/insight analyze optimize graph.json --objective modularity
//	go run ./cmd/insight flow graph.json --source s --sink t
//	go run ./cmd/insight gaps detect graph.json --knowledge domain.json
//	go run ./cmd/insight gaps placeholders graph.json
//	go run ./cmd/insight budget estimate centrality --nodes 5000 --edges 20000
//
// Results are printed to stdout as indented JSON. Pass --telemetry to
// emit OpenTelemetry traces and metrics on stderr.
package main

import (
	"context"
	"os"

	"github.com/AleutianAI/insight/pkg/logging"
	"github.com/spf13/cobra"
)

var (
	appLogger         *logging.Logger
	telemetryShutdown func(context.Context) error
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		// Cobra already printed the error.
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentPreRun = func(cmd *cobra.Command, args []string) {
		appLogger = logging.New(logging.Config{
			Level:   logging.ParseLevel(logLevel),
			Service: "insight",
			JSON:    jsonLogs,
		})

		if enableTelemetry {
			shutdown, err := setupTelemetry(cmd.Context())
			if err != nil {
				appLogger.Warn("telemetry setup failed, continuing without exporters", "error", err)
				return
			}
			telemetryShutdown = shutdown
		}
	}
	rootCmd.PersistentPostRun = func(cmd *cobra.Command, args []string) {
		if telemetryShutdown != nil {
			if err := telemetryShutdown(cmd.Context()); err != nil {
				appLogger.Warn("telemetry shutdown failed", "error", err)
			}
		}
		if appLogger != nil {
			_ = appLogger.Close()
		}
	}
}
