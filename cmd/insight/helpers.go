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

	"github.com/AleutianAI/insight/services/insight/graph"
)

// loadGraph reads a JSON graph snapshot from disk.
func loadGraph(path string) (*graph.Graph, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading graph file: %w", err)
	}
	var g graph.Graph
	if err := json.Unmarshal(data, &g); err != nil {
		return nil, fmt.Errorf("parsing graph file %s: %w", path, err)
	}
	return &g, nil
}

// printJSON writes the value to stdout as indented JSON.
func printJSON(v any) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		fail(fmt.Errorf("encoding output: %w", err))
	}
}

// fail logs the error and exits non-zero.
func fail(err error) {
	appLogger.Error("command failed", "error", err)
	os.Exit(1)
}

func newEngine() *graph.Engine {
	return graph.NewEngine(graph.WithLogger(appLogger.Slog()))
}
