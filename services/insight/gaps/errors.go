// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package gaps detects knowledge gaps in a reasoning graph and manages
// their lifecycle: placeholder synthesis, fill strategies, research
// prioritization, and progress tracking.
//
// # Ownership Model
//
// A Detector owns three bounded registries (gaps, placeholders, fill
// strategies) behind a single mutex. Input graphs are read-only;
// placeholder synthesis operates on a deep copy and never mutates the
// caller's graph.
//
// # Lifecycle
//
// Initialize starts a background sweep that expires stale entries and
// enforces the registry caps; Destroy stops it and clears all state.
// Both are idempotent, so repeated Initialize/Destroy cycles never leak
// a ticker goroutine. Hosts that schedule their own maintenance can skip
// Initialize and drive Sweep directly.
//
// # Thread Safety
//
// All exported methods are safe for concurrent use.
package gaps

import "errors"

// ErrGapNotFound is returned when a gap id does not exist in the
// registry. Unknown ids indicate caller error and are never retried
// internally.
var ErrGapNotFound = errors.New("gap not found")
