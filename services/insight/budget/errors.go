// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package budget meters the computational cost of analytics and
// gap-detection operations against a finite multi-resource pool.
//
// # Ownership Model
//
// A Manager owns the resource ledger and the per-operation-type cost
// profiles behind a single mutex. Allocation and release form one
// critical section each, preserving the conservation invariant
// used + available == total for every resource type.
//
// # Error Policy
//
// Allocation shortfalls and infeasible estimates are soft failures:
// structured results with Success/Feasible flags, never errors. Errors
// are reserved for configuration problems.
package budget

import "errors"

// ErrInvalidConfig is returned when the resource-pool configuration
// fails validation.
var ErrInvalidConfig = errors.New("invalid budget configuration")
