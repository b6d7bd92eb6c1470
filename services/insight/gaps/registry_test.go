// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package gaps

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry_TTLExpiry(t *testing.T) {
	r := newRegistry[string](10, time.Hour)
	start := time.Now()

	r.put("old", "a", start)
	r.put("fresh", "b", start.Add(30*time.Minute))

	removed := r.expire(start.Add(61 * time.Minute))
	assert.Equal(t, 1, removed)
	assert.False(t, r.has("old"))
	assert.True(t, r.has("fresh"))
}

func TestRegistry_CapEvictsOldest(t *testing.T) {
	r := newRegistry[int](3, 0)
	base := time.Now()
	for i := 0; i < 5; i++ {
		r.put(fmt.Sprintf("g%d", i), i, base.Add(time.Duration(i)*time.Second))
	}

	evicted := r.enforceCap()
	assert.Equal(t, 2, evicted)
	assert.Equal(t, 3, r.len())
	assert.False(t, r.has("g0"))
	assert.False(t, r.has("g1"))
	assert.True(t, r.has("g4"))
}

func TestRegistry_RefreshKeepsInsertionTime(t *testing.T) {
	r := newRegistry[string](10, time.Hour)
	start := time.Now()
	r.put("g", "v1", start)

	require.True(t, r.refresh("g", "v2"))
	v, ok := r.get("g")
	require.True(t, ok)
	assert.Equal(t, "v2", v)

	// Still expires by original insertion time.
	assert.Equal(t, 1, r.expire(start.Add(2*time.Hour)))
	assert.False(t, r.refresh("g", "v3"))
}

func TestSweep_RemovesOrphanedStrategies(t *testing.T) {
	d := NewDetector()
	now := time.Now()

	gap := Gap{ID: "gap-1", Type: GapMissingEvidence, Status: StatusOpen}
	d.mu.Lock()
	d.gaps.put(gap.ID, gap, now)
	d.strategies.put("s-live", FillStrategy{ID: "s-live", GapID: "gap-1"}, now)
	d.strategies.put("s-orphan", FillStrategy{ID: "s-orphan", GapID: "gone"}, now)
	d.mu.Unlock()

	d.Sweep(now)

	d.mu.Lock()
	defer d.mu.Unlock()
	assert.True(t, d.strategies.has("s-live"))
	assert.False(t, d.strategies.has("s-orphan"))
}

func TestSweep_DropsExpiredGapsAndTheirStrategies(t *testing.T) {
	d := NewDetector()
	start := time.Now()

	d.mu.Lock()
	d.gaps.put("stale", Gap{ID: "stale"}, start)
	d.strategies.put("s", FillStrategy{ID: "s", GapID: "stale"}, start)
	d.mu.Unlock()

	d.Sweep(start.Add(GapTTL + time.Minute))

	d.mu.Lock()
	defer d.mu.Unlock()
	assert.Equal(t, 0, d.gaps.len())
	assert.Equal(t, 0, d.strategies.len(), "strategies of expired gaps are orphaned and dropped")
}

func TestSweep_EnforcesAllBounds(t *testing.T) {
	d := NewDetector()
	now := time.Now()

	d.mu.Lock()
	for i := 0; i < MaxGaps+50; i++ {
		id := fmt.Sprintf("g%05d", i)
		d.gaps.put(id, Gap{ID: id}, now.Add(time.Duration(i)*time.Millisecond))
	}
	d.mu.Unlock()

	d.Sweep(now.Add(time.Second))

	d.mu.Lock()
	defer d.mu.Unlock()
	assert.LessOrEqual(t, d.gaps.len(), MaxGaps)
	assert.False(t, d.gaps.has("g00000"), "oldest entries evicted first")
	assert.True(t, d.gaps.has(fmt.Sprintf("g%05d", MaxGaps+49)))
}
