// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package graph

import (
	"fmt"
	"testing"
)

func TestLRUCache_CapacityBound(t *testing.T) {
	c := newLRUCache[string, int](3)

	for i := 0; i < 10; i++ {
		c.set(fmt.Sprintf("k%d", i), i)
	}
	if got := c.len(); got != 3 {
		t.Fatalf("len() = %d, want 3", got)
	}
	_, _, evictions := c.stats()
	if evictions != 7 {
		t.Errorf("evictions = %d, want 7", evictions)
	}

	// Only the three most recent survive.
	for i := 7; i < 10; i++ {
		if _, ok := c.get(fmt.Sprintf("k%d", i)); !ok {
			t.Errorf("k%d evicted, want present", i)
		}
	}
	if _, ok := c.get("k0"); ok {
		t.Error("k0 present, want evicted")
	}
}

func TestLRUCache_GetRefreshesRecency(t *testing.T) {
	c := newLRUCache[string, int](2)
	c.set("a", 1)
	c.set("b", 2)

	// Touch a so that b becomes the eviction victim.
	if _, ok := c.get("a"); !ok {
		t.Fatal("a missing before eviction")
	}
	c.set("c", 3)

	if _, ok := c.get("a"); !ok {
		t.Error("a evicted despite recent use")
	}
	if _, ok := c.get("b"); ok {
		t.Error("b present, want evicted")
	}
}

func TestLRUCache_SetUpdatesInPlace(t *testing.T) {
	c := newLRUCache[string, int](2)
	c.set("a", 1)
	c.set("a", 2)

	if got := c.len(); got != 1 {
		t.Fatalf("len() = %d, want 1", got)
	}
	if v, _ := c.get("a"); v != 2 {
		t.Errorf("get(a) = %d, want 2", v)
	}
}

func TestLRUCache_PurgeResetsCounters(t *testing.T) {
	c := newLRUCache[string, int](2)
	c.set("a", 1)
	c.get("a")
	c.get("missing")
	c.purge()

	if got := c.len(); got != 0 {
		t.Fatalf("len() after purge = %d, want 0", got)
	}
	hits, misses, evictions := c.stats()
	if hits != 0 || misses != 0 || evictions != 0 {
		t.Errorf("stats after purge = %d/%d/%d, want zeros", hits, misses, evictions)
	}
}

func TestLRUCache_NonPositiveCapacityDefaults(t *testing.T) {
	c := newLRUCache[string, int](0)
	if c.capacity != DefaultCacheCapacity {
		t.Errorf("capacity = %d, want %d", c.capacity, DefaultCacheCapacity)
	}
}
