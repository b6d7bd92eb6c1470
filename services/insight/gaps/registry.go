// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package gaps

import (
	"sort"
	"time"
)

// registry is a bounded, insertion-time-ordered map. It is not locked
// internally; the owning Detector serializes access.
type registry[T any] struct {
	max   int
	ttl   time.Duration // 0 disables expiry
	items map[string]regEntry[T]
}

type regEntry[T any] struct {
	value T
	added time.Time
}

func newRegistry[T any](max int, ttl time.Duration) *registry[T] {
	return &registry[T]{max: max, ttl: ttl, items: make(map[string]regEntry[T])}
}

func (r *registry[T]) put(id string, v T, now time.Time) {
	r.items[id] = regEntry[T]{value: v, added: now}
}

// refresh replaces a value while keeping its original insertion time, so
// updates do not reset TTL ordering.
func (r *registry[T]) refresh(id string, v T) bool {
	e, ok := r.items[id]
	if !ok {
		return false
	}
	e.value = v
	r.items[id] = e
	return true
}

func (r *registry[T]) get(id string) (T, bool) {
	e, ok := r.items[id]
	return e.value, ok
}

func (r *registry[T]) has(id string) bool {
	_, ok := r.items[id]
	return ok
}

func (r *registry[T]) delete(id string) {
	delete(r.items, id)
}

func (r *registry[T]) len() int {
	return len(r.items)
}

// ids returns all keys ordered oldest first, ties broken by id.
func (r *registry[T]) ids() []string {
	out := make([]string, 0, len(r.items))
	for id := range r.items {
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := r.items[out[i]], r.items[out[j]]
		if !a.added.Equal(b.added) {
			return a.added.Before(b.added)
		}
		return out[i] < out[j]
	})
	return out
}

// values returns all entries ordered oldest first.
func (r *registry[T]) values() []T {
	ids := r.ids()
	out := make([]T, 0, len(ids))
	for _, id := range ids {
		out = append(out, r.items[id].value)
	}
	return out
}

// expire drops entries older than the TTL relative to now. Returns the
// number removed.
func (r *registry[T]) expire(now time.Time) int {
	if r.ttl <= 0 {
		return 0
	}
	removed := 0
	for id, e := range r.items {
		if now.Sub(e.added) > r.ttl {
			delete(r.items, id)
			removed++
		}
	}
	return removed
}

// enforceCap evicts the oldest entries until the registry fits its
// bound. Returns the number evicted.
func (r *registry[T]) enforceCap() int {
	over := len(r.items) - r.max
	if over <= 0 {
		return 0
	}
	for _, id := range r.ids()[:over] {
		delete(r.items, id)
	}
	return over
}

func (r *registry[T]) clear() {
	r.items = make(map[string]regEntry[T])
}
