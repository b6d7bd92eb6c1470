// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package graph

import (
	"fmt"
	"hash/fnv"
	"log/slog"
	"sort"
	"strconv"
)

// =============================================================================
// Analytics Engine
// =============================================================================

// DefaultCacheCapacity bounds the engine's result cache. The cache is
// keyed by structural graph hash plus options, so the bound is what keeps
// long sessions from accumulating results for graphs that will never be
// queried again.
const DefaultCacheCapacity = 256

// Engine is the graph analytics engine.
//
// Description:
//
//	Engine exposes the centrality, community, path, flow, structure,
//	similarity, and optimization operations. All operations are pure
//	functions of the input graph plus options; the engine never mutates
//	a graph it is given.
//
// Thread Safety:
//
//	Safe for concurrent use. The result cache is the only mutable state
//	and is guarded internally.
type Engine struct {
	logger *slog.Logger
	cache  *lruCache[string, any]
}

// EngineOption configures an Engine.
type EngineOption func(*Engine)

// WithCacheCapacity overrides the result-cache capacity.
func WithCacheCapacity(capacity int) EngineOption {
	return func(e *Engine) {
		e.cache = newLRUCache[string, any](capacity)
	}
}

// WithLogger sets the engine's structured logger.
func WithLogger(logger *slog.Logger) EngineOption {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// NewEngine creates an analytics engine with a bounded result cache.
func NewEngine(opts ...EngineOption) *Engine {
	e := &Engine{
		logger: slog.Default(),
		cache:  newLRUCache[string, any](DefaultCacheCapacity),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// CacheStats reports result-cache occupancy and hit counters.
type CacheStats struct {
	Entries   int   `json:"entries"`
	Hits      int64 `json:"hits"`
	Misses    int64 `json:"misses"`
	Evictions int64 `json:"evictions"`
}

// CacheStats returns the current result-cache statistics.
func (e *Engine) CacheStats() CacheStats {
	hits, misses, evictions := e.cache.stats()
	return CacheStats{
		Entries:   e.cache.len(),
		Hits:      hits,
		Misses:    misses,
		Evictions: evictions,
	}
}

// PurgeCache clears the result cache.
func (e *Engine) PurgeCache() {
	e.cache.purge()
}

// =============================================================================
// Structural Hashing
// =============================================================================

// structuralHash fingerprints a graph by its sorted node-id list and
// sorted edge endpoint pairs. Two graphs with the same structure hash to
// the same value regardless of input ordering.
func structuralHash(g *Graph) uint64 {
	ids := make([]string, len(g.Nodes))
	for i := range g.Nodes {
		ids[i] = g.Nodes[i].ID
	}
	sort.Strings(ids)

	pairs := make([]string, 0, len(g.Edges))
	for i := range g.Edges {
		e := &g.Edges[i]
		dir := ">"
		if e.Bidirectional {
			dir = "="
		}
		pairs = append(pairs, e.Source+dir+e.Target)
	}
	sort.Strings(pairs)

	h := fnv.New64a()
	for _, id := range ids {
		h.Write([]byte(id))
		h.Write([]byte{0})
	}
	h.Write([]byte{1})
	for _, p := range pairs {
		h.Write([]byte(p))
		h.Write([]byte{0})
	}
	return h.Sum64()
}

// cacheKey combines the operation name, the structural hash, and the
// serialized options.
func cacheKey(op string, g *Graph, params string) string {
	return op + ":" + strconv.FormatUint(structuralHash(g), 16) + ":" + params
}

// cachedResult retrieves a typed result from the engine cache.
func cachedResult[T any](e *Engine, key string) (*Result[T], bool) {
	v, ok := e.cache.get(key)
	if !ok {
		return nil, false
	}
	r, ok := v.(*Result[T])
	return r, ok
}

// optsString serializes option values into a stable cache-key fragment.
func optsString(parts ...any) string {
	s := ""
	for _, p := range parts {
		s += fmt.Sprintf("%v|", p)
	}
	return s
}
