// Copyright 2026 The mindrouter Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package cache provides an LRU cache for quick-analysis results so
// repeated lookups of the same text skip the detector entirely.
package cache

import (
	"container/list"
	"crypto/sha256"
	"encoding/hex"
	"sync"
	"time"
)

// Entry is one cached quick-analysis result.
type Entry struct {
	Key        string
	Scenario   string
	Provider   string
	Confidence float64
	Suggestion string
	Timestamp  time.Time

	element *list.Element
}

// Metrics tracks cache performance statistics.
type Metrics struct {
	Hits      int64
	Misses    int64
	Evictions int64
	Size      int
}

// QuickCache is an exact-match LRU cache with TTL expiry.
type QuickCache struct {
	maxSize int
	ttl     time.Duration

	entries map[string]*Entry
	lruList *list.List

	mu      sync.Mutex
	metrics Metrics
}

// New creates a cache. maxSize <= 0 defaults to 1024 entries,
// ttl <= 0 defaults to 5 minutes.
func New(maxSize int, ttl time.Duration) *QuickCache {
	if maxSize <= 0 {
		maxSize = 1024
	}
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &QuickCache{
		maxSize: maxSize,
		ttl:     ttl,
		entries: make(map[string]*Entry),
		lruList: list.New(),
	}
}

// Key hashes the text so arbitrarily long content maps to a fixed-size
// map key.
func Key(text string) string {
	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:16])
}

// Lookup returns the cached entry for the text, or nil on a miss.
// Expired entries count as misses and are removed.
func (c *QuickCache) Lookup(text string) *Entry {
	key := Key(text)

	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[key]
	if !ok {
		c.metrics.Misses++
		return nil
	}
	if time.Since(entry.Timestamp) > c.ttl {
		c.removeLocked(entry)
		c.metrics.Misses++
		return nil
	}

	c.lruList.MoveToFront(entry.element)
	c.metrics.Hits++
	copied := *entry
	copied.element = nil
	return &copied
}

// Store caches a quick-analysis result, evicting the LRU entry if full.
func (c *QuickCache) Store(text, scenario, provider string, confidence float64, suggestion string) {
	key := Key(text)

	c.mu.Lock()
	defer c.mu.Unlock()

	if existing, ok := c.entries[key]; ok {
		existing.Scenario = scenario
		existing.Provider = provider
		existing.Confidence = confidence
		existing.Suggestion = suggestion
		existing.Timestamp = time.Now()
		c.lruList.MoveToFront(existing.element)
		return
	}

	if len(c.entries) >= c.maxSize {
		if oldest := c.lruList.Back(); oldest != nil {
			c.removeLocked(oldest.Value.(*Entry))
			c.metrics.Evictions++
		}
	}

	entry := &Entry{
		Key:        key,
		Scenario:   scenario,
		Provider:   provider,
		Confidence: confidence,
		Suggestion: suggestion,
		Timestamp:  time.Now(),
	}
	entry.element = c.lruList.PushFront(entry)
	c.entries[key] = entry
}

// Stats returns a snapshot of the cache metrics.
func (c *QuickCache) Stats() Metrics {
	c.mu.Lock()
	defer c.mu.Unlock()
	m := c.metrics
	m.Size = len(c.entries)
	return m
}

// Purge removes every entry. Used by scheduled maintenance after
// steering rules change, since cached suggestions may be stale.
func (c *QuickCache) Purge() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]*Entry)
	c.lruList.Init()
}

// removeLocked detaches an entry from both structures. Caller holds c.mu.
func (c *QuickCache) removeLocked(entry *Entry) {
	c.lruList.Remove(entry.element)
	delete(c.entries, entry.Key)
}
