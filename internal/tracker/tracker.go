// Copyright 2026 The mindrouter Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package tracker records provider outcome metrics and feeds observed
// reliability back into the capability registry. The in-memory ring is
// the source of truth for stats; the optional SQLite journal is an
// operator-facing audit log.
package tracker

import (
	"context"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/thinkmate/mindrouter/internal/registry"
	"github.com/thinkmate/mindrouter/internal/scenario"
)

const defaultCapacity = 1000

// Metric is one observed provider outcome. Append-only; the ring evicts
// the oldest entry once full.
type Metric struct {
	ProviderID   string            `json:"provider_id"`
	Scenario     scenario.Scenario `json:"scenario"`
	ResponseTime time.Duration     `json:"response_time"`
	Success      bool              `json:"success"`
	Satisfaction float64           `json:"satisfaction"`
	Timestamp    time.Time         `json:"timestamp"`
}

// Stats aggregates the ring for one provider (optionally narrowed to a
// scenario). All-zero stats mean no history, never an error.
type Stats struct {
	AvgResponseTime time.Duration `json:"avg_response_time"`
	SuccessRate     float64       `json:"success_rate"`
	AvgSatisfaction float64       `json:"avg_satisfaction"`
	UsageCount      int           `json:"usage_count"`
}

// Tracker is safe for concurrent use; the ring and the registry
// reliability fields are the only state shared across independent tasks.
type Tracker struct {
	mu       sync.Mutex
	ring     []Metric
	next     int
	filled   bool
	registry *registry.Registry
	journal  *Journal
}

// New creates a tracker with the given ring capacity (0 means the
// default of 1000). The journal may be nil.
func New(reg *registry.Registry, capacity int, journal *Journal) *Tracker {
	if capacity <= 0 {
		capacity = defaultCapacity
	}
	return &Tracker{
		ring:     make([]Metric, capacity),
		registry: reg,
		journal:  journal,
	}
}

// RecordOutcome appends a metric, applies the reliability smoothing
// update to the matching capability row, and mirrors the outcome to the
// journal and the Prometheus collectors.
func (t *Tracker) RecordOutcome(m Metric) {
	if m.Timestamp.IsZero() {
		m.Timestamp = time.Now()
	}

	t.mu.Lock()
	t.ring[t.next] = m
	t.next++
	if t.next == len(t.ring) {
		t.next = 0
		t.filled = true
	}
	t.mu.Unlock()

	observed := 0.0
	if m.Success {
		observed = 1.0
	}
	t.registry.UpdateReliability(m.ProviderID, m.Scenario, observed)

	observeCall(m)
	for _, row := range t.registry.Snapshot() {
		if row.ProviderID == m.ProviderID && row.Scenario == m.Scenario {
			setReliability(row.ProviderID, string(row.Scenario), row.Reliability)
		}
	}

	if t.journal != nil {
		if err := t.journal.Append(context.Background(), m); err != nil {
			log.Warnf("Outcome journal append failed: %v", err)
		}
	}
}

// Stats aggregates over the matching ring entries. A zero-length scenario
// list matches every scenario.
func (t *Tracker) Stats(providerID string, scenarios ...scenario.Scenario) Stats {
	t.mu.Lock()
	defer t.mu.Unlock()

	var (
		stats        Stats
		totalLatency time.Duration
		successes    int
		satisfaction float64
	)

	for _, m := range t.entriesLocked() {
		if m.ProviderID != providerID {
			continue
		}
		if len(scenarios) > 0 && !containsScenario(scenarios, m.Scenario) {
			continue
		}
		stats.UsageCount++
		totalLatency += m.ResponseTime
		satisfaction += m.Satisfaction
		if m.Success {
			successes++
		}
	}

	if stats.UsageCount == 0 {
		return stats
	}
	stats.AvgResponseTime = totalLatency / time.Duration(stats.UsageCount)
	stats.SuccessRate = float64(successes) / float64(stats.UsageCount)
	stats.AvgSatisfaction = satisfaction / float64(stats.UsageCount)
	return stats
}

// Len returns how many metrics the ring currently holds.
func (t *Tracker) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.filled {
		return len(t.ring)
	}
	return t.next
}

// entriesLocked returns the live ring entries. Caller holds t.mu.
func (t *Tracker) entriesLocked() []Metric {
	if t.filled {
		return t.ring
	}
	return t.ring[:t.next]
}

func containsScenario(list []scenario.Scenario, s scenario.Scenario) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
