// Copyright 2026 The mindrouter Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package registry holds the capability table: which providers can serve
// which scenarios, at what speed/quality/cost, and how reliable each has
// proven so far. Rows are seeded at startup; reliability is the only field
// that mutates afterwards, fed back by the performance tracker.
package registry

import (
	"fmt"
	"sync"

	log "github.com/sirupsen/logrus"

	"github.com/thinkmate/mindrouter/internal/scenario"
)

// Speed is the qualitative latency tier of a (scenario, provider) pair.
type Speed string

const (
	SpeedFast   Speed = "fast"
	SpeedMedium Speed = "medium"
	SpeedSlow   Speed = "slow"
)

// Quality is the qualitative answer-quality tier.
type Quality string

const (
	QualityBasic     Quality = "basic"
	QualityGood      Quality = "good"
	QualityExcellent Quality = "excellent"
)

// Cost is the qualitative cost tier.
type Cost string

const (
	CostLow    Cost = "low"
	CostMedium Cost = "medium"
	CostHigh   Cost = "high"
)

// Capability is one row of the table: a provider's profile for a single
// scenario. Reliability is in [0.1, 1.0] and is learned; everything else
// is configuration.
type Capability struct {
	Scenario    scenario.Scenario `json:"scenario" yaml:"scenario"`
	ProviderID  string            `json:"provider_id" yaml:"provider-id"`
	Speed       Speed             `json:"speed" yaml:"speed"`
	Quality     Quality           `json:"quality" yaml:"quality"`
	Cost        Cost              `json:"cost" yaml:"cost"`
	Reliability float64           `json:"reliability" yaml:"reliability"`
}

const (
	// reliabilityFloor keeps a misbehaving provider selectable at a low
	// rate so it can recover; the ceiling caps optimism.
	reliabilityFloor   = 0.1
	reliabilityCeiling = 1.0

	// smoothingRetention is the weight of history in the exponential
	// reliability update.
	smoothingRetention = 0.9

	defaultReliability = 0.8
)

// Registry is the concurrency-safe capability table. Reads vastly
// outnumber writes; reliability updates take the write lock.
type Registry struct {
	mu   sync.RWMutex
	rows map[scenario.Scenario][]*Capability

	defaultProvider string
}

// New creates an empty registry with the given default provider id. The
// default provider backs the general scenario and every fallback path.
func New(defaultProvider string) *Registry {
	return &Registry{
		rows:            make(map[scenario.Scenario][]*Capability),
		defaultProvider: defaultProvider,
	}
}

// Register adds or replaces a capability row. Called at startup from
// configuration; replacing is keyed on (scenario, provider).
func (r *Registry) Register(cap Capability) error {
	if cap.ProviderID == "" {
		return fmt.Errorf("capability row missing provider id")
	}
	if !cap.Scenario.Valid() {
		return fmt.Errorf("capability row for %s has unknown scenario %q", cap.ProviderID, cap.Scenario)
	}
	if cap.Reliability <= 0 {
		cap.Reliability = defaultReliability
	}
	cap.Reliability = clampReliability(cap.Reliability)

	r.mu.Lock()
	defer r.mu.Unlock()

	rows := r.rows[cap.Scenario]
	for i, existing := range rows {
		if existing.ProviderID == cap.ProviderID {
			rows[i] = &cap
			return nil
		}
	}
	r.rows[cap.Scenario] = append(rows, &cap)
	return nil
}

// ForScenario returns copies of all rows registered for a scenario, in
// registration order. Callers own the returned slice.
func (r *Registry) ForScenario(s scenario.Scenario) []Capability {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rows := r.rows[s]
	out := make([]Capability, len(rows))
	for i, row := range rows {
		out[i] = *row
	}
	return out
}

// DefaultProvider returns the configured fallback provider id.
func (r *Registry) DefaultProvider() string {
	return r.defaultProvider
}

// DefaultCapability returns a synthetic row for the default provider,
// used when filtering leaves no eligible candidate.
func (r *Registry) DefaultCapability(s scenario.Scenario) Capability {
	return Capability{
		Scenario:    s,
		ProviderID:  r.defaultProvider,
		Speed:       SpeedMedium,
		Quality:     QualityGood,
		Cost:        CostMedium,
		Reliability: defaultReliability,
	}
}

// UpdateReliability applies the exponential smoothing update
// new = 0.9×old + 0.1×observed to the matching row, clamped to
// [0.1, 1.0]. Unknown (scenario, provider) pairs are ignored: outcomes
// for the synthetic default row have nothing to update.
func (r *Registry) UpdateReliability(providerID string, s scenario.Scenario, observedSuccessRate float64) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, row := range r.rows[s] {
		if row.ProviderID != providerID {
			continue
		}
		old := row.Reliability
		row.Reliability = clampReliability(
			smoothingRetention*old + (1-smoothingRetention)*observedSuccessRate)
		log.Debugf("Reliability %s/%s: %.3f -> %.3f (observed %.2f)",
			providerID, s, old, row.Reliability, observedSuccessRate)
		return
	}
}

// DriftTowardBaseline nudges every learned reliability a small step back
// toward the default. Stale observations should not dominate forever: a
// provider that misbehaved last month but is never selected anymore
// slowly earns another chance. rate is the fraction of the gap closed
// per call.
func (r *Registry) DriftTowardBaseline(rate float64) {
	if rate <= 0 || rate > 1 {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, rows := range r.rows {
		for _, row := range rows {
			row.Reliability = clampReliability(
				row.Reliability + rate*(defaultReliability-row.Reliability))
		}
	}
}

// Snapshot returns copies of every row, for stats endpoints and metric
// export.
func (r *Registry) Snapshot() []Capability {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []Capability
	for _, s := range scenario.All() {
		for _, row := range r.rows[s] {
			out = append(out, *row)
		}
	}
	return out
}

func clampReliability(v float64) float64 {
	if v < reliabilityFloor {
		return reliabilityFloor
	}
	if v > reliabilityCeiling {
		return reliabilityCeiling
	}
	return v
}
