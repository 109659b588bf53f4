// Copyright 2026 The mindrouter Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package selector picks the provider(s) to serve a classified work item.
// All strategies are pure functions over a filtered candidate list; hard
// preference constraints prune candidates before any scoring happens, and
// an empty candidate set always falls back to the configured default
// provider rather than an empty selection.
package selector

import (
	"sort"

	log "github.com/sirupsen/logrus"

	"github.com/thinkmate/mindrouter/internal/registry"
	"github.com/thinkmate/mindrouter/internal/scenario"
)

// Strategy names a selection policy.
type Strategy string

const (
	StrategyQualityFirst  Strategy = "quality_first"
	StrategySpeedFirst    Strategy = "speed_first"
	StrategyCostEffective Strategy = "cost_effective"
	StrategyBalanced      Strategy = "balanced"
	StrategyAdaptive      Strategy = "adaptive"
	StrategyEnsemble      Strategy = "ensemble"
)

// ensembleMax bounds how many providers an ensemble selection returns.
const ensembleMax = 3

// Selector scores capability rows for a scenario under the current
// operating preferences.
type Selector struct {
	registry *registry.Registry
}

func New(reg *registry.Registry) *Selector {
	return &Selector{registry: reg}
}

// SelectOptimalProviders returns the ordered providers to execute for a
// scenario. Non-ensemble strategies return exactly one capability;
// ensemble returns the top 2-3 by balanced score. An empty strategy means
// adaptive. Required tags, when given, prune candidates to rows whose
// speed, quality, or cost tier matches every tag, before any scoring.
func (s *Selector) SelectOptimalProviders(sc scenario.Scenario, ctx *scenario.Context, strategy Strategy, requiredTags ...string) []registry.Capability {
	if strategy == "" {
		strategy = StrategyAdaptive
	}
	if strategy == StrategyAdaptive {
		strategy = s.resolveAdaptive(sc, ctx)
	}

	candidates := s.filter(s.registry.ForScenario(sc), ctx)
	candidates = filterTags(candidates, requiredTags)
	if len(candidates) == 0 {
		log.Debugf("No eligible capability for scenario %s, falling back to default provider %s",
			sc, s.registry.DefaultProvider())
		return []registry.Capability{s.registry.DefaultCapability(sc)}
	}

	switch strategy {
	case StrategyQualityFirst:
		rank(candidates, func(c registry.Capability) float64 { return qualityScore(c) })
	case StrategySpeedFirst:
		rank(candidates, func(c registry.Capability) float64 { return speedScore(c) })
	case StrategyCostEffective:
		rank(candidates, func(c registry.Capability) float64 { return costEffectiveScore(c) })
	case StrategyEnsemble:
		weights := balancedWeights(ctx)
		rank(candidates, func(c registry.Capability) float64 { return balancedScore(c, weights) })
		if len(candidates) > ensembleMax {
			candidates = candidates[:ensembleMax]
		}
		return candidates
	default: // StrategyBalanced
		weights := balancedWeights(ctx)
		rank(candidates, func(c registry.Capability) float64 { return balancedScore(c, weights) })
	}

	return candidates[:1]
}

// resolveAdaptive maps the adaptive strategy onto a concrete one.
// Quality-demanding scenarios always get quality-first, latency-sensitive
// ones speed-first; otherwise daytime leans fast and night leans thorough.
func (s *Selector) resolveAdaptive(sc scenario.Scenario, ctx *scenario.Context) Strategy {
	switch {
	case sc.DemandsQuality():
		return StrategyQualityFirst
	case sc.DemandsSpeed():
		return StrategySpeedFirst
	}
	if ctx != nil && (ctx.Bucket == scenario.BucketMorning || ctx.Bucket == scenario.BucketDaytime) {
		return StrategySpeedFirst
	}
	return StrategyQualityFirst
}

// filter applies the hard preference constraints that precede scoring.
func (s *Selector) filter(rows []registry.Capability, ctx *scenario.Context) []registry.Capability {
	if ctx == nil {
		return rows
	}

	out := rows[:0]
	for _, row := range rows {
		if ctx.Prefs.CostSensitivity == scenario.LevelHigh && row.Cost == registry.CostHigh {
			continue
		}
		if ctx.Prefs.PrivacySensitivity == scenario.LevelHigh && !approved(ctx.Prefs.ApprovedProviders, row.ProviderID) {
			continue
		}
		out = append(out, row)
	}
	return out
}

// filterTags keeps rows whose speed, quality, or cost tier matches every
// required tag.
func filterTags(rows []registry.Capability, tags []string) []registry.Capability {
	if len(tags) == 0 {
		return rows
	}
	out := rows[:0]
	for _, row := range rows {
		if matchesTags(row, tags) {
			out = append(out, row)
		}
	}
	return out
}

func matchesTags(c registry.Capability, tags []string) bool {
	for _, tag := range tags {
		if tag != string(c.Speed) && tag != string(c.Quality) && tag != string(c.Cost) {
			return false
		}
	}
	return true
}

func approved(list []string, id string) bool {
	for _, v := range list {
		if v == id {
			return true
		}
	}
	return false
}

// rank sorts candidates by score descending. The sort is stable so rows
// with equal scores keep registration order and selection stays
// deterministic.
func rank(rows []registry.Capability, score func(registry.Capability) float64) {
	sort.SliceStable(rows, func(i, j int) bool {
		return score(rows[i]) > score(rows[j])
	})
}
