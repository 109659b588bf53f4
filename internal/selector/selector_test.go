// Copyright 2026 The mindrouter Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package selector

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thinkmate/mindrouter/internal/registry"
	"github.com/thinkmate/mindrouter/internal/scenario"
)

func seededRegistry(t *testing.T) *registry.Registry {
	t.Helper()
	reg := registry.New("local")

	rows := []registry.Capability{
		{Scenario: scenario.ScenarioDeepInsight, ProviderID: "claude", Speed: registry.SpeedSlow, Quality: registry.QualityExcellent, Cost: registry.CostHigh, Reliability: 0.9},
		{Scenario: scenario.ScenarioDeepInsight, ProviderID: "openai", Speed: registry.SpeedMedium, Quality: registry.QualityGood, Cost: registry.CostMedium, Reliability: 0.95},
		{Scenario: scenario.ScenarioDeepInsight, ProviderID: "local", Speed: registry.SpeedFast, Quality: registry.QualityBasic, Cost: registry.CostLow, Reliability: 0.99},
	}
	for _, row := range rows {
		require.NoError(t, reg.Register(row))
	}
	return reg
}

func prefCtx(prefs scenario.Preferences, hour int) *scenario.Context {
	return scenario.NewContext("content", nil, prefs, scenario.Session{},
		time.Date(2026, 3, 2, hour, 0, 0, 0, time.UTC))
}

func TestQualityFirstPicksExcellent(t *testing.T) {
	s := New(seededRegistry(t))
	ctx := prefCtx(scenario.DefaultPreferences(), 14)

	caps := s.SelectOptimalProviders(scenario.ScenarioDeepInsight, ctx, StrategyQualityFirst)

	require.Len(t, caps, 1)
	assert.Equal(t, "claude", caps[0].ProviderID)
}

func TestSpeedFirstPicksFast(t *testing.T) {
	s := New(seededRegistry(t))
	ctx := prefCtx(scenario.DefaultPreferences(), 14)

	caps := s.SelectOptimalProviders(scenario.ScenarioDeepInsight, ctx, StrategySpeedFirst)

	require.Len(t, caps, 1)
	assert.Equal(t, "local", caps[0].ProviderID)
}

func TestCostEffectiveAvoidsExpensive(t *testing.T) {
	s := New(seededRegistry(t))
	ctx := prefCtx(scenario.DefaultPreferences(), 14)

	caps := s.SelectOptimalProviders(scenario.ScenarioDeepInsight, ctx, StrategyCostEffective)

	require.Len(t, caps, 1)
	assert.NotEqual(t, "claude", caps[0].ProviderID)
}

func TestHighCostSensitivityFiltersHighCost(t *testing.T) {
	s := New(seededRegistry(t))
	prefs := scenario.DefaultPreferences()
	prefs.CostSensitivity = scenario.LevelHigh
	ctx := prefCtx(prefs, 14)

	caps := s.SelectOptimalProviders(scenario.ScenarioDeepInsight, ctx, StrategyQualityFirst)

	require.Len(t, caps, 1)
	assert.NotEqual(t, "claude", caps[0].ProviderID)
}

func TestHighPrivacyRestrictsToApproved(t *testing.T) {
	s := New(seededRegistry(t))
	prefs := scenario.DefaultPreferences()
	prefs.PrivacySensitivity = scenario.LevelHigh
	prefs.ApprovedProviders = []string{"local"}
	ctx := prefCtx(prefs, 14)

	caps := s.SelectOptimalProviders(scenario.ScenarioDeepInsight, ctx, StrategyQualityFirst)

	require.Len(t, caps, 1)
	assert.Equal(t, "local", caps[0].ProviderID)
}

func TestRequiredTagsPruneBeforeScoring(t *testing.T) {
	s := New(seededRegistry(t))
	ctx := prefCtx(scenario.DefaultPreferences(), 14)

	// Quality-first would pick claude, but the fast tag rules it out
	// before scoring, so the fast row wins on quality among survivors.
	caps := s.SelectOptimalProviders(scenario.ScenarioDeepInsight, ctx, StrategyQualityFirst, "fast")
	require.Len(t, caps, 1)
	assert.Equal(t, "local", caps[0].ProviderID)

	// Multiple tags must all match one row.
	caps = s.SelectOptimalProviders(scenario.ScenarioDeepInsight, ctx, StrategyQualityFirst, "slow", "excellent")
	require.Len(t, caps, 1)
	assert.Equal(t, "claude", caps[0].ProviderID)

	// An unsatisfiable tag combination falls back to the default.
	caps = s.SelectOptimalProviders(scenario.ScenarioDeepInsight, ctx, StrategyQualityFirst, "fast", "excellent")
	require.Len(t, caps, 1)
	assert.Equal(t, "local", caps[0].ProviderID)
	assert.Equal(t, registry.QualityGood, caps[0].Quality)
}

func TestEmptyCandidatesFallBackToDefault(t *testing.T) {
	s := New(seededRegistry(t))
	ctx := prefCtx(scenario.DefaultPreferences(), 14)

	// Nothing registered for this scenario.
	caps := s.SelectOptimalProviders(scenario.ScenarioSentiment, ctx, StrategyBalanced)

	require.Len(t, caps, 1)
	assert.Equal(t, "local", caps[0].ProviderID)
	assert.Equal(t, scenario.ScenarioSentiment, caps[0].Scenario)
}

func TestFilteredToNothingFallsBackToDefault(t *testing.T) {
	s := New(seededRegistry(t))
	prefs := scenario.DefaultPreferences()
	prefs.PrivacySensitivity = scenario.LevelHigh
	prefs.ApprovedProviders = []string{"unknown"}
	ctx := prefCtx(prefs, 14)

	caps := s.SelectOptimalProviders(scenario.ScenarioDeepInsight, ctx, StrategyQualityFirst)

	require.Len(t, caps, 1)
	assert.Equal(t, "local", caps[0].ProviderID)
}

func TestEnsembleReturnsTopCandidates(t *testing.T) {
	s := New(seededRegistry(t))
	ctx := prefCtx(scenario.DefaultPreferences(), 14)

	caps := s.SelectOptimalProviders(scenario.ScenarioDeepInsight, ctx, StrategyEnsemble)

	assert.Len(t, caps, 3)
	seen := make(map[string]bool)
	for _, c := range caps {
		assert.False(t, seen[c.ProviderID], "duplicate provider %s", c.ProviderID)
		seen[c.ProviderID] = true
	}
}

func TestAdaptiveResolution(t *testing.T) {
	s := New(seededRegistry(t))

	cases := []struct {
		name string
		sc   scenario.Scenario
		hour int
		want Strategy
	}{
		{"quality scenario", scenario.ScenarioComplexReasoning, 14, StrategyQualityFirst},
		{"speed scenario", scenario.ScenarioLiveAnalysis, 14, StrategySpeedFirst},
		{"daytime default", scenario.ScenarioGeneral, 10, StrategySpeedFirst},
		{"night default", scenario.ScenarioGeneral, 23, StrategyQualityFirst},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			ctx := prefCtx(scenario.DefaultPreferences(), tc.hour)
			assert.Equal(t, tc.want, s.resolveAdaptive(tc.sc, ctx))
		})
	}
}

func TestEmptyStrategyMeansAdaptive(t *testing.T) {
	s := New(seededRegistry(t))
	ctx := prefCtx(scenario.DefaultPreferences(), 14)

	// Deep insight demands quality, so adaptive resolves to quality-first.
	caps := s.SelectOptimalProviders(scenario.ScenarioDeepInsight, ctx, "")

	require.Len(t, caps, 1)
	assert.Equal(t, "claude", caps[0].ProviderID)
}
