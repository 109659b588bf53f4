// Copyright 2026 The mindrouter Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package registry

import (
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thinkmate/mindrouter/internal/scenario"
)

func seedRow(providerID string, rel float64) Capability {
	return Capability{
		Scenario:    scenario.ScenarioSummarization,
		ProviderID:  providerID,
		Speed:       SpeedFast,
		Quality:     QualityGood,
		Cost:        CostLow,
		Reliability: rel,
	}
}

func TestRegisterAndForScenario(t *testing.T) {
	reg := New("local")
	require.NoError(t, reg.Register(seedRow("openai", 0.9)))
	require.NoError(t, reg.Register(seedRow("claude", 0.85)))

	rows := reg.ForScenario(scenario.ScenarioSummarization)
	require.Len(t, rows, 2)
	assert.Equal(t, "openai", rows[0].ProviderID)

	// Returned rows are copies; mutating them must not leak back.
	rows[0].Reliability = 0.01
	again := reg.ForScenario(scenario.ScenarioSummarization)
	assert.Equal(t, 0.9, again[0].Reliability)
}

func TestRegisterMissingProviderID(t *testing.T) {
	reg := New("local")
	err := reg.Register(Capability{Scenario: scenario.ScenarioGeneral})
	assert.Error(t, err)
}

func TestDefaultCapability(t *testing.T) {
	reg := New("local")
	cap := reg.DefaultCapability(scenario.ScenarioCreative)

	assert.Equal(t, "local", cap.ProviderID)
	assert.Equal(t, scenario.ScenarioCreative, cap.Scenario)
	assert.Equal(t, 0.8, cap.Reliability)
}

func TestUpdateReliabilitySmoothing(t *testing.T) {
	reg := New("local")
	require.NoError(t, reg.Register(seedRow("openai", 0.8)))

	reg.UpdateReliability("openai", scenario.ScenarioSummarization, 1.0)
	rows := reg.ForScenario(scenario.ScenarioSummarization)
	assert.InDelta(t, 0.9*0.8+0.1*1.0, rows[0].Reliability, 1e-9)

	reg.UpdateReliability("openai", scenario.ScenarioSummarization, 0.0)
	rows = reg.ForScenario(scenario.ScenarioSummarization)
	assert.InDelta(t, 0.9*0.82, rows[0].Reliability, 1e-9)
}

func TestUpdateReliabilityUnknownRowIsNoop(t *testing.T) {
	reg := New("local")
	require.NoError(t, reg.Register(seedRow("openai", 0.8)))

	reg.UpdateReliability("nope", scenario.ScenarioSummarization, 1.0)
	reg.UpdateReliability("openai", scenario.ScenarioCreative, 1.0)

	rows := reg.ForScenario(scenario.ScenarioSummarization)
	assert.Equal(t, 0.8, rows[0].Reliability)
}

func TestDriftTowardBaseline(t *testing.T) {
	reg := New("local")
	require.NoError(t, reg.Register(seedRow("low", 0.2)))
	require.NoError(t, reg.Register(seedRow("high", 1.0)))

	reg.DriftTowardBaseline(0.5)

	rows := reg.ForScenario(scenario.ScenarioSummarization)
	byID := map[string]float64{}
	for _, row := range rows {
		byID[row.ProviderID] = row.Reliability
	}
	assert.InDelta(t, 0.5, byID["low"], 1e-9)
	assert.InDelta(t, 0.9, byID["high"], 1e-9)

	// Out-of-range rates leave the table untouched.
	reg.DriftTowardBaseline(0)
	reg.DriftTowardBaseline(2)
	rows = reg.ForScenario(scenario.ScenarioSummarization)
	for _, row := range rows {
		assert.InDelta(t, byID[row.ProviderID], row.Reliability, 1e-9)
	}
}

func TestProperty_ReliabilityStaysBounded(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("reliability remains in [0.1, 1.0] under any update sequence", prop.ForAll(
		func(initial float64, observations []float64) bool {
			reg := New("local")
			if err := reg.Register(seedRow("p", initial)); err != nil {
				return false
			}
			for _, obs := range observations {
				reg.UpdateReliability("p", scenario.ScenarioSummarization, obs)
			}
			rows := reg.ForScenario(scenario.ScenarioSummarization)
			return rows[0].Reliability >= 0.1 && rows[0].Reliability <= 1.0
		},
		gen.Float64Range(0.1, 1.0),
		gen.SliceOf(gen.Float64Range(0.0, 1.0)),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}
