// Copyright 2026 The mindrouter Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package scenario classifies free-text work items into processing
// scenarios. The Detector scores an ordered pattern table against the
// text and the request context; classification is deterministic for
// identical inputs and falls back to ScenarioGeneral when the signal is
// too weak to justify a specialized pipeline.
package scenario

// Scenario is a closed classification label describing what kind of
// analysis a text unit needs. Assigned once per work item.
type Scenario string

const (
	ScenarioQuickClassification Scenario = "quick_classification"
	ScenarioSummarization       Scenario = "summarization"
	ScenarioDeepInsight         Scenario = "deep_insight"
	ScenarioPhilosophical       Scenario = "philosophical"
	ScenarioCreative            Scenario = "creative"
	ScenarioComplexReasoning    Scenario = "complex_reasoning"
	ScenarioSearchOptimization  Scenario = "search_optimization"
	ScenarioKnowledgeLinking    Scenario = "knowledge_linking"
	ScenarioLiveAnalysis        Scenario = "live_analysis"
	ScenarioFileProcessing      Scenario = "file_processing"
	ScenarioAutoTagging         Scenario = "auto_tagging"
	ScenarioCategorization      Scenario = "categorization"
	ScenarioSentiment           Scenario = "sentiment"
	ScenarioStrategicPlanning   Scenario = "strategic_planning"
	ScenarioGeneral             Scenario = "general"
)

// All returns every scenario in a stable order.
func All() []Scenario {
	return []Scenario{
		ScenarioQuickClassification,
		ScenarioSummarization,
		ScenarioDeepInsight,
		ScenarioPhilosophical,
		ScenarioCreative,
		ScenarioComplexReasoning,
		ScenarioSearchOptimization,
		ScenarioKnowledgeLinking,
		ScenarioLiveAnalysis,
		ScenarioFileProcessing,
		ScenarioAutoTagging,
		ScenarioCategorization,
		ScenarioSentiment,
		ScenarioStrategicPlanning,
		ScenarioGeneral,
	}
}

// Valid reports whether s is a member of the closed enumeration.
func (s Scenario) Valid() bool {
	for _, known := range All() {
		if s == known {
			return true
		}
	}
	return false
}

// DemandsQuality reports whether the scenario is one where answer depth
// matters more than latency. Used by the adaptive selection strategy.
func (s Scenario) DemandsQuality() bool {
	switch s {
	case ScenarioComplexReasoning, ScenarioPhilosophical, ScenarioDeepInsight, ScenarioStrategicPlanning:
		return true
	}
	return false
}

// DemandsSpeed reports whether the scenario is latency-sensitive.
func (s Scenario) DemandsSpeed() bool {
	switch s {
	case ScenarioLiveAnalysis, ScenarioQuickClassification:
		return true
	}
	return false
}

// WorthEnsemble reports whether multi-source corroboration is worth the
// extra backend calls for this scenario.
func (s Scenario) WorthEnsemble() bool {
	switch s {
	case ScenarioDeepInsight, ScenarioPhilosophical, ScenarioComplexReasoning, ScenarioStrategicPlanning:
		return true
	}
	return false
}
