// Copyright 2026 The mindrouter Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package orchestrator

import (
	"strings"
	"time"
	"unicode/utf8"

	"github.com/thinkmate/mindrouter/internal/scenario"
	"github.com/thinkmate/mindrouter/internal/selector"
)

// QuickResult is the synchronous, backend-free analysis answer for
// latency-sensitive callers such as typing feedback. ProviderID names
// the backend deep processing would use; no call is made.
type QuickResult struct {
	Scenario   scenario.Scenario `json:"scenario"`
	ProviderID string            `json:"provider_id,omitempty"`
	Confidence float64           `json:"confidence"`
	Suggestion string            `json:"suggestion,omitempty"`
	Cached     bool              `json:"cached,omitempty"`
}

// QuickAnalysis classifies text without any backend call. Results are
// served from the LRU cache when the same text repeats within the TTL.
func (o *Orchestrator) QuickAnalysis(text string) QuickResult {
	if o.quick != nil {
		if hit := o.quick.Lookup(text); hit != nil {
			return QuickResult{
				Scenario:   scenario.Scenario(hit.Scenario),
				ProviderID: hit.Provider,
				Confidence: hit.Confidence,
				Suggestion: hit.Suggestion,
				Cached:     true,
			}
		}
	}

	detection := o.detector.DetectQuick(text)
	confidence := quickConfidence(text, detection, o.detector)
	suggestion := quickSuggestion(detection.Scenario)
	providerID := o.quickProvider(text, detection.Scenario)

	if o.quick != nil {
		o.quick.Store(text, string(detection.Scenario), providerID, confidence, suggestion)
	}

	return QuickResult{
		Scenario:   detection.Scenario,
		ProviderID: providerID,
		Confidence: confidence,
		Suggestion: suggestion,
	}
}

// quickProvider names the backend a deep pass would start with. Quick
// callers are latency-sensitive, so the pick is speed-first.
func (o *Orchestrator) quickProvider(text string, sc scenario.Scenario) string {
	if o.selector == nil {
		return ""
	}
	qctx := scenario.NewContext(text, nil, scenario.DefaultPreferences(), scenario.Session{}, time.Now())
	caps := o.selector.SelectOptimalProviders(sc, qctx, selector.StrategySpeedFirst)
	if len(caps) == 0 {
		return ""
	}
	return caps[0].ProviderID
}

// quickConfidence blends the detector's score with a text-length factor
// and the pattern density for the detected scenario. Without a backend
// result this heuristic is all the confidence signal there is.
func quickConfidence(text string, d scenario.Detection, det *scenario.Detector) float64 {
	runes := utf8.RuneCountInString(strings.TrimSpace(text))

	lengthFactor := 0.3
	switch {
	case runes >= 80:
		lengthFactor = 1.0
	case runes >= 20:
		lengthFactor = 0.7
	case runes >= 8:
		lengthFactor = 0.5
	}

	density := det.PatternDensity(text, d.Scenario)
	return clamp01(0.5*d.Confidence + 0.3*lengthFactor + 0.2*density)
}

// quickSuggestion is a short hint about what deeper processing would do
// with the text.
func quickSuggestion(s scenario.Scenario) string {
	switch s {
	case scenario.ScenarioSummarization:
		return "Looks like a recap; a summary pass would condense it."
	case scenario.ScenarioStrategicPlanning:
		return "Planning content detected; deep analysis can map goals to steps."
	case scenario.ScenarioComplexReasoning:
		return "Reasoning question detected; a quality-first pass is recommended."
	case scenario.ScenarioPhilosophical:
		return "Reflective content detected; consider a deep-insight pass."
	case scenario.ScenarioDeepInsight:
		return "Rich material; an ensemble pass could surface cross-cutting themes."
	case scenario.ScenarioCreative:
		return "Creative fragment detected; idea expansion is available."
	case scenario.ScenarioSentiment:
		return "Emotional tone detected; sentiment tracking applies."
	case scenario.ScenarioAutoTagging, scenario.ScenarioCategorization:
		return "Organizational content; auto-tagging would file this."
	case scenario.ScenarioKnowledgeLinking:
		return "Mentions related notes; linking can connect them."
	case scenario.ScenarioSearchOptimization:
		return "Looks like a lookup; search optimization applies."
	default:
		return ""
	}
}
