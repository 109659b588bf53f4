// Copyright 2026 The mindrouter Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package provider defines the narrow capability interface the engine
// consumes from every analysis backend, plus the adapters that map each
// backend's response shape into one normalized AnalysisResult. The
// orchestration core never branches on a specific backend's schema.
package provider

import (
	"strings"

	"github.com/tidwall/gjson"
)

// Sentiment carries a normalized polarity and intensity for a text unit.
// Polarity is one of "positive", "negative", "neutral", "mixed".
// Intensity is in [0,1].
type Sentiment struct {
	Polarity  string  `json:"polarity"`
	Intensity float64 `json:"intensity"`
}

// AnalysisResult is the single normalized shape every backend adapter
// produces. Fields the backend does not supply stay zero-valued.
type AnalysisResult struct {
	// Classification is the backend's own pattern/category label for the text.
	Classification string `json:"classification"`

	Sentiment Sentiment `json:"sentiment"`

	// Themes are recurring topics the backend saw in the text.
	Themes []string `json:"themes,omitempty"`

	// Insights are the backend's analysis statements, most important first.
	Insights []string `json:"insights,omitempty"`

	// StuckWarning is set when the backend judged the thinking circular
	// or stuck. Empty means no warning.
	StuckWarning string `json:"stuck_warning,omitempty"`

	// Suggestions are actionable follow-ups proposed by the backend.
	Suggestions []string `json:"suggestions,omitempty"`

	// Confidence is the backend's own confidence in its analysis, when
	// reported. Zero means the backend did not report one.
	Confidence float64 `json:"confidence,omitempty"`
}

// ParseAnalysisJSON maps a loosely-typed JSON document into an
// AnalysisResult. Backends differ in field naming; this accepts the common
// variants so adapters stay small. Unknown or missing fields are left
// zero-valued rather than treated as errors.
func ParseAnalysisJSON(raw string) *AnalysisResult {
	result := &AnalysisResult{}

	doc := gjson.Parse(raw)
	if !doc.IsObject() {
		// Some backends wrap JSON in markdown fences.
		if stripped := stripJSONFences(raw); stripped != raw {
			doc = gjson.Parse(stripped)
		}
	}
	if !doc.IsObject() {
		return result
	}

	result.Classification = firstString(doc, "classification", "pattern", "category")
	result.StuckWarning = firstString(doc, "stuck_warning", "stuckWarning", "warning")

	result.Sentiment.Polarity = firstString(doc, "sentiment.polarity", "sentiment", "polarity")
	if v := first(doc, "sentiment.intensity", "intensity"); v.Exists() {
		result.Sentiment.Intensity = clamp01(v.Float())
	}
	if v := first(doc, "confidence", "score"); v.Exists() {
		result.Confidence = clamp01(v.Float())
	}

	result.Themes = stringList(first(doc, "themes", "topics"))
	result.Insights = stringList(first(doc, "insights", "analysis", "observations"))
	result.Suggestions = stringList(first(doc, "suggestions", "actions", "advice"))

	return result
}

// Usable reports whether the result carries any analysis content at all.
func (r *AnalysisResult) Usable() bool {
	if r == nil {
		return false
	}
	return r.Classification != "" || len(r.Insights) > 0 ||
		len(r.Themes) > 0 || len(r.Suggestions) > 0
}

func first(doc gjson.Result, paths ...string) gjson.Result {
	for _, p := range paths {
		if v := doc.Get(p); v.Exists() {
			return v
		}
	}
	return gjson.Result{}
}

func firstString(doc gjson.Result, paths ...string) string {
	v := first(doc, paths...)
	if v.Type == gjson.String {
		return v.String()
	}
	return ""
}

func stringList(v gjson.Result) []string {
	if !v.Exists() {
		return nil
	}
	if v.Type == gjson.String {
		if s := strings.TrimSpace(v.String()); s != "" {
			return []string{s}
		}
		return nil
	}
	var out []string
	for _, item := range v.Array() {
		if s := strings.TrimSpace(item.String()); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func stripJSONFences(raw string) string {
	s := strings.TrimSpace(raw)
	if idx := strings.Index(s, "```"); idx >= 0 {
		s = s[idx+3:]
		s = strings.TrimPrefix(s, "json")
		if end := strings.Index(s, "```"); end >= 0 {
			s = s[:end]
		}
	}
	return strings.TrimSpace(s)
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
