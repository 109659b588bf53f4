// Copyright 2026 The mindrouter Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package synthesizer merges possibly-divergent provider outputs for one
// work item into a single coherent insight. The single-result case passes
// through untouched; the zero-result case yields a well-formed degraded
// insight instead of an error.
package synthesizer

import (
	"fmt"

	"github.com/thinkmate/mindrouter/internal/executor"
	"github.com/thinkmate/mindrouter/internal/scenario"
)

const (
	maxSupporting = 3
	maxThemes     = 5
	maxActions    = 3
)

// Insight is the synthesized outcome of a task. Derived once, never
// mutated afterwards.
type Insight struct {
	Primary    string            `json:"primary"`
	Supporting []string          `json:"supporting,omitempty"`
	Confidence float64           `json:"confidence"`
	Sources    []string          `json:"sources,omitempty"`
	Actions    []string          `json:"actions,omitempty"`
	Themes     []string          `json:"themes,omitempty"`
	Scenario   scenario.Scenario `json:"scenario"`
	Degraded   bool              `json:"degraded,omitempty"`
}

// Synthesize merges the usable results for a scenario into one Insight.
func Synthesize(results []executor.TaskResult, sc scenario.Scenario) *Insight {
	usable := make([]executor.TaskResult, 0, len(results))
	for _, r := range results {
		if r.Usable() {
			usable = append(usable, r)
		}
	}

	switch len(usable) {
	case 0:
		return degraded(sc)
	case 1:
		return passThrough(usable[0], sc)
	default:
		return merge(usable, sc)
	}
}

// degraded is returned when every provider call failed. The advice is
// generic recovery guidance for a human operator, never meant for
// programmatic parsing.
func degraded(sc scenario.Scenario) *Insight {
	return &Insight{
		Primary:    "Analysis is temporarily unavailable: no provider returned a usable result.",
		Confidence: 0,
		Scenario:   sc,
		Degraded:   true,
		Actions: []string{
			"Check backend connectivity and API credentials.",
			"Retry in a few moments.",
			"Review provider reliability in the stats endpoint.",
		},
	}
}

// passThrough forwards a single result without synthesis overhead.
func passThrough(r executor.TaskResult, sc scenario.Scenario) *Insight {
	insight := &Insight{
		Confidence: r.Confidence,
		Sources:    []string{r.ProviderID},
		Scenario:   sc,
		Themes:     r.Result.Themes,
		Actions:    r.Result.Suggestions,
	}
	if len(r.Result.Insights) > 0 {
		insight.Primary = r.Result.Insights[0]
		if len(r.Result.Insights) > 1 {
			insight.Supporting = r.Result.Insights[1:]
		}
	} else {
		insight.Primary = fmt.Sprintf("Classified as %s.", r.Result.Classification)
	}
	return insight
}

// merge concatenates all lists, de-duplicates preserving first-seen
// order, promotes the first insight to primary, and averages confidence
// across the contributing results.
func merge(usable []executor.TaskResult, sc scenario.Scenario) *Insight {
	var insights, themes, actions, sources []string
	var confidenceSum float64

	for _, r := range usable {
		insights = append(insights, r.Result.Insights...)
		themes = append(themes, r.Result.Themes...)
		actions = append(actions, r.Result.Suggestions...)
		sources = append(sources, r.ProviderID)
		confidenceSum += r.Confidence
	}

	insights = dedupe(insights)
	themes = dedupe(themes)
	actions = dedupe(actions)

	out := &Insight{
		Confidence: confidenceSum / float64(len(usable)),
		Sources:    sources,
		Scenario:   sc,
	}

	if len(insights) > 0 {
		out.Primary = insights[0]
		rest := insights[1:]
		if len(rest) > maxSupporting {
			rest = rest[:maxSupporting]
		}
		out.Supporting = rest
	} else {
		out.Primary = fmt.Sprintf("Multiple providers classified this as %s.", usable[0].Result.Classification)
	}

	if len(themes) > maxThemes {
		themes = themes[:maxThemes]
	}
	if len(actions) > maxActions {
		actions = actions[:maxActions]
	}
	out.Themes = themes
	out.Actions = actions
	return out
}

// dedupe removes duplicates keeping first-seen order.
func dedupe(items []string) []string {
	seen := make(map[string]struct{}, len(items))
	out := items[:0]
	for _, item := range items {
		if _, dup := seen[item]; dup {
			continue
		}
		seen[item] = struct{}{}
		out = append(out, item)
	}
	return out
}
