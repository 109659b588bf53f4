// Copyright 2026 The mindrouter Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package provider

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseAnalysisJSONCanonical(t *testing.T) {
	raw := `{
		"classification": "reflection",
		"sentiment": {"polarity": "positive", "intensity": 0.7},
		"themes": ["habits", "focus"],
		"insights": ["main point", "secondary point"],
		"suggestions": ["take a break"],
		"confidence": 0.85
	}`

	r := ParseAnalysisJSON(raw)

	assert.Equal(t, "reflection", r.Classification)
	assert.Equal(t, "positive", r.Sentiment.Polarity)
	assert.Equal(t, 0.7, r.Sentiment.Intensity)
	assert.Equal(t, []string{"habits", "focus"}, r.Themes)
	assert.Equal(t, []string{"main point", "secondary point"}, r.Insights)
	assert.Equal(t, []string{"take a break"}, r.Suggestions)
	assert.Equal(t, 0.85, r.Confidence)
	assert.True(t, r.Usable())
}

func TestParseAnalysisJSONFieldVariants(t *testing.T) {
	raw := `{
		"pattern": "question",
		"topics": ["work"],
		"analysis": "single analysis string",
		"actions": ["follow up"],
		"score": 0.6
	}`

	r := ParseAnalysisJSON(raw)

	assert.Equal(t, "question", r.Classification)
	assert.Equal(t, []string{"work"}, r.Themes)
	assert.Equal(t, []string{"single analysis string"}, r.Insights)
	assert.Equal(t, []string{"follow up"}, r.Suggestions)
	assert.Equal(t, 0.6, r.Confidence)
}

func TestParseAnalysisJSONMarkdownFences(t *testing.T) {
	raw := "Here is the result:\n```json\n{\"classification\": \"idea\"}\n```"

	r := ParseAnalysisJSON(raw)

	assert.Equal(t, "idea", r.Classification)
}

func TestParseAnalysisJSONGarbage(t *testing.T) {
	r := ParseAnalysisJSON("not json at all")

	assert.False(t, r.Usable())
	assert.Empty(t, r.Classification)
}

func TestParseAnalysisJSONClampsConfidence(t *testing.T) {
	r := ParseAnalysisJSON(`{"classification": "x", "confidence": 3.5}`)
	assert.Equal(t, 1.0, r.Confidence)

	r = ParseAnalysisJSON(`{"classification": "x", "confidence": -1}`)
	assert.Equal(t, 0.0, r.Confidence)
}

func TestUsableNilReceiver(t *testing.T) {
	var r *AnalysisResult
	assert.False(t, r.Usable())
	assert.False(t, (&AnalysisResult{}).Usable())
}

func TestStuckWarningVariants(t *testing.T) {
	r := ParseAnalysisJSON(`{"classification": "loop", "stuck_warning": "circling the same topic"}`)
	assert.Equal(t, "circling the same topic", r.StuckWarning)

	r = ParseAnalysisJSON(`{"classification": "loop", "warning": "stuck"}`)
	assert.Equal(t, "stuck", r.StuckWarning)
}
