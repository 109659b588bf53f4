// Copyright 2026 The mindrouter Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package provider

import (
	"context"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"
)

// LocalAnalyzer is a heuristic backend that needs no network access. It
// backs the default provider when nothing else is configured and keeps
// the engine usable offline. Output quality is deliberately modest.
type LocalAnalyzer struct {
	id string
}

func NewLocal(id string) *LocalAnalyzer {
	if id == "" {
		id = "local"
	}
	return &LocalAnalyzer{id: id}
}

func (a *LocalAnalyzer) ID() string { return a.id }

func (a *LocalAnalyzer) Analyze(ctx context.Context, content string, recentContext []string) (*AnalysisResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	result := &AnalysisResult{
		Classification: classifyLocal(content),
		Sentiment:      sentimentLocal(content),
		Themes:         topWords(content, 5),
		Confidence:     0.4,
	}
	if result.Classification != "" {
		result.Insights = []string{"Heuristic classification: " + result.Classification}
	}
	return result, nil
}

func classifyLocal(content string) string {
	lower := strings.ToLower(content)
	switch {
	case strings.Contains(lower, "?") || strings.Contains(lower, "？"):
		return "question"
	case strings.Contains(lower, "todo") || strings.Contains(lower, "计划"):
		return "task"
	case utf8.RuneCountInString(content) > 200:
		return "long_form"
	default:
		return "note"
	}
}

func sentimentLocal(content string) Sentiment {
	lower := strings.ToLower(content)
	positive := []string{"good", "great", "love", "happy", "开心", "喜欢", "顺利"}
	negative := []string{"bad", "hate", "sad", "stuck", "难过", "焦虑", "失败"}

	score := 0
	for _, w := range positive {
		if strings.Contains(lower, w) {
			score++
		}
	}
	for _, w := range negative {
		if strings.Contains(lower, w) {
			score--
		}
	}

	switch {
	case score > 0:
		return Sentiment{Polarity: "positive", Intensity: 0.5}
	case score < 0:
		return Sentiment{Polarity: "negative", Intensity: 0.5}
	default:
		return Sentiment{Polarity: "neutral", Intensity: 0.2}
	}
}

// topWords returns the most frequent words of at least four runes,
// longest-count first. Crude, but good enough for offline theming.
func topWords(content string, n int) []string {
	counts := make(map[string]int)
	words := strings.FieldsFunc(strings.ToLower(content), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r)
	})
	for _, w := range words {
		if utf8.RuneCountInString(w) >= 4 {
			counts[w]++
		}
	}

	unique := make([]string, 0, len(counts))
	for w := range counts {
		unique = append(unique, w)
	}
	sort.Slice(unique, func(i, j int) bool {
		if counts[unique[i]] != counts[unique[j]] {
			return counts[unique[i]] > counts[unique[j]]
		}
		return unique[i] < unique[j]
	})

	if len(unique) > n {
		unique = unique[:n]
	}
	return unique
}
