// Copyright 2026 The mindrouter Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package scenario

import (
	"strings"
	"unicode/utf8"
)

const (
	// confidenceThreshold is the minimum detection confidence required to
	// commit to a specialized scenario; anything weaker routes to general.
	confidenceThreshold = 0.6

	// minTextRunes guards against classifying noise-length input.
	minTextRunes = 3

	textWeight     = 0.4
	contextWeight  = 0.3
	semanticWeight = 0.2

	separationBoost = 0.3
)

// Detection is the outcome of classifying one work item.
type Detection struct {
	Scenario   Scenario `json:"scenario"`
	Confidence float64  `json:"confidence"`
}

type predicate struct {
	name string
	fn   func(*Context) bool
}

// scenarioPattern describes how one scenario is recognized: substring
// matchers on the text, predicates over the request context, and weaker
// semantic keyword indicators. The table covers both English and Chinese
// phrasing since the host capture tool is bilingual.
type scenarioPattern struct {
	scenario   Scenario
	weight     float64
	text       []string
	predicates []predicate
	semantic   []string
}

// Detector classifies text against an ordered, immutable pattern table.
// Detection is a pure function of (text, context, table): no hidden state,
// identical inputs always produce identical results.
type Detector struct {
	patterns []scenarioPattern
}

// NewDetector builds a detector with the built-in pattern table.
func NewDetector() *Detector {
	return &Detector{patterns: defaultPatterns()}
}

// Detect classifies text with full context-aware adjustment.
func (d *Detector) Detect(text string, ctx *Context) Detection {
	if utf8.RuneCountInString(strings.TrimSpace(text)) < minTextRunes {
		return Detection{Scenario: ScenarioGeneral, Confidence: 0}
	}

	scores := d.score(text, ctx)
	d.applyNudges(scores, ctx)
	return d.pick(scores)
}

// DetectQuick classifies text without context predicates or nudges. It is
// the cheaper path for latency-sensitive callers such as typing feedback.
func (d *Detector) DetectQuick(text string) Detection {
	if utf8.RuneCountInString(strings.TrimSpace(text)) < minTextRunes {
		return Detection{Scenario: ScenarioGeneral, Confidence: 0}
	}

	scores := d.score(text, nil)
	return d.pick(scores)
}

// PatternDensity reports the fraction of a scenario's text patterns that
// match the given text. Used as a confidence proxy when no backend call
// is made.
func (d *Detector) PatternDensity(text string, s Scenario) float64 {
	lower := strings.ToLower(text)
	for _, p := range d.patterns {
		if p.scenario != s {
			continue
		}
		if len(p.text) == 0 {
			return 0
		}
		matched := 0
		for _, t := range p.text {
			if strings.Contains(lower, t) {
				matched++
			}
		}
		return float64(matched) / float64(len(p.text))
	}
	return 0
}

// score computes the weighted pattern score per scenario. A nil ctx skips
// context predicates entirely (the quick path).
func (d *Detector) score(text string, ctx *Context) map[Scenario]float64 {
	lower := strings.ToLower(text)
	scores := make(map[Scenario]float64, len(d.patterns))

	for _, p := range d.patterns {
		var textHits, ctxHits, semHits float64
		for _, t := range p.text {
			if strings.Contains(lower, t) {
				textHits++
			}
		}
		if ctx != nil {
			for _, pred := range p.predicates {
				if pred.fn(ctx) {
					ctxHits++
				}
			}
		}
		for _, s := range p.semantic {
			if strings.Contains(lower, s) {
				semHits++
			}
		}

		scores[p.scenario] = (textHits*textWeight + ctxHits*contextWeight + semHits*semanticWeight) * p.weight
	}
	return scores
}

// applyNudges shifts scores by time-of-day and user preference. Morning
// hours lean toward planning and deep analysis, evenings toward review
// and reflection; explicit speed or quality bias pulls the matching
// scenarios upward.
func (d *Detector) applyNudges(scores map[Scenario]float64, ctx *Context) {
	const nudge = 0.1

	switch ctx.Bucket {
	case BucketMorning:
		scores[ScenarioStrategicPlanning] += nudge
		scores[ScenarioDeepInsight] += nudge
	case BucketEvening:
		scores[ScenarioSummarization] += nudge
		scores[ScenarioPhilosophical] += nudge
	}

	switch ctx.Prefs.Bias {
	case BiasSpeed:
		scores[ScenarioQuickClassification] += nudge
		scores[ScenarioLiveAnalysis] += nudge
	case BiasQuality:
		scores[ScenarioDeepInsight] += nudge
		scores[ScenarioPhilosophical] += nudge
	}
}

// pick selects the argmax scenario with confidence
// best + 0.3×(best−second), clamped to 1.0. Ties resolve to the earlier
// table entry so classification stays deterministic. Weak signal falls
// back to general.
func (d *Detector) pick(scores map[Scenario]float64) Detection {
	var best, second float64
	bestScenario := ScenarioGeneral

	for _, p := range d.patterns {
		score := scores[p.scenario]
		if score > best {
			second = best
			best = score
			bestScenario = p.scenario
		} else if score > second {
			second = score
		}
	}

	confidence := best + separationBoost*(best-second)
	if confidence > 1.0 {
		confidence = 1.0
	}

	if confidence < confidenceThreshold {
		return Detection{Scenario: ScenarioGeneral, Confidence: confidence}
	}
	return Detection{Scenario: bestScenario, Confidence: confidence}
}

func historyAtLeast(n int) predicate {
	return predicate{
		name: "history_window",
		fn:   func(ctx *Context) bool { return len(ctx.RecentHistory) >= n },
	}
}

func defaultPatterns() []scenarioPattern {
	return []scenarioPattern{
		{
			scenario: ScenarioStrategicPlanning,
			weight:   1.0,
			text:     []string{"计划", "plan", "目标", "goal", "执行", "安排", "打算", "规划", "roadmap"},
			semantic: []string{"下一步", "next step", "milestone", "优先", "priority", "deadline"},
		},
		{
			scenario: ScenarioComplexReasoning,
			weight:   1.0,
			text:     []string{"为什么", "why", "如何", "how can", "原因", "解释", "explain"},
			semantic: []string{"因为", "because", "逻辑", "logic", "推理", "therefore"},
		},
		{
			scenario: ScenarioDeepInsight,
			weight:   1.0,
			text:     []string{"深入", "insight", "本质", "深度", "underlying", "洞察"},
			semantic: []string{"模式", "pattern", "trend", "规律"},
			predicates: []predicate{{
				name: "long_form",
				fn:   func(ctx *Context) bool { return utf8.RuneCountInString(ctx.Content) > 200 },
			}},
		},
		{
			scenario: ScenarioSummarization,
			weight:   1.0,
			text:     []string{"总结", "summarize", "summary", "概括", "归纳", "回顾"},
			semantic: []string{"要点", "key points", "overview", "盘点"},
			predicates: []predicate{
				historyAtLeast(5),
			},
		},
		{
			scenario: ScenarioPhilosophical,
			weight:   1.0,
			text:     []string{"意义", "meaning of", "哲学", "人生", "存在", "why do we", "价值观"},
			semantic: []string{"思考", "reflect", "believe", "信念"},
		},
		{
			scenario: ScenarioCreative,
			weight:   1.0,
			text:     []string{"创意", "brainstorm", "idea", "灵感", "想象"},
			semantic: []string{"novel", "有趣", "脑洞", "what if"},
		},
		{
			scenario: ScenarioSentiment,
			weight:   1.0,
			text:     []string{"心情", "感觉", "feel", "情绪", "mood"},
			semantic: []string{"开心", "难过", "焦虑", "anxious", "happy", "sad"},
		},
		{
			scenario: ScenarioKnowledgeLinking,
			weight:   0.9,
			text:     []string{"相关", "related", "联系", "connect", "类似"},
			semantic: []string{"之前", "previous", "earlier", "上次"},
			predicates: []predicate{
				historyAtLeast(3),
			},
		},
		{
			scenario: ScenarioSearchOptimization,
			weight:   0.9,
			text:     []string{"搜索", "search", "查找", "find me", "哪里"},
			semantic: []string{"关键词", "keyword", "filter"},
		},
		{
			scenario: ScenarioFileProcessing,
			weight:   0.9,
			text:     []string{"文件", "file", "附件", "attachment", "图片", "image", "pdf"},
			semantic: []string{"上传", "upload", "扫描", "scan", "ocr"},
		},
		{
			scenario: ScenarioAutoTagging,
			weight:   0.9,
			text:     []string{"标签", "tag", "打标"},
			semantic: []string{"标记", "label"},
		},
		{
			scenario: ScenarioCategorization,
			weight:   0.9,
			text:     []string{"分类", "categorize", "归类", "category"},
			semantic: []string{"整理", "organize"},
		},
		{
			scenario: ScenarioQuickClassification,
			weight:   0.8,
			text:     []string{"什么是", "what is", "快速", "quick"},
			semantic: []string{"简单", "briefly"},
		},
		{
			scenario: ScenarioLiveAnalysis,
			weight:   0.8,
			text:     []string{"正在", "right now", "实时", "live"},
			predicates: []predicate{{
				name: "active_session_short_text",
				fn: func(ctx *Context) bool {
					return ctx.Session.Processed > 0 && utf8.RuneCountInString(ctx.Content) < 80
				},
			}},
		},
	}
}
