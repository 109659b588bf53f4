package provider

import (
	"strings"
)

// analysisPrompt builds the instruction sent to LLM-backed analyzers. The
// backend is asked for a strict JSON object so the adapter can normalize
// the response without backend-specific parsing rules.
func analysisPrompt(content string, recentContext []string) string {
	var sb strings.Builder
	sb.WriteString("You analyze a single free-text thought from a personal note-taking tool.\n")
	sb.WriteString("Respond with ONLY a JSON object, no prose, using this shape:\n")
	sb.WriteString(`{"classification": "<short label>", "sentiment": {"polarity": "positive|negative|neutral|mixed", "intensity": 0.0}, "themes": [], "insights": [], "stuck_warning": "", "suggestions": [], "confidence": 0.0}`)
	sb.WriteString("\n\n")
	if len(recentContext) > 0 {
		sb.WriteString("Recent thoughts for context (oldest first):\n")
		for _, item := range recentContext {
			sb.WriteString("- ")
			sb.WriteString(item)
			sb.WriteString("\n")
		}
		sb.WriteString("\n")
	}
	sb.WriteString("Thought to analyze:\n")
	sb.WriteString(content)
	return sb.String()
}
