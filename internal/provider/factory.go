package provider

import (
	"fmt"
	"strings"
)

// FromConfig builds the adapter matching a configured backend kind.
func FromConfig(id, kind, model, apiKey, baseURL string) (Analyzer, error) {
	switch strings.ToLower(kind) {
	case "openai":
		return NewOpenAIAnalyzer(id, model, apiKey, baseURL)
	case "anthropic":
		return NewAnthropicAnalyzer(id, model, apiKey)
	case "rest":
		return NewRESTJSONAnalyzer(id, baseURL, apiKey)
	case "local":
		return NewLocal(id), nil
	default:
		return nil, fmt.Errorf("unknown provider kind: %s", kind)
	}
}
