package provider

import (
	"context"
	"sync"
	"time"
)

// MockAnalyzer returns canned results for tests and local runs.
type MockAnalyzer struct {
	id      string
	mu      sync.Mutex
	calls   int
	Result  *AnalysisResult
	Err     error
	Latency time.Duration
}

func NewMockAnalyzer(id string) *MockAnalyzer {
	return &MockAnalyzer{
		id: id,
		Result: &AnalysisResult{
			Classification: "observation",
			Sentiment:      Sentiment{Polarity: "neutral", Intensity: 0.2},
			Insights:       []string{"mock insight from " + id},
			Suggestions:    []string{"mock suggestion"},
			Confidence:     0.8,
		},
	}
}

func (m *MockAnalyzer) ID() string { return m.id }

func (m *MockAnalyzer) Analyze(ctx context.Context, content string, recentContext []string) (*AnalysisResult, error) {
	m.mu.Lock()
	m.calls++
	m.mu.Unlock()

	if m.Latency > 0 {
		select {
		case <-time.After(m.Latency):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if m.Err != nil {
		return nil, m.Err
	}
	return m.Result, nil
}

// Calls returns how many times Analyze was invoked.
func (m *MockAnalyzer) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}
