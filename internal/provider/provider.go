// Copyright 2026 The mindrouter Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package provider

import (
	"context"
	"errors"
	"fmt"
)

// Analyzer is the single capability the engine consumes from a backend.
// Implementations receive the raw text unit plus a bounded window of
// recent items for context and return a normalized AnalysisResult.
// Calls must honor ctx cancellation and deadlines.
type Analyzer interface {
	ID() string
	Analyze(ctx context.Context, content string, recentContext []string) (*AnalysisResult, error)
}

// CallError describes a failed backend call with enough structure for the
// executor to classify it. Transport details stay inside the adapter.
type CallError struct {
	ProviderID string
	StatusCode int
	Message    string
	Retryable  bool
}

func (e *CallError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("provider %s: status %d: %s", e.ProviderID, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("provider %s: %s", e.ProviderID, e.Message)
}

// IsRetryable reports whether the error is worth retrying against the
// same or another backend. Timeouts and 429/5xx responses qualify.
func IsRetryable(err error) bool {
	var ce *CallError
	if errors.As(err, &ce) {
		return ce.Retryable || ce.StatusCode == 429 || ce.StatusCode >= 500
	}
	return errors.Is(err, context.DeadlineExceeded)
}
