// Copyright 2026 The mindrouter Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package provider

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/tidwall/sjson"
)

// RESTJSONAnalyzer adapts an arbitrary HTTP JSON analysis service. The
// request body is assembled with sjson, the response mapped through
// ParseAnalysisJSON, so wiring a new backend is configuration, not code.
type RESTJSONAnalyzer struct {
	id       string
	endpoint string
	apiKey   string
	client   *http.Client
}

func NewRESTJSONAnalyzer(id, endpoint, apiKey string) (*RESTJSONAnalyzer, error) {
	if id == "" {
		return nil, fmt.Errorf("rest analyzer: id is required")
	}
	if endpoint == "" {
		return nil, fmt.Errorf("rest analyzer %s: endpoint is required", id)
	}
	return &RESTJSONAnalyzer{
		id:       id,
		endpoint: endpoint,
		apiKey:   apiKey,
		client:   &http.Client{Timeout: 60 * time.Second},
	}, nil
}

func (a *RESTJSONAnalyzer) ID() string { return a.id }

func (a *RESTJSONAnalyzer) Analyze(ctx context.Context, content string, recentContext []string) (*AnalysisResult, error) {
	body, err := a.buildBody(content, recentContext)
	if err != nil {
		return nil, &CallError{ProviderID: a.id, Message: fmt.Sprintf("build request: %v", err)}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.endpoint, strings.NewReader(body))
	if err != nil {
		return nil, &CallError{ProviderID: a.id, Message: err.Error()}
	}
	req.Header.Set("Content-Type", "application/json")
	if a.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+a.apiKey)
	}

	resp, err := a.client.Do(req)
	if err != nil {
		return nil, &CallError{ProviderID: a.id, Message: err.Error(), Retryable: true}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, &CallError{ProviderID: a.id, Message: fmt.Sprintf("read response: %v", err), Retryable: true}
	}
	if resp.StatusCode != http.StatusOK {
		return nil, &CallError{
			ProviderID: a.id,
			StatusCode: resp.StatusCode,
			Message:    strings.TrimSpace(string(raw)),
		}
	}

	result := ParseAnalysisJSON(string(raw))
	if !result.Usable() {
		return nil, &CallError{ProviderID: a.id, Message: "response carried no analysis fields"}
	}
	return result, nil
}

func (a *RESTJSONAnalyzer) buildBody(content string, recentContext []string) (string, error) {
	body, err := sjson.Set("{}", "content", content)
	if err != nil {
		return "", err
	}
	if len(recentContext) > 0 {
		body, err = sjson.Set(body, "recent_context", recentContext)
		if err != nil {
			return "", err
		}
	}
	return body, nil
}
