// Copyright 2026 The mindrouter Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package api

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"

	"github.com/thinkmate/mindrouter/internal/cache"
	"github.com/thinkmate/mindrouter/internal/executor"
	"github.com/thinkmate/mindrouter/internal/orchestrator"
	"github.com/thinkmate/mindrouter/internal/provider"
	"github.com/thinkmate/mindrouter/internal/registry"
	"github.com/thinkmate/mindrouter/internal/scenario"
	"github.com/thinkmate/mindrouter/internal/selector"
	"github.com/thinkmate/mindrouter/internal/tracker"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newTestServer(t *testing.T) *Server {
	t.Helper()

	providers := provider.NewRegistry()
	require.NoError(t, providers.Register(provider.NewMockAnalyzer("local")))

	reg := registry.New("local")
	require.NoError(t, reg.Register(registry.Capability{
		Scenario:    scenario.ScenarioGeneral,
		ProviderID:  "local",
		Speed:       registry.SpeedFast,
		Quality:     registry.QualityGood,
		Cost:        registry.CostLow,
		Reliability: 0.9,
	}))

	trk := tracker.New(reg, 100, nil)
	orch := orchestrator.New(orchestrator.Options{
		Selector: selector.New(reg),
		Registry: reg,
		Executor: executor.New(providers, nil, time.Second),
		Tracker:  trk,
		Quick:    cache.New(16, time.Minute),
	})

	return New(orch, reg, trk, nil, cache.New(16, time.Minute), nil)
}

func do(s *Server, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	s.engine.ServeHTTP(w, req)
	return w
}

func TestHealth(t *testing.T) {
	s := newTestServer(t)
	w := do(s, http.MethodGet, "/health", "")

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ok", gjson.Get(w.Body.String(), "status").String())
}

func TestAnalyze(t *testing.T) {
	s := newTestServer(t)
	w := do(s, http.MethodPost, "/v1/analyze", `{"content":"a quick note about my day"}`)

	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.NotEmpty(t, gjson.Get(body, "task_id").String())
	assert.Equal(t, "completed", gjson.Get(body, "state").String())
	assert.Equal(t, []interface{}{"local"}, gjson.Get(body, "providers").Value())

	// The finished task stays queryable.
	taskID := gjson.Get(body, "task_id").String()
	w = do(s, http.MethodGet, "/v1/tasks/"+taskID+"/result", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, taskID, gjson.Get(w.Body.String(), "task_id").String())

	w = do(s, http.MethodGet, "/v1/tasks/"+taskID, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "completed", gjson.Get(w.Body.String(), "state").String())
}

func TestAnalyzeRequiresContent(t *testing.T) {
	s := newTestServer(t)

	w := do(s, http.MethodPost, "/v1/analyze", `{}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(s, http.MethodPost, "/v1/analyze", "not json")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAnalyzeBatch(t *testing.T) {
	s := newTestServer(t)
	w := do(s, http.MethodPost, "/v1/analyze/batch",
		`{"items":[{"content":"first note"},{"content":"second note"}]}`)

	require.Equal(t, http.StatusOK, w.Code)
	results := gjson.Get(w.Body.String(), "results")
	require.True(t, results.IsArray())
	assert.Len(t, results.Array(), 2)

	w = do(s, http.MethodPost, "/v1/analyze/batch", `{"items":[]}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestQuick(t *testing.T) {
	s := newTestServer(t)
	w := do(s, http.MethodPost, "/v1/quick",
		`{"content":"Please summarize this week's meeting notes into a short summary of key points."}`)

	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Equal(t, "summarization", gjson.Get(body, "scenario").String())
	assert.Equal(t, "local", gjson.Get(body, "provider_id").String())
	assert.Greater(t, gjson.Get(body, "confidence").Float(), 0.0)
}

func TestTaskNotFound(t *testing.T) {
	s := newTestServer(t)

	for _, path := range []string{"/v1/tasks/nope", "/v1/tasks/nope/result"} {
		w := do(s, http.MethodGet, path, "")
		assert.Equal(t, http.StatusNotFound, w.Code, path)
	}

	w := do(s, http.MethodDelete, "/v1/tasks/nope", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestStats(t *testing.T) {
	s := newTestServer(t)
	do(s, http.MethodPost, "/v1/analyze", `{"content":"a quick note about my day"}`)

	w := do(s, http.MethodGet, "/v1/stats", "")
	require.Equal(t, http.StatusOK, w.Code)

	body := w.Body.String()
	assert.Equal(t, int64(1), gjson.Get(body, "tracked_samples").Int())
	providers := gjson.Get(body, "providers").Array()
	require.NotEmpty(t, providers)
	assert.Equal(t, "local", providers[0].Get("capability.provider_id").String())
	assert.True(t, gjson.Get(body, "quick_cache").Exists())
}

func TestSteeringRulesWithoutEngine(t *testing.T) {
	s := newTestServer(t)
	w := do(s, http.MethodGet, "/v1/steering/rules", "")

	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, gjson.Get(w.Body.String(), "rules").IsArray())
}

func TestMetricsEndpoint(t *testing.T) {
	s := newTestServer(t)
	w := do(s, http.MethodGet, "/metrics", "")

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "go_goroutines")
}
