// Copyright 2026 The mindrouter Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package executor

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thinkmate/mindrouter/internal/provider"
	"github.com/thinkmate/mindrouter/internal/registry"
	"github.com/thinkmate/mindrouter/internal/scenario"
)

func newTask() *Task {
	return &Task{
		ID:       "task-1",
		Scenario: scenario.ScenarioSummarization,
		Content:  "summarize my week",
		Context:  scenario.NewContext("summarize my week", nil, scenario.DefaultPreferences(), scenario.Session{}, time.Now()),
		Priority: PriorityMedium,
	}
}

func capFor(id string) registry.Capability {
	return registry.Capability{
		Scenario:    scenario.ScenarioSummarization,
		ProviderID:  id,
		Speed:       registry.SpeedFast,
		Quality:     registry.QualityGood,
		Cost:        registry.CostLow,
		Reliability: 0.8,
	}
}

func TestExecuteTaskHappyPath(t *testing.T) {
	providers := provider.NewRegistry()
	mock := provider.NewMockAnalyzer("alpha")
	require.NoError(t, providers.Register(mock))

	exec := New(providers, nil, time.Second)
	status := NewWorkStatus("task-1")

	results := exec.ExecuteTask(context.Background(), newTask(), []registry.Capability{capFor("alpha")}, status)

	require.Len(t, results, 1)
	assert.Empty(t, results[0].Error)
	assert.Equal(t, 0.8, results[0].Confidence)
	assert.Equal(t, 1, mock.Calls())

	snap := status.Snapshot()
	require.Len(t, snap.Steps, 1)
	assert.Equal(t, StepCompleted, snap.Steps[0].Status)
}

func TestExecuteTaskPartialFailureContinues(t *testing.T) {
	providers := provider.NewRegistry()
	bad := provider.NewMockAnalyzer("bad")
	bad.Err = errors.New("backend unavailable")
	good := provider.NewMockAnalyzer("good")
	require.NoError(t, providers.Register(bad))
	require.NoError(t, providers.Register(good))

	exec := New(providers, nil, time.Second)
	status := NewWorkStatus("task-1")

	results := exec.ExecuteTask(context.Background(), newTask(),
		[]registry.Capability{capFor("bad"), capFor("good")}, status)

	require.Len(t, results, 2)
	assert.NotEmpty(t, results[0].Error)
	assert.Empty(t, results[1].Error)
	assert.Equal(t, 1, good.Calls(), "second provider must still run")

	snap := status.Snapshot()
	require.Len(t, snap.Steps, 2)
	assert.Equal(t, StepFailed, snap.Steps[0].Status)
	assert.Equal(t, StepCompleted, snap.Steps[1].Status)
}

func TestExecuteTaskUnknownProvider(t *testing.T) {
	exec := New(provider.NewRegistry(), nil, time.Second)
	status := NewWorkStatus("task-1")

	results := exec.ExecuteTask(context.Background(), newTask(), []registry.Capability{capFor("ghost")}, status)

	require.Len(t, results, 1)
	assert.NotEmpty(t, results[0].Error)
}

func TestExecuteTaskCallTimeout(t *testing.T) {
	providers := provider.NewRegistry()
	slow := provider.NewMockAnalyzer("slow")
	slow.Latency = 200 * time.Millisecond
	require.NoError(t, providers.Register(slow))

	exec := New(providers, nil, 20*time.Millisecond)
	status := NewWorkStatus("task-1")

	results := exec.ExecuteTask(context.Background(), newTask(), []registry.Capability{capFor("slow")}, status)

	require.Len(t, results, 1)
	assert.NotEmpty(t, results[0].Error)
	assert.Equal(t, StepFailed, status.Snapshot().Steps[0].Status)
}

func TestExecuteTaskCancelledContextSkipsRemaining(t *testing.T) {
	providers := provider.NewRegistry()
	mock := provider.NewMockAnalyzer("alpha")
	require.NoError(t, providers.Register(mock))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	exec := New(providers, nil, time.Second)
	status := NewWorkStatus("task-1")

	results := exec.ExecuteTask(ctx, newTask(), []registry.Capability{capFor("alpha"), capFor("alpha")}, status)

	require.Len(t, results, 2)
	for _, r := range results {
		assert.NotEmpty(t, r.Error)
		assert.True(t, r.Skipped, "never-dispatched steps must be marked skipped")
	}
	assert.Equal(t, 0, mock.Calls())
}

func TestConfidenceFallsBackToReliability(t *testing.T) {
	providers := provider.NewRegistry()
	mock := provider.NewMockAnalyzer("alpha")
	mock.Result.Confidence = 0
	require.NoError(t, providers.Register(mock))

	exec := New(providers, nil, time.Second)
	status := NewWorkStatus("task-1")

	results := exec.ExecuteTask(context.Background(), newTask(), []registry.Capability{capFor("alpha")}, status)

	require.Len(t, results, 1)
	assert.Equal(t, 0.8, results[0].Confidence)
}

func TestWorkStatusSnapshotIsIsolated(t *testing.T) {
	status := NewWorkStatus("task-1")
	step := status.AddStep("alpha", "alpha")

	snap := status.Snapshot()
	require.Len(t, snap.Steps, 1)

	status.Mutate(step, func(s *ProcessingStep) { s.Status = StepCompleted })
	assert.Equal(t, StepPending, snap.Steps[0].Status, "snapshot must not track later mutation")
}
