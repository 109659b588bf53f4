// Copyright 2026 The mindrouter Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package executor turns a classified work item plus its selected
// providers into per-provider backend calls, tracking a step state
// machine. A single provider failure never aborts the task; each step is
// isolated and the survivors feed result synthesis.
package executor

import (
	"sync"
	"time"

	"github.com/thinkmate/mindrouter/internal/provider"
	"github.com/thinkmate/mindrouter/internal/scenario"
)

// Priority orders tasks for callers; the engine itself treats it as
// metadata plus an ensemble hint.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
	PriorityUrgent Priority = "urgent"
)

// State is the task lifecycle position.
type State string

const (
	StateCreated      State = "created"
	StateDetecting    State = "detecting"
	StateSelecting    State = "selecting"
	StateExecuting    State = "executing"
	StateSynthesizing State = "synthesizing"
	StateCompleted    State = "completed"
	StateFailed       State = "failed"
)

// StepStatus is the lifecycle of one ProcessingStep.
type StepStatus string

const (
	StepPending   StepStatus = "pending"
	StepRunning   StepStatus = "running"
	StepCompleted StepStatus = "completed"
	StepFailed    StepStatus = "failed"
)

// Task is one unit of work flowing through the pipeline. Created when a
// request enters the orchestrator, discarded once its result is recorded.
type Task struct {
	ID           string            `json:"id"`
	Scenario     scenario.Scenario `json:"scenario"`
	Content      string            `json:"content"`
	Context      *scenario.Context `json:"-"`
	Priority     Priority          `json:"priority"`
	RequiredTags []string          `json:"required_tags,omitempty"`
	CreatedAt    time.Time         `json:"created_at"`
}

// ProcessingStep is the externally observable progress unit: one step per
// selected provider, plus a terminal synthesis step for multi-provider
// tasks. Steps are mutated in place as execution proceeds.
type ProcessingStep struct {
	Name       string                   `json:"name"`
	ProviderID string                   `json:"provider_id,omitempty"`
	Status     StepStatus               `json:"status"`
	StartedAt  time.Time                `json:"started_at,omitempty"`
	FinishedAt time.Time                `json:"finished_at,omitempty"`
	Result     *provider.AnalysisResult `json:"result,omitempty"`
	Error      string                   `json:"error,omitempty"`
}

// TaskResult is the recorded outcome of one provider call. Immutable once
// recorded; Result is nil when the call errored.
type TaskResult struct {
	ProviderID   string                   `json:"provider_id"`
	Scenario     scenario.Scenario        `json:"scenario"`
	Result       *provider.AnalysisResult `json:"result,omitempty"`
	Confidence   float64                  `json:"confidence"`
	ResponseTime time.Duration            `json:"response_time"`
	Error        string                   `json:"error,omitempty"`

	// Skipped marks a step that was never dispatched because the task
	// was already cancelled. The provider did nothing wrong, so skipped
	// results must not feed reliability tracking.
	Skipped bool `json:"skipped,omitempty"`
}

// Usable reports whether the result carries analysis worth synthesizing.
func (r TaskResult) Usable() bool {
	return r.Error == "" && r.Result.Usable()
}

// WorkStatus is the read-side progress snapshot for one task. Execution
// holds the only write path; progress UIs poll Snapshot concurrently.
type WorkStatus struct {
	mu      sync.RWMutex
	TaskID  string
	state   State
	steps   []*ProcessingStep
	Started time.Time
}

func NewWorkStatus(taskID string) *WorkStatus {
	return &WorkStatus{
		TaskID:  taskID,
		state:   StateCreated,
		Started: time.Now(),
	}
}

// SetState advances the task state machine.
func (w *WorkStatus) SetState(s State) {
	w.mu.Lock()
	w.state = s
	w.mu.Unlock()
}

func (w *WorkStatus) State() State {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.state
}

// AddStep appends a pending step and returns it. Step mutation after this
// point must go through the mutate helper.
func (w *WorkStatus) AddStep(name, providerID string) *ProcessingStep {
	step := &ProcessingStep{
		Name:       name,
		ProviderID: providerID,
		Status:     StepPending,
	}
	w.mu.Lock()
	w.steps = append(w.steps, step)
	w.mu.Unlock()
	return step
}

// Mutate updates a step under the status lock so snapshots never observe
// a half-written step.
func (w *WorkStatus) Mutate(step *ProcessingStep, fn func(*ProcessingStep)) {
	w.mu.Lock()
	fn(step)
	w.mu.Unlock()
}

// StatusSnapshot is the poll-based progress view handed to callers.
type StatusSnapshot struct {
	TaskID  string           `json:"task_id"`
	State   State            `json:"state"`
	Started time.Time        `json:"started"`
	Steps   []ProcessingStep `json:"steps"`
}

// Snapshot returns a consistent copy of the current progress.
func (w *WorkStatus) Snapshot() StatusSnapshot {
	w.mu.RLock()
	defer w.mu.RUnlock()

	snap := StatusSnapshot{
		TaskID:  w.TaskID,
		State:   w.state,
		Started: w.Started,
		Steps:   make([]ProcessingStep, len(w.steps)),
	}
	for i, s := range w.steps {
		snap.Steps[i] = *s
	}
	return snap
}
