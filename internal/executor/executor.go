// Copyright 2026 The mindrouter Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package executor

import (
	"context"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/thinkmate/mindrouter/internal/hooks"
	"github.com/thinkmate/mindrouter/internal/provider"
	"github.com/thinkmate/mindrouter/internal/registry"
)

const defaultCallTimeout = 30 * time.Second

// Executor runs the selected providers for a task sequentially, in
// selection order, against one shared step list. The provider call is the
// only blocking point; each call carries a bounded timeout so a hung
// backend cannot stall the task forever.
type Executor struct {
	providers   *provider.Registry
	bus         *hooks.EventBus
	callTimeout time.Duration
}

func New(providers *provider.Registry, bus *hooks.EventBus, callTimeout time.Duration) *Executor {
	if callTimeout <= 0 {
		callTimeout = defaultCallTimeout
	}
	return &Executor{
		providers:   providers,
		bus:         bus,
		callTimeout: callTimeout,
	}
}

// ExecuteTask calls each selected provider and records one TaskResult per
// step. Failures are isolated per step; execution always continues to the
// next provider unless the task context itself is cancelled.
func (e *Executor) ExecuteTask(ctx context.Context, task *Task, caps []registry.Capability, status *WorkStatus) []TaskResult {
	status.SetState(StateExecuting)

	results := make([]TaskResult, 0, len(caps))
	for _, cap := range caps {
		step := status.AddStep(cap.ProviderID, cap.ProviderID)

		if err := ctx.Err(); err != nil {
			status.Mutate(step, func(s *ProcessingStep) {
				s.Status = StepFailed
				s.Error = "cancelled before execution"
			})
			results = append(results, TaskResult{
				ProviderID: cap.ProviderID,
				Scenario:   task.Scenario,
				Error:      err.Error(),
				Skipped:    true,
			})
			continue
		}

		results = append(results, e.runStep(ctx, task, cap, step, status))
	}
	return results
}

func (e *Executor) runStep(ctx context.Context, task *Task, cap registry.Capability, step *ProcessingStep, status *WorkStatus) TaskResult {
	started := time.Now()
	status.Mutate(step, func(s *ProcessingStep) {
		s.Status = StepRunning
		s.StartedAt = started
	})
	e.publish(hooks.EventStepStarted, task, cap.ProviderID, nil)

	result := TaskResult{
		ProviderID: cap.ProviderID,
		Scenario:   task.Scenario,
	}

	analyzer, err := e.providers.Get(cap.ProviderID)
	if err == nil {
		callCtx, cancel := context.WithTimeout(ctx, e.callTimeout)
		var analysis *provider.AnalysisResult
		analysis, err = analyzer.Analyze(callCtx, task.Content, task.Context.RecentHistory)
		cancel()
		if err == nil {
			result.Result = analysis
			result.Confidence = analysis.Confidence
			if result.Confidence == 0 {
				// Backend reported no confidence; fall back to what we
				// know about the provider.
				result.Confidence = cap.Reliability
			}
		}
	}
	result.ResponseTime = time.Since(started)

	if err != nil {
		result.Error = err.Error()
		status.Mutate(step, func(s *ProcessingStep) {
			s.Status = StepFailed
			s.FinishedAt = time.Now()
			s.Error = result.Error
		})
		log.Warnf("Provider %s failed for task %s: %v (continuing)", cap.ProviderID, task.ID, err)
		e.publish(hooks.EventStepFailed, task, cap.ProviderID, map[string]any{"error": result.Error})
		return result
	}

	status.Mutate(step, func(s *ProcessingStep) {
		s.Status = StepCompleted
		s.FinishedAt = time.Now()
		s.Result = result.Result
	})
	e.publish(hooks.EventStepCompleted, task, cap.ProviderID, map[string]any{
		"latency_ms": result.ResponseTime.Milliseconds(),
	})
	return result
}

func (e *Executor) publish(event hooks.Event, task *Task, providerID string, data map[string]any) {
	if e.bus == nil {
		return
	}
	e.bus.PublishAsync(&hooks.EventContext{
		Event:     event,
		Timestamp: time.Now(),
		TaskID:    task.ID,
		Provider:  providerID,
		Scenario:  string(task.Scenario),
		Data:      data,
	})
}
