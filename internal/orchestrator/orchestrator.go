// Copyright 2026 The mindrouter Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package orchestrator drives the full analysis pipeline: scenario
// detection, steering, provider selection, execution, synthesis, and
// outcome tracking. It owns the live task table and is the only
// component that touches every other engine package.
package orchestrator

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"github.com/thinkmate/mindrouter/internal/cache"
	"github.com/thinkmate/mindrouter/internal/executor"
	"github.com/thinkmate/mindrouter/internal/hooks"
	"github.com/thinkmate/mindrouter/internal/registry"
	"github.com/thinkmate/mindrouter/internal/scenario"
	"github.com/thinkmate/mindrouter/internal/selector"
	"github.com/thinkmate/mindrouter/internal/steering"
	"github.com/thinkmate/mindrouter/internal/synthesizer"
	"github.com/thinkmate/mindrouter/internal/tracker"
)

// Request is one analysis request entering the engine.
type Request struct {
	Content  string               `json:"content"`
	History  []string             `json:"history,omitempty"`
	Prefs    scenario.Preferences `json:"preferences"`
	Strategy selector.Strategy    `json:"strategy,omitempty"`
	Priority executor.Priority    `json:"priority,omitempty"`

	// RequiredTags restricts selection to capability rows whose speed,
	// quality, or cost tier matches every tag (e.g. "fast", "excellent",
	// "low"). Empty means no restriction.
	RequiredTags []string `json:"required_tags,omitempty"`
}

// Result is the terminal outcome of one orchestrated task.
type Result struct {
	TaskID         string                `json:"task_id"`
	Scenario       scenario.Scenario     `json:"scenario"`
	Confidence     float64               `json:"confidence"`
	Strategy       selector.Strategy     `json:"strategy"`
	Providers      []string              `json:"providers"`
	Insight        *synthesizer.Insight  `json:"insight"`
	StepResults    []executor.TaskResult `json:"step_results,omitempty"`
	SuccessRate    float64               `json:"success_rate"`
	TotalTime      time.Duration         `json:"total_time"`
	State          executor.State        `json:"state"`
	Recommendation string                `json:"recommendation,omitempty"`
	AppliedRules   []string              `json:"applied_rules,omitempty"`
}

// taskRecord is the orchestrator's live bookkeeping for one task.
type taskRecord struct {
	status *executor.WorkStatus
	cancel context.CancelFunc
	result *Result
}

// Orchestrator wires the engine together. Safe for concurrent use; each
// task runs independently and shares only the registry, tracker, and
// task table.
type Orchestrator struct {
	detector  *scenario.Detector
	selector  *selector.Selector
	registry  *registry.Registry
	executor  *executor.Executor
	tracker   *tracker.Tracker
	steering  *steering.Engine
	quick     *cache.QuickCache
	bus       *hooks.EventBus
	retention time.Duration

	mu    sync.Mutex
	tasks map[string]*taskRecord
}

// Options carries the collaborators an Orchestrator needs. Steering and
// the quick cache are optional.
type Options struct {
	Detector *scenario.Detector
	Selector *selector.Selector
	Registry *registry.Registry
	Executor *executor.Executor
	Tracker  *tracker.Tracker
	Steering *steering.Engine
	Quick    *cache.QuickCache
	Bus      *hooks.EventBus

	// ResultRetention bounds how long finished task records stay
	// queryable. Zero means one hour.
	ResultRetention time.Duration
}

// New assembles an orchestrator.
func New(opts Options) *Orchestrator {
	retention := opts.ResultRetention
	if retention <= 0 {
		retention = time.Hour
	}
	o := &Orchestrator{
		detector:  opts.Detector,
		selector:  opts.Selector,
		registry:  opts.Registry,
		executor:  opts.Executor,
		tracker:   opts.Tracker,
		steering:  opts.Steering,
		quick:     opts.Quick,
		bus:       opts.Bus,
		retention: retention,
		tasks:     make(map[string]*taskRecord),
	}
	if o.detector == nil {
		o.detector = scenario.NewDetector()
	}
	return o
}

// ProcessOne runs a single request through the full pipeline and blocks
// until the task finishes, fails, or the context is cancelled.
func (o *Orchestrator) ProcessOne(ctx context.Context, req Request) (*Result, error) {
	if req.Content == "" {
		return nil, fmt.Errorf("content cannot be empty")
	}

	taskCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	task, status := o.admit(req, cancel)
	defer o.finish(task.ID)

	started := time.Now()
	o.publish(hooks.EventTaskCreated, task.ID, "", "", nil)

	// Detection
	status.SetState(executor.StateDetecting)
	detection := o.detector.Detect(req.Content, task.Context)

	// Steering
	decision := o.steer(task, detection, req)
	if bonus, ok := decision.ScenarioBonus[string(detection.Scenario)]; ok {
		detection.Confidence = clamp01(detection.Confidence + bonus)
	}
	task.Scenario = detection.Scenario

	// Selection
	status.SetState(executor.StateSelecting)
	strategy := o.resolveStrategy(req, detection.Scenario, decision)
	caps := o.selectProviders(detection.Scenario, task, strategy, decision)

	if len(decision.PromptHints) > 0 {
		// Hand hints to the backends as extra context lines; the shared
		// request context stays untouched.
		derived := *task.Context
		derived.RecentHistory = append(append([]string{}, task.Context.RecentHistory...), decision.PromptHints...)
		task.Context = &derived
	}

	// Execution
	results := o.executor.ExecuteTask(taskCtx, task, caps, status)
	o.recordOutcomes(detection.Scenario, results)

	// Synthesis
	if len(caps) > 1 {
		status.SetState(executor.StateSynthesizing)
		step := status.AddStep("synthesis", "")
		status.Mutate(step, func(s *executor.ProcessingStep) {
			s.Status = executor.StepCompleted
			s.StartedAt = time.Now()
			s.FinishedAt = time.Now()
		})
	}
	insight := synthesizer.Synthesize(results, detection.Scenario)

	result := &Result{
		TaskID:       task.ID,
		Scenario:     detection.Scenario,
		Confidence:   detection.Confidence,
		Strategy:     strategy,
		Providers:    providerIDs(caps),
		Insight:      insight,
		StepResults:  results,
		SuccessRate:  successRate(results),
		TotalTime:    time.Since(started),
		AppliedRules: decision.AppliedRules,
	}
	result.Recommendation = recommend(result)

	switch {
	case taskCtx.Err() != nil && ctx.Err() == nil:
		result.State = executor.StateFailed
		status.SetState(executor.StateFailed)
		o.publish(hooks.EventTaskCancelled, task.ID, "", string(detection.Scenario), nil)
		tracker.ObserveTask(string(detection.Scenario), "cancelled")
	case taskCtx.Err() != nil:
		result.State = executor.StateFailed
		status.SetState(executor.StateFailed)
		o.publish(hooks.EventTaskFailed, task.ID, "", string(detection.Scenario), map[string]any{"error": taskCtx.Err().Error()})
		tracker.ObserveTask(string(detection.Scenario), "failed")
	default:
		result.State = executor.StateCompleted
		status.SetState(executor.StateCompleted)
		o.publish(hooks.EventTaskCompleted, task.ID, "", string(detection.Scenario), map[string]any{
			"success_rate": result.SuccessRate,
			"degraded":     insight.Degraded,
		})
		tracker.ObserveTask(string(detection.Scenario), "completed")
	}

	o.storeResult(task.ID, result)
	log.Infof("Task %s finished: scenario=%s strategy=%s providers=%d success=%.2f in %s",
		task.ID, detection.Scenario, strategy, len(caps), result.SuccessRate, result.TotalTime)
	return result, nil
}

// ProcessBatch runs every request concurrently. One item failing or
// being cancelled never affects its siblings; the returned slice is
// index-aligned with the input.
func (o *Orchestrator) ProcessBatch(ctx context.Context, reqs []Request) []*Result {
	results := make([]*Result, len(reqs))

	var wg sync.WaitGroup
	for i, req := range reqs {
		wg.Add(1)
		go func(i int, req Request) {
			defer wg.Done()
			res, err := o.ProcessOne(ctx, req)
			if err != nil {
				log.Warnf("Batch item %d failed: %v", i, err)
				// Rejected items never got a task record; mint an id
				// anyway so batch callers can still correlate the slot.
				res = &Result{
					TaskID:   uuid.NewString(),
					State:    executor.StateFailed,
					Scenario: scenario.ScenarioGeneral,
					Insight:  synthesizer.Synthesize(nil, scenario.ScenarioGeneral),
				}
			}
			results[i] = res
		}(i, req)
	}
	wg.Wait()
	return results
}

// Cancel requests cooperative cancellation of a running task. Work a
// backend has already accepted may still run to completion on its side;
// the engine stops dispatching further steps immediately.
func (o *Orchestrator) Cancel(taskID string) error {
	o.mu.Lock()
	rec, ok := o.tasks[taskID]
	o.mu.Unlock()
	if !ok {
		return fmt.Errorf("unknown task: %s", taskID)
	}
	if rec.cancel == nil {
		return fmt.Errorf("task %s already finished", taskID)
	}
	rec.cancel()
	log.Infof("Cancellation requested for task %s", taskID)
	return nil
}

// GetStatus returns the current progress snapshot for a task.
func (o *Orchestrator) GetStatus(taskID string) (executor.StatusSnapshot, error) {
	o.mu.Lock()
	rec, ok := o.tasks[taskID]
	o.mu.Unlock()
	if !ok {
		return executor.StatusSnapshot{}, fmt.Errorf("unknown task: %s", taskID)
	}
	return rec.status.Snapshot(), nil
}

// GetResult returns the terminal result for a finished task.
func (o *Orchestrator) GetResult(taskID string) (*Result, error) {
	o.mu.Lock()
	rec, ok := o.tasks[taskID]
	o.mu.Unlock()
	if !ok {
		return nil, fmt.Errorf("unknown task: %s", taskID)
	}
	if rec.result == nil {
		return nil, fmt.Errorf("task %s still running", taskID)
	}
	return rec.result, nil
}

// PruneFinished drops finished task records older than the retention
// window. Invoked by the scheduled maintenance job.
func (o *Orchestrator) PruneFinished() int {
	cutoff := time.Now().Add(-o.retention)

	o.mu.Lock()
	defer o.mu.Unlock()

	pruned := 0
	for id, rec := range o.tasks {
		if rec.result == nil {
			continue
		}
		if rec.status.Started.Before(cutoff) {
			delete(o.tasks, id)
			pruned++
		}
	}
	return pruned
}

// admit registers a new task in the live table.
func (o *Orchestrator) admit(req Request, cancel context.CancelFunc) (*executor.Task, *executor.WorkStatus) {
	// Only an omitted bias gets defaulted (NewContext handles it); the
	// caller's sensitivity settings and approved-provider list are hard
	// constraints and must survive as given.
	priority := req.Priority
	if priority == "" {
		priority = executor.PriorityMedium
	}

	task := &executor.Task{
		ID:           uuid.NewString(),
		Content:      req.Content,
		Context:      scenario.NewContext(req.Content, req.History, req.Prefs, scenario.Session{StartedAt: time.Now()}, time.Now()),
		Priority:     priority,
		RequiredTags: req.RequiredTags,
		CreatedAt:    time.Now(),
	}
	status := executor.NewWorkStatus(task.ID)

	o.mu.Lock()
	o.tasks[task.ID] = &taskRecord{status: status, cancel: cancel}
	o.mu.Unlock()

	return task, status
}

// finish clears the cancel func so late Cancel calls get a clean error.
func (o *Orchestrator) finish(taskID string) {
	o.mu.Lock()
	if rec, ok := o.tasks[taskID]; ok {
		rec.cancel = nil
	}
	o.mu.Unlock()
}

func (o *Orchestrator) storeResult(taskID string, result *Result) {
	o.mu.Lock()
	if rec, ok := o.tasks[taskID]; ok {
		rec.result = result
	}
	o.mu.Unlock()
}

// steer evaluates the steering rules for a task. Returns an empty
// decision when no engine is configured.
func (o *Orchestrator) steer(task *executor.Task, detection scenario.Detection, req Request) *steering.Decision {
	if o.steering == nil {
		return &steering.Decision{ScenarioBonus: map[string]float64{}}
	}
	now := time.Now()
	return o.steering.Apply(&steering.RuleContext{
		Scenario:      string(detection.Scenario),
		Confidence:    detection.Confidence,
		Strategy:      string(req.Strategy),
		Priority:      string(task.Priority),
		Bias:          string(task.Context.Prefs.Bias),
		ContentLength: len(req.Content),
		Hour:          now.Hour(),
		DayOfWeek:     now.Weekday().String()[:3],
		Timestamp:     now,
	})
}

// resolveStrategy picks the effective strategy: steering override first,
// then the caller's explicit choice, then automatic ensemble for
// important deep work, then adaptive.
func (o *Orchestrator) resolveStrategy(req Request, sc scenario.Scenario, decision *steering.Decision) selector.Strategy {
	if decision.ForceStrategy != "" {
		return selector.Strategy(decision.ForceStrategy)
	}
	if req.Strategy != "" {
		return req.Strategy
	}
	if (req.Priority == executor.PriorityHigh || req.Priority == executor.PriorityUrgent) && sc.WorthEnsemble() {
		return selector.StrategyEnsemble
	}
	return selector.StrategyAdaptive
}

// selectProviders honors a steering pin before falling through to the
// scoring strategies. Required tags narrow the scored candidates but
// never override an operator pin.
func (o *Orchestrator) selectProviders(sc scenario.Scenario, task *executor.Task, strategy selector.Strategy, decision *steering.Decision) []registry.Capability {
	if decision.PinProvider != "" {
		for _, row := range o.registry.ForScenario(sc) {
			if row.ProviderID == decision.PinProvider {
				return []registry.Capability{row}
			}
		}
		// Pinned provider has no row for this scenario; trust the
		// operator and synthesize a neutral one.
		return []registry.Capability{{
			Scenario:    sc,
			ProviderID:  decision.PinProvider,
			Speed:       registry.SpeedMedium,
			Quality:     registry.QualityGood,
			Cost:        registry.CostMedium,
			Reliability: 0.8,
		}}
	}

	return o.selector.SelectOptimalProviders(sc, task.Context, strategy, task.RequiredTags...)
}

// recordOutcomes feeds every provider call back into the tracker.
func (o *Orchestrator) recordOutcomes(sc scenario.Scenario, results []executor.TaskResult) {
	if o.tracker == nil {
		return
	}
	for _, r := range results {
		if r.Skipped {
			continue
		}
		o.tracker.RecordOutcome(tracker.Metric{
			ProviderID:   r.ProviderID,
			Scenario:     sc,
			ResponseTime: r.ResponseTime,
			Success:      r.Error == "",
			Satisfaction: r.Confidence,
			Timestamp:    time.Now(),
		})
	}
}

func (o *Orchestrator) publish(event hooks.Event, taskID, providerID, scen string, data map[string]any) {
	if o.bus == nil {
		return
	}
	o.bus.PublishAsync(&hooks.EventContext{
		Event:     event,
		Timestamp: time.Now(),
		TaskID:    taskID,
		Provider:  providerID,
		Scenario:  scen,
		Data:      data,
	})
}

func providerIDs(caps []registry.Capability) []string {
	ids := make([]string, len(caps))
	for i, c := range caps {
		ids[i] = c.ProviderID
	}
	return ids
}

func successRate(results []executor.TaskResult) float64 {
	if len(results) == 0 {
		return 0
	}
	ok := 0
	for _, r := range results {
		if r.Error == "" {
			ok++
		}
	}
	return float64(ok) / float64(len(results))
}

// recommend produces a short operator-facing note about the run.
func recommend(r *Result) string {
	switch {
	case r.Insight != nil && r.Insight.Degraded:
		return "All providers failed; check backend connectivity before retrying."
	case r.SuccessRate < 1 && len(r.Providers) > 1:
		return "Some ensemble members failed; the insight is built from the surviving results."
	case r.Confidence < 0.6:
		return "Scenario confidence was low; the general pipeline was used."
	}
	return ""
}

func clamp01(v float64) float64 {
	if v > 1 {
		return 1
	}
	if v < 0 {
		return 0
	}
	return v
}
