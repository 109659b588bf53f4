// Package hooks distributes task-progress events to subscribers without
// coupling observers to the execution loop. Execution publishes
// asynchronously; slow or absent subscribers never block the pipeline.
package hooks

import (
	"time"

	json "github.com/goccy/go-json"
)

// Event names a point in the task lifecycle.
type Event string

const (
	EventTaskCreated   Event = "task_created"
	EventStepStarted   Event = "step_started"
	EventStepCompleted Event = "step_completed"
	EventStepFailed    Event = "step_failed"
	EventTaskCompleted Event = "task_completed"
	EventTaskFailed    Event = "task_failed"
	EventTaskCancelled Event = "task_cancelled"
)

// EventContext is the payload delivered to subscribers.
type EventContext struct {
	Event     Event          `json:"event"`
	Timestamp time.Time      `json:"timestamp"`
	TaskID    string         `json:"task_id,omitempty"`
	Provider  string         `json:"provider,omitempty"`
	Scenario  string         `json:"scenario,omitempty"`
	Data      map[string]any `json:"data,omitempty"`
}

// Encode renders the event payload as JSON for wire transports (the
// websocket feed). Encoding failures degrade to an empty object rather
// than dropping the event.
func (e *EventContext) Encode() []byte {
	raw, err := json.Marshal(e)
	if err != nil {
		return []byte("{}")
	}
	return raw
}
