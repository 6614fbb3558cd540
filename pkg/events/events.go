// Package events defines event types and structures for workflow lifecycle
// notifications.
package events

import (
	"time"

	"github.com/google/uuid"
)

type EventType string

// Topic carries every workflow lifecycle event.
const Topic = "workflows.events"

const EventMetadataKey = "key"
const EventTypeMetadataKey = "event_type"

const (
	// Definition lifecycle events.
	DefinitionCreatedEvent EventType = "definition.created"

	// Instance lifecycle events.
	InstanceStartedEvent    EventType = "instance.started"
	TransitionExecutedEvent EventType = "transition.executed"
	TransitionFailedEvent   EventType = "transition.failed"
	ScheduleTriggeredEvent  EventType = "schedule.triggered"
)

type BaseEvent struct {
	ID           string         `json:"id"`
	Type         EventType      `json:"type"`
	Timestamp    time.Time      `json:"timestamp"`
	DefinitionID string         `json:"definition_id"`
	Metadata     map[string]any `json:"metadata,omitempty"`
}

func NewBaseEvent(eventType EventType, definitionID string) BaseEvent {
	return BaseEvent{
		ID:           uuid.New().String(),
		Type:         eventType,
		Timestamp:    time.Now().UTC(),
		DefinitionID: definitionID,
		Metadata:     make(map[string]any),
	}
}

// DefinitionCreated is published after a definition passed validation and
// was persisted.
type DefinitionCreated struct {
	BaseEvent

	Name        string `json:"name"`
	StateCount  int    `json:"state_count"`
	ActionCount int    `json:"action_count"`
}

func (d DefinitionCreated) GetType() EventType {
	return DefinitionCreatedEvent
}

// InstanceStarted is published after a new instance was persisted at its
// initial state.
type InstanceStarted struct {
	BaseEvent

	InstanceID     string `json:"instance_id"`
	CurrentStateID string `json:"current_state_id"`
}

func (i InstanceStarted) GetType() EventType {
	return InstanceStartedEvent
}

// TransitionExecuted is published after an action moved an instance to a new
// state and the mutation was persisted.
type TransitionExecuted struct {
	BaseEvent

	InstanceID  string    `json:"instance_id"`
	ActionID    string    `json:"action_id"`
	FromStateID string    `json:"from_state_id"`
	ToStateID   string    `json:"to_state_id"`
	ExecutedAt  time.Time `json:"executed_at"`
}

func (t TransitionExecuted) GetType() EventType {
	return TransitionExecutedEvent
}

// TransitionFailed is published when an action was rejected by the
// transition rules. Lookups that fail (unknown instance or action) publish
// nothing.
type TransitionFailed struct {
	BaseEvent

	InstanceID string `json:"instance_id"`
	ActionID   string `json:"action_id"`
	Error      string `json:"error"`
}

func (t TransitionFailed) GetType() EventType {
	return TransitionFailedEvent
}

// ScheduleTriggered is published when the scheduler starts an instance for a
// due schedule.
type ScheduleTriggered struct {
	BaseEvent

	ScheduleID string `json:"schedule_id"`
	InstanceID string `json:"instance_id"`
}

func (s ScheduleTriggered) GetType() EventType {
	return ScheduleTriggeredEvent
}
