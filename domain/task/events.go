package task

import (
	"time"

	"github.com/google/uuid"
)

// EventType names a change to a task
type EventType string

const (
	EventCreated EventType = "task.created"
	EventUpdated EventType = "task.updated"
	EventDeleted EventType = "task.deleted"
)

// EventSchemaVersion is stamped on every published event
const EventSchemaVersion = "1.0"

// EventMetadata carries provenance for a TaskEvent
type EventMetadata struct {
	SourceService string  `json:"source_service"`
	CorrelationID *string `json:"correlation_id,omitempty"`
	UserID        *string `json:"user_id,omitempty"`
}

// TaskEvent is the message published when a task changes
type TaskEvent struct {
	EventID   uuid.UUID     `json:"event_id"`
	EventType EventType     `json:"event_type"`
	TaskID    uuid.UUID     `json:"task_id"`
	Timestamp time.Time     `json:"timestamp"`
	Version   string        `json:"version"`
	Data      *Task         `json:"data,omitempty"`
	OldData   *Task         `json:"old_data,omitempty"`
	Metadata  EventMetadata `json:"metadata"`
}

// NewCreatedEvent describes a newly created task
func NewCreatedEvent(t *Task, source string) TaskEvent {
	return newEvent(EventCreated, t.ID, t.UserID, source, t.Clone(), nil)
}

// NewUpdatedEvent describes a change from old to updated
func NewUpdatedEvent(old, updated *Task, source string) TaskEvent {
	var previous *Task
	if old != nil {
		previous = old.Clone()
	}
	return newEvent(EventUpdated, updated.ID, updated.UserID, source, updated.Clone(), previous)
}

// NewDeletedEvent describes a removed task. old may be nil when the
// previous state is unknown.
func NewDeletedEvent(id uuid.UUID, old *Task, source string) TaskEvent {
	userID := uuid.Nil
	var previous *Task
	if old != nil {
		userID = old.UserID
		previous = old.Clone()
	}
	return newEvent(EventDeleted, id, userID, source, nil, previous)
}

// WithCorrelationID attaches a request correlation ID
func (e TaskEvent) WithCorrelationID(id string) TaskEvent {
	if id != "" {
		e.Metadata.CorrelationID = &id
	}
	return e
}

func newEvent(eventType EventType, taskID, userID uuid.UUID, source string, data, old *Task) TaskEvent {
	var user *string
	if userID != uuid.Nil {
		s := userID.String()
		user = &s
	}
	return TaskEvent{
		EventID:   uuid.New(),
		EventType: eventType,
		TaskID:    taskID,
		Timestamp: now(),
		Version:   EventSchemaVersion,
		Data:      data,
		OldData:   old,
		Metadata: EventMetadata{
			SourceService: source,
			UserID:        user,
		},
	}
}
