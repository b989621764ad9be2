package task

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTaskEvents(t *testing.T) {
	ts := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	fixedClock(t, ts)

	created, err := New(uuid.New(), CreateTaskRequest{Title: "Publish"})
	require.NoError(t, err)

	t.Run("created", func(t *testing.T) {
		event := NewCreatedEvent(created, "tasks")
		assert.Equal(t, EventCreated, event.EventType)
		assert.Equal(t, created.ID, event.TaskID)
		assert.Equal(t, EventSchemaVersion, event.Version)
		assert.Equal(t, ts, event.Timestamp)
		assert.Equal(t, "tasks", event.Metadata.SourceService)
		require.NotNil(t, event.Metadata.UserID)
		assert.Equal(t, created.UserID.String(), *event.Metadata.UserID)
		assert.Nil(t, event.OldData)
		assert.NotSame(t, created, event.Data, "event carries a snapshot")
	})

	t.Run("updated keeps previous state", func(t *testing.T) {
		old := created.Clone()
		status := StatusCompleted
		require.NoError(t, created.Apply(UpdateTaskRequest{Status: &status}))

		event := NewUpdatedEvent(old, created, "tasks").WithCorrelationID("req-7")
		assert.Equal(t, EventUpdated, event.EventType)
		assert.Equal(t, StatusPending, event.OldData.Status)
		assert.Equal(t, StatusCompleted, event.Data.Status)
		require.NotNil(t, event.Metadata.CorrelationID)
		assert.Equal(t, "req-7", *event.Metadata.CorrelationID)
	})

	t.Run("deleted without previous state", func(t *testing.T) {
		id := uuid.New()
		event := NewDeletedEvent(id, nil, "tasks").WithCorrelationID("")
		assert.Equal(t, EventDeleted, event.EventType)
		assert.Equal(t, id, event.TaskID)
		assert.Nil(t, event.Data)
		assert.Nil(t, event.Metadata.UserID)
		assert.Nil(t, event.Metadata.CorrelationID)
	})

	t.Run("wire format", func(t *testing.T) {
		raw, err := json.Marshal(NewCreatedEvent(created, "tasks"))
		require.NoError(t, err)

		var decoded map[string]interface{}
		require.NoError(t, json.Unmarshal(raw, &decoded))
		assert.Equal(t, "task.created", decoded["event_type"])
		assert.Equal(t, "1.0", decoded["version"])
		assert.NotContains(t, decoded, "old_data")
	})
}
