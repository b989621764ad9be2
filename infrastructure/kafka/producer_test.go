package kafka

import (
	"context"
	"encoding/json"
	"net"
	"sync"
	"testing"

	"github.com/google/uuid"
	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/servicekit/go-service-template/config"
	"github.com/servicekit/go-service-template/domain/task"
	"github.com/servicekit/go-service-template/errors"
)

type recordingWriter struct {
	mu       sync.Mutex
	messages []kafkago.Message
	err      error
	closed   bool
}

func (w *recordingWriter) WriteMessages(_ context.Context, msgs ...kafkago.Message) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.err != nil {
		return w.err
	}
	w.messages = append(w.messages, msgs...)
	return nil
}

func (w *recordingWriter) Close() error {
	w.closed = true
	return nil
}

func testProducer(t *testing.T, w *recordingWriter) *Producer {
	t.Helper()
	p, err := NewProducer(config.KafkaConfig{
		Enabled: true,
		Brokers: []string{"broker-a:9092", "broker-b:9092"},
		Topic:   "task-events",
	}, zaptest.NewLogger(t).Sugar())
	require.NoError(t, err)
	p.writer = w
	return p
}

func TestNewProducerValidation(t *testing.T) {
	_, err := NewProducer(config.KafkaConfig{Enabled: true, Topic: "t"}, nil)
	assert.ErrorContains(t, err, "brokers")

	_, err = NewProducer(config.KafkaConfig{Enabled: true, Brokers: []string{"b:9092"}}, nil)
	assert.ErrorContains(t, err, "topic")
}

func TestPublishTaskEvent(t *testing.T) {
	w := &recordingWriter{}
	p := testProducer(t, w)

	created, err := task.New(uuid.New(), task.CreateTaskRequest{Title: "Stream me"})
	require.NoError(t, err)
	event := task.NewCreatedEvent(created, "go_service_template")

	require.NoError(t, p.PublishTaskEvent(context.Background(), event))
	require.Len(t, w.messages, 1)

	msg := w.messages[0]
	assert.Equal(t, created.ID.String(), string(msg.Key))
	require.Len(t, msg.Headers, 1)
	assert.Equal(t, HeaderEventType, msg.Headers[0].Key)
	assert.Equal(t, "task.created", string(msg.Headers[0].Value))

	var decoded task.TaskEvent
	require.NoError(t, json.Unmarshal(msg.Value, &decoded))
	assert.Equal(t, event.EventID, decoded.EventID)
	assert.Equal(t, "Stream me", decoded.Data.Title)

	require.NoError(t, p.Close())
	assert.True(t, w.closed)
}

func TestPublishTaskEventError(t *testing.T) {
	w := &recordingWriter{err: errors.New("leader not available")}
	p := testProducer(t, w)

	err := p.PublishTaskEvent(context.Background(), task.NewDeletedEvent(uuid.New(), nil, "svc"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to publish task.deleted event")
	assert.Contains(t, err.Error(), "leader not available")
}

func TestHealthCheck(t *testing.T) {
	p := testProducer(t, &recordingWriter{})

	var dialed []string
	p.dial = func(_ context.Context, _, address string) (net.Conn, error) {
		dialed = append(dialed, address)
		if address == "broker-a:9092" {
			return nil, errors.New("connection refused")
		}
		client, server := net.Pipe()
		server.Close()
		return client, nil
	}
	require.NoError(t, p.HealthCheck(context.Background()))
	assert.Equal(t, []string{"broker-a:9092", "broker-b:9092"}, dialed)

	p.dial = func(context.Context, string, string) (net.Conn, error) {
		return nil, errors.New("connection refused")
	}
	err := p.HealthCheck(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no kafka broker reachable")
}
