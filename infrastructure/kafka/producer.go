// Package kafka publishes task change events to a Kafka topic.
package kafka

import (
	"context"
	"encoding/json"
	"net"
	"time"

	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/servicekit/go-service-template/config"
	"github.com/servicekit/go-service-template/domain/task"
	"github.com/servicekit/go-service-template/errors"
)

// HeaderEventType carries the event type so consumers can route without decoding
const HeaderEventType = "event_type"

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafkago.Message) error
	Close() error
}

// Producer writes TaskEvents keyed by task ID, so all events of one task
// land on the same partition in order.
type Producer struct {
	writer  messageWriter
	brokers []string
	topic   string
	dial    func(ctx context.Context, network, address string) (net.Conn, error)
	logger  *zap.SugaredLogger
}

// NewProducer creates a producer that waits for all in-sync replicas to
// acknowledge each write.
func NewProducer(cfg config.KafkaConfig, logger *zap.SugaredLogger) (*Producer, error) {
	if len(cfg.Brokers) == 0 {
		return nil, errors.New("kafka.brokers cannot be empty when kafka is enabled")
	}
	if cfg.Topic == "" {
		return nil, errors.New("kafka.topic cannot be empty when kafka is enabled")
	}
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}

	writer := &kafkago.Writer{
		Addr:                   kafkago.TCP(cfg.Brokers...),
		Topic:                  cfg.Topic,
		Balancer:               &kafkago.Hash{},
		RequiredAcks:           kafkago.RequireAll,
		BatchTimeout:           cfg.BatchTimeout(),
		WriteTimeout:           cfg.WriteTimeout(),
		AllowAutoTopicCreation: true,
	}

	dialer := &net.Dialer{Timeout: 5 * time.Second}
	return &Producer{
		writer:  writer,
		brokers: cfg.Brokers,
		topic:   cfg.Topic,
		dial:    dialer.DialContext,
		logger:  logger,
	}, nil
}

// PublishTaskEvent encodes event as JSON and writes it synchronously
func (p *Producer) PublishTaskEvent(ctx context.Context, event task.TaskEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return errors.Wrapf(err, "failed to encode %s event", event.EventType)
	}

	msg := kafkago.Message{
		Key:   []byte(event.TaskID.String()),
		Value: payload,
		Time:  event.Timestamp,
		Headers: []kafkago.Header{
			{Key: HeaderEventType, Value: []byte(event.EventType)},
		},
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return errors.Wrapf(err, "failed to publish %s event for task %s", event.EventType, event.TaskID)
	}

	p.logger.Debugw("Task event published",
		"topic", p.topic,
		"event_type", event.EventType,
		"task_id", event.TaskID,
	)
	return nil
}

// HealthCheck succeeds when any broker accepts a TCP connection
func (p *Producer) HealthCheck(ctx context.Context) error {
	var lastErr error
	for _, broker := range p.brokers {
		conn, err := p.dial(ctx, "tcp", broker)
		if err == nil {
			conn.Close()
			return nil
		}
		lastErr = err
	}
	return errors.Wrap(lastErr, "no kafka broker reachable")
}

// Close flushes pending messages and releases connections
func (p *Producer) Close() error {
	return p.writer.Close()
}
