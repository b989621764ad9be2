package interfaces

import (
	"context"

	"github.com/servicekit/go-service-template/domain/task"
)

// EventProducer publishes task change events to a message broker
type EventProducer interface {
	HealthChecker

	PublishTaskEvent(ctx context.Context, event task.TaskEvent) error
	Close() error
}
