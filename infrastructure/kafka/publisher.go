package kafka

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/servicekit/go-service-template/domain/interfaces"
	"github.com/servicekit/go-service-template/domain/task"
	"github.com/servicekit/go-service-template/logger"
)

// PublishingRepository decorates a TaskRepository and emits an event after
// each successful write. Publish failures are logged; the write stands.
type PublishingRepository struct {
	interfaces.TaskRepository
	producer interfaces.EventProducer
	source   string
	logger   *zap.SugaredLogger
}

// NewPublishingRepository wraps repo. source is recorded as the event's
// source_service.
func NewPublishingRepository(repo interfaces.TaskRepository, producer interfaces.EventProducer, source string, log *zap.SugaredLogger) *PublishingRepository {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &PublishingRepository{
		TaskRepository: repo,
		producer:       producer,
		source:         source,
		logger:         log,
	}
}

// Create stores t and publishes task.created
func (r *PublishingRepository) Create(ctx context.Context, t *task.Task) (*task.Task, error) {
	created, err := r.TaskRepository.Create(ctx, t)
	if err != nil {
		return nil, err
	}
	r.publish(ctx, task.NewCreatedEvent(created, r.source))
	return created, nil
}

// Update stores t and publishes task.updated with the previous state
func (r *PublishingRepository) Update(ctx context.Context, t *task.Task) (*task.Task, error) {
	old, _ := r.TaskRepository.GetByID(ctx, t.ID)

	updated, err := r.TaskRepository.Update(ctx, t)
	if err != nil {
		return nil, err
	}
	r.publish(ctx, task.NewUpdatedEvent(old, updated, r.source))
	return updated, nil
}

// Delete removes the task and publishes task.deleted
func (r *PublishingRepository) Delete(ctx context.Context, id uuid.UUID) error {
	old, _ := r.TaskRepository.GetByID(ctx, id)

	if err := r.TaskRepository.Delete(ctx, id); err != nil {
		return err
	}
	r.publish(ctx, task.NewDeletedEvent(id, old, r.source))
	return nil
}

func (r *PublishingRepository) publish(ctx context.Context, event task.TaskEvent) {
	event = event.WithCorrelationID(logger.RequestIDFromContext(ctx))
	if err := r.producer.PublishTaskEvent(ctx, event); err != nil {
		r.logger.Warnw("Failed to publish task event",
			"event_type", event.EventType,
			"task_id", event.TaskID,
			"error", err,
		)
	}
}
