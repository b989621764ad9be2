package interfaces

import (
	"context"

	"github.com/google/uuid"

	"github.com/servicekit/go-service-template/domain/task"
)

// TaskRepository persists tasks. Lookups of missing tasks return an error
// wrapping errors.ErrNotFound.
type TaskRepository interface {
	HealthChecker

	Create(ctx context.Context, t *task.Task) (*task.Task, error)
	GetByID(ctx context.Context, id uuid.UUID) (*task.Task, error)
	// ListByUser returns the user's tasks, newest first
	ListByUser(ctx context.Context, userID uuid.UUID) ([]*task.Task, error)
	Update(ctx context.Context, t *task.Task) (*task.Task, error)
	Delete(ctx context.Context, id uuid.UUID) error
}
