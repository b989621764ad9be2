// Package infrastructure implements the domain ports on top of SQLite.
package infrastructure

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/servicekit/go-service-template/db"
	"github.com/servicekit/go-service-template/domain/task"
	"github.com/servicekit/go-service-template/errors"
)

const taskColumns = `id, user_id, title, description, status, priority, due_date, created_at, updated_at`

const (
	insertTaskSQL = `INSERT INTO tasks (` + taskColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`

	selectTaskByIDSQL = `SELECT ` + taskColumns + ` FROM tasks WHERE id = ?`

	selectTasksByUserSQL = `SELECT ` + taskColumns + ` FROM tasks WHERE user_id = ? ORDER BY created_at DESC, id`

	updateTaskSQL = `UPDATE tasks SET title = ?, description = ?, status = ?, priority = ?, due_date = ?, updated_at = ? WHERE id = ?`

	deleteTaskSQL = `DELETE FROM tasks WHERE id = ?`

	healthCheckSQL = `SELECT 1`
)

// SQLiteTaskRepository stores tasks in the tasks table
type SQLiteTaskRepository struct {
	db     *sql.DB
	logger *zap.SugaredLogger
}

// NewSQLiteTaskRepository creates a repository over an open, migrated database
func NewSQLiteTaskRepository(conn *sql.DB, logger *zap.SugaredLogger) *SQLiteTaskRepository {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &SQLiteTaskRepository{db: conn, logger: logger}
}

// Create inserts t and returns it as stored
func (r *SQLiteTaskRepository) Create(ctx context.Context, t *task.Task) (*task.Task, error) {
	_, err := r.db.ExecContext(ctx, insertTaskSQL,
		t.ID.String(),
		t.UserID.String(),
		t.Title,
		nullString(t.Description),
		string(t.Status),
		string(t.Priority),
		nullTime(t.DueDate),
		t.CreatedAt.UTC(),
		t.UpdatedAt.UTC(),
	)
	if err != nil {
		if db.IsConstraintViolation(err) {
			return nil, errors.Wrap(errors.NewConflictError("task %s", t.ID), err.Error())
		}
		return nil, errors.Wrapf(err, "failed to insert task %s", t.ID)
	}

	r.logger.Debugw("Task created", "task_id", t.ID, "user_id", t.UserID)
	return t, nil
}

// GetByID loads one task
func (r *SQLiteTaskRepository) GetByID(ctx context.Context, id uuid.UUID) (*task.Task, error) {
	row := r.db.QueryRowContext(ctx, selectTaskByIDSQL, id.String())
	t, err := scanTask(row)
	if err == sql.ErrNoRows {
		return nil, errors.NewNotFoundError("task %s", id)
	}
	if err != nil {
		return nil, errors.Wrapf(err, "failed to load task %s", id)
	}
	return t, nil
}

// ListByUser returns the user's tasks, newest first
func (r *SQLiteTaskRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]*task.Task, error) {
	rows, err := r.db.QueryContext(ctx, selectTasksByUserSQL, userID.String())
	if err != nil {
		return nil, errors.Wrapf(err, "failed to list tasks for user %s", userID)
	}
	defer rows.Close()

	tasks := make([]*task.Task, 0)
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, errors.Wrap(err, "failed to scan task")
		}
		tasks = append(tasks, t)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "failed to iterate tasks")
	}
	return tasks, nil
}

// Update writes the mutable fields of t
func (r *SQLiteTaskRepository) Update(ctx context.Context, t *task.Task) (*task.Task, error) {
	res, err := r.db.ExecContext(ctx, updateTaskSQL,
		t.Title,
		nullString(t.Description),
		string(t.Status),
		string(t.Priority),
		nullTime(t.DueDate),
		t.UpdatedAt.UTC(),
		t.ID.String(),
	)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to update task %s", t.ID)
	}
	if err := expectOneRow(res, t.ID); err != nil {
		return nil, err
	}
	return t, nil
}

// Delete removes a task
func (r *SQLiteTaskRepository) Delete(ctx context.Context, id uuid.UUID) error {
	res, err := r.db.ExecContext(ctx, deleteTaskSQL, id.String())
	if err != nil {
		return errors.Wrapf(err, "failed to delete task %s", id)
	}
	return expectOneRow(res, id)
}

// HealthCheck verifies the database answers queries
func (r *SQLiteTaskRepository) HealthCheck(ctx context.Context) error {
	var one int
	if err := r.db.QueryRowContext(ctx, healthCheckSQL).Scan(&one); err != nil {
		return errors.Wrap(err, "database health check failed")
	}
	return nil
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanTask(s scanner) (*task.Task, error) {
	var (
		t                   task.Task
		id, userID          string
		description         sql.NullString
		status, priority    string
		dueDate             sql.NullTime
		createdAt, updatedAt time.Time
	)
	if err := s.Scan(&id, &userID, &t.Title, &description, &status, &priority, &dueDate, &createdAt, &updatedAt); err != nil {
		return nil, err
	}

	var err error
	if t.ID, err = uuid.Parse(id); err != nil {
		return nil, errors.Wrapf(err, "corrupt task id %q", id)
	}
	if t.UserID, err = uuid.Parse(userID); err != nil {
		return nil, errors.Wrapf(err, "corrupt user id %q", userID)
	}
	if description.Valid {
		t.Description = &description.String
	}
	if dueDate.Valid {
		d := dueDate.Time.UTC()
		t.DueDate = &d
	}
	t.Status = task.Status(status)
	t.Priority = task.Priority(priority)
	t.CreatedAt = createdAt.UTC()
	t.UpdatedAt = updatedAt.UTC()
	return &t, nil
}

func expectOneRow(res sql.Result, id uuid.UUID) error {
	n, err := res.RowsAffected()
	if err != nil {
		return errors.Wrap(err, "failed to read affected rows")
	}
	if n == 0 {
		return errors.NewNotFoundError("task %s", id)
	}
	return nil
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: t.UTC(), Valid: true}
}
