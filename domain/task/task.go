// Package task defines the Task entity and its validation rules.
package task

import (
	"encoding/json"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/servicekit/go-service-template/errors"
)

// Field limits
const (
	MaxTitleLength       = 200
	MaxDescriptionLength = 2000
)

// Task is a unit of work owned by a user
type Task struct {
	ID          uuid.UUID  `json:"id"`
	UserID      uuid.UUID  `json:"user_id"`
	Title       string     `json:"title"`
	Description *string    `json:"description"`
	Status      Status     `json:"status"`
	Priority    Priority   `json:"priority"`
	DueDate     *time.Time `json:"due_date,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// CreateTaskRequest is the payload for creating a task
type CreateTaskRequest struct {
	Title       string     `json:"title"`
	Description *string    `json:"description,omitempty"`
	Priority    *Priority  `json:"priority,omitempty"`
	DueDate     *time.Time `json:"due_date,omitempty"`
}

// UpdateTaskRequest is a partial update. Nil fields are left unchanged.
type UpdateTaskRequest struct {
	Title       *string    `json:"title,omitempty"`
	Description *string    `json:"description,omitempty"`
	Status      *Status    `json:"status,omitempty"`
	Priority    *Priority  `json:"priority,omitempty"`
	DueDate     *time.Time `json:"due_date,omitempty"`
}

// now is replaced in tests
var now = func() time.Time { return time.Now().UTC() }

// New builds a validated task for userID
func New(userID uuid.UUID, req CreateTaskRequest) (*Task, error) {
	title, err := normalizeTitle(req.Title)
	if err != nil {
		return nil, err
	}
	description, err := normalizeDescription(req.Description)
	if err != nil {
		return nil, err
	}

	priority := PriorityMedium
	if req.Priority != nil {
		if !req.Priority.Valid() {
			return nil, errors.NewInvalidRequestError("unknown priority %q", *req.Priority)
		}
		priority = *req.Priority
	}

	ts := now()
	return &Task{
		ID:          uuid.New(),
		UserID:      userID,
		Title:       title,
		Description: description,
		Status:      StatusPending,
		Priority:    priority,
		DueDate:     utcPtr(req.DueDate),
		CreatedAt:   ts,
		UpdatedAt:   ts,
	}, nil
}

// Apply validates req and applies it to t. On error t is left unchanged.
func (t *Task) Apply(req UpdateTaskRequest) error {
	updated := *t

	if req.Title != nil {
		title, err := normalizeTitle(*req.Title)
		if err != nil {
			return err
		}
		updated.Title = title
	}
	if req.Description != nil {
		description, err := normalizeDescription(req.Description)
		if err != nil {
			return err
		}
		updated.Description = description
	}
	if req.Status != nil {
		if !req.Status.Valid() {
			return errors.NewInvalidRequestError("unknown status %q", *req.Status)
		}
		updated.Status = *req.Status
	}
	if req.Priority != nil {
		if !req.Priority.Valid() {
			return errors.NewInvalidRequestError("unknown priority %q", *req.Priority)
		}
		updated.Priority = *req.Priority
	}
	if req.DueDate != nil {
		updated.DueDate = utcPtr(req.DueDate)
	}

	updated.UpdatedAt = now()
	*t = updated
	return nil
}

// Clone returns a deep copy of t
func (t *Task) Clone() *Task {
	c := *t
	if t.Description != nil {
		d := *t.Description
		c.Description = &d
	}
	if t.DueDate != nil {
		d := *t.DueDate
		c.DueDate = &d
	}
	return &c
}

// MarshalJSON renders timestamps as RFC3339
func (t Task) MarshalJSON() ([]byte, error) {
	type alias Task
	var due *string
	if t.DueDate != nil {
		s := t.DueDate.UTC().Format(time.RFC3339)
		due = &s
	}
	return json.Marshal(struct {
		alias
		DueDate   *string `json:"due_date,omitempty"`
		CreatedAt string  `json:"created_at"`
		UpdatedAt string  `json:"updated_at"`
	}{
		alias:     alias(t),
		DueDate:   due,
		CreatedAt: t.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt: t.UpdatedAt.UTC().Format(time.RFC3339),
	})
}

func normalizeTitle(title string) (string, error) {
	title = strings.TrimSpace(title)
	n := utf8.RuneCountInString(title)
	if n == 0 {
		return "", errors.NewInvalidRequestError("title must not be empty")
	}
	if n > MaxTitleLength {
		return "", errors.NewInvalidRequestError("title must be at most %d characters, got %d", MaxTitleLength, n)
	}
	return title, nil
}

func normalizeDescription(description *string) (*string, error) {
	if description == nil {
		return nil, nil
	}
	d := strings.TrimSpace(*description)
	if d == "" {
		return nil, nil
	}
	if n := utf8.RuneCountInString(d); n > MaxDescriptionLength {
		return nil, errors.NewInvalidRequestError("description must be at most %d characters, got %d", MaxDescriptionLength, n)
	}
	return &d, nil
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	u := t.UTC()
	return &u
}
