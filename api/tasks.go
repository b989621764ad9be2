package api

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/servicekit/go-service-template/auth"
	"github.com/servicekit/go-service-template/domain/task"
	"github.com/servicekit/go-service-template/errors"
	"github.com/servicekit/go-service-template/logger"
)

// handleGetTask handles GET /tasks/{id}
func (s *Server) handleGetTask(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}

	t, err := s.state.TaskRepository.GetByID(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, t)
}

// handleListTasks handles GET /tasks?user_id=
func (s *Server) handleListTasks(w http.ResponseWriter, r *http.Request) {
	raw := r.URL.Query().Get("user_id")
	if raw == "" {
		writeError(w, r, errors.NewInvalidRequestError("user_id query parameter is required"))
		return
	}
	userID, err := uuid.Parse(raw)
	if err != nil {
		writeError(w, r, errors.NewInvalidRequestError("invalid user_id %q", raw))
		return
	}

	tasks, err := s.state.TaskRepository.ListByUser(r.Context(), userID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if tasks == nil {
		tasks = []*task.Task{}
	}
	writeJSON(w, http.StatusOK, tasks)
}

// handleCreateTask handles POST /tasks. The owner is the authenticated
// subject when it is a UUID; otherwise a fresh user ID is assigned.
func (s *Server) handleCreateTask(w http.ResponseWriter, r *http.Request) {
	var req task.CreateTaskRequest
	if err := readJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	t, err := task.New(ownerFor(r), req)
	if err != nil {
		writeError(w, r, err)
		return
	}

	created, err := s.state.TaskRepository.Create(r.Context(), t)
	if err != nil {
		writeError(w, r, err)
		return
	}

	logger.LoggerFromContext(r.Context()).Infow("Task created",
		logger.FieldTaskID, created.ID,
		logger.FieldUserID, created.UserID,
	)
	writeJSON(w, http.StatusCreated, created)
}

// handleUpdateTask handles PUT /tasks/{id}
func (s *Server) handleUpdateTask(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}

	var req task.UpdateTaskRequest
	if err := readJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	t, err := s.state.TaskRepository.GetByID(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := t.Apply(req); err != nil {
		writeError(w, r, err)
		return
	}

	updated, err := s.state.TaskRepository.Update(r.Context(), t)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

// handleDeleteTask handles DELETE /tasks/{id}
func (s *Server) handleDeleteTask(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}

	if err := s.state.TaskRepository.Delete(r.Context(), id); err != nil {
		writeError(w, r, err)
		return
	}

	logger.LoggerFromContext(r.Context()).Infow("Task deleted", logger.FieldTaskID, id)
	w.WriteHeader(http.StatusNoContent)
}

func pathUUID(r *http.Request, name string) (uuid.UUID, error) {
	raw := r.PathValue(name)
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, errors.NewInvalidRequestError("invalid %s %q", name, raw)
	}
	return id, nil
}

func ownerFor(r *http.Request) uuid.UUID {
	if claims, ok := auth.UserFromContext(r.Context()); ok {
		if id, err := uuid.Parse(claims.Subject); err == nil {
			return id
		}
	}
	return uuid.New()
}
