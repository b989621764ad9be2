package api

import (
	"context"
	"net/http"
	"time"

	"github.com/servicekit/go-service-template/domain/health"
	"github.com/servicekit/go-service-template/errors"
)

// readinessTimeout bounds dependency checks for one probe
const readinessTimeout = 2 * time.Second

// handleHealth is the liveness probe
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeText(w, http.StatusOK, "OK")
}

// handleReady is the readiness probe
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if state := s.State(); state != ServerStateRunning {
		writeError(w, r, errors.Wrapf(errors.ErrServiceUnavailable, "server is %s", state))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), readinessTimeout)
	defer cancel()

	if err := health.CheckReadiness(ctx, s.state.TaskRepository, s.state.EventProducer); err != nil {
		s.logger.Warnw("Readiness check failed", "error", err)
		writeError(w, r, err)
		return
	}
	writeText(w, http.StatusOK, "Ready")
}
