package api

import "net/http"

// routes registers endpoints. Probes bypass authentication and rate limiting.
func (s *Server) routes() http.Handler {
	tasks := http.NewServeMux()
	tasks.HandleFunc("GET /tasks", s.handleListTasks)
	tasks.HandleFunc("POST /tasks", s.handleCreateTask)
	tasks.HandleFunc("GET /tasks/{id}", s.handleGetTask)
	tasks.HandleFunc("PUT /tasks/{id}", s.handleUpdateTask)
	tasks.HandleFunc("DELETE /tasks/{id}", s.handleDeleteTask)

	protected := s.limiter.Middleware(s.auth.RequireAuth(tasks))

	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("GET /ready", s.handleReady)
	mux.Handle("/tasks", protected)
	mux.Handle("/tasks/", protected)

	return requestLogging(s.logger, corsMiddleware(s.state.Config.CORS, mux))
}
