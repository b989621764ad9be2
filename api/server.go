// Package api serves the task HTTP API.
package api

import (
	"context"
	"net"
	"net/http"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/servicekit/go-service-template/auth"
	"github.com/servicekit/go-service-template/config"
	"github.com/servicekit/go-service-template/errors"
)

// ServerState tracks the lifecycle for readiness reporting
type ServerState int32

const (
	ServerStateRunning ServerState = iota
	ServerStateDraining
	ServerStateStopped
)

func (s ServerState) String() string {
	switch s {
	case ServerStateRunning:
		return "running"
	case ServerStateDraining:
		return "draining"
	case ServerStateStopped:
		return "stopped"
	default:
		return "unknown"
	}
}

// Server wires handlers, middleware and the HTTP listener
type Server struct {
	state   *config.AppState
	auth    *auth.Middleware
	limiter *RateLimiter
	logger  *zap.SugaredLogger
	handler http.Handler
	http    *http.Server
	status  atomic.Int32
}

// NewServer builds the API server. jwt may be nil when auth is disabled.
func NewServer(state *config.AppState, jwt *auth.JWTManager, log *zap.SugaredLogger) *Server {
	if log == nil {
		log = zap.NewNop().Sugar()
	}

	s := &Server{
		state:   state,
		limiter: NewRateLimiter(state.Config.Server.RateLimit),
		logger:  log,
	}
	s.auth = auth.NewMiddleware(jwt, writeError, log.Named("auth"))
	s.handler = s.routes()
	s.status.Store(int32(ServerStateRunning))
	return s
}

// Handler returns the fully wrapped HTTP handler
func (s *Server) Handler() http.Handler {
	return s.handler
}

// State returns the current lifecycle state
func (s *Server) State() ServerState {
	return ServerState(s.status.Load())
}

func (s *Server) setState(state ServerState) {
	s.status.Store(int32(state))
	s.logger.Infow("Server state changed", "new_state", state.String())
}

// ApplyConfig applies the hot-reloadable parts of cfg
func (s *Server) ApplyConfig(cfg *config.Config) {
	s.limiter.SetLimit(cfg.Server.RateLimit)
	s.logger.Infow("Rate limit updated",
		"requests_per_second", cfg.Server.RateLimit.RequestsPerSecond,
		"burst", cfg.Server.RateLimit.Burst,
	)
}

// Serve accepts connections on ln until ctx is cancelled, then drains
// in-flight requests within the configured shutdown timeout.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	cfg := s.state.Config.Server
	s.http = &http.Server{
		Handler:      s.handler,
		ReadTimeout:  cfg.ReadTimeout(),
		WriteTimeout: cfg.WriteTimeout(),
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Infow("HTTP server listening", "address", ln.Addr().String())
		errCh <- s.http.Serve(ln)
	}()

	select {
	case err := <-errCh:
		s.setState(ServerStateStopped)
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return errors.Wrap(err, "http server failed")
	case <-ctx.Done():
	}

	s.setState(ServerStateDraining)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout())
	defer cancel()

	if err := s.http.Shutdown(shutdownCtx); err != nil {
		s.setState(ServerStateStopped)
		return errors.Wrap(err, "graceful shutdown failed")
	}
	s.setState(ServerStateStopped)
	s.logger.Infow("HTTP server stopped")
	return nil
}

// ListenAndServe listens on the configured address and calls Serve
func (s *Server) ListenAndServe(ctx context.Context) error {
	addr := s.state.Config.Server.Address()
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return errors.Wrapf(err, "failed to listen on %s", addr)
	}
	return s.Serve(ctx, ln)
}
