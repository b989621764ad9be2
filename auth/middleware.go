package auth

import (
	"context"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/servicekit/go-service-template/errors"
)

type contextKey string

// UserContextKey holds the *Claims of the authenticated caller
const UserContextKey contextKey = "auth_user"

// ErrorWriter renders an authentication failure
type ErrorWriter func(w http.ResponseWriter, r *http.Request, err error)

// Middleware enforces bearer authentication. A nil JWTManager disables it.
type Middleware struct {
	jwt     *JWTManager
	onError ErrorWriter
	logger  *zap.SugaredLogger
}

// NewMiddleware creates the middleware. Pass a nil manager when auth is disabled.
func NewMiddleware(manager *JWTManager, onError ErrorWriter, logger *zap.SugaredLogger) *Middleware {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	if onError == nil {
		onError = func(w http.ResponseWriter, _ *http.Request, _ error) {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
		}
	}
	return &Middleware{jwt: manager, onError: onError, logger: logger}
}

// RequireAuth rejects requests without a valid token and stores the
// caller's claims in the request context.
func (m *Middleware) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if m.jwt == nil {
			next.ServeHTTP(w, r)
			return
		}

		token := extractToken(r)
		if token == "" {
			m.onError(w, r, errors.Wrap(errors.ErrUnauthorized, "missing bearer token"))
			return
		}

		claims, err := m.jwt.ValidateToken(token)
		if err != nil {
			m.logger.Debugw("Token validation failed", "error", err)
			m.onError(w, r, err)
			return
		}

		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), UserContextKey, claims)))
	})
}

// UserFromContext returns the authenticated caller, if any
func UserFromContext(ctx context.Context) (*Claims, bool) {
	claims, ok := ctx.Value(UserContextKey).(*Claims)
	return claims, ok
}

func extractToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if len(header) > 7 && strings.EqualFold(header[:7], "bearer ") {
		return strings.TrimSpace(header[7:])
	}
	return ""
}
