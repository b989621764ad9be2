package api

import (
	"encoding/json"
	"net/http"

	"github.com/servicekit/go-service-template/errors"
	"github.com/servicekit/go-service-template/logger"
)

// maxBodyBytes bounds request bodies
const maxBodyBytes = 1 << 20

// errorResponse is the body of every non-2xx JSON response
type errorResponse struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message,omitempty"`
}

// writeJSON writes a JSON response with the given status code
func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		logger.Warnw("Failed to encode response", "error", err)
	}
}

// writeError maps err to a status and writes {"code": ...}. Internal
// errors are logged and their message is withheld from the client.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	code := codeFor(err)
	resp := errorResponse{Code: code, Message: err.Error()}

	if code == CodeInternal {
		logger.LoggerFromContext(r.Context()).Errorw("Request failed",
			"method", r.Method,
			"path", r.URL.Path,
			"error", err,
		)
		resp.Message = "internal server error"
	}
	writeJSON(w, code.Status(), resp)
}

// readJSON decodes a JSON request body into v
func readJSON(w http.ResponseWriter, r *http.Request, v interface{}) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return errors.NewInvalidRequestError("invalid request body: %v", err)
	}
	return nil
}

// writeText writes a plain text body
func writeText(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(body))
}
