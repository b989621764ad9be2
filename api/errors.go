package api

import (
	"net/http"

	"github.com/servicekit/go-service-template/db"
	"github.com/servicekit/go-service-template/errors"
)

// ErrorCode is the machine-readable error identifier in response bodies
type ErrorCode string

const (
	CodeBadRequest         ErrorCode = "BadRequest"
	CodeUnauthorized       ErrorCode = "Unauthorized"
	CodeNotFound           ErrorCode = "NotFound"
	CodeConflict           ErrorCode = "Conflict"
	CodeTooManyRequests    ErrorCode = "TooManyRequests"
	CodeServiceUnavailable ErrorCode = "ServiceUnavailable"
	CodeInternal           ErrorCode = "Internal"
)

// errTooManyRequests is raised by the rate limiter
var errTooManyRequests = errors.New("too many requests")

// Status returns the HTTP status for the code
func (c ErrorCode) Status() int {
	switch c {
	case CodeBadRequest:
		return http.StatusBadRequest
	case CodeUnauthorized:
		return http.StatusUnauthorized
	case CodeNotFound:
		return http.StatusNotFound
	case CodeConflict:
		return http.StatusConflict
	case CodeTooManyRequests:
		return http.StatusTooManyRequests
	case CodeServiceUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// codeFor classifies err by the sentinel it wraps
func codeFor(err error) ErrorCode {
	switch {
	case errors.Is(err, errors.ErrInvalidRequest):
		return CodeBadRequest
	case errors.Is(err, errors.ErrUnauthorized):
		return CodeUnauthorized
	case errors.Is(err, errors.ErrNotFound):
		return CodeNotFound
	case errors.Is(err, errors.ErrConflict):
		return CodeConflict
	case errors.Is(err, errTooManyRequests):
		return CodeTooManyRequests
	case errors.Is(err, errors.ErrServiceUnavailable), db.IsDatabaseClosed(err):
		return CodeServiceUnavailable
	default:
		return CodeInternal
	}
}
