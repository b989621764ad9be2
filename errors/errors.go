// Package errors is the single error vocabulary of the service and its tooling.
//
// It re-exports github.com/cockroachdb/errors so every package gets stack
// traces, wrapping and user hints from one import:
//
//	if err := repo.Create(ctx, t); err != nil {
//	    return errors.Wrap(err, "failed to create task")
//	}
//
//	return errors.WithHint(err, "set GITHUB_TOKEN before running create")
//
// Sentinel errors below classify failures for transport mapping. Wrap them
// instead of inventing new strings so errors.Is keeps working across layers.
package errors

import (
	crdb "github.com/cockroachdb/errors"
)

// Creation and wrapping
var (
	New          = crdb.New
	Newf         = crdb.Newf
	Wrap         = crdb.Wrap
	Wrapf        = crdb.Wrapf
	WithStack    = crdb.WithStack
	WithMessage  = crdb.WithMessage
	WithMessagef = crdb.WithMessagef
)

// Hints and details shown to operators
var (
	WithHint    = crdb.WithHint
	WithHintf   = crdb.WithHintf
	WithDetail  = crdb.WithDetail
	WithDetailf = crdb.WithDetailf
	GetAllHints = crdb.GetAllHints

	WithSecondaryError = crdb.WithSecondaryError
)

// Inspection
var (
	Is        = crdb.Is
	IsAny     = crdb.IsAny
	As        = crdb.As
	Unwrap    = crdb.Unwrap
	UnwrapAll = crdb.UnwrapAll
	Join      = crdb.Join
)

// Sentinel errors. Check with errors.Is after any amount of wrapping.
var (
	// ErrNotFound indicates the requested entity does not exist
	ErrNotFound = New("not found")

	// ErrInvalidRequest indicates malformed input or a failed validation rule
	ErrInvalidRequest = New("invalid request")

	// ErrUnauthorized indicates missing or rejected credentials
	ErrUnauthorized = New("unauthorized")

	// ErrConflict indicates the target already exists
	ErrConflict = New("resource conflict")

	// ErrServiceUnavailable indicates a dependency failed its health check
	ErrServiceUnavailable = New("service unavailable")
)

// IsNotFoundError reports whether err is or wraps ErrNotFound.
func IsNotFoundError(err error) bool {
	return err != nil && Is(err, ErrNotFound)
}

// IsInvalidRequestError reports whether err is or wraps ErrInvalidRequest.
func IsInvalidRequestError(err error) bool {
	return err != nil && Is(err, ErrInvalidRequest)
}

// NewNotFoundError creates a not-found error with a formatted message.
func NewNotFoundError(format string, args ...interface{}) error {
	return Wrap(ErrNotFound, Newf(format, args...).Error())
}

// NewInvalidRequestError creates an invalid-request error with a formatted message.
func NewInvalidRequestError(format string, args ...interface{}) error {
	return Wrap(ErrInvalidRequest, Newf(format, args...).Error())
}

// NewConflictError creates a conflict error with a formatted message.
func NewConflictError(format string, args ...interface{}) error {
	return Wrap(ErrConflict, Newf(format, args...).Error())
}
