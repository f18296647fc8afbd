// Package errors provides error handling for arbor.
//
// This package re-exports github.com/cockroachdb/errors, providing stack
// traces, wrapping, hints and error marks. Domain packages declare their own
// sentinels and mark them with one of the shared categories below, so that
// transport code can classify an error without importing the domain:
//
//	var ErrNodeExists = errors.Mark(errors.New("node already exists"), errors.ErrConflict)
//
//	if errors.Is(err, errors.ErrConflict) {
//	    // 409
//	}
//
// For full documentation see: https://pkg.go.dev/github.com/cockroachdb/errors
package errors

import (
	crdb "github.com/cockroachdb/errors"
)

// Core error creation and wrapping
var (
	New          = crdb.New
	Newf         = crdb.Newf
	Wrap         = crdb.Wrap
	Wrapf        = crdb.Wrapf
	WithStack    = crdb.WithStack
	WithMessage  = crdb.WithMessage
	WithMessagef = crdb.WithMessagef
	Mark         = crdb.Mark
)

// User-facing messages and details
var (
	WithHint    = crdb.WithHint
	WithHintf   = crdb.WithHintf
	WithDetail  = crdb.WithDetail
	WithDetailf = crdb.WithDetailf
)

// Error inspection
var (
	Is            = crdb.Is
	IsAny         = crdb.IsAny
	As            = crdb.As
	Unwrap        = crdb.Unwrap
	UnwrapAll     = crdb.UnwrapAll
	GetAllHints   = crdb.GetAllHints
	GetAllDetails = crdb.GetAllDetails
	FlattenHints  = crdb.FlattenHints
)

// Stack traces
var (
	GetReportableStackTrace = crdb.GetReportableStackTrace
)

// Shared categories. Mark domain sentinels with these and test with Is().
var (
	// ErrNotFound indicates the referenced node, edge, session or menu does not exist
	ErrNotFound = New("not found")

	// ErrInvalidRequest indicates malformed input (bad JSON, empty ids, unknown kinds)
	ErrInvalidRequest = New("invalid request")

	// ErrConflict indicates the mutation would violate a uniqueness invariant
	ErrConflict = New("resource conflict")

	// ErrCancelled indicates the user dismissed a prompt
	ErrCancelled = New("cancelled")
)

// IsNotFoundError checks if an error is or is marked as ErrNotFound
func IsNotFoundError(err error) bool {
	return err != nil && Is(err, ErrNotFound)
}

// IsConflictError checks if an error is or is marked as ErrConflict
func IsConflictError(err error) bool {
	return err != nil && Is(err, ErrConflict)
}

// IsInvalidRequestError checks if an error is or is marked as ErrInvalidRequest
func IsInvalidRequestError(err error) bool {
	return err != nil && Is(err, ErrInvalidRequest)
}

// NewNotFoundError creates a not-found error with a formatted message
func NewNotFoundError(format string, args ...interface{}) error {
	return Mark(Newf(format, args...), ErrNotFound)
}

// NewInvalidRequestError creates an invalid-request error with a formatted message
func NewInvalidRequestError(format string, args ...interface{}) error {
	return Mark(Newf(format, args...), ErrInvalidRequest)
}
