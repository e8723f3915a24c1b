// Package domainerrors provides coded errors for the dokflyt domain.
//
// Services return these so handlers and consumers can translate failures
// without string matching. Infrastructure facts (row missing, version
// conflict) live in pkg/platform/sentinel; services wrap them into coded
// errors at the service boundary.
package domainerrors

import (
	"errors"
	"fmt"
	"net/http"
)

// Code classifies a domain failure.
type Code string

const (
	// CodeValidation covers ineligible deviation kinds, missing required
	// details, and malformed return-log edits. Surfaced as a client error.
	CodeValidation Code = "validation"

	// CodeBadRequest covers unparseable or structurally invalid input at the
	// transport boundary.
	CodeBadRequest Code = "bad_request"

	// CodeNotFound means a referenced journalpost or task does not exist.
	CodeNotFound Code = "not_found"

	// CodeConflict marks already-done outcomes (distribution already ordered,
	// return already registered for the date). Callers generally treat these
	// as success.
	CodeConflict Code = "conflict"

	// CodeRetryable marks a transient condition worth retrying in-process,
	// such as a return marker not yet visible in the archive.
	CodeRetryable Code = "retryable"

	// CodeDownstream means an archive, dispatch, or task call failed. The
	// current operation fails; prior side effects are not rolled back.
	CodeDownstream Code = "downstream"

	// CodeUnauthorized means the caller identity is missing or invalid.
	CodeUnauthorized Code = "unauthorized"

	// CodeInternal is the fallback for unexpected failures.
	CodeInternal Code = "internal"
)

// Error is a coded domain error. Construct via New, Newf or Wrap.
type Error struct {
	Code    Code
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// New creates a coded error with a message.
func New(code Code, message string) error {
	return &Error{Code: code, Message: message}
}

// Newf creates a coded error with a formatted message.
func Newf(code Code, format string, args ...any) error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap attaches a code and message to an underlying error. The underlying
// error stays reachable through errors.Unwrap.
func Wrap(err error, code Code, message string) error {
	if err == nil {
		return nil
	}
	return &Error{Code: code, Message: message, Err: err}
}

// HasCode reports whether any error in the chain carries the given code.
func HasCode(err error, code Code) bool {
	var de *Error
	if errors.As(err, &de) {
		return de.Code == code
	}
	return false
}

// Is is an alias for HasCode kept for call-site readability in tests.
func Is(err error, code Code) bool {
	return HasCode(err, code)
}

// CodeOf extracts the code from an error chain, defaulting to CodeInternal.
func CodeOf(err error) Code {
	var de *Error
	if errors.As(err, &de) {
		return de.Code
	}
	return CodeInternal
}

// ToHTTPStatus maps a code to the HTTP status the thin transport layer
// should answer with.
func ToHTTPStatus(code Code) int {
	switch code {
	case CodeValidation, CodeBadRequest:
		return http.StatusBadRequest
	case CodeNotFound:
		return http.StatusNotFound
	case CodeConflict:
		return http.StatusConflict
	case CodeUnauthorized:
		return http.StatusUnauthorized
	case CodeRetryable, CodeDownstream:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
