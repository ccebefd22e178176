package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind is the closed set of error categories the service can surface.
// Every kind maps to exactly one HTTP status; the transport layer never
// invents statuses on its own.
type Kind string

const (
	KindInvalidInput    Kind = "INVALID_INPUT"
	KindValidation      Kind = "VALIDATION"
	KindUnauthenticated Kind = "UNAUTHENTICATED"
	KindMFARequired     Kind = "MFA_REQUIRED"
	KindForbidden       Kind = "FORBIDDEN"
	KindNotFound        Kind = "NOT_FOUND"
	KindConflict        Kind = "CONFLICT"
	KindDatabase        Kind = "DATABASE"
	KindInternal        Kind = "INTERNAL"
)

// Status returns the HTTP status code for the kind.
func (k Kind) Status() int {
	switch k {
	case KindInvalidInput, KindValidation:
		return http.StatusBadRequest
	case KindUnauthenticated, KindMFARequired:
		return http.StatusUnauthorized
	case KindForbidden:
		return http.StatusForbidden
	case KindNotFound:
		return http.StatusNotFound
	case KindConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// Error carries a kind, a client-safe message and an optional wrapped cause.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is makes errors.Is match on kind, so sentinel-style comparisons like
// errors.Is(err, apperr.NotFound("")) work regardless of message.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return e.Kind == t.Kind
}

// New builds an error of the given kind.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Wrap attaches a cause to an error of the given kind.
func Wrap(kind Kind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

func InvalidInput(message string) *Error { return New(KindInvalidInput, message) }
func Validation(message string) *Error   { return New(KindValidation, message) }
func Forbidden(message string) *Error    { return New(KindForbidden, message) }
func NotFound(message string) *Error     { return New(KindNotFound, message) }
func Conflict(message string) *Error     { return New(KindConflict, message) }

// Unauthenticated deliberately carries one generic message for all
// credential failures so the response never reveals which check failed.
func Unauthenticated() *Error {
	return New(KindUnauthenticated, "invalid credentials")
}

// MFARequired tells the client to re-submit the login with a TOTP code.
func MFARequired() *Error {
	return New(KindMFARequired, "mfa code required")
}

func Database(message string, err error) *Error {
	return Wrap(KindDatabase, message, err)
}

func Internal(message string, err error) *Error {
	return Wrap(KindInternal, message, err)
}

// KindOf extracts the kind from any error. Errors that did not come from
// this package are treated as Internal.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// StatusOf maps any error to its HTTP status via KindOf.
func StatusOf(err error) int {
	return KindOf(err).Status()
}

// MessageOf returns the client-safe message. Server-side kinds collapse to
// a generic message so internals never leak into responses.
func MessageOf(err error) string {
	kind := KindOf(err)
	if kind == KindDatabase || kind == KindInternal {
		return "internal server error"
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return "internal server error"
}
