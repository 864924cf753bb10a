// Package apperr defines the error taxonomy shared by every store and
// handler. Business code returns one of these kinds at the point of
// detection; the HTTP layer translates the kind to a status code in a
// single place. Anything that is not an *Error is treated as internal.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

type Kind int

const (
	KindInternal Kind = iota
	KindValidation
	KindAuthorization
	KindNotFound
	KindConflict
	KindInsufficientStock
)

type Error struct {
	Kind Kind
	Msg  string

	// Available carries the remaining quantity for insufficient-stock
	// failures so the client can show it. -1 when not applicable.
	Available int

	Err error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Msg, e.Err)
	}
	return e.Msg
}

func (e *Error) Unwrap() error { return e.Err }

func New(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...), Available: -1}
}

func Wrap(kind Kind, err error, format string, args ...any) *Error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...), Available: -1, Err: err}
}

// Validationf reports malformed or missing input.
func Validationf(format string, args ...any) *Error {
	return New(KindValidation, format, args...)
}

// Authorizationf reports a caller that lacks permission or is blocked.
func Authorizationf(format string, args ...any) *Error {
	return New(KindAuthorization, format, args...)
}

// NotFoundf reports a referenced entity that does not exist.
func NotFoundf(format string, args ...any) *Error {
	return New(KindNotFound, format, args...)
}

// Conflictf reports a uniqueness violation.
func Conflictf(format string, args ...any) *Error {
	return New(KindConflict, format, args...)
}

// InsufficientStock reports a request for more units than remain.
func InsufficientStock(available int, format string, args ...any) *Error {
	e := New(KindInsufficientStock, format, args...)
	e.Available = available
	return e
}

// Internalf wraps an unexpected failure. The message is logged server side
// and withheld from clients.
func Internalf(err error, format string, args ...any) *Error {
	return Wrap(KindInternal, err, format, args...)
}

// KindOf extracts the kind from err, defaulting to KindInternal for
// errors outside the taxonomy.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// IsKind reports whether err carries the given kind.
func IsKind(err error, kind Kind) bool {
	return KindOf(err) == kind
}

// HTTPStatus maps a kind to the status code the boundary returns.
func HTTPStatus(err error) int {
	switch KindOf(err) {
	case KindValidation, KindInsufficientStock:
		return http.StatusBadRequest
	case KindAuthorization:
		return http.StatusForbidden
	case KindNotFound:
		return http.StatusNotFound
	case KindConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
