// internal/errors/mapper.go
package errors

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"gorm.io/gorm"
)

// Kind classifies an application error so the transport layer can pick a
// status code without inspecting error strings.
type Kind int

const (
	KindInternal Kind = iota
	// KindValidation covers malformed input: unknown tag id, non-leaf tag,
	// unknown trait, over-limit sets, bad boundary value.
	KindValidation
	// KindState covers operations not allowed for the current user status.
	KindState
	KindNotFound
	// KindConflict covers duplicate vetoes, duplicate scheduled times and
	// self-vetoes.
	KindConflict
	// KindTransient covers storage unavailability; retried on background
	// paths, surfaced on request paths.
	KindTransient
)

// Error carries a kind alongside the underlying cause.
type Error struct {
	Kind Kind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Msg, e.Err)
	}
	return e.Msg
}

func (e *Error) Unwrap() error { return e.Err }

func Validation(msg string) error { return &Error{Kind: KindValidation, Msg: msg} }
func State(msg string) error      { return &Error{Kind: KindState, Msg: msg} }
func NotFound(msg string) error   { return &Error{Kind: KindNotFound, Msg: msg} }
func Conflict(msg string) error   { return &Error{Kind: KindConflict, Msg: msg} }

func Transient(msg string, err error) error {
	return &Error{Kind: KindTransient, Msg: msg, Err: err}
}

// KindOf extracts the kind from an error chain, defaulting to KindInternal.
func KindOf(err error) Kind {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return KindInternal
}

// Status converts repo/infra errors into an HTTP status code and a safe
// message. Keeps handlers clean by centralizing error mapping.
func Status(err error) (int, string) {
	if err == nil {
		return http.StatusOK, ""
	}

	var appErr *Error
	if errors.As(err, &appErr) {
		switch appErr.Kind {
		case KindValidation, KindState:
			return http.StatusBadRequest, appErr.Msg
		case KindNotFound:
			return http.StatusNotFound, appErr.Msg
		case KindConflict:
			return http.StatusConflict, appErr.Msg
		case KindTransient:
			return http.StatusServiceUnavailable, appErr.Msg
		}
	}

	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return http.StatusNotFound, "record not found"

	case errors.Is(err, gorm.ErrDuplicatedKey):
		return http.StatusConflict, "record already exists"

	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, "request timed out"

	case errors.Is(err, context.Canceled):
		return http.StatusRequestTimeout, "request was canceled"

	default:
		return http.StatusInternalServerError, "internal error"
	}
}
