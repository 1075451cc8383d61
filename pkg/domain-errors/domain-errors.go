// Package domainerrors carries stable failure codes from services to the
// transport layer. Stores return sentinel errors; services translate them into
// a coded *Error exactly once and handlers map the code to a status.
package domainerrors

import (
	"context"
	"errors"
	"fmt"
)

type Code string

const (
	CodeNotFound     Code = "not_found"
	CodeBadRequest   Code = "bad_request"
	CodeInvalidInput Code = "invalid_input"
	CodeValidation   Code = "validation_failed"
	CodeConflict     Code = "conflict"
	CodeInvalidState Code = "invalid_state"
	CodeUnauthorized Code = "unauthorized"
	CodeInternal     Code = "internal_error"
	CodeUnavailable  Code = "unavailable"
	CodeTimeout      Code = "timeout"

	// Remote collaborator rejections surfaced to the registration flow.
	CodeVerificationFailed Code = "verification_failed" // one-time code rejected, expired, or not delivered
	CodeSubmissionFailed   Code = "submission_failed"   // account creation rejected
)

type Error struct {
	Code    Code
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return string(e.Code)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches another *Error by code only, so errors.Is(err, &Error{Code: c})
// works regardless of message.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

func New(code Code, msg string) error {
	return &Error{Code: code, Message: msg}
}

func Newf(code Code, format string, args ...any) error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap attaches msg to err. An existing domain code wins over code; use New to
// change the code of an already-coded failure.
func Wrap(err error, code Code, msg string) error {
	var existing *Error
	if errors.As(err, &existing) {
		return &Error{Code: existing.Code, Message: msg, Err: err}
	}
	return &Error{Code: code, Message: msg, Err: err}
}

// HasCode reports whether err carries code. Uncoded errors never match.
func HasCode(err error, code Code) bool {
	var e *Error
	return errors.As(err, &e) && e.Code == code
}

// CodeOf returns the code carried by err. A context deadline without a code
// is CodeTimeout; any other uncoded error is CodeInternal.
func CodeOf(err error) Code {
	var e *Error
	switch {
	case errors.As(err, &e):
		return e.Code
	case errors.Is(err, context.DeadlineExceeded):
		return CodeTimeout
	default:
		return CodeInternal
	}
}
