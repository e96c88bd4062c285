// Package bizerr holds the error kinds the API reports to its clients.
//
// Every kind carries a stable numeric code and a message that is safe to
// show to a client. The underlying cause, if any, is kept for logging and
// never rendered.
package bizerr

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind identifies a class of business error.
type Kind int8

const (
	KindInternal Kind = iota
	KindValidation
	KindArgument
)

// Application codes carried in the response envelope.
const (
	CodeInternal   = 10000
	CodeValidation = 10001
	CodeArgument   = 10002
)

const (
	internalMessage = "An internal error occurred. Please try again later."
	argumentMessage = "argument error"
)

// Error is a business error with a client-facing code and message.
type Error struct {
	Kind  Kind
	Field string // validated field, KindValidation only
	Err   error  // underlying cause, logged but never rendered
}

// Validation reports that field is missing or malformed.
func Validation(field string) *Error {
	return &Error{Kind: KindValidation, Field: field}
}

// Argument reports a request body that could not be decoded.
func Argument(cause error) *Error {
	return &Error{Kind: KindArgument, Err: cause}
}

// Internal wraps a storage or other server-side failure.
func Internal(cause error) *Error {
	return &Error{Kind: KindInternal, Err: cause}
}

// Error returns the client-facing message.
func (e *Error) Error() string {
	switch e.Kind {
	case KindValidation:
		return fmt.Sprintf("Validation error on field: %s", e.Field)
	case KindArgument:
		return argumentMessage
	default:
		return internalMessage
	}
}

func (e *Error) Unwrap() error { return e.Err }

// Code returns the envelope code of e.
func (e *Error) Code() int {
	switch e.Kind {
	case KindValidation:
		return CodeValidation
	case KindArgument:
		return CodeArgument
	default:
		return CodeInternal
	}
}

// Status returns the HTTP status e is rendered with.
func (e *Error) Status() int {
	if e.Kind == KindInternal {
		return http.StatusInternalServerError
	}

	return http.StatusBadRequest
}

// As extracts a *Error from err. Any other non-nil error is reported as an
// internal error wrapping it.
func As(err error) *Error {
	if err == nil {
		return nil
	}

	var be *Error
	if errors.As(err, &be) {
		return be
	}

	return Internal(err)
}

// Code returns the envelope code for err, 0 for nil.
func Code(err error) int {
	if err == nil {
		return 0
	}

	return As(err).Code()
}

// Status returns the HTTP status for err, 200 for nil.
func Status(err error) int {
	if err == nil {
		return http.StatusOK
	}

	return As(err).Status()
}

// Message returns the client-facing message for err.
func Message(err error) string {
	if err == nil {
		return "ok"
	}

	return As(err).Error()
}
