package apperror

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies an error into the small set of client-visible categories.
type Kind int

const (
	KindValidation Kind = iota
	KindUnauthenticated
	KindForbidden
	KindNotFound
	KindDuplicate
	KindFatal
)

// Error is an operational error that is safe to translate into a client
// response. Anything that is not an *Error degrades to a generic 500.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// StatusCode maps the error kind to an HTTP status code.
func (e *Error) StatusCode() int {
	switch e.Kind {
	case KindValidation, KindDuplicate:
		return http.StatusBadRequest
	case KindUnauthenticated:
		return http.StatusUnauthorized
	case KindForbidden:
		return http.StatusForbidden
	case KindNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// Status returns the envelope status class: "fail" for 4xx, "error" for 5xx.
func (e *Error) Status() string {
	if e.StatusCode() < http.StatusInternalServerError {
		return "fail"
	}
	return "error"
}

func Validation(message string) *Error {
	return &Error{Kind: KindValidation, Message: message}
}

func Unauthenticated(message string) *Error {
	return &Error{Kind: KindUnauthenticated, Message: message}
}

func Forbidden(message string) *Error {
	return &Error{Kind: KindForbidden, Message: message}
}

func NotFound(message string) *Error {
	return &Error{Kind: KindNotFound, Message: message}
}

func Duplicate(message string) *Error {
	return &Error{Kind: KindDuplicate, Message: message}
}

func Fatal(err error) *Error {
	return &Error{Kind: KindFatal, Message: "something went very wrong", Err: err}
}

// From extracts an *Error from err, or nil if it is not operational.
func From(err error) *Error {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr
	}
	return nil
}
