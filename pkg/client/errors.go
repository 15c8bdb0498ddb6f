// Package client is the Go SDK for the workshop management API. It mirrors
// what the web frontend does: a session store with change subscriptions, a
// permission gate deciding what is rendered, and a list view controller
// handling pagination, filters and debounced search.
package client

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies an API failure so callers can branch without inspecting
// status codes.
type Kind int

const (
	KindNetwork Kind = iota
	KindUnauthorized
	KindForbidden
	KindNotFound
	KindValidation
	KindConflict
	KindServer
)

func (k Kind) String() string {
	switch k {
	case KindNetwork:
		return "network"
	case KindUnauthorized:
		return "unauthorized"
	case KindForbidden:
		return "forbidden"
	case KindNotFound:
		return "not_found"
	case KindValidation:
		return "validation"
	case KindConflict:
		return "conflict"
	default:
		return "server"
	}
}

// Error is a classified API failure.
type Error struct {
	Kind    Kind
	Status  int
	Code    string
	Message string
	cause   error
}

func (e *Error) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s: %s", e.Kind, e.Message)
	}
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.Kind, e.cause)
	}
	return e.Kind.String()
}

func (e *Error) Unwrap() error {
	return e.cause
}

// IsUnauthorized reports whether the error means the session is no longer
// valid and the user must log in again.
func IsUnauthorized(err error) bool {
	var apiErr *Error
	return errors.As(err, &apiErr) && apiErr.Kind == KindUnauthorized
}

func networkError(err error) *Error {
	return &Error{Kind: KindNetwork, cause: err}
}

func classify(status int, code, message string) *Error {
	kind := KindServer
	switch {
	case status == http.StatusUnauthorized:
		kind = KindUnauthorized
	case status == http.StatusForbidden:
		kind = KindForbidden
	case status == http.StatusNotFound:
		kind = KindNotFound
	case status == http.StatusConflict:
		kind = KindConflict
	case status >= 400 && status < 500:
		kind = KindValidation
	}
	return &Error{Kind: kind, Status: status, Code: code, Message: message}
}
