package apierr

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strings"
)

var (
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
	ErrValidation   = errors.New("validation error")
	ErrConflict     = errors.New("conflict")
	ErrNotFound     = errors.New("not found")
	ErrTransport    = errors.New("transport failure")
	ErrTransient    = errors.New("transient failure")
)

// Error is the normalized failure shape handed to components.
type Error struct {
	Status  int
	Message string
	kind    error
	cause   error
}

func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Status > 0 {
		return fmt.Sprintf("%s (status %d)", e.Message, e.Status)
	}
	return e.Message
}

// Is lets errors.Is match the marker the error was classified with.
func (e *Error) Is(target error) bool {
	return e != nil && e.kind != nil && target == e.kind
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.cause
}

// Kind returns the marker the error was classified with.
func (e *Error) Kind() error {
	if e == nil || e.kind == nil {
		return ErrTransient
	}
	return e.kind
}

// FromStatus classifies an HTTP status and server-provided message.
func FromStatus(status int, message string) *Error {
	message = strings.TrimSpace(message)
	kind := markerForStatus(status)
	if message == "" {
		if kind == ErrUnauthorized {
			message = "Unauthorized"
		} else {
			message = "An error occurred"
		}
	}
	return &Error{Status: status, Message: message, kind: kind}
}

// Wrap builds a normalized error that carries component context and is tagged
// with the provided marker. The marker should be one of the exported sentinels.
func Wrap(marker error, component, operation, message string, err error) error {
	if marker == nil {
		marker = ErrTransient
	}
	detail := buildDetail(component, operation, message)
	status := 0
	var existing *Error
	if errors.As(err, &existing) {
		status = existing.Status
	}
	return &Error{Status: status, Message: detail, kind: marker, cause: err}
}

// Validation reports a local, pre-network rejection.
func Validation(component, operation, message string) error {
	return Wrap(ErrValidation, component, operation, message, nil)
}

// Transport classifies a failure raised before any HTTP status was received.
func Transport(operation string, err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return &Error{Message: buildDetail("", operation, err.Error()), kind: ErrTransport, cause: err}
	}
	var urlErr *url.Error
	if errors.As(err, &urlErr) && urlErr.Err != nil {
		err = urlErr.Err
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return &Error{Message: buildDetail("", operation, "api unreachable"), kind: ErrTransport, cause: err}
	}
	return &Error{Message: buildDetail("", operation, err.Error()), kind: ErrTransport, cause: err}
}

// Normalize returns the normalized shape for any error. Unknown errors are
// reported as transient with status 0.
func Normalize(err error) *Error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return &Error{Message: strings.TrimSpace(err.Error()), kind: ErrTransient, cause: err}
}

func IsUnauthorized(err error) bool { return errors.Is(err, ErrUnauthorized) }

func IsConflict(err error) bool { return errors.Is(err, ErrConflict) }

func IsForbidden(err error) bool { return errors.Is(err, ErrForbidden) }

func IsNotFound(err error) bool { return errors.Is(err, ErrNotFound) }

func IsValidation(err error) bool { return errors.Is(err, ErrValidation) }

func markerForStatus(status int) error {
	switch {
	case status == http.StatusUnauthorized:
		return ErrUnauthorized
	case status == http.StatusForbidden:
		return ErrForbidden
	case status == http.StatusNotFound:
		return ErrNotFound
	case status == http.StatusConflict:
		return ErrConflict
	case status == http.StatusBadRequest, status == http.StatusUnprocessableEntity:
		return ErrValidation
	default:
		return ErrTransient
	}
}

func buildDetail(component, operation, message string) string {
	parts := make([]string, 0, 3)
	if component = strings.TrimSpace(component); component != "" {
		parts = append(parts, component)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "request failed"
	}
	return strings.Join(parts, ": ")
}
