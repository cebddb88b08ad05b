package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// FieldError describes a single rule violation attributed to an input field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError accumulates every failing field of a request so the caller
// can surface all problems at once instead of just the first.
type ValidationError struct {
	Fields []FieldError
}

func NewValidation() *ValidationError {
	return &ValidationError{}
}

// Add records a rule violation for the given field.
func (e *ValidationError) Add(field, message string) {
	e.Fields = append(e.Fields, FieldError{Field: field, Message: message})
}

// Merge appends another ValidationError's fields, prefixing each field name.
// Used to fold per-item errors into a parent draft error as items[i].field.
func (e *ValidationError) Merge(prefix string, other *ValidationError) {
	if other == nil {
		return
	}
	for _, f := range other.Fields {
		field := f.Field
		if prefix != "" {
			field = prefix + "." + f.Field
		}
		e.Fields = append(e.Fields, FieldError{Field: field, Message: f.Message})
	}
}

// HasErrors reports whether any field violation was recorded.
func (e *ValidationError) HasErrors() bool {
	return len(e.Fields) > 0
}

// ErrOrNil returns the error itself when violations exist, nil otherwise.
func (e *ValidationError) ErrOrNil() error {
	if e.HasErrors() {
		return e
	}
	return nil
}

// Details returns the violations as a field -> message map for API responses.
func (e *ValidationError) Details() map[string]string {
	details := make(map[string]string, len(e.Fields))
	for _, f := range e.Fields {
		if _, ok := details[f.Field]; !ok {
			details[f.Field] = f.Message
		}
	}
	return details
}

func (e *ValidationError) Error() string {
	msgs := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		msgs = append(msgs, f.Field+": "+f.Message)
	}
	return "validation failed: " + strings.Join(msgs, "; ")
}

// InvalidStateError is returned when an invoice carries an unknown status or
// attempts a transition outside the canonical transition table.
type InvalidStateError struct {
	Status string // unknown status value, if that is the failure
	From   string
	To     string
}

func (e *InvalidStateError) Error() string {
	if e.Status != "" {
		return fmt.Sprintf("invalid invoice status %q", e.Status)
	}
	return fmt.Sprintf("invalid status transition %s -> %s", e.From, e.To)
}

// NotFoundError is returned when a referenced resource does not exist.
type NotFoundError struct {
	Resource string
	Err      error
}

func NewNotFound(resource string, err error) *NotFoundError {
	return &NotFoundError{Resource: resource, Err: err}
}

func (e *NotFoundError) Error() string {
	return e.Resource + " not found"
}

func (e *NotFoundError) Unwrap() error { return e.Err }

// AuthError is returned for missing, invalid, or expired credentials.
type AuthError struct {
	Reason string
}

func NewAuth(reason string) *AuthError {
	return &AuthError{Reason: reason}
}

func (e *AuthError) Error() string { return e.Reason }

// TransportError wraps storage or downstream failures that are not caused by
// the request itself and may succeed on retry.
type TransportError struct {
	Op  string
	Err error
}

func NewTransport(op string, err error) *TransportError {
	return &TransportError{Op: op, Err: err}
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s failed: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// HTTPStatus maps a taxonomy error to its response status code.
func HTTPStatus(err error) int {
	var (
		validation *ValidationError
		state      *InvalidStateError
		notFound   *NotFoundError
		auth       *AuthError
		transport  *TransportError
	)
	switch {
	case errors.As(err, &validation):
		return http.StatusUnprocessableEntity
	case errors.As(err, &state):
		return http.StatusConflict
	case errors.As(err, &notFound):
		return http.StatusNotFound
	case errors.As(err, &auth):
		return http.StatusUnauthorized
	case errors.As(err, &transport):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
