// Package apperr defines the error taxonomy shared by all domain services:
// validation, not-found, conflict and transient (retryable) failures.
// Repositories translate storage errors into this taxonomy so that raw
// driver errors never reach a handler.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ValidationError reports malformed input: an invalid time window, an
// unknown status transition, a negative amount. Never retryable.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string { return e.Msg }

func Validation(format string, args ...interface{}) error {
	return &ValidationError{Msg: fmt.Sprintf(format, args...)}
}

// NotFoundError reports a reference to a row that does not exist.
type NotFoundError struct {
	Entity string
	ID     string
}

func (e *NotFoundError) Error() string {
	if e.ID == "" {
		return e.Entity + " not found"
	}
	return fmt.Sprintf("%s %s not found", e.Entity, e.ID)
}

func NotFound(entity string, id string) error {
	return &NotFoundError{Entity: entity, ID: id}
}

// ConflictingSlot identifies an appointment whose time window blocks a
// booking request.
type ConflictingSlot struct {
	AppointmentID uuid.UUID `json:"appointment_id"`
	StartTime     time.Time `json:"start_time"`
	EndTime       time.Time `json:"end_time"`
}

// ConflictError reports a state conflict: an overlapping appointment
// window or a unique-constraint violation. The caller may retry with
// different input, but not with the same request.
type ConflictError struct {
	Msg       string
	Conflicts []ConflictingSlot
}

func (e *ConflictError) Error() string { return e.Msg }

func Conflict(format string, args ...interface{}) error {
	return &ConflictError{Msg: fmt.Sprintf(format, args...)}
}

// Overlap builds a ConflictError naming each appointment that blocks the
// requested window.
func Overlap(conflicts []ConflictingSlot) error {
	ids := make([]string, len(conflicts))
	for i, c := range conflicts {
		ids[i] = fmt.Sprintf("%s [%s, %s)", c.AppointmentID,
			c.StartTime.Format(time.RFC3339), c.EndTime.Format(time.RFC3339))
	}
	return &ConflictError{
		Msg:       "appointment window overlaps existing appointment(s): " + strings.Join(ids, ", "),
		Conflicts: conflicts,
	}
}

// TransientError reports a retryable storage condition: lock timeout,
// deadlock, serialization failure. Retry wraps operations that may
// return it.
type TransientError struct {
	Cause error
}

func (e *TransientError) Error() string { return "transient storage error: " + e.Cause.Error() }
func (e *TransientError) Unwrap() error { return e.Cause }

func Transient(cause error) error {
	return &TransientError{Cause: cause}
}

func IsValidation(err error) bool {
	var v *ValidationError
	return errors.As(err, &v)
}

func IsNotFound(err error) bool {
	var n *NotFoundError
	return errors.As(err, &n)
}

func IsConflict(err error) bool {
	var c *ConflictError
	return errors.As(err, &c)
}

func IsTransient(err error) bool {
	var t *TransientError
	return errors.As(err, &t)
}

// HTTPStatus maps a taxonomy error to its response status. Unknown
// errors map to 500. Exhausted transient errors surface as 409 so that
// callers can distinguish "retry later" from a hard failure.
func HTTPStatus(err error) int {
	switch {
	case IsValidation(err):
		return http.StatusBadRequest
	case IsNotFound(err):
		return http.StatusNotFound
	case IsConflict(err):
		return http.StatusConflict
	case IsTransient(err):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// Payload builds the wire shape for an error response: a machine-readable
// kind, a message, and for overlap conflicts the blocking windows.
func Payload(err error) map[string]interface{} {
	p := map[string]interface{}{
		"kind":    Kind(err),
		"message": err.Error(),
	}
	var c *ConflictError
	if errors.As(err, &c) && len(c.Conflicts) > 0 {
		p["conflicts"] = c.Conflicts
	}
	return p
}

// Kind returns the machine-readable taxonomy name for an error.
func Kind(err error) string {
	switch {
	case IsValidation(err):
		return "validation"
	case IsNotFound(err):
		return "not_found"
	case IsConflict(err):
		return "conflict"
	case IsTransient(err):
		return "transient"
	default:
		return "internal"
	}
}
