// Package failure defines the error taxonomy shared by the calendar client core.
//
// Validation and state failures are detected locally and returned as typed
// values; permission and transport failures originate at the backend; fatal
// failures flag precondition violations that indicate an upstream bug.
package failure

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// ValidationError captures field level validation issues that callers can render inline.
type ValidationError struct {
	FieldErrors map[string]string
}

// Error implements the error interface.
func (v *ValidationError) Error() string {
	if v == nil || len(v.FieldErrors) == 0 {
		return "validation failed"
	}
	fields := make([]string, 0, len(v.FieldErrors))
	for field := range v.FieldErrors {
		fields = append(fields, field)
	}
	sort.Strings(fields)
	parts := make([]string, 0, len(fields))
	for _, field := range fields {
		parts = append(parts, field+": "+v.FieldErrors[field])
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// HasErrors reports whether any field level issues were recorded.
func (v *ValidationError) HasErrors() bool {
	return v != nil && len(v.FieldErrors) > 0
}

// Add records a field level validation error. The first message per field wins.
func (v *ValidationError) Add(field, message string) {
	if v.FieldErrors == nil {
		v.FieldErrors = make(map[string]string)
	}
	if _, exists := v.FieldErrors[field]; exists {
		return
	}
	v.FieldErrors[field] = message
}

// Merge copies entries from another validation error into the receiver.
func (v *ValidationError) Merge(other *ValidationError) {
	if other == nil {
		return
	}
	for field, msg := range other.FieldErrors {
		v.Add(field, msg)
	}
}

// OrNil returns the receiver as an error only when it holds field errors.
func (v *ValidationError) OrNil() error {
	if v.HasErrors() {
		return v
	}
	return nil
}

// Validation builds a ValidationError holding a single field error.
func Validation(field, message string) *ValidationError {
	v := &ValidationError{}
	v.Add(field, message)
	return v
}

// StateError reports an illegal transition or an operation on a resource the
// caller does not own. Callers recover by re-fetching server state.
type StateError struct {
	Op     string
	Reason string
}

// Error implements the error interface.
func (e *StateError) Error() string {
	if e.Op == "" {
		return e.Reason
	}
	return e.Op + ": " + e.Reason
}

// State builds a StateError.
func State(op, reason string) *StateError {
	return &StateError{Op: op, Reason: reason}
}

// PermissionError is a backend denial translated to a user-safe message.
type PermissionError struct {
	Op      string
	Message string
	// Detail keeps the raw backend message for logs; never shown to users.
	Detail string
}

// Error implements the error interface.
func (e *PermissionError) Error() string {
	return e.Message
}

// TransportError wraps a network or backend failure. Status is zero when the
// request never produced an HTTP response.
type TransportError struct {
	Op      string
	Status  int
	Message string
	Err     error
}

// Error implements the error interface.
func (e *TransportError) Error() string {
	switch {
	case e.Message != "":
		return e.Message
	case e.Err != nil:
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	case e.Status != 0:
		return fmt.Sprintf("%s: backend responded with status %d", e.Op, e.Status)
	default:
		return e.Op + ": transport failure"
	}
}

// Unwrap returns the underlying error.
func (e *TransportError) Unwrap() error {
	return e.Err
}

// FatalError signals a violated precondition that must abort the current
// render path rather than be guessed around.
type FatalError struct {
	Subject string
	Err     error
}

// Error implements the error interface.
func (e *FatalError) Error() string {
	return fmt.Sprintf("fatal: %s: %v", e.Subject, e.Err)
}

// Unwrap returns the underlying error.
func (e *FatalError) Unwrap() error {
	return e.Err
}

// Kind maps an error to a stable logging label.
func Kind(err error) string {
	if err == nil {
		return ""
	}
	var (
		vErr *ValidationError
		sErr *StateError
		pErr *PermissionError
		tErr *TransportError
		fErr *FatalError
	)
	switch {
	case errors.As(err, &vErr):
		return "validation"
	case errors.As(err, &sErr):
		return "state"
	case errors.As(err, &pErr):
		return "permission"
	case errors.As(err, &fErr):
		return "fatal"
	case errors.As(err, &tErr):
		return "transport"
	default:
		return "unexpected"
	}
}

// IsRecoverable reports whether the caller can keep its current view and retry.
func IsRecoverable(err error) bool {
	var fErr *FatalError
	return err != nil && !errors.As(err, &fErr)
}
