package application

import (
	"errors"
	"fmt"

	"github.com/example/company-calendar/internal/failure"
)

var (
	// ErrUnauthorized is returned when the acting principal lacks permission for an operation.
	ErrUnauthorized = errors.New("application: unauthorized")
	// ErrNotFound is returned when the requested resource does not exist in the caller's company.
	ErrNotFound = errors.New("application: not found")
	// ErrConflict is returned when the request collides with existing state.
	ErrConflict = errors.New("application: conflict")
)

// Permission scopes carried by ForbiddenError.
const (
	ScopeCalendarUpdate = "calendar:update"
	ScopeCalendarDelete = "calendar:delete"
	ScopeInviteCreate   = "invites:create"
	ScopeInviteRespond  = "invites:respond"
	ScopeInviteCancel   = "invites:cancel"
)

// ValidationError is the field level error shared with the domain packages.
type ValidationError = failure.ValidationError

// ForbiddenError denies an operation and names the missing scope. It matches
// ErrUnauthorized under errors.Is.
type ForbiddenError struct {
	Scope string
}

// Error implements the error interface.
func (e *ForbiddenError) Error() string {
	return "forbidden: missing scope " + e.Scope
}

// Is reports ErrUnauthorized equivalence.
func (e *ForbiddenError) Is(target error) bool {
	return target == ErrUnauthorized
}

func forbidden(scope string) error {
	return &ForbiddenError{Scope: scope}
}

// ConflictError reports a duplicate or otherwise colliding request.
type ConflictError struct {
	Message string
}

// Error implements the error interface.
func (e *ConflictError) Error() string {
	return e.Message
}

// Is reports ErrConflict equivalence.
func (e *ConflictError) Is(target error) bool {
	return target == ErrConflict
}

func conflict(format string, args ...any) error {
	return &ConflictError{Message: fmt.Sprintf(format, args...)}
}
