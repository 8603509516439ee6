package application

import (
	"errors"
	"fmt"
	"time"

	"github.com/example/company-calendar/internal/persistence"
)

// Principal represents the authenticated member invoking a service method.
type Principal struct {
	UserID    string
	CompanyID string
}

// Valid reports whether both identifiers are present.
func (p Principal) Valid() bool {
	return p.UserID != "" && p.CompanyID != ""
}

// ListAppointmentsParams narrows appointment listings to the caller's company.
type ListAppointmentsParams struct {
	Principal Principal
	// ParticipantID keeps appointments owned by or including the member.
	ParticipantID string
	From          *time.Time
	To            *time.Time
}

func mapRepoError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, persistence.ErrNotFound):
		return ErrNotFound
	case errors.Is(err, persistence.ErrDuplicate):
		return conflict("resource already exists")
	default:
		return fmt.Errorf("persistence: %w", err)
	}
}
