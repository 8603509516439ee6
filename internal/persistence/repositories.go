package persistence

import (
	"context"
	"time"

	"github.com/example/company-calendar/internal/appointment"
	"github.com/example/company-calendar/internal/invite"
)

// AppointmentFilter narrows appointment queries.
type AppointmentFilter struct {
	CompanyID     string
	ParticipantID string
	StartsAfter   *time.Time
	EndsBefore    *time.Time
}

// AppointmentRepository stores appointments and their participant sets.
type AppointmentRepository interface {
	CreateAppointment(ctx context.Context, a appointment.Appointment) error
	UpdateAppointment(ctx context.Context, a appointment.Appointment) error
	GetAppointment(ctx context.Context, id string) (appointment.Appointment, error)
	ListAppointments(ctx context.Context, filter AppointmentFilter) ([]appointment.Appointment, error)
	// DeleteAppointment removes the appointment and cancels its active invites
	// in one transaction, returning how many invites were cancelled.
	DeleteAppointment(ctx context.Context, id string, at time.Time) (int, error)
}

// InviteFilter narrows invite queries. Empty fields match everything.
type InviteFilter struct {
	CompanyID     string
	AppointmentID string
	InvitedUserID string
	InviterUserID string
	Statuses      []invite.Status
}

// InviteRepository stores appointment invites. At most one non-cancelled
// invite exists per appointment and invitee; CreateInvite reports
// ErrDuplicate otherwise.
type InviteRepository interface {
	CreateInvite(ctx context.Context, inv invite.Invite) error
	// TransitionInvite stores the status and response fields of an invite
	// that is still pending, returning ErrStale when it no longer is. An
	// accepted invite adds the invitee to the appointment's participants
	// atomically with the status change.
	TransitionInvite(ctx context.Context, inv invite.Invite) error
	GetInvite(ctx context.Context, id string) (invite.Invite, error)
	ListInvites(ctx context.Context, filter InviteFilter) ([]invite.Invite, error)
}

// MemberRepository exposes the company member directory.
type MemberRepository interface {
	UpsertMember(ctx context.Context, m Member) error
	GetMember(ctx context.Context, id string) (Member, error)
	ListMembers(ctx context.Context, companyID string) ([]Member, error)
}
