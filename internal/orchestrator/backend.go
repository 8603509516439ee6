// Package orchestrator is the per-session façade over the calendar backend.
//
// A Session validates input locally, drives the invite state machine, fans
// out invites, keeps the last known appointment and invite lists, and turns
// backend failures into the failure taxonomy.
package orchestrator

import (
	"context"

	"github.com/example/company-calendar/internal/appointment"
	"github.com/example/company-calendar/internal/invite"
	"github.com/example/company-calendar/internal/participants"
)

// Backend is the persistence boundary consumed by a Session. Implementations
// report HTTP failures as *failure.TransportError carrying the status code and
// the backend message.
type Backend interface {
	CreateAppointment(ctx context.Context, in appointment.Input) (appointment.Appointment, error)
	UpdateAppointment(ctx context.Context, id string, patch appointment.Patch) (appointment.Appointment, error)
	DeleteAppointment(ctx context.Context, id string) error
	ListAppointments(ctx context.Context) ([]appointment.Appointment, error)
	AddParticipant(ctx context.Context, appointmentID, userID string) (appointment.Appointment, error)
	RemoveParticipant(ctx context.Context, appointmentID, userID string) (appointment.Appointment, error)

	CreateInvite(ctx context.Context, req invite.CreateRequest) (invite.Invite, error)
	ListMyInvites(ctx context.Context) ([]invite.Invite, error)
	ListPendingInvites(ctx context.Context) ([]invite.Invite, error)
	RespondInvite(ctx context.Context, id string, req invite.RespondRequest) (invite.Invite, error)
	CancelInvite(ctx context.Context, id string) error

	ListMembers(ctx context.Context) ([]participants.Member, error)
}

// InviteFailure reports one invitee whose invite could not be created.
type InviteFailure struct {
	InvitedUserID string
	Err           error
}
