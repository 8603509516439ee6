package client

import (
	"context"
	"net/http"
	"net/url"

	"github.com/example/company-calendar/internal/appointment"
	"github.com/example/company-calendar/internal/invite"
	"github.com/example/company-calendar/internal/participants"
)

// CreateAppointment calls POST /appointments.
func (c *Client) CreateAppointment(ctx context.Context, in appointment.Input) (appointment.Appointment, error) {
	var out appointment.Appointment
	err := c.do(ctx, "create_appointment", http.MethodPost, "/appointments", in, &out)
	return out, err
}

// UpdateAppointment calls PATCH /appointments/{id}.
func (c *Client) UpdateAppointment(ctx context.Context, id string, patch appointment.Patch) (appointment.Appointment, error) {
	var out appointment.Appointment
	err := c.do(ctx, "update_appointment", http.MethodPatch, "/appointments/"+url.PathEscape(id), patch, &out)
	return out, err
}

// DeleteAppointment calls DELETE /appointments/{id}.
func (c *Client) DeleteAppointment(ctx context.Context, id string) error {
	return c.do(ctx, "delete_appointment", http.MethodDelete, "/appointments/"+url.PathEscape(id), nil, nil)
}

// ListAppointments calls GET /appointments.
func (c *Client) ListAppointments(ctx context.Context) ([]appointment.Appointment, error) {
	var out []appointment.Appointment
	err := c.do(ctx, "list_appointments", http.MethodGet, "/appointments", nil, &out)
	return out, err
}

// AddParticipant calls POST /appointments/{id}/participants/{userId}.
func (c *Client) AddParticipant(ctx context.Context, appointmentID, userID string) (appointment.Appointment, error) {
	var out appointment.Appointment
	err := c.do(ctx, "add_participant", http.MethodPost, participantPath(appointmentID, userID), nil, &out)
	return out, err
}

// RemoveParticipant calls DELETE /appointments/{id}/participants/{userId}.
func (c *Client) RemoveParticipant(ctx context.Context, appointmentID, userID string) (appointment.Appointment, error) {
	var out appointment.Appointment
	err := c.do(ctx, "remove_participant", http.MethodDelete, participantPath(appointmentID, userID), nil, &out)
	return out, err
}

// CreateInvite calls POST /appointment-invites.
func (c *Client) CreateInvite(ctx context.Context, req invite.CreateRequest) (invite.Invite, error) {
	var out invite.Invite
	err := c.do(ctx, "create_invite", http.MethodPost, "/appointment-invites", req, &out)
	return out, err
}

// ListMyInvites calls GET /appointment-invites/my-invites.
func (c *Client) ListMyInvites(ctx context.Context) ([]invite.Invite, error) {
	var out []invite.Invite
	err := c.do(ctx, "list_my_invites", http.MethodGet, "/appointment-invites/my-invites", nil, &out)
	return out, err
}

// ListPendingInvites calls GET /appointment-invites/pending.
func (c *Client) ListPendingInvites(ctx context.Context) ([]invite.Invite, error) {
	var out []invite.Invite
	err := c.do(ctx, "list_pending_invites", http.MethodGet, "/appointment-invites/pending", nil, &out)
	return out, err
}

// RespondInvite calls PATCH /appointment-invites/{id}/respond.
func (c *Client) RespondInvite(ctx context.Context, id string, req invite.RespondRequest) (invite.Invite, error) {
	var out invite.Invite
	err := c.do(ctx, "respond_invite", http.MethodPatch, "/appointment-invites/"+url.PathEscape(id)+"/respond", req, &out)
	return out, err
}

// CancelInvite calls DELETE /appointment-invites/{id}.
func (c *Client) CancelInvite(ctx context.Context, id string) error {
	return c.do(ctx, "cancel_invite", http.MethodDelete, "/appointment-invites/"+url.PathEscape(id), nil, nil)
}

// ListMembers calls GET /members.
func (c *Client) ListMembers(ctx context.Context) ([]participants.Member, error) {
	var out []participants.Member
	err := c.do(ctx, "list_members", http.MethodGet, "/members", nil, &out)
	return out, err
}

func participantPath(appointmentID, userID string) string {
	return "/appointments/" + url.PathEscape(appointmentID) + "/participants/" + url.PathEscape(userID)
}
