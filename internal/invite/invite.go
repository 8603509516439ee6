// Package invite implements the appointment invitation lifecycle.
//
//	pending ──respond──▶ accepted | declined
//	pending ──cancel───▶ cancelled
//
// Every state other than pending is terminal.
package invite

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/example/company-calendar/internal/appointment"
	"github.com/example/company-calendar/internal/failure"
	"github.com/example/company-calendar/internal/wallclock"
)

// Status is the state of an invitation.
type Status string

const (
	StatusPending   Status = "pending"
	StatusAccepted  Status = "accepted"
	StatusDeclined  Status = "declined"
	StatusCancelled Status = "cancelled"
)

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusAccepted, StatusDeclined, StatusCancelled:
		return true
	}
	return false
}

// Terminal reports whether no further transition is possible from s.
func (s Status) Terminal() bool {
	return s == StatusAccepted || s == StatusDeclined || s == StatusCancelled
}

// Active reports whether the invite counts toward the one-active-invite rule.
func (s Status) Active() bool {
	return s != StatusCancelled
}

// Decision is an invitee's answer.
type Decision = Status

// ParseDecision accepts "accepted" or "declined".
func ParseDecision(value string) (Decision, error) {
	d := Status(strings.ToLower(strings.TrimSpace(value)))
	if d != StatusAccepted && d != StatusDeclined {
		return "", failure.Validation("status", "status must be accepted or declined")
	}
	return d, nil
}

const (
	ReasonAlreadyResponded = "already responded"
	ReasonNotInviter       = "only the inviter can cancel an invite"
	ReasonNotInvitee       = "only the invited user can respond"
	ReasonNotPending       = "only pending invites can be cancelled"
	ReasonEnded            = "this appointment has already ended"
)

// Summary is the appointment projection embedded in invite listings.
type Summary struct {
	ID       string           `json:"id"`
	Title    string           `json:"title"`
	StartAt  time.Time        `json:"startAt"`
	EndAt    time.Time        `json:"endAt"`
	Location *string          `json:"location,omitempty"`
	Color    string           `json:"color,omitempty"`
	Type     appointment.Type `json:"type,omitempty"`
}

// UnmarshalJSON reads startAt and endAt with or without a UTC offset.
func (s *Summary) UnmarshalJSON(data []byte) error {
	type plain Summary
	aux := struct {
		*plain
		StartAt wallclock.Timestamp `json:"startAt"`
		EndAt   wallclock.Timestamp `json:"endAt"`
	}{
		plain:   (*plain)(s),
		StartAt: wallclock.Timestamp{Time: s.StartAt},
		EndAt:   wallclock.Timestamp{Time: s.EndAt},
	}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	s.StartAt = aux.StartAt.Time
	s.EndAt = aux.EndAt.Time
	return nil
}

// SummaryOf projects an appointment for embedding.
func SummaryOf(a appointment.Appointment) *Summary {
	return &Summary{
		ID:       a.ID,
		Title:    a.Title,
		StartAt:  a.StartAt,
		EndAt:    a.EndAt,
		Location: a.Location,
		Color:    a.Color,
		Type:     a.Type,
	}
}

// Invite is an invitation from an appointment owner to another member.
type Invite struct {
	ID              string     `json:"id"`
	AppointmentID   string     `json:"appointmentId"`
	InviterUserID   string     `json:"inviterUserId"`
	InvitedUserID   string     `json:"invitedUserId"`
	CompanyID       string     `json:"companyId"`
	Status          Status     `json:"status"`
	Message         *string    `json:"message,omitempty"`
	ResponseMessage *string    `json:"responseMessage,omitempty"`
	RespondedAt     *time.Time `json:"respondedAt,omitempty"`
	CreatedAt       time.Time  `json:"createdAt"`
	UpdatedAt       time.Time  `json:"updatedAt"`
	Appointment     *Summary   `json:"appointment,omitempty"`
}

// New builds a pending invite.
func New(id, appointmentID, inviterID, invitedID, companyID string, message *string, now time.Time) Invite {
	return Invite{
		ID:            id,
		AppointmentID: appointmentID,
		InviterUserID: inviterID,
		InvitedUserID: invitedID,
		CompanyID:     companyID,
		Status:        StatusPending,
		Message:       message,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}

// Normalize defaults unknown statuses to pending.
func (inv Invite) Normalize() Invite {
	if !inv.Status.Valid() {
		inv.Status = StatusPending
	}
	return inv
}

// EndAt returns the embedded appointment end, if known.
func (inv Invite) EndAt() (time.Time, bool) {
	if inv.Appointment == nil || inv.Appointment.EndAt.IsZero() {
		return time.Time{}, false
	}
	return inv.Appointment.EndAt, true
}

// Respond moves a pending invite to the decision and stamps RespondedAt.
func Respond(inv Invite, decision Decision, now time.Time) (Invite, error) {
	if decision != StatusAccepted && decision != StatusDeclined {
		return inv, failure.Validation("status", "status must be accepted or declined")
	}
	if inv.Status != StatusPending {
		return inv, failure.State("respond", ReasonAlreadyResponded)
	}
	stamp := now
	inv.Status = decision
	inv.RespondedAt = &stamp
	inv.UpdatedAt = now
	return inv, nil
}

// Cancel withdraws a pending invite. Only the inviter may cancel, and
// RespondedAt stays unset.
func Cancel(inv Invite, actorID string, now time.Time) (Invite, error) {
	if actorID == "" || actorID != inv.InviterUserID {
		return inv, failure.State("cancel", ReasonNotInviter)
	}
	if inv.Status != StatusPending {
		return inv, failure.State("cancel", ReasonNotPending)
	}
	inv.Status = StatusCancelled
	inv.UpdatedAt = now
	return inv, nil
}

// IsExpired reports whether the appointment ended before now.
func IsExpired(endAt, now time.Time) bool {
	return !endAt.IsZero() && endAt.Before(now)
}

// CheckResponse applies the expiry policy: accepting an ended appointment is
// refused, declining it is allowed.
func CheckResponse(inv Invite, decision Decision, endAt, now time.Time) error {
	if inv.Status != StatusPending {
		return failure.State("respond", ReasonAlreadyResponded)
	}
	if decision == StatusAccepted && IsExpired(endAt, now) {
		return failure.State("respond", ReasonEnded)
	}
	return nil
}

// CreateRequest is the body of an invite creation call.
type CreateRequest struct {
	AppointmentID string  `json:"appointmentId"`
	InvitedUserID string  `json:"invitedUserId"`
	Message       *string `json:"message,omitempty"`
}

// RespondRequest is the body of an invite response call.
type RespondRequest struct {
	Status          Decision `json:"status"`
	ResponseMessage *string  `json:"responseMessage,omitempty"`
}
