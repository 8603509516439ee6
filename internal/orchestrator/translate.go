package orchestrator

import (
	"errors"
	"net/http"
	"strings"

	"github.com/example/company-calendar/internal/failure"
)

// Operation names used in errors and log records.
const (
	OpCreateAppointment  = "create_appointment"
	OpUpdateAppointment  = "update_appointment"
	OpDeleteAppointment  = "delete_appointment"
	OpCommitParticipants = "commit_participants"
	OpLoadAppointments   = "load_appointments"
	OpCreateInvite       = "create_invite"
	OpRespondInvite      = "respond_invite"
	OpCancelInvite       = "cancel_invite"
	OpLoadPendingInvites = "load_pending_invites"
	OpLoadMyInvites      = "load_my_invites"
	OpLoadMembers        = "load_members"
)

var permissionMessages = map[string]string{
	OpCreateAppointment:  "you don't have permission to create appointments",
	OpUpdateAppointment:  "you don't have permission to edit this appointment",
	OpDeleteAppointment:  "you don't have permission to delete this appointment",
	OpCommitParticipants: "you don't have permission to change the participants of this appointment",
	OpLoadAppointments:   "you don't have permission to view appointments",
	OpCreateInvite:       "you don't have permission to invite members to this appointment",
	OpRespondInvite:      "you don't have permission to respond to this invite",
	OpCancelInvite:       "you don't have permission to cancel this invite",
	OpLoadPendingInvites: "you don't have permission to view invites",
	OpLoadMyInvites:      "you don't have permission to view invites",
	OpLoadMembers:        "you don't have permission to view company members",
}

// PermissionMessage returns the user-safe denial shown for op.
func PermissionMessage(op string) string {
	if msg, ok := permissionMessages[op]; ok {
		return msg
	}
	return "you don't have permission to do this"
}

// translate maps a backend error onto the failure taxonomy. Backend messages
// that contain a colon are treated as permission internals and never shown.
func translate(op string, err error) error {
	if err == nil {
		return nil
	}

	var (
		vErr *failure.ValidationError
		sErr *failure.StateError
		pErr *failure.PermissionError
		fErr *failure.FatalError
		tErr *failure.TransportError
	)
	if errors.As(err, &vErr) {
		return vErr
	}
	if errors.As(err, &sErr) || errors.As(err, &pErr) || errors.As(err, &fErr) {
		return err
	}
	if !errors.As(err, &tErr) {
		return &failure.TransportError{Op: op, Err: err}
	}

	msg := strings.TrimSpace(tErr.Message)
	switch {
	case tErr.Status == http.StatusForbidden, strings.Contains(msg, ":"):
		return &failure.PermissionError{Op: op, Message: PermissionMessage(op), Detail: msg}
	case tErr.Status == http.StatusConflict:
		return failure.State(op, msg)
	}
	return &failure.TransportError{Op: op, Status: tErr.Status, Message: msg, Err: tErr.Err}
}
