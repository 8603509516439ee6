package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/example/company-calendar/internal/appointment"
	"github.com/example/company-calendar/internal/failure"
	"github.com/example/company-calendar/internal/invite"
	"github.com/example/company-calendar/internal/persistence"
)

// InviteService runs the invite lifecycle on the server side.
type InviteService struct {
	invites      persistence.InviteRepository
	appointments persistence.AppointmentRepository
	members      MemberDirectory
	idGenerator  func() string
	now          func() time.Time
	logger       *slog.Logger
}

// NewInviteService wires dependencies for invite operations.
func NewInviteService(invites persistence.InviteRepository, appointments persistence.AppointmentRepository, members MemberDirectory, idGenerator func() string, now func() time.Time, logger *slog.Logger) *InviteService {
	if idGenerator == nil {
		idGenerator = func() string { return "" }
	}
	if now == nil {
		now = time.Now
	}
	return &InviteService{
		invites:      invites,
		appointments: appointments,
		members:      members,
		idGenerator:  idGenerator,
		now:          now,
		logger:       defaultLogger(logger),
	}
}

// CreateInvite invites a company member to an appointment the principal owns.
// A member holds at most one active invite per appointment.
func (s *InviteService) CreateInvite(ctx context.Context, principal Principal, req invite.CreateRequest) (invite.Invite, error) {
	if err := s.ready(principal); err != nil {
		return invite.Invite{}, err
	}
	logger := serviceLogger(ctx, s.logger, "InviteService", "CreateInvite", "appointment_id", req.AppointmentID, "invited_user_id", req.InvitedUserID)

	req.AppointmentID = strings.TrimSpace(req.AppointmentID)
	req.InvitedUserID = strings.TrimSpace(req.InvitedUserID)
	vErr := &ValidationError{}
	if req.AppointmentID == "" {
		vErr.Add("appointmentId", "appointment id is required")
	}
	if req.InvitedUserID == "" {
		vErr.Add("invitedUserId", "invited user id is required")
	} else if req.InvitedUserID == principal.UserID {
		vErr.Add("invitedUserId", "you cannot invite yourself")
	}
	if vErr.HasErrors() {
		return invite.Invite{}, vErr
	}

	a, err := s.appointment(ctx, principal, req.AppointmentID)
	if err != nil {
		return invite.Invite{}, err
	}
	if !a.IsOwnedBy(principal.UserID) {
		return invite.Invite{}, forbidden(ScopeInviteCreate)
	}
	if err := ensureMembers(ctx, s.members, principal.CompanyID, "invitedUserId", []string{req.InvitedUserID}); err != nil {
		return invite.Invite{}, err
	}

	active, err := s.invites.ListInvites(ctx, persistence.InviteFilter{
		AppointmentID: a.ID,
		InvitedUserID: req.InvitedUserID,
		Statuses:      []invite.Status{invite.StatusPending, invite.StatusAccepted, invite.StatusDeclined},
	})
	if err != nil {
		return invite.Invite{}, mapRepoError(err)
	}
	if len(active) > 0 {
		return invite.Invite{}, conflict("member %s already has an active invite", req.InvitedUserID)
	}

	inv := invite.New(s.idGenerator(), a.ID, principal.UserID, req.InvitedUserID, principal.CompanyID, req.Message, s.now())
	if err := s.invites.CreateInvite(ctx, inv); err != nil {
		if errors.Is(err, persistence.ErrDuplicate) {
			return invite.Invite{}, conflict("member %s already has an active invite", req.InvitedUserID)
		}
		logger.ErrorContext(ctx, "failed to store invite", "error", err)
		return invite.Invite{}, mapRepoError(err)
	}
	inv.Appointment = invite.SummaryOf(a)
	logger.InfoContext(ctx, "invite created", "invite_id", inv.ID)
	return inv, nil
}

// ListMyInvites returns every invite addressed to the principal.
func (s *InviteService) ListMyInvites(ctx context.Context, principal Principal) ([]invite.Invite, error) {
	return s.list(ctx, principal, nil)
}

// ListPendingInvites returns the principal's invites awaiting a response.
func (s *InviteService) ListPendingInvites(ctx context.Context, principal Principal) ([]invite.Invite, error) {
	return s.list(ctx, principal, []invite.Status{invite.StatusPending})
}

func (s *InviteService) list(ctx context.Context, principal Principal, statuses []invite.Status) ([]invite.Invite, error) {
	if err := s.ready(principal); err != nil {
		return nil, err
	}
	list, err := s.invites.ListInvites(ctx, persistence.InviteFilter{
		CompanyID:     principal.CompanyID,
		InvitedUserID: principal.UserID,
		Statuses:      statuses,
	})
	if err != nil {
		return nil, mapRepoError(err)
	}
	return list, nil
}

// RespondToInvite accepts or declines an invite addressed to the principal.
// Accepting an appointment that already ended is refused; accepting adds the
// invitee to the participant set in the same write as the status change.
func (s *InviteService) RespondToInvite(ctx context.Context, principal Principal, id string, req invite.RespondRequest) (invite.Invite, error) {
	inv, err := s.invite(ctx, principal, id)
	if err != nil {
		return invite.Invite{}, err
	}
	logger := serviceLogger(ctx, s.logger, "InviteService", "RespondToInvite", "invite_id", id, "decision", string(req.Status))

	if inv.InvitedUserID != principal.UserID {
		return invite.Invite{}, forbidden(ScopeInviteRespond)
	}
	decision, err := invite.ParseDecision(string(req.Status))
	if err != nil {
		return invite.Invite{}, err
	}

	now := s.now()
	endAt, _ := inv.EndAt()
	if err := invite.CheckResponse(inv, decision, endAt, now); err != nil {
		logger.WarnContext(ctx, "response refused", "error", err)
		return invite.Invite{}, err
	}
	responded, err := invite.Respond(inv, decision, now)
	if err != nil {
		return invite.Invite{}, err
	}
	responded.ResponseMessage = req.ResponseMessage

	if err := s.invites.TransitionInvite(ctx, responded); err != nil {
		if errors.Is(err, persistence.ErrStale) {
			logger.WarnContext(ctx, "invite changed concurrently")
			return invite.Invite{}, failure.State("respond", invite.ReasonAlreadyResponded)
		}
		logger.ErrorContext(ctx, "failed to store response", "error", err)
		return invite.Invite{}, mapRepoError(err)
	}
	logger.InfoContext(ctx, "invite responded")
	return responded, nil
}

// CancelInvite withdraws a pending invite. Only the inviter may cancel.
func (s *InviteService) CancelInvite(ctx context.Context, principal Principal, id string) error {
	inv, err := s.invite(ctx, principal, id)
	if err != nil {
		return err
	}
	if inv.InviterUserID != principal.UserID {
		return forbidden(ScopeInviteCancel)
	}
	cancelled, err := invite.Cancel(inv, principal.UserID, s.now())
	if err != nil {
		return err
	}
	if err := s.invites.TransitionInvite(ctx, cancelled); err != nil {
		if errors.Is(err, persistence.ErrStale) {
			return failure.State("cancel", invite.ReasonNotPending)
		}
		return mapRepoError(err)
	}
	serviceLogger(ctx, s.logger, "InviteService", "CancelInvite", "invite_id", id).InfoContext(ctx, "invite cancelled")
	return nil
}

func (s *InviteService) invite(ctx context.Context, principal Principal, id string) (invite.Invite, error) {
	if err := s.ready(principal); err != nil {
		return invite.Invite{}, err
	}
	inv, err := s.invites.GetInvite(ctx, id)
	if err != nil {
		return invite.Invite{}, mapRepoError(err)
	}
	if inv.CompanyID != principal.CompanyID {
		return invite.Invite{}, ErrNotFound
	}
	return inv, nil
}

func (s *InviteService) appointment(ctx context.Context, principal Principal, id string) (appointment.Appointment, error) {
	a, err := s.appointments.GetAppointment(ctx, id)
	if err != nil {
		return appointment.Appointment{}, mapRepoError(err)
	}
	if a.CompanyID != principal.CompanyID {
		return appointment.Appointment{}, ErrNotFound
	}
	return a, nil
}

func (s *InviteService) ready(principal Principal) error {
	if s == nil || s.invites == nil || s.appointments == nil {
		return fmt.Errorf("invite service not configured")
	}
	if !principal.Valid() {
		return ErrUnauthorized
	}
	return nil
}
