package orchestrator

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/example/company-calendar/internal/appointment"
	"github.com/example/company-calendar/internal/calendar"
	"github.com/example/company-calendar/internal/datewindow"
	"github.com/example/company-calendar/internal/failure"
	"github.com/example/company-calendar/internal/invite"
	"github.com/example/company-calendar/internal/logging"
	"github.com/example/company-calendar/internal/participants"
)

// DefaultMinLoadInterval suppresses back-to-back reloads of the same list.
const DefaultMinLoadInterval = 3 * time.Second

const (
	reasonNotOwner       = "only the owner can change this appointment"
	reasonUnknownAppt    = "appointment is not loaded"
	componentName        = "orchestrator"
	reasonNothingToApply = "nothing to update"
)

// Options configures a Session.
type Options struct {
	// UserID identifies the caller for ownership and inviter checks.
	UserID          string
	Logger          *slog.Logger
	Now             func() time.Time
	MinLoadInterval time.Duration
}

// Session owns the appointment and invite lists of one caller session.
type Session struct {
	backend     Backend
	userID      string
	logger      *slog.Logger
	now         func() time.Time
	minInterval time.Duration

	mu           sync.Mutex
	appointments []appointment.Appointment
	pending      []invite.Invite
	mine         []invite.Invite
	members      []participants.Member

	appointmentsGuard loadGuard
	pendingGuard      loadGuard
	mineGuard         loadGuard
	membersGuard      loadGuard
}

// NewSession constructs a Session over backend.
func NewSession(backend Backend, opts Options) *Session {
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	interval := opts.MinLoadInterval
	if interval <= 0 {
		interval = DefaultMinLoadInterval
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Session{
		backend:     backend,
		userID:      opts.UserID,
		logger:      logger,
		now:         now,
		minInterval: interval,
	}
}

func (s *Session) log(ctx context.Context, op string, attrs ...any) *slog.Logger {
	attrs = append([]any{"user_id", s.userID}, attrs...)
	return logging.Component(ctx, s.logger, componentName, op, attrs...)
}

// CreateAppointment validates in, persists it, then creates one invite per
// invitee. The appointment is returned even when some invites fail; those
// failures are reported individually and nothing is rolled back.
func (s *Session) CreateAppointment(ctx context.Context, in appointment.Input, inviteeIDs []string) (appointment.Appointment, []InviteFailure, error) {
	logger := s.log(ctx, OpCreateAppointment)

	vErr := in.Validate()
	if dateErr := datewindow.ValidateCreate(in.StartAt, in.EndAt, s.now()).Err(); dateErr != nil {
		vErr.Merge(dateErr.(*failure.ValidationError))
	}
	if vErr.HasErrors() {
		logger.Info("appointment rejected by local validation", "error_kind", failure.Kind(vErr))
		return appointment.Appointment{}, nil, vErr
	}

	created, err := s.backend.CreateAppointment(ctx, in)
	if err != nil {
		err = translate(OpCreateAppointment, err)
		logger.Warn("appointment create failed", "error_kind", failure.Kind(err), "error", err)
		return appointment.Appointment{}, nil, err
	}
	created = created.Normalize()

	s.mu.Lock()
	s.appointments = upsertAppointment(s.appointments, created)
	s.mu.Unlock()

	var failures []InviteFailure
	for _, invitedID := range appointment.NormalizeIDs(inviteeIDs) {
		if invitedID == s.userID {
			continue
		}
		_, err := s.backend.CreateInvite(ctx, invite.CreateRequest{
			AppointmentID: created.ID,
			InvitedUserID: invitedID,
		})
		if err != nil {
			err = translate(OpCreateInvite, err)
			logger.Warn("invite create failed",
				"appointment_id", created.ID,
				"invited_user_id", invitedID,
				"error_kind", failure.Kind(err),
				"error", err,
			)
			failures = append(failures, InviteFailure{InvitedUserID: invitedID, Err: err})
			continue
		}
		logger.Info("invite sent", "appointment_id", created.ID, "invited_user_id", invitedID)
	}

	logger.Info("appointment created",
		"appointment_id", created.ID,
		"invites_requested", len(inviteeIDs),
		"invites_failed", len(failures),
	)
	return created, failures, nil
}

// UpdateAppointment applies a partial update. When the appointment is cached
// only its owner may update it. Dates are validated in edit mode, using the
// cached value for whichever bound the patch leaves out.
func (s *Session) UpdateAppointment(ctx context.Context, id string, patch appointment.Patch) (appointment.Appointment, error) {
	logger := s.log(ctx, OpUpdateAppointment, "appointment_id", id)

	if patch.IsEmpty() {
		return appointment.Appointment{}, failure.Validation("patch", reasonNothingToApply)
	}

	cached, known := s.findAppointment(id)
	if known && !cached.IsOwnedBy(s.userID) {
		logger.Info("update refused for non-owner")
		return appointment.Appointment{}, failure.State(OpUpdateAppointment, reasonNotOwner)
	}

	vErr := patch.Validate()
	start, end, check := patchWindow(patch, cached, known)
	if check {
		if dateErr := datewindow.ValidateEdit(start, end).Err(); dateErr != nil {
			vErr.Merge(dateErr.(*failure.ValidationError))
		}
	}
	if vErr.HasErrors() {
		return appointment.Appointment{}, vErr
	}

	updated, err := s.backend.UpdateAppointment(ctx, id, patch)
	if err != nil {
		err = translate(OpUpdateAppointment, err)
		logger.Warn("appointment update failed", "error_kind", failure.Kind(err), "error", err)
		return appointment.Appointment{}, err
	}
	updated = updated.Normalize()

	s.mu.Lock()
	s.appointments = upsertAppointment(s.appointments, updated)
	s.mu.Unlock()

	logger.Info("appointment updated")
	return updated, nil
}

// DeleteAppointment removes an appointment. The backend cancels its invites.
func (s *Session) DeleteAppointment(ctx context.Context, id string) error {
	logger := s.log(ctx, OpDeleteAppointment, "appointment_id", id)

	if cached, known := s.findAppointment(id); known && !cached.IsOwnedBy(s.userID) {
		return failure.State(OpDeleteAppointment, reasonNotOwner)
	}

	if err := s.backend.DeleteAppointment(ctx, id); err != nil {
		err = translate(OpDeleteAppointment, err)
		logger.Warn("appointment delete failed", "error_kind", failure.Kind(err), "error", err)
		return err
	}

	s.mu.Lock()
	s.appointments = removeAppointment(s.appointments, id)
	s.pending = removeInvitesFor(s.pending, id)
	s.mu.Unlock()

	logger.Info("appointment deleted")
	return nil
}

// CommitParticipants persists the staged participant diff. On failure the
// returned appointment reflects the last change the backend accepted and the
// stage keeps its edits.
func (s *Session) CommitParticipants(ctx context.Context, id string, stage *participants.Stage) (appointment.Appointment, error) {
	logger := s.log(ctx, OpCommitParticipants, "appointment_id", id)

	cached, known := s.findAppointment(id)
	if known && !cached.IsOwnedBy(s.userID) {
		return appointment.Appointment{}, failure.State(OpCommitParticipants, reasonNotOwner)
	}
	if stage == nil || !stage.Dirty() {
		if !known {
			return appointment.Appointment{}, failure.State(OpCommitParticipants, reasonUnknownAppt)
		}
		return cached, nil
	}

	added, removed := stage.Diff()
	current := cached
	apply := func(a appointment.Appointment) {
		current = a.Normalize()
		s.mu.Lock()
		s.appointments = upsertAppointment(s.appointments, current)
		s.mu.Unlock()
	}

	for _, userID := range added {
		a, err := s.backend.AddParticipant(ctx, id, userID)
		if err != nil {
			err = translate(OpCommitParticipants, err)
			logger.Warn("participant add failed", "participant_id", userID, "error_kind", failure.Kind(err), "error", err)
			return current, err
		}
		apply(a)
	}
	for _, userID := range removed {
		a, err := s.backend.RemoveParticipant(ctx, id, userID)
		if err != nil {
			err = translate(OpCommitParticipants, err)
			logger.Warn("participant remove failed", "participant_id", userID, "error_kind", failure.Kind(err), "error", err)
			return current, err
		}
		apply(a)
	}

	stage.Commit()
	logger.Info("participants committed", "added", len(added), "removed", len(removed))
	return current, nil
}

// RespondToInvite answers an invite addressed to the caller, then refreshes
// my-invites followed by pending-invites. Accepting an appointment that has
// already ended is refused locally.
func (s *Session) RespondToInvite(ctx context.Context, inviteID string, decision invite.Decision, message *string) (invite.Invite, error) {
	logger := s.log(ctx, OpRespondInvite, "invite_id", inviteID, "decision", string(decision))

	if decision != invite.StatusAccepted && decision != invite.StatusDeclined {
		return invite.Invite{}, failure.Validation("status", "status must be accepted or declined")
	}

	if cached, known := s.findInvite(inviteID); known {
		if cached.InvitedUserID != "" && cached.InvitedUserID != s.userID {
			return invite.Invite{}, failure.State(OpRespondInvite, invite.ReasonNotInvitee)
		}
		endAt, _ := s.inviteEnd(cached)
		if err := invite.CheckResponse(cached, decision, endAt, s.now()); err != nil {
			logger.Info("invite response refused locally", "error", err)
			return invite.Invite{}, err
		}
		if _, err := invite.Respond(cached, decision, s.now()); err != nil {
			return invite.Invite{}, err
		}
	}

	updated, err := s.backend.RespondInvite(ctx, inviteID, invite.RespondRequest{Status: decision, ResponseMessage: message})
	if err != nil {
		err = translate(OpRespondInvite, err)
		logger.Warn("invite response failed", "error_kind", failure.Kind(err), "error", err)
		return invite.Invite{}, err
	}
	updated = updated.Normalize()

	s.mu.Lock()
	s.mine = upsertInvite(s.mine, updated)
	s.pending = removeInvite(s.pending, updated.ID)
	s.mu.Unlock()

	if _, err := s.loadMyInvites(ctx, true); err != nil {
		logger.Warn("my invites refresh after response failed", "error_kind", failure.Kind(err), "error", err)
	}
	if _, err := s.loadPendingInvites(ctx, true); err != nil {
		logger.Warn("pending invites refresh after response failed", "error_kind", failure.Kind(err), "error", err)
	}

	logger.Info("invite responded")
	return updated, nil
}

// CancelInvite withdraws a pending invite sent by the caller.
func (s *Session) CancelInvite(ctx context.Context, inviteID string) error {
	logger := s.log(ctx, OpCancelInvite, "invite_id", inviteID)

	if cached, known := s.findInvite(inviteID); known {
		if _, err := invite.Cancel(cached, s.userID, s.now()); err != nil {
			return err
		}
	}

	if err := s.backend.CancelInvite(ctx, inviteID); err != nil {
		err = translate(OpCancelInvite, err)
		logger.Warn("invite cancel failed", "error_kind", failure.Kind(err), "error", err)
		return err
	}

	s.mu.Lock()
	s.pending = removeInvite(s.pending, inviteID)
	s.mine = removeInvite(s.mine, inviteID)
	s.mu.Unlock()

	logger.Info("invite cancelled")
	return nil
}

// Occurrences materializes the cached appointments. Appointments with an
// invalid range are logged and left out.
func (s *Session) Occurrences() []calendar.Occurrence {
	return calendar.MaterializeAll(s.Appointments(), s.logger.With("component", componentName))
}

// OccurrencesBetween returns the occurrences overlapping [from, to), read as
// wall-clock bounds. A zero bound leaves that side open.
func (s *Session) OccurrencesBetween(from, to time.Time) []calendar.Occurrence {
	return calendar.Window(s.Occurrences(), from, to)
}

// AppointmentForOccurrence resolves a clicked occurrence to its appointment.
func (s *Session) AppointmentForOccurrence(occ calendar.Occurrence) (appointment.Appointment, bool) {
	return calendar.NewGroupIndex(s.Appointments()).Resolve(occ)
}

// Participants returns the display entries for a cached appointment, joined
// with the member directory.
func (s *Session) Participants(ctx context.Context, appointmentID string) ([]participants.Display, error) {
	a, known := s.findAppointment(appointmentID)
	if !known {
		return nil, failure.State(OpLoadMembers, reasonUnknownAppt)
	}

	s.mu.Lock()
	roster := append([]participants.Member(nil), s.members...)
	s.mu.Unlock()

	if len(roster) == 0 {
		loaded, err := s.LoadMembers(ctx)
		if err != nil {
			return nil, err
		}
		roster = loaded
	}
	return participants.Resolve(a.ParticipantIDs, roster), nil
}

// Appointments returns the last known appointment list.
func (s *Session) Appointments() []appointment.Appointment {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]appointment.Appointment(nil), s.appointments...)
}

// PendingInvites returns the last known pending invite list.
func (s *Session) PendingInvites() []invite.Invite {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]invite.Invite(nil), s.pending...)
}

// MyInvites returns the last known list of invites addressed to the caller.
func (s *Session) MyInvites() []invite.Invite {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]invite.Invite(nil), s.mine...)
}

func (s *Session) findAppointment(id string) (appointment.Appointment, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, a := range s.appointments {
		if a.ID == id {
			return a, true
		}
	}
	return appointment.Appointment{}, false
}

func (s *Session) findInvite(id string) (invite.Invite, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, list := range [][]invite.Invite{s.pending, s.mine} {
		for _, inv := range list {
			if inv.ID == id {
				return inv, true
			}
		}
	}
	return invite.Invite{}, false
}

// inviteEnd finds the end of the appointment an invite refers to, from the
// embedded summary or the cached appointment list.
func (s *Session) inviteEnd(inv invite.Invite) (time.Time, bool) {
	if end, ok := inv.EndAt(); ok {
		return end, true
	}
	if a, ok := s.findAppointment(inv.AppointmentID); ok {
		return a.EndAt, true
	}
	return time.Time{}, false
}

func patchWindow(patch appointment.Patch, cached appointment.Appointment, known bool) (time.Time, time.Time, bool) {
	switch {
	case patch.StartAt != nil && patch.EndAt != nil:
		return *patch.StartAt, *patch.EndAt, true
	case patch.StartAt != nil && known:
		return *patch.StartAt, cached.EndAt, true
	case patch.EndAt != nil && known:
		return cached.StartAt, *patch.EndAt, true
	}
	return time.Time{}, time.Time{}, false
}
