package application

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/example/company-calendar/internal/appointment"
	"github.com/example/company-calendar/internal/datewindow"
	"github.com/example/company-calendar/internal/persistence"
	"github.com/example/company-calendar/internal/wallclock"
)

// MemberDirectory exposes the company roster.
type MemberDirectory interface {
	ListMembers(ctx context.Context, companyID string) ([]persistence.Member, error)
}

// AppointmentService validates and authorizes appointment operations.
type AppointmentService struct {
	appointments persistence.AppointmentRepository
	members      MemberDirectory
	idGenerator  func() string
	now          func() time.Time
	location     *time.Location
	logger       *slog.Logger
}

// AppointmentOption configures an AppointmentService.
type AppointmentOption func(*AppointmentService)

// WithBusinessLocation sets the zone whose wall clock decides whether a new
// appointment starts in the past. The clock's own location is used otherwise.
func WithBusinessLocation(loc *time.Location) AppointmentOption {
	return func(s *AppointmentService) {
		s.location = loc
	}
}

// NewAppointmentService wires dependencies for appointment operations.
func NewAppointmentService(appointments persistence.AppointmentRepository, members MemberDirectory, idGenerator func() string, now func() time.Time, logger *slog.Logger, opts ...AppointmentOption) *AppointmentService {
	if idGenerator == nil {
		idGenerator = func() string { return "" }
	}
	if now == nil {
		now = time.Now
	}
	s := &AppointmentService{
		appointments: appointments,
		members:      members,
		idGenerator:  idGenerator,
		now:          now,
		logger:       defaultLogger(logger),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CreateAppointment validates the input and stores a scheduled appointment
// owned by the principal.
func (s *AppointmentService) CreateAppointment(ctx context.Context, principal Principal, input appointment.Input) (appointment.Appointment, error) {
	if s == nil || s.appointments == nil {
		return appointment.Appointment{}, fmt.Errorf("appointment service not configured")
	}
	if !principal.Valid() {
		return appointment.Appointment{}, ErrUnauthorized
	}
	logger := serviceLogger(ctx, s.logger, "AppointmentService", "CreateAppointment", "user_id", principal.UserID)

	now := s.now()
	vErr := input.Validate()
	if res := datewindow.ValidateCreate(input.StartAt, input.EndAt, wallclock.Now(now, s.location)); !res.OK() {
		vErr.Merge(res.Err().(*ValidationError))
	}
	if vErr.HasErrors() {
		logger.WarnContext(ctx, "appointment rejected", "error_kind", "validation")
		return appointment.Appointment{}, vErr
	}
	if err := s.ensureMembers(ctx, principal.CompanyID, input.ParticipantIDs); err != nil {
		return appointment.Appointment{}, err
	}

	a := input.Build(s.idGenerator(), principal.UserID, principal.CompanyID, now)
	if err := s.appointments.CreateAppointment(ctx, a); err != nil {
		logger.ErrorContext(ctx, "failed to store appointment", "error", err)
		return appointment.Appointment{}, mapRepoError(err)
	}
	logger.InfoContext(ctx, "appointment created", "appointment_id", a.ID, "participants", len(a.ParticipantIDs))
	return a, nil
}

// UpdateAppointment applies patch to an appointment the principal owns.
func (s *AppointmentService) UpdateAppointment(ctx context.Context, principal Principal, id string, patch appointment.Patch) (appointment.Appointment, error) {
	existing, err := s.owned(ctx, principal, id, ScopeCalendarUpdate)
	if err != nil {
		return appointment.Appointment{}, err
	}
	logger := serviceLogger(ctx, s.logger, "AppointmentService", "UpdateAppointment", "appointment_id", id)

	if patch.IsEmpty() {
		return appointment.Appointment{}, appointmentValidation("patch", "nothing to update")
	}
	vErr := patch.Validate()
	updated := patch.Apply(existing, s.now())
	if patch.StartAt != nil || patch.EndAt != nil {
		if res := datewindow.ValidateEdit(updated.StartAt, updated.EndAt); !res.OK() {
			vErr.Merge(res.Err().(*ValidationError))
		}
	}
	if vErr.HasErrors() {
		return appointment.Appointment{}, vErr
	}
	if patch.ParticipantIDs != nil {
		if err := s.ensureMembers(ctx, principal.CompanyID, *patch.ParticipantIDs); err != nil {
			return appointment.Appointment{}, err
		}
	}

	if err := s.appointments.UpdateAppointment(ctx, updated); err != nil {
		logger.ErrorContext(ctx, "failed to update appointment", "error", err)
		return appointment.Appointment{}, mapRepoError(err)
	}
	logger.InfoContext(ctx, "appointment updated")
	return updated, nil
}

// DeleteAppointment removes an owned appointment and cancels its pending
// invites, returning how many invites were cancelled.
func (s *AppointmentService) DeleteAppointment(ctx context.Context, principal Principal, id string) (int, error) {
	if _, err := s.owned(ctx, principal, id, ScopeCalendarDelete); err != nil {
		return 0, err
	}
	cancelled, err := s.appointments.DeleteAppointment(ctx, id, s.now())
	if err != nil {
		return 0, mapRepoError(err)
	}
	serviceLogger(ctx, s.logger, "AppointmentService", "DeleteAppointment", "appointment_id", id).
		InfoContext(ctx, "appointment deleted", "cancelled_invites", cancelled)
	return cancelled, nil
}

// ListAppointments enumerates the company's appointments by start instant.
func (s *AppointmentService) ListAppointments(ctx context.Context, params ListAppointmentsParams) ([]appointment.Appointment, error) {
	if s == nil || s.appointments == nil {
		return nil, fmt.Errorf("appointment service not configured")
	}
	if !params.Principal.Valid() {
		return nil, ErrUnauthorized
	}
	if params.From != nil && params.To != nil && !params.To.After(*params.From) {
		return nil, appointmentValidation("to", "to must be after from")
	}

	list, err := s.appointments.ListAppointments(ctx, persistence.AppointmentFilter{
		CompanyID:     params.Principal.CompanyID,
		ParticipantID: strings.TrimSpace(params.ParticipantID),
		StartsAfter:   params.From,
		EndsBefore:    params.To,
	})
	if err != nil {
		return nil, mapRepoError(err)
	}
	sort.SliceStable(list, func(i, j int) bool {
		if list[i].StartAt.Equal(list[j].StartAt) {
			return list[i].ID < list[j].ID
		}
		return list[i].StartAt.Before(list[j].StartAt)
	})
	return list, nil
}

// AddParticipant adds userID to an owned appointment. Adding a present
// participant is a no-op.
func (s *AppointmentService) AddParticipant(ctx context.Context, principal Principal, id, userID string) (appointment.Appointment, error) {
	existing, err := s.owned(ctx, principal, id, ScopeCalendarUpdate)
	if err != nil {
		return appointment.Appointment{}, err
	}
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return appointment.Appointment{}, appointmentValidation("userId", "user id is required")
	}
	if existing.HasParticipant(userID) {
		return existing, nil
	}
	if err := s.ensureMembers(ctx, principal.CompanyID, []string{userID}); err != nil {
		return appointment.Appointment{}, err
	}
	ids := append(append([]string(nil), existing.ParticipantIDs...), userID)
	return s.storeParticipants(ctx, existing, ids)
}

// RemoveParticipant drops userID from an owned appointment.
func (s *AppointmentService) RemoveParticipant(ctx context.Context, principal Principal, id, userID string) (appointment.Appointment, error) {
	existing, err := s.owned(ctx, principal, id, ScopeCalendarUpdate)
	if err != nil {
		return appointment.Appointment{}, err
	}
	if !existing.HasParticipant(userID) {
		return existing, nil
	}
	ids := make([]string, 0, len(existing.ParticipantIDs))
	for _, p := range existing.ParticipantIDs {
		if p != userID {
			ids = append(ids, p)
		}
	}
	return s.storeParticipants(ctx, existing, ids)
}

func (s *AppointmentService) storeParticipants(ctx context.Context, a appointment.Appointment, ids []string) (appointment.Appointment, error) {
	a.ParticipantIDs = appointment.NormalizeIDs(ids)
	a.UpdatedAt = s.now()
	if err := s.appointments.UpdateAppointment(ctx, a); err != nil {
		return appointment.Appointment{}, mapRepoError(err)
	}
	serviceLogger(ctx, s.logger, "AppointmentService", "Participants", "appointment_id", a.ID).
		InfoContext(ctx, "participants changed", "participants", len(a.ParticipantIDs))
	return a, nil
}

// visible loads an appointment of the principal's company. Appointments of
// other companies are reported as not found.
func (s *AppointmentService) visible(ctx context.Context, principal Principal, id string) (appointment.Appointment, error) {
	if s == nil || s.appointments == nil {
		return appointment.Appointment{}, fmt.Errorf("appointment service not configured")
	}
	if !principal.Valid() {
		return appointment.Appointment{}, ErrUnauthorized
	}
	a, err := s.appointments.GetAppointment(ctx, id)
	if err != nil {
		return appointment.Appointment{}, mapRepoError(err)
	}
	if a.CompanyID != principal.CompanyID {
		return appointment.Appointment{}, ErrNotFound
	}
	return a, nil
}

func (s *AppointmentService) owned(ctx context.Context, principal Principal, id, scope string) (appointment.Appointment, error) {
	a, err := s.visible(ctx, principal, id)
	if err != nil {
		return appointment.Appointment{}, err
	}
	if !a.IsOwnedBy(principal.UserID) {
		return appointment.Appointment{}, forbidden(scope)
	}
	return a, nil
}

func (s *AppointmentService) ensureMembers(ctx context.Context, companyID string, ids []string) error {
	return ensureMembers(ctx, s.members, companyID, "participantIds", ids)
}

func ensureMembers(ctx context.Context, members MemberDirectory, companyID, field string, ids []string) error {
	ids = appointment.NormalizeIDs(ids)
	if members == nil || len(ids) == 0 {
		return nil
	}
	roster, err := members.ListMembers(ctx, companyID)
	if err != nil {
		return mapRepoError(err)
	}
	known := make(map[string]struct{}, len(roster))
	for _, m := range roster {
		known[m.ID] = struct{}{}
	}
	var missing []string
	for _, id := range ids {
		if _, ok := known[id]; !ok {
			missing = append(missing, id)
		}
	}
	if len(missing) == 0 {
		return nil
	}
	return appointmentValidation(field, "unknown member ids "+strings.Join(missing, ", "))
}

func appointmentValidation(field, message string) *ValidationError {
	vErr := &ValidationError{}
	vErr.Add(field, message)
	return vErr
}
