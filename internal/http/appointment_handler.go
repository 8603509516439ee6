package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/example/company-calendar/internal/application"
	"github.com/example/company-calendar/internal/appointment"
)

type appointmentService interface {
	CreateAppointment(ctx context.Context, principal application.Principal, input appointment.Input) (appointment.Appointment, error)
	UpdateAppointment(ctx context.Context, principal application.Principal, id string, patch appointment.Patch) (appointment.Appointment, error)
	DeleteAppointment(ctx context.Context, principal application.Principal, id string) (int, error)
	ListAppointments(ctx context.Context, params application.ListAppointmentsParams) ([]appointment.Appointment, error)
	AddParticipant(ctx context.Context, principal application.Principal, id, userID string) (appointment.Appointment, error)
	RemoveParticipant(ctx context.Context, principal application.Principal, id, userID string) (appointment.Appointment, error)
}

// AppointmentHandler serves /appointments.
type AppointmentHandler struct {
	service   appointmentService
	responder responder
	logger    *slog.Logger
}

// NewAppointmentHandler wires the appointment service.
func NewAppointmentHandler(service appointmentService, logger *slog.Logger) *AppointmentHandler {
	return &AppointmentHandler{service: service, responder: newResponder(logger), logger: defaultLogger(logger)}
}

func (h *AppointmentHandler) Create(w http.ResponseWriter, r *http.Request) {
	var input appointment.Input
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, codeBadRequest, errBadRequestBody)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	created, err := h.service.CreateAppointment(r.Context(), principal, input)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusCreated, created)
}

func (h *AppointmentHandler) Update(w http.ResponseWriter, r *http.Request) {
	var patch appointment.Patch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, codeBadRequest, errBadRequestBody)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	updated, err := h.service.UpdateAppointment(r.Context(), principal, chi.URLParam(r, "id"), patch)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, updated)
}

func (h *AppointmentHandler) Delete(w http.ResponseWriter, r *http.Request) {
	principal, _ := PrincipalFromContext(r.Context())
	id := chi.URLParam(r, "id")
	cancelled, err := h.service.DeleteAppointment(r.Context(), principal, id)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	handlerLogger(r.Context(), h.logger, "AppointmentHandler", "Delete", "appointment_id", id).
		DebugContext(r.Context(), "appointment deleted", "cancelled_invites", cancelled)
	h.responder.writeJSON(r.Context(), w, http.StatusNoContent, nil)
}

// List accepts optional RFC 3339 from/to bounds and a participantId.
func (h *AppointmentHandler) List(w http.ResponseWriter, r *http.Request) {
	principal, _ := PrincipalFromContext(r.Context())
	params := application.ListAppointmentsParams{
		Principal:     principal,
		ParticipantID: r.URL.Query().Get("participantId"),
	}
	var err error
	if params.From, err = optionalTime(r, "from"); err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, codeBadRequest, errBadQuery)
		return
	}
	if params.To, err = optionalTime(r, "to"); err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, codeBadRequest, errBadQuery)
		return
	}

	list, err := h.service.ListAppointments(r.Context(), params)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	if list == nil {
		list = []appointment.Appointment{}
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, list)
}

func (h *AppointmentHandler) AddParticipant(w http.ResponseWriter, r *http.Request) {
	h.participant(w, r, h.service.AddParticipant)
}

func (h *AppointmentHandler) RemoveParticipant(w http.ResponseWriter, r *http.Request) {
	h.participant(w, r, h.service.RemoveParticipant)
}

func (h *AppointmentHandler) participant(w http.ResponseWriter, r *http.Request, op func(context.Context, application.Principal, string, string) (appointment.Appointment, error)) {
	principal, _ := PrincipalFromContext(r.Context())
	updated, err := op(r.Context(), principal, chi.URLParam(r, "id"), chi.URLParam(r, "userId"))
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, updated)
}

func optionalTime(r *http.Request, key string) (*time.Time, error) {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
