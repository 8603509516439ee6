package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/example/company-calendar/internal/application"
	"github.com/example/company-calendar/internal/invite"
)

type inviteService interface {
	CreateInvite(ctx context.Context, principal application.Principal, req invite.CreateRequest) (invite.Invite, error)
	ListMyInvites(ctx context.Context, principal application.Principal) ([]invite.Invite, error)
	ListPendingInvites(ctx context.Context, principal application.Principal) ([]invite.Invite, error)
	RespondToInvite(ctx context.Context, principal application.Principal, id string, req invite.RespondRequest) (invite.Invite, error)
	CancelInvite(ctx context.Context, principal application.Principal, id string) error
}

// InviteHandler serves /appointment-invites.
type InviteHandler struct {
	service   inviteService
	responder responder
}

// NewInviteHandler wires the invite service.
func NewInviteHandler(service inviteService, logger *slog.Logger) *InviteHandler {
	return &InviteHandler{service: service, responder: newResponder(logger)}
}

func (h *InviteHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req invite.CreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, codeBadRequest, errBadRequestBody)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	created, err := h.service.CreateInvite(r.Context(), principal, req)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusCreated, created)
}

func (h *InviteHandler) ListMine(w http.ResponseWriter, r *http.Request) {
	h.list(w, r, h.service.ListMyInvites)
}

func (h *InviteHandler) ListPending(w http.ResponseWriter, r *http.Request) {
	h.list(w, r, h.service.ListPendingInvites)
}

func (h *InviteHandler) list(w http.ResponseWriter, r *http.Request, fetch func(context.Context, application.Principal) ([]invite.Invite, error)) {
	principal, _ := PrincipalFromContext(r.Context())
	list, err := fetch(r.Context(), principal)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	if list == nil {
		list = []invite.Invite{}
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, list)
}

func (h *InviteHandler) Respond(w http.ResponseWriter, r *http.Request) {
	var req invite.RespondRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, codeBadRequest, errBadRequestBody)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	updated, err := h.service.RespondToInvite(r.Context(), principal, chi.URLParam(r, "id"), req)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, updated)
}

func (h *InviteHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	principal, _ := PrincipalFromContext(r.Context())
	if err := h.service.CancelInvite(r.Context(), principal, chi.URLParam(r, "id")); err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusNoContent, nil)
}
