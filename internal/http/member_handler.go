package http

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/example/company-calendar/internal/application"
	"github.com/example/company-calendar/internal/participants"
)

type memberService interface {
	ListMembers(ctx context.Context, principal application.Principal) ([]participants.Member, error)
}

// MemberHandler serves the member directory.
type MemberHandler struct {
	service   memberService
	responder responder
}

func NewMemberHandler(service memberService, logger *slog.Logger) *MemberHandler {
	return &MemberHandler{service: service, responder: newResponder(logger)}
}

func (h *MemberHandler) List(w http.ResponseWriter, r *http.Request) {
	principal, _ := PrincipalFromContext(r.Context())
	roster, err := h.service.ListMembers(r.Context(), principal)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	if roster == nil {
		roster = []participants.Member{}
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, roster)
}
