package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

type RouterConfig struct {
	Appointments   *AppointmentHandler
	Invites        *InviteHandler
	Members        *MemberHandler
	Verifier       TokenVerifier
	AllowedOrigins []string
	Logger         *slog.Logger
}

func NewRouter(cfg RouterConfig) http.Handler {
	logger := defaultLogger(cfg.Logger)
	responder := newResponder(logger)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(RequestLogger(logger))
	r.Use(middleware.Recoverer)
	r.Use(CORS(cfg.AllowedOrigins))

	r.NotFound(func(w http.ResponseWriter, req *http.Request) {
		responder.writeError(req.Context(), w, http.StatusNotFound, codeNotFound, errRouteNotFound)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, req *http.Request) {
		responder.writeError(req.Context(), w, http.StatusMethodNotAllowed, codeBadRequest, errMethodNotAllowed)
	})

	r.Get("/healthz", func(w http.ResponseWriter, req *http.Request) {
		responder.writeJSON(req.Context(), w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Group(func(r chi.Router) {
		if cfg.Verifier != nil {
			r.Use(RequireBearer(cfg.Verifier, logger))
		}

		if h := cfg.Appointments; h != nil {
			r.Route("/appointments", func(r chi.Router) {
				r.Post("/", h.Create)
				r.Get("/", h.List)
				r.Patch("/{id}", h.Update)
				r.Delete("/{id}", h.Delete)
				r.Post("/{id}/participants/{userId}", h.AddParticipant)
				r.Delete("/{id}/participants/{userId}", h.RemoveParticipant)
			})
		}

		if h := cfg.Invites; h != nil {
			r.Route("/appointment-invites", func(r chi.Router) {
				r.Post("/", h.Create)
				r.Get("/my-invites", h.ListMine)
				r.Get("/pending", h.ListPending)
				r.Patch("/{id}/respond", h.Respond)
				r.Delete("/{id}", h.Cancel)
			})
		}

		if h := cfg.Members; h != nil {
			r.Get("/members", h.List)
		}
	})

	return r
}
