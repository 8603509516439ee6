package http

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/example/company-calendar/internal/application"
	"github.com/example/company-calendar/internal/failure"
)

// Error codes rendered in the errorCode field.
const (
	codeBadRequest      = "BAD_REQUEST"
	codeUnauthenticated = "UNAUTHENTICATED"
	codeForbidden       = "FORBIDDEN"
	codeNotFound        = "NOT_FOUND"
	codeConflict        = "CONFLICT"
	codeInvalidState    = "INVALID_STATE"
	codeValidation      = "VALIDATION_FAILED"
	codeInternal        = "INTERNAL"
)

var (
	errBadRequestBody   = errors.New("request body is not valid JSON")
	errBadQuery         = errors.New("query parameters are invalid")
	errMissingToken     = errors.New("bearer token is required")
	errInvalidToken     = errors.New("bearer token is invalid or expired")
	errRouteNotFound    = errors.New("route not found")
	errMethodNotAllowed = errors.New("method not allowed")
)

type errorResponse struct {
	Message   string            `json:"message"`
	ErrorCode string            `json:"errorCode,omitempty"`
	Errors    map[string]string `json:"errors,omitempty"`
}

type responder struct {
	logger *slog.Logger
}

func newResponder(logger *slog.Logger) responder {
	return responder{logger: defaultLogger(logger)}
}

func (r responder) writeJSON(ctx context.Context, w http.ResponseWriter, status int, payload any) {
	if w == nil {
		return
	}

	if status == http.StatusNoContent || payload == nil {
		w.WriteHeader(status)
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		r.loggerFor(ctx).ErrorContext(ctx, "failed to encode response", "error", err)
	}
}

func (r responder) writeError(ctx context.Context, w http.ResponseWriter, status int, code string, err error) {
	message := http.StatusText(status)
	if err != nil && err.Error() != "" {
		message = err.Error()
	}
	r.writeJSON(ctx, w, status, errorResponse{Message: message, ErrorCode: code})
}

// handleServiceError maps application errors to statuses. Only permission
// denials may put a colon in the message.
func (r responder) handleServiceError(ctx context.Context, w http.ResponseWriter, err error) {
	logger := r.loggerFor(ctx)
	kind := application.ErrorKind(err)

	var (
		forbidden *application.ForbiddenError
		conflict  *application.ConflictError
		state     *failure.StateError
		vErr      *application.ValidationError
	)
	switch {
	case err == nil:
		r.writeError(ctx, w, http.StatusInternalServerError, codeInternal, errors.New("internal server error"))
	case errors.As(err, &forbidden):
		logger.WarnContext(ctx, "request denied", "error_kind", kind, "scope", forbidden.Scope)
		r.writeError(ctx, w, http.StatusForbidden, codeForbidden, forbidden)
	case errors.Is(err, application.ErrUnauthorized):
		r.writeError(ctx, w, http.StatusUnauthorized, codeUnauthenticated, errors.New("authentication required"))
	case errors.Is(err, application.ErrNotFound):
		r.writeError(ctx, w, http.StatusNotFound, codeNotFound, errors.New("resource not found"))
	case errors.As(err, &conflict):
		r.writeError(ctx, w, http.StatusConflict, codeConflict, conflict)
	case errors.As(err, &state):
		r.writeError(ctx, w, http.StatusConflict, codeInvalidState, errors.New(state.Reason))
	case errors.As(err, &vErr):
		r.writeJSON(ctx, w, http.StatusUnprocessableEntity, errorResponse{
			Message:   "validation failed",
			ErrorCode: codeValidation,
			Errors:    vErr.FieldErrors,
		})
	default:
		logger.ErrorContext(ctx, "request failed", "error_kind", kind, "error", err)
		r.writeError(ctx, w, http.StatusInternalServerError, codeInternal, errors.New("internal server error"))
	}
}

func (r responder) loggerFor(ctx context.Context) *slog.Logger {
	if logger := LoggerFromContext(ctx); logger != nil {
		return logger
	}
	return r.logger
}
