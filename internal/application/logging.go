package application

import (
	"context"
	"errors"
	"log/slog"

	"github.com/example/company-calendar/internal/failure"
	"github.com/example/company-calendar/internal/logging"
)

func defaultLogger(logger *slog.Logger) *slog.Logger {
	if logger != nil {
		return logger
	}
	return slog.Default()
}

func serviceLogger(ctx context.Context, base *slog.Logger, serviceName, operation string, attrs ...any) *slog.Logger {
	return logging.Component(ctx, base, serviceName, operation, attrs...)
}

// ErrorKind maps sentinel and validation errors to a stable logging label.
func ErrorKind(err error) string {
	if err == nil {
		return ""
	}
	switch {
	case errors.Is(err, ErrUnauthorized):
		return "unauthorized"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrConflict):
		return "conflict"
	}

	var (
		vErr *ValidationError
		sErr *failure.StateError
	)
	switch {
	case errors.As(err, &vErr):
		return "validation"
	case errors.As(err, &sErr):
		return "state"
	}
	return "unexpected"
}
