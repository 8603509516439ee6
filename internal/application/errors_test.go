package application

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/example/company-calendar/internal/failure"
)

func TestForbiddenErrorCarriesScope(t *testing.T) {
	t.Parallel()

	err := fmt.Errorf("update: %w", forbidden(ScopeCalendarUpdate))
	if !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized match, got %v", err)
	}
	var fErr *ForbiddenError
	if !errors.As(err, &fErr) || fErr.Error() != "forbidden: missing scope calendar:update" {
		t.Fatalf("unexpected forbidden error %v", err)
	}
}

func TestConflictErrorMessageHasNoColon(t *testing.T) {
	t.Parallel()

	err := conflict("member %s already has an active invite", "u1")
	if !errors.Is(err, ErrConflict) {
		t.Fatalf("expected ErrConflict match")
	}
	if strings.Contains(err.Error(), ":") {
		t.Fatalf("conflict messages must not look like scope tokens, got %q", err.Error())
	}
}

func TestErrorKind(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		err  error
		want string
	}{
		"nil":        {nil, ""},
		"forbidden":  {forbidden(ScopeInviteCancel), "unauthorized"},
		"not found":  {fmt.Errorf("get: %w", ErrNotFound), "not_found"},
		"conflict":   {conflict("taken"), "conflict"},
		"validation": {failure.Validation("title", "title is required"), "validation"},
		"state":      {failure.State("respond", "already responded"), "state"},
		"other":      {errors.New("boom"), "unexpected"},
	}
	for name, tc := range tests {
		if got := ErrorKind(tc.err); got != tc.want {
			t.Fatalf("%s: expected %q, got %q", name, tc.want, got)
		}
	}
}
