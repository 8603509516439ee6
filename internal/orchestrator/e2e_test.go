package orchestrator_test

import (
	"context"
	"errors"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/example/company-calendar/internal/application"
	"github.com/example/company-calendar/internal/appointment"
	"github.com/example/company-calendar/internal/auth"
	"github.com/example/company-calendar/internal/client"
	"github.com/example/company-calendar/internal/failure"
	httptransport "github.com/example/company-calendar/internal/http"
	"github.com/example/company-calendar/internal/invite"
	"github.com/example/company-calendar/internal/orchestrator"
	"github.com/example/company-calendar/internal/testfixtures"
)

// stack runs the API server over SQLite and hands out sessions that talk to
// it through the HTTP client.
type stack struct {
	server *httptest.Server
	issuer *auth.Issuer
	clock  *testfixtures.Clock
}

func newStack(t *testing.T) *stack {
	t.Helper()

	harness := testfixtures.NewSQLiteHarness(t)
	for _, id := range []string{"owner", "u1", "u2"} {
		harness.SeedMembers(t, testfixtures.NewMember(testfixtures.WithMemberID(id)))
	}

	clock := testfixtures.NewClock(testfixtures.ReferenceTime())
	ids := testfixtures.NewIDGenerator("e2e")
	logger := testfixtures.DiscardLogger()

	issuer, err := auth.NewIssuer("e2e-test-secret-0123456789", time.Hour, clock.NowFunc())
	if err != nil {
		t.Fatalf("NewIssuer returned error: %v", err)
	}

	appointments := application.NewAppointmentService(harness.Appointments, harness.Members, ids.NextFunc(), clock.NowFunc(), logger)
	invites := application.NewInviteService(harness.Invites, harness.Appointments, harness.Members, ids.NextFunc(), clock.NowFunc(), logger)
	members := application.NewMemberService(harness.Members, clock.NowFunc(), logger)

	server := httptest.NewServer(httptransport.NewRouter(httptransport.RouterConfig{
		Appointments: httptransport.NewAppointmentHandler(appointments, logger),
		Invites:      httptransport.NewInviteHandler(invites, logger),
		Members:      httptransport.NewMemberHandler(members, logger),
		Verifier:     issuer,
		Logger:       logger,
	}))
	t.Cleanup(server.Close)

	return &stack{server: server, issuer: issuer, clock: clock}
}

func (s *stack) session(t *testing.T, userID string) *orchestrator.Session {
	t.Helper()

	token, _, err := s.issuer.Issue(auth.Identity{UserID: userID, CompanyID: testfixtures.DefaultCompanyID})
	if err != nil {
		t.Fatalf("Issue returned error: %v", err)
	}
	c, err := client.New(s.server.URL,
		client.WithHTTPClient(s.server.Client()),
		client.WithTokenSource(client.StaticToken(token)),
		client.WithLogger(testfixtures.DiscardLogger()),
	)
	if err != nil {
		t.Fatalf("client.New returned error: %v", err)
	}
	return orchestrator.NewSession(c, orchestrator.Options{
		UserID: userID,
		Logger: testfixtures.DiscardLogger(),
		Now:    s.clock.NowFunc(),
	})
}

func TestEndToEndInviteAcceptance(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	st := newStack(t)
	owner := st.session(t, "owner")
	u1 := st.session(t, "u1")
	u2 := st.session(t, "u2")

	start := st.clock.Tomorrow(10)
	created, failures, err := owner.CreateAppointment(ctx, appointment.Input{
		Title:   "Visit",
		Type:    appointment.TypeVisit,
		StartAt: start,
		EndAt:   start.Add(time.Hour),
	}, []string{"u1", "u2", "owner"})
	if err != nil {
		t.Fatalf("CreateAppointment returned error: %v", err)
	}
	if len(failures) != 0 {
		t.Fatalf("expected every invite to succeed, got %+v", failures)
	}

	pending, err := u1.LoadPendingInvites(ctx)
	if err != nil {
		t.Fatalf("LoadPendingInvites returned error: %v", err)
	}
	if len(pending) != 1 || pending[0].AppointmentID != created.ID {
		t.Fatalf("unexpected pending invites for u1: %+v", pending)
	}

	accepted, err := u1.RespondToInvite(ctx, pending[0].ID, invite.StatusAccepted, nil)
	if err != nil {
		t.Fatalf("RespondToInvite returned error: %v", err)
	}
	if accepted.Status != invite.StatusAccepted {
		t.Fatalf("expected accepted invite, got %s", accepted.Status)
	}
	if got := u1.PendingInvites(); len(got) != 0 {
		t.Fatalf("expected u1 pending list to be empty, got %+v", got)
	}
	if mine := u1.MyInvites(); len(mine) != 1 || mine[0].Status != invite.StatusAccepted {
		t.Fatalf("unexpected my invites for u1: %+v", mine)
	}

	stillPending, err := u2.LoadPendingInvites(ctx)
	if err != nil {
		t.Fatalf("LoadPendingInvites returned error: %v", err)
	}
	if len(stillPending) != 1 || stillPending[0].Status != invite.StatusPending {
		t.Fatalf("expected u2 invite to stay pending, got %+v", stillPending)
	}

	list, err := owner.LoadAppointments(ctx)
	if err != nil {
		t.Fatalf("LoadAppointments returned error: %v", err)
	}
	if len(list) != 1 || !list[0].HasParticipant("u1") || list[0].HasParticipant("u2") {
		t.Fatalf("expected u1 alone to join, got %+v", list)
	}
}

func TestEndToEndPermissionDenialIsTranslated(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	st := newStack(t)
	owner := st.session(t, "owner")
	u1 := st.session(t, "u1")

	start := st.clock.Tomorrow(14)
	created, _, err := owner.CreateAppointment(ctx, appointment.Input{Title: "Review", Type: appointment.TypeMeeting, StartAt: start, EndAt: start.Add(time.Hour)}, nil)
	if err != nil {
		t.Fatalf("CreateAppointment returned error: %v", err)
	}

	title := "Mine now"
	_, err = u1.UpdateAppointment(ctx, created.ID, appointment.Patch{Title: &title})
	var pErr *failure.PermissionError
	if !errors.As(err, &pErr) {
		t.Fatalf("expected permission error, got %v", err)
	}
	if pErr.Message != orchestrator.PermissionMessage(orchestrator.OpUpdateAppointment) {
		t.Fatalf("unexpected message %q", pErr.Message)
	}
}

func TestEndToEndMultiDayOccurrences(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	st := newStack(t)
	owner := st.session(t, "owner")

	start := st.clock.Tomorrow(9)
	created, _, err := owner.CreateAppointment(ctx, appointment.Input{
		Title:   "Trade fair",
		Type:    appointment.TypeMarketing,
		StartAt: start,
		EndAt:   start.Add(48*time.Hour + 8*time.Hour),
	}, nil)
	if err != nil {
		t.Fatalf("CreateAppointment returned error: %v", err)
	}

	if _, err := owner.LoadAppointments(ctx); err != nil {
		t.Fatalf("LoadAppointments returned error: %v", err)
	}
	occs := owner.Occurrences()
	if len(occs) != 3 {
		t.Fatalf("expected 3 occurrences, got %d", len(occs))
	}
	for _, occ := range occs {
		if !occ.AllDay {
			t.Fatalf("expected all-day occurrence, got %+v", occ)
		}
		resolved, ok := owner.AppointmentForOccurrence(occ)
		if !ok || resolved.ID != created.ID {
			t.Fatalf("occurrence %s resolved to %+v", occ.ID, resolved)
		}
	}

	secondDay := time.Date(start.Year(), start.Month(), start.Day()+1, 0, 0, 0, 0, start.Location())
	window := owner.OccurrencesBetween(secondDay, secondDay.AddDate(0, 0, 1))
	if len(window) != 1 || window[0].ID != created.ID+"-"+secondDay.Format("2006-01-02") {
		t.Fatalf("expected only the second day in the window, got %+v", window)
	}
	if open := owner.OccurrencesBetween(time.Time{}, time.Time{}); len(open) != 3 {
		t.Fatalf("expected open bounds to keep every occurrence, got %d", len(open))
	}
}
