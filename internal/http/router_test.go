package http

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/example/company-calendar/internal/application"
	"github.com/example/company-calendar/internal/appointment"
	"github.com/example/company-calendar/internal/auth"
	"github.com/example/company-calendar/internal/invite"
	"github.com/example/company-calendar/internal/participants"
	"github.com/example/company-calendar/internal/testfixtures"
)

const testSecret = "router-test-secret-0123456789"

type testServer struct {
	handler http.Handler
	issuer  *auth.Issuer
	clock   *testfixtures.Clock
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	harness := testfixtures.NewSQLiteHarness(t)
	harness.SeedMembers(t,
		testfixtures.NewMember(testfixtures.WithMemberID("owner"), testfixtures.WithMemberName("Olivia Owner")),
		testfixtures.NewMember(testfixtures.WithMemberID("u1"), testfixtures.WithMemberName("Uma One")),
		testfixtures.NewMember(testfixtures.WithMemberID("u2"), testfixtures.WithMemberName("Umar Two")),
		testfixtures.NewMember(testfixtures.WithMemberID("stranger"), testfixtures.WithMemberCompany("company-2")),
	)

	clock := testfixtures.NewClock(testfixtures.ReferenceTime())
	ids := testfixtures.NewIDGenerator("id")
	logger := testfixtures.DiscardLogger()

	issuer, err := auth.NewIssuer(testSecret, time.Hour, clock.NowFunc())
	if err != nil {
		t.Fatalf("NewIssuer returned error: %v", err)
	}

	appointments := application.NewAppointmentService(harness.Appointments, harness.Members, ids.NextFunc(), clock.NowFunc(), logger)
	invites := application.NewInviteService(harness.Invites, harness.Appointments, harness.Members, ids.NextFunc(), clock.NowFunc(), logger)
	members := application.NewMemberService(harness.Members, clock.NowFunc(), logger)

	handler := NewRouter(RouterConfig{
		Appointments: NewAppointmentHandler(appointments, logger),
		Invites:      NewInviteHandler(invites, logger),
		Members:      NewMemberHandler(members, logger),
		Verifier:     issuer,
		Logger:       logger,
	})
	return &testServer{handler: handler, issuer: issuer, clock: clock}
}

func (s *testServer) token(t *testing.T, userID, companyID string) string {
	t.Helper()
	token, _, err := s.issuer.Issue(auth.Identity{UserID: userID, CompanyID: companyID})
	if err != nil {
		t.Fatalf("Issue returned error: %v", err)
	}
	return token
}

func (s *testServer) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	if err := json.NewDecoder(rec.Body).Decode(&out); err != nil {
		t.Fatalf("decode response %q: %v", rec.Body.String(), err)
	}
	return out
}

func (s *testServer) createVisit(t *testing.T, token string) appointment.Appointment {
	t.Helper()
	start := s.clock.Tomorrow(10)
	rec := s.do(t, http.MethodPost, "/appointments", token, appointment.Input{
		Title:   "Visit",
		Type:    appointment.TypeVisit,
		StartAt: start,
		EndAt:   start.Add(time.Hour),
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create status = %d body=%s", rec.Code, rec.Body.String())
	}
	return decode[appointment.Appointment](t, rec)
}

func TestHealthzIsPublic(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t)
	rec := srv.do(t, http.MethodGet, "/healthz", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestRequireBearerRejectsMissingAndInvalidTokens(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t)

	rec := srv.do(t, http.MethodGet, "/appointments", "", nil)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("missing token: expected 401, got %d", rec.Code)
	}
	if got := decode[errorResponse](t, rec); got.ErrorCode != codeUnauthenticated {
		t.Fatalf("unexpected error code %q", got.ErrorCode)
	}

	rec = srv.do(t, http.MethodGet, "/appointments", "not-a-token", nil)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("invalid token: expected 401, got %d", rec.Code)
	}

	token := srv.token(t, "owner", testfixtures.DefaultCompanyID)
	srv.clock.Advance(2 * time.Hour)
	rec = srv.do(t, http.MethodGet, "/appointments", token, nil)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expired token: expected 401, got %d", rec.Code)
	}
}

func TestAppointmentLifecycle(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t)
	owner := srv.token(t, "owner", testfixtures.DefaultCompanyID)

	created := srv.createVisit(t, owner)
	if created.OwnerUserID != "owner" || created.Status != appointment.StatusScheduled {
		t.Fatalf("unexpected appointment %+v", created)
	}

	title := "Site visit"
	rec := srv.do(t, http.MethodPatch, "/appointments/"+created.ID, owner, appointment.Patch{Title: &title})
	if rec.Code != http.StatusOK {
		t.Fatalf("patch status = %d body=%s", rec.Code, rec.Body.String())
	}
	if got := decode[appointment.Appointment](t, rec); got.Title != title {
		t.Fatalf("expected title %q, got %q", title, got.Title)
	}

	rec = srv.do(t, http.MethodPost, "/appointments/"+created.ID+"/participants/u1", owner, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("add participant status = %d body=%s", rec.Code, rec.Body.String())
	}
	if got := decode[appointment.Appointment](t, rec); !got.HasParticipant("u1") {
		t.Fatalf("expected u1 to participate, got %v", got.ParticipantIDs)
	}

	rec = srv.do(t, http.MethodGet, "/appointments?participantId=u1", owner, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("list status = %d", rec.Code)
	}
	if list := decode[[]appointment.Appointment](t, rec); len(list) != 1 || list[0].ID != created.ID {
		t.Fatalf("unexpected list %+v", list)
	}

	rec = srv.do(t, http.MethodDelete, "/appointments/"+created.ID+"/participants/u1", owner, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("remove participant status = %d", rec.Code)
	}

	rec = srv.do(t, http.MethodDelete, "/appointments/"+created.ID, owner, nil)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("delete status = %d body=%s", rec.Code, rec.Body.String())
	}
	if rec.Body.Len() != 0 {
		t.Fatalf("expected empty delete body, got %q", rec.Body.String())
	}

	rec = srv.do(t, http.MethodGet, "/appointments", owner, nil)
	if list := decode[[]appointment.Appointment](t, rec); len(list) != 0 {
		t.Fatalf("expected empty list after delete, got %+v", list)
	}
}

func TestListAppointmentsRejectsMalformedRange(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t)
	owner := srv.token(t, "owner", testfixtures.DefaultCompanyID)

	rec := srv.do(t, http.MethodGet, "/appointments?from=yesterday", owner, nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}

	rec = srv.do(t, http.MethodGet, "/appointments?from=2024-10-20T00:00:00Z&to=2024-10-19T00:00:00Z", owner, nil)
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", rec.Code)
	}
}

func TestPermissionDenialNamesScope(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t)
	created := srv.createVisit(t, srv.token(t, "owner", testfixtures.DefaultCompanyID))
	other := srv.token(t, "u1", testfixtures.DefaultCompanyID)

	title := "Hijacked"
	rec := srv.do(t, http.MethodPatch, "/appointments/"+created.ID, other, appointment.Patch{Title: &title})
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", rec.Code)
	}
	body := decode[errorResponse](t, rec)
	if body.Message != "forbidden: missing scope calendar:update" || body.ErrorCode != codeForbidden {
		t.Fatalf("unexpected denial %+v", body)
	}

	rec = srv.do(t, http.MethodDelete, "/appointments/"+created.ID, other, nil)
	if got := decode[errorResponse](t, rec); !strings.HasSuffix(got.Message, application.ScopeCalendarDelete) {
		t.Fatalf("expected delete scope in %q", got.Message)
	}
}

func TestOtherCompanySeesNotFound(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t)
	created := srv.createVisit(t, srv.token(t, "owner", testfixtures.DefaultCompanyID))

	rec := srv.do(t, http.MethodDelete, "/appointments/"+created.ID, srv.token(t, "stranger", "company-2"), nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
	if body := decode[errorResponse](t, rec); strings.Contains(body.Message, ":") {
		t.Fatalf("non-permission message must not contain a colon: %q", body.Message)
	}
}

func TestCreateAppointmentValidation(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t)
	owner := srv.token(t, "owner", testfixtures.DefaultCompanyID)

	rec := srv.do(t, http.MethodPost, "/appointments", owner, appointment.Input{Title: "  "})
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d body=%s", rec.Code, rec.Body.String())
	}
	body := decode[errorResponse](t, rec)
	if body.ErrorCode != codeValidation || body.Errors["title"] == "" {
		t.Fatalf("expected title field error, got %+v", body)
	}

	req := httptest.NewRequest(http.MethodPost, "/appointments", strings.NewReader("{"))
	req.Header.Set("Authorization", "Bearer "+owner)
	raw := httptest.NewRecorder()
	srv.handler.ServeHTTP(raw, req)
	if raw.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for malformed body, got %d", raw.Code)
	}
}

func TestInviteFlow(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t)
	owner := srv.token(t, "owner", testfixtures.DefaultCompanyID)
	u1 := srv.token(t, "u1", testfixtures.DefaultCompanyID)
	created := srv.createVisit(t, owner)

	rec := srv.do(t, http.MethodPost, "/appointment-invites", owner, invite.CreateRequest{AppointmentID: created.ID, InvitedUserID: "u1"})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create invite status = %d body=%s", rec.Code, rec.Body.String())
	}
	inv := decode[invite.Invite](t, rec)
	if inv.Status != invite.StatusPending || inv.Appointment == nil || inv.Appointment.Title != "Visit" {
		t.Fatalf("unexpected invite %+v", inv)
	}

	rec = srv.do(t, http.MethodPost, "/appointment-invites", owner, invite.CreateRequest{AppointmentID: created.ID, InvitedUserID: "u1"})
	if rec.Code != http.StatusConflict {
		t.Fatalf("duplicate invite: expected 409, got %d", rec.Code)
	}

	rec = srv.do(t, http.MethodGet, "/appointment-invites/pending", u1, nil)
	if pending := decode[[]invite.Invite](t, rec); len(pending) != 1 || pending[0].ID != inv.ID {
		t.Fatalf("unexpected pending invites %+v", pending)
	}

	rec = srv.do(t, http.MethodPatch, "/appointment-invites/"+inv.ID+"/respond", owner, invite.RespondRequest{Status: "accepted"})
	if rec.Code != http.StatusForbidden {
		t.Fatalf("inviter responding: expected 403, got %d", rec.Code)
	}

	rec = srv.do(t, http.MethodPatch, "/appointment-invites/"+inv.ID+"/respond", u1, invite.RespondRequest{Status: "accepted"})
	if rec.Code != http.StatusOK {
		t.Fatalf("respond status = %d body=%s", rec.Code, rec.Body.String())
	}
	if got := decode[invite.Invite](t, rec); got.Status != invite.StatusAccepted || got.RespondedAt == nil {
		t.Fatalf("unexpected response %+v", got)
	}

	rec = srv.do(t, http.MethodGet, "/appointment-invites/pending", u1, nil)
	if pending := decode[[]invite.Invite](t, rec); len(pending) != 0 {
		t.Fatalf("expected no pending invites, got %+v", pending)
	}

	rec = srv.do(t, http.MethodGet, "/appointment-invites/my-invites", u1, nil)
	if mine := decode[[]invite.Invite](t, rec); len(mine) != 1 {
		t.Fatalf("expected one invite, got %+v", mine)
	}

	rec = srv.do(t, http.MethodDelete, "/appointment-invites/"+inv.ID, owner, nil)
	if rec.Code != http.StatusConflict {
		t.Fatalf("cancelling answered invite: expected 409, got %d", rec.Code)
	}
}

func TestCancelInvite(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t)
	owner := srv.token(t, "owner", testfixtures.DefaultCompanyID)
	created := srv.createVisit(t, owner)

	rec := srv.do(t, http.MethodPost, "/appointment-invites", owner, invite.CreateRequest{AppointmentID: created.ID, InvitedUserID: "u2"})
	inv := decode[invite.Invite](t, rec)

	rec = srv.do(t, http.MethodDelete, "/appointment-invites/"+inv.ID, owner, nil)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("cancel status = %d body=%s", rec.Code, rec.Body.String())
	}

	rec = srv.do(t, http.MethodGet, "/appointment-invites/pending", srv.token(t, "u2", testfixtures.DefaultCompanyID), nil)
	if pending := decode[[]invite.Invite](t, rec); len(pending) != 0 {
		t.Fatalf("expected cancelled invite to leave pending list, got %+v", pending)
	}
}

func TestListMembers(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t)
	rec := srv.do(t, http.MethodGet, "/members", srv.token(t, "owner", testfixtures.DefaultCompanyID), nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	roster := decode[[]participants.Member](t, rec)
	if len(roster) != 3 {
		t.Fatalf("expected the three company-1 members, got %+v", roster)
	}
}

func TestUnknownRouteRendersJSON(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t)
	rec := srv.do(t, http.MethodGet, "/nowhere", srv.token(t, "owner", testfixtures.DefaultCompanyID), nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
	if body := decode[errorResponse](t, rec); body.ErrorCode != codeNotFound {
		t.Fatalf("unexpected body %+v", body)
	}
}

func TestBearerTokenParsing(t *testing.T) {
	t.Parallel()

	cases := map[string]string{
		"":             "",
		"Bearer":       "",
		"Basic abc":    "",
		"Bearer abc":   "abc",
		"bearer  abc ": "abc",
		"BEARER x.y.z": "x.y.z",
	}
	for header, want := range cases {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", header)
		if got := bearerToken(req); got != want {
			t.Fatalf("bearerToken(%q) = %q, want %q", header, got, want)
		}
	}
}
