package registrations_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	uierrors "github.com/dalemusser/festivo/internal/app/features/errors"
	"github.com/dalemusser/festivo/internal/app/features/registrations"
	"github.com/dalemusser/festivo/internal/app/participation"
	"github.com/dalemusser/festivo/internal/app/system/auth"
	"github.com/dalemusser/festivo/internal/domain/models"
	"github.com/dalemusser/festivo/internal/testutil"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

func newTestHandler(t *testing.T) (*registrations.Handler, *testutil.Fixtures) {
	t.Helper()
	db := testutil.SetupTestDB(t)
	logger := zap.NewNop()
	svc := participation.New(db, nil, nil, logger)
	return registrations.NewHandler(svc, uierrors.NewErrorLogger(logger), logger), testutil.NewFixtures(t, db)
}

func newSessionManager(t *testing.T) *auth.SessionManager {
	t.Helper()
	sm, err := auth.NewSessionManager("test-session-key-32-characters-long", "test-session", "", time.Hour, false, zap.NewNop())
	if err != nil {
		t.Fatalf("NewSessionManager: %v", err)
	}
	return sm
}

func TestHandleRegister_Created(t *testing.T) {
	h, fx := newTestHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	c := fx.CreateCommittee(ctx, "Tech")
	ev := fx.CreateEvent(ctx, c.ID, "Hackathon", func(e *models.Event) {
		e.IsGroup = true
		e.MaxGroupSize = 3
	})
	leader := fx.CreateStudent(ctx, "Lee", "lee@example.com")
	mate := fx.CreateStudent(ctx, "Mo", "mo@example.com")

	req := testutil.NewRequest(t, "POST", "/api/events/"+ev.ID.Hex()+"/register", map[string]any{
		"groupMembers": []string{mate.ID.Hex()},
	})
	req = testutil.WithChiURLParam(req, "id", ev.ID.Hex())
	req = testutil.WithUser(req, leader)
	rec := httptest.NewRecorder()

	h.HandleRegister(rec, req)

	testutil.AssertStatus(t, rec, http.StatusCreated)
	var body struct {
		Message      string              `json:"message"`
		Registration models.Registration `json:"registration"`
	}
	testutil.DecodeJSON(t, rec, &body)
	if body.Registration.LeaderID != leader.ID {
		t.Errorf("leader = %s, want %s", body.Registration.LeaderID.Hex(), leader.ID.Hex())
	}
	if !body.Registration.IsGroupRegistration {
		t.Error("expected a group registration")
	}
	if body.Registration.QRCode == "" {
		t.Error("expected a QR token")
	}
}

func TestHandleRegister_Errors(t *testing.T) {
	h, fx := newTestHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	c := fx.CreateCommittee(ctx, "Tech")
	ev := fx.CreateEvent(ctx, c.ID, "Quiz")
	leader := fx.CreateStudent(ctx, "Lee", "lee@example.com")
	fx.CreateRegistration(ctx, ev.ID, leader.ID)
	other := fx.CreateStudent(ctx, "Ola", "ola@example.com")

	tests := []struct {
		name    string
		eventID string
		user    models.User
		body    any
		want    int
		kind    string
	}{
		{"already registered", ev.ID.Hex(), leader, map[string]any{}, http.StatusConflict, "conflict"},
		{"bad event id", "nope", other, map[string]any{}, http.StatusBadRequest, "invalid_argument"},
		{"unknown field", ev.ID.Hex(), other, map[string]any{"leader": "x"}, http.StatusBadRequest, "invalid_argument"},
		{"bad group id", ev.ID.Hex(), other, map[string]any{"groupMembers": []string{"zzz"}}, http.StatusBadRequest, "invalid_argument"},
		{"missing event", "507f1f77bcf86cd799439011", other, map[string]any{}, http.StatusNotFound, "not_found"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := testutil.NewRequest(t, "POST", "/api/events/"+tt.eventID+"/register", tt.body)
			req = testutil.WithChiURLParam(req, "id", tt.eventID)
			req = testutil.WithUser(req, tt.user)
			rec := httptest.NewRecorder()

			h.HandleRegister(rec, req)

			testutil.AssertStatus(t, rec, tt.want)
			var body testutil.ErrorBody
			testutil.DecodeJSON(t, rec, &body)
			if body.Error != tt.kind {
				t.Errorf("error kind = %q, want %q", body.Error, tt.kind)
			}
		})
	}
}

func TestServeUserRegistrations_SelfOrAdmin(t *testing.T) {
	h, fx := newTestHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	c := fx.CreateCommittee(ctx, "Tech")
	ev := fx.CreateEvent(ctx, c.ID, "Quiz")
	sam := fx.CreateStudent(ctx, "Sam", "sam@example.com")
	fx.CreateRegistration(ctx, ev.ID, sam.ID)
	other := fx.CreateStudent(ctx, "Ola", "ola@example.com")
	admin := fx.CreateAdmin(ctx, "Ada", "ada@example.com")

	tests := []struct {
		name string
		user models.User
		want int
	}{
		{"self", sam, http.StatusOK},
		{"admin", admin, http.StatusOK},
		{"other student", other, http.StatusForbidden},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/api/users/"+sam.ID.Hex()+"/registrations", nil)
			req = testutil.WithChiURLParam(req, "id", sam.ID.Hex())
			req = testutil.WithUser(req, tt.user)
			rec := httptest.NewRecorder()

			h.ServeUserRegistrations(rec, req)

			testutil.AssertStatus(t, rec, tt.want)
			if tt.want != http.StatusOK {
				return
			}
			var views []participation.RegistrationView
			testutil.DecodeJSON(t, rec, &views)
			if len(views) != 1 {
				t.Fatalf("got %d registrations, want 1", len(views))
			}
			if views[0].Event == nil || views[0].Event.Title != "Quiz" {
				t.Errorf("event not resolved: %+v", views[0].Event)
			}
		})
	}
}

func TestServeEventRegistrations_DeniedToStudents(t *testing.T) {
	h, fx := newTestHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	c := fx.CreateCommittee(ctx, "Tech")
	ev := fx.CreateEvent(ctx, c.ID, "Quiz")
	sam := fx.CreateStudent(ctx, "Sam", "sam@example.com")
	fx.CreateRegistration(ctx, ev.ID, sam.ID)
	member := fx.CreateMember(ctx, "Mina", "mina@example.com", c.ID)

	for _, tc := range []struct {
		user models.User
		want int
	}{
		{sam, http.StatusForbidden},
		{member, http.StatusOK},
	} {
		req := httptest.NewRequest("GET", "/api/events/"+ev.ID.Hex()+"/registrations", nil)
		req = testutil.WithChiURLParam(req, "id", ev.ID.Hex())
		req = testutil.WithUser(req, tc.user)
		rec := httptest.NewRecorder()

		h.ServeEventRegistrations(rec, req)
		testutil.AssertStatus(t, rec, tc.want)
	}
}

func TestRoutes_RequireSignedIn(t *testing.T) {
	h, _ := newTestHandler(t)
	sm := newSessionManager(t)

	r := chi.NewRouter()
	registrations.MountEventRoutes(r, h, sm)
	r.Mount("/users", registrations.UserRoutes(h, sm))

	for _, path := range []string{
		"/507f1f77bcf86cd799439011/registrations",
		"/users/507f1f77bcf86cd799439011/registrations",
	} {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest("GET", path, nil))
		testutil.AssertStatus(t, rec, http.StatusUnauthorized)
	}
}

func TestRoutes_SinglePrefix(t *testing.T) {
	h, _ := newTestHandler(t)
	r := registrations.Routes(h, newSessionManager(t))

	for _, tc := range []struct{ method, path string }{
		{"POST", "/events/507f1f77bcf86cd799439011/register"},
		{"GET", "/events/507f1f77bcf86cd799439011/registrations"},
		{"GET", "/users/507f1f77bcf86cd799439011/registrations"},
	} {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(tc.method, tc.path, nil))
		testutil.AssertStatus(t, rec, http.StatusUnauthorized)
	}
}
