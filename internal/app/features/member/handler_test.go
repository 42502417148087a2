package member_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	uierrors "github.com/dalemusser/festivo/internal/app/features/errors"
	"github.com/dalemusser/festivo/internal/app/features/member"
	"github.com/dalemusser/festivo/internal/app/participation"
	"github.com/dalemusser/festivo/internal/app/reporting"
	"github.com/dalemusser/festivo/internal/app/system/auth"
	"github.com/dalemusser/festivo/internal/domain/models"
	"github.com/dalemusser/festivo/internal/testutil"
	"go.mongodb.org/mongo-driver/bson"
	"go.uber.org/zap"
)

func newRouter(t *testing.T) (http.Handler, *testutil.Fixtures) {
	t.Helper()
	db := testutil.SetupTestDB(t)
	logger := zap.NewNop()
	h := member.NewHandler(db, participation.New(db, nil, nil, logger), reporting.New(db), uierrors.NewErrorLogger(logger), logger)
	sm, err := auth.NewSessionManager("test-session-key-32-characters-long", "test-session", "", time.Hour, false, logger)
	if err != nil {
		t.Fatalf("NewSessionManager: %v", err)
	}
	return member.Routes(h, sm), testutil.NewFixtures(t, db)
}

func get(r http.Handler, u models.User, target string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, testutil.WithUser(httptest.NewRequest("GET", target, nil), u))
	return rec
}

func TestMemberConsole(t *testing.T) {
	r, fx := newRouter(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	tech := fx.CreateCommittee(ctx, "Tech")
	arts := fx.CreateCommittee(ctx, "Arts")
	mo := fx.CreateMember(ctx, "Mo", "mo@example.com", tech.ID)
	quiz := fx.CreateEvent(ctx, tech.ID, "Quiz")
	paint := fx.CreateEvent(ctx, arts.ID, "Paint")
	sam := fx.CreateStudent(ctx, "Sam", "sam@example.com")
	fx.CreateRegistration(ctx, quiz.ID, sam.ID)
	fx.CreateRegistration(ctx, paint.ID, sam.ID)

	rec := get(r, mo, "/committee")
	testutil.AssertStatus(t, rec, http.StatusOK)
	var detail reporting.CommitteeDetail
	testutil.DecodeJSON(t, rec, &detail)
	if detail.Name != "Tech" || len(detail.Members) != 1 {
		t.Errorf("committee = %+v", detail)
	}

	rec = get(r, mo, "/dashboard")
	testutil.AssertStatus(t, rec, http.StatusOK)
	var dash reporting.CommitteeDashboard
	testutil.DecodeJSON(t, rec, &dash)
	if dash.TotalEvents != 1 || dash.TotalRegistrations != 1 {
		t.Errorf("dashboard = %d events, %d registrations", dash.TotalEvents, dash.TotalRegistrations)
	}

	rec = get(r, mo, "/reports")
	testutil.AssertStatus(t, rec, http.StatusOK)
	var rep reporting.Report
	testutil.DecodeJSON(t, rec, &rep)
	if len(rep.EventReports) != 1 || rep.EventReports[0].AssignedMembers != nil {
		t.Errorf("report rows = %+v", rep.EventReports)
	}

	rec = get(r, mo, "/registrations")
	testutil.AssertStatus(t, rec, http.StatusOK)
	var views []participation.RegistrationView
	testutil.DecodeJSON(t, rec, &views)
	if len(views) != 1 || views[0].Event == nil || views[0].Event.ID != quiz.ID {
		t.Errorf("registrations = %+v", views)
	}
}

func TestMemberConsole_NoCommittee(t *testing.T) {
	r, fx := newRouter(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	tech := fx.CreateCommittee(ctx, "Tech")
	mo := fx.CreateMember(ctx, "Mo", "mo@example.com", tech.ID)
	if _, err := fx.DB().Collection("committees").UpdateOne(ctx, bson.M{"_id": tech.ID}, bson.M{"$set": bson.M{"is_active": false}}); err != nil {
		t.Fatal(err)
	}

	testutil.AssertStatus(t, get(r, mo, "/dashboard"), http.StatusNotFound)

	student := fx.CreateStudent(ctx, "Sam", "sam@example.com")
	testutil.AssertStatus(t, get(r, student, "/dashboard"), http.StatusForbidden)
}
