package reporting_test

import (
	"testing"

	"github.com/dalemusser/festivo/internal/app/reporting"
	attendancestore "github.com/dalemusser/festivo/internal/app/store/attendance"
	committeestore "github.com/dalemusser/festivo/internal/app/store/committees"
	"github.com/dalemusser/festivo/internal/domain/models"
	"github.com/dalemusser/festivo/internal/testutil"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestReport_And_Dashboard(t *testing.T) {
	db := testutil.SetupTestDB(t)
	fx := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	c := fx.CreateCommittee(ctx, "Tech")
	staff := fx.CreateMember(ctx, "Mo", "mo@example.com", c.ID)
	quiz := fx.CreateEvent(ctx, c.ID, "Quiz", func(e *models.Event) {
		e.CommitteeMemberIDs = []primitive.ObjectID{staff.ID}
	})
	old := fx.CreateEvent(ctx, c.ID, "Old", func(e *models.Event) { e.IsActive = false })

	a := fx.CreateStudent(ctx, "Ann", "ann@example.com")
	b := fx.CreateStudent(ctx, "Ben", "ben@example.com")
	d := fx.CreateStudent(ctx, "Dee", "dee@example.com")
	ra := fx.CreateRegistration(ctx, quiz.ID, a.ID, b.ID)
	fx.CreateRegistration(ctx, quiz.ID, d.ID)
	fx.CreateRegistration(ctx, old.ID, a.ID)

	att := attendancestore.New(db)
	for _, rec := range []models.Attendance{
		{RegistrationID: ra.ID, ParticipantID: a.ID, Status: models.AttendancePresent, VerifiedBy: staff.ID},
		{RegistrationID: ra.ID, ParticipantID: b.ID, Status: models.AttendanceAbsent, VerifiedBy: staff.ID},
	} {
		if _, _, err := att.Upsert(ctx, rec); err != nil {
			t.Fatal(err)
		}
	}

	svc := reporting.New(db)
	ids := []primitive.ObjectID{quiz.ID, old.ID}

	rep, err := svc.Report(ctx, ids, true)
	if err != nil {
		t.Fatalf("Report: %v", err)
	}
	if len(rep.EventReports) != 1 {
		t.Fatalf("event reports = %d, want only the active event", len(rep.EventReports))
	}
	row := rep.EventReports[0]
	if row.Registrations != 2 || row.TotalParticipants != 3 {
		t.Errorf("row = %+v", row)
	}
	if row.Attendance != (reporting.AttendanceCounts{Present: 1, Absent: 1, NotMarked: 1}) {
		t.Errorf("attendance = %+v", row.Attendance)
	}
	if len(row.AssignedMembers) != 1 || row.AssignedMembers[0].ID != staff.ID {
		t.Errorf("assigned = %+v", row.AssignedMembers)
	}
	if rep.Summary.AttendanceRate != "33.33" {
		t.Errorf("rate = %q", rep.Summary.AttendanceRate)
	}

	dash, err := svc.Dashboard(ctx, ids)
	if err != nil {
		t.Fatalf("Dashboard: %v", err)
	}
	if dash.TotalEvents != 1 || dash.TotalRegistrations != 2 || dash.TotalAttendance != 1 {
		t.Errorf("dashboard totals = %d/%d/%d", dash.TotalEvents, dash.TotalRegistrations, dash.TotalAttendance)
	}
	if len(dash.RecentRegistrations) != 3 {
		t.Errorf("recent = %d, want 3", len(dash.RecentRegistrations))
	}
	for _, r := range dash.RecentRegistrations {
		if r.Event == nil || r.Leader == nil {
			t.Errorf("recent row not resolved: %+v", r)
		}
	}

	empty, err := svc.Report(ctx, nil, false)
	if err != nil {
		t.Fatal(err)
	}
	if len(empty.EventReports) != 0 || empty.Summary.AttendanceRate != "0" {
		t.Errorf("report over no events = %+v", empty)
	}
}

func TestAdminStats(t *testing.T) {
	db := testutil.SetupTestDB(t)
	fx := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	c := fx.CreateCommittee(ctx, "Tech")
	fx.CreateAdmin(ctx, "Root", "root@example.com")
	s1 := fx.CreateStudent(ctx, "S1", "s1@example.com")
	s2 := fx.CreateStudent(ctx, "S2", "s2@example.com")
	popular := fx.CreateEvent(ctx, c.ID, "Popular")
	quiet := fx.CreateEvent(ctx, c.ID, "Quiet")
	fx.CreateRegistration(ctx, popular.ID, s1.ID)
	fx.CreateRegistration(ctx, popular.ID, s2.ID)

	stats, err := reporting.New(db).AdminStats(ctx)
	if err != nil {
		t.Fatalf("AdminStats: %v", err)
	}
	if stats.Overview.Users != 3 || stats.Overview.Registrations != 2 || stats.Overview.ActiveEvents != 2 {
		t.Errorf("overview = %+v", stats.Overview)
	}
	if stats.UsersByRole[models.RoleStudent] != 2 || stats.UsersByRole[models.RoleAdmin] != 1 {
		t.Errorf("users by role = %v", stats.UsersByRole)
	}
	if len(stats.EventStats) != 2 || stats.EventStats[0].ID != popular.ID || stats.EventStats[1].ID != quiet.ID {
		t.Errorf("event stats = %+v", stats.EventStats)
	}
	if stats.EventStats[1].RegistrationCount != 0 {
		t.Errorf("quiet event count = %d", stats.EventStats[1].RegistrationCount)
	}
	if len(stats.RecentRegistrations) != 2 {
		t.Errorf("recent = %d", len(stats.RecentRegistrations))
	}
}

func TestCommitteeDashboard(t *testing.T) {
	db := testutil.SetupTestDB(t)
	fx := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	c := fx.CreateCommittee(ctx, "Tech")
	coord := fx.CreateCoordinator(ctx, "Cora", "cora@example.com", c.ID)
	member := fx.CreateMember(ctx, "Mo", "mo@example.com", c.ID)
	quiz := fx.CreateEvent(ctx, c.ID, "Quiz")
	fx.CreateRegistration(ctx, quiz.ID, fx.CreateStudent(ctx, "Ann", "ann@example.com").ID)

	other := fx.CreateCommittee(ctx, "Arts")
	fx.CreateEvent(ctx, other.ID, "Paint")

	// Reload so AssignedEventIDs reflects the fixture events.
	var stored models.Committee
	if err := db.Collection("committees").FindOne(ctx, map[string]any{"_id": c.ID}).Decode(&stored); err != nil {
		t.Fatal(err)
	}

	dash, err := reporting.New(db).CommitteeDashboard(ctx, stored)
	if err != nil {
		t.Fatalf("CommitteeDashboard: %v", err)
	}
	if dash.TotalEvents != 1 || dash.TotalRegistrations != 1 {
		t.Errorf("totals = %d/%d, want 1/1", dash.TotalEvents, dash.TotalRegistrations)
	}
	if len(dash.Committee.Coordinators) != 1 || dash.Committee.Coordinators[0].ID != coord.ID {
		t.Errorf("coordinators = %+v", dash.Committee.Coordinators)
	}
	if len(dash.Committee.Members) != 1 || dash.Committee.Members[0].ID != member.ID {
		t.Errorf("members = %+v", dash.Committee.Members)
	}
}

func TestCoordinatorDashboardAndReport(t *testing.T) {
	db := testutil.SetupTestDB(t)
	fx := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	tech := fx.CreateCommittee(ctx, "Tech")
	arts := fx.CreateCommittee(ctx, "Arts")
	fx.CreateMember(ctx, "Mo", "mo@example.com", tech.ID)
	fx.CreateMember(ctx, "Ola", "ola@example.com", arts.ID)
	quiz := fx.CreateEvent(ctx, tech.ID, "Quiz")
	paint := fx.CreateEvent(ctx, arts.ID, "Paint")
	s := fx.CreateStudent(ctx, "Sam", "sam@example.com")
	fx.CreateRegistration(ctx, quiz.ID, s.ID)
	fx.CreateRegistration(ctx, paint.ID, s.ID)

	cs, err := committeestore.New(db).ListActive(ctx)
	if err != nil {
		t.Fatalf("load committees: %v", err)
	}

	svc := reporting.New(db)
	dash, err := svc.CoordinatorDashboard(ctx, cs)
	if err != nil {
		t.Fatalf("CoordinatorDashboard: %v", err)
	}
	if dash.TotalEvents != 2 || dash.TotalRegistrations != 2 || dash.TotalMemberCount != 2 || len(dash.Committees) != 2 {
		t.Errorf("dashboard = %+v", dash)
	}

	rep, err := svc.CoordinatorReport(ctx, cs)
	if err != nil {
		t.Fatalf("CoordinatorReport: %v", err)
	}
	if rep.TotalCommittees != 2 || rep.Summary.TotalParticipants != 2 {
		t.Errorf("report = %+v", rep)
	}

	empty, err := svc.CoordinatorDashboard(ctx, nil)
	if err != nil {
		t.Fatalf("CoordinatorDashboard(nil): %v", err)
	}
	if empty.TotalEvents != 0 || len(empty.RecentRegistrations) != 0 {
		t.Errorf("no committees should mean no events, got %+v", empty)
	}
}
