package participation

import (
	"context"
	"testing"

	"github.com/dalemusser/festivo/internal/app/system/apperr"
	"github.com/dalemusser/festivo/internal/domain/models"
	"github.com/dalemusser/festivo/internal/testutil"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

type env struct {
	svc *Service
	fx  *testutil.Fixtures
	db  *mongo.Database
	ctx context.Context

	committee models.Committee
	staff     Actor
}

func setup(t *testing.T) *env {
	t.Helper()
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	t.Cleanup(cancel)

	fx := testutil.NewFixtures(t, db)
	c := fx.CreateCommittee(ctx, "Tech")
	member := fx.CreateMember(ctx, "Mina", "mina@example.com", c.ID)
	return &env{
		svc:       New(db, nil, nil, zap.NewNop()),
		fx:        fx,
		db:        db,
		ctx:       ctx,
		committee: c,
		staff:     Actor{ID: member.ID, Role: models.RoleMember},
	}
}

func actorOf(u models.User) Actor { return Actor{ID: u.ID, Role: u.Role} }

func groupEvent(max int) func(*models.Event) {
	return func(e *models.Event) {
		e.IsGroup = true
		e.MaxGroupSize = max
	}
}

func TestCreateRegistration_Individual(t *testing.T) {
	e := setup(t)
	ev := e.fx.CreateEvent(e.ctx, e.committee.ID, "Quiz")
	s := e.fx.CreateStudent(e.ctx, "Sam", "sam@example.com")

	reg, err := e.svc.CreateRegistration(e.ctx, actorOf(s), RegisterParams{EventID: ev.ID})
	if err != nil {
		t.Fatalf("CreateRegistration: %v", err)
	}
	if reg.PaymentStatus != models.PaymentPending {
		t.Errorf("payment status = %q", reg.PaymentStatus)
	}
	if reg.TotalAmount != ev.Fee {
		t.Errorf("total = %v, want event fee %v", reg.TotalAmount, ev.Fee)
	}
	if _, err := uuid.Parse(reg.QRCode); err != nil {
		t.Errorf("qr code %q is not a UUID", reg.QRCode)
	}
	if reg.IsGroupRegistration {
		t.Error("individual registration flagged as group")
	}

	_, err = e.svc.CreateRegistration(e.ctx, actorOf(s), RegisterParams{EventID: ev.ID})
	if apperr.KindOf(err) != apperr.KindConflict {
		t.Errorf("second registration err = %v, want conflict", err)
	}
}

func TestCreateRegistration_GroupRules(t *testing.T) {
	e := setup(t)
	ev := e.fx.CreateEvent(e.ctx, e.committee.ID, "Hackathon", groupEvent(3))
	leader := e.fx.CreateStudent(e.ctx, "Lia", "lia@example.com")
	a := e.fx.CreateStudent(e.ctx, "Ada", "ada@example.com")
	b := e.fx.CreateStudent(e.ctx, "Bo", "bo@example.com")
	c := e.fx.CreateStudent(e.ctx, "Cy", "cy@example.com")

	tests := []struct {
		name  string
		group []primitive.ObjectID
		want  apperr.Kind
	}{
		{"four against max three", []primitive.ObjectID{a.ID, b.ID, c.ID}, apperr.KindInvalidArgument},
		{"unknown member", []primitive.ObjectID{a.ID, primitive.NewObjectID()}, apperr.KindInvalidArgument},
		{"duplicate member", []primitive.ObjectID{a.ID, a.ID}, apperr.KindInvalidArgument},
		{"leader in group", []primitive.ObjectID{leader.ID}, apperr.KindInvalidArgument},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := e.svc.CreateRegistration(e.ctx, actorOf(leader), RegisterParams{EventID: ev.ID, GroupMemberIDs: tt.group})
			if apperr.KindOf(err) != tt.want {
				t.Errorf("err = %v, want %s", err, tt.want)
			}
		})
	}

	reg, err := e.svc.CreateRegistration(e.ctx, actorOf(leader), RegisterParams{EventID: ev.ID, GroupMemberIDs: []primitive.ObjectID{a.ID, b.ID}})
	if err != nil {
		t.Fatalf("group of three: %v", err)
	}
	if !reg.IsGroupRegistration || len(reg.GroupMembers) != 2 {
		t.Errorf("registration = %+v", reg)
	}
}

func TestCreateRegistration_EventAndPackage(t *testing.T) {
	e := setup(t)
	pkgID := primitive.NewObjectID()
	ev := e.fx.CreateEvent(e.ctx, e.committee.ID, "Concert", func(ev *models.Event) {
		ev.Packages = []models.Package{{ID: pkgID, Name: "Student", Price: 40, IsStudentDiscount: true}}
	})
	closed := e.fx.CreateEvent(e.ctx, e.committee.ID, "Cancelled", func(ev *models.Event) { ev.IsActive = false })
	s := e.fx.CreateStudent(e.ctx, "Pat", "pat@example.com")

	unknown := primitive.NewObjectID()
	if _, err := e.svc.CreateRegistration(e.ctx, actorOf(s), RegisterParams{EventID: ev.ID, PackageID: &unknown}); apperr.KindOf(err) != apperr.KindInvalidArgument {
		t.Errorf("unknown package err = %v", err)
	}
	if _, err := e.svc.CreateRegistration(e.ctx, actorOf(s), RegisterParams{EventID: closed.ID}); apperr.KindOf(err) != apperr.KindNotFound {
		t.Errorf("inactive event err = %v", err)
	}
	if _, err := e.svc.CreateRegistration(e.ctx, actorOf(s), RegisterParams{EventID: primitive.NewObjectID()}); apperr.KindOf(err) != apperr.KindNotFound {
		t.Errorf("missing event err = %v", err)
	}

	reg, err := e.svc.CreateRegistration(e.ctx, actorOf(s), RegisterParams{EventID: ev.ID, PackageID: &pkgID})
	if err != nil {
		t.Fatal(err)
	}
	if reg.TotalAmount != 40 {
		t.Errorf("total = %v, want package price 40", reg.TotalAmount)
	}
}

func TestCreateRegistration_RetriesTokenCollision(t *testing.T) {
	e := setup(t)
	ev := e.fx.CreateEvent(e.ctx, e.committee.ID, "Quiz")
	other := e.fx.CreateStudent(e.ctx, "Oli", "oli@example.com")
	taken := e.fx.CreateRegistration(e.ctx, ev.ID, other.ID).QRCode
	s := e.fx.CreateStudent(e.ctx, "Ren", "ren@example.com")

	orig := newToken
	t.Cleanup(func() { newToken = orig })

	calls := 0
	newToken = func() string {
		calls++
		if calls < 3 {
			return taken
		}
		return orig()
	}
	reg, err := e.svc.CreateRegistration(e.ctx, actorOf(s), RegisterParams{EventID: ev.ID})
	if err != nil {
		t.Fatalf("CreateRegistration: %v", err)
	}
	if calls != 3 || reg.QRCode == taken {
		t.Errorf("calls = %d, token = %q", calls, reg.QRCode)
	}

	newToken = func() string { return taken }
	s2 := e.fx.CreateStudent(e.ctx, "Kai", "kai@example.com")
	_, err = e.svc.CreateRegistration(e.ctx, actorOf(s2), RegisterParams{EventID: ev.ID})
	if apperr.KindOf(err) != apperr.KindInternal {
		t.Errorf("exhausted retries err = %v, want internal", err)
	}
}

func TestVerifyToken(t *testing.T) {
	e := setup(t)
	ev := e.fx.CreateEvent(e.ctx, e.committee.ID, "Quiz", groupEvent(2))
	leader := e.fx.CreateStudent(e.ctx, "Lee", "lee@example.com")
	mate := e.fx.CreateStudent(e.ctx, "Max", "max@example.com")
	reg := e.fx.CreateRegistration(e.ctx, ev.ID, leader.ID, mate.ID)

	v, err := e.svc.VerifyToken(e.ctx, e.staff, "  "+reg.QRCode+" ")
	if err != nil {
		t.Fatalf("VerifyToken: %v", err)
	}
	if v.Event == nil || v.Event.Title != "Quiz" {
		t.Errorf("event = %+v", v.Event)
	}
	if v.Leader == nil || v.Leader.Email != "lee@example.com" {
		t.Errorf("leader = %+v", v.Leader)
	}
	if len(v.GroupMembers) != 1 || v.GroupMembers[0].ID != mate.ID {
		t.Errorf("group = %+v", v.GroupMembers)
	}

	if _, err := e.svc.VerifyToken(e.ctx, e.staff, ""); apperr.KindOf(err) != apperr.KindInvalidArgument {
		t.Errorf("empty token err = %v", err)
	}
	if _, err := e.svc.VerifyToken(e.ctx, e.staff, uuid.NewString()); apperr.KindOf(err) != apperr.KindNotFound {
		t.Errorf("unknown token err = %v", err)
	}
	if _, err := e.svc.VerifyToken(e.ctx, actorOf(leader), reg.QRCode); apperr.KindOf(err) != apperr.KindPermissionDenied {
		t.Errorf("student verify err = %v", err)
	}
}

func TestUpsertAttendance_SingleRecordLatestStatus(t *testing.T) {
	e := setup(t)
	ev := e.fx.CreateEvent(e.ctx, e.committee.ID, "Quiz")
	s := e.fx.CreateStudent(e.ctx, "Ana", "ana@example.com")
	reg := e.fx.CreateRegistration(e.ctx, ev.ID, s.ID)

	p := AttendanceParams{RegistrationID: reg.ID, ParticipantID: s.ID, Status: models.AttendancePresent, Notes: "<b>on time</b>"}
	rec, created, err := e.svc.UpsertAttendance(e.ctx, e.staff, p)
	if err != nil || !created {
		t.Fatalf("first upsert = %v, created=%v", err, created)
	}
	if rec.Notes != "on time" {
		t.Errorf("notes = %q, want sanitized", rec.Notes)
	}
	if rec.VerifiedBy != e.staff.ID {
		t.Errorf("verified_by = %s", rec.VerifiedBy.Hex())
	}

	p.Status = models.AttendanceAbsent
	rec, created, err = e.svc.UpsertAttendance(e.ctx, e.staff, p)
	if err != nil || created {
		t.Fatalf("second upsert = %v, created=%v", err, created)
	}
	if rec.Status != models.AttendanceAbsent {
		t.Errorf("status = %q", rec.Status)
	}

	list, err := e.svc.ListAttendance(e.ctx, e.staff, reg.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 1 || list[0].Status != models.AttendanceAbsent {
		t.Fatalf("attendance = %+v", list)
	}
	if list[0].Participant == nil || list[0].Verifier == nil {
		t.Error("participant and verifier should be resolved")
	}
}

func TestUpsertAttendance_Rejections(t *testing.T) {
	e := setup(t)
	ev := e.fx.CreateEvent(e.ctx, e.committee.ID, "Quiz")
	s := e.fx.CreateStudent(e.ctx, "Ana", "ana@example.com")
	outsider := e.fx.CreateStudent(e.ctx, "Out", "out@example.com")
	reg := e.fx.CreateRegistration(e.ctx, ev.ID, s.ID)

	tests := []struct {
		name   string
		caller Actor
		p      AttendanceParams
		want   apperr.Kind
	}{
		{"bad status", e.staff, AttendanceParams{RegistrationID: reg.ID, ParticipantID: s.ID, Status: "late"}, apperr.KindInvalidArgument},
		{"not a participant", e.staff, AttendanceParams{RegistrationID: reg.ID, ParticipantID: outsider.ID, Status: models.AttendancePresent}, apperr.KindInvalidArgument},
		{"missing registration", e.staff, AttendanceParams{RegistrationID: primitive.NewObjectID(), ParticipantID: s.ID, Status: models.AttendancePresent}, apperr.KindNotFound},
		{"student caller", actorOf(s), AttendanceParams{RegistrationID: reg.ID, ParticipantID: s.ID, Status: models.AttendancePresent}, apperr.KindPermissionDenied},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := e.svc.UpsertAttendance(e.ctx, tt.caller, tt.p)
			if apperr.KindOf(err) != tt.want {
				t.Errorf("err = %v, want %s", err, tt.want)
			}
		})
	}
}

func TestScores_UpsertAndScoreboard(t *testing.T) {
	e := setup(t)
	ev := e.fx.CreateEvent(e.ctx, e.committee.ID, "Debate")
	alice := e.fx.CreateStudent(e.ctx, "Alice", "alice@example.com")
	bob := e.fx.CreateStudent(e.ctx, "Bob", "bob@example.com")
	cara := e.fx.CreateStudent(e.ctx, "Cara", "cara@example.com")
	ra := e.fx.CreateRegistration(e.ctx, ev.ID, alice.ID)
	rb := e.fx.CreateRegistration(e.ctx, ev.ID, bob.ID)
	rc := e.fx.CreateRegistration(e.ctx, ev.ID, cara.ID)

	submit := func(reg models.Registration, who models.User, round string, score float64) {
		t.Helper()
		if _, _, err := e.svc.UpsertScore(e.ctx, e.staff, ScoreParams{RegistrationID: reg.ID, ParticipantID: who.ID, Round: round, Score: score}); err != nil {
			t.Fatalf("UpsertScore(%s, %s): %v", who.Name, round, err)
		}
	}
	submit(ra, alice, "prelim", 60)
	submit(ra, alice, "", 90) // final
	submit(rb, bob, "", 75)
	submit(rc, cara, "prelim", 80)
	submit(rc, cara, "", 70)

	// Replacing a round keeps one record.
	rec, created, err := e.svc.UpsertScore(e.ctx, e.staff, ScoreParams{RegistrationID: rb.ID, ParticipantID: bob.ID, Score: 65})
	if err != nil || created {
		t.Fatalf("replace = %v, created=%v", err, created)
	}
	if rec.Round != models.DefaultRound || rec.Score != 65 {
		t.Errorf("replaced score = %+v", rec)
	}

	board, err := e.svc.Scoreboard(e.ctx, ev.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(board) != 3 {
		t.Fatalf("scoreboard has %d entries", len(board))
	}
	// Alice 75, Cara 75 (tie broken by name), Bob 65.
	wantOrder := []string{"Alice", "Cara", "Bob"}
	for i, name := range wantOrder {
		if board[i].Participant.Name != name {
			t.Errorf("board[%d] = %s, want %s", i, board[i].Participant.Name, name)
		}
	}
	if board[0].AverageScore != 75 || len(board[0].Scores) != 2 {
		t.Errorf("alice entry = %+v", board[0])
	}
}

func TestUpsertScore_Rejections(t *testing.T) {
	e := setup(t)
	ev := e.fx.CreateEvent(e.ctx, e.committee.ID, "Debate")
	s := e.fx.CreateStudent(e.ctx, "Sol", "sol@example.com")
	reg := e.fx.CreateRegistration(e.ctx, ev.ID, s.ID)

	for _, score := range []float64{-1, 100.5} {
		_, _, err := e.svc.UpsertScore(e.ctx, e.staff, ScoreParams{RegistrationID: reg.ID, ParticipantID: s.ID, Score: score})
		if apperr.KindOf(err) != apperr.KindInvalidArgument {
			t.Errorf("score %v err = %v", score, err)
		}
	}
	if _, _, err := e.svc.UpsertScore(e.ctx, e.staff, ScoreParams{RegistrationID: reg.ID, ParticipantID: primitive.NewObjectID(), Score: 50}); apperr.KindOf(err) != apperr.KindInvalidArgument {
		t.Errorf("outsider err = %v", err)
	}
}

func TestListRegistrations_Access(t *testing.T) {
	e := setup(t)
	ev := e.fx.CreateEvent(e.ctx, e.committee.ID, "Quiz", groupEvent(2))
	leader := e.fx.CreateStudent(e.ctx, "Lee", "lee@example.com")
	mate := e.fx.CreateStudent(e.ctx, "Max", "max@example.com")
	admin := e.fx.CreateAdmin(e.ctx, "Root", "root@example.com")
	e.fx.CreateRegistration(e.ctx, ev.ID, leader.ID, mate.ID)

	if _, err := e.svc.ListUserRegistrations(e.ctx, actorOf(mate), leader.ID); apperr.KindOf(err) != apperr.KindPermissionDenied {
		t.Errorf("other user err = %v", err)
	}
	for _, caller := range []Actor{actorOf(leader), actorOf(admin)} {
		views, err := e.svc.ListUserRegistrations(e.ctx, caller, leader.ID)
		if err != nil || len(views) != 1 {
			t.Errorf("ListUserRegistrations(%s) = %d, %v", caller.Role, len(views), err)
		}
	}
	// Group members see registrations they take part in.
	if views, err := e.svc.ListUserRegistrations(e.ctx, actorOf(mate), mate.ID); err != nil || len(views) != 1 {
		t.Errorf("group member registrations = %d, %v", len(views), err)
	}

	if _, err := e.svc.ListEventRegistrations(e.ctx, actorOf(leader), ev.ID); apperr.KindOf(err) != apperr.KindPermissionDenied {
		t.Errorf("student event list err = %v", err)
	}
	views, err := e.svc.ListEventRegistrations(e.ctx, e.staff, ev.ID)
	if err != nil || len(views) != 1 {
		t.Fatalf("staff event list = %d, %v", len(views), err)
	}
}

func TestMarkPaid(t *testing.T) {
	e := setup(t)
	ev := e.fx.CreateEvent(e.ctx, e.committee.ID, "Quiz")
	s := e.fx.CreateStudent(e.ctx, "Pia", "pia@example.com")
	admin := e.fx.CreateAdmin(e.ctx, "Root", "root@example.com")
	reg := e.fx.CreateRegistration(e.ctx, ev.ID, s.ID)

	if _, err := e.svc.MarkPaid(e.ctx, e.staff, PaymentParams{RegistrationID: reg.ID, Status: models.PaymentPaid}); apperr.KindOf(err) != apperr.KindPermissionDenied {
		t.Errorf("staff err = %v", err)
	}
	if _, err := e.svc.MarkPaid(e.ctx, actorOf(admin), PaymentParams{RegistrationID: reg.ID, Status: "refunded"}); apperr.KindOf(err) != apperr.KindInvalidArgument {
		t.Errorf("bad status err = %v", err)
	}
	got, err := e.svc.MarkPaid(e.ctx, actorOf(admin), PaymentParams{RegistrationID: reg.ID, Status: models.PaymentPaid})
	if err != nil {
		t.Fatal(err)
	}
	if got.PaymentStatus != models.PaymentPaid {
		t.Errorf("status = %q", got.PaymentStatus)
	}
}

func TestSortScoreboard(t *testing.T) {
	entries := []ScoreboardEntry{
		{Participant: models.UserRef{Name: "Zed"}, AverageScore: 50},
		{Participant: models.UserRef{Name: "Amy"}, AverageScore: 50},
		{Participant: models.UserRef{Name: "Bea"}, AverageScore: 90},
	}
	sortScoreboard(entries)
	got := []string{entries[0].Participant.Name, entries[1].Participant.Name, entries[2].Participant.Name}
	want := []string{"Bea", "Amy", "Zed"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("order = %v, want %v", got, want)
		}
	}
}

func TestSearchRegistrations(t *testing.T) {
	e := setup(t)
	hack := e.fx.CreateEvent(e.ctx, e.committee.ID, "Hackathon")
	quiz := e.fx.CreateEvent(e.ctx, e.committee.ID, "Quiz")
	ana := e.fx.CreateStudent(e.ctx, "Ana", "ana@example.com")
	ben := e.fx.CreateStudent(e.ctx, "Ben", "ben@example.com")
	admin := e.fx.CreateAdmin(e.ctx, "Root", "root@example.com")
	e.fx.CreateRegistration(e.ctx, hack.ID, ana.ID)
	e.fx.CreateRegistration(e.ctx, hack.ID, ben.ID)
	e.fx.CreateRegistration(e.ctx, quiz.ID, ben.ID)

	tests := []struct {
		name   string
		caller Actor
		params SearchParams
		want   int
		kind   apperr.Kind
	}{
		{"admin all", actorOf(admin), SearchParams{}, 3, ""},
		{"by leader name", actorOf(admin), SearchParams{Query: "ben"}, 2, ""},
		{"by event title", actorOf(admin), SearchParams{Query: "hack"}, 2, ""},
		{"by event id", actorOf(admin), SearchParams{EventID: &quiz.ID}, 1, ""},
		{"staff scoped", e.staff, SearchParams{Scope: []primitive.ObjectID{quiz.ID}}, 1, ""},
		{"staff unscoped", e.staff, SearchParams{}, 0, apperr.KindPermissionDenied},
		{"student", actorOf(ana), SearchParams{Scope: []primitive.ObjectID{quiz.ID}}, 0, apperr.KindPermissionDenied},
		{"bad status", actorOf(admin), SearchParams{PaymentStatus: "refunded"}, 0, apperr.KindInvalidArgument},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			views, err := e.svc.SearchRegistrations(e.ctx, tt.caller, tt.params)
			if tt.kind != "" {
				if apperr.KindOf(err) != tt.kind {
					t.Fatalf("err = %v, want %s", err, tt.kind)
				}
				return
			}
			if err != nil {
				t.Fatal(err)
			}
			if len(views) != tt.want {
				t.Errorf("got %d registrations, want %d", len(views), tt.want)
			}
		})
	}
}

func TestRegistrationScores_Access(t *testing.T) {
	e := setup(t)
	ev := e.fx.CreateEvent(e.ctx, e.committee.ID, "Debate")
	s := e.fx.CreateStudent(e.ctx, "Sol", "sol@example.com")
	other := e.fx.CreateStudent(e.ctx, "Oz", "oz@example.com")
	reg := e.fx.CreateRegistration(e.ctx, ev.ID, s.ID)
	if _, _, err := e.svc.UpsertScore(e.ctx, e.staff, ScoreParams{RegistrationID: reg.ID, ParticipantID: s.ID, Score: 88}); err != nil {
		t.Fatal(err)
	}

	views, err := e.svc.RegistrationScores(e.ctx, actorOf(s), reg.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(views) != 1 || views[0].Judge == nil || views[0].Judge.ID != e.staff.ID {
		t.Errorf("views = %+v", views)
	}
	if _, err := e.svc.RegistrationScores(e.ctx, actorOf(other), reg.ID); apperr.KindOf(err) != apperr.KindPermissionDenied {
		t.Errorf("outsider err = %v", err)
	}
	if _, err := e.svc.RegistrationScores(e.ctx, e.staff, primitive.NewObjectID()); apperr.KindOf(err) != apperr.KindNotFound {
		t.Errorf("missing registration err = %v", err)
	}
}

func TestExports(t *testing.T) {
	e := setup(t)
	ev := e.fx.CreateEvent(e.ctx, e.committee.ID, "Relay", groupEvent(3))
	other := e.fx.CreateEvent(e.ctx, e.committee.ID, "Chess")
	lead := e.fx.CreateStudent(e.ctx, "Lia", "lia@example.com")
	mate := e.fx.CreateStudent(e.ctx, "Mo", "mo@example.com")
	admin := e.fx.CreateAdmin(e.ctx, "Root", "root@example.com")
	reg := e.fx.CreateRegistration(e.ctx, ev.ID, lead.ID, mate.ID)
	e.fx.CreateRegistration(e.ctx, other.ID, mate.ID)

	if _, err := e.svc.ExportParticipants(e.ctx, e.staff, nil); apperr.KindOf(err) != apperr.KindPermissionDenied {
		t.Errorf("staff export err = %v", err)
	}

	rows, err := e.svc.ExportParticipants(e.ctx, actorOf(admin), &ev.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 1 || rows[0].Leader.Name != "Lia" || len(rows[0].Group) != 1 || rows[0].Event.Title != "Relay" {
		t.Errorf("participant rows = %+v", rows)
	}
	all, err := e.svc.ExportParticipants(e.ctx, actorOf(admin), nil)
	if err != nil || len(all) != 2 {
		t.Errorf("all rows = %d, %v", len(all), err)
	}

	if _, _, err := e.svc.UpsertAttendance(e.ctx, e.staff, AttendanceParams{RegistrationID: reg.ID, ParticipantID: mate.ID, Status: models.AttendancePresent}); err != nil {
		t.Fatal(err)
	}
	att, err := e.svc.ExportAttendance(e.ctx, actorOf(admin), &ev.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(att) != 1 {
		t.Fatalf("attendance rows = %d", len(att))
	}
	if att[0].Participant.Name != "Mo" || att[0].VerifiedBy != "Mina" || att[0].Event.Title != "Relay" {
		t.Errorf("attendance row = %+v", att[0])
	}
}
