package membership_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/dalemusser/festivo/internal/app/membership"
	"github.com/dalemusser/festivo/internal/app/store/audit"
	"github.com/dalemusser/festivo/internal/app/system/apperr"
	"github.com/dalemusser/festivo/internal/app/system/auditlog"
	"github.com/dalemusser/festivo/internal/app/system/metrics"
	"github.com/dalemusser/festivo/internal/domain/models"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

type recordingSink struct {
	events []audit.Event
	err    error
}

func (s *recordingSink) Log(_ context.Context, e audit.Event) error {
	if s.err != nil {
		return s.err
	}
	s.events = append(s.events, e)
	return nil
}

type fixture struct {
	repo    *membership.MemRepo
	engine  *membership.Engine
	sink    *recordingSink
	metrics *metrics.Metrics
	admin   membership.Actor
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	repo := membership.NewMemRepo()
	sink := &recordingSink{}
	m := metrics.New()
	audits := auditlog.New(sink, zap.NewNop(), auditlog.Config{Membership: "db"})
	return &fixture{
		repo:    repo,
		engine:  membership.New(repo, audits, m, zap.NewNop()),
		sink:    sink,
		metrics: m,
		admin:   membership.Actor{ID: primitive.NewObjectID(), Role: models.RoleAdmin},
	}
}

func (f *fixture) student(name string) models.User {
	u := models.User{ID: primitive.NewObjectID(), Name: name, Email: name + "@example.com", Role: models.RoleStudent}
	f.repo.PutUser(u)
	return u
}

func (f *fixture) committee(name string) models.Committee {
	c := models.Committee{ID: primitive.NewObjectID(), Name: name, IsActive: true}
	f.repo.PutCommittee(c)
	return c
}

func (f *fixture) user(t *testing.T, id primitive.ObjectID) models.User {
	t.Helper()
	u, ok := f.repo.User(id)
	if !ok {
		t.Fatalf("user %s missing", id.Hex())
	}
	return u
}

func (f *fixture) comm(t *testing.T, id primitive.ObjectID) models.Committee {
	t.Helper()
	c, ok := f.repo.Committee(id)
	if !ok {
		t.Fatalf("committee %s missing", id.Hex())
	}
	return c
}

// assertMemberConsistent checks role=member ⇔ primary set and listed.
func (f *fixture) assertMemberConsistent(t *testing.T, id primitive.ObjectID) {
	t.Helper()
	u := f.user(t, id)
	if u.Role != models.RoleMember {
		if u.CommitteeID != nil && u.Role != models.RoleCoordinator {
			t.Errorf("%s has primary committee with role %s", u.Name, u.Role)
		}
		return
	}
	if u.CommitteeID == nil {
		t.Fatalf("member %s has no primary committee", u.Name)
	}
	if !f.comm(t, *u.CommitteeID).HasMember(u.ID) {
		t.Errorf("member %s not listed in primary committee", u.Name)
	}
}

// assertCoordinatorConsistent checks role=coordinator ⇔ non-empty set, each side listed.
func (f *fixture) assertCoordinatorConsistent(t *testing.T, id primitive.ObjectID) {
	t.Helper()
	u := f.user(t, id)
	if (u.Role == models.RoleCoordinator) != (len(u.CoordinatedCommitteeIDs) > 0) {
		t.Errorf("role %s with coordinated set %v", u.Role, u.CoordinatedCommitteeIDs)
	}
	for _, cid := range u.CoordinatedCommitteeIDs {
		if !f.comm(t, cid).HasCoordinator(u.ID) {
			t.Errorf("committee %s does not list coordinator %s", cid.Hex(), u.Name)
		}
	}
}

func kind(err error) apperr.Kind { return apperr.KindOf(err) }

func TestAddRemoveMember_RoundTrip(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	u := f.student("uma")
	c1 := f.committee("Tech")

	c, err := f.engine.AddMember(ctx, f.admin, membership.MemberParams{CommitteeID: c1.ID, UserID: u.ID})
	if err != nil {
		t.Fatalf("AddMember: %v", err)
	}
	if !c.HasMember(u.ID) {
		t.Error("returned committee should list the member")
	}
	got := f.user(t, u.ID)
	if got.Role != models.RoleMember || got.CommitteeID == nil || *got.CommitteeID != c1.ID {
		t.Errorf("after AddMember user = %+v", got)
	}
	f.assertMemberConsistent(t, u.ID)

	c, err = f.engine.RemoveMember(ctx, f.admin, membership.MemberParams{CommitteeID: c1.ID, UserID: u.ID})
	if err != nil {
		t.Fatalf("RemoveMember: %v", err)
	}
	if c.HasMember(u.ID) {
		t.Error("committee still lists the member")
	}
	got = f.user(t, u.ID)
	if got.Role != models.RoleStudent || got.CommitteeID != nil {
		t.Errorf("after RemoveMember user = %+v", got)
	}
	f.assertMemberConsistent(t, u.ID)

	if n := len(f.sink.events); n != 2 {
		t.Errorf("audit events = %d, want 2", n)
	}
	if f.sink.events[0].EventType != audit.EventMemberAdded || f.sink.events[1].EventType != audit.EventMemberRemoved {
		t.Errorf("audit types = %s, %s", f.sink.events[0].EventType, f.sink.events[1].EventType)
	}
}

func TestCoordinator_TwoCommittees(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	u := f.student("cora")
	c1 := f.committee("Tech")
	c2 := f.committee("Cultural")

	for _, c := range []models.Committee{c1, c2} {
		if _, _, err := f.engine.AddCoordinator(ctx, f.admin, membership.CoordinatorParams{CommitteeID: c.ID, UserID: u.ID}); err != nil {
			t.Fatalf("AddCoordinator(%s): %v", c.Name, err)
		}
	}
	got := f.user(t, u.ID)
	if got.Role != models.RoleCoordinator || len(got.CoordinatedCommitteeIDs) != 2 {
		t.Fatalf("after two adds user = %+v", got)
	}
	f.assertCoordinatorConsistent(t, u.ID)

	_, user, err := f.engine.RemoveCoordinator(ctx, f.admin, membership.CoordinatorParams{CommitteeID: c1.ID, UserID: u.ID})
	if err != nil {
		t.Fatalf("RemoveCoordinator(C1): %v", err)
	}
	if user == nil || user.Role != models.RoleCoordinator || len(user.CoordinatedCommitteeIDs) != 1 || user.CoordinatedCommitteeIDs[0] != c2.ID {
		t.Errorf("after removing C1 user = %+v", user)
	}
	f.assertCoordinatorConsistent(t, u.ID)

	_, user, err = f.engine.RemoveCoordinator(ctx, f.admin, membership.CoordinatorParams{CommitteeID: c2.ID, UserID: u.ID})
	if err != nil {
		t.Fatalf("RemoveCoordinator(C2): %v", err)
	}
	if user.Role != models.RoleStudent || len(user.CoordinatedCommitteeIDs) != 0 {
		t.Errorf("after removing C2 user = %+v", user)
	}
	f.assertCoordinatorConsistent(t, u.ID)

	last := f.sink.events[len(f.sink.events)-1]
	if last.Details["demoted"] != "true" {
		t.Errorf("last removal should be audited as a demotion: %+v", last.Details)
	}
}

func TestAddCoordinator_Twice_Conflict(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	u := f.student("dan")
	c := f.committee("Tech")
	p := membership.CoordinatorParams{CommitteeID: c.ID, UserID: u.ID}

	if _, _, err := f.engine.AddCoordinator(ctx, f.admin, p); err != nil {
		t.Fatalf("first AddCoordinator: %v", err)
	}
	_, _, err := f.engine.AddCoordinator(ctx, f.admin, p)
	if kind(err) != apperr.KindConflict {
		t.Errorf("second AddCoordinator err = %v, want conflict", err)
	}
	if n := len(f.comm(t, c.ID).CoordinatorIDs); n != 1 {
		t.Errorf("coordinator_ids has %d entries", n)
	}
}

func TestRemoveCoordinator_NotCoordinator(t *testing.T) {
	f := newFixture(t)
	u := f.student("eve")
	c := f.committee("Tech")

	_, _, err := f.engine.RemoveCoordinator(context.Background(), f.admin, membership.CoordinatorParams{CommitteeID: c.ID, UserID: u.ID})
	if kind(err) != apperr.KindInvalidArgument {
		t.Errorf("err = %v, want invalid argument", err)
	}
}

func TestRemoveCoordinator_MissingIdentity(t *testing.T) {
	f := newFixture(t)
	ghost := primitive.NewObjectID()
	c := f.committee("Tech")
	c.CoordinatorIDs = []primitive.ObjectID{ghost}
	f.repo.PutCommittee(c)

	committee, user, err := f.engine.RemoveCoordinator(context.Background(), f.admin, membership.CoordinatorParams{CommitteeID: c.ID, UserID: ghost})
	if err != nil {
		t.Fatalf("RemoveCoordinator: %v", err)
	}
	if user != nil {
		t.Errorf("user = %+v, want nil", user)
	}
	if committee.HasCoordinator(ghost) {
		t.Error("dangling coordinator not removed")
	}
}

func TestAddMember_Rejections(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	c := f.committee("Tech")
	other := f.committee("Sports")
	inactive := f.committee("Old")
	inactive.IsActive = false
	f.repo.PutCommittee(inactive)

	coordinator := f.student("cody")
	if _, _, err := f.engine.AddCoordinator(ctx, f.admin, membership.CoordinatorParams{CommitteeID: c.ID, UserID: coordinator.ID}); err != nil {
		t.Fatal(err)
	}
	coordActor := membership.Actor{ID: coordinator.ID, Role: models.RoleCoordinator}

	admin := models.User{ID: primitive.NewObjectID(), Name: "ada", Role: models.RoleAdmin}
	f.repo.PutUser(admin)
	s := f.student("sam")

	tests := []struct {
		name   string
		caller membership.Actor
		p      membership.MemberParams
		want   apperr.Kind
	}{
		{"non-student target", f.admin, membership.MemberParams{CommitteeID: c.ID, UserID: admin.ID}, apperr.KindInvalidArgument},
		{"coordinator target", f.admin, membership.MemberParams{CommitteeID: other.ID, UserID: coordinator.ID}, apperr.KindInvalidArgument},
		{"coordinator of other committee", coordActor, membership.MemberParams{CommitteeID: other.ID, UserID: s.ID}, apperr.KindPermissionDenied},
		{"plain member caller", membership.Actor{ID: primitive.NewObjectID(), Role: models.RoleMember}, membership.MemberParams{CommitteeID: c.ID, UserID: s.ID}, apperr.KindPermissionDenied},
		{"inactive committee", f.admin, membership.MemberParams{CommitteeID: inactive.ID, UserID: s.ID}, apperr.KindNotFound},
		{"missing committee", f.admin, membership.MemberParams{CommitteeID: primitive.NewObjectID(), UserID: s.ID}, apperr.KindNotFound},
		{"missing user", coordActor, membership.MemberParams{CommitteeID: c.ID, UserID: primitive.NewObjectID()}, apperr.KindNotFound},
		{"zero ids", f.admin, membership.MemberParams{}, apperr.KindInvalidArgument},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.engine.AddMember(ctx, tt.caller, tt.p)
			if kind(err) != tt.want {
				t.Errorf("err = %v, want %s", err, tt.want)
			}
		})
	}

	// The committee's own coordinator may recruit.
	if _, err := f.engine.AddMember(ctx, coordActor, membership.MemberParams{CommitteeID: c.ID, UserID: s.ID}); err != nil {
		t.Fatalf("coordinator AddMember: %v", err)
	}
	// A second add is rejected: the target is no longer a student.
	if _, err := f.engine.AddMember(ctx, coordActor, membership.MemberParams{CommitteeID: c.ID, UserID: s.ID}); kind(err) != apperr.KindInvalidArgument {
		t.Errorf("repeat AddMember err = %v", err)
	}
}

func TestRemoveMember_NotMember(t *testing.T) {
	f := newFixture(t)
	u := f.student("nia")
	c := f.committee("Tech")

	_, err := f.engine.RemoveMember(context.Background(), f.admin, membership.MemberParams{CommitteeID: c.ID, UserID: u.ID})
	if kind(err) != apperr.KindInvalidArgument {
		t.Errorf("err = %v, want invalid argument", err)
	}
}

func TestRemoveMember_LeavesEventRosters(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	u := f.student("rio")
	c := f.committee("Tech")
	event := primitive.NewObjectID()

	if _, err := f.engine.AddMember(ctx, f.admin, membership.MemberParams{CommitteeID: c.ID, UserID: u.ID}); err != nil {
		t.Fatal(err)
	}
	f.repo.PutEventRoster(event, u.ID)

	if _, err := f.engine.RemoveMember(ctx, f.admin, membership.MemberParams{CommitteeID: c.ID, UserID: u.ID}); err != nil {
		t.Fatal(err)
	}
	if roster := f.repo.EventRoster(event); len(roster) != 1 {
		t.Errorf("event roster = %v, want assignee kept", roster)
	}
}

func TestAssignRole(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	c := f.committee("Tech")

	t.Run("member without committee", func(t *testing.T) {
		u := f.student("a1")
		_, err := f.engine.AssignRole(ctx, f.admin, membership.AssignRoleParams{UserID: u.ID, Role: models.RoleMember})
		if kind(err) != apperr.KindInvalidArgument {
			t.Errorf("err = %v, want invalid argument", err)
		}
	})

	t.Run("invalid role", func(t *testing.T) {
		u := f.student("a2")
		_, err := f.engine.AssignRole(ctx, f.admin, membership.AssignRoleParams{UserID: u.ID, Role: "root"})
		if kind(err) != apperr.KindInvalidArgument {
			t.Errorf("err = %v, want invalid argument", err)
		}
	})

	t.Run("missing committee", func(t *testing.T) {
		u := f.student("a3")
		missing := primitive.NewObjectID()
		_, err := f.engine.AssignRole(ctx, f.admin, membership.AssignRoleParams{UserID: u.ID, Role: models.RoleMember, CommitteeID: &missing})
		if kind(err) != apperr.KindNotFound {
			t.Errorf("err = %v, want not found", err)
		}
	})

	t.Run("missing user", func(t *testing.T) {
		_, err := f.engine.AssignRole(ctx, f.admin, membership.AssignRoleParams{UserID: primitive.NewObjectID(), Role: models.RoleAdmin})
		if kind(err) != apperr.KindNotFound {
			t.Errorf("err = %v, want not found", err)
		}
	})

	t.Run("non-admin caller", func(t *testing.T) {
		u := f.student("a4")
		caller := membership.Actor{ID: primitive.NewObjectID(), Role: models.RoleCoordinator}
		_, err := f.engine.AssignRole(ctx, caller, membership.AssignRoleParams{UserID: u.ID, Role: models.RoleAdmin})
		if kind(err) != apperr.KindPermissionDenied {
			t.Errorf("err = %v, want permission denied", err)
		}
	})

	t.Run("member then student keeps list entry", func(t *testing.T) {
		u := f.student("a5")
		got, err := f.engine.AssignRole(ctx, f.admin, membership.AssignRoleParams{UserID: u.ID, Role: models.RoleMember, CommitteeID: &c.ID})
		if err != nil {
			t.Fatal(err)
		}
		if got.Role != models.RoleMember || got.CommitteeID == nil || *got.CommitteeID != c.ID {
			t.Fatalf("user = %+v", got)
		}
		f.assertMemberConsistent(t, u.ID)

		got, err = f.engine.AssignRole(ctx, f.admin, membership.AssignRoleParams{UserID: u.ID, Role: models.RoleStudent})
		if err != nil {
			t.Fatal(err)
		}
		if got.CommitteeID != nil {
			t.Error("student should have no primary committee")
		}
		if !f.comm(t, c.ID).HasMember(u.ID) {
			t.Error("downgrade to student should not pull from member_ids")
		}
	})

	t.Run("coordinator of primary committee", func(t *testing.T) {
		u := f.student("a6")
		if _, err := f.engine.AssignRole(ctx, f.admin, membership.AssignRoleParams{UserID: u.ID, Role: models.RoleMember, CommitteeID: &c.ID}); err != nil {
			t.Fatal(err)
		}
		got, err := f.engine.AssignRole(ctx, f.admin, membership.AssignRoleParams{UserID: u.ID, Role: models.RoleCoordinator, CommitteeID: &c.ID})
		if err != nil {
			t.Fatal(err)
		}
		if !got.Coordinates(c.ID) {
			t.Errorf("coordinated set = %v", got.CoordinatedCommitteeIDs)
		}
		f.assertCoordinatorConsistent(t, u.ID)
	})
}

func TestDeleteIdentity_RemovesAllReferences(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	u := f.student("del")
	c1 := f.committee("Tech")
	c2 := f.committee("Cultural")
	c3 := f.committee("Sports")
	event := primitive.NewObjectID()

	if _, err := f.engine.AddMember(ctx, f.admin, membership.MemberParams{CommitteeID: c1.ID, UserID: u.ID}); err != nil {
		t.Fatal(err)
	}
	for _, c := range []models.Committee{c2, c3} {
		if _, _, err := f.engine.AddCoordinator(ctx, f.admin, membership.CoordinatorParams{CommitteeID: c.ID, UserID: u.ID}); err != nil {
			t.Fatal(err)
		}
	}
	f.repo.PutEventRoster(event, u.ID, primitive.NewObjectID())

	ok, err := f.engine.DeleteIdentity(ctx, f.admin, membership.DeleteIdentityParams{UserID: u.ID})
	if err != nil || !ok {
		t.Fatalf("DeleteIdentity = %v, %v", ok, err)
	}
	if _, found := f.repo.User(u.ID); found {
		t.Error("user still present")
	}
	for _, c := range []models.Committee{c1, c2, c3} {
		got := f.comm(t, c.ID)
		if got.HasMember(u.ID) || got.HasCoordinator(u.ID) {
			t.Errorf("committee %s still references deleted user", c.Name)
		}
	}
	if roster := f.repo.EventRoster(event); len(roster) != 1 {
		t.Errorf("event roster = %v, want only the other assignee", roster)
	}

	_, err = f.engine.DeleteIdentity(ctx, f.admin, membership.DeleteIdentityParams{UserID: u.ID})
	if kind(err) != apperr.KindNotFound {
		t.Errorf("second delete err = %v, want not found", err)
	}
}

func TestFailedUnit_RollsBackCommitteeWrite(t *testing.T) {
	f := newFixture(t)
	u := f.student("rb")
	c := f.committee("Tech")

	f.repo.FailOn("SaveRoleState", errors.New("write timeout"))
	_, _, err := f.engine.AddCoordinator(context.Background(), f.admin, membership.CoordinatorParams{CommitteeID: c.ID, UserID: u.ID})
	if kind(err) != apperr.KindInternal {
		t.Fatalf("err = %v, want internal", err)
	}
	if f.comm(t, c.ID).HasCoordinator(u.ID) {
		t.Error("committee write was not rolled back")
	}
	if got := f.user(t, u.ID); got.Role != models.RoleStudent {
		t.Errorf("role = %s, want student", got.Role)
	}
	if len(f.sink.events) != 0 {
		t.Error("failed operation must not be audited as a success")
	}

	expected := `
# HELP festivo_membership_ops_total membership engine operations by operation and outcome
# TYPE festivo_membership_ops_total counter
festivo_membership_ops_total{op="add_coordinator",outcome="error"} 1
`
	if err := testutil.GatherAndCompare(f.metrics.Registry(), strings.NewReader(expected), "festivo_membership_ops_total"); err != nil {
		t.Error(err)
	}
}

func TestAuditSinkFailure_DoesNotFailOperation(t *testing.T) {
	f := newFixture(t)
	f.sink.err = errors.New("audit store down")
	u := f.student("au")
	c := f.committee("Tech")

	if _, err := f.engine.AddMember(context.Background(), f.admin, membership.MemberParams{CommitteeID: c.ID, UserID: u.ID}); err != nil {
		t.Fatalf("AddMember failed because of the audit sink: %v", err)
	}
	if got := f.user(t, u.ID); got.Role != models.RoleMember {
		t.Errorf("role = %s, want member", got.Role)
	}
}

func TestConcurrentAddMember_SingleEntry(t *testing.T) {
	f := newFixture(t)
	u := f.student("race")
	c := f.committee("Tech")

	errs := make(chan error, 8)
	for i := 0; i < 8; i++ {
		go func() {
			_, err := f.engine.AddMember(context.Background(), f.admin, membership.MemberParams{CommitteeID: c.ID, UserID: u.ID})
			errs <- err
		}()
	}
	succeeded := 0
	for i := 0; i < 8; i++ {
		if err := <-errs; err == nil {
			succeeded++
		}
	}
	if succeeded != 1 {
		t.Errorf("%d concurrent adds succeeded, want 1", succeeded)
	}
	if n := len(f.comm(t, c.ID).MemberIDs); n != 1 {
		t.Errorf("member_ids has %d entries", n)
	}
}

func TestAssignCommittee(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	tech := f.committee("Tech")
	arts := f.committee("Arts")
	old := f.committee("Old")
	old.IsActive = false
	f.repo.PutCommittee(old)

	mo := f.student("mo")
	if _, err := f.engine.AddMember(ctx, f.admin, membership.MemberParams{CommitteeID: tech.ID, UserID: mo.ID}); err != nil {
		t.Fatal(err)
	}

	got, err := f.engine.AssignCommittee(ctx, f.admin, membership.AssignCommitteeParams{UserID: mo.ID, CommitteeID: arts.ID})
	if err != nil {
		t.Fatalf("AssignCommittee: %v", err)
	}
	if got.Role != models.RoleMember || got.CommitteeID == nil || *got.CommitteeID != arts.ID {
		t.Fatalf("user = %+v", got)
	}
	f.assertMemberConsistent(t, mo.ID)
	if f.comm(t, tech.ID).HasMember(mo.ID) {
		t.Error("moved member still listed in the previous committee")
	}

	cora := f.student("cora")
	if _, _, err := f.engine.AddCoordinator(ctx, f.admin, membership.CoordinatorParams{CommitteeID: tech.ID, UserID: cora.ID}); err != nil {
		t.Fatal(err)
	}
	got, err = f.engine.AssignCommittee(ctx, f.admin, membership.AssignCommitteeParams{UserID: cora.ID, CommitteeID: arts.ID})
	if err != nil {
		t.Fatalf("AssignCommittee coordinator: %v", err)
	}
	if got.Role != models.RoleCoordinator || !got.Coordinates(tech.ID) || !got.Coordinates(arts.ID) {
		t.Errorf("coordinator = %+v", got)
	}
	if c := f.comm(t, arts.ID); !c.HasMember(cora.ID) || !c.HasCoordinator(cora.ID) {
		t.Error("coordinator not listed on the assigned committee")
	}
	f.assertCoordinatorConsistent(t, cora.ID)

	s := f.student("sam")
	tests := []struct {
		name   string
		caller membership.Actor
		p      membership.AssignCommitteeParams
		want   apperr.Kind
	}{
		{"student target", f.admin, membership.AssignCommitteeParams{UserID: s.ID, CommitteeID: tech.ID}, apperr.KindInvalidArgument},
		{"inactive committee", f.admin, membership.AssignCommitteeParams{UserID: mo.ID, CommitteeID: old.ID}, apperr.KindNotFound},
		{"missing committee", f.admin, membership.AssignCommitteeParams{UserID: mo.ID, CommitteeID: primitive.NewObjectID()}, apperr.KindNotFound},
		{"missing user", f.admin, membership.AssignCommitteeParams{UserID: primitive.NewObjectID(), CommitteeID: tech.ID}, apperr.KindNotFound},
		{"coordinator caller", membership.Actor{ID: cora.ID, Role: models.RoleCoordinator}, membership.AssignCommitteeParams{UserID: mo.ID, CommitteeID: tech.ID}, apperr.KindPermissionDenied},
		{"zero ids", f.admin, membership.AssignCommitteeParams{}, apperr.KindInvalidArgument},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.engine.AssignCommittee(ctx, tt.caller, tt.p)
			if kind(err) != tt.want {
				t.Errorf("err = %v, want %s", err, tt.want)
			}
		})
	}
	if f.comm(t, tech.ID).HasMember(s.ID) {
		t.Error("rejected assignment wrote to the committee")
	}
}

func TestUnassignCommittee(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	tech := f.committee("Tech")
	arts := f.committee("Arts")

	mo := f.student("mo")
	if _, err := f.engine.AddMember(ctx, f.admin, membership.MemberParams{CommitteeID: tech.ID, UserID: mo.ID}); err != nil {
		t.Fatal(err)
	}
	got, err := f.engine.UnassignCommittee(ctx, f.admin, membership.UnassignCommitteeParams{UserID: mo.ID})
	if err != nil {
		t.Fatalf("UnassignCommittee: %v", err)
	}
	if got.Role != models.RoleStudent || got.CommitteeID != nil {
		t.Errorf("member after unassign = role %q primary %v", got.Role, got.CommitteeID)
	}
	if f.comm(t, tech.ID).HasMember(mo.ID) {
		t.Error("member still listed after unassign")
	}
	f.assertMemberConsistent(t, mo.ID)

	cora := f.student("cora")
	for _, c := range []models.Committee{tech, arts} {
		if _, _, err := f.engine.AddCoordinator(ctx, f.admin, membership.CoordinatorParams{CommitteeID: c.ID, UserID: cora.ID}); err != nil {
			t.Fatal(err)
		}
	}
	if _, err := f.engine.AssignCommittee(ctx, f.admin, membership.AssignCommitteeParams{UserID: cora.ID, CommitteeID: tech.ID}); err != nil {
		t.Fatal(err)
	}
	got, err = f.engine.UnassignCommittee(ctx, f.admin, membership.UnassignCommitteeParams{UserID: cora.ID})
	if err != nil {
		t.Fatalf("UnassignCommittee coordinator: %v", err)
	}
	if got.Role != models.RoleCoordinator || got.Coordinates(tech.ID) || !got.Coordinates(arts.ID) {
		t.Errorf("coordinator after unassign = %+v", got)
	}
	if c := f.comm(t, tech.ID); c.HasMember(cora.ID) || c.HasCoordinator(cora.ID) {
		t.Error("coordinator still listed on the unassigned committee")
	}
	f.assertCoordinatorConsistent(t, cora.ID)

	if _, err := f.engine.UnassignCommittee(ctx, f.admin, membership.UnassignCommitteeParams{UserID: mo.ID}); kind(err) != apperr.KindInvalidArgument {
		t.Errorf("unassign without primary err = %v, want invalid argument", err)
	}
	if _, err := f.engine.UnassignCommittee(ctx, f.admin, membership.UnassignCommitteeParams{UserID: primitive.NewObjectID()}); kind(err) != apperr.KindNotFound {
		t.Errorf("unassign missing user err = %v, want not found", err)
	}
}

func TestLastAdminIsKept(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	ada := models.User{ID: primitive.NewObjectID(), Name: "ada", Role: models.RoleAdmin}
	f.repo.PutUser(ada)

	if _, err := f.engine.AssignRole(ctx, f.admin, membership.AssignRoleParams{UserID: ada.ID, Role: models.RoleStudent}); kind(err) != apperr.KindConflict {
		t.Errorf("demote last admin err = %v, want conflict", err)
	}
	if _, err := f.engine.DeleteIdentity(ctx, f.admin, membership.DeleteIdentityParams{UserID: ada.ID}); kind(err) != apperr.KindConflict {
		t.Errorf("delete last admin err = %v, want conflict", err)
	}
	if _, err := f.engine.AssignRole(ctx, f.admin, membership.AssignRoleParams{UserID: ada.ID, Role: models.RoleAdmin}); err != nil {
		t.Errorf("reassigning admin to the last admin: %v", err)
	}

	// Two admins demoting each other concurrently leave one admin behind.
	bob := models.User{ID: primitive.NewObjectID(), Name: "bob", Role: models.RoleAdmin}
	f.repo.PutUser(bob)
	errs := make(chan error, 2)
	for _, id := range []primitive.ObjectID{ada.ID, bob.ID} {
		go func(id primitive.ObjectID) {
			_, err := f.engine.AssignRole(ctx, f.admin, membership.AssignRoleParams{UserID: id, Role: models.RoleStudent})
			errs <- err
		}(id)
	}
	var conflicts int
	for i := 0; i < 2; i++ {
		if kind(<-errs) == apperr.KindConflict {
			conflicts++
		}
	}
	if conflicts != 1 {
		t.Errorf("%d demotions rejected, want 1", conflicts)
	}
	admins := 0
	for _, id := range []primitive.ObjectID{ada.ID, bob.ID} {
		if f.user(t, id).Role == models.RoleAdmin {
			admins++
		}
	}
	if admins != 1 {
		t.Errorf("%d admins left, want 1", admins)
	}
}
