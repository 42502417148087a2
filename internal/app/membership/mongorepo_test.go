package membership

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/dalemusser/festivo/internal/app/system/apperr"
	"github.com/dalemusser/festivo/internal/app/system/metrics"
	"github.com/dalemusser/festivo/internal/domain/models"
	"github.com/dalemusser/festivo/internal/testutil"
	promtest "github.com/prometheus/client_golang/prometheus/testutil"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap/zaptest"
)

func TestParseTxMode(t *testing.T) {
	tests := []struct {
		in      string
		want    TxMode
		wantErr bool
	}{
		{"", TxAuto, false},
		{"auto", TxAuto, false},
		{"txn", TxTransaction, false},
		{"compensate", TxCompensate, false},
		{"always", "", true},
	}
	for _, tt := range tests {
		got, err := ParseTxMode(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseTxMode(%q) err = %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseTxMode(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestMongoRepo_EngineLifecycle(t *testing.T) {
	for _, mode := range []TxMode{TxAuto, TxCompensate} {
		t.Run(string(mode), func(t *testing.T) {
			db := testutil.SetupTestDB(t)
			fx := testutil.NewFixtures(t, db)
			ctx, cancel := testutil.TestContext()
			defer cancel()

			repo := NewMongoRepo(db, mode, nil, zaptest.NewLogger(t))
			eng := New(repo, nil, nil, zaptest.NewLogger(t))

			c1 := fx.CreateCommittee(ctx, "Tech")
			c2 := fx.CreateCommittee(ctx, "Cultural")
			u := fx.CreateStudent(ctx, "Ira", "ira@example.com")
			ev := fx.CreateEvent(ctx, c1.ID, "Hackathon")

			if _, err := eng.AddMember(ctx, System, MemberParams{CommitteeID: c1.ID, UserID: u.ID}); err != nil {
				t.Fatalf("AddMember: %v", err)
			}
			if _, _, err := eng.AddCoordinator(ctx, System, CoordinatorParams{CommitteeID: c2.ID, UserID: u.ID}); err != nil {
				t.Fatalf("AddCoordinator: %v", err)
			}
			if err := repo.events.AddAssignee(ctx, ev.ID, u.ID); err != nil {
				t.Fatalf("AddAssignee: %v", err)
			}

			got, err := repo.GetUser(ctx, u.ID)
			if err != nil {
				t.Fatal(err)
			}
			if got.Role != models.RoleCoordinator || !got.Coordinates(c2.ID) {
				t.Errorf("user after add = %+v", got)
			}

			if ok, err := eng.DeleteIdentity(ctx, System, DeleteIdentityParams{UserID: u.ID}); err != nil || !ok {
				t.Fatalf("DeleteIdentity = %v, %v", ok, err)
			}
			if _, err := repo.GetUser(ctx, u.ID); !errors.Is(err, ErrNotFound) {
				t.Errorf("GetUser after delete err = %v", err)
			}
			for _, id := range []primitive.ObjectID{c1.ID, c2.ID} {
				c, err := repo.GetCommittee(ctx, id)
				if err != nil {
					t.Fatal(err)
				}
				if c.HasMember(u.ID) || c.HasCoordinator(u.ID) {
					t.Errorf("committee %s still references deleted user", c.Name)
				}
			}
			ids, err := repo.events.ListAssignedTo(ctx, u.ID)
			if err != nil {
				t.Fatal(err)
			}
			if len(ids) != 0 {
				t.Errorf("deleted user still assigned to %v", ids)
			}
		})
	}
}

func TestMongoRepo_CompensationRestoresWrites(t *testing.T) {
	db := testutil.SetupTestDB(t)
	fx := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	m := metrics.New()
	repo := NewMongoRepo(db, TxCompensate, m, zaptest.NewLogger(t))
	c := fx.CreateCommittee(ctx, "Tech")
	u := fx.CreateStudent(ctx, "Lee", "lee@example.com")

	boom := errors.New("identity write failed")
	err := repo.RunInTx(ctx, OpAddCoordinator, func(ctx context.Context, ops Ops) error {
		if err := ops.AddToCommitteeSet(ctx, c.ID, models.CommitteeCoordinators, u.ID); err != nil {
			return err
		}
		next := u
		next.Role = models.RoleCoordinator
		next.CoordinatedCommitteeIDs = []primitive.ObjectID{c.ID}
		if err := ops.SaveRoleState(ctx, u, next); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("RunInTx err = %v, want the original cause", err)
	}

	got, err := repo.GetCommittee(ctx, c.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.HasCoordinator(u.ID) {
		t.Error("coordinator_ids write was not compensated")
	}
	user, err := repo.GetUser(ctx, u.ID)
	if err != nil {
		t.Fatal(err)
	}
	if user.Role != models.RoleStudent || len(user.CoordinatedCommitteeIDs) != 0 {
		t.Errorf("role state not restored: %+v", user)
	}

	expected := `
# HELP festivo_membership_compensations_total membership operations rolled back by compensating writes
# TYPE festivo_membership_compensations_total counter
festivo_membership_compensations_total{op="add_coordinator"} 1
`
	if err := promtest.GatherAndCompare(m.Registry(), strings.NewReader(expected), "festivo_membership_compensations_total"); err != nil {
		t.Error(err)
	}
}

func TestMongoRepo_DomainErrorSkipsCompensation(t *testing.T) {
	db := testutil.SetupTestDB(t)
	fx := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	m := metrics.New()
	repo := NewMongoRepo(db, TxCompensate, m, nil)
	c := fx.CreateCommittee(ctx, "Tech")

	err := repo.RunInTx(ctx, OpAddMember, func(ctx context.Context, ops Ops) error {
		if _, err := ops.GetCommittee(ctx, c.ID); err != nil {
			return err
		}
		return apperr.Invalid("nothing to do")
	})
	if apperr.KindOf(err) != apperr.KindInvalidArgument {
		t.Fatalf("err = %v", err)
	}
	if n := promtest.CollectAndCount(m.Registry(), "festivo_membership_compensations_total"); n != 0 {
		t.Errorf("compensations recorded for a unit with no writes: %d", n)
	}
}

func TestMongoRepo_DeleteUserRestoredOnFailure(t *testing.T) {
	db := testutil.SetupTestDB(t)
	fx := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	repo := NewMongoRepo(db, TxCompensate, nil, nil)
	c := fx.CreateCommittee(ctx, "Tech")
	u := fx.CreateMember(ctx, "Max", "max@example.com", c.ID)
	ev := fx.CreateEvent(ctx, c.ID, "Quiz")
	if err := repo.events.AddAssignee(ctx, ev.ID, u.ID); err != nil {
		t.Fatal(err)
	}

	loaded, err := repo.GetUser(ctx, u.ID)
	if err != nil {
		t.Fatal(err)
	}
	boom := errors.New("late failure")
	err = repo.RunInTx(ctx, OpDeleteIdentity, func(ctx context.Context, ops Ops) error {
		if err := ops.PullUserEverywhere(ctx, u.ID); err != nil {
			return err
		}
		if err := ops.DeleteUser(ctx, loaded); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("err = %v", err)
	}

	if _, err := repo.GetUser(ctx, u.ID); err != nil {
		t.Errorf("user not restored: %v", err)
	}
	got, err := repo.GetCommittee(ctx, c.ID)
	if err != nil {
		t.Fatal(err)
	}
	if !got.HasMember(u.ID) {
		t.Error("member_ids entry not restored")
	}
	ids, err := repo.events.ListAssignedTo(ctx, u.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(ids) != 1 || ids[0] != ev.ID {
		t.Errorf("event roster not restored: %v", ids)
	}
}
