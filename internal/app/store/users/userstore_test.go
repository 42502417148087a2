package userstore_test

import (
	"errors"
	"testing"

	userstore "github.com/dalemusser/festivo/internal/app/store/users"
	"github.com/dalemusser/festivo/internal/domain/models"
	"github.com/dalemusser/festivo/internal/testutil"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

func TestStore_Create_DefaultsToStudent(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := userstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	created, err := store.Create(ctx, models.User{
		Name:  "  Jane Smith ",
		Email: " Jane@Student.COM ",
	})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if created.ID.IsZero() {
		t.Error("expected ID to be assigned")
	}
	if created.Role != models.RoleStudent {
		t.Errorf("role = %q, want student", created.Role)
	}
	if created.Name != "Jane Smith" || created.Email != "jane@student.com" {
		t.Errorf("not normalized: %q %q", created.Name, created.Email)
	}
	if created.NameCI == "" {
		t.Error("expected NameCI to be set")
	}

	// the coordinated set is stored as an empty array, not null
	var raw bson.M
	if err := db.Collection("users").FindOne(ctx, bson.M{"_id": created.ID}).Decode(&raw); err != nil {
		t.Fatalf("FindOne: %v", err)
	}
	if _, ok := raw["coordinated_committee_ids"].(bson.A); !ok {
		t.Errorf("coordinated_committee_ids = %T, want array", raw["coordinated_committee_ids"])
	}
}

func TestStore_Create_InvalidRole(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := userstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if _, err := store.Create(ctx, models.User{Name: "X", Email: "x@example.com", Role: "judge"}); err == nil {
		t.Error("expected error for invalid role")
	}
}

func TestStore_Create_DuplicateEmail(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := userstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if _, err := store.Create(ctx, models.User{Name: "A", Email: "dup@example.com"}); err != nil {
		t.Fatalf("first Create failed: %v", err)
	}
	_, err := store.Create(ctx, models.User{Name: "B", Email: "DUP@example.com"})
	if !errors.Is(err, userstore.ErrDuplicateEmail) {
		t.Errorf("expected ErrDuplicateEmail, got %v", err)
	}
}

func TestStore_GetByID_NotFound(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := userstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	_, err := store.GetByID(ctx, primitive.NewObjectID())
	if !errors.Is(err, mongo.ErrNoDocuments) {
		t.Errorf("expected ErrNoDocuments, got %v", err)
	}
}

func TestStore_SetRoleState(t *testing.T) {
	db := testutil.SetupTestDB(t)
	fixtures := testutil.NewFixtures(t, db)
	store := userstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	u := fixtures.CreateStudent(ctx, "Mike Johnson", "mike@student.com")
	c1 := primitive.NewObjectID()
	c2 := primitive.NewObjectID()

	if err := store.SetRoleState(ctx, u.ID, models.RoleMember, &c1, []primitive.ObjectID{c2}); err != nil {
		t.Fatalf("SetRoleState failed: %v", err)
	}
	got, err := store.GetByID(ctx, u.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if got.Role != models.RoleMember || got.CommitteeID == nil || *got.CommitteeID != c1 {
		t.Errorf("unexpected state: %+v", got)
	}
	if len(got.CoordinatedCommitteeIDs) != 1 || got.CoordinatedCommitteeIDs[0] != c2 {
		t.Errorf("coordinated = %v", got.CoordinatedCommitteeIDs)
	}

	// nil committee unsets the primary link
	if err := store.SetRoleState(ctx, u.ID, models.RoleStudent, nil, nil); err != nil {
		t.Fatalf("SetRoleState failed: %v", err)
	}
	got, _ = store.GetByID(ctx, u.ID)
	if got.CommitteeID != nil {
		t.Errorf("expected committee_id to be unset, got %v", got.CommitteeID)
	}
	if got.CoordinatedCommitteeIDs == nil || len(got.CoordinatedCommitteeIDs) != 0 {
		t.Errorf("expected empty coordinated set, got %v", got.CoordinatedCommitteeIDs)
	}

	if err := store.SetRoleState(ctx, primitive.NewObjectID(), models.RoleStudent, nil, nil); !errors.Is(err, mongo.ErrNoDocuments) {
		t.Errorf("expected ErrNoDocuments for unknown user, got %v", err)
	}
}

func TestStore_DeleteAndInsert(t *testing.T) {
	db := testutil.SetupTestDB(t)
	fixtures := testutil.NewFixtures(t, db)
	store := userstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	u := fixtures.CreateStudent(ctx, "Sarah Wilson", "sarah@student.com")
	n, err := store.Delete(ctx, u.ID)
	if err != nil || n != 1 {
		t.Fatalf("Delete = %d, %v", n, err)
	}
	if err := store.Insert(ctx, u); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}
	got, err := store.GetByID(ctx, u.ID)
	if err != nil || got.Email != "sarah@student.com" {
		t.Errorf("restore failed: %+v, %v", got, err)
	}
}

func TestStore_UpdateProfile(t *testing.T) {
	db := testutil.SetupTestDB(t)
	fixtures := testutil.NewFixtures(t, db)
	store := userstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	a := fixtures.CreateStudent(ctx, "John Doe", "john@student.com")
	fixtures.CreateStudent(ctx, "Jane Smith", "jane@student.com")

	name := "Johnny Doe"
	year := "3"
	if err := store.UpdateProfile(ctx, a.ID, userstore.ProfileUpdate{Name: &name, Year: &year}); err != nil {
		t.Fatalf("UpdateProfile failed: %v", err)
	}
	got, _ := store.GetByID(ctx, a.ID)
	if got.Name != "Johnny Doe" || got.Year != "3" {
		t.Errorf("got %+v", got)
	}

	taken := "jane@student.com"
	if err := store.UpdateProfile(ctx, a.ID, userstore.ProfileUpdate{Email: &taken}); !errors.Is(err, userstore.ErrDuplicateEmail) {
		t.Errorf("expected ErrDuplicateEmail, got %v", err)
	}
	exists, err := store.EmailExistsForOther(ctx, taken, a.ID)
	if err != nil || !exists {
		t.Errorf("EmailExistsForOther = %v, %v", exists, err)
	}
}

func TestStore_SetBlocked(t *testing.T) {
	db := testutil.SetupTestDB(t)
	fixtures := testutil.NewFixtures(t, db)
	store := userstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	u := fixtures.CreateStudent(ctx, "David Brown", "david@student.com")
	if err := store.SetBlocked(ctx, u.ID, true); err != nil {
		t.Fatalf("SetBlocked failed: %v", err)
	}
	got, _ := store.GetByID(ctx, u.ID)
	if !got.IsBlocked {
		t.Error("expected user to be blocked")
	}

	su, err := userstore.NewFetcher(db).FetchUser(ctx, u.ID.Hex())
	if err != nil || su == nil || !su.IsBlocked {
		t.Errorf("fetcher did not report block: %+v, %v", su, err)
	}
}

func TestStore_ListAndCounts(t *testing.T) {
	db := testutil.SetupTestDB(t)
	fixtures := testutil.NewFixtures(t, db)
	store := userstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	fixtures.CreateStudent(ctx, "Alice", "alice@student.com")
	fixtures.CreateStudent(ctx, "Bob", "bob@student.com")
	fixtures.CreateAdmin(ctx, "Root", "admin@festivo.com")

	page, err := store.List(ctx, userstore.ListFilter{Role: models.RoleStudent})
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(page.Users) != 2 || page.Users[0].Name != "Alice" {
		t.Errorf("unexpected page: %+v", page.Users)
	}
	if page.HasNext || page.HasPrev {
		t.Error("single page should have no neighbours")
	}

	page, err = store.List(ctx, userstore.ListFilter{Search: "bob@"})
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(page.Users) != 1 || page.Users[0].Email != "bob@student.com" {
		t.Errorf("email search got %+v", page.Users)
	}

	ids, err := store.IDsMatching(ctx, "ali")
	if err != nil {
		t.Fatalf("IDsMatching failed: %v", err)
	}
	if len(ids) != 1 {
		t.Errorf("IDsMatching(ali) = %d ids, want 1", len(ids))
	}
	if ids, _ := store.IDsMatching(ctx, "  "); len(ids) != 0 {
		t.Errorf("blank query matched %d", len(ids))
	}

	counts, err := store.CountByRole(ctx)
	if err != nil {
		t.Fatalf("CountByRole failed: %v", err)
	}
	if counts[models.RoleStudent] != 2 || counts[models.RoleAdmin] != 1 {
		t.Errorf("counts = %v", counts)
	}

	fetcher := userstore.NewFetcher(db)
	if su, err := fetcher.FetchUser(ctx, primitive.NewObjectID().Hex()); su != nil || err != nil {
		t.Errorf("unknown user: %+v, %v", su, err)
	}
	if su, err := fetcher.FetchUser(ctx, "bad-hex"); su != nil || err != nil {
		t.Errorf("bad hex: %+v, %v", su, err)
	}
}

func TestStore_ListUnassignedStudents(t *testing.T) {
	db := testutil.SetupTestDB(t)
	fx := testutil.NewFixtures(t, db)
	store := userstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	c := fx.CreateCommittee(ctx, "Tech")
	fx.CreateStudent(ctx, "Zed", "zed@example.com")
	fx.CreateStudent(ctx, "Amy", "amy@example.com")
	fx.CreateMember(ctx, "Mo", "mo@example.com", c.ID)
	fx.CreateAdmin(ctx, "Ada", "ada@example.com")

	got, err := store.ListUnassignedStudents(ctx)
	if err != nil {
		t.Fatalf("ListUnassignedStudents: %v", err)
	}
	if len(got) != 2 || got[0].Name != "Amy" || got[1].Name != "Zed" {
		t.Errorf("got %+v, want Amy then Zed", got)
	}
}
