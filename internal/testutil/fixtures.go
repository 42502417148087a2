package testutil

import (
	"context"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/dalemusser/festivo/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/text"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"golang.org/x/crypto/bcrypt"
)

// FixturePassword is the plain-text password of every fixture user.
const FixturePassword = "password123"

// WithChiURLParam adds a chi URL parameter to the request context.
// Repeated calls accumulate parameters on the same route context.
func WithChiURLParam(r *http.Request, key, value string) *http.Request {
	rctx, _ := r.Context().Value(chi.RouteCtxKey).(*chi.Context)
	if rctx == nil {
		rctx = chi.NewRouteContext()
		r = r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
	}
	rctx.URLParams.Add(key, value)
	return r
}

// Fixtures provides helper methods for creating test data.
type Fixtures struct {
	db *mongo.Database
	t  *testing.T
}

// NewFixtures creates a new Fixtures instance for the given test database.
func NewFixtures(t *testing.T, db *mongo.Database) *Fixtures {
	t.Helper()
	return &Fixtures{db: db, t: t}
}

// DB returns the underlying database for direct access in tests.
func (f *Fixtures) DB() *mongo.Database {
	return f.db
}

var (
	hashOnce sync.Once
	hash     string
)

func fixtureHash() string {
	hashOnce.Do(func() {
		b, _ := bcrypt.GenerateFromPassword([]byte(FixturePassword), bcrypt.MinCost)
		hash = string(b)
	})
	return hash
}

// CreateUser inserts a user with the given role. Role-derived links are
// left empty; use the membership engine or CreateMember to link committees.
func (f *Fixtures) CreateUser(ctx context.Context, name, email, role string) models.User {
	f.t.Helper()

	now := time.Now().UTC()
	u := models.User{
		ID:                      primitive.NewObjectID(),
		Name:                    name,
		NameCI:                  text.Fold(name),
		Email:                   email,
		PasswordHash:            fixtureHash(),
		AuthMethod:              models.AuthMethodPassword,
		Role:                    role,
		CoordinatedCommitteeIDs: []primitive.ObjectID{},
		CreatedAt:               now,
		UpdatedAt:               now,
	}
	if _, err := f.db.Collection("users").InsertOne(ctx, u); err != nil {
		f.t.Fatalf("CreateUser(%s): %v", email, err)
	}
	return u
}

// CreateStudent inserts a student.
func (f *Fixtures) CreateStudent(ctx context.Context, name, email string) models.User {
	f.t.Helper()
	return f.CreateUser(ctx, name, email, models.RoleStudent)
}

// CreateAdmin inserts an admin.
func (f *Fixtures) CreateAdmin(ctx context.Context, name, email string) models.User {
	f.t.Helper()
	return f.CreateUser(ctx, name, email, models.RoleAdmin)
}

// CreateMember inserts a consistent member of committeeID (both sides linked).
func (f *Fixtures) CreateMember(ctx context.Context, name, email string, committeeID primitive.ObjectID) models.User {
	f.t.Helper()
	u := f.CreateUser(ctx, name, email, models.RoleMember)
	u.CommitteeID = &committeeID
	if _, err := f.db.Collection("users").UpdateOne(ctx, bson.M{"_id": u.ID}, bson.M{"$set": bson.M{"committee_id": committeeID}}); err != nil {
		f.t.Fatalf("CreateMember link user: %v", err)
	}
	f.addToCommittee(ctx, committeeID, models.CommitteeMembers, u.ID)
	return u
}

// CreateCoordinator inserts a consistent coordinator of the given committees.
func (f *Fixtures) CreateCoordinator(ctx context.Context, name, email string, committeeIDs ...primitive.ObjectID) models.User {
	f.t.Helper()
	u := f.CreateUser(ctx, name, email, models.RoleCoordinator)
	u.CoordinatedCommitteeIDs = append([]primitive.ObjectID{}, committeeIDs...)
	if _, err := f.db.Collection("users").UpdateOne(ctx, bson.M{"_id": u.ID},
		bson.M{"$set": bson.M{"coordinated_committee_ids": u.CoordinatedCommitteeIDs}}); err != nil {
		f.t.Fatalf("CreateCoordinator link user: %v", err)
	}
	for _, cid := range committeeIDs {
		f.addToCommittee(ctx, cid, models.CommitteeCoordinators, u.ID)
	}
	return u
}

func (f *Fixtures) addToCommittee(ctx context.Context, committeeID primitive.ObjectID, field string, id primitive.ObjectID) {
	f.t.Helper()
	if _, err := f.db.Collection("committees").UpdateOne(ctx, bson.M{"_id": committeeID},
		bson.M{"$addToSet": bson.M{field: id}}); err != nil {
		f.t.Fatalf("add %s to committee: %v", field, err)
	}
}

// CreateCommittee inserts an active committee with empty lists.
func (f *Fixtures) CreateCommittee(ctx context.Context, name string) models.Committee {
	f.t.Helper()

	now := time.Now().UTC()
	c := models.Committee{
		ID:               primitive.NewObjectID(),
		Name:             name,
		NameCI:           text.Fold(name),
		Description:      name + " committee",
		CoordinatorIDs:   []primitive.ObjectID{},
		MemberIDs:        []primitive.ObjectID{},
		AssignedEventIDs: []primitive.ObjectID{},
		IsActive:         true,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if _, err := f.db.Collection("committees").InsertOne(ctx, c); err != nil {
		f.t.Fatalf("CreateCommittee(%s): %v", name, err)
	}
	return c
}

// CreateEvent inserts an active event one week out owned by committeeID
// and records it in the committee's assigned events. opts may adjust the
// event before insert.
func (f *Fixtures) CreateEvent(ctx context.Context, committeeID primitive.ObjectID, title string, opts ...func(*models.Event)) models.Event {
	f.t.Helper()

	now := time.Now().UTC()
	e := models.Event{
		ID:                 primitive.NewObjectID(),
		Title:              title,
		TitleCI:            text.Fold(title),
		Description:        title,
		CommitteeID:        committeeID,
		CommitteeMemberIDs: []primitive.ObjectID{},
		DateTime:           now.Add(7 * 24 * time.Hour),
		Venue:              "Main Hall",
		Fee:                100,
		Packages:           []models.Package{},
		MaxGroupSize:       1,
		Rules:              []string{},
		IsActive:           true,
		CreatedAt:          now,
		UpdatedAt:          now,
	}
	for _, opt := range opts {
		opt(&e)
	}
	if _, err := f.db.Collection("events").InsertOne(ctx, e); err != nil {
		f.t.Fatalf("CreateEvent(%s): %v", title, err)
	}
	f.addToCommittee(ctx, committeeID, models.CommitteeEvents, e.ID)
	return e
}

// CreateRegistration inserts a pending registration for leaderID and group.
func (f *Fixtures) CreateRegistration(ctx context.Context, eventID, leaderID primitive.ObjectID, group ...primitive.ObjectID) models.Registration {
	f.t.Helper()

	now := time.Now().UTC()
	r := models.Registration{
		ID:                  primitive.NewObjectID(),
		EventID:             eventID,
		LeaderID:            leaderID,
		GroupMembers:        append([]primitive.ObjectID{}, group...),
		PaymentStatus:       models.PaymentPending,
		QRCode:              uuid.NewString(),
		TotalAmount:         100,
		IsGroupRegistration: len(group) > 0,
		CreatedAt:           now,
		UpdatedAt:           now,
	}
	if _, err := f.db.Collection("registrations").InsertOne(ctx, r); err != nil {
		f.t.Fatalf("CreateRegistration: %v", err)
	}
	return r
}
