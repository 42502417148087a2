package validators_test

import (
	"testing"
	"time"

	"github.com/dalemusser/festivo/internal/app/system/validators"
	"github.com/dalemusser/festivo/internal/testutil"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

func setup(t *testing.T) *mongo.Database {
	t.Helper()
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	if err := validators.EnsureAll(ctx, db); err != nil {
		t.Fatalf("EnsureAll failed: %v", err)
	}
	return db
}

func TestEnsureAll_Idempotent(t *testing.T) {
	db := setup(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if err := validators.EnsureAll(ctx, db); err != nil {
		t.Fatalf("Second EnsureAll failed: %v", err)
	}
}

func TestEnsureAll_CreatesCollections(t *testing.T) {
	db := setup(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	names, err := db.ListCollectionNames(ctx, bson.M{})
	if err != nil {
		t.Fatalf("ListCollectionNames failed: %v", err)
	}
	have := map[string]bool{}
	for _, n := range names {
		have[n] = true
	}
	for _, want := range []string{"users", "committees", "events", "registrations", "attendance", "scores", "audit_events", "oauth_states"} {
		if !have[want] {
			t.Errorf("collection %q not created", want)
		}
	}
}

func TestValidators(t *testing.T) {
	db := setup(t)
	now := time.Now()
	oid := primitive.NewObjectID

	tests := []struct {
		name    string
		coll    string
		doc     bson.M
		wantErr bool
	}{
		{"user valid", "users", bson.M{"name": "Ana", "email": "ana@example.com", "role": "student", "auth_method": "password"}, false},
		{"user missing email", "users", bson.M{"name": "Ana", "role": "student", "auth_method": "password"}, true},
		{"user bad role", "users", bson.M{"name": "Ana", "email": "a@b.c", "role": "superuser", "auth_method": "password"}, true},
		{"user blank name", "users", bson.M{"name": "   ", "email": "a@b.c", "role": "admin", "auth_method": "password"}, true},
		{"committee valid", "committees", bson.M{"name": "Tech", "coordinator_ids": bson.A{}, "member_ids": bson.A{}, "is_active": true}, false},
		{"committee null lists", "committees", bson.M{"name": "Tech", "coordinator_ids": nil, "member_ids": bson.A{}, "is_active": true}, true},
		{"event valid", "events", bson.M{"title": "Quiz", "committee_id": oid(), "date_time": now, "is_active": true, "max_group_size": 3}, false},
		{"event group size zero", "events", bson.M{"title": "Quiz", "committee_id": oid(), "date_time": now, "is_active": true, "max_group_size": 0}, true},
		{"registration valid", "registrations", bson.M{"event_id": oid(), "leader_id": oid(), "qr_code": "abc", "payment_status": "pending"}, false},
		{"registration bad payment", "registrations", bson.M{"event_id": oid(), "leader_id": oid(), "qr_code": "abc", "payment_status": "refunded"}, true},
		{"attendance valid", "attendance", bson.M{"registration_id": oid(), "participant_id": oid(), "status": "present"}, false},
		{"attendance bad status", "attendance", bson.M{"registration_id": oid(), "participant_id": oid(), "status": "late"}, true},
		{"score valid", "scores", bson.M{"registration_id": oid(), "participant_id": oid(), "round": "final", "score": 88.5}, false},
		{"score above range", "scores", bson.M{"registration_id": oid(), "participant_id": oid(), "round": "final", "score": 101.0}, true},
		{"score below range", "scores", bson.M{"registration_id": oid(), "participant_id": oid(), "round": "final", "score": -1}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx, cancel := testutil.TestContext()
			defer cancel()
			_, err := db.Collection(tt.coll).InsertOne(ctx, tt.doc)
			if (err != nil) != tt.wantErr {
				t.Errorf("InsertOne err = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
