// internal/app/system/validators/validators.go
package validators

import (
	"context"
	"errors"
	"strings"

	"github.com/dalemusser/festivo/internal/domain/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// EnsureAll creates collections (if missing) and tries to attach JSON-Schema
// validators. On servers that don't support collMod/validators (e.g. some
// DocumentDB versions), we log and skip gracefully.
func EnsureAll(ctx context.Context, db *mongo.Database) error {
	var problems []string

	ensure := func(coll string, schema bson.M) {
		if _, err := ensureCollection(ctx, db, coll); err != nil {
			problems = append(problems, coll+": "+err.Error())
			return
		}
		if schema == nil {
			return
		}
		if err := setValidator(ctx, db, coll, schema); err != nil {
			if isNoSuchCommand(err) || isNotImplemented(err) {
				zap.L().Info("validator skipped (unsupported)", zap.String("collection", coll))
				return
			}
			problems = append(problems, coll+": "+err.Error())
		}
	}

	ensure("users", usersSchema())
	ensure("committees", committeesSchema())
	ensure("events", eventsSchema())
	ensure("registrations", registrationsSchema())
	ensure("attendance", attendanceSchema())
	ensure("scores", scoresSchema())

	// No validators; the collections still need to exist before transactions touch them.
	ensure("audit_events", nil)
	ensure("oauth_states", nil)

	if len(problems) > 0 {
		return errors.New(strings.Join(problems, "; "))
	}
	return nil
}

/* ---------------------- collection helpers & logging ---------------------- */

// collectionExists returns true when <name> already exists.
// Uses ListCollectionNames to avoid "created collection" log when it didn't.
func collectionExists(ctx context.Context, db *mongo.Database, name string) (bool, error) {
	names, err := db.ListCollectionNames(ctx, bson.M{})
	if err != nil {
		return false, err
	}
	for _, n := range names {
		if n == name {
			return true, nil
		}
	}
	return false, nil
}

// ensureCollection idempotently makes sure <name> exists.
// Returns created==true only if we actually created it.
func ensureCollection(ctx context.Context, db *mongo.Database, name string) (created bool, err error) {
	exists, listErr := collectionExists(ctx, db, name)
	if listErr == nil && exists {
		zap.L().Info("collection exists", zap.String("collection", name))
		return false, nil
	}
	// If listing failed, fall back to create-and-handle-race.
	if err := db.CreateCollection(ctx, name); err != nil {
		// NamespaceExists / already exists is fine (race or prior run).
		if isNamespaceExistsErr(err) {
			zap.L().Info("collection exists", zap.String("collection", name))
			return false, nil
		}
		zap.L().Warn("createCollection failed", zap.String("collection", name), zap.Error(err))
		return false, err
	}
	zap.L().Info("created collection", zap.String("collection", name))
	return true, nil
}

/* ------------------------------ validators ------------------------------- */

func setValidator(ctx context.Context, db *mongo.Database, name string, validator bson.M) error {
	cmd := bson.D{
		{Key: "collMod", Value: name},
		{Key: "validator", Value: validator},
		{Key: "validationLevel", Value: "moderate"},
		{Key: "validationAction", Value: "error"},
	}
	var out bson.M
	if err := db.RunCommand(ctx, cmd).Decode(&out); err != nil {
		return err
	}
	zap.L().Info("validator ensured", zap.String("collection", name))
	return nil
}

/* ------------------------- error helpers ------------------------- */

func isNamespaceExistsErr(err error) bool {
	if err == nil {
		return false
	}
	var ce mongo.CommandError
	if errors.As(err, &ce) && (ce.Code == 48 || strings.Contains(strings.ToLower(ce.Message), "already exists")) {
		return true
	}
	s := strings.ToLower(err.Error())
	return strings.Contains(s, "already exists") || strings.Contains(s, "namespace exists")
}

func isNoSuchCommand(err error) bool {
	if err == nil {
		return false
	}
	var ce mongo.CommandError
	if errors.As(err, &ce) && (ce.Code == 59 || strings.Contains(strings.ToLower(ce.Message), "no such command")) {
		return true
	}
	return strings.Contains(strings.ToLower(err.Error()), "no such command")
}

func isNotImplemented(err error) bool {
	if err == nil {
		return false
	}
	var ce mongo.CommandError
	if errors.As(err, &ce) && (ce.Code == 115 ||
		strings.Contains(strings.ToLower(ce.Message), "not implemented") ||
		strings.Contains(strings.ToLower(ce.Message), "not supported")) {
		return true
	}
	s := strings.ToLower(err.Error())
	return strings.Contains(s, "not implemented") || strings.Contains(s, "not supported")
}

/* ------------------------- JSON-Schema docs ---------------------- */

var nonBlank = bson.M{"bsonType": "string", "minLength": 1, "pattern": ".*\\S.*"}

func enumOf(values ...string) bson.M {
	a := bson.A{}
	for _, v := range values {
		a = append(a, v)
	}
	return bson.M{"enum": a}
}

func usersSchema() bson.M {
	return bson.M{
		"$jsonSchema": bson.M{
			"bsonType": "object",
			"required": bson.A{"name", "email", "role", "auth_method"},
			"properties": bson.M{
				"name":                      nonBlank,
				"email":                     nonBlank,
				"role":                      enumOf(models.AllRoles...),
				"auth_method":               enumOf(models.AuthMethodPassword, models.AuthMethodGoogle),
				"committee_id":              bson.M{"bsonType": "objectId"},
				"coordinated_committee_ids": bson.M{"bsonType": "array", "items": bson.M{"bsonType": "objectId"}},
				"is_blocked":                bson.M{"bsonType": "bool"},
			},
		},
	}
}

func committeesSchema() bson.M {
	ids := bson.M{"bsonType": "array", "items": bson.M{"bsonType": "objectId"}}
	return bson.M{
		"$jsonSchema": bson.M{
			"bsonType": "object",
			"required": bson.A{"name", "coordinator_ids", "member_ids", "is_active"},
			"properties": bson.M{
				"name":               nonBlank,
				"coordinator_ids":    ids,
				"member_ids":         ids,
				"assigned_event_ids": ids,
				"is_active":          bson.M{"bsonType": "bool"},
			},
		},
	}
}

func eventsSchema() bson.M {
	return bson.M{
		"$jsonSchema": bson.M{
			"bsonType": "object",
			"required": bson.A{"title", "committee_id", "date_time", "is_active"},
			"properties": bson.M{
				"title":          nonBlank,
				"committee_id":   bson.M{"bsonType": "objectId"},
				"date_time":      bson.M{"bsonType": "date"},
				"fee":            bson.M{"bsonType": bson.A{"double", "int", "long"}, "minimum": 0},
				"max_group_size": bson.M{"bsonType": bson.A{"int", "long"}, "minimum": 1},
				"is_active":      bson.M{"bsonType": "bool"},
			},
		},
	}
}

func registrationsSchema() bson.M {
	return bson.M{
		"$jsonSchema": bson.M{
			"bsonType": "object",
			"required": bson.A{"event_id", "leader_id", "qr_code", "payment_status"},
			"properties": bson.M{
				"event_id":       bson.M{"bsonType": "objectId"},
				"leader_id":      bson.M{"bsonType": "objectId"},
				"qr_code":        nonBlank,
				"payment_status": enumOf(models.PaymentPending, models.PaymentPaid),
			},
		},
	}
}

func attendanceSchema() bson.M {
	return bson.M{
		"$jsonSchema": bson.M{
			"bsonType": "object",
			"required": bson.A{"registration_id", "participant_id", "status"},
			"properties": bson.M{
				"registration_id": bson.M{"bsonType": "objectId"},
				"participant_id":  bson.M{"bsonType": "objectId"},
				"status":          enumOf(models.AttendancePresent, models.AttendanceAbsent),
			},
		},
	}
}

func scoresSchema() bson.M {
	return bson.M{
		"$jsonSchema": bson.M{
			"bsonType": "object",
			"required": bson.A{"registration_id", "participant_id", "round", "score"},
			"properties": bson.M{
				"registration_id": bson.M{"bsonType": "objectId"},
				"participant_id":  bson.M{"bsonType": "objectId"},
				"round":           nonBlank,
				"score": bson.M{
					"bsonType": bson.A{"double", "int", "long"},
					"minimum":  models.MinScore,
					"maximum":  models.MaxScore,
				},
			},
		},
	}
}
