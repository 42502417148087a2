// internal/app/system/indexes/indexes.go
package indexes

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

/*
EnsureAll is called at startup (and by the test database helper). Each
ensure* function is idempotent. Errors are aggregated so every problem is
visible and startup can fail fast.
*/
func EnsureAll(ctx context.Context, db *mongo.Database) error {
	var problems []string

	sets := []struct {
		coll   string
		ensure func(context.Context, *mongo.Database) error
	}{
		{"users", ensureUsers},
		{"committees", ensureCommittees},
		{"events", ensureEvents},
		{"registrations", ensureRegistrations},
		{"attendance", ensureAttendance},
		{"scores", ensureScores},
	}
	for _, s := range sets {
		if err := s.ensure(ctx, db); err != nil {
			problems = append(problems, s.coll+": "+err.Error())
		}
	}

	if len(problems) > 0 {
		return errors.New(strings.Join(problems, "; "))
	}
	return nil
}

/* -------------------------------------------------------------------------- */
/* Reconcile a set of desired indexes for one collection                      */
/* -------------------------------------------------------------------------- */

type existingIndex struct {
	Name   string `bson:"name"`
	Key    bson.D `bson:"key"`
	Unique *bool  `bson:"unique,omitempty"`
}

func keySig(keys bson.D) string {
	parts := make([]string, 0, len(keys))
	for _, kv := range keys {
		parts = append(parts, fmt.Sprintf("%s:%v", kv.Key, kv.Value))
	}
	return strings.Join(parts, ", ")
}

func boolVal(b *bool) bool {
	return b != nil && *b
}

// Mongo/DocDB return IndexOptionsConflict when an index with the same keys
// exists under a different name or with different options.
func isOptionsConflictErr(err error) bool {
	return err != nil && strings.Contains(err.Error(), "IndexOptionsConflict")
}

func listExisting(ctx context.Context, coll *mongo.Collection) map[string]existingIndex {
	out := map[string]existingIndex{}
	cur, err := coll.Indexes().List(ctx)
	if err != nil {
		return out
	}
	defer cur.Close(ctx)
	for cur.Next(ctx) {
		var idx existingIndex
		if err := cur.Decode(&idx); err != nil {
			zap.L().Warn("failed to decode existing index",
				zap.String("collection", coll.Name()),
				zap.Error(err))
			continue
		}
		out[keySig(idx.Key)] = idx
	}
	return out
}

// recreate drops name and creates m in its place.
func recreate(ctx context.Context, coll *mongo.Collection, name string, m mongo.IndexModel) error {
	if _, err := coll.Indexes().DropOne(ctx, name); err != nil {
		return fmt.Errorf("drop %s: %w", name, err)
	}
	if _, err := coll.Indexes().CreateOne(ctx, m); err != nil {
		return err
	}
	return nil
}

func describeCreateErr(coll *mongo.Collection, name string, unique bool, err error) string {
	if unique && wafflemongo.IsDup(err) {
		return fmt.Sprintf("%s(%s): cannot create unique index (duplicates present)", coll.Name(), name)
	}
	return fmt.Sprintf("%s(%s): %v", coll.Name(), name, err)
}

func ensureIndexSet(ctx context.Context, coll *mongo.Collection, models []mongo.IndexModel) error {
	var errs []string

	for _, m := range models {
		var name string
		var unique *bool
		if m.Options != nil {
			if m.Options.Name != nil {
				name = *m.Options.Name
			}
			unique = m.Options.Unique
		}
		sig := keySig(m.Keys.(bson.D))
		start := time.Now()
		log := zap.L().With(
			zap.String("collection", coll.Name()),
			zap.String("name", name),
			zap.String("keys", sig),
			zap.Bool("unique", boolVal(unique)))

		existing := listExisting(ctx, coll)

		if ex, ok := existing[sig]; ok {
			switch {
			case boolVal(unique) != boolVal(ex.Unique):
				// Options changed (e.g. upgrading to unique).
				if err := recreate(ctx, coll, ex.Name, m); err != nil {
					errs = append(errs, describeCreateErr(coll, name, boolVal(unique), err))
					continue
				}
				log.Info("index dropped and recreated", zap.Duration("took", time.Since(start)))
			case name != "" && ex.Name != name:
				if err := recreate(ctx, coll, ex.Name, m); err != nil {
					errs = append(errs, describeCreateErr(coll, name, boolVal(unique), err))
					continue
				}
				log.Info("index renamed", zap.String("from", ex.Name), zap.Duration("took", time.Since(start)))
			default:
				log.Debug("reusing existing index")
			}
			continue
		}

		if _, err := coll.Indexes().CreateOne(ctx, m); err != nil {
			if isOptionsConflictErr(err) {
				// Another index with these keys appeared between list and create.
				if ex, ok := listExisting(ctx, coll)[sig]; ok && boolVal(ex.Unique) == boolVal(unique) {
					log.Info("reusing existing index (post-conflict)", zap.String("existing", ex.Name))
					continue
				}
			}
			log.Warn("index ensure failed", zap.Error(err))
			errs = append(errs, describeCreateErr(coll, name, boolVal(unique), err))
			continue
		}
		log.Info("index ensured", zap.Duration("took", time.Since(start)))
	}

	if len(errs) > 0 {
		return errors.New(strings.Join(errs, "; "))
	}
	return nil
}

/* -------------------------------------------------------------------------- */
/* Collection-specific index sets                                              */
/* -------------------------------------------------------------------------- */

func ensureUsers(ctx context.Context, db *mongo.Database) error {
	return ensureIndexSet(ctx, db.Collection("users"), []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "email", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("uniq_users_email"),
		},
		// Admin user list: filter by role, keyset on name_ci.
		{
			Keys:    bson.D{{Key: "role", Value: 1}, {Key: "name_ci", Value: 1}, {Key: "_id", Value: 1}},
			Options: options.Index().SetName("idx_users_role"),
		},
		{
			Keys:    bson.D{{Key: "committee_id", Value: 1}},
			Options: options.Index().SetName("idx_users_committee"),
		},
	})
}

func ensureCommittees(ctx context.Context, db *mongo.Database) error {
	return ensureIndexSet(ctx, db.Collection("committees"), []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "is_active", Value: 1}, {Key: "name", Value: 1}},
			Options: options.Index().SetName("idx_committees_active_name"),
		},
		{
			Keys:    bson.D{{Key: "coordinator_ids", Value: 1}},
			Options: options.Index().SetName("idx_committees_coordinators"),
		},
		{
			Keys:    bson.D{{Key: "member_ids", Value: 1}},
			Options: options.Index().SetName("idx_committees_members"),
		},
	})
}

func ensureEvents(ctx context.Context, db *mongo.Database) error {
	return ensureIndexSet(ctx, db.Collection("events"), []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "is_active", Value: 1}, {Key: "date_time", Value: 1}},
			Options: options.Index().SetName("idx_events_active_datetime"),
		},
		{
			Keys:    bson.D{{Key: "committee_id", Value: 1}},
			Options: options.Index().SetName("idx_events_committee"),
		},
		{
			Keys:    bson.D{{Key: "committee_member_ids", Value: 1}},
			Options: options.Index().SetName("idx_events_assignees"),
		},
	})
}

func ensureRegistrations(ctx context.Context, db *mongo.Database) error {
	return ensureIndexSet(ctx, db.Collection("registrations"), []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "qr_code", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("uniq_registrations_qr"),
		},
		{
			Keys:    bson.D{{Key: "event_id", Value: 1}, {Key: "leader_id", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("uniq_registrations_event_leader"),
		},
		{
			Keys:    bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}},
			Options: options.Index().SetName("idx_registrations_created"),
		},
		{
			Keys:    bson.D{{Key: "group_members", Value: 1}},
			Options: options.Index().SetName("idx_registrations_group_members"),
		},
	})
}

func ensureAttendance(ctx context.Context, db *mongo.Database) error {
	return ensureIndexSet(ctx, db.Collection("attendance"), []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "registration_id", Value: 1}, {Key: "participant_id", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("uniq_attendance_reg_participant"),
		},
	})
}

func ensureScores(ctx context.Context, db *mongo.Database) error {
	return ensureIndexSet(ctx, db.Collection("scores"), []mongo.IndexModel{
		{
			Keys: bson.D{
				{Key: "registration_id", Value: 1},
				{Key: "participant_id", Value: 1},
				{Key: "round", Value: 1},
			},
			Options: options.Index().SetUnique(true).SetName("uniq_scores_reg_participant_round"),
		},
	})
}
