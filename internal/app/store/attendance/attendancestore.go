package attendancestore

import (
	"context"
	"time"

	"github.com/dalemusser/festivo/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("attendance")}
}

// Upsert writes the single current record for (a.RegistrationID,
// a.ParticipantID). created reports whether a new record was inserted.
func (s *Store) Upsert(ctx context.Context, a models.Attendance) (rec models.Attendance, created bool, err error) {
	now := time.Now().UTC()
	if a.VerifiedAt.IsZero() {
		a.VerifiedAt = now
	}
	filter := bson.M{"registration_id": a.RegistrationID, "participant_id": a.ParticipantID}
	update := bson.M{
		"$set": bson.M{
			"status":      a.Status,
			"verified_by": a.VerifiedBy,
			"verified_at": a.VerifiedAt,
			"notes":       a.Notes,
			"updated_at":  now,
		},
		"$setOnInsert": bson.M{"created_at": now},
	}
	res, err := s.c.UpdateOne(ctx, filter, update, options.Update().SetUpsert(true))
	if err != nil {
		return models.Attendance{}, false, err
	}
	if err := s.c.FindOne(ctx, filter).Decode(&rec); err != nil {
		return models.Attendance{}, false, err
	}
	return rec, res.UpsertedCount > 0, nil
}

// ListByRegistration returns attendance for a registration, most recently verified first.
func (s *Store) ListByRegistration(ctx context.Context, registrationID primitive.ObjectID) ([]models.Attendance, error) {
	return s.find(ctx, bson.M{"registration_id": registrationID})
}

// ListByRegistrations returns attendance for any of the given registrations.
func (s *Store) ListByRegistrations(ctx context.Context, ids []primitive.ObjectID) ([]models.Attendance, error) {
	if len(ids) == 0 {
		return []models.Attendance{}, nil
	}
	return s.find(ctx, bson.M{"registration_id": bson.M{"$in": ids}})
}

// CountByStatus returns record counts keyed by status.
func (s *Store) CountByStatus(ctx context.Context) (map[string]int64, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$group", Value: bson.M{"_id": "$status", "count": bson.M{"$sum": 1}}}},
	}
	cur, err := s.c.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	out := map[string]int64{}
	for cur.Next(ctx) {
		var row struct {
			Status string `bson:"_id"`
			Count  int64  `bson:"count"`
		}
		if err := cur.Decode(&row); err != nil {
			return nil, err
		}
		out[row.Status] = row.Count
	}
	return out, cur.Err()
}

func (s *Store) find(ctx context.Context, filter bson.M) ([]models.Attendance, error) {
	opts := options.Find().SetSort(bson.D{{Key: "verified_at", Value: -1}, {Key: "_id", Value: -1}})
	cur, err := s.c.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	out := []models.Attendance{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}
