package scorestore

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
	return &Store{c: db.Collection("scores")}
}

// Upsert writes the single current score for (registration, participant, round).
func (s *Store) Upsert(ctx context.Context, sc models.Score) (rec models.Score, created bool, err error) {
	if sc.Round == "" {
		sc.Round = models.DefaultRound
	}
	now := time.Now().UTC()
	filter := bson.M{
		"registration_id": sc.RegistrationID,
		"participant_id":  sc.ParticipantID,
		"round":           sc.Round,
	}
	update := bson.M{
		"$set": bson.M{
			"score":      sc.Score,
			"judge_id":   sc.JudgeID,
			"comments":   sc.Comments,
			"updated_at": now,
		},
		"$setOnInsert": bson.M{"created_at": now},
	}
	res, err := s.c.UpdateOne(ctx, filter, update, options.Update().SetUpsert(true))
	if err != nil {
		return models.Score{}, false, err
	}
	if err := s.c.FindOne(ctx, filter).Decode(&rec); err != nil {
		return models.Score{}, false, err
	}
	return rec, res.UpsertedCount > 0, nil
}

// ListByRegistrations returns every score of the given registrations.
func (s *Store) ListByRegistrations(ctx context.Context, ids []primitive.ObjectID) ([]models.Score, error) {
	if len(ids) == 0 {
		return []models.Score{}, nil
	}
	cur, err := s.c.Find(ctx, bson.M{"registration_id": bson.M{"$in": ids}},
		options.Find().SetSort(bson.D{{Key: "registration_id", Value: 1}, {Key: "round", Value: 1}}))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	out := []models.Score{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Count returns the total number of score records.
func (s *Store) Count(ctx context.Context) (int64, error) {
	return s.c.CountDocuments(ctx, bson.M{})
}
