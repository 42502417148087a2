package registrationstore

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/dalemusser/festivo/internal/domain/models"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Unique index names; Create inspects duplicate-key errors for them.
const (
	IndexQRCode      = "uniq_registrations_qr"
	IndexEventLeader = "uniq_registrations_event_leader"
)

var (
	// ErrDuplicateQRCode is returned when the generated token collides.
	ErrDuplicateQRCode = errors.New("registration token already in use")
	// ErrAlreadyRegistered is returned when the leader already has a registration for the event.
	ErrAlreadyRegistered = errors.New("already registered for this event")
)

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("registrations")}
}

// Create inserts r with pending payment and fresh timestamps.
func (s *Store) Create(ctx context.Context, r models.Registration) (models.Registration, error) {
	r.ID = primitive.NewObjectID()
	if r.GroupMembers == nil {
		r.GroupMembers = []primitive.ObjectID{}
	}
	if r.PaymentStatus == "" {
		r.PaymentStatus = models.PaymentPending
	}
	now := time.Now().UTC()
	r.CreatedAt = now
	r.UpdatedAt = now

	if _, err := s.c.InsertOne(ctx, r); err != nil {
		if wafflemongo.IsDup(err) {
			switch {
			case strings.Contains(err.Error(), IndexQRCode):
				return models.Registration{}, ErrDuplicateQRCode
			case strings.Contains(err.Error(), IndexEventLeader):
				return models.Registration{}, ErrAlreadyRegistered
			}
		}
		return models.Registration{}, err
	}
	return r, nil
}

// GetByID loads a registration. Returns mongo.ErrNoDocuments if not found.
func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Registration, error) {
	var r models.Registration
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&r); err != nil {
		return nil, err
	}
	return &r, nil
}

// GetByQRCode loads the registration carrying token (exact match).
func (s *Store) GetByQRCode(ctx context.Context, token string) (*models.Registration, error) {
	var r models.Registration
	if err := s.c.FindOne(ctx, bson.M{"qr_code": token}).Decode(&r); err != nil {
		return nil, err
	}
	return &r, nil
}

// ExistsForLeader reports whether leaderID already registered for eventID.
func (s *Store) ExistsForLeader(ctx context.Context, eventID, leaderID primitive.ObjectID) (bool, error) {
	n, err := s.c.CountDocuments(ctx, bson.M{"event_id": eventID, "leader_id": leaderID}, options.Count().SetLimit(1))
	return n > 0, err
}

// ListByParticipant returns registrations where userID is leader or group
// member, newest first.
func (s *Store) ListByParticipant(ctx context.Context, userID primitive.ObjectID) ([]models.Registration, error) {
	return s.find(ctx, bson.M{"$or": []bson.M{
		{"leader_id": userID},
		{"group_members": userID},
	}}, newestFirst())
}

// ListByEvents returns the registrations of the given events, newest first.
func (s *Store) ListByEvents(ctx context.Context, eventIDs []primitive.ObjectID) ([]models.Registration, error) {
	if len(eventIDs) == 0 {
		return []models.Registration{}, nil
	}
	return s.find(ctx, bson.M{"event_id": bson.M{"$in": eventIDs}}, newestFirst())
}

// Recent returns the limit most recent registrations, optionally limited to eventIDs.
func (s *Store) Recent(ctx context.Context, eventIDs []primitive.ObjectID, limit int64) ([]models.Registration, error) {
	filter := bson.M{}
	if eventIDs != nil {
		if len(eventIDs) == 0 {
			return []models.Registration{}, nil
		}
		filter["event_id"] = bson.M{"$in": eventIDs}
	}
	return s.find(ctx, filter, newestFirst().SetLimit(limit))
}

// SearchFilter narrows the admin registration search. Set criteria are
// ANDed. When TextQuery is set, the registration must match one of
// TextLeaders or TextEvents; with both empty nothing matches.
type SearchFilter struct {
	EventID       *primitive.ObjectID
	EventScope    []primitive.ObjectID // nil for every event
	PaymentStatus string
	TextQuery     bool
	TextLeaders   []primitive.ObjectID
	TextEvents    []primitive.ObjectID
	Limit         int64
}

// Search returns registrations matching f, newest first.
func (s *Store) Search(ctx context.Context, f SearchFilter) ([]models.Registration, error) {
	filter := bson.M{}
	switch {
	case f.EventID != nil && f.EventScope != nil:
		if !containsID(f.EventScope, *f.EventID) {
			return []models.Registration{}, nil
		}
		filter["event_id"] = *f.EventID
	case f.EventID != nil:
		filter["event_id"] = *f.EventID
	case f.EventScope != nil:
		filter["event_id"] = bson.M{"$in": f.EventScope}
	}
	if f.PaymentStatus != "" {
		filter["payment_status"] = f.PaymentStatus
	}
	if f.TextQuery {
		var or []bson.M
		if len(f.TextLeaders) > 0 {
			or = append(or, bson.M{"leader_id": bson.M{"$in": f.TextLeaders}})
		}
		if len(f.TextEvents) > 0 {
			or = append(or, bson.M{"event_id": bson.M{"$in": f.TextEvents}})
		}
		if len(or) == 0 {
			return []models.Registration{}, nil
		}
		filter["$or"] = or
	}
	opts := newestFirst()
	if f.Limit > 0 {
		opts.SetLimit(f.Limit)
	}
	return s.find(ctx, filter, opts)
}

// SetPaymentStatus updates the payment status and returns the result.
func (s *Store) SetPaymentStatus(ctx context.Context, id primitive.ObjectID, status string) (*models.Registration, error) {
	var r models.Registration
	err := s.c.FindOneAndUpdate(ctx, bson.M{"_id": id},
		bson.M{"$set": bson.M{"payment_status": status, "updated_at": time.Now().UTC()}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&r)
	if err != nil {
		return nil, err
	}
	return &r, nil
}

// Count returns the total number of registrations.
func (s *Store) Count(ctx context.Context) (int64, error) {
	return s.c.CountDocuments(ctx, bson.M{})
}

// CountByEvent returns registration counts keyed by event ID.
func (s *Store) CountByEvent(ctx context.Context, eventIDs []primitive.ObjectID) (map[primitive.ObjectID]int64, error) {
	match := bson.M{}
	if eventIDs != nil {
		match["event_id"] = bson.M{"$in": eventIDs}
	}
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: match}},
		{{Key: "$group", Value: bson.M{"_id": "$event_id", "count": bson.M{"$sum": 1}}}},
	}
	cur, err := s.c.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	out := make(map[primitive.ObjectID]int64)
	for cur.Next(ctx) {
		var row struct {
			EventID primitive.ObjectID `bson:"_id"`
			Count   int64              `bson:"count"`
		}
		if err := cur.Decode(&row); err != nil {
			return nil, err
		}
		out[row.EventID] = row.Count
	}
	return out, cur.Err()
}

func newestFirst() *options.FindOptions {
	return options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}})
}

func (s *Store) find(ctx context.Context, filter bson.M, opts *options.FindOptions) ([]models.Registration, error) {
	cur, err := s.c.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	out := []models.Registration{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func containsID(ids []primitive.ObjectID, id primitive.ObjectID) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}
