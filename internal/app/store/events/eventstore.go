package eventstore

import (
	"context"
	"regexp"
	"time"

	"github.com/dalemusser/festivo/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/text"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("events")}
}

// Create inserts a new active event. Packages without an ID get one, and
// MaxGroupSize defaults to 1.
func (s *Store) Create(ctx context.Context, e models.Event) (models.Event, error) {
	e.ID = primitive.NewObjectID()
	e.TitleCI = text.Fold(e.Title)
	if e.MaxGroupSize < 1 {
		e.MaxGroupSize = 1
	}
	if e.CommitteeMemberIDs == nil {
		e.CommitteeMemberIDs = []primitive.ObjectID{}
	}
	if e.Packages == nil {
		e.Packages = []models.Package{}
	}
	for i := range e.Packages {
		if e.Packages[i].ID.IsZero() {
			e.Packages[i].ID = primitive.NewObjectID()
		}
	}
	if e.Rules == nil {
		e.Rules = []string{}
	}
	e.IsActive = true
	now := time.Now().UTC()
	e.CreatedAt = now
	e.UpdatedAt = now

	if _, err := s.c.InsertOne(ctx, e); err != nil {
		return models.Event{}, err
	}
	return e, nil
}

// GetByID loads an event regardless of its active flag.
// Returns mongo.ErrNoDocuments if not found.
func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Event, error) {
	var e models.Event
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&e); err != nil {
		return nil, err
	}
	return &e, nil
}

// GetByTitle loads an active event by case-insensitive title.
func (s *Store) GetByTitle(ctx context.Context, title string) (*models.Event, error) {
	var e models.Event
	if err := s.c.FindOne(ctx, bson.M{"title_ci": text.Fold(title), "is_active": true}).Decode(&e); err != nil {
		return nil, err
	}
	return &e, nil
}

// ListFilter narrows event listings.
type ListFilter struct {
	IDs          []primitive.ObjectID // nil for any; empty matches nothing
	ActiveOnly   bool
	CommitteeIDs []primitive.ObjectID // owning committees; empty for any
	AssigneeID   *primitive.ObjectID  // only events whose roster holds this user
	Search       string               // substring of title, case-insensitive
}

// List returns events ordered by date ascending.
func (s *Store) List(ctx context.Context, f ListFilter) ([]models.Event, error) {
	filter := bson.M{}
	if f.IDs != nil {
		filter["_id"] = bson.M{"$in": f.IDs}
	}
	if f.ActiveOnly {
		filter["is_active"] = true
	}
	if len(f.CommitteeIDs) > 0 {
		filter["committee_id"] = bson.M{"$in": f.CommitteeIDs}
	}
	if f.AssigneeID != nil {
		filter["committee_member_ids"] = *f.AssigneeID
	}
	if f.Search != "" {
		filter["title_ci"] = bson.M{"$regex": regexp.QuoteMeta(text.Fold(f.Search))}
	}
	return s.find(ctx, filter, options.Find().SetSort(bson.D{{Key: "date_time", Value: 1}, {Key: "_id", Value: 1}}))
}

// GetByIDs loads the events whose IDs are in ids.
func (s *Store) GetByIDs(ctx context.Context, ids []primitive.ObjectID) ([]models.Event, error) {
	if len(ids) == 0 {
		return []models.Event{}, nil
	}
	return s.find(ctx, bson.M{"_id": bson.M{"$in": ids}}, options.Find())
}

// IDsMatchingTitle returns the IDs of events whose folded title contains q.
func (s *Store) IDsMatchingTitle(ctx context.Context, q string) ([]primitive.ObjectID, error) {
	rows, err := s.find(ctx,
		bson.M{"title_ci": bson.M{"$regex": regexp.QuoteMeta(text.Fold(q))}},
		options.Find().SetProjection(bson.M{"_id": 1}))
	if err != nil {
		return nil, err
	}
	ids := make([]primitive.ObjectID, len(rows))
	for i, e := range rows {
		ids[i] = e.ID
	}
	return ids, nil
}

// EventUpdate holds editable fields. Nil fields are left unchanged.
type EventUpdate struct {
	Title        *string
	Description  *string
	DateTime     *time.Time
	Venue        *string
	Fee          *float64
	Packages     *[]models.Package
	IsGroup      *bool
	MaxGroupSize *int
	Rules        *[]string
}

// Update applies upd to an event and returns the result.
// Returns mongo.ErrNoDocuments if the event does not exist.
func (s *Store) Update(ctx context.Context, id primitive.ObjectID, upd EventUpdate) (*models.Event, error) {
	set := bson.M{"updated_at": time.Now().UTC()}
	if upd.Title != nil {
		set["title"] = *upd.Title
		set["title_ci"] = text.Fold(*upd.Title)
	}
	if upd.Description != nil {
		set["description"] = *upd.Description
	}
	if upd.DateTime != nil {
		set["date_time"] = *upd.DateTime
	}
	if upd.Venue != nil {
		set["venue"] = *upd.Venue
	}
	if upd.Fee != nil {
		set["fee"] = *upd.Fee
	}
	if upd.Packages != nil {
		pkgs := *upd.Packages
		if pkgs == nil {
			pkgs = []models.Package{}
		}
		for i := range pkgs {
			if pkgs[i].ID.IsZero() {
				pkgs[i].ID = primitive.NewObjectID()
			}
		}
		set["packages"] = pkgs
	}
	if upd.IsGroup != nil {
		set["is_group"] = *upd.IsGroup
	}
	if upd.MaxGroupSize != nil {
		set["max_group_size"] = *upd.MaxGroupSize
	}
	if upd.Rules != nil {
		rules := *upd.Rules
		if rules == nil {
			rules = []string{}
		}
		set["rules"] = rules
	}

	var e models.Event
	err := s.c.FindOneAndUpdate(ctx, bson.M{"_id": id}, bson.M{"$set": set},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&e)
	if err != nil {
		return nil, err
	}
	return &e, nil
}

// SoftDelete marks an event inactive.
func (s *Store) SoftDelete(ctx context.Context, id primitive.ObjectID) error {
	res, err := s.c.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M{
		"is_active":  false,
		"updated_at": time.Now().UTC(),
	}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}

// SetAssignees replaces the event's assignee roster.
func (s *Store) SetAssignees(ctx context.Context, id primitive.ObjectID, userIDs []primitive.ObjectID) (*models.Event, error) {
	if userIDs == nil {
		userIDs = []primitive.ObjectID{}
	}
	var e models.Event
	err := s.c.FindOneAndUpdate(ctx, bson.M{"_id": id},
		bson.M{"$set": bson.M{"committee_member_ids": userIDs, "updated_at": time.Now().UTC()}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&e)
	if err != nil {
		return nil, err
	}
	return &e, nil
}

// AddAssignee adds userID to the event's roster.
func (s *Store) AddAssignee(ctx context.Context, id, userID primitive.ObjectID) error {
	_, err := s.c.UpdateOne(ctx, bson.M{"_id": id}, bson.M{
		"$addToSet": bson.M{"committee_member_ids": userID},
		"$set":      bson.M{"updated_at": time.Now().UTC()},
	})
	return err
}

// ListAssignedTo returns the IDs of every event whose roster holds userID.
func (s *Store) ListAssignedTo(ctx context.Context, userID primitive.ObjectID) ([]primitive.ObjectID, error) {
	rows, err := s.find(ctx, bson.M{"committee_member_ids": userID}, options.Find().SetProjection(bson.M{"_id": 1}))
	if err != nil {
		return nil, err
	}
	ids := make([]primitive.ObjectID, len(rows))
	for i, e := range rows {
		ids[i] = e.ID
	}
	return ids, nil
}

// PullAssigneeEverywhere removes userID from every event roster and
// returns the number of events modified.
func (s *Store) PullAssigneeEverywhere(ctx context.Context, userID primitive.ObjectID) (int64, error) {
	res, err := s.c.UpdateMany(ctx,
		bson.M{"committee_member_ids": userID},
		bson.M{
			"$pull": bson.M{"committee_member_ids": userID},
			"$set":  bson.M{"updated_at": time.Now().UTC()},
		},
	)
	if err != nil {
		return 0, err
	}
	return res.ModifiedCount, nil
}

// CountActive returns the number of active events.
func (s *Store) CountActive(ctx context.Context) (int64, error) {
	return s.c.CountDocuments(ctx, bson.M{"is_active": true})
}

func (s *Store) find(ctx context.Context, filter bson.M, opts *options.FindOptions) ([]models.Event, error) {
	cur, err := s.c.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	out := []models.Event{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}
