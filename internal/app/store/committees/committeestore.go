package committeestore

import (
	"context"
	"errors"
	"time"

	"github.com/dalemusser/festivo/internal/app/system/normalize"
	"github.com/dalemusser/festivo/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/text"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ErrBadSetField is returned when a set operation names a field other than
// the coordinator, member or assigned-event lists.
var ErrBadSetField = errors.New("unknown committee set field")

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("committees")}
}

func validSetField(field string) bool {
	switch field {
	case models.CommitteeCoordinators, models.CommitteeMembers, models.CommitteeEvents:
		return true
	}
	return false
}

// Create inserts a new active committee with empty lists.
func (s *Store) Create(ctx context.Context, c models.Committee) (models.Committee, error) {
	c.ID = primitive.NewObjectID()
	c.Name = normalize.Name(c.Name)
	c.NameCI = text.Fold(c.Name)
	if c.CoordinatorIDs == nil {
		c.CoordinatorIDs = []primitive.ObjectID{}
	}
	if c.MemberIDs == nil {
		c.MemberIDs = []primitive.ObjectID{}
	}
	if c.AssignedEventIDs == nil {
		c.AssignedEventIDs = []primitive.ObjectID{}
	}
	c.IsActive = true
	now := time.Now().UTC()
	c.CreatedAt = now
	c.UpdatedAt = now

	if _, err := s.c.InsertOne(ctx, c); err != nil {
		return models.Committee{}, err
	}
	return c, nil
}

// GetByID loads a committee regardless of its active flag.
// Returns mongo.ErrNoDocuments if not found.
func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Committee, error) {
	var c models.Committee
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&c); err != nil {
		return nil, err
	}
	return &c, nil
}

// GetActiveByName finds an active committee by case-insensitive name.
func (s *Store) GetActiveByName(ctx context.Context, name string) (*models.Committee, error) {
	var c models.Committee
	if err := s.c.FindOne(ctx, bson.M{"name_ci": text.Fold(normalize.Name(name)), "is_active": true}).Decode(&c); err != nil {
		return nil, err
	}
	return &c, nil
}

// ListActive returns every active committee ordered by name.
func (s *Store) ListActive(ctx context.Context) ([]models.Committee, error) {
	return s.find(ctx, bson.M{"is_active": true})
}

// ListCoordinatedBy returns the active committees whose coordinator list holds userID.
func (s *Store) ListCoordinatedBy(ctx context.Context, userID primitive.ObjectID) ([]models.Committee, error) {
	return s.find(ctx, bson.M{"is_active": true, models.CommitteeCoordinators: userID})
}

// ListWithMember returns the active committees whose member list holds userID.
func (s *Store) ListWithMember(ctx context.Context, userID primitive.ObjectID) ([]models.Committee, error) {
	return s.find(ctx, bson.M{"is_active": true, models.CommitteeMembers: userID})
}

// ListContaining returns every committee, active or not, that lists userID
// as coordinator or member.
func (s *Store) ListContaining(ctx context.Context, userID primitive.ObjectID) ([]models.Committee, error) {
	return s.find(ctx, bson.M{"$or": []bson.M{
		{models.CommitteeCoordinators: userID},
		{models.CommitteeMembers: userID},
	}})
}

// GetByIDs loads the committees whose IDs are in ids, active or not.
func (s *Store) GetByIDs(ctx context.Context, ids []primitive.ObjectID) ([]models.Committee, error) {
	if len(ids) == 0 {
		return []models.Committee{}, nil
	}
	return s.find(ctx, bson.M{"_id": bson.M{"$in": ids}})
}

// ListAll returns every committee including inactive ones.
func (s *Store) ListAll(ctx context.Context) ([]models.Committee, error) {
	return s.find(ctx, bson.M{})
}

// CommitteeUpdate holds editable fields. Nil fields are left unchanged.
type CommitteeUpdate struct {
	Name        *string
	Description *string
}

// Update applies upd to an active committee.
// Returns mongo.ErrNoDocuments if no active committee matches.
func (s *Store) Update(ctx context.Context, id primitive.ObjectID, upd CommitteeUpdate) (*models.Committee, error) {
	set := bson.M{"updated_at": time.Now().UTC()}
	if upd.Name != nil {
		name := normalize.Name(*upd.Name)
		set["name"] = name
		set["name_ci"] = text.Fold(name)
	}
	if upd.Description != nil {
		set["description"] = *upd.Description
	}

	var c models.Committee
	err := s.c.FindOneAndUpdate(ctx,
		bson.M{"_id": id, "is_active": true},
		bson.M{"$set": set},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&c)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// SoftDelete marks a committee inactive.
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

// AddToSet adds value to one of the committee's set fields. It reports
// whether the document changed, so callers can skip compensating a no-op.
// Returns mongo.ErrNoDocuments if the committee does not exist.
func (s *Store) AddToSet(ctx context.Context, id primitive.ObjectID, field string, value primitive.ObjectID) (bool, error) {
	if !validSetField(field) {
		return false, ErrBadSetField
	}
	var before models.Committee
	err := s.c.FindOneAndUpdate(ctx, bson.M{"_id": id}, bson.M{
		"$addToSet": bson.M{field: value},
		"$set":      bson.M{"updated_at": time.Now().UTC()},
	}, options.FindOneAndUpdate().
		SetReturnDocument(options.Before).
		SetProjection(bson.M{field: 1}),
	).Decode(&before)
	if err != nil {
		return false, err
	}
	return !setContains(before, field, value), nil
}

// Pull removes value from one of the committee's set fields and reports
// whether it was present.
// Returns mongo.ErrNoDocuments if the committee does not exist.
func (s *Store) Pull(ctx context.Context, id primitive.ObjectID, field string, value primitive.ObjectID) (bool, error) {
	if !validSetField(field) {
		return false, ErrBadSetField
	}
	var before models.Committee
	err := s.c.FindOneAndUpdate(ctx, bson.M{"_id": id}, bson.M{
		"$pull": bson.M{field: value},
		"$set":  bson.M{"updated_at": time.Now().UTC()},
	}, options.FindOneAndUpdate().
		SetReturnDocument(options.Before).
		SetProjection(bson.M{field: 1}),
	).Decode(&before)
	if err != nil {
		return false, err
	}
	return setContains(before, field, value), nil
}

// PullUserEverywhere removes userID from every committee's coordinator and
// member lists and returns the number of committees modified.
func (s *Store) PullUserEverywhere(ctx context.Context, userID primitive.ObjectID) (int64, error) {
	res, err := s.c.UpdateMany(ctx,
		bson.M{"$or": []bson.M{
			{models.CommitteeCoordinators: userID},
			{models.CommitteeMembers: userID},
		}},
		bson.M{
			"$pull": bson.M{
				models.CommitteeCoordinators: userID,
				models.CommitteeMembers:      userID,
			},
			"$set": bson.M{"updated_at": time.Now().UTC()},
		},
	)
	if err != nil {
		return 0, err
	}
	return res.ModifiedCount, nil
}

// CountActive returns the number of active committees.
func (s *Store) CountActive(ctx context.Context) (int64, error) {
	return s.c.CountDocuments(ctx, bson.M{"is_active": true})
}

func (s *Store) find(ctx context.Context, filter bson.M) ([]models.Committee, error) {
	cur, err := s.c.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "name_ci", Value: 1}, {Key: "_id", Value: 1}}))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	out := []models.Committee{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func setContains(c models.Committee, field string, value primitive.ObjectID) bool {
	switch field {
	case models.CommitteeCoordinators:
		return c.HasCoordinator(value)
	case models.CommitteeMembers:
		return c.HasMember(value)
	case models.CommitteeEvents:
		for _, id := range c.AssignedEventIDs {
			if id == value {
				return true
			}
		}
	}
	return false
}
