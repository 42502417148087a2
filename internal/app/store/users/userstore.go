package userstore

import (
	"context"
	"errors"
	"time"

	"github.com/dalemusser/festivo/internal/app/system/normalize"
	"github.com/dalemusser/festivo/internal/app/system/paging"
	"github.com/dalemusser/festivo/internal/app/system/search"
	"github.com/dalemusser/festivo/internal/domain/models"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
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
	return &Store{c: db.Collection("users")}
}

var (
	// ErrDuplicateEmail is returned when attempting to create a user with an email that already exists.
	ErrDuplicateEmail = errors.New("a user with this email already exists")
	errBadRole        = errors.New(`role must be "student"|"member"|"coordinator"|"admin"`)
)

// GetByID loads a user by ObjectID. Returns mongo.ErrNoDocuments if not found.
func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	var u models.User
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&u); err != nil {
		return nil, err
	}
	return &u, nil
}

// GetByEmail looks up a user by case-insensitive email. Returns mongo.ErrNoDocuments if not found.
func (s *Store) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	var u models.User
	if err := s.c.FindOne(ctx, bson.M{"email": normalize.Email(email)}).Decode(&u); err != nil {
		return nil, err
	}
	return &u, nil
}

// Create inserts a new user after normalizing fields. Role defaults to
// student; set fields are initialized empty so later $addToSet works.
func (s *Store) Create(ctx context.Context, u models.User) (models.User, error) {
	u.ID = primitive.NewObjectID()
	u.Name = normalize.Name(u.Name)
	u.NameCI = text.Fold(u.Name)
	u.Email = normalize.Email(u.Email)
	if u.Role == "" {
		u.Role = models.RoleStudent
	}
	u.Role = normalize.Role(u.Role)
	if !models.IsValidRole(u.Role) {
		return models.User{}, errBadRole
	}
	if u.AuthMethod == "" {
		u.AuthMethod = models.AuthMethodPassword
	}
	if u.CoordinatedCommitteeIDs == nil {
		u.CoordinatedCommitteeIDs = []primitive.ObjectID{}
	}
	now := time.Now().UTC()
	u.CreatedAt = now
	u.UpdatedAt = now

	if _, err := s.c.InsertOne(ctx, u); err != nil {
		if wafflemongo.IsDup(err) {
			return models.User{}, ErrDuplicateEmail
		}
		return models.User{}, err
	}
	return u, nil
}

// Insert writes u verbatim, keeping its ID and timestamps. Used to restore
// a deleted identity.
func (s *Store) Insert(ctx context.Context, u models.User) error {
	if u.CoordinatedCommitteeIDs == nil {
		u.CoordinatedCommitteeIDs = []primitive.ObjectID{}
	}
	_, err := s.c.InsertOne(ctx, u)
	if wafflemongo.IsDup(err) {
		return ErrDuplicateEmail
	}
	return err
}

// SetRoleState overwrites role, primary committee and coordinated set in
// one update. A nil committeeID unsets the primary link.
// Returns mongo.ErrNoDocuments if the user does not exist.
func (s *Store) SetRoleState(ctx context.Context, id primitive.ObjectID, role string, committeeID *primitive.ObjectID, coordinated []primitive.ObjectID) error {
	if coordinated == nil {
		coordinated = []primitive.ObjectID{}
	}
	set := bson.M{
		"role":                      role,
		"coordinated_committee_ids": coordinated,
		"updated_at":                time.Now().UTC(),
	}
	upd := bson.M{"$set": set}
	if committeeID != nil {
		set["committee_id"] = *committeeID
	} else {
		upd["$unset"] = bson.M{"committee_id": ""}
	}

	res, err := s.c.UpdateOne(ctx, bson.M{"_id": id}, upd)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}

// ProfileUpdate holds the admin-editable profile fields. Nil fields are left unchanged.
type ProfileUpdate struct {
	Name      *string
	Email     *string
	CollegeID *string
	Year      *string
}

// UpdateProfile applies upd. Returns ErrDuplicateEmail when the new email
// belongs to someone else and mongo.ErrNoDocuments when id is unknown.
func (s *Store) UpdateProfile(ctx context.Context, id primitive.ObjectID, upd ProfileUpdate) error {
	set := bson.M{"updated_at": time.Now().UTC()}
	if upd.Name != nil {
		name := normalize.Name(*upd.Name)
		set["name"] = name
		set["name_ci"] = text.Fold(name)
	}
	if upd.Email != nil {
		set["email"] = normalize.Email(*upd.Email)
	}
	if upd.CollegeID != nil {
		set["college_id"] = *upd.CollegeID
	}
	if upd.Year != nil {
		set["year"] = *upd.Year
	}

	res, err := s.c.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": set})
	if err != nil {
		if wafflemongo.IsDup(err) {
			return ErrDuplicateEmail
		}
		return err
	}
	if res.MatchedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}

// SetBlocked toggles the blocked flag.
func (s *Store) SetBlocked(ctx context.Context, id primitive.ObjectID, blocked bool) error {
	res, err := s.c.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M{
		"is_blocked": blocked,
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

// Delete hard-deletes a user and returns the number of documents removed.
func (s *Store) Delete(ctx context.Context, id primitive.ObjectID) (int64, error) {
	res, err := s.c.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

// EmailExistsForOther reports whether email is used by a user other than excludeID.
func (s *Store) EmailExistsForOther(ctx context.Context, email string, excludeID primitive.ObjectID) (bool, error) {
	n, err := s.c.CountDocuments(ctx, bson.M{
		"email": normalize.Email(email),
		"_id":   bson.M{"$ne": excludeID},
	}, options.Count().SetLimit(1))
	return n > 0, err
}

// ListFilter selects users for admin listings.
type ListFilter struct {
	Role   string // exact role, empty for all
	Search string // case/diacritic-insensitive prefix on name, or email substring
	After  string // keyset cursor (next page)
	Before string // keyset cursor (previous page)
}

// Page is one keyset page of users ordered by name.
type Page struct {
	Users      []models.User
	HasPrev    bool
	HasNext    bool
	PrevCursor string
	NextCursor string
}

// List returns one page of users ordered by name_ci.
func (s *Store) List(ctx context.Context, f ListFilter) (Page, error) {
	filter := bson.M{}
	if f.Role != "" {
		filter["role"] = normalize.Role(f.Role)
	}
	searchOr := search.NameOrEmail("name_ci", "email", f.Search)
	if searchOr != nil {
		filter["$or"] = searchOr
	}

	const sortField = "name_ci"
	find := options.Find()
	cfg := paging.ConfigureKeyset(f.Before, f.After)
	cfg.ApplyToFind(find, sortField)
	if ks := cfg.KeysetWindow(sortField); ks != nil {
		if searchOr != nil {
			delete(filter, "$or")
			filter["$and"] = []bson.M{{"$or": searchOr}, ks}
		} else {
			for k, v := range ks {
				filter[k] = v
			}
		}
	}

	rows, err := s.find(ctx, filter, find)
	if err != nil {
		return Page{}, err
	}
	if cfg.Direction == paging.Backward {
		paging.Reverse(rows)
	}
	res := paging.TrimPage(&rows, f.Before, f.After)
	prev, next := paging.BuildCursors(rows,
		func(u models.User) string { return u.NameCI },
		func(u models.User) primitive.ObjectID { return u.ID })

	return Page{
		Users:      rows,
		HasPrev:    res.HasPrev,
		HasNext:    res.HasNext,
		PrevCursor: prev,
		NextCursor: next,
	}, nil
}

// IDsMatching returns the IDs of users whose name or email matches q the
// way List's Search does.
func (s *Store) IDsMatching(ctx context.Context, q string) ([]primitive.ObjectID, error) {
	or := search.NameOrEmail("name_ci", "email", q)
	if or == nil {
		return []primitive.ObjectID{}, nil
	}
	rows, err := s.find(ctx, bson.M{"$or": or}, options.Find().SetProjection(bson.M{"_id": 1}))
	if err != nil {
		return nil, err
	}
	ids := make([]primitive.ObjectID, len(rows))
	for i, u := range rows {
		ids[i] = u.ID
	}
	return ids, nil
}

// ListByRole returns every user holding role, ordered by name.
func (s *Store) ListByRole(ctx context.Context, role string) ([]models.User, error) {
	return s.find(ctx, bson.M{"role": normalize.Role(role)},
		options.Find().SetSort(bson.D{{Key: "name_ci", Value: 1}, {Key: "_id", Value: 1}}))
}

// ListUnassignedStudents returns students with no primary committee,
// ordered by name. These are the candidates a coordinator may add.
func (s *Store) ListUnassignedStudents(ctx context.Context) ([]models.User, error) {
	return s.find(ctx, bson.M{"role": models.RoleStudent, "committee_id": nil},
		options.Find().SetSort(bson.D{{Key: "name_ci", Value: 1}, {Key: "_id", Value: 1}}))
}

// ListAll returns every user. Intended for offline reconciliation.
func (s *Store) ListAll(ctx context.Context) ([]models.User, error) {
	return s.find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}))
}

// GetByIDs loads the users whose IDs are in ids, in unspecified order.
func (s *Store) GetByIDs(ctx context.Context, ids []primitive.ObjectID) ([]models.User, error) {
	if len(ids) == 0 {
		return []models.User{}, nil
	}
	return s.find(ctx, bson.M{"_id": bson.M{"$in": ids}}, options.Find())
}

// RefsByIDs returns trimmed user projections keyed by ID.
func (s *Store) RefsByIDs(ctx context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]models.UserRef, error) {
	out := make(map[primitive.ObjectID]models.UserRef, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	proj := options.Find().SetProjection(bson.M{"name": 1, "email": 1, "college_id": 1, "year": 1})
	cur, err := s.c.Find(ctx, bson.M{"_id": bson.M{"$in": ids}}, proj)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	for cur.Next(ctx) {
		var ref models.UserRef
		if err := cur.Decode(&ref); err != nil {
			return nil, err
		}
		out[ref.ID] = ref
	}
	return out, cur.Err()
}

// Count returns the total number of users.
func (s *Store) Count(ctx context.Context) (int64, error) {
	return s.c.CountDocuments(ctx, bson.M{})
}

// CountRole counts users holding role.
func (s *Store) CountRole(ctx context.Context, role string) (int64, error) {
	return s.c.CountDocuments(ctx, bson.M{"role": role})
}

// CountByRole returns the number of users per role tag.
func (s *Store) CountByRole(ctx context.Context) (map[string]int64, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$group", Value: bson.M{"_id": "$role", "count": bson.M{"$sum": 1}}}},
	}
	cur, err := s.c.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	out := make(map[string]int64)
	for cur.Next(ctx) {
		var row struct {
			Role  string `bson:"_id"`
			Count int64  `bson:"count"`
		}
		if err := cur.Decode(&row); err != nil {
			return nil, err
		}
		out[row.Role] = row.Count
	}
	return out, cur.Err()
}

func (s *Store) find(ctx context.Context, filter bson.M, opts *options.FindOptions) ([]models.User, error) {
	cur, err := s.c.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	out := []models.User{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}
