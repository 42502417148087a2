package membership

import (
	"context"
	"sync"

	"github.com/dalemusser/festivo/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// MemRepo is an in-memory Repository. Units are serialized and a failed
// unit restores the snapshot taken when it started. Used by tests and by
// dry runs of the operator CLI.
type MemRepo struct {
	unit sync.Mutex // serializes RunInTx

	mu         sync.Mutex
	users      map[primitive.ObjectID]models.User
	committees map[primitive.ObjectID]models.Committee
	rosters    map[primitive.ObjectID][]primitive.ObjectID // event id -> assignees
	failures   map[string]error
}

func NewMemRepo() *MemRepo {
	return &MemRepo{
		users:      map[primitive.ObjectID]models.User{},
		committees: map[primitive.ObjectID]models.Committee{},
		rosters:    map[primitive.ObjectID][]primitive.ObjectID{},
		failures:   map[string]error{},
	}
}

// PutUser stores a copy of u.
func (r *MemRepo) PutUser(u models.User) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.users[u.ID] = copyUser(u)
}

// PutCommittee stores a copy of c.
func (r *MemRepo) PutCommittee(c models.Committee) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.committees[c.ID] = copyCommittee(c)
}

// PutEventRoster sets the assignee roster of an event.
func (r *MemRepo) PutEventRoster(eventID primitive.ObjectID, assignees ...primitive.ObjectID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rosters[eventID] = cloneIDs(assignees)
}

// User returns a copy of the stored user.
func (r *MemRepo) User(id primitive.ObjectID) (models.User, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	return copyUser(u), ok
}

// Committee returns a copy of the stored committee.
func (r *MemRepo) Committee(id primitive.ObjectID) (models.Committee, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.committees[id]
	return copyCommittee(c), ok
}

// EventRoster returns a copy of an event's assignee roster.
func (r *MemRepo) EventRoster(eventID primitive.ObjectID) []primitive.ObjectID {
	r.mu.Lock()
	defer r.mu.Unlock()
	return cloneIDs(r.rosters[eventID])
}

// FailOn makes the next call of the named Ops method return err.
func (r *MemRepo) FailOn(method string, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.failures[method] = err
}

func (r *MemRepo) injected(method string) error {
	err, ok := r.failures[method]
	if ok {
		delete(r.failures, method)
	}
	return err
}

func (r *MemRepo) RunInTx(ctx context.Context, op string, fn func(ctx context.Context, ops Ops) error) error {
	r.unit.Lock()
	defer r.unit.Unlock()

	snap := r.snapshot()
	if err := fn(ctx, r); err != nil {
		r.restore(snap)
		return err
	}
	return nil
}

type memSnapshot struct {
	users      map[primitive.ObjectID]models.User
	committees map[primitive.ObjectID]models.Committee
	rosters    map[primitive.ObjectID][]primitive.ObjectID
}

func (r *MemRepo) snapshot() memSnapshot {
	r.mu.Lock()
	defer r.mu.Unlock()
	s := memSnapshot{
		users:      make(map[primitive.ObjectID]models.User, len(r.users)),
		committees: make(map[primitive.ObjectID]models.Committee, len(r.committees)),
		rosters:    make(map[primitive.ObjectID][]primitive.ObjectID, len(r.rosters)),
	}
	for k, v := range r.users {
		s.users[k] = copyUser(v)
	}
	for k, v := range r.committees {
		s.committees[k] = copyCommittee(v)
	}
	for k, v := range r.rosters {
		s.rosters[k] = cloneIDs(v)
	}
	return s
}

func (r *MemRepo) restore(s memSnapshot) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.users, r.committees, r.rosters = s.users, s.committees, s.rosters
}

func (r *MemRepo) GetUser(ctx context.Context, id primitive.ObjectID) (models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.injected("GetUser"); err != nil {
		return models.User{}, err
	}
	u, ok := r.users[id]
	if !ok {
		return models.User{}, ErrNotFound
	}
	return copyUser(u), nil
}

func (r *MemRepo) GetCommittee(ctx context.Context, id primitive.ObjectID) (models.Committee, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.injected("GetCommittee"); err != nil {
		return models.Committee{}, err
	}
	c, ok := r.committees[id]
	if !ok {
		return models.Committee{}, ErrNotFound
	}
	return copyCommittee(c), nil
}

func (r *MemRepo) CountAdmins(ctx context.Context) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.injected("CountAdmins"); err != nil {
		return 0, err
	}
	var n int64
	for _, u := range r.users {
		if u.Role == models.RoleAdmin {
			n++
		}
	}
	return n, nil
}

func (r *MemRepo) SaveRoleState(ctx context.Context, before, after models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.injected("SaveRoleState"); err != nil {
		return err
	}
	u, ok := r.users[after.ID]
	if !ok {
		return ErrNotFound
	}
	u.Role = after.Role
	u.CommitteeID = nil
	if after.CommitteeID != nil {
		id := *after.CommitteeID
		u.CommitteeID = &id
	}
	u.CoordinatedCommitteeIDs = cloneIDs(after.CoordinatedCommitteeIDs)
	r.users[u.ID] = u
	return nil
}

func (r *MemRepo) AddToCommitteeSet(ctx context.Context, committeeID primitive.ObjectID, field string, userID primitive.ObjectID) error {
	return r.editSet(committeeID, field, "AddToCommitteeSet", func(ids []primitive.ObjectID) []primitive.ObjectID {
		return addID(ids, userID)
	})
}

func (r *MemRepo) PullFromCommitteeSet(ctx context.Context, committeeID primitive.ObjectID, field string, userID primitive.ObjectID) error {
	return r.editSet(committeeID, field, "PullFromCommitteeSet", func(ids []primitive.ObjectID) []primitive.ObjectID {
		return removeID(ids, userID)
	})
}

func (r *MemRepo) editSet(committeeID primitive.ObjectID, field, method string, edit func([]primitive.ObjectID) []primitive.ObjectID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.injected(method); err != nil {
		return err
	}
	c, ok := r.committees[committeeID]
	if !ok {
		return ErrNotFound
	}
	switch field {
	case models.CommitteeCoordinators:
		c.CoordinatorIDs = edit(cloneIDs(c.CoordinatorIDs))
	case models.CommitteeMembers:
		c.MemberIDs = edit(cloneIDs(c.MemberIDs))
	case models.CommitteeEvents:
		c.AssignedEventIDs = edit(cloneIDs(c.AssignedEventIDs))
	}
	r.committees[committeeID] = c
	return nil
}

func (r *MemRepo) PullUserEverywhere(ctx context.Context, userID primitive.ObjectID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.injected("PullUserEverywhere"); err != nil {
		return err
	}
	for id, c := range r.committees {
		c.CoordinatorIDs = removeID(cloneIDs(c.CoordinatorIDs), userID)
		c.MemberIDs = removeID(cloneIDs(c.MemberIDs), userID)
		r.committees[id] = c
	}
	for id, roster := range r.rosters {
		r.rosters[id] = removeID(cloneIDs(roster), userID)
	}
	return nil
}

func (r *MemRepo) DeleteUser(ctx context.Context, u models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.injected("DeleteUser"); err != nil {
		return err
	}
	if _, ok := r.users[u.ID]; !ok {
		return ErrNotFound
	}
	delete(r.users, u.ID)
	return nil
}

func copyUser(u models.User) models.User {
	u.CoordinatedCommitteeIDs = cloneIDs(u.CoordinatedCommitteeIDs)
	if u.CommitteeID != nil {
		id := *u.CommitteeID
		u.CommitteeID = &id
	}
	return u
}

func copyCommittee(c models.Committee) models.Committee {
	c.CoordinatorIDs = cloneIDs(c.CoordinatorIDs)
	c.MemberIDs = cloneIDs(c.MemberIDs)
	c.AssignedEventIDs = cloneIDs(c.AssignedEventIDs)
	return c
}
