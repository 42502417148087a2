package membership

import (
	"context"
	"errors"

	"github.com/dalemusser/festivo/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ErrNotFound is returned by repositories when a user or committee is absent.
var ErrNotFound = errors.New("membership: not found")

// Ops is the persistence surface the engine writes through. Inside
// Repository.RunInTx every write belongs to one unit.
type Ops interface {
	GetUser(ctx context.Context, id primitive.ObjectID) (models.User, error)
	GetCommittee(ctx context.Context, id primitive.ObjectID) (models.Committee, error)

	// CountAdmins reports how many users hold the admin role.
	CountAdmins(ctx context.Context) (int64, error)

	// SaveRoleState persists after's role, primary committee and
	// coordinated set. before is the state to restore if the unit fails.
	SaveRoleState(ctx context.Context, before, after models.User) error

	// AddToCommitteeSet and PullFromCommitteeSet edit one of the
	// committee's id sets (models.CommitteeCoordinators or CommitteeMembers).
	AddToCommitteeSet(ctx context.Context, committeeID primitive.ObjectID, field string, userID primitive.ObjectID) error
	PullFromCommitteeSet(ctx context.Context, committeeID primitive.ObjectID, field string, userID primitive.ObjectID) error

	// PullUserEverywhere removes userID from every committee list and every
	// event assignee roster.
	PullUserEverywhere(ctx context.Context, userID primitive.ObjectID) error

	DeleteUser(ctx context.Context, u models.User) error
}

// Repository adds the transactional unit. op names the engine operation
// for logging and metrics.
type Repository interface {
	Ops
	RunInTx(ctx context.Context, op string, fn func(ctx context.Context, ops Ops) error) error
}
