package membership

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"

	committeestore "github.com/dalemusser/festivo/internal/app/store/committees"
	eventstore "github.com/dalemusser/festivo/internal/app/store/events"
	userstore "github.com/dalemusser/festivo/internal/app/store/users"
	"github.com/dalemusser/festivo/internal/app/system/apperr"
	"github.com/dalemusser/festivo/internal/app/system/metrics"
	"github.com/dalemusser/festivo/internal/app/system/txn"
	"github.com/dalemusser/festivo/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// TxMode selects how MongoRepo makes a unit atomic.
type TxMode string

const (
	// TxAuto uses a transaction and switches to compensation for the rest
	// of the process once the deployment reports transactions unsupported.
	TxAuto TxMode = "auto"
	// TxTransaction always uses a multi-document transaction.
	TxTransaction TxMode = "txn"
	// TxCompensate never uses transactions; failed units are undone by
	// replaying inverse writes.
	TxCompensate TxMode = "compensate"
)

// ParseTxMode validates a configured mode. Empty means TxAuto.
func ParseTxMode(s string) (TxMode, error) {
	switch TxMode(s) {
	case "", TxAuto:
		return TxAuto, nil
	case TxTransaction, TxCompensate:
		return TxMode(s), nil
	}
	return "", fmt.Errorf("invalid membership tx mode %q (want auto, txn or compensate)", s)
}

// MongoRepo is the Repository backed by the users, committees and events
// collections.
type MongoRepo struct {
	client     *mongo.Client
	users      *userstore.Store
	committees *committeestore.Store
	events     *eventstore.Store

	mode    TxMode
	noTxn   atomic.Bool
	log     *zap.Logger
	metrics *metrics.Metrics
}

func NewMongoRepo(db *mongo.Database, mode TxMode, m *metrics.Metrics, log *zap.Logger) *MongoRepo {
	if log == nil {
		log = zap.NewNop()
	}
	return &MongoRepo{
		client:     db.Client(),
		users:      userstore.New(db),
		committees: committeestore.New(db),
		events:     eventstore.New(db),
		mode:       mode,
		log:        log,
		metrics:    m,
	}
}

// RunInTx runs fn as one unit according to the repository's mode.
func (r *MongoRepo) RunInTx(ctx context.Context, op string, fn func(ctx context.Context, ops Ops) error) error {
	if r.mode == TxCompensate || (r.mode == TxAuto && r.noTxn.Load()) {
		return r.runCompensated(ctx, op, fn)
	}

	err := txn.Run(ctx, r.client, func(ctx context.Context) error {
		return fn(ctx, mongoOps{repo: r})
	})
	if err != nil && r.mode == TxAuto && !isDomainErr(err) && txn.IsNotSupported(err) {
		r.noTxn.Store(true)
		r.log.Warn("transactions unsupported; membership writes will use compensation",
			zap.String("op", op), zap.Error(err))
		return r.runCompensated(ctx, op, fn)
	}
	return err
}

func (r *MongoRepo) runCompensated(ctx context.Context, op string, fn func(ctx context.Context, ops Ops) error) error {
	comp := &txn.Compensator{}
	err := fn(ctx, mongoOps{repo: r, comp: comp})
	if err == nil {
		comp.Discard()
		return nil
	}
	if comp.Len() == 0 {
		return err
	}

	r.metrics.Compensation(op)
	steps := comp.Len()
	// Undo must run even when the request context is already cancelled.
	if rbErr := comp.Rollback(context.WithoutCancel(ctx)); rbErr != nil {
		r.log.Error("membership compensation failed; records may be inconsistent",
			zap.String("op", op),
			zap.Int("steps", steps),
			zap.NamedError("cause", err),
			zap.NamedError("rollback", rbErr))
		return apperr.Internal("membership update partially applied", errors.Join(err, rbErr))
	}
	r.log.Warn("membership operation compensated",
		zap.String("op", op),
		zap.Int("steps", steps),
		zap.Error(err))
	return err
}

// Outside RunInTx each call is its own unit.
func (r *MongoRepo) GetUser(ctx context.Context, id primitive.ObjectID) (models.User, error) {
	return mongoOps{repo: r}.GetUser(ctx, id)
}

func (r *MongoRepo) GetCommittee(ctx context.Context, id primitive.ObjectID) (models.Committee, error) {
	return mongoOps{repo: r}.GetCommittee(ctx, id)
}

func (r *MongoRepo) CountAdmins(ctx context.Context) (int64, error) {
	return mongoOps{repo: r}.CountAdmins(ctx)
}

func (r *MongoRepo) SaveRoleState(ctx context.Context, before, after models.User) error {
	return mongoOps{repo: r}.SaveRoleState(ctx, before, after)
}

func (r *MongoRepo) AddToCommitteeSet(ctx context.Context, committeeID primitive.ObjectID, field string, userID primitive.ObjectID) error {
	return mongoOps{repo: r}.AddToCommitteeSet(ctx, committeeID, field, userID)
}

func (r *MongoRepo) PullFromCommitteeSet(ctx context.Context, committeeID primitive.ObjectID, field string, userID primitive.ObjectID) error {
	return mongoOps{repo: r}.PullFromCommitteeSet(ctx, committeeID, field, userID)
}

func (r *MongoRepo) PullUserEverywhere(ctx context.Context, userID primitive.ObjectID) error {
	return mongoOps{repo: r}.PullUserEverywhere(ctx, userID)
}

func (r *MongoRepo) DeleteUser(ctx context.Context, u models.User) error {
	return mongoOps{repo: r}.DeleteUser(ctx, u)
}

// mongoOps performs writes for one unit. comp is nil inside a transaction.
type mongoOps struct {
	repo *MongoRepo
	comp *txn.Compensator
}

func (o mongoOps) undo(name string, fn func(ctx context.Context) error) {
	if o.comp != nil {
		o.comp.Add(name, fn)
	}
}

func (o mongoOps) GetUser(ctx context.Context, id primitive.ObjectID) (models.User, error) {
	u, err := o.repo.users.GetByID(ctx, id)
	if err != nil {
		return models.User{}, notFound(err)
	}
	return *u, nil
}

func (o mongoOps) GetCommittee(ctx context.Context, id primitive.ObjectID) (models.Committee, error) {
	c, err := o.repo.committees.GetByID(ctx, id)
	if err != nil {
		return models.Committee{}, notFound(err)
	}
	return *c, nil
}

func (o mongoOps) CountAdmins(ctx context.Context) (int64, error) {
	return o.repo.users.CountRole(ctx, models.RoleAdmin)
}

func (o mongoOps) SaveRoleState(ctx context.Context, before, after models.User) error {
	if err := o.repo.users.SetRoleState(ctx, after.ID, after.Role, after.CommitteeID, after.CoordinatedCommitteeIDs); err != nil {
		return notFound(err)
	}
	o.undo("restore role state", func(ctx context.Context) error {
		return o.repo.users.SetRoleState(ctx, before.ID, before.Role, before.CommitteeID, before.CoordinatedCommitteeIDs)
	})
	return nil
}

func (o mongoOps) AddToCommitteeSet(ctx context.Context, committeeID primitive.ObjectID, field string, userID primitive.ObjectID) error {
	added, err := o.repo.committees.AddToSet(ctx, committeeID, field, userID)
	if err != nil {
		return notFound(err)
	}
	if added {
		o.undo("add "+field, func(ctx context.Context) error {
			_, err := o.repo.committees.Pull(ctx, committeeID, field, userID)
			return err
		})
	}
	return nil
}

func (o mongoOps) PullFromCommitteeSet(ctx context.Context, committeeID primitive.ObjectID, field string, userID primitive.ObjectID) error {
	removed, err := o.repo.committees.Pull(ctx, committeeID, field, userID)
	if err != nil {
		return notFound(err)
	}
	if removed {
		o.undo("pull "+field, func(ctx context.Context) error {
			_, err := o.repo.committees.AddToSet(ctx, committeeID, field, userID)
			return err
		})
	}
	return nil
}

func (o mongoOps) PullUserEverywhere(ctx context.Context, userID primitive.ObjectID) error {
	var (
		committees []models.Committee
		eventIDs   []primitive.ObjectID
		err        error
	)
	if o.comp != nil {
		// Remember where the user appears so the pull can be reversed.
		if committees, err = o.repo.committees.ListContaining(ctx, userID); err != nil {
			return err
		}
		if eventIDs, err = o.repo.events.ListAssignedTo(ctx, userID); err != nil {
			return err
		}
	}

	if _, err := o.repo.committees.PullUserEverywhere(ctx, userID); err != nil {
		return err
	}
	o.undo("pull user from committees", func(ctx context.Context) error {
		var errs []error
		for _, c := range committees {
			if c.HasCoordinator(userID) {
				if _, err := o.repo.committees.AddToSet(ctx, c.ID, models.CommitteeCoordinators, userID); err != nil {
					errs = append(errs, err)
				}
			}
			if c.HasMember(userID) {
				if _, err := o.repo.committees.AddToSet(ctx, c.ID, models.CommitteeMembers, userID); err != nil {
					errs = append(errs, err)
				}
			}
		}
		return errors.Join(errs...)
	})

	if _, err := o.repo.events.PullAssigneeEverywhere(ctx, userID); err != nil {
		return err
	}
	o.undo("pull user from event rosters", func(ctx context.Context) error {
		var errs []error
		for _, id := range eventIDs {
			if err := o.repo.events.AddAssignee(ctx, id, userID); err != nil {
				errs = append(errs, err)
			}
		}
		return errors.Join(errs...)
	})
	return nil
}

func (o mongoOps) DeleteUser(ctx context.Context, u models.User) error {
	n, err := o.repo.users.Delete(ctx, u.ID)
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	o.undo("delete user", func(ctx context.Context) error {
		return o.repo.users.Insert(ctx, u)
	})
	return nil
}

func notFound(err error) error {
	if errors.Is(err, mongo.ErrNoDocuments) {
		return ErrNotFound
	}
	return err
}

func isDomainErr(err error) bool {
	var ae *apperr.Error
	return errors.As(err, &ae) && ae.Kind != apperr.KindInternal
}
