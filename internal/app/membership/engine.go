// Package membership keeps identities and committee rosters consistent.
//
// Every mutation goes through transition for the identity side and through
// a single Repository.RunInTx unit for both records.
package membership

import (
	"context"
	"errors"

	"github.com/dalemusser/festivo/internal/app/system/apperr"
	"github.com/dalemusser/festivo/internal/app/system/auditlog"
	"github.com/dalemusser/festivo/internal/app/system/metrics"
	"github.com/dalemusser/festivo/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// Operation names used in metrics and logs.
const (
	OpAssignRole        = "assign_role"
	OpAddCoordinator    = "add_coordinator"
	OpRemoveCoordinator = "remove_coordinator"
	OpAddMember         = "add_member"
	OpRemoveMember      = "remove_member"
	OpDeleteIdentity    = "delete_identity"
	OpAssignCommittee   = "assign_committee"
	OpUnassignCommittee = "unassign_committee"
)

type Engine struct {
	repo    Repository
	audit   *auditlog.Logger
	metrics *metrics.Metrics
	log     *zap.Logger
}

// New builds an engine. audit and m may be nil.
func New(repo Repository, audit *auditlog.Logger, m *metrics.Metrics, log *zap.Logger) *Engine {
	if log == nil {
		log = zap.NewNop()
	}
	return &Engine{repo: repo, audit: audit, metrics: m, log: log}
}

// Repository returns the engine's repository (read paths such as reconcile).
func (e *Engine) Repository() Repository { return e.repo }

// AssignRole sets a user's role. For member it links the primary committee
// and adds the user to its member list. For student and admin it clears the
// primary link without touching committee lists.
func (e *Engine) AssignRole(ctx context.Context, caller Actor, p AssignRoleParams) (user models.User, err error) {
	defer func() { e.done(OpAssignRole, caller, err) }()

	if err := requireAdmin(caller); err != nil {
		return models.User{}, err
	}
	if err := p.Validate(); err != nil {
		return models.User{}, err
	}

	var fromRole string
	err = e.repo.RunInTx(ctx, OpAssignRole, func(ctx context.Context, ops Ops) error {
		cur, err := loadUser(ctx, ops, p.UserID)
		if err != nil {
			return err
		}
		if err := keepOneAdmin(ctx, ops, cur, p.Role); err != nil {
			return err
		}
		if p.CommitteeID != nil {
			if _, err := loadCommittee(ctx, ops, *p.CommitteeID); err != nil {
				return err
			}
		}
		next, err := transition(cur, assignRole(p.Role, p.CommitteeID))
		if err != nil {
			return err
		}

		switch {
		case p.Role == models.RoleMember:
			if err := addToSet(ctx, ops, *p.CommitteeID, models.CommitteeMembers, cur.ID); err != nil {
				return err
			}
		case p.Role == models.RoleCoordinator && p.CommitteeID != nil && next.Coordinates(*p.CommitteeID):
			if err := addToSet(ctx, ops, *p.CommitteeID, models.CommitteeCoordinators, cur.ID); err != nil {
				return err
			}
		}
		if err := saveRoleState(ctx, ops, cur, next); err != nil {
			return err
		}
		fromRole, user = cur.Role, next
		return nil
	})
	if err != nil {
		return models.User{}, err
	}

	e.audit.RoleAssigned(ctx, caller.ID, user.ID, p.CommitteeID, fromRole, user.Role)
	return user, nil
}

// AddCoordinator makes the user a coordinator of the committee.
func (e *Engine) AddCoordinator(ctx context.Context, caller Actor, p CoordinatorParams) (committee models.Committee, user models.User, err error) {
	defer func() { e.done(OpAddCoordinator, caller, err) }()

	if err := requireAdmin(caller); err != nil {
		return models.Committee{}, models.User{}, err
	}
	if err := p.Validate(); err != nil {
		return models.Committee{}, models.User{}, err
	}

	err = e.repo.RunInTx(ctx, OpAddCoordinator, func(ctx context.Context, ops Ops) error {
		cur, err := loadUser(ctx, ops, p.UserID)
		if err != nil {
			return err
		}
		c, err := loadCommittee(ctx, ops, p.CommitteeID)
		if err != nil {
			return err
		}
		if c.HasCoordinator(cur.ID) {
			return apperr.Conflict("user is already a coordinator of this committee")
		}
		next, err := transition(cur, committeeEvent(coordinatorAdded, c.ID))
		if err != nil {
			return err
		}
		if err := addToSet(ctx, ops, c.ID, models.CommitteeCoordinators, cur.ID); err != nil {
			return err
		}
		if err := saveRoleState(ctx, ops, cur, next); err != nil {
			return err
		}
		if committee, err = loadCommittee(ctx, ops, c.ID); err != nil {
			return err
		}
		user = next
		return nil
	})
	if err != nil {
		return models.Committee{}, models.User{}, err
	}

	e.audit.CoordinatorAdded(ctx, caller.ID, user.ID, committee.ID)
	return committee, user, nil
}

// RemoveCoordinator removes the user from the committee's coordinators. A
// coordinator left with no committees becomes a student. The returned user
// is nil when the identity no longer exists.
func (e *Engine) RemoveCoordinator(ctx context.Context, caller Actor, p CoordinatorParams) (committee models.Committee, user *models.User, err error) {
	defer func() { e.done(OpRemoveCoordinator, caller, err) }()

	if err := requireAdmin(caller); err != nil {
		return models.Committee{}, nil, err
	}
	if err := p.Validate(); err != nil {
		return models.Committee{}, nil, err
	}

	var demoted bool
	err = e.repo.RunInTx(ctx, OpRemoveCoordinator, func(ctx context.Context, ops Ops) error {
		c, err := loadCommittee(ctx, ops, p.CommitteeID)
		if err != nil {
			return err
		}
		if !c.HasCoordinator(p.UserID) {
			return apperr.Invalid("user is not a coordinator of this committee")
		}
		if err := pullFromSet(ctx, ops, c.ID, models.CommitteeCoordinators, p.UserID); err != nil {
			return err
		}

		cur, err := ops.GetUser(ctx, p.UserID)
		switch {
		case errors.Is(err, ErrNotFound):
			// Dangling coordinator reference; the committee side is enough.
		case err != nil:
			return apperr.Internal("load user", err)
		default:
			next, err := transition(cur, committeeEvent(coordinatorRemoved, c.ID))
			if err != nil {
				return err
			}
			if err := saveRoleState(ctx, ops, cur, next); err != nil {
				return err
			}
			demoted = cur.Role == models.RoleCoordinator && next.Role == models.RoleStudent
			user = &next
		}

		committee, err = loadCommittee(ctx, ops, c.ID)
		return err
	})
	if err != nil {
		return models.Committee{}, nil, err
	}

	e.audit.CoordinatorRemoved(ctx, caller.ID, p.UserID, committee.ID, demoted)
	return committee, user, nil
}

// AddMember recruits a student into an active committee. The caller must be
// an admin or one of the committee's coordinators.
func (e *Engine) AddMember(ctx context.Context, caller Actor, p MemberParams) (committee models.Committee, err error) {
	defer func() { e.done(OpAddMember, caller, err) }()

	if err := p.Validate(); err != nil {
		return models.Committee{}, err
	}

	err = e.repo.RunInTx(ctx, OpAddMember, func(ctx context.Context, ops Ops) error {
		c, err := loadActiveCommittee(ctx, ops, p.CommitteeID)
		if err != nil {
			return err
		}
		if err := requireCommitteeManager(caller, c); err != nil {
			return err
		}
		cur, err := loadUser(ctx, ops, p.UserID)
		if err != nil {
			return err
		}
		if c.HasMember(cur.ID) {
			return apperr.Invalid("user is already a member of this committee")
		}
		next, err := transition(cur, committeeEvent(memberAdded, c.ID))
		if err != nil {
			return err
		}
		if err := addToSet(ctx, ops, c.ID, models.CommitteeMembers, cur.ID); err != nil {
			return err
		}
		if err := saveRoleState(ctx, ops, cur, next); err != nil {
			return err
		}
		committee, err = loadCommittee(ctx, ops, c.ID)
		return err
	})
	if err != nil {
		return models.Committee{}, err
	}

	e.audit.MemberAdded(ctx, caller.ID, p.UserID, committee.ID)
	return committee, nil
}

// RemoveMember removes a member and resets them to student. Event assignee
// rosters are left as they are.
func (e *Engine) RemoveMember(ctx context.Context, caller Actor, p MemberParams) (committee models.Committee, err error) {
	defer func() { e.done(OpRemoveMember, caller, err) }()

	if err := p.Validate(); err != nil {
		return models.Committee{}, err
	}

	var demoted bool
	err = e.repo.RunInTx(ctx, OpRemoveMember, func(ctx context.Context, ops Ops) error {
		c, err := loadActiveCommittee(ctx, ops, p.CommitteeID)
		if err != nil {
			return err
		}
		if err := requireCommitteeManager(caller, c); err != nil {
			return err
		}
		if !c.HasMember(p.UserID) {
			return apperr.Invalid("user is not a member of this committee")
		}
		if err := pullFromSet(ctx, ops, c.ID, models.CommitteeMembers, p.UserID); err != nil {
			return err
		}

		cur, err := ops.GetUser(ctx, p.UserID)
		switch {
		case errors.Is(err, ErrNotFound):
		case err != nil:
			return apperr.Internal("load user", err)
		default:
			next, err := transition(cur, committeeEvent(memberRemoved, c.ID))
			if err != nil {
				return err
			}
			if err := saveRoleState(ctx, ops, cur, next); err != nil {
				return err
			}
			demoted = cur.Role != next.Role
		}

		committee, err = loadCommittee(ctx, ops, c.ID)
		return err
	})
	if err != nil {
		return models.Committee{}, err
	}

	e.audit.MemberRemoved(ctx, caller.ID, p.UserID, committee.ID, demoted)
	return committee, nil
}

// DeleteIdentity hard-deletes a user after removing every reference to it
// from committee lists and event assignee rosters.
func (e *Engine) DeleteIdentity(ctx context.Context, caller Actor, p DeleteIdentityParams) (ok bool, err error) {
	defer func() { e.done(OpDeleteIdentity, caller, err) }()

	if err := requireAdmin(caller); err != nil {
		return false, err
	}
	if err := p.Validate(); err != nil {
		return false, err
	}

	var deleted models.User
	err = e.repo.RunInTx(ctx, OpDeleteIdentity, func(ctx context.Context, ops Ops) error {
		u, err := loadUser(ctx, ops, p.UserID)
		if err != nil {
			return err
		}
		if err := keepOneAdmin(ctx, ops, u, ""); err != nil {
			return err
		}

		if u.CommitteeID != nil {
			if err := pullIgnoringMissing(ctx, ops, *u.CommitteeID, models.CommitteeMembers, u.ID); err != nil {
				return err
			}
			if u.Role == models.RoleCoordinator {
				if err := pullIgnoringMissing(ctx, ops, *u.CommitteeID, models.CommitteeCoordinators, u.ID); err != nil {
					return err
				}
			}
		}
		if err := ops.PullUserEverywhere(ctx, u.ID); err != nil {
			return apperr.Internal("remove user references", err)
		}
		if err := ops.DeleteUser(ctx, u); err != nil {
			if errors.Is(err, ErrNotFound) {
				return apperr.NotFound("user not found")
			}
			return apperr.Internal("delete user", err)
		}
		deleted = u
		return nil
	})
	if err != nil {
		return false, err
	}

	e.audit.IdentityDeleted(ctx, caller.ID, deleted.ID, deleted.Email, deleted.Role)
	return true, nil
}

// AssignCommittee sets the primary committee of a member or coordinator
// and adds them to its member list. A member moving from another committee
// is pulled from the old member list. A coordinator also becomes one of the
// committee's coordinators.
func (e *Engine) AssignCommittee(ctx context.Context, caller Actor, p AssignCommitteeParams) (user models.User, err error) {
	defer func() { e.done(OpAssignCommittee, caller, err) }()

	if err := requireAdmin(caller); err != nil {
		return models.User{}, err
	}
	if err := p.Validate(); err != nil {
		return models.User{}, err
	}

	var from *primitive.ObjectID
	err = e.repo.RunInTx(ctx, OpAssignCommittee, func(ctx context.Context, ops Ops) error {
		cur, err := loadUser(ctx, ops, p.UserID)
		if err != nil {
			return err
		}
		c, err := loadActiveCommittee(ctx, ops, p.CommitteeID)
		if err != nil {
			return err
		}
		next, err := transition(cur, committeeEvent(committeeAssigned, c.ID))
		if err != nil {
			return err
		}

		if cur.Role == models.RoleMember && cur.CommitteeID != nil && *cur.CommitteeID != c.ID {
			if err := pullIgnoringMissing(ctx, ops, *cur.CommitteeID, models.CommitteeMembers, cur.ID); err != nil {
				return err
			}
		}
		if err := addToSet(ctx, ops, c.ID, models.CommitteeMembers, cur.ID); err != nil {
			return err
		}
		if next.Role == models.RoleCoordinator {
			if err := addToSet(ctx, ops, c.ID, models.CommitteeCoordinators, cur.ID); err != nil {
				return err
			}
		}
		if err := saveRoleState(ctx, ops, cur, next); err != nil {
			return err
		}
		from, user = cur.CommitteeID, next
		return nil
	})
	if err != nil {
		return models.User{}, err
	}

	e.audit.CommitteeAssigned(ctx, caller.ID, user.ID, p.CommitteeID, from)
	return user, nil
}

// UnassignCommittee clears a user's primary committee and pulls them from
// its lists. A member becomes a student; a coordinator stops coordinating
// that committee and becomes a student if it was their last one.
func (e *Engine) UnassignCommittee(ctx context.Context, caller Actor, p UnassignCommitteeParams) (user models.User, err error) {
	defer func() { e.done(OpUnassignCommittee, caller, err) }()

	if err := requireAdmin(caller); err != nil {
		return models.User{}, err
	}
	if err := p.Validate(); err != nil {
		return models.User{}, err
	}

	var (
		committeeID primitive.ObjectID
		fromRole    string
	)
	err = e.repo.RunInTx(ctx, OpUnassignCommittee, func(ctx context.Context, ops Ops) error {
		cur, err := loadUser(ctx, ops, p.UserID)
		if err != nil {
			return err
		}
		next, err := transition(cur, identityEvent(committeeUnassigned))
		if err != nil {
			return err
		}
		committeeID = *cur.CommitteeID

		// The committee may be gone; only the identity side is left then.
		if err := pullIgnoringMissing(ctx, ops, committeeID, models.CommitteeMembers, cur.ID); err != nil {
			return err
		}
		if cur.Coordinates(committeeID) && !next.Coordinates(committeeID) {
			if err := pullIgnoringMissing(ctx, ops, committeeID, models.CommitteeCoordinators, cur.ID); err != nil {
				return err
			}
		}
		if err := saveRoleState(ctx, ops, cur, next); err != nil {
			return err
		}
		fromRole, user = cur.Role, next
		return nil
	})
	if err != nil {
		return models.User{}, err
	}

	e.audit.CommitteeUnassigned(ctx, caller.ID, user.ID, committeeID, fromRole, user.Role)
	return user, nil
}

func (e *Engine) done(op string, caller Actor, err error) {
	e.metrics.MembershipOp(op, err)
	if err == nil {
		return
	}
	fields := []zap.Field{
		zap.String("op", op),
		zap.String("actor_id", caller.ID.Hex()),
		zap.Error(err),
	}
	if apperr.KindOf(err) == apperr.KindInternal {
		e.log.Error("membership operation failed", fields...)
		return
	}
	e.log.Debug("membership operation rejected", fields...)
}

/* ----------------------------- helpers ----------------------------- */

func requireAdmin(caller Actor) error {
	if !caller.isAdmin() {
		return apperr.Denied("admin access required")
	}
	return nil
}

// keepOneAdmin rejects a change that takes the admin role from the last
// admin. nextRole is empty for deletion.
func keepOneAdmin(ctx context.Context, ops Ops, cur models.User, nextRole string) error {
	if cur.Role != models.RoleAdmin || nextRole == models.RoleAdmin {
		return nil
	}
	n, err := ops.CountAdmins(ctx)
	if err != nil {
		return apperr.Internal("count admins", err)
	}
	if n <= 1 {
		return apperr.Conflict("there must be at least one admin")
	}
	return nil
}

func requireCommitteeManager(caller Actor, c models.Committee) error {
	if caller.isAdmin() || c.HasCoordinator(caller.ID) {
		return nil
	}
	return apperr.Denied("not authorized for this committee")
}

func loadUser(ctx context.Context, ops Ops, id primitive.ObjectID) (models.User, error) {
	u, err := ops.GetUser(ctx, id)
	if errors.Is(err, ErrNotFound) {
		return models.User{}, apperr.NotFound("user not found")
	}
	if err != nil {
		return models.User{}, apperr.Internal("load user", err)
	}
	return u, nil
}

func loadCommittee(ctx context.Context, ops Ops, id primitive.ObjectID) (models.Committee, error) {
	c, err := ops.GetCommittee(ctx, id)
	if errors.Is(err, ErrNotFound) {
		return models.Committee{}, apperr.NotFound("committee not found")
	}
	if err != nil {
		return models.Committee{}, apperr.Internal("load committee", err)
	}
	return c, nil
}

func loadActiveCommittee(ctx context.Context, ops Ops, id primitive.ObjectID) (models.Committee, error) {
	c, err := loadCommittee(ctx, ops, id)
	if err != nil {
		return c, err
	}
	if !c.IsActive {
		return models.Committee{}, apperr.NotFound("committee not found")
	}
	return c, nil
}

func addToSet(ctx context.Context, ops Ops, committeeID primitive.ObjectID, field string, userID primitive.ObjectID) error {
	err := ops.AddToCommitteeSet(ctx, committeeID, field, userID)
	if errors.Is(err, ErrNotFound) {
		return apperr.NotFound("committee not found")
	}
	if err != nil {
		return apperr.Internal("update committee", err)
	}
	return nil
}

func pullFromSet(ctx context.Context, ops Ops, committeeID primitive.ObjectID, field string, userID primitive.ObjectID) error {
	err := ops.PullFromCommitteeSet(ctx, committeeID, field, userID)
	if errors.Is(err, ErrNotFound) {
		return apperr.NotFound("committee not found")
	}
	if err != nil {
		return apperr.Internal("update committee", err)
	}
	return nil
}

func pullIgnoringMissing(ctx context.Context, ops Ops, committeeID primitive.ObjectID, field string, userID primitive.ObjectID) error {
	err := ops.PullFromCommitteeSet(ctx, committeeID, field, userID)
	if err != nil && !errors.Is(err, ErrNotFound) {
		return apperr.Internal("update committee", err)
	}
	return nil
}

func saveRoleState(ctx context.Context, ops Ops, before, after models.User) error {
	err := ops.SaveRoleState(ctx, before, after)
	if errors.Is(err, ErrNotFound) {
		return apperr.NotFound("user not found")
	}
	if err != nil {
		return apperr.Internal("update user", err)
	}
	return nil
}
