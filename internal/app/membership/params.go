package membership

import (
	"github.com/dalemusser/festivo/internal/app/system/apperr"
	"github.com/dalemusser/festivo/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Actor is the authenticated caller of an engine operation.
type Actor struct {
	ID   primitive.ObjectID
	Role string
}

// System is the actor used by startup tasks and the operator CLI.
var System = Actor{Role: models.RoleAdmin}

func (a Actor) isAdmin() bool { return a.Role == models.RoleAdmin }

type AssignRoleParams struct {
	UserID      primitive.ObjectID
	Role        string
	CommitteeID *primitive.ObjectID
}

func (p AssignRoleParams) Validate() error {
	if p.UserID.IsZero() {
		return apperr.Invalid("user id is required")
	}
	if !models.IsValidRole(p.Role) {
		return apperr.Invalid("invalid role %q", p.Role)
	}
	if p.Role == models.RoleMember && (p.CommitteeID == nil || p.CommitteeID.IsZero()) {
		return apperr.Invalid("committee is required for the member role")
	}
	return nil
}

type CoordinatorParams struct {
	CommitteeID primitive.ObjectID
	UserID      primitive.ObjectID
}

func (p CoordinatorParams) Validate() error {
	return requirePair(p.CommitteeID, p.UserID)
}

type MemberParams struct {
	CommitteeID primitive.ObjectID
	UserID      primitive.ObjectID
}

func (p MemberParams) Validate() error {
	return requirePair(p.CommitteeID, p.UserID)
}

// AssignCommitteeParams sets the primary committee of a member or
// coordinator.
type AssignCommitteeParams struct {
	UserID      primitive.ObjectID
	CommitteeID primitive.ObjectID
}

func (p AssignCommitteeParams) Validate() error {
	return requirePair(p.CommitteeID, p.UserID)
}

type UnassignCommitteeParams struct {
	UserID primitive.ObjectID
}

func (p UnassignCommitteeParams) Validate() error {
	if p.UserID.IsZero() {
		return apperr.Invalid("user id is required")
	}
	return nil
}

type DeleteIdentityParams struct {
	UserID primitive.ObjectID
}

func (p DeleteIdentityParams) Validate() error {
	if p.UserID.IsZero() {
		return apperr.Invalid("user id is required")
	}
	return nil
}

func requirePair(committeeID, userID primitive.ObjectID) error {
	if committeeID.IsZero() {
		return apperr.Invalid("committee id is required")
	}
	if userID.IsZero() {
		return apperr.Invalid("user id is required")
	}
	return nil
}
