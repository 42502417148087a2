package membership

import (
	"context"
	"fmt"

	"github.com/dalemusser/festivo/internal/app/system/apperr"
	"github.com/dalemusser/festivo/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Rules reported by Scan.
const (
	RuleStalePrimary           = "stale_primary"            // student/admin still has committee_id
	RuleMemberWithoutCommittee = "member_without_committee" // primary committee unset, missing or inactive
	RuleMemberNotOnRoster      = "member_not_on_roster"
	RuleCoordinatorEmpty       = "coordinator_without_committees"
	RuleCoordinatorNotOnRoster = "coordinator_not_on_roster"
)

// OpReconcile names repair units in logs and metrics.
const OpReconcile = "reconcile"

// Violation is one identity whose role state disagrees with the committee
// records. Fixable violations can be passed to Engine.Repair.
type Violation struct {
	UserID      primitive.ObjectID  `json:"user_id"`
	Email       string              `json:"email"`
	Role        string              `json:"role"`
	Rule        string              `json:"rule"`
	CommitteeID *primitive.ObjectID `json:"committee_id,omitempty"`
	Fixable     bool                `json:"fixable"`
}

func (v Violation) String() string {
	s := fmt.Sprintf("%s (%s): %s", v.Email, v.Role, v.Rule)
	if v.CommitteeID != nil {
		s += " committee=" + v.CommitteeID.Hex()
	}
	return s
}

// Scan checks every user against the committee records. A soft-deleted
// committee does not count as a member's primary committee. Scan never
// reports a committee roster entry whose user holds a different role;
// AssignRole leaves those in place on purpose.
func Scan(users []models.User, committees []models.Committee) []Violation {
	byID := make(map[primitive.ObjectID]models.Committee, len(committees))
	for _, c := range committees {
		byID[c.ID] = c
	}

	var out []Violation
	add := func(u models.User, rule string, cid *primitive.ObjectID, fixable bool) {
		out = append(out, Violation{UserID: u.ID, Email: u.Email, Role: u.Role, Rule: rule, CommitteeID: cid, Fixable: fixable})
	}

	for _, u := range users {
		switch u.Role {
		case models.RoleStudent, models.RoleAdmin:
			if u.CommitteeID != nil {
				add(u, RuleStalePrimary, u.CommitteeID, true)
			}
		case models.RoleMember:
			if u.CommitteeID == nil {
				add(u, RuleMemberWithoutCommittee, nil, true)
				continue
			}
			c, ok := byID[*u.CommitteeID]
			switch {
			case !ok || !c.IsActive:
				add(u, RuleMemberWithoutCommittee, u.CommitteeID, true)
			case !c.HasMember(u.ID):
				add(u, RuleMemberNotOnRoster, u.CommitteeID, true)
			}
		case models.RoleCoordinator:
			if len(u.CoordinatedCommitteeIDs) == 0 {
				add(u, RuleCoordinatorEmpty, nil, false)
				continue
			}
			for _, id := range u.CoordinatedCommitteeIDs {
				c, ok := byID[id]
				if ok && !c.HasCoordinator(u.ID) {
					cid := id
					add(u, RuleCoordinatorNotOnRoster, &cid, true)
				}
			}
		}
	}
	return out
}

// Repair applies the fix for one fixable violation in a single unit. A
// stale primary link is dropped through transition, which turns a member
// without a live committee into a student. A missing roster entry is added
// back. Repair returns Conflict when the user changed since the scan.
func (e *Engine) Repair(ctx context.Context, v Violation) (err error) {
	defer func() { e.done(OpReconcile, System, err) }()

	if !v.Fixable {
		return apperr.Invalid("%s is not repairable", v.Rule)
	}
	err = e.repo.RunInTx(ctx, OpReconcile, func(ctx context.Context, ops Ops) error {
		cur, err := loadUser(ctx, ops, v.UserID)
		if err != nil {
			return err
		}
		if cur.Role != v.Role || !samePrimary(cur, v) {
			return apperr.Conflict("user %s changed since the scan", v.Email)
		}

		switch v.Rule {
		case RuleStalePrimary, RuleMemberWithoutCommittee:
			next, err := transition(cur, identityEvent(primaryDropped))
			if err != nil {
				return err
			}
			if cur.Role == models.RoleMember && cur.CommitteeID != nil {
				if err := pullIgnoringMissing(ctx, ops, *cur.CommitteeID, models.CommitteeMembers, cur.ID); err != nil {
					return err
				}
			}
			return saveRoleState(ctx, ops, cur, next)
		case RuleMemberNotOnRoster:
			return addToSet(ctx, ops, *v.CommitteeID, models.CommitteeMembers, v.UserID)
		case RuleCoordinatorNotOnRoster:
			return addToSet(ctx, ops, *v.CommitteeID, models.CommitteeCoordinators, v.UserID)
		}
		return apperr.Invalid("unknown rule %q", v.Rule)
	})
	if err != nil {
		return err
	}

	e.audit.RoleStateRepaired(ctx, System.ID, v.UserID, v.CommitteeID, v.Rule)
	return nil
}

// samePrimary reports whether the violation still describes cur's primary
// link. Coordinator rules carry the roster committee instead.
func samePrimary(cur models.User, v Violation) bool {
	switch v.Rule {
	case RuleCoordinatorNotOnRoster:
		return v.CommitteeID != nil && cur.Coordinates(*v.CommitteeID)
	case RuleStalePrimary, RuleMemberWithoutCommittee, RuleMemberNotOnRoster:
		if cur.CommitteeID == nil || v.CommitteeID == nil {
			return cur.CommitteeID == nil && v.CommitteeID == nil
		}
		return *cur.CommitteeID == *v.CommitteeID
	}
	return true
}
