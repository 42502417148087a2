package membership

import (
	"github.com/dalemusser/festivo/internal/app/system/apperr"
	"github.com/dalemusser/festivo/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type eventKind int

const (
	roleAssigned eventKind = iota + 1
	coordinatorAdded
	coordinatorRemoved
	memberAdded
	memberRemoved
	committeeAssigned
	committeeUnassigned
	primaryDropped
)

func (k eventKind) String() string {
	switch k {
	case roleAssigned:
		return "role_assigned"
	case coordinatorAdded:
		return "coordinator_added"
	case coordinatorRemoved:
		return "coordinator_removed"
	case memberAdded:
		return "member_added"
	case memberRemoved:
		return "member_removed"
	case committeeAssigned:
		return "committee_assigned"
	case committeeUnassigned:
		return "committee_unassigned"
	case primaryDropped:
		return "primary_dropped"
	}
	return "unknown"
}

// event is a single membership change applied to an identity.
// Role is only read for roleAssigned. CommitteeID is optional for
// roleAssigned, unused by committeeUnassigned and primaryDropped, and
// required for the others.
type event struct {
	kind        eventKind
	role        string
	committeeID *primitive.ObjectID
}

func assignRole(role string, committeeID *primitive.ObjectID) event {
	return event{kind: roleAssigned, role: role, committeeID: committeeID}
}

func committeeEvent(kind eventKind, committeeID primitive.ObjectID) event {
	return event{kind: kind, committeeID: &committeeID}
}

func identityEvent(kind eventKind) event {
	return event{kind: kind}
}

// transition derives the next role state of cur. It is the only place
// Role, CommitteeID and CoordinatedCommitteeIDs are computed. cur is not
// modified.
func transition(cur models.User, ev event) (models.User, error) {
	next := cur
	next.CoordinatedCommitteeIDs = cloneIDs(cur.CoordinatedCommitteeIDs)
	if cur.CommitteeID != nil {
		id := *cur.CommitteeID
		next.CommitteeID = &id
	}

	switch ev.kind {
	case roleAssigned:
		if !models.IsValidRole(ev.role) {
			return cur, apperr.Invalid("invalid role %q", ev.role)
		}
		next.Role = ev.role
		switch ev.role {
		case models.RoleMember:
			if ev.committeeID == nil {
				return cur, apperr.Invalid("committee is required for the member role")
			}
			id := *ev.committeeID
			next.CommitteeID = &id
		case models.RoleStudent, models.RoleAdmin:
			// Committee lists are left untouched.
			next.CommitteeID = nil
		case models.RoleCoordinator:
			if ev.committeeID != nil && cur.CommitteeID != nil && *ev.committeeID == *cur.CommitteeID {
				next.CoordinatedCommitteeIDs = addID(next.CoordinatedCommitteeIDs, *ev.committeeID)
			}
		}

	case coordinatorAdded:
		next.Role = models.RoleCoordinator
		next.CoordinatedCommitteeIDs = addID(next.CoordinatedCommitteeIDs, *ev.committeeID)

	case coordinatorRemoved:
		next.CoordinatedCommitteeIDs = removeID(next.CoordinatedCommitteeIDs, *ev.committeeID)
		if len(next.CoordinatedCommitteeIDs) == 0 && next.Role == models.RoleCoordinator {
			next.Role = models.RoleStudent
		}

	case memberAdded:
		if cur.Role != models.RoleStudent {
			return cur, apperr.Invalid("only students can be added as committee members (current role: %s)", cur.Role)
		}
		next.Role = models.RoleMember
		id := *ev.committeeID
		next.CommitteeID = &id

	case memberRemoved:
		next.Role = models.RoleStudent
		next.CommitteeID = nil

	case committeeAssigned:
		if cur.Role != models.RoleMember && cur.Role != models.RoleCoordinator {
			return cur, apperr.Invalid("user must be member or coordinator to be assigned to a committee (current role: %s)", cur.Role)
		}
		id := *ev.committeeID
		next.CommitteeID = &id
		if cur.Role == models.RoleCoordinator {
			next.CoordinatedCommitteeIDs = addID(next.CoordinatedCommitteeIDs, id)
		}

	case committeeUnassigned:
		if cur.CommitteeID == nil {
			return cur, apperr.Invalid("user is not assigned to any committee")
		}
		old := *cur.CommitteeID
		next.CommitteeID = nil
		switch cur.Role {
		case models.RoleMember:
			next.Role = models.RoleStudent
		case models.RoleCoordinator:
			next.CoordinatedCommitteeIDs = removeID(next.CoordinatedCommitteeIDs, old)
			if len(next.CoordinatedCommitteeIDs) == 0 {
				next.Role = models.RoleStudent
			}
		}

	case primaryDropped:
		// A member cannot exist without a primary committee.
		next.CommitteeID = nil
		if cur.Role == models.RoleMember {
			next.Role = models.RoleStudent
		}

	default:
		return cur, apperr.Internal("unknown membership event", nil)
	}

	return next, nil
}

func cloneIDs(ids []primitive.ObjectID) []primitive.ObjectID {
	out := make([]primitive.ObjectID, len(ids))
	copy(out, ids)
	return out
}

func containsID(ids []primitive.ObjectID, id primitive.ObjectID) bool {
	for _, x := range ids {
		if x == id {
			return true
		}
	}
	return false
}

func addID(ids []primitive.ObjectID, id primitive.ObjectID) []primitive.ObjectID {
	if containsID(ids, id) {
		return ids
	}
	return append(ids, id)
}

func removeID(ids []primitive.ObjectID, id primitive.ObjectID) []primitive.ObjectID {
	out := ids[:0]
	for _, x := range ids {
		if x != id {
			out = append(out, x)
		}
	}
	return out
}
