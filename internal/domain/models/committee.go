// internal/domain/models/committee.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Committee set fields that the membership engine mutates.
const (
	CommitteeCoordinators = "coordinator_ids"
	CommitteeMembers      = "member_ids"
	CommitteeEvents       = "assigned_event_ids"
)

// Committee is an administrative group that owns events.
//
// NOTE:
//   - CoordinatorIDs and MemberIDs are independent sets; an identity may
//     appear in both.
//   - Committees are never hard-deleted; IsActive=false hides them.
type Committee struct {
	ID               primitive.ObjectID   `bson:"_id,omitempty" json:"id"`
	Name             string               `bson:"name" json:"name"`
	NameCI           string               `bson:"name_ci" json:"-"`
	Description      string               `bson:"description" json:"description"`
	CoordinatorIDs   []primitive.ObjectID `bson:"coordinator_ids" json:"coordinator_ids"`
	MemberIDs        []primitive.ObjectID `bson:"member_ids" json:"member_ids"`
	AssignedEventIDs []primitive.ObjectID `bson:"assigned_event_ids" json:"assigned_event_ids"`
	IsActive         bool                 `bson:"is_active" json:"is_active"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}

// HasCoordinator reports whether userID is in CoordinatorIDs.
func (c Committee) HasCoordinator(userID primitive.ObjectID) bool {
	return containsID(c.CoordinatorIDs, userID)
}

// HasMember reports whether userID is in MemberIDs.
func (c Committee) HasMember(userID primitive.ObjectID) bool {
	return containsID(c.MemberIDs, userID)
}

// CommitteeRef is the trimmed projection used in user listings.
type CommitteeRef struct {
	ID   primitive.ObjectID `bson:"_id" json:"id"`
	Name string             `bson:"name" json:"name"`
}

func containsID(ids []primitive.ObjectID, id primitive.ObjectID) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}
