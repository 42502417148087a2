// internal/domain/models/user.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Role tags stored on User.Role.
const (
	RoleStudent     = "student"
	RoleMember      = "member"
	RoleCoordinator = "coordinator"
	RoleAdmin       = "admin"
)

// AllRoles lists every valid role in ascending privilege order.
var AllRoles = []string{RoleStudent, RoleMember, RoleCoordinator, RoleAdmin}

// IsValidRole reports whether role is one of the four role tags.
func IsValidRole(role string) bool {
	for _, r := range AllRoles {
		if r == role {
			return true
		}
	}
	return false
}

// User is a registered person (student, committee member, coordinator, admin).
//
// NOTE:
//   - CommitteeID is the primary committee link and is only meaningful for
//     the member path. Coordinators are linked through CoordinatedCommitteeIDs,
//     which may hold several committees.
//   - Role, CommitteeID and CoordinatedCommitteeIDs are derived by the
//     membership engine; other code should not write them directly.
type User struct {
	ID                      primitive.ObjectID   `bson:"_id,omitempty" json:"id"`
	Name                    string               `bson:"name" json:"name"`
	NameCI                  string               `bson:"name_ci" json:"-"`
	Email                   string               `bson:"email" json:"email"`
	PasswordHash            string               `bson:"password_hash,omitempty" json:"-"`
	AuthMethod              string               `bson:"auth_method,omitempty" json:"auth_method,omitempty"`
	Role                    string               `bson:"role" json:"role"`
	CommitteeID             *primitive.ObjectID  `bson:"committee_id,omitempty" json:"committee_id,omitempty"`
	CoordinatedCommitteeIDs []primitive.ObjectID `bson:"coordinated_committee_ids" json:"coordinated_committee_ids"`
	CollegeID               string               `bson:"college_id,omitempty" json:"college_id,omitempty"`
	Year                    string               `bson:"year,omitempty" json:"year,omitempty"`
	IsBlocked               bool                 `bson:"is_blocked" json:"is_blocked"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}

// Coordinates reports whether committeeID is in the user's coordinated set.
func (u User) Coordinates(committeeID primitive.ObjectID) bool {
	for _, id := range u.CoordinatedCommitteeIDs {
		if id == committeeID {
			return true
		}
	}
	return false
}

// UserRef is the trimmed projection of a user embedded in API responses.
type UserRef struct {
	ID        primitive.ObjectID `bson:"_id" json:"id"`
	Name      string             `bson:"name" json:"name"`
	Email     string             `bson:"email" json:"email"`
	CollegeID string             `bson:"college_id,omitempty" json:"college_id,omitempty"`
	Year      string             `bson:"year,omitempty" json:"year,omitempty"`
}

// Ref returns the trimmed projection of u.
func (u User) Ref() UserRef {
	return UserRef{ID: u.ID, Name: u.Name, Email: u.Email, CollegeID: u.CollegeID, Year: u.Year}
}
