// internal/app/system/authz/authz.go
package authz

import (
	"net/http"
	"strings"

	"github.com/dalemusser/festivo/internal/app/system/auth"
	"github.com/dalemusser/festivo/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// StaffRoles may verify tokens, mark attendance and record scores.
var StaffRoles = []string{models.RoleMember, models.RoleCoordinator, models.RoleAdmin}

// UserCtx returns the user's role (lowercased), name, Mongo ObjectID, and a found flag.
// If no user is present in context or the user ID is malformed, it returns
// "visitor", "", NilObjectID, false, so ok=true always means a valid ObjectID.
func UserCtx(r *http.Request) (role string, name string, userID primitive.ObjectID, ok bool) {
	user, ok := auth.CurrentUser(r)
	if !ok {
		return "visitor", "", primitive.NilObjectID, false
	}
	userID, err := primitive.ObjectIDFromHex(user.ID)
	if err != nil {
		// Malformed user ID in session: fail closed.
		return "visitor", "", primitive.NilObjectID, false
	}
	return strings.ToLower(user.Role), user.Name, userID, true
}

// IsAdmin reports whether the current request's user is an admin.
func IsAdmin(r *http.Request) bool {
	return HasRole(r, models.RoleAdmin)
}

// IsCoordinator reports whether the current request's user is a coordinator.
func IsCoordinator(r *http.Request) bool {
	return HasRole(r, models.RoleCoordinator)
}

// IsMember reports whether the current request's user is a committee member.
func IsMember(r *http.Request) bool {
	return HasRole(r, models.RoleMember)
}

// IsStudent reports whether the current request's user is a student.
func IsStudent(r *http.Request) bool {
	return HasRole(r, models.RoleStudent)
}

// IsStaff reports whether the current request's user holds a staff role.
func IsStaff(r *http.Request) bool {
	return HasAnyRole(r, StaffRoles...)
}

// UserCommitteeID returns the caller's primary committee, or NilObjectID.
func UserCommitteeID(r *http.Request) primitive.ObjectID {
	user, ok := auth.CurrentUser(r)
	if !ok || user.CommitteeID == "" {
		return primitive.NilObjectID
	}
	oid, err := primitive.ObjectIDFromHex(user.CommitteeID)
	if err != nil {
		return primitive.NilObjectID
	}
	return oid
}

// CanViewUser reports whether the caller may read data owned by target:
// only the user themselves and admins can.
func CanViewUser(r *http.Request, target primitive.ObjectID) bool {
	role, _, uid, ok := UserCtx(r)
	if !ok {
		return false
	}
	return role == models.RoleAdmin || uid == target
}
