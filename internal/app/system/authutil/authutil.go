// internal/app/system/authutil/authutil.go
package authutil

import (
	"github.com/dalemusser/festivo/internal/app/system/auth"
	"github.com/dalemusser/festivo/internal/domain/models"
)

// MinPasswordLength is the shortest password accepted at signup.
const MinPasswordLength = 6

// SessionUser converts a stored identity into the caller injected into
// request contexts.
func SessionUser(u models.User) *auth.SessionUser {
	su := &auth.SessionUser{
		ID:        u.ID.Hex(),
		Name:      u.Name,
		Email:     u.Email,
		Role:      u.Role,
		IsBlocked: u.IsBlocked,
	}
	if u.CommitteeID != nil {
		su.CommitteeID = u.CommitteeID.Hex()
	}
	return su
}

// CanUsePassword reports whether u may sign in with a password. Google
// identities carry no hash.
func CanUsePassword(u models.User) bool {
	return u.PasswordHash != "" && (u.AuthMethod == "" || u.AuthMethod == models.AuthMethodPassword)
}
