package authz

import (
	"net/http"

	"github.com/dalemusser/festivo/internal/app/membership"
)

// Caller returns the signed-in user as an engine actor.
func Caller(r *http.Request) (membership.Actor, bool) {
	role, _, id, ok := UserCtx(r)
	if !ok {
		return membership.Actor{}, false
	}
	return membership.Actor{ID: id, Role: role}, true
}
