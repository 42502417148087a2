// internal/app/features/coordinator/access.go
package coordinator

import (
	"context"
	"errors"
	"net/http"

	"github.com/dalemusser/festivo/internal/app/system/authz"
	"github.com/dalemusser/festivo/internal/app/system/inputval"
	"github.com/dalemusser/festivo/internal/app/system/timeouts"
	"github.com/dalemusser/festivo/internal/domain/models"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/mongo"
)

type ctxKey struct{}

// RequireCoordinatorAccess admits callers who coordinate at least one
// active committee and stashes those committees on the request context.
func (h *Handler) RequireCoordinatorAccess(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _, uid, ok := authz.UserCtx(r)
		if !ok {
			h.ErrLog.LogUnauthorized(w, r)
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
		cs, err := h.committees.ListCoordinatedBy(ctx, uid)
		cancel()
		if err != nil {
			h.ErrLog.LogServerError(w, r, "database error loading coordinated committees", err)
			return
		}
		if len(cs) == 0 {
			h.ErrLog.LogForbidden(w, r, "You are not assigned as coordinator of any active committee.")
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), ctxKey{}, cs)))
	})
}

// coordinated returns the committees stashed by RequireCoordinatorAccess.
func coordinated(r *http.Request) []models.Committee {
	cs, _ := r.Context().Value(ctxKey{}).([]models.Committee)
	return cs
}

// ownCommittee loads the {cid} committee and checks the caller coordinates
// it. It writes the error response and returns false on failure.
func (h *Handler) ownCommittee(ctx context.Context, w http.ResponseWriter, r *http.Request) (models.Committee, bool) {
	_, _, uid, ok := authz.UserCtx(r)
	if !ok {
		h.ErrLog.LogUnauthorized(w, r)
		return models.Committee{}, false
	}
	cid, err := inputval.ObjectID("committee id", chi.URLParam(r, "cid"))
	if err != nil {
		h.ErrLog.Write(w, r, "coordinator: bad committee id", err)
		return models.Committee{}, false
	}
	c, err := h.committees.GetByID(ctx, cid)
	if errors.Is(err, mongo.ErrNoDocuments) {
		h.ErrLog.LogForbidden(w, r, "Not authorized for this committee.")
		return models.Committee{}, false
	}
	if err != nil {
		h.ErrLog.LogServerError(w, r, "database error loading committee", err)
		return models.Committee{}, false
	}
	if !c.IsActive || !c.HasCoordinator(uid) {
		h.ErrLog.LogForbidden(w, r, "Not authorized for this committee.")
		return models.Committee{}, false
	}
	return *c, true
}
