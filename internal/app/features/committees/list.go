// internal/app/features/committees/list.go
package committees

import (
	"context"
	"errors"
	"net/http"

	uierrors "github.com/dalemusser/festivo/internal/app/features/errors"
	"github.com/dalemusser/festivo/internal/app/system/authz"
	"github.com/dalemusser/festivo/internal/app/system/inputval"
	"github.com/dalemusser/festivo/internal/app/system/timeouts"
	"github.com/dalemusser/festivo/internal/domain/models"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// ServeList returns every active committee with rosters resolved.
//
// Route: GET /api/committees
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	cs, err := h.committees.ListActive(ctx)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "database error listing committees", err)
		return
	}
	details, err := h.reports.DescribeCommittees(ctx, cs)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "database error resolving committees", err)
		return
	}
	uierrors.WriteJSON(w, http.StatusOK, details)
}

// ServeMine returns the caller's active committees: every committee for
// admins, otherwise the ones the caller coordinates or belongs to.
//
// Route: GET /api/committees/mine
func (h *Handler) ServeMine(w http.ResponseWriter, r *http.Request) {
	role, _, uid, ok := authz.UserCtx(r)
	if !ok {
		h.ErrLog.LogUnauthorized(w, r)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	var cs []models.Committee
	var err error
	if role == models.RoleAdmin {
		cs, err = h.committees.ListActive(ctx)
	} else {
		cs, err = h.mine(ctx, uid)
	}
	if err != nil {
		h.ErrLog.LogServerError(w, r, "database error listing own committees", err)
		return
	}
	uierrors.WriteJSON(w, http.StatusOK, cs)
}

func (h *Handler) mine(ctx context.Context, uid primitive.ObjectID) ([]models.Committee, error) {
	coordinated, err := h.committees.ListCoordinatedBy(ctx, uid)
	if err != nil {
		return nil, err
	}
	member, err := h.committees.ListWithMember(ctx, uid)
	if err != nil {
		return nil, err
	}
	seen := make(map[primitive.ObjectID]bool, len(coordinated))
	out := make([]models.Committee, 0, len(coordinated)+len(member))
	for _, c := range append(coordinated, member...) {
		if !seen[c.ID] {
			seen[c.ID] = true
			out = append(out, c)
		}
	}
	return out, nil
}

// ServeDashboard returns a committee's dashboard. Admins may open any
// committee; coordinators and members only their own active ones.
//
// Route: GET /api/committees/{id}/dashboard
func (h *Handler) ServeDashboard(w http.ResponseWriter, r *http.Request) {
	role, _, uid, ok := authz.UserCtx(r)
	if !ok {
		h.ErrLog.LogUnauthorized(w, r)
		return
	}
	id, err := inputval.ObjectID("committee id", chi.URLParam(r, "id"))
	if err != nil {
		h.ErrLog.Write(w, r, "committee dashboard: bad id", err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Long())
	defer cancel()

	c, err := h.committees.GetByID(ctx, id)
	if errors.Is(err, mongo.ErrNoDocuments) {
		uierrors.WriteError(w, http.StatusNotFound, "not_found", "Committee not found.")
		return
	}
	if err != nil {
		h.ErrLog.LogServerError(w, r, "database error loading committee", err)
		return
	}
	if role != models.RoleAdmin && (!c.IsActive || !(c.HasCoordinator(uid) || c.HasMember(uid))) {
		h.ErrLog.LogForbidden(w, r, "Access denied.")
		return
	}

	dash, err := h.reports.CommitteeDashboard(ctx, *c)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "database error building committee dashboard", err)
		return
	}
	uierrors.WriteJSON(w, http.StatusOK, dash)
}
