// internal/app/features/adminusers/coordinators.go
package adminusers

import (
	"context"
	"net/http"

	uierrors "github.com/dalemusser/festivo/internal/app/features/errors"
	"github.com/dalemusser/festivo/internal/app/membership"
	"github.com/dalemusser/festivo/internal/app/reporting"
	"github.com/dalemusser/festivo/internal/app/system/authz"
	"github.com/dalemusser/festivo/internal/app/system/inputval"
	"github.com/dalemusser/festivo/internal/app/system/timeouts"
	"github.com/dalemusser/festivo/internal/domain/models"
	"github.com/go-chi/chi/v5"
)

type coordinatorResult struct {
	Committee reporting.CommitteeDetail `json:"committee"`
	User      *userRow                  `json:"user"`
}

// HandleAddCoordinator makes a user a coordinator of the committee. The
// user becomes a coordinator if they were not one already.
//
// Route: POST /api/admin/committees/{cid}/coordinators
func (h *Handler) HandleAddCoordinator(w http.ResponseWriter, r *http.Request) {
	caller, ok := authz.Caller(r)
	if !ok {
		h.ErrLog.LogUnauthorized(w, r)
		return
	}
	cid, err := inputval.ObjectID("committee id", chi.URLParam(r, "cid"))
	if err != nil {
		h.ErrLog.Write(w, r, "add coordinator: bad committee id", err)
		return
	}
	var in struct {
		UserID string `json:"userId"`
	}
	if err := inputval.DecodeJSON(r, &in); err != nil {
		h.ErrLog.Write(w, r, "add coordinator: decode body", err)
		return
	}
	uid, err := inputval.ObjectID("userId", in.UserID)
	if err != nil {
		h.ErrLog.Write(w, r, "add coordinator: bad user id", err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	c, u, err := h.Engine.AddCoordinator(ctx, caller, membership.CoordinatorParams{CommitteeID: cid, UserID: uid})
	if err != nil {
		h.ErrLog.Write(w, r, "add coordinator", err)
		return
	}
	h.writeCoordinatorResult(ctx, w, r, c, &u)
}

// HandleRemoveCoordinator removes a coordinator from the committee. A user
// left with no coordinated committees is demoted to student.
//
// Route: DELETE /api/admin/committees/{cid}/coordinators/{uid}
func (h *Handler) HandleRemoveCoordinator(w http.ResponseWriter, r *http.Request) {
	caller, ok := authz.Caller(r)
	if !ok {
		h.ErrLog.LogUnauthorized(w, r)
		return
	}
	cid, err := inputval.ObjectID("committee id", chi.URLParam(r, "cid"))
	if err != nil {
		h.ErrLog.Write(w, r, "remove coordinator: bad committee id", err)
		return
	}
	uid, err := inputval.ObjectID("user id", chi.URLParam(r, "uid"))
	if err != nil {
		h.ErrLog.Write(w, r, "remove coordinator: bad user id", err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	c, u, err := h.Engine.RemoveCoordinator(ctx, caller, membership.CoordinatorParams{CommitteeID: cid, UserID: uid})
	if err != nil {
		h.ErrLog.Write(w, r, "remove coordinator", err)
		return
	}
	h.writeCoordinatorResult(ctx, w, r, c, u)
}

func (h *Handler) writeCoordinatorResult(ctx context.Context, w http.ResponseWriter, r *http.Request, c models.Committee, u *models.User) {
	details, err := h.reports.DescribeCommittees(ctx, []models.Committee{c})
	if err != nil {
		h.ErrLog.LogServerError(w, r, "database error resolving committee", err)
		return
	}
	out := coordinatorResult{Committee: details[0]}
	if u != nil {
		row, err := h.row(ctx, *u)
		if err != nil {
			h.ErrLog.LogServerError(w, r, "database error resolving user committees", err)
			return
		}
		out.User = &row
	}
	uierrors.WriteJSON(w, http.StatusOK, out)
}
