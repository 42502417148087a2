// internal/app/features/adminusers/committee.go
package adminusers

import (
	"context"
	"net/http"

	"github.com/dalemusser/festivo/internal/app/membership"
	"github.com/dalemusser/festivo/internal/app/system/authz"
	"github.com/dalemusser/festivo/internal/app/system/inputval"
	"github.com/dalemusser/festivo/internal/app/system/timeouts"
	"github.com/go-chi/chi/v5"
)

type committeeInput struct {
	CommitteeID string `json:"committeeId"`
}

// HandleAssignCommittee sets the primary committee of a member or
// coordinator and lists them on it.
//
// Route: PUT /api/admin/users/{id}/committee
func (h *Handler) HandleAssignCommittee(w http.ResponseWriter, r *http.Request) {
	caller, ok := authz.Caller(r)
	if !ok {
		h.ErrLog.LogUnauthorized(w, r)
		return
	}
	id, err := inputval.ObjectID("user id", chi.URLParam(r, "id"))
	if err != nil {
		h.ErrLog.Write(w, r, "assign committee: bad id", err)
		return
	}
	var in committeeInput
	if err := inputval.DecodeJSON(r, &in); err != nil {
		h.ErrLog.Write(w, r, "assign committee: decode body", err)
		return
	}
	cid, err := inputval.ObjectID("committeeId", in.CommitteeID)
	if err != nil {
		h.ErrLog.Write(w, r, "assign committee: bad committee id", err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	u, err := h.Engine.AssignCommittee(ctx, caller, membership.AssignCommitteeParams{UserID: id, CommitteeID: cid})
	if err != nil {
		h.ErrLog.Write(w, r, "assign committee", err)
		return
	}
	h.writeRow(ctx, w, r, u)
}

// HandleUnassignCommittee clears a user's primary committee. Members are
// reset to student.
//
// Route: DELETE /api/admin/users/{id}/committee
func (h *Handler) HandleUnassignCommittee(w http.ResponseWriter, r *http.Request) {
	caller, ok := authz.Caller(r)
	if !ok {
		h.ErrLog.LogUnauthorized(w, r)
		return
	}
	id, err := inputval.ObjectID("user id", chi.URLParam(r, "id"))
	if err != nil {
		h.ErrLog.Write(w, r, "unassign committee: bad id", err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	u, err := h.Engine.UnassignCommittee(ctx, caller, membership.UnassignCommitteeParams{UserID: id})
	if err != nil {
		h.ErrLog.Write(w, r, "unassign committee", err)
		return
	}
	h.writeRow(ctx, w, r, u)
}
