// internal/app/features/coordinator/members.go
package coordinator

import (
	"context"
	"net/http"

	uierrors "github.com/dalemusser/festivo/internal/app/features/errors"
	"github.com/dalemusser/festivo/internal/app/membership"
	"github.com/dalemusser/festivo/internal/app/system/authz"
	"github.com/dalemusser/festivo/internal/app/system/inputval"
	"github.com/dalemusser/festivo/internal/app/system/timeouts"
	"github.com/dalemusser/festivo/internal/domain/models"
	"github.com/go-chi/chi/v5"
)

// ServeAvailableMembers lists students not linked to any committee.
//
// Route: GET /api/coordinator/members/available
func (h *Handler) ServeAvailableMembers(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()
	h.writeAvailable(ctx, w, r)
}

// ServeCommitteeAvailableMembers is ServeAvailableMembers scoped to a
// committee the caller coordinates.
//
// Route: GET /api/coordinator/{cid}/members/available
func (h *Handler) ServeCommitteeAvailableMembers(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	if _, ok := h.ownCommittee(ctx, w, r); !ok {
		return
	}
	h.writeAvailable(ctx, w, r)
}

func (h *Handler) writeAvailable(ctx context.Context, w http.ResponseWriter, r *http.Request) {
	users, err := h.users.ListUnassignedStudents(ctx)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "database error listing available students", err)
		return
	}
	refs := make([]models.UserRef, 0, len(users))
	for _, u := range users {
		refs = append(refs, u.Ref())
	}
	uierrors.WriteJSON(w, http.StatusOK, refs)
}

// HandleAddMember turns a student into a member of the committee.
//
// Route: POST /api/coordinator/{cid}/members
func (h *Handler) HandleAddMember(w http.ResponseWriter, r *http.Request) {
	caller, ok := authz.Caller(r)
	if !ok {
		h.ErrLog.LogUnauthorized(w, r)
		return
	}
	cid, err := inputval.ObjectID("committee id", chi.URLParam(r, "cid"))
	if err != nil {
		h.ErrLog.Write(w, r, "add member: bad committee id", err)
		return
	}
	var in struct {
		UserID string `json:"userId"`
	}
	if err := inputval.DecodeJSON(r, &in); err != nil {
		h.ErrLog.Write(w, r, "add member: decode body", err)
		return
	}
	uid, err := inputval.ObjectID("userId", in.UserID)
	if err != nil {
		h.ErrLog.Write(w, r, "add member: bad user id", err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	c, err := h.Engine.AddMember(ctx, caller, membership.MemberParams{CommitteeID: cid, UserID: uid})
	if err != nil {
		h.ErrLog.Write(w, r, "add member", err)
		return
	}
	h.writeCommittee(ctx, w, r, c)
}

// HandleRemoveMember removes a member from the committee and demotes them
// to student.
//
// Route: DELETE /api/coordinator/{cid}/members/{mid}
func (h *Handler) HandleRemoveMember(w http.ResponseWriter, r *http.Request) {
	caller, ok := authz.Caller(r)
	if !ok {
		h.ErrLog.LogUnauthorized(w, r)
		return
	}
	cid, err := inputval.ObjectID("committee id", chi.URLParam(r, "cid"))
	if err != nil {
		h.ErrLog.Write(w, r, "remove member: bad committee id", err)
		return
	}
	mid, err := inputval.ObjectID("member id", chi.URLParam(r, "mid"))
	if err != nil {
		h.ErrLog.Write(w, r, "remove member: bad member id", err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	c, err := h.Engine.RemoveMember(ctx, caller, membership.MemberParams{CommitteeID: cid, UserID: mid})
	if err != nil {
		h.ErrLog.Write(w, r, "remove member", err)
		return
	}
	h.writeCommittee(ctx, w, r, c)
}

func (h *Handler) writeCommittee(ctx context.Context, w http.ResponseWriter, r *http.Request, c models.Committee) {
	details, err := h.reports.DescribeCommittees(ctx, []models.Committee{c})
	if err != nil {
		h.ErrLog.LogServerError(w, r, "database error resolving committee", err)
		return
	}
	uierrors.WriteJSON(w, http.StatusOK, map[string]any{"committee": details[0]})
}
