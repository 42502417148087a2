// internal/app/features/adminusers/users.go
package adminusers

import (
	"context"
	"errors"
	"net/http"
	"strings"

	uierrors "github.com/dalemusser/festivo/internal/app/features/errors"
	"github.com/dalemusser/festivo/internal/app/membership"
	userstore "github.com/dalemusser/festivo/internal/app/store/users"
	"github.com/dalemusser/festivo/internal/app/system/apperr"
	"github.com/dalemusser/festivo/internal/app/system/authz"
	"github.com/dalemusser/festivo/internal/app/system/inputval"
	"github.com/dalemusser/festivo/internal/app/system/normalize"
	"github.com/dalemusser/festivo/internal/app/system/timeouts"
	"github.com/dalemusser/festivo/internal/domain/models"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// ServeUsers lists users ordered by name, one keyset page at a time.
// Optional filters: q (name prefix or email), role, after, before.
//
// Route: GET /api/admin/users
func (h *Handler) ServeUsers(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	role := normalize.Role(q.Get("role"))
	if role != "" && !models.IsValidRole(role) {
		h.ErrLog.Write(w, r, "list users: bad role", apperr.Invalid("invalid role %q", role))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Long())
	defer cancel()

	page, err := h.users.List(ctx, userstore.ListFilter{
		Role:   role,
		Search: normalize.QueryParam(q.Get("q")),
		After:  strings.TrimSpace(q.Get("after")),
		Before: strings.TrimSpace(q.Get("before")),
	})
	if err != nil {
		h.ErrLog.LogServerError(w, r, "database error listing users", err)
		return
	}
	rows, err := h.rows(ctx, page.Users)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "database error resolving user committees", err)
		return
	}

	uierrors.WriteJSON(w, http.StatusOK, usersPage{
		Users:      rows,
		HasPrev:    page.HasPrev,
		HasNext:    page.HasNext,
		PrevCursor: page.PrevCursor,
		NextCursor: page.NextCursor,
	})
}

type roleInput struct {
	Role        string `json:"role"`
	CommitteeID string `json:"committeeId"`
}

// HandleAssignRole changes a user's role through the membership engine.
// The member role requires committeeId.
//
// Route: PUT /api/admin/users/{id}/role
func (h *Handler) HandleAssignRole(w http.ResponseWriter, r *http.Request) {
	caller, ok := authz.Caller(r)
	if !ok {
		h.ErrLog.LogUnauthorized(w, r)
		return
	}
	id, err := inputval.ObjectID("user id", chi.URLParam(r, "id"))
	if err != nil {
		h.ErrLog.Write(w, r, "assign role: bad id", err)
		return
	}
	var in roleInput
	if err := inputval.DecodeJSON(r, &in); err != nil {
		h.ErrLog.Write(w, r, "assign role: decode body", err)
		return
	}
	committeeID, err := inputval.OptionalObjectID("committeeId", in.CommitteeID)
	if err != nil {
		h.ErrLog.Write(w, r, "assign role: bad committee id", err)
		return
	}
	role := normalize.Role(in.Role)

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	u, err := h.Engine.AssignRole(ctx, caller, membership.AssignRoleParams{
		UserID:      id,
		Role:        role,
		CommitteeID: committeeID,
	})
	if err != nil {
		h.ErrLog.Write(w, r, "assign role", err)
		return
	}
	h.writeRow(ctx, w, r, u)
}

type profileInput struct {
	Name      *string `json:"name"`
	Email     *string `json:"email"`
	CollegeID *string `json:"collegeId"`
	Year      *string `json:"year"`
}

// HandleUpdateProfile edits a user's name, email, college ID or year.
// Omitted fields are left unchanged.
//
// Route: PUT /api/admin/users/{id}
func (h *Handler) HandleUpdateProfile(w http.ResponseWriter, r *http.Request) {
	caller, ok := authz.Caller(r)
	if !ok {
		h.ErrLog.LogUnauthorized(w, r)
		return
	}
	id, err := inputval.ObjectID("user id", chi.URLParam(r, "id"))
	if err != nil {
		h.ErrLog.Write(w, r, "update user: bad id", err)
		return
	}
	var in profileInput
	if err := inputval.DecodeJSON(r, &in); err != nil {
		h.ErrLog.Write(w, r, "update user: decode body", err)
		return
	}

	upd := userstore.ProfileUpdate{CollegeID: trimmed(in.CollegeID), Year: trimmed(in.Year)}
	var changed []string
	if in.Name != nil {
		name := normalize.Name(*in.Name)
		if name == "" {
			h.ErrLog.Write(w, r, "update user: empty name", apperr.Invalid("name cannot be empty"))
			return
		}
		upd.Name = &name
		changed = append(changed, "name")
	}
	if in.Email != nil {
		email := normalize.Email(*in.Email)
		if !inputval.IsValidEmail(email) {
			h.ErrLog.Write(w, r, "update user: bad email", apperr.Invalid("a valid email is required"))
			return
		}
		upd.Email = &email
		changed = append(changed, "email")
	}
	if upd.CollegeID != nil {
		changed = append(changed, "college_id")
	}
	if upd.Year != nil {
		changed = append(changed, "year")
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	if upd.Email != nil {
		taken, err := h.users.EmailExistsForOther(ctx, *upd.Email, id)
		if err != nil {
			h.ErrLog.LogServerError(w, r, "database error checking email", err)
			return
		}
		if taken {
			h.ErrLog.Write(w, r, "update user: duplicate email", apperr.Conflict("a user with this email already exists"))
			return
		}
	}

	err = h.users.UpdateProfile(ctx, id, upd)
	switch {
	case errors.Is(err, mongo.ErrNoDocuments):
		uierrors.WriteError(w, http.StatusNotFound, "not_found", "User not found.")
		return
	case errors.Is(err, userstore.ErrDuplicateEmail):
		h.ErrLog.Write(w, r, "update user: duplicate email", apperr.Conflict("a user with this email already exists"))
		return
	case err != nil:
		h.ErrLog.LogServerError(w, r, "database error updating user", err)
		return
	}

	h.AuditLog.UserUpdated(ctx, r, caller.ID, id, strings.Join(changed, ","))
	h.writeUser(ctx, w, r, id)
}

type blockInput struct {
	IsBlocked *bool `json:"isBlocked"`
}

// HandleBlock blocks or unblocks a user. Blocked users cannot sign in.
//
// Route: PUT /api/admin/users/{id}/block
func (h *Handler) HandleBlock(w http.ResponseWriter, r *http.Request) {
	caller, ok := authz.Caller(r)
	if !ok {
		h.ErrLog.LogUnauthorized(w, r)
		return
	}
	id, err := inputval.ObjectID("user id", chi.URLParam(r, "id"))
	if err != nil {
		h.ErrLog.Write(w, r, "block user: bad id", err)
		return
	}
	var in blockInput
	if err := inputval.DecodeJSON(r, &in); err != nil {
		h.ErrLog.Write(w, r, "block user: decode body", err)
		return
	}
	if in.IsBlocked == nil {
		h.ErrLog.Write(w, r, "block user: missing flag", apperr.Invalid("isBlocked must be boolean"))
		return
	}
	if *in.IsBlocked && id == caller.ID {
		h.ErrLog.Write(w, r, "block user: self", apperr.Invalid("you can't block your own account"))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	if err := h.users.SetBlocked(ctx, id, *in.IsBlocked); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			uierrors.WriteError(w, http.StatusNotFound, "not_found", "User not found.")
			return
		}
		h.ErrLog.LogServerError(w, r, "database error blocking user", err)
		return
	}

	h.AuditLog.UserBlocked(ctx, r, caller.ID, id, *in.IsBlocked)
	h.writeUser(ctx, w, r, id)
}

// HandleDelete removes a user and every committee and event reference to
// them. Admins cannot delete themselves or the last admin.
//
// Route: DELETE /api/admin/users/{id}
func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	caller, ok := authz.Caller(r)
	if !ok {
		h.ErrLog.LogUnauthorized(w, r)
		return
	}
	id, err := inputval.ObjectID("user id", chi.URLParam(r, "id"))
	if err != nil {
		h.ErrLog.Write(w, r, "delete user: bad id", err)
		return
	}
	if id == caller.ID {
		h.ErrLog.Write(w, r, "delete user: self", apperr.Invalid("you can't delete your own account"))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	if _, err := h.Engine.DeleteIdentity(ctx, caller, membership.DeleteIdentityParams{UserID: id}); err != nil {
		h.ErrLog.Write(w, r, "delete user", err)
		return
	}
	uierrors.WriteJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func (h *Handler) writeUser(ctx context.Context, w http.ResponseWriter, r *http.Request, id primitive.ObjectID) {
	u, err := h.users.GetByID(ctx, id)
	if errors.Is(err, mongo.ErrNoDocuments) {
		uierrors.WriteError(w, http.StatusNotFound, "not_found", "User not found.")
		return
	}
	if err != nil {
		h.ErrLog.LogServerError(w, r, "database error loading user", err)
		return
	}
	h.writeRow(ctx, w, r, *u)
}

func (h *Handler) writeRow(ctx context.Context, w http.ResponseWriter, r *http.Request, u models.User) {
	row, err := h.row(ctx, u)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "database error resolving user committees", err)
		return
	}
	uierrors.WriteJSON(w, http.StatusOK, row)
}

func trimmed(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	return &v
}
