// internal/app/features/committees/edit.go
package committees

import (
	"context"
	"errors"
	"net/http"
	"strings"

	uierrors "github.com/dalemusser/festivo/internal/app/features/errors"
	committeestore "github.com/dalemusser/festivo/internal/app/store/committees"
	"github.com/dalemusser/festivo/internal/app/system/apperr"
	"github.com/dalemusser/festivo/internal/app/system/authz"
	"github.com/dalemusser/festivo/internal/app/system/htmlsanitize"
	"github.com/dalemusser/festivo/internal/app/system/inputval"
	"github.com/dalemusser/festivo/internal/app/system/normalize"
	"github.com/dalemusser/festivo/internal/app/system/timeouts"
	"github.com/dalemusser/festivo/internal/domain/models"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// committeeInput is the create/update body. Rosters are managed through
// the coordinator and member endpoints, never here.
type committeeInput struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
}

// nameTaken reports whether another active committee already uses name.
func (h *Handler) nameTaken(ctx context.Context, name string, self primitive.ObjectID) (bool, error) {
	c, err := h.committees.GetActiveByName(ctx, name)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return c.ID != self, nil
}

// HandleCreate creates an active committee with empty rosters.
//
// Route: POST /api/committees
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	caller, ok := authz.Caller(r)
	if !ok {
		h.ErrLog.LogUnauthorized(w, r)
		return
	}
	var in committeeInput
	if err := inputval.DecodeJSON(r, &in); err != nil {
		h.ErrLog.Write(w, r, "create committee: decode body", err)
		return
	}
	name := ""
	if in.Name != nil {
		name = normalize.Name(*in.Name)
	}
	if name == "" {
		h.ErrLog.Write(w, r, "create committee: missing name", apperr.Invalid("committee name is required"))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	taken, err := h.nameTaken(ctx, name, primitive.NilObjectID)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "database error checking committee name", err)
		return
	}
	if taken {
		h.ErrLog.Write(w, r, "create committee: duplicate", apperr.Conflict("a committee named %q already exists", name))
		return
	}

	c := models.Committee{Name: name}
	if in.Description != nil {
		c.Description = htmlsanitize.Sanitize(*in.Description)
	}
	c, err = h.committees.Create(ctx, c)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "database error creating committee", err)
		return
	}

	h.AuditLog.CommitteeCreated(ctx, r, caller.ID, c.ID, c.Name)
	uierrors.WriteJSON(w, http.StatusCreated, c)
}

// HandleUpdate renames or re-describes an active committee.
//
// Route: PUT /api/committees/{id}
func (h *Handler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	caller, ok := authz.Caller(r)
	if !ok {
		h.ErrLog.LogUnauthorized(w, r)
		return
	}
	id, err := inputval.ObjectID("committee id", chi.URLParam(r, "id"))
	if err != nil {
		h.ErrLog.Write(w, r, "update committee: bad id", err)
		return
	}
	var in committeeInput
	if err := inputval.DecodeJSON(r, &in); err != nil {
		h.ErrLog.Write(w, r, "update committee: decode body", err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	var upd committeestore.CommitteeUpdate
	var changed []string
	if in.Name != nil {
		name := normalize.Name(*in.Name)
		if name == "" {
			h.ErrLog.Write(w, r, "update committee: empty name", apperr.Invalid("committee name cannot be empty"))
			return
		}
		taken, err := h.nameTaken(ctx, name, id)
		if err != nil {
			h.ErrLog.LogServerError(w, r, "database error checking committee name", err)
			return
		}
		if taken {
			h.ErrLog.Write(w, r, "update committee: duplicate", apperr.Conflict("a committee named %q already exists", name))
			return
		}
		upd.Name = &name
		changed = append(changed, "name")
	}
	if in.Description != nil {
		d := htmlsanitize.Sanitize(*in.Description)
		upd.Description = &d
		changed = append(changed, "description")
	}

	c, err := h.committees.Update(ctx, id, upd)
	if errors.Is(err, mongo.ErrNoDocuments) {
		uierrors.WriteError(w, http.StatusNotFound, "not_found", "Committee not found.")
		return
	}
	if err != nil {
		h.ErrLog.LogServerError(w, r, "database error updating committee", err)
		return
	}

	h.AuditLog.CommitteeUpdated(ctx, r, caller.ID, c.ID, strings.Join(changed, ","))
	uierrors.WriteJSON(w, http.StatusOK, c)
}

// HandleDelete soft-deletes a committee. Rosters and events are left as
// they are; inactive committees reject membership changes.
//
// Route: DELETE /api/committees/{id}
func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	caller, ok := authz.Caller(r)
	if !ok {
		h.ErrLog.LogUnauthorized(w, r)
		return
	}
	id, err := inputval.ObjectID("committee id", chi.URLParam(r, "id"))
	if err != nil {
		h.ErrLog.Write(w, r, "delete committee: bad id", err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
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
	if err := h.committees.SoftDelete(ctx, id); err != nil {
		h.ErrLog.LogServerError(w, r, "database error deleting committee", err)
		return
	}

	h.AuditLog.CommitteeDeleted(ctx, r, caller.ID, id, c.Name)
	uierrors.WriteJSON(w, http.StatusOK, map[string]string{"message": "Committee deleted successfully"})
}
