// internal/app/features/registrations/register.go
package registrations

import (
	"context"
	"net/http"

	uierrors "github.com/dalemusser/festivo/internal/app/features/errors"
	"github.com/dalemusser/festivo/internal/app/participation"
	"github.com/dalemusser/festivo/internal/app/system/authz"
	"github.com/dalemusser/festivo/internal/app/system/inputval"
	"github.com/dalemusser/festivo/internal/app/system/timeouts"
	"github.com/dalemusser/festivo/internal/domain/models"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

type registerRequest struct {
	GroupMembers []string `json:"groupMembers"`
	PackageID    string   `json:"packageId"`
}

type registerResponse struct {
	Message      string              `json:"message"`
	Registration models.Registration `json:"registration"`
}

// HandleRegister registers the caller (as leader) for an event.
//
// Route: POST /api/events/{id}/register
func (h *Handler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	caller, ok := authz.Caller(r)
	if !ok {
		h.ErrLog.LogUnauthorized(w, r)
		return
	}
	eventID, err := inputval.ObjectID("event id", chi.URLParam(r, "id"))
	if err != nil {
		h.ErrLog.Write(w, r, "register: bad event id", err)
		return
	}

	var req registerRequest
	if err := inputval.DecodeJSON(r, &req); err != nil {
		h.ErrLog.Write(w, r, "register: decode body", err)
		return
	}
	group, err := inputval.ObjectIDs("groupMembers", req.GroupMembers)
	if err != nil {
		h.ErrLog.Write(w, r, "register: bad group member id", err)
		return
	}
	pkg, err := inputval.OptionalObjectID("packageId", req.PackageID)
	if err != nil {
		h.ErrLog.Write(w, r, "register: bad package id", err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	reg, err := h.Participation.CreateRegistration(ctx, caller, participation.RegisterParams{
		EventID:        eventID,
		GroupMemberIDs: group,
		PackageID:      pkg,
	})
	if err != nil {
		h.ErrLog.Write(w, r, "create registration failed", err)
		return
	}

	h.Log.Info("registration created",
		zap.String("registration_id", reg.ID.Hex()),
		zap.String("event_id", eventID.Hex()),
		zap.Int("group_size", len(group)))

	uierrors.WriteJSON(w, http.StatusCreated, registerResponse{
		Message:      "Registration successful",
		Registration: reg,
	})
}

// ServeUserRegistrations lists the registrations a user leads or belongs to.
// Only the user themselves and admins may read them.
//
// Route: GET /api/users/{id}/registrations
func (h *Handler) ServeUserRegistrations(w http.ResponseWriter, r *http.Request) {
	caller, ok := authz.Caller(r)
	if !ok {
		h.ErrLog.LogUnauthorized(w, r)
		return
	}
	userID, err := inputval.ObjectID("user id", chi.URLParam(r, "id"))
	if err != nil {
		h.ErrLog.Write(w, r, "user registrations: bad user id", err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	views, err := h.Participation.ListUserRegistrations(ctx, caller, userID)
	if err != nil {
		h.ErrLog.Write(w, r, "list user registrations failed", err)
		return
	}
	uierrors.WriteJSON(w, http.StatusOK, views)
}

// ServeEventRegistrations lists an event's registrations for staff.
//
// Route: GET /api/events/{id}/registrations
func (h *Handler) ServeEventRegistrations(w http.ResponseWriter, r *http.Request) {
	caller, ok := authz.Caller(r)
	if !ok {
		h.ErrLog.LogUnauthorized(w, r)
		return
	}
	eventID, err := inputval.ObjectID("event id", chi.URLParam(r, "id"))
	if err != nil {
		h.ErrLog.Write(w, r, "event registrations: bad event id", err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	views, err := h.Participation.ListEventRegistrations(ctx, caller, eventID)
	if err != nil {
		h.ErrLog.Write(w, r, "list event registrations failed", err)
		return
	}
	uierrors.WriteJSON(w, http.StatusOK, views)
}
