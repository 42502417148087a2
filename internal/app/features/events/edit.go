// internal/app/features/events/edit.go
package events

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	uierrors "github.com/dalemusser/festivo/internal/app/features/errors"
	eventstore "github.com/dalemusser/festivo/internal/app/store/events"
	"github.com/dalemusser/festivo/internal/app/system/apperr"
	"github.com/dalemusser/festivo/internal/app/system/authz"
	"github.com/dalemusser/festivo/internal/app/system/htmlsanitize"
	"github.com/dalemusser/festivo/internal/app/system/inputval"
	"github.com/dalemusser/festivo/internal/app/system/timeouts"
	"github.com/dalemusser/festivo/internal/domain/models"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// eventInput is the create/update body. Absent fields are left unchanged
// on update.
type eventInput struct {
	Title        *string         `json:"title"`
	Description  *string         `json:"description"`
	CommitteeID  *string         `json:"committeeId"`
	DateTime     *time.Time      `json:"dateTime"`
	Venue        *string         `json:"venue"`
	Fee          *float64        `json:"fee"`
	Packages     *[]packageInput `json:"packages"`
	IsGroup      *bool           `json:"isGroup"`
	MaxGroupSize *int            `json:"maxGroupSize"`
	Rules        *[]string       `json:"rules"`
}

func str(p *string) string {
	if p == nil {
		return ""
	}
	return strings.TrimSpace(*p)
}

// validate checks the fields present in the body. Create additionally
// requires title, committee, date and venue.
func (in eventInput) validate(create bool) error {
	if create {
		if err := inputval.Required("title", str(in.Title), "committeeId", str(in.CommitteeID), "venue", str(in.Venue)); err != nil {
			return err
		}
		if in.DateTime == nil || in.DateTime.IsZero() {
			return apperr.Invalid("dateTime is required")
		}
	} else {
		if in.CommitteeID != nil {
			return apperr.Invalid("an event's committee cannot be changed")
		}
		if in.Title != nil && str(in.Title) == "" {
			return apperr.Invalid("title cannot be empty")
		}
		if in.Venue != nil && str(in.Venue) == "" {
			return apperr.Invalid("venue cannot be empty")
		}
	}
	if in.Fee != nil && *in.Fee < 0 {
		return apperr.Invalid("fee cannot be negative")
	}
	if in.MaxGroupSize != nil && *in.MaxGroupSize < 1 {
		return apperr.Invalid("maxGroupSize must be at least 1")
	}
	return nil
}

func (in eventInput) packages() ([]models.Package, error) {
	if in.Packages == nil {
		return []models.Package{}, nil
	}
	out := make([]models.Package, 0, len(*in.Packages))
	for _, p := range *in.Packages {
		name := strings.TrimSpace(p.Name)
		if name == "" {
			return nil, apperr.Invalid("package name is required")
		}
		if p.Price < 0 {
			return nil, apperr.Invalid("package price cannot be negative")
		}
		pkg := models.Package{
			Name:              name,
			Price:             p.Price,
			Description:       htmlsanitize.PlainText(p.Description),
			IsStudentDiscount: p.IsStudentDiscount,
			IsBulkPackage:     p.IsBulkPackage,
		}
		if p.ID != "" {
			id, err := inputval.ObjectID("package id", p.ID)
			if err != nil {
				return nil, err
			}
			pkg.ID = id
		}
		out = append(out, pkg)
	}
	return out, nil
}

// HandleCreate creates an event owned by an active committee and records
// it in the committee's assigned events.
//
// Route: POST /api/events
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	caller, ok := authz.Caller(r)
	if !ok {
		h.ErrLog.LogUnauthorized(w, r)
		return
	}
	var in eventInput
	if err := inputval.DecodeJSON(r, &in); err != nil {
		h.ErrLog.Write(w, r, "create event: decode body", err)
		return
	}
	if err := in.validate(true); err != nil {
		h.ErrLog.Write(w, r, "create event: invalid input", err)
		return
	}
	committeeID, err := inputval.ObjectID("committeeId", *in.CommitteeID)
	if err != nil {
		h.ErrLog.Write(w, r, "create event: bad committee id", err)
		return
	}
	pkgs, err := in.packages()
	if err != nil {
		h.ErrLog.Write(w, r, "create event: bad packages", err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	c, err := h.committees.GetByID(ctx, committeeID)
	if errors.Is(err, mongo.ErrNoDocuments) || (err == nil && !c.IsActive) {
		h.ErrLog.Write(w, r, "create event: committee", apperr.Invalid("committee not found"))
		return
	}
	if err != nil {
		h.ErrLog.LogServerError(w, r, "database error loading committee", err)
		return
	}

	ev := models.Event{
		Title:       str(in.Title),
		Description: htmlsanitize.Sanitize(str(in.Description)),
		CommitteeID: committeeID,
		DateTime:    in.DateTime.UTC(),
		Venue:       str(in.Venue),
		Packages:    pkgs,
	}
	if in.Fee != nil {
		ev.Fee = *in.Fee
	}
	if in.IsGroup != nil {
		ev.IsGroup = *in.IsGroup
	}
	if in.MaxGroupSize != nil {
		ev.MaxGroupSize = *in.MaxGroupSize
	}
	if in.Rules != nil {
		ev.Rules = htmlsanitize.PlainTextAll(*in.Rules)
	}

	ev, err = h.events.Create(ctx, ev)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "database error creating event", err)
		return
	}
	if _, err := h.committees.AddToSet(ctx, committeeID, models.CommitteeEvents, ev.ID); err != nil {
		// The event exists; the committee's list is a cache of ownership.
		h.Log.Warn("failed to record event on committee",
			zap.String("event_id", ev.ID.Hex()),
			zap.String("committee_id", committeeID.Hex()),
			zap.Error(err))
	}

	h.AuditLog.EventCreated(ctx, r, caller.ID, ev.ID, &committeeID, ev.Title)
	uierrors.WriteJSON(w, http.StatusCreated, ev)
}

// HandleUpdate applies a partial update to an event.
//
// Route: PUT /api/events/{id}
func (h *Handler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	caller, ok := authz.Caller(r)
	if !ok {
		h.ErrLog.LogUnauthorized(w, r)
		return
	}
	id, err := inputval.ObjectID("event id", chi.URLParam(r, "id"))
	if err != nil {
		h.ErrLog.Write(w, r, "update event: bad id", err)
		return
	}
	var in eventInput
	if err := inputval.DecodeJSON(r, &in); err != nil {
		h.ErrLog.Write(w, r, "update event: decode body", err)
		return
	}
	if err := in.validate(false); err != nil {
		h.ErrLog.Write(w, r, "update event: invalid input", err)
		return
	}

	var upd eventstore.EventUpdate
	var changed []string
	if in.Title != nil {
		t := str(in.Title)
		upd.Title = &t
		changed = append(changed, "title")
	}
	if in.Description != nil {
		d := htmlsanitize.Sanitize(*in.Description)
		upd.Description = &d
		changed = append(changed, "description")
	}
	if in.DateTime != nil {
		dt := in.DateTime.UTC()
		upd.DateTime = &dt
		changed = append(changed, "dateTime")
	}
	if in.Venue != nil {
		v := str(in.Venue)
		upd.Venue = &v
		changed = append(changed, "venue")
	}
	if in.Fee != nil {
		upd.Fee = in.Fee
		changed = append(changed, "fee")
	}
	if in.Packages != nil {
		pkgs, err := in.packages()
		if err != nil {
			h.ErrLog.Write(w, r, "update event: bad packages", err)
			return
		}
		upd.Packages = &pkgs
		changed = append(changed, "packages")
	}
	if in.IsGroup != nil {
		upd.IsGroup = in.IsGroup
		changed = append(changed, "isGroup")
	}
	if in.MaxGroupSize != nil {
		upd.MaxGroupSize = in.MaxGroupSize
		changed = append(changed, "maxGroupSize")
	}
	if in.Rules != nil {
		rules := htmlsanitize.PlainTextAll(*in.Rules)
		upd.Rules = &rules
		changed = append(changed, "rules")
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	ev, err := h.events.Update(ctx, id, upd)
	if errors.Is(err, mongo.ErrNoDocuments) {
		uierrors.WriteError(w, http.StatusNotFound, "not_found", "Event not found.")
		return
	}
	if err != nil {
		h.ErrLog.LogServerError(w, r, "database error updating event", err)
		return
	}

	h.AuditLog.EventUpdated(ctx, r, caller.ID, ev.ID, &ev.CommitteeID, strings.Join(changed, ","))
	uierrors.WriteJSON(w, http.StatusOK, ev)
}

// HandleDelete soft-deletes an event. Registrations are kept.
//
// Route: DELETE /api/events/{id}
func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	caller, ok := authz.Caller(r)
	if !ok {
		h.ErrLog.LogUnauthorized(w, r)
		return
	}
	id, err := inputval.ObjectID("event id", chi.URLParam(r, "id"))
	if err != nil {
		h.ErrLog.Write(w, r, "delete event: bad id", err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	ev, err := h.events.GetByID(ctx, id)
	if errors.Is(err, mongo.ErrNoDocuments) {
		uierrors.WriteError(w, http.StatusNotFound, "not_found", "Event not found.")
		return
	}
	if err != nil {
		h.ErrLog.LogServerError(w, r, "database error loading event", err)
		return
	}
	if err := h.events.SoftDelete(ctx, id); err != nil {
		h.ErrLog.LogServerError(w, r, "database error deleting event", err)
		return
	}

	h.AuditLog.EventDeleted(ctx, r, caller.ID, id, &ev.CommitteeID, ev.Title)
	uierrors.WriteJSON(w, http.StatusOK, map[string]string{"message": "Event deleted successfully"})
}

type assignRequest struct {
	MemberIDs *[]string `json:"memberIds"`
}

// HandleAssignMembers replaces the event's assignee roster. Assignees are
// not checked against the owning committee's members.
//
// Route: PUT /api/events/{id}/assign-members
func (h *Handler) HandleAssignMembers(w http.ResponseWriter, r *http.Request) {
	caller, ok := authz.Caller(r)
	if !ok {
		h.ErrLog.LogUnauthorized(w, r)
		return
	}
	id, err := inputval.ObjectID("event id", chi.URLParam(r, "id"))
	if err != nil {
		h.ErrLog.Write(w, r, "assign members: bad id", err)
		return
	}
	var req assignRequest
	if err := inputval.DecodeJSON(r, &req); err != nil {
		h.ErrLog.Write(w, r, "assign members: decode body", err)
		return
	}
	if req.MemberIDs == nil {
		h.ErrLog.Write(w, r, "assign members: missing ids", apperr.Invalid("memberIds must be an array"))
		return
	}
	ids, err := inputval.ObjectIDs("memberIds", *req.MemberIDs)
	if err != nil {
		h.ErrLog.Write(w, r, "assign members: bad member id", err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	ev, err := h.events.SetAssignees(ctx, id, ids)
	if errors.Is(err, mongo.ErrNoDocuments) {
		uierrors.WriteError(w, http.StatusNotFound, "not_found", "Event not found.")
		return
	}
	if err != nil {
		h.ErrLog.LogServerError(w, r, "database error assigning members", err)
		return
	}
	views, err := h.views(ctx, []models.Event{*ev})
	if err != nil {
		h.ErrLog.LogServerError(w, r, "database error resolving event", err)
		return
	}

	h.AuditLog.EventMembersAssigned(ctx, r, caller.ID, ev.ID, ev.CommitteeID, len(ids))
	uierrors.WriteJSON(w, http.StatusOK, views[0])
}
