// internal/app/features/events/list.go
package events

import (
	"context"
	"errors"
	"net/http"

	uierrors "github.com/dalemusser/festivo/internal/app/features/errors"
	eventstore "github.com/dalemusser/festivo/internal/app/store/events"
	"github.com/dalemusser/festivo/internal/app/system/authz"
	"github.com/dalemusser/festivo/internal/app/system/inputval"
	"github.com/dalemusser/festivo/internal/app/system/normalize"
	"github.com/dalemusser/festivo/internal/app/system/timeouts"
	"github.com/dalemusser/festivo/internal/domain/models"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// ServeList returns active events ordered by date. Optional query
// parameters: q (title substring) and committeeId.
//
// Route: GET /api/events
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	f := eventstore.ListFilter{
		ActiveOnly: true,
		Search:     normalize.QueryParam(r.URL.Query().Get("q")),
	}
	cid, err := inputval.OptionalObjectID("committeeId", r.URL.Query().Get("committeeId"))
	if err != nil {
		h.ErrLog.Write(w, r, "events list: bad committee id", err)
		return
	}
	if cid != nil {
		f.CommitteeIDs = []primitive.ObjectID{*cid}
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	evs, err := h.events.List(ctx, f)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "database error listing events", err)
		return
	}
	views, err := h.views(ctx, evs)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "database error resolving events", err)
		return
	}
	uierrors.WriteJSON(w, http.StatusOK, views)
}

// ServeEvent returns a single event. Inactive events are visible to admins only.
//
// Route: GET /api/events/{id}
func (h *Handler) ServeEvent(w http.ResponseWriter, r *http.Request) {
	id, err := inputval.ObjectID("event id", chi.URLParam(r, "id"))
	if err != nil {
		h.ErrLog.Write(w, r, "event: bad id", err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	ev, err := h.events.GetByID(ctx, id)
	if errors.Is(err, mongo.ErrNoDocuments) || (err == nil && !ev.IsActive && !authz.IsAdmin(r)) {
		uierrors.WriteError(w, http.StatusNotFound, "not_found", "Event not found.")
		return
	}
	if err != nil {
		h.ErrLog.LogServerError(w, r, "database error loading event", err)
		return
	}
	views, err := h.views(ctx, []models.Event{*ev})
	if err != nil {
		h.ErrLog.LogServerError(w, r, "database error resolving event", err)
		return
	}
	uierrors.WriteJSON(w, http.StatusOK, views[0])
}
